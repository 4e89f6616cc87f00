package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

func TestRegister(t *testing.T) {
	v := New()

	valid := types.RegisterRequest{Username: "alice01", Email: "alice@example.com", Password: "Str0ng!Pw"}
	assert.NoError(t, v.Register(&valid))

	tests := map[string]types.RegisterRequest{
		"ShortUsername":   {Username: "al", Email: "alice@example.com", Password: "Str0ng!Pw"},
		"LongUsername":    {Username: strings.Repeat("a", 21), Email: "alice@example.com", Password: "Str0ng!Pw"},
		"UsernameSymbols": {Username: "alice-01", Email: "alice@example.com", Password: "Str0ng!Pw"},
		"BadEmail":        {Username: "alice01", Email: "not-an-email", Password: "Str0ng!Pw"},
		"MissingEmail":    {Username: "alice01", Password: "Str0ng!Pw"},
		"NoUpper":         {Username: "alice01", Email: "alice@example.com", Password: "str0ng!pw"},
		"NoLower":         {Username: "alice01", Email: "alice@example.com", Password: "STR0NG!PW"},
		"NoDigit":         {Username: "alice01", Email: "alice@example.com", Password: "Strong!Pw"},
		"NoSpecial":       {Username: "alice01", Email: "alice@example.com", Password: "Str0ngPw1"},
		"Whitespace":      {Username: "alice01", Email: "alice@example.com", Password: "Str0ng! Pw"},
		"TooShort":        {Username: "alice01", Email: "alice@example.com", Password: "S0!a"},
		"TooLong":         {Username: "alice01", Email: "alice@example.com", Password: "Str0ng!Pw" + strings.Repeat("x", 12)},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, v.Register(&req), types.ErrValidation)
		})
	}
}

func TestLogin(t *testing.T) {
	v := New()
	assert.NoError(t, v.Login(&types.LoginRequest{Email: "alice@example.com", Password: "anything"}))
	assert.ErrorIs(t, v.Login(&types.LoginRequest{Email: "alice@example.com"}), types.ErrValidation)
	assert.ErrorIs(t, v.Login(&types.LoginRequest{Email: "alice", Password: "x"}), types.ErrValidation)
}

func TestToken(t *testing.T) {
	v := New()
	assert.NoError(t, v.Token(strings.Repeat("ab", 32)))
	assert.ErrorIs(t, v.Token(""), types.ErrValidation)
	assert.ErrorIs(t, v.Token("not-hex-"+strings.Repeat("z", 40)), types.ErrValidation)
}

func TestCategoryName(t *testing.T) {
	v := New()
	assert.NoError(t, v.CategoryName("books"))
	assert.ErrorIs(t, v.CategoryName(""), types.ErrValidation)
	assert.ErrorIs(t, v.CategoryName(strings.Repeat("c", 31)), types.ErrValidation)
}
