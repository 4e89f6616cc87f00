// Package validate holds the request shape rules. Rule sets are built once by
// New and are safe for concurrent use.
package validate

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
	specialPattern  = regexp.MustCompile(`[^A-Za-z0-9\s]`)
	noSpacePattern  = regexp.MustCompile(`^\S+$`)
	hexTokenPattern = regexp.MustCompile(`^[0-9a-f]+$`)
)

type Validator struct {
	username      []validation.Rule
	email         []validation.Rule
	password      []validation.Rule
	loginPassword []validation.Rule
	token         []validation.Rule
	category      []validation.Rule
}

func New() *Validator {
	return &Validator{
		username: []validation.Rule{
			validation.Required,
			validation.Length(5, 20),
			validation.Match(usernamePattern).Error("must contain only letters, digits and underscores"),
		},
		email: []validation.Rule{
			validation.Required,
			validation.Length(3, 255),
			is.Email,
		},
		password: []validation.Rule{
			validation.Required,
			validation.Length(8, 20),
			validation.Match(noSpacePattern).Error("must not contain whitespace"),
			validation.Match(upperPattern).Error("must contain an uppercase letter"),
			validation.Match(lowerPattern).Error("must contain a lowercase letter"),
			validation.Match(digitPattern).Error("must contain a digit"),
			validation.Match(specialPattern).Error("must contain a special character"),
		},
		loginPassword: []validation.Rule{
			validation.Required,
			validation.Length(1, 72),
		},
		token: []validation.Rule{
			validation.Required,
			validation.Length(40, 128),
			validation.Match(hexTokenPattern).Error("must be a hex string"),
		},
		category: []validation.Rule{
			validation.Required,
			validation.Length(1, 30),
		},
	}
}

func (v *Validator) Register(req *types.RegisterRequest) error {
	return wrap(validation.ValidateStruct(req,
		validation.Field(&req.Username, v.username...),
		validation.Field(&req.Email, v.email...),
		validation.Field(&req.Password, v.password...),
	))
}

func (v *Validator) Login(req *types.LoginRequest) error {
	return wrap(validation.ValidateStruct(req,
		validation.Field(&req.Email, v.email...),
		validation.Field(&req.Password, v.loginPassword...),
	))
}

func (v *Validator) Username(username string) error {
	return wrapField("username", validation.Validate(username, v.username...))
}

func (v *Validator) Email(email string) error {
	return wrapField("email", validation.Validate(email, v.email...))
}

func (v *Validator) Password(password string) error {
	return wrapField("password", validation.Validate(password, v.password...))
}

// Token checks the shape of verification codes and reset tokens.
func (v *Validator) Token(token string) error {
	return wrapField("code", validation.Validate(token, v.token...))
}

func (v *Validator) CategoryName(name string) error {
	return wrapField("name", validation.Validate(name, v.category...))
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", types.ErrValidation, err)
}

func wrapField(field string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", types.ErrValidation, field, err)
}
