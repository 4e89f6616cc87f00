package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.ErrValidation, http.StatusUnauthorized},
		{types.ErrConflict, http.StatusForbidden},
		{types.ErrNotFound, http.StatusNotFound},
		{types.ErrUnauthenticated, http.StatusUnauthorized},
		{types.ErrForbidden, http.StatusForbidden},
		{types.ErrCooldown, http.StatusTooManyRequests},
		{types.ErrBadRequest, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", types.ErrNotFound), http.StatusNotFound},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForError(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(w, r, logger, errors.New("pq: password authentication failed"), "", "Could not load user")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body types.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, "Could not load user", body.Message)
}

func TestDecodeJSONBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("Valid", func(t *testing.T) {
		var dst payload
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
		require.NoError(t, DecodeJSONBody(httptest.NewRecorder(), r, &dst))
		assert.Equal(t, "x", dst.Name)
	})

	for name, body := range map[string]string{
		"Empty":        ``,
		"Malformed":    `{"name":`,
		"UnknownField": `{"nope":1}`,
		"WrongType":    `{"name":1}`,
		"Trailing":     `{"name":"x"}{"name":"y"}`,
	} {
		t.Run(name, func(t *testing.T) {
			var dst payload
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			err := DecodeJSONBody(httptest.NewRecorder(), r, &dst)
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}
}
