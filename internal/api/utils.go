package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

// ErrorResponse writes the standard JSON error envelope including request ID.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteJSONResponse(w, r, status, types.Response{
		Error:     true,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// SuccessResponse wraps payload in the success envelope.
func SuccessResponse(w http.ResponseWriter, r *http.Request, status int, payload any) {
	WriteJSONResponse(w, r, status, types.Response{
		Error:   false,
		Message: payload,
	})
}

// StatusForError maps a domain error to its fixed HTTP status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrConflict):
		return http.StatusForbidden
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrCooldown):
		return http.StatusTooManyRequests
	case errors.Is(err, types.ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError translates err into the envelope. Internal failures are logged
// with detail and reported with fallback only. Known kinds use message when
// non-empty, otherwise the error text.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message, fallback string) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), fallback, slog.Any("error", err))
		ErrorResponse(w, r, status, fallback)
		return
	}
	if message == "" {
		message = err.Error()
	}
	logger.WarnContext(r.Context(), "Request failed", slog.Int("status", status), slog.Any("error", err))
	ErrorResponse(w, r, status, message)
}

// WriteJSONResponse encodes the data to JSON and writes the response header and body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		// Client already received the status code
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// DecodeJSONBody reads and decodes a JSON request body safely.
// Every returned error wraps types.ErrValidation.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("%w: body contains badly-formed JSON (at character %d)", types.ErrValidation, syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return fmt.Errorf("%w: body contains badly-formed JSON", types.ErrValidation)

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("%w: body contains incorrect JSON type for field %q", types.ErrValidation, unmarshalTypeError.Field)
			}
			return fmt.Errorf("%w: body contains incorrect JSON type (at character %d)", types.ErrValidation, unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: body must not be empty", types.ErrValidation)

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return fmt.Errorf("%w: body contains unknown key %q", types.ErrValidation, fieldName)

		case errors.As(err, &maxBytesError):
			return fmt.Errorf("%w: body must not be larger than %d bytes", types.ErrValidation, maxBytesError.Limit)

		case errors.As(err, &invalidUnmarshalError):
			panic(fmt.Errorf("developer error: invalid argument passed to json.Unmarshal: %w", err))

		default:
			return fmt.Errorf("%w: error decoding JSON body: %v", types.ErrValidation, err)
		}
	}

	if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must only contain a single JSON value", types.ErrValidation)
	}

	return nil
}
