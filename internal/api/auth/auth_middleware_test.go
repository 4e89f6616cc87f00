package auth

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-account-api/internal/types"
)

func decodeEnvelope(t *testing.T, body io.Reader) types.Response {
	t.Helper()
	var resp types.Response
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_ = json.NewEncoder(w).Encode(identity)
	})
}

func TestAuthenticate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	iss := newTestIssuer(t, testNow())
	user := &types.User{ID: uuid.New(), Username: "alice01", Email: "alice@example.com", PasswordHash: "secret-hash"}
	session, err := iss.Issue(user.ID)
	require.NoError(t, err)

	t.Run("CookieToken", func(t *testing.T) {
		lookup := new(MockCredentialStore)
		lookup.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		rr := httptest.NewRecorder()
		Authenticate(logger, iss, lookup)(identityEcho()).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret-hash")
		var identity types.PublicUser
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&identity))
		assert.Equal(t, user.ID, identity.ID)
	})

	t.Run("BearerToken", func(t *testing.T) {
		lookup := new(MockCredentialStore)
		lookup.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rr := httptest.NewRecorder()
		Authenticate(logger, iss, lookup)(identityEcho()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	cases := []struct {
		name    string
		prepare func(r *http.Request)
		verify  *JWTIssuer
		message string
	}{
		{
			name:    "NoToken",
			prepare: func(r *http.Request) {},
			verify:  iss,
			message: "Not authorized, no token",
		},
		{
			name:    "MalformedHeader",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Token abc") },
			verify:  iss,
			message: "Not authorized, no token",
		},
		{
			name:    "Garbage",
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"}) },
			verify:  iss,
			message: "Invalid or expired token",
		},
		{
			name: "Expired",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
			},
			verify:  newTestIssuer(t, testNow().Add(6*24*time.Hour)),
			message: "Token has expired",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lookup := new(MockCredentialStore)
			req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
			tc.prepare(req)
			rr := httptest.NewRecorder()
			Authenticate(logger, tc.verify, lookup)(identityEcho()).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			resp := decodeEnvelope(t, rr.Body)
			assert.True(t, resp.Error)
			assert.Equal(t, tc.message, resp.Message)
			lookup.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
		})
	}

	t.Run("UserGone", func(t *testing.T) {
		lookup := new(MockCredentialStore)
		lookup.On("GetUserByID", mock.Anything, user.ID).Return(nil, types.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		rr := httptest.NewRecorder()
		Authenticate(logger, iss, lookup)(identityEcho()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		lookup := new(MockCredentialStore)
		lookup.On("GetUserByID", mock.Anything, user.ID).Return(nil, errors.New("db down"))

		req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		rr := httptest.NewRecorder()
		Authenticate(logger, iss, lookup)(identityEcho()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestAuthorizeAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guard := AuthorizeAdmin(logger)(next)

	t.Run("NoIdentity", func(t *testing.T) {
		rr := httptest.NewRecorder()
		guard.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("NotAdmin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req = req.WithContext(WithIdentity(req.Context(), types.PublicUser{ID: uuid.New()}))
		rr := httptest.NewRecorder()
		guard.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "Not authorized as an admin", decodeEnvelope(t, rr.Body).Message)
	})

	t.Run("Admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		req = req.WithContext(WithIdentity(req.Context(), types.PublicUser{ID: uuid.New(), IsAdmin: true}))
		rr := httptest.NewRecorder()
		guard.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
