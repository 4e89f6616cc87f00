package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-account-api/internal/api"
	"github.com/FACorreiaa/go-account-api/internal/types"
)

type contextKey string

const IdentityKey contextKey = "identity"

// IdentityLookup resolves the user behind a verified token.
type IdentityLookup interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

// Authenticate validates the session token carried by the "token" cookie (or a
// Bearer Authorization header) and attaches the caller's public identity to
// the request context.
func Authenticate(logger *slog.Logger, issuer TokenIssuer, users IdentityLookup) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString, ok := tokenFromRequest(r)
			if !ok {
				l.DebugContext(ctx, "No session token on request")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			userID, err := issuer.Verify(tokenString)
			if err != nil {
				l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
				errMsg := "Invalid or expired token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					errMsg = "Token has expired"
				}
				api.ErrorResponse(w, r, http.StatusUnauthorized, errMsg)
				return
			}

			user, err := users.GetUserByID(ctx, userID)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					l.WarnContext(ctx, "Token refers to a user that no longer exists", slog.String("userID", userID.String()))
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Not authorized")
					return
				}
				l.ErrorContext(ctx, "Failed to resolve session user", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Could not resolve session")
				return
			}

			ctx = WithIdentity(ctx, user.Public())
			l.DebugContext(ctx, "Authentication successful", slog.String("userID", userID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthorizeAdmin must run after Authenticate. It only inspects the identity
// already on the context.
func AuthorizeAdmin(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentityFromContext(r.Context())
			if !ok || !identity.IsAdmin {
				logger.WarnContext(r.Context(), "Admin access denied",
					slog.Bool("identity_present", ok),
					slog.String("userID", identity.ID.String()))
				api.ErrorResponse(w, r, http.StatusForbidden, "Not authorized as an admin")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" || headerParts[1] == "" {
		return "", false
	}
	return headerParts[1], true
}

func WithIdentity(ctx context.Context, identity types.PublicUser) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func GetIdentityFromContext(ctx context.Context) (types.PublicUser, bool) {
	identity, ok := ctx.Value(IdentityKey).(types.PublicUser)
	return identity, ok
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	identity, ok := GetIdentityFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return identity.ID, true
}
