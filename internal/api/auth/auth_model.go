package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

// Claims represents the custom claims included in the session token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Session is a freshly issued session token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// TokenPolicy holds lifetimes of the out-of-band tokens and where reset links point.
type TokenPolicy struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	PublicBaseURL   string
}
