package types

import (
	"time"

	"github.com/google/uuid"
)

// User is the stored account record. It never leaves the service layer as-is;
// handlers respond with PublicUser.
type User struct {
	ID                         uuid.UUID  `json:"id"`
	Username                   string     `json:"username"`
	Email                      string     `json:"email"`
	PasswordHash               string     `json:"-"`
	IsAdmin                    bool       `json:"isAdmin"`
	IsVerified                 bool       `json:"isVerified"`
	VerificationToken          *string    `json:"-"`
	VerificationTokenExpiresAt *time.Time `json:"-"`
	ResetPasswordToken         *string    `json:"-"`
	ResetPasswordExpiresAt     *time.Time `json:"-"`
	CreatedAt                  time.Time  `json:"createdAt"`
	UpdatedAt                  *time.Time `json:"updatedAt,omitempty"` // Last successful profile mutation.
}

// Public strips credential and token state from the record.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		IsAdmin:    u.IsAdmin,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// PublicUser is the external representation of a user.
type PublicUser struct {
	ID         uuid.UUID `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"`
	Username   string    `json:"username" example:"alice01"`
	Email      string    `json:"email" example:"alice@example.com"`
	IsAdmin    bool      `json:"isAdmin"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserProfile is what the profile endpoint returns for the caller.
type UserProfile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserParams carries everything the store needs to create a record.
type NewUserParams struct {
	Username                   string
	Email                      string
	PasswordHash               string
	VerificationToken          string
	VerificationTokenExpiresAt time.Time
}

// UpdateProfileParams is the body accepted by the profile and admin update endpoints.
type UpdateProfileParams struct {
	Username string `json:"username" example:"alice02"`
}
