package types

// RegisterRequest is the body of POST /api/users.
type RegisterRequest struct {
	Username string `json:"username" example:"alice01"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"Str0ng!Pw"`
}

// LoginRequest is the body of POST /api/users/auth.
type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"Str0ng!Pw"`
}

// VerifyEmailRequest carries the code delivered by the verification email.
type VerifyEmailRequest struct {
	Code string `json:"code"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

// ResetPasswordRequest completes the reset flow; the token travels in the path.
type ResetPasswordRequest struct {
	Password string `json:"password" example:"N3w!Passw"`
}
