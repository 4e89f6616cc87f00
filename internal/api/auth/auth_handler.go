package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/go-account-api/internal/api"
	"github.com/FACorreiaa/go-account-api/internal/types"
	"github.com/FACorreiaa/go-account-api/internal/validate"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	VerifyEmail(w http.ResponseWriter, r *http.Request)
	ResendVerification(w http.ResponseWriter, r *http.Request)
	ForgotPassword(w http.ResponseWriter, r *http.Request)
	ResetPassword(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService  AuthService
	validator    *validate.Validator
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandlerImpl(authService AuthService, validator *validate.Validator, secureCookie bool, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("auth: NewAuthHandlerImpl called with nil logger")
	}
	return &HandlerImpl{
		authService:  authService,
		validator:    validator,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an unverified account, sets the session cookie and mails a verification code.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.RegisterRequest true "Registration"
// @Success      201 {object} types.Response{message=types.PublicUser}
// @Failure      401 {object} types.Response "Invalid input"
// @Failure      403 {object} types.Response "Account already exists"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /api/users [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Register"))

	var req types.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to register user")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validator.Register(&req); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to register user")
		return
	}

	user, session, err := h.authService.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		message := ""
		if errors.Is(err, types.ErrConflict) {
			message = "Account already exists"
		}
		api.WriteError(w, r, l, err, message, "Failed to register user")
		return
	}

	h.setSessionCookie(w, session)
	api.SuccessResponse(w, r, http.StatusCreated, user)
}

// Login godoc
// @Summary      Authenticate
// @Description  Checks email and password and sets the session cookie.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.LoginRequest true "Credentials"
// @Success      200 {object} types.Response{message=types.PublicUser}
// @Failure      401 {object} types.Response "Invalid credentials"
// @Failure      404 {object} types.Response "Invalid credentials"
// @Router       /api/users/auth [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Login"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to log in")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validator.Login(&req); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to log in")
		return
	}

	user, session, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		message := ""
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrUnauthenticated) {
			message = "Invalid credentials"
		}
		api.WriteError(w, r, l, err, message, "Failed to log in")
		return
	}

	h.setSessionCookie(w, session)
	api.SuccessResponse(w, r, http.StatusOK, user)
}

// Logout godoc
// @Summary      Log out
// @Description  Expires the session cookie. The token itself stays valid until its expiry.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.Response
// @Router       /api/users/logout [post]
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	api.SuccessResponse(w, r, http.StatusOK, "Logged out successfully")
}

// VerifyEmail godoc
// @Summary      Verify email
// @Description  Consumes the code mailed at registration.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.VerifyEmailRequest true "Verification code"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Invalid or expired verification code"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     CookieAuth
// @Router       /api/users/verify-email [post]
func (h *HandlerImpl) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "VerifyEmail"))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.VerifyEmailRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to verify email")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if err := h.validator.Token(req.Code); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to verify email")
		return
	}

	if err := h.authService.VerifyEmail(ctx, userID, req.Code); err != nil {
		message := ""
		if errors.Is(err, types.ErrBadRequest) {
			message = "Invalid or expired verification code"
		}
		api.WriteError(w, r, l, err, message, "Failed to verify email")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Email verified successfully")
}

// ResendVerification godoc
// @Summary      Resend verification code
// @Tags         Auth
// @Produce      json
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Email already verified"
// @Security     CookieAuth
// @Router       /api/users/verify-email/resend [post]
func (h *HandlerImpl) ResendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ResendVerification"))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.authService.ResendVerification(ctx, userID); err != nil {
		message := ""
		if errors.Is(err, types.ErrBadRequest) {
			message = "Email already verified"
		}
		api.WriteError(w, r, l, err, message, "Failed to resend verification code")
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, "Verification email sent")
}

// ForgotPassword godoc
// @Summary      Request password reset
// @Description  Mails a one-hour reset link. The token is never part of the response.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.ForgotPasswordRequest true "Account email"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "No account with that email"
// @Router       /api/users/forgot-password [post]
func (h *HandlerImpl) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ForgotPassword"))

	var req types.ForgotPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to request password reset")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validator.Email(req.Email); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to request password reset")
		return
	}

	if err := h.authService.RequestPasswordReset(ctx, req.Email); err != nil {
		message := ""
		if errors.Is(err, types.ErrBadRequest) {
			message = "User not found"
		}
		api.WriteError(w, r, l, err, message, "Failed to request password reset")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Password reset email sent")
}

// ResetPassword godoc
// @Summary      Complete password reset
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        token path string true "Reset token"
// @Param        body body types.ResetPasswordRequest true "New password"
// @Success      200 {object} types.Response
// @Failure      400 {object} types.Response "Invalid or expired reset token"
// @Router       /api/users/reset-password/{token} [post]
func (h *HandlerImpl) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ResetPassword"))

	token := chi.URLParam(r, "token")
	if err := h.validator.Token(token); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid or expired reset token")
		return
	}

	var req types.ResetPasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to reset password")
		return
	}
	if err := h.validator.Password(req.Password); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to reset password")
		return
	}

	if err := h.authService.CompletePasswordReset(ctx, token, req.Password); err != nil {
		message := ""
		if errors.Is(err, types.ErrBadRequest) {
			message = "Invalid or expired reset token"
		}
		api.WriteError(w, r, l, err, message, "Failed to reset password")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, "Password reset successful")
}

func (h *HandlerImpl) setSessionCookie(w http.ResponseWriter, session *Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
