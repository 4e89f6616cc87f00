package user

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-account-api/internal/api"
	"github.com/FACorreiaa/go-account-api/internal/api/auth"
	"github.com/FACorreiaa/go-account-api/internal/types"
	"github.com/FACorreiaa/go-account-api/internal/validate"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetUserProfile(w http.ResponseWriter, r *http.Request)
	UpdateUserProfile(w http.ResponseWriter, r *http.Request)
	ListUsers(w http.ResponseWriter, r *http.Request)
	GetUserByID(w http.ResponseWriter, r *http.Request)
	UpdateUserByID(w http.ResponseWriter, r *http.Request)
	DeleteUser(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	validator   *validate.Validator
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, validator *validate.Validator, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("user: NewHandlerImpl called with nil logger")
	}
	return &HandlerImpl{
		userService: userService,
		validator:   validator,
		logger:      logger,
	}
}

// GetUserProfile godoc
// @Summary      Get User Profile
// @Description  Retrieves the authenticated user's username and email.
// @Tags         User
// @Produce      json
// @Success      200 {object} types.Response{message=types.UserProfile}
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "User Not Found"
// @Security     CookieAuth
// @Router       /api/users/profile [get]
func (h *HandlerImpl) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetUserProfile"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.userService.GetCurrentProfile(ctx, userID)
	if err != nil {
		msg := ""
		if errors.Is(err, types.ErrNotFound) {
			msg = "User not found"
		}
		api.WriteError(w, r, l, err, msg, "Failed to retrieve user profile")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, profile)
}

// UpdateUserProfile godoc
// @Summary      Update User Profile
// @Description  Changes the caller's username. Allowed once per cooldown window.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        profile body types.UpdateProfileParams true "New username"
// @Success      200 {object} types.Response{message=types.PublicUser}
// @Failure      401 {object} types.Response "Invalid Input"
// @Failure      403 {object} types.Response "Username taken"
// @Failure      429 {object} types.Response "Changed too recently"
// @Security     CookieAuth
// @Router       /api/users/profile [put]
func (h *HandlerImpl) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateUserProfile"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	params, ok := h.decodeProfileUpdate(w, r, l)
	if !ok {
		return
	}

	user, err := h.userService.UpdateProfile(ctx, userID, params)
	if err != nil {
		api.WriteError(w, r, l, err, updateErrorMessage(err), "Failed to update user profile")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, user)
}

// ListUsers godoc
// @Summary      List users
// @Description  Returns all users ordered by username. Admin only.
// @Tags         Admin
// @Produce      json
// @Success      200 {object} types.Response{message=[]types.PublicUser}
// @Failure      403 {object} types.Response "Not authorized as an admin"
// @Security     CookieAuth
// @Router       /api/users [get]
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "ListUsers"))

	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		api.WriteError(w, r, l, err, "", "Failed to list users")
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, users)
}

// GetUserByID godoc
// @Summary      Get user
// @Tags         Admin
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} types.Response{message=types.PublicUser}
// @Failure      404 {object} types.Response "User not found"
// @Security     CookieAuth
// @Router       /api/users/{id} [get]
func (h *HandlerImpl) GetUserByID(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "GetUserByID"))

	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		msg := ""
		if errors.Is(err, types.ErrNotFound) {
			msg = "User not found"
		}
		api.WriteError(w, r, l, err, msg, "Failed to retrieve user")
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, user)
}

// UpdateUserByID godoc
// @Summary      Update user
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID"
// @Param        body body types.UpdateProfileParams true "New username"
// @Success      200 {object} types.Response{message=types.PublicUser}
// @Failure      429 {object} types.Response "Changed too recently"
// @Security     CookieAuth
// @Router       /api/users/{id} [put]
func (h *HandlerImpl) UpdateUserByID(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "UpdateUserByID"))

	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	params, ok := h.decodeProfileUpdate(w, r, l)
	if !ok {
		return
	}

	user, err := h.userService.UpdateUserByID(r.Context(), userID, params)
	if err != nil {
		api.WriteError(w, r, l, err, updateErrorMessage(err), "Failed to update user")
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary      Delete user
// @Description  Removes a non-admin user.
// @Tags         Admin
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} types.Response
// @Failure      403 {object} types.Response "Cannot delete admin user"
// @Failure      404 {object} types.Response "User not found"
// @Security     CookieAuth
// @Router       /api/users/{id} [delete]
func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "DeleteUser"))

	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(r.Context(), userID); err != nil {
		msg := ""
		switch {
		case errors.Is(err, types.ErrForbidden):
			msg = "Cannot delete admin user"
		case errors.Is(err, types.ErrNotFound):
			msg = "User not found"
		}
		api.WriteError(w, r, l, err, msg, "Failed to delete user")
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, "User removed")
}

// updateErrorMessage is the client text for a failed rename.
func updateErrorMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return "User not found"
	case errors.Is(err, types.ErrConflict):
		return "Username already taken"
	case errors.Is(err, types.ErrCooldown):
		return "Username was changed recently, try again later"
	}
	return ""
}

func (h *HandlerImpl) decodeProfileUpdate(w http.ResponseWriter, r *http.Request, l *slog.Logger) (types.UpdateProfileParams, bool) {
	var params types.UpdateProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to update user")
		return params, false
	}
	params.Username = strings.TrimSpace(params.Username)
	if err := h.validator.Username(params.Username); err != nil {
		api.WriteError(w, r, l, err, "", "Failed to update user")
		return params, false
	}
	return params, true
}

func pathUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}
