package category

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-account-api/internal/api"
	"github.com/FACorreiaa/go-account-api/internal/types"
	"github.com/FACorreiaa/go-account-api/internal/validate"
)

type HandlerImpl struct {
	service   CategoryService
	validator *validate.Validator
	logger    *slog.Logger
}

func NewHandlerImpl(service CategoryService, validator *validate.Validator, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{service: service, validator: validator, logger: logger}
}

// CreateCategory godoc
// @Summary      Create category
// @Tags         Category
// @Accept       json
// @Produce      json
// @Param        body body types.CategoryRequest true "Category"
// @Success      201 {object} types.Response{message=types.Category}
// @Failure      403 {object} types.Response "Category already exists"
// @Security     CookieAuth
// @Router       /api/category [post]
func (h *HandlerImpl) CreateCategory(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "CreateCategory"))

	req, ok := h.decode(w, r, l)
	if !ok {
		return
	}

	c, err := h.service.CreateCategory(r.Context(), req.Name)
	if err != nil {
		msg := ""
		if errors.Is(err, types.ErrConflict) {
			msg = "Category Already Exists."
		}
		api.WriteError(w, r, l, err, msg, "Could not create category")
		return
	}
	api.SuccessResponse(w, r, http.StatusCreated, c)
}

// UpdateCategory godoc
// @Summary      Rename category
// @Description  Allowed once per cooldown window.
// @Tags         Category
// @Accept       json
// @Produce      json
// @Param        categoryId path string true "Category ID"
// @Param        body body types.CategoryRequest true "Category"
// @Success      200 {object} types.Response{message=types.Category}
// @Failure      404 {object} types.Response "Category not found"
// @Failure      429 {object} types.Response "Changed too recently"
// @Security     CookieAuth
// @Router       /api/category/{categoryId} [put]
func (h *HandlerImpl) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "UpdateCategory"))

	id, err := uuid.Parse(chi.URLParam(r, "categoryId"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid category ID format")
		return
	}
	req, ok := h.decode(w, r, l)
	if !ok {
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), id, req.Name)
	if err != nil {
		msg := ""
		switch {
		case errors.Is(err, types.ErrNotFound):
			msg = "Category not found"
		case errors.Is(err, types.ErrCooldown):
			msg = "Looks like you changed the name recently, so wait for 24 hr."
		case errors.Is(err, types.ErrConflict):
			msg = "Category Already Exists."
		}
		api.WriteError(w, r, l, err, msg, "Could not update category")
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, c)
}

// ListCategories godoc
// @Summary      List categories
// @Tags         Category
// @Produce      json
// @Success      200 {object} types.Response{message=[]types.Category}
// @Router       /api/category [get]
func (h *HandlerImpl) ListCategories(w http.ResponseWriter, r *http.Request) {
	l := h.logger.With(slog.String("HandlerImpl", "ListCategories"))

	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		api.WriteError(w, r, l, err, "", "Could not list categories")
		return
	}
	api.SuccessResponse(w, r, http.StatusOK, categories)
}

func (h *HandlerImpl) decode(w http.ResponseWriter, r *http.Request, l *slog.Logger) (types.CategoryRequest, bool) {
	var req types.CategoryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WriteError(w, r, l, err, "Invalid Category", "Invalid Category")
		return req, false
	}
	if err := h.validator.CategoryName(req.Name); err != nil {
		api.WriteError(w, r, l, err, "Invalid Category", "Invalid Category")
		return req, false
	}
	return req, true
}
