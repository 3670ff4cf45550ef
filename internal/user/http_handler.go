package user

import (
	"errors"
	"net/http"

	"shopapi/internal/httpx"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	service      *Service
	logger       *zap.Logger
	exposeErrors bool
}

func NewHTTPHandler(service *Service, logger *zap.Logger, exposeErrors bool) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger, exposeErrors: exposeErrors}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	case errors.Is(err, ErrDuplicateEmail):
		httpx.JSONError(w, r, http.StatusBadRequest, "ALREADY_EXISTS", "Email already exists", nil)
	case errors.Is(err, ErrInvalidInput):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", nil)
	default:
		httpx.InternalError(w, r, h.logger, err, h.exposeErrors)
	}
}

// GetCurrentUser handles GET /users/me
// @Summary Get current user
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /users/me [get]
func (h *HTTPHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	// Only open mode lets a request through without an identity; it is
	// authorized but has no profile to show.
	identity, ok := httpx.IdentityFrom(r)
	if !ok {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "No authenticated user", nil)
		return
	}

	u, err := h.service.FindByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return
		}
		httpx.InternalError(w, r, h.logger, err, h.exposeErrors)
		return
	}

	httpx.JSONSuccess(w, r, u)
}

// List handles GET /users
// @Summary List users
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /users [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		httpx.InternalError(w, r, h.logger, err, h.exposeErrors)
		return
	}
	httpx.JSONSuccess(w, r, users)
}

// Create handles POST /users
// @Summary Create a user from the admin panel
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body RegisterInput true "User"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /users [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.normalize()

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	created, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, created)
}

// Update handles PUT /users/{id}
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "User ID"
// @Param request body UpdateInput true "Fields to change"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /users/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateInput
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	updated, err := h.service.UpdateByID(r.Context(), id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, updated)
}

// Delete handles DELETE /users/{id}
// @Summary Delete a user
// @Tags users
// @Produce json
// @Security Bearer
// @Param id path string true "User ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /users/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteByID(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, map[string]string{"message": "user deleted"})
}
