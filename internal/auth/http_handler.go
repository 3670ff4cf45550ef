package auth

import (
	"errors"
	"net/http"
	"strings"

	"shopapi/internal/httpx"
	"shopapi/internal/user"

	"go.uber.org/zap"
)

type HTTPHandler struct {
	users        *user.Service
	gateway      *Gateway
	logger       *zap.Logger
	exposeErrors bool
}

func NewHTTPHandler(users *user.Service, gateway *Gateway, logger *zap.Logger, exposeErrors bool) *HTTPHandler {
	return &HTTPHandler{users: users, gateway: gateway, logger: logger, exposeErrors: exposeErrors}
}

type LoginReq struct {
	Email    string `json:"correo" validate:"required"`
	Password string `json:"contrasena" validate:"required"`
}

// SessionResponse is the profile, plus the bearer token in enforced mode.
type SessionResponse struct {
	user.User
	Token     string `json:"token,omitempty"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
}

func (h *HTTPHandler) respondWithSession(w http.ResponseWriter, r *http.Request, u user.User) {
	resp := SessionResponse{User: u}
	if h.gateway.Mode() == ModeEnforced {
		token, _, err := h.gateway.IssueToken(u.ID)
		if err != nil {
			httpx.InternalError(w, r, h.logger, err, h.exposeErrors)
			return
		}
		resp.Token = token
		resp.ExpiresIn = int64(h.gateway.TTL().Seconds())
	}
	httpx.JSONSuccess(w, r, resp)
}

// Register handles POST /users/register
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body user.RegisterInput true "Registration request"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /users/register [post]
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterInput
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	// Privileged accounts come from the admin surface or the seed command.
	if h.gateway.Mode() == ModeEnforced && strings.TrimSpace(req.Role) == user.RoleSuperadmin {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Role not allowed", []httpx.ErrorDetail{
			{Field: "rol", Message: "rol cannot be " + user.RoleSuperadmin},
		})
		return
	}

	created, err := h.users.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			httpx.JSONError(w, r, http.StatusBadRequest, "ALREADY_EXISTS", "Email already exists", nil)
		case errors.Is(err, user.ErrInvalidInput):
			httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input", nil)
		default:
			httpx.InternalError(w, r, h.logger, err, h.exposeErrors)
		}
		return
	}

	h.respondWithSession(w, r, created)
}

// Login handles POST /users/login
// @Summary User login
// @Description Authenticate user and receive a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginReq true "Login request"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /users/login [post]
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if validationErrors := httpx.ValidateStruct(req); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required", validationErrors)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password", nil)
			return
		}
		httpx.InternalError(w, r, h.logger, err, h.exposeErrors)
		return
	}

	h.respondWithSession(w, r, u)
}
