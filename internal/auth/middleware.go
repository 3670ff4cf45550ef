package auth

import (
	"errors"
	"net/http"
	"strings"

	"shopapi/internal/httpx"
	"shopapi/internal/user"

	"go.uber.org/zap"
)

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
}

// Authenticate verifies the bearer token and attaches the resolved identity.
// Every rejection answers 401 with the same body. In open mode the request
// always proceeds, with an identity only when a valid token was sent.
func (g *Gateway) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		open := g.mode == ModeOpen

		token := bearerToken(r)
		if token == "" {
			if open {
				next.ServeHTTP(w, r)
				return
			}
			unauthorized(w, r)
			return
		}

		userID, err := g.VerifyToken(token)
		if err != nil {
			if open {
				next.ServeHTTP(w, r)
				return
			}
			unauthorized(w, r)
			return
		}

		u, err := g.ResolveIdentity(r.Context(), userID)
		if err != nil {
			switch {
			case open:
				if !errors.Is(err, user.ErrNotFound) {
					g.logger.Warn("identity lookup failed", zap.String("user_id", userID), zap.Error(err))
				}
				next.ServeHTTP(w, r)
			case errors.Is(err, user.ErrNotFound):
				unauthorized(w, r)
			default:
				httpx.InternalError(w, r, g.logger, err, false)
			}
			return
		}

		ctx := httpx.ContextWithIdentity(r.Context(), httpx.Identity{
			UserID: u.ID,
			Email:  u.Email,
			Role:   u.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RoleGate admits only identities whose role equals role. It must run after
// Authenticate.
func (g *Gateway) RoleGate(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.mode == ModeOpen {
				next.ServeHTTP(w, r)
				return
			}

			identity, ok := httpx.IdentityFrom(r)
			if !ok {
				unauthorized(w, r)
				return
			}
			if err := g.RequireRole(identity, role); err != nil {
				httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
