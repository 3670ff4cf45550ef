package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shopapi/internal/httpx"
	"shopapi/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// identityEcho answers 200 with the attached user id, or "anonymous".
func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, ok := httpx.IdentityFrom(r); ok {
			_, _ = w.Write([]byte(identity.UserID + ":" + identity.Role))
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	})
}

func newTestGateway(t *testing.T, mode Mode) (*Gateway, *mockResolver) {
	t.Helper()
	resolver := &mockResolver{}
	resolver.On("FindByID", mock.Anything, "admin").Return(user.User{ID: "admin", Role: user.RoleSuperadmin}, nil).Maybe()
	resolver.On("FindByID", mock.Anything, "client").Return(user.User{ID: "client", Role: user.RoleCustomer}, nil).Maybe()
	resolver.On("FindByID", mock.Anything, "gone").Return(user.User{}, user.ErrNotFound).Maybe()
	resolver.On("FindByID", mock.Anything, "broken").Return(user.User{}, errors.New("store down")).Maybe()

	g, err := NewGateway(testSecret, mode, resolver)
	require.NoError(t, err)
	return g, resolver
}

func request(t *testing.T, g *Gateway, userID string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/users", nil)
	if userID != "" {
		token, _, err := g.IssueToken(userID)
		require.NoError(t, err)
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestAuthenticate_Enforced(t *testing.T) {
	g, _ := newTestGateway(t, ModeEnforced)
	handler := g.Authenticate(identityEcho())

	t.Run("no token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request(t, g, ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		r := request(t, g, "")
		r.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid and expired tokens look the same", func(t *testing.T) {
		r := request(t, g, "")
		r.Header.Set("Authorization", "Bearer garbage")
		invalid := httptest.NewRecorder()
		handler.ServeHTTP(invalid, r)

		past, err := NewGateway(testSecret, ModeEnforced, &mockResolver{}, WithClock(fixedClock(time.Now().Add(-31*24*time.Hour))))
		require.NoError(t, err)
		expiredToken, _, err := past.IssueToken("client")
		require.NoError(t, err)
		r = request(t, g, "")
		r.Header.Set("Authorization", "Bearer "+expiredToken)
		expired := httptest.NewRecorder()
		handler.ServeHTTP(expired, r)

		assert.Equal(t, http.StatusUnauthorized, invalid.Code)
		assert.Equal(t, http.StatusUnauthorized, expired.Code)
		assert.Equal(t, invalid.Body.String(), expired.Body.String())
	})

	t.Run("deleted user", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request(t, g, "gone"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request(t, g, "broken"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "store down")
	})

	t.Run("identity attached", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request(t, g, "client"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "client:cliente", w.Body.String())
	})
}

func TestAuthenticate_Open(t *testing.T) {
	g, _ := newTestGateway(t, ModeOpen)
	handler := g.Authenticate(identityEcho())

	tests := []struct {
		name   string
		userID string
		header string
		want   string
	}{
		{"no token", "", "", "anonymous"},
		{"garbage token", "", "Bearer garbage", "anonymous"},
		{"deleted user", "gone", "", "anonymous"},
		{"store failure", "broken", "", "anonymous"},
		{"valid token still resolves", "admin", "", "admin:Superadmin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := request(t, g, tt.userID)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRoleGate(t *testing.T) {
	t.Run("enforced", func(t *testing.T) {
		g, _ := newTestGateway(t, ModeEnforced)
		handler := httpx.Chain(identityEcho(), g.Authenticate, g.RoleGate(user.RoleSuperadmin))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request(t, g, "client"))
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, request(t, g, "admin"))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, request(t, g, ""))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("without authenticate", func(t *testing.T) {
		g, _ := newTestGateway(t, ModeEnforced)
		w := httptest.NewRecorder()
		g.RoleGate(user.RoleSuperadmin)(identityEcho()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("open", func(t *testing.T) {
		g, _ := newTestGateway(t, ModeOpen)
		handler := httpx.Chain(identityEcho(), g.Authenticate, g.RoleGate(user.RoleSuperadmin))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, request(t, g, "client"))
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, request(t, g, ""))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAuthenticate_PropagatesContext(t *testing.T) {
	g, _ := newTestGateway(t, ModeEnforced)
	type ctxKey struct{}

	var seen interface{}
	handler := g.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(ctxKey{})
	}))

	r := request(t, g, "admin")
	r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, "kept"))
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "kept", seen)
}
