package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopapi/internal/auth"
	"shopapi/internal/httpx"
	"shopapi/internal/testutil"
	"shopapi/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "routing-secret"

type testServer struct {
	handler http.Handler
	users   *user.Service
}

func newTestServer(t *testing.T, mode auth.Mode) testServer {
	t.Helper()
	userService := user.NewService(user.NewMemoryRepo(), zap.NewNop())
	gateway, err := auth.NewGateway(testSecret, mode, userService)
	require.NoError(t, err)

	router := newRouter(routerDeps{
		users:   user.NewHTTPHandler(userService, zap.NewNop(), false),
		auth:    auth.NewHTTPHandler(userService, gateway, zap.NewNop(), false),
		gateway: gateway,
		ready:   userService.Ping,
	})
	handler := httpx.Chain(router,
		httpx.RequestIDMiddleware,
		httpx.RecoveryMiddleware(zap.NewNop()),
		httpx.RequestSizeLimitMiddleware(1<<20),
	)
	return testServer{handler: handler, users: userService}
}

func (s testServer) do(r *http.Request) testutil.RecordResponse {
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	return testutil.RecordHTTPResponse(w)
}

func (s testServer) seedAdmin(t *testing.T) string {
	t.Helper()
	admin, err := s.users.Register(context.Background(), testutil.TestAdminUser)
	require.NoError(t, err)
	return admin.ID
}

func TestEnforcedScenario(t *testing.T) {
	srv := newTestServer(t, auth.ModeEnforced)
	adminID := srv.seedAdmin(t)
	adminToken := testutil.GenerateTestToken(testSecret, adminID)

	registered := srv.do(testutil.NewRequest(http.MethodPost, "/users/register", testutil.TestRegistration))
	testutil.AssertResponseCode(t, registered.Code, http.StatusOK)
	profile := registered.Data()
	require.NotNil(t, profile)
	assert.Equal(t, "a@x.com", profile["correo"])
	assert.NotContains(t, profile, "contrasena")
	clientID := profile["_id"].(string)

	login := srv.do(testutil.NewRequest(http.MethodPost, "/users/login", map[string]string{
		"correo": "a@x.com", "contrasena": "secret123",
	}))
	testutil.AssertResponseCode(t, login.Code, http.StatusOK)
	clientToken, _ := login.Data()["token"].(string)
	require.NotEmpty(t, clientToken)

	wrong := srv.do(testutil.NewRequest(http.MethodPost, "/users/login", map[string]string{
		"correo": "a@x.com", "contrasena": "wrong",
	}))
	testutil.AssertResponseCode(t, wrong.Code, http.StatusUnauthorized)

	noToken := srv.do(testutil.NewRequest(http.MethodGet, "/users", nil))
	testutil.AssertResponseCode(t, noToken.Code, http.StatusUnauthorized)

	asClient := srv.do(testutil.NewRequestWithAuth(http.MethodGet, "/users", nil, clientToken))
	testutil.AssertResponseCode(t, asClient.Code, http.StatusForbidden)

	asAdmin := srv.do(testutil.NewRequestWithAuth(http.MethodGet, "/users", nil, adminToken))
	testutil.AssertResponseCode(t, asAdmin.Code, http.StatusOK)
	list := asAdmin.List()
	require.Len(t, list, 2)
	for _, item := range list {
		assert.NotContains(t, item.(map[string]interface{}), "contrasena")
	}

	me := srv.do(testutil.NewRequestWithAuth(http.MethodGet, "/users/me", nil, clientToken))
	testutil.AssertResponseCode(t, me.Code, http.StatusOK)
	assert.Equal(t, clientID, me.Data()["_id"])

	expired := srv.do(testutil.NewRequestWithAuth(http.MethodGet, "/users/me", nil, testutil.GenerateExpiredToken(testSecret, clientID)))
	testutil.AssertResponseCode(t, expired.Code, http.StatusUnauthorized)
}

func TestEnforcedAdminCRUD(t *testing.T) {
	srv := newTestServer(t, auth.ModeEnforced)
	adminToken := testutil.GenerateTestToken(testSecret, srv.seedAdmin(t))

	created := srv.do(testutil.NewRequestWithAuth(http.MethodPost, "/api/users", map[string]string{
		"nombreCompleto":  "Beto",
		"apellidoPaterno": "Díaz",
		"apellidoMaterno": "Soto",
		"correo":          "beto@x.com",
		"contrasena":      "pw",
		"rol":             user.RoleSuperadmin,
	}, adminToken))
	testutil.AssertResponseCode(t, created.Code, http.StatusOK)
	id := created.Data()["_id"].(string)
	assert.Equal(t, user.RoleSuperadmin, created.Data()["rol"])

	updated := srv.do(testutil.NewRequestWithAuth(http.MethodPut, "/api/users/"+id, map[string]string{
		"rol": user.RoleCustomer,
	}, adminToken))
	testutil.AssertResponseCode(t, updated.Code, http.StatusOK)
	assert.Equal(t, user.RoleCustomer, updated.Data()["rol"])
	assert.Equal(t, "Beto", updated.Data()["nombreCompleto"])

	deleted := srv.do(testutil.NewRequestWithAuth(http.MethodDelete, "/api/users/"+id, nil, adminToken))
	testutil.AssertResponseCode(t, deleted.Code, http.StatusOK)
	assert.Equal(t, "user deleted", deleted.Data()["message"])

	again := srv.do(testutil.NewRequestWithAuth(http.MethodDelete, "/api/users/"+id, nil, adminToken))
	testutil.AssertResponseCode(t, again.Code, http.StatusNotFound)

	missing := srv.do(testutil.NewRequestWithAuth(http.MethodPut, "/api/users/"+id, map[string]string{"rol": "x"}, adminToken))
	testutil.AssertResponseCode(t, missing.Code, http.StatusNotFound)

	// A deleted user's still-valid token no longer resolves.
	ghost := srv.do(testutil.NewRequestWithAuth(http.MethodGet, "/users/me", nil, testutil.GenerateTestToken(testSecret, id)))
	testutil.AssertResponseCode(t, ghost.Code, http.StatusUnauthorized)
}

func TestOpenMode(t *testing.T) {
	srv := newTestServer(t, auth.ModeOpen)

	registered := srv.do(testutil.NewRequest(http.MethodPost, "/users/register", testutil.TestRegistration))
	testutil.AssertResponseCode(t, registered.Code, http.StatusOK)
	assert.NotContains(t, registered.Data(), "token")

	list := srv.do(testutil.NewRequest(http.MethodGet, "/users", nil))
	testutil.AssertResponseCode(t, list.Code, http.StatusOK)
	assert.Len(t, list.List(), 1)

	// Authorized, but there is no caller to describe.
	me := srv.do(testutil.NewRequest(http.MethodGet, "/users/me", nil))
	testutil.AssertResponseCode(t, me.Code, http.StatusNotFound)
	assert.Equal(t, "NOT_FOUND", me.ErrorCode())
}

func TestProbesAndBanners(t *testing.T) {
	srv := newTestServer(t, auth.ModeEnforced)

	for _, path := range []string{"/", "/api"} {
		res := srv.do(testutil.NewRequest(http.MethodGet, path, nil))
		testutil.AssertResponseCode(t, res.Code, http.StatusOK)
		assert.Equal(t, true, res.Data()["ok"])
	}

	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.handler.ServeHTTP(w, testutil.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	unknown := srv.do(testutil.NewRequest(http.MethodGet, "/nope", nil))
	testutil.AssertResponseCode(t, unknown.Code, http.StatusNotFound)
}

func TestReadyz_StoreDown(t *testing.T) {
	userService := user.NewService(user.NewMemoryRepo(), zap.NewNop())
	gateway, err := auth.NewGateway(testSecret, auth.ModeEnforced, userService)
	require.NoError(t, err)
	router := newRouter(routerDeps{
		users:   user.NewHTTPHandler(userService, zap.NewNop(), false),
		auth:    auth.NewHTTPHandler(userService, gateway, zap.NewNop(), false),
		gateway: gateway,
		ready:   func(context.Context) error { return errors.New("down") },
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
