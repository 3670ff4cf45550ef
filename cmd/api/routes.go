package main

import (
	"context"
	"net/http"
	"time"

	"shopapi/internal/auth"
	"shopapi/internal/httpx"
	"shopapi/internal/user"
)

type routerDeps struct {
	users   *user.HTTPHandler
	auth    *auth.HTTPHandler
	gateway *auth.Gateway
	ready   func(ctx context.Context) error
}

// userPrefixes mounts the user surface both bare and under /api, the path
// existing clients use.
var userPrefixes = []string{"/users", "/api/users"}

func newRouter(d routerDeps) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := d.ready(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /{$}", banner("API online"))
	router.HandleFunc("GET /api", banner("Server running"))

	authenticated := func(h http.HandlerFunc) http.Handler {
		return d.gateway.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, d.gateway.Authenticate, d.gateway.RoleGate(user.RoleSuperadmin))
	}

	for _, prefix := range userPrefixes {
		router.HandleFunc("POST "+prefix+"/register", d.auth.Register)
		router.HandleFunc("POST "+prefix+"/login", d.auth.Login)
		router.Handle("GET "+prefix+"/me", authenticated(d.users.GetCurrentUser))

		router.Handle("GET "+prefix, admin(d.users.List))
		router.Handle("POST "+prefix, admin(d.users.Create))
		router.Handle("PUT "+prefix+"/{id}", admin(d.users.Update))
		router.Handle("DELETE "+prefix+"/{id}", admin(d.users.Delete))
	}

	return router
}

func banner(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONSuccess(w, r, map[string]interface{}{"ok": true, "message": message})
	}
}
