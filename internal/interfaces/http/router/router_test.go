package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealerdesk/backend/internal/infrastructure/auth"
	"github.com/dealerdesk/backend/internal/infrastructure/config"
	"github.com/dealerdesk/backend/internal/interfaces/http/handler"
	"github.com/dealerdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAPI_Mount(t *testing.T) {
	engine := gin.New()
	tagged := func(c *gin.Context) { c.Header("X-Api", "1"); c.Next() }

	routes := API{Version: "v2", Middleware: []gin.HandlerFunc{tagged}}.Mount(engine,
		NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		}))
	assert.Equal(t, []Route{{Method: http.MethodGet, Path: "/api/v2/test/ping"}}, routes)
	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, "1", w.Header().Get("X-Api"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/outside", nil))
	assert.Empty(t, w.Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("deposits", "/deposits")
		assert.Equal(t, "deposits", g.Name())
		assert.Equal(t, "/deposits", g.Prefix())
	})

	t.Run("registers every method with group middleware", func(t *testing.T) {
		engine := gin.New()
		calls := 0
		g := NewDomainGroup("test", "/test").
			Use(func(c *gin.Context) { calls++; c.Next() })
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }
		g.GET("/items", ok).POST("/items", ok).PUT("/items/:id", ok).DELETE("/items/:id", ok)
		g.mount(engine.Group("/api/v1"))

		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/test/items"},
			{http.MethodPost, "/api/v1/test/items"},
			{http.MethodPut, "/api/v1/test/items/1"},
			{http.MethodDelete, "/api/v1/test/items/1"},
		} {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, http.StatusOK, w.Code, tc.method+" "+tc.path)
		}
		assert.Equal(t, 4, calls)
	})
}

func mountTestAPI(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	svc := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-at-least-32-chars",
		AccessTokenExpiration: time.Minute,
		Issuer:                "test",
	})
	// services are never reached: every request below stops in middleware
	h := Handlers{
		Health:       handler.NewHealthHandler("test"),
		Dealership:   handler.NewDealershipHandler(nil),
		Subscription: handler.NewSubscriptionHandler(nil),
		Deposit:      handler.NewDepositHandler(nil),
	}
	engine := gin.New()
	routes := Mount(engine, h, nil, middleware.JWTAuth(middleware.DefaultJWTConfig(svc)))
	require.Contains(t, routes, Route{Method: http.MethodPost, Path: "/api/v1/admin/expiry-sweep"})
	require.NotContains(t, routes, Route{Method: http.MethodGet, Path: "/api/v1/health"})
	return engine, svc
}

func tokenFor(t *testing.T, svc *auth.JWTService, perms ...string) string {
	t.Helper()
	token, _, err := svc.GenerateAccessToken(auth.TokenInput{
		UserID:      uuid.New(),
		OutletID:    uuid.New(),
		Permissions: perms,
	})
	require.NoError(t, err)
	return token
}

func TestMount_Authorization(t *testing.T) {
	engine, svc := mountTestAPI(t)
	id := uuid.NewString()
	plain := tokenFor(t, svc)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{name: "health is public", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "health is served only at the root", method: http.MethodGet, path: "/api/v1/health", want: http.StatusNotFound},
		{name: "api requires a token", method: http.MethodGet, path: "/api/v1/deposits", want: http.StatusUnauthorized},
		{name: "deposit approval requires permission", method: http.MethodPost, path: "/api/v1/deposits/" + id + "/approve", token: plain, want: http.StatusForbidden},
		{name: "deposit reject requires permission", method: http.MethodPost, path: "/api/v1/deposits/" + id + "/reject", token: plain, want: http.StatusForbidden},
		{name: "dealership approval requires permission", method: http.MethodPost, path: "/api/v1/dealerships/" + id + "/approve", token: plain, want: http.StatusForbidden},
		{name: "deposit approver cannot approve dealerships", method: http.MethodPost, path: "/api/v1/dealerships/" + id + "/approve",
			token: tokenFor(t, svc, auth.PermissionDepositApprove), want: http.StatusForbidden},
		{name: "plan creation requires permission", method: http.MethodPost, path: "/api/v1/plans", token: plain, want: http.StatusForbidden},
		{name: "expiry sweep requires permission", method: http.MethodPost, path: "/api/v1/admin/expiry-sweep", token: plain, want: http.StatusForbidden},
		{name: "approver passes to validation", method: http.MethodPost, path: "/api/v1/deposits/not-a-uuid/approve",
			token: tokenFor(t, svc, auth.PermissionDepositApprove), want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
