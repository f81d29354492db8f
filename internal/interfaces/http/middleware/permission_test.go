package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealerdesk/backend/internal/infrastructure/auth"
	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func permissionRouter(t *testing.T, permissions ...string) (*gin.Engine, string) {
	t.Helper()
	svc := newTestJWTService()
	token, _ := newTestToken(t, svc, permissions...)
	router := gin.New()
	router.Use(JWTAuth(DefaultJWTConfig(svc)))
	router.POST("/approve", RequirePermission(nil, auth.PermissionDepositApprove, auth.PermissionDealershipApprove),
		func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, token
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name        string
		permissions []string
		want        int
	}{
		{name: "holds one of the permissions", permissions: []string{auth.PermissionDealershipApprove}, want: http.StatusOK},
		{name: "holds none", permissions: []string{auth.PermissionPlanManage}, want: http.StatusForbidden},
		{name: "no permissions at all", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, token := permissionRouter(t, tt.permissions...)
			req := httptest.NewRequest(http.MethodPost, "/approve", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, rec).Code)
			}
		})
	}
}

func TestRequirePermission_WithoutAuth(t *testing.T) {
	router := gin.New()
	router.GET("/x", RequirePermission(nil, auth.PermissionPlanManage), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
