package middleware

import (
	"net/http"

	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequirePermission creates middleware that requires any of the listed permissions
func RequirePermission(log *zap.Logger, permissions ...string) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			denyPermission(c, log, permissions, "", "No authentication claims found")
			return
		}
		if !claims.HasAnyPermission(permissions...) {
			denyPermission(c, log, permissions, claims.UserID, "User lacks required permission")
			return
		}
		c.Next()
	}
}

func denyPermission(c *gin.Context, log *zap.Logger, required []string, userID, reason string) {
	log.Warn("Permission denied",
		zap.String("reason", reason),
		zap.String("user_id", userID),
		zap.Strings("required_permissions", required),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeForbidden, "Access denied: insufficient permissions", GetRequestID(c)))
}
