package middleware

import (
	"net/http"

	"github.com/dealerdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit caps request payloads at maxBytes. A declared Content-Length over
// the cap is refused up front; streamed bodies fail on read once they cross it.
// A non-positive limit disables the check.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := c.Request
		if maxBytes <= 0 || req.Body == nil || req.Body == http.NoBody {
			c.Next()
			return
		}
		if req.ContentLength > maxBytes {
			tooLarge(c)
			return
		}
		req.Body = http.MaxBytesReader(c.Writer, req.Body, maxBytes)
		c.Next()
	}
}

func tooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeTooLarge, "request body too large", GetRequestID(c)))
}
