package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agentruntime/runtime/internal/auth"
)

// AuthMiddleware protects every Control API route behind the
// operator's bearer JWT, mirroring
// internal/middleware/authMiddleware.go's header-parsing shape.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			writeError(c, http.StatusUnauthorized, ErrInvalidRequest, "authorization header required", nil)
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeError(c, http.StatusUnauthorized, ErrInvalidRequest, "invalid authorization header format", nil)
			c.Abort()
			return
		}
		if _, err := auth.ValidateJWT(parts[1]); err != nil {
			writeError(c, http.StatusUnauthorized, ErrInvalidRequest, "invalid or expired token", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// writeError emits the structured §6 error envelope.
func writeError(c *gin.Context, status int, code ErrorCode, message string, detail interface{}) {
	c.JSON(status, ErrorResponse{Code: code, Message: message, Detail: detail})
}

// fail is the common case: status is derived from code.
func fail(c *gin.Context, code ErrorCode, message string, detail interface{}) {
	writeError(c, code.httpStatus(), code, message, detail)
}
