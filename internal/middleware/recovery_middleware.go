// internal/middleware/recovery_middleware.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-bridge/internal/apperror"
	"printer-bridge/internal/utils"
)

// RecoveryMiddleware creates panic recovery middleware
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.Stack("stacktrace"),
		)

		utils.AppErrorResponse(c, apperror.New(apperror.CodeInternal, "Internal server error"))
	})
}
