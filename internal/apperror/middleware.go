package apperror

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Middleware renders the last error a handler attached with c.Error.
// Handlers return right after c.Error; nothing else writes error bodies.
func Middleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status, env := Normalize(err)

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Info("request rejected", fields...)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, env)
	}
}

// Recovery turns a handler panic into an error for Middleware to render.
// Register it after Middleware so the recovered request still gets an envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		_ = c.Error(New(http.StatusInternalServerError, "", fmt.Errorf("panic: %v", recovered)))
		c.Abort()
	})
}
