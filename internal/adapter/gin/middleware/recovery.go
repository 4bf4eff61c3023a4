package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"notes-service/pkg/logger"
)

// Recovery turns a panic into a 500 with the generic public message and logs
// the stack.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				fields := []zap.Field{
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("ip", c.ClientIP()),
					zap.String("stack", string(debug.Stack())),
				}
				if err, ok := rec.(error); ok {
					fields = append(fields, zap.Error(err))
				} else {
					fields = append(fields, zap.String("panic_value", fmt.Sprintf("%v", rec)))
				}
				logger.WithContext(c.Request.Context(), log).Error("recovered from panic", fields...)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			}
		}()

		c.Next()
	}
}
