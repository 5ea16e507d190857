// internal/api/middleware.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corphon/novelgraph/internal/utils"
)

// Logger logs every request's method, path, status and latency through
// the shared zerolog logger.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		utils.GetLogger().Info("request", map[string]interface{}{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
			"method":  c.Request.Method,
			"path":    c.Request.RequestURI,
		})
	}
}

// ErrorHandler converts any error gin accumulated during the request into
// the standard APIResponse envelope, if a handler hasn't already written
// a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last()
		switch err.Type {
		case gin.ErrorTypeBind:
			c.JSON(http.StatusBadRequest, &APIResponse{
				Success:   false,
				Error:     &APIError{Kind: "invalid_input", Message: err.Error()},
				Timestamp: time.Now(),
			})
		default:
			c.JSON(http.StatusInternalServerError, &APIResponse{
				Success:   false,
				Error:     &APIError{Kind: "internal_error", Message: "an internal error occurred"},
				Timestamp: time.Now(),
			})
		}
	}
}
