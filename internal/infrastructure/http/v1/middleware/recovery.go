// Package middleware provides HTTP middleware components.
package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"inkpress/internal/core/apperror"
	"inkpress/internal/infrastructure/http/v1/dto"
	"inkpress/pkg/logger"
)

// Recovery recovers from panics and converts them into 500 errors.
// Logs the stack trace but never exposes internal details to the client.
// The panic unwinds past ErrorHandler, so the envelope is written here.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				if c.Writer.Written() {
					c.Abort()
					return
				}
				appErr := apperror.NewInternal(nil)
				c.AbortWithStatusJSON(appErr.HTTPStatus, dto.NewErrorResponse(
					appErr.Message, appErr.Code, map[string]any{
						"request_id": c.GetString("request_id"),
					},
				))
			}
		}()
		c.Next()
	}
}
