package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkpress/internal/core/apperror"
	"inkpress/internal/infrastructure/http/v1/dto"
	"inkpress/pkg/logger"
)

// genericServerError replaces 5xx messages when running in production so
// internal details never reach clients. 4xx messages pass through verbatim.
const genericServerError = "Internal server error"

// ErrorHandler transforms errors registered on the gin context into the
// standard error envelope. It is the single place that writes error
// responses; handlers only call c.Error and abort.
func ErrorHandler(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			message := appErr.Message
			if production && appErr.HTTPStatus >= http.StatusInternalServerError {
				message = genericServerError
			}

			c.JSON(appErr.HTTPStatus, dto.NewErrorResponse(message, appErr.Code, appErr.Details))
			return
		}

		logger.Error(c.Request.Context(), "unhandled error",
			"error", err,
		)

		message := err.Error()
		if production {
			message = genericServerError
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(message, apperror.CodeInternal, map[string]any{
			"request_id": c.GetString("request_id"),
		}))
	}
}
