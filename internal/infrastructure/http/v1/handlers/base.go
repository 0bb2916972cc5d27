// Package handlers provides gin endpoint handlers for the v1 API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkpress/internal/core/apperror"
	appctx "inkpress/internal/core/context"
	"inkpress/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// BindJSON binds and validates the JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers the error on the gin context and aborts. The actual JSON
// response is produced by middleware.ErrorHandler, the single source of
// HTTP status.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// GetUserID extracts the caller's user ID from the request context.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	return appctx.GetUserID(c.Request.Context())
}

// IsAuthenticated reports whether the request carries a verified identity.
func (h *BaseHandler) IsAuthenticated(c *gin.Context) bool {
	return appctx.IsAuthenticated(c.Request.Context())
}

// Created sends a 201 success envelope.
func (h *BaseHandler) Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, dto.OKMessage(message, data))
}

// OK sends a 200 success envelope.
func (h *BaseHandler) OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, dto.OKMessage(message, data))
}
