// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"inkpress/internal/domain/query"
)

// --- Success Response ---

// SuccessResponse is the standard envelope for successful operations.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data any) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}

// OKMessage wraps data with an explanatory message.
func OKMessage(message string, data any) SuccessResponse {
	return SuccessResponse{Success: true, Message: message, Data: data}
}

// --- Error Response ---

// ErrorResponse is the standard envelope for failed operations. Details
// carries structured context such as the current version on a conflict.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(message, code string, details map[string]any) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	}
}

// --- Paginated Response ---

// PaginatedResponse is a success envelope carrying a page of items plus
// page metadata.
type PaginatedResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	Data       any            `json:"data"`
	Pagination query.PageMeta `json:"pagination"`
}

// Paginated wraps a page of items with its metadata.
func Paginated(data any, meta query.PageMeta) PaginatedResponse {
	return PaginatedResponse{
		Success:    true,
		Data:       data,
		Pagination: meta,
	}
}
