package query

import (
	"strconv"

	"inkpress/internal/core/apperror"
)

// Pagination bounds. MaxLimit is a deliberate resource-exhaustion guard.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page holds validated pagination parameters.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// ParsePage converts raw page/limit values into a bounded Page. Absent values
// fall back to defaults; values that are present but non-numeric or out of
// range are rejected rather than silently clamped.
func ParsePage(rawPage, rawLimit string) (Page, error) {
	p := Page{Number: DefaultPage, Limit: DefaultLimit}

	if rawPage != "" {
		n, err := strconv.Atoi(rawPage)
		if err != nil || n < 1 {
			return Page{}, apperror.NewValidation("page must be a positive integer").
				WithDetail("field", "page").
				WithDetail("value", rawPage)
		}
		p.Number = n
	}

	if rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n < 1 || n > MaxLimit {
			return Page{}, apperror.NewValidation("limit must be an integer between 1 and 100").
				WithDetail("field", "limit").
				WithDetail("value", rawLimit)
		}
		p.Limit = n
	}

	return p, nil
}

// PageMeta is the derived pagination metadata returned in list envelopes.
type PageMeta struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPageMeta validates its inputs and computes derived fields.
// TotalPages is 0 when total is 0; requesting a page past the end is not an
// error, the item list is simply empty.
func NewPageMeta(page, limit int, total int64) (PageMeta, error) {
	if page < 1 {
		return PageMeta{}, apperror.NewValidation("page must be a positive integer").
			WithDetail("field", "page").
			WithDetail("value", page)
	}
	if limit < 1 || limit > MaxLimit {
		return PageMeta{}, apperror.NewValidation("limit must be an integer between 1 and 100").
			WithDetail("field", "limit").
			WithDetail("value", limit)
	}
	if total < 0 {
		return PageMeta{}, apperror.NewValidation("total cannot be negative").
			WithDetail("field", "total").
			WithDetail("value", total)
	}

	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return PageMeta{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}
