// Package query validates and normalizes untrusted list parameters before
// they reach the repository. Validation fails fast: no filter is partially
// applied.
package query

import (
	"strings"
	"unicode/utf8"

	"inkpress/internal/core/apperror"
)

// MaxSearchLength caps free-text search input to bound the cost of pattern
// evaluation. Longer inputs are rejected outright, not truncated.
const MaxSearchLength = 100

// allowedSortFields maps the public sort field names to database columns.
// Anything outside this whitelist is rejected.
var allowedSortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
	"status":    "status",
	"author":    "author",
}

// allowedStatuses are the status filter values accepted from clients. The
// package stays free of domain imports, so the enum is repeated here.
var allowedStatuses = map[string]bool{
	"draft":     true,
	"published": true,
	"archived":  true,
}

// regexMetacharacters are escaped before the text is embedded in a
// pattern-match filter.
const regexMetacharacters = `.*+?^${}()|[]\`

// SanitizeString returns the value when it is a string and rejects any other
// type. This is a strict type check, not a best-effort coercion, so operator
// objects smuggled through decoded JSON never reach filter construction.
func SanitizeString(value any) (string, bool) {
	s, ok := value.(string)
	return s, ok
}

// EscapeRegex escapes all regex metacharacters so the text is safe to embed
// in a case-insensitive pattern match.
func EscapeRegex(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if strings.ContainsRune(regexMetacharacters, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ListParams carries the raw, untrusted list parameters.
type ListParams struct {
	Status         string
	Author         string
	Search         string
	SortBy         string
	SortOrder      string
	IncludeDeleted bool
}

// ListQuery is the sanitized query the repository accepts. SortColumn is
// guaranteed to be a whitelisted database column and Search is already
// regex-escaped.
type ListQuery struct {
	Status         string // validated status value, empty when no filter
	Author         string
	Search         string // escaped pattern text, empty when no search
	SortColumn     string
	SortDesc       bool
	IncludeDeleted bool
	Offset         int
	Limit          int
}

// Build validates every parameter against its whitelist and returns the
// sanitized query. The first invalid parameter aborts with a field-specific
// validation error before any repository call.
func Build(p ListParams, page Page) (ListQuery, error) {
	q := ListQuery{
		IncludeDeleted: p.IncludeDeleted,
		Offset:         page.Offset(),
		Limit:          page.Limit,
	}

	if p.Status != "" {
		if !allowedStatuses[p.Status] {
			return ListQuery{}, apperror.NewValidation("invalid status value").
				WithDetail("field", "status").
				WithDetail("value", p.Status)
		}
		q.Status = p.Status
	}

	q.Author = p.Author

	if p.Search != "" {
		if n := utf8.RuneCountInString(p.Search); n > MaxSearchLength {
			return ListQuery{}, apperror.NewValidation("search string is too long").
				WithDetail("field", "search").
				WithDetail("maxLength", MaxSearchLength).
				WithDetail("length", n)
		}
		q.Search = EscapeRegex(p.Search)
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	col, ok := allowedSortFields[sortBy]
	if !ok {
		return ListQuery{}, apperror.NewValidation("invalid sort field").
			WithDetail("field", "sortBy").
			WithDetail("value", p.SortBy)
	}
	q.SortColumn = col
	q.SortDesc = p.SortOrder != "asc"

	return q, nil
}
