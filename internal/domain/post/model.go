// Package post provides the blog post domain entity and its mutation rules.
package post

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"inkpress/internal/core/apperror"
	"inkpress/internal/core/id"
)

// Status defines the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// MaxTitleLength bounds the title after trimming.
const MaxTitleLength = 200

// Post is the sole domain entity: a blog post with soft deletion and
// optimistic locking via an application-level version counter.
type Post struct {
	// ID is the primary key (UUIDv7), assigned at creation, immutable
	ID id.ID `db:"id" json:"id"`

	Title   string `db:"title" json:"title"`
	Content string `db:"content" json:"content"`

	// Author identifies the owner; only the author may mutate the post
	Author string `db:"author" json:"author"`

	Status Status `db:"status" json:"status"`

	// Version for optimistic locking, starts at 1, incremented on every
	// mutating save. Never decremented.
	Version int `db:"version" json:"version"`

	// DeletedAt is nil for live posts. A non-nil value marks the post as
	// soft-deleted and excluded from default reads.
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a live Post with generated ID, version 1 and draft status.
func New(title, content, author string) *Post {
	now := time.Now().UTC()
	return &Post{
		ID:        id.New(),
		Title:     strings.TrimSpace(title),
		Content:   strings.TrimSpace(content),
		Author:    author,
		Status:    StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks entity invariants (without database access).
func (p *Post) Validate(ctx context.Context) error {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return apperror.NewValidation("title is required").
			WithDetail("field", "title")
	}
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return apperror.NewValidation("title cannot exceed 200 characters").
			WithDetail("field", "title").
			WithDetail("length", n)
	}
	if strings.TrimSpace(p.Content) == "" {
		return apperror.NewValidation("content is required").
			WithDetail("field", "content")
	}
	if p.Author == "" {
		return apperror.NewValidation("author is required").
			WithDetail("field", "author")
	}
	if !ValidStatus(p.Status) {
		return apperror.NewValidation("invalid status value").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}
	return nil
}

// IsDeleted reports whether the post is soft-deleted.
func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

// Touch updates the UpdatedAt timestamp. The version bump itself happens
// atomically in the repository as part of the persistence operation.
func (p *Post) Touch() {
	p.UpdatedAt = time.Now().UTC()
}

// ValidStatus reports whether s is a member of the status enum.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}
