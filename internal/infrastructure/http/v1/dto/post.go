package dto

import (
	"encoding/json"
	"time"

	"inkpress/internal/domain/post"
)

// CreatePostRequest for creating posts. Author is optional and defaults to
// the authenticated caller.
type CreatePostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
	Author  string `json:"author"`
	Status  string `json:"status"`
}

// UpdatePostRequest for updating posts. Only the listed fields are mutable;
// nil pointers mean "leave unchanged". Version is the caller's last-seen
// value; when omitted the update applies against current state without a
// conflict check.
type UpdatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Status  *string `json:"status"`
	Version *int    `json:"version"`
}

// PostResponse contains post fields returned to clients.
type PostResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Author    string     `json:"author"`
	Status    string     `json:"status"`
	Version   int        `json:"version"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// FromPost creates PostResponse from the domain entity.
func FromPost(p *post.Post) PostResponse {
	return PostResponse{
		ID:        p.ID.String(),
		Title:     p.Title,
		Content:   p.Content,
		Author:    p.Author,
		Status:    string(p.Status),
		Version:   p.Version,
		DeletedAt: p.DeletedAt,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// HistoryEntryResponse is one recorded mutation from a post's audit trail.
type HistoryEntryResponse struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	UserID    string          `json:"userId,omitempty"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// FromPosts converts a page of posts.
func FromPosts(posts []*post.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, FromPost(p))
	}
	return out
}
