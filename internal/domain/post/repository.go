package post

import (
	"context"

	"inkpress/internal/core/id"
	"inkpress/internal/domain/query"
)

// Repository defines persistence for posts. It is the only abstraction
// permitted to issue storage queries.
//
// Soft-delete exclusion is an explicit parameter on every read method rather
// than an implicit query rewrite, so the behavior is visible at every call
// site and testable.
type Repository interface {
	// Create inserts a new post. The storage layer's partial unique index on
	// live titles is the authoritative duplicate guard; violations surface as
	// a duplicate error.
	Create(ctx context.Context, p *Post) error

	// GetByID retrieves a post by ID. Soft-deleted posts are invisible unless
	// includeDeleted is set.
	GetByID(ctx context.Context, postID id.ID, includeDeleted bool) (*Post, error)

	// ExistsByTitle checks whether a live post with the given title exists,
	// optionally excluding one post (for rename checks).
	ExistsByTitle(ctx context.Context, title string, excludeID *id.ID) (bool, error)

	// List returns a page of posts plus the total count matching the query.
	List(ctx context.Context, q query.ListQuery) ([]*Post, int64, error)

	// Update persists field changes with optimistic locking: the row is
	// matched on p.Version and the version is incremented in the same
	// statement. A version mismatch yields a version-conflict error carrying
	// the current stored version. Returns the stored row.
	Update(ctx context.Context, p *Post) (*Post, error)

	// SoftDelete atomically sets deletedAt and increments version on a live
	// post in a single conditional update. Not-found when no live row matches.
	SoftDelete(ctx context.Context, postID id.ID) (*Post, error)

	// Restore atomically clears deletedAt and increments version on a
	// soft-deleted post. Not-found when no deleted row matches.
	Restore(ctx context.Context, postID id.ID) (*Post, error)

	// HardDelete permanently removes the post regardless of deletion state.
	HardDelete(ctx context.Context, postID id.ID) error

	// PurgeOlderThan permanently removes posts soft-deleted more than the
	// given number of days ago. Returns the count removed.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// AuditRecorder records mutation events. Recording is best-effort: a failed
// audit write never fails the mutation.
type AuditRecorder interface {
	Record(ctx context.Context, action string, postID id.ID, changes any) error
}
