package post

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"inkpress/internal/core/apperror"
	"inkpress/internal/core/id"
	"inkpress/internal/domain/query"
)

// MemoryRepository is an in-memory Repository for tests and local spikes.
// It mirrors the semantics of the PostgreSQL implementation, including the
// atomic soft-delete/restore toggles and the optimistic version check.
type MemoryRepository struct {
	mu    sync.Mutex
	posts map[id.ID]*Post
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{posts: make(map[id.ID]*Post)}
}

func (r *MemoryRepository) Create(ctx context.Context, p *Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Uniqueness backstop, like the partial unique index on live titles.
	for _, existing := range r.posts {
		if existing.DeletedAt == nil && existing.Title == p.Title {
			return apperror.NewDuplicate("post", "title", p.Title)
		}
	}
	cp := *p
	r.posts[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, postID id.ID, includeDeleted bool) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok || (!includeDeleted && p.DeletedAt != nil) {
		return nil, apperror.NewNotFound("post", postID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) ExistsByTitle(ctx context.Context, title string, excludeID *id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.posts {
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		if p.DeletedAt == nil && p.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) List(ctx context.Context, q query.ListQuery) ([]*Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var search *regexp.Regexp
	if q.Search != "" {
		re, err := regexp.Compile("(?i)" + q.Search)
		if err != nil {
			return nil, 0, apperror.NewValidation("invalid search pattern").WithCause(err)
		}
		search = re
	}

	var matched []*Post
	for _, p := range r.posts {
		if !q.IncludeDeleted && p.DeletedAt != nil {
			continue
		}
		if q.Status != "" && string(p.Status) != q.Status {
			continue
		}
		if q.Author != "" && p.Author != q.Author {
			continue
		}
		if search != nil && !search.MatchString(p.Title) && !search.MatchString(p.Content) {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}

	sortPosts(matched, q.SortColumn, q.SortDesc)
	total := int64(len(matched))

	if q.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (r *MemoryRepository) Update(ctx context.Context, p *Post) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[p.ID]
	if !ok || stored.DeletedAt != nil {
		return nil, apperror.NewNotFound("post", p.ID.String())
	}
	if stored.Version != p.Version {
		return nil, apperror.NewVersionConflict("post", p.ID.String(), stored.Version)
	}

	cp := *p
	cp.Version = stored.Version + 1
	cp.Author = stored.Author
	cp.CreatedAt = stored.CreatedAt
	r.posts[p.ID] = &cp

	out := cp
	return &out, nil
}

func (r *MemoryRepository) SoftDelete(ctx context.Context, postID id.ID) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok || p.DeletedAt != nil {
		return nil, apperror.NewNotFound("post", postID.String())
	}
	now := time.Now().UTC()
	p.DeletedAt = &now
	p.Version++
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) Restore(ctx context.Context, postID id.ID) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok || p.DeletedAt == nil {
		return nil, apperror.NewNotFound("post", postID.String())
	}
	p.DeletedAt = nil
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) HardDelete(ctx context.Context, postID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[postID]; !ok {
		return apperror.NewNotFound("post", postID.String())
	}
	delete(r.posts, postID)
	return nil
}

func (r *MemoryRepository) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := time.Now().UTC().AddDate(0, 0, -days)
	var count int64
	for pid, p := range r.posts {
		if p.DeletedAt != nil && p.DeletedAt.Before(threshold) {
			delete(r.posts, pid)
			count++
		}
	}
	return count, nil
}

func sortPosts(posts []*Post, column string, desc bool) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if desc {
			a, b = b, a
		}
		switch column {
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "title":
			return strings.Compare(a.Title, b.Title) < 0
		case "status":
			return strings.Compare(string(a.Status), string(b.Status)) < 0
		case "author":
			return strings.Compare(a.Author, b.Author) < 0
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}
