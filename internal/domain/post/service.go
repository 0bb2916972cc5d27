package post

import (
	"context"
	"strings"

	"inkpress/internal/core/apperror"
	appctx "inkpress/internal/core/context"
	"inkpress/internal/core/id"
	"inkpress/internal/domain/query"
	"inkpress/pkg/logger"
)

// Audit actions recorded on successful mutations.
const (
	auditActionCreate  = "create"
	auditActionUpdate  = "update"
	auditActionDelete  = "delete"
	auditActionHardDel = "hard_delete"
	auditActionRestore = "restore"
)

// Service coordinates post mutations: duplicate-title checks, ownership
// authorization and optimistic version-conflict detection. All failures are
// typed AppErrors with no partial side effects.
type Service struct {
	repo  Repository
	audit AuditRecorder // optional
}

// NewService creates a post service. audit may be nil to disable audit logging.
func NewService(repo Repository, audit AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateInput carries the fields accepted at creation time.
type CreateInput struct {
	Title   string
	Content string
	Author  string
	Status  string // optional, defaults to draft
}

// UpdateInput is the explicit allow-list of mutable fields. Identifier,
// author and creation timestamp are not representable here, so they cannot be
// overwritten through an update payload. Version, when supplied, is the
// client's optimistic-concurrency token.
type UpdateInput struct {
	Title   *string
	Content *string
	Status  *string
	Version *int
}

// List returns a page of posts matching the sanitized query.
func (s *Service) List(ctx context.Context, q query.ListQuery) ([]*Post, int64, error) {
	return s.repo.List(ctx, q)
}

// Get retrieves a single post. Soft-deleted posts are not found unless
// includeDeleted is set.
func (s *Service) Get(ctx context.Context, postID id.ID, includeDeleted bool) (*Post, error) {
	return s.repo.GetByID(ctx, postID, includeDeleted)
}

// Create inserts a new post with version 1. The title must be unique among
// live posts; the application-level check gives a friendly error and the
// storage unique index closes the remaining race window.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Post, error) {
	p := New(in.Title, in.Content, in.Author)
	if in.Status != "" {
		p.Status = Status(in.Status)
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByTitle(ctx, p.Title, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewDuplicate("post", "title", p.Title)
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, auditActionCreate, p.ID, p)
	logger.Info(ctx, "post created", "post_id", p.ID, "author", p.Author)
	return p, nil
}

// Update applies a partial update to a live post owned by the caller.
// When the input carries a version it must match the stored version, otherwise
// the update fails with a conflict identifying the current version.
func (s *Service) Update(ctx context.Context, postID id.ID, in UpdateInput) (*Post, error) {
	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, postID, false)
	if err != nil {
		return nil, err
	}
	if p.Author != caller.UserID {
		return nil, apperror.NewForbidden("not authorized to update this post")
	}
	if in.Version != nil && *in.Version != p.Version {
		return nil, apperror.NewVersionConflict("post", postID.String(), p.Version)
	}

	if in.Title != nil {
		newTitle := strings.TrimSpace(*in.Title)
		if newTitle != p.Title {
			exists, err := s.repo.ExistsByTitle(ctx, newTitle, &postID)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, apperror.NewDuplicate("post", "title", newTitle)
			}
		}
		p.Title = newTitle
	}
	if in.Content != nil {
		p.Content = strings.TrimSpace(*in.Content)
	}
	if in.Status != nil {
		p.Status = Status(*in.Status)
	}

	if err := p.Validate(ctx); err != nil {
		return nil, err
	}
	p.Touch()

	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, auditActionUpdate, updated.ID, in)
	logger.Info(ctx, "post updated", "post_id", updated.ID, "version", updated.Version)
	return updated, nil
}

// Delete removes a live post owned by the caller. The default is a soft
// delete; hard permanently purges the record instead.
func (s *Service) Delete(ctx context.Context, postID id.ID, hard bool) error {
	caller, err := s.requireCaller(ctx)
	if err != nil {
		return err
	}

	p, err := s.repo.GetByID(ctx, postID, false)
	if err != nil {
		return err
	}
	if p.Author != caller.UserID {
		return apperror.NewForbidden("not authorized to delete this post")
	}

	if hard {
		if err := s.repo.HardDelete(ctx, postID); err != nil {
			return err
		}
		s.recordAudit(ctx, auditActionHardDel, postID, nil)
		logger.Info(ctx, "post permanently deleted", "post_id", postID)
		return nil
	}

	deleted, err := s.repo.SoftDelete(ctx, postID)
	if err != nil {
		return err
	}
	s.recordAudit(ctx, auditActionDelete, postID, nil)
	logger.Info(ctx, "post soft deleted", "post_id", postID, "version", deleted.Version)
	return nil
}

// Restore brings a soft-deleted post owned by the caller back to live state.
func (s *Service) Restore(ctx context.Context, postID id.ID) (*Post, error) {
	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, postID, true)
	if err != nil {
		return nil, err
	}
	if p.Author != caller.UserID {
		return nil, apperror.NewForbidden("not authorized to restore this post")
	}
	if !p.IsDeleted() {
		return nil, apperror.NewValidation("post is not deleted").
			WithDetail("id", postID.String())
	}

	restored, err := s.repo.Restore(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, auditActionRestore, postID, nil)
	logger.Info(ctx, "post restored", "post_id", postID, "version", restored.Version)
	return restored, nil
}

// Purge permanently removes posts soft-deleted more than days ago.
func (s *Service) Purge(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, apperror.NewValidation("retention days must be a positive integer").
			WithDetail("field", "days").
			WithDetail("value", days)
	}
	count, err := s.repo.PurgeOlderThan(ctx, days)
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "purged soft-deleted posts", "count", count, "days", days)
	return count, nil
}

func (s *Service) requireCaller(ctx context.Context) (*appctx.UserContext, error) {
	caller := appctx.GetUser(ctx)
	if caller == nil {
		// Prevented by the auth middleware; treat as unauthorized if it happens.
		return nil, apperror.NewUnauthorized("authentication required")
	}
	return caller, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, postID id.ID, changes any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, postID, changes); err != nil {
		logger.Warn(ctx, "audit record failed", "action", action, "post_id", postID, "error", err)
	}
}
