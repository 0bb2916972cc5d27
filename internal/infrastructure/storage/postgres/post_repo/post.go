// Package post_repo provides the PostgreSQL implementation of the post
// repository.
package post_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"inkpress/internal/core/apperror"
	"inkpress/internal/core/id"
	"inkpress/internal/domain/post"
	"inkpress/internal/domain/query"
	"inkpress/internal/infrastructure/storage/postgres"
)

const postTable = "posts"

// pgUniqueViolation is the Postgres error code for unique constraint breaks.
// The partial unique index on live titles is the authoritative duplicate
// guard; the service-level check only exists for a friendlier error.
const pgUniqueViolation = "23505"

// PostRepo implements post.Repository against PostgreSQL.
type PostRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

var _ post.Repository = (*PostRepo)(nil)

// NewPostRepo creates a new post repository.
func NewPostRepo(txManager *postgres.TxManager) *PostRepo {
	return &PostRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[post.Post](),
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *PostRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *PostRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(postTable)
}

// Create inserts a new post using its "db" tags.
func (r *PostRepo) Create(ctx context.Context, p *post.Post) error {
	data := postgres.StructToMap(p)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in post")
	}

	q := r.Builder().
		Insert(postTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperror.NewDuplicate("post", "title", p.Title).WithCause(err)
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID. Soft-deleted posts are excluded unless
// includeDeleted is set.
func (r *PostRepo) GetByID(ctx context.Context, postID id.ID, includeDeleted bool) (*post.Post, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": postID}).
		Limit(1)
	if !includeDeleted {
		q = q.Where(squirrel.Eq{"deleted_at": nil})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p post.Post
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("post", postID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return &p, nil
}

// ExistsByTitle checks for a live post with the given title.
func (r *PostRepo) ExistsByTitle(ctx context.Context, title string, excludeID *id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(postTable).
		Where(squirrel.Eq{"title": title}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Limit(1)
	if excludeID != nil {
		q = q.Where(squirrel.NotEq{"id": *excludeID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var exists int
	err = querier.QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists by title: %w", err)
	}
	return true, nil
}

// buildListFilter applies the sanitized filters to the base select, without
// ordering or pagination. The count query reuses it unchanged.
func (r *PostRepo) buildListFilter(lq query.ListQuery) squirrel.SelectBuilder {
	q := r.baseSelect()

	if !lq.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deleted_at": nil})
	}
	if lq.Status != "" {
		q = q.Where(squirrel.Eq{"status": lq.Status})
	}
	if lq.Author != "" {
		q = q.Where(squirrel.Eq{"author": lq.Author})
	}
	if lq.Search != "" {
		// The pattern is already regex-escaped by the sanitizer; ~* gives a
		// case-insensitive contains match.
		q = q.Where(squirrel.Or{
			squirrel.Expr("title ~* ?", lq.Search),
			squirrel.Expr("content ~* ?", lq.Search),
		})
	}
	return q
}

// List retrieves posts matching the sanitized query plus the total count.
func (r *PostRepo) List(ctx context.Context, lq query.ListQuery) ([]*post.Post, int64, error) {
	q := r.buildListFilter(lq)

	// Count total before pagination
	countQ := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub")

	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	direction := "ASC"
	if lq.SortDesc {
		direction = "DESC"
	}
	q = q.OrderBy(lq.SortColumn + " " + direction)

	if lq.Limit > 0 {
		q = q.Limit(uint64(lq.Limit))
	}
	if lq.Offset > 0 {
		q = q.Offset(uint64(lq.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var posts []*post.Post
	if err := pgxscan.Select(ctx, querier, &posts, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list: %w", err)
	}
	return posts, total, nil
}

// Update persists field changes with optimistic locking. The statement
// matches on the post's current version and increments it atomically; zero
// rows affected means either the post vanished or another writer got there
// first.
func (r *PostRepo) Update(ctx context.Context, p *post.Post) (*post.Post, error) {
	data := postgres.StructToMap(p)

	// Immutable and repo-managed columns never appear in SET.
	delete(data, "id")
	delete(data, "version")
	delete(data, "author")
	delete(data, "created_at")
	delete(data, "deleted_at")

	q := r.Builder().
		Update(postTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version}).
		Where(squirrel.Eq{"deleted_at": nil}).
		Suffix("RETURNING " + r.returningCols())

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var updated post.Post
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &updated, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, r.classifyUpdateMiss(ctx, p)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperror.NewDuplicate("post", "title", p.Title).WithCause(err)
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &updated, nil
}

// classifyUpdateMiss distinguishes a vanished post from a version conflict
// after an optimistic update matched no rows.
func (r *PostRepo) classifyUpdateMiss(ctx context.Context, p *post.Post) error {
	current, err := r.GetByID(ctx, p.ID, true)
	if err != nil {
		return apperror.NewNotFound("post", p.ID.String())
	}
	if current.IsDeleted() {
		return apperror.NewNotFound("post", p.ID.String())
	}
	return apperror.NewVersionConflict("post", p.ID.String(), current.Version)
}

// SoftDelete sets deletedAt and bumps version in one conditional statement,
// so concurrent delete/restore calls cannot interleave mid-sequence.
func (r *PostRepo) SoftDelete(ctx context.Context, postID id.ID) (*post.Post, error) {
	return r.toggleDeleted(ctx, postID, true)
}

// Restore clears deletedAt and bumps version in one conditional statement.
func (r *PostRepo) Restore(ctx context.Context, postID id.ID) (*post.Post, error) {
	return r.toggleDeleted(ctx, postID, false)
}

func (r *PostRepo) toggleDeleted(ctx context.Context, postID id.ID, deleted bool) (*post.Post, error) {
	now := time.Now().UTC()

	q := r.Builder().
		Update(postTable).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": postID}).
		Suffix("RETURNING " + r.returningCols())

	if deleted {
		q = q.Set("deleted_at", now).
			Where(squirrel.Eq{"deleted_at": nil})
	} else {
		q = q.Set("deleted_at", nil).
			Where(squirrel.NotEq{"deleted_at": nil})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build toggle: %w", err)
	}

	var p post.Post
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("post", postID.String())
		}
		return nil, fmt.Errorf("toggle deleted: %w", err)
	}
	return &p, nil
}

// HardDelete permanently removes the post.
func (r *PostRepo) HardDelete(ctx context.Context, postID id.ID) error {
	q := r.Builder().
		Delete(postTable).
		Where(squirrel.Eq{"id": postID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute delete: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("post", postID.String())
	}
	return nil
}

// PurgeOlderThan permanently removes posts soft-deleted before the retention
// threshold.
func (r *PostRepo) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -days)

	q := r.Builder().
		Delete(postTable).
		Where(squirrel.NotEq{"deleted_at": nil}).
		Where(squirrel.LtOrEq{"deleted_at": threshold})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build purge: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("execute purge: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PostRepo) returningCols() string {
	return strings.Join(r.selectCols, ", ")
}
