package post_repo

import (
	"strings"
	"testing"

	"github.com/Masterminds/squirrel"

	"inkpress/internal/core/id"
	"inkpress/internal/domain/post"
	"inkpress/internal/domain/query"
)

func newTestRepo() *PostRepo {
	return NewPostRepo(nil)
}

func TestBuildListFilter_DefaultExcludesDeleted(t *testing.T) {
	repo := newTestRepo()

	sql, args, err := repo.buildListFilter(query.ListQuery{}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	if !strings.Contains(sql, "deleted_at IS NULL") {
		t.Errorf("expected deleted_at IS NULL filter, got: %s", sql)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got: %v", args)
	}
}

func TestBuildListFilter_IncludeDeleted(t *testing.T) {
	repo := newTestRepo()

	sql, _, err := repo.buildListFilter(query.ListQuery{IncludeDeleted: true}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	if strings.Contains(sql, "deleted_at") {
		t.Errorf("includeDeleted must drop the deleted_at filter, got: %s", sql)
	}
}

func TestBuildListFilter_StatusAndAuthor(t *testing.T) {
	repo := newTestRepo()
	status := string(post.StatusPublished)

	sql, args, err := repo.buildListFilter(query.ListQuery{
		Status: status,
		Author: "author-1",
	}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	if !strings.Contains(sql, "status = $") {
		t.Errorf("expected status placeholder, got: %s", sql)
	}
	if !strings.Contains(sql, "author = $") {
		t.Errorf("expected author placeholder, got: %s", sql)
	}
	if len(args) != 2 || args[0] != status || args[1] != "author-1" {
		t.Errorf("args mismatch: %v", args)
	}
}

func TestBuildListFilter_SearchMatchesTitleOrContent(t *testing.T) {
	repo := newTestRepo()

	sql, args, err := repo.buildListFilter(query.ListQuery{Search: `go\?`}).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	if !strings.Contains(sql, "(title ~* $1 OR content ~* $2)") {
		t.Errorf("expected OR of case-insensitive regex matches, got: %s", sql)
	}
	// The escaped pattern is bound, never interpolated.
	if len(args) != 2 || args[0] != `go\?` || args[1] != `go\?` {
		t.Errorf("args mismatch: %v", args)
	}
}

func TestUpdate_SQLShape(t *testing.T) {
	repo := newTestRepo()
	postID := id.New()

	q := repo.Builder().
		Update(postTable).
		Set("title", "New").
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": postID}).
		Where(squirrel.Eq{"version": 3}).
		Where(squirrel.Eq{"deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	wantSQL := "UPDATE posts SET title = $1, version = version + 1 WHERE id = $2 AND version = $3 AND deleted_at IS NULL"
	if sql != wantSQL {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", wantSQL, sql)
	}
	if len(args) != 3 || args[2] != 3 {
		t.Errorf("args mismatch: %v", args)
	}
}

func TestSelectColumns_CoverEntity(t *testing.T) {
	repo := newTestRepo()

	expected := []string{
		"id", "title", "content", "author", "status",
		"version", "deleted_at", "created_at", "updated_at",
	}
	if len(repo.selectCols) != len(expected) {
		t.Fatalf("column count mismatch: want %d, got %d (%v)", len(expected), len(repo.selectCols), repo.selectCols)
	}
	for _, col := range expected {
		found := false
		for _, c := range repo.selectCols {
			if c == col {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing column %q in %v", col, repo.selectCols)
		}
	}
}
