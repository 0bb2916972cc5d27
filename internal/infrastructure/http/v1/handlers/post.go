package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inkpress/internal/core/apperror"
	"inkpress/internal/core/id"
	"inkpress/internal/domain/post"
	"inkpress/internal/domain/query"
	"inkpress/internal/infrastructure/http/v1/dto"
	"inkpress/internal/infrastructure/storage/postgres"
)

// AuditHistory exposes the recorded mutation trail of a post, newest first.
type AuditHistory interface {
	PostHistory(ctx context.Context, postID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// PostHandler serves the blog post endpoints.
type PostHandler struct {
	BaseHandler
	service *post.Service
	history AuditHistory // optional
}

// NewPostHandler creates a post handler. history may be nil when audit
// logging is disabled; the history route is then not registered.
func NewPostHandler(service *post.Service, history AuditHistory) *PostHandler {
	return &PostHandler{service: service, history: history}
}

// List handles GET /posts.
func (h *PostHandler) List(c *gin.Context) {
	page, err := query.ParsePage(c.Query("page"), c.Query("limit"))
	if err != nil {
		h.Error(c, err)
		return
	}

	params := query.ListParams{
		Status:    c.Query("status"),
		Author:    c.Query("author"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		// Deleted posts are only visible to authenticated callers.
		IncludeDeleted: c.Query("includeDeleted") == "true" && h.IsAuthenticated(c),
	}

	q, err := query.Build(params, page)
	if err != nil {
		h.Error(c, err)
		return
	}

	posts, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}

	meta, err := query.NewPageMeta(page.Number, page.Limit, total)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Paginated(dto.FromPosts(posts), meta))
}

// Get handles GET /posts/:id.
func (h *PostHandler) Get(c *gin.Context) {
	postID, ok := h.parseID(c)
	if !ok {
		return
	}

	includeDeleted := c.Query("includeDeleted") == "true" && h.IsAuthenticated(c)

	p, err := h.service.Get(c.Request.Context(), postID, includeDeleted)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "", dto.FromPost(p))
}

// Create handles POST /posts.
func (h *PostHandler) Create(c *gin.Context) {
	var req dto.CreatePostRequest
	if !h.BindJSON(c, &req) {
		return
	}

	author := req.Author
	if author == "" {
		author = h.GetUserID(c)
	}

	p, err := h.service.Create(c.Request.Context(), post.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		Author:  author,
		Status:  req.Status,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "post created", dto.FromPost(p))
}

// Update handles PUT /posts/:id.
func (h *PostHandler) Update(c *gin.Context) {
	postID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Update(c.Request.Context(), postID, post.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
		Version: req.Version,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "post updated", dto.FromPost(p))
}

// Delete handles DELETE /posts/:id. The default is a soft delete; hard=true
// permanently removes the record.
func (h *PostHandler) Delete(c *gin.Context) {
	postID, ok := h.parseID(c)
	if !ok {
		return
	}

	hard := c.Query("hard") == "true"

	if err := h.service.Delete(c.Request.Context(), postID, hard); err != nil {
		h.Error(c, err)
		return
	}

	message := "post deleted"
	if hard {
		message = "post permanently deleted"
	}
	h.OK(c, message, nil)
}

// Restore handles POST /posts/:id/restore.
func (h *PostHandler) Restore(c *gin.Context) {
	postID, ok := h.parseID(c)
	if !ok {
		return
	}

	p, err := h.service.Restore(c.Request.Context(), postID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "post restored", dto.FromPost(p))
}

// History handles GET /posts/:id/history. The route is admin-gated; entries
// come back newest first.
func (h *PostHandler) History(c *gin.Context) {
	postID, ok := h.parseID(c)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			h.Error(c, apperror.NewValidation("invalid history limit").
				WithDetail("field", "limit").
				WithDetail("value", raw))
			return
		}
		limit = n
	}

	entries, err := h.history.PostHistory(c.Request.Context(), postID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.HistoryEntryResponse{
			ID:        e.ID.String(),
			Action:    e.Action,
			UserID:    e.UserID,
			Changes:   e.Changes,
			CreatedAt: e.CreatedAt,
		})
	}
	h.OK(c, "", out)
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

func (h *PostHandler) parseID(c *gin.Context) (id.ID, bool) {
	postID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid post id").
			WithDetail("field", "id").
			WithDetail("value", c.Param("id")))
		return id.Nil(), false
	}
	return postID, true
}
