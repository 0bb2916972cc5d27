package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkpress/internal/core/apperror"
	appctx "inkpress/internal/core/context"
	"inkpress/internal/core/id"
	"inkpress/internal/domain/auth"
	"inkpress/internal/domain/post"
	"inkpress/internal/infrastructure/storage/postgres"
	"inkpress/pkg/logger"
)

// memoryAudit keeps audit entries in memory and serves them back newest
// first, standing in for the database-backed audit log.
type memoryAudit struct {
	mu      sync.Mutex
	entries []postgres.AuditEntry
}

func (m *memoryAudit) Record(ctx context.Context, action string, postID id.ID, changes any) error {
	raw, err := json.Marshal(changes)
	if err != nil {
		return err
	}

	entry := postgres.AuditEntry{
		ID:        id.New(),
		PostID:    postID,
		Action:    action,
		Changes:   raw,
		CreatedAt: time.Now().UTC(),
	}
	if user := appctx.GetUser(ctx); user != nil {
		entry.UserID = user.UserID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryAudit) PostHistory(ctx context.Context, postID id.ID, limit int) ([]postgres.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []postgres.AuditEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.entries[i].PostID == postID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

type testServer struct {
	router     *gin.Engine
	authSvc    *auth.Service
	jwtService *auth.JWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	authService := auth.NewService(auth.NewMemoryUserRepository(), jwtService, auth.DefaultServiceConfig())
	audit := &memoryAudit{}
	postService := post.NewService(post.NewMemoryRepository(), audit)

	log, err := logger.New(logger.Config{Level: "error", Development: true})
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Logger:         log,
		TokenValidator: jwtService,
		AuthService:    authService,
		PostService:    postService,
		AuditHistory:   audit,
	})

	return &testServer{router: router, authSvc: authService, jwtService: jwtService}
}

// adminToken issues a token carrying the admin role without going through
// registration, which always assigns the user role.
func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	tok, _, err := s.jwtService.GenerateAccessToken(id.New().String(), "admin@example.com", auth.RoleAdmin)
	require.NoError(t, err)
	return tok
}

// tokenFor registers an account and returns a bearer token whose user ID
// matches the returned author identity.
func (s *testServer) tokenFor(t *testing.T, name string) (token, userID string) {
	t.Helper()

	user, err := s.authSvc.Register(t.Context(), auth.RegisterRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	tok, _, err := s.jwtService.GenerateAccessToken(user.ID.String(), user.Email, user.Role)
	require.NoError(t, err)
	return tok, user.ID.String()
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func createPost(t *testing.T, s *testServer, token, title string) map[string]any {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/posts", token, gin.H{
		"title":   title,
		"content": "some content",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return decodeBody(t, w)["data"].(map[string]any)
}

func TestCreatePost(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.tokenFor(t, "alice")

	w := s.do(t, http.MethodPost, "/api/v1/posts", token, gin.H{
		"title":   "Hello World",
		"content": "First post",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "Hello World", data["title"])
	assert.Equal(t, "draft", data["status"])
	assert.Equal(t, float64(1), data["version"])
	assert.Equal(t, userID, data["author"], "author defaults to the caller")
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/posts", "", gin.H{
		"title":   "Nope",
		"content": "No token",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, apperror.CodeUnauthorized, body["code"])
}

func TestCreatePost_ValidationError(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")

	w := s.do(t, http.MethodPost, "/api/v1/posts", token, gin.H{"content": "missing title"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, apperror.CodeValidation, body["code"])
}

func TestUpdatePost_StaleVersionConflict(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")
	created := createPost(t, s, token, "Concurrent Edits")
	postID := created["id"].(string)

	// Two clients hold version 1; the first update wins.
	w := s.do(t, http.MethodPut, "/api/v1/posts/"+postID, token, gin.H{
		"content": "first writer",
		"version": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(2), first["version"])

	// The second update, still on version 1, gets a conflict naming the
	// current version so the client can refetch and retry.
	w = s.do(t, http.MethodPut, "/api/v1/posts/"+postID, token, gin.H{
		"content": "second writer",
		"version": 1,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, apperror.CodeVersionConflict, body["code"])

	details := body["details"].(map[string]any)
	assert.Equal(t, float64(2), details["currentVersion"])
}

func TestUpdatePost_ForbiddenForNonAuthor(t *testing.T) {
	s := newTestServer(t)
	aliceToken, _ := s.tokenFor(t, "alice")
	bobToken, _ := s.tokenFor(t, "bob")
	created := createPost(t, s, aliceToken, "Alice's Post")
	postID := created["id"].(string)

	w := s.do(t, http.MethodPut, "/api/v1/posts/"+postID, bobToken, gin.H{
		"title":   "Bob's now",
		"version": 1,
	})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdatePost_VersionIsOptional(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")
	created := createPost(t, s, token, "No Version Sent")
	postID := created["id"].(string)

	// Without a version the update applies against current state.
	w := s.do(t, http.MethodPut, "/api/v1/posts/"+postID, token, gin.H{
		"content": "updated without a version",
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["version"])
	assert.Equal(t, "updated without a version", data["content"])
}

func TestPostHistory_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")
	created := createPost(t, s, token, "Audited")
	postID := created["id"].(string)

	w := s.do(t, http.MethodGet, "/api/v1/posts/"+postID+"/history", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, apperror.CodeForbidden, body["code"])
}

func TestPostHistory_ReturnsMutationsNewestFirst(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.tokenFor(t, "alice")
	created := createPost(t, s, token, "Audited")
	postID := created["id"].(string)

	w := s.do(t, http.MethodPut, "/api/v1/posts/"+postID, token, gin.H{
		"content": "revised",
		"version": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/posts/"+postID+"/history", s.adminToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	entries := decodeBody(t, w)["data"].([]any)
	require.Len(t, entries, 2)

	newest := entries[0].(map[string]any)
	assert.Equal(t, "update", newest["action"])
	assert.Equal(t, userID, newest["userId"])
	assert.Equal(t, "create", entries[1].(map[string]any)["action"])
}

func TestPostHistory_InvalidLimitRejected(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")
	created := createPost(t, s, token, "Audited")
	postID := created["id"].(string)

	w := s.do(t, http.MethodGet, "/api/v1/posts/"+postID+"/history?limit=0", s.adminToken(t), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePost_ThenGetIs404(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")
	created := createPost(t, s, token, "Ephemeral")
	postID := created["id"].(string)

	w := s.do(t, http.MethodDelete, "/api/v1/posts/"+postID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Default read no longer sees it.
	w = s.do(t, http.MethodGet, "/api/v1/posts/"+postID, "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Authenticated callers can opt into deleted records.
	w = s.do(t, http.MethodGet, "/api/v1/posts/"+postID+"?includeDeleted=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Anonymous callers cannot, even with the flag.
	w = s.do(t, http.MethodGet, "/api/v1/posts/"+postID+"?includeDeleted=true", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestorePost(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")
	created := createPost(t, s, token, "Back From The Dead")
	postID := created["id"].(string)

	// Restoring a live post is a client error.
	w := s.do(t, http.MethodPost, "/api/v1/posts/"+postID+"/restore", token, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/posts/"+postID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/posts/"+postID+"/restore", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(3), data["version"])
	assert.Nil(t, data["deletedAt"])
}

func TestListPosts_Pagination(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")

	for i := 1; i <= 15; i++ {
		createPost(t, s, token, fmt.Sprintf("Post %02d", i))
	}

	w := s.do(t, http.MethodGet, "/api/v1/posts?page=2&limit=5&sortBy=title&sortOrder=asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	items := body["data"].([]any)
	require.Len(t, items, 5)

	// Ascending title order: page 2 starts at the 6th post.
	firstItem := items[0].(map[string]any)
	assert.Equal(t, "Post 06", firstItem["title"])

	pagination := body["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["page"])
	assert.Equal(t, float64(5), pagination["limit"])
	assert.Equal(t, float64(15), pagination["total"])
	assert.Equal(t, float64(3), pagination["totalPages"])
	assert.Equal(t, true, pagination["hasNextPage"])
	assert.Equal(t, true, pagination["hasPrevPage"])
}

func TestListPosts_PastTheEndIsEmptyNotError(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")
	createPost(t, s, token, "Only One")

	w := s.do(t, http.MethodGet, "/api/v1/posts?page=100&limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Empty(t, body["data"])
}

func TestListPosts_InvalidParamsRejected(t *testing.T) {
	s := newTestServer(t)

	cases := []string{
		"/api/v1/posts?page=0",
		"/api/v1/posts?limit=101",
		"/api/v1/posts?page=abc",
		"/api/v1/posts?status=pending",
		"/api/v1/posts?sortBy=secret_column",
		"/api/v1/posts?search=" + strings.Repeat("a", 101),
	}
	for _, path := range cases {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "path %s body %s", path, w.Body.String())
	}
}

func TestListPosts_SearchFindsTitleAndContent(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")

	createPost(t, s, token, "Needle in the title")
	w := s.do(t, http.MethodPost, "/api/v1/posts", token, gin.H{
		"title":   "Plain title",
		"content": "the needle hides in content",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	createPost(t, s, token, "Unrelated post")

	w = s.do(t, http.MethodGet, "/api/v1/posts?search=needle", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Len(t, body["data"].([]any), 2, "case-insensitive match across title and content")
}

func TestDuplicateTitleConflict(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.tokenFor(t, "alice")
	createPost(t, s, token, "Unique Title")

	w := s.do(t, http.MethodPost, "/api/v1/posts", token, gin.H{
		"title":   "Unique Title",
		"content": "dup",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, apperror.CodeDuplicate, body["code"])
}

func TestHealthLive(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Carol",
		"email":    "carol@example.com",
		"password": "long-enough-password",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "carol@example.com",
		"password": "long-enough-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	token := data["accessToken"].(string)
	require.NotEmpty(t, token)

	// The issued token authorizes writes.
	w = s.do(t, http.MethodPost, "/api/v1/posts", token, gin.H{
		"title":   "Carol's first",
		"content": "body",
	})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestLogin_BadPassword(t *testing.T) {
	s := newTestServer(t)
	s.tokenFor(t, "alice")

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
