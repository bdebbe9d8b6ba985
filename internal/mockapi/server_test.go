package mockapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/mockapi"
	"taskflow/internal/service"
)

func newServer(t *testing.T, opts ...mockapi.Option) (*mockapi.Server, http.Handler) {
	t.Helper()
	opts = append([]mockapi.Option{mockapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	s := mockapi.New([]byte("secret"), opts...)
	return s, s.Handler()
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestSeed_LoginReturnsTokenAndUser(t *testing.T) {
	s, h := newServer(t)
	s.Seed()

	code, body := call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@taskflow.dev", "password": "admin123",
	})

	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "admin", user["role"])
}

func TestLogin_BadPassword(t *testing.T) {
	s, h := newServer(t)
	s.Seed()

	code, body := call(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "bob@taskflow.dev", "password": "nope",
	})

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", body["message"])
}

func TestAuth(t *testing.T) {
	s, h := newServer(t)
	admin := s.AddUser(service.User{Name: "A", Email: "a@x", Role: service.RoleAdmin}, "pw")
	member := s.AddUser(service.User{Name: "M", Email: "m@x", Role: service.RoleMember}, "pw")
	adminTok, err := s.IssueToken(admin)
	require.NoError(t, err)
	memberTok, err := s.IssueToken(member)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/tasks", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/tasks", "abc", http.StatusUnauthorized},
		{"member on admin route", http.MethodGet, "/api/tasks", memberTok, http.StatusForbidden},
		{"member on own route", http.MethodGet, "/api/tasks/my", memberTok, http.StatusOK},
		{"admin lists tasks", http.MethodGet, "/api/tasks", adminTok, http.StatusOK},
		{"unknown route", http.MethodGet, "/api/nope", adminTok, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := call(t, h, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s, h := newServer(t, mockapi.WithNow(func() time.Time { return now }))
	admin := s.AddUser(service.User{Name: "A", Email: "a@x", Role: service.RoleAdmin}, "pw")
	tok, err := s.IssueToken(admin)
	require.NoError(t, err)

	now = now.Add(mockapi.TokenTTL + time.Minute)
	code, _ := call(t, h, http.MethodGet, "/api/tasks", tok, nil)

	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreateAndList_NewestFirst(t *testing.T) {
	s, h := newServer(t)
	admin := s.AddUser(service.User{Name: "A", Email: "a@x", Role: service.RoleAdmin}, "pw")
	bob := s.AddUser(service.User{Name: "Bob", Email: "b@x", Role: service.RoleMember}, "pw")
	tok, _ := s.IssueToken(admin)

	for _, title := range []string{"first", "second"} {
		code, body := call(t, h, http.MethodPost, "/api/tasks", tok, map[string]any{
			"title": title, "assignedTo": bob.ID, "status": "Todo",
		})
		require.Equal(t, http.StatusCreated, code, body)
	}

	code, body := call(t, h, http.MethodGet, "/api/tasks?page=1&limit=8", tok, nil)
	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "second", first["title"])
	assert.Equal(t, "Bob", first["assignedTo"].(map[string]any)["name"])
	assert.Nil(t, first["dueDate"])
	assert.EqualValues(t, 1, body["pages"])
}

func TestList_PageBeyondRange(t *testing.T) {
	s, h := newServer(t)
	admin := s.AddUser(service.User{Name: "A", Email: "a@x", Role: service.RoleAdmin}, "pw")
	tok, _ := s.IssueToken(admin)
	code, body := call(t, h, http.MethodPost, "/api/tasks", tok, map[string]any{
		"title": "only", "assignedTo": admin.ID, "status": "Todo",
	})
	require.Equal(t, http.StatusCreated, code, body)

	for _, page := range []string{"2", "9223372036854775807"} {
		code, body := call(t, h, http.MethodGet, "/api/tasks?limit=8&page="+page, tok, nil)
		require.Equal(t, http.StatusOK, code, page)
		assert.Empty(t, body["items"], page)
		assert.EqualValues(t, 1, body["total"], page)
	}
}

func TestCreate_Validation(t *testing.T) {
	s, h := newServer(t)
	admin := s.AddUser(service.User{Name: "A", Email: "a@x", Role: service.RoleAdmin}, "pw")
	tok, _ := s.IssueToken(admin)

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{"missing title", map[string]any{"description": "x"}, "Title is required"},
		{"blank title", map[string]any{"title": " "}, "Title is required"},
		{"bad status", map[string]any{"title": "x", "status": "Blocked"}, "Invalid status"},
		{"bad priority", map[string]any{"title": "x", "priority": "urgent"}, "Invalid priority"},
		{"unknown assignee", map[string]any{"title": "x", "assignedTo": "ghost"}, "Assigned user not found"},
		{"bad date", map[string]any{"title": "x", "dueDate": "tomorrow"}, "Invalid due date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := call(t, h, http.MethodPost, "/api/tasks", tok, tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.want, body["message"])
		})
	}
}

func TestUpdate_RejectedChangesNothing(t *testing.T) {
	s, h := newServer(t)
	admin := s.AddUser(service.User{Name: "A", Email: "a@x", Role: service.RoleAdmin}, "pw")
	tok, _ := s.IssueToken(admin)
	task := s.AddTask(service.Task{Title: "Keep"})

	code, _ := call(t, h, http.MethodPut, "/api/tasks/"+task.ID, tok, map[string]any{"title": "Changed", "status": "nope"})
	require.Equal(t, http.StatusBadRequest, code)

	_, body := call(t, h, http.MethodGet, "/api/tasks", tok, nil)
	assert.Equal(t, "Keep", body["items"].([]any)[0].(map[string]any)["title"])
}

func TestUpdateStatus_OwnershipAndMissing(t *testing.T) {
	s, h := newServer(t)
	bob := s.AddUser(service.User{Name: "Bob", Email: "b@x", Role: service.RoleMember}, "pw")
	carol := s.AddUser(service.User{Name: "Carol", Email: "c@x", Role: service.RoleMember}, "pw")
	task := s.AddTask(service.Task{Title: "Bob's", Assignee: service.UserRef{ID: bob.ID}})
	bobTok, _ := s.IssueToken(bob)
	carolTok, _ := s.IssueToken(carol)

	code, body := call(t, h, http.MethodPatch, "/api/tasks/"+task.ID+"/status", bobTok, map[string]string{"status": "In Progress"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "In Progress", body["status"])

	code, _ = call(t, h, http.MethodPatch, "/api/tasks/"+task.ID+"/status", carolTok, map[string]string{"status": "Done"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = call(t, h, http.MethodPatch, "/api/tasks/missing/status", bobTok, map[string]string{"status": "Done"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	_, h := newServer(t, mockapi.WithAccessLog(&buf))

	call(t, h, http.MethodGet, "/api/tasks", "", nil)

	assert.Contains(t, buf.String(), "GET /api/tasks")
}
