// Package mockapi serves an in-memory implementation of the task REST API.
// It backs the devserver command and the REST client tests.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/text/cases"

	"taskflow/internal/service"
)

const (
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL = 24 * time.Hour

	defaultLimit = 10
	maxLimit     = 1000
)

// Claims are carried by issued tokens. Subject holds the user ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type account struct {
	user     service.User
	password string
}

type record struct {
	id          string
	title       string
	description string
	status      service.Status
	priority    service.Priority
	assignedTo  string
	dueDate     *time.Time
	createdAt   time.Time
}

// Server holds the users and tasks. It is safe for concurrent use.
type Server struct {
	secret    []byte
	log       *slog.Logger
	accessLog io.Writer
	now       func() time.Time

	mu       sync.RWMutex
	accounts []account
	tasks    []*record // newest first
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithAccessLog writes an Apache-style access log line per request to w.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.accessLog = w }
}

// WithNow sets the clock used for timestamps and token expiry.
func WithNow(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates an empty server signing tokens with secret.
func New(secret []byte, opts ...Option) *Server {
	s := &Server{
		secret: secret,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed adds the demo accounts: one admin and two members.
func (s *Server) Seed() {
	s.AddUser(service.User{Name: "Admin", Email: "admin@taskflow.dev", Role: service.RoleAdmin}, "admin123")
	bob := s.AddUser(service.User{Name: "Bob", Email: "bob@taskflow.dev", Role: service.RoleMember}, "member123")
	alice := s.AddUser(service.User{Name: "Alice", Email: "alice@taskflow.dev", Role: service.RoleMember}, "member123")

	today := s.now().UTC().Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)
	nextWeek := today.AddDate(0, 0, 7)
	s.AddTask(service.Task{Title: "Prepare sprint demo", Status: service.StatusInProgress, Priority: service.PriorityHigh, Assignee: service.UserRef{ID: bob.ID}, DueDate: &nextWeek})
	s.AddTask(service.Task{Title: "Update onboarding docs", Description: "Cover the new VPN setup", Status: service.StatusTodo, Assignee: service.UserRef{ID: alice.ID}, DueDate: &yesterday})
	s.AddTask(service.Task{Title: "Close Q3 report", Status: service.StatusDone, Priority: service.PriorityLow, Assignee: service.UserRef{ID: bob.ID}, DueDate: &yesterday})
}

// AddUser registers an account. An empty ID gets a generated one.
func (s *Server) AddUser(u service.User, password string) service.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, account{user: u, password: password})
	return u
}

// AddTask stores a task as the newest one. An empty ID gets a generated one
// and an empty status means Todo.
func (s *Server) AddTask(t service.Task) service.Task {
	r := &record{
		id:          t.ID,
		title:       t.Title,
		description: t.Description,
		status:      t.Status,
		priority:    t.Priority,
		assignedTo:  t.Assignee.ID,
		dueDate:     t.DueDate,
		createdAt:   s.now(),
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	if r.status == "" {
		r.status = service.StatusTodo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]*record{r}, s.tasks...)
	return s.toTask(r)
}

// IssueToken signs a token for u.
func (s *Server) IssueToken(u service.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Handler returns the HTTP handler serving the API under /api.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/users", s.requireAuth(true, s.handleListUsers)).Methods(http.MethodGet)

	// /tasks/my must be registered before /tasks/{id}.
	api.HandleFunc("/tasks/my", s.requireAuth(false, s.handleMyTasks)).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.requireAuth(true, s.handleListTasks)).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.requireAuth(true, s.handleCreateTask)).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.requireAuth(true, s.handleUpdateTask)).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", s.requireAuth(true, s.handleDeleteTask)).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}/status", s.requireAuth(false, s.handleUpdateStatus)).Methods(http.MethodPatch)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Request-ID"}),
	)(h)
	if s.accessLog != nil {
		h = handlers.LoggingHandler(s.accessLog, h)
	}
	return h
}

type claimsKey struct{}

// requireAuth verifies the bearer token and, when adminOnly, the admin role.
func (s *Server) requireAuth(adminOnly bool, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		claims := &Claims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			s.log.Debug("token rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}
		if adminOnly && claims.Role != string(service.RoleAdmin) {
			writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	}
}

func claimsFrom(r *http.Request) *Claims {
	c, _ := r.Context().Value(claimsKey{}).(*Claims)
	return c
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.RLock()
	var found *account
	for i := range s.accounts {
		if strings.EqualFold(s.accounts[i].user.Email, strings.TrimSpace(body.Email)) {
			found = &s.accounts[i]
			break
		}
	}
	s.mu.RUnlock()

	if found == nil || found.password != body.Password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	token, err := s.IssueToken(found.user)
	if err != nil {
		s.log.Error("sign token", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": userJSON(found.user)})
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]any, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, userJSON(a.user))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	fold := cases.Fold()
	search := fold.String(strings.TrimSpace(q.Get("search")))

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*record
	for _, t := range s.tasks {
		if search != "" &&
			!strings.Contains(fold.String(t.title), search) &&
			!strings.Contains(fold.String(t.description), search) {
			continue
		}
		if v := q.Get("status"); v != "" && string(t.status) != v {
			continue
		}
		if v := q.Get("priority"); v != "" && string(effectivePriority(t.priority)) != v {
			continue
		}
		if v := q.Get("assignedTo"); v != "" && t.assignedTo != v {
			continue
		}
		matched = append(matched, t)
	}

	pages := (len(matched) + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	items := make([]map[string]any, 0, limit)
	if page <= pages {
		for i := (page - 1) * limit; i < len(matched) && i < page*limit; i++ {
			items = append(items, s.taskJSON(matched[i]))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"page":  page,
		"pages": pages,
		"total": len(matched),
		"limit": limit,
	})
}

func (s *Server) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	caller := claimsFrom(r).Subject

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]any, 0)
	for _, t := range s.tasks {
		if t.assignedTo == caller {
			out = append(out, s.taskJSON(t))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// taskBody is a create or update payload. Absent fields stay nil; an explicit
// null due date sets dueNull.
type taskBody struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssignedTo  *string
	DueDate     *string
	dueNull     bool
}

func decodeTaskBody(r io.Reader) (taskBody, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return taskBody{}, err
	}
	var b taskBody
	fields := map[string]**string{
		"title":       &b.Title,
		"description": &b.Description,
		"status":      &b.Status,
		"priority":    &b.Priority,
		"assignedTo":  &b.AssignedTo,
		"dueDate":     &b.DueDate,
	}
	for name, dst := range fields {
		v, ok := raw[name]
		if !ok {
			continue
		}
		if string(v) == "null" {
			if name == "dueDate" {
				b.dueNull = true
			}
			continue
		}
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return taskBody{}, errors.New(name + " must be a string")
		}
		*dst = &str
	}
	return b, nil
}

// apply validates b and writes it into t. Caller holds mu.
func (s *Server) apply(t *record, b taskBody) (int, string) {
	if b.Title != nil {
		if strings.TrimSpace(*b.Title) == "" {
			return http.StatusBadRequest, "Title is required"
		}
		t.title = strings.TrimSpace(*b.Title)
	}
	if b.Description != nil {
		t.description = *b.Description
	}
	if b.Status != nil {
		st, err := service.ParseStatus(*b.Status)
		if err != nil || string(st) != *b.Status {
			return http.StatusBadRequest, "Invalid status"
		}
		t.status = st
	}
	if b.Priority != nil {
		p, err := service.ParsePriority(*b.Priority)
		if err != nil || string(p) != *b.Priority {
			return http.StatusBadRequest, "Invalid priority"
		}
		t.priority = p
	}
	if b.AssignedTo != nil {
		if _, ok := s.userByID(*b.AssignedTo); !ok {
			return http.StatusBadRequest, "Assigned user not found"
		}
		t.assignedTo = *b.AssignedTo
	}
	switch {
	case b.DueDate != nil && *b.DueDate != "":
		d, err := parseDate(*b.DueDate)
		if err != nil {
			return http.StatusBadRequest, "Invalid due date"
		}
		t.dueDate = &d
	case b.dueNull || b.DueDate != nil:
		t.dueDate = nil
	}
	return 0, ""
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	b, err := decodeTaskBody(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if b.Title == nil {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := &record{id: uuid.NewString(), status: service.StatusTodo, createdAt: s.now()}
	if code, msg := s.apply(t, b); code != 0 {
		writeError(w, code, msg)
		return
	}
	s.tasks = append([]*record{t}, s.tasks...)
	s.log.Debug("task created", "id", t.id)
	writeJSON(w, http.StatusCreated, s.taskJSON(t))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	b, err := decodeTaskBody(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.taskByID(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	// Validate on a copy so a rejected update changes nothing.
	next := *t
	if code, msg := s.apply(&next, b); code != 0 {
		writeError(w, code, msg)
		return
	}
	*t = next
	writeJSON(w, http.StatusOK, s.taskJSON(t))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.id == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"message": "Task removed"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Task not found")
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	st, err := service.ParseStatus(body.Status)
	if err != nil || string(st) != body.Status {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	claims := claimsFrom(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.taskByID(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if claims.Role != string(service.RoleAdmin) && t.assignedTo != claims.Subject {
		writeError(w, http.StatusForbidden, "Not authorized to update this task")
		return
	}
	t.status = st
	writeJSON(w, http.StatusOK, s.taskJSON(t))
}

// taskByID finds a task. Caller holds mu.
func (s *Server) taskByID(id string) (*record, bool) {
	for _, t := range s.tasks {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

// userByID finds a user. Caller holds mu.
func (s *Server) userByID(id string) (service.User, bool) {
	for _, a := range s.accounts {
		if a.user.ID == id {
			return a.user, true
		}
	}
	return service.User{}, false
}

// toTask converts a record for Go callers. Caller holds mu.
func (s *Server) toTask(r *record) service.Task {
	t := service.Task{
		ID:          r.id,
		Title:       r.title,
		Description: r.description,
		Status:      r.status,
		Priority:    r.priority,
		Assignee:    service.UserRef{ID: r.assignedTo},
		DueDate:     r.dueDate,
	}
	if u, ok := s.userByID(r.assignedTo); ok {
		t.Assignee = service.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return t
}

// taskJSON renders a task with its assignee populated when known. Caller holds mu.
func (s *Server) taskJSON(r *record) map[string]any {
	out := map[string]any{
		"_id":         r.id,
		"title":       r.title,
		"description": r.description,
		"status":      r.status,
		"createdAt":   r.createdAt.UTC().Format(time.RFC3339),
		"dueDate":     nil,
		"assignedTo":  nil,
	}
	if r.priority != "" {
		out["priority"] = r.priority
	}
	if r.dueDate != nil {
		out["dueDate"] = r.dueDate.UTC().Format(time.RFC3339)
	}
	if r.assignedTo != "" {
		if u, ok := s.userByID(r.assignedTo); ok {
			out["assignedTo"] = map[string]any{"_id": u.ID, "name": u.Name, "email": u.Email}
		} else {
			out["assignedTo"] = r.assignedTo
		}
	}
	return out
}

func userJSON(u service.User) map[string]any {
	return map[string]any{"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role}
}

func effectivePriority(p service.Priority) service.Priority {
	return service.Task{Priority: p}.EffectivePriority()
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"message": message})
}
