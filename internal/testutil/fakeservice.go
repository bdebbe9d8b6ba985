// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"taskflow/internal/service"
)

// ErrNotFound is returned when a task or user does not exist.
var ErrNotFound = &service.APIError{StatusCode: 404, Message: "Task not found"}

// ErrBadCredentials is returned by Login for unknown accounts.
var ErrBadCredentials = &service.APIError{StatusCode: 401, Message: "Invalid email or password"}

// FakeService is an in-memory implementation of service.Service for testing.
// It keeps tasks in insertion order and records every call for assertions.
type FakeService struct {
	mu        sync.RWMutex
	users     []service.User
	passwords map[string]string // email -> password
	tasks     []service.Task
	nextID    int

	// Caller is the user MyTasks and UpdateTaskStatus act for.
	Caller string

	// Error injection for testing
	LoginErr            error
	ListUsersErr        error
	ListTasksErr        error
	CreateTaskErr       error
	UpdateTaskErr       error
	DeleteTaskErr       error
	MyTasksErr          error
	UpdateTaskStatusErr error

	// PagesOverride forces the Pages field of ListTasks responses when > 0.
	PagesOverride int

	// BeforeUpdateTaskStatus runs before UpdateTaskStatus touches state,
	// letting tests observe the caller while the request is in flight.
	BeforeUpdateTaskStatus func(id string, status service.Status)

	// Recorded calls
	ListTasksCalls  []service.TaskQuery
	CreateTaskCalls []service.TaskInput
	UpdateTaskCalls []string
	DeleteTaskCalls []string
	MyTasksCalls    int
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{passwords: make(map[string]string)}
}

// AddUser adds an account that can log in with password.
func (f *FakeService) AddUser(u service.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, u)
	f.passwords[u.Email] = password
}

// AddTask stores a task as-is. An empty ID gets a generated one.
func (f *FakeService) AddTask(t service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = f.newID()
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of every stored task.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

// LastListQuery returns the most recent ListTasks query.
func (f *FakeService) LastListQuery() (service.TaskQuery, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.ListTasksCalls) == 0 {
		return service.TaskQuery{}, false
	}
	return f.ListTasksCalls[len(f.ListTasksCalls)-1], true
}

// ListCallCount returns how many ListTasks calls were made.
func (f *FakeService) ListCallCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ListTasksCalls)
}

func (f *FakeService) newID() string {
	f.nextID++
	return fmt.Sprintf("t%d", f.nextID)
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, email, password string) (service.Credentials, error) {
	if f.LoginErr != nil {
		return service.Credentials{}, f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	if pw, ok := f.passwords[email]; !ok || pw != password {
		return service.Credentials{}, ErrBadCredentials
	}
	for _, u := range f.users {
		if u.Email == email {
			return service.Credentials{Token: "token-" + u.ID, User: u}, nil
		}
	}
	return service.Credentials{}, ErrBadCredentials
}

// ListUsers implements service.Service.
func (f *FakeService) ListUsers(ctx context.Context) ([]service.User, error) {
	if f.ListUsersErr != nil {
		return nil, f.ListUsersErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.User(nil), f.users...), nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, q service.TaskQuery) (service.TaskPage, error) {
	f.mu.Lock()
	f.ListTasksCalls = append(f.ListTasksCalls, q)
	f.mu.Unlock()

	if f.ListTasksErr != nil {
		return service.TaskPage{}, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	search := strings.ToLower(q.Search)
	var matched []service.Task
	for _, t := range f.tasks {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Priority != "" && t.EffectivePriority() != q.Priority {
			continue
		}
		if q.AssignedTo != "" && t.Assignee.ID != q.AssignedTo {
			continue
		}
		matched = append(matched, f.populate(t))
	}

	limit := q.Limit
	if limit < 1 {
		limit = 10
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	pages := (len(matched) + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	if f.PagesOverride > 0 {
		pages = f.PagesOverride
	}

	// Paginate
	start := (page - 1) * limit
	var items []service.Task
	if start < len(matched) {
		end := start + limit
		if end > len(matched) {
			end = len(matched)
		}
		items = matched[start:end]
	}

	return service.TaskPage{Items: items, Page: page, Pages: pages, Total: len(matched), Limit: limit}, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	f.mu.Lock()
	f.CreateTaskCalls = append(f.CreateTaskCalls, in)
	f.mu.Unlock()

	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return service.Task{}, &service.APIError{StatusCode: 400, Message: "Title is required"}
	}

	t := service.Task{ID: f.newID(), Status: service.StatusTodo}
	apply(&t, in)
	// Newest first, like the real backend.
	f.tasks = append([]service.Task{t}, f.tasks...)
	return f.populate(t), nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	f.mu.Lock()
	f.UpdateTaskCalls = append(f.UpdateTaskCalls, id)
	f.mu.Unlock()

	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.tasks {
		if f.tasks[i].ID == id {
			apply(&f.tasks[i], in)
			return f.populate(f.tasks[i]), nil
		}
	}
	return service.Task{}, ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	f.DeleteTaskCalls = append(f.DeleteTaskCalls, id)
	f.mu.Unlock()

	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// MyTasks implements service.Service.
func (f *FakeService) MyTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	f.MyTasksCalls++
	f.mu.Unlock()

	if f.MyTasksErr != nil {
		return nil, f.MyTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	var mine []service.Task
	for _, t := range f.tasks {
		if t.Assignee.ID == f.Caller {
			mine = append(mine, f.populate(t))
		}
	}
	return mine, nil
}

// UpdateTaskStatus implements service.Service.
func (f *FakeService) UpdateTaskStatus(ctx context.Context, id string, status service.Status) (service.Task, error) {
	if f.BeforeUpdateTaskStatus != nil {
		f.BeforeUpdateTaskStatus(id, status)
	}
	if f.UpdateTaskStatusErr != nil {
		return service.Task{}, f.UpdateTaskStatusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Status = status
			return f.populate(f.tasks[i]), nil
		}
	}
	return service.Task{}, ErrNotFound
}

// populate resolves the assignee reference like the backend does. Caller holds mu.
func (f *FakeService) populate(t service.Task) service.Task {
	for _, u := range f.users {
		if u.ID == t.Assignee.ID {
			t.Assignee = service.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
			break
		}
	}
	return t
}

func apply(t *service.Task, in service.TaskInput) {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.AssignedTo != nil {
		t.Assignee = service.UserRef{ID: *in.AssignedTo}
	}
	if in.DueDate != nil {
		d := *in.DueDate
		t.DueDate = &d
	} else if in.ClearDueDate {
		t.DueDate = nil
	}
}

// SortedIDs returns the IDs of tasks, sorted, for order-insensitive comparisons.
func SortedIDs(tasks []service.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	sort.Strings(ids)
	return ids
}

// Date returns a pointer to midnight UTC of the given day.
func Date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

var _ service.Service = (*FakeService)(nil)
