// Package manager implements the state of the manager task list: a server
// paginated, filtered listing with debounced search and CRUD mutations.
package manager

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/debounce"
	"taskflow/internal/service"
	"taskflow/internal/stats"
)

const (
	// DefaultPageSize is the number of tasks per page in paginated mode.
	DefaultPageSize = 8

	// DefaultCapLimit bounds the single page fetched in filtered mode.
	DefaultCapLimit = 1000

	// DefaultSearchDelay is the quiet period before search text applies.
	DefaultSearchDelay = 350 * time.Millisecond
)

// User-facing messages.
const (
	msgCreateFailed = "Failed to create task"
	msgUpdateFailed = "Failed to update task"
	msgLoadFailed   = "Failed to load tasks"
	msgUsersFailed  = "Failed to load users"
	alertUpdate     = "Update failed"
	alertDelete     = "Delete failed"
	confirmDelete   = "Delete this task?"
)

// Service is the part of the backend the manager screen uses.
type Service interface {
	ListUsers(ctx context.Context) ([]service.User, error)
	ListTasks(ctx context.Context, q service.TaskQuery) (service.TaskPage, error)
	CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error)
	UpdateTask(ctx context.Context, id string, in service.TaskInput) (service.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// Notifier surfaces blocking feedback: alerts and confirmations.
type Notifier interface {
	Alert(message string)
	Confirm(prompt string) bool
}

type silent struct{}

func (silent) Alert(string)        {}
func (silent) Confirm(string) bool { return false }

// Form is the state of the create or edit form.
type Form struct {
	Open   bool
	TaskID string
	Err    string
}

// View is an immutable snapshot of the controller for rendering.
type View struct {
	Items   []service.Task
	Page    int
	Pages   int
	Total   int
	Loading bool

	// Filters holds the constraints in effect, with the settled search text.
	Filters Filters

	// SearchInput is the raw search text, possibly not yet settled.
	SearchInput string

	Filtered       bool
	ShowPagination bool

	Create Form
	Edit   Form
}

// Controller holds the manager task list state. It is safe for concurrent
// use; backend calls run without holding the lock, and overlapping fetches
// are not fenced, so the last one to complete wins.
type Controller struct {
	svc      Service
	notifier Notifier
	log      *slog.Logger
	onChange func()

	pageSize    int
	capLimit    int
	searchDelay time.Duration
	clock       debounce.Clock

	// ctx is used by fetches started from the search debouncer.
	ctx    context.Context
	search *debounce.Debouncer[string]

	mu        sync.Mutex
	input     Filters
	debounced string
	page      int
	result    service.TaskPage
	loading   bool
	users     []service.User
	create    Form
	edit      Form
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the page size of paginated mode.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithCapLimit sets the cap of filtered mode.
func WithCapLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.capLimit = n
		}
	}
}

// WithSearchDelay sets the search debounce period.
func WithSearchDelay(d time.Duration) Option {
	return func(c *Controller) { c.searchDelay = d }
}

// WithClock sets the clock driving the search debounce.
func WithClock(clock debounce.Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithOnChange registers a hook called after every state change.
func WithOnChange(fn func()) Option {
	return func(c *Controller) { c.onChange = fn }
}

// New creates a controller. ctx bounds fetches triggered by settled search
// text; a nil notifier alerts nothing and declines every confirmation.
func New(ctx context.Context, svc Service, notifier Notifier, opts ...Option) *Controller {
	if notifier == nil {
		notifier = silent{}
	}
	c := &Controller{
		svc:         svc,
		notifier:    notifier,
		log:         slog.Default(),
		pageSize:    DefaultPageSize,
		capLimit:    DefaultCapLimit,
		searchDelay: DefaultSearchDelay,
		ctx:         ctx,
		page:        1,
		result:      service.TaskPage{Page: 1, Pages: 1, Limit: DefaultPageSize},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.result.Limit = c.pageSize
	c.search = debounce.New(c.searchDelay, c.clock, c.applySearch)
	return c
}

// Close drops any pending search.
func (c *Controller) Close() {
	c.search.Cancel()
}

// Init loads the assignable users and the first page.
func (c *Controller) Init(ctx context.Context) error {
	_ = c.LoadUsers(ctx)
	return c.Fetch(ctx, 1)
}

// effective returns the filters in effect. Caller holds mu.
func (c *Controller) effective() Filters {
	f := c.input
	f.Search = c.debounced
	return f
}

// viewPage is the page a refetch of the current view asks for. Caller holds mu.
func (c *Controller) viewPage() int {
	if c.effective().Active() {
		return 1
	}
	return c.page
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// Fetch loads page with the current filters and replaces the list state.
// In filtered mode the whole matching set is fetched and the displayed page
// is pinned to 1. Failures leave the state untouched.
func (c *Controller) Fetch(ctx context.Context, page int) error {
	c.mu.Lock()
	f := c.effective()
	mode := ModeFor(f, page, c.pageSize, c.capLimit)
	c.loading = true
	c.mu.Unlock()
	c.changed()

	q := BuildQuery(f, mode)
	res, err := c.svc.ListTasks(ctx, q)

	c.mu.Lock()
	c.loading = false
	if err == nil {
		c.result = res
		switch {
		case f.Active():
			c.page = 1
		case res.Page >= 1:
			c.page = res.Page
		default:
			c.page = q.Page
		}
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		c.log.Error("task fetch failed", "page", q.Page, "limit", q.Limit, "error", err)
		return apperr.Load(err, msgLoadFailed)
	}
	c.log.Debug("tasks fetched", "page", res.Page, "pages", res.Pages, "total", res.Total, "filtered", f.Active())
	return nil
}

// refetch reloads the current view, logging failures.
func (c *Controller) refetch(ctx context.Context) {
	c.mu.Lock()
	page := c.viewPage()
	c.mu.Unlock()
	_ = c.Fetch(ctx, page)
}

// LoadUsers fetches the user directory. Failures are logged and keep the
// previous list.
func (c *Controller) LoadUsers(ctx context.Context) error {
	users, err := c.svc.ListUsers(ctx)
	if err != nil {
		c.log.Error("user fetch failed", "error", err)
		return apperr.Load(err, msgUsersFailed)
	}
	c.mu.Lock()
	c.users = users
	c.mu.Unlock()
	c.changed()
	return nil
}

// Users returns every loaded user.
func (c *Controller) Users() []service.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]service.User(nil), c.users...)
}

// AssignableUsers returns the loaded users that can own tasks; admins cannot.
func (c *Controller) AssignableUsers() []service.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []service.User
	for _, u := range c.users {
		if !u.IsAdmin() {
			out = append(out, u)
		}
	}
	return out
}

// SetSearch records search text. It affects queries once it stayed
// unchanged for the search delay.
func (c *Controller) SetSearch(text string) {
	c.mu.Lock()
	c.input.Search = text
	c.mu.Unlock()
	c.search.Trigger(strings.TrimSpace(text))
	c.changed()
}

// FlushSearch applies pending search text immediately.
func (c *Controller) FlushSearch() bool {
	return c.search.Flush()
}

// applySearch receives settled search text from the debouncer.
func (c *Controller) applySearch(text string) {
	c.mu.Lock()
	if text == c.debounced {
		c.mu.Unlock()
		return
	}
	c.debounced = text
	c.mu.Unlock()
	_ = c.Fetch(c.ctx, 1)
}

// SetStatusFilter constrains the status; "" means All.
func (c *Controller) SetStatusFilter(ctx context.Context, s service.Status) error {
	return c.setFilter(ctx, func(f *Filters) bool {
		if f.Status == s {
			return false
		}
		f.Status = s
		return true
	})
}

// SetPriorityFilter constrains the priority; "" means All.
func (c *Controller) SetPriorityFilter(ctx context.Context, p service.Priority) error {
	return c.setFilter(ctx, func(f *Filters) bool {
		if f.Priority == p {
			return false
		}
		f.Priority = p
		return true
	})
}

// SetAssigneeFilter constrains the assignee by user ID; "" means All.
func (c *Controller) SetAssigneeFilter(ctx context.Context, userID string) error {
	return c.setFilter(ctx, func(f *Filters) bool {
		if f.Assignee == userID {
			return false
		}
		f.Assignee = userID
		return true
	})
}

// setFilter applies update and refetches page 1 when it changed anything.
func (c *Controller) setFilter(ctx context.Context, update func(*Filters) bool) error {
	c.mu.Lock()
	changed := update(&c.input)
	c.mu.Unlock()
	if !changed {
		return nil
	}
	return c.Fetch(ctx, 1)
}

// Preset sets every filter at once, search text already settled, without
// fetching. Meant for restoring a view before its first Fetch.
func (c *Controller) Preset(f Filters) {
	c.search.Cancel()
	c.mu.Lock()
	c.input = f
	c.debounced = strings.TrimSpace(f.Search)
	c.page = 1
	c.mu.Unlock()
	c.changed()
}

// ResetFilters clears every filter and pins the page to 1. The list is
// refetched when the filters in effect changed.
func (c *Controller) ResetFilters(ctx context.Context) error {
	c.search.Cancel()
	c.mu.Lock()
	wasActive := c.effective().Active()
	c.input = Filters{}
	c.debounced = ""
	c.page = 1
	c.mu.Unlock()
	c.changed()

	if !wasActive {
		return nil
	}
	return c.Fetch(ctx, 1)
}

// OpenCreate shows an empty create form.
func (c *Controller) OpenCreate() {
	c.mu.Lock()
	c.create = Form{Open: true}
	c.mu.Unlock()
	c.changed()
}

// OpenEdit shows the edit form for a task.
func (c *Controller) OpenEdit(taskID string) {
	c.mu.Lock()
	c.edit = Form{Open: true, TaskID: taskID}
	c.mu.Unlock()
	c.changed()
}

// CloseForms hides both forms and discards their errors.
func (c *Controller) CloseForms() {
	c.mu.Lock()
	c.create = Form{}
	c.edit = Form{}
	c.mu.Unlock()
	c.changed()
}

// Create submits a new task with status Todo. On success the create form
// closes and page 1 is refetched; on failure the form stays open with the
// error message.
func (c *Controller) Create(ctx context.Context, in service.TaskInput) error {
	c.mu.Lock()
	c.create.Err = ""
	c.mu.Unlock()

	todo := service.StatusTodo
	in.Status = &todo
	task, err := c.svc.CreateTask(ctx, in)
	if err != nil {
		e := apperr.Validation(err, msgCreateFailed)
		c.mu.Lock()
		c.create.Err = e.Message
		c.mu.Unlock()
		c.changed()
		c.log.Warn("create rejected", "error", err)
		return e
	}

	c.log.Debug("task created", "id", task.ID)
	c.mu.Lock()
	c.create = Form{}
	c.mu.Unlock()
	_ = c.Fetch(ctx, 1)
	return nil
}

// Update submits edits to a task. On success the edit form closes and the
// current view is refetched; on failure the form stays open with the error.
func (c *Controller) Update(ctx context.Context, id string, in service.TaskInput) error {
	c.mu.Lock()
	c.edit.Err = ""
	c.mu.Unlock()

	if _, err := c.svc.UpdateTask(ctx, id, in); err != nil {
		e := apperr.Validation(err, msgUpdateFailed)
		c.mu.Lock()
		c.edit.Err = e.Message
		c.mu.Unlock()
		c.changed()
		c.log.Warn("update rejected", "id", id, "error", err)
		return e
	}

	c.mu.Lock()
	c.edit = Form{}
	c.mu.Unlock()
	c.refetch(ctx)
	return nil
}

// SetStatus changes a task's status. Nothing changes locally before the
// backend confirms: success refetches the view, failure raises an alert.
func (c *Controller) SetStatus(ctx context.Context, id string, status service.Status) error {
	if _, err := c.svc.UpdateTask(ctx, id, service.TaskInput{Status: &status}); err != nil {
		e := apperr.Newf(apperr.KindOperation, err, alertUpdate)
		c.log.Warn("status update failed", "id", id, "status", status, "error", err)
		c.notifier.Alert(e.Message)
		return e
	}
	c.refetch(ctx)
	return nil
}

// Remove deletes a task after confirmation and reports whether it did.
// In paginated mode, deleting the only item of a page after the first
// moves to the previous page.
func (c *Controller) Remove(ctx context.Context, id string) (bool, error) {
	if !c.notifier.Confirm(confirmDelete) {
		return false, nil
	}

	if err := c.svc.DeleteTask(ctx, id); err != nil {
		e := apperr.Newf(apperr.KindOperation, err, alertDelete)
		c.log.Warn("delete failed", "id", id, "error", err)
		c.notifier.Alert(e.Message)
		return false, e
	}

	c.mu.Lock()
	next := 1
	if !c.effective().Active() {
		next = c.page
		if len(c.result.Items) == 1 && c.page > 1 {
			next = c.page - 1
		}
	}
	c.mu.Unlock()

	_ = c.Fetch(ctx, next)
	return true, nil
}

// Stats derives the summary of the loaded page.
func (c *Controller) Stats(now time.Time) stats.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return stats.ForPage(c.result, now)
}

// View returns a snapshot of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.effective()
	filtered := f.Active()
	return View{
		Items:          append([]service.Task(nil), c.result.Items...),
		Page:           c.page,
		Pages:          c.result.Pages,
		Total:          c.result.Total,
		Loading:        c.loading,
		Filters:        f,
		SearchInput:    c.input.Search,
		Filtered:       filtered,
		ShowPagination: !filtered && c.result.Pages > 1,
		Create:         c.create,
		Edit:           c.edit,
	}
}
