// Package member implements the state of the member task list: the caller's
// tasks loaded in full, filtered locally, with optimistic status changes.
package member

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"taskflow/internal/apperr"
	"taskflow/internal/debounce"
	"taskflow/internal/service"
	"taskflow/internal/stats"
)

// DefaultSearchDelay is the quiet period before search text applies.
const DefaultSearchDelay = 300 * time.Millisecond

const (
	msgLoadFailed   = "Failed to load tasks"
	msgStatusFailed = "Failed to update status"
)

// Service is the part of the backend the member screen uses.
type Service interface {
	MyTasks(ctx context.Context) ([]service.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status service.Status) (service.Task, error)
}

// Alerter surfaces blocking alerts.
type Alerter interface {
	Alert(message string)
}

type noAlert struct{}

func (noAlert) Alert(string) {}

// Filters are the member's local list constraints. Empty fields mean "All".
type Filters struct {
	Search   string
	Status   service.Status
	Priority service.Priority
}

// Active reports whether any constraint applies.
func (f Filters) Active() bool {
	return f.Search != "" || f.Status != "" || f.Priority != ""
}

// Match reports whether t satisfies every constraint. Search matches a
// case-insensitive substring of the title or description; an absent
// priority counts as Medium.
func (f Filters) Match(t service.Task) bool {
	if f.Search != "" {
		fold := cases.Fold()
		q := fold.String(f.Search)
		if !strings.Contains(fold.String(t.Title), q) && !strings.Contains(fold.String(t.Description), q) {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.EffectivePriority() != f.Priority {
		return false
	}
	return true
}

// Controller holds the member task list state. It is safe for concurrent use.
type Controller struct {
	svc      Service
	alerter  Alerter
	log      *slog.Logger
	onChange func()

	searchDelay time.Duration
	clock       debounce.Clock
	search      *debounce.Debouncer[string]

	mu        sync.Mutex
	tasks     []service.Task
	loading   bool
	loaded    bool
	errMsg    string
	input     Filters
	debounced string
}

// Option configures a Controller.
type Option func(*Controller)

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

// New creates a controller. A nil alerter discards alerts.
func New(svc Service, alerter Alerter, opts ...Option) *Controller {
	if alerter == nil {
		alerter = noAlert{}
	}
	c := &Controller{
		svc:         svc,
		alerter:     alerter,
		log:         slog.Default(),
		searchDelay: DefaultSearchDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.search = debounce.New(c.searchDelay, c.clock, c.applySearch)
	return c
}

// Close drops any pending search.
func (c *Controller) Close() {
	c.search.Cancel()
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

// Load fetches every task assigned to the caller and replaces the list.
// On failure the error message is set and the previous list is kept.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()
	c.changed()

	tasks, err := c.svc.MyTasks(ctx)

	c.mu.Lock()
	c.loading = false
	if err == nil {
		c.tasks = tasks
		c.loaded = true
		c.errMsg = ""
	}
	c.mu.Unlock()

	if err != nil {
		e := apperr.Load(err, msgLoadFailed)
		c.mu.Lock()
		c.errMsg = e.Message
		c.mu.Unlock()
		c.changed()
		c.log.Error("my tasks fetch failed", "error", err)
		return e
	}
	c.changed()
	c.log.Debug("my tasks fetched", "count", len(tasks))
	return nil
}

// SetSearch records search text; it filters once unchanged for the search delay.
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

func (c *Controller) applySearch(text string) {
	c.mu.Lock()
	if text == c.debounced {
		c.mu.Unlock()
		return
	}
	c.debounced = text
	c.mu.Unlock()
	c.changed()
}

// SetStatusFilter constrains the status; "" means All.
func (c *Controller) SetStatusFilter(s service.Status) {
	c.mu.Lock()
	c.input.Status = s
	c.mu.Unlock()
	c.changed()
}

// SetPriorityFilter constrains the priority; "" means All.
func (c *Controller) SetPriorityFilter(p service.Priority) {
	c.mu.Lock()
	c.input.Priority = p
	c.mu.Unlock()
	c.changed()
}

// Preset sets every filter at once, search text already settled.
func (c *Controller) Preset(f Filters) {
	c.search.Cancel()
	c.mu.Lock()
	c.input = f
	c.debounced = strings.TrimSpace(f.Search)
	c.mu.Unlock()
	c.changed()
}

// ResetFilters clears every filter and any pending search.
func (c *Controller) ResetFilters() {
	c.search.Cancel()
	c.mu.Lock()
	c.input = Filters{}
	c.debounced = ""
	c.mu.Unlock()
	c.changed()
}

// Filters returns the constraints in effect, with the settled search text.
func (c *Controller) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.effective()
}

func (c *Controller) effective() Filters {
	f := c.input
	f.Search = c.debounced
	return f
}

// SetStatus changes a task's status optimistically. The local copy changes
// before the backend answers; success adopts the backend's task, failure
// restores the list as it was and raises an alert.
func (c *Controller) SetStatus(ctx context.Context, id string, status service.Status) error {
	c.mu.Lock()
	snapshot := slices.Clone(c.tasks)
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks[i].Status = status
		}
	}
	c.mu.Unlock()
	c.changed()

	updated, err := c.svc.UpdateTaskStatus(ctx, id, status)
	if err != nil {
		c.mu.Lock()
		c.tasks = snapshot
		c.mu.Unlock()
		c.changed()

		e := apperr.Operation(err, msgStatusFailed)
		c.log.Warn("status update rolled back", "id", id, "status", status, "error", err)
		c.alerter.Alert(e.Message)
		return e
	}

	c.mu.Lock()
	for i := range c.tasks {
		if c.tasks[i].ID == updated.ID {
			c.tasks[i] = updated
		}
	}
	c.mu.Unlock()
	c.changed()
	return nil
}

// Tasks returns the full unfiltered list.
func (c *Controller) Tasks() []service.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.tasks)
}

// Filtered returns the tasks matching the filters in effect, in list order.
func (c *Controller) Filtered() []service.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.effective()
	var out []service.Task
	for _, t := range c.tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Empty reports the "no tasks found" state: a load happened and nothing
// matches the filters in effect.
func (c *Controller) Empty() bool {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	return loaded && len(c.Filtered()) == 0
}

// Loading reports whether a load is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the message of the last failed load, or "".
func (c *Controller) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Stats summarizes the full list regardless of filters.
func (c *Controller) Stats(now time.Time) stats.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return stats.Compute(c.tasks, now)
}
