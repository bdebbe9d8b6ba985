package member_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/apperr"
	"taskflow/internal/member"
	"taskflow/internal/service"
	"taskflow/internal/stats"
	"taskflow/internal/testutil"
)

var bob = service.User{ID: "u2", Name: "Bob", Email: "bob@example.com", Role: service.RoleMember}

type fixture struct {
	svc     *testutil.FakeService
	alerts  *testutil.FakeNotifier
	clock   *testutil.FakeClock
	changes int
	ctrl    *member.Controller
}

func newFixture(t *testing.T, tasks ...service.Task) *fixture {
	t.Helper()
	svc := testutil.NewFakeService()
	svc.AddUser(bob, "x")
	svc.Caller = bob.ID
	for _, task := range tasks {
		if task.Assignee.ID == "" {
			task.Assignee = service.UserRef{ID: bob.ID}
		}
		svc.AddTask(task)
	}
	f := &fixture{
		svc:    svc,
		alerts: testutil.NewFakeNotifier(true),
		clock:  testutil.NewFakeClock(time.Unix(0, 0)),
	}
	f.ctrl = member.New(svc, f.alerts,
		member.WithClock(f.clock),
		member.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		member.WithOnChange(func() { f.changes++ }),
	)
	t.Cleanup(f.ctrl.Close)
	return f
}

func sampleTasks() []service.Task {
	return []service.Task{
		{ID: "a", Title: "Write report", Description: "quarterly numbers", Status: service.StatusTodo, Priority: service.PriorityHigh},
		{ID: "b", Title: "Fix login", Status: service.StatusInProgress},
		{ID: "c", Title: "Review PR", Description: "Report back to Ada", Status: service.StatusDone, Priority: service.PriorityLow},
	}
}

func TestLoad_OnlyCallersTasks(t *testing.T) {
	f := newFixture(t, sampleTasks()...)
	f.svc.AddTask(service.Task{ID: "other", Title: "Not mine", Status: service.StatusTodo, Assignee: service.UserRef{ID: "u9"}})

	require.NoError(t, f.ctrl.Load(context.Background()))

	assert.Equal(t, []string{"a", "b", "c"}, testutil.SortedIDs(f.ctrl.Tasks()))
	assert.Equal(t, "Bob", f.ctrl.Tasks()[0].Assignee.Name)
	assert.False(t, f.ctrl.Loading())
	assert.Empty(t, f.ctrl.Err())
}

func TestLoad_FailureKeepsPreviousList(t *testing.T) {
	f := newFixture(t, sampleTasks()...)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Load(ctx))
	before := f.ctrl.Tasks()

	f.svc.MyTasksErr = &service.APIError{StatusCode: 500, Message: "database unavailable"}
	err := f.ctrl.Load(ctx)

	assert.True(t, apperr.Is(err, apperr.KindLoad))
	assert.Equal(t, "database unavailable", f.ctrl.Err())
	assert.Equal(t, before, f.ctrl.Tasks())

	f.svc.MyTasksErr = nil
	require.NoError(t, f.ctrl.Load(ctx))
	assert.Empty(t, f.ctrl.Err(), "successful load clears the banner")
}

func TestLoad_FirstFailureLeavesListEmpty(t *testing.T) {
	f := newFixture(t, sampleTasks()...)
	f.svc.MyTasksErr = errors.New("dial tcp: refused")

	err := f.ctrl.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Failed to load tasks", f.ctrl.Err())
	assert.Empty(t, f.ctrl.Tasks())
	assert.False(t, f.ctrl.Empty(), "no empty state before a successful load")
}

func TestFilters_Match(t *testing.T) {
	tests := []struct {
		name    string
		filters member.Filters
		want    []string
	}{
		{"no filters", member.Filters{}, []string{"a", "b", "c"}},
		{"search title case-insensitive", member.Filters{Search: "FIX"}, []string{"b"}},
		{"search description", member.Filters{Search: "report"}, []string{"a", "c"}},
		{"status", member.Filters{Status: service.StatusDone}, []string{"c"}},
		{"absent priority counts as medium", member.Filters{Priority: service.PriorityMedium}, []string{"b"}},
		{"combined", member.Filters{Search: "report", Priority: service.PriorityHigh}, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, task := range sampleTasks() {
				if tt.filters.Match(task) {
					got = append(got, task.ID)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch_DebouncedSingleEvaluation(t *testing.T) {
	f := newFixture(t, sampleTasks()...)
	require.NoError(t, f.ctrl.Load(context.Background()))

	for _, text := range []string{"f", "fi", "fix"} {
		f.ctrl.SetSearch(text)
		f.clock.Advance(50 * time.Millisecond)
	}
	assert.Len(t, f.ctrl.Filtered(), 3, "typing does not filter yet")

	f.changes = 0
	f.clock.Advance(member.DefaultSearchDelay)

	assert.Equal(t, 1, f.changes, "one evaluation once the text settles")
	assert.Equal(t, "fix", f.ctrl.Filters().Search)
	filtered := f.ctrl.Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, "b", filtered[0].ID)
}

func TestSearch_NoMatchShowsEmptyState(t *testing.T) {
	f := newFixture(t,
		service.Task{ID: "x", Title: "Plan sprint", Status: service.StatusTodo},
		service.Task{ID: "y", Title: "Call vendor", Description: "about invoices", Status: service.StatusDone},
	)
	require.NoError(t, f.ctrl.Load(context.Background()))

	f.ctrl.SetSearch("report")
	require.True(t, f.ctrl.FlushSearch())

	assert.Empty(t, f.ctrl.Filtered())
	assert.True(t, f.ctrl.Empty())
	assert.Equal(t, 2, f.ctrl.Stats(time.Now()).Total, "stats ignore filters")
}

func TestResetFilters(t *testing.T) {
	f := newFixture(t, sampleTasks()...)
	require.NoError(t, f.ctrl.Load(context.Background()))
	f.ctrl.SetStatusFilter(service.StatusDone)
	f.ctrl.SetPriorityFilter(service.PriorityLow)
	f.ctrl.SetSearch("zzz")

	f.ctrl.ResetFilters()
	f.clock.Advance(time.Second)

	assert.Equal(t, member.Filters{}, f.ctrl.Filters())
	assert.Len(t, f.ctrl.Filtered(), 3)
}

func TestSetStatus_OptimisticThenReconciled(t *testing.T) {
	f := newFixture(t, sampleTasks()...)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Load(ctx))

	var inFlight service.Status
	f.svc.BeforeUpdateTaskStatus = func(id string, _ service.Status) {
		for _, task := range f.ctrl.Tasks() {
			if task.ID == id {
				inFlight = task.Status
			}
		}
	}

	require.NoError(t, f.ctrl.SetStatus(ctx, "a", service.StatusDone))

	assert.Equal(t, service.StatusDone, inFlight, "local copy changed before the backend answered")
	got := f.ctrl.Tasks()[0]
	assert.Equal(t, service.StatusDone, got.Status)
	assert.Equal(t, service.UserRef{ID: bob.ID, Name: "Bob", Email: bob.Email}, got.Assignee, "backend representation adopted")
	assert.Empty(t, f.alerts.Alerts())
}

func TestSetStatus_ServerRepresentationWins(t *testing.T) {
	f := newFixture(t, sampleTasks()...)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Load(ctx))

	// Another client renamed the task meanwhile.
	_, err := f.svc.UpdateTask(ctx, "b", service.TaskInput{Title: ptr("Fix login flow")})
	require.NoError(t, err)

	require.NoError(t, f.ctrl.SetStatus(ctx, "b", service.StatusDone))

	got := f.ctrl.Tasks()[1]
	assert.Equal(t, "Fix login flow", got.Title)
	assert.Equal(t, service.StatusDone, got.Status)
}

func TestSetStatus_FailureRollsBackExactly(t *testing.T) {
	due := testutil.Date(2026, 1, 2)
	f := newFixture(t, append(sampleTasks(),
		service.Task{ID: "d", Title: "Due soon", Status: service.StatusTodo, DueDate: due})...)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Load(ctx))
	before := f.ctrl.Tasks()

	f.svc.UpdateTaskStatusErr = &service.APIError{StatusCode: 403, Message: "Not your task"}
	err := f.ctrl.SetStatus(ctx, "d", service.StatusDone)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindOperation))
	assert.Equal(t, before, f.ctrl.Tasks())
	assert.Equal(t, []string{"Not your task"}, f.alerts.Alerts())
}

func TestSetStatus_FailureFallbackMessage(t *testing.T) {
	f := newFixture(t, sampleTasks()...)
	ctx := context.Background()
	require.NoError(t, f.ctrl.Load(ctx))
	f.svc.UpdateTaskStatusErr = errors.New("EOF")

	_ = f.ctrl.SetStatus(ctx, "a", service.StatusInProgress)

	assert.Equal(t, []string{"Failed to update status"}, f.alerts.Alerts())
}

func TestStats_OverdueExcludesDone(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	f := newFixture(t,
		service.Task{ID: "1", Title: "Open", Status: service.StatusTodo},
		service.Task{ID: "2", Title: "Finished late", Status: service.StatusDone, DueDate: &yesterday},
	)
	require.NoError(t, f.ctrl.Load(context.Background()))
	f.ctrl.SetStatusFilter(service.StatusDone)

	assert.Equal(t, stats.Stats{Total: 2, Todo: 1, Done: 1, Overdue: 0}, f.ctrl.Stats(now))
}

func ptr[T any](v T) *T { return &v }
