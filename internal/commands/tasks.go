package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/manager"
	"taskflow/internal/output"
	"taskflow/internal/service"
)

func init() {
	Register(&TasksCmd{})
	Mount(guard.RouteAdmin, "tasks")
}

// TasksCmd lists every task, the manager screen.
type TasksCmd struct {
	search   string
	status   string
	priority string
	assignee string
	page     int
}

// SetPage sets the page number (for testing).
func (c *TasksCmd) SetPage(page int) {
	c.page = page
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"ls"} }
func (c *TasksCmd) Synopsis() string  { return "List all tasks (admin)" }
func (c *TasksCmd) Usage() string {
	return "taskflow tasks [--search <text>] [--status <status>] [--priority <priority>] [--assignee <user>] [--page <n>]"
}
func (c *TasksCmd) NeedsSession() bool { return true }
func (c *TasksCmd) Guard() guard.Guard { return guard.RequireAdmin }

func (c *TasksCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.assignee, "assignee", "", "")
	fs.IntVar(&c.page, "page", 1, "")
}

func (c *TasksCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	if c.page < 1 {
		return usageError(errOut, "invalid page: %d", c.page)
	}
	status, err := parseStatusArg(c.status)
	if err != nil {
		return usageError(errOut, "%v", err)
	}
	priority, err := service.ParsePriority(c.priority)
	if err != nil {
		return usageError(errOut, "%v", err)
	}

	ctrl := newManager(ctx, env, env.Prompt)
	defer ctrl.Close()

	filters := manager.Filters{Search: strings.TrimSpace(c.search), Status: status, Priority: priority}
	if c.assignee != "" {
		if err := ctrl.LoadUsers(ctx); err != nil {
			return fail(errOut, err)
		}
		user, err := resolveUser(ctrl.Users(), c.assignee)
		if err != nil {
			return usageError(errOut, "%v", err)
		}
		filters.Assignee = user.ID
	}
	ctrl.Preset(filters)

	if err := ctrl.Fetch(ctx, c.page); err != nil {
		return fail(errOut, err)
	}
	renderManager(out, ctrl, env.now(), env.Config.Quiet)
	return exitcode.Success
}

// newManager builds the manager controller from the configuration.
func newManager(ctx context.Context, env *Env, notifier manager.Notifier) *manager.Controller {
	cfg := env.Config
	return manager.New(ctx, env.Service, notifier,
		manager.WithPageSize(cfg.PageSize),
		manager.WithCapLimit(cfg.FilteredLimit),
		manager.WithSearchDelay(cfg.SearchDebounce),
		manager.WithLogger(env.logger()),
	)
}

// renderManager prints the loaded page, then the stats and the page footer.
func renderManager(out io.Writer, ctrl *manager.Controller, now time.Time, quiet bool) {
	view := ctrl.View()
	if len(view.Items) == 0 {
		if !quiet {
			fmt.Fprintln(out, output.NoTasks)
		}
	} else {
		output.FormatTasks(out, view.Items, now)
	}
	if quiet {
		return
	}
	output.FormatStats(out, ctrl.Stats(now))
	if view.ShowPagination {
		output.FormatPageFooter(out, view.Page, view.Pages)
	}
}
