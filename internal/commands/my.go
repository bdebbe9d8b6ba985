package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/member"
	"taskflow/internal/output"
	"taskflow/internal/service"
)

func init() {
	Register(&MyCmd{})
	Mount(guard.RouteMyTasks, "my")
}

// MyCmd lists the caller's tasks, the member screen.
type MyCmd struct {
	search   string
	status   string
	priority string
}

func (c *MyCmd) Name() string      { return "my" }
func (c *MyCmd) Aliases() []string { return []string{"mine"} }
func (c *MyCmd) Synopsis() string  { return "List your tasks" }
func (c *MyCmd) Usage() string {
	return "taskflow my [--search <text>] [--status <status>] [--priority <priority>]"
}
func (c *MyCmd) NeedsSession() bool { return true }
func (c *MyCmd) Guard() guard.Guard { return guard.RequireAuth{} }

func (c *MyCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.search, "search", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
}

func (c *MyCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	status, err := parseStatusArg(c.status)
	if err != nil {
		return usageError(errOut, "%v", err)
	}
	priority, err := service.ParsePriority(c.priority)
	if err != nil {
		return usageError(errOut, "%v", err)
	}

	ctrl := newMember(env)
	defer ctrl.Close()

	ctrl.Preset(member.Filters{Search: c.search, Status: status, Priority: priority})
	if err := ctrl.Load(ctx); err != nil {
		return fail(errOut, err)
	}
	renderMember(out, ctrl, env.now(), env.Config.Quiet)
	return exitcode.Success
}

// newMember builds the member controller from the configuration.
func newMember(env *Env) *member.Controller {
	return member.New(env.Service, env.Prompt,
		member.WithSearchDelay(env.Config.MemberSearchDebounce),
		member.WithLogger(env.logger()),
	)
}

// renderMember prints the matching tasks, then the stats of the whole list.
func renderMember(out io.Writer, ctrl *member.Controller, now time.Time, quiet bool) {
	if ctrl.Empty() {
		if !quiet {
			fmt.Fprintln(out, output.NoTasks)
		}
	} else {
		output.FormatTasks(out, ctrl.Filtered(), now)
	}
	if !quiet {
		output.FormatStats(out, ctrl.Stats(now))
	}
}
