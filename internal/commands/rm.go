package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd deletes a task after confirmation and shows the list page it lands on.
type RmCmd struct {
	yes  bool
	page int
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task (admin)" }
func (c *RmCmd) Usage() string      { return "taskflow rm [--yes] [--page <n>] <id>" }
func (c *RmCmd) NeedsSession() bool { return true }
func (c *RmCmd) Guard() guard.Guard { return guard.RequireAdmin }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
	fs.IntVar(&c.page, "page", 1, "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return usageError(errOut, "%v", ErrIDRequired)
	}
	if len(args) > 1 {
		return usageError(errOut, "unexpected argument: %s", args[1])
	}
	if c.page < 1 {
		return usageError(errOut, "invalid page: %d", c.page)
	}

	var prompt Prompter = env.Prompt
	if c.yes {
		prompt = assumeYes{prompt}
	}
	ctrl := newManager(ctx, env, prompt)
	defer ctrl.Close()

	// The page the task is on decides where the list goes afterwards.
	if err := ctrl.Fetch(ctx, c.page); err != nil {
		return fail(errOut, err)
	}

	removed, err := ctrl.Remove(ctx, args[0])
	if err != nil {
		return exitcode.For(err)
	}
	if !removed {
		if !env.Config.Quiet {
			fmt.Fprintln(out, "cancelled")
		}
		return exitcode.Success
	}

	renderManager(out, ctrl, env.now(), env.Config.Quiet)
	return exitcode.Success
}
