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
	Register(&StatusCmd{})
}

// StatusCmd changes the status of any task from the manager screen.
type StatusCmd struct{}

func (c *StatusCmd) Name() string       { return "status" }
func (c *StatusCmd) Aliases() []string  { return nil }
func (c *StatusCmd) Synopsis() string   { return "Set the status of a task (admin)" }
func (c *StatusCmd) Usage() string      { return "taskflow status <id> <status>" }
func (c *StatusCmd) NeedsSession() bool { return true }
func (c *StatusCmd) Guard() guard.Guard { return guard.RequireAdmin }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	id, status, err := taskIDAndStatus(args)
	if err != nil {
		return usageError(errOut, "%v", err)
	}

	ctrl := newManager(ctx, env, env.Prompt)
	defer ctrl.Close()

	// The controller alerts on failure.
	if err := ctrl.SetStatus(ctx, id, status); err != nil {
		return exitcode.For(err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
