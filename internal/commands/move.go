package commands

import (
	"context"
	"flag"
	"io"

	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/output"
	"taskflow/internal/service"
)

func init() {
	Register(&MoveCmd{})
}

// MoveCmd moves one of the caller's tasks to another status.
type MoveCmd struct{}

func (c *MoveCmd) Name() string       { return "move" }
func (c *MoveCmd) Aliases() []string  { return []string{"mv"} }
func (c *MoveCmd) Synopsis() string   { return "Set the status of one of your tasks" }
func (c *MoveCmd) Usage() string      { return "taskflow move <id> <status>" }
func (c *MoveCmd) NeedsSession() bool { return true }
func (c *MoveCmd) Guard() guard.Guard { return guard.RequireAuth{} }

func (c *MoveCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MoveCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	id, status, err := taskIDAndStatus(args)
	if err != nil {
		return usageError(errOut, "%v", err)
	}

	ctrl := newMember(env)
	defer ctrl.Close()

	if err := ctrl.Load(ctx); err != nil {
		return fail(errOut, err)
	}
	found := false
	for _, t := range ctrl.Tasks() {
		if t.ID == id {
			found = true
			break
		}
	}
	if !found {
		return usageError(errOut, "task not found: %s", id)
	}

	// The controller alerts and rolls back on failure.
	if err := ctrl.SetStatus(ctx, id, status); err != nil {
		return exitcode.For(err)
	}

	if !env.Config.Quiet {
		for _, t := range ctrl.Tasks() {
			if t.ID == id {
				output.FormatTasks(out, []service.Task{t}, env.now())
			}
		}
	}
	return exitcode.Success
}
