package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/output"
)

func init() {
	Register(&UsersCmd{})
}

// UsersCmd lists the users tasks can be assigned to.
type UsersCmd struct{}

func (c *UsersCmd) Name() string       { return "users" }
func (c *UsersCmd) Aliases() []string  { return nil }
func (c *UsersCmd) Synopsis() string   { return "List assignable users (admin)" }
func (c *UsersCmd) Usage() string      { return "taskflow users" }
func (c *UsersCmd) NeedsSession() bool { return true }
func (c *UsersCmd) Guard() guard.Guard { return guard.RequireAdmin }

func (c *UsersCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UsersCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ctrl := newManager(ctx, env, env.Prompt)
	defer ctrl.Close()

	if err := ctrl.LoadUsers(ctx); err != nil {
		return fail(errOut, err)
	}
	users := ctrl.AssignableUsers()
	if len(users) == 0 {
		if !env.Config.Quiet {
			fmt.Fprintln(out, "no users found")
		}
		return exitcode.Success
	}
	output.FormatUsers(out, users)
	return exitcode.Success
}
