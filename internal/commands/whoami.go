package commands

import (
	"context"
	"flag"
	"io"

	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd prints the signed-in user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string       { return "whoami" }
func (c *WhoamiCmd) Aliases() []string  { return nil }
func (c *WhoamiCmd) Synopsis() string   { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string      { return "taskflow whoami" }
func (c *WhoamiCmd) NeedsSession() bool { return true }
func (c *WhoamiCmd) Guard() guard.Guard { return guard.RequireAuth{} }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	sess, _ := env.Session.Current()
	output.FormatUser(out, sess.User)
	return exitcode.Success
}
