package commands

import (
	"context"
	"flag"
	"io"

	"taskflow/internal/guard"
)

func init() {
	Register(&HomeCmd{})
}

// HomeCmd opens the screen the signed-in user lands on after login.
// It runs when taskflow is called without a command.
type HomeCmd struct{}

func (c *HomeCmd) Name() string       { return "home" }
func (c *HomeCmd) Aliases() []string  { return nil }
func (c *HomeCmd) Synopsis() string   { return "Open your home screen" }
func (c *HomeCmd) Usage() string      { return "taskflow [home]" }
func (c *HomeCmd) NeedsSession() bool { return true }
func (c *HomeCmd) Guard() guard.Guard { return guard.RequireAuth{} }

func (c *HomeCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HomeCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	sess, _ := env.Session.Current()
	route := guard.HomeFor(sess.User)
	cmd, ok := DefaultRegistry.ForRoute(route)
	if !ok {
		return usageError(errOut, "no screen for %s", route)
	}

	// Run the screen with its default flags.
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	return cmd.Run(ctx, env, nil, out, errOut)
}
