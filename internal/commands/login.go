package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/output"
)

func init() {
	Register(&LoginCmd{})
	Mount(guard.RouteLogin, "login")
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Sign in" }
func (c *LoginCmd) Usage() string      { return "taskflow login [--email <email>] [--password <password>]" }
func (c *LoginCmd) NeedsSession() bool { return true }
func (c *LoginCmd) Guard() guard.Guard { return guard.Public{} }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}

	email, password := strings.TrimSpace(c.email), c.password
	var err error
	if email == "" {
		if email, err = env.Prompt.Ask("Email"); err != nil {
			return usageError(errOut, "%v", err)
		}
	}
	if password == "" {
		if password, err = env.Prompt.AskSecret("Password"); err != nil {
			return usageError(errOut, "%v", err)
		}
	}
	if email == "" || password == "" {
		return usageError(errOut, "email and password required")
	}

	user, err := env.Session.Login(ctx, email, password)
	if err != nil {
		return fail(errOut, err)
	}

	if !env.Config.Quiet {
		fmt.Fprint(out, "logged in as ")
		output.FormatUser(out, user)
		fmt.Fprintf(out, "next: %s\n", commandFor(guard.HomeFor(user)))
	}
	return exitcode.Success
}
