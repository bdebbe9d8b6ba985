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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "taskflow help" }
func (c *HelpCmd) NeedsSession() bool { return false }
func (c *HelpCmd) Guard() guard.Guard { return guard.Public{} }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskflow                                           Open your home screen
  taskflow login [--email <email>] [--password <password>]
  taskflow logout
  taskflow whoami

Managers:
  taskflow tasks [--search <text>] [--status <status>] [--priority <priority>]
                 [--assignee <user>] [--page <n>]
  taskflow add [--desc <text>] [--assignee <user>] [--priority <priority>]
               [--due <YYYY-MM-DD>] <title...>
  taskflow edit [--title <text>] [--desc <text>] [--assignee <user>]
                [--priority <priority>] [--due <YYYY-MM-DD> | --no-due] <id>
  taskflow status <id> <status>
  taskflow rm [--yes] [--page <n>] <id>
  taskflow users

Members:
  taskflow my [--search <text>] [--status <status>] [--priority <priority>]
  taskflow move <id> <status>

Other:
  taskflow devserver [--addr <host:port>] [--secret <key>]
  taskflow help
  taskflow version

Statuses: todo, in-progress, done. Priorities: low, medium, high.

Common flags:
  --config <dir>     Override config directory
  --api-url <url>    Override the API base URL
  --quiet            Suppress informational output
  --debug            Print debug logs to stderr
`
