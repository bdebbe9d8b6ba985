package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd creates a task.
type AddCmd struct {
	desc     string
	assignee string
	priority string
	due      string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task (admin)" }
func (c *AddCmd) Usage() string {
	return "taskflow add [--desc <text>] [--assignee <user>] [--priority <priority>] [--due <YYYY-MM-DD>] <title...>"
}
func (c *AddCmd) NeedsSession() bool { return true }
func (c *AddCmd) Guard() guard.Guard { return guard.RequireAdmin }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.desc, "desc", "", "")
	fs.StringVar(&c.assignee, "assignee", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return usageError(errOut, "title required")
	}

	in := service.TaskInput{Title: &title}
	if c.desc != "" {
		in.Description = &c.desc
	}
	if c.priority != "" {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			return usageError(errOut, "%v", err)
		}
		in.Priority = &p
	}
	if c.due != "" {
		d, err := parseDue(c.due)
		if err != nil {
			return usageError(errOut, "%v", err)
		}
		in.DueDate = &d
	}

	ctrl := newManager(ctx, env, env.Prompt)
	defer ctrl.Close()

	if err := ctrl.LoadUsers(ctx); err != nil {
		return fail(errOut, err)
	}
	assignable := ctrl.AssignableUsers()
	switch {
	case c.assignee != "":
		user, err := resolveUser(assignable, c.assignee)
		if err != nil {
			return usageError(errOut, "%v", err)
		}
		in.AssignedTo = &user.ID
	case len(assignable) > 0:
		// The form preselects the first assignable user.
		in.AssignedTo = &assignable[0].ID
	}

	ctrl.OpenCreate()
	if err := ctrl.Create(ctx, in); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", ctrl.View().Create.Err)
		return exitcode.For(err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
