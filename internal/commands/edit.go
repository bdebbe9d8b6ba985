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
	Register(&EditCmd{})
}

// EditCmd changes the fields of a task. Only the given flags are sent.
type EditCmd struct {
	title    optString
	desc     optString
	assignee optString
	priority optString
	due      optString
	noDue    bool
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Edit a task (admin)" }
func (c *EditCmd) Usage() string {
	return "taskflow edit [--title <text>] [--desc <text>] [--assignee <user>] [--priority <priority>] [--due <YYYY-MM-DD> | --no-due] <id>"
}
func (c *EditCmd) NeedsSession() bool { return true }
func (c *EditCmd) Guard() guard.Guard { return guard.RequireAdmin }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.desc, c.assignee, c.priority, c.due = optString{}, optString{}, optString{}, optString{}, optString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.desc, "desc", "")
	fs.Var(&c.assignee, "assignee", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.due, "due", "")
	fs.BoolVar(&c.noDue, "no-due", false, "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return usageError(errOut, "%v", ErrIDRequired)
	}
	if len(args) > 1 {
		return usageError(errOut, "unexpected argument: %s", args[1])
	}
	id := args[0]

	in, err := c.input()
	if err != nil {
		return usageError(errOut, "%v", err)
	}

	ctrl := newManager(ctx, env, env.Prompt)
	defer ctrl.Close()

	if c.assignee.set {
		if err := ctrl.LoadUsers(ctx); err != nil {
			return fail(errOut, err)
		}
		user, err := resolveUser(ctrl.AssignableUsers(), c.assignee.value)
		if err != nil {
			return usageError(errOut, "%v", err)
		}
		in.AssignedTo = &user.ID
	}

	ctrl.OpenEdit(id)
	if err := ctrl.Update(ctx, id, in); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", ctrl.View().Edit.Err)
		return exitcode.For(err)
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// input builds the partial update from the flags that were given.
func (c *EditCmd) input() (service.TaskInput, error) {
	var in service.TaskInput
	if c.due.set && c.noDue {
		return in, fmt.Errorf("--due and --no-due are mutually exclusive")
	}
	if !c.title.set && !c.desc.set && !c.assignee.set && !c.priority.set && !c.due.set && !c.noDue {
		return in, fmt.Errorf("nothing to change")
	}

	if c.title.set {
		title := strings.TrimSpace(c.title.value)
		if title == "" {
			return in, fmt.Errorf("title required")
		}
		in.Title = &title
	}
	in.Description = c.desc.ptr()
	if c.priority.set {
		p, err := service.ParsePriority(c.priority.value)
		if err != nil {
			return in, err
		}
		in.Priority = &p
	}
	if c.due.set {
		d, err := parseDue(c.due.value)
		if err != nil {
			return in, err
		}
		in.DueDate = &d
	}
	in.ClearDueDate = c.noDue
	return in, nil
}
