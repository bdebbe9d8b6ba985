// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"taskflow/internal/service"
	"taskflow/internal/stats"
)

// NoTasks is printed when a list has nothing to show.
const NoTasks = "no tasks found"

// DateLayout is the display format of due dates.
const DateLayout = time.DateOnly

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
}

// FormatTasks writes a task table with a header row.
// Format: ID, STATUS, PRIORITY, ASSIGNEE, DUE aligned in columns, then the title.
// Overdue due dates carry a trailing "!".
func FormatTasks(w io.Writer, tasks []service.Task, now time.Time) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tASSIGNEE\tDUE\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.EffectivePriority(), assigneeName(t.Assignee), dueDate(t, now), normalizeTitle(t.Title))
	}
	tw.Flush()
}

// FormatStats writes the summary line.
func FormatStats(w io.Writer, s stats.Stats) {
	fmt.Fprintf(w, "total %d  todo %d  in progress %d  done %d  overdue %d\n",
		s.Total, s.Todo, s.InProgress, s.Done, s.Overdue)
}

// FormatPageFooter writes the pagination footer.
func FormatPageFooter(w io.Writer, page, pages int) {
	fmt.Fprintf(w, "page %d of %d\n", page, pages)
}

// FormatUsers writes one user per line: name, email, role.
func FormatUsers(w io.Writer, users []service.User) {
	tw := newTable(w)
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.Name, u.Email, u.Role)
	}
	tw.Flush()
}

// FormatUser writes a single user line.
func FormatUser(w io.Writer, u service.User) {
	fmt.Fprintf(w, "%s <%s> (%s)\n", u.Name, u.Email, u.Role)
}

// FormatTask writes the details of one task.
func FormatTask(w io.Writer, t service.Task, now time.Time) {
	tw := newTable(w)
	fmt.Fprintf(tw, "id:\t%s\n", t.ID)
	fmt.Fprintf(tw, "title:\t%s\n", normalizeTitle(t.Title))
	if d := strings.TrimSpace(t.Description); d != "" {
		fmt.Fprintf(tw, "description:\t%s\n", singleLine(d))
	}
	fmt.Fprintf(tw, "status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "priority:\t%s\n", t.EffectivePriority())
	fmt.Fprintf(tw, "assignee:\t%s\n", assigneeName(t.Assignee))
	fmt.Fprintf(tw, "due:\t%s\n", dueDate(t, now))
	tw.Flush()
}

func assigneeName(r service.UserRef) string {
	switch {
	case r.Name != "":
		return r.Name
	case r.ID != "":
		return r.ID
	}
	return "-"
}

func dueDate(t service.Task, now time.Time) string {
	if t.DueDate == nil {
		return "-"
	}
	s := t.DueDate.Format(DateLayout)
	if t.IsOverdue(now) {
		s += " !"
	}
	return s
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = singleLine(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
