// Package stats derives summary counts from task lists.
package stats

import (
	"time"

	"taskflow/internal/service"
)

// Stats holds the summary counts shown above a task list.
type Stats struct {
	Total      int
	Todo       int
	InProgress int
	Done       int
	Overdue    int
}

// Compute counts tasks by status and overdue state relative to now.
// The result does not depend on the order of tasks.
func Compute(tasks []service.Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case service.StatusTodo:
			s.Todo++
		case service.StatusInProgress:
			s.InProgress++
		case service.StatusDone:
			s.Done++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	return s
}

// ForPage computes the stats of a loaded page. Total is the server's count of
// matching tasks; every other figure covers the loaded items only.
func ForPage(page service.TaskPage, now time.Time) Stats {
	s := Compute(page.Items, now)
	s.Total = page.Total
	return s
}
