// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"strings"
	"time"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// ParseStatus accepts the canonical names case-insensitively, plus the
// hyphenated and squashed spellings of "In Progress".
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to do":
		return StatusTodo, nil
	case "in progress", "in-progress", "inprogress", "progress":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// Priority is the urgency of a task. The zero value means absent.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every valid priority in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority accepts the canonical names case-insensitively.
// An empty string yields the zero Priority.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("invalid priority: %s", s)
}

// Role is the access level of a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User is an account known to the backend.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsAdmin reports whether the user has the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserRef is the assignee of a task. Name and Email are only set when the
// backend populated the reference.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// Task represents a single task item.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Assignee    UserRef
	DueDate     *time.Time
}

// EffectivePriority returns the priority, defaulting to Medium when absent.
func (t Task) EffectivePriority() Priority {
	if t.Priority == "" {
		return PriorityMedium
	}
	return t.Priority
}

// IsOverdue reports whether the due date lies strictly before now and the
// task is not done.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusDone
}

// Credentials is the result of a successful login.
type Credentials struct {
	Token string
	User  User
}

// TaskPage is one page of the manager task listing.
type TaskPage struct {
	Items []Task
	Page  int
	Pages int
	Total int
	Limit int
}

// TaskQuery holds the server-side filters and pagination of a listing.
// Empty filter fields mean "All".
type TaskQuery struct {
	Search     string
	Status     Status
	Priority   Priority
	AssignedTo string
	Page       int
	Limit      int
}

// TaskInput is a task payload. Nil fields are left out of the request,
// which makes it usable both for creation and for partial updates.
type TaskInput struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	AssignedTo  *string
	DueDate     *time.Time

	// ClearDueDate sends an explicit null due date. Ignored when DueDate is set.
	ClearDueDate bool
}

// APIError is a rejection reported by the backend.
type APIError struct {
	StatusCode int

	// Message is the backend's user-facing message, possibly empty.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}
