// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All REST calls go through this interface.
// Controllers and commands never build HTTP requests directly.
type Service interface {
	// Login exchanges credentials for a token and the authenticated user.
	Login(ctx context.Context, email, password string) (Credentials, error)

	// ListUsers returns every user account.
	ListUsers(ctx context.Context) ([]User, error)

	// ListTasks returns one page of tasks matching the query.
	ListTasks(ctx context.Context, q TaskQuery) (TaskPage, error)

	// CreateTask creates a task and returns the stored representation.
	CreateTask(ctx context.Context, in TaskInput) (Task, error)

	// UpdateTask applies a partial update and returns the stored representation.
	UpdateTask(ctx context.Context, id string, in TaskInput) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error

	// MyTasks returns every task assigned to the caller, unpaginated.
	MyTasks(ctx context.Context) ([]Task, error)

	// UpdateTaskStatus changes the status of one of the caller's tasks.
	UpdateTaskStatus(ctx context.Context, id string, status Status) (Task, error)
}
