// Package exitcode defines exit codes for the CLI.
package exitcode

import "taskflow/internal/apperr"

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, not found, rejected input).
	UserError = 1

	// AuthError indicates an auth/config error (not logged in, wrong role,
	// rejected credentials).
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// For maps an operation failure to its exit code.
func For(err error) int {
	if err == nil {
		return Success
	}
	switch apperr.KindOf(err) {
	case apperr.KindAuth:
		return AuthError
	case apperr.KindValidation:
		return UserError
	default:
		return BackendError
	}
}
