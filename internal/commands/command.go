// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"taskflow/internal/apperr"
	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/service"
	"taskflow/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsSession returns true if the command talks to the backend or the
	// session. help, version and devserver return false.
	NeedsSession() bool

	// Guard decides who may run the command. The dispatcher checks it
	// against the restored session before Run.
	Guard() guard.Guard

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// Env is what a command runs against. Service and Session are nil when
// NeedsSession returns false.
type Env struct {
	Config  *config.Config
	Service service.Service
	Session *session.Store
	Prompt  Prompter
	Logger  *slog.Logger
	Now     func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.Logger
}

// fail prints err and returns the exit code of its kind.
func fail(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %s\n", message(err))
	return exitcode.For(err)
}

// usageError prints a usage problem and returns UserError.
func usageError(errOut io.Writer, format string, args ...any) int {
	fmt.Fprintf(errOut, "error: "+format+"\n", args...)
	return exitcode.UserError
}

func message(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
