package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/service"
	"taskflow/internal/session"
)

// ServiceFactory creates a Service from config.
// Authenticated calls take their bearer token from tokens.
type ServiceFactory func(ctx context.Context, cfg *config.Config, tokens oauth2.TokenSource, log *slog.Logger) (service.Service, error)

// StorageFactory opens the persisted session storage.
type StorageFactory func(cfg *config.Config) (session.Storage, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
	storage  StorageFactory
	in       io.Reader
	now      func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStorage replaces the SQLite session storage (for testing).
func WithStorage(f StorageFactory) Option {
	return func(d *Dispatcher) { d.storage = f }
}

// WithInput sets where prompts read answers from. Defaults to stdin.
func WithInput(r io.Reader) Option {
	return func(d *Dispatcher) { d.in = r }
}

// WithNow sets the clock used for overdue markers.
func WithNow(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		factory:  factory,
		storage:  sqliteStorage,
		in:       os.Stdin,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func sqliteStorage(cfg *config.Config) (session.Storage, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	return session.OpenSQLite(cfg.SessionPath())
}

// tokenSourceFunc adapts a function to oauth2.TokenSource.
type tokenSourceFunc func() (*oauth2.Token, error)

func (f tokenSourceFunc) Token() (*oauth2.Token, error) { return f() }

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> the signed-in user's home screen
	if len(args) == 0 {
		return d.dispatch(ctx, "home", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir, apiURL string
	var quiet, debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.StringVar(&apiURL, "api-url", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return flagError(errOut, err)
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	if apiURL != "" {
		cfg.APIURL = apiURL
	}

	logger := newLogger(errOut, debug)
	env := &commands.Env{
		Config: cfg,
		Prompt: commands.NewConsole(d.in, errOut),
		Logger: logger,
		Now:    d.now,
	}

	if cmd.NeedsSession() {
		storage, err := d.storage(cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: session storage: %v\n", err)
			return exitcode.AuthError
		}
		if c, ok := storage.(io.Closer); ok {
			defer c.Close()
		}

		// The backend reads the token from the store it authenticates for.
		var store *session.Store
		tokens := tokenSourceFunc(func() (*oauth2.Token, error) { return store.Token() })

		svc, err := d.factory(ctx, cfg, tokens, logger)
		if err != nil {
			fmt.Fprintf(errOut, "error: backend error: %s\n", err)
			return exitcode.BackendError
		}
		store = session.New(svc, storage, session.WithLogger(logger))
		if err := store.Restore(); err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.AuthError
		}
		env.Service = svc
		env.Session = store

		if code, ok := checkGuard(cmd.Guard(), store, errOut); !ok {
			return code
		}
	}

	logger.Debug("running command", "command", cmd.Name(), "api_url", cfg.APIURL)
	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

// checkGuard reports whether the session may run a command, printing
// where to go instead when it may not.
func checkGuard(g guard.Guard, store *session.Store, errOut io.Writer) (int, bool) {
	sess, ok := store.Current()
	decision := g.Check(sess, ok)
	if decision.Allowed {
		return exitcode.Success, true
	}
	switch decision.Redirect {
	case guard.RouteLogin:
		fmt.Fprintln(errOut, "error: not logged in (run: taskflow login)")
	default:
		fmt.Fprintln(errOut, "error: admin role required (run: taskflow my)")
	}
	return exitcode.AuthError, false
}

func flagError(errOut io.Writer, err error) int {
	errStr := err.Error()

	// Check for missing flag value
	if name, ok := strings.CutPrefix(errStr, "flag needs an argument: "); ok {
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", name)
		return exitcode.UserError
	}

	// Check for unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
	return exitcode.UserError
}

// newLogger logs to errOut at debug level with --debug and discards
// everything otherwise.
func newLogger(errOut io.Writer, debug bool) *slog.Logger {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
