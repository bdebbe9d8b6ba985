package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"taskflow/internal/exitcode"
	"taskflow/internal/guard"
	"taskflow/internal/mockapi"
)

const (
	// DefaultDevAddr matches the default API URL.
	DefaultDevAddr = "localhost:5000"

	// DefaultDevSecret signs the dev server's tokens.
	DefaultDevSecret = "taskflow-dev-secret"

	shutdownTimeout = 5 * time.Second
)

func init() {
	Register(&DevServerCmd{})
}

// DevServerCmd runs the in-memory API with seeded accounts until interrupted.
type DevServerCmd struct {
	addr   string
	secret string
}

func (c *DevServerCmd) Name() string       { return "devserver" }
func (c *DevServerCmd) Aliases() []string  { return nil }
func (c *DevServerCmd) Synopsis() string   { return "Run a local API with demo data" }
func (c *DevServerCmd) Usage() string      { return "taskflow devserver [--addr <host:port>] [--secret <key>]" }
func (c *DevServerCmd) NeedsSession() bool { return false }
func (c *DevServerCmd) Guard() guard.Guard { return guard.Public{} }

func (c *DevServerCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", DefaultDevAddr, "")
	fs.StringVar(&c.secret, "secret", DefaultDevSecret, "")
}

func (c *DevServerCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}
	if c.secret == "" {
		return usageError(errOut, "secret required")
	}

	api := mockapi.New([]byte(c.secret),
		mockapi.WithLogger(env.logger()),
		mockapi.WithAccessLog(errOut),
	)

	listener, err := net.Listen("tcp", c.addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: could not listen on %s: %v\n", c.addr, err)
		return exitcode.BackendError
	}

	server := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if !env.Config.Quiet {
		fmt.Fprintf(out, "listening on http://%s\n", listener.Addr())
		fmt.Fprintln(out, "accounts: admin@taskflow.dev/admin123, bob@taskflow.dev/member123, alice@taskflow.dev/member123")
	}

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.BackendError
		}
		return exitcode.Success
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(errOut, "error: shutdown: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
