package commands_test

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/exitcode"
)

// syncBuffer is a bytes.Buffer safe for the server goroutine to write to.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDevServerCommand(t *testing.T) {
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)

	cmd := &commands.DevServerCmd{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out, errOut syncBuffer
	done := make(chan int, 1)
	go func() {
		env := &commands.Env{Config: cfg}
		done <- runWithFlags(ctx, t, cmd, env, &out, &errOut, "--addr", "127.0.0.1:0")
	}()

	var base string
	require.Eventually(t, func() bool {
		line, _, ok := strings.Cut(out.String(), "\n")
		if !ok {
			return false
		}
		base = strings.TrimPrefix(line, "listening on ")
		return true
	}, 5*time.Second, 10*time.Millisecond)
	require.True(t, strings.HasPrefix(base, "http://127.0.0.1:"), base)

	resp, err := http.Get(base + "/api/tasks/my")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, exitcode.Success, code)
	case <-time.After(5 * time.Second):
		t.Fatal("devserver did not shut down")
	}
	assert.Contains(t, errOut.String(), "GET /api/tasks/my")
}

func TestDevServerCommand_BadAddr(t *testing.T) {
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)

	var out, errOut syncBuffer
	code := runWithFlags(context.Background(), t, &commands.DevServerCmd{}, &commands.Env{Config: cfg}, &out, &errOut, "--addr", "256.0.0.1:99999")

	assert.Equal(t, exitcode.BackendError, code)
	assert.Contains(t, errOut.String(), "error: could not listen on 256.0.0.1:99999")
}
