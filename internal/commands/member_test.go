package commands_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/commands"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
)

// memberHarness signs in as Bob, who owns t01 (Todo), t03 (Done) and
// t05 (In Progress).
func memberHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.seedTasks(6)
	h.loginAs(t, bob)
	return h
}

func TestMyCommand(t *testing.T) {
	h := memberHarness(t)

	stdout, stderr, code := h.run(t, &commands.MyCmd{}, "")

	require.Equal(t, exitcode.Success, code, stderr)
	for _, id := range []string{"t01", "t03", "t05"} {
		assert.Contains(t, stdout, id)
	}
	assert.NotContains(t, stdout, "t02")
	assert.Contains(t, stdout, "total 3  todo 1  in progress 1  done 1  overdue 0\n")
}

func TestMyCommand_Filters(t *testing.T) {
	h := memberHarness(t)

	stdout, _, code := h.run(t, &commands.MyCmd{}, "", "--status", "in-progress")

	require.Equal(t, exitcode.Success, code)
	assert.Contains(t, stdout, "t05")
	assert.NotContains(t, stdout, "t01")
	// Stats cover the whole list.
	assert.Contains(t, stdout, "total 3  ")
}

func TestMyCommand_NoMatch(t *testing.T) {
	h := memberHarness(t)

	stdout, _, code := h.run(t, &commands.MyCmd{}, "", "--search", "report")

	require.Equal(t, exitcode.Success, code)
	assert.Equal(t, "no tasks found\ntotal 3  todo 1  in progress 1  done 1  overdue 0\n", stdout)
}

func TestMyCommand_LoadFailure(t *testing.T) {
	h := memberHarness(t)
	h.svc.MyTasksErr = errors.New("connection refused")

	stdout, stderr, code := h.run(t, &commands.MyCmd{}, "")

	assert.Equal(t, exitcode.BackendError, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "error: Failed to load tasks\n", stderr)
}

func TestMoveCommand(t *testing.T) {
	h := memberHarness(t)

	stdout, stderr, code := h.run(t, &commands.MoveCmd{}, "", "t01", "done")

	require.Equal(t, exitcode.Success, code, stderr)
	assert.Equal(t, service.StatusDone, findTask(t, h, "t01").Status)
	assert.Contains(t, stdout, "t01")
	assert.Contains(t, stdout, "Done")
}

func TestMoveCommand_NotMine(t *testing.T) {
	h := memberHarness(t)

	_, stderr, code := h.run(t, &commands.MoveCmd{}, "", "t02", "done")

	assert.Equal(t, exitcode.UserError, code)
	assert.Equal(t, "error: task not found: t02\n", stderr)
	assert.Equal(t, service.StatusInProgress, findTask(t, h, "t02").Status)
}

func TestMoveCommand_RolledBack(t *testing.T) {
	h := memberHarness(t)
	h.svc.UpdateTaskStatusErr = &service.APIError{StatusCode: 403, Message: "Not authorized to update this task"}

	stdout, stderr, code := h.run(t, &commands.MoveCmd{}, "", "t01", "done")

	assert.Equal(t, exitcode.BackendError, code)
	assert.Empty(t, stdout)
	assert.Equal(t, "error: Not authorized to update this task\n", stderr)
	assert.Equal(t, service.StatusTodo, findTask(t, h, "t01").Status)
}
