package process

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestRunner_Run(t *testing.T) {
	skipOnWindows(t)

	runner := NewRunner()
	runner.Register("hello", "sh", "-c", "echo hello")

	t.Run("Executes Registered Command", func(t *testing.T) {
		out, err := runner.Run(context.Background(), "hello", nil)
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := runner.Run(context.Background(), "hacker_script", nil)
		assert.ErrorIs(t, err, ErrNotRegistered)
	})

	t.Run("Passes Values via Env Vars", func(t *testing.T) {
		runner.Register("echo_env", "sh", "-c", "echo $NAVGRAPH_MSG")
		out, err := runner.Run(context.Background(), "echo_env", map[string]string{"msg": "SecretMessage"})
		require.NoError(t, err)
		assert.Equal(t, "SecretMessage", out)
	})

	t.Run("Reports Stderr On Failure", func(t *testing.T) {
		runner.Register("broken", "sh", "-c", "echo boom >&2; exit 3")
		_, err := runner.Run(context.Background(), "broken", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})
}

func TestRunner_Timeout(t *testing.T) {
	skipOnWindows(t)

	runner := NewRunner(WithRegistry(map[string]CommandConfig{
		"slow": {Command: "sleep", Args: []string{"5"}, Timeout: 100 * time.Millisecond},
	}))

	start := time.Now()
	_, err := runner.Run(context.Background(), "slow", nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestRunner_Recoverer(t *testing.T) {
	skipOnWindows(t)

	marker := filepath.Join(t.TempDir(), "cause")
	runner := NewRunner()
	runner.Register("refresh", "sh", "-c", `printf %s "$NAVGRAPH_CAUSE" > "`+marker+`"`)

	err := runner.Recoverer("refresh").Recover(context.Background(), errors.New("stale element"))
	require.NoError(t, err)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "stale element", string(data))
}

func TestRunner_BaseState(t *testing.T) {
	skipOnWindows(t)

	runner := NewRunner(WithBaseDir(t.TempDir()))
	runner.Register("login", "sh", "-c", "touch logged-in")

	require.NoError(t, runner.BaseState("login").EnsureBase(context.Background()))
	_, err := os.Stat(filepath.Join(runner.baseDir, "logged-in"))
	assert.NoError(t, err)

	assert.ErrorIs(t, runner.BaseState("missing").EnsureBase(context.Background()), ErrNotRegistered)
}

func TestLoadCommands(t *testing.T) {
	dir := t.TempDir()

	yml := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(yml, []byte(`
commands:
  - name: refresh
    command: ./refresh.sh
    args: [--hard]
    timeout: 30s
  - name: nameless
`), 0o644))

	cmds, err := LoadCommands(yml)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"--hard"}, cmds["refresh"].Args)
	assert.Equal(t, 30*time.Second, cmds["refresh"].Timeout)

	js := filepath.Join(dir, "commands.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"commands":[{"name":"login","command":"login.sh"}]}`), 0o644))
	cmds, err = LoadCommands(js)
	require.NoError(t, err)
	assert.Equal(t, "login.sh", cmds["login"].Command)

	cmds, err = LoadCommands(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cmds)
}
