package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/fsmkit"
	"github.com/felixgeelhaar/fsmkit/internal/config"
	"github.com/felixgeelhaar/fsmkit/internal/logging"
)

const testdata = "../../internal/scenario/testdata/"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_Door(t *testing.T) {
	out, _, err := execute(t, "run", testdata+"door.yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "door: initial closed")
	assert.Contains(t, out, "ConditionNotMet")
	assert.Contains(t, out, "final closed")
}

func TestRun_FireOverride(t *testing.T) {
	out, _, err := execute(t, "run", testdata+"door.yaml", "--fire", "lock,unlock,open")
	require.NoError(t, err)
	assert.Contains(t, out, "final opened")
}

func TestRun_ExpectationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
id: bad
initial: a
states:
  - name: a
    on: [go->b]
  - name: b
fire: [go]
expect:
  state: a
`), 0o600))

	_, _, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expectation failed")
}

func TestRun_MaxDepthFlag(t *testing.T) {
	_, _, err := execute(t, "--max-depth", "2", "run", testdata+"device.yaml")
	require.ErrorAs(t, err, new(*fsmkit.RecursionError))
}

func TestRun_CycleHitsDefaultDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
id: cycle
initial: a
states:
  - name: a
    on: [spin->a/fire(spin)]
fire: [spin]
`), 0o600))

	_, _, err := execute(t, "run", path)
	var rerr *fsmkit.RecursionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 65, rerr.Depth)
	assert.Contains(t, err.Error(), "cycle: ")
}

func TestRun_DebugLogging(t *testing.T) {
	_, stderr, err := execute(t, "--log-level", "debug", "run", testdata+"device.yaml")
	require.NoError(t, err)
	assert.Contains(t, stderr, "machine=device")
	assert.Contains(t, stderr, "trigger=ready")
}

func TestRun_InvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "--log-level", "loud", "run", testdata+"door.yaml")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, _, err := execute(t, "validate", testdata+"door.yaml")
	require.NoError(t, err)
	assert.Equal(t, "door: ok\n", out)

	out, _, err = execute(t, "validate", testdata+"shadowed.yaml")
	require.Error(t, err)
	assert.Contains(t, out, "SHADOWED_TRANSITION")

	_, _, err = execute(t, "validate", testdata+"broken.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explode")
}

func TestValidate_MissingArg(t *testing.T) {
	_, _, err := execute(t, "validate")
	require.Error(t, err)
}

func TestServe_Shutdown(t *testing.T) {
	a := &app{
		cfg:    config.Config{Addr: "127.0.0.1:0"},
		logger: logging.NewNop(),
	}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, a, http.NotFoundHandler()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
