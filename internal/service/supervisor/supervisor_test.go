package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/logger"
)

func TestSpecArgs(t *testing.T) {
	t.Parallel()

	spec := &Spec{
		Executable:    "/opt/warden/bin/minio",
		DataDir:       "/srv/data",
		ListenAddress: ":9000",
	}

	require.Equal(t,
		[]string{"server", "/srv/data", "--address", ":9000", "--json", "--quiet"},
		spec.args())

	spec.ConsoleAddress = ":9001"
	require.Equal(t,
		[]string{"server", "/srv/data", "--address", ":9000", "--json", "--quiet",
			"--console-address", ":9001"},
		spec.args())

	// Extras are appended after the managed arguments, never in place of them.
	spec.ExtraArgs = []string{"--anonymous"}
	require.Equal(t,
		[]string{"server", "/srv/data", "--address", ":9000", "--json", "--quiet",
			"--console-address", ":9001", "--anonymous"},
		spec.args())
}

func TestSpecEnv(t *testing.T) {
	t.Parallel()

	spec := &Spec{}
	require.Equal(t, []string{"MINIO_BROWSER=off"}, spec.env())

	spec.EnableUI = true
	spec.Credentials = &config.Credentials{
		RootUser:     "warden",
		RootPassword: "secret",
	}

	env := spec.env()
	require.Equal(t, []string{
		"MINIO_BROWSER=on",
		"MINIO_ROOT_USER=warden",
		"MINIO_ROOT_PASSWORD=secret",
	}, env)

	// Credentials must never leak into argv.
	for _, arg := range spec.args() {
		require.NotContains(t, arg, "secret")
	}
}

func TestPruneWindow(t *testing.T) {
	t.Parallel()

	now := time.Now()
	crashes := []time.Time{
		now.Add(-90 * time.Second),
		now.Add(-30 * time.Second),
		now.Add(-5 * time.Second),
	}

	kept := pruneWindow(crashes, now.Add(-time.Minute))
	require.Equal(t, []time.Time{
		now.Add(-30 * time.Second),
		now.Add(-5 * time.Second),
	}, kept)
}

func TestStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "running", StateRunning.String())
	require.Equal(t, "backoff", StateBackoff.String())
	require.Equal(t, "stopped", StateStopped.String())
}

// writeScript drops an executable shell script with the given name into a
// temp dir. The name doubles as the process name, so it must be unique per
// test and short enough for the kernel's comm field.
func writeScript(t *testing.T, name, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))

	return path
}

func fastPolicy() Policy {
	return Policy{
		MaxRestarts:      2,
		Window:           time.Minute,
		BackoffInitial:   10 * time.Millisecond,
		BackoffMax:       20 * time.Millisecond,
		StableUptime:     time.Hour,
		TerminationGrace: 2 * time.Second,
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	script := writeScript(t, "mwfs-cancel", "sleep 30\nexit 0\n")

	sup := New(Spec{
		Executable:    script,
		DataDir:       t.TempDir(),
		ListenAddress: "127.0.0.1:0",
	}, fastPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sup.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		status := sup.Status()

		return status.State == StateRunning && status.PID > 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "cancellation is a clean shutdown, not an error")
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}

	status := sup.Status()
	require.Equal(t, StateStopped, status.State)
	require.Equal(t, 1, status.Starts)
	require.Zero(t, status.PID)
}

// TestRunRestartsOnCrash drives a child that always exits nonzero and
// expects one restart per crash until the budget runs out.
func TestRunRestartsOnCrash(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "starts.log")
	script := writeScript(t, "mwfs-crash",
		fmt.Sprintf("echo start >> '%s'\nexit 1\n", marker))

	sup := New(Spec{
		Executable:    script,
		DataDir:       t.TempDir(),
		ListenAddress: "127.0.0.1:0",
	}, fastPolicy())

	err := sup.Run(context.Background())
	require.ErrorIs(t, err, ErrRestartBudgetExhausted)

	data, readErr := os.ReadFile(marker)
	require.NoError(t, readErr)

	// MaxRestarts of 2 allows two restarts after the initial start; the
	// third crash within the window stops the supervisor.
	require.Equal(t, 3, strings.Count(string(data), "start"))
	require.Equal(t, 3, sup.Status().Starts)
	require.Equal(t, StateStopped, sup.Status().State)
}

func TestRunCancelDuringBackoff(t *testing.T) {
	script := writeScript(t, "mwfs-backoff", "exit 1\n")

	policy := fastPolicy()
	policy.MaxRestarts = 5
	policy.BackoffInitial = 5 * time.Second
	policy.BackoffMax = 10 * time.Second

	sup := New(Spec{
		Executable:    script,
		DataDir:       t.TempDir(),
		ListenAddress: "127.0.0.1:0",
	}, policy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sup.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return sup.Status().State == StateBackoff
	}, 5*time.Second, 10*time.Millisecond)

	started := time.Now()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
		require.Less(t, time.Since(started), 3*time.Second,
			"cancellation must not wait out the backoff delay")
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop during backoff")
	}
}

func TestRunStreamsChildOutput(t *testing.T) {
	script := writeScript(t, "mwfs-stream",
		"echo hello from the server\nsleep 30\nexit 0\n")

	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := context.WithCancel(
		logger.ToContext(context.Background(), zap.New(core).Sugar()))
	defer cancel()

	sup := New(Spec{
		Executable:    script,
		DataDir:       t.TempDir(),
		ListenAddress: "127.0.0.1:0",
	}, fastPolicy())

	done := make(chan error, 1)
	go func() {
		done <- sup.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("hello from the server").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)

	entry := logs.FilterMessage("hello from the server").All()[0]
	require.Equal(t, "stdout", entry.ContextMap()["stream"])

	cancel()
	require.NoError(t, <-done)
}

// TestRunSweepsStaleProcesses leaves a process with the managed
// executable's name running and expects the supervisor to kill it before
// starting its own child.
func TestRunSweepsStaleProcesses(t *testing.T) {
	script := writeScript(t, "mwfs-sweep", "sleep 30\nexit 0\n")

	victim := exec.Command(script)
	require.NoError(t, victim.Start())

	reaped := make(chan error, 1)
	go func() {
		reaped <- victim.Wait()
	}()

	sup := New(Spec{
		Executable:    script,
		DataDir:       t.TempDir(),
		ListenAddress: "127.0.0.1:0",
	}, fastPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sup.Run(ctx)
	}()

	select {
	case err := <-reaped:
		require.Error(t, err, "the stale process is killed, not waited out")
	case <-time.After(5 * time.Second):
		t.Fatal("stale process was not swept")
	}

	cancel()
	require.NoError(t, <-done)
}
