package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mitchellh/go-ps"

	"github.com/oshokin/minio-warden/internal/config"
	"github.com/oshokin/minio-warden/internal/logger"
)

// Spec describes the supervised server process. The managed arguments and
// environment are always derived from it; extras are appended, never
// substituted.
type Spec struct {
	// Executable is the path of the server binary.
	Executable string
	// DataDir is the storage directory handed to the server.
	DataDir string
	// ListenAddress is the address the server listens on.
	ListenAddress string
	// ConsoleAddress enables the web console on the address when non-empty.
	ConsoleAddress string
	// ExtraArgs are appended after the managed arguments.
	ExtraArgs []string
	// Credentials is the root account exported to the child environment.
	// Credentials never appear in argv.
	Credentials *config.Credentials
	// EnableUI exposes the embedded browser UI.
	EnableUI bool
}

// Policy bounds the restart behavior.
type Policy struct {
	// MaxRestarts is the crash budget within Window. One more crash stops
	// the supervisor with ErrRestartBudgetExhausted.
	MaxRestarts int
	// Window is the sliding window the crash budget applies to.
	Window time.Duration
	// BackoffInitial is the first restart delay.
	BackoffInitial time.Duration
	// BackoffMax caps the restart delay.
	BackoffMax time.Duration
	// StableUptime resets the backoff after the child stays up this long.
	StableUptime time.Duration
	// TerminationGrace is how long the child gets to exit after a
	// termination signal before it is killed.
	TerminationGrace time.Duration
}

// DefaultPolicy returns the stock restart policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxRestarts:      5,
		Window:           time.Minute,
		BackoffInitial:   500 * time.Millisecond,
		BackoffMax:       30 * time.Second,
		StableUptime:     30 * time.Second,
		TerminationGrace: 10 * time.Second,
	}
}

// State describes where the supervisor is in its lifecycle.
type State int

const (
	// StateIdle means Run has not started a child yet.
	StateIdle State = iota
	// StateRunning means a child process is alive.
	StateRunning
	// StateBackoff means the supervisor is waiting to restart a crashed child.
	StateBackoff
	// StateStopped means Run has returned.
	StateStopped
)

// String returns the lifecycle state name for logs.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateBackoff:
		return "backoff"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Status is a point-in-time snapshot of the supervisor.
type Status struct {
	// State is the lifecycle state.
	State State
	// PID is the child process id, zero when no child is alive.
	PID int
	// Starts counts how many times a child was launched.
	Starts int
	// StartedAt is when the current child was launched.
	StartedAt time.Time
}

// ErrRestartBudgetExhausted is returned when the child keeps crashing
// faster than the policy allows.
var ErrRestartBudgetExhausted = errors.New("restart budget exhausted")

const (
	// initialScanBuffer and maxScanBuffer size the child output scanner.
	// Server log lines are JSON and can grow past the scanner default.
	initialScanBuffer = 64 << 10
	maxScanBuffer     = 1 << 20
)

// Supervisor owns the server child process for its entire lifetime.
type Supervisor struct {
	spec   Spec
	policy Policy

	mu     sync.Mutex
	status Status
}

// New creates a supervisor for the spec under the policy.
func New(spec Spec, policy Policy) *Supervisor {
	return &Supervisor{
		spec:   spec,
		policy: policy,
	}
}

// Status returns a snapshot of the supervisor.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// Run supervises the server until the context is canceled or the restart
// budget is exhausted. Cancellation terminates the child, waits for it to
// be reaped and returns nil; a crashed child is restarted with exponential
// backoff and never surfaces an error to the caller while budget remains.
func (s *Supervisor) Run(ctx context.Context) error {
	s.sweepStale(ctx)

	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = s.policy.BackoffInitial
	boff.MaxInterval = s.policy.BackoffMax
	boff.MaxElapsedTime = 0
	boff.Reset()

	var crashes []time.Time

	for {
		started := time.Now()

		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			s.setState(StateStopped)

			return nil
		}

		uptime := time.Since(started)
		logger.WarnKV(ctx, "Server exited unexpectedly",
			"uptime", uptime.String(), "error", errorText(err))

		// A child that held steady earns a fresh backoff schedule.
		if uptime >= s.policy.StableUptime {
			boff.Reset()
		}

		now := time.Now()
		crashes = append(crashes, now)
		crashes = pruneWindow(crashes, now.Add(-s.policy.Window))

		if len(crashes) > s.policy.MaxRestarts {
			s.setState(StateStopped)

			return fmt.Errorf("%w: %d crashes within %s",
				ErrRestartBudgetExhausted, len(crashes), s.policy.Window)
		}

		delay := boff.NextBackOff()
		s.setState(StateBackoff)

		logger.InfoKV(ctx, "Restarting server",
			"delay", delay.String(), "recent_crashes", len(crashes))

		select {
		case <-ctx.Done():
			s.setState(StateStopped)

			return nil
		case <-time.After(delay):
		}
	}
}

// runOnce starts the child and blocks until it exits or the context is
// canceled. On cancellation the child is terminated and reaped before
// runOnce returns.
func (s *Supervisor) runOnce(ctx context.Context) error {
	cmd := exec.Command(s.spec.Executable, s.spec.args()...)
	cmd.Env = append(os.Environ(), s.spec.env()...)
	configureProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("open stderr pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	s.setRunning(cmd.Process.Pid)
	logger.InfoKV(ctx, "Server started", "pid", cmd.Process.Pid)

	var streams sync.WaitGroup

	streams.Add(2)

	go func() {
		defer streams.Done()
		s.streamOutput(ctx, "stdout", stdout)
	}()

	go func() {
		defer streams.Done()
		s.streamOutput(ctx, "stderr", stderr)
	}()

	// Drain both pipes before Wait closes them.
	exited := make(chan error, 1)

	go func() {
		streams.Wait()
		exited <- cmd.Wait()
	}()

	select {
	case err = <-exited:
		return err
	case <-ctx.Done():
		s.terminate(ctx, cmd, exited)

		return ctx.Err()
	}
}

// terminate delivers a termination signal to the child's process group,
// waits out the grace period and escalates to a kill.
func (s *Supervisor) terminate(ctx context.Context, cmd *exec.Cmd, exited <-chan error) {
	logger.InfoKV(ctx, "Stopping server", "pid", cmd.Process.Pid)

	if err := terminateProcess(cmd); err != nil {
		logger.WarnKV(ctx, "Failed to signal server", "error", err.Error())
	}

	select {
	case <-exited:
		logger.Info(ctx, "Server stopped")
	case <-time.After(s.policy.TerminationGrace):
		logger.Warn(ctx, "Server did not stop within the grace period, killing it")

		_ = killProcess(cmd)
		<-exited
	}
}

// streamOutput forwards one child stream to the logger line by line.
func (s *Supervisor) streamOutput(ctx context.Context, stream string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialScanBuffer), maxScanBuffer)

	for scanner.Scan() {
		logger.InfoKV(ctx, scanner.Text(), "stream", stream)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, fs.ErrClosed) {
		logger.WarnKV(ctx, "Server output stream failed",
			"stream", stream, "error", err.Error())
	}
}

// sweepStale kills leftover processes carrying the managed executable's
// name. A previous supervisor that died without cleanup must not leave a
// server holding the data directory.
func (s *Supervisor) sweepStale(ctx context.Context) {
	name := filepath.Base(s.spec.Executable)

	processes, err := ps.Processes()
	if err != nil {
		logger.WarnKV(ctx, "Cannot list processes for the stale sweep", "error", err.Error())

		return
	}

	self := os.Getpid()

	for _, proc := range processes {
		if proc.Pid() == self || proc.Executable() != name {
			continue
		}

		running, findErr := os.FindProcess(proc.Pid())
		if findErr != nil {
			continue
		}

		logger.WarnKV(ctx, "Killing stale server process", "pid", proc.Pid())

		_ = running.Kill()
	}
}

// args returns the managed argument list with any extras appended.
func (s *Spec) args() []string {
	args := []string{"server", s.DataDir, "--address", s.ListenAddress, "--json", "--quiet"}

	if s.ConsoleAddress != "" {
		args = append(args, "--console-address", s.ConsoleAddress)
	}

	return append(args, s.ExtraArgs...)
}

// env returns the managed environment. Credentials and the UI switch
// travel only here.
func (s *Spec) env() []string {
	browser := "off"
	if s.EnableUI {
		browser = "on"
	}

	env := []string{"MINIO_BROWSER=" + browser}

	if s.Credentials != nil {
		env = append(env,
			"MINIO_ROOT_USER="+s.Credentials.RootUser,
			"MINIO_ROOT_PASSWORD="+s.Credentials.RootPassword)
	}

	return env
}

func (s *Supervisor) setRunning(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.State = StateRunning
	s.status.PID = pid
	s.status.Starts++
	s.status.StartedAt = time.Now()
}

func (s *Supervisor) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.State = state
	if state != StateRunning {
		s.status.PID = 0
	}
}

// pruneWindow drops crash timestamps at or before the cutoff.
func pruneWindow(crashes []time.Time, cutoff time.Time) []time.Time {
	kept := crashes[:0]

	for _, ts := range crashes {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	return kept
}

// errorText renders an exit error for logging, tolerating nil.
func errorText(err error) string {
	if err == nil {
		return "exit status 0"
	}

	return err.Error()
}
