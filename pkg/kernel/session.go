package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
)

const stopTimeout = 2 * time.Second

// Session is a running kernel process and its client channel
type Session struct {
	strategy Strategy

	cmd    *exec.Cmd
	tty    *os.File // nil when running on pipes
	stdin  io.WriteCloser
	stdout io.ReadCloser

	lineEnding string

	mu       sync.Mutex
	running  bool
	exitErr  error
	exited   chan struct{}
	stopOnce sync.Once
}

// startSession launches strategy and waits out the startup grace period
func startSession(ctx context.Context, strategy Strategy, cfg Config) (*Session, error) {
	if strategy.Command == "" {
		return nil, fmt.Errorf("no command configured")
	}

	s := &Session{strategy: strategy, exited: make(chan struct{})}

	var err error
	if strategy.PTY {
		err = s.startPTY(cfg)
		if errors.Is(err, pty.ErrUnsupported) {
			log.Printf("Pseudo-terminals unsupported, starting %s on pipes", strategy.Name)
			err = s.startPipes(cfg)
		}
	} else {
		err = s.startPipes(cfg)
	}
	if err != nil {
		return nil, err
	}

	s.running = true
	go s.wait()

	grace := cfg.StartupGrace
	if grace <= 0 {
		grace = DefaultStartupGrace
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-s.exited:
		s.Stop()
		return nil, fmt.Errorf("process exited during startup: %v", s.ExitErr())
	case <-ctx.Done():
		s.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}

	return s, nil
}

func (s *Session) command(cfg Config, pipes bool) *exec.Cmd {
	args := append([]string{}, s.strategy.Args...)
	if pipes {
		args = append(args, s.strategy.PipeArgs...)
	}
	cmd := exec.Command(s.strategy.Command, args...)
	cmd.Dir = cfg.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, cfg.Env...)
	return cmd
}

func (s *Session) startPTY(cfg Config) error {
	cmd := s.command(cfg, false)
	tty, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", s.strategy, err)
	}

	s.cmd = cmd
	s.tty = tty
	s.stdin = tty
	s.stdout = tty
	s.lineEnding = "\r"
	return nil
}

func (s *Session) startPipes(cfg Config) error {
	cmd := s.command(cfg, true)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}

	// A real OS pipe keeps cmd.Wait free of copy goroutines, so an early
	// exit is noticed even when nobody reads the output yet.
	reader, writer, err := os.Pipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("failed to create output pipe: %w", err)
	}
	cmd.Stdout = writer
	cmd.Stderr = writer

	if err := cmd.Start(); err != nil {
		reader.Close()
		writer.Close()
		return fmt.Errorf("failed to start %s: %w", s.strategy, err)
	}
	writer.Close()

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = reader
	s.lineEnding = "\n"
	return nil
}

func (s *Session) wait() {
	err := s.cmd.Wait()

	s.mu.Lock()
	s.running = false
	s.exitErr = err
	s.mu.Unlock()

	close(s.exited)
}

// Name returns the launch strategy name
func (s *Session) Name() string {
	return s.strategy.Name
}

// PID returns the kernel process id
func (s *Session) PID() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Running reports whether the process is alive and not stopped
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Done is closed once the kernel process has exited
func (s *Session) Done() <-chan struct{} {
	return s.exited
}

// ExitErr returns the process exit error once Done is closed
func (s *Session) ExitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitErr
}

// Input is where console keystrokes go. Closing it is a no-op: the channel
// is owned by the session and released in Stop.
func (s *Session) Input() io.WriteCloser {
	return nopCloser{s.stdin}
}

// Output streams everything the kernel prints
func (s *Session) Output() io.Reader {
	return s.stdout
}

// Execute sends one line of code to the kernel as if typed and submitted
func (s *Session) Execute(line string) error {
	if !s.Running() {
		return ErrNotRunning
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.stdin, line+s.lineEnding); err != nil {
		return fmt.Errorf("failed to send to kernel: %w", err)
	}
	return nil
}

// Resize propagates the console size to the pseudo-terminal
func (s *Session) Resize(rows, cols uint) error {
	if s.tty == nil {
		return nil
	}
	return pty.Setsize(s.tty, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Stop closes the client channel, then kills the process. Each step is
// attempted independently and failures are only logged.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		bestEffort("close kernel channel", s.closeChannel)
		bestEffort("shut down kernel", s.kill)
	})
}

func (s *Session) closeChannel() error {
	if s.tty != nil {
		return s.tty.Close()
	}
	return errors.Join(s.stdin.Close(), s.stdout.Close())
}

func (s *Session) kill() error {
	select {
	case <-s.exited:
		return nil
	default:
	}

	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}

	select {
	case <-s.exited:
		return nil
	case <-time.After(stopTimeout):
		return fmt.Errorf("process %d did not exit within %s", s.PID(), stopTimeout)
	}
}

func bestEffort(step string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Kernel teardown: %s panicked: %v", step, r)
		}
	}()
	if err := fn(); err != nil {
		log.Printf("Kernel teardown: %s failed: %v", step, err)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
