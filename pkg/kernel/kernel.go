// Package kernel launches and tears down the interactive IPython process that
// backs the console. A Session is one running process together with the
// channel used to talk to it; a Manager keeps at most one Session alive.
package kernel

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Sentinel errors for error classification.
var (
	// ErrNotRunning is returned when a command is sent without a live session.
	ErrNotRunning = errors.New("kernel is not running")

	// ErrLaunchFailed wraps the failures of both launch strategies.
	ErrLaunchFailed = errors.New("kernel launch failed")

	// ErrStarting is returned when a launch is requested while another is in progress.
	ErrStarting = errors.New("kernel is already starting")
)

// DefaultStartupGrace is how long a freshly started kernel must stay alive to count as started
const DefaultStartupGrace = 500 * time.Millisecond

// Strategy describes one way of launching the kernel process.
type Strategy struct {
	// Name is shown in the console banner and in error messages.
	Name string

	Command string
	Args    []string

	// PTY runs the process on a pseudo-terminal. Platforms without pty
	// support fall back to plain pipes with PipeArgs appended.
	PTY      bool
	PipeArgs []string
}

func (s Strategy) String() string {
	return strings.TrimSpace(s.Command + " " + strings.Join(s.Args, " "))
}

// Config controls how a Manager launches sessions.
type Config struct {
	Primary  Strategy
	Fallback Strategy

	// StartupGrace is the window in which an exiting process counts as a failed launch.
	StartupGrace time.Duration

	Dir string
	Env []string
}

// DefaultPython returns the interpreter name usually found on PATH for this platform
func DefaultPython() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

// DefaultConfig launches the ipython script first and falls back to running
// IPython as a module of the given interpreter.
func DefaultConfig(python string, extraArgs []string) Config {
	if python == "" {
		python = DefaultPython()
	}
	args := append([]string{"--colors=Linux"}, extraArgs...)
	pipeArgs := []string{"--simple-prompt"}

	return Config{
		Primary: Strategy{
			Name:     "ipython",
			Command:  "ipython",
			Args:     args,
			PTY:      true,
			PipeArgs: pipeArgs,
		},
		Fallback: Strategy{
			Name:     python + " -m IPython",
			Command:  python,
			Args:     append([]string{"-m", "IPython"}, args...),
			PTY:      true,
			PipeArgs: pipeArgs,
		},
		StartupGrace: DefaultStartupGrace,
	}
}

// RunFileCommand builds the magic that executes path inside the kernel's
// current namespace, keeping every variable defined so far.
func RunFileCommand(path string) string {
	escaped := strings.ReplaceAll(path, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return fmt.Sprintf(`%%run -i "%s"`, escaped)
}
