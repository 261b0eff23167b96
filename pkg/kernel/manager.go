package kernel

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Manager owns the single live kernel session of a window. The mutex only
// guards bookkeeping; launches run without it so Execute and Shutdown never
// wait for a kernel to come up.
type Manager struct {
	cfg Config

	mu       sync.Mutex
	current  *Session
	starting bool
	// generation is bumped by Restart and Shutdown so a launch that was
	// overtaken by either discards its session.
	generation uint64
}

// NewManager creates a manager; no process is started until Start
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Start launches a session unless one is already live
func (m *Manager) Start(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.current != nil && m.current.Running() {
		session := m.current
		m.mu.Unlock()
		return session, nil
	}
	if m.starting {
		m.mu.Unlock()
		return nil, ErrStarting
	}
	m.starting = true
	m.current = nil
	generation := m.generation
	m.mu.Unlock()

	return m.finish(ctx, generation)
}

// Restart stops the current session and launches a new one
func (m *Manager) Restart(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.starting {
		m.mu.Unlock()
		return nil, ErrStarting
	}
	previous := m.current
	m.current = nil
	m.starting = true
	m.generation++
	generation := m.generation
	m.mu.Unlock()

	if previous != nil {
		log.Printf("Restarting kernel (%s, pid %d)", previous.Name(), previous.PID())
		previous.Stop()
	}
	return m.finish(ctx, generation)
}

// Starting reports whether a launch is in progress
func (m *Manager) Starting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starting
}

// Current returns the live session, or nil
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Execute sends line to the live session
func (m *Manager) Execute(line string) error {
	session := m.Current()
	if session == nil {
		return ErrNotRunning
	}
	return session.Execute(line)
}

// Shutdown stops the live session, if any, and cancels the outcome of a
// launch in progress. It never fails.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	session := m.current
	m.current = nil
	m.generation++
	m.mu.Unlock()

	if session != nil {
		log.Printf("Shutting down kernel (%s, pid %d)", session.Name(), session.PID())
		session.Stop()
	}
}

// finish runs the launch outside the lock and publishes its session unless
// a Restart or Shutdown happened meanwhile
func (m *Manager) finish(ctx context.Context, generation uint64) (*Session, error) {
	session, err := m.launch(ctx)

	m.mu.Lock()
	m.starting = false
	stale := generation != m.generation
	if err == nil && !stale {
		m.current = session
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if stale {
		log.Printf("Kernel %s (pid %d) was shut down during startup", session.Name(), session.PID())
		session.Stop()
		return nil, fmt.Errorf("%w: shut down during startup", ErrLaunchFailed)
	}
	return session, nil
}

func (m *Manager) launch(ctx context.Context) (*Session, error) {
	session, primaryErr := startSession(ctx, m.cfg.Primary, m.cfg)
	if primaryErr == nil {
		log.Printf("Kernel started: %s (pid %d)", session.Name(), session.PID())
		return session, nil
	}
	log.Printf("Kernel launch via %s failed: %v", m.cfg.Primary.Name, primaryErr)

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, ctx.Err())
	}

	session, fallbackErr := startSession(ctx, m.cfg.Fallback, m.cfg)
	if fallbackErr == nil {
		log.Printf("Kernel started via fallback: %s (pid %d)", session.Name(), session.PID())
		return session, nil
	}
	log.Printf("Kernel launch via %s failed: %v", m.cfg.Fallback.Name, fallbackErr)

	return nil, fmt.Errorf("%w: %s: %v; %s: %v", ErrLaunchFailed,
		m.cfg.Primary.Name, primaryErr, m.cfg.Fallback.Name, fallbackErr)
}
