package runner

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ispapp/minipy/internal/document"
	"github.com/ispapp/minipy/pkg/kernel"
)

// DefaultCleanupDelay gives the kernel time to read a scratch file before it is removed
const DefaultCleanupDelay = 5 * time.Second

// Executor accepts one line of code for the kernel
type Executor interface {
	Execute(line string) error
}

// Saver persists text to path
type Saver interface {
	Save(path, text string) error
}

// Result describes one run
type Result struct {
	Path      string
	Temporary bool
	Command   string

	cleaned chan struct{}
}

// Cleaned is closed once a scratch file has been removed. For runs of a
// saved document it is closed immediately.
func (r *Result) Cleaned() <-chan struct{} {
	return r.cleaned
}

// Runner runs the current document inside the kernel
type Runner struct {
	doc   *document.Document
	store Saver
	exec  Executor

	tempDir      string
	cleanupDelay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingFile
}

type pendingFile struct {
	timer   *time.Timer
	cleaned chan struct{}
	once    sync.Once
}

// Options tune a Runner
type Options struct {
	// TempDir holds scratch files for unsaved documents; defaults to os.TempDir().
	TempDir      string
	CleanupDelay time.Duration
}

// New creates a runner
func New(doc *document.Document, store Saver, exec Executor, opts Options) *Runner {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.CleanupDelay <= 0 {
		opts.CleanupDelay = DefaultCleanupDelay
	}
	return &Runner{
		doc:          doc,
		store:        store,
		exec:         exec,
		tempDir:      opts.TempDir,
		cleanupDelay: opts.CleanupDelay,
		pending:      make(map[string]*pendingFile),
	}
}

// RunCurrent persists the document, to its own path or to a fresh scratch
// file, and sends a single run command to the kernel.
func (r *Runner) RunCurrent() (*Result, error) {
	if !r.doc.HasPath() {
		return r.runScratch()
	}

	path, text := r.doc.Path(), r.doc.Text()
	if err := r.store.Save(path, text); err != nil {
		return nil, err
	}
	r.doc.MarkSaved(path)

	command := kernel.RunFileCommand(path)
	if err := r.exec.Execute(command); err != nil {
		return nil, err
	}

	cleaned := make(chan struct{})
	close(cleaned)
	return &Result{Path: path, Command: command, cleaned: cleaned}, nil
}

func (r *Runner) runScratch() (*Result, error) {
	path, err := r.writeScratch(r.doc.Text())
	if err != nil {
		return nil, err
	}

	p := &pendingFile{cleaned: make(chan struct{})}
	r.mu.Lock()
	r.pending[path] = p
	r.mu.Unlock()

	command := kernel.RunFileCommand(path)
	if err := r.exec.Execute(command); err != nil {
		r.remove(path)
		return nil, err
	}

	// The kernel gives no signal when it has finished reading the file, so
	// removal after a fixed delay is best-effort.
	r.mu.Lock()
	p.timer = time.AfterFunc(r.cleanupDelay, func() { r.remove(path) })
	r.mu.Unlock()

	return &Result{Path: path, Temporary: true, Command: command, cleaned: p.cleaned}, nil
}

func (r *Runner) writeScratch(text string) (string, error) {
	path := filepath.Join(r.tempDir, "minipy-"+uuid.NewString()+".py")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	_, werr := io.Copy(f, strings.NewReader(text))
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	return path, nil
}

// Pending returns the number of scratch files still waiting for removal
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Flush removes every pending scratch file now
func (r *Runner) Flush() {
	r.mu.Lock()
	paths := make([]string, 0, len(r.pending))
	for path, p := range r.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		paths = append(paths, path)
	}
	r.mu.Unlock()

	for _, path := range paths {
		r.remove(path)
	}
}

func (r *Runner) remove(path string) {
	r.mu.Lock()
	p, ok := r.pending[path]
	delete(r.pending, path)
	r.mu.Unlock()
	if !ok {
		return
	}

	p.once.Do(func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove scratch file %s: %v", path, err)
		}
		close(p.cleaned)
	})
}
