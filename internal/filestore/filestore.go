package filestore

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/natefinch/atomic"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultExtension is appended to bare file names chosen in the save dialog
const DefaultExtension = ".py"

// Store reads and writes documents on disk. It remembers the modification
// time of its own writes so a Watcher can tell them apart from external edits.
type Store struct {
	mu      sync.Mutex
	written map[string]time.Time
	// saving counts writes in flight; their events arrive before the mtime is known
	saving map[string]int
}

// New creates a file store
func New() *Store {
	return &Store{
		written: make(map[string]time.Time),
		saving:  make(map[string]int),
	}
}

// Open reads path and decodes it as UTF-8. Invalid sequences are replaced
// with U+FFFD and lossy reports whether that happened.
func (s *Store) Open(path string) (text string, lossy bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, err = decodeText(data)
	if err != nil {
		return "", false, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return text, !utf8.Valid(data), nil
}

// Save writes text to a temporary file next to path and renames it over the
// target, so an interrupted write never leaves a truncated file behind.
func (s *Store) Save(path, text string) error {
	if path == "" {
		return fmt.Errorf("failed to save: no path given")
	}

	key := cleanPath(path)
	s.beginWrite(key)
	defer s.endWrite(key)

	if err := atomic.WriteFile(path, strings.NewReader(text)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if info, err := os.Stat(path); err == nil {
		s.mu.Lock()
		s.written[key] = info.ModTime()
		s.mu.Unlock()
	}

	return nil
}

func (s *Store) beginWrite(key string) {
	s.mu.Lock()
	s.saving[key]++
	s.mu.Unlock()
}

func (s *Store) endWrite(key string) {
	s.mu.Lock()
	if s.saving[key]--; s.saving[key] <= 0 {
		delete(s.saving, key)
	}
	s.mu.Unlock()
}

// ChangedExternally reports whether path on disk differs from our last write.
// It is false while one of our own saves of path is still in flight.
func (s *Store) ChangedExternally(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	key := cleanPath(path)
	s.mu.Lock()
	last, ok := s.written[key]
	inFlight := s.saving[key] > 0
	s.mu.Unlock()

	if inFlight {
		return false
	}
	return !ok || !info.ModTime().Equal(last)
}

// Forget drops the recorded write for path
func (s *Store) Forget(path string) {
	s.mu.Lock()
	delete(s.written, cleanPath(path))
	s.mu.Unlock()
}

// EnsureExtension appends ext when path has no extension at all
func EnsureExtension(path, ext string) string {
	if path == "" || filepath.Ext(path) != "" {
		return path
	}
	return path + ext
}

// decodeText strips a byte order mark and replaces invalid UTF-8
func decodeText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))), nil
}

func cleanPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
