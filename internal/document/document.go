package document

import (
	"path/filepath"
	"sync"
)

// UntitledName is shown for a document that has never been saved
const UntitledName = "untitled.py"

// Document is the single editable buffer owned by the main window
type Document struct {
	mu       sync.RWMutex
	text     string
	path     string
	modified bool

	onChange func()
}

// New creates an empty, unmodified document with no path
func New() *Document {
	return &Document{}
}

// SetOnChange registers a callback fired whenever text, path or the modified flag change
func (d *Document) SetOnChange(callback func()) {
	d.mu.Lock()
	d.onChange = callback
	d.mu.Unlock()
}

// Text returns the current buffer contents
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Path returns the file the document is bound to, or "" if none
func (d *Document) Path() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.path
}

// HasPath reports whether the document is bound to a file
func (d *Document) HasPath() bool {
	return d.Path() != ""
}

// Modified reports whether there are unsaved changes
func (d *Document) Modified() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modified
}

// Name returns the base name of the bound file
func (d *Document) Name() string {
	path := d.Path()
	if path == "" {
		return UntitledName
	}
	return filepath.Base(path)
}

// Dir returns the directory of the bound file, or "" when there is none
func (d *Document) Dir() string {
	path := d.Path()
	if path == "" {
		return ""
	}
	return filepath.Dir(path)
}

// Edit records a user edit. Setting identical text is not a modification,
// so programmatic widget refreshes do not dirty the document.
func (d *Document) Edit(text string) {
	d.mu.Lock()
	if text == d.text {
		d.mu.Unlock()
		return
	}
	d.text = text
	d.modified = true
	d.mu.Unlock()
	d.notify()
}

// Load replaces the buffer with freshly read file contents
func (d *Document) Load(path, text string) {
	d.mu.Lock()
	d.text = text
	d.path = path
	d.modified = false
	d.mu.Unlock()
	d.notify()
}

// MarkSaved binds the document to path and clears the modified flag
func (d *Document) MarkSaved(path string) {
	d.mu.Lock()
	d.path = path
	d.modified = false
	d.mu.Unlock()
	d.notify()
}

// Reset turns the document back into an empty untitled buffer
func (d *Document) Reset() {
	d.Load("", "")
}

func (d *Document) notify() {
	d.mu.RLock()
	callback := d.onChange
	d.mu.RUnlock()
	if callback != nil {
		callback()
	}
}
