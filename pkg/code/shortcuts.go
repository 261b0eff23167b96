package code

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// codeEntry is the editable text area. It inserts spaces for Tab, handles
// the editor-local shortcuts and offers every other modifier shortcut to the
// window before the stock Entry sees it.
type codeEntry struct {
	widget.Entry

	editor     *CodeEditor
	onShortcut func(fyne.Shortcut) bool
}

func newCodeEntry(editor *CodeEditor) *codeEntry {
	entry := &codeEntry{editor: editor}
	entry.MultiLine = true
	entry.Wrapping = fyne.TextWrapOff
	entry.Scroll = container.ScrollNone
	entry.TextStyle = fyne.TextStyle{Monospace: true}
	entry.ExtendBaseWidget(entry)
	return entry
}

// TypedKey replaces Tab with spaces
func (e *codeEntry) TypedKey(key *fyne.KeyEvent) {
	if key.Name == fyne.KeyTab {
		e.Entry.TypedShortcut(&fyne.ShortcutPaste{Clipboard: spaceClipboard(strings.Repeat(" ", e.editor.tabSize))})
		return
	}
	e.Entry.TypedKey(key)
}

// TypedShortcut routes modifier shortcuts
func (e *codeEntry) TypedShortcut(shortcut fyne.Shortcut) {
	if custom, ok := shortcut.(*desktop.CustomShortcut); ok {
		if e.editor.HandleShortcut(custom) {
			return
		}
		if e.onShortcut != nil && e.onShortcut(custom) {
			return
		}
	}
	e.Entry.TypedShortcut(shortcut)
}

// editorActions maps the editor-local Ctrl/Cmd bindings to their actions
var editorActions = map[fyne.KeyName]func(*CodeEditor){
	fyne.KeySlash:        (*CodeEditor).CommentToggle,     // Toggle Comment
	fyne.KeyRightBracket: (*CodeEditor).IndentSelection,   // Increase Indent
	fyne.KeyLeftBracket:  (*CodeEditor).UnindentSelection, // Decrease Indent
	fyne.KeyD:            (*CodeEditor).DuplicateLine,     // Duplicate Line
	fyne.KeyE:            (*CodeEditor).ToggleMode,        // Highlighted read-only view
}

// HandleShortcut runs an editor-local shortcut and reports whether it matched
func (e *CodeEditor) HandleShortcut(shortcut *desktop.CustomShortcut) bool {
	if shortcut.Modifier != fyne.KeyModifierShortcutDefault {
		return false
	}
	action, ok := editorActions[shortcut.KeyName]
	if !ok {
		return false
	}
	action(e)
	return true
}

// spaceClipboard feeds a fixed string through the Entry's paste path, which
// inserts at the cursor and replaces any selection.
type spaceClipboard string

func (c spaceClipboard) Content() string   { return string(c) }
func (c spaceClipboard) SetContent(string) {}
