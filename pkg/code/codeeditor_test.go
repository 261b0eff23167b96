package code

import (
	"strings"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEditor(t *testing.T, text string) *CodeEditor {
	t.Helper()
	test.NewTempApp(t)
	editor := NewCodeEditor("python")
	editor.SetText(text)
	return editor
}

func TestCodeEditorHighlighting(t *testing.T) {
	editor := newTestEditor(t, "")
	source := "def f():\n    return 'hi'  # done\n"

	segments := editor.generateHighlightedSegments(source)
	require.NotEmpty(t, segments)

	var joined strings.Builder
	colors := map[fyne.ThemeColorName]bool{}
	for _, segment := range segments {
		text, ok := segment.(*widget.TextSegment)
		require.True(t, ok)
		assert.True(t, text.Style.Inline)
		joined.WriteString(text.Text)
		colors[text.Style.ColorName] = true
	}

	assert.Equal(t, source, joined.String())
	assert.True(t, colors[theme.ColorNamePrimary], "keywords are highlighted")
	assert.True(t, colors[theme.ColorNameSuccess], "strings are highlighted")
	assert.True(t, colors[theme.ColorNameDisabled], "comments are highlighted")
}

func TestCodeEditorViewMode(t *testing.T) {
	editor := newTestEditor(t, "x = 1\n")

	editor.ToggleMode()
	assert.False(t, editor.IsEditMode())
	assert.NotEmpty(t, editor.richContent.Segments)

	editor.ToggleMode()
	assert.True(t, editor.IsEditMode())
}

func TestCodeEditorCommentToggle(t *testing.T) {
	editor := newTestEditor(t, "    x = 1\ny = 2")

	editor.CommentToggle()
	assert.Equal(t, "    # x = 1\ny = 2", editor.GetText())

	editor.CommentToggle()
	assert.Equal(t, "    x = 1\ny = 2", editor.GetText())
}

func TestCodeEditorIndent(t *testing.T) {
	editor := newTestEditor(t, "x = 1\ny = 2")

	editor.IndentSelection()
	assert.Equal(t, "    x = 1\ny = 2", editor.GetText())

	editor.UnindentSelection()
	assert.Equal(t, "x = 1\ny = 2", editor.GetText())

	// nothing to remove
	editor.UnindentSelection()
	assert.Equal(t, "x = 1\ny = 2", editor.GetText())
}

func TestCodeEditorDuplicateLine(t *testing.T) {
	editor := newTestEditor(t, "x = 1\ny = 2")

	editor.DuplicateLine()
	assert.Equal(t, "x = 1\nx = 1\ny = 2", editor.GetText())
	assert.Equal(t, 1, editor.content.CursorRow)
	assert.Equal(t, 3, editor.GetTotalLines())
}

func TestCodeEditorTabInsertsSpaces(t *testing.T) {
	editor := newTestEditor(t, "x")
	editor.SetTabSize(2)

	editor.content.TypedKey(&fyne.KeyEvent{Name: fyne.KeyTab})
	assert.Equal(t, "  x", editor.GetText())
}

func TestCodeEditorShortcuts(t *testing.T) {
	editor := newTestEditor(t, "x = 1")

	var seen []fyne.Shortcut
	editor.SetShortcutHandler(func(s fyne.Shortcut) bool {
		seen = append(seen, s)
		return true
	})

	editor.content.TypedShortcut(&desktop.CustomShortcut{KeyName: fyne.KeySlash, Modifier: fyne.KeyModifierShortcutDefault})
	assert.Equal(t, "# x = 1", editor.GetText())
	assert.Empty(t, seen, "editor-local shortcuts are not forwarded")

	run := &desktop.CustomShortcut{KeyName: fyne.KeyR, Modifier: fyne.KeyModifierShortcutDefault}
	editor.content.TypedShortcut(run)
	require.Len(t, seen, 1)
	assert.Equal(t, run, seen[0])
}

func TestCodeEditorTextChanged(t *testing.T) {
	editor := newTestEditor(t, "")

	var got string
	editor.SetOnTextChanged(func(text string) { got = text })
	editor.SetText("print(1)")
	assert.Equal(t, "print(1)", got)
}

func TestToggleComment(t *testing.T) {
	tests := []struct {
		line, prefix, want string
	}{
		{"x = 1", "#", "# x = 1"},
		{"# x = 1", "#", "x = 1"},
		{"#x", "#", "x"},
		{"\tx", "#", "\t# x"},
		{"   ", "#", "   "},
		{"x := 1", "//", "// x := 1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toggleComment(tt.line, tt.prefix), tt.line)
	}
}

func BenchmarkHighlighting(b *testing.B) {
	test.NewTempApp(b)
	editor := NewCodeEditor("python")

	sample := `import sys

def main(argv):
    message = "Hello, World!"
    for i, word in enumerate(message.split()):
        print(f"Word {i}: {word}")  # numbered
    return 0

sys.exit(main(sys.argv))
`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		editor.generateHighlightedSegments(sample)
	}
}

func TestEditorShortcutsAreHandled(t *testing.T) {
	editor := newTestEditor(t, "x = 1")

	for key := range editorActions {
		shortcut := &desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierShortcutDefault}
		assert.True(t, editor.HandleShortcut(shortcut), shortcut.ShortcutName())
	}
	assert.False(t, editor.HandleShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}))
	assert.False(t, editor.HandleShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyD, Modifier: fyne.KeyModifierAlt}))
}
