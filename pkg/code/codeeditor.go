package code

import (
	"fmt"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Placeholder is shown in an empty editor
const Placeholder = "# write code here...\nprint('Hello, MiniPy!')\n"

// CodeEditor represents the main code editor widget
type CodeEditor struct {
	widget.BaseWidget

	content     *codeEntry
	richContent *widget.RichText
	lineNumbers *widget.Label
	scroll      *container.Scroll
	container   *fyne.Container

	language string
	lexer    chroma.Lexer

	isEditMode      bool   // true for editing (Entry), false for viewing (RichText)
	lastHighlighted string // cache to avoid rehighlighting same content

	// Settings
	tabSize int

	// Callbacks
	onTextChanged func(string)
}

// NewCodeEditor creates a new code editor highlighting the given language.
// Colours follow the application theme.
func NewCodeEditor(language string) *CodeEditor {
	editor := &CodeEditor{
		language: language,
		tabSize:  4,
	}

	editor.ExtendBaseWidget(editor)
	editor.setupSyntaxHighlighting()
	editor.createUI()

	return editor
}

// SetText sets the editor content
func (e *CodeEditor) SetText(text string) {
	e.content.SetText(text)
	e.updateLineNumbers()
	if !e.isEditMode {
		e.updateRichTextHighlighting()
	}
}

// GetText returns the editor content
func (e *CodeEditor) GetText() string {
	return e.content.Text
}

// SetOnTextChanged sets the callback for text changes
func (e *CodeEditor) SetOnTextChanged(callback func(string)) {
	e.onTextChanged = callback
}

// SetShortcutHandler lets the window see modifier shortcuts typed while the
// editor has focus. The handler returns true when it consumed the shortcut.
func (e *CodeEditor) SetShortcutHandler(handler func(fyne.Shortcut) bool) {
	e.content.onShortcut = handler
}

// SetTabSize sets how many spaces the Tab key inserts
func (e *CodeEditor) SetTabSize(size int) {
	if size > 0 {
		e.tabSize = size
	}
}

// FocusTarget returns the object that should receive keyboard focus
func (e *CodeEditor) FocusTarget() fyne.Focusable {
	return e.content
}

// setupSyntaxHighlighting initializes the syntax highlighter
func (e *CodeEditor) setupSyntaxHighlighting() {
	e.lexer = lexers.Get(e.language)
	if e.lexer == nil {
		e.lexer = lexers.Fallback
	}
	e.lexer = chroma.Coalesce(e.lexer)
}

// createUI builds the editor interface
func (e *CodeEditor) createUI() {
	e.content = newCodeEntry(e)
	e.content.SetPlaceHolder(Placeholder)
	e.content.OnChanged = func(text string) {
		e.updateLineNumbers()
		// Clear the highlight cache when text changes
		e.lastHighlighted = ""
		if e.onTextChanged != nil {
			e.onTextChanged(text)
		}
	}

	e.richContent = widget.NewRichText()

	e.lineNumbers = widget.NewLabel("1")
	e.lineNumbers.TextStyle = fyne.TextStyle{Monospace: true}
	e.lineNumbers.Alignment = fyne.TextAlignTrailing

	e.isEditMode = true

	// The entry grows with its content so line numbers scroll together with it.
	e.scroll = container.NewScroll(container.NewBorder(nil, nil, e.lineNumbers, nil, e.content))
	e.container = container.NewStack(e.scroll)

	e.updateLineNumbers()
}

// updateLineNumbers updates the line number display
func (e *CodeEditor) updateLineNumbers() {
	lineCount := e.GetTotalLines()
	numbers := make([]string, 0, lineCount)
	for i := 1; i <= lineCount; i++ {
		numbers = append(numbers, fmt.Sprintf("%4d", i))
	}

	e.lineNumbers.SetText(strings.Join(numbers, "\n"))
}

// CreateRenderer creates the widget renderer
func (e *CodeEditor) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(e.container)
}

// IndentSelection indents the current line by one tab stop
func (e *CodeEditor) IndentSelection() {
	row := e.content.CursorRow
	lines := splitLines(e.content.Text)

	if row < len(lines) {
		lines[row] = strings.Repeat(" ", e.tabSize) + lines[row]
		e.replaceLines(lines, row, e.content.CursorColumn+e.tabSize)
	}
}

// UnindentSelection removes up to one tab stop from the current line
func (e *CodeEditor) UnindentSelection() {
	row := e.content.CursorRow
	lines := splitLines(e.content.Text)

	if row < len(lines) {
		line := lines[row]
		removed := 0
		if strings.HasPrefix(line, "\t") {
			removed = 1
		} else {
			for removed < e.tabSize && removed < len(line) && line[removed] == ' ' {
				removed++
			}
		}
		lines[row] = line[removed:]
		e.replaceLines(lines, row, max(0, e.content.CursorColumn-removed))
	}
}

// CommentToggle toggles a line comment on the current line
func (e *CodeEditor) CommentToggle() {
	row := e.content.CursorRow
	lines := splitLines(e.content.Text)

	if row < len(lines) {
		lines[row] = toggleComment(lines[row], getCommentPrefix(e.language))
		e.replaceLines(lines, row, e.content.CursorColumn)
	}
}

// DuplicateLine copies the current line below itself
func (e *CodeEditor) DuplicateLine() {
	row := e.content.CursorRow
	lines := splitLines(e.content.Text)

	if row < len(lines) {
		newLines := make([]string, 0, len(lines)+1)
		newLines = append(newLines, lines[:row+1]...)
		newLines = append(newLines, lines[row])
		newLines = append(newLines, lines[row+1:]...)
		e.replaceLines(newLines, row+1, e.content.CursorColumn)
	}
}

// GetTotalLines returns the total number of lines
func (e *CodeEditor) GetTotalLines() int {
	return len(splitLines(e.content.Text))
}

func (e *CodeEditor) replaceLines(lines []string, row, col int) {
	e.content.SetText(strings.Join(lines, "\n"))
	e.content.CursorRow = row
	e.content.CursorColumn = min(col, len([]rune(lines[min(row, len(lines)-1)])))
	e.content.Refresh()
}

// ToggleMode switches between editing and the highlighted read-only view
func (e *CodeEditor) ToggleMode() {
	if e.isEditMode {
		e.setViewMode()
	} else {
		e.setEditMode()
	}
}

// IsEditMode returns true if the editor is in edit mode
func (e *CodeEditor) IsEditMode() bool {
	return e.isEditMode
}

// setEditMode switches to editing mode (Entry widget)
func (e *CodeEditor) setEditMode() {
	if e.isEditMode {
		return
	}
	e.isEditMode = true
	e.updateMainContainer()
}

// setViewMode switches to view mode (RichText widget with syntax highlighting)
func (e *CodeEditor) setViewMode() {
	if !e.isEditMode {
		return
	}
	e.isEditMode = false
	e.updateRichTextHighlighting()
	e.updateMainContainer()
}

// updateMainContainer updates the main container based on current mode
func (e *CodeEditor) updateMainContainer() {
	if e.isEditMode {
		e.container.Objects = []fyne.CanvasObject{e.scroll}
	} else {
		e.container.Objects = []fyne.CanvasObject{
			container.NewScroll(container.NewBorder(nil, nil, e.lineNumbers, nil, e.richContent)),
		}
	}
	e.container.Refresh()
}

// updateRichTextHighlighting creates syntax-highlighted RichText content
func (e *CodeEditor) updateRichTextHighlighting() {
	text := e.content.Text

	// Avoid re-highlighting the same content
	if text == e.lastHighlighted && len(e.richContent.Segments) > 0 {
		return
	}

	e.richContent.Segments = e.generateHighlightedSegments(text)
	e.richContent.Refresh()
	e.lastHighlighted = text
}

// generateHighlightedSegments creates RichText segments with syntax highlighting
func (e *CodeEditor) generateHighlightedSegments(text string) []widget.RichTextSegment {
	plain := []widget.RichTextSegment{
		&widget.TextSegment{
			Text:  text,
			Style: widget.RichTextStyle{TextStyle: fyne.TextStyle{Monospace: true}},
		},
	}
	if text == "" || e.lexer == nil {
		return plain
	}

	iterator, err := e.lexer.Tokenise(nil, text)
	if err != nil {
		log.Printf("Error tokenizing text: %v", err)
		return plain
	}

	var segments []widget.RichTextSegment
	for token := iterator(); token != chroma.EOF; token = iterator() {
		segment := &widget.TextSegment{
			Text: token.Value,
			Style: widget.RichTextStyle{
				Inline:    true,
				TextStyle: fyne.TextStyle{Monospace: true},
			},
		}
		if colorName := getTokenColor(token.Type); colorName != "" {
			segment.Style.ColorName = colorName
		}
		segments = append(segments, segment)
	}

	return segments
}

// getTokenColor maps token types to Fyne theme color names
func getTokenColor(tokenType chroma.TokenType) fyne.ThemeColorName {
	switch {
	case tokenType.InCategory(chroma.Keyword):
		return theme.ColorNamePrimary
	case tokenType.InCategory(chroma.LiteralString):
		return theme.ColorNameSuccess
	case tokenType.InCategory(chroma.Comment):
		return theme.ColorNameDisabled
	case tokenType.InCategory(chroma.LiteralNumber):
		return theme.ColorNameWarning
	case tokenType == chroma.NameFunction || tokenType == chroma.NameBuiltin:
		return theme.ColorNamePrimary
	case tokenType.InCategory(chroma.Error):
		return theme.ColorNameError
	default:
		return ""
	}
}

// toggleComment adds or removes prefix after the line's indentation
func toggleComment(line, prefix string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return line
	}
	indent := line[:len(line)-len(trimmed)]

	if strings.HasPrefix(trimmed, prefix) {
		rest := strings.TrimPrefix(trimmed, prefix)
		return indent + strings.TrimPrefix(rest, " ")
	}
	return indent + prefix + " " + trimmed
}

// getCommentPrefix returns the comment prefix for a language
func getCommentPrefix(language string) string {
	switch language {
	case "go", "javascript", "typescript", "java", "c", "cpp", "rust":
		return "//"
	case "sql":
		return "--"
	default:
		return "#"
	}
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}
