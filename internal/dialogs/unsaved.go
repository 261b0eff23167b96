package dialogs

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/ispapp/minipy/internal/guard"
)

// UnsavedPrompt asks Save / Discard / Cancel in a modal dialog
type UnsavedPrompt struct {
	parent fyne.Window
}

// NewUnsavedPrompt creates a prompt shown over parent
func NewUnsavedPrompt(parent fyne.Window) *UnsavedPrompt {
	return &UnsavedPrompt{parent: parent}
}

// AskUnsaved implements guard.Prompter. Closing the dialog any other way
// than through a button counts as cancel.
func (p *UnsavedPrompt) AskUnsaved(name string, answer func(guard.Choice)) {
	message := widget.NewLabel(fmt.Sprintf("%s has unsaved changes.\nSave them before continuing?", name))
	message.Wrapping = fyne.TextWrapWord

	d := dialog.NewCustomWithoutButtons("Unsaved changes", message, p.parent)

	answered := false
	choose := func(choice guard.Choice) func() {
		return func() {
			answered = true
			d.Hide()
			answer(choice)
		}
	}

	save := widget.NewButtonWithIcon("Save", theme.DocumentSaveIcon(), choose(guard.ChoiceSave))
	save.Importance = widget.HighImportance
	discard := widget.NewButtonWithIcon("Discard", theme.DeleteIcon(), choose(guard.ChoiceDiscard))
	discard.Importance = widget.DangerImportance
	cancel := widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), choose(guard.ChoiceCancel))

	d.SetButtons([]fyne.CanvasObject{cancel, discard, save})
	d.SetOnClosed(func() {
		if !answered {
			answered = true
			answer(guard.ChoiceCancel)
		}
	})
	d.Resize(fyne.NewSize(420, 160))
	d.Show()
}

// ShowError reports a failed user action
func ShowError(title string, err error, parent fyne.Window) {
	d := dialog.NewError(fmt.Errorf("%s: %w", title, err), parent)
	d.Show()
}

// ShowWarning shows an informational message that needs no decision
func ShowWarning(title, message string, parent fyne.Window) {
	dialog.ShowInformation(title, message, parent)
}
