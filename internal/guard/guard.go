package guard

import (
	"log"

	"github.com/ispapp/minipy/internal/document"
)

// Choice is the answer to the unsaved-changes question
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceSave
	ChoiceDiscard
)

func (c Choice) String() string {
	switch c {
	case ChoiceSave:
		return "save"
	case ChoiceDiscard:
		return "discard"
	default:
		return "cancel"
	}
}

// Prompter asks the user what to do with unsaved changes. The answer may
// arrive asynchronously, as it does with Fyne dialogs.
type Prompter interface {
	AskUnsaved(name string, answer func(Choice))
}

// SaveFunc saves the document, possibly asking for a path first, and
// reports through done whether the document ended up on disk.
type SaveFunc func(done func(saved bool))

// Guard protects unsaved changes from destructive actions
type Guard struct {
	doc    *document.Document
	prompt Prompter
	save   SaveFunc
}

// New creates a guard for doc
func New(doc *document.Document, prompt Prompter, save SaveFunc) *Guard {
	return &Guard{doc: doc, prompt: prompt, save: save}
}

// Confirm runs proceed right away when the document is clean. Otherwise it
// asks first: save-then-proceed, discard-and-proceed or cancel.
func (g *Guard) Confirm(proceed func()) {
	if !g.doc.Modified() {
		proceed()
		return
	}

	g.prompt.AskUnsaved(g.doc.Name(), func(choice Choice) {
		switch choice {
		case ChoiceSave:
			g.save(func(saved bool) {
				if saved {
					proceed()
				}
			})
		case ChoiceDiscard:
			proceed()
		default:
			log.Printf("Action cancelled, keeping unsaved changes in %s", g.doc.Name())
		}
	})
}

// Step is one independent part of shutting down
type Step struct {
	Name string
	Run  func() error
}

// Teardown runs every step even if earlier ones fail or panic. Failures
// are logged and never returned, so closing the window cannot be blocked.
func Teardown(steps ...Step) {
	for _, step := range steps {
		runStep(step)
	}
}

func runStep(step Step) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Teardown step %q panicked: %v", step.Name, r)
		}
	}()
	if err := step.Run(); err != nil {
		log.Printf("Teardown step %q failed: %v", step.Name, err)
	}
}
