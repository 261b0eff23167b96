package guard

import (
	"errors"
	"testing"

	"github.com/ispapp/minipy/internal/document"
	"github.com/stretchr/testify/assert"
)

type fakePrompter struct {
	choice Choice
	asked  []string
}

func (p *fakePrompter) AskUnsaved(name string, answer func(Choice)) {
	p.asked = append(p.asked, name)
	answer(p.choice)
}

type fakeSaver struct {
	calls  int
	result bool
	doc    *document.Document
}

func (s *fakeSaver) save(done func(bool)) {
	s.calls++
	if s.result {
		s.doc.MarkSaved("/tmp/a.py")
	}
	done(s.result)
}

func dirtyDocument() *document.Document {
	doc := document.New()
	doc.Edit("print(1)")
	return doc
}

func TestCleanDocumentProceedsWithoutAsking(t *testing.T) {
	doc := document.New()
	prompter := &fakePrompter{}
	saver := &fakeSaver{doc: doc}

	proceeded := false
	New(doc, prompter, saver.save).Confirm(func() { proceeded = true })

	assert.True(t, proceeded)
	assert.Empty(t, prompter.asked)
	assert.Zero(t, saver.calls)
}

func TestCancelLeavesEverythingAlone(t *testing.T) {
	doc := dirtyDocument()
	prompter := &fakePrompter{choice: ChoiceCancel}
	saver := &fakeSaver{doc: doc, result: true}

	proceeded := false
	New(doc, prompter, saver.save).Confirm(func() { proceeded = true })

	assert.False(t, proceeded)
	assert.Equal(t, []string{document.UntitledName}, prompter.asked)
	assert.Zero(t, saver.calls, "cancel must not trigger file I/O")
	assert.True(t, doc.Modified())
	assert.Equal(t, "print(1)", doc.Text())
	assert.False(t, doc.HasPath())
}

func TestDiscardProceedsWithoutSaving(t *testing.T) {
	doc := dirtyDocument()
	saver := &fakeSaver{doc: doc, result: true}

	proceeded := false
	New(doc, &fakePrompter{choice: ChoiceDiscard}, saver.save).Confirm(func() { proceeded = true })

	assert.True(t, proceeded)
	assert.Zero(t, saver.calls)
}

func TestSaveThenProceed(t *testing.T) {
	doc := dirtyDocument()
	saver := &fakeSaver{doc: doc, result: true}

	proceeded := false
	New(doc, &fakePrompter{choice: ChoiceSave}, saver.save).Confirm(func() { proceeded = true })

	assert.True(t, proceeded)
	assert.Equal(t, 1, saver.calls)
	assert.False(t, doc.Modified())
}

func TestFailedSaveDoesNotProceed(t *testing.T) {
	doc := dirtyDocument()
	saver := &fakeSaver{doc: doc, result: false}

	proceeded := false
	New(doc, &fakePrompter{choice: ChoiceSave}, saver.save).Confirm(func() { proceeded = true })

	assert.False(t, proceeded)
	assert.Equal(t, 1, saver.calls)
	assert.True(t, doc.Modified())
}

func TestTeardownRunsEveryStep(t *testing.T) {
	var ran []string
	Teardown(
		Step{Name: "fails", Run: func() error { ran = append(ran, "fails"); return errors.New("boom") }},
		Step{Name: "panics", Run: func() error { ran = append(ran, "panics"); panic("bad") }},
		Step{Name: "ok", Run: func() error { ran = append(ran, "ok"); return nil }},
	)

	assert.Equal(t, []string{"fails", "panics", "ok"}, ran)
}

func TestChoiceString(t *testing.T) {
	assert.Equal(t, "save", ChoiceSave.String())
	assert.Equal(t, "discard", ChoiceDiscard.String())
	assert.Equal(t, "cancel", ChoiceCancel.String())
}
