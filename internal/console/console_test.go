package console

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/ispapp/minipy/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsoleShowsPlaceholder(t *testing.T) {
	_ = test.NewApp()

	c := New()
	require.Len(t, c.holder.Objects, 1)
	label, ok := c.holder.Objects[0].(*widget.Label)
	require.True(t, ok)
	assert.Equal(t, "Starting Python kernel...", label.Text)
}

func TestFocusWithoutTerminal(t *testing.T) {
	_ = test.NewApp()

	w := test.NewWindow(nil)
	defer w.Close()

	c := New()
	assert.False(t, c.Focus(w.Canvas()))
	assert.False(t, c.Focus(nil))
}

func TestClearWithoutSession(t *testing.T) {
	_ = test.NewApp()

	assert.ErrorIs(t, New().Clear(), kernel.ErrNotRunning)
}

func TestShowMessageReplacesContent(t *testing.T) {
	_ = test.NewApp()

	c := New()
	c.ShowMessage("kernel launch failed")

	require.Len(t, c.holder.Objects, 1)
	label, ok := c.holder.Objects[0].(*widget.Label)
	require.True(t, ok)
	assert.Equal(t, "kernel launch failed", label.Text)

	c.Detach()
	assert.ErrorIs(t, c.Clear(), kernel.ErrNotRunning)
}
