package data

import (
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowTitle(t *testing.T) {
	assert.Equal(t, "untitled.py - MiniPy", WindowTitle("untitled.py", false))
	assert.Equal(t, "demo.py* - MiniPy", WindowTitle("demo.py", true))
}

func TestBindings(t *testing.T) {
	test.NewTempApp(t)
	Init()
	t.Cleanup(StopTimers)

	SetTitle("demo.py", true)
	title, err := Title.Get()
	require.NoError(t, err)
	assert.Equal(t, "demo.py* - MiniPy", title)

	SetStatus("Saved: demo.py")
	status, err := Status.Get()
	require.NoError(t, err)
	assert.Equal(t, "Saved: demo.py", status)

	state, err := KernelState.Get()
	require.NoError(t, err)
	assert.Equal(t, "Kernel: starting", state)
}
