package dialogs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveIfEmpty(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "script")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	removeIfEmpty(empty)
	_, err := os.Stat(empty)
	assert.True(t, os.IsNotExist(err))

	kept := filepath.Join(dir, "notes")
	require.NoError(t, os.WriteFile(kept, []byte("keep me"), 0644))
	removeIfEmpty(kept)
	_, err = os.Stat(kept)
	assert.NoError(t, err)

	// directories are never touched
	removeIfEmpty(dir)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}
