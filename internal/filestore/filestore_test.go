package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveThenOpenRoundTrip(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "a.py")

	require.NoError(t, store.Save(path, "print(1)"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", string(raw))

	text, lossy, err := store.Open(path)
	require.NoError(t, err)
	assert.False(t, lossy)
	assert.Equal(t, "print(1)", text)
}

func TestSaveReplacesExistingFile(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "a.py")
	require.NoError(t, os.WriteFile(path, []byte("old contents that are longer"), 0644))

	require.NoError(t, store.Save(path, "new"))

	text, _, err := store.Open(path)
	require.NoError(t, err)
	assert.Equal(t, "new", text)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files may be left next to the target")
}

func TestSaveWithoutPath(t *testing.T) {
	assert.Error(t, New().Save("", "x"))
}

func TestSaveIntoMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "a.py")
	assert.Error(t, New().Save(path, "x"))
}

func TestOpenMissingFile(t *testing.T) {
	_, _, err := New().Open(filepath.Join(t.TempDir(), "nope.py"))
	assert.Error(t, err)
}

func TestOpenInvalidUTF8IsLossy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.py")
	require.NoError(t, os.WriteFile(path, []byte("x = '\xff'\n"), 0644))

	text, lossy, err := New().Open(path)
	require.NoError(t, err)
	assert.True(t, lossy)
	assert.Equal(t, "x = '�'\n", text)
}

func TestOpenStripsBOMAndCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.py")
	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbfa = 1\r\nb = 2\r\n"), 0644))

	text, lossy, err := New().Open(path)
	require.NoError(t, err)
	assert.False(t, lossy)
	assert.Equal(t, "a = 1\nb = 2\n", text)
}

func TestEnsureExtension(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"script", "script.py"},
		{"script.py", "script.py"},
		{"notes.txt", "notes.txt"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EnsureExtension(tt.in, DefaultExtension), tt.in)
	}
}

func TestChangedExternally(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "a.py")
	require.NoError(t, store.Save(path, "a"))
	assert.False(t, store.ChangedExternally(path))

	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))
	assert.True(t, store.ChangedExternally(path))

	store.Forget(path)
	assert.True(t, store.ChangedExternally(path))
}

func TestOwnSaveInFlightIsNotExternal(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "a.py")
	// renamed into place by a save whose mtime is not recorded yet
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))
	key := cleanPath(path)

	store.beginWrite(key)
	assert.False(t, store.ChangedExternally(path))

	store.endWrite(key)
	assert.True(t, store.ChangedExternally(path))
}

func TestFailedSaveEndsWrite(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "missing", "a.py")

	require.Error(t, store.Save(path, "a"))
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.saving)
}

func TestWatcherIgnoresOwnSaves(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "a.py")
	require.NoError(t, store.Save(path, "a"))

	changed := make(chan string, 1)
	w, err := NewWatcher(store, func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(path))

	for i := 0; i < 20; i++ {
		require.NoError(t, store.Save(path, strings.Repeat("x", i)))
	}

	select {
	case got := <-changed:
		t.Fatalf("own save reported as external change of %s", got)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherReportsExternalWrites(t *testing.T) {
	store := New()
	path := filepath.Join(t.TempDir(), "a.py")
	require.NoError(t, store.Save(path, "a"))

	changed := make(chan string, 1)
	w, err := NewWatcher(store, func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(path))

	require.NoError(t, os.WriteFile(path, []byte("edited elsewhere"), 0644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case got := <-changed:
		assert.Equal(t, cleanPath(path), got)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the external write")
	}
}
