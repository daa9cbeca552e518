package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("flyers/c1_poster.png", []byte("image-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "flyers/c1_poster.png", rel)

	file, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close()

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
}

func TestLocalStorageRejectsPathTraversal(t *testing.T) {
	base := t.TempDir()
	outside := filepath.Join(filepath.Dir(base), "evil.txt")

	store, err := NewLocalStorage(filepath.Join(base, "exports"))
	require.NoError(t, err)

	names := []string{
		"flyers/c1_x/../../../../evil.txt",
		"../evil.txt",
		"..",
		"",
	}
	for _, name := range names {
		_, err := store.Save(name, []byte("owned"))
		assert.Error(t, err, "name %q", name)
	}

	_, statErr := os.Stat(outside)
	assert.True(t, os.IsNotExist(statErr), "file must not land outside the base directory")
}

func TestLocalStorageRejectsAbsolutePaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "evil.txt")
	_, err = store.Save(target, []byte("owned"))
	require.Error(t, err)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))

	_, err = store.Open(target)
	require.Error(t, err)
	require.Error(t, store.Delete(target))
}