package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "courses_database.json", []byte(`{"faculties":{}}`)))

	data, err := store.Load(ctx, "courses_database.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"faculties":{}}`, string(data))
}

func TestSaveReplacesAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "catalog.json", []byte("old")))
	require.NoError(t, store.Save(ctx, "catalog.json", []byte("new")))

	data, err := store.Load(ctx, "catalog.json")
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLoadMissingFileSurfacesNotExist(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "nope.json")
	require.True(t, os.IsNotExist(err))
}

func TestNewCreatesBaseDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "out")
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestResolveRejectsEscape(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	err = store.Save(context.Background(), "../outside.json", []byte("x"))
	require.Error(t, err)
}
