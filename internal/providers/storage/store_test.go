package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(t *testing.T) map[string]Store {
	t.Helper()
	ctx := context.Background()

	file, err := NewFile(t.TempDir())
	require.NoError(t, err)

	db, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "snippets.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemory(0),
		"file":   file,
		"sqlite": db,
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		r, err := NewRedis(ctx, addr)
		require.NoError(t, err)
		stores["redis"] = r
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestKey(t *testing.T) {
	assert.Equal(t, "playground_javascript", Key("javascript"))

	lang, ok := LanguageFromKey("playground_css")
	assert.True(t, ok)
	assert.Equal(t, "css", lang)

	_, ok = LanguageFromKey("playground_")
	assert.False(t, ok)
	_, ok = LanguageFromKey("other")
	assert.False(t, ok)
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, Key("missing"))
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, Key("javascript"), "console.log(1)"))
			require.NoError(t, store.Set(ctx, Key("css"), "body {}"))

			v, err := store.Get(ctx, Key("javascript"))
			require.NoError(t, err)
			assert.Equal(t, "console.log(1)", v)

			// overwrite keeps the raw text, no envelope
			require.NoError(t, store.Set(ctx, Key("javascript"), "line 1\nline 2"))
			v, err = store.Get(ctx, Key("javascript"))
			require.NoError(t, err)
			assert.Equal(t, "line 1\nline 2", v)

			// empty source is a legitimate snippet
			require.NoError(t, store.Set(ctx, Key("html"), ""))
			v, err = store.Get(ctx, Key("html"))
			require.NoError(t, err)
			assert.Empty(t, v)

			keys, err := store.Keys(ctx, KeyPrefix+"*")
			require.NoError(t, err)
			assert.Equal(t, []string{"playground_css", "playground_html", "playground_javascript"}, keys)

			require.NoError(t, store.Delete(ctx, Key("css")))
			require.NoError(t, store.Delete(ctx, Key("css")))
			_, err = store.Get(ctx, Key("css"))
			assert.ErrorIs(t, err, ErrNotFound)

			for _, k := range []string{"css", "html", "javascript"} {
				require.NoError(t, store.Delete(ctx, Key(k)))
			}
		})
	}
}

func TestMemoryQuota(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "a", "12345"))
	require.NoError(t, m.Set(ctx, "b", "12345"))

	err := m.Set(ctx, "c", "1")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.ErrorIs(t, err, ErrUnavailable)

	// replacing a value only counts the difference
	require.NoError(t, m.Set(ctx, "a", "123"))
	require.NoError(t, m.Set(ctx, "c", "12"))
}

func TestMemoryClosed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	require.NoError(t, m.Close())

	assert.ErrorIs(t, m.Set(ctx, "a", "b"), ErrUnavailable)
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFileRejectsPathKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	assert.Error(t, f.Set(ctx, "../escape", "x"))
	assert.Error(t, f.Set(ctx, "a/b", "x"))
	assert.Error(t, f.Set(ctx, "", "x"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Driver: "floppy"})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Driver: "file"})
	assert.Error(t, err)
}

func TestFileKeysSkipsTempAndSubdirs(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir + "/")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, f.Set(ctx, Key("css"), "a {}"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-playground_js-123"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "playground_js"), []byte("x"), 0o644))

	keys, err := f.Keys(ctx, KeyPrefix+"*")
	require.NoError(t, err)
	assert.Equal(t, []string{"playground_css"}, keys)

	keys, err = f.Keys(ctx, "nothing-*")
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = f.Keys(ctx, "[")
	assert.Error(t, err)
}
