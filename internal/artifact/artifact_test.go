package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBytesCreatesParentDirs(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	require.NoError(t, store.WriteBytes("entry/page/index.auto.json", []byte(`{"a":1}`)))

	data, err := os.ReadFile(filepath.Join(root, "entry/page/index.auto.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestWriteBytesRejectsAbsolutePath(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	err = store.WriteBytes("/etc/passwd", []byte("x"))
	require.ErrorIs(t, err, ErrPathEscape)
}

func TestWriteBytesRejectsEscapingPath(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	err = store.WriteBytes("../outside.json", []byte("x"))
	require.ErrorIs(t, err, ErrPathEscape)
}

func TestWriteJSONIndented(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	require.NoError(t, store.WriteJSON("route/forest.auto.json", map[string]any{"path": "/a"}, JSONOptions{Indent: true}))

	data, err := os.ReadFile(filepath.Join(root, "route/forest.auto.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ")
}

func TestWriteJSONWithOmitReplacer(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	value := map[string]any{"keep": "yes", "secret": "no"}
	replacer := func(path []string, v any) (any, bool) {
		if len(path) == 1 && path[0] == "secret" {
			return nil, false
		}
		return v, true
	}
	require.NoError(t, store.WriteJSON("entry/x.auto.json", value, JSONOptions{OmitReplacer: replacer}))

	data, err := os.ReadFile(filepath.Join(root, "entry/x.auto.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "keep")
	assert.NotContains(t, string(data), "secret")
}
