package directive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncludeCandidatesRendersReferencedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snippet.sql"), []byte("select 1;\n"), 0o644))

	src := "" +
		"select 0;\n" +
		"-- #include widgets --file snippet.sql\n" +
		"stale content\n" +
		"-- #includeEnd widgets\n" +
		"select 2;\n"

	var out bytes.Buffer
	_, err := Run(bytes.NewReader([]byte(src)), &out, Options{
		IsCandidate: IncludeCandidates("--", dir),
	})
	require.NoError(t, err)

	want := "" +
		"select 0;\n" +
		"-- #include widgets --file snippet.sql\n" +
		"select 1;\n" +
		"-- #includeEnd widgets\n" +
		"select 2;\n"
	require.Equal(t, want, out.String())
}

func TestIncludeCandidatesRejectsMismatchedBlockName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snippet.sql"), []byte("select 1;\n"), 0o644))

	src := "" +
		"-- #include widgets --file snippet.sql\n" +
		"inner\n" +
		"-- #includeEnd other\n"

	var out bytes.Buffer
	_, err := Run(bytes.NewReader([]byte(src)), &out, Options{
		IsCandidate: IncludeCandidates("--", dir),
		OnError:     func(err error, ctx ErrorContext) string { return ActionContinue },
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), "inner")
}
