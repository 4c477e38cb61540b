package glob

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPatterns(t *testing.T) {
	ok, err := Match("**/a/b/**", "/s3/a/b/test.bin", '/')

	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Match("/fixtures/*", "/fixtures/dumb/file", '/')

	require.NoError(t, err)
	require.False(t, ok)

	ok, err = Match("{/data,}/a/b/**", "/a/b/test.bin", '/')

	require.NoError(t, err)
	require.True(t, ok)

	_, err = Match("/a/[", "/a/b", '/')
	require.Error(t, err)
}

func TestPrefix(t *testing.T) {
	require.Equal(t, "/fixtures/", Prefix("/fixtures/*"))
	require.Equal(t, "/fixtures/a", Prefix("/fixtures/a"))
	require.True(t, IsPattern("/fixtures/*.png"))
	require.False(t, IsPattern("/fixtures/a.png"))
}

func writeFile(t *testing.T, path, data string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "a.png"), "a")
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), "c")

	matches, err := Expand(filepath.Join(dir, "*"))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "sub"),
	}, matches)

	matches, err = Expand(filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "b.txt")}, matches)

	matches, err = Expand(filepath.Join(dir, "**.txt"))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "b.txt"), filepath.Join(dir, "sub", "c.txt")}, matches)

	matches, err = Expand(filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.png")}, matches)

	_, err = Expand(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, fs.ErrNotExist)

	matches, err = Expand(filepath.Join(dir, "missing", "*"))
	require.NoError(t, err)
	require.Empty(t, matches)
}
