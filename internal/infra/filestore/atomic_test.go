package filestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteAndReadFileOrEmpty(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "session.json")

	require.NoError(t, AtomicWrite(target, []byte(`{"a":1}`), 0o644))

	data, err := ReadFileOrEmpty(target)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	// no leftover temp file
	_, err = os.Stat(target + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestReadFileOrEmptyMissing(t *testing.T) {
	dir := t.TempDir()
	data, err := ReadFileOrEmpty(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestResolvePathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "foo"), ResolvePath("~/foo", ""))
	assert.Equal(t, home, ResolvePath("~", ""))
	assert.Equal(t, "/explicit", ResolvePath("/explicit", "/default"))
	assert.Equal(t, "/default", ResolvePath("", "/default"))
}

func TestIsPathSafe(t *testing.T) {
	assert.True(t, IsPathSafe("agent-1"))
	assert.False(t, IsPathSafe(""))
	assert.False(t, IsPathSafe("."))
	assert.False(t, IsPathSafe(".."))
	assert.False(t, IsPathSafe("a/b"))
	assert.False(t, IsPathSafe("../escape"))
}

func TestMarshalJSONIndent(t *testing.T) {
	data, err := MarshalJSONIndent(map[string]int{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"x\": 1\n}\n", string(data))
}
