package fsops

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, EnsureDir(fs, "/test/nested/dir", 0755))
	assert.True(t, IsDir(fs, "/test/nested/dir"))

	require.NoError(t, EnsureDir(fs, "/test/nested/dir", 0755))
}

func TestEnsureDirReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	err := EnsureDir(fs, "/data", 0755)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure directory")
}

func TestCheckWritable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/data", 0755))

	require.NoError(t, CheckWritable(fs, "/data"))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch file must be removed")
}

func TestCheckWritableReadOnly(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0755))

	err := CheckWritable(afero.NewReadOnlyFs(base), "/data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not writable")
}

func TestIsDirAndIsRegularFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/dir", 0755))
	require.NoError(t, afero.WriteFile(fs, "/dir/file.deb", []byte("x"), 0644))

	assert.True(t, IsDir(fs, "/dir"))
	assert.False(t, IsDir(fs, "/dir/file.deb"))
	assert.False(t, IsDir(fs, "/missing"))

	assert.True(t, IsRegularFile(fs, "/dir/file.deb"))
	assert.False(t, IsRegularFile(fs, "/dir"))
	assert.False(t, IsRegularFile(fs, "/missing"))
}
