package filename

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStripExt(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-z]{1,12}\.txt`).Draw(t, "name")
		ext := rapid.StringMatching(`[a-zA-Z0-9]{9}`).Draw(t, "ext")

		stripped, ok := StripExt(name+"."+ext, ext)
		assert.True(t, ok)
		assert.Equal(t, name, stripped)

		stripped, ok = StripExt(name, ext)
		assert.False(t, ok)
		assert.Equal(t, name, stripped)
	})
}

func TestBackupName(t *testing.T) {
	assert.Equal(t, "/data/a.txt.abcdefghi.kbckp", BackupName("/data/a.txt.abcdefghi", "abcdefghi"))
	assert.Equal(t, "/data/a.txt.abcdefghi.kbckp", BackupName("/data/a.txt", "abcdefghi"))
}

func TestRestore(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/a.txt.abcdefghi", []byte("x"), 0o644))

	p, err := Restore(fs, "/data/a.txt.abcdefghi", "abcdefghi")
	require.NoError(t, err)
	assert.Equal(t, "/data/a.txt", p)

	ok, err := afero.Exists(fs, "/data/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	p, err = Restore(fs, "/data/a.txt", "abcdefghi")
	require.NoError(t, err)
	assert.Equal(t, "/data/a.txt", p)
}
