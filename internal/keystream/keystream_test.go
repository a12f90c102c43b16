package keystream_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/fhilgers/rangeplan/internal/keystream"
	"github.com/fhilgers/rangeplan/internal/testutils"
	"github.com/fhilgers/rangeplan/pkg/planner"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// encrypter is the inverse of the decrypter, used to build fixtures.
func encrypter(t require.TestingT, f afero.File) planner.Sink {
	return planner.SinkFunc(func(start, length, _ int64, key planner.KeyHandle) {
		keyblock := key.([]byte)
		prev := make([]byte, constants.BlockSize)
		block := make([]byte, constants.BlockSize)

		for off := start; off+constants.BlockSize <= start+length; off += constants.BlockSize {
			_, err := f.ReadAt(block, off)
			require.NoError(t, err)

			keystream.XORBlock(block, block, keyblock)
			keystream.XORBlock(block, block, prev)

			_, err = f.WriteAt(block, off)
			require.NoError(t, err)

			copy(prev, block)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	p, err := planner.New(planner.Options{Mode: planner.ModeUnchecked})
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(0, 64*1024).Draw(t, "length")
		src := testutils.FixedSizeByteArray(length).Draw(t, "src")
		keyblock := testutils.FixedSizeByteArray(constants.KeyBlockSize).Draw(t, "keyblock")

		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/f", src, 0o644))

		f, err := fs.OpenFile("/f", os.O_RDWR, 0)
		require.NoError(t, err)
		defer f.Close()

		_, err = p.Plan(int64(length), keyblock, encrypter(t, f))
		require.NoError(t, err)

		d := keystream.NewDecrypter(f, keystream.Options{})
		_, err = p.Plan(int64(length), keyblock, d)
		require.NoError(t, err)
		require.NoError(t, d.Err())

		got, err := afero.ReadFile(fs, "/f")
		require.NoError(t, err)
		assert.True(t, bytes.Equal(src, got), "plaintext not restored")
	})
}

func TestDryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := bytes.Repeat([]byte{0x42}, 640)
	require.NoError(t, afero.WriteFile(fs, "/f", src, 0o644))

	f, err := fs.OpenFile("/f", os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	d := keystream.NewDecrypter(f, keystream.Options{DryRun: true})
	d.EncryptRange(0, 200, 640, make([]byte, constants.KeyBlockSize))
	require.NoError(t, d.Err())

	assert.Equal(t, int64(1), d.Ranges())
	assert.Equal(t, int64(3), d.Blocks())

	got, err := afero.ReadFile(fs, "/f")
	require.NoError(t, err)
	assert.Equal(t, src, got)
}

func TestLimits(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f", make([]byte, 1024), 0o644))

	f, err := fs.OpenFile("/f", os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	key := make([]byte, constants.KeyBlockSize)
	d := keystream.NewDecrypter(f, keystream.Options{Lower: 128, Upper: 512})

	for off := int64(0); off < 1024; off += 64 {
		d.EncryptRange(off, 64, 1024, key)
	}

	require.NoError(t, d.Err())
	assert.Equal(t, int64(6), d.Ranges())
	assert.Equal(t, int64(10), d.Skipped())
}

func TestBadKeyblock(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f", make([]byte, 128), 0o644))

	f, err := fs.OpenFile("/f", os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	d := keystream.NewDecrypter(f, keystream.Options{})
	d.EncryptRange(0, 64, 128, []byte("short"))
	assert.Error(t, d.Err())

	d.EncryptRange(64, 64, 128, make([]byte, constants.KeyBlockSize))
	assert.Zero(t, d.Ranges())
}

func TestXORBlock(t *testing.T) {
	dst := make([]byte, 4)
	n := keystream.XORBlock(dst, []byte{1, 2, 3}, []byte{1, 0, 1, 7})

	assert.Equal(t, 3, n)
	assert.Equal(t, []byte{0, 2, 2, 0}, dst)
}
