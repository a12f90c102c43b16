package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeErr runs a freshly built command tree so no flag state carries
// over between calls.
func executeErr(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(append(args, "--log-level", "error"))

	err := cmd.Execute()

	return buf.String(), err
}

func execute(t *testing.T, args ...string) string {
	t.Helper()

	out, err := executeErr(t, args...)
	require.NoError(t, err)

	return out
}

func memFs(t *testing.T) afero.Fs {
	orig := fs
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = orig })

	return fs
}

func TestPlanLength(t *testing.T) {
	out := execute(t, "300000000", "-o", "json", "--mode", "validate")

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, "large", report["bracket"])
	assert.Equal(t, float64(100), report["step"])
	assert.Equal(t, float64(1), report["count"])
	assert.Equal(t, "validate", report["mode"])
}

func TestPlanHexLength(t *testing.T) {
	out := execute(t, "0x40", "-o", "yaml", "--mode", "unchecked", "--ranges")

	assert.Contains(t, out, "bracket: tiny")
	assert.Contains(t, out, "offset: 0")
	assert.Contains(t, out, "length: 64")
}

func TestSweepUnchecked(t *testing.T) {
	out := execute(t, "-o", "json", "--mode", "unchecked", "--from", "0", "--to", "6000", "--workers", "2")

	var report sweepReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, int64(6000), report.Stats.Lengths)
	assert.NotEmpty(t, report.Run)
}

func TestFindCommand(t *testing.T) {
	memFs(t)

	needle := bytes.Repeat([]byte{0x11}, 64)
	data := make([]byte, 6400)
	copy(data[192:], needle)

	require.NoError(t, afero.WriteFile(fs, "/f", data, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/needle", needle, 0o644))

	out := execute(t, "find", "-o", "json", "/f", "/needle")
	assert.JSONEq(t, `{"offsets": [192]}`, out)
}

func TestFlagsDoNotLeak(t *testing.T) {
	out := execute(t, "0x40", "-o", "yaml", "--mode", "unchecked", "--ranges")
	assert.Contains(t, out, "mode: unchecked")

	out = execute(t, "300000000", "-o", "json")

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, "validate", report["mode"])
	assert.NotContains(t, report, "ranges")
}

func TestDecryptRequiresMagic(t *testing.T) {
	t.Setenv("RANGEPLAN_MAGIC", "")
	t.Setenv("RANGEPLAN_MAGIC_EXT", "")

	fs := memFs(t)
	require.NoError(t, afero.WriteFile(fs, "/f", make([]byte, 6400), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/key", make([]byte, 64), 0o644))

	_, err := executeErr(t, "decrypt", "/f", "/key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--ignore-magic")

	_, err = executeErr(t, "decrypt", "--dry", "/f", "/key")
	assert.Error(t, err)

	out := execute(t, "decrypt", "--ignore-magic", "-o", "json", "/f", "/key")

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, float64(6400), report["size"])
	assert.Equal(t, float64(34), report["ranges"])
	assert.NotContains(t, report, "restored")
}

func TestDecryptWithMagic(t *testing.T) {
	t.Setenv("RANGEPLAN_MAGIC", "abcdefghijk")
	t.Setenv("RANGEPLAN_MAGIC_EXT", "abcdefghi")

	fs := memFs(t)
	data := append(make([]byte, 6400), bytes.Repeat([]byte{0xEE}, 302)...)
	data = append(data, append([]byte("abcdefghijk"), 0)...)

	require.NoError(t, afero.WriteFile(fs, "/f.abcdefghi", data, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/key", make([]byte, 64), 0o644))

	out := execute(t, "decrypt", "-o", "json", "/f.abcdefghi", "/key")

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, "/f", report["restored"])
	assert.Equal(t, float64(6400), report["size"])

	restored, err := afero.ReadFile(fs, "/f")
	require.NoError(t, err)
	assert.Len(t, restored, 6400)
}

func TestParseInt(t *testing.T) {
	v, err := parseInt("0x10")
	require.NoError(t, err)
	assert.Equal(t, int64(16), v)

	v, err = parseInt("-1")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)

	_, err = parseInt("ten")
	assert.Error(t, err)
}
