package testutils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WithTestdata runs fn once per named case of every testdata/*.input file,
// paired with the case of the same name in the matching .golden file.
func WithTestdata[INPUT, GOLDEN any](
	t *testing.T,
	fn func(t *testing.T, input INPUT, golden GOLDEN),
) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.input"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no testdata")

	for _, path := range paths {
		testname := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		var input map[string]INPUT
		readJSON(t, path, &input)

		var golden map[string]GOLDEN
		readJSON(t, filepath.Join("testdata", testname+".golden"), &golden)

		names := make([]string, 0, len(input))
		for name := range input {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			want, ok := golden[name]
			require.Truef(t, ok, "no golden value for %s:%s", testname, name)

			t.Run(testname+":"+name, func(t *testing.T) {
				fn(t, input[name], want)
			})
		}
	}
}

func readJSON(t *testing.T, path string, v any) {
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(contents, v))
}
