package filename

import (
	"path/filepath"
	"strings"

	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/spf13/afero"
)

// StripExt removes a trailing ".<ext>" from name.
func StripExt(name, ext string) (string, bool) {
	if ext == "" || filepath.Ext(name) != "."+ext {
		return name, false
	}

	return strings.TrimSuffix(name, "."+ext), true
}

// BackupName is where the footer of path is kept.
func BackupName(path, ext string) string {
	stripped, _ := StripExt(path, ext)

	return stripped + "." + ext + constants.BackupSuffix
}

// Restore renames path to its name without the encryptor's extension and
// returns the resulting path.
func Restore(fs afero.Fs, path, ext string) (string, error) {
	stripped, ok := StripExt(path, ext)
	if !ok {
		return path, nil
	}

	if err := fs.Rename(path, stripped); err != nil {
		return path, err
	}

	return stripped, nil
}
