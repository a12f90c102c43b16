package footer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/fhilgers/rangeplan/internal/filename"
	"github.com/spf13/afero"
)

var ErrNoMagic = errors.New("footer magic not found")

// ValidateMagic checks a NUL-terminated magic and its file extension.
func ValidateMagic(magic []byte, ext string) error {
	if len(magic) != constants.MagicSize {
		return fmt.Errorf("magic must be %d bytes including the trailing NUL, got %d", constants.MagicSize, len(magic))
	}

	if magic[len(magic)-1] != 0 {
		return fmt.Errorf("magic is not NUL-terminated: %q", magic)
	}

	if len(ext) != constants.MagicExtLen {
		return fmt.Errorf("magic extension must be %d characters, got %d", constants.MagicExtLen, len(ext))
	}

	return nil
}

// ReadMagic returns the last MagicSize bytes of r.
func ReadMagic(r io.ReadSeeker) ([]byte, error) {
	if _, err := r.Seek(-constants.MagicSize, io.SeekEnd); err != nil {
		return nil, err
	}

	magic := make([]byte, constants.MagicSize)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, err
	}

	return magic, nil
}

func Detect(fs afero.Fs, path string, magic []byte) (bool, error) {
	f, err := fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	found, err := ReadMagic(f)
	if err != nil {
		return false, fmt.Errorf("reading magic of %s: %w", path, err)
	}

	return bytes.Equal(found, magic), nil
}

// EffectiveSize is the length the plan was computed for: the file size
// without the footer if the magic is present.
func EffectiveSize(fs afero.Fs, path string, magic []byte, ignore bool) (int64, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return 0, err
	}

	if ignore {
		return info.Size(), nil
	}

	ok, err := Detect(fs, path, magic)
	if err != nil {
		return 0, err
	}

	if !ok {
		return info.Size(), nil
	}

	return info.Size() - constants.FooterSize, nil
}

// Backup copies the footer next to path and truncates it off. The backup
// file must not exist.
func Backup(fs afero.Fs, path string, magic []byte, ext string) (string, error) {
	ok, err := Detect(fs, path, magic)
	if err != nil {
		return "", err
	}

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoMagic, path)
	}

	f, err := fs.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	start := info.Size() - constants.FooterSize
	if start < 0 {
		return "", fmt.Errorf("file %s is smaller than the footer", path)
	}

	footer := make([]byte, constants.FooterSize)
	if _, err := f.ReadAt(footer, start); err != nil {
		return "", fmt.Errorf("reading footer of %s: %w", path, err)
	}

	backup := filename.BackupName(path, ext)

	b, err := fs.OpenFile(backup, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", err
	}

	if _, err := b.Write(footer); err != nil {
		b.Close()
		return "", err
	}

	if err := b.Close(); err != nil {
		return "", err
	}

	return backup, f.Truncate(start)
}
