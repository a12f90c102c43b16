// Package recovery restores files whose planned ranges were encrypted with a
// reused keystream, given the recovered 64-byte keyblock.
package recovery

import (
	"fmt"
	"os"
	"slices"

	"github.com/fhilgers/rangeplan/internal/config"
	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/fhilgers/rangeplan/internal/filename"
	"github.com/fhilgers/rangeplan/internal/finder"
	"github.com/fhilgers/rangeplan/internal/footer"
	"github.com/fhilgers/rangeplan/internal/keystream"
	"github.com/fhilgers/rangeplan/pkg/planner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ProgressEvery is how many ranges pass between progress log lines.
const ProgressEvery = 1 << 18

type Session struct {
	config.Config

	fs  afero.Fs
	log *logrus.Logger
}

func New(c config.Config, fs afero.Fs, log *logrus.Logger) (*Session, error) {
	if log == nil {
		log = c.Logger()
	}

	return &Session{Config: c, fs: fs, log: log}, nil
}

// EffectiveSize is the length the Layout for path is computed from.
func (s *Session) EffectiveSize(path string) (int64, error) {
	return footer.EffectiveSize(s.fs, path, s.MagicBytes(), !s.HasMagic())
}

// Ranges returns the Layout of path's effective size.
func (s *Session) Ranges(path string) ([]planner.Range, error) {
	size, err := s.EffectiveSize(path)
	if err != nil {
		return nil, err
	}

	return slices.Collect(Layout(size)), nil
}

type DecryptOptions struct {
	DryRun bool
	// AssumeSize overrides the detected length when positive.
	AssumeSize int64
	StartAt    int64
}

type DecryptReport struct {
	Path     string `json:"path" yaml:"path"`
	Restored string `json:"restored,omitempty" yaml:"restored,omitempty"`
	Backup   string `json:"backup,omitempty" yaml:"backup,omitempty"`
	Size     int64  `json:"size" yaml:"size"`
	Ranges   int64  `json:"ranges" yaml:"ranges"`
	Blocks   int64  `json:"blocks" yaml:"blocks"`
	Skipped  int64  `json:"skipped" yaml:"skipped"`
	DryRun   bool   `json:"dryRun" yaml:"dryRun"`
}

func (s *Session) Decrypt(path string, keyblock []byte, opts DecryptOptions) (DecryptReport, error) {
	report := DecryptReport{Path: path, DryRun: opts.DryRun}

	if len(keyblock) != constants.KeyBlockSize {
		return report, fmt.Errorf("keyblock must be %d bytes, got %d", constants.KeyBlockSize, len(keyblock))
	}

	size := opts.AssumeSize
	if size <= 0 {
		var err error
		if size, err = s.EffectiveSize(path); err != nil {
			return report, err
		}
	}
	report.Size = size

	if !opts.DryRun && s.HasMagic() {
		backup, err := footer.Backup(s.fs, path, s.MagicBytes(), s.MagicExt)
		if err != nil {
			return report, fmt.Errorf("backing up footer: %w", err)
		}
		report.Backup = backup
	}

	flag := os.O_RDWR
	if opts.DryRun {
		flag = os.O_RDONLY
	}

	f, err := s.fs.OpenFile(path, flag, 0)
	if err != nil {
		return report, err
	}

	d := keystream.NewDecrypter(f, keystream.Options{
		DryRun:        opts.DryRun,
		Lower:         opts.StartAt,
		ProgressEvery: ProgressEvery,
		Logger:        s.log,
	})

	ReplayLayout(size, keyblock, d)
	report.Ranges, report.Blocks, report.Skipped = d.Ranges(), d.Blocks(), d.Skipped()

	if err := d.Err(); err != nil {
		f.Close()
		return report, err
	}

	if err := f.Close(); err != nil {
		return report, err
	}

	s.log.WithFields(logrus.Fields{
		"path":   path,
		"size":   size,
		"ranges": report.Ranges,
		"dry":    opts.DryRun,
	}).Info("decrypted")

	if !opts.DryRun && s.HasMagic() {
		restored, err := filename.Restore(s.fs, path, s.MagicExt)
		if err != nil {
			return report, fmt.Errorf("restoring file name: %w", err)
		}
		report.Restored = restored
	}

	return report, nil
}

type FindOptions struct {
	StartAt   int64
	EndAt     int64
	FindFirst bool
}

// Find returns the Layout offsets of path whose block equals needle. The
// plan is computed from the raw file size.
func (s *Session) Find(path string, needle []byte, opts FindOptions) ([]int64, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	fd, err := finder.New(f, needle, finder.Options{
		Lower:     opts.StartAt,
		Upper:     opts.EndAt,
		FindFirst: opts.FindFirst,
		Logger:    s.log,
	})
	if err != nil {
		return nil, err
	}

	ReplayLayout(info.Size(), nil, fd)

	return fd.Matches(), fd.Err()
}
