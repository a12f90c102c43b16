// Package finder looks for a known 64-byte block at planned offsets.
package finder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/sirupsen/logrus"
)

// Finder is a planner sink. It compares the first block of every range
// whose offset lies strictly between the limits with the needle.
type Finder struct {
	r      io.ReaderAt
	needle []byte
	lower  int64
	upper  int64
	first  bool
	log    *logrus.Logger

	buf     []byte
	seen    int64
	matches []int64
	err     error
}

type Options struct {
	Lower int64
	// Upper <= 0 means the end of the file.
	Upper     int64
	FindFirst bool
	Logger    *logrus.Logger
}

func New(r io.ReaderAt, needle []byte, opts Options) (*Finder, error) {
	if len(needle) != constants.BlockSize {
		return nil, fmt.Errorf("needle must be %d bytes, got %d", constants.BlockSize, len(needle))
	}

	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	return &Finder{
		r:      r,
		needle: needle,
		lower:  opts.Lower,
		upper:  opts.Upper,
		first:  opts.FindFirst,
		log:    opts.Logger,
		buf:    make([]byte, constants.BlockSize),
	}, nil
}

func (f *Finder) EncryptRange(start, length, total int64, _ any) {
	if f.err != nil || (f.first && len(f.matches) > 0) {
		return
	}

	upper := f.upper
	if upper <= 0 {
		upper = total
	}

	if start <= f.lower || start >= upper || length < constants.BlockSize {
		return
	}

	if _, err := f.r.ReadAt(f.buf, start); err != nil {
		f.err = fmt.Errorf("reading block at %d: %w", start, err)
		return
	}

	if bytes.Equal(f.buf, f.needle) {
		f.log.WithFields(logrus.Fields{"index": f.seen, "offset": start}).Info("found needle")
		f.matches = append(f.matches, start)
	}

	f.seen++
}

func (f *Finder) Matches() []int64 {
	return f.matches
}

func (f *Finder) Err() error {
	return f.err
}
