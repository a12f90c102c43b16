// Package keystream undoes a keystream that was reused for every block of a
// file. Each planned range is processed in 64-byte blocks: the plaintext is
// the ciphertext XOR the recovered keyblock XOR the previous ciphertext
// block of the same range.
package keystream

import (
	"fmt"
	"io"

	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/sirupsen/logrus"
)

type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

type Options struct {
	DryRun bool

	// Only ranges starting in [Lower, Upper) are touched. Upper <= 0 means
	// no upper limit.
	Lower int64
	Upper int64

	// ProgressEvery logs progress after that many ranges. Zero disables it.
	ProgressEvery int64
	Logger        *logrus.Logger
}

// Decrypter is a planner sink. The key handle of every range must be the
// recovered keyblock. The first error stops further processing and is
// reported by Err.
type Decrypter struct {
	rw   ReadWriterAt
	opts Options

	cur, prev, plain []byte

	ranges  int64
	blocks  int64
	skipped int64
	err     error
}

func NewDecrypter(rw ReadWriterAt, opts Options) *Decrypter {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	return &Decrypter{
		rw:    rw,
		opts:  opts,
		cur:   make([]byte, constants.BlockSize),
		prev:  make([]byte, constants.BlockSize),
		plain: make([]byte, constants.BlockSize),
	}
}

func (d *Decrypter) EncryptRange(start, length, total int64, key any) {
	if d.err != nil {
		return
	}

	if start < d.opts.Lower || (d.opts.Upper > 0 && start >= d.opts.Upper) {
		d.skipped++
		return
	}

	keyblock, ok := key.([]byte)
	if !ok || len(keyblock) != constants.KeyBlockSize {
		d.err = fmt.Errorf("keyblock must be %d bytes", constants.KeyBlockSize)
		return
	}

	clear(d.prev)

	for off := start; off+constants.BlockSize <= start+length; off += constants.BlockSize {
		if _, err := d.rw.ReadAt(d.cur, off); err != nil {
			d.err = fmt.Errorf("reading block at %d: %w", off, err)
			return
		}

		XORBlock(d.plain, d.cur, keyblock)
		XORBlock(d.plain, d.plain, d.prev)

		if !d.opts.DryRun {
			if _, err := d.rw.WriteAt(d.plain, off); err != nil {
				d.err = fmt.Errorf("writing block at %d: %w", off, err)
				return
			}
		}

		copy(d.prev, d.cur)
		d.blocks++
	}

	d.ranges++

	if d.opts.ProgressEvery > 0 && d.ranges%d.opts.ProgressEvery == 0 {
		d.opts.Logger.WithFields(logrus.Fields{
			"offset":  start,
			"total":   total,
			"percent": fmt.Sprintf("%05.3f", float64(start)/float64(total)*100),
		}).Info("decrypting")
	}
}

func (d *Decrypter) Err() error {
	return d.err
}

// Ranges is the number of ranges processed.
func (d *Decrypter) Ranges() int64 {
	return d.ranges
}

// Blocks is the number of 64-byte blocks processed.
func (d *Decrypter) Blocks() int64 {
	return d.blocks
}

// Skipped is the number of ranges outside the configured limits.
func (d *Decrypter) Skipped() int64 {
	return d.skipped
}

// XORBlock stores a XOR b into dst and returns the number of bytes written,
// which is the length of the shortest argument.
func XORBlock(dst, a, b []byte) int {
	n := min(len(dst), len(a), len(b))
	for i := 0; i < n; i++ {
		dst[i] = a[i] ^ b[i]
	}

	return n
}
