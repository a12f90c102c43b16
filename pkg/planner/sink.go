package planner

import (
	"encoding/binary"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// KeyHandle is passed through to sinks untouched.
type KeyHandle = any

// Sink receives planned ranges. Return values are never inspected, so a sink
// that can fail must latch its own error.
type Sink interface {
	EncryptRange(start, length, total int64, key KeyHandle)
}

type SinkFunc func(start, length, total int64, key KeyHandle)

func (f SinkFunc) EncryptRange(start, length, total int64, key KeyHandle) {
	f(start, length, total, key)
}

var Discard Sink = SinkFunc(func(int64, int64, int64, KeyHandle) {})

// Recorder keeps every range it receives.
type Recorder struct {
	Ranges []Range
}

func (r *Recorder) EncryptRange(start, length, _ int64, _ KeyHandle) {
	r.Ranges = append(r.Ranges, Range{Offset: start, Length: length})
}

// Digest fingerprints a range sequence with BLAKE2b-256.
type Digest struct {
	h   hash.Hash
	n   int64
	buf [16]byte
}

func NewDigest() *Digest {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)

	return &Digest{h: h}
}

func (d *Digest) EncryptRange(start, length, _ int64, _ KeyHandle) {
	binary.BigEndian.PutUint64(d.buf[:8], uint64(start))
	binary.BigEndian.PutUint64(d.buf[8:], uint64(length))
	d.h.Write(d.buf[:])
	d.n++
}

func (d *Digest) Count() int64 {
	return d.n
}

func (d *Digest) Sum() []byte {
	return d.h.Sum(nil)
}

func (d *Digest) String() string {
	return hex.EncodeToString(d.Sum())
}

// Tee hands every range to each sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(start, length, total int64, key KeyHandle) {
		for _, s := range sinks {
			s.EncryptRange(start, length, total, key)
		}
	})
}
