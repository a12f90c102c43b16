package recovery

import (
	"iter"

	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/fhilgers/rangeplan/pkg/planner"
)

const (
	layoutSmallSkip = 3 * constants.BlockSize
	layoutLargeSkip = 100 * constants.BlockSize
)

// Layout yields the ranges found encrypted in files of the given size:
//   - below TinyLimit one range of all whole blocks,
//   - up to 1 GiB one block every 192 bytes,
//   - above that a LargeHead prefix, then one block every 6400 bytes.
//
// Ranges never extend past size.
func Layout(size int64) iter.Seq[planner.Range] {
	return func(yield func(planner.Range) bool) {
		var pos, skip int64

		switch {
		case size < constants.TinyLimit:
			yield(planner.Range{Offset: 0, Length: size - size%constants.BlockSize})
			return
		case size <= constants.ExtremeThreshold:
			skip = layoutSmallSkip
		default:
			if !yield(planner.Range{Offset: 0, Length: constants.LargeHead}) {
				return
			}
			pos, skip = constants.LargeHead, layoutLargeSkip
		}

		for ; pos+constants.BlockSize <= size; pos += skip {
			if !yield(planner.Range{Offset: pos, Length: constants.BlockSize}) {
				return
			}
		}
	}
}

// ReplayLayout hands the Layout ranges for size to sink and returns how many
// it handed over.
func ReplayLayout(size int64, key planner.KeyHandle, sink planner.Sink) int64 {
	var n int64
	for r := range Layout(size) {
		sink.EncryptRange(r.Offset, r.Length, size, key)
		n++
	}

	return n
}
