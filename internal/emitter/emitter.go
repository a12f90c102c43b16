package emitter

import (
	"fmt"
	"iter"

	"github.com/fhilgers/rangeplan/internal/constants"
)

// Range is a span of bytes handed to a sink.
type Range struct {
	Offset int64 `json:"offset" yaml:"offset"`
	Length int64 `json:"length" yaml:"length"`
}

// End returns the first offset past the range.
func (r Range) End() int64 {
	return r.Offset + r.Length
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Offset, r.End())
}

// Ranges walks blocks in steps of step blocks starting at the byte offset
// start and yields one block-sized range per step. The walk test runs after
// each emission, so at least one range is yielded when blocks > 0.
func Ranges(start, blocks, step int64) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		if blocks <= 0 || step <= 0 {
			return
		}

		stride := step * constants.BlockSize
		pos := start
		walked := step

		for {
			if !yield(Range{Offset: pos, Length: constants.BlockSize}) {
				return
			}

			pos += stride

			more := walked < blocks
			walked += step
			if !more {
				return
			}
		}
	}
}

// Count returns how many ranges Ranges yields for the same arguments.
func Count(blocks, step int64) int64 {
	if blocks <= 0 || step <= 0 {
		return 0
	}

	return (blocks-1)/step + 1
}
