package testutils

import (
	"github.com/fhilgers/rangeplan/internal/constants"
	"pgregory.net/rapid"
)

func FixedSizeByteArray(constant int) *rapid.Generator[[]byte] {
	return rapid.SliceOfN(rapid.Byte(), constant, constant)
}

func TinyLength() *rapid.Generator[int64] {
	return rapid.Int64Range(0, constants.TinyLimit-1)
}

func LargeLength() *rapid.Generator[int64] {
	return rapid.Int64Range(constants.LargeThreshold+1, constants.ExtremeThreshold)
}

func ExtremeLength() *rapid.Generator[int64] {
	return rapid.Int64Range(constants.ExtremeThreshold+1, 64*constants.ExtremeThreshold)
}

// Length draws lengths small enough to be fully enumerated by a test.
func Length(max int64) *rapid.Generator[int64] {
	return rapid.Int64Range(0, max)
}
