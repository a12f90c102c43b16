package bracket

import (
	"fmt"

	"github.com/fhilgers/rangeplan/internal/constants"
	"github.com/fhilgers/rangeplan/internal/emitter"
)

type Bracket int

const (
	Tiny Bracket = iota
	Extreme
	Large
	Default
)

func (b Bracket) String() string {
	switch b {
	case Tiny:
		return "tiny"
	case Extreme:
		return "extreme"
	case Large:
		return "large"
	case Default:
		return "default"
	default:
		return fmt.Sprintf("bracket(%d)", int(b))
	}
}

func (b Bracket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Parameters are the seed values a bracket contributes to a plan.
type Parameters struct {
	Bracket Bracket

	Divisor float64
	Seed    float64

	// Head is scheduled in full before the residual length is planned.
	Head         *emitter.Range
	ConsumedHead int64
}

// Classify maps a total length to its bracket. The checks run in order, so
// lengths above ExtremeThreshold never reach the Large test.
func Classify(length int64) Parameters {
	switch {
	case length < constants.TinyLimit:
		return Parameters{
			Bracket: Tiny,
			Divisor: constants.TinyDivisor,
			Seed:    constants.TinySeed,
		}
	case length > constants.ExtremeThreshold:
		return withHead(Extreme, constants.ExtremeDivisor, constants.ExtremeSeed, constants.ExtremeHead)
	case length > constants.LargeThreshold:
		return withHead(Large, constants.LargeDivisor, constants.LargeSeed, constants.LargeHead)
	default:
		return Parameters{
			Bracket: Default,
			Seed:    constants.DefaultSeed,
		}
	}
}

func withHead(b Bracket, divisor, seed float64, head int64) Parameters {
	return Parameters{
		Bracket:      b,
		Divisor:      divisor,
		Seed:         seed,
		Head:         &emitter.Range{Offset: 0, Length: head},
		ConsumedHead: head,
	}
}
