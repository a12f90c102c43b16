package ratio

import "github.com/fhilgers/rangeplan/internal/bracket"

// Resolve returns the encryption ratio for a bracket. It is the ratio the
// skip step is derived from for every bracket.
func Resolve(p bracket.Parameters, blocks int64) float64 {
	return p.Seed * float64(blocks)
}

// Transient is the blocks/divisor value computed by brackets that carry a
// divisor. It is reported for diagnostics and never feeds a plan.
func Transient(p bracket.Parameters, blocks int64) float64 {
	if p.Divisor == 0 {
		return 0
	}

	return float64(blocks) / p.Divisor
}
