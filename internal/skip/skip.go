package skip

import (
	"fmt"

	"github.com/fhilgers/rangeplan/internal/constants"
)

// Decision is the outcome of deriving a skip step.
type Decision struct {
	// SinglePass means the residual is covered by one range instead of
	// stepped chunks.
	SinglePass bool
	Step       int64
	Truncated  int64
}

// PolicyViolation is a skip step that differs from the expected value.
type PolicyViolation struct {
	Step     int64
	Expected int64
}

func (v *PolicyViolation) Bytes() int64 {
	return v.Step * constants.BlockSize
}

func (v *PolicyViolation) Error() string {
	return fmt.Sprintf("skip %d: %d", v.Step, v.Bytes())
}

// Derive converts a block count and a ratio into a skip step. The ratio is
// truncated toward zero before dividing.
func Derive(blocks int64, ratio float64) Decision {
	truncated := int64(ratio)
	if truncated == 0 {
		return Decision{SinglePass: true}
	}

	step := blocks / truncated

	return Decision{
		SinglePass: step == 0,
		Step:       step,
		Truncated:  truncated,
	}
}

// Check returns a *PolicyViolation if step is not expected.
func Check(step, expected int64) error {
	if step != expected {
		return &PolicyViolation{Step: step, Expected: expected}
	}

	return nil
}
