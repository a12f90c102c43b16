package blocks

import (
	"fmt"

	"github.com/fhilgers/rangeplan/internal/constants"
)

// InputRangeError reports a residual length below zero.
type InputRangeError struct {
	Residual int64
}

func (e *InputRangeError) Error() string {
	return fmt.Sprintf("residual length out of range: %d", e.Residual)
}

// Count returns the number of whole blocks in residual.
func Count(residual int64) (int64, error) {
	if residual < 0 {
		return 0, &InputRangeError{Residual: residual}
	}

	return residual / constants.BlockSize, nil
}
