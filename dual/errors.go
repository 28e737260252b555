// SPDX-License-Identifier: MIT

package dual

import (
	"errors"
	"fmt"
)

// ErrWidthMismatch is the panic value raised when two non-constant numbers
// with different derivative widths are combined.
var ErrWidthMismatch = errors.New("dual: derivative width mismatch")

// ErrBadSeed is returned by Seed-like helpers on an out-of-range direction.
var ErrBadSeed = errors.New("dual: seed index out of range")

// widthOf returns the derivative width shared by a and b.
// Constants (width 0) adopt the width of the other operand.
func widthOf(a, b Number) int {
	wa, wb := len(a.Eps), len(b.Eps)
	switch {
	case wa == 0:
		return wb
	case wb == 0, wa == wb:
		return wa
	default:
		panic(fmt.Errorf("%w: %d vs %d", ErrWidthMismatch, wa, wb))
	}
}
