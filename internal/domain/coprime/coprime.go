// Package coprime produces small integers coprime to a modulus. They are used as
// sequence roots so synthetic patterns do not alias each other.
package coprime

import (
	"fmt"

	"github.com/okian/detbench/pkg/errkind"
)

// firstCandidate is the smallest root ever returned; 1 is coprime to everything.
const firstCandidate = 2

// GCD returns the greatest common divisor of a and b using the iterative
// Euclidean algorithm. The result is non-negative.
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// Roots returns the first count integers, increasing from 2, whose gcd with n is 1.
// n must be at least 1; count <= 0 yields an empty slice.
func Roots(n, count int) ([]int, error) {
	const op = "coprime.roots"
	if n < 1 {
		return nil, errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("%w: %d", ErrInvalidModulus, n))
	}
	if count <= 0 {
		return []int{}, nil
	}

	roots := make([]int, 0, count)
	for c := firstCandidate; len(roots) < count; c++ {
		if GCD(n, c) == 1 {
			roots = append(roots, c)
		}
	}
	return roots, nil
}
