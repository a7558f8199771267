// Package fibonacci provides Fibonacci calculators under the standard
// recurrence fib(0)=0, fib(1)=1, fib(n)=fib(n-1)+fib(n-2).
package fibonacci

import (
	"context"
	"math/big"
	"math/bits"
)

// cancelCheckInterval is the number of loop iterations between context
// cancellation checks. Checking ctx.Err() on every iteration measurably slows
// the tight accumulator loop for larger indices.
const cancelCheckInterval = 1024

// Calculator computes Fibonacci values. Implementations must be safe for
// concurrent use: the compute worker may run several instances in parallel.
type Calculator interface {
	// Name returns a human-readable identifier of the algorithm.
	Name() string

	// Calculate computes fib(n). It honors context cancellation and returns
	// ctx.Err() if the context is done before the computation completes.
	Calculate(ctx context.Context, n uint64) (*big.Int, error)
}

// Iterative computes Fibonacci values with the classic two-accumulator
// iteration. O(n) big.Int additions; ideal for the bounded indices the
// service accepts, where the simplicity beats fast doubling's constant
// factors.
type Iterative struct{}

// NewIterative creates the iterative calculator.
func NewIterative() *Iterative { return &Iterative{} }

// Name returns the algorithm identifier.
func (c *Iterative) Name() string { return "Iterative (O(n), Two-Accumulator)" }

// Calculate computes fib(n) iteratively.
//
// Parameters:
//   - ctx: The context for cancellation.
//   - n: The Fibonacci index.
//
// Returns:
//   - *big.Int: The computed value, nil on error.
//   - error: ctx.Err() if the context was canceled.
func (c *Iterative) Calculate(ctx context.Context, n uint64) (*big.Int, error) {
	// Base cases per the recurrence definition.
	if n == 0 {
		return big.NewInt(0), nil
	}
	if n == 1 {
		return big.NewInt(1), nil
	}

	prev := big.NewInt(0)
	curr := big.NewInt(1)
	for i := uint64(2); i <= n; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		prev.Add(prev, curr)
		prev, curr = curr, prev
	}
	return curr, nil
}

// FastDoubling computes Fibonacci values with the fast doubling identities:
//
//	F(2k)   = F(k) * (2*F(k+1) - F(k))
//	F(2k+1) = F(k)² + F(k+1)²
//
// O(log n) big.Int multiplications. Kept as an alternative backend and as a
// cross-validation oracle for the iterative path.
type FastDoubling struct{}

// NewFastDoubling creates the fast doubling calculator.
func NewFastDoubling() *FastDoubling { return &FastDoubling{} }

// Name returns the algorithm identifier.
func (c *FastDoubling) Name() string { return "Fast Doubling (O(log n))" }

// Calculate computes fib(n) by iterating over the bits of n from most to
// least significant, maintaining the pair (F(k), F(k+1)).
func (c *FastDoubling) Calculate(ctx context.Context, n uint64) (*big.Int, error) {
	if n == 0 {
		return big.NewInt(0), nil
	}
	if n == 1 {
		return big.NewInt(1), nil
	}

	a := big.NewInt(0) // F(k)
	b := big.NewInt(1) // F(k+1)
	t1 := new(big.Int)
	t2 := new(big.Int)

	for bit := 63 - bits.LeadingZeros64(n); bit >= 0; bit-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// c = a * (2b - a); d = a² + b²
		t1.Lsh(b, 1)
		t1.Sub(t1, a)
		t1.Mul(a, t1)
		t2.Mul(a, a)
		t2.Add(t2, new(big.Int).Mul(b, b))

		a.Set(t1)
		b.Set(t2)
		if n&(1<<uint(bit)) != 0 {
			// Advance the pair: (F(2k+1), F(2k+2))
			t1.Add(a, b)
			a.Set(b)
			b.Set(t1)
		}
	}
	return a, nil
}
