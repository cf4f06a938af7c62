// Package reference produces golden tanh values for the verification
// harness. A generator is any batched vector function; the harness runs
// with one or more of them and does not care how they are implemented.
package reference

import (
	"context"
	"math"
)

// Generator computes reference tanh values for a batch of inputs, one
// output per input, in order.
type Generator interface {
	Name() string
	Tanh(ctx context.Context, in []float32) ([]float32, error)
}

// Scalar evaluates the math-library tanh one element at a time.
type Scalar struct{}

func (Scalar) Name() string { return "scalar-tanh" }

func (Scalar) Tanh(ctx context.Context, in []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float32, len(in))
	for i, x := range in {
		out[i] = float32(math.Tanh(float64(x)))
	}
	return out, nil
}
