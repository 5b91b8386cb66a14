// Package vecmath implements the dot/normalize/seeded-PRNG primitives
// every other graph-engine component builds on. Determinism of the
// PRNG is load-bearing: the approximate candidate path replays byte-
// identical results for a fixed seed across platforms.
package vecmath

import (
	"fmt"
	"math"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

// Dot returns the element-wise dot product of a and b. Both slices
// must have equal length; otherwise it returns (NaN, DimensionMismatch).
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return math.NaN(), fmt.Errorf("%w: %d vs %d", codegraph.ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}

// MustDot panics on dimension mismatch; used only where lengths are
// already guaranteed equal by the caller (e.g. same-dimension corpus).
func MustDot(a, b []float32) float64 {
	v, err := Dot(a, b)
	if err != nil {
		panic(err)
	}
	return v
}

// Normalize returns a unit-L2 copy of v. If ‖v‖² is zero or not
// finite, it returns v unchanged — callers never see an error here,
// per the "synchronous numeric helpers never throw" rule.
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 || math.IsNaN(sumSq) || math.IsInf(sumSq, 0) {
		return v
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// NormSquared returns ‖v‖².
func NormSquared(v []float32) float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	return sumSq
}

// Rng is a deterministic Mulberry32-equivalent 32-bit PRNG. Identical
// seeds yield identical sequences on every platform; this is a
// reimplementation of the classic mulberry32 generator, not a wrapper
// around math/rand (whose sequence is not a portable contract).
type Rng struct {
	state uint32
}

// NewRng seeds a new generator.
func NewRng(seed uint32) *Rng {
	return &Rng{state: seed}
}

// Next returns the next pseudo-random float64 in [0, 1).
func (r *Rng) Next() float64 {
	r.state += 0x6D2B79F5
	z := r.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	return float64(z^(z>>14)) / 4294967296.0
}

const epsilon = 1e-12

// RandomUnitVector draws d samples from N(0,1) via Box-Muller
// (clamping u1 >= epsilon to avoid log(0)), then L2-normalizes. A
// degenerate zero vector is replaced by e0 (the first standard basis
// vector).
func RandomUnitVector(d int, rng *Rng) []float32 {
	v := make([]float32, d)
	for i := 0; i < d; i += 2 {
		u1 := rng.Next()
		if u1 < epsilon {
			u1 = epsilon
		}
		u2 := rng.Next()
		r := math.Sqrt(-2 * math.Log(u1))
		theta := 2 * math.Pi * u2
		z0 := r * math.Cos(theta)
		v[i] = float32(z0)
		if i+1 < d {
			z1 := r * math.Sin(theta)
			v[i+1] = float32(z1)
		}
	}
	normalized := Normalize(v)
	if NormSquared(normalized) == 0 {
		e0 := make([]float32, d)
		if d > 0 {
			e0[0] = 1
		}
		return e0
	}
	return normalized
}
