package vecmath

import (
	"errors"
	"math"
	"testing"

	"github.com/hsn0918/codegraph/pkg/codegraph"
)

func TestDot(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 14},
		{"empty", []float32{}, []float32{}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Dot(tc.a, tc.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Dot(%v,%v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestDotDimensionMismatch(t *testing.T) {
	_, err := Dot([]float32{1, 2}, []float32{1})
	if !errors.Is(err, codegraph.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNormalizeUnit(t *testing.T) {
	v := Normalize([]float32{3, 4})
	n := NormSquared(v)
	if math.Abs(n-1) > 1e-6 {
		t.Errorf("expected unit norm, got %v", n)
	}
}

func TestNormalizeZeroVectorUnchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	got := Normalize(v)
	for i := range got {
		if got[i] != v[i] {
			t.Fatalf("expected zero vector unchanged, got %v", got)
		}
	}
}

func TestRngDeterministic(t *testing.T) {
	r1 := NewRng(1337)
	r2 := NewRng(1337)
	for i := 0; i < 100; i++ {
		if r1.Next() != r2.Next() {
			t.Fatalf("rng sequences diverged at step %d", i)
		}
	}
}

func TestRngDifferentSeeds(t *testing.T) {
	r1 := NewRng(1)
	r2 := NewRng(2)
	if r1.Next() == r2.Next() {
		t.Error("expected different seeds to diverge on first draw")
	}
}

func TestRandomUnitVectorIsUnitNorm(t *testing.T) {
	rng := NewRng(42)
	v := RandomUnitVector(16, rng)
	n := NormSquared(v)
	if math.Abs(n-1) > 1e-6 {
		t.Errorf("expected unit norm, got %v", n)
	}
}

func TestRandomUnitVectorDeterministicPerSeed(t *testing.T) {
	v1 := RandomUnitVector(8, NewRng(7))
	v2 := RandomUnitVector(8, NewRng(7))
	for i := range v1 {
		if v1[i] != v2[i] {
			t.Fatalf("expected identical vectors for identical seed, diverged at %d", i)
		}
	}
}
