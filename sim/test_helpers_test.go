package sim

import (
	"math"
	"testing"

	"github.com/bam241/recycle/nuc"
)

// testComp builds a composition or fails the test.
func testComp(t *testing.T, masses map[nuc.Nuc]float64) *Composition {
	t.Helper()
	c, err := NewComposition(masses)
	if err != nil {
		t.Fatalf("NewComposition: %v", err)
	}
	return c
}

// testMat builds a material or fails the test.
func testMat(t *testing.T, masses map[nuc.Nuc]float64, qty float64) *Material {
	t.Helper()
	m, err := NewMaterial(testComp(t, masses), qty)
	if err != nil {
		t.Fatalf("NewMaterial: %v", err)
	}
	return m
}

// natU is the natural uranium composition used across kernel tests.
func natU(t *testing.T) *Composition {
	t.Helper()
	return testComp(t, map[nuc.Nuc]float64{nuc.U235: 0.0072, nuc.U238: 0.9928})
}

// almost reports float equality within 1e-9, loose enough for chained
// blends and tight enough to catch real arithmetic mistakes.
func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
