package sim

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bam241/recycle/nuc"
)

// Composition is an immutable nuclide-to-mass-fraction vector. Fractions
// are normalized to sum to 1 at construction, so a composition built from
// absolute masses and one built from fractions of the same mixture are
// identical.
type Composition struct {
	fracs map[nuc.Nuc]float64
}

// NewComposition normalizes the given nuclide masses into a Composition.
// Any positive scale is accepted (kg, fractions, percent). Entries must be
// non-negative and at least one must be positive.
func NewComposition(masses map[nuc.Nuc]float64) (*Composition, error) {
	total := 0.0
	for n, v := range masses {
		if v < 0 {
			return nil, fmt.Errorf("%w: mass of %v must be non-negative, got %f", ErrConfig, n, v)
		}
		total += v
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: composition holds no mass", ErrConfig)
	}
	fracs := make(map[nuc.Nuc]float64, len(masses))
	for n, v := range masses {
		if v > 0 {
			fracs[n] = v / total
		}
	}
	return &Composition{fracs: fracs}, nil
}

// MassFrac returns the mass fraction of nuclide n, 0 if absent.
func (c *Composition) MassFrac(n nuc.Nuc) float64 {
	return c.fracs[n]
}

// Nucs returns the nuclides present, sorted ascending. Iteration over a
// composition always goes through this so downstream output is
// deterministic.
func (c *Composition) Nucs() []nuc.Nuc {
	out := make([]nuc.Nuc, 0, len(c.fracs))
	for n := range c.fracs {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AlmostEqual reports whether the two compositions agree within tol on
// every nuclide across the union of their nuclides.
func (c *Composition) AlmostEqual(other *Composition, tol float64) bool {
	for n, f := range c.fracs {
		if math.Abs(f-other.MassFrac(n)) > tol {
			return false
		}
	}
	for n, f := range other.fracs {
		if math.Abs(f-c.MassFrac(n)) > tol {
			return false
		}
	}
	return true
}

// Key renders a stable textual form of the composition, used to intern
// equal compositions under one qual id in the output database.
func (c *Composition) Key() string {
	nucs := c.Nucs()
	var sb strings.Builder
	for i, n := range nucs {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Itoa(int(n)))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(c.fracs[n], 'g', 17, 64))
	}
	return sb.String()
}

func (c *Composition) String() string {
	nucs := c.Nucs()
	parts := make([]string, 0, len(nucs))
	for _, n := range nucs {
		parts = append(parts, fmt.Sprintf("%v=%.6f", n, c.fracs[n]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// blendComps returns the mass-weighted mixture of two compositions. Both
// inputs stay untouched; the result is already normalized because the
// inputs are.
func blendComps(a *Composition, qa float64, b *Composition, qb float64) *Composition {
	total := qa + qb
	fracs := make(map[nuc.Nuc]float64, len(a.fracs)+len(b.fracs))
	for n, f := range a.fracs {
		fracs[n] += f * qa / total
	}
	for n, f := range b.fracs {
		fracs[n] += f * qb / total
	}
	return &Composition{fracs: fracs}
}
