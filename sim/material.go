package sim

import (
	"fmt"

	"github.com/bam241/recycle/nuc"
)

// Eps is the kernel-wide quantity tolerance in kg. Capacity and budget
// comparisons treat differences within Eps as equal, and pops within Eps
// of a buffer's total drain it exactly instead of stranding dust lots.
const Eps = 1e-6

// Material is a quantity of matter with an isotopic composition. A
// material is owned by whichever buffer currently holds it; ownership
// moves with the pointer when a trade executes. Materials are created by
// trade execution or by splitting an existing lot, and disappear when
// fully absorbed into another lot.
type Material struct {
	qty  float64
	comp *Composition
	id   int // resource id, assigned by the Context when first recorded
}

// NewMaterial builds a material of the given composition and quantity (kg).
func NewMaterial(comp *Composition, qty float64) (*Material, error) {
	if comp == nil {
		return nil, fmt.Errorf("%w: material needs a composition", ErrConfig)
	}
	if qty < 0 {
		return nil, fmt.Errorf("%w: quantity must be non-negative, got %f", ErrConfig, qty)
	}
	return &Material{qty: qty, comp: comp}, nil
}

// Quantity returns the mass in kg.
func (m *Material) Quantity() float64 {
	return m.qty
}

// Comp returns the material's composition.
func (m *Material) Comp() *Composition {
	return m.comp
}

// ID returns the resource id, 0 until the material is first recorded.
func (m *Material) ID() int {
	return m.id
}

// MassFrac returns the mass fraction of nuclide n in the material.
func (m *Material) MassFrac(n nuc.Nuc) float64 {
	return m.comp.MassFrac(n)
}

// MassOf returns the mass in kg of nuclide n held in the material.
func (m *Material) MassOf(n nuc.Nuc) float64 {
	return m.qty * m.comp.MassFrac(n)
}

// ExtractQty splits qty kg off the receiver into a new material with the
// same composition. A qty within Eps of the full quantity takes
// everything. Fails with ErrInsufficient beyond that; the receiver is
// unchanged on failure.
func (m *Material) ExtractQty(qty float64) (*Material, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: extract quantity must be positive, got %f", ErrConfig, qty)
	}
	if qty > m.qty+Eps {
		return nil, fmt.Errorf("%w: tried to extract %f kg from a %f kg material", ErrInsufficient, qty, m.qty)
	}
	if qty > m.qty {
		qty = m.qty
	}
	m.qty -= qty
	return &Material{qty: qty, comp: m.comp}, nil
}

// Absorb merges other into the receiver, blending the compositions by
// mass. The absorbed material is consumed: it is left with zero quantity.
func (m *Material) Absorb(other *Material) {
	if other == nil || other.qty <= 0 {
		return
	}
	if m.qty <= 0 {
		m.comp = other.comp
		m.qty = other.qty
	} else {
		m.comp = blendComps(m.comp, m.qty, other.comp, other.qty)
		m.qty += other.qty
	}
	other.qty = 0
}

func (m *Material) String() string {
	return fmt.Sprintf("%.6f kg %v", m.qty, m.comp)
}
