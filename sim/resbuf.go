// Implements the ResBuf, a bounded FIFO store of material lots.
// Lots arrive on trade delivery and leave oldest-first for processing.

package sim

import "fmt"

// Unbounded is the capacity sentinel for buffers with no physical bound,
// such as a facility's tails store.
const Unbounded = 1e299

// ResBuf is a bounded FIFO buffer of material lots. Arrival order is
// preserved; Pop consumes the oldest lots first, splitting the last lot
// touched when the requested quantity lands inside it. A failed operation
// leaves the buffer unchanged.
type ResBuf struct {
	lots     []*Material
	capacity float64
}

// NewResBuf builds a buffer bounded by capacity kg.
func NewResBuf(capacity float64) (*ResBuf, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: buffer capacity must be non-negative, got %f", ErrConfig, capacity)
	}
	return &ResBuf{capacity: capacity}, nil
}

// Capacity returns the bound in kg.
func (rb *ResBuf) Capacity() float64 {
	return rb.capacity
}

// Quantity returns the total mass currently held.
func (rb *ResBuf) Quantity() float64 {
	total := 0.0
	for _, lot := range rb.lots {
		total += lot.Quantity()
	}
	return total
}

// Space returns the remaining headroom (capacity minus quantity), never
// negative.
func (rb *ResBuf) Space() float64 {
	space := rb.capacity - rb.Quantity()
	if space < 0 {
		return 0
	}
	return space
}

// Count returns the number of lots held.
func (rb *ResBuf) Count() int {
	return len(rb.lots)
}

// Lots returns the held lots in FIFO order for iteration, e.g. to average
// an assay across the buffer. The returned slice is the buffer's internal
// storage -- callers may read the lots but MUST NOT mutate them or
// reslice the result.
func (rb *ResBuf) Lots() []*Material {
	return rb.lots
}

// Push appends a lot to the back of the buffer. Fails with ErrCapacity
// when the lot would push the held quantity beyond capacity (within Eps).
func (rb *ResBuf) Push(m *Material) error {
	if m == nil {
		panic("Push: mat must not be nil")
	}
	if rb.Quantity()+m.Quantity() > rb.capacity+Eps {
		return fmt.Errorf("%w: pushing %f kg onto %f kg held exceeds capacity %f kg",
			ErrCapacity, m.Quantity(), rb.Quantity(), rb.capacity)
	}
	rb.lots = append(rb.lots, m)
	return nil
}

// Pop removes exactly qty kg FIFO and returns it as one material, the
// mass-weighted blend of every lot consumed. The oldest lot is split when
// qty lands inside it. A qty within Eps of the buffer total drains the
// buffer. Fails with ErrInsufficient when qty exceeds the total beyond
// Eps.
func (rb *ResBuf) Pop(qty float64) (*Material, error) {
	if qty <= Eps {
		return nil, fmt.Errorf("%w: pop quantity must exceed the quantity tolerance, got %f", ErrConfig, qty)
	}
	total := rb.Quantity()
	if qty > total+Eps {
		return nil, fmt.Errorf("%w: tried to pop %f kg from a buffer holding %f kg",
			ErrInsufficient, qty, total)
	}
	if qty > total {
		qty = total
	}

	var out *Material
	remaining := qty
	for remaining > Eps && len(rb.lots) > 0 {
		front := rb.lots[0]
		var taken *Material
		if front.Quantity() <= remaining+Eps {
			// consume the whole lot
			rb.lots = rb.lots[1:]
			taken = front
		} else {
			split, err := front.ExtractQty(remaining)
			if err != nil {
				// unreachable: remaining is below the front lot's quantity
				return nil, err
			}
			taken = split
		}
		remaining -= taken.Quantity()
		if out == nil {
			out = taken
		} else {
			out.Absorb(taken)
		}
	}
	return out, nil
}
