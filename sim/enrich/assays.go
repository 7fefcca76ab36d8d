// Implements the separation physics: the value function and the SWU and
// feed-quantity mass balances for a single enrichment operation.

package enrich

import (
	"fmt"
	"math"

	"github.com/bam241/recycle/nuc"
	"github.com/bam241/recycle/sim"
)

// Assays is an immutable triple of U-235 mass fractions describing one
// enrichment operation. Build it with NewAssays so the mass-balance
// denominators are known to be non-zero.
type Assays struct {
	feed    float64
	product float64
	tails   float64
}

// NewAssays validates an assay triple. Every assay must lie strictly
// inside (0, 1) and the feed assay must differ from both the product and
// the tails assay, otherwise the mass balance divides by zero.
func NewAssays(feed, product, tails float64) (Assays, error) {
	checks := []struct {
		name string
		x    float64
	}{
		{"feed assay", feed},
		{"product assay", product},
		{"tails assay", tails},
	}
	for _, c := range checks {
		if c.x <= 0 || c.x >= 1 {
			return Assays{}, fmt.Errorf("%w: %s must lie in (0, 1), got %v", sim.ErrDegenerateAssay, c.name, c.x)
		}
	}
	if feed == tails {
		return Assays{}, fmt.Errorf("%w: feed and tails assays are both %v", sim.ErrDegenerateAssay, feed)
	}
	if feed == product {
		return Assays{}, fmt.Errorf("%w: feed and product assays are both %v", sim.ErrDegenerateAssay, feed)
	}
	return Assays{feed: feed, product: product, tails: tails}, nil
}

// Feed returns the feed assay.
func (a Assays) Feed() float64 { return a.feed }

// Product returns the product assay.
func (a Assays) Product() float64 { return a.product }

// Tails returns the tails assay.
func (a Assays) Tails() float64 { return a.tails }

// ValueFunc is the separation potential of uranium at U-235 fraction x.
func ValueFunc(x float64) float64 {
	return (2*x - 1) * math.Log(x/(1-x))
}

// SwuRequired returns the separative work, in kg SWU, needed to produce
// productQty kilograms of product at the triple's assays.
func SwuRequired(productQty float64, a Assays) float64 {
	tailsQty := TailsQty(productQty, a)
	feedQty := productQty + tailsQty
	return productQty*ValueFunc(a.product) + tailsQty*ValueFunc(a.tails) - feedQty*ValueFunc(a.feed)
}

// FeedQty returns the feed mass consumed to produce productQty kilograms
// of product at the triple's assays.
func FeedQty(productQty float64, a Assays) float64 {
	return productQty * (a.product - a.tails) / (a.feed - a.tails)
}

// TailsQty returns the tails mass left behind by producing productQty
// kilograms of product at the triple's assays.
func TailsQty(productQty float64, a Assays) float64 {
	return productQty * (a.product - a.feed) / (a.feed - a.tails)
}

// UraniumAssay returns the U-235 share of the uranium in a material or
// composition, and 0 when it holds no uranium at all. Only U-235 and
// U-238 count as uranium here; the model ignores minor isotopes.
func UraniumAssay(m interface{ MassFrac(n nuc.Nuc) float64 }) float64 {
	u235 := m.MassFrac(nuc.U235)
	u := u235 + m.MassFrac(nuc.U238)
	if u <= 0 {
		return 0
	}
	return u235 / u
}
