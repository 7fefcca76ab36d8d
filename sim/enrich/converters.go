package enrich

import (
	"fmt"

	"github.com/bam241/recycle/nuc"
	"github.com/bam241/recycle/sim"
)

// SWUConverter prices a candidate product material by the separative work
// it would take to enrich it from FeedAssay up to the material's own
// uranium assay.
type SWUConverter struct {
	FeedAssay  float64
	TailsAssay float64
}

// Convert returns the SWU consumed if m were the product of one
// enrichment operation.
func (c SWUConverter) Convert(m *sim.Material) (float64, error) {
	a, err := NewAssays(c.FeedAssay, UraniumAssay(m), c.TailsAssay)
	if err != nil {
		return 0, fmt.Errorf("swu cost of %v kg: %w", m.Quantity(), err)
	}
	return SwuRequired(m.Quantity(), a), nil
}

// Equal reports whether other is an SWUConverter with the same assays.
func (c SWUConverter) Equal(other sim.Converter) bool {
	o, ok := other.(SWUConverter)
	return ok && o == c
}

// NatUConverter prices a candidate product material by the feed mass
// enriching it would consume. The estimate is scaled up by the inverse of
// the material's uranium mass fraction so non-uranium diluents in the
// requested composition do not understate the feed cost.
type NatUConverter struct {
	FeedAssay  float64
	TailsAssay float64
}

// Convert returns the feed mass consumed if m were the product of one
// enrichment operation.
func (c NatUConverter) Convert(m *sim.Material) (float64, error) {
	a, err := NewAssays(c.FeedAssay, UraniumAssay(m), c.TailsAssay)
	if err != nil {
		return 0, fmt.Errorf("feed cost of %v kg: %w", m.Quantity(), err)
	}
	// A valid triple means the material holds both uranium isotopes, so
	// the fraction below is positive.
	uFrac := m.MassFrac(nuc.U235) + m.MassFrac(nuc.U238)
	return FeedQty(m.Quantity(), a) / uFrac, nil
}

// Equal reports whether other is a NatUConverter with the same assays.
func (c NatUConverter) Equal(other sim.Converter) bool {
	o, ok := other.(NatUConverter)
	return ok && o == c
}
