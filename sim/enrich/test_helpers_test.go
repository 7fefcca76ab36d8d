package enrich

import (
	"math"
	"testing"

	"github.com/bam241/recycle/nuc"
	"github.com/bam241/recycle/sim"
)

// Reference scenario used across these tests: natural uranium feed at
// 0.72% U-235 enriched to 5% against 0.3% tails.
const (
	refFeed    = 0.0072
	refProduct = 0.05
	refTails   = 0.003

	refSwuPerKg  = 7.126867703784669
	refFeedPerKg = 11.190476190476192
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// uComp builds a two-isotope uranium composition at the given U-235 mass
// fraction.
func uComp(t *testing.T, assay float64) *sim.Composition {
	t.Helper()
	c, err := sim.NewComposition(map[nuc.Nuc]float64{nuc.U235: assay, nuc.U238: 1 - assay})
	if err != nil {
		t.Fatalf("composition at assay %v: %v", assay, err)
	}
	return c
}

// uMat builds a two-isotope uranium material at the given assay and mass.
func uMat(t *testing.T, assay, qty float64) *sim.Material {
	t.Helper()
	m, err := sim.NewMaterial(uComp(t, assay), qty)
	if err != nil {
		t.Fatalf("material at assay %v: %v", assay, err)
	}
	return m
}

// newTestFacility wires a context with natural uranium and 5% LEU recipes
// and builds a facility over them, applying mod to the default config
// first.
func newTestFacility(t *testing.T, mod func(*Config)) (*Facility, *sim.Context) {
	t.Helper()
	ctx := sim.NewContext(nil)
	if err := ctx.AddRecipe("natl_u", uComp(t, refFeed)); err != nil {
		t.Fatalf("add natl_u: %v", err)
	}
	if err := ctx.AddRecipe("leu", uComp(t, refProduct)); err != nil {
		t.Fatalf("add leu: %v", err)
	}

	cfg := DefaultConfig()
	cfg.InCommodity = "natl_u"
	cfg.OutCommodity = "enriched_u"
	cfg.TailsCommodity = "depleted_u"
	cfg.InRecipe = "natl_u"
	cfg.OutRecipe = "leu"
	if mod != nil {
		mod(&cfg)
	}
	f, err := New(ctx, "enricher", cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f, ctx
}

// loadFeed pushes qty kilograms of in-recipe feed straight into the
// facility's inventory.
func loadFeed(t *testing.T, f *Facility, qty float64) {
	t.Helper()
	m, err := sim.NewMaterial(f.inRecipe, qty)
	if err != nil {
		t.Fatalf("feed material: %v", err)
	}
	if err := f.feed.Push(m); err != nil {
		t.Fatalf("push feed: %v", err)
	}
}
