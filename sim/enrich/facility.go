// Implements the enrichment facility agent. It requests feed up to its
// inventory headroom, ranks competing feed offers by U-235 content, sizes
// product bids under the joint SWU and feed budgets, and executes matched
// trades by splitting popped feed into enriched product and depleted
// tails.

package enrich

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/bam241/recycle/nuc"
	"github.com/bam241/recycle/sim"
)

// Kind identifies enrichment facilities in scenario files and the agents
// table.
const Kind = "enrichment"

// Config holds the scenario-facing knobs of one enrichment facility.
// Fields left unset in a scenario keep the DefaultConfig values.
type Config struct {
	InCommodity    string `yaml:"in_commodity"`    // feed commodity requested
	OutCommodity   string `yaml:"out_commodity"`   // enriched product commodity
	TailsCommodity string `yaml:"tails_commodity"` // depleted tails commodity
	InRecipe       string `yaml:"in_recipe"`       // recipe the feed must match
	OutRecipe      string `yaml:"out_recipe"`      // nominal product recipe, U-235 and U-238 only

	TailsAssay       float64 `yaml:"tails_assay"`        // target U-235 fraction of tails
	MaxEnrich        float64 `yaml:"max_enrich"`         // highest product assay produced
	SwuCapacity      float64 `yaml:"swu_capacity"`       // SWU budget per period
	MaxFeedInventory float64 `yaml:"max_feed_inventory"` // feed buffer capacity, kg
	InitialReserves  float64 `yaml:"initial_reserves"`   // feed seeded at build time, kg
}

// DefaultConfig returns a config with every optional knob at its default.
// Scenario files overwrite only the fields they set.
func DefaultConfig() Config {
	return Config{
		TailsAssay:       0.003,
		MaxEnrich:        1.0,
		SwuCapacity:      sim.Unbounded,
		MaxFeedInventory: sim.Unbounded,
	}
}

// Facility is the enrichment agent. One instance owns its feed and tails
// inventories outright; other agents only touch them through trades.
type Facility struct {
	id        int
	prototype string
	cfg       Config
	ctx       *sim.Context

	inRecipe  *sim.Composition
	outRecipe *sim.Composition

	feed  *sim.ResBuf // bounded, accepted feed lots in arrival order
	tails *sim.ResBuf // unbounded, depleted by-product of past operations

	currentSwu float64 // SWU budget left this period
	swuUsed    float64 // SWU spent this period, for the period-end log
}

// New validates cfg against the context's recipe table and builds the
// facility, seeding any initial reserves into the feed inventory.
func New(ctx *sim.Context, prototype string, cfg Config) (*Facility, error) {
	if prototype == "" {
		return nil, fmt.Errorf("%w: facility needs a prototype name", sim.ErrConfig)
	}
	if cfg.InCommodity == "" || cfg.OutCommodity == "" || cfg.TailsCommodity == "" {
		return nil, fmt.Errorf("%w: %s: in_commodity, out_commodity and tails_commodity are all required",
			sim.ErrConfig, prototype)
	}
	inRecipe, err := ctx.Recipe(cfg.InRecipe)
	if err != nil {
		return nil, fmt.Errorf("%s in_recipe: %w", prototype, err)
	}
	outRecipe, err := ctx.Recipe(cfg.OutRecipe)
	if err != nil {
		return nil, fmt.Errorf("%s out_recipe: %w", prototype, err)
	}
	for _, n := range outRecipe.Nucs() {
		if n != nuc.U235 && n != nuc.U238 {
			return nil, fmt.Errorf("%w: %s: out_recipe %q must hold only U235 and U238, found %v",
				sim.ErrConfig, prototype, cfg.OutRecipe, n)
		}
	}
	if outRecipe.MassFrac(nuc.U235) <= 0 || outRecipe.MassFrac(nuc.U238) <= 0 {
		return nil, fmt.Errorf("%w: %s: out_recipe %q must hold both U235 and U238",
			sim.ErrConfig, prototype, cfg.OutRecipe)
	}

	if cfg.TailsAssay <= 0 || cfg.TailsAssay >= 1 {
		return nil, fmt.Errorf("%w: %s: tails_assay must lie in (0, 1), got %v",
			sim.ErrConfig, prototype, cfg.TailsAssay)
	}
	inAssay := UraniumAssay(inRecipe)
	if inAssay <= cfg.TailsAssay {
		return nil, fmt.Errorf("%w: %s: in_recipe uranium assay %v must exceed tails_assay %v",
			sim.ErrConfig, prototype, inAssay, cfg.TailsAssay)
	}
	if inAssay >= 1 {
		return nil, fmt.Errorf("%w: %s: in_recipe %q needs U238 alongside U235",
			sim.ErrConfig, prototype, cfg.InRecipe)
	}
	if cfg.MaxEnrich <= cfg.TailsAssay || cfg.MaxEnrich > 1 {
		return nil, fmt.Errorf("%w: %s: max_enrich must lie in (tails_assay, 1], got %v",
			sim.ErrConfig, prototype, cfg.MaxEnrich)
	}
	if cfg.SwuCapacity < 0 {
		return nil, fmt.Errorf("%w: %s: swu_capacity must be non-negative, got %v",
			sim.ErrConfig, prototype, cfg.SwuCapacity)
	}
	if cfg.InitialReserves < 0 {
		return nil, fmt.Errorf("%w: %s: initial_reserves must be non-negative, got %v",
			sim.ErrConfig, prototype, cfg.InitialReserves)
	}
	if cfg.InitialReserves > cfg.MaxFeedInventory {
		return nil, fmt.Errorf("%w: %s: initial_reserves %v exceed max_feed_inventory %v",
			sim.ErrConfig, prototype, cfg.InitialReserves, cfg.MaxFeedInventory)
	}

	feed, err := sim.NewResBuf(cfg.MaxFeedInventory)
	if err != nil {
		return nil, fmt.Errorf("%s max_feed_inventory: %w", prototype, err)
	}
	tails, err := sim.NewResBuf(sim.Unbounded)
	if err != nil {
		return nil, err
	}
	id, err := ctx.EnterAgent(Kind, prototype)
	if err != nil {
		return nil, err
	}

	f := &Facility{
		id:         id,
		prototype:  prototype,
		cfg:        cfg,
		ctx:        ctx,
		inRecipe:   inRecipe,
		outRecipe:  outRecipe,
		feed:       feed,
		tails:      tails,
		currentSwu: cfg.SwuCapacity,
	}
	if cfg.InitialReserves > 0 {
		seed, err := sim.NewMaterial(inRecipe, cfg.InitialReserves)
		if err != nil {
			return nil, err
		}
		if _, err := ctx.RecordMaterial(seed); err != nil {
			return nil, err
		}
		if err := f.feed.Push(seed); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Facility) ID() int           { return f.id }
func (f *Facility) Prototype() string { return f.prototype }
func (f *Facility) Kind() string      { return Kind }

// Tick opens the period by restoring the full SWU budget. Ticking twice
// without intervening trades leaves the budget unchanged.
func (f *Facility) Tick() {
	f.currentSwu = f.cfg.SwuCapacity
	f.swuUsed = 0
}

// Tock closes the period.
func (f *Facility) Tock() {
	logrus.Debugf("[period %04d] %s: feed %.4f kg, tails %.4f kg, swu used %.4f",
		f.ctx.Time(), f.prototype, f.feed.Quantity(), f.tails.Quantity(), f.swuUsed)
}

// CurrentSwu returns the SWU budget left this period.
func (f *Facility) CurrentSwu() float64 {
	return f.currentSwu
}

// Inventory returns the feed on hand in kg.
func (f *Facility) Inventory() float64 {
	return f.feed.Quantity()
}

// TailsInventory returns the depleted uranium awaiting shipment in kg.
func (f *Facility) TailsInventory() float64 {
	return f.tails.Quantity()
}

// FeedAssay returns the uranium assay of the whole feed inventory taken
// as one blend. Lots are only peeked, never squashed. Returns 0 on an
// empty inventory.
func (f *Facility) FeedAssay() float64 {
	var u235, u float64
	for _, lot := range f.feed.Lots() {
		m5 := lot.MassOf(nuc.U235)
		u235 += m5
		u += m5 + lot.MassOf(nuc.U238)
	}
	if u <= 0 {
		return 0
	}
	return u235 / u
}

// Requests asks for enough feed to top the inventory back up to capacity.
// One request covers the whole deficit.
func (f *Facility) Requests() []*sim.Request {
	headroom := f.feed.Space()
	if headroom <= sim.Eps {
		return nil
	}
	return []*sim.Request{{
		Commodity: f.cfg.InCommodity,
		Qty:       headroom,
		Target:    f.inRecipe,
	}}
}

// AdjustPrefs reranks competing feed offers by their U-235 mass fraction,
// so richer feed always wins. Offers with no U-235, offers richer than
// the product recipe, and offers at or below tails grade are rejected
// outright.
func (f *Facility) AdjustPrefs(prefs sim.PrefMap) {
	ceiling := f.outRecipe.MassFrac(nuc.U235)
	for req, byBid := range prefs {
		if req.Commodity != f.cfg.InCommodity {
			continue
		}
		for bid := range byBid {
			frac := bid.Offer.MassFrac(nuc.U235)
			switch {
			case frac <= 0, frac > ceiling, !f.enrichable(bid.Offer):
				byBid[bid] = -1
			default:
				byBid[bid] = frac
			}
		}
	}
}

// enrichable reports whether m can serve as feed: both uranium isotopes
// present and uranium assay strictly above tails grade.
func (f *Facility) enrichable(m *sim.Material) bool {
	if m.MassFrac(nuc.U235) <= 0 || m.MassFrac(nuc.U238) <= 0 {
		return false
	}
	return UraniumAssay(m) > f.cfg.TailsAssay
}

// Bids answers product requests under the joint SWU and feed budgets and
// tails requests from the tails inventory. Portfolio constraints keep
// several matched trades inside the same budgets. A round carries one
// commodity, so product and tails bids never share a portfolio.
func (f *Facility) Bids(reqs []*sim.Request) *sim.BidPortfolio {
	feedAssay := f.FeedAssay()
	feedQty := f.feed.Quantity()
	tailsQty := f.tails.Quantity()

	var product, tails []*sim.Bid
	for _, r := range reqs {
		switch r.Commodity {
		case f.cfg.OutCommodity:
			if b := f.productBid(r, feedAssay, feedQty); b != nil {
				product = append(product, b)
			}
		case f.cfg.TailsCommodity:
			if b := f.tailsBid(r, tailsQty); b != nil {
				tails = append(tails, b)
			}
		}
	}

	switch {
	case len(product) > 0:
		return &sim.BidPortfolio{
			Bids: product,
			Constraints: []sim.CapacityConstraint{
				{Conv: SWUConverter{FeedAssay: feedAssay, TailsAssay: f.cfg.TailsAssay}, Capacity: f.currentSwu},
				{Conv: NatUConverter{FeedAssay: feedAssay, TailsAssay: f.cfg.TailsAssay}, Capacity: feedQty},
			},
		}
	case len(tails) > 0:
		return &sim.BidPortfolio{
			Bids:        tails,
			Constraints: []sim.CapacityConstraint{{Conv: sim.QtyConverter{}, Capacity: tailsQty}},
		}
	default:
		return nil
	}
}

// productBid sizes one bid against a product request: the least of the
// requested quantity, what the remaining SWU can produce, and what the
// remaining feed can produce. Returns nil when the target cannot be
// enriched or the budgets allow nothing.
func (f *Facility) productBid(r *sim.Request, feedAssay, feedQty float64) *sim.Bid {
	if r.Target == nil || r.Target.MassFrac(nuc.U238) <= 0 {
		return nil
	}
	targetAssay := UraniumAssay(r.Target)
	if targetAssay <= f.cfg.TailsAssay {
		return nil
	}
	a, err := NewAssays(feedAssay, targetAssay, f.cfg.TailsAssay)
	if err != nil {
		logrus.Debugf("%s: cannot serve %q request: %v", f.prototype, r.Commodity, err)
		return nil
	}

	qty := math.Min(r.Qty, f.currentSwu/SwuRequired(1, a))
	qty = math.Min(qty, feedQty/FeedQty(1, a))
	if qty <= sim.Eps {
		return nil
	}
	offer, err := sim.NewMaterial(r.Target, qty)
	if err != nil {
		return nil
	}
	return &sim.Bid{Request: r, Offer: offer}
}

// tailsBid offers depleted uranium straight from the tails inventory at
// its current blended composition.
func (f *Facility) tailsBid(r *sim.Request, tailsQty float64) *sim.Bid {
	qty := math.Min(r.Qty, tailsQty)
	if qty <= sim.Eps {
		return nil
	}
	comp, err := blendOf(f.tails.Lots())
	if err != nil {
		logrus.Debugf("%s: cannot offer tails: %v", f.prototype, err)
		return nil
	}
	offer, err := sim.NewMaterial(comp, qty)
	if err != nil {
		return nil
	}
	return &sim.Bid{Request: r, Offer: offer}
}

// blendOf builds the mass-weighted composition across lots without
// touching them.
func blendOf(lots []*sim.Material) (*sim.Composition, error) {
	masses := make(map[nuc.Nuc]float64)
	for _, lot := range lots {
		for _, n := range lot.Comp().Nucs() {
			masses[n] += lot.MassOf(n)
		}
	}
	return sim.NewComposition(masses)
}

// AcceptDeliveries validates each delivered lot against the feed recipe
// and pushes it into the feed inventory. Any mismatch or overflow is a
// hard stop; the request was sized to fit.
func (f *Facility) AcceptDeliveries(ds []sim.Delivery) error {
	for _, d := range ds {
		if !d.Mat.Comp().AlmostEqual(f.inRecipe, sim.Eps) {
			return fmt.Errorf("%w: %s: delivered %v, want recipe %q",
				sim.ErrRecipeMismatch, f.prototype, d.Mat.Comp(), f.cfg.InRecipe)
		}
		if err := f.feed.Push(d.Mat); err != nil {
			return fmt.Errorf("%s: accept %v kg of %q: %w",
				f.prototype, d.Mat.Quantity(), d.Trade.Request.Commodity, err)
		}
	}
	return nil
}

// ExecuteTrades serves matched trades. Product trades run one enrichment
// each; tails trades ship depleted uranium straight from the tails
// inventory.
func (f *Facility) ExecuteTrades(trades []sim.Trade) ([]*sim.Material, error) {
	out := make([]*sim.Material, 0, len(trades))
	for _, tr := range trades {
		var (
			m   *sim.Material
			err error
		)
		switch tr.Request.Commodity {
		case f.cfg.OutCommodity:
			m, err = f.enrich(tr.Qty, UraniumAssay(tr.Request.Target))
		case f.cfg.TailsCommodity:
			m, err = f.tails.Pop(tr.Qty)
		default:
			err = fmt.Errorf("%w: %s cannot serve commodity %q", sim.ErrConfig, f.prototype, tr.Request.Commodity)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// enrich produces qty kilograms of product at min(requested, max_enrich)
// assay, drawing feed FIFO and depositing the depleted remainder into
// tails. Nothing mutates until every constraint check has passed.
func (f *Facility) enrich(qty, requestedAssay float64) (*sim.Material, error) {
	productAssay := math.Min(f.cfg.MaxEnrich, requestedAssay)
	a, err := NewAssays(f.FeedAssay(), productAssay, f.cfg.TailsAssay)
	if err != nil {
		return nil, fmt.Errorf("%s: enrich %v kg: %w", f.prototype, qty, err)
	}
	swuNeeded := SwuRequired(qty, a)
	natuNeeded := FeedQty(qty, a)
	if swuNeeded > f.currentSwu+sim.Eps {
		return nil, fmt.Errorf("%w: %s: trade needs %v SWU, %v left this period",
			sim.ErrConstraint, f.prototype, swuNeeded, f.currentSwu)
	}
	if natuNeeded > f.feed.Quantity()+sim.Eps {
		return nil, fmt.Errorf("%w: %s: trade needs %v kg feed, %v kg held",
			sim.ErrConstraint, f.prototype, natuNeeded, f.feed.Quantity())
	}
	if natuNeeded <= qty {
		return nil, fmt.Errorf("%w: %s: product assay %v does not exceed feed assay %v",
			sim.ErrConstraint, f.prototype, productAssay, a.Feed())
	}

	popped, err := f.feed.Pop(natuNeeded)
	if err != nil {
		return nil, fmt.Errorf("%s: draw feed: %w", f.prototype, err)
	}
	// The popped blend's true isotopics can differ slightly from the
	// declared product and tails compositions when feed lots are
	// heterogeneous. Mass is conserved exactly; compositions are the ones
	// the balance was sized with.
	product, err := declared(productAssay, qty)
	if err != nil {
		return nil, err
	}
	tailsMat, err := declared(f.cfg.TailsAssay, popped.Quantity()-qty)
	if err != nil {
		return nil, err
	}
	if err := f.tails.Push(tailsMat); err != nil {
		return nil, fmt.Errorf("%s: bank tails: %w", f.prototype, err)
	}
	f.currentSwu -= swuNeeded
	f.swuUsed += swuNeeded

	if err := f.ctx.RecordEnrichment(f.id, natuNeeded, swuNeeded); err != nil {
		return nil, err
	}
	f.ctx.Metrics().TailsProduced += tailsMat.Quantity()
	f.ctx.Metrics().ProductQtys = append(f.ctx.Metrics().ProductQtys, qty)
	logrus.Debugf("[period %04d] %s: enriched %.4f kg to assay %.4f using %.4f SWU and %.4f kg feed",
		f.ctx.Time(), f.prototype, qty, productAssay, swuNeeded, natuNeeded)
	return product, nil
}

// declared mints a two-isotope uranium material at the given U-235 mass
// fraction.
func declared(assay, qty float64) (*sim.Material, error) {
	comp, err := sim.NewComposition(map[nuc.Nuc]float64{
		nuc.U235: assay,
		nuc.U238: 1 - assay,
	})
	if err != nil {
		return nil, err
	}
	return sim.NewMaterial(comp, qty)
}
