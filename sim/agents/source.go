// Implements the source and sink trading archetypes. A source is an
// unlimited well of one recipe, a sink a one-way store. Together with an
// enrichment facility they close a minimal fuel cycle.

package agents

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/bam241/recycle/sim"
)

// Agent kinds as named in scenario files and the agents table.
const (
	KindSource = "source"
	KindSink   = "sink"
)

// SourceConfig holds the scenario-facing knobs of one source.
type SourceConfig struct {
	Commodity  string  `yaml:"commodity"`  // commodity offered
	Recipe     string  `yaml:"recipe"`     // composition of everything minted
	Throughput float64 `yaml:"throughput"` // offered mass per period, kg
}

// DefaultSourceConfig returns a source config with unlimited throughput.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{Throughput: sim.Unbounded}
}

// Source mints its recipe on demand, up to a per-period throughput shared
// across all trades of a period.
type Source struct {
	id        int
	prototype string
	cfg       SourceConfig
	ctx       *sim.Context
	recipe    *sim.Composition
}

// NewSource validates cfg against the context's recipe table and builds
// the source.
func NewSource(ctx *sim.Context, prototype string, cfg SourceConfig) (*Source, error) {
	if prototype == "" {
		return nil, fmt.Errorf("%w: source needs a prototype name", sim.ErrConfig)
	}
	if cfg.Commodity == "" {
		return nil, fmt.Errorf("%w: %s: commodity is required", sim.ErrConfig, prototype)
	}
	recipe, err := ctx.Recipe(cfg.Recipe)
	if err != nil {
		return nil, fmt.Errorf("%s recipe: %w", prototype, err)
	}
	if cfg.Throughput <= 0 {
		return nil, fmt.Errorf("%w: %s: throughput must be positive, got %v",
			sim.ErrConfig, prototype, cfg.Throughput)
	}
	id, err := ctx.EnterAgent(KindSource, prototype)
	if err != nil {
		return nil, err
	}
	return &Source{id: id, prototype: prototype, cfg: cfg, ctx: ctx, recipe: recipe}, nil
}

func (s *Source) ID() int           { return s.id }
func (s *Source) Prototype() string { return s.prototype }
func (s *Source) Kind() string      { return KindSource }

func (s *Source) Tick() {}
func (s *Source) Tock() {}

// Requests returns nil; sources never buy.
func (s *Source) Requests() []*sim.Request { return nil }

func (s *Source) AdjustPrefs(sim.PrefMap) {}

// Bids offers up to the period throughput against every request for the
// source's commodity. The portfolio constraint keeps the sum of matched
// trades within throughput.
func (s *Source) Bids(reqs []*sim.Request) *sim.BidPortfolio {
	pf := &sim.BidPortfolio{}
	for _, r := range reqs {
		if r.Commodity != s.cfg.Commodity {
			continue
		}
		qty := math.Min(r.Qty, s.cfg.Throughput)
		if qty <= sim.Eps {
			continue
		}
		offer, err := sim.NewMaterial(s.recipe, qty)
		if err != nil {
			continue
		}
		pf.Bids = append(pf.Bids, &sim.Bid{Request: r, Offer: offer})
	}
	if len(pf.Bids) == 0 {
		return nil
	}
	pf.Constraints = []sim.CapacityConstraint{
		{Conv: sim.QtyConverter{}, Capacity: s.cfg.Throughput},
	}
	return pf
}

// ExecuteTrades mints fresh recipe material for each matched trade.
func (s *Source) ExecuteTrades(trades []sim.Trade) ([]*sim.Material, error) {
	out := make([]*sim.Material, 0, len(trades))
	total := 0.0
	for _, tr := range trades {
		m, err := sim.NewMaterial(s.recipe, tr.Qty)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		total += tr.Qty
	}
	logrus.Debugf("[period %04d] %s: minted %.4f kg of %s",
		s.ctx.Time(), s.prototype, total, s.cfg.Commodity)
	return out, nil
}

// AcceptDeliveries is never reached; sources do not request.
func (s *Source) AcceptDeliveries([]sim.Delivery) error {
	return fmt.Errorf("%w: source %q received a delivery", sim.ErrConfig, s.prototype)
}
