package agents

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/bam241/recycle/sim"
)

// SinkConfig holds the scenario-facing knobs of one sink.
type SinkConfig struct {
	Commodities  []string `yaml:"commodities"`   // commodities requested, in order
	Recipe       string   `yaml:"recipe"`        // optional request target composition
	Capacity     float64  `yaml:"capacity"`      // intake per period, kg
	MaxInventory float64  `yaml:"max_inventory"` // lifetime storage cap, kg
}

// DefaultSinkConfig returns a sink config with unlimited intake and
// storage.
func DefaultSinkConfig() SinkConfig {
	return SinkConfig{Capacity: sim.Unbounded, MaxInventory: sim.Unbounded}
}

// Sink requests its commodities every period and swallows whatever is
// delivered. It never sells.
type Sink struct {
	id        int
	prototype string
	cfg       SinkConfig
	ctx       *sim.Context
	target    *sim.Composition // nil accepts any composition
	store     *sim.ResBuf

	taken float64 // intake so far this period
}

// NewSink validates cfg against the context's recipe table and builds
// the sink.
func NewSink(ctx *sim.Context, prototype string, cfg SinkConfig) (*Sink, error) {
	if prototype == "" {
		return nil, fmt.Errorf("%w: sink needs a prototype name", sim.ErrConfig)
	}
	if len(cfg.Commodities) == 0 {
		return nil, fmt.Errorf("%w: %s: at least one commodity is required", sim.ErrConfig, prototype)
	}
	for _, c := range cfg.Commodities {
		if c == "" {
			return nil, fmt.Errorf("%w: %s: commodity names must be non-empty", sim.ErrConfig, prototype)
		}
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("%w: %s: capacity must be positive, got %v",
			sim.ErrConfig, prototype, cfg.Capacity)
	}

	var target *sim.Composition
	if cfg.Recipe != "" {
		var err error
		target, err = ctx.Recipe(cfg.Recipe)
		if err != nil {
			return nil, fmt.Errorf("%s recipe: %w", prototype, err)
		}
	}
	store, err := sim.NewResBuf(cfg.MaxInventory)
	if err != nil {
		return nil, fmt.Errorf("%s max_inventory: %w", prototype, err)
	}
	id, err := ctx.EnterAgent(KindSink, prototype)
	if err != nil {
		return nil, err
	}
	return &Sink{id: id, prototype: prototype, cfg: cfg, ctx: ctx, target: target, store: store}, nil
}

func (k *Sink) ID() int           { return k.id }
func (k *Sink) Prototype() string { return k.prototype }
func (k *Sink) Kind() string      { return KindSink }

// Tick opens the period's intake budget.
func (k *Sink) Tick() {
	k.taken = 0
}

func (k *Sink) Tock() {
	logrus.Debugf("[period %04d] %s: stored %.4f kg total",
		k.ctx.Time(), k.prototype, k.store.Quantity())
}

// Inventory returns the total mass stored so far.
func (k *Sink) Inventory() float64 {
	return k.store.Quantity()
}

// Requests asks for each commodity up to the remaining period intake and
// storage space. Earlier rounds shrink what later rounds may ask.
func (k *Sink) Requests() []*sim.Request {
	room := math.Min(k.cfg.Capacity-k.taken, k.store.Space())
	if room <= sim.Eps {
		return nil
	}
	reqs := make([]*sim.Request, 0, len(k.cfg.Commodities))
	for _, c := range k.cfg.Commodities {
		reqs = append(reqs, &sim.Request{Commodity: c, Qty: room, Target: k.target})
	}
	return reqs
}

func (k *Sink) AdjustPrefs(sim.PrefMap) {}

// Bids returns nil; sinks never sell.
func (k *Sink) Bids([]*sim.Request) *sim.BidPortfolio { return nil }

// ExecuteTrades is never reached; sinks do not bid.
func (k *Sink) ExecuteTrades([]sim.Trade) ([]*sim.Material, error) {
	return nil, fmt.Errorf("%w: sink %q does not sell", sim.ErrConfig, k.prototype)
}

// AcceptDeliveries stores everything delivered, whatever its
// composition.
func (k *Sink) AcceptDeliveries(ds []sim.Delivery) error {
	for _, d := range ds {
		if err := k.store.Push(d.Mat); err != nil {
			return fmt.Errorf("%s: store %v kg of %q: %w",
				k.prototype, d.Mat.Quantity(), d.Trade.Request.Commodity, err)
		}
		k.taken += d.Mat.Quantity()
	}
	return nil
}
