package sim

import (
	"fmt"

	"github.com/bam241/recycle/sim/record"
)

// Context carries the services every agent shares: the simulation clock,
// the recipe table, id allocation, metrics, and the output recorder.
// Agents receive it at construction and keep it for their lifetime.
type Context struct {
	time    int
	recipes map[string]*Composition
	rec     record.Recorder
	metrics *Metrics

	nextAgentID       int
	nextResourceID    int
	nextTransactionID int

	// compositions are interned: equal compositions share one qual id
	// and their nuclide rows are recorded once.
	qualIDs    map[string]int
	nextQualID int
}

// NewContext builds a context around a recorder. A nil recorder gets the
// no-op implementation.
func NewContext(rec record.Recorder) *Context {
	if rec == nil {
		rec = record.NewNoop()
	}
	return &Context{
		recipes:           make(map[string]*Composition),
		rec:               rec,
		metrics:           NewMetrics(),
		nextAgentID:       1,
		nextResourceID:    1,
		nextTransactionID: 1,
		qualIDs:           make(map[string]int),
		nextQualID:        1,
	}
}

// Time returns the current period.
func (ctx *Context) Time() int {
	return ctx.time
}

// Metrics returns the run's metric accumulator.
func (ctx *Context) Metrics() *Metrics {
	return ctx.metrics
}

// advance moves the clock; only the Simulator calls this.
func (ctx *Context) advance(t int) {
	ctx.time = t
}

// AddRecipe registers a named composition. Redefining a name is a
// configuration error.
func (ctx *Context) AddRecipe(name string, c *Composition) error {
	if name == "" {
		return fmt.Errorf("%w: recipe needs a name", ErrConfig)
	}
	if c == nil {
		return fmt.Errorf("%w: recipe %q needs a composition", ErrConfig, name)
	}
	if _, ok := ctx.recipes[name]; ok {
		return fmt.Errorf("%w: recipe %q already defined", ErrConfig, name)
	}
	ctx.recipes[name] = c
	return nil
}

// Recipe resolves a recipe name.
func (ctx *Context) Recipe(name string) (*Composition, error) {
	c, ok := ctx.recipes[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown recipe %q", ErrConfig, name)
	}
	return c, nil
}

// EnterAgent allocates an agent id and records the agent's entry.
func (ctx *Context) EnterAgent(kind, prototype string) (int, error) {
	id := ctx.nextAgentID
	ctx.nextAgentID++
	err := ctx.rec.RecordAgent(record.AgentRow{
		AgentID:   id,
		Kind:      kind,
		Prototype: prototype,
		EnterTime: ctx.time,
	})
	if err != nil {
		return 0, fmt.Errorf("record agent %q: %w", prototype, err)
	}
	return id, nil
}

// RecordMaterial assigns the material a resource id on first sight and
// records its creation snapshot. Calling it again returns the existing id
// without a second row.
func (ctx *Context) RecordMaterial(m *Material) (int, error) {
	if m.id != 0 {
		return m.id, nil
	}
	qualID, err := ctx.internComp(m.Comp())
	if err != nil {
		return 0, err
	}
	m.id = ctx.nextResourceID
	ctx.nextResourceID++
	err = ctx.rec.RecordResource(record.ResourceRow{
		ResourceID:  m.id,
		QualID:      qualID,
		TimeCreated: ctx.time,
		Quantity:    m.Quantity(),
	})
	if err != nil {
		return 0, fmt.Errorf("record resource %d: %w", m.id, err)
	}
	return m.id, nil
}

// internComp returns the qual id for a composition, recording its nuclide
// rows the first time the composition is seen.
func (ctx *Context) internComp(c *Composition) (int, error) {
	key := c.Key()
	if id, ok := ctx.qualIDs[key]; ok {
		return id, nil
	}
	id := ctx.nextQualID
	ctx.nextQualID++
	ctx.qualIDs[key] = id

	nucs := c.Nucs()
	rows := make([]record.CompositionRow, 0, len(nucs))
	for _, n := range nucs {
		rows = append(rows, record.CompositionRow{
			QualID:   id,
			NucID:    int(n),
			MassFrac: c.MassFrac(n),
		})
	}
	if err := ctx.rec.RecordCompositions(rows); err != nil {
		return 0, fmt.Errorf("record composition %d: %w", id, err)
	}
	return id, nil
}

// RecordTransaction allocates a transaction id and records one executed
// trade.
func (ctx *Context) RecordTransaction(senderID, receiverID, resourceID int, commodity string) error {
	id := ctx.nextTransactionID
	ctx.nextTransactionID++
	err := ctx.rec.RecordTransaction(record.TransactionRow{
		TransactionID: id,
		SenderID:      senderID,
		ReceiverID:    receiverID,
		ResourceID:    resourceID,
		Commodity:     commodity,
		Time:          ctx.time,
	})
	if err != nil {
		return fmt.Errorf("record transaction %d: %w", id, err)
	}
	return nil
}

// RecordEnrichment records one enrichment operation and folds it into the
// run metrics.
func (ctx *Context) RecordEnrichment(agentID int, naturalU, swu float64) error {
	ctx.metrics.NatUConsumed += naturalU
	ctx.metrics.SwuConsumed += swu
	err := ctx.rec.RecordEnrichment(record.EnrichmentRow{
		AgentID:        agentID,
		Time:           ctx.time,
		NaturalUranium: naturalU,
		SWU:            swu,
	})
	if err != nil {
		return fmt.Errorf("record enrichment by agent %d: %w", agentID, err)
	}
	return nil
}

// RecordTimestep appends the current period to the output time list.
func (ctx *Context) RecordTimestep() error {
	if err := ctx.rec.RecordTime(ctx.time); err != nil {
		return fmt.Errorf("record period %d: %w", ctx.time, err)
	}
	return nil
}
