// Package record persists simulation output for post-run analysis. The
// row structs are plain data so the kernel stays decoupled from SQL; the
// SQLite implementation writes the conventional fuel-cycle output tables
// (Agents, Resources, Compositions, Transactions, Enrichments, TimeList).
package record

// AgentRow describes an agent entering the simulation.
type AgentRow struct {
	AgentID   int
	Kind      string // archetype kind, e.g. "enrichment", "source", "sink"
	Prototype string // scenario-given name
	EnterTime int
}

// ResourceRow snapshots a material at creation time.
type ResourceRow struct {
	ResourceID  int
	QualID      int // composition id, shared by resources of equal composition
	TimeCreated int
	Quantity    float64
}

// CompositionRow is one nuclide of an interned composition.
type CompositionRow struct {
	QualID   int
	NucID    int
	MassFrac float64
}

// TransactionRow records one executed trade.
type TransactionRow struct {
	TransactionID int
	SenderID      int
	ReceiverID    int
	ResourceID    int
	Commodity     string
	Time          int
}

// EnrichmentRow records one enrichment operation: the natural uranium and
// separative work it consumed.
type EnrichmentRow struct {
	AgentID        int
	Time           int
	NaturalUranium float64
	SWU            float64
}

// Recorder persists simulation output. Implementations must tolerate
// being called once per row in the hot path of trade execution.
type Recorder interface {
	RecordAgent(row AgentRow) error
	RecordResource(row ResourceRow) error
	RecordCompositions(rows []CompositionRow) error
	RecordTransaction(row TransactionRow) error
	RecordEnrichment(row EnrichmentRow) error
	RecordTime(t int) error
	Close() error
}

// Noop is the recorder used when no output database is configured.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) RecordAgent(AgentRow) error                 { return nil }
func (Noop) RecordResource(ResourceRow) error           { return nil }
func (Noop) RecordCompositions([]CompositionRow) error  { return nil }
func (Noop) RecordTransaction(TransactionRow) error     { return nil }
func (Noop) RecordEnrichment(EnrichmentRow) error       { return nil }
func (Noop) RecordTime(int) error                       { return nil }
func (Noop) Close() error                               { return nil }
