// Package sim provides the core discrete-time simulation kernel for the
// fuel-cycle model.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - material.go: Material lots, compositions, and mass extraction
//   - exchange.go: One market round (requests → bids → preferences → trades)
//   - simulator.go: The period loop (tick, one round per commodity, tock)
//
// # Architecture
//
// The sim package holds the kernel types; domain behavior lives in
// sub-packages:
//   - sim/enrich/: The enrichment facility and its separation physics
//   - sim/agents/: Source and sink trading archetypes
//   - sim/scenario/: Scenario file loading and simulator assembly
//   - sim/record/: Output persistence (SQLite tables, post-run queries)
//
// Agents join a run through the Trader interface; the Context hands them
// shared services (clock, recipes, id allocation, metrics, recorder) at
// construction.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Agent: tick/tock lifecycle hooks
//   - Trader: request, bid, rank, execute, accept
//   - Converter: translate an offered material into constraint units (SWU,
//     feed mass, plain quantity) for portfolio capacity checks
//   - record.Recorder: persist agents, resources, transactions, enrichments
package sim
