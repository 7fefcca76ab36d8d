package record

import (
	"database/sql"
	"fmt"
)

// Post-run queries against a recorded database, used by the report
// command. They aggregate across all runs in the file unless a simID is
// given.

// EnrichmentTotal sums one agent's enrichment activity over a run.
type EnrichmentTotal struct {
	SimID          string
	AgentID        int
	Prototype      string
	NaturalUranium float64
	SWU            float64
	Operations     int
}

// CommodityFlow sums traded mass per commodity over a run.
type CommodityFlow struct {
	SimID     string
	Commodity string
	Quantity  float64
	Trades    int
}

// OpenDB opens a recorded database read-only for querying.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// EnrichmentTotals returns per-agent enrichment totals, joined with the
// agent table for prototype names.
func EnrichmentTotals(db *sql.DB) ([]EnrichmentTotal, error) {
	rows, err := db.Query(`
		SELECT e.SimId, e.AgentId, a.Prototype,
		       SUM(e.NaturalUranium), SUM(e.SWU), COUNT(*)
		FROM Enrichments AS e
		JOIN Agents AS a ON a.SimId = e.SimId AND a.AgentId = e.AgentId
		GROUP BY e.SimId, e.AgentId
		ORDER BY e.SimId, e.AgentId`)
	if err != nil {
		return nil, fmt.Errorf("query enrichments: %w", err)
	}
	defer rows.Close()

	var totals []EnrichmentTotal
	for rows.Next() {
		var t EnrichmentTotal
		if err := rows.Scan(&t.SimID, &t.AgentID, &t.Prototype, &t.NaturalUranium, &t.SWU, &t.Operations); err != nil {
			return nil, fmt.Errorf("scan enrichment total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// CommodityFlows returns the traded mass per commodity, joining each
// transaction with its resource for the quantity.
func CommodityFlows(db *sql.DB) ([]CommodityFlow, error) {
	rows, err := db.Query(`
		SELECT t.SimId, t.Commodity, SUM(r.Quantity), COUNT(*)
		FROM Transactions AS t
		JOIN Resources AS r ON r.SimId = t.SimId AND r.ResourceId = t.ResourceId
		GROUP BY t.SimId, t.Commodity
		ORDER BY t.SimId, t.Commodity`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var flows []CommodityFlow
	for rows.Next() {
		var f CommodityFlow
		if err := rows.Scan(&f.SimID, &f.Commodity, &f.Quantity, &f.Trades); err != nil {
			return nil, fmt.Errorf("scan commodity flow: %w", err)
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}
