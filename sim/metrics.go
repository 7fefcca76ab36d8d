// Tracks simulation-wide trade and enrichment metrics for final reporting.

package sim

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about the simulation for final reporting.
// Useful for evaluating scenario throughput and debugging behavior over
// time.
type Metrics struct {
	Periods        int                // Number of simulated periods
	TradesExecuted int                // Number of executed trades across all commodities
	QtyByCommodity map[string]float64 // Total traded mass per commodity (kg)

	SwuConsumed   float64 // Total separative work consumed (kg SWU)
	NatUConsumed  float64 // Total feed popped for enrichment (kg)
	TailsProduced float64 // Total depleted tails deposited (kg)

	ProductQtys []float64 // Per-trade enriched product quantities (kg)
}

// NewMetrics creates an empty metric accumulator.
func NewMetrics() *Metrics {
	return &Metrics{
		QtyByCommodity: make(map[string]float64),
		ProductQtys:    make([]float64, 0),
	}
}

// Print displays aggregated metrics at the end of the simulation.
// Includes totals per commodity and the distribution of product trade
// sizes.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Periods              : %d\n", m.Periods)
	fmt.Printf("Trades Executed      : %d\n", m.TradesExecuted)

	commods := make([]string, 0, len(m.QtyByCommodity))
	for c := range m.QtyByCommodity {
		commods = append(commods, c)
	}
	sort.Strings(commods)
	for _, c := range commods {
		fmt.Printf("Traded %-14s: %.4f kg\n", c, m.QtyByCommodity[c])
	}

	fmt.Printf("SWU Consumed         : %.4f kg SWU\n", m.SwuConsumed)
	fmt.Printf("Feed Consumed        : %.4f kg\n", m.NatUConsumed)
	fmt.Printf("Tails Produced       : %.4f kg\n", m.TailsProduced)

	if len(m.ProductQtys) > 0 {
		qs := append([]float64(nil), m.ProductQtys...)
		sort.Float64s(qs)
		fmt.Printf("Product Trade Mean   : %.4f kg\n", stat.Mean(qs, nil))
		fmt.Printf("Product Trade Median : %.4f kg\n", stat.Quantile(0.5, stat.Empirical, qs, nil))
		fmt.Printf("Product Trade P95    : %.4f kg\n", stat.Quantile(0.95, stat.Empirical, qs, nil))
	}
}
