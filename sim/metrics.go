// Tracks simulation-wide and per-pedestrian movement statistics.

package sim

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	Ticks         int64 // ticks executed so far
	Arrived       int   // pedestrians that reached a target
	TotalMoves    int   // committed moves across all pedestrians
	DiagonalMoves int   // subset of TotalMoves that were diagonal
	Stays         int   // move attempts that ended in place
	Trapped       int   // move attempts where no finite-cost cell was reachable

	TravelTicks map[int]int64 // pedestrian ID -> ticks from entry to arrival
}

// NewMetrics returns an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{TravelTicks: make(map[int]int64)}
}

// TravelStats returns mean, median and 90th percentile travel ticks of arrived pedestrians.
func (m *Metrics) TravelStats() (mean, p50, p90 float64) {
	if len(m.TravelTicks) == 0 {
		return 0, 0, 0
	}
	xs := make([]float64, 0, len(m.TravelTicks))
	for _, ticks := range m.TravelTicks {
		xs = append(xs, float64(ticks))
	}
	sort.Float64s(xs)
	return stat.Mean(xs, nil), stat.Quantile(0.5, stat.Empirical, xs, nil), stat.Quantile(0.9, stat.Empirical, xs, nil)
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print(active int, tickSeconds float64) {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Ticks                : %d (%.2f s)\n", m.Ticks, float64(m.Ticks)*tickSeconds)
	fmt.Printf("Arrived Pedestrians  : %d\n", m.Arrived)
	fmt.Printf("Active Pedestrians   : %d\n", active)
	fmt.Printf("Moves                : %d (%d diagonal)\n", m.TotalMoves, m.DiagonalMoves)
	fmt.Printf("Stays / Trapped      : %d / %d\n", m.Stays, m.Trapped)
	if m.Arrived > 0 {
		mean, p50, p90 := m.TravelStats()
		fmt.Printf("Travel Ticks mean    : %.2f\n", mean)
		fmt.Printf("Travel Ticks p50/p90 : %.0f / %.0f\n", p50, p90)
	}
}
