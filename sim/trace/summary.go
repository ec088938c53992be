package trace

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalMoves      int
	DiagonalMoves   int
	Arrivals        int
	MeanTravelTicks float64
	P90TravelTicks  float64
	Measurements    int
	MeanSpeed       float64
	MeanDensity     float64
	MovesPerAgent   map[int]int // pedestrian ID → count of recorded moves
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		MovesPerAgent: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalMoves = len(st.Moves)
	for _, m := range st.Moves {
		summary.MovesPerAgent[m.PedestrianID]++
		if m.Diagonal {
			summary.DiagonalMoves++
		}
	}

	summary.Arrivals = len(st.Arrivals)
	if len(st.Arrivals) > 0 {
		travel := make([]float64, len(st.Arrivals))
		for i, a := range st.Arrivals {
			travel[i] = float64(a.TravelTicks)
		}
		sort.Float64s(travel)
		summary.MeanTravelTicks = stat.Mean(travel, nil)
		summary.P90TravelTicks = stat.Quantile(0.9, stat.Empirical, travel, nil)
	}

	summary.Measurements = len(st.Measurements)
	if len(st.Measurements) > 0 {
		speeds := make([]float64, len(st.Measurements))
		densities := make([]float64, len(st.Measurements))
		for i, m := range st.Measurements {
			speeds[i] = m.Speed
			densities[i] = m.Density
		}
		summary.MeanSpeed = stat.Mean(speeds, nil)
		summary.MeanDensity = stat.Mean(densities, nil)
	}

	return summary
}
