package cmd

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	sim "github.com/crowd-sim/crowd-sim/sim"
	"github.com/crowd-sim/crowd-sim/sim/trace"
)

// SnapshotOutput is the YAML document written by --snapshot-out.
type SnapshotOutput struct {
	RunID       string             `yaml:"run_id"`
	Seed        int64              `yaml:"seed"`
	Reason      string             `yaml:"reason"`
	Tick        int64              `yaml:"tick"`
	Rows        int                `yaml:"rows"`
	Cols        int                `yaml:"cols"`
	CellSize    float64            `yaml:"cell_size"`
	TickSeconds float64            `yaml:"tick_seconds"`
	Grid        []string           `yaml:"grid"`
	Pedestrians []PedestrianOutput `yaml:"pedestrians"`
	Metrics     MetricsOutput      `yaml:"metrics"`
	Trace       *TraceOutput       `yaml:"trace,omitempty"`
}

// PedestrianOutput is one pedestrian still on the grid.
type PedestrianOutput struct {
	ID          int     `yaml:"id"`
	Row         int     `yaml:"row"`
	Col         int     `yaml:"col"`
	Speed       float64 `yaml:"speed"`
	Unreachable bool    `yaml:"unreachable,omitempty"`
	Arrived     bool    `yaml:"arrived,omitempty"`
}

// MetricsOutput mirrors sim.Metrics with travel-time statistics.
type MetricsOutput struct {
	Arrived         int     `yaml:"arrived"`
	Active          int     `yaml:"active"`
	TotalMoves      int     `yaml:"total_moves"`
	DiagonalMoves   int     `yaml:"diagonal_moves"`
	Stays           int     `yaml:"stays"`
	Trapped         int     `yaml:"trapped"`
	MeanTravelTicks float64 `yaml:"mean_travel_ticks"`
	P50TravelTicks  float64 `yaml:"p50_travel_ticks"`
	P90TravelTicks  float64 `yaml:"p90_travel_ticks"`
}

// TraceOutput is written when tracing was enabled.
type TraceOutput struct {
	Arrivals     int                       `yaml:"arrivals"`
	Moves        int                       `yaml:"moves"`
	Measurements []trace.MeasurementRecord `yaml:"measurements,omitempty"`
	MeanSpeed    float64                   `yaml:"mean_speed_mps"`
	MeanDensity  float64                   `yaml:"mean_density"`
}

// NewSnapshotOutput collects the final state of s under a fresh run ID.
func NewSnapshotOutput(s *sim.Simulation, res sim.RunResult, seed int64) SnapshotOutput {
	snap := s.Snapshot()
	out := SnapshotOutput{
		RunID:       uuid.NewString(),
		Seed:        seed,
		Reason:      string(res.Reason),
		Tick:        snap.Tick,
		Rows:        snap.Rows,
		Cols:        snap.Cols,
		CellSize:    snap.CellSize,
		TickSeconds: s.TickSeconds(),
		Grid:        RenderGrid(snap),
	}
	for _, p := range snap.Pedestrians {
		out.Pedestrians = append(out.Pedestrians, PedestrianOutput{
			ID: p.ID, Row: p.Pos.Row, Col: p.Pos.Col, Speed: p.Speed,
			Unreachable: p.Unreachable, Arrived: p.Arrived,
		})
	}

	m := s.Metrics
	mean, p50, p90 := m.TravelStats()
	out.Metrics = MetricsOutput{
		Arrived: m.Arrived, Active: len(s.Active()),
		TotalMoves: m.TotalMoves, DiagonalMoves: m.DiagonalMoves,
		Stays: m.Stays, Trapped: m.Trapped,
		MeanTravelTicks: mean, P50TravelTicks: p50, P90TravelTicks: p90,
	}

	if s.Trace.Config.RecordsArrivals() {
		sum := trace.Summarize(s.Trace)
		out.Trace = &TraceOutput{
			Arrivals:     sum.Arrivals,
			Moves:        sum.TotalMoves,
			Measurements: s.Trace.Measurements,
			MeanSpeed:    sum.MeanSpeed,
			MeanDensity:  sum.MeanDensity,
		}
	}
	return out
}

// WriteSnapshot writes out as YAML to path.
func WriteSnapshot(path string, out SnapshotOutput) error {
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}

// RenderGrid draws the snapshot with the layout characters, one string per row.
// Pedestrians standing on a target are drawn as targets.
func RenderGrid(snap sim.Snapshot) []string {
	rows := make([]string, snap.Rows)
	for r, types := range snap.Types {
		var b strings.Builder
		for _, t := range types {
			switch t {
			case sim.CellObstacle:
				b.WriteByte(sim.LayoutObstacle)
			case sim.CellTarget:
				b.WriteByte(sim.LayoutTarget)
			case sim.CellOccupied:
				b.WriteByte(sim.LayoutPedestrian)
			default:
				b.WriteByte(sim.LayoutEmpty)
			}
		}
		rows[r] = b.String()
	}
	return rows
}

// FormatCosts renders the cost field with fixed-width columns; unreachable cells print as "inf".
func FormatCosts(costs [][]float64) string {
	var b strings.Builder
	for _, row := range costs {
		for c, v := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			if math.IsInf(v, 1) {
				fmt.Fprintf(&b, "%7s", "inf")
			} else {
				fmt.Fprintf(&b, "%7.3f", v)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
