package sim

import "github.com/crowd-sim/crowd-sim/sim/trace"

// measureWindow is the side length, in cells, of the square used for density.
const measureWindow = 10

// windowBounds returns the first index and size of a window of length measureWindow
// around center (4 cells before, 5 after), shifted to stay inside [0, n).
func windowBounds(center, n int) (lo, size int) {
	size = min(measureWindow, n)
	lo = center - (measureWindow/2 - 1)
	lo = max(0, min(lo, n-size))
	return lo, size
}

// Density returns pedestrians per square meter in the 10x10-cell window around p.
func (g *Grid) Density(p Position) float64 {
	return g.densityExcluding(p, 0)
}

// densityExcluding is Density without pedestrian id (0 excludes nobody).
func (g *Grid) densityExcluding(p Position, id int) float64 {
	r0, rows := windowBounds(p.Row, g.Rows)
	c0, cols := windowBounds(p.Col, g.Cols)
	count := 0
	for r := r0; r < r0+rows; r++ {
		for c := c0; c < c0+cols; c++ {
			if other, ok := g.OccupantAt(Position{r, c}); ok && other != id {
				count++
			}
		}
	}
	area := float64(rows*cols) * g.CellSize * g.CellSize
	return float64(count) / area
}

// Speed returns p's average speed in meters per second over its recorded history.
func (s *Simulation) Speed(p *Pedestrian) float64 {
	span := p.history.Span()
	if span == 0 {
		return 0
	}
	meters := p.history.PathLength() * s.grid.CellSize
	return meters / (float64(span) * s.TickSeconds())
}

// measure records the crowd around p as p enters a measuring point. The
// density counts the other pedestrians only.
func (s *Simulation) measure(p *Pedestrian) {
	rec := trace.MeasurementRecord{
		Tick:         s.Clock,
		PedestrianID: p.ID,
		Row:          p.Pos.Row,
		Col:          p.Pos.Col,
		Density:      s.grid.densityExcluding(p.Pos, p.ID),
		Speed:        s.Speed(p),
	}
	s.Trace.RecordMeasurement(rec)
}

// MeasuringPoints returns the configured measuring points in row-major order.
func (s *Simulation) MeasuringPoints() []Position {
	var out []Position
	s.measuring.Each(func(p Position) { out = append(out, p) })
	sortPositions(out)
	return out
}
