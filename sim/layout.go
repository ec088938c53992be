package sim

import (
	"fmt"
	"strings"
)

// Layout characters understood by ParseLayout.
const (
	LayoutEmpty      = '.'
	LayoutObstacle   = 'O'
	LayoutWall       = '#'
	LayoutTarget     = 'T'
	LayoutPedestrian = 'P'
	LayoutMeasuring  = 'M'
)

// ParseLayout builds a Scenario from an ASCII map, one line per row.
// Blank lines and surrounding whitespace are ignored. Pedestrians get speed 1
// and IDs 1, 2, ... in row-major order.
func ParseLayout(layout string) (Scenario, error) {
	var rows []string
	for _, line := range strings.Split(layout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return Scenario{}, fmt.Errorf("layout: %w", ErrInvalidDimensions)
	}

	sc := Scenario{Rows: len(rows), Cols: len(rows[0]), CellSize: 1}
	nextID := 1
	for r, line := range rows {
		if len(line) != sc.Cols {
			return Scenario{}, fmt.Errorf("layout row %d has %d columns, want %d", r, len(line), sc.Cols)
		}
		for c, ch := range []byte(line) {
			p := Position{r, c}
			switch ch {
			case LayoutEmpty:
			case LayoutObstacle, LayoutWall:
				sc.Obstacles = append(sc.Obstacles, p)
			case LayoutTarget:
				sc.Targets = append(sc.Targets, p)
			case LayoutPedestrian:
				sc.Pedestrians = append(sc.Pedestrians, PedestrianSpec{ID: nextID, Pos: p, Speed: 1})
				nextID++
			case LayoutMeasuring:
				sc.MeasuringPoints = append(sc.MeasuringPoints, p)
			default:
				return Scenario{}, fmt.Errorf("layout row %d col %d: unknown cell %q", r, c, ch)
			}
		}
	}
	return sc, nil
}
