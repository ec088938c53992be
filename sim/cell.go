package sim

import (
	"fmt"
	"math"
)

// CellType is the static kind of a grid cell.
// CellOccupied is an overlay reported by snapshot queries; it is never stored on a Cell.
type CellType int

const (
	CellEmpty CellType = iota
	CellObstacle
	CellTarget
	CellOccupied
)

// String returns the lowercase name used in logs and scenario files.
func (t CellType) String() string {
	switch t {
	case CellEmpty:
		return "empty"
	case CellObstacle:
		return "obstacle"
	case CellTarget:
		return "target"
	case CellOccupied:
		return "occupied"
	default:
		return fmt.Sprintf("CellType(%d)", int(t))
	}
}

// Position addresses a cell by row and column.
type Position struct {
	Row int
	Col int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Cell is one unit of the grid. Cost and visited are written only by the cost field.
type Cell struct {
	Pos  Position
	Type CellType
	Cost float64 // accumulated distance to the nearest target, +Inf when unreachable

	visited bool
}

func newCell(pos Position) Cell {
	return Cell{Pos: pos, Type: CellEmpty, Cost: math.Inf(1)}
}

// Reachable reports whether some target can be reached from this cell.
func (c Cell) Reachable() bool {
	return !math.IsInf(c.Cost, 1)
}
