package sim

import (
	"fmt"
	"math"
)

// Grid is a dense row-major array of cells plus the occupancy mapping.
//
// The pedestrian id → position map is the only record of who stands where;
// byPos is its inverse and is updated by the same methods. Cells never refer
// to pedestrians.
type Grid struct {
	Rows     int
	Cols     int
	CellSize float64 // meters per cell

	cells     []Cell
	occupancy map[int]Position
	byPos     map[Position]int
}

// NewGrid allocates a grid of empty cells with +Inf cost.
func NewGrid(rows, cols int, cellSize float64) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, rows, cols)
	}
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellSize, cellSize)
	}
	g := &Grid{
		Rows:      rows,
		Cols:      cols,
		CellSize:  cellSize,
		cells:     make([]Cell, rows*cols),
		occupancy: make(map[int]Position),
		byPos:     make(map[Position]int),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.cells[g.index(Position{r, c})] = newCell(Position{r, c})
		}
	}
	return g, nil
}

func (g *Grid) index(p Position) int { return p.Row*g.Cols + p.Col }

// InBounds reports whether p addresses a cell of the grid.
func (g *Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < g.Rows && p.Col >= 0 && p.Col < g.Cols
}

// Cell returns the cell at p. p must be in bounds.
func (g *Grid) Cell(p Position) Cell {
	return g.cells[g.index(p)]
}

// TypeAt returns the static type of the cell at p.
func (g *Grid) TypeAt(p Position) CellType {
	return g.cells[g.index(p)].Type
}

// CostAt returns the cost-field value at p.
func (g *Grid) CostAt(p Position) float64 {
	return g.cells[g.index(p)].Cost
}

func (g *Grid) setType(p Position, t CellType) {
	g.cells[g.index(p)].Type = t
}

// Neighbors returns the in-bounds neighbors of p, orthogonal first, then diagonal.
func (g *Grid) Neighbors(p Position) []Position {
	out := make([]Position, 0, len(neighborOffsets))
	for _, o := range neighborOffsets {
		n := Position{p.Row + o.dr, p.Col + o.dc}
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Targets returns the target positions in row-major order.
func (g *Grid) Targets() []Position {
	var out []Position
	for i := range g.cells {
		if g.cells[i].Type == CellTarget {
			out = append(out, g.cells[i].Pos)
		}
	}
	return out
}

// CountType returns how many cells have the given static type.
func (g *Grid) CountType(t CellType) int {
	n := 0
	for i := range g.cells {
		if g.cells[i].Type == t {
			n++
		}
	}
	return n
}

// OccupantAt returns the id of the pedestrian standing on p.
func (g *Grid) OccupantAt(p Position) (int, bool) {
	id, ok := g.byPos[p]
	return id, ok
}

// Occupied reports whether a pedestrian stands on p.
func (g *Grid) Occupied(p Position) bool {
	_, ok := g.byPos[p]
	return ok
}

// PositionOf returns where pedestrian id stands.
func (g *Grid) PositionOf(id int) (Position, bool) {
	p, ok := g.occupancy[id]
	return p, ok
}

// Occupants returns the number of pedestrians on the grid.
func (g *Grid) Occupants() int { return len(g.occupancy) }

func (g *Grid) place(id int, p Position) {
	g.occupancy[id] = p
	g.byPos[p] = id
}

func (g *Grid) move(id int, to Position) {
	from := g.occupancy[id]
	delete(g.byPos, from)
	g.occupancy[id] = to
	g.byPos[to] = id
}

func (g *Grid) remove(id int) {
	if p, ok := g.occupancy[id]; ok {
		delete(g.byPos, p)
		delete(g.occupancy, id)
	}
}

// Costs returns a row-major copy of the cost field.
func (g *Grid) Costs() [][]float64 {
	out := make([][]float64, g.Rows)
	for r := 0; r < g.Rows; r++ {
		row := make([]float64, g.Cols)
		for c := 0; c < g.Cols; c++ {
			row[c] = g.cells[r*g.Cols+c].Cost
		}
		out[r] = row
	}
	return out
}

// Types returns a row-major copy of the cell types with occupied cells overlaid.
func (g *Grid) Types() [][]CellType {
	out := make([][]CellType, g.Rows)
	for r := 0; r < g.Rows; r++ {
		row := make([]CellType, g.Cols)
		for c := 0; c < g.Cols; c++ {
			p := Position{r, c}
			row[c] = g.cells[g.index(p)].Type
			if row[c] == CellEmpty && g.Occupied(p) {
				row[c] = CellOccupied
			}
		}
		out[r] = row
	}
	return out
}
