package sim

import (
	"fmt"
	"math/rand"
)

// FloodCount returns how many pedestrians a density (per square meter) yields on this grid.
func (g *Grid) FloodCount(density float64) int {
	area := float64(g.Rows*g.Cols) * g.CellSize * g.CellSize
	return int(density * area)
}

// FloodPedestrians places FloodCount(density) pedestrians with the given speed on
// random free empty cells and returns their IDs in placement order.
func (s *Simulation) FloodPedestrians(density, speed float64, rng *rand.Rand) ([]int, error) {
	if density < 0 {
		return nil, fmt.Errorf("flood density must be non-negative, got %f", density)
	}
	g := s.grid
	n := g.FloodCount(density)

	var free []Position
	for i := range g.cells {
		c := &g.cells[i]
		if c.Type == CellEmpty && !g.Occupied(c.Pos) {
			free = append(free, c.Pos)
		}
	}
	if n > len(free) {
		return nil, fmt.Errorf("flood density %.3f needs %d cells, only %d free", density, n, len(free))
	}

	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })
	ids := make([]int, 0, n)
	for _, pos := range free[:n] {
		id, err := s.AddPedestrian(pos, speed)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
