package sim

import "sort"

// PedestrianState is a read-only view of one pedestrian.
type PedestrianState struct {
	ID          int
	Pos         Position
	Speed       float64
	Unreachable bool
	Arrived     bool
}

// Snapshot is a copy of the simulation state after a tick, for renderers and writers.
type Snapshot struct {
	Tick        int64
	Rows        int
	Cols        int
	CellSize    float64
	Types       [][]CellType
	Costs       [][]float64
	Pedestrians []PedestrianState // pedestrians still on the grid, by ID
}

// Snapshot copies the current state. Mutating the result does not affect the simulation.
func (s *Simulation) Snapshot() Snapshot {
	g := s.grid
	snap := Snapshot{
		Tick:     s.Clock,
		Rows:     g.Rows,
		Cols:     g.Cols,
		CellSize: g.CellSize,
		Types:    g.Types(),
		Costs:    g.Costs(),
	}
	for id, pos := range g.occupancy {
		p := s.peds[id]
		snap.Pedestrians = append(snap.Pedestrians, PedestrianState{
			ID: id, Pos: pos, Speed: p.Speed, Unreachable: p.Unreachable, Arrived: p.Arrived,
		})
	}
	sort.Slice(snap.Pedestrians, func(i, j int) bool { return snap.Pedestrians[i].ID < snap.Pedestrians[j].ID })
	return snap
}

// Positions returns pedestrian ID -> position for every pedestrian on the grid.
func (s *Simulation) Positions() map[int]Position {
	out := make(map[int]Position, len(s.grid.occupancy))
	for id, p := range s.grid.occupancy {
		out[id] = p
	}
	return out
}

func sortPositions(ps []Position) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Row != ps[j].Row {
			return ps[i].Row < ps[j].Row
		}
		return ps[i].Col < ps[j].Col
	})
}
