package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSimulation_ConfigErrors(t *testing.T) {
	base := func() Scenario {
		return Scenario{Rows: 3, Cols: 3, CellSize: 1, Targets: []Position{{0, 0}}}
	}
	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr error
	}{
		{"zero rows", func(sc *Scenario) { sc.Rows = 0 }, ErrInvalidDimensions},
		{"negative cell size", func(sc *Scenario) { sc.CellSize = -0.4 }, ErrInvalidCellSize},
		{"no targets", func(sc *Scenario) { sc.Targets = nil }, ErrNoTargets},
		{"target out of bounds", func(sc *Scenario) { sc.Targets = append(sc.Targets, Position{3, 0}) }, ErrOutOfBounds},
		{"obstacle out of bounds", func(sc *Scenario) { sc.Obstacles = []Position{{0, -1}} }, ErrOutOfBounds},
		{"obstacle and target on one cell", func(sc *Scenario) { sc.Obstacles = []Position{{0, 0}} }, ErrConflictingCell},
		{"measuring point out of bounds", func(sc *Scenario) { sc.MeasuringPoints = []Position{{9, 9}} }, ErrOutOfBounds},
		{"negative id", func(sc *Scenario) {
			sc.Pedestrians = []PedestrianSpec{{ID: -3, Pos: Position{2, 2}, Speed: 1}}
		}, ErrInvalidID},
		{"pedestrian out of bounds", func(sc *Scenario) {
			sc.Pedestrians = []PedestrianSpec{{Pos: Position{1, 3}, Speed: 1}}
		}, ErrOutOfBounds},
		{"pedestrian on obstacle", func(sc *Scenario) {
			sc.Obstacles = []Position{{1, 1}}
			sc.Pedestrians = []PedestrianSpec{{Pos: Position{1, 1}, Speed: 1}}
		}, ErrOnObstacle},
		{"pedestrian on target", func(sc *Scenario) {
			sc.Pedestrians = []PedestrianSpec{{Pos: Position{0, 0}, Speed: 1}}
		}, ErrOnTarget},
		{"two pedestrians on one cell", func(sc *Scenario) {
			sc.Pedestrians = []PedestrianSpec{{Pos: Position{2, 2}, Speed: 1}, {Pos: Position{2, 2}, Speed: 1}}
		}, ErrCellOccupied},
		{"duplicate explicit id", func(sc *Scenario) {
			sc.Pedestrians = []PedestrianSpec{{ID: 4, Pos: Position{2, 2}, Speed: 1}, {ID: 4, Pos: Position{2, 1}, Speed: 1}}
		}, ErrDuplicateID},
		{"zero speed", func(sc *Scenario) {
			sc.Pedestrians = []PedestrianSpec{{Pos: Position{2, 2}, Speed: 0}}
		}, ErrInvalidSpeed},
		{"speed above one cell per tick", func(sc *Scenario) {
			sc.Pedestrians = []PedestrianSpec{{Pos: Position{2, 2}, Speed: 1.5}}
		}, ErrInvalidSpeed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc := base()
			tc.mutate(&sc)
			_, err := NewSimulation(sc, DefaultSimConfig())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.wantErr), "got %v, want %v", err, tc.wantErr)
		})
	}
}

func TestNewSimulation_InvalidSimConfig(t *testing.T) {
	sc := Scenario{Rows: 2, Cols: 2, Targets: []Position{{0, 0}}}

	cfg := DefaultSimConfig()
	cfg.CostModel = "manhattan"
	_, err := NewSimulation(sc, cfg)
	assert.Error(t, err)

	cfg = withRepulsion()
	cfg.Repulsion.Radius = 0
	_, err = NewSimulation(sc, cfg)
	assert.Error(t, err)

	cfg = DefaultSimConfig()
	cfg.Trace = "everything"
	_, err = NewSimulation(sc, cfg)
	assert.Error(t, err)

	cfg = DefaultSimConfig()
	cfg.TickSeconds = -1
	_, err = NewSimulation(sc, cfg)
	assert.Error(t, err)
}

func TestNewSimulation_AssignsIDsAroundExplicitOnes(t *testing.T) {
	sc := Scenario{
		Rows: 1, Cols: 5, Targets: []Position{{0, 0}},
		Pedestrians: []PedestrianSpec{
			{Pos: Position{0, 1}, Speed: 1},
			{ID: 5, Pos: Position{0, 2}, Speed: 1},
			{Pos: Position{0, 3}, Speed: 1},
		},
	}
	s, err := NewSimulation(sc, DefaultSimConfig())
	require.NoError(t, err)

	assert.Equal(t, []int{5, 6, 7}, s.Active())
	assert.Equal(t, 1.0, s.Grid().CellSize, "zero cell size defaults to one meter")
}

func TestStep_FreeTargetNeighbor_OverridesRepulsion(t *testing.T) {
	// GIVEN pedestrian 1 next to a target that sits right beside a slow pedestrian 2,
	// with a repulsion strong enough to make the target the worst candidate
	cfg := withRepulsion()
	cfg.Repulsion.Decay = DecayRadial
	sc := Scenario{
		Rows: 2, Cols: 3, Targets: []Position{{0, 0}},
		Pedestrians: []PedestrianSpec{
			{ID: 1, Pos: Position{1, 0}, Speed: 1},
			{ID: 2, Pos: Position{0, 1}, Speed: 0.1},
		},
	}
	s, err := NewSimulation(sc, cfg)
	require.NoError(t, err)
	require.Greater(t, cfg.Repulsion.Penalty(1), s.Grid().CostAt(Position{1, 0})+cfg.Repulsion.Penalty(1.4142))

	// WHEN one tick runs
	res := s.Step()

	// THEN pedestrian 1 still steps onto the target and leaves the grid
	assert.Equal(t, []int{1}, res.Arrived)
	p, ok := s.Pedestrian(1)
	require.True(t, ok)
	assert.True(t, p.Arrived)
	assert.Equal(t, int64(1), p.ArrivedAt)
	assert.Equal(t, []int{2}, s.Active())
	assert.False(t, s.Grid().Occupied(Position{0, 0}))
}

func TestStep_OrthogonalTargetBeforeDiagonalTarget(t *testing.T) {
	s := mustLayout(t, `
		T..
		.PT
		...`, noRepulsion())

	s.Step()

	p, _ := s.Pedestrian(1)
	assert.Equal(t, Position{1, 2}, p.Pos)
	assert.True(t, p.Arrived)
}

func TestStep_EqualCosts_FirstCandidateWins(t *testing.T) {
	// GIVEN (1,0) and (1,1) both at cost 1, below the pedestrian's cell
	s := mustLayout(t, `
		TT.
		...
		.P.`, noRepulsion())
	require.Equal(t, 1.0, s.Grid().CostAt(Position{1, 0}))
	require.Equal(t, 1.0, s.Grid().CostAt(Position{1, 1}))

	// WHEN the pedestrian moves
	s.Step()

	// THEN it takes the orthogonal step, not the equally cheap diagonal
	p, _ := s.Pedestrian(1)
	assert.Equal(t, Position{1, 1}, p.Pos)
	assert.Equal(t, 0, p.Diagonals)
}

func TestStep_LaterPedestrianSeesEarlierMoves(t *testing.T) {
	// GIVEN a single-file corridor with the front pedestrian processed first
	s := mustLayout(t, "TPP", noRepulsion())

	// WHEN one tick runs
	res := s.Step()

	// THEN the front one arrives and the second moves into the freed cell
	assert.Equal(t, []int{1, 2}, res.Moved)
	assert.Equal(t, []int{1}, res.Arrived)
	pos, _ := s.Grid().PositionOf(2)
	assert.Equal(t, Position{0, 1}, pos)
}

func TestStep_EarlierPedestrianBlockedByLaterOne(t *testing.T) {
	// GIVEN the same corridor but the rear pedestrian has the lower ID
	sc := Scenario{
		Rows: 1, Cols: 3, Targets: []Position{{0, 0}},
		Pedestrians: []PedestrianSpec{
			{ID: 1, Pos: Position{0, 2}, Speed: 1},
			{ID: 2, Pos: Position{0, 1}, Speed: 1},
		},
	}
	s, err := NewSimulation(sc, DefaultSimConfig())
	require.NoError(t, err)

	// WHEN one tick runs
	res := s.Step()

	// THEN the rear one is blocked this tick and follows on the next
	assert.Equal(t, []int{1}, res.Stayed)
	assert.Equal(t, []int{2}, res.Arrived)

	res = s.Step()
	assert.Equal(t, []int{1}, res.Moved)
	pos, _ := s.Grid().PositionOf(1)
	assert.Equal(t, Position{0, 1}, pos)
}

func TestStep_NonAbsorbingTargets_ArrivedPedestrianBlocksTarget(t *testing.T) {
	cfg := noRepulsion()
	cfg.AbsorbingTargets = false
	s := mustLayout(t, "TPP", cfg)

	s.Step()
	res := s.Step()

	// pedestrian 1 stays on the target, inactive; pedestrian 2 waits beside it
	assert.Equal(t, []int{2}, s.Active())
	assert.Equal(t, []int{2}, res.Stayed)
	assert.Empty(t, res.Trapped)
	pos, ok := s.Grid().PositionOf(1)
	require.True(t, ok)
	assert.Equal(t, Position{0, 0}, pos)
	assert.Equal(t, CellTarget, s.Snapshot().Types[0][0])
	assert.False(t, s.Done())
}

func TestStep_TrappedPedestrianStays(t *testing.T) {
	s := mustLayout(t, `
		T.O..
		..O.P`, noRepulsion())
	require.Equal(t, []int{1}, s.Unreachable())

	res := s.Step()

	assert.Empty(t, res.Moved)
	assert.Equal(t, []int{1}, res.Trapped)
	assert.Equal(t, 1, s.Metrics.Trapped)
	p, _ := s.Pedestrian(1)
	assert.Equal(t, Position{1, 4}, p.Pos)
}

func TestStep_SlowPedestrian_MovesEveryOtherTick(t *testing.T) {
	sc := Scenario{
		Rows: 1, Cols: 6, Targets: []Position{{0, 0}},
		Pedestrians: []PedestrianSpec{{Pos: Position{0, 5}, Speed: 0.5}},
	}
	s, err := NewSimulation(sc, DefaultSimConfig())
	require.NoError(t, err)

	var moved []int64
	for i := 0; i < 6; i++ {
		if res := s.Step(); len(res.Moved) > 0 {
			moved = append(moved, res.Tick)
		}
	}
	assert.Equal(t, []int64{2, 4, 6}, moved)
	pos, _ := s.Grid().PositionOf(1)
	assert.Equal(t, Position{0, 2}, pos)
}

func TestStep_CrowdInvariants(t *testing.T) {
	layout := `
		T.........
		.PPPP.....
		.PPPP..OO.
		.PPPP..O..
		.......O.T
		PPPPP.....`

	for _, cfg := range []SimConfig{noRepulsion(), withRepulsion()} {
		s := mustLayout(t, layout, cfg)
		costs := s.CostField()

		for tick := 0; tick < 40 && !s.Done(); tick++ {
			before := s.Positions()
			res := s.Step()
			assertCollisionFree(t, s)

			for _, id := range res.Moved {
				from := before[id]
				p, _ := s.Pedestrian(id)
				to := p.Pos
				assert.LessOrEqual(t, absInt(from.Row-to.Row), 1)
				assert.LessOrEqual(t, absInt(from.Col-to.Col), 1)
				if !cfg.Repulsion.Enabled {
					// without repulsion every move strictly descends the cost field
					assert.Less(t, costs[to.Row][to.Col], costs[from.Row][from.Col],
						"pedestrian %d %s -> %s", id, from, to)
				}
			}
		}
		assert.True(t, s.Done(), "repulsion=%v", cfg.Repulsion.Enabled)
		assert.Equal(t, 17, s.Metrics.Arrived)
	}
}

func TestStep_Deterministic(t *testing.T) {
	layout := `
		..T..
		.....
		P.P.P
		.P.P.
		P.P.P`
	a := mustLayout(t, layout, withRepulsion())
	b := mustLayout(t, layout, withRepulsion())

	for i := 0; i < 15; i++ {
		ra, rb := a.Step(), b.Step()
		assert.Equal(t, ra, rb)
		assert.Equal(t, a.Positions(), b.Positions())
	}
}

func TestAddPedestrian_AssignsFreshIDs(t *testing.T) {
	s := mustLayout(t, `
		T..
		.P.
		...`, noRepulsion())

	id, err := s.AddPedestrian(Position{2, 2}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, id)
	assert.Equal(t, []int{1, 2}, s.Active())

	_, err = s.AddPedestrian(Position{1, 1}, 1)
	assert.ErrorIs(t, err, ErrCellOccupied)
	_, err = s.AddPedestrian(Position{0, 0}, 1)
	assert.ErrorIs(t, err, ErrOnTarget)
	_, err = s.AddPedestrian(Position{2, 0}, 2)
	assert.ErrorIs(t, err, ErrInvalidSpeed)

	// failed attempts do not consume IDs
	id, err = s.AddPedestrian(Position{2, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, id)
}

func TestAddPedestrian_AfterArrival_NeverReusesID(t *testing.T) {
	s := mustLayout(t, "TP.", noRepulsion())
	s.Step()
	require.True(t, s.Done())

	id, err := s.AddPedestrian(Position{0, 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, id)
}

func TestAddPedestrian_FlagsUnreachable(t *testing.T) {
	s := mustLayout(t, `
		T.O..
		..O..`, noRepulsion())

	id, err := s.AddPedestrian(Position{0, 4}, 1)
	require.NoError(t, err)
	p, _ := s.Pedestrian(id)
	assert.True(t, p.Unreachable)
	assert.Equal(t, []int{id}, s.Unreachable())
}

func TestSetCellType_RecomputesCostField(t *testing.T) {
	s := mustLayout(t, `
		T.O.P
		..O..`, noRepulsion())
	require.Equal(t, []int{1}, s.Unreachable())

	// WHEN a target appears inside the pocket
	require.NoError(t, s.SetCellType(Position{1, 4}, CellTarget))

	// THEN the pedestrian becomes reachable
	assert.Empty(t, s.Unreachable())
	assert.Equal(t, 1.0, s.Grid().CostAt(Position{0, 4}))

	// WHEN the wall is opened
	require.NoError(t, s.SetCellType(Position{1, 2}, CellEmpty))
	assert.Equal(t, 2.0, s.Grid().CostAt(Position{1, 2}))
}

func TestSetCellType_Errors(t *testing.T) {
	s := mustLayout(t, "T.P", noRepulsion())

	assert.ErrorIs(t, s.SetCellType(Position{0, 0}, CellEmpty), ErrNoTargets)
	assert.ErrorIs(t, s.SetCellType(Position{0, 2}, CellObstacle), ErrCellOccupied)
	assert.ErrorIs(t, s.SetCellType(Position{1, 0}, CellObstacle), ErrOutOfBounds)
	assert.Error(t, s.SetCellType(Position{0, 1}, CellOccupied))

	assert.Equal(t, CellTarget, s.Grid().TypeAt(Position{0, 0}))
}

func TestSetCellType_OccupiedTarget_KeepsType(t *testing.T) {
	// GIVEN a pedestrian that arrived on a non-absorbing target
	cfg := noRepulsion()
	cfg.AbsorbingTargets = false
	s := mustLayout(t, `
		T..T
		P...`, cfg)
	s.Step()
	p, _ := s.Pedestrian(1)
	require.True(t, p.Arrived)
	require.Equal(t, Position{0, 0}, p.Pos)

	// WHEN the target under it is cleared
	err := s.SetCellType(Position{0, 0}, CellEmpty)

	// THEN the edit is refused and the cell is still a target
	assert.ErrorIs(t, err, ErrCellOccupied)
	assert.Equal(t, CellTarget, s.Grid().TypeAt(Position{0, 0}))
	assert.Equal(t, CellTarget, s.Snapshot().Types[0][0])

	// AND re-declaring its own type is a no-op
	assert.NoError(t, s.SetCellType(Position{0, 0}, CellTarget))
}

func TestNewSimulation_MaxIntID_Rejected(t *testing.T) {
	sc := Scenario{
		Rows: 1, Cols: 3, Targets: []Position{{0, 0}},
		Pedestrians: []PedestrianSpec{{ID: math.MaxInt, Pos: Position{0, 2}, Speed: 1}},
	}
	_, err := NewSimulation(sc, DefaultSimConfig())
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestAddPedestrian_IDSpaceExhausted(t *testing.T) {
	// GIVEN the largest usable explicit id
	sc := Scenario{
		Rows: 1, Cols: 4, Targets: []Position{{0, 0}},
		Pedestrians: []PedestrianSpec{{ID: math.MaxInt - 1, Pos: Position{0, 3}, Speed: 1}},
	}
	s, err := NewSimulation(sc, DefaultSimConfig())
	require.NoError(t, err)

	// WHEN another pedestrian is added
	_, err = s.AddPedestrian(Position{0, 2}, 1)

	// THEN it is refused instead of wrapping to a negative id
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.Equal(t, []int{math.MaxInt - 1}, s.Active())
}

func TestGrid_Cell_ReturnsCopy(t *testing.T) {
	s := mustLayout(t, "T.P", noRepulsion())

	c := s.Grid().Cell(Position{0, 1})
	c.Type = CellObstacle
	c.Cost = 99

	assert.Equal(t, CellEmpty, s.Grid().TypeAt(Position{0, 1}))
	assert.Equal(t, 1.0, s.Grid().CostAt(Position{0, 1}))
}

func TestSnapshot_IsIndependentCopy(t *testing.T) {
	s := mustLayout(t, `
		T..
		.PP`, noRepulsion())

	snap := s.Snapshot()
	require.Len(t, snap.Pedestrians, 2)
	assert.Equal(t, 1, snap.Pedestrians[0].ID)
	assert.Equal(t, CellOccupied, snap.Types[1][1])

	snap.Costs[0][0] = 42
	snap.Types[0][0] = CellObstacle
	assert.Equal(t, 0.0, s.Grid().CostAt(Position{0, 0}))
	assert.Equal(t, CellTarget, s.Grid().TypeAt(Position{0, 0}))
}

func TestTickSeconds(t *testing.T) {
	sc := Scenario{Rows: 1, Cols: 2, CellSize: 0.4, Targets: []Position{{0, 0}}}
	s, err := NewSimulation(sc, DefaultSimConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0.4/DefaultWalkingSpeed, s.TickSeconds(), 1e-12)

	cfg := DefaultSimConfig()
	cfg.TickSeconds = 0.3
	s, err = NewSimulation(sc, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.TickSeconds())
}
