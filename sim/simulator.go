package sim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"

	"github.com/crowd-sim/crowd-sim/sim/trace"
)

// PedestrianSpec describes a pedestrian at scenario load. ID 0 means "assign one".
type PedestrianSpec struct {
	ID    int
	Pos   Position
	Speed float64 // cells per tick
}

// Scenario is the initial state handed over by a scenario loader.
type Scenario struct {
	Rows            int
	Cols            int
	CellSize        float64 // meters per cell
	Obstacles       []Position
	Targets         []Position
	Pedestrians     []PedestrianSpec
	MeasuringPoints []Position
}

// TickResult reports what happened during one Step.
type TickResult struct {
	Tick    int64
	Moved   []int // pedestrians that changed cell
	Arrived []int // pedestrians that reached a target (subset of Moved)
	Stayed  []int // pedestrians that attempted a move but kept their cell
	Trapped []int // subset of Stayed whose cell has no finite cost
}

// StopReason explains why Run returned.
type StopReason string

const (
	StopEmpty    StopReason = "empty"
	StopMaxTicks StopReason = "max-ticks"
	StopStalled  StopReason = "stalled"
	StopCanceled StopReason = "canceled"
)

// RunResult is returned by Run.
type RunResult struct {
	Ticks  int64
	Reason StopReason
}

// Simulation is the state of one run: the grid, its cost field and the pedestrians.
// It is not safe for concurrent use.
type Simulation struct {
	Clock   int64
	Metrics *Metrics
	Trace   *trace.SimulationTrace

	grid      *Grid
	cfg       SimConfig
	active    []*Pedestrian // ascending ID; processing order of Step
	peds      map[int]*Pedestrian
	entered   map[int]int64 // pedestrian ID -> tick it joined the grid
	nextID    int
	measuring mapset.Set[Position]
}

// NewSimulation validates sc and cfg, builds the grid and computes the cost field.
func NewSimulation(sc Scenario, cfg SimConfig) (*Simulation, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	cellSize := sc.CellSize
	if cellSize == 0 {
		cellSize = 1
	}
	g, err := NewGrid(sc.Rows, sc.Cols, cellSize)
	if err != nil {
		return nil, err
	}

	for _, p := range sc.Obstacles {
		if !g.InBounds(p) {
			return nil, fmt.Errorf("obstacle %s: %w", p, ErrOutOfBounds)
		}
		g.setType(p, CellObstacle)
	}
	for _, p := range sc.Targets {
		if !g.InBounds(p) {
			return nil, fmt.Errorf("target %s: %w", p, ErrOutOfBounds)
		}
		if g.TypeAt(p) == CellObstacle {
			return nil, fmt.Errorf("cell %s: %w", p, ErrConflictingCell)
		}
		g.setType(p, CellTarget)
	}
	if g.CountType(CellTarget) == 0 {
		return nil, ErrNoTargets
	}

	s := &Simulation{
		Metrics:   NewMetrics(),
		Trace:     trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.Trace}),
		grid:      g,
		cfg:       cfg,
		peds:      make(map[int]*Pedestrian),
		entered:   make(map[int]int64),
		nextID:    1,
		measuring: mapset.New[Position](),
	}
	for _, p := range sc.MeasuringPoints {
		if !g.InBounds(p) {
			return nil, fmt.Errorf("measuring point %s: %w", p, ErrOutOfBounds)
		}
		s.measuring.Put(p)
	}

	// Explicit IDs first so that assigned ones never collide with them.
	for _, spec := range sc.Pedestrians {
		if spec.ID < 0 || spec.ID == math.MaxInt {
			return nil, fmt.Errorf("pedestrian id %d: %w", spec.ID, ErrInvalidID)
		}
		if spec.ID >= s.nextID {
			s.nextID = spec.ID + 1
		}
	}
	for _, spec := range sc.Pedestrians {
		id := spec.ID
		if id == 0 {
			id = s.nextID
			s.nextID++
		}
		if err := s.addPedestrian(id, spec.Pos, spec.Speed); err != nil {
			return nil, err
		}
	}

	if err := ComputeCostField(g, cfg.CostModel); err != nil {
		return nil, err
	}
	s.flagUnreachable()

	logrus.Infof("Simulation ready: %dx%d grid, %d targets, %d obstacles, %d pedestrians, cost model %q",
		g.Rows, g.Cols, g.CountType(CellTarget), g.CountType(CellObstacle), len(s.active), cfg.CostModel)
	return s, nil
}

func validateConfig(cfg SimConfig) error {
	if !ValidCostModels[cfg.CostModel] {
		return fmt.Errorf("unknown cost model %q", cfg.CostModel)
	}
	if err := cfg.Repulsion.Validate(); err != nil {
		return err
	}
	if !trace.IsValidTraceLevel(string(cfg.Trace)) {
		return fmt.Errorf("unknown trace level %q", cfg.Trace)
	}
	if cfg.TickSeconds < 0 {
		return fmt.Errorf("tick seconds must be non-negative, got %f", cfg.TickSeconds)
	}
	return nil
}

func (s *Simulation) addPedestrian(id int, pos Position, speed float64) error {
	g := s.grid
	switch {
	case id <= 0 || id == math.MaxInt:
		return fmt.Errorf("pedestrian id %d: %w", id, ErrInvalidID)
	case !g.InBounds(pos):
		return fmt.Errorf("pedestrian %d at %s: %w", id, pos, ErrOutOfBounds)
	case g.TypeAt(pos) == CellObstacle:
		return fmt.Errorf("pedestrian %d at %s: %w", id, pos, ErrOnObstacle)
	case g.TypeAt(pos) == CellTarget:
		return fmt.Errorf("pedestrian %d at %s: %w", id, pos, ErrOnTarget)
	case g.Occupied(pos):
		return fmt.Errorf("pedestrian %d at %s: %w", id, pos, ErrCellOccupied)
	case math.IsNaN(speed) || speed <= 0 || speed > 1:
		return fmt.Errorf("pedestrian %d speed %v: %w", id, speed, ErrInvalidSpeed)
	}
	if _, dup := s.peds[id]; dup {
		return fmt.Errorf("pedestrian %d: %w", id, ErrDuplicateID)
	}

	p := newPedestrian(id, pos, speed, s.cfg.HistoryWindow)
	s.peds[id] = p
	s.entered[id] = s.Clock
	g.place(id, pos)

	i := sort.Search(len(s.active), func(i int) bool { return s.active[i].ID > id })
	s.active = append(s.active, nil)
	copy(s.active[i+1:], s.active[i:])
	s.active[i] = p
	return nil
}

// AddPedestrian places a new pedestrian on pos and returns its ID.
// IDs are never reused within a run.
func (s *Simulation) AddPedestrian(pos Position, speed float64) (int, error) {
	id := s.nextID
	if err := s.addPedestrian(id, pos, speed); err != nil {
		return 0, err
	}
	s.nextID++
	p := s.peds[id]
	p.Unreachable = !s.grid.Cell(pos).Reachable()
	if p.Unreachable {
		logrus.Warnf("pedestrian %d at %s cannot reach any target", id, pos)
	}
	return id, nil
}

// SetCellType changes the static type of a cell and recomputes the whole cost field.
func (s *Simulation) SetCellType(pos Position, t CellType) error {
	g := s.grid
	if !g.InBounds(pos) {
		return fmt.Errorf("cell %s: %w", pos, ErrOutOfBounds)
	}
	if t != CellEmpty && t != CellObstacle && t != CellTarget {
		return fmt.Errorf("cell %s: cannot set type %s", pos, t)
	}
	// An arrived pedestrian on a non-absorbing target is off the active list,
	// so its cell must keep its type.
	if g.Occupied(pos) && g.TypeAt(pos) != t {
		return fmt.Errorf("cell %s: %w", pos, ErrCellOccupied)
	}
	if g.TypeAt(pos) == CellTarget && t != CellTarget && g.CountType(CellTarget) == 1 {
		return fmt.Errorf("cell %s: %w", pos, ErrNoTargets)
	}
	g.setType(pos, t)
	return s.RecomputeCostField()
}

// RecomputeCostField reruns the cost field over the whole grid and refreshes
// the unreachable flags.
func (s *Simulation) RecomputeCostField() error {
	if err := ComputeCostField(s.grid, s.cfg.CostModel); err != nil {
		return err
	}
	s.flagUnreachable()
	return nil
}

func (s *Simulation) flagUnreachable() {
	for _, p := range s.active {
		p.Unreachable = !s.grid.Cell(p.Pos).Reachable()
		if p.Unreachable {
			logrus.Warnf("pedestrian %d at %s cannot reach any target", p.ID, p.Pos)
		}
	}
}

// Grid exposes the simulation grid for read-only queries.
func (s *Simulation) Grid() *Grid { return s.grid }

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() SimConfig { return s.cfg }

// CostField returns a row-major copy of the current cost field.
func (s *Simulation) CostField() [][]float64 { return s.grid.Costs() }

// Pedestrian returns the pedestrian with the given ID, including arrived ones.
func (s *Simulation) Pedestrian(id int) (*Pedestrian, bool) {
	p, ok := s.peds[id]
	return p, ok
}

// Active returns the IDs of pedestrians that have not arrived, in processing order.
func (s *Simulation) Active() []int {
	ids := make([]int, len(s.active))
	for i, p := range s.active {
		ids[i] = p.ID
	}
	return ids
}

// Unreachable returns the IDs of active pedestrians standing on +Inf cost cells.
func (s *Simulation) Unreachable() []int {
	var ids []int
	for _, p := range s.active {
		if p.Unreachable {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Done reports whether every pedestrian has reached a target.
func (s *Simulation) Done() bool { return len(s.active) == 0 }

// TickSeconds returns the wall time represented by one tick.
func (s *Simulation) TickSeconds() float64 {
	if s.cfg.TickSeconds > 0 {
		return s.cfg.TickSeconds
	}
	return s.grid.CellSize / DefaultWalkingSpeed
}

// selectCell picks where p goes this tick. The first free target neighbor wins
// outright; otherwise the lowest effective cost wins, staying put on ties.
func (s *Simulation) selectCell(p *Pedestrian) (Position, float64) {
	g := s.grid
	best := p.Pos
	bestCost := g.CostAt(p.Pos) + s.repulsionAt(p.Pos, p.ID)
	for _, o := range neighborOffsets {
		n := Position{p.Pos.Row + o.dr, p.Pos.Col + o.dc}
		if !g.InBounds(n) {
			continue
		}
		t := g.TypeAt(n)
		if t == CellObstacle || g.Occupied(n) {
			continue
		}
		if t == CellTarget {
			return n, 0
		}
		base := g.CostAt(n)
		if math.IsInf(base, 1) {
			continue
		}
		if c := base + s.repulsionAt(n, p.ID); c < bestCost {
			best, bestCost = n, c
		}
	}
	return best, bestCost
}

// Step advances the simulation by one tick. Pedestrians are processed in
// ascending ID order and see the moves committed earlier in the same tick.
func (s *Simulation) Step() TickResult {
	s.Clock++
	s.Metrics.Ticks = s.Clock
	res := TickResult{Tick: s.Clock}
	g := s.grid

	for _, p := range s.active {
		if !p.advance() {
			p.history.Append(Sample{Pos: p.Pos, Tick: s.Clock})
			continue
		}

		next, cost := s.selectCell(p)
		if next == p.Pos {
			res.Stayed = append(res.Stayed, p.ID)
			s.Metrics.Stays++
			if !g.Cell(p.Pos).Reachable() {
				res.Trapped = append(res.Trapped, p.ID)
				s.Metrics.Trapped++
			}
			p.history.Append(Sample{Pos: p.Pos, Tick: s.Clock})
			continue
		}

		from := p.Pos
		diagonal := IsDiagonalStep(from, next)
		g.move(p.ID, next)
		p.Pos = next
		p.Moves++
		if diagonal {
			p.Diagonals++
			s.Metrics.DiagonalMoves++
		}
		s.Metrics.TotalMoves++
		p.history.Append(Sample{Pos: next, Tick: s.Clock})
		res.Moved = append(res.Moved, p.ID)
		logrus.Debugf("[tick %07d] pedestrian %d %s -> %s (cost %.3f)", s.Clock, p.ID, from, next, cost)
		s.Trace.RecordMove(trace.MoveRecord{
			Tick: s.Clock, PedestrianID: p.ID,
			FromRow: from.Row, FromCol: from.Col, ToRow: next.Row, ToCol: next.Col,
			Cost: cost, Diagonal: diagonal,
		})

		if s.measuring.Has(next) {
			s.measure(p)
		}
		if g.TypeAt(next) == CellTarget {
			s.arrive(p)
			res.Arrived = append(res.Arrived, p.ID)
		}
	}

	if len(res.Arrived) > 0 {
		remaining := s.active[:0]
		for _, p := range s.active {
			if !p.Arrived {
				remaining = append(remaining, p)
			}
		}
		for i := len(remaining); i < len(s.active); i++ {
			s.active[i] = nil
		}
		s.active = remaining
	}
	return res
}

func (s *Simulation) arrive(p *Pedestrian) {
	p.Arrived = true
	p.ArrivedAt = s.Clock
	travel := s.Clock - s.entered[p.ID]
	s.Metrics.Arrived++
	s.Metrics.TravelTicks[p.ID] = travel
	if s.cfg.AbsorbingTargets {
		s.grid.remove(p.ID)
	}
	logrus.Debugf("[tick %07d] pedestrian %d arrived at %s after %d ticks", s.Clock, p.ID, p.Pos, travel)
	s.Trace.RecordArrival(trace.ArrivalRecord{
		Tick: s.Clock, PedestrianID: p.ID, Row: p.Pos.Row, Col: p.Pos.Col, TravelTicks: travel,
	})
}

// Run steps the simulation until rc says to stop or ctx is canceled.
// Unbounded runs (MaxTicks <= 0) also stop once the crowd is stalled: nobody
// moved during a window long enough for every pedestrian to attempt a move,
// so no later tick can change the positions.
func (s *Simulation) Run(ctx context.Context, rc RunConfig) (RunResult, error) {
	if rc.MaxTicks <= 0 && !rc.StopWhenEmpty {
		return RunResult{}, ErrUnboundedRun
	}
	logrus.Infof("[tick %07d] Run started: max ticks %d, stop when empty %v", s.Clock, rc.MaxTicks, rc.StopWhenEmpty)

	var ticks int64
	idle := 0
	result := func(reason StopReason) RunResult {
		logrus.Infof("[tick %07d] Run ended (%s) after %d ticks", s.Clock, reason, ticks)
		return RunResult{Ticks: ticks, Reason: reason}
	}
	for {
		if rc.StopWhenEmpty && s.Done() {
			return result(StopEmpty), nil
		}
		if rc.MaxTicks > 0 && ticks >= rc.MaxTicks {
			return result(StopMaxTicks), nil
		}
		if err := ctx.Err(); err != nil {
			return result(StopCanceled), err
		}

		window := s.stallWindow()
		res := s.Step()
		ticks++
		if rc.MaxTicks > 0 {
			continue
		}
		if len(res.Moved) > 0 {
			idle = 0
			continue
		}
		idle++
		if idle >= window {
			for _, p := range s.active {
				logrus.Warnf("pedestrian %d stalled at %s", p.ID, p.Pos)
			}
			return result(StopStalled), nil
		}
	}
}

// stallWindow is the number of ticks within which every active pedestrian attempts a move.
func (s *Simulation) stallWindow() int {
	window := 1
	for _, p := range s.active {
		if w := int(math.Ceil(1/p.Speed - progressEpsilon)); w > window {
			window = w
		}
	}
	return window
}
