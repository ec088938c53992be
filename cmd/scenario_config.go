package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	sim "github.com/crowd-sim/crowd-sim/sim"
	"github.com/crowd-sim/crowd-sim/sim/speed"
)

// ScenarioFile is the YAML scenario format.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type ScenarioFile struct {
	Seed            *int64            `yaml:"seed"`
	CellSize        float64           `yaml:"cell_size"`    // meters per cell, default 1
	TickSeconds     float64           `yaml:"tick_seconds"` // default cell_size / fastest walker
	Layout          string            `yaml:"layout"`
	Rows            int               `yaml:"rows"`
	Cols            int               `yaml:"cols"`
	Obstacles       [][]int           `yaml:"obstacles"`
	Targets         [][]int           `yaml:"targets"`
	MeasuringPoints [][]int           `yaml:"measuring_points"`
	Pedestrians     []PedestrianEntry `yaml:"pedestrians"`
	AgeRange        []float64         `yaml:"age_range"` // [min, max] sampled for pedestrians without a speed
	Flood           []FloodEntry      `yaml:"flood"`
}

// PedestrianEntry places one pedestrian. At most one of Speed, SpeedMPS and Age is set.
type PedestrianEntry struct {
	ID       int      `yaml:"id"`
	Row      int      `yaml:"row"`
	Col      int      `yaml:"col"`
	Speed    float64  `yaml:"speed"`     // cells per tick
	SpeedMPS float64  `yaml:"speed_mps"` // meters per second
	Age      *float64 `yaml:"age"`       // years, speed from the age model
}

// FloodEntry fills the free cells with pedestrians at a density (per m²).
type FloodEntry struct {
	Density  float64 `yaml:"density"`
	Speed    float64 `yaml:"speed"`
	SpeedMPS float64 `yaml:"speed_mps"`
}

// LoadScenarioFile reads path with strict field checking and validates it.
func LoadScenarioFile(path string) (*ScenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	return ParseScenarioFile(data)
}

// ParseScenarioFile decodes YAML scenario data. Unknown fields are errors.
func ParseScenarioFile(data []byte) (*ScenarioFile, error) {
	var f ScenarioFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the fields that do not need the grid to be built.
// Cell placement rules are enforced by sim.NewSimulation.
func (f *ScenarioFile) Validate() error {
	if f.CellSize < 0 {
		return fmt.Errorf("cell_size must be positive, got %v", f.CellSize)
	}
	if f.TickSeconds < 0 {
		return fmt.Errorf("tick_seconds must be positive, got %v", f.TickSeconds)
	}
	if f.Layout == "" && (f.Rows <= 0 || f.Cols <= 0) {
		return fmt.Errorf("rows and cols are required without a layout, got %dx%d", f.Rows, f.Cols)
	}
	sections := []struct {
		name  string
		cells [][]int
	}{
		{"obstacles", f.Obstacles},
		{"targets", f.Targets},
		{"measuring_points", f.MeasuringPoints},
	}
	for _, sec := range sections {
		for i, c := range sec.cells {
			if len(c) != 2 {
				return fmt.Errorf("%s[%d]: want [row, col], got %v", sec.name, i, c)
			}
		}
	}
	for i, p := range f.Pedestrians {
		set := 0
		if p.Speed != 0 {
			set++
		}
		if p.SpeedMPS != 0 {
			set++
		}
		if p.Age != nil {
			set++
		}
		if set > 1 {
			return fmt.Errorf("pedestrians[%d]: speed, speed_mps and age are mutually exclusive", i)
		}
		if p.Speed < 0 || p.SpeedMPS < 0 {
			return fmt.Errorf("pedestrians[%d]: speed must be positive", i)
		}
	}
	if len(f.AgeRange) != 0 && (len(f.AgeRange) != 2 || f.AgeRange[0] > f.AgeRange[1] || f.AgeRange[0] < 0) {
		return fmt.Errorf("age_range: want [min, max] with 0 <= min <= max, got %v", f.AgeRange)
	}
	for i, fl := range f.Flood {
		if fl.Density <= 0 {
			return fmt.Errorf("flood[%d]: density must be positive, got %v", i, fl.Density)
		}
		if fl.Speed != 0 && fl.SpeedMPS != 0 {
			return fmt.Errorf("flood[%d]: speed and speed_mps are mutually exclusive", i)
		}
		if fl.Speed < 0 || fl.SpeedMPS < 0 {
			return fmt.Errorf("flood[%d]: speed must be positive", i)
		}
	}
	return nil
}

// walker is a pedestrian whose speed may still be in m/s.
type walker struct {
	spec sim.PedestrianSpec
	mps  float64 // 0 when spec.Speed is already in cells per tick
}

// BuiltScenario is a ScenarioFile resolved against the age model and RNG.
type BuiltScenario struct {
	Scenario    sim.Scenario
	TickSeconds float64
	Flood       []FloodGroup
}

// FloodGroup is a FloodEntry with its speed converted to cells per tick.
type FloodGroup struct {
	Density float64
	Speed   float64
}

// Build turns the file into a sim.Scenario. Speeds given in m/s or derived from
// ages are converted with the tick length, which defaults to the time the fastest
// walker needs for one cell.
func (f *ScenarioFile) Build(rng *sim.PartitionedRNG) (*BuiltScenario, error) {
	sc := sim.Scenario{Rows: f.Rows, Cols: f.Cols, CellSize: f.CellSize}
	if sc.CellSize == 0 {
		sc.CellSize = 1
	}

	var walkers []walker
	if f.Layout != "" {
		base, err := sim.ParseLayout(f.Layout)
		if err != nil {
			return nil, err
		}
		if (f.Rows != 0 && f.Rows != base.Rows) || (f.Cols != 0 && f.Cols != base.Cols) {
			return nil, fmt.Errorf("rows/cols %dx%d do not match the %dx%d layout", f.Rows, f.Cols, base.Rows, base.Cols)
		}
		sc.Rows, sc.Cols = base.Rows, base.Cols
		sc.Obstacles = base.Obstacles
		sc.Targets = base.Targets
		sc.MeasuringPoints = base.MeasuringPoints
		// layout pedestrians take speed from age_range when present
		for _, p := range base.Pedestrians {
			p.ID = 0
			if len(f.AgeRange) == 2 {
				p.Speed = 0
			}
			walkers = append(walkers, walker{spec: p})
		}
	}
	sc.Obstacles = append(sc.Obstacles, positions(f.Obstacles)...)
	sc.Targets = append(sc.Targets, positions(f.Targets)...)
	sc.MeasuringPoints = append(sc.MeasuringPoints, positions(f.MeasuringPoints)...)

	var ages *speed.AgeModel
	needAges := len(f.AgeRange) == 2
	for _, p := range f.Pedestrians {
		needAges = needAges || p.Age != nil
	}
	if needAges {
		m, err := speed.NewAgeModel()
		if err != nil {
			return nil, err
		}
		ages = m
	}

	for _, p := range f.Pedestrians {
		w := walker{spec: sim.PedestrianSpec{ID: p.ID, Pos: sim.Position{Row: p.Row, Col: p.Col}, Speed: p.Speed}}
		switch {
		case p.SpeedMPS > 0:
			w.mps = p.SpeedMPS
		case p.Age != nil:
			w.mps = ages.ForAge(*p.Age)
		}
		walkers = append(walkers, w)
	}

	// Ages are drawn in declaration order so a seed always gives the same crowd.
	var speedRNG *rand.Rand
	if len(f.AgeRange) == 2 {
		speedRNG = rng.ForSubsystem(sim.SubsystemSpeed)
	}
	fastest := 0.0
	for i := range walkers {
		w := &walkers[i]
		if w.mps == 0 && w.spec.Speed == 0 {
			if speedRNG != nil {
				age, mps := ages.Sample(speedRNG, f.AgeRange[0], f.AgeRange[1])
				logrus.Debugf("pedestrian at %s: age %.1f, %.2f m/s", w.spec.Pos, age, mps)
				w.mps = mps
			} else {
				w.spec.Speed = 1
			}
		}
		fastest = max(fastest, w.mps)
	}
	for _, fl := range f.Flood {
		fastest = max(fastest, fl.SpeedMPS)
	}

	tick := f.TickSeconds
	if tick == 0 {
		if fastest == 0 {
			fastest = sim.DefaultWalkingSpeed
		}
		tick = speed.TickSecondsFor(sc.CellSize, fastest)
	}

	for _, w := range walkers {
		if w.mps > 0 {
			w.spec.Speed = speed.CellsPerTick(w.mps, sc.CellSize, tick)
		}
		sc.Pedestrians = append(sc.Pedestrians, w.spec)
	}

	built := &BuiltScenario{Scenario: sc, TickSeconds: tick}
	for _, fl := range f.Flood {
		g := FloodGroup{Density: fl.Density, Speed: fl.Speed}
		switch {
		case fl.SpeedMPS > 0:
			g.Speed = speed.CellsPerTick(fl.SpeedMPS, sc.CellSize, tick)
		case g.Speed == 0:
			g.Speed = 1
		}
		built.Flood = append(built.Flood, g)
	}
	return built, nil
}

func positions(cells [][]int) []sim.Position {
	out := make([]sim.Position, 0, len(cells))
	for _, c := range cells {
		out = append(out, sim.Position{Row: c[0], Col: c[1]})
	}
	return out
}
