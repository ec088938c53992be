package sim

import "github.com/crowd-sim/crowd-sim/sim/trace"

// DefaultWalkingSpeed is the free-flow walking speed in meters per second used
// to derive a tick duration when none is configured.
const DefaultWalkingSpeed = 1.33

// RepulsionConfig groups pedestrian-repulsion parameters.
type RepulsionConfig struct {
	Enabled  bool
	Radius   float64 // cells; no penalty at or beyond this distance
	Strength float64 // multiplier applied to the decay term
	Scale    float64 // cells; width of the gaussian decay
	Decay    RepulsionDecay
}

// RunConfig bounds a call to Run.
type RunConfig struct {
	MaxTicks      int64 // 0 = unbounded, requires StopWhenEmpty
	StopWhenEmpty bool  // stop as soon as no pedestrian is active
}

// SimConfig groups everything a Simulation needs besides the scenario.
type SimConfig struct {
	CostModel        CostModel
	Repulsion        RepulsionConfig
	AbsorbingTargets bool    // arrived pedestrians leave the grid
	HistoryWindow    int     // samples kept per pedestrian (0 = DefaultHistoryWindow)
	TickSeconds      float64 // wall time of one tick (0 = CellSize / DefaultWalkingSpeed)
	Trace            trace.TraceLevel
}

// NewRepulsionConfig creates a RepulsionConfig. Zero-value arguments are kept as-is.
func NewRepulsionConfig(enabled bool, radius, strength, scale float64, decay RepulsionDecay) RepulsionConfig {
	return RepulsionConfig{
		Enabled:  enabled,
		Radius:   radius,
		Strength: strength,
		Scale:    scale,
		Decay:    decay,
	}
}

// DefaultRepulsionConfig returns a disabled gaussian repulsion with radius 2 cells.
func DefaultRepulsionConfig() RepulsionConfig {
	return NewRepulsionConfig(false, 2, 1, 1, DecayGaussian)
}

// NewRunConfig creates a RunConfig.
func NewRunConfig(maxTicks int64, stopWhenEmpty bool) RunConfig {
	return RunConfig{MaxTicks: maxTicks, StopWhenEmpty: stopWhenEmpty}
}

// DefaultSimConfig returns the configuration used by the CLI when no flags are given:
// dijkstra costs, repulsion off, absorbing targets, no tracing.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		CostModel:        CostDijkstra,
		Repulsion:        DefaultRepulsionConfig(),
		AbsorbingTargets: true,
		HistoryWindow:    DefaultHistoryWindow,
		Trace:            trace.TraceLevelNone,
	}
}
