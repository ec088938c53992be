package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// mustLayout parses layout and builds a simulation, failing the test on error.
func mustLayout(t *testing.T, layout string, cfg SimConfig) *Simulation {
	t.Helper()
	sc, err := ParseLayout(layout)
	require.NoError(t, err)
	s, err := NewSimulation(sc, cfg)
	require.NoError(t, err)
	return s
}

// noRepulsion is the default config: dijkstra, absorbing targets, repulsion off.
func noRepulsion() SimConfig {
	return DefaultSimConfig()
}

func withRepulsion() SimConfig {
	cfg := DefaultSimConfig()
	cfg.Repulsion.Enabled = true
	return cfg
}

// assertCollisionFree fails if two pedestrians share a cell.
func assertCollisionFree(t *testing.T, s *Simulation) {
	t.Helper()
	seen := make(map[Position]int)
	for id, p := range s.Positions() {
		if other, ok := seen[p]; ok {
			t.Fatalf("tick %d: pedestrians %d and %d both on %s", s.Clock, other, id, p)
		}
		seen[p] = id
	}
}
