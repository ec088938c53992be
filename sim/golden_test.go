package sim

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowd-sim/crowd-sim/sim/internal/testutil"
)

// TestGoldenTrajectories replays each golden scenario and compares every
// pedestrian's sequence of cells and the number of ticks to empty the grid.
func TestGoldenTrajectories(t *testing.T) {
	dataset := testutil.LoadGoldenDataset(t)
	require.NotEmpty(t, dataset.Tests)

	for _, tc := range dataset.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			cfg := noRepulsion()
			if tc.Repulsion {
				cfg = withRepulsion()
			}
			s := mustLayout(t, tc.Layout, cfg)

			start, ok := s.Grid().PositionOf(1)
			require.True(t, ok)
			testutil.AssertFloat64Equal(t, "start cost", tc.StartCost, s.Grid().CostAt(start), 1e-9)

			paths := make(map[string][][2]int)
			for s.Clock < tc.MaxTicks && !s.Done() {
				res := s.Step()
				for _, id := range res.Moved {
					p, _ := s.Pedestrian(id)
					key := strconv.Itoa(id)
					paths[key] = append(paths[key], [2]int{p.Pos.Row, p.Pos.Col})
				}
				assertCollisionFree(t, s)
			}

			assert.True(t, s.Done(), "grid not empty after %d ticks", tc.MaxTicks)
			assert.Equal(t, tc.Ticks, s.Clock)
			assert.Equal(t, tc.Paths, paths)
		})
	}
}
