// Package testutil provides shared test infrastructure for the crowd simulator.
// It holds the golden trajectory dataset and assertion helpers used by the
// sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldentrajectories.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one scenario with the expected path of every pedestrian.
type GoldenTestCase struct {
	Name      string              `json:"name"`
	Layout    string              `json:"layout"`
	Repulsion bool                `json:"repulsion"`
	MaxTicks  int64               `json:"max_ticks"`
	Ticks     int64               `json:"ticks"`      // ticks until the grid is empty
	StartCost float64             `json:"start_cost"` // cost at the first pedestrian's start cell
	Paths     map[string][][2]int `json:"paths"`      // pedestrian ID → positions after each move
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldentrajectories.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with absolute tolerance.
// Two +Inf values are equal.
func AssertFloat64Equal(t *testing.T, name string, want, got, tol float64) {
	t.Helper()
	if math.IsInf(want, 1) || math.IsInf(got, 1) {
		if want != got {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
		return
	}
	if diff := math.Abs(want - got); diff > tol {
		t.Errorf("%s: got %v, want %v (diff=%v)", name, got, want, diff)
	}
}
