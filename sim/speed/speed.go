// Package speed converts walking speeds between meters per second and
// cells per tick, and models walking speed as a function of age.
package speed

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/interp"
)

// RiMEA age/speed table (m/s) for ages 5, 10, ..., 80.
var (
	rimeaAges   = []float64{5, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60, 65, 70, 75, 80}
	rimeaSpeeds = []float64{0.75, 1.23, 1.48, 1.65, 1.60, 1.55, 1.51, 1.49, 1.45, 1.42, 1.34, 1.25, 1.17, 1.05, 0.93, 0.67}
)

// AgeModel interpolates walking speed over age with a natural cubic spline.
type AgeModel struct {
	spline interp.NaturalCubic
	minAge float64
	maxAge float64
}

// NewAgeModel returns the model fitted to the RiMEA age/speed table.
func NewAgeModel() (*AgeModel, error) {
	return NewAgeModelFromTable(rimeaAges, rimeaSpeeds)
}

// NewAgeModelFromTable fits a model to strictly increasing ages and their speeds.
func NewAgeModelFromTable(ages, speeds []float64) (*AgeModel, error) {
	if len(ages) != len(speeds) {
		return nil, fmt.Errorf("age table has %d ages but %d speeds", len(ages), len(speeds))
	}
	if len(ages) < 3 {
		return nil, fmt.Errorf("age table needs at least 3 points, got %d", len(ages))
	}
	for i, s := range speeds {
		if s <= 0 {
			return nil, fmt.Errorf("speed for age %v must be positive, got %v", ages[i], s)
		}
	}
	m := &AgeModel{minAge: ages[0], maxAge: ages[len(ages)-1]}
	if err := m.spline.Fit(ages, speeds); err != nil {
		return nil, fmt.Errorf("fitting age/speed spline: %w", err)
	}
	return m, nil
}

// AgeRange returns the youngest and oldest tabulated ages.
func (m *AgeModel) AgeRange() (float64, float64) { return m.minAge, m.maxAge }

// ForAge returns the walking speed in m/s. Ages outside the table are clamped to it.
func (m *AgeModel) ForAge(age float64) float64 {
	age = math.Max(m.minAge, math.Min(m.maxAge, age))
	return m.spline.Predict(age)
}

// Sample draws an age uniformly from [minAge, maxAge) and returns it with its speed.
func (m *AgeModel) Sample(rng *rand.Rand, minAge, maxAge float64) (age, mps float64) {
	if maxAge <= minAge {
		age = minAge
	} else {
		age = minAge + rng.Float64()*(maxAge-minAge)
	}
	return age, m.ForAge(age)
}

// CellsPerTick converts a speed in m/s to cells per tick.
func CellsPerTick(mps, cellSize, tickSeconds float64) float64 {
	return mps * tickSeconds / cellSize
}

// TickSecondsFor returns the tick length at which the fastest walker covers exactly one cell per tick.
func TickSecondsFor(cellSize, fastestMPS float64) float64 {
	return cellSize / fastestMPS
}
