// Package trace provides per-tick records of a crowd simulation run.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// MoveRecord captures a single committed pedestrian move.
type MoveRecord struct {
	Tick         int64   `yaml:"tick"`
	PedestrianID int     `yaml:"pedestrian_id"`
	FromRow      int     `yaml:"from_row"`
	FromCol      int     `yaml:"from_col"`
	ToRow        int     `yaml:"to_row"`
	ToCol        int     `yaml:"to_col"`
	Cost         float64 `yaml:"cost"` // effective cost of the chosen cell, repulsion included
	Diagonal     bool    `yaml:"diagonal"`
}

// ArrivalRecord captures a pedestrian stepping onto a target.
type ArrivalRecord struct {
	Tick         int64 `yaml:"tick"`
	PedestrianID int   `yaml:"pedestrian_id"`
	Row          int   `yaml:"row"`
	Col          int   `yaml:"col"`
	TravelTicks  int64 `yaml:"travel_ticks"` // ticks from the pedestrian's entry to its arrival
}

// MeasurementRecord captures a pedestrian entering a measuring point.
type MeasurementRecord struct {
	Tick         int64   `yaml:"tick"`
	PedestrianID int     `yaml:"pedestrian_id"`
	Row          int     `yaml:"row"`
	Col          int     `yaml:"col"`
	Density      float64 `yaml:"density"` // pedestrians per square meter around the point
	Speed        float64 `yaml:"speed"`   // meters per second over the pedestrian's recent history
}
