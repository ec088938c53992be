// Package sim provides the cellular-automaton core of the crowd simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - grid.go: dense cell storage and the pedestrian occupancy map
//   - costfield.go: multi-source Dijkstra from every target cell
//   - simulator.go: scenario validation, the per-tick movement rule and Run
//
// # Movement Rule
//
// Each tick, active pedestrians are processed in ascending ID order. A pedestrian
// whose speed accumulator reaches one cell attempts a move: a free neighboring
// target is taken at once, otherwise the cheapest of {stay, 4 orthogonal,
// 4 diagonal} wins by cost field plus repulsion, with staying preferred on ties.
// Later pedestrians see earlier moves of the same tick.
//
// # Sub-packages
//
//   - sim/trace/: per-tick move, arrival and measurement records
//   - sim/speed/: age-dependent walking speeds and unit conversion
//
// A Simulation is not safe for concurrent use. All randomness comes from
// PartitionedRNG so that a seed reproduces a run exactly.
package sim
