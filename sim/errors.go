package sim

import "errors"

// Configuration errors. NewSimulation and the editing methods wrap these with
// the offending position or id; callers match them with errors.Is.
var (
	ErrInvalidDimensions = errors.New("grid dimensions must be positive")
	ErrInvalidCellSize   = errors.New("cell size must be positive")
	ErrNoTargets         = errors.New("grid has no target cells")
	ErrOutOfBounds       = errors.New("position outside grid")
	ErrOnObstacle        = errors.New("pedestrian placed on an obstacle")
	ErrOnTarget          = errors.New("pedestrian placed on a target")
	ErrCellOccupied      = errors.New("cell already occupied by a pedestrian")
	ErrDuplicateID       = errors.New("duplicate pedestrian id")
	ErrInvalidID         = errors.New("pedestrian id out of range")
	ErrInvalidSpeed      = errors.New("pedestrian speed must be in (0, 1] cells per tick")
	ErrConflictingCell   = errors.New("cell declared as both obstacle and target")
	ErrUnboundedRun      = errors.New("run needs MaxTicks > 0 or StopWhenEmpty")
	ErrUnknownPedestrian = errors.New("unknown pedestrian id")
)
