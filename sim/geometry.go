package sim

import "math"

// DiagonalStepCost is the cost of a diagonal move in cell widths.
const DiagonalStepCost = math.Sqrt2

// OrthogonalStepCost is the cost of a horizontal or vertical move in cell widths.
const OrthogonalStepCost = 1.0

// offset is a relative neighbor displacement.
type offset struct {
	dr, dc int
}

// Orthogonal offsets come first, diagonals second; each group is ordered by row then column.
// Candidate evaluation in Step relies on this order for its tie-break.
var (
	orthogonalOffsets = [4]offset{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}
	diagonalOffsets   = [4]offset{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// neighborOffsets lists all eight neighbors, orthogonal before diagonal.
var neighborOffsets = [8]offset{
	orthogonalOffsets[0], orthogonalOffsets[1], orthogonalOffsets[2], orthogonalOffsets[3],
	diagonalOffsets[0], diagonalOffsets[1], diagonalOffsets[2], diagonalOffsets[3],
}

func (o offset) diagonal() bool { return o.dr != 0 && o.dc != 0 }

func (o offset) cost() float64 {
	if o.diagonal() {
		return DiagonalStepCost
	}
	return OrthogonalStepCost
}

// IsDiagonalStep reports whether moving from a to b is a diagonal step.
func IsDiagonalStep(a, b Position) bool {
	return a.Row != b.Row && a.Col != b.Col
}

// StepLength returns the length in cell widths of a single move between adjacent cells.
// Staying in place has length 0.
func StepLength(a, b Position) float64 {
	switch {
	case a == b:
		return 0
	case IsDiagonalStep(a, b):
		return DiagonalStepCost
	default:
		return OrthogonalStepCost
	}
}

// EuclideanDistance returns the straight-line distance between two cell centers in cell widths.
func EuclideanDistance(a, b Position) float64 {
	dr := float64(a.Row - b.Row)
	dc := float64(a.Col - b.Col)
	return math.Sqrt(dr*dr + dc*dc)
}

// OctileDistance is the unobstructed 8-connected path length between two cells.
func OctileDistance(a, b Position) float64 {
	dr := absInt(a.Row - b.Row)
	dc := absInt(a.Col - b.Col)
	lo, hi := min(dr, dc), max(dr, dc)
	return float64(lo)*DiagonalStepCost + float64(hi-lo)*OrthogonalStepCost
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
