package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// CostModel selects how the cost field is filled.
type CostModel string

const (
	// CostDijkstra propagates shortest 8-connected path lengths around obstacles.
	CostDijkstra CostModel = "dijkstra"
	// CostEuclidean uses the straight-line distance to the nearest target.
	// Obstacles still get +Inf but do not bend the field.
	CostEuclidean CostModel = "euclidean"
	// CostEuclideanIgnoreObstacles is CostEuclidean with obstacle cells assigned a finite cost too.
	CostEuclideanIgnoreObstacles CostModel = "euclidean-no-obstacles"
)

// ValidCostModels is the set of recognized cost model names ("" means dijkstra).
var ValidCostModels = map[CostModel]bool{"": true, CostDijkstra: true, CostEuclidean: true, CostEuclideanIgnoreObstacles: true}

// frontierItem is a tentative (cell, cost) pair. Stale items are skipped on pop.
type frontierItem struct {
	idx  int
	cost float64
	seq  uint64
}

// frontier implements heap.Interface with deterministic ordering.
// Order by: cost → insertion sequence.
type frontier []frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) {
	*f = append(*f, x.(frontierItem))
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[0 : n-1]
	return item
}

// ComputeCostField recomputes every cell cost of g from scratch.
// Target cells end at 0, obstacles and unreachable cells at +Inf.
func ComputeCostField(g *Grid, model CostModel) error {
	switch model {
	case "", CostDijkstra:
		computeDijkstra(g)
	case CostEuclidean:
		computeEuclidean(g, true)
	case CostEuclideanIgnoreObstacles:
		computeEuclidean(g, false)
	default:
		return fmt.Errorf("unknown cost model %q", model)
	}
	return nil
}

func resetCosts(g *Grid) {
	for i := range g.cells {
		g.cells[i].Cost = math.Inf(1)
		g.cells[i].visited = false
	}
}

// computeDijkstra runs a multi-source Dijkstra from all targets with lazy decrease-key.
func computeDijkstra(g *Grid) {
	resetCosts(g)

	pq := make(frontier, 0, len(g.cells))
	heap.Init(&pq)
	var seq uint64
	for i := range g.cells {
		if g.cells[i].Type != CellTarget {
			continue
		}
		g.cells[i].Cost = 0
		heap.Push(&pq, frontierItem{idx: i, cost: 0, seq: seq})
		seq++
	}

	settled := 0
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(frontierItem)
		cur := &g.cells[item.idx]
		if cur.visited || item.cost > cur.Cost {
			continue
		}
		cur.visited = true
		settled++

		for _, o := range neighborOffsets {
			n := Position{cur.Pos.Row + o.dr, cur.Pos.Col + o.dc}
			if !g.InBounds(n) {
				continue
			}
			ni := g.index(n)
			nc := &g.cells[ni]
			if nc.Type == CellObstacle || nc.visited {
				continue
			}
			if d := cur.Cost + o.cost(); d < nc.Cost {
				nc.Cost = d
				heap.Push(&pq, frontierItem{idx: ni, cost: d, seq: seq})
				seq++
			}
		}
	}
	logrus.Debugf("cost field: dijkstra settled %d of %d cells", settled, len(g.cells))
}

// computeEuclidean assigns each cell its straight-line distance to the closest target.
func computeEuclidean(g *Grid, obstacleAvoidance bool) {
	resetCosts(g)
	targets := g.Targets()
	for i := range g.cells {
		c := &g.cells[i]
		if obstacleAvoidance && c.Type == CellObstacle {
			continue
		}
		for _, t := range targets {
			if d := EuclideanDistance(c.Pos, t); d < c.Cost {
				c.Cost = d
			}
		}
	}
	logrus.Debugf("cost field: euclidean over %d targets", len(targets))
}
