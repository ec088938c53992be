package sim

import "fmt"

// progressEpsilon absorbs float drift so that e.g. ten steps of 0.1 make one cell.
const progressEpsilon = 1e-9

// DefaultHistoryWindow is the number of recent samples kept per pedestrian.
const DefaultHistoryWindow = 10

// Sample is a pedestrian position recorded at the end of a tick.
type Sample struct {
	Pos  Position
	Tick int64
}

// History is a bounded, ordered record of the most recent samples (oldest first).
type History struct {
	window  int
	samples []Sample
}

// NewHistory creates an empty history holding at most window samples.
func NewHistory(window int) History {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return History{window: window, samples: make([]Sample, 0, window)}
}

// Append records s, dropping the oldest sample when the window is full.
func (h *History) Append(s Sample) {
	if len(h.samples) == h.window {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:h.window-1]
	}
	h.samples = append(h.samples, s)
}

// Len returns the number of stored samples.
func (h *History) Len() int { return len(h.samples) }

// Samples returns a copy of the stored samples, oldest first.
func (h *History) Samples() []Sample {
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// PathLength sums the step lengths (in cells) between consecutive samples.
func (h *History) PathLength() float64 {
	total := 0.0
	for i := 1; i < len(h.samples); i++ {
		total += StepLength(h.samples[i-1].Pos, h.samples[i].Pos)
	}
	return total
}

// Span returns the tick difference between the newest and oldest samples.
func (h *History) Span() int64 {
	if len(h.samples) < 2 {
		return 0
	}
	return h.samples[len(h.samples)-1].Tick - h.samples[0].Tick
}

// Pedestrian is an agent on the grid. Its position is mirrored by the
// grid's occupancy map while it is active.
type Pedestrian struct {
	ID    int
	Pos   Position
	Speed float64 // cells per tick, in (0, 1]

	// Unreachable is set when the pedestrian's cell has +Inf cost.
	Unreachable bool
	// Arrived is set once the pedestrian steps onto a target.
	Arrived   bool
	ArrivedAt int64
	Moves     int
	Diagonals int

	progress float64
	history  History
}

func newPedestrian(id int, pos Position, speed float64, window int) *Pedestrian {
	return &Pedestrian{ID: id, Pos: pos, Speed: speed, history: NewHistory(window)}
}

// History returns the pedestrian's recent samples.
func (p *Pedestrian) History() *History { return &p.history }

// advance adds one tick of progress and reports whether a move may be attempted.
func (p *Pedestrian) advance() bool {
	p.progress += p.Speed
	if p.progress < 1-progressEpsilon {
		return false
	}
	p.progress--
	return true
}

func (p *Pedestrian) String() string {
	return fmt.Sprintf("pedestrian %d at %s", p.ID, p.Pos)
}
