package trace

// TraceLevel controls the verbosity of tick tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelArrivals captures arrivals and measuring-point observations.
	TraceLevelArrivals TraceLevel = "arrivals"
	// TraceLevelMoves additionally captures every committed move.
	TraceLevelMoves TraceLevel = "moves"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:     true,
	TraceLevelArrivals: true,
	TraceLevelMoves:    true,
	"":                 true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// RecordsArrivals reports whether arrival and measurement records are kept.
func (c TraceConfig) RecordsArrivals() bool {
	return c.Level == TraceLevelArrivals || c.Level == TraceLevelMoves
}

// RecordsMoves reports whether move records are kept.
func (c TraceConfig) RecordsMoves() bool {
	return c.Level == TraceLevelMoves
}

// SimulationTrace collects records during a simulation run.
type SimulationTrace struct {
	Config       TraceConfig
	Moves        []MoveRecord
	Arrivals     []ArrivalRecord
	Measurements []MeasurementRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:       config,
		Moves:        make([]MoveRecord, 0),
		Arrivals:     make([]ArrivalRecord, 0),
		Measurements: make([]MeasurementRecord, 0),
	}
}

// RecordMove appends a move record if the level asks for it.
func (st *SimulationTrace) RecordMove(record MoveRecord) {
	if st.Config.RecordsMoves() {
		st.Moves = append(st.Moves, record)
	}
}

// RecordArrival appends an arrival record if the level asks for it.
func (st *SimulationTrace) RecordArrival(record ArrivalRecord) {
	if st.Config.RecordsArrivals() {
		st.Arrivals = append(st.Arrivals, record)
	}
}

// RecordMeasurement appends a measuring-point observation if the level asks for it.
func (st *SimulationTrace) RecordMeasurement(record MeasurementRecord) {
	if st.Config.RecordsArrivals() {
		st.Measurements = append(st.Measurements, record)
	}
}
