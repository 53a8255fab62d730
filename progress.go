package rankgo

// Stage identifies a graph lifecycle event reported to a ProgressFunc.
type Stage uint8

const (
	// StageSpill fires once when edges move to disk.
	StageSpill Stage = iota + 1
	// StageInit fires after a successful Init.
	StageInit
	// StageIteration fires after each successful NextIteration.
	StageIteration
)

func (s Stage) String() string {
	switch s {
	case StageSpill:
		return "spill"
	case StageInit:
		return "init"
	case StageIteration:
		return "iteration"
	default:
		return "unknown"
	}
}

// Progress describes one lifecycle event.
type Progress struct {
	Stage Stage
	Nodes int
	Edges int64
	// Iteration counts NextIteration calls since the last Init.
	Iteration int
	// TotalRankChange is set for StageIteration.
	TotalRankChange float64
}

// ProgressFunc receives lifecycle events.
type ProgressFunc func(Progress)
