package bot

import "time"

// CycleState names each stage of the deploy cycle. The loop is a single
// cooperative actor: exactly one state is active at a time and cancellation
// is observed only at state boundaries, never mid-drag.
type CycleState int

const (
	StateIdle CycleState = iota
	StateLocating
	StateCapturing
	StateDetecting
	StateDragging
	StateWaiting
	StateDone
	StateFailed
)

func (s CycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocating:
		return "locating"
	case StateCapturing:
		return "capturing"
	case StateDetecting:
		return "detecting"
	case StateDragging:
		return "dragging"
	case StateWaiting:
		return "waiting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats accumulates per-run counters
type Stats struct {
	StartTime    time.Time
	Deploys      int
	FailedCycles int
	Detections   int
	Unknowns     int
}

// Elapsed returns how long the run has been going
func (s *Stats) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return time.Since(s.StartTime)
}
