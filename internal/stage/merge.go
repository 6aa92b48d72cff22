package stage

import "github.com/waabox/sitedeck/internal/domain"

// rank orders step states by progress. Terminal states share the highest rank.
func rank(s domain.StepState) int {
	switch s {
	case domain.StepRunning:
		return 1
	case domain.StepSucceeded, domain.StepFailed:
		return 2
	default:
		return 0
	}
}

// Merge folds next into prev so that no stage moves backwards.
// A succeeded stage is never rewritten, and a stage never drops to a lower rank,
// which discards stale responses that resolve out of order.
// When prev is empty or of a different length, next is returned as is.
func Merge(prev, next []StageState) []StageState {
	merged := make([]StageState, len(next))
	copy(merged, next)
	if len(prev) != len(next) {
		return merged
	}
	for i := range merged {
		old := prev[i].State
		if old == domain.StepSucceeded || rank(merged[i].State) < rank(old) {
			merged[i].State = old
		}
	}
	return merged
}

// Completed counts the succeeded stages.
func Completed(stages []StageState) int {
	n := 0
	for _, s := range stages {
		if s.State == domain.StepSucceeded {
			n++
		}
	}
	return n
}
