package session

import (
	"time"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/stage"
)

// State is the lifecycle state of a session.
type State string

// Reason explains why a session failed.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonCreation   Reason = "creation"
	ReasonGeneration Reason = "generation"
	ReasonTimeout    Reason = "timeout"
)

// View is an immutable snapshot of a session. Views with a higher Version are newer.
type View struct {
	Version   uint64
	State     State
	ProjectID string
	Stages    []stage.StageState
	// Current is the index of the current stage, or -1 when none.
	Current       int
	Overall       domain.Overall
	Reason        Reason
	Links         []domain.Link
	BackendStatus string
	BackendError  string
	StartedAt     time.Time
	// CurrentStageStartedAt is when the current stage became current.
	CurrentStageStartedAt time.Time
	Attempts              int
	LastError             string
}

// Terminal reports whether the session reached succeeded or failed.
func (v View) Terminal() bool {
	return v.State == StateSucceeded || v.State == StateFailed
}

// Completed returns the number of succeeded stages.
func (v View) Completed() int {
	return stage.Completed(v.Stages)
}

// CurrentStage returns the current stage, if any.
func (v View) CurrentStage() (stage.StageState, bool) {
	if v.Current < 0 || v.Current >= len(v.Stages) {
		return stage.StageState{}, false
	}
	return v.Stages[v.Current], true
}

// Elapsed returns the time since polling began, or zero before it began.
func (v View) Elapsed(now time.Time) time.Duration {
	if v.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(v.StartedAt)
}

func (v View) clone() View {
	c := v
	c.Stages = append([]stage.StageState(nil), v.Stages...)
	c.Links = append([]domain.Link(nil), v.Links...)
	return c
}
