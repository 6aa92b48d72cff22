// Package stage translates raw backend status records into the client display model.
// Every function here is pure: identical input always yields identical output.
package stage

import (
	"strings"

	"github.com/waabox/sitedeck/internal/domain"
)

// Vocabulary lists the backend status values that end a generation attempt.
// Anything outside both sets is in progress.
type Vocabulary struct {
	Success []string
	Failure []string
}

// DefaultVocabulary covers the project lifecycle (READY, ACTIVE) and the deployment
// record (SUCCEEDED) terminal values observed across backend revisions.
var DefaultVocabulary = Vocabulary{
	Success: []string{"READY", "ACTIVE", "SUCCEEDED"},
	Failure: []string{"FAILED"},
}

// StageState is one stage of the display model.
type StageState struct {
	Key   domain.StageKey
	Label string
	State domain.StepState
}

// Input is a raw observation. Steps is nil for the coarse shape.
// Previous is the stage list the caller currently displays, if any.
type Input struct {
	Status   string
	Steps    map[domain.StageKey]domain.StepState
	Previous []StageState
}

// Result is the mapped display model.
type Result struct {
	Stages  []StageState
	Overall domain.Overall
	// Current is the index of the current stage in Stages, or -1 when none.
	Current int
}

// Classify returns the overall classification of a raw backend status.
func Classify(status string, vocab Vocabulary) domain.Overall {
	s := normalize(status)
	for _, v := range vocab.Success {
		if normalize(v) == s {
			return domain.OverallSucceeded
		}
	}
	for _, v := range vocab.Failure {
		if normalize(v) == s {
			return domain.OverallFailed
		}
	}
	return domain.OverallInProgress
}

// Map translates in into the display model.
func Map(in Input, vocab Vocabulary) Result {
	overall := Classify(in.Status, vocab)
	var stages []StageState
	if in.Steps != nil {
		stages = fromSteps(in.Steps)
	} else {
		stages = synthesize(overall, in.Previous)
	}
	return Result{
		Stages:  stages,
		Overall: overall,
		Current: CurrentIndex(stages),
	}
}

// CurrentIndex returns the first running stage, else the first pending stage, else -1.
func CurrentIndex(stages []StageState) int {
	for i, s := range stages {
		if s.State == domain.StepRunning {
			return i
		}
	}
	for i, s := range stages {
		if s.State == domain.StepPending {
			return i
		}
	}
	return -1
}

// Initial returns the stage list before any observation: every stage pending.
func Initial() []StageState {
	stages := make([]StageState, len(domain.Stages))
	for i, st := range domain.Stages {
		stages[i] = StageState{Key: st.Key, Label: st.Label, State: domain.StepPending}
	}
	return stages
}

func fromSteps(steps map[domain.StageKey]domain.StepState) []StageState {
	stages := Initial()
	for i := range stages {
		if st, ok := steps[stages[i].Key]; ok && st != "" {
			stages[i].State = st
		}
	}
	return stages
}

func synthesize(overall domain.Overall, previous []StageState) []StageState {
	stages := Initial()
	switch overall {
	case domain.OverallSucceeded:
		for i := range stages {
			stages[i].State = domain.StepSucceeded
		}
	case domain.OverallFailed:
		failed := 0
		if len(previous) == len(stages) {
			failed = CurrentIndex(previous)
			if failed < 0 {
				failed = len(stages) - 1
			}
			for i := 0; i < failed; i++ {
				stages[i].State = previous[i].State
			}
		}
		stages[failed].State = domain.StepFailed
	default:
		stages[0].State = domain.StepRunning
	}
	return stages
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
