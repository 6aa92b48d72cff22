package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/stage"
)

// StageListModel is an immutable model for the pipeline stage panel.
type StageListModel struct {
	stages  []stage.StageState
	current int
	// elapsed is how long the current stage has been current.
	elapsed time.Duration
	spinner string
}

// NewStageListModel creates a stage list model. current is the index of the
// current stage, or -1.
func NewStageListModel(stages []stage.StageState, current int) StageListModel {
	return StageListModel{stages: stages, current: current}
}

// WithElapsed returns a copy showing d next to the current stage.
func (m StageListModel) WithElapsed(d time.Duration) StageListModel {
	m.elapsed = d
	return m
}

// WithSpinner returns a copy that draws frame in front of the running stage.
func (m StageListModel) WithSpinner(frame string) StageListModel {
	m.spinner = frame
	return m
}

// Current returns the index of the current stage.
func (m StageListModel) Current() int {
	return m.current
}

// Stages returns the full stage slice.
func (m StageListModel) Stages() []stage.StageState {
	return m.stages
}

// View renders one line per stage with its state, description and time estimate.
func (m StageListModel) View() string {
	if len(m.stages) == 0 {
		return "No stages yet."
	}
	var sb strings.Builder
	for i, s := range m.stages {
		prefix := "  "
		if i == m.current {
			prefix = "> "
		}
		info := catalogue(s.Key)
		detail := dimStyle.Render(info.EstimatedTime)
		icon := stepIcon(s.State)
		if i == m.current && s.State == domain.StepRunning {
			detail = runningStyle.Render(stage.FormatElapsed(m.elapsed))
			if m.spinner != "" {
				icon = m.spinner
			}
		}
		sb.WriteString(fmt.Sprintf("%s%s %-20s %s\n",
			prefix,
			icon,
			truncate(s.Label, 20),
			detail,
		))
		if i == m.current && info.Description != "" {
			sb.WriteString("     " + dimStyle.Render(info.Description) + "\n")
		}
	}
	return sb.String()
}

func catalogue(key domain.StageKey) domain.Stage {
	for _, st := range domain.Stages {
		if st.Key == key {
			return st
		}
	}
	return domain.Stage{Key: key}
}

func stepIcon(s domain.StepState) string {
	switch s {
	case domain.StepSucceeded:
		return doneStyle.Render("✓")
	case domain.StepFailed:
		return failedStyle.Render("✗")
	case domain.StepRunning:
		return runningStyle.Render("●")
	default:
		return dimStyle.Render("○")
	}
}
