package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/session"
	"github.com/waabox/sitedeck/internal/stage"
	"github.com/waabox/sitedeck/internal/tui"
)

// errGenerationFailed is returned after a failed run has been reported.
var errGenerationFailed = errors.New("generation failed")

// progressPrinter writes one line per observable change of a session.
// OnChange may be called concurrently; snapshots older than the last one
// printed are skipped.
type progressPrinter struct {
	mu         sync.Mutex
	w          io.Writer
	version    uint64
	projectID  string
	status     string
	stages     map[domain.StageKey]domain.StepState
	terminated bool
	done       chan session.View
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{
		w:      w,
		stages: make(map[domain.StageKey]domain.StepState),
		done:   make(chan session.View, 1),
	}
}

func (p *progressPrinter) OnChange(v session.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v.Version <= p.version || p.terminated {
		return
	}
	p.version = v.Version

	if v.ProjectID != "" && v.ProjectID != p.projectID {
		p.projectID = v.ProjectID
		fmt.Fprintf(p.w, "Tracking project %s\n", v.ProjectID)
	}
	if v.BackendStatus != "" && v.BackendStatus != p.status {
		p.status = v.BackendStatus
		fmt.Fprintf(p.w, "Status %s: %s\n", v.BackendStatus, stage.ProgressMessage(v.BackendStatus))
	}
	for _, s := range v.Stages {
		prev, seen := p.stages[s.Key]
		p.stages[s.Key] = s.State
		if (!seen && s.State == domain.StepPending) || prev == s.State {
			continue
		}
		fmt.Fprintf(p.w, "  %s %-20s %s\n", stateMark(s.State), s.Label, s.State)
	}

	if v.Terminal() {
		p.terminated = true
		p.done <- v
	}
}

// wait blocks until the session ends or ctx is cancelled, then reports the outcome.
func (p *progressPrinter) wait(ctx context.Context, sess *session.Session) error {
	select {
	case <-ctx.Done():
		sess.Reset()
		return ctx.Err()
	case v := <-p.done:
		return report(p.w, v)
	}
}

func report(w io.Writer, v session.View) error {
	if v.State == session.StateFailed {
		fmt.Fprintf(w, "\n✗ %s\n", tui.FailureMessage(v))
		return errGenerationFailed
	}
	fmt.Fprintf(w, "\n✓ Website ready in %s (%d status checks)\n",
		stage.FormatElapsed(v.Elapsed(time.Now())), v.Attempts)
	for _, l := range v.Links {
		fmt.Fprintf(w, "  %-10s %s\n", l.Kind, l.URL)
	}
	return nil
}

func stateMark(s domain.StepState) string {
	switch s {
	case domain.StepSucceeded:
		return "✓"
	case domain.StepFailed:
		return "✗"
	case domain.StepRunning:
		return "●"
	default:
		return "○"
	}
}
