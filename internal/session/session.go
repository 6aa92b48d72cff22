// Package session drives one website-generation attempt from submission to a
// terminal outcome, polling the backend and exposing the mapped progress.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/poller"
	"github.com/waabox/sitedeck/internal/stage"
)

// DefaultMaxAttempts bounds the number of polls before a session times out.
const DefaultMaxAttempts = 120

var (
	// ErrNotSubmitting is returned by Start when the session is not awaiting a created project.
	ErrNotSubmitting = errors.New("session is not awaiting project creation")
	// ErrSuperseded is returned by Start when the attempt was reset or replaced
	// while its project was being created.
	ErrSuperseded = errors.New("submission was superseded")
)

// Attempt identifies one submission, from Begin to its creation outcome.
type Attempt uint64

// Config tunes a Session. Zero values select defaults.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
	Vocabulary  stage.Vocabulary
	Logger      *slog.Logger
	Now         func() time.Time
	// OnChange receives a snapshot after every state change. It is called
	// without the session lock held and may be called from poller goroutines.
	OnChange func(View)
}

// Session owns the lifecycle of one generation attempt at a time.
// All methods are safe for concurrent use.
type Session struct {
	source domain.StatusSource
	cfg    Config

	mu      sync.Mutex
	fsm     *machine
	epoch   uint64
	version uint64
	handle  *poller.Handle
	view    View
}

// New returns an idle session that tracks projects through source.
func New(source domain.StatusSource, cfg Config) (*Session, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = poller.DefaultInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if len(cfg.Vocabulary.Success) == 0 && len(cfg.Vocabulary.Failure) == 0 {
		cfg.Vocabulary = stage.DefaultVocabulary
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	fsm, err := newMachine()
	if err != nil {
		return nil, err
	}
	return &Session{
		source: source,
		cfg:    cfg,
		fsm:    fsm,
		view:   idleView(),
	}, nil
}

func idleView() View {
	return View{State: StateIdle, Current: -1, Overall: domain.OverallInProgress}
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.clone()
}

// Begin moves the session into submitting and returns the attempt that
// Start or CreationFailed must be given. Any previous attempt is ended first
// and its poll loop stopped.
func (s *Session) Begin() (Attempt, error) {
	s.mu.Lock()
	s.stopLocked()
	if s.fsm.current() != StateIdle && s.fsm.current() != StateSucceeded && s.fsm.current() != StateFailed {
		if err := s.fsm.send(eventReset); err != nil {
			s.mu.Unlock()
			return 0, err
		}
	}
	if err := s.fsm.send(eventSubmit); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	attempt := Attempt(s.epoch)
	s.view = idleView()
	s.view.Stages = stage.Initial()
	v := s.commitLocked()
	s.mu.Unlock()

	s.notify(v)
	return attempt, nil
}

// Start begins tracking project, which the backend has just created for
// attempt. A stale attempt leaves the session untouched and returns
// ErrSuperseded. A tracker that cannot be opened fails the session as a
// creation error.
func (s *Session) Start(ctx context.Context, attempt Attempt, project domain.Project) error {
	s.mu.Lock()
	if uint64(attempt) != s.epoch {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if s.fsm.current() != StateSubmitting {
		s.mu.Unlock()
		return ErrNotSubmitting
	}
	epoch := s.epoch
	s.view.ProjectID = project.ID
	s.view.BackendStatus = string(project.Status)
	s.mu.Unlock()

	fetch, err := s.source.Track(ctx, project)

	s.mu.Lock()
	if epoch != s.epoch || s.fsm.current() != StateSubmitting {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		v := s.failCreationLocked(err)
		s.mu.Unlock()
		s.notify(v)
		return fmt.Errorf("tracking project %s: %w", project.ID, err)
	}
	if err := s.fsm.send(eventCreated); err != nil {
		s.mu.Unlock()
		return err
	}
	now := s.cfg.Now()
	s.view.StartedAt = now
	s.view.CurrentStageStartedAt = now
	s.view.Current = stage.CurrentIndex(s.view.Stages)
	s.cfg.Logger.Info("generation started", "project", project.ID)

	s.handle = poller.Start(ctx, poller.FetchFunc[domain.StatusReport](fetch), s.cfg.Interval,
		func(r domain.StatusReport) { s.observe(epoch, r, nil) },
		func(err error) { s.observe(epoch, domain.StatusReport{}, err) },
	)
	v := s.commitLocked()
	s.mu.Unlock()

	s.notify(v)
	return nil
}

// CreationFailed records that the creation request for attempt failed. It has
// no effect unless the session is still submitting that attempt.
func (s *Session) CreationFailed(attempt Attempt, err error) {
	s.mu.Lock()
	if uint64(attempt) != s.epoch || s.fsm.current() != StateSubmitting {
		s.mu.Unlock()
		return
	}
	v := s.failCreationLocked(err)
	s.mu.Unlock()
	s.notify(v)
}

// Reset stops any poll loop and returns the session to idle. Late results from
// the ended attempt are ignored.
func (s *Session) Reset() {
	s.mu.Lock()
	s.stopLocked()
	if s.fsm.current() == StateIdle {
		s.mu.Unlock()
		return
	}
	if err := s.fsm.send(eventReset); err != nil {
		s.cfg.Logger.Error("reset rejected", "error", err)
	}
	s.view = idleView()
	v := s.commitLocked()
	s.mu.Unlock()
	s.notify(v)
}

func (s *Session) observe(epoch uint64, report domain.StatusReport, pollErr error) {
	s.mu.Lock()
	if epoch != s.epoch || s.fsm.current() != StatePolling {
		s.mu.Unlock()
		return
	}
	s.view.Attempts++

	if pollErr != nil {
		s.view.LastError = pollErr.Error()
		s.cfg.Logger.Warn("status poll failed", "project", s.view.ProjectID, "attempt", s.view.Attempts, "error", pollErr)
	} else {
		s.applyLocked(report)
	}

	switch {
	case s.view.Overall == domain.OverallSucceeded:
		s.terminateLocked(eventSucceed, ReasonNone)
	case s.view.Overall == domain.OverallFailed:
		s.terminateLocked(eventFail, ReasonGeneration)
	case s.view.Attempts >= s.cfg.MaxAttempts:
		s.terminateLocked(eventFail, ReasonTimeout)
	}
	v := s.commitLocked()
	s.mu.Unlock()
	s.notify(v)
}

func (s *Session) applyLocked(report domain.StatusReport) {
	res := stage.Map(stage.Input{
		Status:   report.Status,
		Steps:    report.Steps,
		Previous: s.view.Stages,
	}, s.cfg.Vocabulary)

	stages := stage.Merge(s.view.Stages, res.Stages)
	current := stage.CurrentIndex(stages)
	if current != s.view.Current {
		s.view.CurrentStageStartedAt = s.cfg.Now()
	}
	s.view.Stages = stages
	s.view.Current = current
	s.view.Overall = res.Overall
	s.view.BackendStatus = report.Status
	s.view.BackendError = report.Error
	s.view.LastError = ""
	s.view.Links = domain.CollectLinks(append(s.view.Links, report.Links...)...)
}

func (s *Session) terminateLocked(event string, reason Reason) {
	s.stopLocked()
	if err := s.fsm.send(event); err != nil {
		s.cfg.Logger.Error("terminal transition rejected", "error", err)
		return
	}
	s.view.Reason = reason
	if reason == ReasonTimeout {
		s.view.Overall = domain.OverallFailed
	}
	s.cfg.Logger.Info("generation finished",
		"project", s.view.ProjectID,
		"state", s.fsm.current(),
		"reason", string(reason),
		"attempts", s.view.Attempts,
	)
}

func (s *Session) failCreationLocked(err error) View {
	s.stopLocked()
	if sendErr := s.fsm.send(eventCreateFailed); sendErr != nil {
		s.cfg.Logger.Error("creation failure rejected", "error", sendErr)
	}
	s.view.Reason = ReasonCreation
	s.view.Overall = domain.OverallFailed
	if err != nil {
		s.view.LastError = err.Error()
	}
	s.cfg.Logger.Info("project creation failed", "error", err)
	return s.commitLocked()
}

// stopLocked ends the current poll loop and invalidates its pending results.
func (s *Session) stopLocked() {
	s.handle.Stop()
	s.handle = nil
	s.epoch++
}

func (s *Session) commitLocked() View {
	s.version++
	s.view.Version = s.version
	s.view.State = State(s.fsm.current())
	return s.view.clone()
}

func (s *Session) notify(v View) {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(v)
	}
}
