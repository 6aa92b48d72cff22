package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/session"
)

// scriptedSource replays reports in order, repeating the last one.
type scriptedSource struct {
	mu       sync.Mutex
	reports  []domain.StatusReport
	errs     []error
	calls    int
	tracked  []string
	trackErr error
}

func (s *scriptedSource) Track(_ context.Context, p domain.Project) (domain.StatusFetcher, error) {
	s.mu.Lock()
	s.tracked = append(s.tracked, p.ID)
	s.mu.Unlock()
	if s.trackErr != nil {
		return nil, s.trackErr
	}
	return func(ctx context.Context) (domain.StatusReport, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		i := s.calls
		s.calls++
		if i < len(s.errs) && s.errs[i] != nil {
			return domain.StatusReport{}, s.errs[i]
		}
		if i >= len(s.reports) {
			i = len(s.reports) - 1
		}
		return s.reports[i], nil
	}, nil
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newSession(t *testing.T, src domain.StatusSource, cfg session.Config) *session.Session {
	t.Helper()
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Millisecond
	}
	s, err := session.New(src, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(s.Reset)
	return s
}

func waitForView(t *testing.T, s *session.Session, cond func(session.View) bool) session.View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v := s.View()
		if cond(v) {
			return v
		}
		time.Sleep(2 * time.Millisecond)
	}
	v := s.View()
	t.Fatalf("condition not met, last view: %+v", v)
	return v
}

func begin(t *testing.T, s *session.Session, id string) {
	t.Helper()
	attempt, err := s.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.Start(context.Background(), attempt, domain.Project{ID: id, Status: domain.ProjectBuilding}); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func TestNew_StartsIdle(t *testing.T) {
	s := newSession(t, &scriptedSource{}, session.Config{})
	v := s.View()
	if v.State != session.StateIdle {
		t.Errorf("expected idle, got %s", v.State)
	}
	if v.Current != -1 {
		t.Errorf("expected no current stage, got %d", v.Current)
	}
}

func TestSession_BuildingThenReadyExposesSingleLink(t *testing.T) {
	src := &scriptedSource{reports: []domain.StatusReport{
		{Status: "BUILDING"},
		{Status: "READY", Links: []domain.Link{{Kind: domain.LinkWebsite, URL: "https://x.test"}}},
	}}
	s := newSession(t, src, session.Config{})
	begin(t, s, "p1")

	v := waitForView(t, s, func(v session.View) bool { return v.Terminal() })
	if v.State != session.StateSucceeded {
		t.Fatalf("expected succeeded, got %s (%s)", v.State, v.Reason)
	}
	if v.ProjectID != "p1" {
		t.Errorf("expected project p1, got %q", v.ProjectID)
	}
	if len(v.Links) != 1 || v.Links[0].URL != "https://x.test" {
		t.Errorf("expected exactly one link to https://x.test, got %+v", v.Links)
	}
	for i, st := range v.Stages {
		if st.State != domain.StepSucceeded {
			t.Errorf("stage %d: expected succeeded, got %s", i, st.State)
		}
	}
	if v.Completed() != len(domain.Stages) {
		t.Errorf("expected all stages completed, got %d", v.Completed())
	}
}

func TestSession_PollsStopAfterTerminal(t *testing.T) {
	src := &scriptedSource{reports: []domain.StatusReport{{Status: "READY"}}}
	s := newSession(t, src, session.Config{})
	begin(t, s, "p1")

	waitForView(t, s, func(v session.View) bool { return v.Terminal() })
	time.Sleep(20 * time.Millisecond)
	calls := src.callCount()
	time.Sleep(30 * time.Millisecond)
	if got := src.callCount(); got != calls {
		t.Errorf("expected polling to stop after terminal state, calls went from %d to %d", calls, got)
	}
}

func TestSession_BackendFailureIsGenerationFailure(t *testing.T) {
	src := &scriptedSource{reports: []domain.StatusReport{
		{Status: "FAILED", Error: "build exploded"},
	}}
	s := newSession(t, src, session.Config{})
	begin(t, s, "p1")

	v := waitForView(t, s, func(v session.View) bool { return v.Terminal() })
	if v.State != session.StateFailed {
		t.Fatalf("expected failed, got %s", v.State)
	}
	if v.Reason != session.ReasonGeneration {
		t.Errorf("expected generation reason, got %q", v.Reason)
	}
	if v.BackendError != "build exploded" {
		t.Errorf("expected backend error to be carried, got %q", v.BackendError)
	}
	if v.Stages[0].State != domain.StepFailed {
		t.Errorf("expected first stage failed, got %s", v.Stages[0].State)
	}
}

func TestSession_CreationFailed(t *testing.T) {
	s := newSession(t, &scriptedSource{}, session.Config{})
	attempt, err := s.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.CreationFailed(attempt, errors.New("backend down"))

	v := s.View()
	if v.State != session.StateFailed {
		t.Fatalf("expected failed, got %s", v.State)
	}
	if v.Reason != session.ReasonCreation {
		t.Errorf("expected creation reason, got %q", v.Reason)
	}
	if v.LastError != "backend down" {
		t.Errorf("expected error message, got %q", v.LastError)
	}
}

func TestSession_TrackErrorIsCreationFailure(t *testing.T) {
	src := &scriptedSource{trackErr: errors.New("deployment refused")}
	s := newSession(t, src, session.Config{})
	attempt, err := s.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.Start(context.Background(), attempt, domain.Project{ID: "p1"}); err == nil {
		t.Fatal("expected error from Start")
	}
	v := s.View()
	if v.State != session.StateFailed || v.Reason != session.ReasonCreation {
		t.Errorf("expected failed/creation, got %s/%s", v.State, v.Reason)
	}
}

func TestSession_StartWithoutBeginIsRejected(t *testing.T) {
	s := newSession(t, &scriptedSource{}, session.Config{})
	err := s.Start(context.Background(), 0, domain.Project{ID: "p1"})
	if !errors.Is(err, session.ErrNotSubmitting) {
		t.Errorf("expected ErrNotSubmitting, got %v", err)
	}
}

func TestSession_TimesOutAfterMaxAttempts(t *testing.T) {
	src := &scriptedSource{reports: []domain.StatusReport{{Status: "BUILDING"}}}
	s := newSession(t, src, session.Config{Interval: time.Millisecond, MaxAttempts: 120})
	begin(t, s, "p1")

	v := waitForView(t, s, func(v session.View) bool { return v.Terminal() })
	if v.State != session.StateFailed {
		t.Fatalf("expected failed, got %s", v.State)
	}
	if v.Reason != session.ReasonTimeout {
		t.Errorf("expected timeout reason, got %q", v.Reason)
	}
	if v.Attempts != 120 {
		t.Errorf("expected 120 attempts, got %d", v.Attempts)
	}

	time.Sleep(20 * time.Millisecond)
	if got := s.View().Attempts; got != 120 {
		t.Errorf("expected attempts to stay at 120 after timeout, got %d", got)
	}
}

func TestSession_TransientErrorsCountAsAttemptsAndPollingContinues(t *testing.T) {
	src := &scriptedSource{
		errs:    []error{errors.New("network blip")},
		reports: []domain.StatusReport{{}, {Status: "READY"}},
	}
	s := newSession(t, src, session.Config{})
	begin(t, s, "p1")

	v := waitForView(t, s, func(v session.View) bool { return v.Terminal() })
	if v.State != session.StateSucceeded {
		t.Fatalf("expected succeeded, got %s", v.State)
	}
	if v.Attempts < 2 {
		t.Errorf("expected the failed poll to count as an attempt, got %d", v.Attempts)
	}
}

func TestSession_ResetIgnoresLateResults(t *testing.T) {
	release := make(chan struct{})
	src := &blockingSource{release: release, report: domain.StatusReport{Status: "READY"}}
	s := newSession(t, src, session.Config{Interval: time.Hour})
	attempt, err := s.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.Start(context.Background(), attempt, domain.Project{ID: "p1"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.Reset()
	close(release)
	time.Sleep(20 * time.Millisecond)

	v := s.View()
	if v.State != session.StateIdle {
		t.Errorf("expected idle after reset, got %s", v.State)
	}
	if v.ProjectID != "" || len(v.Links) != 0 {
		t.Errorf("expected cleared view, got %+v", v)
	}
}

func TestSession_StaleAttemptOutcomesAreIgnored(t *testing.T) {
	src := &scriptedSource{reports: []domain.StatusReport{{Status: "BUILDING"}}}
	s := newSession(t, src, session.Config{Interval: time.Hour})
	old, err := s.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	s.Reset()
	current, err := s.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	s.CreationFailed(old, errors.New("network down"))
	if v := s.View(); v.State != session.StateSubmitting {
		t.Fatalf("expected stale failure to be ignored, got %s", v.State)
	}
	if err := s.Start(context.Background(), old, domain.Project{ID: "old"}); !errors.Is(err, session.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if v := s.View(); v.State != session.StateSubmitting || v.ProjectID != "" {
		t.Fatalf("expected stale project to be ignored, got %s/%q", v.State, v.ProjectID)
	}

	if err := s.Start(context.Background(), current, domain.Project{ID: "new"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if v := s.View(); v.State != session.StatePolling || v.ProjectID != "new" {
		t.Errorf("expected polling new, got %s/%q", v.State, v.ProjectID)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if len(src.tracked) != 1 || src.tracked[0] != "new" {
		t.Errorf("expected only the current project tracked, got %v", src.tracked)
	}
}

func TestSession_BeginStopsPreviousLoop(t *testing.T) {
	first := &scriptedSource{reports: []domain.StatusReport{{Status: "BUILDING"}}}
	s := newSession(t, first, session.Config{})
	begin(t, s, "p1")
	waitForView(t, s, func(v session.View) bool { return v.Attempts >= 1 })

	if _, err := s.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	calls := first.callCount()
	time.Sleep(30 * time.Millisecond)
	if got := first.callCount(); got != calls {
		t.Errorf("expected old loop to stop, calls went from %d to %d", calls, got)
	}
	if v := s.View(); v.State != session.StateSubmitting || v.Attempts != 0 {
		t.Errorf("expected a fresh submitting session, got %s with %d attempts", v.State, v.Attempts)
	}
}

func TestSession_OnChangeVersionsIncrease(t *testing.T) {
	var mu sync.Mutex
	var versions []uint64
	src := &scriptedSource{reports: []domain.StatusReport{{Status: "READY"}}}
	s := newSession(t, src, session.Config{OnChange: func(v session.View) {
		mu.Lock()
		versions = append(versions, v.Version)
		mu.Unlock()
	}})
	begin(t, s, "p1")
	waitForView(t, s, func(v session.View) bool { return v.Terminal() })

	mu.Lock()
	defer mu.Unlock()
	if len(versions) < 3 {
		t.Fatalf("expected at least 3 notifications, got %d", len(versions))
	}
	seen := map[uint64]bool{}
	for _, v := range versions {
		if seen[v] {
			t.Errorf("version %d delivered twice", v)
		}
		seen[v] = true
	}
}

func TestSession_DetailedStepsDriveStages(t *testing.T) {
	src := &scriptedSource{reports: []domain.StatusReport{
		{Status: "RUNNING", Steps: map[domain.StageKey]domain.StepState{
			domain.StageGenerateCode: domain.StepSucceeded,
			domain.StageRunTests:     domain.StepRunning,
		}},
	}}
	s := newSession(t, src, session.Config{MaxAttempts: 1000})
	begin(t, s, "p1")

	v := waitForView(t, s, func(v session.View) bool { return v.Attempts >= 1 })
	if v.Current != 1 {
		t.Errorf("expected current stage 1, got %d", v.Current)
	}
	cur, ok := v.CurrentStage()
	if !ok || cur.Key != domain.StageRunTests {
		t.Errorf("expected current stage runTests, got %+v", cur)
	}
}

type blockingSource struct {
	release chan struct{}
	report  domain.StatusReport
}

func (b *blockingSource) Track(context.Context, domain.Project) (domain.StatusFetcher, error) {
	return func(ctx context.Context) (domain.StatusReport, error) {
		<-b.release
		return b.report, nil
	}, nil
}
