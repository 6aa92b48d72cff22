package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/session"
)

// CreationError wraps a failed project creation request.
type CreationError struct {
	Err error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("creating project: %v", e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// Tracker receives the outcome of a submission. *session.Session implements it.
// Outcomes carry the attempt returned by Begin so that a tracker reset in the
// meantime can ignore them.
type Tracker interface {
	Begin() (session.Attempt, error)
	Start(ctx context.Context, attempt session.Attempt, project domain.Project) error
	CreationFailed(attempt session.Attempt, err error)
}

// Flow validates input, creates the project once and hands it to the tracker.
type Flow struct {
	creator domain.ProjectCreator
	tracker Tracker
	logger  *slog.Logger
}

// NewFlow returns a Flow. logger may be nil.
func NewFlow(creator domain.ProjectCreator, tracker Tracker, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Flow{creator: creator, tracker: tracker, logger: logger}
}

// Submit runs one submission. Invalid input is rejected before any network call
// and leaves the tracker untouched. The creation request is never retried.
func (f *Flow) Submit(ctx context.Context, in Input) (domain.Project, error) {
	if err := Validate(in); err != nil {
		return domain.Project{}, err
	}
	prompt := strings.TrimSpace(in.Prompt)

	attempt, err := f.tracker.Begin()
	if err != nil {
		return domain.Project{}, err
	}

	req := domain.CreateProjectRequest{
		Name:        DeriveProjectName(prompt),
		Description: DeriveDescription(prompt),
		Prompt:      prompt,
		Preferences: in.Preferences,
	}
	f.logger.Info("creating project", "name", req.Name)
	project, err := f.creator.CreateProject(ctx, req)
	if err == nil && project.ID == "" {
		err = errors.New("backend returned a project without an id")
	}
	if err != nil {
		cerr := &CreationError{Err: err}
		f.tracker.CreationFailed(attempt, cerr)
		return domain.Project{}, cerr
	}

	f.logger.Info("project created", "project", project.ID, "status", string(project.Status))
	if err := f.tracker.Start(ctx, attempt, project); err != nil {
		if errors.Is(err, session.ErrSuperseded) {
			f.logger.Info("submission superseded, project not tracked", "project", project.ID)
		}
		return project, err
	}
	return project, nil
}
