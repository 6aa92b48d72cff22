// Package provider adapts the backend service to the two status shapes a
// generation session can track.
package provider

import (
	"context"
	"fmt"

	"github.com/waabox/sitedeck/internal/domain"
)

// ProjectReader is the subset of the backend used by ProjectSource.
type ProjectReader interface {
	GetProject(ctx context.Context, id string) (domain.Project, error)
}

// DeploymentService is the subset of the backend used by DeploymentSource.
type DeploymentService interface {
	CreateDeployment(ctx context.Context, projectID string) (domain.Deployment, error)
	GetDeploymentStatus(ctx context.Context, projectID, deploymentID string) (domain.DeploymentStatus, error)
}

// ProjectSource tracks the coarse project status.
type ProjectSource struct {
	reader ProjectReader
}

var _ domain.StatusSource = (*ProjectSource)(nil)

func NewProjectSource(reader ProjectReader) *ProjectSource {
	return &ProjectSource{reader: reader}
}

// Track returns a fetcher that re-reads the project record.
func (s *ProjectSource) Track(_ context.Context, project domain.Project) (domain.StatusFetcher, error) {
	id := project.ID
	return func(ctx context.Context) (domain.StatusReport, error) {
		p, err := s.reader.GetProject(ctx, id)
		if err != nil {
			return domain.StatusReport{}, err
		}
		return domain.StatusReport{Status: string(p.Status), Links: p.Links()}, nil
	}, nil
}

// DeploymentSource tracks a per-step deployment record.
type DeploymentSource struct {
	svc DeploymentService
}

var _ domain.StatusSource = (*DeploymentSource)(nil)

func NewDeploymentSource(svc DeploymentService) *DeploymentSource {
	return &DeploymentSource{svc: svc}
}

// Track creates exactly one deployment for project and returns a fetcher for its status.
func (s *DeploymentSource) Track(ctx context.Context, project domain.Project) (domain.StatusFetcher, error) {
	d, err := s.svc.CreateDeployment(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("creating deployment: %w", err)
	}
	if d.ID == "" {
		return nil, fmt.Errorf("creating deployment: backend returned no deployment id")
	}
	projectID, deploymentID := project.ID, d.ID
	return func(ctx context.Context) (domain.StatusReport, error) {
		st, err := s.svc.GetDeploymentStatus(ctx, projectID, deploymentID)
		if err != nil {
			return domain.StatusReport{}, err
		}
		return domain.StatusReport{
			Status: st.Status,
			Steps:  st.Steps,
			Links:  st.Links(),
			Error:  st.Error,
		}, nil
	}, nil
}
