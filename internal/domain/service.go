package domain

import "context"

// ProjectService is the port for the website-generation backend.
// The domain does not know about HTTP, envelopes, or endpoint paths.
type ProjectService interface {
	CreateProject(ctx context.Context, req CreateProjectRequest) (Project, error)
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	CreateDeployment(ctx context.Context, projectID string) (Deployment, error)
	GetDeploymentStatus(ctx context.Context, projectID, deploymentID string) (DeploymentStatus, error)
	CheckDomain(ctx context.Context, name string) (DomainAvailability, error)
}

// ProjectCreator is the subset of ProjectService used by a submission.
type ProjectCreator interface {
	CreateProject(ctx context.Context, req CreateProjectRequest) (Project, error)
}

// ProjectLister is the subset of ProjectService used by the admin browser.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]Project, error)
}

// StatusFetcher returns the current observation of one tracked generation attempt.
// It must be safe to call repeatedly and concurrently.
type StatusFetcher func(ctx context.Context) (StatusReport, error)

// StatusSource opens a tracker for a freshly created project.
// Implementations exist for the plain project-status shape and the deployment-step shape.
type StatusSource interface {
	Track(ctx context.Context, project Project) (StatusFetcher, error)
}
