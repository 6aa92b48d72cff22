package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/waabox/sitedeck/internal/domain"
)

// AuthExpiredError is returned when the access token was rejected and could not
// be refreshed, or when the rejected call must not be replayed.
type AuthExpiredError struct {
	Operation string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("%s: session expired: sign in again", e.Operation)
}

func (e *AuthExpiredError) Unwrap() error { return domain.ErrUnauthorized }

// RefreshFunc obtains a new access token.
type RefreshFunc func(ctx context.Context) (string, error)

// RefreshingService wraps a ProjectService and handles 401 responses with a
// silent token refresh. Reads are retried once after a successful refresh.
// Creation calls are never replayed, so a project or deployment is created at most once.
type RefreshingService struct {
	inner       domain.ProjectService
	refreshFn   RefreshFunc
	updateToken func(string)
}

var _ domain.ProjectService = (*RefreshingService)(nil)

// NewRefreshingService creates a RefreshingService.
// updateToken is called after a successful refresh to inject the new token into inner.
func NewRefreshingService(inner domain.ProjectService, refreshFn RefreshFunc, updateToken func(string)) *RefreshingService {
	return &RefreshingService{inner: inner, refreshFn: refreshFn, updateToken: updateToken}
}

func (rs *RefreshingService) refresh(ctx context.Context, op string) error {
	if rs.refreshFn == nil {
		return &AuthExpiredError{Operation: op}
	}
	token, err := rs.refreshFn(ctx)
	if err != nil {
		return &AuthExpiredError{Operation: op}
	}
	if rs.updateToken != nil {
		rs.updateToken(token)
	}
	return nil
}

// withRefresh runs call and, on a 401, refreshes and runs it once more.
func withRefresh[T any](ctx context.Context, rs *RefreshingService, op string, call func() (T, error)) (T, error) {
	result, err := call()
	if err == nil || !errors.Is(err, domain.ErrUnauthorized) {
		return result, err
	}
	var zero T
	if rerr := rs.refresh(ctx, op); rerr != nil {
		return zero, rerr
	}
	return call()
}

// withoutReplay runs call once. A 401 still triggers a refresh so later calls
// succeed, but the call itself reports AuthExpiredError.
func withoutReplay[T any](ctx context.Context, rs *RefreshingService, op string, call func() (T, error)) (T, error) {
	result, err := call()
	if err == nil || !errors.Is(err, domain.ErrUnauthorized) {
		return result, err
	}
	_ = rs.refresh(ctx, op)
	var zero T
	return zero, &AuthExpiredError{Operation: op}
}

func (rs *RefreshingService) CreateProject(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	return withoutReplay(ctx, rs, "create project", func() (domain.Project, error) {
		return rs.inner.CreateProject(ctx, req)
	})
}

func (rs *RefreshingService) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return withRefresh(ctx, rs, "get project", func() (domain.Project, error) {
		return rs.inner.GetProject(ctx, id)
	})
}

func (rs *RefreshingService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return withRefresh(ctx, rs, "list projects", func() ([]domain.Project, error) {
		return rs.inner.ListProjects(ctx)
	})
}

func (rs *RefreshingService) CreateDeployment(ctx context.Context, projectID string) (domain.Deployment, error) {
	return withoutReplay(ctx, rs, "create deployment", func() (domain.Deployment, error) {
		return rs.inner.CreateDeployment(ctx, projectID)
	})
}

func (rs *RefreshingService) GetDeploymentStatus(ctx context.Context, projectID, deploymentID string) (domain.DeploymentStatus, error) {
	return withRefresh(ctx, rs, "get deployment status", func() (domain.DeploymentStatus, error) {
		return rs.inner.GetDeploymentStatus(ctx, projectID, deploymentID)
	})
}

func (rs *RefreshingService) CheckDomain(ctx context.Context, name string) (domain.DomainAvailability, error) {
	return withRefresh(ctx, rs, "check domain", func() (domain.DomainAvailability, error) {
		return rs.inner.CheckDomain(ctx, name)
	})
}
