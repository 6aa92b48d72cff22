package api

import (
	"fmt"
	"time"

	"github.com/waabox/sitedeck/internal/domain"
)

// Error is a non-2xx response that is not an authentication failure.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Body)
}

// envelope is the wrapper every backend response uses.
type envelope[T any] struct {
	Success *bool  `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// createProjectBody is the wire shape of a creation request.
type createProjectBody struct {
	ProjectName     string              `json:"projectName"`
	Description     string              `json:"description,omitempty"`
	Prompt          string              `json:"prompt"`
	UserEmail       string              `json:"userEmail,omitempty"`
	BusinessDetails *domain.Preferences `json:"businessDetails,omitempty"`
}

type projectList struct {
	Projects []rawProject `json:"projects"`
	Total    int          `json:"total"`
}

type projectAssets struct {
	WebsiteURL    string `json:"websiteUrl"`
	PreviewURL    string `json:"previewUrl"`
	DeploymentURL string `json:"deploymentUrl"`
}

// rawProject is the backend project record. Older revisions use projectId
// and carry result URLs under url, demo or assets.
type rawProject struct {
	ID              string              `json:"id"`
	ProjectID       string              `json:"projectId"`
	ProjectName     string              `json:"projectName"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Prompt          string              `json:"prompt"`
	UserEmail       string              `json:"userEmail"`
	Status          string              `json:"status"`
	WebsiteURL      string              `json:"websiteUrl"`
	PreviewURL      string              `json:"previewUrl"`
	DeploymentURL   string              `json:"deploymentUrl"`
	Demo            string              `json:"demo"`
	URL             string              `json:"url"`
	Assets          *projectAssets      `json:"assets"`
	BusinessDetails *domain.Preferences `json:"businessDetails"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
}

func (r rawProject) toProject() domain.Project {
	var assets projectAssets
	if r.Assets != nil {
		assets = *r.Assets
	}
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	updated, _ := time.Parse(time.RFC3339, r.UpdatedAt)
	return domain.Project{
		ID:            firstNonEmpty(r.ID, r.ProjectID),
		Name:          firstNonEmpty(r.ProjectName, r.Name),
		Description:   r.Description,
		Prompt:        r.Prompt,
		UserEmail:     r.UserEmail,
		Status:        domain.ProjectStatus(r.Status),
		WebsiteURL:    firstNonEmpty(r.WebsiteURL, assets.WebsiteURL, r.URL, r.Demo),
		PreviewURL:    firstNonEmpty(r.PreviewURL, assets.PreviewURL),
		DeploymentURL: firstNonEmpty(r.DeploymentURL, assets.DeploymentURL),
		Preferences:   r.BusinessDetails,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
}

type rawDeployment struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

func (r rawDeployment) toDeployment() domain.Deployment {
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return domain.Deployment{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Status:    r.Status,
		CreatedAt: created,
	}
}

type rawDeploymentStatus struct {
	ID      string            `json:"id"`
	Status  string            `json:"status"`
	Steps   map[string]string `json:"steps"`
	Outputs struct {
		FrontendURL string `json:"frontendUrl"`
		BackendURL  string `json:"backendUrl"`
	} `json:"outputs"`
	BuildDetails struct {
		WebsiteURL string `json:"websiteUrl"`
		BuildLog   string `json:"buildLog"`
	} `json:"buildDetails"`
	Error string `json:"error"`
}

func (r rawDeploymentStatus) toDeploymentStatus() domain.DeploymentStatus {
	var steps map[domain.StageKey]domain.StepState
	if r.Steps != nil {
		steps = make(map[domain.StageKey]domain.StepState, len(r.Steps))
		for k, v := range r.Steps {
			steps[domain.StageKey(k)] = domain.ParseStepState(v)
		}
	}
	return domain.DeploymentStatus{
		ID:          r.ID,
		Status:      r.Status,
		Steps:       steps,
		FrontendURL: r.Outputs.FrontendURL,
		BackendURL:  r.Outputs.BackendURL,
		WebsiteURL:  r.BuildDetails.WebsiteURL,
		BuildLog:    r.BuildDetails.BuildLog,
		Error:       r.Error,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
