package mockapi

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waabox/sitedeck/internal/domain"
)

// projectLifecycle is the sequence a project walks through, one step per read.
var projectLifecycle = []domain.ProjectStatus{
	domain.ProjectBuilding,
	domain.ProjectDesign,
	domain.ProjectTesting,
	domain.ProjectDeploying,
	domain.ProjectReady,
}

// pollsPerStep is how many status reads each deployment step stays running.
const pollsPerStep = 2

type projectRecord struct {
	ID              string              `json:"id"`
	ProjectName     string              `json:"projectName"`
	Description     string              `json:"description,omitempty"`
	Prompt          string              `json:"prompt"`
	UserEmail       string              `json:"userEmail,omitempty"`
	Status          string              `json:"status"`
	WebsiteURL      string              `json:"websiteUrl,omitempty"`
	BusinessDetails *domain.Preferences `json:"businessDetails,omitempty"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`

	reads int
	fail  bool
}

type deploymentRecord struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`

	reads int
	fail  bool
}

type deploymentStatusBody struct {
	ID      string            `json:"id"`
	Status  string            `json:"status"`
	Steps   map[string]string `json:"steps"`
	Outputs struct {
		FrontendURL string `json:"frontendUrl,omitempty"`
		BackendURL  string `json:"backendUrl,omitempty"`
	} `json:"outputs"`
	BuildDetails struct {
		WebsiteURL string `json:"websiteUrl,omitempty"`
	} `json:"buildDetails"`
	Error string `json:"error,omitempty"`
}

// store keeps projects and deployments in memory. Reads advance progress.
type store struct {
	mu          sync.Mutex
	now         func() time.Time
	domain      string
	failMarker  string
	projects    map[string]*projectRecord
	deployments map[string]*deploymentRecord
}

func newStore(siteDomain, failMarker string, now func() time.Time) *store {
	return &store{
		now:         now,
		domain:      siteDomain,
		failMarker:  failMarker,
		projects:    make(map[string]*projectRecord),
		deployments: make(map[string]*deploymentRecord),
	}
}

func (s *store) create(body createBody) projectRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UTC().Format(time.RFC3339)
	p := &projectRecord{
		ID:              uuid.NewString(),
		ProjectName:     body.ProjectName,
		Description:     body.Description,
		Prompt:          body.Prompt,
		UserEmail:       body.UserEmail,
		Status:          string(domain.ProjectProcessing),
		BusinessDetails: body.BusinessDetails,
		CreatedAt:       ts,
		UpdatedAt:       ts,
		fail:            s.failMarker != "" && strings.Contains(body.Prompt, s.failMarker),
	}
	s.projects[p.ID] = p
	return *p
}

// read returns the project and moves it one step along its lifecycle.
func (s *store) read(id string) (projectRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return projectRecord{}, false
	}
	if p.reads >= len(projectLifecycle) || p.Status == string(domain.ProjectFailed) {
		return *p, true
	}
	next := projectLifecycle[p.reads]
	if p.fail && next == domain.ProjectDeploying {
		next = domain.ProjectFailed
	}
	p.Status = string(next)
	p.reads++
	p.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	if next == domain.ProjectReady {
		p.WebsiteURL = s.siteURL(p.ID)
	}
	return *p, true
}

func (s *store) list() []projectRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]projectRecord, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b projectRecord) int { return strings.Compare(b.CreatedAt, a.CreatedAt) })
	return out
}

func (s *store) deploy(projectID string) (deploymentRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return deploymentRecord{}, false
	}
	d := &deploymentRecord{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Status:    "PENDING",
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		fail:      p.fail,
	}
	s.deployments[d.ID] = d
	return *d, true
}

// deploymentStatus advances the deployment one read and renders its steps.
// Each step runs for pollsPerStep reads before succeeding. Failing projects
// stop at the test step.
func (s *store) deploymentStatus(projectID, deploymentID string) (deploymentStatusBody, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.deployments[deploymentID]
	if !ok || d.ProjectID != projectID {
		return deploymentStatusBody{}, false
	}
	d.reads++

	out := deploymentStatusBody{ID: d.ID, Steps: make(map[string]string, len(domain.Stages))}
	done := 0
	for i, st := range domain.Stages {
		start := i*pollsPerStep + 1
		switch {
		case d.reads < start || out.Error != "":
			out.Steps[string(st.Key)] = "PENDING"
		case d.fail && st.Key == domain.StageRunTests:
			out.Steps[string(st.Key)] = "FAILED"
			out.Error = "tests failed"
		case d.reads < start+pollsPerStep:
			out.Steps[string(st.Key)] = "RUNNING"
		default:
			out.Steps[string(st.Key)] = "SUCCEEDED"
			done++
		}
	}

	switch {
	case out.Error != "":
		d.Status = "FAILED"
	case done == len(domain.Stages):
		d.Status = "SUCCEEDED"
		out.BuildDetails.WebsiteURL = s.siteURL(projectID)
	default:
		d.Status = "RUNNING"
	}
	if out.Steps[string(domain.StageDeployFrontend)] == "SUCCEEDED" {
		out.Outputs.FrontendURL = fmt.Sprintf("https://app-%s.%s", short(projectID), s.domain)
	}
	if out.Steps[string(domain.StageDeployBackend)] == "SUCCEEDED" {
		out.Outputs.BackendURL = fmt.Sprintf("https://api-%s.%s", short(projectID), s.domain)
	}
	out.Status = d.Status
	return out, true
}

// available reports a name as taken when any project already uses it.
func (s *store) available(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range s.projects {
		if p.BusinessDetails != nil && strings.EqualFold(p.BusinessDetails.DomainName, name) {
			return false
		}
	}
	return name != ""
}

func (s *store) siteURL(id string) string {
	return fmt.Sprintf("https://%s.%s", short(id), s.domain)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
