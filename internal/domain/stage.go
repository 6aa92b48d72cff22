package domain

import (
	"strings"
	"time"
)

// StepState is the client-side state of one pipeline stage.
type StepState string

const (
	StepPending   StepState = "pending"
	StepRunning   StepState = "running"
	StepSucceeded StepState = "succeeded"
	StepFailed    StepState = "failed"
)

// ParseStepState maps a backend step value (PENDING, RUNNING, SUCCEEDED, FAILED)
// to a StepState. Unknown values are treated as pending.
func ParseStepState(raw string) StepState {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "RUNNING", "IN_PROGRESS":
		return StepRunning
	case "SUCCEEDED", "SUCCESS", "COMPLETED":
		return StepSucceeded
	case "FAILED", "FAILURE", "ERROR":
		return StepFailed
	default:
		return StepPending
	}
}

// Overall is the terminal classification of a generation attempt.
type Overall string

const (
	OverallInProgress Overall = "in-progress"
	OverallSucceeded  Overall = "succeeded"
	OverallFailed     Overall = "failed"
)

// StageKey identifies one of the fixed pipeline stages.
type StageKey string

const (
	StageGenerateCode   StageKey = "generateCode"
	StageRunTests       StageKey = "runTests"
	StageDeployFrontend StageKey = "deployFrontend"
	StageDeployBackend  StageKey = "deployBackend"
)

// Stage describes a pipeline stage for display.
type Stage struct {
	Key           StageKey
	Label         string
	Description   string
	EstimatedTime string
}

// Stages is the fixed, ordered list of pipeline stages.
var Stages = []Stage{
	{
		Key:           StageGenerateCode,
		Label:         "Generating Code",
		Description:   "AI is analyzing your requirements and creating custom code...",
		EstimatedTime: "2-4 minutes",
	},
	{
		Key:           StageRunTests,
		Label:         "Running Tests",
		Description:   "Validating code quality and functionality...",
		EstimatedTime: "1-2 minutes",
	},
	{
		Key:           StageDeployFrontend,
		Label:         "Deploy Frontend",
		Description:   "Setting up your user interface...",
		EstimatedTime: "30-60 seconds",
	},
	{
		Key:           StageDeployBackend,
		Label:         "Deploy Backend",
		Description:   "Configuring your server infrastructure...",
		EstimatedTime: "1-2 minutes",
	},
}

// Deployment is returned by the deployment creation endpoint.
type Deployment struct {
	ID        string
	ProjectID string
	Status    string
	CreatedAt time.Time
}

// DeploymentStatus is the detailed per-step record of a deployment.
type DeploymentStatus struct {
	ID          string
	Status      string
	Steps       map[StageKey]StepState
	FrontendURL string
	BackendURL  string
	WebsiteURL  string
	BuildLog    string
	Error       string
}

// Links returns the deployment's result URLs in display order.
func (d DeploymentStatus) Links() []Link {
	return CollectLinks(
		Link{Kind: LinkWebsite, URL: d.WebsiteURL},
		Link{Kind: LinkFrontend, URL: d.FrontendURL},
		Link{Kind: LinkBackend, URL: d.BackendURL},
	)
}

// StatusReport is one observation of a generation attempt, in either backend shape.
// Steps is nil when the backend only reports a coarse status.
type StatusReport struct {
	Status string
	Steps  map[StageKey]StepState
	Links  []Link
	Error  string
}
