package domain

import "time"

// ProjectStatus is the raw status string reported by the backend for a project.
// Backend revisions disagree on the intermediate vocabulary, so any value is accepted.
type ProjectStatus string

const (
	ProjectProcessing ProjectStatus = "PROCESSING"
	ProjectBuilding   ProjectStatus = "BUILDING"
	ProjectDesign     ProjectStatus = "DESIGN"
	ProjectTesting    ProjectStatus = "TESTING"
	ProjectDeploying  ProjectStatus = "DEPLOYING"
	ProjectActive     ProjectStatus = "ACTIVE"
	ProjectReady      ProjectStatus = "READY"
	ProjectFailed     ProjectStatus = "FAILED"
)

// Preferences is the optional structured intake attached to a project request.
// The client passes it through to the backend without interpreting it.
type Preferences struct {
	BusinessName    string   `json:"businessName,omitempty" yaml:"businessName,omitempty"`
	Industry        string   `json:"industry,omitempty" yaml:"industry,omitempty"`
	TargetAudience  string   `json:"targetAudience,omitempty" yaml:"targetAudience,omitempty"`
	DomainName      string   `json:"domainName,omitempty" yaml:"domainName,omitempty"`
	Tone            string   `json:"tone,omitempty" yaml:"tone,omitempty"`
	ColorPreference string   `json:"colorPreference,omitempty" yaml:"colorPreference,omitempty"`
	CustomColor     string   `json:"customColor,omitempty" yaml:"customColor,omitempty"`
	Features        []string `json:"features,omitempty" yaml:"features,omitempty"`
	FontFamily      string   `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	LayoutStyle     string   `json:"layoutStyle,omitempty" yaml:"layoutStyle,omitempty"`
	HeaderStyle     string   `json:"headerStyle,omitempty" yaml:"headerStyle,omitempty"`
	ButtonStyle     string   `json:"buttonStyle,omitempty" yaml:"buttonStyle,omitempty"`
	AnimationLevel  string   `json:"animationLevel,omitempty" yaml:"animationLevel,omitempty"`
	TypographyScale string   `json:"typographyScale,omitempty" yaml:"typographyScale,omitempty"`
	Spacing         string   `json:"spacing,omitempty" yaml:"spacing,omitempty"`
	SectionStyle    string   `json:"sectionStyle,omitempty" yaml:"sectionStyle,omitempty"`
}

// CreateProjectRequest is the payload sent to the project creation endpoint.
type CreateProjectRequest struct {
	Name        string
	Description string
	Prompt      string
	UserEmail   string
	Preferences *Preferences
}

// Project represents one generation request and its outcome.
type Project struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	Prompt        string        `json:"prompt" yaml:"prompt"`
	UserEmail     string        `json:"userEmail,omitempty" yaml:"userEmail,omitempty"`
	Status        ProjectStatus `json:"status" yaml:"status"`
	WebsiteURL    string        `json:"websiteUrl,omitempty" yaml:"websiteUrl,omitempty"`
	PreviewURL    string        `json:"previewUrl,omitempty" yaml:"previewUrl,omitempty"`
	DeploymentURL string        `json:"deploymentUrl,omitempty" yaml:"deploymentUrl,omitempty"`
	Preferences   *Preferences  `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" yaml:"updatedAt"`
}

// LinkKind names the kind of result URL a link points to.
type LinkKind string

const (
	LinkWebsite    LinkKind = "website"
	LinkPreview    LinkKind = "preview"
	LinkDeployment LinkKind = "deployment"
	LinkFrontend   LinkKind = "frontend"
	LinkBackend    LinkKind = "backend"
)

// Link is a result URL exposed once a stage has produced it.
type Link struct {
	Kind LinkKind
	URL  string
}

// Links returns the result links present on the project, in display order.
// Missing URLs are skipped and duplicates collapse to their first kind.
func (p Project) Links() []Link {
	return CollectLinks(
		Link{Kind: LinkWebsite, URL: p.WebsiteURL},
		Link{Kind: LinkPreview, URL: p.PreviewURL},
		Link{Kind: LinkDeployment, URL: p.DeploymentURL},
	)
}

// CollectLinks drops empty and repeated URLs, keeping input order.
func CollectLinks(candidates ...Link) []Link {
	seen := make(map[string]bool, len(candidates))
	var links []Link
	for _, l := range candidates {
		if l.URL == "" || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		links = append(links, l)
	}
	return links
}

// DomainAvailability is the result of a domain name lookup.
type DomainAvailability struct {
	Domain    string `json:"domain" yaml:"domain"`
	Available bool   `json:"available" yaml:"available"`
}
