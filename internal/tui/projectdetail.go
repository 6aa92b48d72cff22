package tui

import (
	"fmt"
	"strings"

	"github.com/waabox/sitedeck/internal/domain"
)

// ProjectDetailModel renders the detail panel for one project.
type ProjectDetailModel struct {
	project domain.Project
}

// NewProjectDetailModel creates a detail model for p.
func NewProjectDetailModel(p domain.Project) ProjectDetailModel {
	return ProjectDetailModel{project: p}
}

// View renders the project's record, links and business details.
func (m ProjectDetailModel) View() string {
	p := m.project
	if p.ID == "" {
		return "Select a project to see its details."
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(p.Name) + "\n")
	field(&sb, "ID", p.ID)
	field(&sb, "Status", string(p.Status))
	if !p.CreatedAt.IsZero() {
		field(&sb, "Created", p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	field(&sb, "Owner", p.UserEmail)
	field(&sb, "Description", p.Description)

	if links := p.Links(); len(links) > 0 {
		sb.WriteString("\n")
		for _, l := range links {
			sb.WriteString(fmt.Sprintf("  %-10s %s\n", l.Kind, linkStyle.Render(l.URL)))
		}
	}

	if pref := p.Preferences; pref != nil {
		sb.WriteString("\n")
		field(&sb, "Business", pref.BusinessName)
		field(&sb, "Industry", pref.Industry)
		field(&sb, "Audience", pref.TargetAudience)
		field(&sb, "Domain", pref.DomainName)
		field(&sb, "Tone", pref.Tone)
		if len(pref.Features) > 0 {
			field(&sb, "Features", strings.Join(pref.Features, ", "))
		}
	}
	return sb.String()
}

func field(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	sb.WriteString(fmt.Sprintf("  %s %s\n", dimStyle.Render(fmt.Sprintf("%-12s", label)), truncate(value, 80)))
}
