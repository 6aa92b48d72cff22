package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/waabox/sitedeck/internal/domain"
)

// ProjectsPerPage is how many projects one page of the admin list shows.
const ProjectsPerPage = 3

// ProjectListModel is an immutable, paginated model for the admin project list.
type ProjectListModel struct {
	projects []domain.Project
	cursor   int
}

// NewProjectListModel creates a project list model with the given projects.
func NewProjectListModel(projects []domain.Project) ProjectListModel {
	return ProjectListModel{projects: projects, cursor: 0}
}

// UpdateProjects replaces the list, keeping the cursor on the same project
// when it is still present.
func (m ProjectListModel) UpdateProjects(projects []domain.Project) ProjectListModel {
	selected := m.SelectedProject().ID
	m.projects = projects
	m.cursor = 0
	for i, p := range projects {
		if p.ID == selected {
			m.cursor = i
			break
		}
	}
	return m
}

// MoveDown returns a new model with the cursor moved down by one.
func (m ProjectListModel) MoveDown() ProjectListModel {
	if m.cursor < len(m.projects)-1 {
		m.cursor++
	}
	return m
}

// MoveUp returns a new model with the cursor moved up by one.
func (m ProjectListModel) MoveUp() ProjectListModel {
	if m.cursor > 0 {
		m.cursor--
	}
	return m
}

// NextPage moves the cursor to the first project of the next page.
func (m ProjectListModel) NextPage() ProjectListModel {
	if m.Page() < m.Pages()-1 {
		m.cursor = (m.Page() + 1) * ProjectsPerPage
	}
	return m
}

// PrevPage moves the cursor to the first project of the previous page.
func (m ProjectListModel) PrevPage() ProjectListModel {
	if m.Page() > 0 {
		m.cursor = (m.Page() - 1) * ProjectsPerPage
	}
	return m
}

// Page returns the zero-based page holding the cursor.
func (m ProjectListModel) Page() int {
	return m.cursor / ProjectsPerPage
}

// Pages returns the page count, at least one.
func (m ProjectListModel) Pages() int {
	if len(m.projects) == 0 {
		return 1
	}
	return (len(m.projects) + ProjectsPerPage - 1) / ProjectsPerPage
}

// SelectedIndex returns the current cursor position.
func (m ProjectListModel) SelectedIndex() int {
	return m.cursor
}

// SelectedProject returns the currently highlighted project.
// Returns zero-value Project if the list is empty.
func (m ProjectListModel) SelectedProject() domain.Project {
	if len(m.projects) == 0 {
		return domain.Project{}
	}
	return m.projects[m.cursor]
}

// Projects returns the full project slice.
func (m ProjectListModel) Projects() []domain.Project {
	return m.projects
}

// View renders the current page of the list.
func (m ProjectListModel) View() string {
	if len(m.projects) == 0 {
		return "No projects found."
	}
	start := m.Page() * ProjectsPerPage
	end := min(start+ProjectsPerPage, len(m.projects))

	var sb strings.Builder
	for i := start; i < end; i++ {
		p := m.projects[i]
		prefix := "  "
		if i == m.cursor {
			prefix = "> "
		}
		sb.WriteString(fmt.Sprintf("%s%s %-30s %-10s %s\n",
			prefix,
			statusIcon(p.Status),
			truncate(p.Name, 30),
			string(p.Status),
			formatAge(p.CreatedAt),
		))
	}
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  page %d/%d  (%d projects)", m.Page()+1, m.Pages(), len(m.projects))))
	sb.WriteString("\n")
	return sb.String()
}

func statusIcon(s domain.ProjectStatus) string {
	switch strings.ToUpper(string(s)) {
	case string(domain.ProjectReady), string(domain.ProjectActive):
		return doneStyle.Render("✓")
	case string(domain.ProjectFailed):
		return failedStyle.Render("✗")
	case "":
		return "?"
	default:
		return runningStyle.Render("●")
	}
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "--"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
