package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/session"
	"github.com/waabox/sitedeck/internal/stage"
)

func stages(states ...domain.StepState) []stage.StageState {
	out := make([]stage.StageState, len(states))
	for i, s := range states {
		out[i] = stage.StageState{Key: domain.Stages[i].Key, Label: domain.Stages[i].Label, State: s}
	}
	return out
}

func TestProgressPrinter_PrintsChangesAndSkipsStaleViews(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)

	p.OnChange(session.View{Version: 1, State: session.StatePolling, ProjectID: "p1", BackendStatus: "BUILDING",
		Stages: stages(domain.StepRunning, domain.StepPending)})
	p.OnChange(session.View{Version: 3, State: session.StatePolling, ProjectID: "p1", BackendStatus: "TESTING",
		Stages: stages(domain.StepSucceeded, domain.StepRunning)})
	// Older than what was printed.
	p.OnChange(session.View{Version: 2, State: session.StatePolling, ProjectID: "p1", BackendStatus: "DESIGN",
		Stages: stages(domain.StepRunning, domain.StepPending)})

	out := buf.String()
	if strings.Count(out, "Tracking project p1") != 1 {
		t.Errorf("expected project line once, got:\n%s", out)
	}
	if strings.Contains(out, "DESIGN") {
		t.Errorf("stale view was printed:\n%s", out)
	}
	if !strings.Contains(out, "Status TESTING") {
		t.Errorf("expected status change, got:\n%s", out)
	}
	if strings.Count(out, domain.Stages[0].Label) != 2 {
		t.Errorf("expected first stage printed for running and succeeded, got:\n%s", out)
	}
}

func TestProgressPrinter_WaitReportsSuccess(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)
	p.OnChange(session.View{
		Version:   1,
		State:     session.StateSucceeded,
		StartedAt: time.Now().Add(-90 * time.Second),
		Attempts:  7,
		Links:     []domain.Link{{Kind: domain.LinkWebsite, URL: "https://bakery.example.dev"}},
	})

	if err := p.wait(t.Context(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Website ready in 1:30") || !strings.Contains(out, "7 status checks") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if !strings.Contains(out, "https://bakery.example.dev") {
		t.Errorf("expected link, got:\n%s", out)
	}
}

func TestProgressPrinter_WaitReportsFailure(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)
	p.OnChange(session.View{Version: 1, State: session.StateFailed, Reason: session.ReasonTimeout, Attempts: 120})
	// Views after the terminal one are ignored.
	p.OnChange(session.View{Version: 2, State: session.StateSucceeded})

	err := p.wait(t.Context(), nil)
	if !errors.Is(err, errGenerationFailed) {
		t.Fatalf("expected errGenerationFailed, got %v", err)
	}
	if !strings.Contains(buf.String(), "did not finish after 120 status checks") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func sampleProjects(now time.Time) []domain.Project {
	return []domain.Project{
		{ID: "p1", Name: "bakery", Status: domain.ProjectReady, WebsiteURL: "https://bakery.example.dev", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "p2", Name: "florist", Status: domain.ProjectProcessing, CreatedAt: now.Add(-5 * time.Minute)},
	}
}

func TestWriteProjects_Table(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	if err := writeProjects(&buf, "table", sampleProjects(now), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "2h ago") || !strings.Contains(lines[1], "https://bakery.example.dev") {
		t.Errorf("unexpected row %q", lines[1])
	}
	if !strings.Contains(lines[2], "5m ago") || !strings.HasSuffix(lines[2], "-") {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestWriteProjects_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeProjects(&buf, "table", nil, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "No projects yet.\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteProjects_JSONAndYAML(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var jsonBuf bytes.Buffer
	if err := writeProjects(&jsonBuf, "json", sampleProjects(now), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fromJSON []map[string]any
	if err := json.Unmarshal(jsonBuf.Bytes(), &fromJSON); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(fromJSON) != 2 || fromJSON[0]["websiteUrl"] != "https://bakery.example.dev" {
		t.Errorf("unexpected JSON: %s", jsonBuf.String())
	}

	var yamlBuf bytes.Buffer
	if err := writeProjects(&yamlBuf, "yaml", sampleProjects(now), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fromYAML []map[string]any
	if err := yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(fromYAML) != 2 || fromYAML[1]["name"] != "florist" {
		t.Errorf("unexpected YAML: %s", yamlBuf.String())
	}
}

func TestValidateOutput(t *testing.T) {
	for _, f := range []string{"table", "json", "yaml"} {
		if err := validateOutput(f); err != nil {
			t.Errorf("%s: unexpected error: %v", f, err)
		}
	}
	if err := validateOutput("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestReadPrompt(t *testing.T) {
	got, err := readPrompt(strings.NewReader("ignored"), "", []string{"a", "bakery", "site"})
	if err != nil || got != "a bakery site" {
		t.Errorf("args: got %q, %v", got, err)
	}

	got, err = readPrompt(strings.NewReader("from stdin"), "", nil)
	if err != nil || got != "from stdin" {
		t.Errorf("stdin: got %q, %v", got, err)
	}

	got, err = readPrompt(strings.NewReader("dash means stdin"), "-", nil)
	if err != nil || got != "dash means stdin" {
		t.Errorf("dash: got %q, %v", got, err)
	}

	if _, err := readPrompt(strings.NewReader(""), "brief.txt", []string{"x"}); err == nil {
		t.Error("expected error for file and args together")
	}
}

func TestParseUsers(t *testing.T) {
	users, err := parseUsers([]string{"admin@example.com:secret", "ops@example.com:p:w"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if users["admin@example.com"] != "secret" || users["ops@example.com"] != "p:w" {
		t.Errorf("unexpected users %v", users)
	}
	if _, err := parseUsers([]string{"no-password"}); err == nil {
		t.Error("expected error for missing password")
	}
}
