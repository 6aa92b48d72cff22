package mockapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/waabox/sitedeck/internal/api"
	"github.com/waabox/sitedeck/internal/auth"
	"github.com/waabox/sitedeck/internal/domain"
	"github.com/waabox/sitedeck/internal/mockapi"
	"github.com/waabox/sitedeck/internal/provider"
	"github.com/waabox/sitedeck/internal/session"
	"github.com/waabox/sitedeck/internal/submission"
)

const prompt = "A landing page for a neighbourhood bakery with an online order form and opening hours."

func newClient(t *testing.T, opts mockapi.Options) *api.Client {
	t.Helper()
	server := httptest.NewServer(mockapi.New(opts))
	t.Cleanup(server.Close)
	return api.New(api.Options{BaseURL: server.URL, Token: opts.Token, RetryDelay: time.Millisecond})
}

func TestServer_ProjectWalksLifecycle(t *testing.T) {
	client := newClient(t, mockapi.Options{})
	ctx := context.Background()

	p, err := client.CreateProject(ctx, domain.CreateProjectRequest{Name: "bakery", Prompt: prompt})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" || p.Status != domain.ProjectProcessing {
		t.Fatalf("unexpected created project: %+v", p)
	}

	want := []domain.ProjectStatus{
		domain.ProjectBuilding, domain.ProjectDesign, domain.ProjectTesting,
		domain.ProjectDeploying, domain.ProjectReady, domain.ProjectReady,
	}
	var last domain.Project
	for i, status := range want {
		last, err = client.GetProject(ctx, p.ID)
		if err != nil {
			t.Fatalf("read %d: unexpected error: %v", i, err)
		}
		if last.Status != status {
			t.Errorf("read %d: expected %s, got %s", i, status, last.Status)
		}
	}
	if !strings.HasPrefix(last.WebsiteURL, "https://") {
		t.Errorf("expected website url once ready, got %q", last.WebsiteURL)
	}
}

func TestServer_FailMarkerFailsProject(t *testing.T) {
	client := newClient(t, mockapi.Options{FailMarker: "[fail]"})
	ctx := context.Background()

	p, _ := client.CreateProject(ctx, domain.CreateProjectRequest{Name: "x", Prompt: prompt + " [fail]"})
	var last domain.Project
	for range 6 {
		last, _ = client.GetProject(ctx, p.ID)
	}
	if last.Status != domain.ProjectFailed {
		t.Errorf("expected FAILED, got %s", last.Status)
	}
	if last.WebsiteURL != "" {
		t.Errorf("expected no website url, got %q", last.WebsiteURL)
	}
}

func TestServer_UnknownProjectIsNotFound(t *testing.T) {
	client := newClient(t, mockapi.Options{})
	_, err := client.GetProject(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestServer_RequiresConfiguredToken(t *testing.T) {
	server := httptest.NewServer(mockapi.New(mockapi.Options{Token: "secret"}))
	defer server.Close()

	anon := api.New(api.Options{BaseURL: server.URL})
	if _, err := anon.GetProject(context.Background(), "any"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	authed := api.New(api.Options{BaseURL: server.URL, Token: "secret"})
	if _, err := authed.ListProjects(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestServer_EchoesRequestID(t *testing.T) {
	server := httptest.NewServer(mockapi.New(mockapi.Options{}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/projects", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected request id echoed, got %q", got)
	}
}

func TestServer_DeploymentStepsAdvance(t *testing.T) {
	client := newClient(t, mockapi.Options{})
	ctx := context.Background()

	p, _ := client.CreateProject(ctx, domain.CreateProjectRequest{Name: "x", Prompt: prompt})
	d, err := client.CreateDeployment(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := client.GetDeploymentStatus(ctx, p.ID, d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Steps[domain.StageGenerateCode] != domain.StepRunning {
		t.Errorf("expected generateCode running, got %s", first.Steps[domain.StageGenerateCode])
	}
	if first.Steps[domain.StageDeployBackend] != domain.StepPending {
		t.Errorf("expected deployBackend pending, got %s", first.Steps[domain.StageDeployBackend])
	}

	var last domain.DeploymentStatus
	for range 12 {
		last, _ = client.GetDeploymentStatus(ctx, p.ID, d.ID)
	}
	if last.Status != "SUCCEEDED" {
		t.Errorf("expected SUCCEEDED, got %s", last.Status)
	}
	for _, st := range domain.Stages {
		if last.Steps[st.Key] != domain.StepSucceeded {
			t.Errorf("expected %s succeeded, got %s", st.Key, last.Steps[st.Key])
		}
	}
	if len(last.Links()) != 3 {
		t.Errorf("expected website, frontend and backend links, got %v", last.Links())
	}
}

func TestServer_CheckDomain(t *testing.T) {
	client := newClient(t, mockapi.Options{})
	ctx := context.Background()

	client.CreateProject(ctx, domain.CreateProjectRequest{
		Name:        "x",
		Prompt:      prompt,
		Preferences: &domain.Preferences{DomainName: "bakery.dev"},
	})

	taken, err := client.CheckDomain(ctx, "bakery.dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken.Available {
		t.Error("expected domain in use to be unavailable")
	}
	free, _ := client.CheckDomain(ctx, "florist.dev")
	if !free.Available {
		t.Error("expected unused domain to be available")
	}
}

func TestServer_DrivesSessionToSuccess(t *testing.T) {
	for _, shape := range []string{provider.ShapeProject, provider.ShapeDeployment} {
		t.Run(shape, func(t *testing.T) {
			client := newClient(t, mockapi.Options{})
			source, err := provider.NewDefaultRegistry(client).Lookup(shape)
			if err != nil {
				t.Fatal(err)
			}
			sess, err := session.New(source, session.Config{Interval: 5 * time.Millisecond})
			if err != nil {
				t.Fatal(err)
			}
			flow := submission.NewFlow(client, sess, nil)

			if _, err := flow.Submit(context.Background(), submission.Input{Prompt: prompt}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			deadline := time.Now().Add(2 * time.Second)
			for !sess.View().Terminal() && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			v := sess.View()
			if v.State != session.StateSucceeded {
				t.Fatalf("expected succeeded, got %s (%+v)", v.State, v)
			}
			if len(v.Links) == 0 {
				t.Error("expected at least one result link")
			}
		})
	}
}

func TestServer_PasswordGrantIssuesAcceptedTokens(t *testing.T) {
	server := httptest.NewServer(mockapi.New(mockapi.Options{
		Users: map[string]string{"admin@example.com": "hunter2"},
	}))
	defer server.Close()

	client := api.New(api.Options{BaseURL: server.URL})
	if _, err := client.GetProject(context.Background(), "any"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized before sign-in, got %v", err)
	}

	oauthCfg := &oauth2.Config{Endpoint: oauth2.Endpoint{TokenURL: server.URL + "/oauth/token"}}
	tokens := auth.NewTokenManager(oauthCfg, auth.NewMemoryStore(auth.Tokens{}), nil)
	tokens.OnChange(client.SetToken)
	authn := auth.NewPasswordAuthenticator(oauthCfg, tokens, nil)

	if err := authn.Login(context.Background(), "admin@example.com", "wrong"); err == nil {
		t.Fatal("expected wrong password to be rejected")
	}
	if err := authn.Login(context.Background(), "admin@example.com", "hunter2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, ok := authn.CurrentUser()
	if !ok || u.Email != "admin@example.com" || u.Role != "super-admin" {
		t.Errorf("unexpected user: %+v (signed in %v)", u, ok)
	}
	if _, err := client.ListProjects(context.Background()); err != nil {
		t.Errorf("expected issued token to be accepted: %v", err)
	}

	if _, err := tokens.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}
	if _, err := client.ListProjects(context.Background()); err != nil {
		t.Errorf("expected refreshed token to be accepted: %v", err)
	}
}
