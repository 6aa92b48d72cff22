// Package api is the JSON/HTTP adapter for the website-generation backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/google/uuid"

	"github.com/waabox/sitedeck/internal/domain"
)

const (
	DefaultBaseURL = "http://localhost:3000/dev"
	DefaultTimeout = 120 * time.Second
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL   string
	Token     string
	UserEmail string
	Timeout   time.Duration
	// ReadAttempts is the number of tries for idempotent admin reads.
	ReadAttempts int
	RetryDelay   time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client implements domain.ProjectService over the backend REST API.
type Client struct {
	baseURL   string
	userEmail string
	timeout   time.Duration
	retryCfg  retry.Config
	http      *http.Client
	logger    *slog.Logger

	mu    sync.RWMutex
	token string
}

var _ domain.ProjectService = (*Client)(nil)

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ReadAttempts <= 0 {
		opts.ReadAttempts = 2
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userEmail: opts.UserEmail,
		timeout:   opts.Timeout,
		retryCfg: retry.Config{
			MaxAttempts:   opts.ReadAttempts,
			InitialDelay:  opts.RetryDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
		http:   opts.HTTPClient,
		logger: opts.Logger,
		token:  opts.Token,
	}
}

// SetToken replaces the bearer token used for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// CreateProject submits a new generation request. It is never retried.
func (c *Client) CreateProject(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	body := createProjectBody{
		ProjectName:     req.Name,
		Description:     req.Description,
		Prompt:          req.Prompt,
		UserEmail:       firstNonEmpty(req.UserEmail, c.userEmail),
		BusinessDetails: req.Preferences,
	}
	var raw rawProject
	if err := c.do(ctx, http.MethodPost, "/projects", body, &raw); err != nil {
		return domain.Project{}, err
	}
	return raw.toProject(), nil
}

// GetProject returns the current record of one project.
func (c *Client) GetProject(ctx context.Context, id string) (domain.Project, error) {
	var raw rawProject
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &raw); err != nil {
		return domain.Project{}, err
	}
	return raw.toProject(), nil
}

// ListProjects returns every project, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	r := retry.New[[]domain.Project](c.retryCfg)
	projects, err := r.Do(ctx, func(ctx context.Context) ([]domain.Project, error) {
		var list projectList
		if err := c.do(ctx, http.MethodGet, "/projects", nil, &list); err != nil {
			return nil, err
		}
		out := make([]domain.Project, len(list.Projects))
		for i, p := range list.Projects {
			out[i] = p.toProject()
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(projects, func(a, b domain.Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return projects, nil
}

// CreateDeployment starts a deployment for a project. It is never retried.
func (c *Client) CreateDeployment(ctx context.Context, projectID string) (domain.Deployment, error) {
	var raw rawDeployment
	path := "/projects/" + url.PathEscape(projectID) + "/deployments"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &raw); err != nil {
		return domain.Deployment{}, err
	}
	d := raw.toDeployment()
	if d.ProjectID == "" {
		d.ProjectID = projectID
	}
	return d, nil
}

// GetDeploymentStatus returns the per-step record of a deployment.
func (c *Client) GetDeploymentStatus(ctx context.Context, projectID, deploymentID string) (domain.DeploymentStatus, error) {
	var raw rawDeploymentStatus
	path := "/projects/" + url.PathEscape(projectID) + "/deployments/" + url.PathEscape(deploymentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return domain.DeploymentStatus{}, err
	}
	return raw.toDeploymentStatus(), nil
}

// CheckDomain reports whether a domain name is available.
func (c *Client) CheckDomain(ctx context.Context, name string) (domain.DomainAvailability, error) {
	r := retry.New[domain.DomainAvailability](c.retryCfg)
	return r.Do(ctx, func(ctx context.Context) (domain.DomainAvailability, error) {
		var out domain.DomainAvailability
		err := c.do(ctx, http.MethodPost, "/domain", map[string]string{"domain": name}, &out)
		return out, err
	})
}

// do performs one request bounded by the client timeout and decodes the
// envelope's data into target.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	start := time.Now()
	t := timeout.New[struct{}](timeout.Config{DefaultTimeout: c.timeout})
	_, err := t.Execute(ctx, c.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.roundTrip(ctx, method, path, payload, target)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || time.Since(start) >= c.timeout) {
		return fmt.Errorf("%s %s: request timeout after %s: %w", method, path, c.timeout, domain.ErrTimeout)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, target any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api request", "method", method, "path", path, "request_id", requestID)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	c.logger.Debug("api response", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %s: %w", method, path, resp.Status, domain.ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %s: %w", method, path, resp.Status, domain.ErrNotFound)
	case resp.StatusCode >= 400:
		return &Error{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	env := envelope[json.RawMessage]{}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return &Error{StatusCode: resp.StatusCode, Body: firstNonEmpty(env.Error, env.Message, "request was not successful")}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}
