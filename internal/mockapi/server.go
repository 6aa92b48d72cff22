// Package mockapi is an in-memory stand-in for the website-generation backend.
// Projects advance one lifecycle step per read, so a client polling it sees
// a full generation run in a few seconds.
package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/waabox/sitedeck/internal/domain"
)

// DefaultDomain is the parent domain of generated site URLs.
const DefaultDomain = "sites.example.dev"

// Options configures a Server. Zero values select defaults.
type Options struct {
	Logger *slog.Logger
	// Token, when set, is required as a bearer token on every request.
	Token string
	// Domain is the parent domain of generated site URLs.
	Domain string
	// Users maps email to password for the OAuth2 password grant served at
	// /oauth/token. When set, tokens it issues are accepted as bearer tokens.
	Users map[string]string
	// FailMarker makes any project whose prompt contains it fail during tests.
	FailMarker string
	Now        func() time.Time
}

// Server serves the backend routes from memory.
type Server struct {
	Router chi.Router
	store  *store
	logger *slog.Logger
}

// New builds the router and its in-memory state.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Domain == "" {
		opts.Domain = DefaultDomain
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		store:  newStore(opts.Domain, opts.FailMarker, opts.Now),
		logger: opts.Logger,
	}

	var verify func(string) bool
	tokens := newIssuer(opts.Users, opts.Now)
	if len(opts.Users) > 0 {
		verify = tokens.valid
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(opts.Logger))
	r.Use(middleware.Recoverer)

	r.Post("/oauth/token", tokens.handleToken)
	r.Group(func(r chi.Router) {
		r.Use(BearerMiddleware(opts.Token, verify))
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Post("/deployments", s.handleCreateDeployment)
				r.Get("/deployments/{deploymentID}", s.handleGetDeployment)
			})
		})
		r.Post("/domain", s.handleCheckDomain)
	})

	s.Router = r
	return s
}

// ServeHTTP lets the server be mounted directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

type createBody struct {
	ProjectName     string              `json:"projectName"`
	Description     string              `json:"description"`
	Prompt          string              `json:"prompt"`
	UserEmail       string              `json:"userEmail"`
	BusinessDetails *domain.Preferences `json:"businessDetails"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Prompt == "" || body.ProjectName == "" {
		writeError(w, http.StatusBadRequest, "projectName and prompt are required")
		return
	}
	p := s.store.create(body)
	s.logger.Info("project created", "project_id", p.ID, "name", p.ProjectName)
	writeData(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	projects := s.store.list()
	writeData(w, http.StatusOK, map[string]any{"projects": projects, "total": len(projects)})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.read(chi.URLParam(r, "projectID"))
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) handleCreateDeployment(w http.ResponseWriter, r *http.Request) {
	d, ok := s.store.deploy(chi.URLParam(r, "projectID"))
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	s.logger.Info("deployment created", "project_id", d.ProjectID, "deployment_id", d.ID)
	writeData(w, http.StatusCreated, d)
}

func (s *Server) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	st, ok := s.store.deploymentStatus(chi.URLParam(r, "projectID"), chi.URLParam(r, "deploymentID"))
	if !ok {
		writeError(w, http.StatusNotFound, "deployment not found")
		return
	}
	writeData(w, http.StatusOK, st)
}

func (s *Server) handleCheckDomain(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Domain string `json:"domain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}
	writeData(w, http.StatusOK, domain.DomainAvailability{
		Domain:    body.Domain,
		Available: s.store.available(body.Domain),
	})
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
