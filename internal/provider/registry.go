package provider

import (
	"fmt"
	"strings"

	"github.com/waabox/sitedeck/internal/domain"
)

// Backend shape names accepted by the registry.
const (
	ShapeProject    = "project"
	ShapeDeployment = "deployment"
)

// Registry maps backend shape names to StatusSource implementations.
type Registry struct {
	entries []entry
}

type entry struct {
	shape  string
	source domain.StatusSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry registers both shapes backed by svc.
func NewDefaultRegistry(svc domain.ProjectService) *Registry {
	r := NewRegistry()
	r.Register(ShapeProject, NewProjectSource(svc))
	r.Register(ShapeDeployment, NewDeploymentSource(svc))
	return r
}

// Register associates a shape name with a source. Later registrations win.
func (r *Registry) Register(shape string, s domain.StatusSource) {
	r.entries = append(r.entries, entry{shape: strings.ToLower(shape), source: s})
}

// Lookup returns the source registered for shape. An empty shape selects ShapeProject.
func (r *Registry) Lookup(shape string) (domain.StatusSource, error) {
	shape = strings.ToLower(strings.TrimSpace(shape))
	if shape == "" {
		shape = ShapeProject
	}
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].shape == shape {
			return r.entries[i].source, nil
		}
	}
	return nil, fmt.Errorf("no status source registered for backend %q", shape)
}

// Shapes lists the registered shape names in registration order.
func (r *Registry) Shapes() []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range r.entries {
		if !seen[e.shape] {
			seen[e.shape] = true
			out = append(out, e.shape)
		}
	}
	return out
}
