package services

import (
	"github.com/fyrsmithlabs/specflow/internal/artifact"
	"github.com/fyrsmithlabs/specflow/internal/feature"
	"github.com/fyrsmithlabs/specflow/internal/hooks"
	"github.com/fyrsmithlabs/specflow/internal/orchestrator"
	"github.com/fyrsmithlabs/specflow/internal/state"
	"github.com/fyrsmithlabs/specflow/internal/template"
)

// Registry provides access to all specflow services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Features() feature.Service
	Orchestrator() *orchestrator.Orchestrator
	Store() state.Store
	Templates() *template.Provider
	Resolver() *artifact.Resolver
	Hooks() *hooks.Manager
}

// Options configures the registry with service instances.
type Options struct {
	Features     feature.Service
	Orchestrator *orchestrator.Orchestrator
	Store        state.Store
	Templates    *template.Provider
	Resolver     *artifact.Resolver
	Hooks        *hooks.Manager
}

// registry is the concrete implementation of Registry.
type registry struct {
	features     feature.Service
	orchestrator *orchestrator.Orchestrator
	store        state.Store
	templates    *template.Provider
	resolver     *artifact.Resolver
	hooks        *hooks.Manager
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		features:     opts.Features,
		orchestrator: opts.Orchestrator,
		store:        opts.Store,
		templates:    opts.Templates,
		resolver:     opts.Resolver,
		hooks:        opts.Hooks,
	}
}

func (r *registry) Features() feature.Service                { return r.features }
func (r *registry) Orchestrator() *orchestrator.Orchestrator { return r.orchestrator }
func (r *registry) Store() state.Store                       { return r.store }
func (r *registry) Templates() *template.Provider            { return r.templates }
func (r *registry) Resolver() *artifact.Resolver             { return r.resolver }
func (r *registry) Hooks() *hooks.Manager                    { return r.hooks }
