// Package services provides the centralized service registry for specflow.
//
// Registry pattern for accessing the core services (features, orchestrator,
// state store, templates, artifact resolver, hooks). Use NewRegistry() to
// create a registry with service instances, then accessor methods to
// retrieve individual services.
package services
