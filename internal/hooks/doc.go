// Package hooks dispatches workflow lifecycle events to registered
// handlers.
//
// Supports feature_created, phase_start, phase_complete, phase_failed,
// and workflow_done events. The orchestrator fires events as phases run;
// callers register handlers for display, logging, or automation.
package hooks
