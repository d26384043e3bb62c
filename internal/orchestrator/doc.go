// Package orchestrator drives a feature workflow through its phases.
//
// # Overview
//
// The orchestrator executes the phase pipeline:
//
//	principles → specify → clarify* → plan → tasks → analyze* → implement → done
//
// Phases marked * are optional and may be skipped explicitly; skips are
// recorded so a resumed run does not re-offer them. Every phase boundary
// is checkpointed, making any run resumable after interruption or
// failure.
//
// # Modes
//
// Three workflow modes control where a run pauses:
//
//   - interactive: pause for confirmation before every phase
//   - staged: run autonomously, pause before implement
//   - unattended: never pause, checkpoint each phase
//
// A resumed run may keep or tighten its mode; relaxing supervision
// mid-run is rejected.
//
// # Gates
//
// Before a phase executes, its required input artifacts are checked.
// A gate failure reports every missing artifact at once and halts the
// run without writing a checkpoint; creating the artifacts and rerunning
// picks up at the same phase.
//
// # Execution
//
// The actual work of a phase happens behind the PhaseExecutor interface.
// The orchestrator owns ordering, gating, checkpointing, and lifecycle
// hooks; executors own content generation.
package orchestrator
