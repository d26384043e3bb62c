package hooks

import (
	"context"
	"fmt"
)

// Type identifies a workflow lifecycle event.
type Type string

const (
	// TypeFeatureCreated fires after a feature is allocated.
	TypeFeatureCreated Type = "feature_created"

	// TypePhaseStart fires before a phase executes.
	TypePhaseStart Type = "phase_start"

	// TypePhaseComplete fires after a phase checkpoint is written.
	TypePhaseComplete Type = "phase_complete"

	// TypePhaseFailed fires after a failure checkpoint is written.
	TypePhaseFailed Type = "phase_failed"

	// TypeWorkflowDone fires when the terminal phase is reached.
	TypeWorkflowDone Type = "workflow_done"
)

// Event is the payload delivered to handlers.
type Event struct {
	Type Type `json:"type"`

	// Feature is the NNN-slug feature identifier.
	Feature string `json:"feature"`

	// Phase is set for phase-level events.
	Phase string `json:"phase,omitempty"`

	// Data carries event-specific details such as failure reasons or
	// task counts.
	Data map[string]interface{} `json:"data,omitempty"`
}

// Handler handles one lifecycle event.
type Handler func(ctx context.Context, event Event) error

// Manager dispatches lifecycle events to registered handlers. Register
// every handler before firing; registration is not safe for concurrent
// use.
type Manager struct {
	handlers map[Type][]Handler
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[Type][]Handler),
	}
}

// Register adds a handler for the event type.
func (m *Manager) Register(t Type, handler Handler) {
	m.handlers[t] = append(m.handlers[t], handler)
}

// Fire dispatches the event to every handler registered for its type,
// stopping at the first failure. Firing on a nil manager is a no-op.
func (m *Manager) Fire(ctx context.Context, event Event) error {
	if m == nil {
		return nil
	}

	handlers, ok := m.handlers[event.Type]
	if !ok {
		return nil
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("hook %s failed: %w", event.Type, err)
		}
	}

	return nil
}
