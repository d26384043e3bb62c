package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// MemoryStore keeps workflow state in memory. It implements the same
// contract as FileStore, including copy-on-load, for tests and embedding.
type MemoryStore struct {
	mu       sync.RWMutex
	state    *WorkflowState
	archived map[string]*WorkflowState
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{archived: make(map[string]*WorkflowState)}
}

// Load returns a copy of the stored state, or (nil, nil) when empty.
func (s *MemoryStore) Load() (*WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil, nil
	}
	return clone(s.state)
}

// Save stores a copy of the state.
func (s *MemoryStore) Save(state *WorkflowState) error {
	if state == nil {
		return errors.New("state is required")
	}

	cp, err := clone(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = cp
	return nil
}

// Checkpoint records a phase checkpoint on the state and stores it.
func (s *MemoryStore) Checkpoint(state *WorkflowState, phase string, cp *Checkpoint) error {
	if state == nil {
		return errors.New("state is required")
	}
	state.RecordCheckpoint(phase, cp)
	return s.Save(state)
}

// Delete clears the stored state.
func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}

// Archive moves the stored state aside, keyed by feature.
func (s *MemoryStore) Archive(featureID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return "", nil
	}
	s.archived[featureID] = s.state
	s.state = nil
	return featureID, nil
}

// Archived returns the archived state for a feature, or nil.
func (s *MemoryStore) Archived(featureID string) *WorkflowState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.archived[featureID]
}

// clone deep-copies state through its JSON form, matching what a file
// round-trip would produce.
func clone(state *WorkflowState) (*WorkflowState, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to copy state: %w", err)
	}
	var out WorkflowState
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to copy state: %w", err)
	}
	return &out, nil
}
