package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Store persists workflow state. Implementations are substitutable; the
// orchestrator owns a Store explicitly rather than a hidden singleton.
type Store interface {
	// Load reads the persisted state. A missing document returns
	// (nil, nil); an unreadable one returns ErrStateCorrupted.
	Load() (*WorkflowState, error)

	// Save persists the state verbatim.
	Save(state *WorkflowState) error

	// Checkpoint records a phase checkpoint on the state and persists it.
	Checkpoint(state *WorkflowState, phase string, cp *Checkpoint) error

	// Delete removes the persisted state. Deleting absent state is a no-op.
	Delete() error

	// Archive moves the persisted state aside, keyed by feature, and
	// returns the archive location. Archiving absent state is a no-op.
	Archive(featureID string) (string, error)
}

// FileStore persists state as one JSON document at a fixed path.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("state file path is required")
	}
	return &FileStore{path: path}, nil
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted state.
func (s *FileStore) Load() (*WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var st WorkflowState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupted, err)
	}
	if err := migrate(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Save persists the state atomically: write a temporary file, then rename
// into place so an interrupted save leaves the previous document intact.
func (s *FileStore) Save(state *WorkflowState) error {
	if state == nil {
		return errors.New("state is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	return nil
}

// Checkpoint records a phase checkpoint on the state and persists it.
func (s *FileStore) Checkpoint(state *WorkflowState, phase string, cp *Checkpoint) error {
	if state == nil {
		return errors.New("state is required")
	}
	state.RecordCheckpoint(phase, cp)
	return s.Save(state)
}

// Delete removes the persisted state.
func (s *FileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// Archive renames the state file to "<path>.done-<featureID>".
func (s *FileStore) Archive(featureID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dest := s.path + ".done-" + featureID
	if err := os.Rename(s.path, dest); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to archive state file: %w", err)
	}
	return dest, nil
}
