// Package state persists workflow progress as a single JSON document.
//
// The state file is the only mechanism for resuming work across sessions
// that may be arbitrarily far apart, so saves are atomic: write to a
// temporary file, then rename into place. A parse failure on load surfaces
// ErrStateCorrupted and is never silently repaired. The schema is
// versioned with an explicit migration keyed on schema_version. No
// inter-process lock is taken; last writer wins.
package state
