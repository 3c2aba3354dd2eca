// Package section implements the per-section save-state machine. Every form
// section of a deal owns one machine; machines never share state, so
// sibling sections of the same deal may legitimately disagree about whether
// the record is saved.
package section

import (
	"sync"

	"github.com/latmedia/dealdesk/model"
)

// State is the in-memory save state of one section.
type State string

const (
	StateNotSaved State = "not_saved"
	StateLoading  State = "loading"
	StateSaving   State = "saving"
	StateModified State = "modified"
	StateSaved    State = "saved"
	StateError    State = "error"
)

// Machine tracks the save state of one section against a snapshot of its
// last known persisted values. T is the section's value type; edits are
// detected by comparing the current values against the snapshot.
type Machine[T comparable] struct {
	mu       sync.Mutex
	section  model.Section
	state    State
	snapshot T
	saveDate string
	lastErr  string
}

// NewMachine returns a machine in the not_saved state.
func NewMachine[T comparable](section model.Section) *Machine[T] {
	return &Machine[T]{section: section, state: StateNotSaved}
}

// Section returns the section this machine tracks.
func (m *Machine[T]) Section() model.Section { return m.section }

// State returns the current state.
func (m *Machine[T]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Snapshot returns the last successfully persisted values.
func (m *Machine[T]) Snapshot() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// SaveDate returns the YYYY-MM-DD date of the last successful save, or ""
// when the section has never been saved.
func (m *Machine[T]) SaveDate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveDate
}

// LastError returns the retained failure message, or "".
func (m *Machine[T]) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// BeginLoad marks a fetch in flight. Valid from any state.
func (m *Machine[T]) BeginLoad() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateLoading
	m.lastErr = ""
}

// CompleteLoad installs the fetched values as the snapshot. The section
// comes up saved only when the stored status flag carries the "Saved"
// sentinel; anything else, including absence, means not_saved.
func (m *Machine[T]) CompleteLoad(snapshot T, status, saveDate string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot
	m.saveDate = saveDate
	m.lastErr = ""
	if status == model.SaveStatusSaved {
		m.state = StateSaved
	} else {
		m.state = StateNotSaved
	}
}

// FailLoad records a load failure. The message is retained for display;
// callers still present default values so the form stays usable.
func (m *Machine[T]) FailLoad(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateError
	m.lastErr = msg
}

// Touch reports a local edit. A saved section whose current values differ
// from the snapshot becomes modified; a modified section whose values were
// reverted to match the snapshot becomes saved again.
func (m *Machine[T]) Touch(current T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateSaved:
		if current != m.snapshot {
			m.state = StateModified
		}
	case StateModified:
		if current == m.snapshot {
			m.state = StateSaved
		}
	}
}

// BeginSave marks a save in flight.
func (m *Machine[T]) BeginSave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateSaving
	m.lastErr = ""
}

// CompleteSave installs the saved values as the new snapshot and records
// the save date.
func (m *Machine[T]) CompleteSave(snapshot T, saveDate string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateSaved
	m.snapshot = snapshot
	m.saveDate = saveDate
	m.lastErr = ""
}

// FailSave records a save failure. The previous snapshot is preserved so
// nothing partially committed ever becomes the last known good state.
func (m *Machine[T]) FailSave(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateError
	m.lastErr = msg
}
