// Package memory is an in-memory ActivityMirror used in tests and local runs
// without spreadsheet credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fincontrol/internal/core"
	ports "fincontrol/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows map[string]core.Activity
}

var _ ports.ActivityMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[string]core.Activity)}
}

func (m *Mirror) UpsertActivity(_ context.Context, a core.Activity) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[a.ID] = a
	return fmt.Sprintf("memory!%s", a.ID), nil
}

func (m *Mirror) DeleteActivity(_ context.Context, activityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, activityID)
	return nil
}

// Get returns the mirrored activity, if present.
func (m *Mirror) Get(activityID string) (core.Activity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[activityID]
	return a, ok
}

// Len returns the number of mirrored rows.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
