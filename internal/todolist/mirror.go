package todolist

import (
	"sync"

	"github.com/clive/todo-tui/internal/model"
)

// Mirror holds the last applied task list and the refresh generation counter.
// Only the response of the latest issued refresh may replace the list.
type Mirror struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
	tasks   []model.Task
}

// Begin issues a new refresh generation
func (m *Mirror) Begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
	return m.issued
}

// Apply replaces the list if gen is still the latest issued generation.
// It returns false when the response is stale and was discarded.
func (m *Mirror) Apply(gen uint64, tasks []model.Task) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.issued {
		return false
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	m.tasks = append([]model.Task(nil), tasks...)
	m.applied = gen
	return true
}

// Tasks returns a copy of the mirrored list
func (m *Mirror) Tasks() []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Task(nil), m.tasks...)
}

// Snapshot returns a copy of the list together with the generation it was applied from
func (m *Mirror) Snapshot() ([]model.Task, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Task(nil), m.tasks...), m.applied
}

// Generation returns the latest issued and the last applied generations
func (m *Mirror) Generation() (issued, applied uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issued, m.applied
}
