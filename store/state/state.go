// Package state разделяемое состояние лифта в памяти процесса
package state

import (
	"sync"

	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/store"
)

// State состояние лифта. Наружу отдаются только глубокие копии
type State struct {
	mu    sync.RWMutex
	state model.ElevatorState
}

// NewState конструктор State с начальным состоянием initial
func NewState(initial model.ElevatorState) store.StateStore {
	return &State{state: initial.Clone()}
}

// Snapshot глубокая копия текущего состояния
func (m *State) Snapshot() model.ElevatorState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone()
}

// Update изменяет состояние под блокировкой. Ссылки на состояние за пределы fn выносить нельзя
func (m *State) Update(fn func(*model.ElevatorState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.state)
}

// SetSystems заменяет подсистемы копией systems
func (m *State) SetSystems(systems []model.SystemSnapshot) {
	copied := make([]model.SystemSnapshot, len(systems))
	for i := range systems {
		copied[i] = systems[i].Clone()
	}
	m.Update(func(s *model.ElevatorState) {
		s.Systems = copied
	})
}

// SetRunning включает или приостанавливает симуляцию
func (m *State) SetRunning(running bool) {
	m.Update(func(s *model.ElevatorState) {
		s.Running = running
	})
}
