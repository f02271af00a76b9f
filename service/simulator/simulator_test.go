package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/kirsrus/liftmon/controller/classifier"
	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/store"
	"github.com/kirsrus/liftmon/store/state"
)

func newTestSimulator(t *testing.T, initial model.ElevatorState, config ConfigSimulator) (*Simulator, store.StateStore) {
	t.Helper()
	st := state.NewState(initial)
	if config.Seed == 0 {
		config.Seed = 42
	}
	sim, err := NewSimulator(context.Background(), st, &config)
	if err != nil {
		t.Fatalf("NewSimulator() error = %v", err)
	}
	return sim.(*Simulator), st
}

func TestNewSimulator(t *testing.T) {
	st := state.NewState(model.ElevatorState{})
	if _, err := NewSimulator(context.Background(), st, nil); err == nil {
		t.Errorf("без конфигурации ожидалась ошибка")
	}
	if _, err := NewSimulator(context.Background(), nil, &ConfigSimulator{}); err == nil {
		t.Errorf("без состояния ожидалась ошибка")
	}
	if _, err := NewSimulator(context.Background(), st, &ConfigSimulator{ExcursionProbability: 1.5}); err == nil {
		t.Errorf("вероятность больше 1 должна отклоняться")
	}
}

func TestStepMovement(t *testing.T) {
	tests := []struct {
		name  string
		given model.ElevatorState
		check func(t *testing.T, s model.ElevatorState)
	}{
		{
			name:  "открытые двери начинают закрываться",
			given: model.ElevatorState{DoorStatus: model.DoorOpen, CurrentFloor: 3, TargetFloor: 5},
			check: func(t *testing.T, s model.ElevatorState) {
				if s.DoorStatus != model.DoorClosing {
					t.Errorf("DoorStatus = %s", s.DoorStatus)
				}
				if s.CurrentFloor != 3 {
					t.Errorf("кабина не должна двигаться при открытых дверях")
				}
			},
		},
		{
			name:  "двери закрылись",
			given: model.ElevatorState{DoorStatus: model.DoorClosing, CurrentFloor: 3, TargetFloor: 5},
			check: func(t *testing.T, s model.ElevatorState) {
				if s.DoorStatus != model.DoorClosed || s.Status != model.ElevatorRunning {
					t.Errorf("DoorStatus = %s, Status = %s", s.DoorStatus, s.Status)
				}
			},
		},
		{
			name:  "двери открылись",
			given: model.ElevatorState{DoorStatus: model.DoorOpening, Speed: 2.5, CurrentFloor: 5, TargetFloor: 5},
			check: func(t *testing.T, s model.ElevatorState) {
				if s.DoorStatus != model.DoorOpen || s.Status != model.ElevatorStopped || s.Speed != 0 {
					t.Errorf("DoorStatus = %s, Status = %s, Speed = %v", s.DoorStatus, s.Status, s.Speed)
				}
			},
		},
		{
			name:  "движение вверх",
			given: model.ElevatorState{DoorStatus: model.DoorClosed, CurrentFloor: 3, TargetFloor: 7, FloorCount: 10},
			check: func(t *testing.T, s model.ElevatorState) {
				if s.CurrentFloor != 4 || s.Direction != model.DirectionUp || s.Speed != 2.5 || s.Status != model.ElevatorRunning {
					t.Errorf("этаж %d, направление %s, скорость %v, статус %s", s.CurrentFloor, s.Direction, s.Speed, s.Status)
				}
			},
		},
		{
			name:  "движение вниз",
			given: model.ElevatorState{DoorStatus: model.DoorClosed, CurrentFloor: 7, TargetFloor: 2, FloorCount: 10},
			check: func(t *testing.T, s model.ElevatorState) {
				if s.CurrentFloor != 6 || s.Direction != model.DirectionDown {
					t.Errorf("этаж %d, направление %s", s.CurrentFloor, s.Direction)
				}
			},
		},
		{
			name:  "прибытие на этаж",
			given: model.ElevatorState{DoorStatus: model.DoorClosed, Status: model.ElevatorRunning, CurrentFloor: 5, TargetFloor: 5, FloorCount: 10, TotalTrips: 3},
			check: func(t *testing.T, s model.ElevatorState) {
				if s.DoorStatus != model.DoorOpening || s.Direction != model.DirectionStop || s.Status != model.ElevatorOpening {
					t.Errorf("DoorStatus = %s, Direction = %s, Status = %s", s.DoorStatus, s.Direction, s.Status)
				}
				if s.TotalTrips != 4 {
					t.Errorf("TotalTrips = %d, want 4", s.TotalTrips)
				}
			},
		},
		{
			name:  "ожидание вызова",
			given: model.ElevatorState{DoorStatus: model.DoorClosed, Status: model.ElevatorStopped, CurrentFloor: 5, TargetFloor: 5, FloorCount: 10, TotalTrips: 3},
			check: func(t *testing.T, s model.ElevatorState) {
				if s.TotalTrips != 3 {
					t.Errorf("поездка без движения не засчитывается")
				}
				if s.TargetFloor < 1 || s.TargetFloor > 10 {
					t.Errorf("новая цель вне здания: %d", s.TargetFloor)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.given.Running = true
			sim, st := newTestSimulator(t, tt.given, ConfigSimulator{})
			sim.Step()
			tt.check(t, st.Snapshot())
		})
	}
}

func TestStepAmbient(t *testing.T) {
	given := model.ElevatorState{Running: true, DoorStatus: model.DoorClosed, CurrentFloor: 1, TargetFloor: 9, FloorCount: 10}
	sim, st := newTestSimulator(t, given, ConfigSimulator{})
	for i := 0; i < 5; i++ {
		sim.Step()
	}
	s := st.Snapshot()
	if s.LoadWeight < 100 || s.LoadWeight >= 900 {
		t.Errorf("LoadWeight = %d", s.LoadWeight)
	}
	if s.Temperature < 23 || s.Temperature > 25 {
		t.Errorf("Temperature = %v", s.Temperature)
	}
	if s.EnergyConsumption < 0.249 || s.EnergyConsumption > 0.251 {
		t.Errorf("EnergyConsumption = %v, want 0.25", s.EnergyConsumption)
	}
	if s.OperatingHours <= 0 {
		t.Errorf("OperatingHours не растёт")
	}
}

func TestStepPaused(t *testing.T) {
	given := InitialState("EL-001", 10, DefaultSystems)
	given.Running = false
	given.TargetFloor = 8
	sim, st := newTestSimulator(t, given, ConfigSimulator{ExcursionProbability: 1})
	before := st.Snapshot()
	sim.Step()
	after := st.Snapshot()
	if after.CurrentFloor != before.CurrentFloor || after.EnergyConsumption != before.EnergyConsumption {
		t.Errorf("остановленный лифт изменился")
	}
	if v, _ := after.Systems[0].Parameters[0].Value.Float(); v != DefaultSystems[0].Parameters[0].Nominal {
		t.Errorf("телеметрия остановленного лифта изменилась: %v", v)
	}
}

func TestTelemetryNominal(t *testing.T) {
	sim, st := newTestSimulator(t, InitialState("EL-001", 10, DefaultSystems), ConfigSimulator{})
	for i := 0; i < 200; i++ {
		sim.Step()
		s := st.Snapshot()
		if got := classifier.Classify(s.ID, s.Systems, time.Now()).Collect(); len(got) != 0 {
			t.Fatalf("шаг %d: без выходов за норму обнаружены аномалии: %+v", i, got)
		}
		for _, v := range s.Systems {
			if v.Status != model.StatusNormal {
				t.Fatalf("шаг %d: статус подсистемы %s = %s", i, v.Name, v.Status)
			}
		}
	}
}

func TestTelemetryExcursion(t *testing.T) {
	sim, st := newTestSimulator(t, InitialState("EL-001", 10, DefaultSystems), ConfigSimulator{ExcursionProbability: 1})
	sim.Step()
	s := st.Snapshot()

	got := classifier.Classify(s.ID, s.Systems, time.Now()).Collect()
	flagged := make(map[string]bool)
	for _, v := range got {
		flagged[v.ParamID] = true
	}
	for id := range classifier.DefaultRules {
		if !flagged[id] {
			t.Errorf("параметр %s вне нормы не обнаружен", id)
		}
	}
	for _, v := range s.Systems {
		if v.Status != model.StatusWarning {
			t.Errorf("статус подсистемы %s = %s, want %s", v.Name, v.Status, model.StatusWarning)
		}
	}
}

func TestTelemetryFault(t *testing.T) {
	sim, st := newTestSimulator(t, InitialState("EL-001", 10, DefaultSystems), ConfigSimulator{FaultProbability: 1})
	sim.Step()
	for _, v := range st.Snapshot().Systems {
		if !v.IsFault() || v.FaultCode == "" {
			t.Errorf("подсистема %s: статус %s, код %q", v.Name, v.Status, v.FaultCode)
		}
	}
}

func TestStopElevator(t *testing.T) {
	given := model.ElevatorState{Running: true, DoorStatus: model.DoorClosed, CurrentFloor: 1, TargetFloor: 9, FloorCount: 10}
	sim, st := newTestSimulator(t, given, ConfigSimulator{})
	sim.Step()
	sim.StopElevator()
	s := st.Snapshot()
	if s.Running || s.Speed != 0 || s.Direction != model.DirectionStop {
		t.Errorf("лифт не остановлен: %+v", s)
	}
	floor := s.CurrentFloor
	sim.Step()
	if st.Snapshot().CurrentFloor != floor {
		t.Errorf("остановленный лифт продолжил движение")
	}
}

func TestRun(t *testing.T) {
	given := model.ElevatorState{Running: true, DoorStatus: model.DoorClosed, CurrentFloor: 1, TargetFloor: 10, FloorCount: 10}
	sim, st := newTestSimulator(t, given, ConfigSimulator{Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- sim.Run(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for st.Snapshot().CurrentFloor == 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if st.Snapshot().CurrentFloor == 1 {
		t.Errorf("лифт не сдвинулся")
	}
}
