// Package simulator моделирует движение лифта и телеметрию его подсистем
package simulator

import (
	"context"
	"io/ioutil"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/pkg/validator"
	"github.com/kirsrus/liftmon/service"
	"github.com/kirsrus/liftmon/store"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	interval    = 2 * time.Second
	cruiseSpeed = 2.5
)

// ConfigSimulator конфигурация Simulator
type ConfigSimulator struct {
	Log *logrus.Logger

	// Период шага симуляции
	Interval time.Duration
	// Вероятность выхода параметра за норму на шаге
	ExcursionProbability float64 `validate:"gte=0,lte=1"`
	// Вероятность отказа подсистемы на шаге
	FaultProbability float64 `validate:"gte=0,lte=1"`
	// Моделируемые подсистемы. По умолчанию DefaultSystems
	Systems []SystemSpec
	// Начальное значение генератора случайных чисел. 0 - от текущего времени
	Seed int64
}

// Simulator симулятор лифта. Инициализируется через NewSimulator
type Simulator struct {
	ctx   context.Context
	log   *logrus.Entry
	state store.StateStore

	interval             time.Duration
	excursionProbability float64
	faultProbability     float64
	systems              map[string]SystemSpec

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulator конструктор Simulator. Состояние state изменяется на каждом шаге
func NewSimulator(ctx context.Context, state store.StateStore, config *ConfigSimulator) (service.SimulatorSvc, error) {
	if config == nil {
		return nil, errors.New("не передана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if state == nil {
		return nil, errors.New("не передано хранилище состояния")
	}
	if err := validator.Get().Validate(config); err != nil {
		return nil, errors.Annotate(err, "ошибка валидации конфигурации")
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	simulator := Simulator{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "simulator",
			"scope":  "service",
		}),
		state: state,

		interval:             interval,
		excursionProbability: config.ExcursionProbability,
		faultProbability:     config.FaultProbability,
		systems:              make(map[string]SystemSpec),

		rnd: rand.New(rand.NewSource(seed)),
	}
	if config.Interval != 0 {
		simulator.interval = config.Interval
	}
	systems := config.Systems
	if systems == nil {
		systems = DefaultSystems
	}
	for _, v := range systems {
		simulator.systems[v.ID] = v
	}

	return &simulator, nil
}

// Run шаги симуляции с периодом interval до отмены контекста
func (m *Simulator) Run(ctx context.Context) error {
	m.log.Infof("симуляция запущена с периодом %s", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.log.Info("симуляция остановлена")
			return nil
		case <-ticker.C:
			m.Step()
		}
	}
}

// Step один шаг симуляции. На остановленном лифте ничего не меняется
func (m *Simulator) Step() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Update(func(s *model.ElevatorState) {
		if !s.Running {
			return
		}
		m.move(s)
		m.telemetry(s)
	})
}

// StopElevator аварийная остановка лифта
func (m *Simulator) StopElevator() {
	m.state.Update(func(s *model.ElevatorState) {
		s.Running = false
		s.Status = model.ElevatorStopped
		s.Direction = model.DirectionStop
		s.Speed = 0
	})
	m.log.Warn("лифт остановлен по критическому диагнозу")
}

// Движение кабины и работа дверей
func (m *Simulator) move(s *model.ElevatorState) {
	switch s.DoorStatus {
	case model.DoorOpen:
		s.DoorStatus = model.DoorClosing
		return
	case model.DoorClosing:
		s.DoorStatus = model.DoorClosed
		s.Status = model.ElevatorRunning
		return
	case model.DoorOpening:
		s.DoorStatus = model.DoorOpen
		s.Status = model.ElevatorStopped
		s.Speed = 0
		return
	}

	if s.CurrentFloor == s.TargetFloor {
		if s.Status != model.ElevatorStopped {
			s.DoorStatus = model.DoorOpening
			s.Direction = model.DirectionStop
			s.Status = model.ElevatorOpening
			s.Speed = 0
			s.TotalTrips++
		}
	} else {
		s.Status = model.ElevatorRunning
		s.Speed = cruiseSpeed
		if s.CurrentFloor < s.TargetFloor {
			s.Direction = model.DirectionUp
			s.CurrentFloor++
		} else {
			s.Direction = model.DirectionDown
			s.CurrentFloor--
		}
	}

	s.LoadWeight = m.rnd.Intn(800) + 100
	s.Temperature = 24 + m.rnd.Float64()*2 - 1
	s.OperatingHours += 1.0 / 3600
	s.EnergyConsumption += 0.05

	// Новый вызов пассажира
	if s.CurrentFloor == s.TargetFloor && s.FloorCount > 0 {
		target := m.rnd.Intn(s.FloorCount) + 1
		if target != s.CurrentFloor {
			s.TargetFloor = target
		}
	}
}

// Телеметрия подсистем: колебания около номинала, редкие выходы за норму и отказы
func (m *Simulator) telemetry(s *model.ElevatorState) {
	for i := range s.Systems {
		system := &s.Systems[i]
		spec, ok := m.systems[system.ID]
		if !ok {
			continue
		}

		excursion := false
		for j := range system.Parameters {
			param := &system.Parameters[j]
			ps, ok := spec.parameter(param.ID)
			if !ok {
				continue
			}
			var v float64
			if m.rnd.Float64() < m.excursionProbability {
				excursion = true
				v = ps.Anomalous + ps.Anomalous*0.01*(m.rnd.Float64()*2-1)
			} else {
				v = ps.Nominal + ps.Spread*(m.rnd.Float64()*2-1)
			}
			param.Value = model.NumberValue(round(v, ps.Precision))
		}

		temp := round(spec.Temperature+m.rnd.Float64()*2-1, 1)
		system.Temperature = &temp

		switch {
		case len(spec.FaultCodes) > 0 && m.rnd.Float64() < m.faultProbability:
			system.Status = model.StatusFault
			system.FaultCode = spec.FaultCodes[m.rnd.Intn(len(spec.FaultCodes))]
			m.log.Warnf("отказ подсистемы %s: %s", system.Name, system.FaultCode)
		case excursion:
			system.Status = model.StatusWarning
			system.FaultCode = ""
		default:
			system.Status = model.StatusNormal
			system.FaultCode = ""
		}
	}
}

func (m SystemSpec) parameter(id string) (ParameterSpec, bool) {
	for _, v := range m.Parameters {
		if v.ID == id {
			return v, true
		}
	}
	return ParameterSpec{}, false
}

func round(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Round(v*p) / p
}
