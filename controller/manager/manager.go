// Package manager запуск и согласованная остановка всех служб мониторинга
package manager

import (
	"context"
	"io/ioutil"
	"math"
	"time"

	"github.com/kirsrus/liftmon/controller"
	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/service"
	"github.com/kirsrus/liftmon/store"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	requestTimeout    = 5 * time.Second
	cleanBasePeriod   = time.Hour * 24 * 30
	cleanBaseInterval = time.Minute * 30
	// Размер буфера пачек между сборщиком и рассылкой
	AnomalyBuffer = 16
)

// ConfigManager конфигурация Manager
type ConfigManager struct {
	Log *logrus.Logger

	ElevatorID string

	SimulatorSvc service.SimulatorSvc
	CollectorCtl controller.CollectorCtl
	WebSvc       service.WebSvc
	// Лента последних аномалий. Может отсутствовать
	FeedSvc service.FeedSvc
	Journal store.JournalStore

	// Пачки аномалий от наблюдателя сборщика
	Anomalies <-chan []model.AnomalyRecord

	RequestTimeout    time.Duration
	CleanBasePeriod   time.Duration
	CleanBaseInterval time.Duration
}

// Manager основной менеджер работы со всеми сервисами. Инициируется через NewManager
type Manager struct {
	ctx context.Context
	log *logrus.Entry

	elevatorID string

	simulatorSvc service.SimulatorSvc
	collectorCtl controller.CollectorCtl
	webSvc       service.WebSvc
	feedSvc      service.FeedSvc
	journal      store.JournalStore

	anomalies <-chan []model.AnomalyRecord

	requestTimeout    time.Duration
	cleanBasePeriod   time.Duration
	cleanBaseInterval time.Duration
}

// NewManager конструктор Manager
func NewManager(ctx context.Context, config *ConfigManager) (*Manager, error) {
	if config == nil {
		return nil, errors.New("не передана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if config.SimulatorSvc == nil {
		return nil, errors.New("не передан симулятор")
	}
	if config.CollectorCtl == nil {
		return nil, errors.New("не передан сборщик аномалий")
	}
	if config.WebSvc == nil {
		return nil, errors.New("не передан сервис WEB")
	}
	if config.Journal == nil {
		return nil, errors.New("не передан журнал аномалий")
	}
	if config.Anomalies == nil {
		return nil, errors.New("не передан канал аномалий")
	}

	manager := Manager{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "manager",
			"scope":  "controller",
		}),
		elevatorID: config.ElevatorID,

		simulatorSvc: config.SimulatorSvc,
		collectorCtl: config.CollectorCtl,
		webSvc:       config.WebSvc,
		feedSvc:      config.FeedSvc,
		journal:      config.Journal,

		anomalies: config.Anomalies,

		requestTimeout:    requestTimeout,
		cleanBasePeriod:   cleanBasePeriod,
		cleanBaseInterval: cleanBaseInterval,
	}
	if config.RequestTimeout != 0 {
		manager.requestTimeout = config.RequestTimeout
	}
	if config.CleanBasePeriod != 0 {
		manager.cleanBasePeriod = config.CleanBasePeriod
	}
	if config.CleanBaseInterval != 0 {
		manager.cleanBaseInterval = config.CleanBaseInterval
	}

	manager.configToLog()

	return &manager, nil
}

// Вывести значения конфигурациии в лог
func (m Manager) configToLog() {
	m.log.Debugf("elevatorID: %s", m.elevatorID)
	m.log.Debugf("requestTimeout: %s", m.requestTimeout)
	m.log.Debugf("cleanBasePeriod: %s", m.cleanBasePeriod)
	m.log.Debugf("cleanBaseInterval: %s", m.cleanBaseInterval)
	m.log.Debugf("feed: %t", m.feedSvc != nil)
}

// Serve запуск всех служб. Возвращается после отмены контекста, когда сборщик отправил остаток очереди
func (m Manager) Serve() error {
	g, ctx := errgroup.WithContext(m.ctx)

	// Сборщик аномалий. Остановка с отправкой остатка очереди
	if err := m.collectorCtl.Start(); err != nil {
		return errors.Trace(err)
	}

	// Симуляция движения лифта
	g.Go(func() error {
		return errors.Trace(m.simulatorSvc.Run(ctx))
	})

	g.Go(func() error {
		<-ctx.Done()
		m.collectorCtl.Stop()
		return nil
	})

	// Рассылка обнаруженных аномалий
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case records := <-m.anomalies:
				m.dispatch(records)
			}
		}
	})

	// Хоускеппер для очистки журнала от старых записей
	g.Go(func() error {
		ticker := time.NewTicker(m.cleanBaseInterval)
		defer ticker.Stop()
		for {
			m.clean()
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	g.Go(func() error {
		return errors.Trace(m.webSvc.Serve())
	})

	return errors.Trace(g.Wait())
}

// Рассылка пачки аномалий подписчикам WEB и в ленту
func (m Manager) dispatch(records []model.AnomalyRecord) {
	if len(records) == 0 {
		return
	}
	m.webSvc.AnomaliesDetected(model.NewAnomalyEvent(m.elevatorID, records))

	if m.feedSvc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, m.requestTimeout)
	defer cancel()
	if err := m.feedSvc.Push(ctx, records); err != nil {
		m.log.Warnf("ошибка записи %d аномалий в ленту: %v", len(records), err)
	}
}

// Очистка журнала от записей старше cleanBasePeriod
func (m Manager) clean() {
	days := int(math.Round(m.cleanBasePeriod.Hours() / 24))
	if days < 1 {
		days = 1
	}
	if err := m.journal.Clean(days); err != nil {
		m.log.Errorf("ошибка очистки журнала: %v", err)
	}
}
