// Package collector периодический опрос состояния лифта и пакетная отправка аномалий на сервер.
//
// Каждый такт снимается копия состояния, классификатор выдаёт аномалии, они попадают в очередь и
// сразу уходят наблюдателю. Очередь отправляется целиком, когда в ней набралось BatchSize записей или
// с прошлой отправки прошло больше FlushInterval. Записи пачки отправляются по одной в порядке
// обнаружения; ошибка отправки только логируется, запись отбрасывается без повторов.
package collector

import (
	"context"
	"io/ioutil"
	"sync"
	"time"

	"github.com/kirsrus/liftmon/controller/classifier"
	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/pkg/metrics"
	"github.com/kirsrus/liftmon/pkg/validator"
	"github.com/kirsrus/liftmon/service"
	"github.com/kirsrus/liftmon/store"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	interval      = 5 * time.Second
	batchSize     = 10
	flushInterval = 60 * time.Second
)

// Journal журнал, в котором отмечается судьба каждой записи
type Journal interface {
	Save([]model.AnomalyRecord) error
	MarkSent(id string) error
	MarkFailed(id string, reason string) error
}

// ConfigCollector конфигурация Collector
type ConfigCollector struct {
	Log *logrus.Logger

	ElevatorID string `validate:"required"`

	// Период опроса состояния
	Interval time.Duration
	// Размер пачки, при котором очередь отправляется сразу
	BatchSize int `validate:"gte=0"`
	// Максимальное время между отправками очереди
	FlushInterval time.Duration
	// Таймаут отправки одной записи. 0 - без таймаута
	SendTimeout time.Duration

	// Вызывается синхронно для каждой непустой пачки обнаруженных аномалий
	Observer func([]model.AnomalyRecord)
	Journal  Journal
	// Правила классификации. По умолчанию classifier.DefaultRules
	Rules map[string]classifier.Rule
	// Источник времени
	Clock func() time.Time
}

// Collector сборщик аномалий. Инициализируется через NewCollector
type Collector struct {
	ctx        context.Context
	log        *logrus.Entry
	state      store.StateStore
	sink       service.AbnormalSvc
	classifier *classifier.Classifier
	journal    Journal
	observer   func([]model.AnomalyRecord)
	clock      func() time.Time

	elevatorID    string
	interval      time.Duration
	batchSize     int
	flushInterval time.Duration
	sendTimeout   time.Duration

	mu        sync.Mutex
	queue     []model.AnomalyRecord
	lastFlush time.Time

	// Управление циклом опроса
	loopMu   sync.Mutex
	running  bool
	stop     chan struct{}
	loopDone chan struct{}

	// Незавершённые отправки
	sends sync.WaitGroup
}

// NewCollector конструктор Collector
func NewCollector(ctx context.Context, state store.StateStore, sink service.AbnormalSvc, config *ConfigCollector) (*Collector, error) {
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
	if sink == nil {
		return nil, errors.New("не передан сервис отправки аномалий")
	}
	if err := validator.Get().Validate(config); err != nil {
		return nil, errors.Annotate(err, "ошибка валидации конфигурации")
	}

	collector := Collector{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "collector",
			"scope":  "controller",
		}),
		state:      state,
		sink:       sink,
		classifier: classifier.NewClassifier(config.Rules),
		journal:    config.Journal,
		observer:   config.Observer,
		clock:      time.Now,

		elevatorID:    config.ElevatorID,
		interval:      interval,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		sendTimeout:   config.SendTimeout,

		queue: make([]model.AnomalyRecord, 0),
	}
	if config.Interval != 0 {
		collector.interval = config.Interval
	}
	if config.BatchSize != 0 {
		collector.batchSize = config.BatchSize
	}
	if config.FlushInterval != 0 {
		collector.flushInterval = config.FlushInterval
	}
	if config.Clock != nil {
		collector.clock = config.Clock
	}
	collector.lastFlush = collector.clock()

	return &collector, nil
}

// Start запускает периодический опрос
func (m *Collector) Start() error {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	if m.running {
		return errors.New("опрос уже запущен")
	}
	if m.elevatorID == "" {
		return errors.New("не задан идентификатор лифта")
	}
	if m.ctx.Err() != nil {
		return errors.New("контекст сборщика завершён")
	}

	m.running = true
	m.stop = make(chan struct{})
	m.loopDone = make(chan struct{})
	go m.loop(m.stop, m.loopDone)

	m.log.Infof("опрос лифта %s запущен с периодом %s", m.elevatorID, m.interval)
	return nil
}

func (m *Collector) loop(stop <-chan struct{}, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-m.ctx.Done():
			m.loopMu.Lock()
			// Цикл мог быть уже остановлен и запущен заново через Stop/Start
			if m.loopDone == done {
				m.running = false
			}
			m.loopMu.Unlock()
			m.log.Infof("опрос лифта %s остановлен по завершению контекста", m.elevatorID)
			return
		case <-ticker.C:
			m.Tick(m.clock())
		}
	}
}

// Stop останавливает опрос, отправляет остаток очереди и дожидается завершения всех отправок.
// Уже начатые отправки не прерываются
func (m *Collector) Stop() {
	m.loopMu.Lock()
	var done chan struct{}
	if m.running {
		close(m.stop)
		done = m.loopDone
		m.running = false
	}
	m.loopMu.Unlock()
	if done != nil {
		<-done
		m.log.Infof("опрос лифта %s остановлен", m.elevatorID)
	}

	m.Flush()
	m.sends.Wait()
}

// Running идёт ли периодический опрос
func (m *Collector) Running() bool {
	m.loopMu.Lock()
	defer m.loopMu.Unlock()
	return m.running
}

// QueueLen количество записей, ожидающих отправки
func (m *Collector) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Status состояние сборщика для WEB
func (m *Collector) Status() model.CollectorStatus {
	m.mu.Lock()
	queueLen := len(m.queue)
	lastFlush := m.lastFlush
	m.mu.Unlock()
	return model.CollectorStatus{
		ElevatorID: m.elevatorID,
		Running:    m.Running(),
		QueueLen:   queueLen,
		LastFlush:  lastFlush,
		BatchSize:  m.batchSize,
		Interval:   m.interval.String(),
	}
}

// Tick один такт опроса на момент now
func (m *Collector) Tick(now time.Time) {
	start := time.Now()
	defer func() {
		metrics.TickLatency.Observe(time.Since(start).Seconds())
	}()

	snapshot := m.state.Snapshot()
	records := m.classifier.Classify(m.elevatorID, snapshot.Systems, now).Collect()
	for i := range records {
		records[i].ID = uuid.New().String()
	}

	if len(records) > 0 {
		m.log.Debugf("обнаружено аномалий: %d", len(records))
		if m.journal != nil {
			if err := m.journal.Save(records); err != nil {
				m.log.Warnf("ошибка записи аномалий в журнал: %v", err)
			}
		}
		metrics.ObserveBatch(records)
	}

	m.mu.Lock()
	m.queue = append(m.queue, records...)
	queueLen := len(m.queue)
	due := queueLen > 0 && (queueLen >= m.batchSize || now.Sub(m.lastFlush) > m.flushInterval)
	m.mu.Unlock()
	metrics.QueueLength.Set(float64(queueLen))

	if len(records) > 0 && m.observer != nil {
		m.observer(records)
	}

	if due {
		m.flush(now)
	}
}

// Flush немедленно отправляет всю очередь, не дожидаясь результата
func (m *Collector) Flush() {
	m.flush(m.clock())
}

func (m *Collector) flush(now time.Time) {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return
	}
	batch := m.queue
	m.queue = make([]model.AnomalyRecord, 0)
	m.lastFlush = now
	m.mu.Unlock()
	metrics.QueueLength.Set(0)

	metrics.Flushes.Inc()
	m.log.Infof("отправка пачки аномалий: %d", len(batch))

	// Записи пачки уходят по очереди, в порядке обнаружения
	m.sends.Add(1)
	go func() {
		defer m.sends.Done()
		for _, rec := range batch {
			m.send(rec)
		}
	}()
}

// Отправка одной записи. Остановка сборщика отправку не прерывает
func (m *Collector) send(rec model.AnomalyRecord) {
	ctx := context.Background()
	if m.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.sendTimeout)
		defer cancel()
	}

	err := m.sink.AddAbnormalData(ctx, model.AbnormalDataFromRecord(rec, m.elevatorID))
	if err != nil {
		m.log.Warnf("аномалия %q не отправлена и отброшена: %v", rec.Title(), err)
		metrics.RecordsDropped.Inc()
		if m.journal != nil {
			if err := m.journal.MarkFailed(rec.ID, err.Error()); err != nil {
				m.log.Warn(err)
			}
		}
		return
	}

	metrics.RecordsSent.Inc()
	if m.journal != nil {
		if err := m.journal.MarkSent(rec.ID); err != nil {
			m.log.Warn(err)
		}
	}
}
