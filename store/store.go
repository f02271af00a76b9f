package store

import (
	"time"

	"github.com/kirsrus/liftmon/model"
)

// JournalStore журнал обнаруженных аномалий
//go:generate mockery --dir . --name JournalStore --output ./mocks
type JournalStore interface {
	// Сохраняет пачку аномалий в момент обнаружения. Записи без ID пропускаются
	Save([]model.AnomalyRecord) error
	// Отмечает запись как принятую сервером
	MarkSent(id string) error
	// Отмечает запись как отброшенную после ошибки отправки
	MarkFailed(id string, reason string) error

	// Последние count записей, новые первыми
	Recent(count int) ([]JournalRecord, error)
	// Количество записей по уровням и результатам отправки
	Stats() (*model.AnomalyStats, error)
	// Количество аномалий по дням за days дней
	Daily(days uint) ([]DailyCount, error)

	// Удаляет записи старше days дней
	Clean(days int) error
	Close() error
}

// StateStore разделяемое состояние лифта
//go:generate mockery --dir . --name StateStore --output ./mocks
type StateStore interface {
	// Глубокая копия текущего состояния
	Snapshot() model.ElevatorState
	// Изменение состояния под блокировкой
	Update(func(*model.ElevatorState))
	SetSystems([]model.SystemSnapshot)
	SetRunning(bool)
}

// JournalRecord запись журнала вместе с результатом отправки
type JournalRecord struct {
	model.AnomalyRecord
	// sent, failed или пусто, пока отправка не завершена
	Delivery string    `json:"delivery"`
	Reason   string    `json:"reason,omitempty"`
	SavedAt  time.Time `json:"savedAt"`
}

// Результаты отправки записи журнала
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// DailyCount суточная сводка аномалий
type DailyCount struct {
	Date     time.Time `json:"date"`
	Warning  int       `json:"warning"`
	Critical int       `json:"critical"`
}
