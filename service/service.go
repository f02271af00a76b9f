package service

import (
	"context"
	"encoding/json"

	"github.com/kirsrus/liftmon/model"
)

// WebSvc сервис общения с WEB интерфейсом
//go:generate mockery --dir . --name WebSvc --output ./mocks
type WebSvc interface {
	// Хэндлер статического контента панели
	Static(string)
	// Хэндлеры REST API под префиксом
	Api(string)
	// Хэндлер метрик Prometheus
	Metrics(string)
	// Хэндлер WebSocket ленты аномалий
	AnomalyFeed(string)
	// Рассылка подписчикам очередной пачки аномалий
	AnomaliesDetected(model.AnomalyEvent)
	// Запуск HTTP-сервера до отмены контекста
	Serve() error
}

// AbnormalSvc клиент серверной части учёта аномалий (/data-etable/*)
//go:generate mockery --dir . --name AbnormalSvc --output ./mocks
type AbnormalSvc interface {
	// Передаёт одну запись об аномалии на сервер
	AddAbnormalData(context.Context, model.AbnormalData) error
	// Постраничный запрос сохранённых аномалий
	AbnormalData(context.Context, model.AbnormalQuery) (*model.AbnormalPage, error)
	// Запрос диагноза по одной записи
	SendDataToAI(context.Context, model.AbnormalData) (*model.AIVerdict, error)
	// Полный анализ остаточного ресурса. Формат ответа не разбирается
	LifetimeAnalysis(context.Context) (json.RawMessage, error)
}

// FeedSvc лента последних аномалий во внешнем хранилище
//go:generate mockery --dir . --name FeedSvc --output ./mocks
type FeedSvc interface {
	// Добавляет пачку аномалий в ленту
	Push(context.Context, []model.AnomalyRecord) error
	// Последние count аномалий, новые первыми
	Latest(ctx context.Context, count int64) ([]model.AnomalyRecord, error)
	// Общее количество аномалий, прошедших через ленту
	Total(context.Context) (int64, error)
	Close() error
}

// SimulatorSvc симулятор движения лифта и телеметрии подсистем
//go:generate mockery --dir . --name SimulatorSvc --output ./mocks
type SimulatorSvc interface {
	// Работает до отмены контекста
	Run(context.Context) error
	// Один шаг симуляции
	Step()
	// Аварийная остановка лифта
	StopElevator()
}
