package controller

import (
	"context"
	"time"

	"github.com/kirsrus/liftmon/model"
)

// CollectorCtl контроллер сбора и пакетной отправки аномалий
//go:generate mockery --dir . --name CollectorCtl --output ./mocks
type CollectorCtl interface {
	// Запуск периодического опроса. Ошибка, если опрос уже запущен
	Start() error
	// Остановка опроса с отправкой остатка очереди
	Stop()
	// Один такт опроса на момент now
	Tick(now time.Time)
	// Немедленная отправка очереди
	Flush()
	QueueLen() int
	Running() bool
	Status() model.CollectorStatus
}

// AnalysisCtl контроллер анализа состояния подсистем
//go:generate mockery --dir . --name AnalysisCtl --output ./mocks
type AnalysisCtl interface {
	// Анализ подсистемы. При недоступности сервера возвращается заглушка
	Analysis(ctx context.Context, systemName string) (*model.AIAnalysis, error)
	// Диагноз конкретного показания. Критический вердикт останавливает лифт
	Diagnose(context.Context, model.AbnormalData) (*model.AIVerdict, error)
	// Типовое аномальное показание для подсистемы
	Simulated(systemType string) model.AbnormalData
	// Идёт диагностика
	Busy() bool
}
