package model

import "time"

// AnomalyKind вид аномалии
type AnomalyKind string

// AnomalyLevel уровень аномалии
type AnomalyLevel string

const (
	// KindSystem отказ подсистемы целиком
	KindSystem AnomalyKind = "system"
	// KindParameter выход параметра за норму
	KindParameter AnomalyKind = "parameter"

	LevelWarning  AnomalyLevel = "warning"
	LevelCritical AnomalyLevel = "critical"
)

// AnomalyRecord обнаруженная аномалия. Живёт в очереди сборщика до отправки
type AnomalyRecord struct {
	// Идентификатор присваивается сборщиком при постановке в очередь
	ID         string       `json:"id,omitempty"`
	ElevatorID string       `json:"elevatorId"`
	Timestamp  time.Time    `json:"timestamp"`
	SystemID   string       `json:"systemId"`
	SystemName string       `json:"systemName"`
	Kind       AnomalyKind  `json:"type"`
	Level      AnomalyLevel `json:"anomalyLevel"`

	// Поля отказа подсистемы
	Status      string   `json:"status,omitempty"`
	FaultCode   string   `json:"faultCode,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	// Параметры подсистемы в JSON на момент отказа
	Parameters string `json:"parameters,omitempty"`

	// Поля аномалии параметра
	ParamID     string `json:"paramId,omitempty"`
	ParamName   string `json:"paramName,omitempty"`
	ParamValue  Value  `json:"paramValue"`
	ParamUnit   string `json:"paramUnit,omitempty"`
	NormalRange string `json:"normalRange,omitempty"`
}

// Title короткое описание для логов и уведомлений
func (m AnomalyRecord) Title() string {
	if m.Kind == KindSystem {
		return m.SystemName + ": " + m.FaultCode
	}
	return m.SystemName + ": " + m.ParamName + " = " + m.ParamValue.String()
}
