package db

import (
	"encoding/json"
	"time"

	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/store"
)

type (
	// GormModelUnscoped модель эквивалент gorm.Model без сохранения удалений
	GormModelUnscoped struct {
		ID        int `gorm:"primaryKey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Anomaly запись журнала аномалий
	Anomaly struct {
		GormModelUnscoped
		// Идентификатор записи, присвоенный сборщиком
		RecordID   string    `gorm:"uniqueIndex"`
		ElevatorID string    `gorm:"index"`
		DetectedAt time.Time `gorm:"index"`
		SystemID   string
		SystemName string
		Kind       string
		Level      string `gorm:"index"`

		Status      string
		FaultCode   string
		Temperature *float64
		Parameters  string

		ParamID     string
		ParamName   string
		// Значение параметра в JSON: число или строка
		ParamValue  string
		ParamUnit   string
		NormalRange string

		// Результат отправки на сервер: sent, failed или пусто
		Delivery string `gorm:"index"`
		Reason   string
	}
)

// TableName имя таблицы
func (Anomaly) TableName() string {
	return "anomaly_log"
}

// FromRecord заполняет текущую структуру из model.AnomalyRecord
func (m *Anomaly) FromRecord(rec model.AnomalyRecord) {
	value, _ := json.Marshal(rec.ParamValue)
	*m = Anomaly{
		RecordID:    rec.ID,
		ElevatorID:  rec.ElevatorID,
		DetectedAt:  rec.Timestamp,
		SystemID:    rec.SystemID,
		SystemName:  rec.SystemName,
		Kind:        string(rec.Kind),
		Level:       string(rec.Level),
		Status:      rec.Status,
		FaultCode:   rec.FaultCode,
		Temperature: rec.Temperature,
		Parameters:  rec.Parameters,
		ParamID:     rec.ParamID,
		ParamName:   rec.ParamName,
		ParamValue:  string(value),
		ParamUnit:   rec.ParamUnit,
		NormalRange: rec.NormalRange,
	}
}

// ToRecord маппинг в запись журнала
func (m Anomaly) ToRecord() store.JournalRecord {
	res := store.JournalRecord{
		AnomalyRecord: model.AnomalyRecord{
			ID:          m.RecordID,
			ElevatorID:  m.ElevatorID,
			Timestamp:   m.DetectedAt,
			SystemID:    m.SystemID,
			SystemName:  m.SystemName,
			Kind:        model.AnomalyKind(m.Kind),
			Level:       model.AnomalyLevel(m.Level),
			Status:      m.Status,
			FaultCode:   m.FaultCode,
			Temperature: m.Temperature,
			Parameters:  m.Parameters,
			ParamID:     m.ParamID,
			ParamName:   m.ParamName,
			ParamUnit:   m.ParamUnit,
			NormalRange: m.NormalRange,
		},
		Delivery: m.Delivery,
		Reason:   m.Reason,
		SavedAt:  m.CreatedAt,
	}
	if m.ParamValue != "" {
		_ = json.Unmarshal([]byte(m.ParamValue), &res.ParamValue)
	}
	return res
}
