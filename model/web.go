package model

import (
	"time"
)

// AnomalyEvent событие для WEB-подписчиков: очередная пачка обнаруженных аномалий
type AnomalyEvent struct {
	// Лифт, на котором обнаружены аномалии
	ElevatorID string          `json:"elevatorId"`
	CreateAt   time.Time       `json:"createAt"`
	Critical   int             `json:"critical"`
	Warning    int             `json:"warning"`
	Records    []AnomalyRecord `json:"records"`
}

// NewAnomalyEvent собирает событие из пачки аномалий
func NewAnomalyEvent(elevatorID string, records []AnomalyRecord) AnomalyEvent {
	res := AnomalyEvent{
		ElevatorID: elevatorID,
		CreateAt:   time.Now(),
		Records:    records,
	}
	for _, v := range records {
		if v.Level == LevelCritical {
			res.Critical++
		} else {
			res.Warning++
		}
	}
	return res
}

// CollectorStatus состояние сборщика аномалий
type CollectorStatus struct {
	ElevatorID string    `json:"elevatorId"`
	Running    bool      `json:"running"`
	QueueLen   int       `json:"queueLen"`
	LastFlush  time.Time `json:"lastFlush"`
	BatchSize  int       `json:"batchSize"`
	Interval   string    `json:"interval"`
}

// AnomalyStats количество аномалий в журнале по уровням
type AnomalyStats struct {
	Total    int64 `json:"total"`
	Warning  int64 `json:"warning"`
	Critical int64 `json:"critical"`
	Sent     int64 `json:"sent"`
	Failed   int64 `json:"failed"`
}
