// Package metrics метрики сборщика аномалий для Prometheus
package metrics

import (
	"github.com/kirsrus/liftmon/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnomaliesDetected обнаруженные аномалии по уровням
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liftmon_anomalies_detected_total",
			Help: "Total number of anomalies detected",
		},
		[]string{"level", "type"},
	)

	// RecordsSent записи, принятые сервером
	RecordsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liftmon_records_sent_total",
			Help: "Total number of anomaly records accepted by the backend",
		},
	)

	// RecordsDropped записи, отброшенные после ошибки отправки
	RecordsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liftmon_records_dropped_total",
			Help: "Total number of anomaly records dropped after a failed send",
		},
	)

	// Flushes количество сбросов очереди
	Flushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "liftmon_flushes_total",
			Help: "Total number of queue flushes",
		},
	)

	// QueueLength текущая длина очереди
	QueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "liftmon_queue_length",
			Help: "Number of anomaly records waiting for a flush",
		},
	)

	// TickLatency время одного такта опроса
	TickLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liftmon_tick_latency_seconds",
			Help:    "Sampling tick latency in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05},
		},
	)
)

// ObserveBatch учитывает пачку обнаруженных аномалий
func ObserveBatch(records []model.AnomalyRecord) {
	for _, v := range records {
		AnomaliesDetected.WithLabelValues(string(v.Level), string(v.Kind)).Inc()
	}
}
