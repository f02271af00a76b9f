// Package feed лента последних аномалий в Redis
package feed

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"time"

	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/service"

	"github.com/go-redis/redis/v8"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	// LatestKey список последних аномалий, новые в начале
	LatestKey = "anomalies:latest"
	// TotalKey счётчик всех аномалий
	TotalKey = "anomalies:total"
	// LatestLimit длина списка последних аномалий
	LatestLimit = 1000
)

// ConfigRedis конфигурация Redis
type ConfigRedis struct {
	Log      *logrus.Logger
	Addr     string
	Password string
	DB       int
}

// Redis лента аномалий. Инициализируется через NewRedis
type Redis struct {
	log    *logrus.Entry
	client *redis.Client
}

// NewRedis конструктор Redis. Подключение проверяется сразу
func NewRedis(ctx context.Context, config *ConfigRedis) (service.FeedSvc, error) {
	if config == nil {
		return nil, errors.New("не задана конфигурация config")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if config.Addr == "" {
		return nil, errors.New("не указан адрес Redis")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Annotatef(err, "нет подключения к Redis %s", config.Addr)
	}

	return &Redis{
		log: config.Log.WithFields(map[string]interface{}{
			"module":  "feed",
			"scope":   "service",
			"address": config.Addr,
		}),
		client: client,
	}, nil
}

// Push добавляет пачку аномалий в начало ленты, лента обрезается до LatestLimit
func (m *Redis) Push(ctx context.Context, records []model.AnomalyRecord) error {
	if len(records) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(records))
	for _, v := range records {
		data, err := json.Marshal(v)
		if err != nil {
			return errors.Annotate(err, "ошибка сериализации аномалии")
		}
		values = append(values, data)
	}

	pipe := m.client.Pipeline()
	pipe.LPush(ctx, LatestKey, values...)
	pipe.LTrim(ctx, LatestKey, 0, LatestLimit-1)
	pipe.IncrBy(ctx, TotalKey, int64(len(records)))
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Annotate(err, "ошибка записи ленты аномалий")
	}
	m.log.Debugf("в ленту добавлено аномалий: %d", len(records))
	return nil
}

// Latest последние count аномалий, новые первыми. Повреждённые записи пропускаются
func (m *Redis) Latest(ctx context.Context, count int64) ([]model.AnomalyRecord, error) {
	if count <= 0 {
		return nil, errors.Errorf("некорректное количество записей: %d", count)
	}
	data, err := m.client.LRange(ctx, LatestKey, 0, count-1).Result()
	if err != nil {
		return nil, errors.Annotate(err, "ошибка чтения ленты аномалий")
	}
	res := make([]model.AnomalyRecord, 0, len(data))
	for _, d := range data {
		var rec model.AnomalyRecord
		if err := json.Unmarshal([]byte(d), &rec); err != nil {
			m.log.Warnf("повреждённая запись ленты: %v", err)
			continue
		}
		res = append(res, rec)
	}
	return res, nil
}

// Total общее количество аномалий, прошедших через ленту
func (m *Redis) Total(ctx context.Context) (int64, error) {
	val, err := m.client.Get(ctx, TotalKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Trace(err)
	}
	return val, nil
}

// Close закрывает подключение
func (m *Redis) Close() error {
	return m.client.Close()
}
