package db

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/pkg/tool"
	"github.com/kirsrus/liftmon/store"

	"github.com/juju/errors"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	cacheDuration = 10 * time.Second
	cacheCleared  = time.Minute

	statsKey = "stats"
)

// Db журнал аномалий в sqlite. Инициируется через NewDb
type Db struct {
	ctx context.Context
	log *logrus.Entry
	db  *gorm.DB

	statsCache *cache.Cache
}

// ConfigDb конфигурация класса Db
type ConfigDb struct {
	Log    *logrus.Logger
	DbFile string
}

// NewDb конструктор класса Db
func NewDb(ctx context.Context, config *ConfigDb) (store.JournalStore, error) {
	if config == nil {
		return nil, errors.New("не указана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if config.DbFile == "" {
		return nil, errors.New("в конфигурации не указан файл БД")
	}

	// sqlite не создаёт каталоги сам
	if err := os.MkdirAll(filepath.Dir(config.DbFile), 0755); err != nil {
		return nil, errors.Annotate(err, "ошибка создания каталога БД")
	}

	// Подключаемся к БД и запускаем миграции
	conn, err := gorm.Open(sqlite.Open(config.DbFile), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, errors.Annotate(err, "ошибка подключения к файлу БД")
	}
	err = conn.AutoMigrate(Anomaly{})
	if err != nil {
		return nil, errors.Annotate(err, "ошибка миграции БД")
	}
	// Отметки об отправке приходят из параллельных горутин, sqlite пишет одним соединением
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, errors.Trace(err)
	}
	sqlDB.SetMaxOpenConns(1)

	db := Db{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "db",
			"scope":  "store",
		}),
		db:         conn,
		statsCache: cache.New(cacheDuration, cacheCleared),
	}
	return &db, nil
}

// IsNotFound проверяет, что ошибка err обозначает, что записи не найдены
func (m Db) IsNotFound(err error) bool {
	return errors.IsNotFound(err) || errors.Cause(err) == gorm.ErrRecordNotFound
}

// Save сохраняет пачку аномалий в момент обнаружения
func (m Db) Save(records []model.AnomalyRecord) error {
	rows := make([]Anomaly, 0, len(records))
	for _, v := range records {
		if v.ID == "" {
			m.log.Warnf("запись без идентификатора пропущена: %s", v.Title())
			continue
		}
		row := Anomaly{}
		row.FromRecord(v)
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := m.db.Create(&rows).Error; err != nil {
		return errors.Annotate(err, "ошибка добавления в БД")
	}
	m.statsCache.Delete(statsKey)
	return nil
}

// MarkSent отмечает запись как принятую сервером
func (m Db) MarkSent(id string) error {
	return m.mark(id, store.DeliverySent, "")
}

// MarkFailed отмечает запись как отброшенную после ошибки отправки
func (m Db) MarkFailed(id string, reason string) error {
	return m.mark(id, store.DeliveryFailed, reason)
}

func (m Db) mark(id, delivery, reason string) error {
	res := m.db.Model(&Anomaly{}).Where("record_id = ?", id).Updates(map[string]interface{}{
		"delivery": delivery,
		"reason":   reason,
	})
	if res.Error != nil {
		return errors.Annotate(res.Error, "ошибка обновления записи")
	}
	if res.RowsAffected == 0 {
		return errors.NotFoundf("запись %s", id)
	}
	m.statsCache.Delete(statsKey)
	return nil
}

// Recent последние count записей, новые первыми
func (m Db) Recent(count int) ([]store.JournalRecord, error) {
	if count <= 0 {
		return nil, errors.Errorf("некорректное количество записей: %d", count)
	}
	rows := make([]Anomaly, 0)
	if err := m.db.Order("id desc").Limit(count).Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	res := make([]store.JournalRecord, 0, len(rows))
	for _, v := range rows {
		res = append(res, v.ToRecord())
	}
	return res, nil
}

// Stats количество записей по уровням и результатам отправки. Результат кэшируется до очередной записи
func (m Db) Stats() (*model.AnomalyStats, error) {
	if v, ok := m.statsCache.Get(statsKey); ok {
		stats := v.(model.AnomalyStats)
		return &stats, nil
	}

	var stats model.AnomalyStats
	counters := []struct {
		dst   *int64
		query string
		arg   interface{}
	}{
		{dst: &stats.Warning, query: "level = ?", arg: string(model.LevelWarning)},
		{dst: &stats.Critical, query: "level = ?", arg: string(model.LevelCritical)},
		{dst: &stats.Sent, query: "delivery = ?", arg: store.DeliverySent},
		{dst: &stats.Failed, query: "delivery = ?", arg: store.DeliveryFailed},
	}
	if err := m.db.Model(&Anomaly{}).Count(&stats.Total).Error; err != nil {
		return nil, errors.Trace(err)
	}
	for _, v := range counters {
		if err := m.db.Model(&Anomaly{}).Where(v.query, v.arg).Count(v.dst).Error; err != nil {
			return nil, errors.Trace(err)
		}
	}

	m.statsCache.SetDefault(statsKey, stats)
	return &stats, nil
}

// Daily количество аномалий по дням за days дней, по возрастанию даты
func (m Db) Daily(days uint) ([]store.DailyCount, error) {
	startDate, _ := tool.Period(time.Now(), days, 0)
	rows := make([]Anomaly, 0)
	err := m.db.Select([]string{"detected_at", "level"}).Where("detected_at > ?", startDate).Find(&rows).Error
	if err != nil {
		return nil, errors.Trace(err)
	}

	// Промежуточная карта для объединения аномалий в один день
	cacheLoc := make(map[string]store.DailyCount)
	for _, v := range rows {
		dateStr := tool.DateKey(v.DetectedAt)
		c, ok := cacheLoc[dateStr]
		if !ok {
			c.Date = tool.RoundToDate(v.DetectedAt)
		}
		if v.Level == string(model.LevelCritical) {
			c.Critical++
		} else {
			c.Warning++
		}
		cacheLoc[dateStr] = c
	}

	result := make([]store.DailyCount, 0, len(cacheLoc))
	for _, v := range cacheLoc {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Clean очищает записи в БД старше days дней
func (m Db) Clean(days int) error {
	if days <= 0 {
		return errors.Errorf("некорректный срок хранения: %d", days)
	}
	m.log.Info("запуск процесса очистки старых записей журнала")

	lastDate, _ := tool.Period(time.Now(), uint(days), 0)
	res := m.db.Where("detected_at < ?", lastDate).Delete(&Anomaly{})
	if res.Error != nil {
		m.log.Warn(res.Error)
		return errors.Trace(res.Error)
	}
	if res.RowsAffected == 0 {
		m.log.Info("записей в журнале для удаления нет")
		return nil
	}
	m.statsCache.Delete(statsKey)
	m.log.Infof("удалено записей журнала: %d", res.RowsAffected)
	return nil
}

// Close закрывает подключение к БД
func (m Db) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return errors.Trace(err)
	}
	return sqlDB.Close()
}
