package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/jinzhu/configor"
	"github.com/juju/errors"
)

var (
	config Config
	once   sync.Once
)

const FileName = "config.yaml"

// Get единажды читает и возвращает конфигурацию
func Get() *Config {
	return GetWithPath(FileName)
}

// GetWithPath единожды читает и возвращает конфигурацию
func GetWithPath(filepath string) *Config {
	once.Do(func() {
		res, err := Load(filepath)
		if err != nil {
			log.Fatal(err)
		}
		config = *res
	})
	return &config
}

// Load читает конфигурацию из файла filepath
func Load(filepath string) (*Config, error) {
	if _, err := os.Stat(filepath); err != nil {
		return nil, errors.Errorf("файл конфигурации недоступен: %s", err)
	}
	var res Config
	if err := configor.Load(&res, filepath); err != nil {
		return nil, errors.Errorf("ошибка чтения файла конфигурации %s: %s", filepath, err)
	}
	res.normalize()
	return &res, nil
}

// Корректировки значений
func (m *Config) normalize() {
	m.Collector.Interval = m.Collector.Interval * time.Second
	m.Collector.FlushInterval = m.Collector.FlushInterval * time.Second
	m.Collector.SendTimeout = m.Collector.SendTimeout * time.Millisecond
	m.Simulator.Interval = m.Simulator.Interval * time.Millisecond
	m.Backend.TimeOut = m.Backend.TimeOut * time.Millisecond
	m.Backend.AnalysisCache = m.Backend.AnalysisCache * time.Second
}
