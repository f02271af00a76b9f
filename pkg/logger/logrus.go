package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	RotateMaxSize    = 30 // MB
	RotateLocalTime  = true
	RotateMaxAge     = 365 // Дней
	RotateMaxBackups = 10  // Колличество файлов
	RotateCompress   = true
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// Config конфигурация лога
type Config struct {
	File    string
	Level   logrus.Level
	Console bool
}

// Get быстрый конфиг на консоль
func Get(level logrus.Level) *logrus.Logger {
	return GetWithConfig(Config{
		File:    "",
		Level:   level,
		Console: true,
	})
}

// GetWithConfig лоигрование с конфигурацией. Логгер создаётся один раз
func GetWithConfig(config Config) *logrus.Logger {
	once.Do(func() {
		logger = New(config, os.Stdout)
	})
	return logger
}

// New логгер с выводом в stdout и, если задан файл и не выбран режим консоли, в файл с ротацией
func New(config Config, stdOut io.Writer) *logrus.Logger {
	log := logrus.New()
	log.Level = config.Level
	log.Formatter = &logrus.TextFormatter{
		DisableColors:   false,
		TimestampFormat: "2006.01.02 15:04:05",
	}

	if config.Console || config.File == "" {
		log.Out = stdOut
	} else {
		log.Out = io.MultiWriter(stdOut, &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    RotateMaxSize, // MB
			MaxAge:     RotateMaxAge,  // Day
			MaxBackups: RotateMaxBackups,
			LocalTime:  RotateLocalTime,
			Compress:   RotateCompress,
		})
	}
	log.AddHook(ContextHook{})

	// Вступительная запись на высоком уровне
	prevLogLevel := log.Level
	log.Level = logrus.InfoLevel
	log.Printf("----------===== начало записи в лог %s =====----------", time.Now().Format("2006.01.02 15:04:05"))
	log.Level = prevLogLevel

	return log
}

// ContextHook добавляет к предупреждениям и ошибкам место вызова в поле source
type ContextHook struct{}

// Levels уровни, для которых срабатывает хук
func (ContextHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

// Fire первый кадр стека вне logrus
func (ContextHook) Fire(entry *logrus.Entry) error {
	pc := make([]uintptr, 16)
	n := runtime.Callers(2, pc)
	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "sirupsen/logrus") {
			entry.Data["source"] = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
			return nil
		}
		if !more {
			return nil
		}
	}
}
