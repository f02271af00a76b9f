// Package web HTTP-интерфейс панели мониторинга: REST API, лента аномалий по WebSocket, метрики и статика
package web

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/kirsrus/liftmon/controller"
	"github.com/kirsrus/liftmon/service"
	"github.com/kirsrus/liftmon/store"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	waitRestartStartServer = 10 * time.Second
	shutdownTimeout        = 5 * time.Second
	webPort                = 8080
	assetsDir              = "./assets/main"
)

// ConfigWeb конфигурация структуры Web
type ConfigWeb struct {
	Log *logrus.Logger

	WebPort   uint
	AssetsDir string

	Abnormal  service.AbnormalSvc
	Analysis  controller.AnalysisCtl
	Collector controller.CollectorCtl
	// Лента последних аномалий. Может отсутствовать
	Feed service.FeedSvc
}

// Web служба WEB-сервисов. Инициализируется через NewWeb
type Web struct {
	ctx context.Context
	log *logrus.Entry
	e   *echo.Echo

	state     store.StateStore
	journal   store.JournalStore
	abnormal  service.AbnormalSvc
	analysis  controller.AnalysisCtl
	collector controller.CollectorCtl
	feed      service.FeedSvc

	upgrader websocket.Upgrader
	// Подписчики ленты аномалий: ключ - идентификатор, значение chan model.AnomalyEvent
	anomalySubscribePool *sync.Map

	webPort   uint
	assetsDir string
}

// NewWeb конструктор структуры Web
func NewWeb(ctx context.Context, state store.StateStore, journal store.JournalStore, config *ConfigWeb) (*Web, error) {
	if config == nil {
		return nil, errors.New("не установлена конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if state == nil {
		return nil, errors.New("не передано хранилище состояния")
	}
	if journal == nil {
		return nil, errors.New("не передан журнал аномалий")
	}
	if config.Abnormal == nil || config.Analysis == nil || config.Collector == nil {
		return nil, errors.New("не переданы сервисы API")
	}

	web := Web{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "web",
			"scope":  "service",
		}),
		e: echo.New(),

		state:     state,
		journal:   journal,
		abnormal:  config.Abnormal,
		analysis:  config.Analysis,
		collector: config.Collector,
		feed:      config.Feed,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		anomalySubscribePool: new(sync.Map),

		webPort:   webPort,
		assetsDir: assetsDir,
	}
	if config.WebPort != 0 {
		web.webPort = config.WebPort
	}
	if config.AssetsDir != "" {
		web.assetsDir = config.AssetsDir
	}

	web.e.HideBanner = true
	web.e.HidePort = true
	web.e.Use(middleware.Recover())
	web.e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	return &web, nil
}

// Serve работа HTTP-сервера до отмены контекста. После неожиданного падения сервер перезапускается
func (m *Web) Serve() error {
	go func() {
		<-m.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.e.Shutdown(ctx); err != nil {
			m.log.Warnf("ошибка остановки HTTP-сервера: %v", err)
		}
	}()

	for {
		m.log.Infof("старт HTTP-сервера на порту :%d", m.webPort)
		err := m.e.Start(fmt.Sprintf(":%d", m.webPort))
		select {
		case <-m.ctx.Done():
			m.log.Info("HTTP-сервер остановлен")
			return nil
		default:
		}
		m.log.Errorf("сервер неожиданно завершил работу: %v", err)

		select {
		case <-m.ctx.Done():
			return nil
		case <-time.After(waitRestartStartServer):
		}
	}
}

// ServeHTTP обработка запроса без запуска сервера
func (m *Web) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.e.ServeHTTP(w, r)
}

// Static статический контент панели
func (m *Web) Static(path string) {
	m.e.Static(path, m.assetsDir)
}

// Metrics метрики Prometheus
func (m *Web) Metrics(path string) {
	m.e.GET(path, echo.WrapHandler(promhttp.Handler()))
}

// Ответ с ошибкой в формате API
func message(c echo.Context, status int, format string, args ...interface{}) error {
	return c.JSON(status, map[string]string{"message": fmt.Sprintf(format, args...)})
}

var _ service.WebSvc = (*Web)(nil)

