package web

import (
	"net/http"
	"time"

	"github.com/kirsrus/liftmon/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
)

const (
	// Размер буфера событий одного подписчика
	subscriberBuffer = 16
	// Каждые pingInterval в канал подаётся ping, иначе клиент его закроет
	pingInterval = 10 * time.Second
	writeTimeout = 5 * time.Second
)

// AnomalyFeed лента аномалий по WebSocket. Каждому подписчику приходит model.AnomalyEvent в JSON
func (m *Web) AnomalyFeed(path string) {
	m.e.GET(path, func(c echo.Context) error {
		conn, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			m.log.Warnf("ошибка подключения подписчика ленты: %v", err)
			return nil
		}
		defer func() { _ = conn.Close() }()

		id := uuid.New().String()
		events := make(chan model.AnomalyEvent, subscriberBuffer)
		m.anomalySubscribePool.Store(id, events)
		defer m.anomalySubscribePool.Delete(id)
		m.log.Debugf("подписчик %s подключён к ленте", id)

		// Чтение нужно только для обработки закрытия соединения клиентом
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()
		for {
			select {
			case <-m.ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeTimeout))
				return nil
			case <-closed:
				m.log.Debugf("подписчик %s отключился", id)
				return nil
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					return nil
				}
			case event := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(event); err != nil {
					m.log.Warnf("ошибка отправки подписчику %s: %v", id, err)
					return nil
				}
			}
		}
	})
}

// AnomaliesDetected рассылка пачки аномалий подписчикам ленты. Переполненный подписчик пропускает событие
func (m *Web) AnomaliesDetected(event model.AnomalyEvent) {
	m.anomalySubscribePool.Range(func(key, value interface{}) bool {
		inChan, ok := value.(chan model.AnomalyEvent)
		if !ok {
			m.log.Errorf("в anomalySubscribePool неожиданный тип данных: %T", value)
			return true
		}
		select {
		case inChan <- event:
		default:
			m.log.Warnf("канал подписчика %s переполнен", key)
		}
		return true
	})
}

// Subscribers количество подписчиков ленты
func (m *Web) Subscribers() int {
	count := 0
	m.anomalySubscribePool.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

var _ http.Handler = (*Web)(nil)
