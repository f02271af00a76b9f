package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirsrus/liftmon/controller/analysis"
	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/store"
	"github.com/kirsrus/liftmon/store/state"

	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJournal struct {
	records []store.JournalRecord
	count   int
	days    uint
}

func (m *fakeJournal) Save([]model.AnomalyRecord) error { return nil }
func (m *fakeJournal) MarkSent(string) error            { return nil }
func (m *fakeJournal) MarkFailed(string, string) error  { return nil }
func (m *fakeJournal) Recent(count int) ([]store.JournalRecord, error) {
	m.count = count
	return m.records, nil
}
func (m *fakeJournal) Stats() (*model.AnomalyStats, error) {
	return &model.AnomalyStats{Total: 3, Warning: 2, Critical: 1, Sent: 3}, nil
}
func (m *fakeJournal) Daily(days uint) ([]store.DailyCount, error) {
	m.days = days
	return make([]store.DailyCount, days), nil
}
func (m *fakeJournal) Clean(int) error { return nil }
func (m *fakeJournal) Close() error    { return nil }

type fakeAbnormal struct {
	query model.AbnormalQuery
	err   error
}

func (m *fakeAbnormal) AddAbnormalData(context.Context, model.AbnormalData) error { return nil }
func (m *fakeAbnormal) AbnormalData(_ context.Context, query model.AbnormalQuery) (*model.AbnormalPage, error) {
	m.query = query
	if m.err != nil {
		return nil, m.err
	}
	return &model.AbnormalPage{Records: []model.AbnormalData{{SystemName: model.SystemDoor}}, Total: 1}, nil
}
func (m *fakeAbnormal) SendDataToAI(context.Context, model.AbnormalData) (*model.AIVerdict, error) {
	return nil, errors.NotImplementedf("SendDataToAI")
}
func (m *fakeAbnormal) LifetimeAnalysis(context.Context) (json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(`{"remaining":0.72}`), nil
}

type fakeAnalysis struct {
	system    string
	diagnosed model.AbnormalData
	err       error
}

func (m *fakeAnalysis) Analysis(_ context.Context, systemName string) (*model.AIAnalysis, error) {
	m.system = systemName
	return &model.AIAnalysis{ID: "a-1", SystemName: systemName}, nil
}
func (m *fakeAnalysis) Diagnose(_ context.Context, data model.AbnormalData) (*model.AIVerdict, error) {
	m.diagnosed = data
	if m.err != nil {
		return nil, m.err
	}
	return &model.AIVerdict{SystemName: data.SystemName, AICode: model.AICodeCritical}, nil
}
func (m *fakeAnalysis) Simulated(systemType string) model.AbnormalData {
	return model.AbnormalData{SystemName: model.SystemNameByType(systemType), EName: "EL-001"}
}
func (m *fakeAnalysis) Busy() bool { return false }

type fakeCollector struct{}

func (m *fakeCollector) Start() error       { return nil }
func (m *fakeCollector) Stop()              {}
func (m *fakeCollector) Tick(time.Time)     {}
func (m *fakeCollector) Flush()             {}
func (m *fakeCollector) QueueLen() int      { return 4 }
func (m *fakeCollector) Running() bool      { return true }
func (m *fakeCollector) Status() model.CollectorStatus {
	return model.CollectorStatus{ElevatorID: "EL-001", Running: true, QueueLen: 4, BatchSize: 10}
}

type fakeFeed struct {
	count int64
}

func (m *fakeFeed) Push(context.Context, []model.AnomalyRecord) error { return nil }
func (m *fakeFeed) Latest(_ context.Context, count int64) ([]model.AnomalyRecord, error) {
	m.count = count
	return []model.AnomalyRecord{{ID: "r-1"}}, nil
}
func (m *fakeFeed) Total(context.Context) (int64, error) { return 1, nil }
func (m *fakeFeed) Close() error                         { return nil }

type fixture struct {
	web      *Web
	state    store.StateStore
	journal  *fakeJournal
	abnormal *fakeAbnormal
	analysis *fakeAnalysis
	feed     *fakeFeed
}

func newFixture(t *testing.T, ctx context.Context, withFeed bool) *fixture {
	t.Helper()
	f := &fixture{
		state:    state.NewState(model.ElevatorState{ID: "EL-001", CurrentFloor: 3, Running: true}),
		journal:  &fakeJournal{records: []store.JournalRecord{{AnomalyRecord: model.AnomalyRecord{ID: "r-1"}, Delivery: store.DeliverySent}}},
		abnormal: &fakeAbnormal{},
		analysis: &fakeAnalysis{},
	}
	config := &ConfigWeb{
		Abnormal:  f.abnormal,
		Analysis:  f.analysis,
		Collector: &fakeCollector{},
	}
	if withFeed {
		f.feed = &fakeFeed{}
		config.Feed = f.feed
	}
	web, err := NewWeb(ctx, f.state, f.journal, config)
	require.NoError(t, err)
	web.Api("/api")
	web.Metrics("/metrics")
	web.AnomalyFeed("/ws/anomalies")
	f.web = web
	return f
}

func (m *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	m.web.ServeHTTP(rec, req)
	return rec
}

func TestNewWeb(t *testing.T) {
	st := state.NewState(model.ElevatorState{})
	full := &ConfigWeb{Abnormal: &fakeAbnormal{}, Analysis: &fakeAnalysis{}, Collector: &fakeCollector{}}
	tests := []struct {
		name    string
		state   store.StateStore
		journal store.JournalStore
		config  *ConfigWeb
		wantErr bool
	}{
		{name: "корректный", state: st, journal: &fakeJournal{}, config: full},
		{name: "без конфигурации", state: st, journal: &fakeJournal{}, wantErr: true},
		{name: "без состояния", journal: &fakeJournal{}, config: full, wantErr: true},
		{name: "без журнала", state: st, config: full, wantErr: true},
		{name: "без сервисов", state: st, journal: &fakeJournal{}, config: &ConfigWeb{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWeb(context.Background(), tt.state, tt.journal, tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewWeb() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApi(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "состояние", method: http.MethodGet, path: "/api/state", wantStatus: http.StatusOK, wantBody: `"currentFloor":3`},
		{name: "сборщик", method: http.MethodGet, path: "/api/collector", wantStatus: http.StatusOK, wantBody: `"queueLen":4`},
		{name: "журнал", method: http.MethodGet, path: "/api/anomalies", wantStatus: http.StatusOK, wantBody: `"delivery":"sent"`},
		{name: "журнал с некорректным count", method: http.MethodGet, path: "/api/anomalies?count=abc", wantStatus: http.StatusBadRequest},
		{name: "лента", method: http.MethodGet, path: "/api/anomalies/latest?count=5", wantStatus: http.StatusOK, wantBody: `"id":"r-1"`},
		{name: "статистика", method: http.MethodGet, path: "/api/stats", wantStatus: http.StatusOK, wantBody: `"critical":1`},
		{name: "сводка по дням", method: http.MethodGet, path: "/api/daily?days=3", wantStatus: http.StatusOK},
		{name: "сводка с нулём дней", method: http.MethodGet, path: "/api/daily?days=0", wantStatus: http.StatusBadRequest},
		{name: "аномалии сервера", method: http.MethodGet, path: "/api/abnormal?current=2&size=5", wantStatus: http.StatusOK, wantBody: `"total":1`},
		{name: "анализ", method: http.MethodGet, path: "/api/analysis/door", wantStatus: http.StatusOK, wantBody: `"id":"a-1"`},
		{name: "диагноз", method: http.MethodPost, path: "/api/diagnose", body: `{"systemName":"门系统","systemSqName":"  门锁 ","eName":"EL-001","eData":"4.5"}`, wantStatus: http.StatusOK, wantBody: `"aiCode":1`},
		{name: "симуляция", method: http.MethodGet, path: "/api/simulated/guidance", wantStatus: http.StatusOK, wantBody: `"eName":"EL-001"`},
		{name: "ресурс", method: http.MethodGet, path: "/api/lifetime", wantStatus: http.StatusOK, wantBody: `"remaining":0.72`},
		{name: "метрики", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, wantBody: "go_goroutines"},
		{name: "неизвестный путь", method: http.MethodGet, path: "/api/unknown", wantStatus: http.StatusNotFound},
	}
	f := newFixture(t, context.Background(), true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}

	assert.Equal(t, 50, f.journal.count)
	assert.Equal(t, int64(5), f.feed.count)
	assert.Equal(t, uint(3), f.journal.days)
	assert.Equal(t, 2, f.abnormal.query.Current)
	assert.Equal(t, 5, f.abnormal.query.Size)
	assert.Equal(t, model.SystemDoor, f.analysis.system)
	assert.Equal(t, "门锁", f.analysis.diagnosed.SystemSqName)
	assert.Equal(t, `"4.5"`, string(f.analysis.diagnosed.EData))
}

func TestSetRunning(t *testing.T) {
	f := newFixture(t, context.Background(), false)

	rec := f.do(http.MethodPost, "/api/state/running", `{"running":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, f.state.Snapshot().Running)

	rec = f.do(http.MethodPost, "/api/state/running", `{"running":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.state.Snapshot().Running)

	rec = f.do(http.MethodPost, "/api/state/running", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApiErrors(t *testing.T) {
	f := newFixture(t, context.Background(), false)
	f.abnormal.err = errors.New("connection refused")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		prepare    func()
		wantStatus int
	}{
		{name: "лента не настроена", method: http.MethodGet, path: "/api/anomalies/latest", wantStatus: http.StatusServiceUnavailable},
		{name: "сервер аномалий недоступен", method: http.MethodGet, path: "/api/abnormal", wantStatus: http.StatusBadGateway},
		{name: "ресурс недоступен", method: http.MethodGet, path: "/api/lifetime", wantStatus: http.StatusBadGateway},
		{
			name: "диагностика занята", method: http.MethodPost, path: "/api/diagnose", body: `{"systemName":"门系统"}`,
			prepare:    func() { f.analysis.err = analysis.ErrBusy },
			wantStatus: http.StatusConflict,
		},
		{
			name: "ошибка диагностики", method: http.MethodPost, path: "/api/diagnose", body: `{"systemName":"门系统"}`,
			prepare:    func() { f.analysis.err = errors.New("timeout") },
			wantStatus: http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prepare != nil {
				tt.prepare()
			}
			rec := f.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"message"`)
		})
	}
}

func TestAnomalyFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t, ctx, false)
	srv := httptest.NewServer(f.web)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/anomalies"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(5 * time.Second)
	for f.web.Subscribers() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, f.web.Subscribers())

	records := []model.AnomalyRecord{
		{ID: "r-1", SystemName: model.SystemDoor, Level: model.LevelCritical},
		{ID: "r-2", SystemName: model.SystemDoor, Level: model.LevelWarning},
	}
	f.web.AnomaliesDetected(model.NewAnomalyEvent("EL-001", records))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event model.AnomalyEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "EL-001", event.ElevatorID)
	assert.Equal(t, 1, event.Critical)
	assert.Equal(t, 1, event.Warning)
	assert.Len(t, event.Records, 2)

	// После отключения клиента подписчик удаляется
	_ = conn.Close()
	deadline = time.Now().Add(5 * time.Second)
	for f.web.Subscribers() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, 0, f.web.Subscribers())
}

func TestAnomaliesDetectedOverflow(t *testing.T) {
	f := newFixture(t, context.Background(), false)
	events := make(chan model.AnomalyEvent, 1)
	f.web.anomalySubscribePool.Store("slow", events)

	// Второе событие не блокирует рассылку
	f.web.AnomaliesDetected(model.AnomalyEvent{ElevatorID: "first"})
	f.web.AnomaliesDetected(model.AnomalyEvent{ElevatorID: "second"})

	assert.Len(t, events, 1)
	assert.Equal(t, "first", (<-events).ElevatorID)
}
