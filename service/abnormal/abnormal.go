// Package abnormal клиент серверной части учёта аномалий лифта
package abnormal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/pkg/validator"
	"github.com/kirsrus/liftmon/service"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
)

const (
	RequestTimeout = 10 * time.Second

	pathGainData     = "/data-etable/gain-data"
	pathSelectData   = "/data-etable/selectData"
	pathSendDataToAI = "/data-etable/send-data-to-ai"
	pathLifetime     = "/data-etable/lifetime-analysis-full"

	defaultSystemName   = model.SystemTraction
	defaultSystemSqName = "未知组件"
)

// ConfigAbnormal конфигурация Abnormal
type ConfigAbnormal struct {
	Log *logrus.Logger
	// Адрес сервера, например http://127.0.0.1:8080
	BaseURL string `validate:"required,httpurl"`
	// Таймаут одного запроса
	Timeout time.Duration
}

// Abnormal REST-клиент /data-etable/*. Инициализируется через NewAbnormal
type Abnormal struct {
	log     *logrus.Entry
	client  *http.Client
	baseURL string
}

// NewAbnormal конструктор Abnormal
func NewAbnormal(config *ConfigAbnormal) (service.AbnormalSvc, error) {
	if config == nil {
		return nil, errors.New("не задана конфигурация config")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if err := validator.Get().Validate(config); err != nil {
		return nil, errors.Annotate(err, "некорректный адрес сервера")
	}

	res := Abnormal{
		log: config.Log.WithFields(map[string]interface{}{
			"module":  "abnormal",
			"scope":   "service",
			"address": config.BaseURL,
		}),
		client:  &http.Client{Timeout: RequestTimeout},
		baseURL: strings.TrimRight(config.BaseURL, "/"),
	}
	if config.Timeout != 0 {
		res.client.Timeout = config.Timeout
	}
	return &res, nil
}

// AddAbnormalData передаёт одну запись об аномалии на сервер
func (m Abnormal) AddAbnormalData(ctx context.Context, data model.AbnormalData) error {
	_, err := m.do(ctx, http.MethodPost, pathGainData, nil, data)
	if err != nil {
		return errors.Trace(err)
	}
	m.log.Debugf("аномалия %s/%s передана", data.SystemName, data.SystemSqName)
	return nil
}

// AbnormalData постраничный запрос сохранённых аномалий
func (m Abnormal) AbnormalData(ctx context.Context, query model.AbnormalQuery) (*model.AbnormalPage, error) {
	params := url.Values{}
	if query.Current > 0 {
		params.Set("current", strconv.Itoa(query.Current))
	}
	if query.Size > 0 {
		params.Set("size", strconv.Itoa(query.Size))
	}
	if query.ID != 0 {
		params.Set("id", strconv.FormatInt(query.ID, 10))
	}
	if query.SystemName != "" {
		params.Set("systemName", query.SystemName)
	}
	if query.SystemSqName != "" {
		params.Set("systemSqName", query.SystemSqName)
	}

	body, err := m.do(ctx, http.MethodGet, pathSelectData, params, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var page model.AbnormalPage
	if err := json.Unmarshal(unwrap(body), &page); err != nil {
		return nil, errors.Annotate(err, "некорректный ответ selectData")
	}
	if page.Records == nil {
		page.Records = make([]model.AbnormalData, 0)
	}
	return &page, nil
}

// SendDataToAI запрос диагноза по одной записи. Идентификатор и время создания назначает сервер
func (m Abnormal) SendDataToAI(ctx context.Context, data model.AbnormalData) (*model.AIVerdict, error) {
	data.RequestID = "req-" + uuid.New().String()
	data.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	if data.SystemName == "" {
		m.log.Warn("в запросе диагноза не указана подсистема, используется значение по умолчанию")
		data.SystemName = defaultSystemName
	}
	if data.SystemSqName == "" {
		m.log.Warn("в запросе диагноза не указан компонент, используется значение по умолчанию")
		data.SystemSqName = defaultSystemSqName
	}
	data.ID = nil
	data.CreateTime = nil

	body, err := m.do(ctx, http.MethodPost, pathSendDataToAI, nil, data)
	if err != nil {
		return nil, errors.Trace(err)
	}
	payload := unwrap(body)
	if len(bytes.TrimSpace(payload)) == 0 || string(bytes.TrimSpace(payload)) == "null" {
		return nil, errors.New("сервер не вернул результат диагностики")
	}
	var verdict model.AIVerdict
	if err := json.Unmarshal(payload, &verdict); err != nil {
		return nil, errors.Annotate(err, "некорректный ответ диагностики")
	}
	return &verdict, nil
}

// LifetimeAnalysis полный анализ остаточного ресурса в том виде, как его вернул сервер
func (m Abnormal) LifetimeAnalysis(ctx context.Context) (json.RawMessage, error) {
	body, err := m.do(ctx, http.MethodGet, pathLifetime, nil, nil)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !json.Valid(body) {
		return nil, errors.New("сервер вернул не JSON")
	}
	return json.RawMessage(body), nil
}

// Выполняет запрос и возвращает тело ответа. Статус вне 2xx считается ошибкой
func (m Abnormal) do(ctx context.Context, method, path string, params url.Values, payload interface{}) ([]byte, error) {
	URL := m.baseURL + path
	if len(params) > 0 {
		URL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Trace(err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, URL, reqBody)
	if err != nil {
		return nil, errors.Trace(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Warnf("запрос %s %s не выполнен: %v", method, path, err)
		return nil, errors.Trace(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Errorf("для %s %s возвращён статус %d: %s", method, path, resp.StatusCode, shorten(data))
	}
	return data, nil
}

// Снимает обёртку {"data": ...}. Если data строка, в ней лежит JSON результата
func unwrap(body []byte) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return body
	}
	inner, ok := envelope["data"]
	if !ok {
		return body
	}
	var text string
	if err := json.Unmarshal(inner, &text); err == nil {
		return json.RawMessage(text)
	}
	trimmed := bytes.TrimSpace(inner)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return inner
	}
	return body
}

func shorten(data []byte) string {
	const max = 200
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return fmt.Sprintf("%s...", s[:max])
	}
	return s
}
