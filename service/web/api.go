package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kirsrus/liftmon/controller/analysis"
	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/pkg/validator"

	"github.com/juju/errors"
	"github.com/labstack/echo"
)

const (
	defaultCount = 50
	maxCount     = 1000
	defaultDays  = 7
)

// Api точки входа REST API под префиксом path
func (m *Web) Api(path string) {
	g := m.e.Group(path)

	g.GET("/state", m.getState)
	g.POST("/state/running", m.setRunning)
	g.GET("/collector", m.getCollector)

	g.GET("/anomalies", m.getAnomalies)
	g.GET("/anomalies/latest", m.getLatest)
	g.GET("/stats", m.getStats)
	g.GET("/daily", m.getDaily)

	g.GET("/abnormal", m.getAbnormal)
	g.GET("/analysis/:system", m.getAnalysis)
	g.POST("/diagnose", m.diagnose)
	g.GET("/simulated/:type", m.getSimulated)
	g.GET("/lifetime", m.getLifetime)
}

func (m *Web) getState(c echo.Context) error {
	return c.JSON(http.StatusOK, m.state.Snapshot())
}

type runningRequest struct {
	Running *bool `json:"running"`
}

func (m *Web) setRunning(c echo.Context) error {
	var req runningRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "некорректный запрос: %v", err)
	}
	if req.Running == nil {
		return message(c, http.StatusBadRequest, "не передано поле running")
	}
	m.state.SetRunning(*req.Running)
	m.log.Infof("через API установлено running=%t", *req.Running)
	return c.JSON(http.StatusOK, m.state.Snapshot())
}

func (m *Web) getCollector(c echo.Context) error {
	return c.JSON(http.StatusOK, m.collector.Status())
}

func (m *Web) getAnomalies(c echo.Context) error {
	count, err := countParam(c)
	if err != nil {
		return message(c, http.StatusBadRequest, "%v", err)
	}
	records, err := m.journal.Recent(count)
	if err != nil {
		m.log.Error(errors.ErrorStack(err))
		return message(c, http.StatusInternalServerError, "ошибка чтения журнала: %v", err)
	}
	return c.JSON(http.StatusOK, records)
}

func (m *Web) getLatest(c echo.Context) error {
	if m.feed == nil {
		return message(c, http.StatusServiceUnavailable, "лента аномалий не настроена")
	}
	count, err := countParam(c)
	if err != nil {
		return message(c, http.StatusBadRequest, "%v", err)
	}
	records, err := m.feed.Latest(c.Request().Context(), int64(count))
	if err != nil {
		return message(c, http.StatusBadGateway, "ошибка чтения ленты: %v", err)
	}
	return c.JSON(http.StatusOK, records)
}

func (m *Web) getStats(c echo.Context) error {
	stats, err := m.journal.Stats()
	if err != nil {
		m.log.Error(errors.ErrorStack(err))
		return message(c, http.StatusInternalServerError, "ошибка чтения журнала: %v", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (m *Web) getDaily(c echo.Context) error {
	days := uint(defaultDays)
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return message(c, http.StatusBadRequest, "некорректное количество дней: %s", v)
		}
		days = uint(n)
	}
	daily, err := m.journal.Daily(days)
	if err != nil {
		m.log.Error(errors.ErrorStack(err))
		return message(c, http.StatusInternalServerError, "ошибка чтения журнала: %v", err)
	}
	return c.JSON(http.StatusOK, daily)
}

func (m *Web) getAbnormal(c echo.Context) error {
	var query model.AbnormalQuery
	if err := c.Bind(&query); err != nil {
		return message(c, http.StatusBadRequest, "некорректный запрос: %v", err)
	}
	page, err := m.abnormal.AbnormalData(c.Request().Context(), query)
	if err != nil {
		return message(c, http.StatusBadGateway, "сервер аномалий недоступен: %v", err)
	}
	return c.JSON(http.StatusOK, page)
}

func (m *Web) getAnalysis(c echo.Context) error {
	system := model.SystemNameByType(c.Param("system"))
	res, err := m.analysis.Analysis(c.Request().Context(), system)
	if err != nil {
		return message(c, http.StatusInternalServerError, "%v", err)
	}
	return c.JSON(http.StatusOK, res)
}

// Показание, присланное панелью на диагностику
type diagnoseRequest struct {
	SystemName   string      `json:"systemName" conform:"trim"`
	SystemSqName string      `json:"systemSqName" conform:"trim"`
	EName        string      `json:"eName" conform:"trim"`
	EData        interface{} `json:"eData"`
}

func (m *Web) diagnose(c echo.Context) error {
	var req diagnoseRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "некорректный запрос: %v", err)
	}
	if err := validator.Get().ValidateWithConform(&req); err != nil {
		return message(c, http.StatusBadRequest, "некорректный запрос: %v", err)
	}
	eData, err := json.Marshal(req.EData)
	if err != nil {
		return message(c, http.StatusBadRequest, "некорректное значение eData: %v", err)
	}
	data := model.AbnormalData{
		SystemName:   req.SystemName,
		SystemSqName: req.SystemSqName,
		EName:        req.EName,
		EData:        eData,
	}

	verdict, err := m.analysis.Diagnose(c.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == analysis.ErrBusy {
			return message(c, http.StatusConflict, "%v", err)
		}
		return message(c, http.StatusBadGateway, "%v", err)
	}
	return c.JSON(http.StatusOK, verdict)
}

func (m *Web) getSimulated(c echo.Context) error {
	return c.JSON(http.StatusOK, m.analysis.Simulated(c.Param("type")))
}

func (m *Web) getLifetime(c echo.Context) error {
	raw, err := m.abnormal.LifetimeAnalysis(c.Request().Context())
	if err != nil {
		return message(c, http.StatusBadGateway, "сервер аномалий недоступен: %v", err)
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// Параметр count: по умолчанию defaultCount, не больше maxCount
func countParam(c echo.Context) (int, error) {
	v := c.QueryParam("count")
	if v == "" {
		return defaultCount, nil
	}
	count, err := strconv.Atoi(v)
	if err != nil || count <= 0 {
		return 0, errors.Errorf("некорректное количество записей: %s", v)
	}
	if count > maxCount {
		count = maxCount
	}
	return count, nil
}
