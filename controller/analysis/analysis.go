// Package analysis анализ состояния подсистем через серверную диагностику
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sync/atomic"
	"time"

	"github.com/kirsrus/liftmon/controller"
	"github.com/kirsrus/liftmon/model"
	"github.com/kirsrus/liftmon/service"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	cacheDuration = 5 * time.Minute
	cacheCleared  = 10 * time.Minute

	// Пробное показание для анализа подсистемы
	probeComponent = "曳引电动机"
	probeValue     = "153"

	statusAbnormal = "异常"
)

// ErrBusy предыдущая диагностика ещё не завершена
var ErrBusy = errors.New("диагностика уже выполняется")

// ConfigAnalysis конфигурация Analysis
type ConfigAnalysis struct {
	Log *logrus.Logger
	// Идентификатор лифта в пробных запросах
	ElevatorID string
	// Время жизни результата анализа
	CacheDuration time.Duration
}

// Analysis контроллер анализа. Инициализируется через NewAnalysis
type Analysis struct {
	ctx       context.Context
	log       *logrus.Entry
	abnormal  service.AbnormalSvc
	simulator service.SimulatorSvc
	cache     *cache.Cache

	elevatorID string
	busy       int32
}

// NewAnalysis конструктор Analysis. simulator может быть nil, тогда критический диагноз лифт не останавливает
func NewAnalysis(ctx context.Context, abnormal service.AbnormalSvc, simulator service.SimulatorSvc, config *ConfigAnalysis) (controller.AnalysisCtl, error) {
	if config == nil {
		return nil, errors.New("не передана конфигурация")
	}
	if config.Log == nil {
		config.Log = logrus.New()
		config.Log.Out = ioutil.Discard
	}
	if abnormal == nil {
		return nil, errors.New("не передан клиент сервера аномалий")
	}

	duration := cacheDuration
	if config.CacheDuration != 0 {
		duration = config.CacheDuration
	}
	elevatorID := config.ElevatorID
	if elevatorID == "" {
		elevatorID = model.DefaultElevatorName
	}

	return &Analysis{
		ctx: ctx,
		log: config.Log.WithFields(map[string]interface{}{
			"module": "analysis",
			"scope":  "controller",
		}),
		abnormal:   abnormal,
		simulator:  simulator,
		cache:      cache.New(duration, cacheCleared),
		elevatorID: elevatorID,
	}, nil
}

// Analysis анализ подсистемы systemName. При ошибке сервера возвращается заглушка, она не кэшируется
func (m *Analysis) Analysis(ctx context.Context, systemName string) (*model.AIAnalysis, error) {
	if systemName == "" {
		systemName = model.SystemTraction
	}
	if v, ok := m.cache.Get(systemName); ok {
		res := v.(model.AIAnalysis)
		return &res, nil
	}

	probe := model.AbnormalData{
		SystemName:   systemName,
		SystemSqName: probeComponent,
		EName:        m.elevatorID,
		EData:        json.RawMessage(probeValue),
	}
	verdict, err := m.abnormal.SendDataToAI(ctx, probe)
	if err != nil {
		m.log.Warnf("анализ подсистемы %s недоступен: %v", systemName, err)
		res := mockAnalysis(systemName)
		return &res, nil
	}

	res := verdictToAnalysis(systemName, verdict)
	m.cache.SetDefault(systemName, res)
	return &res, nil
}

// Diagnose диагноз конкретного показания. Одновременно выполняется только одна диагностика
func (m *Analysis) Diagnose(ctx context.Context, data model.AbnormalData) (*model.AIVerdict, error) {
	if !atomic.CompareAndSwapInt32(&m.busy, 0, 1) {
		return nil, ErrBusy
	}
	defer atomic.StoreInt32(&m.busy, 0)

	m.log.Infof("диагностика %s/%s = %s", data.SystemName, data.SystemSqName, string(data.EData))
	verdict, err := m.abnormal.SendDataToAI(ctx, data)
	if err != nil {
		return nil, errors.Annotate(err, "диагностика не выполнена")
	}

	if verdict.AICode == model.AICodeCritical {
		m.log.Warnf("критический диагноз для %s: %s", verdict.SystemName, verdict.AIResult)
		if m.simulator != nil {
			m.simulator.StopElevator()
		}
	}
	m.cache.SetDefault(verdict.SystemName, verdictToAnalysis(verdict.SystemName, verdict))
	return verdict, nil
}

// Busy идёт ли диагностика
func (m *Analysis) Busy() bool {
	return atomic.LoadInt32(&m.busy) == 1
}

// Simulated типовое аномальное показание подсистемы. Неизвестный тип относится к тяговой системе
func (m *Analysis) Simulated(systemType string) model.AbnormalData {
	res := model.AbnormalData{EName: "EL-001"}
	switch systemType {
	case model.SystemTypeGuidance:
		res.SystemName = model.SystemGuidance
		res.SystemSqName = "导轨垂直度偏差"
		res.EData = json.RawMessage(`"1.2"`)
	case model.SystemTypeElectrical:
		res.SystemName = model.SystemElectrical
		res.SystemSqName = "触点电压降"
		res.EData = json.RawMessage(`"95"`)
	case model.SystemTypeDoor:
		res.SystemName = model.SystemDoor
		res.SystemSqName = "机械闭合深度"
		res.EData = json.RawMessage(`"4.5"`)
	default:
		res.SystemName = model.SystemTraction
		res.SystemSqName = "曳引钢丝绳断丝数量"
		res.EData = json.RawMessage(`"141"`)
	}
	return res
}

func verdictToAnalysis(systemName string, verdict *model.AIVerdict) model.AIAnalysis {
	if verdict.SystemName != "" {
		systemName = verdict.SystemName
	}
	summary := verdict.Message
	if summary == "" {
		summary = verdict.AIResult
	}
	if summary == "" {
		summary = "分析完成"
	}
	res := model.AIAnalysis{
		ID:         "ai-analysis-" + uuid.New().String(),
		Timestamp:  time.Now(),
		SystemID:   model.SystemIDByName(systemName),
		SystemName: systemName,
		Severity:   string(model.LevelWarning),
		Code:       verdict.AICode,
		SystemInfo: model.SystemInfo{Name: systemName, Status: statusAbnormal},
		Summary:    summary,
		Details:    []string{fmt.Sprintf("%s: %s", verdict.SystemSqName, string(verdict.EData))},
	}
	if verdict.AICode == model.AICodeCritical {
		res.Severity = string(model.LevelCritical)
		res.SystemInfo.Status = model.StatusFault
	}
	if verdict.Advice != "" {
		res.Recommendations = []string{verdict.Advice}
	} else {
		res.Recommendations = []string{"请根据AI分析结果进行相应处理"}
	}
	return res
}

func mockAnalysis(systemName string) model.AIAnalysis {
	return model.AIAnalysis{
		ID:              "mock-ai-analysis",
		Timestamp:       time.Now(),
		SystemID:        model.SystemIDByName(systemName),
		SystemName:      systemName,
		Severity:        string(model.LevelWarning),
		SystemInfo:      model.SystemInfo{Name: "模拟系统", Status: model.StatusNormal},
		Summary:         "这是一个模拟的AI分析结果，因为API调用失败。",
		Details:         []string{"API调用失败，无法获取真实分析数据。"},
		Recommendations: []string{"检查后端API是否正常运行。"},
		Mock:            true,
	}
}
