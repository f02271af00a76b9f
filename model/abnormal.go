package model

import (
	"encoding/json"
	"time"
)

const (
	// UnknownComponent имя компонента, когда у отказа нет кода
	UnknownComponent = "未知"
	// DefaultElevatorName имя лифта, если идентификатор не задан
	DefaultElevatorName = "电梯"
)

// AbnormalData запись об аномалии в формате серверной части (/data-etable/*)
type AbnormalData struct {
	ID           *int64          `json:"id"`
	SystemName   string          `json:"systemName" conform:"trim"`
	SystemSqName string          `json:"systemSqName" conform:"trim"`
	EName        string          `json:"eName" conform:"trim"`
	EData        json.RawMessage `json:"eData"`
	RequestID    string          `json:"requestId,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
	CreateTime   *string         `json:"createTime"`
}

// AbnormalDataFromRecord формирует запись для сервера из аномалии
func AbnormalDataFromRecord(rec AnomalyRecord, elevatorID string) AbnormalData {
	res := AbnormalData{
		SystemName: rec.SystemName,
		EName:      elevatorID,
	}
	if res.EName == "" {
		res.EName = DefaultElevatorName
	}

	switch rec.Kind {
	case KindParameter:
		res.SystemSqName = rec.ParamName
		res.EData, _ = json.Marshal(rec.ParamValue)
	default:
		if rec.FaultCode != "" {
			res.SystemSqName = rec.FaultCode
			res.EData, _ = json.Marshal(rec.FaultCode)
		} else {
			res.SystemSqName = UnknownComponent
			res.EData = json.RawMessage("0")
		}
	}
	return res
}

// AbnormalQuery параметры постраничного запроса аномалий
type AbnormalQuery struct {
	Current      int    `query:"current"`
	Size         int    `query:"size"`
	ID           int64  `query:"id"`
	SystemName   string `query:"systemName"`
	SystemSqName string `query:"systemSqName"`
}

// AbnormalPage страница аномалий с сервера
type AbnormalPage struct {
	Records []AbnormalData `json:"records"`
	Total   int64          `json:"total"`
	Size    int64          `json:"size"`
	Current int64          `json:"current"`
}

// AIVerdict ответ сервера на запрос диагностики.
// AICode: 0 - предупреждение, 1 - серьёзный отказ
type AIVerdict struct {
	ID           json.RawMessage `json:"id,omitempty"`
	SystemName   string          `json:"systemName"`
	SystemSqName string          `json:"systemSqName"`
	EName        string          `json:"eName"`
	EData        json.RawMessage `json:"eData"`
	AICode       int             `json:"aiCode"`
	AIResult     string          `json:"aiResult"`
	Advice       string          `json:"建议"`
	Message      string          `json:"message"`
}

// Коды вердикта диагностики
const (
	AICodeProcessing = -1
	AICodeWarning    = 0
	AICodeCritical   = 1
)

// SystemInfo краткое описание подсистемы в результате анализа
type SystemInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// AIAnalysis результат анализа для панели
type AIAnalysis struct {
	ID              string     `json:"id"`
	Timestamp       time.Time  `json:"timestamp"`
	SystemID        string     `json:"systemId,omitempty"`
	SystemName      string     `json:"systemName"`
	Severity        string     `json:"severity"`
	Code            int        `json:"code"`
	SystemInfo      SystemInfo `json:"systemInfo"`
	Summary         string     `json:"summary"`
	Details         []string   `json:"details"`
	Recommendations []string   `json:"recommendations"`
	// Результат подставной: сервер недоступен
	Mock bool `json:"mock,omitempty"`
}
