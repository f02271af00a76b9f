package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Состояния подсистемы лифта так, как их передаёт и ожидает серверная часть
const (
	StatusNormal  = "正常"
	StatusWarning = "警告"
	StatusFault   = "故障"
)

// Состояния дверей
const (
	DoorOpen    = "开启"
	DoorOpening = "开启中"
	DoorClosing = "正在关闭"
	DoorClosed  = "关闭"
)

// Направление движения и состояние кабины
const (
	DirectionUp   = "上行"
	DirectionDown = "下行"
	DirectionStop = "停止"

	ElevatorRunning = "运行中"
	ElevatorStopped = "停止"
	ElevatorOpening = "开门中"
)

// Value значение параметра подсистемы. С датчиков оно может прийти как числом, так и строкой,
// поэтому храним исходную форму. Пустое значение (null или отсутствие) не является числом.
type Value struct {
	raw    string
	number float64
	isNum  bool
	set    bool
}

// NumberValue числовое значение
func NumberValue(f float64) Value {
	return Value{number: f, isNum: true, set: true, raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// StringValue строковое значение
func StringValue(s string) Value {
	return Value{raw: s, set: true}
}

// IsEmpty значение не задано
func (m Value) IsEmpty() bool {
	return !m.set
}

// IsNumber значение пришло числом
func (m Value) IsNumber() bool {
	return m.set && m.isNum && !math.IsNaN(m.number) && !math.IsInf(m.number, 0)
}

// Float возвращает числовое представление. Строки, содержащие корректное число, тоже считаются числом.
// Для пустых и нечисловых значений второй результат false.
func (m Value) Float() (float64, bool) {
	if !m.set {
		return 0, false
	}
	if m.isNum {
		return m.number, m.IsNumber()
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m.raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String исходное представление
func (m Value) String() string {
	return m.raw
}

// MarshalJSON сохраняет исходный тип значения
func (m Value) MarshalJSON() ([]byte, error) {
	if !m.set {
		return []byte("null"), nil
	}
	if m.isNum {
		if !m.IsNumber() {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(m.number, 'f', -1, 64)), nil
	}
	return json.Marshal(m.raw)
}

// UnmarshalJSON принимает число, строку или null
func (m *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Value{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = StringValue(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		// Булевы и составные значения храним как строку, числом они не считаются
		*m = StringValue(string(data))
		return nil
	}
	*m = NumberValue(f)
	return nil
}

// ParameterReading показание одного параметра подсистемы
type ParameterReading struct {
	// Стабильный идентификатор параметра (ключ правил)
	ID string `json:"id,omitempty" conform:"trim"`
	// Отображаемое имя
	Name  string `json:"name" conform:"trim"`
	Value Value  `json:"value"`
	Unit  string `json:"unit,omitempty"`
	// Человекочитаемый диапазон нормы: "0.5-1.0", "≤80", "≥7"
	Normal string `json:"normal,omitempty"`
}

// Key ключ правила для параметра. Если идентификатор не задан, он определяется по отображаемому имени
func (m ParameterReading) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return ParameterIDByName(m.Name)
}

// SystemSnapshot состояние одной подсистемы лифта
type SystemSnapshot struct {
	ID          string             `json:"id" validate:"required"`
	Name        string             `json:"name" validate:"required"`
	Status      string             `json:"status"`
	FaultCode   string             `json:"faultCode,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	Parameters  []ParameterReading `json:"parameters"`
}

// IsFault подсистема в состоянии отказа
func (m SystemSnapshot) IsFault() bool {
	return m.Status == StatusFault
}

// Clone глубокая копия
func (m SystemSnapshot) Clone() SystemSnapshot {
	res := m
	if m.Temperature != nil {
		t := *m.Temperature
		res.Temperature = &t
	}
	if m.Parameters != nil {
		res.Parameters = make([]ParameterReading, len(m.Parameters))
		copy(res.Parameters, m.Parameters)
	}
	return res
}

// ElevatorState полное состояние лифта, которое видит панель мониторинга
type ElevatorState struct {
	ID                string           `json:"id"`
	CurrentFloor      int              `json:"currentFloor"`
	TargetFloor       int              `json:"targetFloor"`
	FloorCount        int              `json:"floorCount"`
	Direction         string           `json:"direction"`
	Status            string           `json:"status"`
	DoorStatus        string           `json:"doorStatus"`
	Speed             float64          `json:"speed"`
	LoadWeight        int              `json:"loadWeight"`
	Temperature       float64          `json:"temperature"`
	OperatingHours    float64          `json:"operatingHours"`
	EnergyConsumption float64          `json:"energyConsumption"`
	TotalTrips        int              `json:"totalTrips"`
	Running           bool             `json:"running"`
	Systems           []SystemSnapshot `json:"systems"`
}

// Clone глубокая копия состояния. Классификатор работает только с копиями
func (m ElevatorState) Clone() ElevatorState {
	res := m
	if m.Systems != nil {
		res.Systems = make([]SystemSnapshot, len(m.Systems))
		for i := range m.Systems {
			res.Systems[i] = m.Systems[i].Clone()
		}
	}
	return res
}
