package simulator

import (
	"github.com/kirsrus/liftmon/model"
)

// ParameterSpec описание моделируемого параметра подсистемы
type ParameterSpec struct {
	ID     string
	Name   string
	Unit   string
	Normal string

	// Значение в норме и разброс вокруг него
	Nominal float64
	Spread  float64
	// Значение при выходе за норму
	Anomalous float64
	// Знаков после запятой
	Precision int
}

// SystemSpec описание моделируемой подсистемы
type SystemSpec struct {
	ID          string
	Name        string
	Temperature float64
	FaultCodes  []string
	Parameters  []ParameterSpec
}

// DefaultSystems подсистемы лифта с типовыми параметрами
var DefaultSystems = []SystemSpec{
	{
		ID:          model.SystemTractionID,
		Name:        model.SystemTraction,
		Temperature: 35,
		FaultCodes:  []string{"E-TR-01", "E-TR-02", "E-TR-07"},
		Parameters: []ParameterSpec{
			{ID: model.ParamMotorTemperature, Name: "电机温度", Unit: "°C", Normal: "≤80°C", Nominal: 65, Spread: 5, Anomalous: 90, Precision: 1},
			{ID: model.ParamBearingTemperature, Name: "轴承温度", Unit: "°C", Normal: "≤95°C", Nominal: 60, Spread: 5, Anomalous: 92, Precision: 1},
			{ID: model.ParamVibrationVelocity, Name: "振动速度", Unit: "mm/s", Normal: "≤2.8 mm/s", Nominal: 1.5, Spread: 0.3, Anomalous: 3.5, Precision: 2},
			{ID: model.ParamMotorCurrent, Name: "电流", Unit: "A", Normal: "额定值±10%", Nominal: 18.5, Spread: 0.5, Anomalous: 21, Precision: 2},
			{ID: model.ParamRopeWear, Name: "钢丝绳磨损", Unit: "%", Normal: "≤10%", Nominal: 3, Spread: 0.5, Anomalous: 9, Precision: 1},
			{ID: model.ParamBrokenWires, Name: "断丝数", Unit: "根/股", Normal: "≤5根/股", Nominal: 1, Spread: 0, Anomalous: 7, Precision: 0},
			{ID: model.ParamBrakeGap, Name: "制动间隙", Unit: "mm", Normal: "0.5-1.0 mm", Nominal: 0.75, Spread: 0.1, Anomalous: 1.3, Precision: 2},
		},
	},
	{
		ID:          model.SystemGuidanceID,
		Name:        model.SystemGuidance,
		Temperature: 26,
		FaultCodes:  []string{"E-GD-01", "E-GD-03"},
		Parameters: []ParameterSpec{
			{ID: model.ParamRailVerticality, Name: "导轨垂直度偏差", Unit: "mm/m", Normal: "≤0.5 mm/m", Nominal: 0.2, Spread: 0.05, Anomalous: 0.8, Precision: 2},
			{ID: model.ParamJointGap, Name: "接头间隙", Unit: "mm", Normal: "≤0.5 mm", Nominal: 0.2, Spread: 0.05, Anomalous: 0.48, Precision: 2},
			{ID: model.ParamShoeWear, Name: "导靴磨损量", Unit: "mm", Normal: "≤2 mm", Nominal: 0.8, Spread: 0.2, Anomalous: 2.5, Precision: 2},
		},
	},
	{
		ID:          model.SystemElectricalID,
		Name:        model.SystemElectrical,
		Temperature: 30,
		FaultCodes:  []string{"E-EL-02", "E-EL-05"},
		Parameters: []ParameterSpec{
			{ID: model.ParamControlResponseTime, Name: "控制响应时间", Unit: "秒", Normal: "≤0.5秒", Nominal: 0.2, Spread: 0.05, Anomalous: 0.8, Precision: 2},
			{ID: model.ParamVoltageFluctuation, Name: "电压波动", Unit: "%", Normal: "≤10%", Nominal: 0, Spread: 3, Anomalous: 12, Precision: 1},
			{ID: model.ParamContactVoltageDrop, Name: "触点电压降", Unit: "mV", Normal: "≤50 mV", Nominal: 20, Spread: 5, Anomalous: 80, Precision: 0},
			{ID: model.ParamLoadCurrent, Name: "电流负载", Unit: "%", Normal: "额定值±10%", Nominal: 80, Spread: 5, Anomalous: 110, Precision: 0},
		},
	},
	{
		ID:          model.SystemDoorID,
		Name:        model.SystemDoor,
		Temperature: 25,
		FaultCodes:  []string{"E-DR-04", "E-DR-17"},
		Parameters: []ParameterSpec{
			{ID: model.ParamDoorCycleTime, Name: "开关门时间", Unit: "秒", Normal: "2-3秒", Nominal: 2.5, Spread: 0.2, Anomalous: 3.8, Precision: 1},
			{ID: model.ParamDoorMotorCurrent, Name: "门机电流", Unit: "A", Normal: "额定值±10%", Nominal: 1.2, Spread: 0.05, Anomalous: 1.5, Precision: 2},
			{ID: model.ParamContactResistance, Name: "触点电阻", Unit: "Ω", Normal: "≤0.5 Ω", Nominal: 0.1, Spread: 0.03, Anomalous: 0.7, Precision: 2},
			{ID: model.ParamLockEngagementDepth, Name: "机械闭合深度", Unit: "mm", Normal: "≥7 mm", Nominal: 9, Spread: 0.5, Anomalous: 6.2, Precision: 1},
		},
	},
}

// Snapshot подсистема с номинальными значениями параметров
func (m SystemSpec) Snapshot() model.SystemSnapshot {
	temp := m.Temperature
	res := model.SystemSnapshot{
		ID:          m.ID,
		Name:        m.Name,
		Status:      model.StatusNormal,
		Temperature: &temp,
		Parameters:  make([]model.ParameterReading, 0, len(m.Parameters)),
	}
	for _, v := range m.Parameters {
		res.Parameters = append(res.Parameters, model.ParameterReading{
			ID:     v.ID,
			Name:   v.Name,
			Value:  model.NumberValue(v.Nominal),
			Unit:   v.Unit,
			Normal: v.Normal,
		})
	}
	return res
}

// InitialState начальное состояние лифта: стоит на первом этаже с закрытыми дверями
func InitialState(elevatorID string, floorCount int, systems []SystemSpec) model.ElevatorState {
	res := model.ElevatorState{
		ID:           elevatorID,
		CurrentFloor: 1,
		TargetFloor:  1,
		FloorCount:   floorCount,
		Direction:    model.DirectionStop,
		Status:       model.ElevatorStopped,
		DoorStatus:   model.DoorClosed,
		Temperature:  24,
		Running:      true,
		Systems:      make([]model.SystemSnapshot, 0, len(systems)),
	}
	for _, v := range systems {
		res.Systems = append(res.Systems, v.Snapshot())
	}
	return res
}
