package model

// Идентификаторы подсистем и их отображаемые имена
const (
	SystemTractionID   = "sys-001"
	SystemGuidanceID   = "sys-002"
	SystemElectricalID = "sys-003"
	SystemDoorID       = "sys-004"

	SystemTraction   = "曳引系统"
	SystemGuidance   = "导向系统"
	SystemElectrical = "电气控制系统"
	SystemDoor       = "门系统"
)

// Типы подсистем в запросах симуляции
const (
	SystemTypeTraction   = "traction"
	SystemTypeGuidance   = "guidance"
	SystemTypeElectrical = "electrical"
	SystemTypeDoor       = "door"
)

var systemNames = map[string]string{
	SystemTypeTraction:   SystemTraction,
	SystemTypeGuidance:   SystemGuidance,
	SystemTypeElectrical: SystemElectrical,
	SystemTypeDoor:       SystemDoor,
}

// SystemNameByType имя подсистемы по её типу. Если тип неизвестен, значение возвращается как есть
func SystemNameByType(systemType string) string {
	if name, ok := systemNames[systemType]; ok {
		return name
	}
	return systemType
}

var systemIDs = map[string]string{
	SystemTraction:   SystemTractionID,
	SystemGuidance:   SystemGuidanceID,
	SystemElectrical: SystemElectricalID,
	SystemDoor:       SystemDoorID,
}

// SystemIDByName идентификатор подсистемы по её имени. Неизвестные имена относятся к тяговой системе
func SystemIDByName(name string) string {
	if id, ok := systemIDs[name]; ok {
		return id
	}
	return SystemTractionID
}

// Идентификаторы параметров, по которым работают именованные правила
const (
	ParamMotorTemperature    = "motor_temperature"
	ParamBearingTemperature  = "bearing_temperature"
	ParamVibrationVelocity   = "vibration_velocity"
	ParamMotorCurrent        = "motor_current"
	ParamRopeWear            = "rope_wear"
	ParamBrokenWires         = "broken_wires"
	ParamBrakeGap            = "brake_gap"
	ParamRailVerticality     = "rail_verticality"
	ParamJointGap            = "joint_gap"
	ParamShoeWear            = "shoe_wear"
	ParamVoltageFluctuation  = "voltage_fluctuation"
	ParamLoadCurrent         = "load_current"
	ParamContactVoltageDrop  = "contact_voltage_drop"
	ParamControlResponseTime = "control_response_time"
	ParamContactResistance   = "contact_resistance"
	ParamLockEngagementDepth = "lock_engagement_depth"
	ParamDoorCycleTime       = "door_cycle_time"
	ParamDoorMotorCurrent    = "door_motor_current"
)

// Отображаемые имена параметров в том виде, как их показывает панель и присылает сервер
var parameterIDs = map[string]string{
	"电机温度":    ParamMotorTemperature,
	"轴承温度":    ParamBearingTemperature,
	"振动速度":    ParamVibrationVelocity,
	"电流":      ParamMotorCurrent,
	"钢丝绳磨损":   ParamRopeWear,
	"断丝数":     ParamBrokenWires,
	"制动间隙":    ParamBrakeGap,
	"导轨垂直度偏差": ParamRailVerticality,
	"接头间隙":    ParamJointGap,
	"导靴磨损量":   ParamShoeWear,
	"电压波动":    ParamVoltageFluctuation,
	"电流负载":    ParamLoadCurrent,
	"触点电压降":   ParamContactVoltageDrop,
	"控制响应时间":  ParamControlResponseTime,
	"触点电阻":    ParamContactResistance,
	"机械闭合深度":  ParamLockEngagementDepth,
	"开关门时间":   ParamDoorCycleTime,
	"门机电流":    ParamDoorMotorCurrent,
}

// ParameterIDByName идентификатор параметра по отображаемому имени. Для неизвестных имён пустая строка
func ParameterIDByName(name string) string {
	return parameterIDs[name]
}

// ParameterNameByID отображаемое имя по идентификатору
func ParameterNameByID(id string) string {
	for name, v := range parameterIDs {
		if v == id {
			return name
		}
	}
	return ""
}
