package classifier

import (
	"math"

	"github.com/kirsrus/liftmon/model"
)

// RuleKind способ сравнения значения с порогами
type RuleKind int

const (
	// RuleUpper аномалия при превышении порога
	RuleUpper RuleKind = iota
	// RuleLower аномалия при значении ниже порога
	RuleLower
	// RuleDeviation аномалия при отклонении от уставки по модулю
	RuleDeviation
	// RuleWindow аномалия вне окна [Low, High]. Критический уровень только по верхнему порогу
	RuleWindow
)

// Rule двухуровневое правило параметра: предупреждение и критический уровень
type Rule struct {
	Kind     RuleKind
	Warning  float64
	Critical float64
	// Уставка для RuleDeviation
	Setpoint float64
	// Окно нормы для RuleWindow
	Low  float64
	High float64
}

// Evaluate проверяет значение. Второй результат false, если значение в норме
func (m Rule) Evaluate(v float64) (model.AnomalyLevel, bool) {
	var anomaly, critical bool
	switch m.Kind {
	case RuleUpper:
		anomaly = v > m.Warning
		critical = v > m.Critical
	case RuleLower:
		anomaly = v < m.Warning
		critical = v < m.Critical
	case RuleDeviation:
		d := math.Abs(v - m.Setpoint)
		anomaly = d > m.Warning
		critical = d > m.Critical
	case RuleWindow:
		anomaly = v < m.Low || v > m.High
		critical = v > m.Critical
	default:
		return "", false
	}
	if !anomaly {
		return "", false
	}
	if critical {
		return model.LevelCritical, true
	}
	return model.LevelWarning, true
}

// Upper правило превышения
func Upper(warning, critical float64) Rule {
	return Rule{Kind: RuleUpper, Warning: warning, Critical: critical}
}

// Lower правило занижения
func Lower(warning, critical float64) Rule {
	return Rule{Kind: RuleLower, Warning: warning, Critical: critical}
}

// Deviation правило отклонения от уставки
func Deviation(setpoint, warning, critical float64) Rule {
	return Rule{Kind: RuleDeviation, Setpoint: setpoint, Warning: warning, Critical: critical}
}

// Window правило окна нормы
func Window(low, high, critical float64) Rule {
	return Rule{Kind: RuleWindow, Low: low, High: high, Critical: critical}
}

// DefaultRules именованные правила по идентификаторам параметров
var DefaultRules = map[string]Rule{
	// Тяговая система
	model.ParamMotorTemperature:   Upper(80, 95),
	model.ParamBearingTemperature: Upper(85, 95),
	model.ParamVibrationVelocity:  Upper(2.8, 4.5),
	model.ParamMotorCurrent:       Deviation(18.5, 1.85, 2.775),
	model.ParamRopeWear:           Upper(8, 10),
	model.ParamBrokenWires:        Upper(5, 8),
	model.ParamBrakeGap:           Window(0.5, 1.0, 1.5),

	// Направляющие
	model.ParamRailVerticality: Upper(0.5, 1.0),
	model.ParamJointGap:        Upper(0.45, 0.5),
	model.ParamShoeWear:        Upper(2, 3),

	// Электрика
	model.ParamVoltageFluctuation:  Deviation(0, 10, 15),
	model.ParamLoadCurrent:         Upper(100, 120),
	model.ParamContactVoltageDrop:  Upper(50, 100),
	model.ParamControlResponseTime: Upper(0.5, 1.0),

	// Двери
	model.ParamContactResistance:   Upper(0.5, 1.0),
	model.ParamLockEngagementDepth: Lower(7, 5),
	model.ParamDoorCycleTime:       Window(2, 3, 5),
}
