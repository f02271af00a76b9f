// Package classifier определяет аномалии в снимке состояния подсистем лифта.
//
// Для каждого параметра сначала ищется именованное правило по идентификатору параметра (два уровня:
// предупреждение и критический). Если правила нет, применяется общий диапазон нормы из самого показания
// ("min-max", "≤X", "≥X"). Общий путь всегда даёт только предупреждение. Отказ подсистемы целиком
// выдаётся отдельной записью независимо от параметров.
package classifier

import (
	"encoding/json"
	"time"

	"github.com/kirsrus/liftmon/model"
)

// Sequence ленивая конечная последовательность аномалий. Перебор прекращается, когда yield вернёт false
type Sequence func(yield func(model.AnomalyRecord) bool)

// Collect собирает последовательность в срез
func (s Sequence) Collect() []model.AnomalyRecord {
	res := make([]model.AnomalyRecord, 0)
	s(func(rec model.AnomalyRecord) bool {
		res = append(res, rec)
		return true
	})
	return res
}

// Classifier классификатор с таблицей именованных правил. Не имеет состояния и побочных эффектов
type Classifier struct {
	rules map[string]Rule
}

// NewClassifier конструктор Classifier. При rules == nil используются DefaultRules
func NewClassifier(rules map[string]Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

var defaultClassifier = NewClassifier(nil)

// Classify классификация правилами по умолчанию
func Classify(elevatorID string, systems []model.SystemSnapshot, ts time.Time) Sequence {
	return defaultClassifier.Classify(elevatorID, systems, ts)
}

// Classify возвращает последовательность аномалий по всем подсистемам на момент ts
func (m *Classifier) Classify(elevatorID string, systems []model.SystemSnapshot, ts time.Time) Sequence {
	return func(yield func(model.AnomalyRecord) bool) {
		for _, system := range systems {
			if system.IsFault() {
				if !yield(m.systemRecord(elevatorID, system, ts)) {
					return
				}
			}
			for _, param := range system.Parameters {
				level, ok := m.Evaluate(param)
				if !ok {
					continue
				}
				rec := model.AnomalyRecord{
					ElevatorID:  elevatorID,
					Timestamp:   ts,
					SystemID:    system.ID,
					SystemName:  system.Name,
					Kind:        model.KindParameter,
					Level:       level,
					ParamID:     param.Key(),
					ParamName:   param.Name,
					ParamValue:  param.Value,
					ParamUnit:   param.Unit,
					NormalRange: param.Normal,
				}
				if !yield(rec) {
					return
				}
			}
		}
	}
}

// Evaluate проверяет одно показание. Второй результат false - аномалии нет или вердикт невозможен
func (m *Classifier) Evaluate(param model.ParameterReading) (model.AnomalyLevel, bool) {
	if rule, ok := m.rules[param.Key()]; ok {
		v, ok := param.Value.Float()
		if !ok {
			return "", false
		}
		return rule.Evaluate(v)
	}

	// Общий диапазон нормы работает только с числовыми значениями
	if param.Normal == "" || !param.Value.IsNumber() {
		return "", false
	}
	spec, ok := ParseRange(param.Normal)
	if !ok {
		return "", false
	}
	v, _ := param.Value.Float()
	if spec.Contains(v) {
		return "", false
	}
	return model.LevelWarning, true
}

func (m *Classifier) systemRecord(elevatorID string, system model.SystemSnapshot, ts time.Time) model.AnomalyRecord {
	rec := model.AnomalyRecord{
		ElevatorID: elevatorID,
		Timestamp:  ts,
		SystemID:   system.ID,
		SystemName: system.Name,
		Kind:       model.KindSystem,
		Level:      model.LevelCritical,
		Status:     system.Status,
		FaultCode:  system.FaultCode,
	}
	if system.Temperature != nil {
		t := *system.Temperature
		rec.Temperature = &t
	}
	if params, err := json.Marshal(system.Parameters); err == nil {
		rec.Parameters = string(params)
	}
	return rec
}
