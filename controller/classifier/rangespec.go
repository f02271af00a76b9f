package classifier

import (
	"regexp"
	"strconv"
	"strings"
)

// Ведущее число в строке диапазона. Единицы измерения после числа игнорируются
var reLeadingNumber = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)`)

// RangeSpec разобранный диапазон нормы
type RangeSpec struct {
	Min    float64
	Max    float64
	HasMin bool
	HasMax bool
}

// Contains значение в норме
func (m RangeSpec) Contains(v float64) bool {
	if m.HasMin && v < m.Min {
		return false
	}
	if m.HasMax && v > m.Max {
		return false
	}
	return true
}

// ParseRange разбирает диапазон вида "min-max", "≤X" или "≥X". Второй результат false, если строка
// не распознана: такой диапазон не даёт вердикта
func ParseRange(spec string) (RangeSpec, bool) {
	s := strings.TrimSpace(spec)
	switch {
	case s == "":
		return RangeSpec{}, false
	case strings.HasPrefix(s, "≤"):
		max, ok := leadingNumber(strings.TrimPrefix(s, "≤"))
		if !ok {
			return RangeSpec{}, false
		}
		return RangeSpec{Max: max, HasMax: true}, true
	case strings.HasPrefix(s, "≥"):
		min, ok := leadingNumber(strings.TrimPrefix(s, "≥"))
		if !ok {
			return RangeSpec{}, false
		}
		return RangeSpec{Min: min, HasMin: true}, true
	}

	// Первый символ может быть знаком минимума, разделитель ищем после него
	idx := strings.Index(s[1:], "-")
	if idx < 0 {
		return RangeSpec{}, false
	}
	idx++
	min, ok := leadingNumber(s[:idx])
	if !ok {
		return RangeSpec{}, false
	}
	max, ok := leadingNumber(s[idx+1:])
	if !ok {
		return RangeSpec{}, false
	}
	return RangeSpec{Min: min, Max: max, HasMin: true, HasMax: true}, true
}

func leadingNumber(s string) (float64, bool) {
	match := reLeadingNumber.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
