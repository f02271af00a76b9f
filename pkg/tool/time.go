// Package tool мелкие вспомогательные функции для работы с датами журнала
package tool

import "time"

// DateLayout формат ключа суток в сводках
const DateLayout = "2006.01.02"

// RoundToDate округляет дату в t до круглого дня
func RoundToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateKey ключ суток, к которым относится t
func DateKey(t time.Time) string {
	return RoundToDate(t).Format(DateLayout)
}

// Period отсчитывает от now период в days дней со смещением offset дней назад.
// Возвращается начало периода в startDate и его конец в finishDate
func Period(now time.Time, days uint, offset uint) (startDate, finishDate time.Time) {
	finishDate = now.Add(-(time.Duration(offset) * time.Hour * 24))
	startDate = finishDate.Add(-(time.Duration(days) * time.Hour * 24))
	return startDate, finishDate
}
