package tool

import (
	"testing"
	"time"
)

func TestRoundToDate(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{name: "середина дня", in: time.Date(2024, 3, 5, 13, 45, 10, 500, time.UTC), want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "полночь", in: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "конец дня", in: time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), want: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundToDate(tt.in); !got.Equal(tt.want) {
				t.Errorf("RoundToDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateKey(t *testing.T) {
	if got := DateKey(time.Date(2024, 3, 5, 13, 45, 0, 0, time.UTC)); got != "2024.03.05" {
		t.Errorf("DateKey() = %s", got)
	}
}

func TestPeriod(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		days       uint
		offset     uint
		wantStart  time.Time
		wantFinish time.Time
	}{
		{name: "неделя", days: 7, wantStart: time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC), wantFinish: now},
		{name: "со смещением", days: 2, offset: 1, wantStart: time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC), wantFinish: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)},
		{name: "пустой период", days: 0, wantStart: now, wantFinish: now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, finish := Period(now, tt.days, tt.offset)
			if !start.Equal(tt.wantStart) || !finish.Equal(tt.wantFinish) {
				t.Errorf("Period() = %v - %v, want %v - %v", start, finish, tt.wantStart, tt.wantFinish)
			}
		})
	}
}
