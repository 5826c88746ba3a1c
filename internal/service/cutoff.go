package service

import (
	"fmt"
	"time"
)

// CutoffScheduler вычисляет дневной cut-off момент обработки заказов.
// Локальное время стены авторитетно: на датах перехода на летнее время
// итоговый instant сдвигается вместе со смещением зоны.
type CutoffScheduler struct {
	timeOfDay string // "HH:mm" (24ч)
	timezone  string // IANA id, напр. "America/New_York"
}

// NewCutoffScheduler создает новый CutoffScheduler
func NewCutoffScheduler(timeOfDay, timezone string) *CutoffScheduler {
	return &CutoffScheduler{
		timeOfDay: timeOfDay,
		timezone:  timezone,
	}
}

// TodayCutoff возвращает сегодняшний cut-off в UTC для момента now.
// Ошибки парсинга времени или зоны возвращаются вызывающему: по контракту
// создания заказа они не фатальны, поле просто остается пустым
func (c *CutoffScheduler) TodayCutoff(now time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", c.timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("cutoff: failed to parse time %q: %w", c.timeOfDay, err)
	}

	loc, err := time.LoadLocation(c.timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("cutoff: failed to load timezone %q: %w", c.timezone, err)
	}

	localNow := now.In(loc)
	cutoff := time.Date(localNow.Year(), localNow.Month(), localNow.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, loc)

	return cutoff.UTC(), nil
}
