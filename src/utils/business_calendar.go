package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"

	"trend-pulse/src/logger"
)

// BusinessCalendar decides which days count for timing recommendations.
// A zero-value calendar treats every day as a business day in the
// location of the time it is given.
type BusinessCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// NewBusinessCalendar loads the exchange calendar for a MIC such as "xnys".
// An empty MIC disables calendar filtering. An unknown MIC falls back to
// a Mon-Fri calendar in UTC.
func NewBusinessCalendar(mic string, log *logger.Logger) *BusinessCalendar {
	mic = strings.ToLower(strings.TrimSpace(mic))
	if mic == "" {
		return &BusinessCalendar{}
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		if log != nil {
			log.Warning("Failed to load calendar for MIC '%s'. Using Mon-Fri fallback in UTC.", mic)
		}
		return &BusinessCalendar{Fallback: true, Timezone: time.UTC}
	}

	return &BusinessCalendar{Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

// Local converts t into the calendar's timezone when one is set.
func (bc *BusinessCalendar) Local(t time.Time) time.Time {
	if bc == nil || bc.Timezone == nil {
		return t
	}
	return t.In(bc.Timezone)
}

// -----------------------------------------------------------------------------

func (bc *BusinessCalendar) IsBusinessDay(t time.Time) bool {
	if bc == nil {
		return true
	}
	t = bc.Local(t)

	if bc.Fallback {
		weekday := t.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	if bc.Calendar == nil {
		return true
	}
	return bc.Calendar.IsBusinessDay(t)
}

// -----------------------------------------------------------------------------

// InHourWindow reports whether t falls in [startHour, endHour) local time
// on a business day. endHour may be 24. A start after the end wraps past
// midnight; the business day is the one t falls on.
func (bc *BusinessCalendar) InHourWindow(t time.Time, startHour, endHour int) bool {
	if !bc.IsBusinessDay(t) {
		return false
	}
	hour := bc.Local(t).Hour()
	if startHour <= endHour {
		return hour >= startHour && hour < endHour
	}
	return hour >= startHour || hour < endHour
}
