package interpreter

import (
	"fmt"
	"strings"
	"time"
)

// IsDateKey reports whether s is a canonical YYYY-MM-DD date key.
func IsDateKey(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

var dayNames = map[string]string{
	"mon": "monday", "monday": "monday", "mondays": "monday",
	"tue": "tuesday", "tues": "tuesday", "tuesday": "tuesday", "tuesdays": "tuesday",
	"wed": "wednesday", "weds": "wednesday", "wednesday": "wednesday", "wednesdays": "wednesday",
	"thu": "thursday", "thur": "thursday", "thurs": "thursday", "thursday": "thursday", "thursdays": "thursday",
	"fri": "friday", "friday": "friday", "fridays": "friday",
	"sat": "saturday", "saturday": "saturday", "saturdays": "saturday",
	"sun": "sunday", "sunday": "sunday", "sundays": "sunday",
}

func canonicalDay(s string) (string, bool) {
	day, ok := dayNames[strings.ToLower(strings.TrimSpace(s))]
	return day, ok
}

// clearRecurrenceGroup resets the entire recurrence field group to the
// single-occurrence state. The group always moves together; a partial reset
// leaves an invalid series.
func clearRecurrenceGroup(d Draft) Draft {
	d.SeriesMode = seriesPtr(SeriesSingle)
	d.RecurrenceRule = nil
	d.DayOfWeek = nil
	d.OccurrenceCount = nil
	d.MaxOccurrences = nil
	d.CustomDates = nil
	return d
}

// CanonicalizeRecurrence repairs the recurrence field group of a draft that
// legitimately carries a series mode. A missing day_of_week is derived from
// start_date, the first custom date, or the caller-resolved anchor date, and a
// missing recurrence_rule is synthesized from the series mode plus day.
func CanonicalizeRecurrence(d Draft, dateCtx *DateKeyContext) Draft {
	if d.SeriesMode == nil || *d.SeriesMode == SeriesSingle {
		if d.SeriesMode != nil {
			return clearRecurrenceGroup(d)
		}
		return d
	}

	if d.StartDate == nil && len(d.CustomDates) > 0 {
		d.StartDate = strPtr(d.CustomDates[0])
	}
	if d.DayOfWeek == nil {
		if day, ok := weekdayFromDraft(d, dateCtx); ok {
			d.DayOfWeek = strPtr(day)
		}
	}
	if d.RecurrenceRule == nil {
		d.RecurrenceRule = strPtr(synthesizeRecurrenceRule(*d.SeriesMode, deref(d.DayOfWeek)))
	}
	return d
}

func weekdayFromDraft(d Draft, dateCtx *DateKeyContext) (string, bool) {
	candidates := []string{deref(d.StartDate)}
	if len(d.CustomDates) > 0 {
		candidates = append(candidates, d.CustomDates[0])
	}
	if dateCtx != nil {
		candidates = append(candidates, dateCtx.AnchorDate)
	}
	for _, key := range candidates {
		if key == "" {
			continue
		}
		if t, err := time.Parse("2006-01-02", key); err == nil {
			return strings.ToLower(t.Weekday().String()), true
		}
	}
	return "", false
}

func synthesizeRecurrenceRule(mode SeriesMode, day string) string {
	if day == "" {
		return string(mode)
	}
	return fmt.Sprintf("%s:%s", mode, day)
}
