package interpreter

import (
	"math"
	"strconv"
	"strings"
)

// SanitizeDraftPayload coerces a raw LLM draft payload into a fully-typed
// Draft. Unrecognized keys are dropped; recognized keys with the wrong type
// degrade to nil instead of erroring. It never panics on malformed input.
func SanitizeDraftPayload(mode Mode, payload map[string]any, dateCtx *DateKeyContext) Draft {
	d := Draft{}
	if payload == nil {
		return d
	}

	d.Title = coerceString(payload["title"])
	d.EventType = coerceStringSlice(payload["event_type"])
	d.VenueID = coerceString(payload["venue_id"])
	d.VenueName = coerceString(payload["venue_name"])
	d.CustomLocationName = coerceString(payload["custom_location_name"])
	d.CustomAddress = coerceString(payload["custom_address"])
	d.CustomCity = coerceString(payload["custom_city"])
	d.CustomState = coerceString(payload["custom_state"])
	d.OnlineURL = coerceString(payload["online_url"])
	d.HasTimeslots = coerceBool(payload["has_timeslots"])
	d.TotalSlots = coercePositiveInt(payload["total_slots"])
	d.SlotDurationMinutes = coercePositiveInt(payload["slot_duration_minutes"])
	d.AllowGuests = coerceBool(payload["allow_guests"])
	d.RecurrenceRule = coerceString(payload["recurrence_rule"])
	d.OccurrenceCount = coercePositiveInt(payload["occurrence_count"])
	d.MaxOccurrences = coercePositiveInt(payload["max_occurrences"])
	d.StartTime = coerceClockTime(payload["start_time"])
	d.EndTime = coerceClockTime(payload["end_time"])
	d.IsFree = coerceBool(payload["is_free"])
	d.ExternalURL = coerceString(payload["external_url"])

	if s := coerceString(payload["location_mode"]); s != nil {
		switch LocationMode(strings.ToLower(*s)) {
		case LocationVenue, LocationOnline, LocationHybrid:
			d.LocationMode = locPtr(LocationMode(strings.ToLower(*s)))
		}
	}
	if s := coerceString(payload["series_mode"]); s != nil {
		switch SeriesMode(strings.ToLower(*s)) {
		case SeriesSingle, SeriesWeekly, SeriesBiweekly, SeriesMonthly, SeriesCustom:
			d.SeriesMode = seriesPtr(SeriesMode(strings.ToLower(*s)))
		}
	}
	if s := coerceString(payload["signup_mode"]); s != nil {
		d.SignupMode = strPtr(strings.ToLower(strings.TrimSpace(*s)))
	}
	if s := coerceString(payload["day_of_week"]); s != nil {
		if day, ok := canonicalDay(*s); ok {
			d.DayOfWeek = strPtr(day)
		}
	}
	if s := coerceString(payload["start_date"]); s != nil && IsDateKey(*s) {
		d.StartDate = s
	}
	for _, raw := range coerceStringSlice(payload["custom_dates"]) {
		if IsDateKey(raw) {
			d.CustomDates = append(d.CustomDates, raw)
		}
	}

	_ = mode
	_ = dateCtx
	return d
}

// SanitizeEnvelope normalizes the full LLM response envelope: clamps
// confidence, validates the proposed next action, and sanitizes the draft.
func SanitizeEnvelope(mode Mode, env ResponseEnvelope, dateCtx *DateKeyContext) (Draft, Decision) {
	draft := SanitizeDraftPayload(mode, env.DraftPayload, dateCtx)

	dec := Decision{
		NextAction:   ActionShowPreview,
		Confidence:   clamp01(env.Confidence),
		HumanSummary: strings.TrimSpace(env.HumanSummary),
	}
	if NextAction(env.NextAction) == ActionAskClarification {
		dec.NextAction = ActionAskClarification
	}
	if env.ClarificationQuestion != nil {
		if q := strings.TrimSpace(*env.ClarificationQuestion); q != "" {
			dec.ClarificationQuestion = strPtr(q)
		}
	}
	for _, f := range env.BlockingFields {
		if f = strings.TrimSpace(f); f != "" {
			dec.addBlockingField(f)
		}
	}
	return draft, dec
}

func coerceString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func coerceStringSlice(v any) []string {
	var out []string
	switch vv := v.(type) {
	case []string:
		for _, s := range vv {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range vv {
			if s, ok := e.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func coerceBool(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

// coercePositiveInt accepts JSON numbers (float64 after decoding), native
// ints, and numeric strings. Non-positive and fractional values are dropped.
func coercePositiveInt(v any) *int {
	switch vv := v.(type) {
	case float64:
		if vv > 0 && vv == math.Trunc(vv) {
			n := int(vv)
			return &n
		}
	case int:
		if vv > 0 {
			return &vv
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(vv)); err == nil && n > 0 {
			return &n
		}
	}
	return nil
}

// coerceClockTime keeps values already shaped like HH:MM or HH:MM:SS and
// normalizes simple 12-hour forms ("7pm", "7:30 PM"). Anything else is nil.
func coerceClockTime(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	if t, ok := ParseClockTime(s); ok {
		return &t
	}
	return nil
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
