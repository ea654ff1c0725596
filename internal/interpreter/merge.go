package interpreter

import "regexp"

// Change-indication vocabularies. A locked field is only restored when the
// current message gives no sign the user is actively changing that field.
var (
	timeChangeRe   = regexp.MustCompile(`(?i)\b\d{1,2}(:\d{2})?\s*(am|pm)\b|\b\d{1,2}:\d{2}\b|\bo'?clock\b`)
	dateChangeRe   = regexp.MustCompile(`(?i)\b\d{4}-\d{2}-\d{2}\b|\b(january|february|march|april|may|june|july|august|september|october|november|december)\b|\b(today|tomorrow|tonight|next week|next month)\b`)
	titleChangeRe  = regexp.MustCompile(`(?i)\b(call it|called|titled|name it|named|rename)\b|"[^"]{2,}"|“[^”]{2,}”`)
	signupChangeRe = regexp.MustCompile(`(?i)\b(signup|sign[- ]up|rsvp|walk[- ]?in|drop[- ]?in|ticket\w*|register)\b`)
	priceChangeRe  = regexp.MustCompile(`(?i)\bfree\b|\bprice\b|\bcost\b|\bcover\b|\$\d`)
	urlChangeRe    = regexp.MustCompile(`(?i)https?://`)
	typeChangeRe   = regexp.MustCompile(`(?i)\b(open mic|song circle|showcase|workshop|jam session|jam|gig|meetup)\b`)
)

// MergeLockedCreateDraft restores fields the user already confirmed in a prior
// turn that a short clarification reply caused the LLM to drop. Restoration is
// per field group, skipped for any group the message itself is changing.
func MergeLockedCreateDraft(cur, locked Draft, message string) Draft {
	locationChanging := DetectsLocationIntent(message)
	recurrenceChanging := DetectsRecurrenceIntent(message)
	timeslotChanging := DetectsTimeslotIntent(message)

	if !hasText(cur.Title) && hasText(locked.Title) && !titleChangeRe.MatchString(message) {
		cur.Title = locked.Title
	}
	if len(cur.EventType) == 0 && len(locked.EventType) > 0 && !typeChangeRe.MatchString(message) {
		cur.EventType = append([]string(nil), locked.EventType...)
	}

	if !locationChanging {
		cur.VenueID = restoreString(cur.VenueID, locked.VenueID)
		cur.VenueName = restoreString(cur.VenueName, locked.VenueName)
		cur.CustomLocationName = restoreString(cur.CustomLocationName, locked.CustomLocationName)
		cur.CustomAddress = restoreString(cur.CustomAddress, locked.CustomAddress)
		cur.CustomCity = restoreString(cur.CustomCity, locked.CustomCity)
		cur.CustomState = restoreString(cur.CustomState, locked.CustomState)
		cur.OnlineURL = restoreString(cur.OnlineURL, locked.OnlineURL)
		if cur.LocationMode == nil {
			cur.LocationMode = locked.LocationMode
		}
	}

	if !signupChangeRe.MatchString(message) && cur.SignupMode == nil {
		cur.SignupMode = locked.SignupMode
	}

	if !timeslotChanging && cur.HasTimeslots == nil && locked.HasTimeslots != nil {
		cur.HasTimeslots = locked.HasTimeslots
		if cur.TotalSlots == nil {
			cur.TotalSlots = locked.TotalSlots
		}
		if cur.SlotDurationMinutes == nil {
			cur.SlotDurationMinutes = locked.SlotDurationMinutes
		}
		if cur.AllowGuests == nil {
			cur.AllowGuests = locked.AllowGuests
		}
	}

	if !recurrenceChanging && cur.SeriesMode == nil && locked.SeriesMode != nil {
		cur.SeriesMode = locked.SeriesMode
		cur.RecurrenceRule = restoreString(cur.RecurrenceRule, locked.RecurrenceRule)
		cur.DayOfWeek = restoreString(cur.DayOfWeek, locked.DayOfWeek)
		if cur.OccurrenceCount == nil {
			cur.OccurrenceCount = locked.OccurrenceCount
		}
		if cur.MaxOccurrences == nil {
			cur.MaxOccurrences = locked.MaxOccurrences
		}
		if len(cur.CustomDates) == 0 && len(locked.CustomDates) > 0 {
			cur.CustomDates = append([]string(nil), locked.CustomDates...)
		}
	}

	if !dateChangeRe.MatchString(message) {
		cur.StartDate = restoreString(cur.StartDate, locked.StartDate)
	}
	if !timeChangeRe.MatchString(message) {
		cur.StartTime = restoreString(cur.StartTime, locked.StartTime)
		cur.EndTime = restoreString(cur.EndTime, locked.EndTime)
	}
	if cur.IsFree == nil && !priceChangeRe.MatchString(message) {
		cur.IsFree = locked.IsFree
	}
	if !urlChangeRe.MatchString(message) {
		cur.ExternalURL = restoreString(cur.ExternalURL, locked.ExternalURL)
	}

	// A malformed snapshot could reintroduce both location sources; the
	// catalog venue wins, same as the exclusivity stage.
	if hasText(cur.VenueID) && hasText(cur.CustomLocationName) {
		cur.CustomLocationName = nil
		cur.CustomAddress = nil
		cur.CustomCity = nil
		cur.CustomState = nil
	}
	return cur
}

func restoreString(cur, locked *string) *string {
	if hasText(cur) || !hasText(locked) {
		return cur
	}
	return locked
}
