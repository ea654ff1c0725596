package interpreter

// BuildQualityHints produces the advisory side channel: soft completeness
// nudges the UI may surface, never part of the blocking-field contract.
func BuildQualityHints(mode Mode, d Draft) []QualityHint {
	if mode != ModeCreate && mode != ModeEditSeries {
		return nil
	}
	var hints []QualityHint
	if !hasText(d.EndTime) {
		hints = append(hints, QualityHint{Field: "end_time", Hint: "No end time set; listings read better with one."})
	}
	if d.IsFree == nil {
		hints = append(hints, QualityHint{Field: "is_free", Hint: "Say whether the event is free — attendees ask."})
	}
	if len(d.EventType) == 0 {
		hints = append(hints, QualityHint{Field: "event_type", Hint: "Tagging an event type helps people find this."})
	}
	if d.SignupMode == nil {
		hints = append(hints, QualityHint{Field: "signup_mode", Hint: "How do people sign up? RSVP, walk-in, or an external link."})
	}
	if hasText(d.Title) && len(*d.Title) > 70 {
		hints = append(hints, QualityHint{Field: "title", Hint: "That title is quite long; shorter titles display better."})
	}
	return hints
}
