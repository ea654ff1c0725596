package interpreter

import (
	"fmt"
	"strings"
)

const missingOnlineURLQuestion = "It sounds like this event happens online — what link should people use to join?"

func ambiguousVenueQuestion(r AmbiguousVenue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "I found more than one venue matching %q:\n", r.InputName)
	for i, c := range r.Candidates {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c.Name)
	}
	sb.WriteString("Which one did you mean?")
	return sb.String()
}

func unresolvedVenueQuestion(input string) string {
	if strings.TrimSpace(input) == "" {
		return "Where will this take place? Name a venue, an address, or an online link."
	}
	return fmt.Sprintf("I couldn't find %q in the venue list. Is that a venue I should know about, or a custom spot (an address works too)?", input)
}

var fieldLabels = map[string]string{
	"title":          "a title",
	"event_type":     "an event type",
	"venue_id":       "a venue",
	"online_url":     "an online link",
	"custom_address": "an address",
	"start_date":     "a date",
	"start_time":     "a start time",
	"end_time":       "an end time",
	"day_of_week":    "a day of the week",
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return strings.ReplaceAll(field, "_", " ")
}

func questionForField(field string, d Draft) string {
	switch field {
	case "venue_id":
		return unresolvedVenueQuestion(deref(d.VenueName))
	case "online_url":
		return missingOnlineURLQuestion
	case "title":
		return "What should this event be called?"
	case "start_date":
		return "What date is the event (or the first occurrence)?"
	case "start_time":
		return "What time does it start?"
	case "day_of_week":
		return "Which day of the week does this land on?"
	case "event_type":
		return "What kind of event is this — open mic, showcase, workshop, something else?"
	default:
		return fmt.Sprintf("Please provide %s to continue.", fieldLabel(field))
	}
}

// optionalBlockers are fields that must never stall progression: useful to
// have, never worth a clarification round-trip.
var optionalBlockers = map[string]bool{
	"end_time":         true,
	"is_free":          true,
	"external_url":     true,
	"signup_mode":      true,
	"allow_guests":     true,
	"custom_city":      true,
	"custom_state":     true,
	"occurrence_count": true,
	"max_occurrences":  true,
	"description":      true,
}

// PruneOptionalBlockingFields strips optional-only blockers for the modes
// where progression policy applies. Edit-single turns keep whatever the LLM
// raised; a targeted edit asking for an optional field is deliberate.
func PruneOptionalBlockingFields(mode Mode, fields []string) []string {
	if mode != ModeCreate && mode != ModeEditSeries {
		return fields
	}
	kept := fields[:0]
	for _, f := range fields {
		if !optionalBlockers[f] {
			kept = append(kept, f)
		}
	}
	return kept
}

// clarificationPriority ranks blocking fields from most to least structurally
// blocking. Fields not listed fall back to insertion order after these.
var clarificationPriority = []string{
	"venue_id",
	"online_url",
	"custom_address",
	"start_date",
	"start_time",
	"day_of_week",
	"title",
	"event_type",
}

// ReduceClarificationToSingle picks the one field worth asking about. The
// product contract is one question at a time; stacking stage-raised reasons
// into a compound question is never acceptable.
func ReduceClarificationToSingle(fields []string) string {
	for _, p := range clarificationPriority {
		for _, f := range fields {
			if f == p {
				return f
			}
		}
	}
	return fields[0]
}
