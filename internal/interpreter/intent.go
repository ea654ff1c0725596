package interpreter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IntentSignals is the precomputed summary of what the user actually asked
// for, computed once per run from the current message plus all prior user
// turns. Stages consult it instead of rescanning the conversation themselves,
// which keeps every keyword list in one place.
type IntentSignals struct {
	Recurrence bool
	Timeslots  bool
	Location   bool
	DoorsTime  *string
	ShowTime   *string

	// Message is the current user message; UserText additionally includes all
	// prior user turns, newest last.
	Message  string
	UserText string
}

func DetectIntentSignals(message string, history []ConversationTurn) IntentSignals {
	var sb strings.Builder
	for _, turn := range history {
		if strings.EqualFold(turn.Role, "user") {
			sb.WriteString(turn.Content)
			sb.WriteString("\n")
		}
	}
	sb.WriteString(message)
	userText := sb.String()

	sig := IntentSignals{
		Recurrence: DetectsRecurrenceIntent(userText),
		Timeslots:  DetectsTimeslotIntent(userText),
		Location:   DetectsLocationIntent(userText),
		Message:    message,
		UserText:   userText,
	}
	sig.DoorsTime, sig.ShowTime = ExtractDoorsShowTimes(message)
	return sig
}

var recurrencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(weekly|bi-?weekly|fortnightly|monthly|recurring|recurrence|series)\b`),
	regexp.MustCompile(`(?i)\bevery\s+(day|week|month|other|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	// A plural day name alone carries recurrence intent ("Tuesdays at The Roost").
	regexp.MustCompile(`(?i)\b(mondays|tuesdays|wednesdays|thursdays|fridays|saturdays|sundays)\b`),
	regexp.MustCompile(`(?i)\b(1st|2nd|3rd|4th|5th|first|second|third|fourth|fifth|last)\s+(and\s+(1st|2nd|3rd|4th|5th|first|second|third|fourth|fifth|last)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)s?\b`),
}

// DetectsRecurrenceIntent reports whether the text carries explicit recurring-
// schedule language. The recurrence guard treats LLM-proposed series config as
// hallucinated unless this returns true.
func DetectsRecurrenceIntent(text string) bool {
	for _, re := range recurrencePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var timeslotPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btime\s*-?\s*slots?\b`),
	regexp.MustCompile(`(?i)\bslot\s+duration\b`),
	regexp.MustCompile(`(?i)\blineup\b`),
	regexp.MustCompile(`(?i)\b\d+\s+(performer\s+)?slots?\b`),
	regexp.MustCompile(`(?i)\benable\s+(performer\s+)?slots?\b`),
}

// DetectsTimeslotIntent reports whether the text explicitly asks for
// timeslot-based signup.
func DetectsTimeslotIntent(text string) bool {
	for _, re := range timeslotPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var locationPattern = regexp.MustCompile(
	`(?i)\b(venue|location|address|place|move|moving|relocat\w*|online|virtual|zoom|meet\.google|google meet|in[- ]person|street|avenue|downtown)\b`)

// DetectsLocationIntent reports whether the text mentions anything
// venue/location shaped. Edit turns without it skip venue resolution.
func DetectsLocationIntent(text string) bool {
	return locationPattern.MatchString(text)
}

var (
	doorsTimeRe = regexp.MustCompile(`(?i)\bdoors?\s*(?:open\s*)?(?:at\s*)?(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`)
	showTimeRe  = regexp.MustCompile(`(?i)\b(?:show|performance|music|set)\s*(?:starts?|begins?|at)\s*(?:at\s*)?(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`)
)

// ExtractDoorsShowTimes pulls a "doors" time and a "show starts" time out of
// the message when either phrase sits next to a clock token.
func ExtractDoorsShowTimes(message string) (doors, show *string) {
	if m := doorsTimeRe.FindStringSubmatch(message); m != nil {
		if t, ok := ParseClockTime(m[1]); ok {
			doors = &t
		}
	}
	if m := showTimeRe.FindStringSubmatch(message); m != nil {
		if t, ok := ParseClockTime(m[1]); ok {
			show = &t
		}
	}
	return doors, show
}

var clockTimeRe = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?(?::\d{2})?\s*(am|pm)?$`)

// ParseClockTime normalizes "19:00", "7pm", "7:30 PM" to 24-hour "HH:MM".
// Returns false for anything that is not a plausible clock time.
func ParseClockTime(s string) (string, bool) {
	m := clockTimeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return "", false
	}
	switch strings.ToLower(m[3]) {
	case "am":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		// Bare hours without a meridiem: require a plausible 24h value, and
		// treat small bare numbers ("at 7") as evening times.
		if hour > 23 {
			return "", false
		}
		if m[2] == "" && hour >= 1 && hour <= 6 {
			hour += 12
		}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
