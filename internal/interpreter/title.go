package interpreter

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	titleMinLen = 4
	titleMaxLen = 90
)

// titleExtractRe matches a run of capitalized words ending in a known
// event-type phrase ("Thursday Jam Session", "Lantern House Open Mic Night").
var titleExtractRe = regexp.MustCompile(
	`(?:[A-Z][A-Za-z'&-]*\s+){0,5}(?i:open mic(?: night)?|song circle|showcase|workshop|jam session|sing[- ]?along|gig|meetup)`)

var eventTypeLabels = map[string]string{
	"open_mic":    "Open Mic Night",
	"song_circle": "Song Circle",
	"showcase":    "Showcase",
	"workshop":    "Workshop",
	"jam_session": "Jam Session",
	"gig":         "Gig",
	"meetup":      "Meetup",
	"other":       "Community Event",
}

// SynthesizeTitle derives a title for a draft the LLM left untitled. Tier one
// extracts a capitalized event phrase from the conversation; tier two composes
// "<Type Label> at <Venue>" from the draft itself. Returns "" when neither
// tier produces anything usable.
func SynthesizeTitle(userText string, d Draft) string {
	if title := extractTitleFromText(userText); title != "" {
		return title
	}
	return composeFallbackTitle(d)
}

func extractTitleFromText(text string) string {
	match := titleExtractRe.FindString(text)
	match = strings.Trim(match, ` "'“”‘’`)
	match = strings.TrimSpace(match)
	if len(match) < titleMinLen || len(match) > titleMaxLen {
		return ""
	}
	return match
}

func composeFallbackTitle(d Draft) string {
	if len(d.EventType) == 0 {
		return ""
	}
	label, ok := eventTypeLabels[d.EventType[0]]
	if !ok {
		return ""
	}
	if hasText(d.VenueName) {
		return fmt.Sprintf("%s at %s", label, *d.VenueName)
	}
	return label
}
