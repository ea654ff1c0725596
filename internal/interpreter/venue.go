package interpreter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// VenueResolution is the outcome of matching draft location text against the
// venue catalog. It is a sealed sum type so stage code switching on it is
// exhaustiveness-checked by the compiler.
type VenueResolution interface {
	isVenueResolution()
}

// ResolvedVenue means exactly one catalog venue matched.
type ResolvedVenue struct {
	VenueID   string
	VenueName string
}

// AmbiguousVenue means several catalog venues matched; Candidates preserve
// catalog order.
type AmbiguousVenue struct {
	InputName  string
	Candidates []VenueCatalogEntry
}

// UnresolvedVenue means nothing in the catalog matched the input.
type UnresolvedVenue struct {
	InputName string
}

// VenueNotApplicable means the draft explicitly describes an online or custom
// location, so catalog matching does not apply.
type VenueNotApplicable struct{}

func (ResolvedVenue) isVenueResolution()      {}
func (AmbiguousVenue) isVenueResolution()     {}
func (UnresolvedVenue) isVenueResolution()    {}
func (VenueNotApplicable) isVenueResolution() {}

func resolutionStatus(r VenueResolution) string {
	switch r.(type) {
	case ResolvedVenue:
		return "resolved"
	case AmbiguousVenue:
		return "ambiguous"
	case UnresolvedVenue:
		return "unresolved"
	default:
		return "not_applicable"
	}
}

// ShouldResolveVenue gates venue resolution. Outside create mode, an edit turn
// that never mentions location and a draft that carries no location fields
// skip resolution entirely so unrelated edits do not churn clarifications.
func ShouldResolveVenue(mode Mode, hasLocationIntent bool, d Draft) bool {
	if mode == ModeCreate {
		return true
	}
	if hasLocationIntent {
		return true
	}
	return hasText(d.VenueID) || hasText(d.VenueName) || hasText(d.CustomLocationName) ||
		hasText(d.OnlineURL) || d.LocationMode != nil
}

// ResolveVenue matches the draft's location fields against the catalog.
//
// Priority: an exact venue_id match wins outright; an explicit online/custom
// location short-circuits to not-applicable; otherwise the venue (or custom
// location) name is matched by normalized equality and then by substring
// containment.
func ResolveVenue(d Draft, catalog []VenueCatalogEntry) VenueResolution {
	if id := deref(d.VenueID); id != "" {
		for _, entry := range catalog {
			if entry.ID == id {
				return ResolvedVenue{VenueID: entry.ID, VenueName: entry.Name}
			}
		}
	}

	if mode := d.LocationMode; mode != nil && *mode == LocationOnline {
		return VenueNotApplicable{}
	}
	if hasText(d.CustomLocationName) && !hasText(d.VenueName) {
		return VenueNotApplicable{}
	}
	if IsOnlinePlatformURL(deref(d.OnlineURL)) && !hasText(d.VenueName) {
		return VenueNotApplicable{}
	}

	input := deref(d.VenueName)
	if input == "" {
		input = deref(d.CustomLocationName)
	}
	needle := NormalizeVenueName(input)
	if needle == "" {
		return UnresolvedVenue{InputName: input}
	}

	var exact, fuzzy []VenueCatalogEntry
	for _, entry := range catalog {
		hay := NormalizeVenueName(entry.Name)
		switch {
		case hay == needle:
			exact = append(exact, entry)
		case len(needle) >= 3 && (strings.Contains(hay, needle) || strings.Contains(needle, hay)):
			fuzzy = append(fuzzy, entry)
		}
	}
	matches := exact
	if len(matches) == 0 {
		matches = fuzzy
	}
	switch len(matches) {
	case 0:
		return UnresolvedVenue{InputName: input}
	case 1:
		return ResolvedVenue{VenueID: matches[0].ID, VenueName: matches[0].Name}
	default:
		return AmbiguousVenue{InputName: input, Candidates: matches}
	}
}

var venuePunctRe = regexp.MustCompile(`[^a-z0-9 ]+`)
var venueSpaceRe = regexp.MustCompile(`\s+`)

var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeVenueName lowercases, strips diacritics and punctuation, and
// collapses whitespace so "Café Río!" and "cafe rio" compare equal.
func NormalizeVenueName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = venuePunctRe.ReplaceAllString(s, " ")
	s = venueSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var onlinePlatformRe = regexp.MustCompile(
	`(?i)(zoom\.us|meet\.google\.com|teams\.microsoft\.com|youtube\.com|youtu\.be|twitch\.tv|discord\.gg|discord\.com)`)

// IsOnlinePlatformURL recognizes URLs of known streaming/meeting platforms.
func IsOnlinePlatformURL(url string) bool {
	return url != "" && onlinePlatformRe.MatchString(url)
}

var mapsURLRe = regexp.MustCompile(
	`(?i)(maps\.google\.|google\.[a-z.]+/maps|goo\.gl/maps|maps\.app\.goo\.gl)`)

// IsGoogleMapsURL recognizes Google-Maps-shaped URLs; these never belong in
// external_url (that channel is reserved for non-map links).
func IsGoogleMapsURL(url string) bool {
	return url != "" && mapsURLRe.MatchString(url)
}
