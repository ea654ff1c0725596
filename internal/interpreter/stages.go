package interpreter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// state is the value threaded through the stage list. Stages take it by value
// and return a modified copy; nothing mutates shared memory.
type state struct {
	mode    Mode
	draft   Draft
	dec     Decision
	signals IntentSignals
	catalog []VenueCatalogEntry
	locked  *Draft
	dateCtx *DateKeyContext

	// questionField tracks which field the current clarification question was
	// synthesized for, so the reducer can tell a matching question from a
	// stale one.
	questionField string

	meta RunMetadata
}

type stage struct {
	name string
	fn   func(state) state
}

// stageList is the fixed, load-bearing stage order. Reordering entries changes
// observable behavior; see the pipeline tests before touching it.
func stageList() []stage {
	return []stage{
		{"resolve_venue", resolveVenueStage},
		{"harden_location", hardenLocationStage},
		{"guard_timeslots", guardTimeslotsStage},
		{"guard_recurrence", guardRecurrenceStage},
		{"resolve_time_semantics", timeSemanticsStage},
		{"enforce_location_exclusivity", exclusivityStage},
		{"merge_locked_draft", mergeLockedStage},
		{"synthesize_title", titleFallbackStage},
		{"validate_final", finalValidationStage},
		{"prune_blocking_fields", pruneBlockingStage},
		{"reduce_clarification", reduceClarificationStage},
		{"normalize_terminal", terminalStage},
	}
}

// venueShapedBlockers are blocking-field keys fully satisfied by a custom
// location; they must never coexist with a non-empty custom_location_name.
var venueShapedBlockers = []string{
	"venue_id",
	"venue_name",
	"venue_name_confirmation",
	"venue_id_or_custom_location",
	"custom_address",
	"custom_city",
	"custom_state",
}

func resolveVenueStage(st state) state {
	if !ShouldResolveVenue(st.mode, st.signals.Location, st.draft) {
		return stripRedundantVenueBlockers(st)
	}

	res := ResolveVenue(st.draft, st.catalog)
	st.meta.VenueResolution = resolutionStatus(res)

	switch r := res.(type) {
	case ResolvedVenue:
		st.draft.VenueID = strPtr(r.VenueID)
		st.draft.VenueName = strPtr(r.VenueName)
		if st.draft.LocationMode == nil || *st.draft.LocationMode == LocationOnline {
			st.draft.LocationMode = locPtr(LocationVenue)
		}
	case AmbiguousVenue:
		if st.dec.NextAction != ActionAskClarification {
			st.dec.NextAction = ActionAskClarification
			st.dec.ClarificationQuestion = strPtr(ambiguousVenueQuestion(r))
			st.questionField = "venue_id"
		}
		st.dec.addBlockingField("venue_id")
	case UnresolvedVenue:
		if st.dec.NextAction != ActionAskClarification {
			st.dec.NextAction = ActionAskClarification
			st.dec.ClarificationQuestion = strPtr(unresolvedVenueQuestion(r.InputName))
			st.questionField = "venue_id"
		}
		st.dec.addBlockingField("venue_id")
	case VenueNotApplicable:
		// An explicitly online draft with no join link is missing exactly one
		// thing, and it is not a venue.
		if st.draft.LocationMode != nil && *st.draft.LocationMode == LocationOnline && !hasText(st.draft.OnlineURL) {
			if st.dec.NextAction != ActionAskClarification {
				st.dec.NextAction = ActionAskClarification
				st.dec.ClarificationQuestion = strPtr(missingOnlineURLQuestion)
				st.questionField = "online_url"
			}
			st.dec.addBlockingField("online_url")
		}
	}

	return stripRedundantVenueBlockers(st)
}

func stripRedundantVenueBlockers(st state) state {
	if hasText(st.draft.CustomLocationName) {
		st.dec.removeBlockingFields(venueShapedBlockers...)
	}
	return st
}

func hardenLocationStage(st state) state {
	if st.mode == ModeCreate || st.mode == ModeEditSeries {
		st.draft.LocationMode = normalizeLocationMode(st.draft.LocationMode, st.draft)
		st.draft.SignupMode = NormalizeSignupMode(st.draft.SignupMode)
	}
	if IsGoogleMapsURL(deref(st.draft.ExternalURL)) {
		st.draft.ExternalURL = nil
	}
	// Venue presence is authoritative over any other location signal.
	if hasText(st.draft.VenueID) {
		st.draft.LocationMode = locPtr(LocationVenue)
	}
	return st
}

// normalizeLocationMode keeps a valid current mode; otherwise it falls back to
// "online" when a join link exists and "venue" when it does not.
func normalizeLocationMode(current *LocationMode, d Draft) *LocationMode {
	if current != nil {
		switch *current {
		case LocationVenue, LocationOnline, LocationHybrid:
			return current
		}
	}
	if hasText(d.OnlineURL) {
		return locPtr(LocationOnline)
	}
	return locPtr(LocationVenue)
}

var signupModeVariants = map[string]string{
	SignupRSVP: SignupRSVP, "reserve": SignupRSVP, "reservation": SignupRSVP,
	"sign up": SignupRSVP, "sign-up": SignupRSVP, "signup": SignupRSVP,
	"register": SignupRSVP, "registration": SignupRSVP,

	SignupWalkIn: SignupWalkIn, "walk in": SignupWalkIn, "walk-in": SignupWalkIn,
	"drop in": SignupWalkIn, "drop-in": SignupWalkIn, "no signup": SignupWalkIn,
	"none": SignupWalkIn, "open": SignupWalkIn,

	SignupExternal: SignupExternal, "external link": SignupExternal,
	"tickets": SignupExternal, "ticketed": SignupExternal,
	"ticket link": SignupExternal, "eventbrite": SignupExternal,
}

// NormalizeSignupMode maps free-text signup language onto the canonical enum.
// Unknown values become nil rather than propagating.
func NormalizeSignupMode(raw *string) *string {
	if raw == nil {
		return nil
	}
	if canonical, ok := signupModeVariants[strings.ToLower(strings.TrimSpace(*raw))]; ok {
		return strPtr(canonical)
	}
	return nil
}

var slotCountRe = regexp.MustCompile(`(?i)\b(\d+)\s+(?:performer\s+)?slots?\b`)

const (
	defaultTotalSlots   = 10
	defaultSlotDuration = 10
)

func guardTimeslotsStage(st state) state {
	if st.mode == ModeCreate && st.draft.HasTimeslots != nil && *st.draft.HasTimeslots && !st.signals.Timeslots {
		// No explicit timeslot language anywhere in the conversation: the
		// LLM invented the configuration.
		st.meta.GuardTrips = append(st.meta.GuardTrips, "timeslots")
		st.draft.HasTimeslots = boolPtr(false)
	}

	if st.draft.HasTimeslots != nil && *st.draft.HasTimeslots {
		if st.draft.TotalSlots == nil {
			n := defaultTotalSlots
			if m := slotCountRe.FindStringSubmatch(st.signals.UserText); m != nil {
				if parsed, err := strconv.Atoi(m[1]); err == nil && parsed > 0 {
					n = parsed
				}
			}
			st.draft.TotalSlots = intPtr(n)
		}
		if st.draft.SlotDurationMinutes == nil {
			st.draft.SlotDurationMinutes = intPtr(defaultSlotDuration)
		}
		return st
	}

	st.draft.TotalSlots = nil
	st.draft.SlotDurationMinutes = nil
	if st.draft.HasTimeslots != nil {
		st.draft.AllowGuests = boolPtr(false)
	}
	return st
}

func guardRecurrenceStage(st state) state {
	if st.mode == ModeCreate && st.draft.SeriesMode != nil && *st.draft.SeriesMode != SeriesSingle && !st.signals.Recurrence {
		st.meta.GuardTrips = append(st.meta.GuardTrips, "recurrence")
		st.draft = clearRecurrenceGroup(st.draft)
		return st
	}
	st.draft = CanonicalizeRecurrence(st.draft, st.dateCtx)
	return st
}

func timeSemanticsStage(st state) state {
	if st.mode != ModeCreate && st.mode != ModeEditSeries {
		return st
	}
	doors, show := st.signals.DoorsTime, st.signals.ShowTime
	switch {
	case doors != nil && show != nil:
		// When both concepts appear, the performance time is canonical.
		st.draft.StartTime = strPtr(*show)
	case doors != nil && st.draft.StartTime == nil:
		st.draft.StartTime = strPtr(*doors)
	case show != nil && st.draft.StartTime == nil:
		st.draft.StartTime = strPtr(*show)
	}
	return st
}

func exclusivityStage(st state) state {
	if hasText(st.draft.VenueID) && hasText(st.draft.CustomLocationName) {
		// The catalog-backed venue is the higher-confidence source.
		st.draft.CustomLocationName = nil
		st.draft.CustomAddress = nil
		st.draft.CustomCity = nil
		st.draft.CustomState = nil
	}
	return st
}

func mergeLockedStage(st state) state {
	if st.mode != ModeCreate || st.locked == nil {
		return st
	}
	st.draft = MergeLockedCreateDraft(st.draft, *st.locked, st.signals.Message)
	// A restored online URL or venue id can change the correct fallback.
	st.draft.LocationMode = normalizeLocationMode(st.draft.LocationMode, st.draft)
	if hasText(st.draft.VenueID) {
		st.draft.LocationMode = locPtr(LocationVenue)
	}
	// Restored fields satisfy blockers raised earlier in this run.
	if hasText(st.draft.VenueID) {
		st.dec.removeBlockingFields("venue_id", "venue_name", "venue_name_confirmation", "venue_id_or_custom_location")
	}
	if hasText(st.draft.OnlineURL) {
		st.dec.removeBlockingFields("online_url")
	}
	return stripRedundantVenueBlockers(st)
}

func titleFallbackStage(st state) state {
	if st.mode != ModeCreate || hasText(st.draft.Title) {
		return st
	}
	if title := SynthesizeTitle(st.signals.UserText, st.draft); title != "" {
		st.draft.Title = strPtr(title)
	}
	return st
}

func finalValidationStage(st state) state {
	if st.dec.NextAction == ActionAskClarification {
		return st
	}
	missing := ValidateSanitizedDraft(st.mode, st.draft)
	if len(missing) == 0 {
		return st
	}
	st.dec.NextAction = ActionAskClarification
	st.dec.addBlockingField(missing[0])
	if st.dec.ClarificationQuestion == nil {
		st.dec.ClarificationQuestion = strPtr(fmt.Sprintf("Please provide %s to continue.", fieldLabel(missing[0])))
		st.questionField = missing[0]
	}
	return st
}

func pruneBlockingStage(st state) state {
	st.dec.BlockingFields = PruneOptionalBlockingFields(st.mode, st.dec.BlockingFields)
	if len(st.dec.BlockingFields) == 0 {
		// The terminal normalizer owns the action flip; only the stale
		// question is dropped here.
		st.dec.ClarificationQuestion = nil
		st.questionField = ""
	}
	return st
}

func reduceClarificationStage(st state) state {
	if st.dec.NextAction != ActionAskClarification || len(st.dec.BlockingFields) == 0 {
		return st
	}
	field := ReduceClarificationToSingle(st.dec.BlockingFields)
	st.dec.BlockingFields = []string{field}
	// A question synthesized for a different field is stale; an inherited
	// question with unknown provenance is honored as-is.
	if st.dec.ClarificationQuestion == nil || (st.questionField != "" && st.questionField != field) {
		st.dec.ClarificationQuestion = strPtr(questionForField(field, st.draft))
	}
	st.questionField = field
	return st
}

func terminalStage(st state) state {
	if st.dec.NextAction == ActionAskClarification && len(st.dec.BlockingFields) == 0 {
		st.dec.NextAction = ActionShowPreview
		st.dec.ClarificationQuestion = nil
		st.questionField = ""
	}
	return st
}
