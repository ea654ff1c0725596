package interpreter

import (
	"reflect"
	"strings"
	"testing"
)

var testCatalog = []VenueCatalogEntry{
	{ID: "v-bluemoon", Name: "Blue Moon Lounge"},
	{ID: "v-roost-dt", Name: "The Roost Downtown"},
	{ID: "v-roost-up", Name: "The Roost Uptown"},
	{ID: "v-skylark", Name: "Skylark"},
}

func runCreate(t *testing.T, message string, payload map[string]any) Result {
	t.Helper()
	return NewPipeline().Run(Request{
		Mode:     ModeCreate,
		Envelope: ResponseEnvelope{NextAction: "show_preview", Confidence: 0.9, DraftPayload: payload},
		Message:  message,
		Catalog:  testCatalog,
	})
}

func TestScenarioRecurrenceDayNameCountsAsIntent(t *testing.T) {
	res := runCreate(t, "Open mic Tuesdays at Skylark", map[string]any{
		"title":       "Skylark Open Mic",
		"venue_name":  "Skylark",
		"series_mode": "weekly",
		"start_date":  "2025-06-03",
		"start_time":  "19:00",
	})
	if res.DraftPayload.SeriesMode == nil || *res.DraftPayload.SeriesMode != SeriesWeekly {
		t.Fatalf("series_mode = %v, want weekly", res.DraftPayload.SeriesMode)
	}
	if got := deref(res.DraftPayload.DayOfWeek); got != "tuesday" {
		t.Fatalf("day_of_week = %q, want tuesday (derived from start_date)", got)
	}
	if got := deref(res.DraftPayload.RecurrenceRule); got != "weekly:tuesday" {
		t.Fatalf("recurrence_rule = %q", got)
	}
	if res.NextAction != ActionShowPreview {
		t.Fatalf("next_action = %s, blocking = %v", res.NextAction, res.BlockingFields)
	}
}

func TestScenarioAmbiguousVenueAsksNumberedQuestion(t *testing.T) {
	res := runCreate(t, "Move the open mic to The Roost", map[string]any{
		"title":      "Open Mic Night",
		"venue_name": "The Roost",
		"start_date": "2025-06-03",
		"start_time": "19:00",
	})
	if res.NextAction != ActionAskClarification {
		t.Fatalf("next_action = %s, want ask_clarification", res.NextAction)
	}
	if !reflect.DeepEqual(res.BlockingFields, []string{"venue_id"}) {
		t.Fatalf("blocking_fields = %v", res.BlockingFields)
	}
	q := deref(res.ClarificationQuestion)
	if !strings.Contains(q, "1. The Roost Downtown") || !strings.Contains(q, "2. The Roost Uptown") {
		t.Fatalf("question missing numbered candidates: %q", q)
	}
	if res.Metadata.VenueResolution != "ambiguous" {
		t.Fatalf("venue resolution = %q", res.Metadata.VenueResolution)
	}
}

func TestScenarioCustomLocationStripsVenueBlockers(t *testing.T) {
	res := NewPipeline().Run(Request{
		Mode: ModeCreate,
		Envelope: ResponseEnvelope{
			NextAction:     "ask_clarification",
			BlockingFields: []string{"venue_id", "custom_address"},
			DraftPayload: map[string]any{
				"title":                "Backyard Song Circle",
				"custom_location_name": "Jane's backyard",
				"start_date":           "2025-07-04",
				"start_time":           "18:00",
			},
		},
		Message: "song circle at Jane's backyard",
		Catalog: testCatalog,
	})
	for _, f := range res.BlockingFields {
		if f == "venue_id" || f == "custom_address" {
			t.Fatalf("venue-shaped blocker %q survived a custom location", f)
		}
	}
	if res.NextAction != ActionShowPreview {
		t.Fatalf("next_action = %s, blocking = %v", res.NextAction, res.BlockingFields)
	}
	if res.ClarificationQuestion != nil {
		t.Fatalf("clarification question should be nil, got %q", *res.ClarificationQuestion)
	}
}

func TestScenarioHallucinatedTimeslotsSuppressed(t *testing.T) {
	res := runCreate(t, "sign up for the open mic at Skylark", map[string]any{
		"title":                 "Skylark Open Mic",
		"venue_name":            "Skylark",
		"start_date":            "2025-06-03",
		"start_time":            "19:00",
		"has_timeslots":         true,
		"total_slots":           12,
		"slot_duration_minutes": 8,
		"allow_guests":          true,
	})
	d := res.DraftPayload
	if d.HasTimeslots == nil || *d.HasTimeslots {
		t.Fatalf("has_timeslots = %v, want false", d.HasTimeslots)
	}
	if d.TotalSlots != nil || d.SlotDurationMinutes != nil {
		t.Fatalf("slot fields should be nil, got %v/%v", d.TotalSlots, d.SlotDurationMinutes)
	}
	if d.AllowGuests == nil || *d.AllowGuests {
		t.Fatalf("allow_guests = %v, want false", d.AllowGuests)
	}
	if len(res.Metadata.GuardTrips) == 0 || res.Metadata.GuardTrips[0] != "timeslots" {
		t.Fatalf("guard trips = %v", res.Metadata.GuardTrips)
	}
}

func TestScenarioTitleExtractedFromMessage(t *testing.T) {
	res := runCreate(t, "RSVP for the Thursday Jam Session at Blue Moon Lounge", map[string]any{
		"event_type": []any{"jam_session"},
		"venue_name": "Blue Moon Lounge",
		"start_date": "2025-06-05",
		"start_time": "20:00",
	})
	if got := deref(res.DraftPayload.Title); got != "Thursday Jam Session" {
		t.Fatalf("title = %q, want extracted phrase", got)
	}
}

func TestTitleFallsBackToTypeAndVenue(t *testing.T) {
	res := runCreate(t, "something casual next month maybe", map[string]any{
		"event_type": []any{"open_mic"},
		"venue_name": "Skylark",
		"start_date": "2025-06-03",
		"start_time": "19:00",
	})
	if got := deref(res.DraftPayload.Title); got != "Open Mic Night at Skylark" {
		t.Fatalf("title = %q", got)
	}
}

func TestExplicitRecurrenceKeptAndInventedRecurrenceReset(t *testing.T) {
	res := runCreate(t, "one-off showcase at Skylark", map[string]any{
		"title":            "Showcase",
		"venue_name":       "Skylark",
		"start_date":       "2025-06-03",
		"start_time":       "19:00",
		"series_mode":      "weekly",
		"recurrence_rule":  "weekly:tuesday",
		"day_of_week":      "tuesday",
		"occurrence_count": 10,
	})
	d := res.DraftPayload
	if d.SeriesMode == nil || *d.SeriesMode != SeriesSingle {
		t.Fatalf("series_mode = %v, want single after guard", d.SeriesMode)
	}
	if d.RecurrenceRule != nil || d.DayOfWeek != nil || d.OccurrenceCount != nil || d.MaxOccurrences != nil || d.CustomDates != nil {
		t.Fatalf("recurrence group not atomically cleared: %+v", d)
	}
}

func TestDoorsVersusShowTimePrefersPerformance(t *testing.T) {
	res := runCreate(t, "Doors at 7pm, show starts at 8pm at Skylark", map[string]any{
		"title":      "Skylark Showcase",
		"venue_name": "Skylark",
		"start_date": "2025-06-03",
		"start_time": "19:00",
	})
	if got := deref(res.DraftPayload.StartTime); got != "20:00" {
		t.Fatalf("start_time = %q, want 20:00 (performance time)", got)
	}
}

func TestVenueWinsOverCustomLocation(t *testing.T) {
	res := runCreate(t, "open mic at Skylark", map[string]any{
		"title":                "Open Mic",
		"venue_id":             "v-skylark",
		"custom_location_name": "someone's garage",
		"custom_address":       "123 Main St",
		"start_date":           "2025-06-03",
		"start_time":           "19:00",
	})
	d := res.DraftPayload
	if !hasText(d.VenueID) {
		t.Fatal("venue_id should survive")
	}
	if d.CustomLocationName != nil || d.CustomAddress != nil || d.CustomCity != nil || d.CustomState != nil {
		t.Fatalf("custom location fields should be cleared: %+v", d)
	}
}

func TestGoogleMapsURLNeverStoredInExternalURL(t *testing.T) {
	res := runCreate(t, "open mic at Skylark", map[string]any{
		"title":        "Open Mic",
		"venue_name":   "Skylark",
		"start_date":   "2025-06-03",
		"start_time":   "19:00",
		"external_url": "https://maps.google.com/?q=skylark",
	})
	if res.DraftPayload.ExternalURL != nil {
		t.Fatalf("external_url = %q, want nil", *res.DraftPayload.ExternalURL)
	}
}

func TestMissingRequiredFieldForcesSingleClarification(t *testing.T) {
	res := runCreate(t, "let's do a thing", map[string]any{})
	if res.NextAction != ActionAskClarification {
		t.Fatalf("next_action = %s", res.NextAction)
	}
	if len(res.BlockingFields) != 1 {
		t.Fatalf("want exactly one blocking field, got %v", res.BlockingFields)
	}
	if res.BlockingFields[0] != "venue_id" {
		t.Fatalf("priority should pick venue_id first, got %v", res.BlockingFields)
	}
	if res.ClarificationQuestion == nil {
		t.Fatal("clarification question missing")
	}
}

func TestOnlineEventMissingLinkAsksForURL(t *testing.T) {
	res := runCreate(t, "virtual song circle on zoom", map[string]any{
		"title":         "Virtual Song Circle",
		"location_mode": "online",
		"start_date":    "2025-06-03",
		"start_time":    "19:00",
	})
	if res.NextAction != ActionAskClarification {
		t.Fatalf("next_action = %s", res.NextAction)
	}
	if !reflect.DeepEqual(res.BlockingFields, []string{"online_url"}) {
		t.Fatalf("blocking_fields = %v, want [online_url]", res.BlockingFields)
	}
}

func TestEmptyBlockerClarificationResolvesToPreview(t *testing.T) {
	res := NewPipeline().Run(Request{
		Mode: ModeCreate,
		Envelope: ResponseEnvelope{
			NextAction:            "ask_clarification",
			ClarificationQuestion: strPtr("Is the event free?"),
			BlockingFields:        []string{"is_free", "end_time"},
			DraftPayload: map[string]any{
				"title":      "Open Mic",
				"venue_name": "Skylark",
				"start_date": "2025-06-03",
				"start_time": "19:00",
			},
		},
		Message: "open mic at Skylark",
		Catalog: testCatalog,
	})
	if res.NextAction != ActionShowPreview {
		t.Fatalf("next_action = %s, want show_preview", res.NextAction)
	}
	if res.ClarificationQuestion != nil {
		t.Fatalf("question = %q, want nil", *res.ClarificationQuestion)
	}
	if len(res.BlockingFields) != 0 {
		t.Fatalf("blocking_fields = %v", res.BlockingFields)
	}
}

func TestLockedDraftRestoredOnShortReply(t *testing.T) {
	locked := map[string]any{
		"title":       "Skylark Open Mic",
		"venue_id":    "v-skylark",
		"venue_name":  "Skylark",
		"start_date":  "2025-06-03",
		"start_time":  "19:00",
		"series_mode": "single",
	}
	res := NewPipeline().Run(Request{
		Mode:        ModeCreate,
		Envelope:    ResponseEnvelope{NextAction: "show_preview", DraftPayload: map[string]any{"is_free": true}},
		Message:     "yes",
		Catalog:     testCatalog,
		LockedDraft: locked,
	})
	d := res.DraftPayload
	if deref(d.Title) != "Skylark Open Mic" || deref(d.VenueID) != "v-skylark" {
		t.Fatalf("locked fields not restored: %+v", d)
	}
	if deref(d.StartDate) != "2025-06-03" || deref(d.StartTime) != "19:00" {
		t.Fatalf("locked date/time not restored: %+v", d)
	}
	if d.IsFree == nil || !*d.IsFree {
		t.Fatal("fresh field from the current turn was lost")
	}
	if res.NextAction != ActionShowPreview {
		t.Fatalf("next_action = %s, blocking = %v", res.NextAction, res.BlockingFields)
	}
}

func TestLockedVenueNotRestoredWhenMessageNamesNewVenue(t *testing.T) {
	locked := map[string]any{
		"venue_id":   "v-skylark",
		"venue_name": "Skylark",
	}
	res := NewPipeline().Run(Request{
		Mode:        ModeCreate,
		Envelope:    ResponseEnvelope{NextAction: "show_preview", DraftPayload: map[string]any{"title": "Open Mic", "venue_name": "Blue Moon Lounge", "start_date": "2025-06-03", "start_time": "19:00"}},
		Message:     "actually move it to the Blue Moon Lounge venue",
		Catalog:     testCatalog,
		LockedDraft: locked,
	})
	if got := deref(res.DraftPayload.VenueID); got != "v-bluemoon" {
		t.Fatalf("venue_id = %q, want the new venue", got)
	}
}

func TestPipelineIdempotentOnOwnOutput(t *testing.T) {
	cases := []Request{
		{
			Mode:     ModeCreate,
			Envelope: ResponseEnvelope{NextAction: "show_preview", Confidence: 0.8, DraftPayload: map[string]any{"title": "Open Mic", "venue_name": "Skylark", "start_date": "2025-06-03", "start_time": "19:00", "signup_mode": "sign up"}},
			Message:  "weekly open mic Tuesdays at Skylark, doors 7pm show at 8pm",
			Catalog:  testCatalog,
		},
		{
			Mode:     ModeCreate,
			Envelope: ResponseEnvelope{NextAction: "show_preview", DraftPayload: map[string]any{"venue_name": "The Roost"}},
			Message:  "open mic at The Roost",
			Catalog:  testCatalog,
		},
		{
			Mode:     ModeCreate,
			Envelope: ResponseEnvelope{NextAction: "show_preview", DraftPayload: map[string]any{}},
			Message:  "hmm",
			Catalog:  testCatalog,
		},
	}
	p := NewPipeline()
	for i, req := range cases {
		first := p.Run(req)
		again := req
		again.Envelope = EnvelopeFromResult(first)
		second := p.Run(again)

		if !reflect.DeepEqual(first.DraftPayload, second.DraftPayload) {
			t.Fatalf("case %d: draft changed on second run:\n first = %+v\nsecond = %+v", i, first.DraftPayload, second.DraftPayload)
		}
		if first.NextAction != second.NextAction ||
			!reflect.DeepEqual(first.BlockingFields, second.BlockingFields) ||
			!reflect.DeepEqual(first.ClarificationQuestion, second.ClarificationQuestion) {
			t.Fatalf("case %d: decision changed on second run:\n first = %+v %v %v\nsecond = %+v %v %v",
				i, first.NextAction, first.BlockingFields, first.ClarificationQuestion,
				second.NextAction, second.BlockingFields, second.ClarificationQuestion)
		}
	}
}

func TestInvariantsHoldAcrossHostileInputs(t *testing.T) {
	payloads := []map[string]any{
		{"venue_id": "v-skylark", "custom_location_name": "garage", "series_mode": "weekly"},
		{"series_mode": "monthly", "day_of_week": 7, "recurrence_rule": 12},
		{"has_timeslots": true, "total_slots": "lots"},
		{"title": 42, "event_type": "open_mic", "start_date": "June 3rd"},
		{"location_mode": "teleport", "online_url": ""},
		nil,
	}
	p := NewPipeline()
	for i, payload := range payloads {
		res := p.Run(Request{
			Mode:     ModeCreate,
			Envelope: ResponseEnvelope{NextAction: "nonsense", Confidence: 7, DraftPayload: payload},
			Message:  "do the thing",
			Catalog:  testCatalog,
		})
		d := res.DraftPayload

		if hasText(d.VenueID) && hasText(d.CustomLocationName) {
			t.Fatalf("payload %d: venue_id and custom_location_name both set", i)
		}
		if d.SeriesMode != nil && *d.SeriesMode == SeriesSingle {
			if d.RecurrenceRule != nil || d.DayOfWeek != nil || d.OccurrenceCount != nil || d.MaxOccurrences != nil || d.CustomDates != nil {
				t.Fatalf("payload %d: partial recurrence group on single series", i)
			}
		}
		if d.HasTimeslots != nil && *d.HasTimeslots && (d.TotalSlots == nil || d.SlotDurationMinutes == nil) {
			t.Fatalf("payload %d: has_timeslots without slot config", i)
		}
		if res.NextAction == ActionAskClarification {
			if len(res.BlockingFields) != 1 {
				t.Fatalf("payload %d: ask_clarification with %d blocking fields", i, len(res.BlockingFields))
			}
			if res.ClarificationQuestion == nil {
				t.Fatalf("payload %d: ask_clarification without a question", i)
			}
		} else if res.ClarificationQuestion != nil {
			t.Fatalf("payload %d: show_preview carries a question", i)
		}
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Fatalf("payload %d: confidence %f out of range", i, res.Confidence)
		}
	}
}

func TestEditTurnWithoutLocationLanguageSkipsVenueChurn(t *testing.T) {
	res := NewPipeline().Run(Request{
		Mode:     ModeEditSingle,
		Envelope: ResponseEnvelope{NextAction: "show_preview", DraftPayload: map[string]any{"start_time": "21:00"}},
		Message:  "push the start back to 9pm",
		Catalog:  testCatalog,
	})
	if res.NextAction != ActionShowPreview {
		t.Fatalf("next_action = %s, blocking = %v", res.NextAction, res.BlockingFields)
	}
	if res.Metadata.VenueResolution != "" {
		t.Fatalf("venue resolution ran on an unrelated edit: %q", res.Metadata.VenueResolution)
	}
}
