package interpreter

// Pipeline is the deterministic post-processing pass applied to every LLM
// interpretation before it reaches a user or storage. It is pure: all inputs
// arrive in the Request, no I/O happens, and concurrent runs share nothing.
type Pipeline struct {
	stages []stage
}

func NewPipeline() *Pipeline {
	return &Pipeline{stages: stageList()}
}

// Run executes the full stage list over the sanitized envelope and returns
// the repaired draft plus the final decision state. It never fails: malformed
// input degrades to clarification asks, not errors.
func (p *Pipeline) Run(req Request) Result {
	mode := req.Mode
	if !mode.Valid() {
		mode = ModeCreate
	}

	draft, dec := SanitizeEnvelope(mode, req.Envelope, req.DateContext)

	var locked *Draft
	if mode == ModeCreate && req.LockedDraft != nil {
		l := SanitizeDraftPayload(mode, req.LockedDraft, req.DateContext)
		locked = &l
	}

	st := state{
		mode:    mode,
		draft:   draft,
		dec:     dec,
		signals: DetectIntentSignals(req.Message, req.History),
		catalog: req.Catalog,
		locked:  locked,
		dateCtx: req.DateContext,
	}
	st.meta.StagesExecuted = append(st.meta.StagesExecuted, "sanitize_payload")

	for _, s := range p.stages {
		st = s.fn(st)
		st.meta.StagesExecuted = append(st.meta.StagesExecuted, s.name)
	}

	return Result{
		NextAction:            st.dec.NextAction,
		Confidence:            st.dec.Confidence,
		HumanSummary:          st.dec.HumanSummary,
		ClarificationQuestion: st.dec.ClarificationQuestion,
		BlockingFields:        append([]string(nil), st.dec.BlockingFields...),
		DraftPayload:          st.draft.Clone(),
		QualityHints:          BuildQualityHints(mode, st.draft),
		Metadata:              st.meta,
	}
}

// EnvelopeFromResult converts a prior pipeline result back into a response
// envelope. The replay tool and the idempotence tests use it to feed a
// pipeline its own output.
func EnvelopeFromResult(res Result) ResponseEnvelope {
	return ResponseEnvelope{
		NextAction:            string(res.NextAction),
		Confidence:            res.Confidence,
		HumanSummary:          res.HumanSummary,
		ClarificationQuestion: res.ClarificationQuestion,
		BlockingFields:        append([]string(nil), res.BlockingFields...),
		DraftPayload:          draftToPayload(res.DraftPayload),
	}
}

func draftToPayload(d Draft) map[string]any {
	out := map[string]any{}
	putStr := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	putInt := func(key string, v *int) {
		if v != nil {
			out[key] = float64(*v)
		}
	}
	putBool := func(key string, v *bool) {
		if v != nil {
			out[key] = *v
		}
	}
	putStr("title", d.Title)
	if len(d.EventType) > 0 {
		vals := make([]any, len(d.EventType))
		for i, t := range d.EventType {
			vals[i] = t
		}
		out["event_type"] = vals
	}
	putStr("venue_id", d.VenueID)
	putStr("venue_name", d.VenueName)
	putStr("custom_location_name", d.CustomLocationName)
	putStr("custom_address", d.CustomAddress)
	putStr("custom_city", d.CustomCity)
	putStr("custom_state", d.CustomState)
	if d.LocationMode != nil {
		out["location_mode"] = string(*d.LocationMode)
	}
	putStr("online_url", d.OnlineURL)
	putStr("signup_mode", d.SignupMode)
	putBool("has_timeslots", d.HasTimeslots)
	putInt("total_slots", d.TotalSlots)
	putInt("slot_duration_minutes", d.SlotDurationMinutes)
	putBool("allow_guests", d.AllowGuests)
	if d.SeriesMode != nil {
		out["series_mode"] = string(*d.SeriesMode)
	}
	putStr("recurrence_rule", d.RecurrenceRule)
	putStr("day_of_week", d.DayOfWeek)
	putInt("occurrence_count", d.OccurrenceCount)
	putInt("max_occurrences", d.MaxOccurrences)
	if len(d.CustomDates) > 0 {
		vals := make([]any, len(d.CustomDates))
		for i, t := range d.CustomDates {
			vals[i] = t
		}
		out["custom_dates"] = vals
	}
	putStr("start_date", d.StartDate)
	putStr("start_time", d.StartTime)
	putStr("end_time", d.EndTime)
	putBool("is_free", d.IsFree)
	putStr("external_url", d.ExternalURL)
	return out
}
