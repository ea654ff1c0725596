package interpreter

// Mode selects which interpretation flow a request belongs to. Create flows
// carry the full draft contract; edit flows only repair what the user touched.
type Mode string

const (
	ModeCreate     Mode = "create"
	ModeEditSingle Mode = "edit_single"
	ModeEditSeries Mode = "edit_series"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeCreate, ModeEditSingle, ModeEditSeries:
		return true
	}
	return false
}

type NextAction string

const (
	ActionShowPreview      NextAction = "show_preview"
	ActionAskClarification NextAction = "ask_clarification"
)

type LocationMode string

const (
	LocationVenue  LocationMode = "venue"
	LocationOnline LocationMode = "online"
	LocationHybrid LocationMode = "hybrid"
)

type SeriesMode string

const (
	SeriesSingle   SeriesMode = "single"
	SeriesWeekly   SeriesMode = "weekly"
	SeriesBiweekly SeriesMode = "biweekly"
	SeriesMonthly  SeriesMode = "monthly"
	SeriesCustom   SeriesMode = "custom"
)

// Canonical signup modes. normalizeSignupMode maps free-text variants onto
// these; anything it cannot place becomes nil.
const (
	SignupRSVP     = "rsvp"
	SignupWalkIn   = "walk_in"
	SignupExternal = "external"
)

// Draft is the event payload under repair. Optional scalars are pointers so a
// missing field is distinguishable from a zero value; the sanitizer guarantees
// every field is either nil or well-typed.
type Draft struct {
	Title               *string      `json:"title"`
	EventType           []string     `json:"event_type"`
	VenueID             *string      `json:"venue_id"`
	VenueName           *string      `json:"venue_name"`
	CustomLocationName  *string      `json:"custom_location_name"`
	CustomAddress       *string      `json:"custom_address"`
	CustomCity          *string      `json:"custom_city"`
	CustomState         *string      `json:"custom_state"`
	LocationMode        *LocationMode `json:"location_mode"`
	OnlineURL           *string      `json:"online_url"`
	SignupMode          *string      `json:"signup_mode"`
	HasTimeslots        *bool        `json:"has_timeslots"`
	TotalSlots          *int         `json:"total_slots"`
	SlotDurationMinutes *int         `json:"slot_duration_minutes"`
	AllowGuests         *bool        `json:"allow_guests"`
	SeriesMode          *SeriesMode  `json:"series_mode"`
	RecurrenceRule      *string      `json:"recurrence_rule"`
	DayOfWeek           *string      `json:"day_of_week"`
	OccurrenceCount     *int         `json:"occurrence_count"`
	MaxOccurrences      *int         `json:"max_occurrences"`
	CustomDates         []string     `json:"custom_dates"`
	StartDate           *string      `json:"start_date"`
	StartTime           *string      `json:"start_time"`
	EndTime             *string      `json:"end_time"`
	IsFree              *bool        `json:"is_free"`
	ExternalURL         *string      `json:"external_url"`
}

// Clone returns a deep copy. Stages operate on values, but slices would
// otherwise alias between pipeline input and output.
func (d Draft) Clone() Draft {
	out := d
	if d.EventType != nil {
		out.EventType = append([]string(nil), d.EventType...)
	}
	if d.CustomDates != nil {
		out.CustomDates = append([]string(nil), d.CustomDates...)
	}
	return out
}

// Decision is the running next-action state threaded through the stages.
// BlockingFields preserves insertion order; the clarification reducer relies
// on that order for tie-breaks.
type Decision struct {
	NextAction            NextAction `json:"next_action"`
	Confidence            float64    `json:"confidence"`
	HumanSummary          string     `json:"human_summary"`
	ClarificationQuestion *string    `json:"clarification_question"`
	BlockingFields        []string   `json:"blocking_fields"`
}

func (dec Decision) Clone() Decision {
	out := dec
	if dec.BlockingFields != nil {
		out.BlockingFields = append([]string(nil), dec.BlockingFields...)
	}
	return out
}

func (dec *Decision) addBlockingField(field string) {
	for _, f := range dec.BlockingFields {
		if f == field {
			return
		}
	}
	dec.BlockingFields = append(dec.BlockingFields, field)
}

func (dec *Decision) removeBlockingFields(fields ...string) {
	drop := map[string]bool{}
	for _, f := range fields {
		drop[f] = true
	}
	kept := dec.BlockingFields[:0]
	for _, f := range dec.BlockingFields {
		if !drop[f] {
			kept = append(kept, f)
		}
	}
	dec.BlockingFields = kept
}

// VenueCatalogEntry is one catalog venue, supplied per request and immutable
// within a run.
type VenueCatalogEntry struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug,omitempty" db:"slug"`
}

// ConversationTurn is one prior message in the interpret conversation.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DateKeyContext carries the anchor date (YYYY-MM-DD) the caller resolved for
// this conversation, used when recurrence canonicalization needs a weekday and
// the draft has no usable start date.
type DateKeyContext struct {
	AnchorDate string `json:"anchor_date"`
}

// ResponseEnvelope is the shape the upstream LLM proposes. It is untrusted:
// any field may be missing, mistyped, or internally inconsistent.
type ResponseEnvelope struct {
	NextAction            string         `json:"next_action"`
	Confidence            float64        `json:"confidence"`
	HumanSummary          string         `json:"human_summary"`
	ClarificationQuestion *string        `json:"clarification_question"`
	BlockingFields        []string       `json:"blocking_fields"`
	DraftPayload          map[string]any `json:"draft_payload"`
}

// Request bundles everything one pipeline run consumes. All inputs are passed
// in; the pipeline reads no global state and performs no I/O.
type Request struct {
	Mode         Mode
	Envelope     ResponseEnvelope
	Message      string
	History      []ConversationTurn
	Catalog      []VenueCatalogEntry
	LockedDraft  map[string]any
	DateContext  *DateKeyContext
}

// QualityHint is an advisory, non-blocking completeness nudge for the UI.
type QualityHint struct {
	Field string `json:"field"`
	Hint  string `json:"hint"`
}

// RunMetadata records what the pipeline did; deterministic for a given input.
type RunMetadata struct {
	StagesExecuted  []string `json:"stages_executed"`
	VenueResolution string   `json:"venue_resolution,omitempty"`
	GuardTrips      []string `json:"guard_trips,omitempty"`
}

// Result is the full pipeline output returned to the route handler.
type Result struct {
	NextAction            NextAction    `json:"next_action"`
	Confidence            float64       `json:"confidence"`
	HumanSummary          string        `json:"human_summary"`
	ClarificationQuestion *string       `json:"clarification_question"`
	BlockingFields        []string      `json:"blocking_fields"`
	DraftPayload          Draft         `json:"draft_payload"`
	QualityHints          []QualityHint `json:"quality_hints"`
	Metadata              RunMetadata   `json:"metadata"`
}

func strPtr(s string) *string          { return &s }
func boolPtr(b bool) *bool             { return &b }
func intPtr(n int) *int                { return &n }
func locPtr(m LocationMode) *LocationMode { return &m }
func seriesPtr(m SeriesMode) *SeriesMode  { return &m }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func hasText(s *string) bool {
	return s != nil && *s != ""
}
