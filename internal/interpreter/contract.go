package interpreter

// ValidateSanitizedDraft re-checks a fully-processed draft against the
// mode-specific required-field rules and returns the missing field keys in
// stable order. Edit turns are partial by design and require nothing.
func ValidateSanitizedDraft(mode Mode, d Draft) []string {
	if mode != ModeCreate {
		return nil
	}

	var missing []string
	if field, ok := missingLocationField(d); ok {
		missing = append(missing, field)
	}
	if !hasText(d.StartDate) {
		missing = append(missing, "start_date")
	}
	if !hasText(d.StartTime) {
		missing = append(missing, "start_time")
	}
	if d.SeriesMode != nil {
		switch *d.SeriesMode {
		case SeriesWeekly, SeriesBiweekly, SeriesMonthly:
			// Ordinal monthly and weekly rules are meaningless without an
			// explicit day.
			if !hasText(d.DayOfWeek) {
				missing = append(missing, "day_of_week")
			}
		case SeriesCustom:
			if len(d.CustomDates) == 0 {
				missing = append(missing, "custom_dates")
			}
		}
	}
	if !hasText(d.Title) {
		missing = append(missing, "title")
	}
	return missing
}

// missingLocationField reports which single field would satisfy the location
// requirement, when it is not already satisfied.
func missingLocationField(d Draft) (string, bool) {
	if hasText(d.VenueID) || hasText(d.CustomLocationName) {
		return "", false
	}
	if d.LocationMode != nil {
		switch *d.LocationMode {
		case LocationOnline:
			if hasText(d.OnlineURL) {
				return "", false
			}
			return "online_url", true
		case LocationHybrid:
			if hasText(d.OnlineURL) {
				return "", false
			}
			return "online_url", true
		}
	}
	return "venue_id", true
}
