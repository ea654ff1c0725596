package interpreter

import (
	"reflect"
	"testing"
)

func TestValidateSanitizedDraft(t *testing.T) {
	complete := Draft{
		Title:     strPtr("Open Mic"),
		VenueID:   strPtr("v1"),
		StartDate: strPtr("2025-06-03"),
		StartTime: strPtr("19:00"),
	}

	cases := []struct {
		name string
		mode Mode
		d    Draft
		want []string
	}{
		{"complete create", ModeCreate, complete, nil},
		{"empty create", ModeCreate, Draft{},
			[]string{"venue_id", "start_date", "start_time", "title"}},
		{"weekly without day", ModeCreate, Draft{
			Title: strPtr("T"), VenueID: strPtr("v1"), StartDate: strPtr("2025-06-03"),
			StartTime: strPtr("19:00"), SeriesMode: seriesPtr(SeriesWeekly),
		}, []string{"day_of_week"}},
		{"custom without dates", ModeCreate, Draft{
			Title: strPtr("T"), VenueID: strPtr("v1"), StartDate: strPtr("2025-06-03"),
			StartTime: strPtr("19:00"), SeriesMode: seriesPtr(SeriesCustom),
		}, []string{"custom_dates"}},
		{"online with url", ModeCreate, Draft{
			Title: strPtr("T"), LocationMode: locPtr(LocationOnline), OnlineURL: strPtr("https://zoom.us/j/1"),
			StartDate: strPtr("2025-06-03"), StartTime: strPtr("19:00"),
		}, nil},
		{"online without url", ModeCreate, Draft{
			Title: strPtr("T"), LocationMode: locPtr(LocationOnline),
			StartDate: strPtr("2025-06-03"), StartTime: strPtr("19:00"),
		}, []string{"online_url"}},
		{"hybrid without url", ModeCreate, Draft{
			Title: strPtr("T"), LocationMode: locPtr(LocationHybrid),
			StartDate: strPtr("2025-06-03"), StartTime: strPtr("19:00"),
		}, []string{"online_url"}},
		{"custom location satisfies location", ModeCreate, Draft{
			Title: strPtr("T"), CustomLocationName: strPtr("Jane's backyard"),
			StartDate: strPtr("2025-06-03"), StartTime: strPtr("19:00"),
		}, nil},
		{"edit requires nothing", ModeEditSingle, Draft{}, nil},
		{"series edit requires nothing", ModeEditSeries, Draft{}, nil},
	}
	for _, tc := range cases {
		if got := ValidateSanitizedDraft(tc.mode, tc.d); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("%s: missing = %v, want %v", tc.name, got, tc.want)
		}
	}
}
