package interpreter

import (
	"strings"
	"testing"
)

func TestBuildQualityHints(t *testing.T) {
	hints := BuildQualityHints(ModeCreate, Draft{Title: strPtr("Open Mic")})
	fields := map[string]bool{}
	for _, h := range hints {
		fields[h.Field] = true
	}
	for _, want := range []string{"end_time", "is_free", "event_type", "signup_mode"} {
		if !fields[want] {
			t.Errorf("missing hint for %s, got %v", want, hints)
		}
	}

	full := Draft{
		Title:      strPtr("Open Mic"),
		EventType:  []string{"open_mic"},
		EndTime:    strPtr("22:00"),
		IsFree:     boolPtr(true),
		SignupMode: strPtr(SignupWalkIn),
	}
	if hints := BuildQualityHints(ModeCreate, full); len(hints) != 0 {
		t.Errorf("complete draft should produce no hints, got %v", hints)
	}

	long := strings.Repeat("Very Long Title ", 5)
	hints = BuildQualityHints(ModeCreate, Draft{Title: strPtr(long), EventType: []string{"gig"},
		EndTime: strPtr("22:00"), IsFree: boolPtr(true), SignupMode: strPtr(SignupRSVP)})
	if len(hints) != 1 || hints[0].Field != "title" {
		t.Errorf("long title hint = %v", hints)
	}

	if hints := BuildQualityHints(ModeEditSingle, Draft{}); hints != nil {
		t.Errorf("edit_single should produce no hints, got %v", hints)
	}
}
