package natsadapter

import (
	"testing"

	"github.com/samirrijal/poimap/internal/core/domain"
)

func TestSubject(t *testing.T) {
	tests := []struct {
		event domain.POIEvent
		want  string
	}{
		{domain.POIEvent{Category: "coffee", Action: domain.ActionCreated}, "poi.events.coffee.created"},
		{domain.POIEvent{Category: " Gasstation ", Action: domain.ActionUpdated}, "poi.events.gasstation.updated"},
		{domain.POIEvent{Category: "", Action: domain.ActionDeleted}, "poi.events.other.deleted"},
		{domain.POIEvent{Category: "fast food.*", Action: domain.ActionCreated}, "poi.events.fast_food__.created"},
		{domain.POIEvent{Category: "café", Action: ""}, "poi.events.caf_.unknown"},
	}
	for _, tt := range tests {
		if got := Subject(&tt.event); got != tt.want {
			t.Errorf("Subject(%+v) = %q, want %q", tt.event, got, tt.want)
		}
	}
}

func TestCategorySubject(t *testing.T) {
	if got := CategorySubject("Coffee"); got != "poi.events.coffee.>" {
		t.Errorf("CategorySubject = %q", got)
	}
	if got := CategorySubject(""); got != "poi.events.other.>" {
		t.Errorf("CategorySubject(\"\") = %q", got)
	}
}
