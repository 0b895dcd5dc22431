package form

import (
	"errors"
	"testing"
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
)

func TestBuildPayloadAllDayRoundTrip(t *testing.T) {
	f := EventForm{
		Title:     "Inventur",
		StartDate: "2025-03-10",
		EndDate:   "2025-03-10",
		AllDay:    true,
	}
	draft, err := BuildPayload(f, "c1", domain.LevelWrite)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	wantStart := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	wantEnd := time.Date(2025, time.March, 10, 23, 59, 59, 0, time.Local)
	if !draft.StartTime.Equal(wantStart) {
		t.Fatalf("start = %s, want %s", draft.StartTime, wantStart)
	}
	if !draft.EndTime.Equal(wantEnd) {
		t.Fatalf("end = %s, want %s", draft.EndTime, wantEnd)
	}
	if !draft.AllDay {
		t.Fatal("all-day flag lost")
	}
}

func TestBuildPayloadTimedAssembly(t *testing.T) {
	f := EventForm{
		Title:     "Teambesprechung",
		StartDate: "2025-03-10",
		StartTime: "09:30",
		EndDate:   "2025-03-10",
		EndTime:   "10:15",
		Location:  "  Offizin ",
	}
	draft, err := BuildPayload(f, "c1", domain.LevelWrite)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if draft.StartTime.Hour() != 9 || draft.StartTime.Minute() != 30 {
		t.Fatalf("start = %s", draft.StartTime)
	}
	if draft.EndTime.Hour() != 10 || draft.EndTime.Minute() != 15 {
		t.Fatalf("end = %s", draft.EndTime)
	}
	if draft.Location != "Offizin" {
		t.Fatalf("location = %q, want trimmed", draft.Location)
	}
}

func TestBuildPayloadRejections(t *testing.T) {
	valid := EventForm{
		Title:     "Termin",
		StartDate: "2025-03-10",
		StartTime: "09:00",
		EndDate:   "2025-03-10",
		EndTime:   "10:00",
	}

	cases := []struct {
		name       string
		mutate     func(*EventForm)
		calendarID string
		level      domain.Level
	}{
		{"empty title", func(f *EventForm) { f.Title = "   " }, "c1", domain.LevelWrite},
		{"read-only calendar", nil, "c1", domain.LevelRead},
		{"no access", nil, "c1", domain.LevelNone},
		{"aggregate view", nil, domain.AggregateCalendarID, domain.LevelWrite},
		{"end before start", func(f *EventForm) { f.EndTime = "08:00" }, "c1", domain.LevelWrite},
		{"end date before start date", func(f *EventForm) { f.EndDate = "2025-03-09" }, "c1", domain.LevelWrite},
		{"missing start date", func(f *EventForm) { f.StartDate = "" }, "c1", domain.LevelWrite},
		{"garbage date", func(f *EventForm) { f.StartDate = "10.03.2025" }, "c1", domain.LevelWrite},
		{"missing times", func(f *EventForm) { f.StartTime = "" }, "c1", domain.LevelWrite},
	}
	for _, tc := range cases {
		f := valid
		if tc.mutate != nil {
			tc.mutate(&f)
		}
		if _, err := BuildPayload(f, tc.calendarID, tc.level); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: err = %v, want validation error", tc.name, err)
		}
	}
}

func TestBuildPayloadAllDayIgnoresClockFields(t *testing.T) {
	f := EventForm{
		Title:     "Notdienst",
		StartDate: "2025-03-10",
		StartTime: "14:00",
		EndDate:   "2025-03-11",
		EndTime:   "08:00",
		AllDay:    true,
	}
	draft, err := BuildPayload(f, "c1", domain.LevelWrite)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if draft.StartTime.Hour() != 0 || draft.EndTime.Hour() != 23 {
		t.Fatalf("all-day span = %s..%s", draft.StartTime, draft.EndTime)
	}
}

func TestFormFromEventRoundTrip(t *testing.T) {
	e := domain.Event{
		ID:         "e1",
		CalendarID: "c1",
		Title:      "Schulung",
		StartTime:  time.Date(2025, time.March, 10, 9, 30, 0, 0, time.Local),
		EndTime:    time.Date(2025, time.March, 10, 11, 0, 0, 0, time.Local),
		Location:   "Labor",
	}
	f := FormFromEvent(e)
	draft, err := BuildPayload(f, "c1", domain.LevelWrite)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if !draft.StartTime.Equal(e.StartTime) || !draft.EndTime.Equal(e.EndTime) {
		t.Fatalf("round trip changed times: %s..%s", draft.StartTime, draft.EndTime)
	}
	if draft.Title != e.Title || draft.Location != e.Location {
		t.Fatal("round trip changed fields")
	}
}

func TestNewEventFormPrefill(t *testing.T) {
	now := func() time.Time { return time.Date(2025, time.March, 10, 9, 5, 0, 0, time.Local) }
	f := NewEventForm(time.Time{}, now)
	if f.StartDate != "2025-03-10" || f.EndDate != "2025-03-10" {
		t.Fatalf("prefill dates = %s..%s", f.StartDate, f.EndDate)
	}
	if f.StartTime != "09:05" {
		t.Fatalf("prefill time = %s", f.StartTime)
	}

	clicked := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.Local)
	f = NewEventForm(clicked, now)
	if f.StartDate != "2025-04-01" {
		t.Fatalf("clicked prefill = %s", f.StartDate)
	}
}
