package roster

import (
	"context"
	"errors"
	"testing"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/store"
)

func newTestSyncer(t *testing.T) (*Syncer, *store.SQLite) {
	t.Helper()
	st, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return NewSyncer(st, "system", nil), st
}

func rosterEvents(t *testing.T, st *store.SQLite) []domain.Event {
	t.Helper()
	cal, err := st.GetCalendarByName(context.Background(), DefaultCalendarName)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("get roster calendar: %v", err)
	}
	events, err := st.ListEvents(context.Background(), store.EventFilter{CalendarID: cal.ID})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	return events
}

func TestApplyCreatesCalendarAndEvent(t *testing.T) {
	s, st := newTestSyncer(t)
	ctx := context.Background()

	if err := s.Apply(ctx, "2025-06-07", "staff-1", "Müller"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	cal, err := st.GetCalendarByName(ctx, DefaultCalendarName)
	if err != nil {
		t.Fatalf("roster calendar missing: %v", err)
	}
	if cal.OwnerID != "system" {
		t.Fatalf("owner = %q, want system", cal.OwnerID)
	}

	events := rosterEvents(t, st)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Title != "Bereitschaft: Müller" {
		t.Fatalf("title = %q", e.Title)
	}
	if !e.AllDay {
		t.Fatal("roster event must be all-day")
	}
	if e.ExternalID != "notdienst_2025-06-07" || e.ExternalSource != DefaultSource {
		t.Fatalf("external keying = %q/%q", e.ExternalID, e.ExternalSource)
	}
	if e.StartDate() != "2025-06-07" {
		t.Fatalf("start date = %s", e.StartDate())
	}
}

func TestApplyReplacesAssignmentForSameDay(t *testing.T) {
	s, st := newTestSyncer(t)
	ctx := context.Background()

	if err := s.Apply(ctx, "2025-06-07", "staff-1", "Müller"); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(ctx, "2025-06-07", "staff-2", "Schmidt"); err != nil {
		t.Fatal(err)
	}

	events := rosterEvents(t, st)
	if len(events) != 1 {
		t.Fatalf("events = %d, reassignment must not duplicate", len(events))
	}
	if events[0].Title != "Bereitschaft: Schmidt" {
		t.Fatalf("title = %q after reassignment", events[0].Title)
	}
}

func TestApplyEmptyAssignmentDeletes(t *testing.T) {
	s, st := newTestSyncer(t)
	ctx := context.Background()

	if err := s.Apply(ctx, "2025-06-07", "staff-1", "Müller"); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(ctx, "2025-06-07", "", ""); err != nil {
		t.Fatalf("clearing apply: %v", err)
	}
	if events := rosterEvents(t, st); len(events) != 0 {
		t.Fatalf("events = %d after clear, want 0", len(events))
	}

	// Clearing a day that never had an assignment is a no-op.
	if err := s.Apply(ctx, "2025-06-08", "", ""); err != nil {
		t.Fatalf("clearing empty day: %v", err)
	}
}

func TestApplyRejectsBadDate(t *testing.T) {
	s, _ := newTestSyncer(t)
	if err := s.Apply(context.Background(), "07.06.2025", "staff-1", "Müller"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestApplyDifferentDaysCoexist(t *testing.T) {
	s, st := newTestSyncer(t)
	ctx := context.Background()

	if err := s.Apply(ctx, "2025-06-07", "staff-1", "Müller"); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(ctx, "2025-06-08", "staff-2", "Schmidt"); err != nil {
		t.Fatal(err)
	}
	if events := rosterEvents(t, st); len(events) != 2 {
		t.Fatalf("events = %d, want one per day", len(events))
	}
}
