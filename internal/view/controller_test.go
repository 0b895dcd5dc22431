package view

import (
	"errors"
	"testing"
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
)

func fixedNow() time.Time {
	return time.Date(2025, time.June, 4, 14, 30, 0, 0, time.Local)
}

func TestInitialState(t *testing.T) {
	c := NewController(fixedNow)
	if c.Mode() != ModeMonth {
		t.Fatalf("initial mode = %s, want month", c.Mode())
	}
	if !c.ViewDate().Equal(fixedNow()) {
		t.Fatal("initial view date should be now")
	}
}

func TestSetModeRejectsUnknown(t *testing.T) {
	c := NewController(fixedNow)
	if err := c.SetMode("fortnight"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if c.Mode() != ModeMonth {
		t.Fatal("failed switch must not change the mode")
	}
	if err := c.SetMode(ModeWeek); err != nil {
		t.Fatalf("switch to week: %v", err)
	}
}

func TestStepping(t *testing.T) {
	c := NewController(fixedNow)

	c.Next()
	if d := c.ViewDate(); d.Month() != time.July {
		t.Fatalf("month next = %s", d)
	}
	c.Previous()

	if err := c.SetMode(ModeWeek); err != nil {
		t.Fatal(err)
	}
	c.Next()
	if d := c.ViewDate(); d.Day() != 11 {
		t.Fatalf("week next = %s, want +7 days", d)
	}
	c.Previous()

	if err := c.SetMode(ModeDay); err != nil {
		t.Fatal(err)
	}
	c.Previous()
	if d := c.ViewDate(); d.Day() != 3 {
		t.Fatalf("day previous = %s, want -1 day", d)
	}

	c.Today()
	if !c.ViewDate().Equal(fixedNow()) {
		t.Fatal("today must reset the view date")
	}
}

func TestRangeWeek(t *testing.T) {
	c := NewController(fixedNow)
	if err := c.SetMode(ModeWeek); err != nil {
		t.Fatal(err)
	}
	from, to := c.Range()
	if domain.ISODate(from) != "2025-06-02" {
		t.Fatalf("week from = %s, want Monday 2025-06-02", domain.ISODate(from))
	}
	if domain.ISODate(to) != "2025-06-08" || to.Hour() != 23 || to.Second() != 59 {
		t.Fatalf("week to = %s", to)
	}
}

func TestRangeDay(t *testing.T) {
	c := NewController(fixedNow)
	if err := c.SetMode(ModeDay); err != nil {
		t.Fatal(err)
	}
	from, to := c.Range()
	if domain.ISODate(from) != "2025-06-04" || from.Hour() != 0 {
		t.Fatalf("day from = %s", from)
	}
	if domain.ISODate(to) != "2025-06-04" || to.Hour() != 23 {
		t.Fatalf("day to = %s", to)
	}
}

func TestRangeMonthIsEager(t *testing.T) {
	c := NewController(fixedNow)
	from, to := c.Range()
	if domain.ISODate(from) != "2024-06-01" {
		t.Fatalf("month from = %s, want 12 months back", domain.ISODate(from))
	}
	if domain.ISODate(to) != "2026-06-30" {
		t.Fatalf("month to = %s, want last day 12 months ahead", domain.ISODate(to))
	}
}
