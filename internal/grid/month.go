// Package grid builds the calendar layouts: the fixed 6x7 month grid and
// the lighter week/day bucketings. Everything here is pure; callers supply
// the events and today's date.
package grid

import (
	"sort"
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
)

// DefaultVisibleEvents is how many events a month cell shows before the
// "+N more" overflow kicks in.
const DefaultVisibleEvents = 3

type Day struct {
	Date           time.Time      `json:"date"`
	ISODate        string         `json:"iso_date"`
	IsCurrentMonth bool           `json:"is_current_month"`
	IsToday        bool           `json:"is_today"`
	IsWeekend      bool           `json:"is_weekend"`
	Events         []domain.Event `json:"events"`
	OverflowCount  int            `json:"overflow_count"`
}

type Week [7]Day

type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Weeks [6]Week    `json:"weeks"`
}

// Generator carries the cell overflow policy. The zero value uses
// DefaultVisibleEvents.
type Generator struct {
	VisibleEvents int
}

// BuildMonth lays out year/month as 6 rows of 7 days starting from the
// Monday on or before the 1st. Emitting 42 cells regardless of month length
// keeps every rendered month the same height, which the scroll window
// depends on. Months are generated independently; adjacent calls share no
// state.
func (g Generator) BuildMonth(year int, month time.Month, todayISO string, events []domain.Event) Month {
	limit := g.VisibleEvents
	if limit <= 0 {
		limit = DefaultVisibleEvents
	}

	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	startOffset := (int(firstDay.Weekday()) + 6) % 7
	cursor := firstDay.AddDate(0, 0, -startOffset)

	out := Month{Year: year, Month: month}
	for w := 0; w < 6; w++ {
		for d := 0; d < 7; d++ {
			iso := domain.ISODate(cursor)
			cell := Day{
				Date:           cursor,
				ISODate:        iso,
				IsCurrentMonth: cursor.Month() == month,
				IsToday:        iso == todayISO,
				IsWeekend:      d >= 5,
				Events:         eventsOn(iso, events),
			}
			if len(cell.Events) > limit {
				cell.OverflowCount = len(cell.Events) - limit
			}
			out.Weeks[w][d] = cell
			cursor = cursor.AddDate(0, 0, 1)
		}
	}
	return out
}

// eventsOn buckets by string equality of the start date, matching the cell
// key exactly. Linear scan per cell is fine for a few months of events.
func eventsOn(isoDate string, events []domain.Event) []domain.Event {
	var matched []domain.Event
	for _, e := range events {
		if e.StartDate() == isoDate {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].StartTime.Before(matched[j].StartTime)
	})
	return matched
}

// StartOfWeek returns the Monday of t's ISO week at 00:00:00 local.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
	return day.AddDate(0, 0, -offset)
}
