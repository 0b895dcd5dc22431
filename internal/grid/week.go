package grid

import (
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
)

// WeekPolicy controls how the week view treats Saturday and Sunday.
// Merging them into one summary row is a pharmacy staffing convention, so
// it is a configurable policy rather than a hardcoded column rule.
type WeekPolicy struct {
	MergeWeekend bool
}

type WeekDay struct {
	Date    time.Time      `json:"date"`
	ISODate string         `json:"iso_date"`
	IsToday bool           `json:"is_today"`
	Events  []domain.Event `json:"events"`
}

// WeekendSummary concatenates Saturday and Sunday events into one inline
// list, Saturday first.
type WeekendSummary struct {
	Saturday time.Time      `json:"saturday"`
	Sunday   time.Time      `json:"sunday"`
	Events   []domain.Event `json:"events"`
}

type WeekView struct {
	Days    [7]WeekDay      `json:"days"`
	Weekend *WeekendSummary `json:"weekend,omitempty"`
}

// BuildWeek buckets events into the ISO week containing viewDate. With
// MergeWeekend set, Days still holds all seven columns; Weekend carries the
// collapsed Sat+Sun list for the summary row.
func BuildWeek(viewDate time.Time, todayISO string, events []domain.Event, policy WeekPolicy) WeekView {
	start := StartOfWeek(viewDate)
	var out WeekView
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		iso := domain.ISODate(day)
		out.Days[i] = WeekDay{
			Date:    day,
			ISODate: iso,
			IsToday: iso == todayISO,
			Events:  eventsOn(iso, events),
		}
	}
	if policy.MergeWeekend {
		merged := append([]domain.Event{}, out.Days[5].Events...)
		merged = append(merged, out.Days[6].Events...)
		out.Weekend = &WeekendSummary{
			Saturday: out.Days[5].Date,
			Sunday:   out.Days[6].Date,
			Events:   merged,
		}
	}
	return out
}

// BuildDay returns the events on viewDate's date, sorted by start time.
func BuildDay(viewDate time.Time, events []domain.Event) []domain.Event {
	return eventsOn(domain.ISODate(viewDate), events)
}
