// Package digest computes the dashboard summary buckets: today's events,
// the rest of the week, and the next few upcoming entries.
package digest

import (
	"sort"
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
)

const (
	DefaultHorizonDays   = 7
	DefaultUpcomingLimit = 5

	// fallbackColor is used when an event's calendar is unknown.
	fallbackColor = "#0D9488"
)

// Policy controls the digest horizon and which calendars are excluded from
// the forward-looking buckets (e.g. a duty-roster calendar already surfaced
// elsewhere on the dashboard).
type Policy struct {
	HorizonDays          int
	UpcomingLimit        int
	ExcludeCalendarNames []string
}

// Entry is an event enriched with its calendar's display name and color.
type Entry struct {
	domain.Event
	CalendarName  string `json:"calendar_name"`
	CalendarColor string `json:"calendar_color"`
}

type Digest struct {
	Today    []Entry `json:"today"`
	ThisWeek []Entry `json:"this_week"`
	Upcoming []Entry `json:"upcoming"`
}

// Build buckets events relative to today. Today's bucket applies no
// exclusion. ThisWeek covers dates strictly after today up to the horizon,
// minus excluded calendars. Upcoming holds the next events from today
// onward, same exclusion, de-duplicated by id against the other two buckets
// so no event appears twice across the union. Past events never appear
// anywhere. Each bucket is sorted by start time ascending.
func Build(events []domain.Event, calendars []domain.Calendar, today time.Time, policy Policy) Digest {
	if policy.HorizonDays <= 0 {
		policy.HorizonDays = DefaultHorizonDays
	}
	if policy.UpcomingLimit <= 0 {
		policy.UpcomingLimit = DefaultUpcomingLimit
	}

	byID := make(map[string]domain.Calendar, len(calendars))
	for _, cal := range calendars {
		byID[cal.ID] = cal
	}
	excluded := make(map[string]bool, len(policy.ExcludeCalendarNames))
	for _, name := range policy.ExcludeCalendarNames {
		excluded[name] = true
	}
	isExcluded := func(e domain.Event) bool {
		return excluded[byID[e.CalendarID].Name]
	}

	todayISO := domain.ISODate(today)
	horizonISO := domain.ISODate(today.AddDate(0, 0, policy.HorizonDays))

	sorted := append([]domain.Event{}, events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	var d Digest
	seen := make(map[string]bool)
	for _, e := range sorted {
		date := e.StartDate()
		if date < todayISO {
			continue
		}
		switch {
		case date == todayISO:
			d.Today = append(d.Today, enrich(e, byID))
			seen[e.ID] = true
		case date <= horizonISO && !isExcluded(e):
			d.ThisWeek = append(d.ThisWeek, enrich(e, byID))
			seen[e.ID] = true
		}
	}
	for _, e := range sorted {
		if len(d.Upcoming) >= policy.UpcomingLimit {
			break
		}
		if e.StartDate() < todayISO || isExcluded(e) || seen[e.ID] {
			continue
		}
		d.Upcoming = append(d.Upcoming, enrich(e, byID))
	}
	return d
}

func enrich(e domain.Event, byID map[string]domain.Calendar) Entry {
	entry := Entry{Event: e, CalendarColor: fallbackColor}
	if cal, ok := byID[e.CalendarID]; ok {
		entry.CalendarName = cal.Name
		if cal.Color != "" {
			entry.CalendarColor = cal.Color
		}
	}
	return entry
}
