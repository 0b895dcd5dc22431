// Package access computes effective permission levels for users against
// calendars.
package access

import "github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"

// EffectiveLevel resolves what userID may do on cal given the explicit
// permission rows. Owners always hold write, independent of rows. The
// aggregate view never resolves here; use AggregateLevel for it.
func EffectiveLevel(cal domain.Calendar, userID string, permissions []domain.CalendarPermission) domain.Level {
	if cal.OwnerID != "" && cal.OwnerID == userID {
		return domain.LevelWrite
	}
	for _, p := range permissions {
		if p.CalendarID == cal.ID && p.UserID == userID {
			return p.Level
		}
	}
	return domain.LevelNone
}

// AggregateLevel is the fixed level of the virtual "all" calendar: always
// readable, never writable, so mutation affordances stay disabled whenever
// the aggregate view is selected.
func AggregateLevel() domain.Level { return domain.LevelRead }

// CanWriteCalendar reports whether userID may mutate events on the calendar
// identified by calendarID within the annotated set. The aggregate id is
// never writable.
func CanWriteCalendar(calendarID string, level domain.Level) bool {
	if calendarID == "" || calendarID == domain.AggregateCalendarID {
		return false
	}
	return level.CanWrite()
}
