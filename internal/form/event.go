// Package form assembles and validates user drafts before they reach the
// store: the event editor and the calendar editor.
package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/access"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// EventForm mirrors the event editor fields. Dates are YYYY-MM-DD strings,
// times HH:MM, all local wall-clock.
type EventForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	StartTime   string `json:"start_time"`
	EndDate     string `json:"end_date"`
	EndTime     string `json:"end_time"`
	AllDay      bool   `json:"all_day"`
	Location    string `json:"location"`
}

// NewEventForm prefills a blank form for the given date (today when zero),
// matching the editor's behavior when a day cell is clicked.
func NewEventForm(clicked time.Time, now func() time.Time) EventForm {
	if now == nil {
		now = time.Now
	}
	current := now()
	date := clicked
	if date.IsZero() {
		date = current
	}
	return EventForm{
		StartDate: date.Format(dateLayout),
		StartTime: current.Format(clockLayout),
		EndDate:   date.Format(dateLayout),
		EndTime:   current.Format(clockLayout),
	}
}

// FormFromEvent loads an existing event into the editor.
func FormFromEvent(e domain.Event) EventForm {
	return EventForm{
		Title:       e.Title,
		Description: e.Description,
		StartDate:   e.StartTime.Format(dateLayout),
		StartTime:   e.StartTime.Format(clockLayout),
		EndDate:     e.EndTime.Format(dateLayout),
		EndTime:     e.EndTime.Format(clockLayout),
		AllDay:      e.AllDay,
		Location:    e.Location,
	}
}

// BuildPayload normalizes the form into a store-ready draft. calendarID and
// level describe the target calendar; the aggregate view and non-writable
// levels are rejected here so no write call is ever issued for them. An end
// before the start is rejected as well; the original editor accepted it
// silently.
func BuildPayload(f EventForm, calendarID string, level domain.Level) (domain.EventDraft, error) {
	if strings.TrimSpace(f.Title) == "" {
		return domain.EventDraft{}, domain.Validation("title is required")
	}
	if !access.CanWriteCalendar(calendarID, level) {
		return domain.EventDraft{}, domain.Validation("target calendar is not writable")
	}
	if f.StartDate == "" {
		return domain.EventDraft{}, domain.Validation("start date is required")
	}
	if f.EndDate == "" {
		return domain.EventDraft{}, domain.Validation("end date is required")
	}

	var start, end time.Time
	var err error
	if f.AllDay {
		start, err = parseLocal(f.StartDate, "00:00:00")
		if err != nil {
			return domain.EventDraft{}, err
		}
		end, err = parseLocal(f.EndDate, "23:59:59")
		if err != nil {
			return domain.EventDraft{}, err
		}
	} else {
		if f.StartTime == "" || f.EndTime == "" {
			return domain.EventDraft{}, domain.Validation("start and end times are required")
		}
		start, err = parseLocal(f.StartDate, f.StartTime+":00")
		if err != nil {
			return domain.EventDraft{}, err
		}
		end, err = parseLocal(f.EndDate, f.EndTime+":00")
		if err != nil {
			return domain.EventDraft{}, err
		}
	}
	if end.Before(start) {
		return domain.EventDraft{}, domain.Validation("end before start")
	}

	return domain.EventDraft{
		CalendarID:  calendarID,
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		StartTime:   start,
		EndTime:     end,
		AllDay:      f.AllDay,
		Location:    strings.TrimSpace(f.Location),
	}, nil
}

func parseLocal(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout+" 15:04:05", date+" "+clock, time.Local)
	if err != nil {
		return time.Time{}, domain.Validation(fmt.Sprintf("invalid date or time %q %q", date, clock))
	}
	return t, nil
}
