package form

import "github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"

// CalendarForm mirrors the calendar editor fields.
type CalendarForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// NewCalendarForm prefills the editor with the default color.
func NewCalendarForm() CalendarForm {
	return CalendarForm{Color: domain.DefaultCalendarColor}
}

// BuildCalendar validates the form into a calendar owned by ownerID.
func BuildCalendar(f CalendarForm, ownerID string) (domain.Calendar, error) {
	return domain.NewCalendar(f.Name, f.Description, f.Color, ownerID)
}
