package domain

import (
	"strings"
	"time"
)

// AggregateCalendarID selects the virtual read-only view across every
// calendar the caller can read.
const AggregateCalendarID = "all"

// Level is the maximum action a user may take on a calendar's events.
type Level string

const (
	LevelNone  Level = "none"
	LevelRead  Level = "read"
	LevelWrite Level = "write"
)

func ParseLevel(v string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(v))) {
	case LevelRead:
		return LevelRead, nil
	case LevelWrite:
		return LevelWrite, nil
	default:
		return LevelNone, Validation("level must be read or write")
	}
}

// CanRead reports whether the level allows viewing events.
func (l Level) CanRead() bool { return l == LevelRead || l == LevelWrite }

// CanWrite reports whether the level allows mutating events.
func (l Level) CanWrite() bool { return l == LevelWrite }

type Calendar struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	OwnerID     string `json:"owner_id"`
}

// DefaultCalendarColor matches the color preselected for new calendars.
const DefaultCalendarColor = "#10b981"

func NewCalendar(name, description, color, ownerID string) (Calendar, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Calendar{}, Validation("calendar name is required")
	}
	if ownerID == "" {
		return Calendar{}, Validation("calendar owner is required")
	}
	if color == "" {
		color = DefaultCalendarColor
	}
	return Calendar{
		Name:        name,
		Description: strings.TrimSpace(description),
		Color:       color,
		OwnerID:     ownerID,
	}, nil
}

type CalendarPermission struct {
	ID         string `json:"id"`
	CalendarID string `json:"calendar_id"`
	UserID     string `json:"user_id"`
	Level      Level  `json:"level"`
}

// Event times are local wall-clock; no timezone conversion happens anywhere
// in the engine. ExternalID/ExternalSource mark events mirrored from another
// subsystem and form the upsert key for resync.
type Event struct {
	ID             string    `json:"id"`
	CalendarID     string    `json:"calendar_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	AllDay         bool      `json:"all_day"`
	Location       string    `json:"location,omitempty"`
	ExternalID     string    `json:"external_id,omitempty"`
	ExternalSource string    `json:"external_source,omitempty"`
}

// EventDraft is a validated, id-less event payload headed for the store.
type EventDraft struct {
	CalendarID     string    `json:"calendar_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	AllDay         bool      `json:"all_day"`
	Location       string    `json:"location,omitempty"`
	ExternalID     string    `json:"external_id,omitempty"`
	ExternalSource string    `json:"external_source,omitempty"`
}

func (d EventDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return Validation("event title is required")
	}
	if d.CalendarID == "" || d.CalendarID == AggregateCalendarID {
		return Validation("event needs a concrete target calendar")
	}
	if d.StartTime.IsZero() || d.EndTime.IsZero() {
		return Validation("event start and end are required")
	}
	if d.EndTime.Before(d.StartTime) {
		return Validation("event end before start")
	}
	return nil
}

// ISODate renders t's date portion as YYYY-MM-DD in local calendar terms.
func ISODate(t time.Time) string { return t.Format("2006-01-02") }

// StartDate is the bucketing key used by the grids and the digest.
func (e Event) StartDate() string { return ISODate(e.StartTime) }

type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
