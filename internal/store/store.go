// Package store is the persistence collaborator behind the calendar engine:
// calendars, events, permissions and users, plus a change hub that pushes
// event-row notifications to subscribers.
package store

import (
	"context"
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
)

// EventFilter selects events whose start time falls inside [From, To].
// CalendarID may be a concrete id or domain.AggregateCalendarID.
type EventFilter struct {
	CalendarID string
	From       time.Time
	To         time.Time
}

// AnnotatedCalendar is a calendar row carrying the requesting user's
// effective permission level.
type AnnotatedCalendar struct {
	domain.Calendar
	UserLevel domain.Level `json:"user_level"`
}

// PermissionEntry joins a permission row with the user it grants access to,
// for the permissions-management surface.
type PermissionEntry struct {
	Permission domain.CalendarPermission `json:"permission"`
	User       domain.User               `json:"user"`
}

type Store interface {
	ListCalendars(ctx context.Context, userID string) ([]AnnotatedCalendar, error)
	GetCalendar(ctx context.Context, id string) (domain.Calendar, error)
	GetCalendarByName(ctx context.Context, name string) (domain.Calendar, error)
	CreateCalendar(ctx context.Context, cal domain.Calendar) (domain.Calendar, error)
	UpdateCalendar(ctx context.Context, id string, cal domain.Calendar) (domain.Calendar, error)

	ListEvents(ctx context.Context, filter EventFilter) ([]domain.Event, error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	CreateEvent(ctx context.Context, draft domain.EventDraft) (domain.Event, error)
	UpdateEvent(ctx context.Context, id string, draft domain.EventDraft) (domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	// UpsertExternalEvent and DeleteEventByExternalID are the idempotent
	// resync hooks for events mirrored from another subsystem.
	UpsertExternalEvent(ctx context.Context, draft domain.EventDraft) (domain.Event, error)
	DeleteEventByExternalID(ctx context.Context, externalID string) error

	UpsertPermission(ctx context.Context, calendarID, userID string, level domain.Level) (domain.CalendarPermission, error)
	DeletePermission(ctx context.Context, id string) error
	ListPermissions(ctx context.Context, calendarID string) ([]PermissionEntry, error)

	GetUser(ctx context.Context, id string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)

	// Subscribe registers onChange for event-row changes on the given
	// calendar (or all calendars for domain.AggregateCalendarID) and
	// returns an unsubscribe handle.
	Subscribe(calendarID string, onChange func(Change)) (cancel func())
}
