// Package roster mirrors duty-roster assignments into the calendar. The
// roster subsystem only knows dates and staff; everything calendar-shaped
// (the target calendar, the external-id keying, the all-day span) lives
// here so resyncs stay idempotent.
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/store"
)

const (
	DefaultCalendarName = "Bereitschaft"
	DefaultSource       = "notdienstplanung"
	defaultColor        = "#dc2626"

	externalIDPrefix = "notdienst_"
	dateLayout       = "2006-01-02"
)

type Syncer struct {
	store store.Store
	log   *slog.Logger

	// CalendarName is the roster calendar, created on first use when
	// missing. OwnerID owns it in that case.
	CalendarName string
	Color        string
	Source       string
	OwnerID      string
}

func NewSyncer(st store.Store, ownerID string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		store:        st,
		log:          logger,
		CalendarName: DefaultCalendarName,
		Color:        defaultColor,
		Source:       DefaultSource,
		OwnerID:      ownerID,
	}
}

// Apply synchronizes one roster day. A present assignment upserts the
// matching all-day event; an empty one deletes it. Both directions are
// idempotent, keyed by the date-derived external id.
func (s *Syncer) Apply(ctx context.Context, date, staffID, staffName string) error {
	day, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return domain.Validation(fmt.Sprintf("invalid roster date %q", date))
	}
	externalID := externalIDPrefix + date

	if staffID == "" || staffName == "" {
		if err := s.store.DeleteEventByExternalID(ctx, externalID); err != nil {
			return fmt.Errorf("remove roster event: %w", err)
		}
		return nil
	}

	cal, err := s.ensureCalendar(ctx)
	if err != nil {
		return err
	}
	draft := domain.EventDraft{
		CalendarID:     cal.ID,
		Title:          s.CalendarName + ": " + staffName,
		Description:    s.CalendarName,
		StartTime:      day,
		EndTime:        time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, time.Local),
		AllDay:         true,
		ExternalID:     externalID,
		ExternalSource: s.Source,
	}
	if _, err := s.store.UpsertExternalEvent(ctx, draft); err != nil {
		return fmt.Errorf("sync roster event: %w", err)
	}
	return nil
}

func (s *Syncer) ensureCalendar(ctx context.Context) (domain.Calendar, error) {
	cal, err := s.store.GetCalendarByName(ctx, s.CalendarName)
	if err == nil {
		return cal, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Calendar{}, err
	}
	created, err := domain.NewCalendar(s.CalendarName, s.CalendarName+"-Termine", s.Color, s.OwnerID)
	if err != nil {
		return domain.Calendar{}, err
	}
	cal, err = s.store.CreateCalendar(ctx, created)
	if err != nil {
		return domain.Calendar{}, err
	}
	s.log.Info("created roster calendar", "calendar_id", cal.ID, "name", cal.Name)
	return cal, nil
}
