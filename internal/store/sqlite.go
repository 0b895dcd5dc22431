package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/access"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
)

type calendarRow struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"size:200;not null;index"`
	Description string `gorm:"size:1000"`
	Color       string `gorm:"size:20"`
	OwnerID     string `gorm:"size:36;not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type eventRow struct {
	ID             string    `gorm:"primaryKey;size:36"`
	CalendarID     string    `gorm:"size:36;not null;index"`
	Title          string    `gorm:"size:200;not null"`
	Description    string    `gorm:"size:1000"`
	StartTime      time.Time `gorm:"index"`
	EndTime        time.Time
	AllDay         bool
	Location       string  `gorm:"size:200"`
	ExternalID     *string `gorm:"size:100;uniqueIndex"`
	ExternalSource string  `gorm:"size:100"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type permissionRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	CalendarID string `gorm:"size:36;not null;uniqueIndex:idx_calendar_user"`
	UserID     string `gorm:"size:36;not null;uniqueIndex:idx_calendar_user"`
	Level      string `gorm:"size:10;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type userRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	Email     string `gorm:"size:200;index"`
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SQLite is the authoritative Store implementation. A shared Hub delivers
// change notifications after each committed event mutation.
type SQLite struct {
	db  *gorm.DB
	hub *Hub
}

// OpenSQLite opens (or creates) the database at path and migrates the
// schema. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&calendarRow{}, &eventRow{}, &permissionRow{}, &userRow{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db, hub: NewHub()}, nil
}

func (s *SQLite) ListCalendars(ctx context.Context, userID string) ([]AnnotatedCalendar, error) {
	var calRows []calendarRow
	if err := s.db.WithContext(ctx).Order("name").Find(&calRows).Error; err != nil {
		return nil, domain.TransientIOError{Op: "list calendars", Err: err}
	}
	var permRows []permissionRow
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&permRows).Error; err != nil {
		return nil, domain.TransientIOError{Op: "list permissions", Err: err}
	}
	perms := make([]domain.CalendarPermission, 0, len(permRows))
	for _, p := range permRows {
		perms = append(perms, toPermission(p))
	}
	out := make([]AnnotatedCalendar, 0, len(calRows))
	for _, row := range calRows {
		cal := toCalendar(row)
		level := access.EffectiveLevel(cal, userID, perms)
		if !level.CanRead() {
			continue
		}
		out = append(out, AnnotatedCalendar{Calendar: cal, UserLevel: level})
	}
	return out, nil
}

func (s *SQLite) GetCalendar(ctx context.Context, id string) (domain.Calendar, error) {
	var row calendarRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Calendar{}, domain.NotFoundError{Kind: "calendar", ID: id}
	}
	if err != nil {
		return domain.Calendar{}, domain.TransientIOError{Op: "get calendar", Err: err}
	}
	return toCalendar(row), nil
}

func (s *SQLite) GetCalendarByName(ctx context.Context, name string) (domain.Calendar, error) {
	var row calendarRow
	err := s.db.WithContext(ctx).First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Calendar{}, domain.NotFoundError{Kind: "calendar", ID: name}
	}
	if err != nil {
		return domain.Calendar{}, domain.TransientIOError{Op: "get calendar by name", Err: err}
	}
	return toCalendar(row), nil
}

// CreateCalendar also writes an explicit write-permission row for the owner.
// The owner rule in access.EffectiveLevel holds regardless; the row keeps the
// permissions listing complete.
func (s *SQLite) CreateCalendar(ctx context.Context, cal domain.Calendar) (domain.Calendar, error) {
	row := calendarRow{
		ID:          uuid.NewString(),
		Name:        cal.Name,
		Description: cal.Description,
		Color:       cal.Color,
		OwnerID:     cal.OwnerID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		perm := permissionRow{
			ID:         uuid.NewString(),
			CalendarID: row.ID,
			UserID:     cal.OwnerID,
			Level:      string(domain.LevelWrite),
		}
		return tx.Create(&perm).Error
	})
	if err != nil {
		return domain.Calendar{}, domain.TransientIOError{Op: "create calendar", Err: err}
	}
	return toCalendar(row), nil
}

func (s *SQLite) UpdateCalendar(ctx context.Context, id string, cal domain.Calendar) (domain.Calendar, error) {
	var row calendarRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Calendar{}, domain.NotFoundError{Kind: "calendar", ID: id}
	}
	if err != nil {
		return domain.Calendar{}, domain.TransientIOError{Op: "update calendar", Err: err}
	}
	row.Name = cal.Name
	row.Description = cal.Description
	row.Color = cal.Color
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return domain.Calendar{}, domain.TransientIOError{Op: "update calendar", Err: err}
	}
	return toCalendar(row), nil
}

func (s *SQLite) ListEvents(ctx context.Context, filter EventFilter) ([]domain.Event, error) {
	q := s.db.WithContext(ctx).Order("start_time")
	if filter.CalendarID != "" && filter.CalendarID != domain.AggregateCalendarID {
		q = q.Where("calendar_id = ?", filter.CalendarID)
	}
	if !filter.From.IsZero() {
		q = q.Where("start_time >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("start_time <= ?", filter.To)
	}
	var rows []eventRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, domain.TransientIOError{Op: "list events", Err: err}
	}
	out := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, toEvent(row))
	}
	return out, nil
}

func (s *SQLite) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	var row eventRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Event{}, domain.NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return domain.Event{}, domain.TransientIOError{Op: "get event", Err: err}
	}
	return toEvent(row), nil
}

func (s *SQLite) CreateEvent(ctx context.Context, draft domain.EventDraft) (domain.Event, error) {
	if err := draft.Validate(); err != nil {
		return domain.Event{}, err
	}
	row := draftRow(draft)
	row.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Event{}, domain.TransientIOError{Op: "create event", Err: err}
	}
	s.hub.Publish(Change{Kind: ChangeCreated, CalendarID: row.CalendarID, EventID: row.ID})
	return toEvent(row), nil
}

func (s *SQLite) UpdateEvent(ctx context.Context, id string, draft domain.EventDraft) (domain.Event, error) {
	if err := draft.Validate(); err != nil {
		return domain.Event{}, err
	}
	var row eventRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Event{}, domain.NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return domain.Event{}, domain.TransientIOError{Op: "update event", Err: err}
	}
	applyDraft(&row, draft)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return domain.Event{}, domain.TransientIOError{Op: "update event", Err: err}
	}
	s.hub.Publish(Change{Kind: ChangeUpdated, CalendarID: row.CalendarID, EventID: row.ID})
	return toEvent(row), nil
}

func (s *SQLite) DeleteEvent(ctx context.Context, id string) error {
	var row eventRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Kind: "event", ID: id}
	}
	if err != nil {
		return domain.TransientIOError{Op: "delete event", Err: err}
	}
	if err := s.db.WithContext(ctx).Delete(&eventRow{}, "id = ?", id).Error; err != nil {
		return domain.TransientIOError{Op: "delete event", Err: err}
	}
	s.hub.Publish(Change{Kind: ChangeDeleted, CalendarID: row.CalendarID, EventID: row.ID})
	return nil
}

func (s *SQLite) UpsertExternalEvent(ctx context.Context, draft domain.EventDraft) (domain.Event, error) {
	if draft.ExternalID == "" {
		return domain.Event{}, domain.Validation("external id is required for upsert")
	}
	if err := draft.Validate(); err != nil {
		return domain.Event{}, err
	}
	var row eventRow
	err := s.db.WithContext(ctx).First(&row, "external_id = ?", draft.ExternalID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.CreateEvent(ctx, draft)
	case err != nil:
		return domain.Event{}, domain.TransientIOError{Op: "upsert external event", Err: err}
	}
	return s.UpdateEvent(ctx, row.ID, draft)
}

// DeleteEventByExternalID is a no-op when no row carries the id, so resync
// deletes stay idempotent.
func (s *SQLite) DeleteEventByExternalID(ctx context.Context, externalID string) error {
	var row eventRow
	err := s.db.WithContext(ctx).First(&row, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return domain.TransientIOError{Op: "delete external event", Err: err}
	}
	return s.DeleteEvent(ctx, row.ID)
}

func (s *SQLite) UpsertPermission(ctx context.Context, calendarID, userID string, level domain.Level) (domain.CalendarPermission, error) {
	if !level.CanRead() {
		return domain.CalendarPermission{}, domain.Validation("level must be read or write")
	}
	if _, err := s.GetCalendar(ctx, calendarID); err != nil {
		return domain.CalendarPermission{}, err
	}
	var row permissionRow
	err := s.db.WithContext(ctx).First(&row, "calendar_id = ? AND user_id = ?", calendarID, userID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = permissionRow{ID: uuid.NewString(), CalendarID: calendarID, UserID: userID, Level: string(level)}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return domain.CalendarPermission{}, domain.TransientIOError{Op: "upsert permission", Err: err}
		}
	case err != nil:
		return domain.CalendarPermission{}, domain.TransientIOError{Op: "upsert permission", Err: err}
	default:
		row.Level = string(level)
		if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
			return domain.CalendarPermission{}, domain.TransientIOError{Op: "upsert permission", Err: err}
		}
	}
	return toPermission(row), nil
}

func (s *SQLite) DeletePermission(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&permissionRow{}, "id = ?", id)
	if res.Error != nil {
		return domain.TransientIOError{Op: "delete permission", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundError{Kind: "permission", ID: id}
	}
	return nil
}

func (s *SQLite) ListPermissions(ctx context.Context, calendarID string) ([]PermissionEntry, error) {
	var rows []permissionRow
	if err := s.db.WithContext(ctx).Where("calendar_id = ?", calendarID).Find(&rows).Error; err != nil {
		return nil, domain.TransientIOError{Op: "list permissions", Err: err}
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	users := make(map[string]domain.User, len(ids))
	if len(ids) > 0 {
		var userRows []userRow
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&userRows).Error; err != nil {
			return nil, domain.TransientIOError{Op: "list permission users", Err: err}
		}
		for _, u := range userRows {
			users[u.ID] = toUser(u)
		}
	}
	out := make([]PermissionEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, PermissionEntry{Permission: toPermission(row), User: users[row.UserID]})
	}
	return out, nil
}

func (s *SQLite) GetUser(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.User{}, domain.NotFoundError{Kind: "user", ID: id}
	}
	if err != nil {
		return domain.User{}, domain.TransientIOError{Op: "get user", Err: err}
	}
	return toUser(row), nil
}

func (s *SQLite) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	row := userRow{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.User{}, domain.TransientIOError{Op: "create user", Err: err}
	}
	return toUser(row), nil
}

func (s *SQLite) Subscribe(calendarID string, onChange func(Change)) (cancel func()) {
	return s.hub.Subscribe(calendarID, onChange)
}

func toCalendar(row calendarRow) domain.Calendar {
	return domain.Calendar{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Color:       row.Color,
		OwnerID:     row.OwnerID,
	}
}

func toEvent(row eventRow) domain.Event {
	e := domain.Event{
		ID:             row.ID,
		CalendarID:     row.CalendarID,
		Title:          row.Title,
		Description:    row.Description,
		StartTime:      row.StartTime,
		EndTime:        row.EndTime,
		AllDay:         row.AllDay,
		Location:       row.Location,
		ExternalSource: row.ExternalSource,
	}
	if row.ExternalID != nil {
		e.ExternalID = *row.ExternalID
	}
	return e
}

func toPermission(row permissionRow) domain.CalendarPermission {
	return domain.CalendarPermission{
		ID:         row.ID,
		CalendarID: row.CalendarID,
		UserID:     row.UserID,
		Level:      domain.Level(row.Level),
	}
}

func toUser(row userRow) domain.User {
	return domain.User{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		IsAdmin:   row.IsAdmin,
	}
}

func draftRow(draft domain.EventDraft) eventRow {
	row := eventRow{}
	applyDraft(&row, draft)
	return row
}

func applyDraft(row *eventRow, draft domain.EventDraft) {
	row.CalendarID = draft.CalendarID
	row.Title = draft.Title
	row.Description = draft.Description
	row.StartTime = draft.StartTime
	row.EndTime = draft.EndTime
	row.AllDay = draft.AllDay
	row.Location = draft.Location
	row.ExternalSource = draft.ExternalSource
	if draft.ExternalID != "" {
		id := draft.ExternalID
		row.ExternalID = &id
	} else {
		row.ExternalID = nil
	}
}
