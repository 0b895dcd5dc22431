// Package session is the client-side calendar state: the calendar list with
// effective permission levels, the event collection for the visible range,
// the view and scroll controllers, and the write/refetch orchestration
// against the store.
package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/digest"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/form"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/grid"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/scroll"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/store"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/view"
)

const (
	backoffInitial = time.Second
	backoffCap     = 30 * time.Second
)

type Options struct {
	WeekPolicy   grid.WeekPolicy
	DigestPolicy digest.Policy
	GridPolicy   grid.Generator
	Scroll       scroll.Config
	Logger       *slog.Logger

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Calendar is one user's calendar session. All state is owned here and
// torn down by Close; nothing lives in package globals.
type Calendar struct {
	mu     sync.Mutex
	store  store.Store
	log    *slog.Logger
	userID string
	opts   Options

	calendars []store.AnnotatedCalendar
	selected  string
	events    map[string]domain.Event

	// epoch guards against stale fetch results overwriting fresher
	// state: every refetch bumps it, and a result is dropped unless its
	// epoch still matches on arrival.
	epoch       uint64
	loading     bool
	loadErr     error
	fetchCancel context.CancelFunc

	viewCtl   *view.Controller
	scrollCtl *scroll.Controller

	inflight map[string]bool

	unsubscribe func()
	backoff     time.Duration
	closed      bool
}

func New(st store.Store, userID string, opts Options) *Calendar {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Calendar{
		store:     st,
		log:       opts.Logger,
		userID:    userID,
		opts:      opts,
		events:    make(map[string]domain.Event),
		viewCtl:   view.NewController(opts.Now),
		scrollCtl: scroll.New(opts.Scroll),
		inflight:  make(map[string]bool),
		backoff:   backoffInitial,
	}
}

// LoadCalendars fetches the calendar list. The first successful load
// auto-selects the aggregate view and subscribes to it.
func (c *Calendar) LoadCalendars(ctx context.Context) error {
	cals, err := c.store.ListCalendars(ctx, c.userID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.calendars = cals
	first := c.selected == "" && len(cals) > 0
	c.mu.Unlock()
	if first {
		return c.SelectCalendar(ctx, domain.AggregateCalendarID)
	}
	return nil
}

func (c *Calendar) Calendars() []store.AnnotatedCalendar {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]store.AnnotatedCalendar{}, c.calendars...)
}

func (c *Calendar) SelectedCalendarID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SelectedLevel resolves the effective level of the selected calendar. The
// aggregate view is always read-only.
func (c *Calendar) SelectedLevel() domain.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.levelLocked(c.selected)
}

func (c *Calendar) levelLocked(calendarID string) domain.Level {
	if calendarID == "" {
		return domain.LevelNone
	}
	if calendarID == domain.AggregateCalendarID {
		return domain.LevelRead
	}
	for _, cal := range c.calendars {
		if cal.ID == calendarID {
			return cal.UserLevel
		}
	}
	return domain.LevelNone
}

// SelectCalendar switches the active calendar, resubscribes the change
// feed and refetches the visible range.
func (c *Calendar) SelectCalendar(ctx context.Context, calendarID string) error {
	c.mu.Lock()
	c.selected = calendarID
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.unsubscribe = c.store.Subscribe(calendarID, c.onChange)
	c.mu.Unlock()
	return c.Refresh(ctx)
}

func (c *Calendar) onChange(store.Change) {
	// Notifications arrive on the publisher's goroutine; refetch without
	// blocking it. Failures retry with capped exponential backoff.
	go c.refetchWithBackoff()
}

func (c *Calendar) refetchWithBackoff() {
	if err := c.Refresh(context.Background()); err != nil {
		c.mu.Lock()
		delay := c.backoff
		c.backoff *= 2
		if c.backoff > backoffCap {
			c.backoff = backoffCap
		}
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		c.log.Warn("change refetch failed, retrying", "delay", delay, "err", err)
		time.AfterFunc(delay, c.refetchWithBackoff)
		return
	}
	c.mu.Lock()
	c.backoff = backoffInitial
	c.mu.Unlock()
}

// Refresh refetches the active range. A result is discarded when another
// refresh started after it, so slow responses never clobber fresh state.
func (c *Calendar) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.selected == "" {
		c.mu.Unlock()
		return nil
	}
	c.epoch++
	mine := c.epoch
	if c.fetchCancel != nil {
		c.fetchCancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.fetchCancel = cancel
	from, to := c.viewCtl.Range()
	filter := store.EventFilter{CalendarID: c.selected, From: from, To: to}
	c.loading = true
	c.mu.Unlock()

	events, err := c.store.ListEvents(ctx, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != mine {
		// A newer refresh owns the state now.
		return nil
	}
	c.loading = false
	if err != nil {
		c.loadErr = err
		return err
	}
	c.loadErr = nil
	for id, e := range c.events {
		if !e.StartTime.Before(from) && !e.StartTime.After(to) {
			delete(c.events, id)
		}
	}
	for _, e := range events {
		c.events[e.ID] = e
	}
	return nil
}

// Loading reports whether a fetch for the active view is outstanding.
func (c *Calendar) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LoadError is the inline "could not load" state; nil once a retry
// succeeds.
func (c *Calendar) LoadError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// Events returns the session's event collection ordered by start time.
func (c *Calendar) Events() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Event, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func (c *Calendar) View() *view.Controller { return c.viewCtl }

// SetMode switches the view mode and refetches; the scroll window is left
// untouched so month mode resumes where it was.
func (c *Calendar) SetMode(ctx context.Context, m view.Mode) error {
	if err := c.viewCtl.SetMode(m); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Calendar) StepPrevious(ctx context.Context) error {
	c.viewCtl.Previous()
	return c.Refresh(ctx)
}

func (c *Calendar) StepNext(ctx context.Context) error {
	c.viewCtl.Next()
	return c.Refresh(ctx)
}

// GoToToday resets the view date and collapses the scroll window back
// around the current month.
func (c *Calendar) GoToToday(ctx context.Context) (scroll.Delta, error) {
	c.viewCtl.Today()
	delta := c.scrollCtl.ResetToToday()
	return delta, c.Refresh(ctx)
}

// OnScroll feeds measured metrics to the scroll controller. Growth is
// served from the eagerly fetched range, so no refetch happens here.
func (c *Calendar) OnScroll(m scroll.Metrics) scroll.Delta {
	return c.scrollCtl.OnScroll(m)
}

func (c *Calendar) Scroll() *scroll.Controller { return c.scrollCtl }

// Month builds the grid for the month at the given window offset relative
// to the current real-world month.
func (c *Calendar) Month(offset int) grid.Month {
	now := c.opts.Now()
	year, month := scroll.MonthAt(now, offset)
	return c.opts.GridPolicy.BuildMonth(year, month, domain.ISODate(now), c.Events())
}

func (c *Calendar) Week() grid.WeekView {
	now := c.opts.Now()
	return grid.BuildWeek(c.viewCtl.ViewDate(), domain.ISODate(now), c.Events(), c.opts.WeekPolicy)
}

func (c *Calendar) Day() []domain.Event {
	return grid.BuildDay(c.viewCtl.ViewDate(), c.Events())
}

// CreateEvent validates the form against the selected calendar and writes
// through the store. At most one write per calendar may be in flight.
func (c *Calendar) CreateEvent(ctx context.Context, f form.EventForm) (domain.Event, error) {
	c.mu.Lock()
	calendarID := c.selected
	level := c.levelLocked(calendarID)
	c.mu.Unlock()

	draft, err := form.BuildPayload(f, calendarID, level)
	if err != nil {
		return domain.Event{}, err
	}
	release, err := c.acquireWrite("calendar:" + calendarID)
	if err != nil {
		return domain.Event{}, err
	}
	defer release()
	return c.store.CreateEvent(ctx, draft)
}

func (c *Calendar) UpdateEvent(ctx context.Context, eventID string, f form.EventForm) (domain.Event, error) {
	c.mu.Lock()
	calendarID := c.selected
	level := c.levelLocked(calendarID)
	c.mu.Unlock()

	draft, err := form.BuildPayload(f, calendarID, level)
	if err != nil {
		return domain.Event{}, err
	}
	release, err := c.acquireWrite("event:" + eventID)
	if err != nil {
		return domain.Event{}, err
	}
	defer release()
	return c.store.UpdateEvent(ctx, eventID, draft)
}

func (c *Calendar) DeleteEvent(ctx context.Context, eventID string) error {
	c.mu.Lock()
	level := c.levelLocked(c.selected)
	c.mu.Unlock()
	if !level.CanWrite() {
		return domain.PermissionError{CalendarID: c.SelectedCalendarID(), UserID: c.userID, Need: domain.LevelWrite}
	}
	release, err := c.acquireWrite("event:" + eventID)
	if err != nil {
		return err
	}
	defer release()
	return c.store.DeleteEvent(ctx, eventID)
}

func (c *Calendar) acquireWrite(key string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[key] {
		return nil, domain.Validation("write already in flight")
	}
	c.inflight[key] = true
	return func() {
		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()
	}, nil
}

// Digest reads independently of the visible range: it fetches everything
// from the start of today onward across the calendars the user can read
// and buckets it.
func (c *Calendar) Digest(ctx context.Context) (digest.Digest, error) {
	now := c.opts.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	annotated, err := c.store.ListCalendars(ctx, c.userID)
	if err != nil {
		return digest.Digest{}, err
	}
	readable := make(map[string]bool, len(annotated))
	calendars := make([]domain.Calendar, 0, len(annotated))
	for _, cal := range annotated {
		readable[cal.ID] = true
		calendars = append(calendars, cal.Calendar)
	}
	events, err := c.store.ListEvents(ctx, store.EventFilter{
		CalendarID: domain.AggregateCalendarID,
		From:       today,
	})
	if err != nil {
		return digest.Digest{}, err
	}
	visible := events[:0]
	for _, e := range events {
		if readable[e.CalendarID] {
			visible = append(visible, e)
		}
	}
	return digest.Build(visible, calendars, today, c.opts.DigestPolicy), nil
}

// Close cancels in-flight fetches and tears down the subscription.
func (c *Calendar) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.fetchCancel != nil {
		c.fetchCancel()
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.scrollCtl.InvalidateContainer()
}
