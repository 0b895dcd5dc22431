// Package view holds the month/week/day view-mode state machine and the
// fetch ranges each mode needs.
package view

import (
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
)

type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
	ModeDay   Mode = "day"
)

func ParseMode(v string) (Mode, error) {
	switch Mode(v) {
	case ModeMonth, ModeWeek, ModeDay:
		return Mode(v), nil
	default:
		return "", domain.Validation("view mode must be month, week or day")
	}
}

// Controller steps a single view date through the active mode. Switching
// modes never touches the scroll window; the month window simply is not
// rendered while week/day is active and survives the round trip intact.
type Controller struct {
	mode     Mode
	viewDate time.Time
	now      func() time.Time
}

func NewController(now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{mode: ModeMonth, viewDate: now(), now: now}
}

func (c *Controller) Mode() Mode          { return c.mode }
func (c *Controller) ViewDate() time.Time { return c.viewDate }

func (c *Controller) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	c.mode = m
	return nil
}

// Previous steps the view date back one unit of the active mode.
func (c *Controller) Previous() time.Time { return c.step(-1) }

// Next steps the view date forward one unit of the active mode.
func (c *Controller) Next() time.Time { return c.step(1) }

func (c *Controller) step(dir int) time.Time {
	switch c.mode {
	case ModeMonth:
		c.viewDate = c.viewDate.AddDate(0, dir, 0)
	case ModeWeek:
		c.viewDate = c.viewDate.AddDate(0, 0, 7*dir)
	case ModeDay:
		c.viewDate = c.viewDate.AddDate(0, 0, dir)
	}
	return c.viewDate
}

// Today resets the view date to the current date.
func (c *Controller) Today() time.Time {
	c.viewDate = c.now()
	return c.viewDate
}

// Range is the event fetch window for the active mode. Month mode loads a
// generous +-12 months around the view date so the scroll window can grow
// without refetching; week and day load exactly their span.
func (c *Controller) Range() (from, to time.Time) {
	d := c.viewDate
	switch c.mode {
	case ModeWeek:
		from = startOfWeek(d)
		to = endOfDay(from.AddDate(0, 0, 6))
	case ModeDay:
		from = startOfDay(d)
		to = endOfDay(d)
	default:
		from = time.Date(d.Year(), d.Month()-12, 1, 0, 0, 0, 0, time.Local)
		// Day 0 of month+13 is the last day of month+12.
		to = time.Date(d.Year(), d.Month()+13, 0, 23, 59, 59, 0, time.Local)
	}
	return from, to
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.Local)
}

func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -offset)
}
