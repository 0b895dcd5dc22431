// Package scroll manages the sliding window of months rendered inside a
// fixed-height viewport. The controller owns all of its state (no ambient
// globals) and works purely on measured metrics, so the compensation
// arithmetic is unit-testable without any real scroll container.
package scroll

import "time"

const (
	// DefaultWindowStart and DefaultWindowEnd are month offsets relative
	// to the current real-world month.
	DefaultWindowStart = -2
	DefaultWindowEnd   = 3

	// DefaultGrow is how many months each edge trigger adds.
	DefaultGrow = 3

	// DefaultTopThreshold and DefaultBottomThreshold are the pixel
	// distances from the respective edge that arm a grow trigger.
	DefaultTopThreshold    = 800.0
	DefaultBottomThreshold = 800.0

	// DefaultCooldown spaces out consecutive grow triggers so one
	// continuous scroll gesture cannot queue runaway loads.
	DefaultCooldown = 200 * time.Millisecond

	// AnchorOffset is the designated month that carries the stable anchor
	// used for the initial scroll-into-view.
	AnchorOffset = 0
)

// Metrics is a snapshot of the scroll container, measured by the renderer.
type Metrics struct {
	ScrollTop    float64
	ScrollHeight float64
	ClientHeight float64
}

// Compensation is the pending scroll adjustment for a top grow. It records
// the container height before the prepend and the container generation it
// was issued against; it must be resolved after the next paint.
type Compensation struct {
	prevScrollHeight float64
	generation       int
	consumed         bool
}

// Delta reports what a controller operation changed. When GrewTop is set,
// Compensation must be resolved via Controller.Compensate once the new
// months are laid out.
type Delta struct {
	GrewTop      bool
	GrewBottom   bool
	WindowStart  int
	WindowEnd    int
	Compensation *Compensation

	// ScrollTo, when non-nil, asks the renderer to bring the month at
	// that offset into view.
	ScrollTo *int
}

type Config struct {
	Grow            int
	TopThreshold    float64
	BottomThreshold float64
	Cooldown        time.Duration

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

type Controller struct {
	cfg         Config
	windowStart int
	windowEnd   int
	lastTrigger time.Time
	generation  int
}

func New(cfg Config) *Controller {
	if cfg.Grow <= 0 {
		cfg.Grow = DefaultGrow
	}
	if cfg.TopThreshold <= 0 {
		cfg.TopThreshold = DefaultTopThreshold
	}
	if cfg.BottomThreshold <= 0 {
		cfg.BottomThreshold = DefaultBottomThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller{
		cfg:         cfg,
		windowStart: DefaultWindowStart,
		windowEnd:   DefaultWindowEnd,
	}
}

// Window returns the inclusive month-offset range currently materialized.
func (c *Controller) Window() (start, end int) {
	return c.windowStart, c.windowEnd
}

// Offsets lists the materialized month offsets in rendering order
// (ascending).
func (c *Controller) Offsets() []int {
	out := make([]int, 0, c.windowEnd-c.windowStart+1)
	for off := c.windowStart; off <= c.windowEnd; off++ {
		out = append(out, off)
	}
	return out
}

// OnScroll applies one measured scroll position. Near the bottom edge the
// window is extended downward, a pure append that needs no compensation.
// Near the top edge the window is extended upward; because the new months
// land above the current scroll position, the delta carries a Compensation
// that the renderer must resolve after layout, otherwise the visible
// content jumps down by the height of the inserted months.
func (c *Controller) OnScroll(m Metrics) Delta {
	d := Delta{WindowStart: c.windowStart, WindowEnd: c.windowEnd}

	now := c.cfg.Now()
	if !c.lastTrigger.IsZero() && now.Sub(c.lastTrigger) < c.cfg.Cooldown {
		return d
	}

	switch {
	case m.ScrollTop+m.ClientHeight >= m.ScrollHeight-c.cfg.BottomThreshold:
		c.windowEnd += c.cfg.Grow
		c.lastTrigger = now
		d.GrewBottom = true
	case m.ScrollTop <= c.cfg.TopThreshold:
		c.windowStart -= c.cfg.Grow
		c.lastTrigger = now
		d.GrewTop = true
		d.Compensation = &Compensation{
			prevScrollHeight: m.ScrollHeight,
			generation:       c.generation,
		}
	}

	d.WindowStart = c.windowStart
	d.WindowEnd = c.windowEnd
	return d
}

// Compensate resolves a pending top-grow adjustment: given the container
// height after the prepend was laid out, it returns the scroll top that
// restores the same content at the same viewport position. The height delta
// is applied exactly once per trigger. If the container was invalidated
// (resize or unmount) since the compensation was issued, it is discarded
// and the input scrollTop comes back unchanged.
func (c *Controller) Compensate(comp *Compensation, newScrollHeight, scrollTop float64) (float64, bool) {
	if comp == nil || comp.consumed || comp.generation != c.generation {
		return scrollTop, false
	}
	comp.consumed = true
	heightDelta := newScrollHeight - comp.prevScrollHeight
	return scrollTop + heightDelta, true
}

// InvalidateContainer marks every outstanding compensation stale. Call on
// viewport resize or when the scroll container unmounts.
func (c *Controller) InvalidateContainer() {
	c.generation++
}

// ResetToToday collapses the window back to its initial bounds and asks
// for a scroll-into-view of the anchor month.
func (c *Controller) ResetToToday() Delta {
	c.windowStart = DefaultWindowStart
	c.windowEnd = DefaultWindowEnd
	c.generation++
	c.lastTrigger = time.Time{}
	anchor := AnchorOffset
	return Delta{
		WindowStart: c.windowStart,
		WindowEnd:   c.windowEnd,
		ScrollTo:    &anchor,
	}
}

// MonthAt maps a window offset to a concrete year/month relative to base.
func MonthAt(base time.Time, offset int) (int, time.Month) {
	shifted := time.Date(base.Year(), base.Month()+time.Month(offset), 1, 0, 0, 0, 0, time.Local)
	return shifted.Year(), shifted.Month()
}
