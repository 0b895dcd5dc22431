package scroll

import (
	"testing"
	"time"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestController() (*Controller, *clock) {
	ck := &clock{now: time.Date(2025, time.June, 2, 12, 0, 0, 0, time.Local)}
	return New(Config{Now: ck.Now}), ck
}

func TestInitialWindow(t *testing.T) {
	c, _ := newTestController()
	start, end := c.Window()
	if start != DefaultWindowStart || end != DefaultWindowEnd {
		t.Fatalf("window = [%d,%d], want [%d,%d]", start, end, DefaultWindowStart, DefaultWindowEnd)
	}
	offsets := c.Offsets()
	if len(offsets) != 6 {
		t.Fatalf("offsets len = %d, want 6", len(offsets))
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] != offsets[i-1]+1 {
			t.Fatal("offsets must ascend contiguously")
		}
	}
}

func TestBottomGrowAppendsWithoutCompensation(t *testing.T) {
	c, _ := newTestController()
	d := c.OnScroll(Metrics{ScrollTop: 2600, ScrollHeight: 3600, ClientHeight: 600})
	if !d.GrewBottom || d.GrewTop {
		t.Fatalf("delta = %+v, want bottom grow only", d)
	}
	if d.WindowEnd != DefaultWindowEnd+DefaultGrow {
		t.Fatalf("window end = %d, want %d", d.WindowEnd, DefaultWindowEnd+DefaultGrow)
	}
	if d.Compensation != nil {
		t.Fatal("append must not carry a compensation")
	}
}

func TestTopGrowCompensatesExactlyOnce(t *testing.T) {
	c, _ := newTestController()
	d := c.OnScroll(Metrics{ScrollTop: 100, ScrollHeight: 12000, ClientHeight: 600})
	if !d.GrewTop || d.GrewBottom {
		t.Fatalf("delta = %+v, want top grow only", d)
	}
	if d.WindowStart != DefaultWindowStart-DefaultGrow {
		t.Fatalf("window start = %d, want %d", d.WindowStart, DefaultWindowStart-DefaultGrow)
	}
	if d.Compensation == nil {
		t.Fatal("top grow must carry a compensation")
	}

	// Three months were prepended; the container grew by their height.
	newTop, ok := c.Compensate(d.Compensation, 14400, 100)
	if !ok {
		t.Fatal("compensation discarded")
	}
	if newTop != 100+(14400-12000) {
		t.Fatalf("compensated scrollTop = %v, want %v", newTop, 100+(14400-12000))
	}

	// A second resolve of the same trigger must be a no-op.
	again, ok := c.Compensate(d.Compensation, 14400, newTop)
	if ok || again != newTop {
		t.Fatal("height delta applied more than once per trigger")
	}
}

func TestCooldownSwallowsRapidTriggers(t *testing.T) {
	c, ck := newTestController()
	first := c.OnScroll(Metrics{ScrollTop: 100, ScrollHeight: 12000, ClientHeight: 600})
	if !first.GrewTop {
		t.Fatal("first trigger should grow")
	}

	ck.Advance(50 * time.Millisecond)
	second := c.OnScroll(Metrics{ScrollTop: 50, ScrollHeight: 14400, ClientHeight: 600})
	if second.GrewTop || second.GrewBottom {
		t.Fatal("trigger inside cooldown must be swallowed")
	}

	ck.Advance(DefaultCooldown)
	third := c.OnScroll(Metrics{ScrollTop: 50, ScrollHeight: 14400, ClientHeight: 600})
	if !third.GrewTop {
		t.Fatal("trigger after cooldown should grow")
	}
}

func TestInvalidateContainerDiscardsPendingCompensation(t *testing.T) {
	c, _ := newTestController()
	d := c.OnScroll(Metrics{ScrollTop: 100, ScrollHeight: 12000, ClientHeight: 600})
	if d.Compensation == nil {
		t.Fatal("expected pending compensation")
	}
	c.InvalidateContainer()
	got, ok := c.Compensate(d.Compensation, 14400, 100)
	if ok {
		t.Fatal("stale compensation must be discarded after invalidate")
	}
	if got != 100 {
		t.Fatalf("scrollTop changed to %v on discarded compensation", got)
	}
}

func TestResetToToday(t *testing.T) {
	c, ck := newTestController()
	c.OnScroll(Metrics{ScrollTop: 100, ScrollHeight: 12000, ClientHeight: 600})
	ck.Advance(time.Second)
	c.OnScroll(Metrics{ScrollTop: 2600, ScrollHeight: 3600, ClientHeight: 600})

	d := c.ResetToToday()
	if d.WindowStart != DefaultWindowStart || d.WindowEnd != DefaultWindowEnd {
		t.Fatalf("window = [%d,%d] after reset", d.WindowStart, d.WindowEnd)
	}
	if d.ScrollTo == nil || *d.ScrollTo != AnchorOffset {
		t.Fatal("reset must schedule a scroll to the anchor month")
	}
	// Reset invalidates compensations issued before it.
	pending := c.OnScroll(Metrics{ScrollTop: 100, ScrollHeight: 12000, ClientHeight: 600})
	if pending.Compensation == nil {
		t.Fatal("expected fresh compensation after reset")
	}
}

func TestMonthAt(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.Local)
	cases := []struct {
		offset int
		year   int
		month  time.Month
	}{
		{0, 2025, time.January},
		{1, 2025, time.February},
		{-1, 2024, time.December},
		{11, 2025, time.December},
		{12, 2026, time.January},
		{-13, 2023, time.December},
	}
	for _, tc := range cases {
		y, m := MonthAt(base, tc.offset)
		if y != tc.year || m != tc.month {
			t.Fatalf("MonthAt(%d) = %d-%s, want %d-%s", tc.offset, y, m, tc.year, tc.month)
		}
	}
}
