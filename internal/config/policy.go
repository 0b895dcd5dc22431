package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy is the optional view/digest policy file. Anything not set keeps
// its default, so a partial file is fine.
type Policy struct {
	Week   WeekPolicy   `yaml:"week"`
	Grid   GridPolicy   `yaml:"grid"`
	Digest DigestPolicy `yaml:"digest"`
	Scroll ScrollPolicy `yaml:"scroll"`
}

type WeekPolicy struct {
	// MergeWeekend collapses Saturday and Sunday into one summary row in
	// week view, the pharmacy staffing convention.
	MergeWeekend bool `yaml:"merge_weekend"`
}

type GridPolicy struct {
	VisibleEvents int `yaml:"visible_events"`
}

type DigestPolicy struct {
	HorizonDays      int      `yaml:"horizon_days"`
	UpcomingLimit    int      `yaml:"upcoming_limit"`
	ExcludeCalendars []string `yaml:"exclude_calendars"`
}

type ScrollPolicy struct {
	GrowMonths        int     `yaml:"grow_months"`
	TopThresholdPx    float64 `yaml:"top_threshold_px"`
	BottomThresholdPx float64 `yaml:"bottom_threshold_px"`
	CooldownMS        int     `yaml:"cooldown_ms"`
}

func DefaultPolicy() Policy {
	return Policy{
		Week: WeekPolicy{MergeWeekend: true},
		Digest: DigestPolicy{
			HorizonDays:      7,
			UpcomingLimit:    5,
			ExcludeCalendars: []string{"Notdienst"},
		},
	}
}

// LoadPolicy reads the policy file at path, overlaying it onto the
// defaults. An empty path returns the defaults unchanged.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return Policy{}, fmt.Errorf("parse policy file: %w", err)
	}
	return policy, nil
}
