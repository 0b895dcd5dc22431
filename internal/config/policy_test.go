package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if !p.Week.MergeWeekend {
		t.Fatal("weekend merge must default on")
	}
	if p.Digest.HorizonDays != 7 || p.Digest.UpcomingLimit != 5 {
		t.Fatalf("digest defaults = %+v", p.Digest)
	}
	if len(p.Digest.ExcludeCalendars) != 1 || p.Digest.ExcludeCalendars[0] != "Notdienst" {
		t.Fatalf("exclusions = %v", p.Digest.ExcludeCalendars)
	}
}

func TestLoadPolicyEmptyPathKeepsDefaults(t *testing.T) {
	p, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !p.Week.MergeWeekend || p.Digest.HorizonDays != 7 {
		t.Fatalf("policy = %+v, want defaults", p)
	}
}

func TestLoadPolicyOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	raw := `
week:
  merge_weekend: false
digest:
  horizon_days: 14
scroll:
  grow_months: 6
  cooldown_ms: 500
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Week.MergeWeekend {
		t.Fatal("file must override the merge default")
	}
	if p.Digest.HorizonDays != 14 {
		t.Fatalf("horizon = %d", p.Digest.HorizonDays)
	}
	// Keys absent from the file keep their defaults.
	if p.Digest.UpcomingLimit != 5 {
		t.Fatalf("upcoming = %d, want default", p.Digest.UpcomingLimit)
	}
	if p.Scroll.GrowMonths != 6 || p.Scroll.CooldownMS != 500 {
		t.Fatalf("scroll = %+v", p.Scroll)
	}
}

func TestLoadPolicyErrors(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("week: [not, a, map]"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
