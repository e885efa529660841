package scroll

import (
	"testing"

	"github.com/olereon/galleryharvest/internal/models"
)

// TestDynamicThresholdWorkedExample exercises spec.md §8's worked scenario:
// a host page that only permits 140px per scroll attempt must still count
// as successful under a 2500px configured min_scroll_distance.
func TestDynamicThresholdWorkedExample(t *testing.T) {
	threshold := dynamicThreshold(2500, 140)
	if threshold != 112 {
		t.Fatalf("expected threshold 112, got %v", threshold)
	}
	if !(140 >= threshold) {
		t.Fatalf("140px attempt should clear the dynamic threshold (%v)", threshold)
	}
}

func TestDynamicThresholdZeroAchievedDistance(t *testing.T) {
	if got := dynamicThreshold(2500, 0); got != 100 {
		t.Fatalf("expected floor of 100 for a zero achieved distance, got %v", got)
	}
}

// TestDynamicThresholdNeverExceedsConfiguredCap asserts spec.md §4.B's
// "the threshold MUST never exceed the configured min_scroll_distance ×
// 0.3" invariant: a very large achieved distance is capped by the
// configured min_scroll_distance, not by the distance itself.
func TestDynamicThresholdNeverExceedsConfiguredCap(t *testing.T) {
	got := dynamicThreshold(2500, 5000)
	wantCap := float64(2500) * 0.3
	if got != wantCap {
		t.Fatalf("expected threshold capped at %v, got %v", wantCap, got)
	}
}

func TestDynamicThresholdScalesWithAchievedDistance(t *testing.T) {
	// achieved_distance * 0.8 = 400, below the 750 cap, above the 100 floor.
	got := dynamicThreshold(2500, 500)
	if got != 400 {
		t.Fatalf("expected threshold 400, got %v", got)
	}
}

// TestManagerConfigureIsPerInstance guards against a regression back to a
// package-level default: two Managers configured differently must not
// observe each other's min_scroll_distance (spec.md §9, "no process-wide
// singleton").
func TestManagerConfigureIsPerInstance(t *testing.T) {
	a := NewManager(models.NewScrollState())
	b := NewManager(models.NewScrollState())

	a.Configure(1000)
	b.Configure(5000)

	if a.minScrollDistance != 1000 {
		t.Fatalf("expected a.minScrollDistance == 1000, got %d", a.minScrollDistance)
	}
	if b.minScrollDistance != 5000 {
		t.Fatalf("expected b.minScrollDistance == 5000, got %d", b.minScrollDistance)
	}
}

// TestSelectStrategyDefaultsToRankOrder exercises the no-history tiebreak
// spec.md §4.B names: with no recorded attempts for any strategy,
// selection falls back to rank order (the first registered strategy).
func TestSelectStrategyDefaultsToRankOrder(t *testing.T) {
	m := NewManager(models.NewScrollState())
	got := m.selectStrategy()
	if got.Tag() != m.strategies[0].Tag() {
		t.Fatalf("expected rank-order fallback to strategy %v, got %v", m.strategies[0].Tag(), got.Tag())
	}
}
