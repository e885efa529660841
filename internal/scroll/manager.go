package scroll

import (
	"context"
	"sort"
	"time"

	"github.com/olereon/galleryharvest/internal/logging"
	"github.com/olereon/galleryharvest/internal/models"
)

// Manager holds the ranked strategy ensemble and the run's transient
// ScrollState, and exposes the advance_until driver loop spec.md §4.B
// names.
type Manager struct {
	strategies []Strategy
	state      *models.ScrollState

	// minScrollDistance is the configured min_scroll_distance the dynamic
	// threshold formula scales from; set once via Configure. Kept on the
	// instance rather than as a package-level var per spec.md §9's "no
	// process-wide singleton" design note.
	minScrollDistance int
}

func NewManager(state *models.ScrollState) *Manager {
	return &Manager{strategies: AllStrategies(), state: state, minScrollDistance: 2500}
}

// dynamicThreshold implements the exact formula of spec.md §4.B, confirmed
// bit-for-bit against boundary_scroll_manager.py's two call sites:
// threshold = max(100, min(minScrollDistance*0.3, achievedDistance*0.8))
// when achievedDistance > 0, else 100.
func dynamicThreshold(minScrollDistance, achievedDistance int) float64 {
	if achievedDistance <= 0 {
		return 100
	}
	capped := float64(minScrollDistance) * 0.3
	scaled := float64(achievedDistance) * 0.8
	if scaled < 100 {
		scaled = 100
	}
	if capped < scaled {
		return capped
	}
	return scaled
}

// selectStrategy picks the strategy with the highest empirical
// success_rate * content_efficiency; on a tie or no history, rank order
// (spec.md §4.B "Strategy selection").
func (m *Manager) selectStrategy() Strategy {
	type scored struct {
		strat Strategy
		score float64
		rank  int
	}
	best := scored{strat: m.strategies[0], rank: 0}
	for i, s := range m.strategies {
		metrics := m.state.MetricsFor(s.Tag())
		efficiency := contentEfficiency(metrics)
		score := metrics.SuccessRate() * efficiency
		if metrics.Attempts == 0 {
			continue // no history: only rank order decides among untried strategies
		}
		if score > best.score {
			best = scored{strat: s, score: score, rank: i}
		}
	}
	return best.strat
}

// contentEfficiency approximates "distance achieved per attempt", a stand-
// in for the Python original's content-count efficiency since the Scroll
// Manager here only tracks distance, not rendered-item count (that belongs
// to the Metadata Extractor / Boundary Resolver layer in this design).
func contentEfficiency(m *models.StrategyMetrics) float64 {
	if m.Attempts == 0 {
		return 0
	}
	return m.AvgDistance / 1000.0
}

// Attempt runs one scroll cycle: capture before-containers, pick and run a
// strategy, capture after-containers, apply the dynamic threshold, and
// update the chosen strategy's metrics.
func (m *Manager) Attempt(driver Driver, targetDistance int) (Result, []string, bool) {
	before, _ := CaptureContainerIDs(driver)

	strat := m.selectStrategy()
	result := strat.Attempt(driver, targetDistance)
	result.ContainersBefore = before

	after, _ := CaptureContainerIDs(driver)
	result.ContainersAfter = after

	threshold := dynamicThreshold(m.minScrollDistance, result.AchievedDistance)
	success := float64(result.AchievedDistance) >= threshold && result.Err == nil

	metrics := m.state.MetricsFor(strat.Tag())
	metrics.Attempts++
	if success {
		metrics.Successes++
	}
	metrics.AvgTime = runningAvg(metrics.AvgTime, metrics.Attempts, result.Elapsed.Seconds())
	metrics.AvgDistance = runningAvg(metrics.AvgDistance, metrics.Attempts, float64(result.AchievedDistance))

	m.state.Attempts++
	m.state.TotalDistance += result.AchievedDistance
	if success {
		m.state.ConsecutiveFailures = 0
	} else {
		m.state.ConsecutiveFailures++
	}
	for _, id := range after {
		m.state.KnownContainerIDs[id] = struct{}{}
	}

	fresh := DetectNewContainers(before, after)
	return result, fresh, success
}

// Configure sets the configured min_scroll_distance used by the dynamic
// threshold formula.
func (m *Manager) Configure(minScrollDistance int) {
	m.minScrollDistance = minScrollDistance
}

func runningAvg(current float64, count int, sample float64) float64 {
	if count <= 1 {
		return sample
	}
	return current + (sample-current)/float64(count)
}

// AdvancePredicate reports whether the caller's exit condition has been
// satisfied; the loop also stops on attempt/failure caps or end-of-gallery.
type AdvancePredicate func(freshContainers []string) bool

// AdvanceResult summarizes why advance_until returned.
type AdvanceResult struct {
	Reason          string // predicate_satisfied | max_attempts | max_consecutive_failures | end_of_gallery | cancelled
	AllFreshContainers []string
}

// AdvanceUntil scrolls repeatedly until predicate is satisfied,
// max_scroll_attempts is reached, max_consecutive_scroll_failures is
// reached, or end-of-gallery is detected. It honors ctx cancellation
// between attempts, never holding a lock across a suspension point
// (spec.md §4.B, §5).
func (m *Manager) AdvanceUntil(ctx context.Context, driver Driver, targetDistance, maxAttempts, maxConsecutiveFailures int, predicate AdvancePredicate) AdvanceResult {
	var allFresh []string
	for {
		select {
		case <-ctx.Done():
			return AdvanceResult{Reason: "cancelled", AllFreshContainers: allFresh}
		default:
		}

		if m.state.Attempts >= maxAttempts {
			return AdvanceResult{Reason: "max_attempts", AllFreshContainers: allFresh}
		}
		if m.state.ConsecutiveFailures >= maxConsecutiveFailures {
			return AdvanceResult{Reason: "max_consecutive_failures", AllFreshContainers: allFresh}
		}

		before, _ := CaptureContainerIDs(driver)
		posBefore, _ := CapturePosition(driver)

		_, fresh, success := m.Attempt(driver, targetDistance)
		allFresh = append(allFresh, fresh...)

		if !success {
			logging.Debugf("scroll attempt %d did not meet dynamic threshold", m.state.Attempts)
		}

		if predicate != nil && predicate(fresh) {
			return AdvanceResult{Reason: "predicate_satisfied", AllFreshContainers: allFresh}
		}

		time.Sleep(50 * time.Millisecond) // bounded settle wait, suspension point
		if EndOfGallery(driver, posBefore, len(before)) {
			return AdvanceResult{Reason: "end_of_gallery", AllFreshContainers: allFresh}
		}
	}
}

// Report returns a copy of the current per-strategy metrics, sorted by
// success rate, highest first, for diagnostics/progress events. The order
// of strategies with equal success rates is not defined.
func (m *Manager) Report() []struct {
	Tag     models.StrategyTag
	Metrics models.StrategyMetrics
} {
	out := make([]struct {
		Tag     models.StrategyTag
		Metrics models.StrategyMetrics
	}, 0, len(m.strategies))
	for _, s := range m.strategies {
		out = append(out, struct {
			Tag     models.StrategyTag
			Metrics models.StrategyMetrics
		}{Tag: s.Tag(), Metrics: *m.state.MetricsFor(s.Tag())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metrics.SuccessRate() > out[j].Metrics.SuccessRate() })
	return out
}
