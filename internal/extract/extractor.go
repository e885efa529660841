package extract

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/olereon/galleryharvest/internal/models"
)

// Extractor ties the five-strategy cascade to a cache, per-strategy
// performance tracking, and the retry/timing rules of spec.md §4.C. It
// satisfies the narrow Extractor interface internal/boundary depends on.
type Extractor struct {
	driver     Driver
	strategies []Strategy
	cache      *lruCache
	metrics    map[models.StrategyTag]*models.StrategyMetrics
	cfg        Config

	lastTextLen map[string]int // containerID -> text length observed on the previous attempt
}

func New(driver Driver, cfg Config) *Extractor {
	return &Extractor{
		driver:      driver,
		strategies:  AllStrategies(),
		cache:       newLRUCache(cfg.CacheSize, cfg.CacheTTL, cfg.ConfidenceFloor),
		metrics:     make(map[models.StrategyTag]*models.StrategyMetrics),
		cfg:         cfg,
		lastTextLen: make(map[string]int),
	}
}

func (e *Extractor) metricsFor(tag models.StrategyTag) *models.StrategyMetrics {
	m, ok := e.metrics[tag]
	if !ok {
		m = &models.StrategyMetrics{}
		e.metrics[tag] = m
	}
	return m
}

// cacheKeyFor builds the (page_url_without_query, container_identity) key
// spec.md §4.C names.
func (e *Extractor) cacheKeyFor(containerID string) cacheKey {
	raw := e.driver.PageURL()
	pageURL := raw
	if u, err := url.Parse(raw); err == nil {
		u.RawQuery = ""
		pageURL = u.String()
	}
	return cacheKey{pageURL: pageURL, containerID: containerID}
}

// Extract runs the full extraction pipeline for one container: cache
// probe, performance-ranked strategy selection, retry-on-transient-error
// with progressive delay, and cache population on confident success. It
// satisfies internal/boundary.Extractor.
func (e *Extractor) Extract(ctx context.Context, containerID string) (models.MetadataRecord, error) {
	key := e.cacheKeyFor(containerID)
	if cached, ok := e.cache.get(key); ok {
		return cached, nil
	}

	var lastErr error
	for attempt := 0; attempt <= e.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return models.MetadataRecord{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * e.cfg.RetryDelay):
			}
			if e.textChangedMaterially(containerID) {
				e.waitForStability(ctx, containerID)
			}
		} else {
			e.textChangedMaterially(containerID) // records the baseline length for later attempts
		}

		record, err := e.attemptCascade(containerID)
		if err == nil {
			if record.Confidence >= e.cfg.ConfidenceFloor {
				e.cache.put(key, record)
			}
			return record, nil
		}
		lastErr = err
		if !isTransient(err) {
			return models.MetadataRecord{}, err
		}
	}
	return models.MetadataRecord{}, fmt.Errorf("extraction exhausted retries: %w", lastErr)
}

// attemptCascade selects the best-performing strategy and runs the
// cascade starting from it, falling back through rank order on a miss.
func (e *Extractor) attemptCascade(containerID string) (models.MetadataRecord, error) {
	ordered := e.rankedStrategies()

	var lastErr error
	for _, strat := range ordered {
		start := time.Now()
		outcome := strat.Attempt(e.driver, containerID)
		elapsed := time.Since(start)

		metrics := e.metricsFor(strat.Tag())
		metrics.Attempts++
		if outcome.Ok {
			metrics.Successes++
		}
		metrics.AvgTime = runningAvg(metrics.AvgTime, metrics.Attempts, elapsed.Seconds())

		if outcome.Err != nil {
			lastErr = outcome.Err
			if isTransient(outcome.Err) {
				continue
			}
			return models.MetadataRecord{}, outcome.Err
		}
		if outcome.Ok {
			return outcome.Record, nil
		}
	}
	if lastErr != nil {
		return models.MetadataRecord{}, lastErr
	}
	return models.MetadataRecord{}, nil
}

func runningAvg(current float64, count int, sample float64) float64 {
	if count <= 1 {
		return sample
	}
	return current + (sample-current)/float64(count)
}

// rankedStrategies sorts the cascade by empirical success_rate, keeping
// the spec.md rank order as the tiebreaker for untried strategies — never
// reordering strategies with no history ahead of the mandated cascade.
func (e *Extractor) rankedStrategies() []Strategy {
	type scored struct {
		strat Strategy
		score float64
		rank  int
	}
	scoredList := make([]scored, len(e.strategies))
	for i, s := range e.strategies {
		m := e.metricsFor(s.Tag())
		scoredList[i] = scored{strat: s, score: m.SuccessRate(), rank: i}
	}
	for i := 1; i < len(scoredList); i++ {
		j := i
		for j > 0 && (scoredList[j].score > scoredList[j-1].score) {
			scoredList[j], scoredList[j-1] = scoredList[j-1], scoredList[j]
			j--
		}
	}
	out := make([]Strategy, len(scoredList))
	for i, s := range scoredList {
		out[i] = s.strat
	}
	return out
}

// textChangedMaterially reports whether the container's text length has
// moved outside the [0.8, 1.2] ratio band spec.md §4.C names, relative to
// the previous attempt.
func (e *Extractor) textChangedMaterially(containerID string) bool {
	text, err := e.driver.ContainerText(containerID)
	if err != nil {
		return false
	}
	newLen := len(text)
	prevLen, seen := e.lastTextLen[containerID]
	e.lastTextLen[containerID] = newLen
	if !seen || prevLen == 0 {
		return false
	}
	ratio := float64(newLen) / float64(prevLen)
	return ratio < 0.8 || ratio > 1.2
}

// waitForStability blocks up to DOMWaitTimeout for the container's text to
// stop changing length between two samples, per spec.md §4.C.
func (e *Extractor) waitForStability(ctx context.Context, containerID string) {
	deadline := time.Now().Add(e.cfg.DOMWaitTimeout)
	prev, _ := e.driver.ContainerText(containerID)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
		cur, err := e.driver.ContainerText(containerID)
		if err == nil && cur == prev {
			return
		}
		prev = cur
	}
}

// Report returns a snapshot of per-strategy metrics for diagnostics.
func (e *Extractor) Report() map[models.StrategyTag]models.StrategyMetrics {
	out := make(map[models.StrategyTag]models.StrategyMetrics, len(e.metrics))
	for tag, m := range e.metrics {
		out[tag] = *m
	}
	return out
}
