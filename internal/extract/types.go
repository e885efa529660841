// Package extract implements the Metadata Extractor (spec.md §4.C): a
// five-strategy cascade that turns a container's rendered DOM into a
// Metadata Record, with retry/timing rules, a confidence-gated cache, and
// per-strategy performance tracking. Grounded on
// original_source/src/utils/unified_metadata_extractor.py
// (UnifiedMetadataExtractor) and enhanced_metadata_extraction.py for
// selector/pattern detail; the cascade RANK ORDER follows spec.md §4.C,
// which differs from the Python original's selection order.
package extract

import (
	"time"

	"github.com/olereon/galleryharvest/internal/models"
)

// Strategy rank, matching spec.md §4.C's cascade exactly: text pattern,
// DOM analysis, relative positioning, fallback patterns, comprehensive
// scan.
const (
	TagTextPattern      models.StrategyTag = "text-pattern"
	TagDOMAnalysis      models.StrategyTag = "dom-analysis"
	TagRelativePosition models.StrategyTag = "relative-positioning"
	TagFallbackPatterns models.StrategyTag = "fallback-patterns"
	TagComprehensiveScan models.StrategyTag = "comprehensive-scan"
)

// Driver is the narrow slice of the Browser Driver Adapter the extractor
// needs, kept as an interface so strategies are unit-testable against a
// fake.
type Driver interface {
	ContainerText(containerID string) (string, error)
	QueryText(containerID, selector string) (string, error)
	PageURL() string
}

// Outcome is what a single strategy attempt reports before confidence
// gating and caching are applied.
type Outcome struct {
	Record models.MetadataRecord
	Ok     bool
	Err    error
}

// Strategy is the shared contract every extraction mechanism implements.
type Strategy interface {
	Tag() models.StrategyTag
	Attempt(driver Driver, containerID string) Outcome
}

// Config carries the tunables spec.md §4.C and the Configuration section
// name explicitly.
type Config struct {
	DOMWaitTimeout   time.Duration
	RetryAttempts    int
	RetryDelay       time.Duration
	CacheTTL         time.Duration
	CacheSize        int
	ConfidenceFloor  float64
}

// DefaultConfig mirrors the values spec.md §4.C states inline (30s TTL,
// confidence floor 0.7) plus the teacher-idiom defaults for the rest.
func DefaultConfig() Config {
	return Config{
		DOMWaitTimeout:  2 * time.Second,
		RetryAttempts:   3,
		RetryDelay:      500 * time.Millisecond,
		CacheTTL:        30 * time.Second,
		CacheSize:       512,
		ConfidenceFloor: 0.7,
	}
}
