// Package scroll implements the Scroll Manager (spec.md §4.B): a ranked
// strategy cascade that induces the gallery to render previously unseen
// containers. Grounded in original_source/src/utils/unified_scroll_manager.py
// (UnifiedScrollManager) and boundary_scroll_manager.py (the exact dynamic
// threshold formula and container selector set).
package scroll

import (
	"time"

	"github.com/olereon/galleryharvest/internal/models"
)

// Result is what a single strategy attempt reports back to the Manager.
type Result struct {
	MethodTag        models.StrategyTag
	AchievedDistance int
	Elapsed          time.Duration
	ContainersBefore []string
	ContainersAfter  []string
	Err              error
}

// Strategy is the shared contract every scroll mechanism implements.
// Tagged variants, not a class hierarchy, per spec.md §9.
type Strategy interface {
	Tag() models.StrategyTag
	Attempt(driver Driver, targetDistance int) Result
}

// Driver is the narrow slice of the Browser Driver Adapter the Scroll
// Manager needs — kept as an interface so strategies can be unit tested
// against a fake.
type Driver interface {
	Evaluate(script string, args ...interface{}) (interface{}, error)
}

// Strategy rank, matching the table in spec.md §4.B exactly.
const (
	TagContainerTop         models.StrategyTag = "container-top"
	TagElementIntoView      models.StrategyTag = "element-into-view"
	TagEnhancedTriggers     models.StrategyTag = "enhanced-triggers"
	TagIntersectionObserver models.StrategyTag = "intersection-observer"
	TagManualElement        models.StrategyTag = "manual-element"
	TagNetworkIdle          models.StrategyTag = "network-idle"
)

// containerSelector is the coarse selector for candidate containers: every
// div with an id. The "__N" suffix of the container ID family (N any
// non-negative integer, unbounded) is checked separately, by
// containerIDRegex and by the filter in captureContainerIDsJS.
const containerSelector = `div[id]`
