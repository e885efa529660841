package scroll

import (
	"time"

	"github.com/olereon/galleryharvest/internal/models"
)

// containerTopStrategy directly mutates scrollTop on the largest
// scrollable child. Rank 1 — fastest.
type containerTopStrategy struct{}

func (containerTopStrategy) Tag() models.StrategyTag { return TagContainerTop }

func (containerTopStrategy) Attempt(driver Driver, targetDistance int) Result {
	start := time.Now()
	script := `(target) => {
		let best = document.scrollingElement || document.documentElement;
		let bestDelta = best.scrollHeight - best.clientHeight;
		document.querySelectorAll('*').forEach(el => {
			const delta = el.scrollHeight - el.clientHeight;
			if (delta > bestDelta && el.scrollHeight > el.clientHeight) {
				best = el;
				bestDelta = delta;
			}
		});
		const before = best.scrollTop;
		best.scrollTop = before + target;
		return best.scrollTop - before;
	}`
	achieved, err := evalDistance(driver, script, targetDistance)
	return Result{MethodTag: TagContainerTop, AchievedDistance: achieved, Elapsed: time.Since(start), Err: err}
}

// elementIntoViewStrategy picks an element below the viewport and scrolls
// it into view. Rank 2 — reliable but slower.
type elementIntoViewStrategy struct{}

func (elementIntoViewStrategy) Tag() models.StrategyTag { return TagElementIntoView }

func (elementIntoViewStrategy) Attempt(driver Driver, targetDistance int) Result {
	start := time.Now()
	script := `(target) => {
		const before = window.scrollY;
		const nodes = document.querySelectorAll('div[id]');
		let candidate = null;
		for (const el of nodes) {
			const rect = el.getBoundingClientRect();
			if (rect.top > window.innerHeight) { candidate = el; break; }
		}
		if (candidate) {
			candidate.scrollIntoView({behavior: 'instant', block: 'center'});
		} else {
			window.scrollBy(0, target);
		}
		return window.scrollY - before;
	}`
	achieved, err := evalDistance(driver, script, targetDistance)
	return Result{MethodTag: TagElementIntoView, AchievedDistance: achieved, Elapsed: time.Since(start), Err: err}
}

// enhancedTriggersStrategy dispatches multiple built-in scroll triggers in
// sequence. Rank 3.
type enhancedTriggersStrategy struct{}

func (enhancedTriggersStrategy) Tag() models.StrategyTag { return TagEnhancedTriggers }

func (enhancedTriggersStrategy) Attempt(driver Driver, targetDistance int) Result {
	start := time.Now()
	script := `(target) => {
		const before = window.scrollY;
		window.scrollTo(0, document.body.scrollHeight);
		window.dispatchEvent(new Event('scroll'));
		window.scrollBy(0, target);
		window.dispatchEvent(new WheelEvent('wheel', {deltaY: target}));
		return window.scrollY - before;
	}`
	achieved, err := evalDistance(driver, script, targetDistance)
	return Result{MethodTag: TagEnhancedTriggers, AchievedDistance: achieved, Elapsed: time.Since(start), Err: err}
}

// intersectionObserverStrategy installs a short-lived observer on bottom
// sentinel elements and scrolls incrementally when they intersect. Rank 4.
type intersectionObserverStrategy struct{}

func (intersectionObserverStrategy) Tag() models.StrategyTag { return TagIntersectionObserver }

func (intersectionObserverStrategy) Attempt(driver Driver, targetDistance int) Result {
	start := time.Now()
	// A real intersection observer is asynchronous; this collapses the
	// wait into a single evaluate round-trip via a promise so the adapter
	// keeps its one-outstanding-request contract (spec.md §5).
	script := `(target) => new Promise(resolve => {
		const before = window.scrollY;
		const sentinels = document.querySelectorAll('div[id]');
		const last = sentinels[sentinels.length - 1];
		if (!last) { resolve(0); return; }
		const obs = new IntersectionObserver(entries => {
			for (const entry of entries) {
				if (entry.isIntersecting) {
					window.scrollBy(0, target);
				}
			}
			obs.disconnect();
			resolve(window.scrollY - before);
		});
		obs.observe(last);
		window.scrollBy(0, target);
		setTimeout(() => { obs.disconnect(); resolve(window.scrollY - before); }, 500);
	})`
	achieved, err := evalDistance(driver, script, targetDistance)
	return Result{MethodTag: TagIntersectionObserver, AchievedDistance: achieved, Elapsed: time.Since(start), Err: err}
}

// manualElementStrategy iterates all scrollable descendants and advances
// each by a fraction of targetDistance. Rank 5.
type manualElementStrategy struct{}

func (manualElementStrategy) Tag() models.StrategyTag { return TagManualElement }

func (manualElementStrategy) Attempt(driver Driver, targetDistance int) Result {
	start := time.Now()
	script := `(target) => {
		const before = (document.scrollingElement || document.documentElement).scrollTop;
		const scrollables = [];
		document.querySelectorAll('*').forEach(el => {
			if (el.scrollHeight > el.clientHeight) scrollables.push(el);
		});
		const fraction = scrollables.length > 0 ? target / scrollables.length : 0;
		scrollables.forEach(el => { el.scrollTop += fraction; });
		const after = (document.scrollingElement || document.documentElement).scrollTop;
		return after - before;
	}`
	achieved, err := evalDistance(driver, script, targetDistance)
	return Result{MethodTag: TagManualElement, AchievedDistance: achieved, Elapsed: time.Since(start), Err: err}
}

// networkIdleStrategy scrolls to document bottom and measures the distance
// moved; it performs no network-idle wait of its own. Rank 6 — slowest,
// highest reliability.
type networkIdleStrategy struct{}

func (networkIdleStrategy) Tag() models.StrategyTag { return TagNetworkIdle }

func (networkIdleStrategy) Attempt(driver Driver, targetDistance int) Result {
	start := time.Now()
	script := `(target) => {
		const before = window.scrollY;
		window.scrollTo(0, document.body.scrollHeight);
		return window.scrollY - before;
	}`
	achieved, err := evalDistance(driver, script, targetDistance)
	// The network-idle wait itself is the caller's responsibility (the
	// Manager's bounded-wait step applies uniformly after any strategy);
	// this strategy is distinguished by always targeting document bottom
	// rather than an incremental distance.
	return Result{MethodTag: TagNetworkIdle, AchievedDistance: achieved, Elapsed: time.Since(start), Err: err}
}

func evalDistance(driver Driver, script string, targetDistance int) (int, error) {
	raw, err := driver.Evaluate(script, targetDistance)
	if err != nil {
		return 0, err
	}
	return int(asFloat(raw)), nil
}

// AllStrategies returns the six-member cascade in rank order, matching the
// table in spec.md §4.B exactly.
func AllStrategies() []Strategy {
	return []Strategy{
		containerTopStrategy{},
		elementIntoViewStrategy{},
		enhancedTriggersStrategy{},
		intersectionObserverStrategy{},
		manualElementStrategy{},
		networkIdleStrategy{},
	}
}
