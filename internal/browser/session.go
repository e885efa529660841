// Package browser is the Browser Driver Adapter (spec.md §4.A): a narrow
// synchronous contract over go-rod's asynchronous browser automation
// surface. Exactly one Session is ever open at a time per spec.md §5 — the
// teacher's multi-tab PagePool is narrowed here to a single page's
// lifecycle (launch, health-check, recover-or-destroy).
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/olereon/galleryharvest/internal/logging"
)

// Viewport is the initial browser window size for Open.
type Viewport struct {
	Width  int
	Height int
}

// Handle is an opaque reference to a DOM element, owned by the Session
// that produced it. Its lifetime is bounded by the session — per spec.md
// §9 the core never models the DOM graph as owned data.
type Handle struct {
	el *rod.Element
}

// Session wraps one browser + one page. cleanFailures tracks the
// retry-then-mark-dirty-then-destroy policy adapted from the teacher's
// PagePool health tracking, narrowed to a pool of one.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	url     string

	cleanFailures int
	dirty         bool
}

// Open launches a (by default headless) browser, navigates to url, and
// waits for the DOM to stabilize. Mirrors the teacher's
// DynamicCrawler.launchBrowser, narrowed to one page instead of a pool.
func Open(ctx context.Context, url string, headless bool, vp Viewport) (sess *Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrBrowserCrashed, r)
		}
	}()

	l := launcher.New().Headless(headless).Set("disable-blink-features", "AutomationControlled")
	controlURL, launchErr := l.Launch()
	if launchErr != nil {
		return nil, fmt.Errorf("launch browser: %w", launchErr)
	}

	browserInst := rod.New().ControlURL(controlURL).Context(ctx)
	if connectErr := browserInst.Connect(); connectErr != nil {
		return nil, fmt.Errorf("connect to browser: %w", connectErr)
	}

	page, pageErr := browserInst.Page(proto.TargetCreateTarget{URL: url})
	if pageErr != nil {
		browserInst.Close()
		return nil, fmt.Errorf("open page: %w", pageErr)
	}

	if vp.Width > 0 && vp.Height > 0 {
		_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  vp.Width,
			Height: vp.Height,
		})
	}

	if waitErr := page.WaitLoad(); waitErr != nil {
		logging.Warnf("page load wait failed, continuing: %v", waitErr)
	}

	return &Session{browser: browserInst, page: page, url: url}, nil
}

// Close disposes the browser. Safe to call more than once.
func (s *Session) Close() {
	if s == nil || s.browser == nil {
		return
	}
	_ = s.browser.Close()
	s.browser = nil
	s.page = nil
}

// CancelDownloads best-effort cancels any in-flight navigation or
// downloads — used by stop(emergency=true) per spec.md §5.
func (s *Session) CancelDownloads() {
	if s == nil || s.page == nil {
		return
	}
	_ = proto.PageStopLoading{}.Call(s.page)
}

// markFailure applies the retry-then-dirty-then-destroy policy adapted
// from page_pool.go's PageHealthStatus, collapsed to a single page: the
// first clean failure just counts, the second marks the session dirty so
// the pipeline controller knows to recycle it before continuing.
func (s *Session) markFailure() {
	s.cleanFailures++
	if s.cleanFailures >= 2 {
		s.dirty = true
	}
}

func (s *Session) markSuccess() {
	s.cleanFailures = 0
}

// Dirty reports whether the session has accumulated enough consecutive
// failures that the caller should recover (reload) before continuing.
func (s *Session) Dirty() bool { return s.dirty }

// Recover reloads the current page and resets health tracking. Mirrors
// page_pool.go's cleanPage, narrowed to a reload since there is no pool to
// return a fresh page from.
func (s *Session) Recover() error {
	if err := s.page.Reload(); err != nil {
		return fmt.Errorf("%w: reload failed: %v", ErrBrowserCrashed, err)
	}
	if err := s.page.WaitLoad(); err != nil {
		logging.Warnf("reload wait failed, continuing: %v", err)
	}
	s.cleanFailures = 0
	s.dirty = false
	return nil
}

// withTimeout scopes a single operation to a deadline, per spec.md §4.A's
// navigation/network-idle-timeout transient-error classification.
func (s *Session) withTimeout(d time.Duration) *rod.Page {
	return s.page.Timeout(d)
}
