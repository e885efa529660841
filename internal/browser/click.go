package browser

import (
	"fmt"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// ClickStrategy names one of the fallback mechanisms spec.md §4.A's click
// contract enumerates. Modeled as tagged variants per spec.md §9 — a
// strategy is data (a function value keyed by name), not a type hierarchy.
type ClickStrategy string

const (
	ClickNative       ClickStrategy = "native"
	ClickJS           ClickStrategy = "js"
	ClickDispatch     ClickStrategy = "dispatch_event"
	ClickBBox         ClickStrategy = "bbox"
	ClickKeyboard     ClickStrategy = "keyboard"
)

// DefaultClickStrategies is the order spec.md §4.A lists: native first,
// keyboard (Enter on a focused element) as the last resort.
var DefaultClickStrategies = []ClickStrategy{
	ClickNative, ClickJS, ClickDispatch, ClickBBox, ClickKeyboard,
}

// Click tries each strategy in order, returning on first success.
func (s *Session) Click(h *Handle, strategies ...ClickStrategy) error {
	if len(strategies) == 0 {
		strategies = DefaultClickStrategies
	}
	var lastErr error
	for _, strat := range strategies {
		if err := s.clickOnce(h, strat); err != nil {
			lastErr = err
			continue
		}
		s.markSuccess()
		return nil
	}
	s.markFailure()
	return fmt.Errorf("%w: last error: %v", ErrClickExhausted, lastErr)
}

func (s *Session) clickOnce(h *Handle, strat ClickStrategy) error {
	switch strat {
	case ClickNative:
		return h.el.Click(proto.InputMouseButtonLeft, 1)
	case ClickJS:
		_, err := h.el.Eval(`() => this.click()`)
		return err
	case ClickDispatch:
		_, err := h.el.Eval(`() => this.dispatchEvent(new MouseEvent('click', {bubbles: true}))`)
		return err
	case ClickBBox:
		shape, err := h.el.Shape()
		if err != nil {
			return err
		}
		box := shape.Box()
		page := h.el.Page()
		if err := page.Mouse.MoveTo(box.Center()); err != nil {
			return err
		}
		return page.Mouse.Click(proto.InputMouseButtonLeft, 1)
	case ClickKeyboard:
		if err := h.el.Focus(); err != nil {
			return err
		}
		return h.el.Page().Keyboard.Type(input.Enter)
	default:
		return fmt.Errorf("unknown click strategy %q", strat)
	}
}
