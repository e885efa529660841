package browser

import (
	"fmt"

	"github.com/go-rod/rod"
)

// Evaluate runs an in-page JS snippet and decodes its return value, the
// surface the Scroll Manager uses for scrollTop mutation, container
// counting, and sentinel detection (spec.md §4.B).
func (s *Session) Evaluate(script string, args ...interface{}) (interface{}, error) {
	res, err := s.page.Evaluate(rod.Eval(script, args...))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	var out interface{}
	if err := res.Value.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("evaluate decode: %w", err)
	}
	return out, nil
}

// EvaluateOn runs script with `this` bound to handle's element.
func (s *Session) EvaluateOn(h *Handle, script string, args ...interface{}) (interface{}, error) {
	res, err := h.el.Eval(script, args...)
	if err != nil {
		return nil, fmt.Errorf("evaluate on element: %w", err)
	}
	var out interface{}
	if err := res.Value.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("evaluate on element decode: %w", err)
	}
	return out, nil
}
