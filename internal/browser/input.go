package browser

import "github.com/go-rod/rod/lib/input"

// Type focuses the element and types text key-by-key.
func (s *Session) Type(h *Handle, text string) error {
	if err := h.el.Focus(); err != nil {
		s.markFailure()
		return err
	}
	if err := h.el.Input(text); err != nil {
		s.markFailure()
		return err
	}
	s.markSuccess()
	return nil
}

// Press sends a single key to the focused element.
func (s *Session) Press(h *Handle, key input.Key) error {
	if err := h.el.Focus(); err != nil {
		s.markFailure()
		return err
	}
	if err := h.el.Type(key); err != nil {
		s.markFailure()
		return err
	}
	s.markSuccess()
	return nil
}
