package browser

import (
	"fmt"
	"time"
)

// QueryOne returns the first element matching selector, or ErrElementNotFound
// (transient) if none is currently attached.
func (s *Session) QueryOne(selector string) (*Handle, error) {
	el, err := s.withTimeout(2 * time.Second).Element(selector)
	if err != nil {
		s.markFailure()
		return nil, fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	s.markSuccess()
	return &Handle{el: el}, nil
}

// QueryAll returns every element matching selector, in document order.
func (s *Session) QueryAll(selector string) ([]*Handle, error) {
	els, err := s.withTimeout(2 * time.Second).Elements(selector)
	if err != nil {
		s.markFailure()
		return nil, fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	handles := make([]*Handle, 0, len(els))
	for _, el := range els {
		handles = append(handles, &Handle{el: el})
	}
	s.markSuccess()
	return handles, nil
}

// TextOf returns an element's rendered text content.
func (s *Session) TextOf(h *Handle) (string, error) {
	text, err := h.el.Text()
	if err != nil {
		return "", fmt.Errorf("%w: text: %v", ErrElementNotVisible, err)
	}
	return text, nil
}

// AttrOf returns the named attribute, or ("", nil) if the attribute is
// absent (a missing attribute is not an error — spec.md §4.A's
// attr_of(...) -> Text? is nil-able by design).
func (s *Session) AttrOf(h *Handle, name string) (string, error) {
	val, err := h.el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("attr %s: %v", name, err)
	}
	if val == nil {
		return "", nil
	}
	return *val, nil
}

// Visible reports whether the element is currently rendered and within
// the viewport, used by end-of-gallery and container detection.
func (s *Session) Visible(h *Handle) bool {
	visible, err := h.el.Visible()
	if err != nil {
		return false
	}
	return visible
}
