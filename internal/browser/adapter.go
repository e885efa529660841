package browser

import (
	"context"
	"fmt"
	"time"
)

// containerSelector builds an attribute-equality selector for a container
// ID, avoiding the CSS identifier-escaping pitfalls of `#id` selectors
// (container IDs may contain characters like "__" that are valid in an
// attribute value but awkward to escape as a bare ID selector).
func containerSelector(containerID string) string {
	return fmt.Sprintf(`[id="%s"]`, containerID)
}

// ContainerText returns the full rendered text of one container, the
// surface the Metadata Extractor's text-pattern, relative-positioning,
// fallback-patterns, and comprehensive-scan strategies read from
// (satisfies internal/extract.Driver).
func (s *Session) ContainerText(containerID string) (string, error) {
	h, err := s.QueryOne(containerSelector(containerID))
	if err != nil {
		return "", err
	}
	return s.TextOf(h)
}

// QueryText returns the text of the first element matching selector
// scoped within one container, the surface the DOM-analysis strategy
// reads from (satisfies internal/extract.Driver).
func (s *Session) QueryText(containerID, selector string) (string, error) {
	h, err := s.QueryOne(fmt.Sprintf("%s %s", containerSelector(containerID), selector))
	if err != nil {
		return "", nil // absent selector: not every container carries every candidate
	}
	return s.TextOf(h)
}

// PageURL returns the current page's URL, used to build the Metadata
// Extractor's cache key (page_url_without_query).
func (s *Session) PageURL() string {
	return s.url
}

// WaitForElement blocks until selector attaches, or ErrTimeout once
// timeout elapses (satisfies internal/actions.Driver).
func (s *Session) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := s.QueryOne(selector); err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("%w: wait_for_element %s", ErrTimeout, selector)
}

// ClickButton clicks selector, trying the fallback click strategies in
// order (satisfies internal/actions.Driver).
func (s *Session) ClickButton(selector string) error {
	h, err := s.QueryOne(selector)
	if err != nil {
		return err
	}
	return s.Click(h, DefaultClickStrategies...)
}

// InputText focuses selector and types value (satisfies
// internal/actions.Driver).
func (s *Session) InputText(selector, value string) error {
	h, err := s.QueryOne(selector)
	if err != nil {
		return err
	}
	return s.Type(h, value)
}

// ToggleSetting clicks selector if its current checked state does not
// match value (satisfies internal/actions.Driver).
func (s *Session) ToggleSetting(selector string, value bool) error {
	h, err := s.QueryOne(selector)
	if err != nil {
		return err
	}
	current, err := s.AttrOf(h, "checked")
	if err != nil {
		return err
	}
	isChecked := current != ""
	if isChecked == value {
		return nil
	}
	return s.Click(h, DefaultClickStrategies...)
}

// CheckElement implements the check_element action's condition tests:
// "exists", "visible", "text_equals", "attribute_equals" (satisfies
// internal/actions.Driver).
func (s *Session) CheckElement(selector, check, value, attribute string) (bool, error) {
	h, err := s.QueryOne(selector)
	if err != nil {
		if check == "exists" || check == "not_exists" {
			return check == "not_exists", nil
		}
		return false, err
	}

	switch check {
	case "exists":
		return true, nil
	case "not_exists":
		return false, nil
	case "visible":
		return s.Visible(h), nil
	case "text_equals":
		text, err := s.TextOf(h)
		if err != nil {
			return false, err
		}
		return text == value, nil
	case "attribute_equals":
		attr, err := s.AttrOf(h, attribute)
		if err != nil {
			return false, err
		}
		return attr == value, nil
	default:
		return false, fmt.Errorf("unknown check_element check %q", check)
	}
}

// Login fills the username/password inputs and clicks submit (satisfies
// internal/actions.Driver).
func (s *Session) Login(usernameSelector, passwordSelector, submitSelector, username, password string) error {
	if err := s.InputText(usernameSelector, username); err != nil {
		return fmt.Errorf("login username: %w", err)
	}
	if err := s.InputText(passwordSelector, password); err != nil {
		return fmt.Errorf("login password: %w", err)
	}
	return s.ClickButton(submitSelector)
}

// RefreshPage reloads the current page (satisfies internal/actions.Driver).
func (s *Session) RefreshPage() error {
	if err := s.page.Reload(); err != nil {
		return fmt.Errorf("%w: reload: %v", ErrBrowserCrashed, err)
	}
	return s.page.WaitLoad()
}
