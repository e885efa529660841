package scroll

import (
	"fmt"
	"regexp"
)

// containerIDRegex matches the opaque container ID grammar spec.md §3
// describes: a hex hash followed by "__N", N any non-negative integer.
var containerIDRegex = regexp.MustCompile(`^.+__\d+$`)

// captureContainerIDsJS returns every element ID on the page matching the
// div[id$="__N"] pattern, in document order — the exact selector family
// named in spec.md §4.B, grounded on boundary_scroll_manager.py's
// get_scroll_position() container enumeration.
const captureContainerIDsJS = `() => {
	const ids = [];
	document.querySelectorAll('div[id]').forEach(el => {
		if (/^.+__\d+$/.test(el.id)) ids.push(el.id);
	});
	return ids;
}`

// CaptureContainerIDs returns the set of container IDs currently attached
// to the DOM, in document order.
func CaptureContainerIDs(driver Driver) ([]string, error) {
	raw, err := driver.Evaluate(captureContainerIDsJS)
	if err != nil {
		return nil, fmt.Errorf("capture container ids: %w", err)
	}
	return toStringSlice(raw)
}

func toStringSlice(raw interface{}) ([]string, error) {
	items, ok := raw.([]interface{})
	if !ok {
		if raw == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("expected array, got %T", raw)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// DetectNewContainers returns the IDs present in after but not in before,
// preserving after's document order. Grounded on
// boundary_scroll_manager.py's detect_new_containers (after_ids - before_ids).
func DetectNewContainers(before, after []string) []string {
	seen := make(map[string]struct{}, len(before))
	for _, id := range before {
		seen[id] = struct{}{}
	}
	var fresh []string
	for _, id := range after {
		if _, ok := seen[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	return fresh
}

// IsContainerID reports whether s matches the opaque container ID grammar.
func IsContainerID(s string) bool {
	return containerIDRegex.MatchString(s)
}
