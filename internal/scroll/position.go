package scroll

import "fmt"

// Position is a snapshot of the document's scroll metrics, grounded on
// boundary_scroll_manager.py's get_scroll_position().
type Position struct {
	WindowScrollY   float64
	ScrollHeight    float64
	ClientHeight    float64
	ContainerCount  int
}

const capturePositionJS = `() => {
	const scroller = document.scrollingElement || document.documentElement;
	return {
		windowScrollY: window.scrollY,
		scrollHeight: scroller.scrollHeight,
		clientHeight: scroller.clientHeight,
		containerCount: Array.from(document.querySelectorAll('div[id]')).filter(el => /^.+__\d+$/.test(el.id)).length,
	};
}`

// CapturePosition reads the current scroll metrics from the page.
func CapturePosition(driver Driver) (Position, error) {
	raw, err := driver.Evaluate(capturePositionJS)
	if err != nil {
		return Position{}, fmt.Errorf("capture position: %w", err)
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return Position{}, fmt.Errorf("unexpected position payload: %T", raw)
	}
	return Position{
		WindowScrollY:  asFloat(m["windowScrollY"]),
		ScrollHeight:   asFloat(m["scrollHeight"]),
		ClientHeight:   asFloat(m["clientHeight"]),
		ContainerCount: int(asFloat(m["containerCount"])),
	}, nil
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

const endOfGallerySelectorJS = `() => {
	const patterns = ['end-of-list', 'no-more-content'];
	const all = document.querySelectorAll('[class]');
	for (const el of all) {
		const cls = el.className.toString().toLowerCase();
		if (patterns.some(p => cls.includes(p)) || cls.includes('end') || cls.includes('bottom')) {
			return true;
		}
	}
	return false;
}`

// hasEndSentinel reports whether a sentinel element (end-of-list,
// no-more-content, or a class containing "end"/"bottom") is present.
func hasEndSentinel(driver Driver) bool {
	raw, err := driver.Evaluate(endOfGallerySelectorJS)
	if err != nil {
		return false
	}
	b, _ := raw.(bool)
	return b
}

// EndOfGallery implements the detection rule of spec.md §4.B: within 100px
// of the bottom AND container count unchanged since before, OR a sentinel
// element is present.
func EndOfGallery(driver Driver, before Position, containerCountBefore int) bool {
	after, err := CapturePosition(driver)
	if err != nil {
		return false
	}
	nearBottom := after.ScrollHeight-after.ClientHeight-after.WindowScrollY <= 100
	unchanged := after.ContainerCount == containerCountBefore
	if nearBottom && unchanged {
		return true
	}
	return hasEndSentinel(driver)
}
