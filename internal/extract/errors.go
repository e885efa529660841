package extract

import "strings"

// transientMarkers classifies an error message as transient per spec.md
// §4.C: "Classify caught errors as transient (names containing timeout,
// network, connection, not attached, not visible) or permanent; only
// retry transient." Mirrors internal/browser's Transient classifier.
var transientMarkers = []string{
	"timeout", "network", "connection", "not attached", "not visible",
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
