package browser

import (
	"errors"
	"strings"
)

// Sentinel errors the Browser Driver Adapter can return. Callers classify
// with errors.Is; the Transient helper captures the broader "retryable"
// classification spec.md §4.A and §7 require (element-not-attached,
// not-visible, network-idle timeout, navigation-in-progress).
var (
	ErrBrowserCrashed    = errors.New("browser crashed")
	ErrElementNotFound   = errors.New("element not found")
	ErrElementNotVisible = errors.New("element not visible")
	ErrTimeout           = errors.New("operation timed out")
	ErrNavigating        = errors.New("navigation in progress")
	ErrClickExhausted    = errors.New("all click strategies failed")
)

// transientMarkers lists substrings that mark an otherwise-unclassified
// error as transient, mirroring the extractor's retry classification in
// spec.md §4.C ("timeout, network, connection, not attached, not
// visible").
var transientMarkers = []string{
	"timeout",
	"network",
	"connection",
	"not attached",
	"not visible",
	"context canceled",
}

// Transient reports whether err should be retried by the caller rather
// than treated as permanent.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrElementNotFound),
		errors.Is(err, ErrElementNotVisible),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrNavigating):
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
