package extract

import (
	"regexp"
	"strings"
)

const (
	minPromptLength = 50
	maxPromptLength = 2000
	minPromptWords  = 3
)

// promptIndicators mirrors unified_metadata_extractor.py's prompt_indicators
// list, extended with the additional tokens spec.md §4.C names.
var promptIndicators = []string{
	"camera", "scene", "shot", "frame", "view", "angle", "light",
	"shows", "reveals", "captures", "depicts", "begins", "moves",
	"person", "people", "landscape", "building", "room",
}

// uiTokens are the tokens that disqualify a candidate as UI chrome rather
// than descriptive prompt text.
var uiTokens = []string{
	"download", "click", "button", "menu", "option", "settings",
	"error", "loading", "©", "®", "™",
}

var hasLetter = regexp.MustCompile(`[A-Za-z]`)

// ValidPrompt implements spec.md §4.C's prompt validation rules exactly:
// length in [50, 2000], at least one descriptive indicator, no UI tokens,
// contains letters, and at least 3 whitespace-separated words.
func ValidPrompt(candidate string) bool {
	trimmed := strings.TrimSpace(candidate)
	length := len(trimmed)
	if length < minPromptLength || length > maxPromptLength {
		return false
	}
	if !hasLetter.MatchString(trimmed) {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) < minPromptWords {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, token := range uiTokens {
		if strings.Contains(lower, token) {
			return false
		}
	}

	for _, indicator := range promptIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// LongestValidPrompt returns the longest candidate in candidates that
// passes ValidPrompt, used by the comprehensive-scan strategy (spec.md
// §4.C item 5: "pick the longest valid prompt candidate").
func LongestValidPrompt(candidates []string) (string, bool) {
	var best string
	found := false
	for _, c := range candidates {
		if !ValidPrompt(c) {
			continue
		}
		if len(c) > len(best) {
			best = c
			found = true
		}
	}
	return best, found
}
