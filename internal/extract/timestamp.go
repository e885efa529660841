package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// monthAbbrev maps a 1-based numeric month to its canonical 3-letter
// English abbreviation, per spec.md §4.C: "if numeric, map 1..12 to
// canonical abbreviations".
var monthAbbrev = [...]string{
	"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var monthByName = func() map[string]time.Month {
	m := make(map[string]time.Month, 24)
	for i := time.January; i <= time.December; i++ {
		full := strings.ToLower(i.String())
		m[full] = i
		m[full[:3]] = i
	}
	return m
}()

// canonicalLayout is the Go time layout for spec.md's canonical form
// "D MMM YYYY HH:MM:SS", e.g. "25 Aug 2025 02:30:47". "2" is Go's
// non-zero-padded day token, matching the glossary's examples exactly.
const canonicalLayout = "2 Jan 2006 15:04:05"

// Canonicalize reformats a parsed time into spec.md's canonical timestamp
// string, the sole form used for equality comparison and filename
// prefixes (spec.md §3, glossary).
func Canonicalize(t time.Time) string {
	return fmt.Sprintf("%d %s %04d %02d:%02d:%02d",
		t.Day(), monthAbbrev[int(t.Month())], t.Year(), t.Hour(), t.Minute(), t.Second())
}

// timestampPatterns is the ordered regex list for the text-pattern
// strategy (spec.md §4.C item 1), each producing named capture groups
// consumed by parseMatch.
var timestampPatterns = []*regexp.Regexp{
	// "Creation Time" [: ] D MMM YYYY HH:MM:SS, and bare "Created"/"Generated"/"Date" prefixes.
	regexp.MustCompile(`(?i)(?:creation\s*time|created|generated|date)\s*[:\s]\s*(?P<day>\d{1,2})\s+(?P<month>[A-Za-z]{3,9})\s+(?P<year>\d{4})\s+(?P<hour>\d{2}):(?P<minute>\d{2}):(?P<second>\d{2})`),
	// Standalone D MMM YYYY HH:MM:SS with no prefix.
	regexp.MustCompile(`\b(?P<day>\d{1,2})\s+(?P<month>[A-Za-z]{3,9})\s+(?P<year>\d{4})\s+(?P<hour>\d{2}):(?P<minute>\d{2}):(?P<second>\d{2})\b`),
	// Numeric D[-/]M[-/]YYYY HH:MM:SS.
	regexp.MustCompile(`\b(?P<day>\d{1,2})[-/](?P<month>\d{1,2})[-/](?P<year>\d{4})\s+(?P<hour>\d{2}):(?P<minute>\d{2}):(?P<second>\d{2})\b`),
	// ISO YYYY[-/]M[-/]D HH:MM:SS.
	regexp.MustCompile(`\b(?P<year>\d{4})[-/](?P<month>\d{1,2})[-/](?P<day>\d{1,2})\s+(?P<hour>\d{2}):(?P<minute>\d{2}):(?P<second>\d{2})\b`),
	// Time-first HH:MM:SS D MMM YYYY.
	regexp.MustCompile(`\b(?P<hour>\d{2}):(?P<minute>\d{2}):(?P<second>\d{2})\s+(?P<day>\d{1,2})\s+(?P<month>[A-Za-z]{3,9})\s+(?P<year>\d{4})\b`),
}

// ExtractTimestamp applies the ordered pattern list to text and returns the
// first match reformatted to canonical form. Every candidate is re-matched
// against canonicalValidator before acceptance, per spec.md §4.C.
func ExtractTimestamp(text string) (string, bool) {
	for _, pattern := range timestampPatterns {
		names := pattern.SubexpNames()
		loc := pattern.FindStringSubmatch(text)
		if loc == nil {
			continue
		}
		groups := make(map[string]string, len(names))
		for i, name := range names {
			if name == "" {
				continue
			}
			groups[name] = loc[i]
		}
		t, err := assembleTime(groups)
		if err != nil {
			continue
		}
		canon := Canonicalize(t)
		if ValidateCanonical(canon) {
			return canon, true
		}
	}
	return "", false
}

// assembleTime converts the regex's named capture groups into a time.Time.
func assembleTime(groups map[string]string) (time.Time, error) {
	day, err := strconv.Atoi(groups["day"])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day %q", groups["day"])
	}
	year, err := strconv.Atoi(groups["year"])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year %q", groups["year"])
	}
	hour, err := strconv.Atoi(groups["hour"])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour %q", groups["hour"])
	}
	minute, err := strconv.Atoi(groups["minute"])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute %q", groups["minute"])
	}
	second, err := strconv.Atoi(groups["second"])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid second %q", groups["second"])
	}

	month, err := resolveMonth(groups["month"])
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(year, month, day, hour, minute, second, 0, time.UTC), nil
}

func resolveMonth(token string) (time.Month, error) {
	if token == "" {
		return 0, fmt.Errorf("missing month token")
	}
	if n, err := strconv.Atoi(token); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("numeric month out of range: %d", n)
		}
		return time.Month(n), nil
	}
	m, ok := monthByName[strings.ToLower(token)]
	if !ok {
		return 0, fmt.Errorf("unrecognized month token %q", token)
	}
	return m, nil
}

// canonicalValidator re-matches a candidate canonical string against its
// own grammar before acceptance (spec.md §4.C: "Every extracted timestamp
// MUST pass a format-validation re-match before acceptance").
var canonicalValidator = regexp.MustCompile(`^\d{1,2} [A-Z][a-z]{2} \d{4} \d{2}:\d{2}:\d{2}$`)

// ValidateCanonical reports whether s is a well-formed canonical
// timestamp.
func ValidateCanonical(s string) bool {
	return canonicalValidator.MatchString(s)
}

// ExtractTimestampFallback uses dateparse as a best-effort parser for text
// the ordered pattern list could not match, reformatting through
// Canonicalize — never trusted to produce canonical output directly (see
// DESIGN.md). Used only by the comprehensive-scan strategy.
func ExtractTimestampFallback(text string) (string, bool) {
	t, err := dateparse.ParseAny(text)
	if err != nil {
		return "", false
	}
	canon := Canonicalize(t)
	if !ValidateCanonical(canon) {
		return "", false
	}
	return canon, true
}
