package pipeline

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// canonicalStem turns a canonical "D Mon YYYY HH:MM:SS" creation timestamp
// into the YYYYMMDD-HHMMSS filename prefix spec.md §6 names.
func canonicalStem(creationTime string) (string, error) {
	fields := strings.Fields(creationTime)
	if len(fields) != 4 {
		return "", fmt.Errorf("malformed creation time %q", creationTime)
	}
	day, month, year, clock := fields[0], fields[1], fields[2], fields[3]
	monthNum, ok := monthNumbers[strings.ToLower(month)]
	if !ok {
		return "", fmt.Errorf("unrecognized month %q in %q", month, creationTime)
	}
	dayNum, err := strconv.Atoi(day)
	if err != nil {
		return "", fmt.Errorf("malformed day %q in %q", day, creationTime)
	}
	clockDigits := strings.ReplaceAll(clock, ":", "")
	if len(clockDigits) != 6 {
		return "", fmt.Errorf("malformed time %q in %q", clock, creationTime)
	}
	return fmt.Sprintf("%s%02d%02d-%s", year, monthNum, dayNum, clockDigits), nil
}

var monthNumbers = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// canonicalFilename disambiguates stems that share a timestamp by
// appending "-k" (spec.md §6: "YYYYMMDD-HHMMSS[-k].ext where k
// disambiguates entries sharing a timestamp"). used tracks stems already
// claimed this run.
func canonicalFilename(creationTime, suggestedName string, used map[string]int) (string, error) {
	stem, err := canonicalStem(creationTime)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(suggestedName)

	n := used[stem]
	used[stem] = n + 1
	if n == 0 {
		return stem + ext, nil
	}
	return fmt.Sprintf("%s-%d%s", stem, n, ext), nil
}
