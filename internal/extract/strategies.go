package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/olereon/galleryharvest/internal/models"
)

// textPatternStrategy applies the ordered timestamp regex list to the
// container's full text and a heuristic prompt split. Rank 1 — fastest.
type textPatternStrategy struct{}

func (textPatternStrategy) Tag() models.StrategyTag { return TagTextPattern }

func (textPatternStrategy) Attempt(driver Driver, containerID string) Outcome {
	text, err := driver.ContainerText(containerID)
	if err != nil {
		return Outcome{Err: err}
	}
	ts, tsOK := ExtractTimestamp(text)
	prompt, promptOK := LongestValidPrompt(splitCandidates(text))

	confidence := 0.0
	if tsOK {
		confidence += 0.5
	}
	if promptOK {
		confidence += 0.5
	}
	if !tsOK && !promptOK {
		return Outcome{Ok: false}
	}
	return Outcome{
		Ok: true,
		Record: models.MetadataRecord{
			CreationTime: ts,
			Prompt:       prompt,
			MediaType:    models.MediaUnknown,
			Confidence:   confidence,
			Strategy:     TagTextPattern,
		},
	}
}

// domAnalysisStrategy queries an ordered list of known selectors for the
// timestamp and prompt regions. Rank 2.
type domAnalysisStrategy struct {
	promptSelectors []string
	dateSelectors   []string
}

// defaultDOMSelectors mirrors unified_metadata_extractor.py's
// prompt_selectors/date_selectors (consolidated from the host's own CSS,
// kept adaptable since the host redesigns its class names often).
func defaultDOMSelectors() ([]string, []string) {
	prompt := []string{
		`span[aria-describedby]`,
		`[class*="prompt"] span`,
		`[class*="text"] span`,
	}
	date := []string{
		`[class*="date"]`,
		`[class*="time"]`,
	}
	return prompt, date
}

func (s domAnalysisStrategy) Tag() models.StrategyTag { return TagDOMAnalysis }

func (s domAnalysisStrategy) Attempt(driver Driver, containerID string) Outcome {
	var prompt string
	var ts string
	promptOK, tsOK := false, false

	for _, sel := range s.promptSelectors {
		text, err := driver.QueryText(containerID, sel)
		if err != nil || text == "" {
			continue
		}
		if ValidPrompt(text) {
			prompt = text
			promptOK = true
			break
		}
	}

	for _, sel := range s.dateSelectors {
		text, err := driver.QueryText(containerID, sel)
		if err != nil || text == "" {
			continue
		}
		if canon, ok := ExtractTimestamp(text); ok {
			ts = canon
			tsOK = true
			break
		}
	}

	if !promptOK && !tsOK {
		return Outcome{Ok: false}
	}
	confidence := 0.0
	if tsOK {
		confidence += 0.45
	}
	if promptOK {
		confidence += 0.45
	}
	return Outcome{
		Ok: true,
		Record: models.MetadataRecord{
			CreationTime: ts,
			Prompt:       prompt,
			MediaType:    models.MediaUnknown,
			Confidence:   confidence,
			Strategy:     TagDOMAnalysis,
		},
	}
}

// relativePositionStrategy anchors on the "Creation Time" text node and
// walks to the adjacent metadata siblings. Most reliable under host
// redesigns that change class names but preserve structure. Rank 3.
type relativePositionStrategy struct{}

func (relativePositionStrategy) Tag() models.StrategyTag { return TagRelativePosition }

var creationTimeAnchor = regexp.MustCompile(`(?i)creation\s*time`)

func (relativePositionStrategy) Attempt(driver Driver, containerID string) Outcome {
	text, err := driver.ContainerText(containerID)
	if err != nil {
		return Outcome{Err: err}
	}
	loc := creationTimeAnchor.FindStringIndex(text)
	if loc == nil {
		return Outcome{Ok: false}
	}

	after := text[loc[1]:]
	ts, tsOK := ExtractTimestamp(after)
	if !tsOK {
		ts, tsOK = ExtractTimestamp(text)
	}

	before := text[:loc[0]]
	candidates := splitCandidates(before)
	prompt, promptOK := LongestValidPrompt(candidates)
	if !promptOK {
		prompt, promptOK = LongestValidPrompt(splitCandidates(after))
	}

	if !tsOK && !promptOK {
		return Outcome{Ok: false}
	}
	confidence := 0.0
	if tsOK {
		confidence += 0.4
	}
	if promptOK {
		confidence += 0.5
	}
	return Outcome{
		Ok: true,
		Record: models.MetadataRecord{
			CreationTime: ts,
			Prompt:       prompt,
			MediaType:    models.MediaUnknown,
			Confidence:   confidence,
			Strategy:     TagRelativePosition,
		},
	}
}

// fallbackPatternsStrategy runs a fuzzy regex sweep that reconstructs
// separators (e.g. stray whitespace inside a timestamp), accepting only if
// the reconstruction re-validates. Rank 4.
type fallbackPatternsStrategy struct{}

func (fallbackPatternsStrategy) Tag() models.StrategyTag { return TagFallbackPatterns }

var fuzzyTimestampPattern = regexp.MustCompile(`(\d{1,2})\D{1,3}([A-Za-z]{3,9})\D{1,3}(\d{4})\D{1,3}(\d{1,2})\D(\d{2})\D(\d{2})`)

func (fallbackPatternsStrategy) Attempt(driver Driver, containerID string) Outcome {
	text, err := driver.ContainerText(containerID)
	if err != nil {
		return Outcome{Err: err}
	}

	var ts string
	tsOK := false
	if m := fuzzyTimestampPattern.FindStringSubmatch(text); m != nil {
		hour, herr := strconv.Atoi(m[4])
		reconstructed := fmt.Sprintf("%s %s %s %02d:%s:%s", m[1], normalizeMonthToken(m[2]), m[3], hour, m[5], m[6])
		if herr == nil && ValidateCanonical(reconstructed) {
			ts = reconstructed
			tsOK = true
		}
	}

	prompt, promptOK := LongestValidPrompt(splitCandidates(text))
	if !tsOK && !promptOK {
		return Outcome{Ok: false}
	}
	confidence := 0.0
	if tsOK {
		confidence += 0.3
	}
	if promptOK {
		confidence += 0.35
	}
	return Outcome{
		Ok: true,
		Record: models.MetadataRecord{
			CreationTime: ts,
			Prompt:       prompt,
			MediaType:    models.MediaUnknown,
			Confidence:   confidence,
			Strategy:     TagFallbackPatterns,
		},
	}
}

func normalizeMonthToken(token string) string {
	month, err := resolveMonth(token)
	if err != nil {
		return token
	}
	return monthAbbrev[int(month)]
}

// comprehensiveScanStrategy splits the full text on newline/tab/pipe/bullet
// boundaries and treats each non-empty segment as a candidate, falling
// back to dateparse for the timestamp. Slowest, highest coverage. Rank 5.
type comprehensiveScanStrategy struct{}

func (comprehensiveScanStrategy) Tag() models.StrategyTag { return TagComprehensiveScan }

func (comprehensiveScanStrategy) Attempt(driver Driver, containerID string) Outcome {
	text, err := driver.ContainerText(containerID)
	if err != nil {
		return Outcome{Err: err}
	}

	candidates := splitCandidates(text)
	prompt, promptOK := LongestValidPrompt(candidates)

	var ts string
	tsOK := false
	for _, c := range candidates {
		if canon, ok := ExtractTimestamp(c); ok {
			ts = canon
			tsOK = true
			break
		}
	}
	if !tsOK {
		if canon, ok := ExtractTimestampFallback(text); ok {
			ts = canon
			tsOK = true
		}
	}

	if !tsOK && !promptOK {
		return Outcome{Ok: false}
	}
	confidence := 0.0
	if tsOK {
		confidence += 0.3
	}
	if promptOK {
		confidence += 0.3
	}
	return Outcome{
		Ok: true,
		Record: models.MetadataRecord{
			CreationTime: ts,
			Prompt:       prompt,
			MediaType:    models.MediaUnknown,
			Confidence:   confidence,
			Strategy:     TagComprehensiveScan,
		},
	}
}

// splitCandidates segments text on newline, tab, pipe, and common bullet
// glyphs (spec.md §4.C item 5).
func splitCandidates(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '\n', '\t', '|', '•', '●', '‣':
			return true
		default:
			return false
		}
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// AllStrategies returns the five-member cascade in the rank order spec.md
// §4.C mandates.
func AllStrategies() []Strategy {
	promptSelectors, dateSelectors := defaultDOMSelectors()
	return []Strategy{
		textPatternStrategy{},
		domAnalysisStrategy{promptSelectors: promptSelectors, dateSelectors: dateSelectors},
		relativePositionStrategy{},
		fallbackPatternsStrategy{},
		comprehensiveScanStrategy{},
	}
}
