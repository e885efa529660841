// Package downloadlog implements the Download Log (spec.md §4.D): an
// append-only text file recording one entry per successfully downloaded
// artifact, used both as a human-readable audit trail and as the dedup
// index the Boundary Resolver and harvest loop consult before acting on a
// container. Grounded on the append-then-flush idiom of
// internal/analytics/journal.FileWriter in cklxx-elephant.ai, adapted from
// JSONL records to the fixed 4-line grammar spec.md §6 mandates.
package downloadlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/olereon/galleryharvest/internal/models"
)

// Log is the in-memory, file-backed view of the Download Log. It is safe
// for concurrent use, though the cooperative single-session scheduler
// (spec.md §5) only ever has one writer at a time in practice.
type Log struct {
	path    string
	mu      sync.Mutex
	entries []models.DownloadLogEntry
	seen    map[string]struct{} // exact-string creation-timestamp dedup index
	nextSeq int
}

// Open loads an existing Download Log file. If the file does not yet exist
// it creates the file's folder and returns an empty Log; the file itself is
// written by the first Append. A malformed file is reported as a
// *models.LogCorruptionError and must abort startup before any browser
// work begins (spec.md §6, exit code 5).
func Open(path string) (*Log, error) {
	l := &Log{path: path, seen: make(map[string]struct{}), nextSeq: 1}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if dir := filepath.Dir(path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
				return nil, fmt.Errorf("create logs folder: %w", mkErr)
			}
		}
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read download log: %w", err)
	}

	entries, parseErr := parse(string(data))
	if parseErr != nil {
		return nil, &models.LogCorruptionError{FilePath: path, Line: parseErr.line, Cause: parseErr.err}
	}

	for _, e := range entries {
		l.entries = append(l.entries, e)
		l.seen[e.CreationTime] = struct{}{}
		if e.SequenceID >= l.nextSeq {
			l.nextSeq = e.SequenceID + 1
		}
	}
	return l, nil
}

type parseErr struct {
	line int
	err  error
}

// parse decodes the strict 4-line-per-record grammar: "#SEQ", timestamp,
// single-line prompt, then the 40-character separator. A trailing blank
// tail is tolerated; anything else is corruption.
func parse(content string) ([]models.DownloadLogEntry, *parseErr) {
	if content == "" {
		return nil, nil
	}
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")

	var entries []models.DownloadLogEntry
	i := 0
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}
		if i+3 >= len(lines) {
			return nil, &parseErr{line: i + 1, err: fmt.Errorf("truncated record: expected 4 lines, %d remain", len(lines)-i)}
		}
		seqLine := lines[i]
		tsLine := lines[i+1]
		promptLine := lines[i+2]
		sepLine := lines[i+3]

		if !strings.HasPrefix(seqLine, "#") {
			return nil, &parseErr{line: i + 1, err: fmt.Errorf("expected sequence marker starting with '#', got %q", seqLine)}
		}
		seq, convErr := strconv.Atoi(strings.TrimPrefix(seqLine, "#"))
		if convErr != nil {
			return nil, &parseErr{line: i + 1, err: fmt.Errorf("invalid sequence id %q: %w", seqLine, convErr)}
		}
		if sepLine != models.Separator {
			return nil, &parseErr{line: i + 4, err: fmt.Errorf("expected %d-character separator, got %q", len(models.Separator), sepLine)}
		}
		entries = append(entries, models.DownloadLogEntry{
			SequenceID:   seq,
			CreationTime: tsLine,
			Prompt:       promptLine,
		})
		i += 4
	}
	return entries, nil
}

// Contains reports whether an entry with the exact creation timestamp has
// already been logged, per the exact-string-equality dedup policy spec.md
// §4.D mandates (Open Question resolution, see DESIGN.md).
func (l *Log) Contains(creationTime string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[creationTime]
	return ok
}

// Len returns the number of records currently loaded.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of the loaded records, oldest first.
func (l *Log) Entries() []models.DownloadLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.DownloadLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Last returns the most recently appended record, if any.
func (l *Log) Last() (models.DownloadLogEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return models.DownloadLogEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Append writes one record (allocating the next sequence id) and flushes it
// to disk before returning, so a crash mid-run never loses an
// already-downloaded artifact from the dedup index. creationTime must
// already be in canonical form and prompt must be single-line (both
// guarantees the Metadata Extractor provides).
func (l *Log) Append(creationTime, prompt string) (models.DownloadLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := models.DownloadLogEntry{
		SequenceID:   l.nextSeq,
		CreationTime: creationTime,
		Prompt:       singleLine(prompt),
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return models.DownloadLogEntry{}, fmt.Errorf("open download log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "#%d\n%s\n%s\n%s\n", entry.SequenceID, entry.CreationTime, entry.Prompt, models.Separator)
	if err := w.Flush(); err != nil {
		return models.DownloadLogEntry{}, fmt.Errorf("flush download log: %w", err)
	}
	if err := f.Sync(); err != nil {
		return models.DownloadLogEntry{}, fmt.Errorf("sync download log: %w", err)
	}

	l.entries = append(l.entries, entry)
	l.seen[entry.CreationTime] = struct{}{}
	l.nextSeq++
	return entry, nil
}

func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
