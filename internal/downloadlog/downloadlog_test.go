package downloadlog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/olereon/galleryharvest/internal/models"
)

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	l, err := Open(filepath.Join(dir, "downloads.txt"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty log, got %d entries", l.Len())
	}
}

func TestAppendThenReopenPreservesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.txt")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	entry, err := l.Append("24 Aug 2025 14:35:22", "a cat sitting on a windowsill")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if entry.SequenceID != 1 {
		t.Fatalf("expected sequence id 1, got %d", entry.SequenceID)
	}

	if _, err := l.Append("25 Aug 2025 09:00:00", "a dog running in a field"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 2 {
		t.Fatalf("expected 2 entries after reopen, got %d", reopened.Len())
	}
	if !reopened.Contains("24 Aug 2025 14:35:22") {
		t.Fatalf("expected dedup index to contain first timestamp")
	}
	last, ok := reopened.Last()
	if !ok || last.SequenceID != 2 {
		t.Fatalf("unexpected last entry: %+v", last)
	}
}

func TestAppendNormalizesMultilinePrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.txt")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	entry, err := l.Append("24 Aug 2025 14:35:22", "line one\nline two\r\nline three")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if entry.Prompt != "line one line two line three" {
		t.Fatalf("expected normalized single-line prompt, got %q", entry.Prompt)
	}
}

func TestOpenRejectsTruncatedRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "downloads.txt")
	writeRaw(t, path, "#1\n24 Aug 2025 14:35:22\nincomplete record\n")

	_, err := Open(path)
	var corrupt *models.LogCorruptionError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected *models.LogCorruptionError, got %v", err)
	}
}

func TestOpenRejectsBadSeparator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "downloads.txt")
	writeRaw(t, path, "#1\n24 Aug 2025 14:35:22\na prompt\n---\n")

	_, err := Open(path)
	var corrupt *models.LogCorruptionError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected *models.LogCorruptionError, got %v", err)
	}
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
