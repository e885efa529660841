package pipeline

import "testing"

func TestCanonicalFilename(t *testing.T) {
	used := make(map[string]int)

	name, err := canonicalFilename("25 Aug 2025 02:30:47", "video.mp4", used)
	if err != nil {
		t.Fatalf("canonicalFilename: %v", err)
	}
	if name != "20250825-023047.mp4" {
		t.Fatalf("unexpected name: %q", name)
	}

	// a second entry with the same second-resolution timestamp gets a "-1"
	// disambiguation suffix.
	name2, err := canonicalFilename("25 Aug 2025 02:30:47", "video.mp4", used)
	if err != nil {
		t.Fatalf("canonicalFilename: %v", err)
	}
	if name2 != "20250825-023047-1.mp4" {
		t.Fatalf("unexpected disambiguated name: %q", name2)
	}

	name3, err := canonicalFilename("25 Aug 2025 02:30:47", "video.mp4", used)
	if err != nil {
		t.Fatalf("canonicalFilename: %v", err)
	}
	if name3 != "20250825-023047-2.mp4" {
		t.Fatalf("unexpected second disambiguated name: %q", name3)
	}
}

func TestCanonicalFilenameMalformedCreationTime(t *testing.T) {
	used := make(map[string]int)
	if _, err := canonicalFilename("not a timestamp", "video.mp4", used); err == nil {
		t.Fatalf("expected error for malformed creation time")
	}
}

func TestCanonicalFilenameUnrecognizedMonth(t *testing.T) {
	used := make(map[string]int)
	if _, err := canonicalFilename("25 Foo 2025 02:30:47", "video.mp4", used); err == nil {
		t.Fatalf("expected error for unrecognized month")
	}
}
