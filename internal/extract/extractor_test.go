package extract

import (
	"context"
	"testing"
	"time"
)

type fakeDriver struct {
	text      map[string]string
	selectors map[string]map[string]string
	pageURL   string
}

func (f *fakeDriver) ContainerText(containerID string) (string, error) {
	return f.text[containerID], nil
}

func (f *fakeDriver) QueryText(containerID, selector string) (string, error) {
	if m, ok := f.selectors[containerID]; ok {
		return m[selector], nil
	}
	return "", nil
}

func (f *fakeDriver) PageURL() string { return f.pageURL }

func TestExtractTimestampTextPatternForms(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"creation time prefix", "Creation Time: 25 Aug 2025 02:30:47", "25 Aug 2025 02:30:47"},
		{"standalone", "some text 5 Sep 2025 06:41:43 more text", "5 Sep 2025 06:41:43"},
		{"created prefix", "Created 1 Jan 2024 00:00:01", "1 Jan 2024 00:00:01"},
		{"numeric slash", "24/08/2025 14:35:22", "24 Aug 2025 14:35:22"},
		{"iso", "2025-08-24 14:35:22", "24 Aug 2025 14:35:22"},
		{"time first", "14:35:22 24 Aug 2025", "24 Aug 2025 14:35:22"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractTimestamp(tc.text)
			if !ok {
				t.Fatalf("expected a match for %q", tc.text)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidPromptRules(t *testing.T) {
	longDescriptive := "The camera shows a wide establishing shot of a mountain landscape as the scene begins to unfold across the valley floor below the ridge"
	if !ValidPrompt(longDescriptive) {
		t.Fatalf("expected a long descriptive sentence to validate")
	}
	if ValidPrompt("short") {
		t.Fatalf("expected a too-short candidate to fail")
	}
	uiChrome := "Click the download button to open settings and change your loading preferences for this particular generation entry right now"
	if ValidPrompt(uiChrome) {
		t.Fatalf("expected UI chrome to be rejected")
	}
}

func TestExtractorCachesConfidentResults(t *testing.T) {
	driver := &fakeDriver{
		text: map[string]string{
			"a__0": "Creation Time: 25 Aug 2025 02:30:47\nThe camera shows a sweeping view of the scene as the shot begins to reveal a distant landscape with captivating light",
		},
		pageURL: "https://example.test/gallery?x=1",
	}
	extractor := New(driver, DefaultConfig())

	rec, err := extractor.Extract(context.Background(), "a__0")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.CreationTime != "25 Aug 2025 02:30:47" {
		t.Fatalf("unexpected creation time: %q", rec.CreationTime)
	}
	if !rec.Identifiable() {
		t.Fatalf("expected identifiable record")
	}

	driver.text["a__0"] = "" // mutate underlying source; cached copy must still serve
	cached, err := extractor.Extract(context.Background(), "a__0")
	if err != nil {
		t.Fatalf("Extract (cached): %v", err)
	}
	if cached.CreationTime != rec.CreationTime {
		t.Fatalf("expected cache hit to return identical record")
	}
}

func TestExtractorReturnsEmptyRecordWhenNothingExtracts(t *testing.T) {
	driver := &fakeDriver{text: map[string]string{"a__0": "nothing useful here"}, pageURL: "https://example.test/gallery"}
	extractor := New(driver, Config{RetryAttempts: 0, RetryDelay: time.Millisecond, CacheTTL: time.Second, CacheSize: 8, ConfidenceFloor: 0.7, DOMWaitTimeout: time.Millisecond})

	rec, err := extractor.Extract(context.Background(), "a__0")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rec.Identifiable() {
		t.Fatalf("expected a non-identifiable empty record, got %+v", rec)
	}
}
