package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/olereon/galleryharvest/internal/downloadlog"
	"github.com/olereon/galleryharvest/internal/models"
)

// seedDownloadLog pre-populates the download log at cfg's configured path
// with entries for each creationTime, so a harvest run started against cfg
// sees them as already-logged duplicates.
func seedDownloadLog(t *testing.T, cfg models.GalleryConfig, creationTimes ...string) {
	t.Helper()
	path := filepath.Join(cfg.LogsFolder, "download_log.txt")
	log, err := downloadlog.Open(path)
	if err != nil {
		t.Fatalf("seed download log: open: %v", err)
	}
	for _, ct := range creationTimes {
		if _, err := log.Append(ct, "a previously downloaded generation, nothing new here"); err != nil {
			t.Fatalf("seed download log: append: %v", err)
		}
	}
}

// fakeDriver is a minimal stand-in for *browser.Session satisfying
// pipeline.Driver: all containers are attached from the start, so the
// Scroll Manager's advance-until loop only ever needs to report
// end-of-gallery once the harvest loop exhausts them.
type fakeDriver struct {
	containerIDs []string
	texts        map[string]string

	clicked      []string
	downloadData []byte
	downloadName string
}

func (f *fakeDriver) Evaluate(script string, args ...interface{}) (interface{}, error) {
	switch {
	case strings.Contains(script, "ids.push(el.id)"):
		out := make([]interface{}, len(f.containerIDs))
		for i, id := range f.containerIDs {
			out[i] = id
		}
		return out, nil
	case strings.Contains(script, "windowScrollY: window.scrollY"):
		return map[string]interface{}{
			"windowScrollY":  0.0,
			"scrollHeight":   100.0,
			"clientHeight":   100.0,
			"containerCount": float64(len(f.containerIDs)),
		}, nil
	case strings.Contains(script, "no-more-content"):
		return false, nil
	case strings.Contains(script, "(target)"):
		return 0.0, nil
	default:
		return nil, nil
	}
}

func (f *fakeDriver) ContainerText(containerID string) (string, error) {
	return f.texts[containerID], nil
}

func (f *fakeDriver) QueryText(containerID, selector string) (string, error) {
	return "", nil
}

func (f *fakeDriver) PageURL() string { return "https://example.test/gallery" }

func (f *fakeDriver) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}

func (f *fakeDriver) ClickButton(selector string) error {
	f.clicked = append(f.clicked, selector)
	return nil
}

func (f *fakeDriver) InputText(selector, value string) error          { return nil }
func (f *fakeDriver) ToggleSetting(selector string, value bool) error { return nil }
func (f *fakeDriver) CheckElement(selector, check, value, attribute string) (bool, error) {
	return true, nil
}
func (f *fakeDriver) Login(usernameSelector, passwordSelector, submitSelector, username, password string) error {
	return nil
}
func (f *fakeDriver) RefreshPage() error { return nil }

func (f *fakeDriver) OnDownload(sink DownloadSink) (func(), error) {
	if f.downloadData != nil {
		go func() { _ = sink(f.downloadName, io.NopCloser(strings.NewReader(string(f.downloadData)))) }()
	}
	return func() {}, nil
}

func (f *fakeDriver) CancelDownloads()  {}
func (f *fakeDriver) Dirty() bool       { return false }
func (f *fakeDriver) Recover() error    { return nil }

func testConfig(t *testing.T) models.GalleryConfig {
	t.Helper()
	cfg := models.DefaultGalleryConfig()
	cfg.GalleryURL = "https://example.test/gallery"
	cfg.DownloadsFolder = filepath.Join(t.TempDir(), "downloads")
	cfg.LogsFolder = filepath.Join(t.TempDir(), "logs")
	cfg.MaxDownloads = 2
	cfg.DownloadTriggerSelector = "#download"
	cfg.DOMWaitTimeoutMS = 50
	cfg.DownloadTimeoutMS = 50
	cfg.RetryAttempts = 1
	cfg.RetryDelayMS = 1
	return cfg
}

func TestRunHarvestDownloadsAllFreshContainers(t *testing.T) {
	driver := &fakeDriver{
		containerIDs: []string{"abc__0", "abc__1"},
		texts: map[string]string{
			"abc__0": "Creation Time: 25 Aug 2025 02:30:47\nA wide shot of a mountain landscape reveals a distant storm gathering over the ridge line.",
			"abc__1": "Creation Time: 26 Aug 2025 03:15:00\nThe camera pans slowly across a crowded market square at dusk, showing merchants closing stalls.",
		},
		downloadData: []byte("fake-image-bytes"),
		downloadName: "file.png",
	}

	cfg := testConfig(t)
	ctrl, err := New(driver, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := ctrl.Run(context.Background())
	if res.State != models.StateDone {
		t.Fatalf("expected done state, got %+v", res)
	}
	if res.Downloads != 2 {
		t.Fatalf("expected 2 downloads, got %d (errors: %v)", res.Downloads, res.Errors)
	}

	entries, err := os.ReadDir(cfg.DownloadsFolder)
	if err != nil {
		t.Fatalf("read downloads folder: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 files on disk, got %d", len(entries))
	}
}

func TestRunHarvestStopsAtMaxDownloads(t *testing.T) {
	driver := &fakeDriver{
		containerIDs: []string{"abc__0", "abc__1", "abc__2"},
		texts: map[string]string{
			"abc__0": "Creation Time: 25 Aug 2025 02:30:47\nA wide shot of a mountain landscape reveals a distant storm gathering over the ridge line.",
			"abc__1": "Creation Time: 26 Aug 2025 03:15:00\nThe camera pans slowly across a crowded market square at dusk, showing merchants closing stalls.",
			"abc__2": "Creation Time: 27 Aug 2025 04:00:00\nA close shot of a building facade shows light reflecting off rows of tall glass windows.",
		},
		downloadData: []byte("fake-image-bytes"),
		downloadName: "file.png",
	}
	cfg := testConfig(t)
	cfg.MaxDownloads = 1

	ctrl, err := New(driver, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := ctrl.Run(context.Background())
	if res.Downloads != 1 {
		t.Fatalf("expected exactly 1 download, got %d", res.Downloads)
	}
	if res.Reason != "max_downloads_reached" {
		t.Fatalf("expected max_downloads_reached, got %q", res.Reason)
	}
}

// TestRunHarvestFinishModeStopsOnFirstDuplicate exercises spec.md §8's
// duplicate_mode=finish scenario: the very first already-logged
// creation_time ends the run immediately with "duplicate_reached", taking
// no new downloads.
func TestRunHarvestFinishModeStopsOnFirstDuplicate(t *testing.T) {
	const creationTime = "25 Aug 2025 02:30:47"
	driver := &fakeDriver{
		containerIDs: []string{"abc__0", "abc__1"},
		texts: map[string]string{
			"abc__0": "Creation Time: " + creationTime + "\nA wide shot of a mountain landscape reveals a distant storm gathering over the ridge line.",
			"abc__1": "Creation Time: 26 Aug 2025 03:15:00\nThe camera pans slowly across a crowded market square at dusk, showing merchants closing stalls.",
		},
		downloadData: []byte("fake-image-bytes"),
		downloadName: "file.png",
	}

	cfg := testConfig(t)
	cfg.DuplicateMode = models.DuplicateModeFinish
	seedDownloadLog(t, cfg, creationTime)

	ctrl, err := New(driver, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := ctrl.Run(context.Background())
	if res.Reason != "duplicate_reached" {
		t.Fatalf("expected duplicate_reached, got %q (state %v)", res.Reason, res.State)
	}
	if res.Downloads != 0 {
		t.Fatalf("expected 0 downloads, got %d", res.Downloads)
	}
}

// TestRunHarvestSkipModeStopsAfterConsecutiveDuplicateLimit exercises
// spec.md §8's duplicate_mode=skip scenario: a run of consecutive
// already-logged containers aborts with "duplicate_run" once
// ConsecutiveDuplicateLimit is reached, without ever resetting the
// counter on a fresh record.
func TestRunHarvestSkipModeStopsAfterConsecutiveDuplicateLimit(t *testing.T) {
	driver := &fakeDriver{
		containerIDs: []string{"abc__0", "abc__1", "abc__2"},
		texts: map[string]string{
			"abc__0": "Creation Time: 25 Aug 2025 02:30:47\nA wide shot of a mountain landscape reveals a distant storm gathering over the ridge line.",
			"abc__1": "Creation Time: 26 Aug 2025 03:15:00\nThe camera pans slowly across a crowded market square at dusk, showing merchants closing stalls.",
			"abc__2": "Creation Time: 27 Aug 2025 04:00:00\nA close shot of a building facade shows light reflecting off rows of tall glass windows.",
		},
		downloadData: []byte("fake-image-bytes"),
		downloadName: "file.png",
	}

	cfg := testConfig(t)
	cfg.DuplicateMode = models.DuplicateModeSkip
	cfg.ConsecutiveDuplicateLimit = 2
	seedDownloadLog(t, cfg,
		"25 Aug 2025 02:30:47",
		"26 Aug 2025 03:15:00",
		"27 Aug 2025 04:00:00",
	)

	ctrl, err := New(driver, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := ctrl.Run(context.Background())
	if res.Reason != "duplicate_run" {
		t.Fatalf("expected duplicate_run, got %q (state %v)", res.Reason, res.State)
	}
	if res.Downloads != 0 {
		t.Fatalf("expected 0 downloads, got %d", res.Downloads)
	}
}
