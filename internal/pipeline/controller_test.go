package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/olereon/galleryharvest/internal/models"
)

// TestRunWithActionScriptEntersHarvestPhase exercises Run's action-script
// path: a script with a single start_generation_downloads step must drive
// the harvest loop exactly like the no-script path and report the
// controller's own terminal state once the script finishes.
func TestRunWithActionScriptEntersHarvestPhase(t *testing.T) {
	driver := &fakeDriver{
		containerIDs: []string{"abc__0"},
		texts: map[string]string{
			"abc__0": "Creation Time: 25 Aug 2025 02:30:47\nA wide shot of a mountain landscape reveals a distant storm gathering over the ridge line.",
		},
		downloadData: []byte("fake-image-bytes"),
		downloadName: "file.png",
	}

	cfg := testConfig(t)
	cfg.MaxDownloads = 1
	cfg.ActionScript = []models.ActionSpec{
		{
			Type: "start_generation_downloads",
			Value: map[string]interface{}{
				"max_downloads": 1,
			},
		},
	}

	ctrl, err := New(driver, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := ctrl.Run(context.Background())
	if res.State != models.StateDone {
		t.Fatalf("expected done state, got %+v", res)
	}
	if res.Downloads != 1 {
		t.Fatalf("expected 1 download, got %d (errors: %v)", res.Downloads, res.Errors)
	}

	entries, err := os.ReadDir(cfg.DownloadsFolder)
	if err != nil {
		t.Fatalf("read downloads folder: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 file on disk, got %d", len(entries))
	}
}

// TestRunStopsGracefullyBeforeFirstContainer exercises Signals.Stop: with a
// max_downloads high enough that the loop would otherwise keep going, a
// stop requested before Run is called must short-circuit the harvest loop
// at its very first checkpoint without performing any downloads.
func TestRunStopsGracefullyBeforeFirstContainer(t *testing.T) {
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
	cfg.DownloadsFolder = filepath.Join(t.TempDir(), "downloads")

	ctrl, err := New(driver, cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctrl.Signals().Stop()

	res := ctrl.Run(context.Background())
	if res.State != models.StateCancelled {
		t.Fatalf("expected cancelled state, got %+v", res)
	}
	if res.Downloads != 0 {
		t.Fatalf("expected 0 downloads, got %d", res.Downloads)
	}
}
