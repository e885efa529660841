package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/olereon/galleryharvest/internal/logging"
	"github.com/olereon/galleryharvest/internal/models"
	"github.com/olereon/galleryharvest/internal/scroll"
)

// runHarvest is the loop body of spec.md §4.F's seven numbered steps: scan
// for unprocessed containers in document order, harvesting each until an
// exit condition fires. In start_from mode the scan begins after the
// matched container. In first-unseen mode it begins at the top of the page,
// so already-logged containers above the boundary go through the duplicate
// rules.
func (c *Controller) runHarvest(ctx context.Context, maxDownloads int, completedTaskSelector, startFrom string) models.Result {
	c.maxDownloads = maxDownloads
	_ = completedTaskSelector // reserved for a future "generation complete" probe; no container-level use yet

	c.state = models.StateResolvingBoundary
	c.emit(models.Event{Kind: models.EventState, Message: string(c.state)})

	boundaryID, skipBoundary, err := c.resolveBoundary(ctx, startFrom)
	if err != nil {
		return c.fail("browser_error", fmt.Errorf("resolve boundary: %w", err))
	}

	c.state = models.StateHarvesting
	c.emit(models.Event{Kind: models.EventState, Message: string(c.state)})

	scanned := make(map[string]struct{})
	if boundaryID != "" && skipBoundary {
		scanned[boundaryID] = struct{}{}
		// Containers above the start_from match lie before the resume point.
		if ids, err := scroll.CaptureContainerIDs(c.driver); err == nil {
			for i, id := range ids {
				if id == boundaryID {
					for _, prev := range ids[:i] {
						scanned[prev] = struct{}{}
					}
					break
				}
			}
		}
	}

	for c.downloads < c.maxDownloads {
		c.checkHealth()
		if c.signals.isStopped() {
			return c.finishForStop()
		}
		c.signals.waitIfPaused()
		if c.signals.isStopped() {
			return c.finishForStop()
		}
		select {
		case <-ctx.Done():
			return c.finishForStop()
		default:
		}

		pending, reason, stop := c.nextBatch(ctx, scanned)
		if stop {
			return c.finishDone(reason)
		}

		for _, containerID := range pending {
			scanned[containerID] = struct{}{}
			if c.downloads >= c.maxDownloads {
				break
			}
			if c.signals.isStopped() {
				return c.finishForStop()
			}
			c.signals.waitIfPaused()
			if c.signals.isStopped() {
				return c.finishForStop()
			}

			terminalReason, terminal := c.harvestOne(ctx, containerID)
			if terminal {
				return c.finishDone(terminalReason)
			}
		}
	}
	return c.finishDone("max_downloads_reached")
}

// nextBatch returns the next run of unscanned containers, scrolling first
// if none are already attached to the DOM.
func (c *Controller) nextBatch(ctx context.Context, scanned map[string]struct{}) (pending []string, reason string, stop bool) {
	ids, err := scroll.CaptureContainerIDs(c.driver)
	if err != nil {
		return nil, "", false
	}
	pending = freshIDs(ids, scanned)
	if len(pending) > 0 {
		return pending, "", false
	}

	adv := c.scrollMgr.AdvanceUntil(ctx, c.driver, c.cfg.MinScrollDistance, c.cfg.MaxScrollAttempts, c.cfg.MaxConsecutiveScrollFailures, func(fresh []string) bool {
		return len(freshIDs(fresh, scanned)) > 0
	})

	switch adv.Reason {
	case "cancelled":
		return nil, "", false
	case "end_of_gallery", "max_consecutive_failures":
		return nil, "end_of_gallery_assumed", true
	case "max_attempts":
		pending = freshIDs(adv.AllFreshContainers, scanned)
		if len(pending) == 0 {
			return nil, "max_scroll_attempts_reached", true
		}
		return pending, "", false
	default: // predicate_satisfied
		return freshIDs(adv.AllFreshContainers, scanned), "", false
	}
}

// harvestOne performs spec.md §4.F steps 1-7 for a single container.
func (c *Controller) harvestOne(ctx context.Context, containerID string) (reason string, terminal bool) {
	record, err := c.extractor.Extract(ctx, containerID)
	if err != nil || !record.Identifiable() {
		c.consecutiveExtractionFailures++
		c.errs = append(c.errs, fmt.Sprintf("container %s: extraction failed: %v", containerID, err))
		if c.consecutiveExtractionFailures > c.cfg.MaxConsecutiveExtractionFailures {
			return "extraction_failures_exceeded", true
		}
		return "", false
	}
	c.consecutiveExtractionFailures = 0

	if c.log.Contains(record.CreationTime) {
		if c.cfg.DuplicateMode == models.DuplicateModeFinish {
			return "duplicate_reached", true
		}
		c.consecutiveDuplicates++
		if c.consecutiveDuplicates >= c.cfg.ConsecutiveDuplicateLimit {
			return "duplicate_run", true
		}
		return "", false
	}

	if err := c.openDetailView(ctx, containerID); err != nil {
		c.errs = append(c.errs, fmt.Sprintf("container %s: %v", containerID, err))
		return "", false
	}

	savedName, err := c.triggerDownload(ctx, record.CreationTime)
	if err != nil {
		c.errs = append(c.errs, fmt.Sprintf("container %s: download failed: %v", containerID, err))
		return "", false
	}

	if _, err := c.log.Append(record.CreationTime, record.Prompt); err != nil {
		c.errs = append(c.errs, fmt.Sprintf("container %s: log append failed: %v", containerID, err))
		return "", false
	}

	c.consecutiveDuplicates = 0
	c.downloads++
	c.outputs = append(c.outputs, savedName)
	c.emit(models.Event{Kind: models.EventProgress, Current: c.downloads, Total: c.maxDownloads, Message: savedName})
	return "", false
}

// openDetailView performs the configured click sequence to open one
// container's detail view, then waits for the download-trigger element.
func (c *Controller) openDetailView(ctx context.Context, containerID string) error {
	containerSelector := fmt.Sprintf(`[id="%s"]`, containerID)
	if err := c.driver.ClickButton(containerSelector); err != nil {
		return fmt.Errorf("open detail view: click container: %w", err)
	}
	for _, sel := range c.cfg.ContainerClickSelectors {
		if err := c.driver.ClickButton(sel); err != nil {
			return fmt.Errorf("open detail view: click %s: %w", sel, err)
		}
	}
	if c.cfg.DownloadTriggerSelector == "" {
		return nil
	}
	timeout := time.Duration(c.cfg.DOMWaitTimeoutMS) * time.Millisecond
	if err := c.driver.WaitForElement(ctx, c.cfg.DownloadTriggerSelector, timeout); err != nil {
		return fmt.Errorf("wait for download trigger: %w", err)
	}
	return nil
}

// triggerDownload clicks the download trigger, retrying with fresh clicks
// on timeout, and saves the resulting artifact under its canonical name
// (spec.md §4.F steps 4-5, §7 "download failure").
func (c *Controller) triggerDownload(ctx context.Context, creationTime string) (string, error) {
	type received struct {
		name string
		body []byte
		err  error
	}
	resultCh := make(chan received, 1)

	stop, err := c.driver.OnDownload(func(suggestedName string, body io.Reader) error {
		data, readErr := io.ReadAll(body)
		select {
		case resultCh <- received{name: suggestedName, body: data, err: readErr}:
		default:
		}
		return readErr
	})
	if err != nil {
		return "", fmt.Errorf("register download sink: %w", err)
	}
	defer stop()

	downloadTimeout := time.Duration(c.cfg.DownloadTimeoutMS) * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * time.Duration(c.cfg.RetryDelayMS) * time.Millisecond
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			logging.Warnf("download attempt %d for %s: retrying after %v (previous: %v)", attempt+1, creationTime, delay, lastErr)
		}
		if err := c.driver.ClickButton(c.cfg.DownloadTriggerSelector); err != nil {
			lastErr = err
			continue
		}
		select {
		case res := <-resultCh:
			if res.err != nil {
				lastErr = res.err
				continue
			}
			return c.saveDownload(creationTime, res.name, res.body)
		case <-time.After(downloadTimeout):
			lastErr = fmt.Errorf("timed out after %v", downloadTimeout)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("exhausted %d attempts: %w", c.cfg.RetryAttempts+1, lastErr)
}

// saveDownload writes the artifact to the downloads folder under its
// canonical name. A zero-byte stream is rejected outright (spec.md §8's
// "every log entry has a non-empty artifact" invariant).
func (c *Controller) saveDownload(creationTime, suggestedName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("downloaded artifact was empty")
	}
	name, err := canonicalFilename(creationTime, suggestedName, c.usedStems)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(c.cfg.DownloadsFolder, name)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", fullPath, err)
	}
	return name, nil
}

// resolveBoundary runs the Boundary Resolver in start_from mode when
// configured, otherwise first-unseen mode against the Download Log.
//
// In start_from mode the found container is the already-downloaded entry
// resumption should start AFTER, so it is excluded from harvesting. In
// first-unseen mode the found container is itself the first one to
// harvest, so it must NOT be excluded.
func (c *Controller) resolveBoundary(ctx context.Context, startFrom string) (containerID string, exclude bool, err error) {
	if startFrom != "" {
		res, err := c.boundaryRes.ResolveStartFrom(ctx, c.driver, c.scrollMgr, startFrom, c.cfg.MinScrollDistance, c.cfg.MaxScrollAttempts, c.cfg.MaxConsecutiveScrollFailures)
		if err != nil {
			return "", false, err
		}
		return res.ContainerID, true, nil
	}
	res, err := c.boundaryRes.ResolveFirstUnseen(ctx, c.driver, c.scrollMgr, c.log, c.cfg.MinScrollDistance, c.cfg.MaxScrollAttempts, c.cfg.MaxConsecutiveScrollFailures)
	if err != nil {
		return "", false, err
	}
	return res.ContainerID, false, nil
}

// freshIDs filters ids down to container IDs not already in scanned,
// preserving document order.
func freshIDs(ids []string, scanned map[string]struct{}) []string {
	var out []string
	for _, id := range ids {
		if !scroll.IsContainerID(id) {
			continue
		}
		if _, ok := scanned[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}
