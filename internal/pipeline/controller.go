package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olereon/galleryharvest/internal/actions"
	"github.com/olereon/galleryharvest/internal/boundary"
	"github.com/olereon/galleryharvest/internal/downloadlog"
	"github.com/olereon/galleryharvest/internal/extract"
	"github.com/olereon/galleryharvest/internal/health"
	"github.com/olereon/galleryharvest/internal/logging"
	"github.com/olereon/galleryharvest/internal/models"
	"github.com/olereon/galleryharvest/internal/scroll"
)

// healthSampleInterval is how often the health watchdog refreshes its
// memory/CPU reading while a harvest is running.
const healthSampleInterval = 5 * time.Second

// Controller is the Pipeline Controller: one run, one browser session, one
// Download Log. Not safe for concurrent Run calls.
type Controller struct {
	driver      Driver
	cfg         models.GalleryConfig
	scrollMgr   *scroll.Manager
	extractor   *extract.Extractor
	log         *downloadlog.Log
	boundaryRes *boundary.Resolver
	healthMon   *health.Monitor
	signals     *Signals
	observer    func(models.Event)

	state                         models.PipelineState
	maxDownloads                   int
	downloads                      int
	consecutiveDuplicates          int
	consecutiveExtractionFailures  int
	usedStems                      map[string]int
	outputs                        []string
	errs                           []string
	actionsCompleted               int
	totalActions                   int
}

// New opens the Download Log, ensures the downloads folder exists, and
// wires the Scroll Manager, Metadata Extractor, and Boundary Resolver
// around driver. Mirrors NewCrawler's role in internal/core/crawler.go:
// validate inputs, construct collaborators, fail fast on setup errors.
func New(driver Driver, cfg models.GalleryConfig, observer func(models.Event)) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &models.ConfigError{Cause: err}
	}

	logPath := filepath.Join(cfg.LogsFolder, "download_log.txt")
	log, err := downloadlog.Open(logPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DownloadsFolder, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads folder: %w", err)
	}

	extractor := extract.New(driver, extract.DefaultConfig())
	scrollMgr := scroll.NewManager(models.NewScrollState())
	scrollMgr.Configure(cfg.MinScrollDistance)

	return &Controller{
		driver:       driver,
		cfg:          cfg,
		scrollMgr:    scrollMgr,
		extractor:    extractor,
		log:          log,
		boundaryRes:  boundary.New(extractor, boundary.ExactComparator{}),
		healthMon:    health.New(),
		signals:      NewSignals(),
		observer:     observer,
		state:        models.StateIdle,
		maxDownloads: cfg.MaxDownloads,
		usedStems:    make(map[string]int),
		totalActions: len(cfg.ActionScript),
	}, nil
}

// Signals exposes the run's pause/resume/stop surface to the caller (the
// CLI wires OS signal handling to it).
func (c *Controller) Signals() *Signals { return c.signals }

// Run drives the full state machine. If the config carries an action
// script, the script owns login/navigation and triggers the harvest phase
// itself via start_generation_downloads; otherwise Run enters the harvest
// phase directly using GalleryConfig's top-level fields.
func (c *Controller) Run(ctx context.Context) models.Result {
	logging.Infof("🚀 starting harvest run for %s", c.cfg.GalleryURL)
	c.state = models.StateInitializing
	c.emit(models.Event{Kind: models.EventState, Message: string(c.state)})

	c.healthMon.Start(ctx, healthSampleInterval)
	defer c.healthMon.Stop()

	if len(c.cfg.ActionScript) > 0 {
		return c.runWithActionScript(ctx)
	}
	return c.runHarvestDirect(ctx)
}

// checkHealth surfaces the watchdog's latest reading as a progress event,
// advisory only — it never gates the harvest loop (spec.md §5, one page in
// flight at a time, nothing left to scale down).
func (c *Controller) checkHealth() {
	status := c.healthMon.Status()
	if status.Pressure == health.PressureNormal {
		return
	}
	c.emit(models.Event{
		Kind:    models.EventProgress,
		Current: c.downloads,
		Total:   c.maxDownloads,
		Message: fmt.Sprintf("memory pressure %s: %dMB available", status.Pressure, status.AvailableMemory/(1024*1024)),
	})
}

func (c *Controller) runWithActionScript(ctx context.Context) models.Result {
	c.state = models.StateLoggingIn
	c.emit(models.Event{Kind: models.EventState, Message: string(c.state)})

	interp, err := actions.New(c.cfg.ActionScript, c.driver, c, forwardingLogger{})
	if err != nil {
		return c.fail("config_error", err)
	}

	outcome := interp.Run(ctx)
	switch outcome.Reason {
	case "completed", "stopped":
		// the harvest phase (if reached) already set c.state/c.downloads
		// via StartGenerationDownloads; a script with no harvest phase at
		// all still counts as a clean finish (spec.md §4.F exit
		// conditions: "action script completed").
		if c.state != models.StateDone && c.state != models.StateFailed && c.state != models.StateCancelled {
			logging.Infof("✅ action script completed with no harvest phase")
			return c.finishDone("action_script_completed")
		}
		return c.result(string(c.state))
	case "cancelled":
		return c.finishForStop()
	default:
		return c.fail("browser_error", outcome.Err)
	}
}

func (c *Controller) runHarvestDirect(ctx context.Context) models.Result {
	res := c.runHarvest(ctx, c.cfg.MaxDownloads, "", c.cfg.StartFrom)
	logging.Infof("✅ harvest run finished: %s (%d downloads)", res.Reason, res.Downloads)
	return res
}

// StartGenerationDownloads implements actions.HarvestController: the
// start_generation_downloads action hands the harvest phase its own
// parameters, which override the top-level GalleryConfig defaults.
// LogsFolder is not applied: the Download Log stays the one New opened
// from the configured logs_folder.
func (c *Controller) StartGenerationDownloads(ctx context.Context, params actions.StartGenerationParams) error {
	if params.MaxDownloads > 0 {
		c.maxDownloads = params.MaxDownloads
	}
	if params.DownloadsFolder != "" {
		c.cfg.DownloadsFolder = params.DownloadsFolder
		if err := os.MkdirAll(c.cfg.DownloadsFolder, 0o755); err != nil {
			return fmt.Errorf("create downloads folder: %w", err)
		}
	}
	startFrom := params.StartFrom
	if startFrom == "" {
		startFrom = c.cfg.StartFrom
	}

	res := c.runHarvest(ctx, c.maxDownloads, params.CompletedTaskSelector, startFrom)
	if res.State == models.StateFailed {
		return fmt.Errorf("harvest failed: %s", res.Reason)
	}
	return nil
}

// StopGenerationDownloads implements actions.HarvestController: requests a
// graceful stop of the in-progress (or not-yet-started) harvest phase.
func (c *Controller) StopGenerationDownloads() error {
	c.signals.Stop()
	return nil
}

// CheckGenerationStatus implements actions.HarvestController.
func (c *Controller) CheckGenerationStatus() (string, error) {
	return string(c.state), nil
}

func (c *Controller) emit(ev models.Event) {
	if c.observer != nil {
		c.observer(ev)
	}
}

func (c *Controller) fail(reason string, err error) models.Result {
	c.state = models.StateFailed
	if err != nil {
		c.errs = append(c.errs, err.Error())
		logging.Errorf("❌ harvest failed: %v", err)
	}
	return c.result(reason)
}

func (c *Controller) finishDone(reason string) models.Result {
	c.state = models.StateDone
	return c.result(reason)
}

func (c *Controller) finishForStop() models.Result {
	if c.signals.isEmergency() {
		c.driver.CancelDownloads()
	}
	c.state = models.StateCancelled
	return c.result("stopped")
}

func (c *Controller) result(reason string) models.Result {
	return models.Result{
		State:            c.state,
		Reason:           reason,
		ActionsCompleted: c.actionsCompleted,
		TotalActions:     c.totalActions,
		Downloads:        c.downloads,
		Errors:           append([]string(nil), c.errs...),
		Outputs:          append([]string(nil), c.outputs...),
	}
}

// forwardingLogger satisfies actions.Logger by forwarding to internal/logging,
// matching the teacher's package-level utils.Infof idiom rather than an
// injected per-component logger.
type forwardingLogger struct{}

func (forwardingLogger) Infof(format string, args ...interface{})  { logging.Infof(format, args...) }
func (forwardingLogger) Warnf(format string, args ...interface{})  { logging.Warnf(format, args...) }
func (forwardingLogger) Errorf(format string, args ...interface{}) { logging.Errorf(format, args...) }
