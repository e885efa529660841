// Command galleryharvest drives a single browser session against one
// gallery page, harvesting generated media into canonically named files
// while tracking progress in a plain-text Download Log. See spec.md §5 for
// the run's concurrency model: one session, one log, one config.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/olereon/galleryharvest/internal/browser"
	"github.com/olereon/galleryharvest/internal/config"
	"github.com/olereon/galleryharvest/internal/logging"
	"github.com/olereon/galleryharvest/internal/models"
	"github.com/olereon/galleryharvest/internal/pipeline"
	"github.com/olereon/galleryharvest/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

var (
	configFile     string
	verbose        bool
	logLevel       string
	validateConfig bool

	galleryURL      string
	downloadsFolder string
	logsFolder      string
	maxDownloads    int
	startFrom       string
	headless        bool

	loadedConfig *models.GalleryConfig
)

var rootCmd = &cobra.Command{
	Use:     "galleryharvest",
	Short:   "Harvests generated gallery media into canonically named files",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader(configFile)

		logCfg, err := loader.LoadLogging()
		if err != nil {
			return &models.ConfigError{FilePath: configFile, Cause: err}
		}
		if logLevel != "" {
			logCfg.Level = logLevel
		}
		if err := logging.Init(logging.Config{
			Level:      logCfg.Level,
			LogDir:     logCfg.LogDir,
			MaxSize:    logCfg.Rotation.MaxSize,
			MaxBackups: logCfg.Rotation.MaxBackups,
			MaxAge:     logCfg.Rotation.MaxAge,
			Compress:   logCfg.Rotation.Compress,
		}); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		if verbose {
			logging.Info("verbose mode enabled")
		}

		cfg, err := loader.Load()
		if err != nil {
			return err
		}
		applyFlagOverrides(cfg)
		loadedConfig = cfg
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateConfig {
			logging.Info("🔍 validating configuration...")
			if err := loadedConfig.Validate(); err != nil {
				return &models.ConfigError{FilePath: configFile, Cause: err}
			}
			logging.Info("✅ configuration is valid!")
			logging.Infof("gallery_url: %s", loadedConfig.GalleryURL)
			logging.Infof("downloads_folder: %s", loadedConfig.DownloadsFolder)
			logging.Infof("max_downloads: %d", loadedConfig.MaxDownloads)
			return nil
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		bar := utils.NewProgressBar(loadedConfig.MaxDownloads, "harvesting")

		session, err := browser.Open(ctx, loadedConfig.GalleryURL, loadedConfig.Headless, browser.Viewport{
			Width:  loadedConfig.ViewportWidth,
			Height: loadedConfig.ViewportHeight,
		})
		if err != nil {
			return &models.BrowserError{URL: loadedConfig.GalleryURL, Cause: err}
		}
		defer session.Close()

		ctrl, err := pipeline.New(session, *loadedConfig, func(ev models.Event) {
			switch ev.Kind {
			case models.EventProgress:
				_ = bar.Set(ev.Current)
			case models.EventError:
				logging.Warnf("%s", ev.Message)
			}
		})
		if err != nil {
			return fmt.Errorf("create pipeline controller: %w", err)
		}

		go func() {
			sig, ok := <-sigChan
			if !ok {
				return
			}
			logging.Warnf("received signal %v, requesting graceful stop (press again to force)...", sig)
			ctrl.Signals().Stop()

			sig, ok = <-sigChan
			if ok {
				logging.Warnf("received second signal %v, cancelling in-flight downloads...", sig)
				ctrl.Signals().StopEmergency()
			}
		}()

		result := ctrl.Run(ctx)

		fmt.Println("\n==================================================")
		fmt.Println("📊 harvest summary")
		fmt.Println("==================================================")
		fmt.Printf("state: %s (%s)\n", result.State, result.Reason)
		fmt.Printf("✅ downloads: %d\n", result.Downloads)
		fmt.Printf("❌ errors: %d\n", len(result.Errors))
		if loadedConfig.ActionScript != nil {
			fmt.Printf("actions completed: %d/%d\n", result.ActionsCompleted, result.TotalActions)
		}
		fmt.Println("==================================================")

		for _, e := range result.Errors {
			logging.Warnf("%s", e)
		}

		os.Exit(models.ExitCode(result))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("galleryharvest %s\n", Version)
		fmt.Printf("built: %s\n", BuildTime)
	},
}

func applyFlagOverrides(cfg *models.GalleryConfig) {
	if galleryURL != "" {
		cfg.GalleryURL = galleryURL
	}
	if downloadsFolder != "" {
		cfg.DownloadsFolder = downloadsFolder
	}
	if logsFolder != "" {
		cfg.LogsFolder = logsFolder
	}
	if maxDownloads > 0 {
		cfg.MaxDownloads = maxDownloads
	}
	if startFrom != "" {
		cfg.StartFrom = startFrom
	}
	if cmdFlagChanged("headless") {
		cfg.Headless = headless
	}
}

// cmdFlagChanged reports whether a persistent or local flag on rootCmd was
// explicitly set, so a bool flag's zero value doesn't silently override a
// config file's true.
func cmdFlagChanged(name string) bool {
	if f := rootCmd.Flags().Lookup(name); f != nil {
		return f.Changed
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "validate the configuration file and exit")

	rootCmd.Flags().StringVarP(&galleryURL, "url", "u", "", "gallery URL (overrides config)")
	rootCmd.Flags().StringVarP(&downloadsFolder, "output", "o", "", "downloads folder (overrides config)")
	rootCmd.Flags().StringVar(&logsFolder, "logs-folder", "", "download log folder (overrides config)")
	rootCmd.Flags().IntVar(&maxDownloads, "max-downloads", 0, "maximum downloads this run (overrides config)")
	rootCmd.Flags().StringVar(&startFrom, "start-from", "", "creation_time to resume harvesting after (overrides config)")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")

	rootCmd.AddCommand(versionCmd)
}

// exitCodeForStartupError classifies an error returned by rootCmd.Execute
// before a models.Result ever exists (config load, logging init, browser
// launch, download log corruption) into the same exit-code space
// models.ExitCode uses for a completed run, per spec.md §6.
func exitCodeForStartupError(err error) int {
	var configErr *models.ConfigError
	var logErr *models.LogCorruptionError
	var browserErr *models.BrowserError
	switch {
	case errors.As(err, &logErr):
		return 5
	case errors.As(err, &browserErr):
		return 4
	case errors.As(err, &configErr):
		return 3
	default:
		return 1
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCodeForStartupError(err))
	}
}
