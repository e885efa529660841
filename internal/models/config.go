package models

import "fmt"

// DuplicateMode controls how the harvest loop reacts to a container whose
// creation_time is already present in the Download Log.
type DuplicateMode string

const (
	DuplicateModeFinish DuplicateMode = "finish"
	DuplicateModeSkip   DuplicateMode = "skip"
)

// GalleryConfig is the immutable-for-the-run configuration record described
// in spec.md §3. It is decoded from YAML via viper/mapstructure.
type GalleryConfig struct {
	GalleryURL string `mapstructure:"gallery_url"`

	DownloadsFolder string `mapstructure:"downloads_folder"`
	LogsFolder      string `mapstructure:"logs_folder"`

	MaxDownloads int           `mapstructure:"max_downloads"`
	DuplicateMode DuplicateMode `mapstructure:"duplicate_mode"`
	StartFrom     string        `mapstructure:"start_from"`

	MinScrollDistance           int `mapstructure:"min_scroll_distance"`
	MaxScrollAttempts           int `mapstructure:"max_scroll_attempts"`
	MaxConsecutiveScrollFailures int `mapstructure:"max_consecutive_scroll_failures"`

	ConsecutiveDuplicateLimit int `mapstructure:"consecutive_duplicate_limit"`

	// MaxConsecutiveExtractionFailures bounds spec.md §7's unnamed
	// "consecutive_extraction_failures" cap: the harvest loop aborts once
	// more than this many containers in a row fail every extraction strategy.
	MaxConsecutiveExtractionFailures int `mapstructure:"max_consecutive_extraction_failures"`

	DOMWaitTimeoutMS    int `mapstructure:"dom_wait_timeout_ms"`
	DownloadTimeoutMS   int `mapstructure:"download_timeout_ms"`
	RetryAttempts       int `mapstructure:"retry_attempts"`
	RetryDelayMS        int `mapstructure:"retry_delay_ms"`

	KeepBrowserOpen bool `mapstructure:"keep_browser_open"`
	Headless        bool `mapstructure:"headless"`

	ViewportWidth  int `mapstructure:"viewport_width"`
	ViewportHeight int `mapstructure:"viewport_height"`

	// ContainerClickSelectors is the configured sequence of selectors,
	// scoped within one container, the harvest loop clicks in order to
	// open its detail view (spec.md §4.F step 3).
	ContainerClickSelectors []string `mapstructure:"container_click_selectors"`
	// DownloadTriggerSelector is the button clicked once the detail view
	// is open to begin the actual file download.
	DownloadTriggerSelector string `mapstructure:"download_trigger_selector"`

	ActionScript []ActionSpec `mapstructure:"actions"`
}

// Validate enforces the range checks spec.md names explicitly plus the
// consecutive-duplicate bound fixed by Open Question (c) in spec.md §9.
func (c *GalleryConfig) Validate() error {
	if c.GalleryURL == "" {
		return fmt.Errorf("gallery_url is required")
	}
	if err := ValidateURL(c.GalleryURL); err != nil {
		return fmt.Errorf("gallery_url: %w", err)
	}
	if c.MaxDownloads <= 0 {
		return fmt.Errorf("max_downloads must be > 0")
	}
	if c.DuplicateMode != DuplicateModeFinish && c.DuplicateMode != DuplicateModeSkip {
		return fmt.Errorf("duplicate_mode must be 'finish' or 'skip', got %q", c.DuplicateMode)
	}
	if c.MinScrollDistance <= 0 {
		return fmt.Errorf("min_scroll_distance must be > 0")
	}
	if c.MaxScrollAttempts <= 0 {
		return fmt.Errorf("max_scroll_attempts must be > 0")
	}
	if c.MaxConsecutiveScrollFailures <= 0 {
		return fmt.Errorf("max_consecutive_scroll_failures must be > 0")
	}
	if c.ConsecutiveDuplicateLimit < 2 || c.ConsecutiveDuplicateLimit > 50 {
		return fmt.Errorf("consecutive_duplicate_limit must be between 2 and 50, got %d", c.ConsecutiveDuplicateLimit)
	}
	if c.MaxConsecutiveExtractionFailures <= 0 {
		return fmt.Errorf("max_consecutive_extraction_failures must be > 0")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry_attempts must be >= 0")
	}
	if c.DOMWaitTimeoutMS <= 0 {
		return fmt.Errorf("dom_wait_timeout_ms must be > 0")
	}
	if c.DownloadTimeoutMS <= 0 {
		return fmt.Errorf("download_timeout_ms must be > 0")
	}
	return nil
}

// DefaultGalleryConfig mirrors the teacher's setDefaults idiom — these are
// the viper.SetDefault values applied before a config file is read.
func DefaultGalleryConfig() GalleryConfig {
	return GalleryConfig{
		DownloadsFolder:              "downloads",
		LogsFolder:                   "logs",
		MaxDownloads:                 100,
		DuplicateMode:                DuplicateModeSkip,
		MinScrollDistance:            2500,
		MaxScrollAttempts:            2000,
		MaxConsecutiveScrollFailures: 100,
		ConsecutiveDuplicateLimit:    10,
		MaxConsecutiveExtractionFailures: 20,
		DOMWaitTimeoutMS:             10000,
		DownloadTimeoutMS:            60000,
		RetryAttempts:                3,
		RetryDelayMS:                 500,
		Headless:                    true,
		ViewportWidth:                1600,
		ViewportHeight:               1000,
	}
}

// ActionSpec is one entry of the action_script enumerated in spec.md §6.
// Value is deliberately untyped: depending on Type it may be a scalar
// (milliseconds for "wait", a bool for "toggle_setting", text for
// "input_text") or a nested map (the multi-field payload "login",
// "check_element", and the block/loop actions carry).
type ActionSpec struct {
	Type     string      `mapstructure:"type"`
	Selector string      `mapstructure:"selector"`
	Value    interface{} `mapstructure:"value"`
}

// ValueMap returns Value as a map[string]interface{} when the action's
// payload is a nested object, or ok=false otherwise.
func (a ActionSpec) ValueMap() (map[string]interface{}, bool) {
	m, ok := a.Value.(map[string]interface{})
	return m, ok
}

// ValueString returns Value as a string when the action's payload is a
// scalar string (e.g. input_text's typed text).
func (a ActionSpec) ValueString() (string, bool) {
	s, ok := a.Value.(string)
	return s, ok
}

// ValueBool returns Value as a bool when the action's payload is a scalar
// boolean (toggle_setting).
func (a ActionSpec) ValueBool() (bool, bool) {
	b, ok := a.Value.(bool)
	return b, ok
}

// ValueMillis returns Value as milliseconds when the action's payload is a
// numeric scalar (wait's sleep duration). Handles both int and float64
// since mapstructure/YAML may decode either.
func (a ActionSpec) ValueMillis() (int, bool) {
	switch n := a.Value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
