// Package actions implements the configuration-driven action-script
// interpreter spec.md §6 names: an ordered list of typed steps (clicks,
// waits, conditional blocks, loops, and the start/stop triggers for the
// harvest phase) executed against a live browser session. No teacher file
// implements a comparable interpreter; the decode-then-dispatch shape is
// grounded in the teacher's internal/core/config.go viper/mapstructure
// idiom, generalized to a new concern (see DESIGN.md).
package actions

import (
	"context"
	"time"

	"github.com/olereon/galleryharvest/internal/models"
)

// Driver is the narrow slice of the Browser Driver Adapter the
// interpreter depends on, kept as an interface so scripts are unit
// testable against a fake.
type Driver interface {
	WaitForElement(ctx context.Context, selector string, timeout time.Duration) error
	ClickButton(selector string) error
	InputText(selector, value string) error
	ToggleSetting(selector string, value bool) error
	CheckElement(selector, check, value, attribute string) (bool, error)
	Login(usernameSelector, passwordSelector, submitSelector, username, password string) error
	RefreshPage() error
}

// StartGenerationParams carries the start_generation_downloads action's
// payload through to the Pipeline Controller.
type StartGenerationParams struct {
	MaxDownloads          int
	DownloadsFolder       string
	LogsFolder            string
	CompletedTaskSelector string
	StartFrom             string
}

// HarvestController is the narrow slice of the Pipeline Controller the
// interpreter depends on for the three harvest-phase actions. Kept as an
// interface to avoid an import cycle: internal/pipeline imports
// internal/actions, not the reverse.
type HarvestController interface {
	StartGenerationDownloads(ctx context.Context, params StartGenerationParams) error
	StopGenerationDownloads() error
	CheckGenerationStatus() (string, error)
}

// Logger is the narrow slice of internal/logging the log_message action
// needs.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// State is the interpreter's mutable run state: variables and the last
// check_element result.
type State struct {
	Variables       map[string]interface{}
	LastCheckResult bool
}

func NewState() *State {
	return &State{Variables: make(map[string]interface{})}
}

// Outcome summarizes why Run returned.
type Outcome struct {
	Reason string // completed | stopped | cancelled | error
	Err    error
}
