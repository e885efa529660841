package actions

import (
	"context"
	"testing"
	"time"

	"github.com/olereon/galleryharvest/internal/models"
)

type fakeDriver struct {
	clicked []string
	typed   map[string]string
	checks  map[string]bool
}

func (f *fakeDriver) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	return nil
}
func (f *fakeDriver) ClickButton(selector string) error {
	f.clicked = append(f.clicked, selector)
	return nil
}
func (f *fakeDriver) InputText(selector, value string) error {
	if f.typed == nil {
		f.typed = make(map[string]string)
	}
	f.typed[selector] = value
	return nil
}
func (f *fakeDriver) ToggleSetting(selector string, value bool) error { return nil }
func (f *fakeDriver) CheckElement(selector, check, value, attribute string) (bool, error) {
	return f.checks[selector], nil
}
func (f *fakeDriver) Login(usernameSelector, passwordSelector, submitSelector, username, password string) error {
	return nil
}
func (f *fakeDriver) RefreshPage() error { return nil }

type fakeHarvest struct {
	started bool
	params  StartGenerationParams
}

func (f *fakeHarvest) StartGenerationDownloads(ctx context.Context, params StartGenerationParams) error {
	f.started = true
	f.params = params
	return nil
}
func (f *fakeHarvest) StopGenerationDownloads() error              { return nil }
func (f *fakeHarvest) CheckGenerationStatus() (string, error) { return "running", nil }

type fakeLogger struct{ messages []string }

func (l *fakeLogger) Infof(format string, args ...interface{})  { l.messages = append(l.messages, format) }
func (l *fakeLogger) Warnf(format string, args ...interface{})  { l.messages = append(l.messages, format) }
func (l *fakeLogger) Errorf(format string, args ...interface{}) { l.messages = append(l.messages, format) }

func TestIfElseTakesTrueBranchOnly(t *testing.T) {
	script := []models.ActionSpec{
		{Type: "check_element", Selector: "#a", Value: map[string]interface{}{"check": "exists"}},
		{Type: "if_begin", Value: map[string]interface{}{"type": "check_passed"}},
		{Type: "click_button", Selector: "#true-branch"},
		{Type: "else"},
		{Type: "click_button", Selector: "#false-branch"},
		{Type: "if_end"},
	}
	driver := &fakeDriver{checks: map[string]bool{"#a": true}}
	in, err := New(script, driver, &fakeHarvest{}, &fakeLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outcome := in.Run(context.Background())
	if outcome.Reason != "completed" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(driver.clicked) != 1 || driver.clicked[0] != "#true-branch" {
		t.Fatalf("expected only true branch clicked, got %v", driver.clicked)
	}
}

func TestWhileLoopIncrementsUntilConditionFalse(t *testing.T) {
	script := []models.ActionSpec{
		{Type: "set_variable", Value: map[string]interface{}{"name": "i", "value": 0}},
		{Type: "while_begin", Value: map[string]interface{}{"type": "value_not_equals", "name": "i", "value": 3}},
		{Type: "increment_variable", Value: map[string]interface{}{"name": "i", "amount": 1}},
		{Type: "while_end"},
	}
	in, err := New(script, &fakeDriver{}, &fakeHarvest{}, &fakeLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outcome := in.Run(context.Background())
	if outcome.Reason != "completed" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if in.state.Variables["i"] != 3 {
		t.Fatalf("expected i == 3, got %v", in.state.Variables["i"])
	}
}

func TestStartGenerationDownloadsInvokesHarvestController(t *testing.T) {
	script := []models.ActionSpec{
		{Type: "start_generation_downloads", Value: map[string]interface{}{
			"max_downloads":    50,
			"downloads_folder": "downloads",
			"logs_folder":      "logs",
		}},
	}
	harvest := &fakeHarvest{}
	in, err := New(script, &fakeDriver{}, harvest, &fakeLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outcome := in.Run(context.Background())
	if outcome.Reason != "completed" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if !harvest.started || harvest.params.MaxDownloads != 50 {
		t.Fatalf("expected harvest controller to be invoked with max_downloads=50, got %+v", harvest.params)
	}
}

func TestStopAutomationEndsRunEarly(t *testing.T) {
	script := []models.ActionSpec{
		{Type: "stop_automation"},
		{Type: "click_button", Selector: "#never-reached"},
	}
	driver := &fakeDriver{}
	in, err := New(script, driver, &fakeHarvest{}, &fakeLogger{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outcome := in.Run(context.Background())
	if outcome.Reason != "stopped" {
		t.Fatalf("expected stopped outcome, got %+v", outcome)
	}
	if len(driver.clicked) != 0 {
		t.Fatalf("expected no further actions to run, got %v", driver.clicked)
	}
}

func TestUnbalancedIfBeginIsRejectedAtCompile(t *testing.T) {
	script := []models.ActionSpec{
		{Type: "if_begin", Value: map[string]interface{}{"type": "check_passed"}},
	}
	if _, err := New(script, &fakeDriver{}, &fakeHarvest{}, &fakeLogger{}); err == nil {
		t.Fatalf("expected compile error for unclosed if_begin")
	}
}
