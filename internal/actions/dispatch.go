package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/olereon/galleryharvest/internal/models"
)

// errStopAutomation is a sentinel the "stop_automation" action returns to
// unwind Run cleanly without treating the stop as a failure.
var errStopAutomation = errors.New("stop_automation requested")

// dispatch executes one non-control-flow action.
func (in *Interpreter) dispatch(ctx context.Context, step models.ActionSpec) error {
	switch step.Type {
	case "login":
		return in.doLogin(step)

	case "wait":
		ms, _ := step.ValueMillis()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(ms) * time.Millisecond):
		}
		return nil

	case "wait_for_element":
		return in.driver.WaitForElement(ctx, step.Selector, 10*time.Second)

	case "click_button":
		return in.driver.ClickButton(step.Selector)

	case "input_text":
		value, _ := step.ValueString()
		return in.driver.InputText(step.Selector, value)

	case "toggle_setting":
		value, _ := step.ValueBool()
		return in.driver.ToggleSetting(step.Selector, value)

	case "check_element":
		return in.doCheckElement(step)

	case "set_variable":
		m, _ := step.ValueMap()
		name, _ := m["name"].(string)
		if name == "" {
			return fmt.Errorf("set_variable requires value.name")
		}
		in.state.Variables[name] = m["value"]
		return nil

	case "increment_variable":
		return in.doIncrementVariable(step)

	case "log_message":
		return in.doLogMessage(step)

	case "start_generation_downloads":
		return in.doStartGenerationDownloads(ctx, step)

	case "stop_generation_downloads":
		return in.harvest.StopGenerationDownloads()

	case "check_generation_status":
		status, err := in.harvest.CheckGenerationStatus()
		if err != nil {
			return err
		}
		in.state.Variables["generation_status"] = status
		return nil

	case "refresh_page":
		return in.driver.RefreshPage()

	case "stop_automation":
		return errStopAutomation

	default:
		return fmt.Errorf("unknown action type %q", step.Type)
	}
}

func (in *Interpreter) doLogin(step models.ActionSpec) error {
	m, ok := step.ValueMap()
	if !ok {
		return fmt.Errorf("login requires a value object")
	}
	username, _ := m["username"].(string)
	password, _ := m["password"].(string)
	usernameSelector, _ := m["username_selector"].(string)
	passwordSelector, _ := m["password_selector"].(string)
	submitSelector, _ := m["submit_selector"].(string)

	redacted := in.redactor.RedactFields(map[string]string{"username": username, "password": password})
	in.logger.Infof("login: submitting credentials (username=%s password=%s)", redacted["username"], redacted["password"])

	return in.driver.Login(usernameSelector, passwordSelector, submitSelector, username, password)
}

func (in *Interpreter) doCheckElement(step models.ActionSpec) error {
	m, _ := step.ValueMap()
	check, _ := m["check"].(string)
	value, _ := m["value"].(string)
	attribute, _ := m["attribute"].(string)

	result, err := in.driver.CheckElement(step.Selector, check, value, attribute)
	if err != nil {
		return err
	}
	in.state.LastCheckResult = result
	return nil
}

func (in *Interpreter) doIncrementVariable(step models.ActionSpec) error {
	m, _ := step.ValueMap()
	name, _ := m["name"].(string)
	if name == "" {
		return fmt.Errorf("increment_variable requires value.name")
	}
	amount := intFrom(m["amount"], 1)

	current, _ := in.state.Variables[name].(int)
	in.state.Variables[name] = current + amount
	return nil
}

func (in *Interpreter) doLogMessage(step models.ActionSpec) error {
	m, _ := step.ValueMap()
	message, _ := m["message"].(string)
	level, _ := m["level"].(string)

	switch level {
	case "warn", "warning":
		in.logger.Warnf("%s", message)
	case "error":
		in.logger.Errorf("%s", message)
	default:
		in.logger.Infof("%s", message)
	}
	return nil
}

func (in *Interpreter) doStartGenerationDownloads(ctx context.Context, step models.ActionSpec) error {
	m, _ := step.ValueMap()
	params := StartGenerationParams{
		MaxDownloads:          intFrom(m["max_downloads"], 0),
		DownloadsFolder:       stringFrom(m["downloads_folder"]),
		LogsFolder:            stringFrom(m["logs_folder"]),
		CompletedTaskSelector: stringFrom(m["completed_task_selector"]),
		StartFrom:             stringFrom(m["start_from"]),
	}
	return in.harvest.StartGenerationDownloads(ctx, params)
}

func stringFrom(v interface{}) string {
	s, _ := v.(string)
	return s
}
