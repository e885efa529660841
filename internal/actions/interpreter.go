package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/olereon/galleryharvest/internal/models"
	"github.com/olereon/galleryharvest/internal/utils"
)

// Interpreter walks a compiled action script, dispatching each step to the
// Browser Driver Adapter or the Pipeline Controller's harvest-phase hooks.
type Interpreter struct {
	script   []models.ActionSpec
	prog     *program
	driver   Driver
	harvest  HarvestController
	logger   Logger
	redactor *utils.CredentialRedactor
	state    *State
}

func New(script []models.ActionSpec, driver Driver, harvest HarvestController, logger Logger) (*Interpreter, error) {
	prog, err := compile(script)
	if err != nil {
		return nil, fmt.Errorf("compile action script: %w", err)
	}
	return &Interpreter{
		script:   script,
		prog:     prog,
		driver:   driver,
		harvest:  harvest,
		logger:   logger,
		redactor: utils.NewCredentialRedactor(),
		state:    NewState(),
	}, nil
}

// ifFrameState is the interpreter's runtime record for one open if-chain.
type ifFrameState struct {
	end   int
	taken bool
}

// Run executes the script from the first action to the last, honoring
// control flow and ctx cancellation between every step (spec.md §5
// suspension-point guidance).
func (in *Interpreter) Run(ctx context.Context) Outcome {
	var ifStack []*ifFrameState
	var loopStack []int // while_begin indices, innermost last
	retryCounts := make(map[int]int)

	pc := 0
	for pc < len(in.script) {
		select {
		case <-ctx.Done():
			return Outcome{Reason: "cancelled", Err: ctx.Err()}
		default:
		}

		step := in.script[pc]

		// Fast-forward past untaken remainder of an already-resolved if-chain.
		if len(ifStack) > 0 {
			top := ifStack[len(ifStack)-1]
			if top.taken && (step.Type == "elif" || step.Type == "else" || step.Type == "if_end") && pc != top.end {
				pc = top.end
				continue
			}
		}

		switch step.Type {
		case "if_begin", "elif":
			cond, _ := step.Value.(map[string]interface{})
			ok, err := evalCondition(in.state, cond)
			if err != nil {
				return Outcome{Reason: "error", Err: fmt.Errorf("action %d: %w", pc, err)}
			}
			if step.Type == "if_begin" {
				ifStack = append(ifStack, &ifFrameState{end: in.prog.chainEnd[pc]})
			}
			top := ifStack[len(ifStack)-1]
			if ok {
				top.taken = true
				pc++
			} else {
				pc = in.prog.jumpFalse[pc]
			}
			continue

		case "else":
			top := ifStack[len(ifStack)-1]
			top.taken = true
			pc++
			continue

		case "if_end":
			ifStack = ifStack[:len(ifStack)-1]
			pc++
			continue

		case "while_begin":
			cond, _ := step.Value.(map[string]interface{})
			ok, err := evalCondition(in.state, cond)
			if err != nil {
				return Outcome{Reason: "error", Err: fmt.Errorf("action %d: %w", pc, err)}
			}
			if ok {
				loopStack = append(loopStack, pc)
				pc++
			} else {
				pc = in.prog.whileEnd[pc] + 1
			}
			continue

		case "while_end":
			pc = loopStack[len(loopStack)-1]
			continue

		case "break":
			end := in.prog.whileEnd[loopStack[len(loopStack)-1]]
			loopStack = loopStack[:len(loopStack)-1]
			pc = end + 1
			continue

		case "continue":
			pc = loopStack[len(loopStack)-1]
			continue

		case "conditional_wait":
			cond, _ := step.Value.(map[string]interface{})
			condition, _ := cond["condition"].(map[string]interface{})
			ok, err := evalCondition(in.state, condition)
			if err != nil {
				return Outcome{Reason: "error", Err: fmt.Errorf("action %d: %w", pc, err)}
			}
			if ok {
				pc++
				continue
			}
			maxRetries := intFrom(cond["max_retries"], 0)
			if retryCounts[pc] >= maxRetries {
				pc++ // retries exhausted: proceed without failing the run
				continue
			}
			retryCounts[pc]++
			waitMS := intFrom(cond["wait_time"], 0)
			if waitMS > 0 {
				select {
				case <-ctx.Done():
					return Outcome{Reason: "cancelled", Err: ctx.Err()}
				case <-time.After(time.Duration(waitMS) * time.Millisecond):
				}
			}
			pc = intFrom(cond["retry_from_action"], 0)
			continue

		case "skip_if":
			cond, _ := step.Value.(map[string]interface{})
			condition, _ := cond["condition"].(map[string]interface{})
			ok, err := evalCondition(in.state, condition)
			if err != nil {
				return Outcome{Reason: "error", Err: fmt.Errorf("action %d: %w", pc, err)}
			}
			if ok {
				pc += intFrom(cond["skip_count"], 0) + 1
			} else {
				pc++
			}
			continue
		}

		// Non-control actions: dispatch, then advance pc linearly.
		if err := in.dispatch(ctx, step); err != nil {
			if err == errStopAutomation {
				return Outcome{Reason: "stopped"}
			}
			return Outcome{Reason: "error", Err: fmt.Errorf("action %d (%s): %w", pc, step.Type, err)}
		}
		pc++
	}
	return Outcome{Reason: "completed"}
}

func intFrom(v interface{}, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return fallback
	}
}
