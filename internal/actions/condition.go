package actions

import "fmt"

// evalCondition implements the condition language spec.md §6 names at
// minimum: check_passed, check_failed, value_equals, value_not_equals,
// all evaluated against the interpreter's last check_element result and,
// for the value_* forms, a named variable.
func evalCondition(state *State, condition map[string]interface{}) (bool, error) {
	kind, _ := condition["type"].(string)
	switch kind {
	case "check_passed":
		return state.LastCheckResult, nil
	case "check_failed":
		return !state.LastCheckResult, nil
	case "value_equals":
		return compareNamedVariable(state, condition, true)
	case "value_not_equals":
		return compareNamedVariable(state, condition, false)
	default:
		return false, fmt.Errorf("unknown condition type %q", kind)
	}
}

func compareNamedVariable(state *State, condition map[string]interface{}, wantEqual bool) (bool, error) {
	name, _ := condition["name"].(string)
	if name == "" {
		return false, fmt.Errorf("value_equals/value_not_equals condition requires a variable name")
	}
	current, ok := state.Variables[name]
	if !ok {
		current = nil
	}
	expected := condition["value"]

	equal := fmt.Sprintf("%v", current) == fmt.Sprintf("%v", expected)
	if wantEqual {
		return equal, nil
	}
	return !equal, nil
}
