package game

import (
	"fmt"
	"slices"
	"strconv"
)

// AttemptComponent is the reserved component name that triggers the
// win-condition check instead of setting a control.
const AttemptComponent = "attempt"

// machineEngine runs the mechanical puzzle: every control is owned by
// exactly one role, and an explicit attempt checks the whole panel
// regardless of who set what.
type machineEngine struct {
	controls   []Control
	values     map[string]string
	lastStatus string
}

func newMachineEngine(controls []Control) *machineEngine {
	values := make(map[string]string, len(controls))
	for _, ctrl := range controls {
		if ctrl.Numeric {
			values[ctrl.Name] = strconv.Itoa(ctrl.Min)
		} else if len(ctrl.Options) > 0 {
			values[ctrl.Name] = ctrl.Options[0]
		} else {
			values[ctrl.Name] = ""
		}
	}
	return &machineEngine{controls: controls, values: values}
}

func (e *machineEngine) Type() Type { return TypeMachine }

func (e *machineEngine) Start() {}

func (e *machineEngine) Apply(role string, act Action) (*Outcome, error) {
	if act.Kind != ActionComponent {
		return nil, Reject("that action is not available in a machine room")
	}
	if act.Component == AttemptComponent {
		return e.attempt(), nil
	}

	ctrl := e.find(act.Component)
	if ctrl == nil {
		return nil, Reject("unknown component %q", act.Component)
	}
	if ctrl.Owner != role {
		return nil, Reject("%s is operated by the %s", ctrl.Name, ctrl.Owner)
	}
	val, err := normalize(ctrl, act.Value)
	if err != nil {
		return nil, err
	}

	e.values[ctrl.Name] = val
	e.lastStatus = fmt.Sprintf("%s set to %s", ctrl.Name, val)
	return &Outcome{Verdict: VerdictContinue, Reason: e.lastStatus}, nil
}

// attempt checks every control against its target in ownership order;
// the first mismatch is the one reported.
func (e *machineEngine) attempt() *Outcome {
	for _, ctrl := range e.controls {
		if e.values[ctrl.Name] != ctrl.Target {
			e.lastStatus = fmt.Sprintf("attempt failed: %s is not right", ctrl.Name)
			return &Outcome{
				Verdict: VerdictContinue,
				Reason:  e.lastStatus,
				Detail:  map[string]any{"component": ctrl.Name},
			}
		}
	}
	e.lastStatus = "the machine rumbles to life"
	return &Outcome{Verdict: VerdictSuccess, Reason: e.lastStatus}
}

func (e *machineEngine) View(string) map[string]any {
	comps := make([]map[string]any, 0, len(e.controls))
	for _, ctrl := range e.controls {
		comp := map[string]any{
			"name":  ctrl.Name,
			"owner": ctrl.Owner,
			"value": e.values[ctrl.Name],
		}
		if ctrl.Numeric {
			comp["min"] = ctrl.Min
			comp["max"] = ctrl.Max
		} else {
			comp["options"] = ctrl.Options
		}
		comps = append(comps, comp)
	}
	return map[string]any{
		"components":  comps,
		"last_status": e.lastStatus,
	}
}

func (e *machineEngine) find(name string) *Control {
	for i := range e.controls {
		if e.controls[i].Name == name {
			return &e.controls[i]
		}
	}
	return nil
}

// normalize validates a submitted value against the control's domain
// and returns its canonical string form.
func normalize(ctrl *Control, v any) (string, *RejectError) {
	if ctrl.Numeric {
		var n int
		switch x := v.(type) {
		case float64:
			n = int(x)
		case int:
			n = x
		case string:
			parsed, err := strconv.Atoi(x)
			if err != nil {
				return "", Reject("%s expects a number", ctrl.Name)
			}
			n = parsed
		default:
			return "", Reject("%s expects a number", ctrl.Name)
		}
		if n < ctrl.Min || n > ctrl.Max {
			return "", Reject("%s must be between %d and %d", ctrl.Name, ctrl.Min, ctrl.Max)
		}
		return strconv.Itoa(n), nil
	}

	s, ok := v.(string)
	if !ok {
		return "", Reject("%s expects one of its listed settings", ctrl.Name)
	}
	if !slices.Contains(ctrl.Options, s) {
		return "", Reject("%q is not a setting of %s", s, ctrl.Name)
	}
	return s, nil
}
