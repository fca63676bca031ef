package game

import (
	"fmt"
	"slices"
)

// cipherEngine runs the final convergence lock. Every seat sets its
// own glyph; there is no submit step — the lock opens the instant all
// last-set values match their targets at once.
type cipherEngine struct {
	seats      []CipherRole
	values     map[string]string
	lastResult string
	finished   bool
}

func newCipherEngine(seats []CipherRole) *cipherEngine {
	return &cipherEngine{
		seats:  seats,
		values: make(map[string]string, len(seats)),
	}
}

func (e *cipherEngine) Type() Type { return TypeCipher }

func (e *cipherEngine) Start() {}

func (e *cipherEngine) Apply(role string, act Action) (*Outcome, error) {
	if act.Kind != ActionConfigure {
		return nil, Reject("that action is not available in a cipher room")
	}
	if e.finished {
		return nil, Reject("the cipher is already open")
	}

	seat := e.seat(role)
	if seat == nil {
		return nil, Reject("role %q has no glyph to set", role)
	}
	val, ok := act.Value.(string)
	if !ok {
		return nil, Reject("glyph value must be a string")
	}
	if !slices.Contains(seat.Domain, val) {
		return nil, Reject("%q is not one of your glyphs", val)
	}

	e.values[role] = val
	if e.converged() {
		e.finished = true
		e.lastResult = "the cipher clicks open"
		return &Outcome{Verdict: VerdictSuccess, Reason: e.lastResult}, nil
	}
	e.lastResult = fmt.Sprintf("%s locked in a glyph", role)
	return &Outcome{Verdict: VerdictContinue, Reason: e.lastResult}, nil
}

// converged reports whether every seat's last-set value equals its
// target right now. Unset seats always fail the check.
func (e *cipherEngine) converged() bool {
	for _, seat := range e.seats {
		val, set := e.values[seat.Role]
		if !set || val != seat.Target {
			return false
		}
	}
	return true
}

func (e *cipherEngine) View(role string) map[string]any {
	settings := make(map[string]any, len(e.seats))
	for _, seat := range e.seats {
		if val, set := e.values[seat.Role]; set {
			settings[seat.Role] = val
		} else {
			settings[seat.Role] = nil
		}
	}

	view := map[string]any{
		"settings":    settings,
		"last_result": e.lastResult,
	}
	if seat := e.seat(role); seat != nil {
		view["clue"] = seat.Clue
		view["domain"] = seat.Domain
	}
	return view
}

func (e *cipherEngine) seat(role string) *CipherRole {
	for i := range e.seats {
		if e.seats[i].Role == role {
			return &e.seats[i]
		}
	}
	return nil
}
