package game

import (
	"fmt"
	"math/rand"
	"time"
)

type Type string

const (
	TypeGrid    Type = "grid"
	TypeTrivia  Type = "trivia"
	TypeMachine Type = "machine"
	TypeCipher  Type = "cipher"
)

func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeGrid, TypeTrivia, TypeMachine, TypeCipher:
		return Type(s), true
	}
	return "", false
}

type ActionKind string

const (
	// ActionReady submits a full move sequence (grid, while waiting).
	ActionReady ActionKind = "ready"
	// ActionResolve runs the grid simulation over everyone's inputs.
	// Issued by the room, never by a client.
	ActionResolve ActionKind = "resolve"
	ActionAnswer  ActionKind = "answer"
	// ActionComponent sets one machine control, or triggers the
	// attempt when Component is AttemptComponent.
	ActionComponent ActionKind = "component"
	ActionConfigure ActionKind = "configure"
)

type Action struct {
	Kind      ActionKind
	Inputs    []string
	AllInputs map[string][]string
	Answer    string
	Component string
	Value     any
}

type Verdict int

const (
	// VerdictContinue keeps the room in play.
	VerdictContinue Verdict = iota
	// VerdictRestart means the round failed and the room must reset.
	VerdictRestart
	// VerdictSuccess finishes the challenge.
	VerdictSuccess
)

// Outcome is the result of applying an action. Reason is user-visible.
type Outcome struct {
	Verdict Verdict
	Reason  string
	Detail  map[string]any
}

// RejectError reports a validation failure back to the offending
// participant only. An engine returning one guarantees its state is
// untouched.
type RejectError struct {
	Msg string
}

func (e *RejectError) Error() string { return e.Msg }

func Reject(format string, args ...any) *RejectError {
	return &RejectError{Msg: fmt.Sprintf(format, args...)}
}

// Engine resolves participant actions for one game type. Engines are
// not safe for concurrent use; the owning room serializes all calls
// under its own lock and rebuilds the engine on every reset, so no
// engine ever outlives the participant set it was built for.
type Engine interface {
	Type() Type

	// Start begins the first round for the roster the engine was
	// constructed with. Called on the waiting→playing transition.
	Start()

	// Apply records one action. A nil outcome with a nil error means
	// the action was accepted but did not conclude anything.
	Apply(role string, act Action) (*Outcome, error)

	// View returns the game payload for one recipient's state
	// snapshot. Trivia and cipher personalize it, the rest is shared.
	View(role string) map[string]any
}

// New builds a fresh engine with zeroed game data for the given
// roster. rng may be nil, in which case a time-seeded source is used;
// tests pass a fixed seed.
func New(t Type, content *Content, roles []string, rng *rand.Rand) (Engine, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	switch t {
	case TypeGrid:
		return newGridEngine(content.Grid), nil
	case TypeTrivia:
		return newTriviaEngine(content.Trivia, roles, rng), nil
	case TypeMachine:
		return newMachineEngine(content.Machine), nil
	case TypeCipher:
		return newCipherEngine(content.Cipher), nil
	}
	return nil, fmt.Errorf("unknown game type %q", t)
}
