package game

import (
	"fmt"
	"sort"
	"strings"
)

const (
	MoveUp    = "up"
	MoveDown  = "down"
	MoveLeft  = "left"
	MoveRight = "right"
	MoveStay  = "stay"
)

// gridEngine runs the shared maze. It is a pure resolver: the room
// collects per-player move sequences and hands them all over in a
// single resolve action, so repeated runs over the same inputs always
// walk the same paths.
type gridEngine struct {
	m     GridMap
	walls map[Cell]struct{}
}

func newGridEngine(m GridMap) *gridEngine {
	walls := make(map[Cell]struct{}, len(m.Walls))
	for _, w := range m.Walls {
		walls[w] = struct{}{}
	}
	return &gridEngine{m: m, walls: walls}
}

func (g *gridEngine) Type() Type { return TypeGrid }

func (g *gridEngine) Start() {}

func (g *gridEngine) Apply(role string, act Action) (*Outcome, error) {
	switch act.Kind {
	case ActionReady:
		if _, ok := g.m.Starts[role]; !ok {
			return nil, Reject("no start position configured for role %q", role)
		}
		for _, tok := range act.Inputs {
			if !validMove(tok) {
				return nil, Reject("invalid move %q", tok)
			}
		}
		return nil, nil
	case ActionResolve:
		return g.resolve(act.AllInputs), nil
	}
	return nil, Reject("that action is not available in a maze room")
}

func (g *gridEngine) View(string) map[string]any {
	return map[string]any{
		"width":   g.m.Width,
		"height":  g.m.Height,
		"walls":   g.m.Walls,
		"starts":  g.m.Starts,
		"targets": g.m.Targets,
	}
}

func validMove(tok string) bool {
	switch tok {
	case MoveUp, MoveDown, MoveLeft, MoveRight, MoveStay:
		return true
	}
	return false
}

func moveCell(c Cell, tok string) Cell {
	switch tok {
	case MoveUp:
		c.Y--
	case MoveDown:
		c.Y++
	case MoveLeft:
		c.X--
	case MoveRight:
		c.X++
	}
	return c
}

// resolve simulates every move sequence in lockstep. Each step
// computes intended cells for all still-moving players; walking off
// the map, into a wall, or two players claiming the same cell halts
// the whole run with everyone involved marked as crashed. There is no
// tie-break: a contested cell fails all of its claimants.
func (g *gridEngine) resolve(inputs map[string][]string) *Outcome {
	roles := make([]string, 0, len(inputs))
	maxSteps := 0
	for role, seq := range inputs {
		roles = append(roles, role)
		if len(seq) > maxSteps {
			maxSteps = len(seq)
		}
	}
	sort.Strings(roles)

	pos := make(map[string]Cell, len(roles))
	done := make(map[string]bool, len(roles))
	paths := make(map[string][]Cell, len(roles))
	for _, role := range roles {
		start := g.m.Starts[role]
		pos[role] = start
		paths[role] = []Cell{start}
	}

	for step := 0; step < maxSteps; step++ {
		intent := make(map[string]Cell, len(roles))
		for _, role := range roles {
			if done[role] {
				continue
			}
			next := pos[role]
			if step < len(inputs[role]) {
				next = moveCell(pos[role], inputs[role][step])
			}
			intent[role] = next
		}

		// Walls and map edges first.
		var crashed []string
		for _, role := range roles {
			c, ok := intent[role]
			if !ok {
				continue
			}
			if c.X < 0 || c.X >= g.m.Width || c.Y < 0 || c.Y >= g.m.Height {
				crashed = append(crashed, role)
				continue
			}
			if _, wall := g.walls[c]; wall {
				crashed = append(crashed, role)
			}
		}
		if len(crashed) > 0 {
			for _, role := range crashed {
				paths[role] = append(paths[role], intent[role])
			}
			return crashOutcome(crashed, step, paths)
		}

		// Simultaneous claims fail every claimant.
		claims := make(map[Cell][]string)
		for _, role := range roles {
			if c, ok := intent[role]; ok {
				claims[c] = append(claims[c], role)
			}
		}
		for _, claimants := range claims {
			if len(claimants) > 1 {
				crashed = append(crashed, claimants...)
			}
		}
		if len(crashed) > 0 {
			sort.Strings(crashed)
			for _, role := range crashed {
				paths[role] = append(paths[role], intent[role])
			}
			return crashOutcome(crashed, step, paths)
		}

		// Commit, then retire anyone who reached their mark. Finished
		// players stop moving but never block the rest.
		for role, c := range intent {
			pos[role] = c
			paths[role] = append(paths[role], c)
		}
		for _, role := range roles {
			if !done[role] && pos[role] == g.m.Targets[role] {
				done[role] = true
			}
		}
	}

	var remaining []string
	for _, role := range roles {
		if !done[role] {
			remaining = append(remaining, role)
		}
	}
	if len(remaining) > 0 {
		return &Outcome{
			Verdict: VerdictRestart,
			Reason:  "waiting on: " + strings.Join(remaining, ", "),
			Detail: map[string]any{
				"paths":     paths,
				"remaining": remaining,
			},
		}
	}

	return &Outcome{
		Verdict: VerdictSuccess,
		Reason:  "the whole crew reached their marks",
		Detail:  map[string]any{"paths": paths},
	}
}

func crashOutcome(crashed []string, step int, paths map[string][]Cell) *Outcome {
	return &Outcome{
		Verdict: VerdictRestart,
		Reason:  fmt.Sprintf("%s crashed at step %d", crashed[0], step),
		Detail: map[string]any{
			"paths":   paths,
			"crashed": crashed,
			"step":    step,
		},
	}
}
