package game

import (
	"encoding/json"
	"fmt"
	"os"
)

// Content is the static puzzle configuration the engines run against.
// It is loaded once at startup and never mutated; per-room game data
// is derived from it on every reset.
type Content struct {
	Grid    GridMap       `json:"grid"`
	Trivia  TriviaContent `json:"trivia"`
	Machine []Control     `json:"machine"`
	Cipher  []CipherRole  `json:"cipher"`
}

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// GridMap describes the shared maze. Y grows downward; a role without
// a start slot cannot join a grid room.
type GridMap struct {
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Walls   []Cell          `json:"walls"`
	Starts  map[string]Cell `json:"starts"`
	Targets map[string]Cell `json:"targets"`
}

type Question struct {
	Text    string   `json:"text"`
	Correct string   `json:"correct"`
	Wrong   []string `json:"wrong"`
}

type TriviaContent struct {
	TargetScore int        `json:"target_score"`
	Questions   []Question `json:"questions"`
}

// Control is one machine control. Discrete controls list Options;
// numeric ones use Min/Max. Values are carried as strings either way,
// numeric ones in canonical decimal form. Declaration order is the
// ownership order used when reporting a failed attempt.
type Control struct {
	Name    string   `json:"name"`
	Owner   string   `json:"owner"`
	Numeric bool     `json:"numeric"`
	Options []string `json:"options,omitempty"`
	Min     int      `json:"min,omitempty"`
	Max     int      `json:"max,omitempty"`
	Target  string   `json:"target"`
}

// CipherRole is one seat at the final cipher: a private clue, the
// values that role may set, and the value the whole crew must converge
// on.
type CipherRole struct {
	Role   string   `json:"role"`
	Clue   string   `json:"clue"`
	Domain []string `json:"domain"`
	Target string   `json:"target"`
}

// LoadContent reads puzzle content from a JSON file. An empty path
// returns the built-in defaults.
func LoadContent(path string) (*Content, error) {
	if path == "" {
		return DefaultContent(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	c := DefaultContent()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	return c, nil
}

// DefaultContent returns the built-in challenge set.
func DefaultContent() *Content {
	return &Content{
		Grid: GridMap{
			Width:  7,
			Height: 5,
			Walls: []Cell{
				{X: 3, Y: 0}, {X: 3, Y: 1}, {X: 3, Y: 3}, {X: 3, Y: 4},
			},
			Starts: map[string]Cell{
				"scout":    {X: 0, Y: 1},
				"engineer": {X: 0, Y: 3},
			},
			Targets: map[string]Cell{
				"scout":    {X: 6, Y: 1},
				"engineer": {X: 6, Y: 3},
			},
		},
		Trivia: TriviaContent{
			TargetScore: 5,
			Questions: []Question{
				{
					Text:    "Which planet is known as the Red Planet?",
					Correct: "Mars",
					Wrong: []string{
						"Venus", "Jupiter", "Mercury", "Saturn", "Neptune",
						"Uranus", "Pluto", "Titan", "Europa", "Ceres", "Io",
					},
				},
				{
					Text:    "What gas do plants absorb from the atmosphere?",
					Correct: "Carbon dioxide",
					Wrong: []string{
						"Oxygen", "Nitrogen", "Hydrogen", "Helium", "Methane",
						"Argon", "Ozone", "Neon", "Ammonia", "Radon", "Xenon",
					},
				},
				{
					Text:    "How many sides does a hexagon have?",
					Correct: "6",
					Wrong: []string{
						"3", "4", "5", "7", "8", "9", "10", "12", "16", "20", "2",
					},
				},
				{
					Text:    "Which ocean is the largest?",
					Correct: "Pacific",
					Wrong: []string{
						"Atlantic", "Indian", "Arctic", "Southern", "Baltic",
						"Caribbean", "Mediterranean", "Caspian", "Black",
						"Coral", "Bering",
					},
				},
				{
					Text:    "What is the chemical symbol for gold?",
					Correct: "Au",
					Wrong: []string{
						"Ag", "Gd", "Go", "Fe", "Pb", "Pt", "Cu", "Sn", "Hg",
						"Al", "Zn",
					},
				},
				{
					Text:    "Which instrument has 88 keys?",
					Correct: "Piano",
					Wrong: []string{
						"Organ", "Accordion", "Harpsichord", "Xylophone",
						"Harp", "Guitar", "Violin", "Cello", "Marimba",
						"Clavichord", "Banjo",
					},
				},
			},
		},
		Machine: []Control{
			{
				Name: "main_switch", Owner: "captain",
				Options: []string{"off", "standby", "on"}, Target: "on",
			},
			{
				Name: "pressure_valve", Owner: "engineer",
				Numeric: true, Min: 0, Max: 10, Target: "7",
			},
			{
				Name: "fuel_mix", Owner: "engineer",
				Options: []string{"lean", "balanced", "rich"}, Target: "balanced",
			},
			{
				Name: "antenna_bearing", Owner: "navigator",
				Numeric: true, Min: 0, Max: 359, Target: "145",
			},
			{
				Name: "coolant_loop", Owner: "gunner",
				Options: []string{"closed", "primary", "secondary"}, Target: "primary",
			},
		},
		Cipher: []CipherRole{
			{
				Role: "captain", Clue: "The first glyph burns like the sun.",
				Domain: []string{"sun", "moon", "star", "comet"}, Target: "sun",
			},
			{
				Role: "engineer", Clue: "The second glyph turns with the tide.",
				Domain: []string{"wave", "stone", "flame", "wind"}, Target: "wave",
			},
			{
				Role: "navigator", Clue: "The third glyph points north.",
				Domain: []string{"north", "south", "east", "west"}, Target: "north",
			},
			{
				Role: "gunner", Clue: "The fourth glyph is the hunter's mark.",
				Domain: []string{"wolf", "bear", "hawk", "fox"}, Target: "hawk",
			},
			{
				Role: "medic", Clue: "The fifth glyph heals all wounds.",
				Domain: []string{"leaf", "root", "blossom", "thorn"}, Target: "leaf",
			},
		},
	}
}
