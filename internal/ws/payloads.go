package ws

// client → server
type clientMessage struct {
	Type      string   `json:"type"`
	Inputs    []string `json:"inputs,omitempty"`
	Answer    string   `json:"answer,omitempty"`
	Component string   `json:"component,omitempty"`
	Value     any      `json:"value,omitempty"`
}

// server → client
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type PlayerInfo struct {
	Role  string `json:"role"`
	Ready bool   `json:"ready"`
}

// StatePayload is the regular room snapshot. Data is per-recipient for
// trivia and cipher rooms, shared for the rest.
type StatePayload struct {
	Room     string         `json:"room"`
	Game     string         `json:"game"`
	State    string         `json:"state"`
	Required int            `json:"required"`
	Players  []PlayerInfo   `json:"players"`
	Data     map[string]any `json:"data"`
}

type ResetPayload struct {
	Reason string       `json:"reason"`
	State  StatePayload `json:"state"`
}

type RoundPayload struct {
	Success bool           `json:"success"`
	Reason  string         `json:"reason"`
	Detail  map[string]any `json:"detail,omitempty"`
}

type CompletePayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
