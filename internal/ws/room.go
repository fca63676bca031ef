package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"crewquest/internal/game"
	"crewquest/internal/logger"
)

type State string

const (
	StateWaiting  State = "waiting"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// completionDelay is how long after a finish the completion signal is
// broadcast, giving clients a beat to render the final state first.
const completionDelay = time.Second

// Participant is one admitted connection's standing in the room.
// Inputs is the grid move sequence submitted with readiness; both are
// transient and wiped by every reset.
type Participant struct {
	client *Client
	Role   string
	Ready  bool
	Inputs []string
}

// Room is one isolated session. All mutation happens under mu, which
// serializes simultaneous submissions into arrival order; rooms never
// touch each other's state.
type Room struct {
	Key      string
	GameType game.Type
	Required int

	mu      sync.Mutex
	state   State
	closed  bool
	players map[string]*Participant
	engine  game.Engine

	content *game.Content
	rng     *rand.Rand
	hub     *Hub

	completionTimer *time.Timer
}

func newRoom(hub *Hub, key string, gameType game.Type, required int, content *game.Content, rng *rand.Rand) *Room {
	r := &Room{
		Key:      key,
		GameType: gameType,
		Required: required,
		state:    StateWaiting,
		players:  make(map[string]*Participant),
		content:  content,
		rng:      rng,
		hub:      hub,
	}
	r.rebuildEngineLocked()
	return r
}

// Admit adds a connection to the room. It either fully admits the
// participant or changes nothing; the caller closes the connection on
// error. The participant is in the player set before any game
// initialization runs, so distribution logic sees the full roster.
func (r *Room) Admit(c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("room %s is gone", r.Key)
	}
	if len(r.players) >= r.Required {
		return fmt.Errorf("room %s is full", r.Key)
	}
	if r.GameType == game.TypeGrid {
		if _, ok := r.content.Grid.Starts[c.Role]; !ok {
			return fmt.Errorf("no starting slot for role %q", c.Role)
		}
	}
	for _, p := range r.players {
		if p.Role == c.Role {
			return fmt.Errorf("role %q is already taken", c.Role)
		}
	}

	r.players[c.ID] = &Participant{client: c, Role: c.Role}
	logger.Info("participant joined", "room", r.Key, "role", c.Role, "players", len(r.players))

	if r.state != StateWaiting {
		// A join mid-session invalidates in-flight distribution state.
		r.resetLocked(c.Role + " joined mid-session")
		return nil
	}
	if r.GameType != game.TypeGrid && len(r.players) == r.Required {
		r.startLocked()
		return nil
	}
	r.rebuildEngineLocked()
	r.broadcastStateLocked()
	return nil
}

// Remove detaches a connection. An empty room is destroyed; a room
// left mid-play or finished is force-reset because stale per-player
// state cannot be reused once the participant set changed.
func (r *Room) Remove(c *Client) {
	r.mu.Lock()
	p, ok := r.players[c.ID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.players, c.ID)
	logger.Info("participant left", "room", r.Key, "role", p.Role, "players", len(r.players))

	if len(r.players) == 0 {
		r.closed = true
		r.mu.Unlock()
		r.hub.dropRoom(r.Key)
		return
	}

	if r.state != StateWaiting {
		r.resetLocked(p.Role + " left the room")
	} else {
		r.rebuildEngineLocked()
		r.broadcastStateLocked()
	}
	r.mu.Unlock()
}

// HandleMessage applies one inbound client message. Validation
// failures are reported to the sender only and leave room state
// untouched; an action arriving for a state that no longer accepts it
// is rejected the same way (last valid state wins).
func (r *Room) HandleMessage(c *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.enqueue(Message{Type: MsgError, Payload: ErrorPayload{Message: "malformed message"}})
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[c.ID]
	if !ok {
		return
	}

	switch msg.Type {
	case MsgReady:
		r.handleReadyLocked(p, msg.Inputs)
	case MsgAnswer:
		r.handleActionLocked(p, game.Action{Kind: game.ActionAnswer, Answer: msg.Answer})
	case MsgComponent:
		r.handleActionLocked(p, game.Action{Kind: game.ActionComponent, Component: msg.Component, Value: msg.Value})
	case MsgConfigure:
		r.handleActionLocked(p, game.Action{Kind: game.ActionConfigure, Value: msg.Value})
	case MsgReset:
		r.resetLocked("reset requested by " + p.Role)
	default:
		r.rejectLocked(p, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// handleReadyLocked stores a grid participant's move sequence and
// marks them ready. The round starts once the room is full and every
// participant is ready.
func (r *Room) handleReadyLocked(p *Participant, inputs []string) {
	if r.GameType != game.TypeGrid {
		r.rejectLocked(p, "readiness is a maze room action")
		return
	}
	if r.state != StateWaiting {
		r.rejectLocked(p, "the room is not collecting moves right now")
		return
	}
	if _, err := r.engine.Apply(p.Role, game.Action{Kind: game.ActionReady, Inputs: inputs}); err != nil {
		r.rejectLocked(p, err.Error())
		return
	}

	p.Inputs = append([]string(nil), inputs...)
	p.Ready = true

	if len(r.players) == r.Required && r.allReadyLocked() {
		r.state = StatePlaying
		r.broadcastStateLocked()
		r.resolveGridLocked()
		return
	}
	r.broadcastStateLocked()
}

func (r *Room) allReadyLocked() bool {
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// resolveGridLocked runs the simulation over everyone's submitted
// inputs and settles the round.
func (r *Room) resolveGridLocked() {
	all := make(map[string][]string, len(r.players))
	for _, p := range r.players {
		all[p.Role] = p.Inputs
	}

	out, err := r.engine.Apply("", game.Action{Kind: game.ActionResolve, AllInputs: all})
	if err != nil || out == nil {
		logger.Error("grid resolve failed", "room", r.Key, "error", err)
		r.resetLocked("internal error, round restarted")
		return
	}

	success := out.Verdict == game.VerdictSuccess
	r.broadcastLocked(Message{Type: MsgRound, Payload: RoundPayload{
		Success: success,
		Reason:  out.Reason,
		Detail:  out.Detail,
	}})

	if success {
		r.finishLocked(out.Reason)
	} else {
		roundsResolved.WithLabelValues(string(r.GameType), "restart").Inc()
		r.resetLocked(out.Reason)
	}
}

// handleActionLocked routes a playing-phase action to the engine.
func (r *Room) handleActionLocked(p *Participant, act game.Action) {
	if r.state != StatePlaying {
		r.rejectLocked(p, "the room is not in play")
		return
	}

	out, err := r.engine.Apply(p.Role, act)
	if err != nil {
		var rej *game.RejectError
		if errors.As(err, &rej) {
			r.rejectLocked(p, rej.Msg)
		} else {
			r.rejectLocked(p, "action failed")
		}
		return
	}
	if out == nil {
		r.broadcastStateLocked()
		return
	}

	switch out.Verdict {
	case game.VerdictSuccess:
		r.broadcastStateLocked()
		r.finishLocked(out.Reason)
	case game.VerdictRestart:
		roundsResolved.WithLabelValues(string(r.GameType), "restart").Inc()
		r.resetLocked(out.Reason)
	default:
		r.broadcastStateLocked()
	}
}

// startLocked begins play for a freshly filled room.
func (r *Room) startLocked() {
	r.rebuildEngineLocked()
	r.state = StatePlaying
	r.engine.Start()
	logger.Info("room started", "room", r.Key, "game", r.GameType)
	r.broadcastStateLocked()
}

// finishLocked ends the challenge: record it for progression and
// schedule the single completion signal.
func (r *Room) finishLocked(reason string) {
	r.state = StateFinished
	roundsResolved.WithLabelValues(string(r.GameType), "success").Inc()
	logger.Info("room finished", "room", r.Key, "game", r.GameType, "reason", reason)
	r.broadcastStateLocked()

	r.hub.recordCompletion(r.Key, r.GameType, r.rolesLocked())

	msg := fmt.Sprintf("challenge %s complete", r.Key)
	r.completionTimer = time.AfterFunc(completionDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.broadcastLocked(Message{Type: MsgComplete, Payload: CompletePayload{Message: msg}})
	})
}

// resetLocked is total: any state goes back to waiting with fresh game
// data and cleared per-player transients. Its notice doubles as the
// post-reset broadcast, carrying each recipient's new snapshot.
func (r *Room) resetLocked(reason string) {
	r.state = StateWaiting
	for _, p := range r.players {
		p.Ready = false
		p.Inputs = nil
	}
	r.rebuildEngineLocked()
	logger.Info("room reset", "room", r.Key, "reason", reason)

	for _, p := range r.players {
		p.client.enqueue(Message{Type: MsgResetNotice, Payload: ResetPayload{
			Reason: reason,
			State:  r.snapshotLocked(p.Role),
		}})
	}

	// Non-grid rooms restart immediately when still full.
	if r.GameType != game.TypeGrid && len(r.players) == r.Required {
		r.startLocked()
	}
}

func (r *Room) rebuildEngineLocked() {
	engine, err := game.New(r.GameType, r.content, r.rolesLocked(), r.rng)
	if err != nil {
		// Game types are validated at the gateway; this cannot happen
		// for an admitted room.
		logger.Error("rebuild engine", "room", r.Key, "error", err)
		return
	}
	r.engine = engine
}

func (r *Room) rolesLocked() []string {
	roles := make([]string, 0, len(r.players))
	for _, p := range r.players {
		roles = append(roles, p.Role)
	}
	sort.Strings(roles)
	return roles
}

// rejectLocked reports a validation failure to one participant only.
func (r *Room) rejectLocked(p *Participant, msg string) {
	p.client.enqueue(Message{Type: MsgError, Payload: ErrorPayload{Message: msg}})
}

func (r *Room) snapshotLocked(role string) StatePayload {
	players := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerInfo{Role: p.Role, Ready: p.Ready})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Role < players[j].Role })

	return StatePayload{
		Room:     r.Key,
		Game:     string(r.GameType),
		State:    string(r.state),
		Required: r.Required,
		Players:  players,
		Data:     r.engine.View(role),
	}
}

// broadcastStateLocked pushes each participant their own snapshot.
// Delivery is fire-and-forget: one slow connection never blocks the
// rest or the room.
func (r *Room) broadcastStateLocked() {
	for _, p := range r.players {
		p.client.enqueue(Message{Type: MsgState, Payload: r.snapshotLocked(p.Role)})
	}
}

func (r *Room) broadcastLocked(msg Message) {
	for _, p := range r.players {
		p.client.enqueue(msg)
	}
}

// State returns the room's current lifecycle state.
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Players lists current participants sorted by role.
func (r *Room) Players() []PlayerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	players := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerInfo{Role: p.Role, Ready: p.Ready})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Role < players[j].Role })
	return players
}
