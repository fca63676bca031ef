package ws

import (
	"encoding/json"
	"testing"
	"time"

	"crewquest/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContent keeps the non-grid challenges small enough to drive to
// completion from a test. The maze is the built-in one.
func testContent() *game.Content {
	c := game.DefaultContent()
	c.Trivia = game.TriviaContent{
		TargetScore: 2,
		Questions: []game.Question{
			{
				Text:    "pick a",
				Correct: "a",
				Wrong:   []string{"b", "c", "d", "e", "f", "g", "h"},
			},
		},
	}
	c.Machine = []game.Control{
		{Name: "dial", Owner: "alpha", Numeric: true, Min: 0, Max: 9, Target: "3"},
		{Name: "lever", Owner: "bravo", Options: []string{"up", "down"}, Target: "down"},
	}
	c.Cipher = []game.CipherRole{
		{Role: "alpha", Clue: "think warm", Domain: []string{"red", "blue", "green"}, Target: "red"},
		{Role: "bravo", Clue: "think cold", Domain: []string{"red", "blue", "green"}, Target: "blue"},
	}
	return c
}

func newTestHub() *Hub {
	h := NewHub(testContent(), map[string]int{"maze": 2, "duo": 2, "trio": 3}, 5)
	h.Seed = 1
	return h
}

func join(t *testing.T, h *Hub, key string, gt game.Type, role string) (*Room, *Client) {
	t.Helper()
	c := NewClient("user-"+role, role, nil)
	room, err := h.JoinRoom(key, gt, c)
	require.NoError(t, err)
	return room, c
}

func send(t *testing.T, r *Room, c *Client, msg map[string]any) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	r.HandleMessage(c, raw)
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// drain empties the client's queue without blocking.
func drain(t *testing.T, c *Client) []envelope {
	t.Helper()
	var out []envelope
	for {
		select {
		case raw := <-c.Send:
			var env envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

// waitFor blocks until a message of the wanted type arrives.
func waitFor(t *testing.T, c *Client, typ string) envelope {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case raw := <-c.Send:
			var env envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			if env.Type == typ {
				return env
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", typ)
		}
	}
}

func findType(msgs []envelope, typ string) (envelope, bool) {
	for _, m := range msgs {
		if m.Type == typ {
			return m, true
		}
	}
	return envelope{}, false
}

func lastState(t *testing.T, msgs []envelope) StatePayload {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == MsgState {
			var st StatePayload
			require.NoError(t, json.Unmarshal(msgs[i].Payload, &st))
			return st
		}
	}
	t.Fatal("no state message found")
	return StatePayload{}
}

func TestGridRoomFullCycle(t *testing.T) {
	h := newTestHub()
	room, scout := join(t, h, "maze-1", game.TypeGrid, "scout")
	_, eng := join(t, h, "maze-1", game.TypeGrid, "engineer")

	assert.Equal(t, StateWaiting, room.State())

	send(t, room, scout, map[string]any{
		"type":   "ready",
		"inputs": []string{"right", "right", "down", "right", "right", "up", "right", "right"},
	})
	assert.Equal(t, StateWaiting, room.State())

	send(t, room, eng, map[string]any{
		"type":   "ready",
		"inputs": []string{"stay", "stay", "right", "right", "up", "right", "right", "down", "right", "right"},
	})

	assert.Equal(t, StateFinished, room.State())

	for _, c := range []*Client{scout, eng} {
		msgs := drain(t, c)
		round, ok := findType(msgs, MsgRound)
		require.True(t, ok)
		var rp RoundPayload
		require.NoError(t, json.Unmarshal(round.Payload, &rp))
		assert.True(t, rp.Success)
	}

	// The completion signal arrives once, after a short delay.
	env := waitFor(t, scout, MsgComplete)
	var cp CompletePayload
	require.NoError(t, json.Unmarshal(env.Payload, &cp))
	assert.Contains(t, cp.Message, "maze-1")
	waitFor(t, eng, MsgComplete)
}

func TestGridCollisionRestartsRound(t *testing.T) {
	h := newTestHub()
	room, scout := join(t, h, "maze-2", game.TypeGrid, "scout")
	_, eng := join(t, h, "maze-2", game.TypeGrid, "engineer")

	send(t, room, scout, map[string]any{"type": "ready", "inputs": []string{"down"}})
	send(t, room, eng, map[string]any{"type": "ready", "inputs": []string{"up"}})

	assert.Equal(t, StateWaiting, room.State())
	for _, p := range room.Players() {
		assert.False(t, p.Ready)
	}

	msgs := drain(t, scout)
	round, ok := findType(msgs, MsgRound)
	require.True(t, ok)
	var rp RoundPayload
	require.NoError(t, json.Unmarshal(round.Payload, &rp))
	assert.False(t, rp.Success)
	assert.Contains(t, rp.Reason, "crashed")

	_, ok = findType(msgs, MsgResetNotice)
	assert.True(t, ok, "a failed round must announce the reset")
}

func TestGridReadyRejectionGoesToSenderOnly(t *testing.T) {
	h := newTestHub()
	room, scout := join(t, h, "maze-3", game.TypeGrid, "scout")
	_, eng := join(t, h, "maze-3", game.TypeGrid, "engineer")
	drain(t, scout)
	drain(t, eng)

	send(t, room, scout, map[string]any{"type": "ready", "inputs": []string{"sideways"}})

	_, ok := findType(drain(t, scout), MsgError)
	assert.True(t, ok)
	_, ok = findType(drain(t, eng), MsgError)
	assert.False(t, ok, "the rest of the room must not see the rejection")

	assert.Equal(t, StateWaiting, room.State())
	for _, p := range room.Players() {
		assert.False(t, p.Ready)
	}
}

func TestCipherRoomAutoStartAndConvergence(t *testing.T) {
	h := newTestHub()
	room, alpha := join(t, h, "duo-vault", game.TypeCipher, "alpha")
	assert.Equal(t, StateWaiting, room.State())

	_, bravo := join(t, h, "duo-vault", game.TypeCipher, "bravo")
	assert.Equal(t, StatePlaying, room.State(), "non-maze rooms start the moment they fill")

	send(t, room, alpha, map[string]any{"type": "configure", "value": "red"})
	assert.Equal(t, StatePlaying, room.State(), "one glyph short must not open the lock")

	send(t, room, bravo, map[string]any{"type": "configure", "value": "blue"})
	assert.Equal(t, StateFinished, room.State())

	waitFor(t, alpha, MsgComplete)
	waitFor(t, bravo, MsgComplete)
}

func TestFullRoomRejectsWithoutMutation(t *testing.T) {
	h := newTestHub()
	room, _ := join(t, h, "duo-full", game.TypeCipher, "alpha")
	join(t, h, "duo-full", game.TypeCipher, "bravo")
	require.Equal(t, StatePlaying, room.State())

	late := NewClient("user-late", "gamma", nil)
	_, err := h.JoinRoom("duo-full", game.TypeCipher, late)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "full")

	assert.Equal(t, StatePlaying, room.State())
	assert.Equal(t, 2, room.PlayerCount())
}

func TestDuplicateRoleRejected(t *testing.T) {
	h := newTestHub()
	room, _ := join(t, h, "maze-4", game.TypeGrid, "scout")

	dup := NewClient("user-dup", "scout", nil)
	_, err := h.JoinRoom("maze-4", game.TypeGrid, dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
	assert.Equal(t, 1, room.PlayerCount())
}

func TestGridRoleNeedsStartSlot(t *testing.T) {
	h := newTestHub()
	c := NewClient("user-x", "stowaway", nil)
	_, err := h.JoinRoom("maze-5", game.TypeGrid, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting slot")
}

func TestGameTypeMismatchRejected(t *testing.T) {
	h := newTestHub()
	join(t, h, "duo-mix", game.TypeCipher, "alpha")

	c := NewClient("user-x", "bravo", nil)
	_, err := h.JoinRoom("duo-mix", game.TypeMachine, c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cipher room")
}

func TestLeaveMidPlayForcesReset(t *testing.T) {
	h := newTestHub()
	room, a := join(t, h, "trio-quiz", game.TypeTrivia, "alpha")
	_, b := join(t, h, "trio-quiz", game.TypeTrivia, "bravo")
	_, c := join(t, h, "trio-quiz", game.TypeTrivia, "charlie")
	require.Equal(t, StatePlaying, room.State())
	drain(t, a)
	drain(t, b)

	room.Remove(c)

	assert.Equal(t, StateWaiting, room.State())
	assert.Equal(t, 2, room.PlayerCount())

	for _, cl := range []*Client{a, b} {
		env, ok := findType(drain(t, cl), MsgResetNotice)
		require.True(t, ok)
		var rp ResetPayload
		require.NoError(t, json.Unmarshal(env.Payload, &rp))
		assert.Contains(t, rp.Reason, "left the room")
		assert.Equal(t, "waiting", rp.State.State)
	}
}

func TestLastLeaveDestroysRoom(t *testing.T) {
	h := newTestHub()
	room, scout := join(t, h, "maze-6", game.TypeGrid, "scout")

	room.Remove(scout)

	stats := h.Stats()
	assert.Equal(t, 0, stats["rooms"])

	// The key is free for a brand new session.
	fresh, again := join(t, h, "maze-6", game.TypeGrid, "scout")
	assert.NotSame(t, room, fresh)
	assert.Equal(t, 1, fresh.PlayerCount())
	drain(t, again)
}

func TestStaleRoomPointerRejectsAdmission(t *testing.T) {
	h := newTestHub()
	room, scout := join(t, h, "maze-7", game.TypeGrid, "scout")
	room.Remove(scout)

	// A joiner racing the teardown holds the dead room's pointer.
	late := NewClient("user-late", "engineer", nil)
	err := room.Admit(late)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone")
}

func TestExplicitResetRequest(t *testing.T) {
	h := newTestHub()
	room, scout := join(t, h, "maze-8", game.TypeGrid, "scout")
	send(t, room, scout, map[string]any{
		"type":   "ready",
		"inputs": []string{"right"},
	})
	drain(t, scout)

	send(t, room, scout, map[string]any{"type": "reset"})

	env, ok := findType(drain(t, scout), MsgResetNotice)
	require.True(t, ok)
	var rp ResetPayload
	require.NoError(t, json.Unmarshal(env.Payload, &rp))
	assert.Contains(t, rp.Reason, "reset requested by scout")

	for _, p := range room.Players() {
		assert.False(t, p.Ready)
	}
}

func TestMalformedMessageReportsToSender(t *testing.T) {
	h := newTestHub()
	room, scout := join(t, h, "maze-9", game.TypeGrid, "scout")
	drain(t, scout)

	room.HandleMessage(scout, []byte("{not json"))

	env, ok := findType(drain(t, scout), MsgError)
	require.True(t, ok)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &ep))
	assert.Equal(t, "malformed message", ep.Message)
}

func TestActionOutsidePlayRejected(t *testing.T) {
	h := newTestHub()
	room, alpha := join(t, h, "duo-early", game.TypeCipher, "alpha")
	drain(t, alpha)

	send(t, room, alpha, map[string]any{"type": "configure", "value": "red"})

	env, ok := findType(drain(t, alpha), MsgError)
	require.True(t, ok)
	var ep ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &ep))
	assert.Contains(t, ep.Message, "not in play")
	assert.Equal(t, StateWaiting, room.State())
}

func TestTriviaRoomScoreEconomy(t *testing.T) {
	h := newTestHub()
	room, a := join(t, h, "trio-score", game.TypeTrivia, "alpha")
	_, b := join(t, h, "trio-score", game.TypeTrivia, "bravo")
	join(t, h, "trio-score", game.TypeTrivia, "charlie")
	require.Equal(t, StatePlaying, room.State())
	drain(t, a)
	drain(t, b)

	send(t, room, a, map[string]any{"type": "answer", "answer": "a"})
	st := lastState(t, drain(t, b))
	assert.EqualValues(t, 1, st.Data["score"])

	// One wrong answer wipes the shared score but keeps play going.
	send(t, room, b, map[string]any{"type": "answer", "answer": "zz"})
	st = lastState(t, drain(t, a))
	assert.EqualValues(t, 0, st.Data["score"])
	assert.Equal(t, StatePlaying, room.State())

	send(t, room, a, map[string]any{"type": "answer", "answer": "a"})
	send(t, room, b, map[string]any{"type": "answer", "answer": "a"})
	assert.Equal(t, StateFinished, room.State())
	waitFor(t, a, MsgComplete)
}

func TestMachineRoomFlow(t *testing.T) {
	h := newTestHub()
	room, alpha := join(t, h, "duo-machine", game.TypeMachine, "alpha")
	_, bravo := join(t, h, "duo-machine", game.TypeMachine, "bravo")
	require.Equal(t, StatePlaying, room.State())
	drain(t, alpha)
	drain(t, bravo)

	// A premature attempt names the first control that is off target.
	send(t, room, bravo, map[string]any{"type": "component", "component": "attempt"})
	st := lastState(t, drain(t, alpha))
	assert.Contains(t, st.Data["last_status"], "dial")
	assert.Equal(t, StatePlaying, room.State())

	// Controls obey their owners.
	send(t, room, bravo, map[string]any{"type": "component", "component": "dial", "value": 3})
	_, ok := findType(drain(t, bravo), MsgError)
	assert.True(t, ok)

	send(t, room, alpha, map[string]any{"type": "component", "component": "dial", "value": 3})
	send(t, room, bravo, map[string]any{"type": "component", "component": "lever", "value": "down"})
	send(t, room, bravo, map[string]any{"type": "component", "component": "attempt"})

	assert.Equal(t, StateFinished, room.State())
	waitFor(t, bravo, MsgComplete)
}

func TestMidSessionJoinForcesReset(t *testing.T) {
	h := newTestHub()
	room, scout := join(t, h, "maze-mid", game.TypeGrid, "scout")
	drain(t, scout)

	room.mu.Lock()
	room.state = StatePlaying
	room.mu.Unlock()

	_, eng := join(t, h, "maze-mid", game.TypeGrid, "engineer")

	assert.Equal(t, StateWaiting, room.State())
	for _, c := range []*Client{scout, eng} {
		env, ok := findType(drain(t, c), MsgResetNotice)
		require.True(t, ok)
		var rp ResetPayload
		require.NoError(t, json.Unmarshal(env.Payload, &rp))
		assert.Contains(t, rp.Reason, "joined mid-session")
	}
}
