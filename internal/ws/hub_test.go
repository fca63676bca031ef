package ws

import (
	"context"
	"strings"
	"testing"
	"time"

	"crewquest/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredPlayersLongestPrefixWins(t *testing.T) {
	h := NewHub(testContent(), map[string]int{"maze": 2, "maze-big": 4}, 5)

	assert.Equal(t, 2, h.requiredPlayers("maze-1"))
	assert.Equal(t, 4, h.requiredPlayers("maze-big-7"))
	assert.Equal(t, 5, h.requiredPlayers("uncharted"), "unknown keys fall back to the maximum")
}

func TestJoinRoomNormalizesKey(t *testing.T) {
	h := newTestHub()

	room, _ := join(t, h, "  maze-pad  ", game.TypeGrid, "scout")
	assert.Equal(t, "maze-pad", room.Key)

	long := "duo-" + strings.Repeat("x", 100)
	room2, _ := join(t, h, long, game.TypeCipher, "alpha")
	assert.Len(t, room2.Key, maxRoomKeyLen)
}

func TestJoinRoomEmptyKeyRejected(t *testing.T) {
	h := newTestHub()

	c := NewClient("user-x", "scout", nil)
	_, err := h.JoinRoom("   ", game.TypeGrid, c)
	require.Error(t, err)
}

func TestFailedFirstJoinLeavesNoRoomBehind(t *testing.T) {
	h := newTestHub()

	// A grid join with no start slot fails admission on a room that was
	// created for it; the empty shell must not linger.
	c := NewClient("user-x", "stowaway", nil)
	_, err := h.JoinRoom("maze-ghost", game.TypeGrid, c)
	require.Error(t, err)
	assert.Equal(t, 0, h.Stats()["rooms"])
}

func TestStats(t *testing.T) {
	h := newTestHub()
	join(t, h, "maze-s1", game.TypeGrid, "scout")
	join(t, h, "duo-s1", game.TypeCipher, "alpha")
	join(t, h, "duo-s1", game.TypeCipher, "bravo")

	stats := h.Stats()
	assert.Equal(t, 2, stats["rooms"])
	assert.Equal(t, 3, stats["players"])

	byGame := stats["by_game"].(map[string]int)
	assert.Equal(t, 1, byGame["grid"])
	assert.Equal(t, 1, byGame["cipher"])

	byState := stats["by_state"].(map[string]int)
	assert.Equal(t, 1, byState["waiting"])
	assert.Equal(t, 1, byState["playing"])
}

type recordedCompletion struct {
	roomKey  string
	gameType string
	roles    []string
}

type fakeRecorder struct {
	ch chan recordedCompletion
}

func (f *fakeRecorder) RecordCompletion(_ context.Context, roomKey, gameType string, roles []string) error {
	f.ch <- recordedCompletion{roomKey: roomKey, gameType: gameType, roles: roles}
	return nil
}

func TestCompletionRecorded(t *testing.T) {
	h := newTestHub()
	rec := &fakeRecorder{ch: make(chan recordedCompletion, 1)}
	h.SetCompletionRecorder(rec)

	room, alpha := join(t, h, "duo-rec", game.TypeCipher, "alpha")
	_, bravo := join(t, h, "duo-rec", game.TypeCipher, "bravo")
	send(t, room, alpha, map[string]any{"type": "configure", "value": "red"})
	send(t, room, bravo, map[string]any{"type": "configure", "value": "blue"})
	require.Equal(t, StateFinished, room.State())

	select {
	case got := <-rec.ch:
		assert.Equal(t, "duo-rec", got.roomKey)
		assert.Equal(t, "cipher", got.gameType)
		assert.Equal(t, []string{"alpha", "bravo"}, got.roles)
	case <-time.After(2 * time.Second):
		t.Fatal("completion was never recorded")
	}
}

func TestSeededRoomsAreDeterministic(t *testing.T) {
	dealFor := func() []string {
		h := newTestHub()
		room, a := join(t, h, "trio-seed", game.TypeTrivia, "alpha")
		join(t, h, "trio-seed", game.TypeTrivia, "bravo")
		join(t, h, "trio-seed", game.TypeTrivia, "charlie")
		require.Equal(t, StatePlaying, room.State())

		st := lastState(t, drain(t, a))
		raw := st.Data["options"].([]any)
		opts := make([]string, 0, len(raw))
		for _, o := range raw {
			opts = append(opts, o.(string))
		}
		return opts
	}

	assert.Equal(t, dealFor(), dealFor(), "a fixed seed must reproduce the deal")
}
