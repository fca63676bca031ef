package ws

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"crewquest/internal/game"
	"crewquest/internal/logger"
)

// CompletionRecorder is the hook the progression collaborator hangs
// off the engine: called once per room that reaches finished.
type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, roomKey, gameType string, roles []string) error
}

// Hub is the process-wide room registry. Rooms are created lazily on
// first join and dropped the moment their last participant leaves.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	content    *game.Content
	sizes      map[string]int
	maxPlayers int

	completions CompletionRecorder

	// Seed, when non-zero, makes every room's rng deterministic.
	// Tests use it; production leaves it at zero for time seeding.
	Seed int64
}

func NewHub(content *game.Content, sizes map[string]int, maxPlayers int) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		content:    content,
		sizes:      sizes,
		maxPlayers: maxPlayers,
	}
}

// SetCompletionRecorder attaches the optional progression hook.
func (h *Hub) SetCompletionRecorder(cr CompletionRecorder) {
	h.completions = cr
}

// JoinRoom admits the client into the room for key, creating it if
// this is the first reference. The caller must close the connection on
// error; nothing is ever partially admitted.
func (h *Hub) JoinRoom(key string, gameType game.Type, c *Client) (*Room, error) {
	key = truncate(strings.TrimSpace(key), maxRoomKeyLen)
	if key == "" {
		joinsRejected.WithLabelValues("key").Inc()
		return nil, fmt.Errorf("room key required")
	}

	h.mu.Lock()
	room, ok := h.rooms[key]
	if !ok {
		room = newRoom(h, key, gameType, h.requiredPlayers(key), h.content, h.newRand())
		h.rooms[key] = room
		roomsActive.Inc()
		logger.Info("room created", "room", key, "game", gameType, "required", room.Required)
	}
	h.mu.Unlock()

	if room.GameType != gameType {
		joinsRejected.WithLabelValues("game").Inc()
		return nil, fmt.Errorf("room %s is a %s room", key, room.GameType)
	}

	if err := room.Admit(c); err != nil {
		joinsRejected.WithLabelValues("admission").Inc()
		h.dropIfEmpty(key)
		return nil, err
	}
	return room, nil
}

// requiredPlayers resolves the player count for a room key by longest
// matching prefix, falling back to the global maximum.
func (h *Hub) requiredPlayers(key string) int {
	best, bestLen := h.maxPlayers, -1
	for prefix, n := range h.sizes {
		if strings.HasPrefix(key, prefix) && len(prefix) > bestLen {
			best, bestLen = n, len(prefix)
		}
	}
	return best
}

func (h *Hub) newRand() *rand.Rand {
	seed := h.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// dropRoom removes an emptied room from the registry.
func (h *Hub) dropRoom(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[key]; ok {
		delete(h.rooms, key)
		roomsActive.Dec()
		logger.Info("room destroyed", "room", key)
	}
}

// dropIfEmpty reaps a room that a failed admission may have left with
// no participants.
func (h *Hub) dropIfEmpty(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[key]; ok && room.PlayerCount() == 0 {
		delete(h.rooms, key)
		roomsActive.Dec()
	}
}

func (h *Hub) recordCompletion(roomKey string, gameType game.Type, roles []string) {
	if h.completions == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.completions.RecordCompletion(ctx, roomKey, string(gameType), roles); err != nil {
			logger.Error("record completion", "room", roomKey, "error", err)
		}
	}()
}

// Stats summarizes the registry for the /rooms endpoint.
func (h *Hub) Stats() map[string]any {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	byGame := make(map[string]int)
	byState := make(map[string]int)
	players := 0
	for _, r := range rooms {
		byGame[string(r.GameType)]++
		byState[string(r.State())]++
		players += r.PlayerCount()
	}

	return map[string]any{
		"rooms":    len(rooms),
		"players":  players,
		"by_game":  byGame,
		"by_state": byState,
	}
}
