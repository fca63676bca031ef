package domain

import "time"

// Completion is the record handed to the progression collaborator when
// a room finishes its challenge.
type Completion struct {
	ID        int64
	RoomKey   string
	GameType  string
	Roles     []string
	CreatedAt time.Time
}
