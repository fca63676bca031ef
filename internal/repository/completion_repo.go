package repository

import (
	"context"
	"time"

	"crewquest/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CompletionRepository records challenge completions for the
// progression system. The coordination engine calls it once per room
// transition to finished; everything else about progression lives
// outside this service.
type CompletionRepository struct {
	db *pgxpool.Pool
}

func NewCompletionRepository(db *pgxpool.Pool) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) RecordCompletion(ctx context.Context, roomKey, gameType string, roles []string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO completions (room_key, game_type, roles)
		 VALUES ($1, $2, $3)`,
		roomKey, gameType, roles,
	)
	return err
}

// Recent returns the latest completions, newest first.
func (r *CompletionRepository) Recent(ctx context.Context, limit int) ([]*domain.Completion, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, room_key, game_type, roles, created_at
		 FROM completions
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Completion
	for rows.Next() {
		var (
			c     domain.Completion
			at    time.Time
			roles []string
		)
		if err := rows.Scan(&c.ID, &c.RoomKey, &c.GameType, &roles, &at); err != nil {
			return nil, err
		}
		c.Roles = roles
		c.CreatedAt = at
		res = append(res, &c)
	}
	return res, rows.Err()
}
