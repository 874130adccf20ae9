package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"werewolf-service/domain"
)

func (r *Repository) CreateEvent(ctx context.Context, event *domain.GameEvent) error {
	var data []byte
	if event.Data != nil {
		var err error
		data, err = json.Marshal(event.Data)
		if err != nil {
			return mapError(err, "event data")
		}
	}
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO game_events (id, room_id, event_type, day_number, data, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		event.ID, event.RoomID, event.EventType, event.DayNumber, data, event.CreatedAt)
	if err != nil {
		return mapError(err, "event")
	}
	return nil
}

// IncrementUserStats bumps the mirror row's counters; unknown users (not yet
// mirrored from the user service) are created on the fly.
func (r *Repository) IncrementUserStats(ctx context.Context, userID uuid.UUID, played, won int) error {
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO users (id, username, games_played, games_won)
		VALUES ($1, '', $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			games_played = users.games_played + EXCLUDED.games_played,
			games_won = users.games_won + EXCLUDED.games_won`,
		userID, played, won)
	if err != nil {
		return mapError(err, "user stats")
	}
	return nil
}

// UpsertUser mirrors an externally-created user into the local table.
func (r *Repository) UpsertUser(ctx context.Context, userID uuid.UUID, username string) error {
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO users (id, username) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username`,
		userID, username)
	if err != nil {
		return mapError(err, "user")
	}
	return nil
}
