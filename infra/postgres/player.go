package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"werewolf-service/domain"
)

const playerColumns = `id, room_id, user_id, username, position,
	COALESCE(role, ''), state, died_at, linked_to, is_revealed, joined_at`

func scanPlayer(row interface{ Scan(...any) error }) (*domain.Player, error) {
	var p domain.Player
	var diedAt sql.NullTime
	var linkedTo uuid.NullUUID
	err := row.Scan(&p.ID, &p.RoomID, &p.UserID, &p.Username, &p.Position,
		&p.Role, &p.State, &diedAt, &linkedTo, &p.IsRevealed, &p.JoinedAt)
	if err != nil {
		return nil, err
	}
	if diedAt.Valid {
		p.DiedAt = &diedAt.Time
	}
	if linkedTo.Valid {
		p.LinkedTo = &linkedTo.UUID
	}
	return &p, nil
}

func (r *Repository) CreatePlayer(ctx context.Context, player *domain.Player) error {
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO room_players (id, room_id, user_id, username, position,
			role, state, is_revealed, joined_at)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,$8,$9)`,
		player.ID, player.RoomID, player.UserID, player.Username, player.Position,
		string(player.Role), player.State, player.IsRevealed, player.JoinedAt)
	if err != nil {
		return mapError(err, "player")
	}
	return nil
}

func (r *Repository) UpdatePlayer(ctx context.Context, player *domain.Player) error {
	var linkedTo *uuid.UUID
	if player.LinkedTo != nil {
		linkedTo = player.LinkedTo
	}
	result, err := r.q(ctx).ExecContext(ctx, `
		UPDATE room_players SET role = NULLIF($2, ''), state = $3, died_at = $4,
			linked_to = $5, is_revealed = $6
		WHERE id = $1`,
		player.ID, string(player.Role), player.State, player.DiedAt,
		linkedTo, player.IsRevealed)
	if err != nil {
		return mapError(err, "player")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "player")
	}
	return nil
}

func (r *Repository) DeletePlayer(ctx context.Context, playerID uuid.UUID) error {
	_, err := r.q(ctx).ExecContext(ctx,
		`DELETE FROM room_players WHERE id = $1`, playerID)
	if err != nil {
		return mapError(err, "player")
	}
	return nil
}

func (r *Repository) ListPlayers(ctx context.Context, roomID uuid.UUID) ([]*domain.Player, error) {
	rows, err := r.q(ctx).QueryContext(ctx,
		`SELECT `+playerColumns+` FROM room_players
		 WHERE room_id = $1 ORDER BY position`, roomID)
	if err != nil {
		return nil, mapError(err, "players")
	}
	defer rows.Close()

	var out []*domain.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, mapError(err, "player")
		}
		out = append(out, player)
	}
	return out, rows.Err()
}
