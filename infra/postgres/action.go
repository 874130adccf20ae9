package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"werewolf-service/domain"
	"werewolf-service/internal/game"
)

// UpsertAction writes one action; (room, performer, type, day, phase) is the
// conflict target so the latest submission wins.
func (r *Repository) UpsertAction(ctx context.Context, action *domain.GameAction) error {
	var metadata []byte
	if action.Metadata != nil {
		var err error
		metadata, err = json.Marshal(action.Metadata)
		if err != nil {
			return mapError(err, "action metadata")
		}
	}
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO game_actions (id, room_id, performer_id, action_type, target_id,
			day_number, phase, metadata, result, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10)
		ON CONFLICT (room_id, performer_id, action_type, day_number, phase) DO UPDATE SET
			target_id = EXCLUDED.target_id,
			metadata = EXCLUDED.metadata,
			result = EXCLUDED.result,
			created_at = EXCLUDED.created_at`,
		action.ID, action.RoomID, action.PerformerID, action.ActionType,
		action.TargetID, action.DayNumber, action.Phase, metadata,
		action.Result, action.CreatedAt)
	if err != nil {
		return mapError(err, "action")
	}
	return nil
}

func buildActionWhere(filter game.ActionFilter) (string, []any) {
	clauses := []string{"room_id = $1"}
	args := []any{filter.RoomID}
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, strings.Replace(clause, "?", fmt.Sprintf("$%d", len(args)), 1))
	}
	if filter.PerformerID != nil {
		add("performer_id = ?", *filter.PerformerID)
	}
	if filter.ActionType != nil {
		add("action_type = ?", string(*filter.ActionType))
	}
	if filter.DayNumber != nil {
		add("day_number = ?", *filter.DayNumber)
	}
	if filter.Phase != nil {
		add("phase = ?", string(*filter.Phase))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *Repository) FindActions(ctx context.Context, filter game.ActionFilter) ([]*domain.GameAction, error) {
	where, args := buildActionWhere(filter)
	rows, err := r.q(ctx).QueryContext(ctx, `
		SELECT id, room_id, performer_id, action_type, target_id, day_number,
			phase, metadata, COALESCE(result, ''), created_at
		FROM game_actions WHERE `+where+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, mapError(err, "actions")
	}
	defer rows.Close()

	var out []*domain.GameAction
	for rows.Next() {
		var action domain.GameAction
		var targetID uuid.NullUUID
		var metadata []byte
		if err := rows.Scan(&action.ID, &action.RoomID, &action.PerformerID,
			&action.ActionType, &targetID, &action.DayNumber, &action.Phase,
			&metadata, &action.Result, &action.CreatedAt); err != nil {
			return nil, mapError(err, "action")
		}
		if targetID.Valid {
			action.TargetID = &targetID.UUID
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &action.Metadata); err != nil {
				return nil, mapError(err, "action metadata")
			}
		}
		out = append(out, &action)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteActions(ctx context.Context, filter game.ActionFilter) error {
	where, args := buildActionWhere(filter)
	_, err := r.q(ctx).ExecContext(ctx,
		`DELETE FROM game_actions WHERE `+where, args...)
	if err != nil {
		return mapError(err, "actions")
	}
	return nil
}
