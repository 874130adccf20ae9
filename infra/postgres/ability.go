package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"werewolf-service/domain"
)

func (r *Repository) UpsertAbility(ctx context.Context, ability *domain.Ability) error {
	var metadata []byte
	if ability.Metadata != nil {
		var err error
		metadata, err = json.Marshal(ability.Metadata)
		if err != nil {
			return mapError(err, "ability metadata")
		}
	}
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO player_abilities (player_id, ability_type, uses_left, max_uses,
			cooldown_days, last_used_day, metadata)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (player_id, ability_type) DO UPDATE SET
			uses_left = EXCLUDED.uses_left,
			max_uses = EXCLUDED.max_uses,
			cooldown_days = EXCLUDED.cooldown_days,
			last_used_day = EXCLUDED.last_used_day,
			metadata = EXCLUDED.metadata`,
		ability.PlayerID, ability.AbilityType, ability.UsesLeft, ability.MaxUses,
		ability.CooldownDays, ability.LastUsedDay, metadata)
	if err != nil {
		return mapError(err, "ability")
	}
	return nil
}

func scanAbility(row interface{ Scan(...any) error }) (*domain.Ability, error) {
	var ability domain.Ability
	var lastUsedDay sql.NullInt64
	var metadata []byte
	err := row.Scan(&ability.PlayerID, &ability.AbilityType, &ability.UsesLeft,
		&ability.MaxUses, &ability.CooldownDays, &lastUsedDay, &metadata)
	if err != nil {
		return nil, err
	}
	if lastUsedDay.Valid {
		day := int(lastUsedDay.Int64)
		ability.LastUsedDay = &day
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &ability.Metadata); err != nil {
			return nil, err
		}
	}
	return &ability, nil
}

const abilityColumns = `player_id, ability_type, uses_left, max_uses,
	cooldown_days, last_used_day, metadata`

func (r *Repository) FindAbility(ctx context.Context, playerID uuid.UUID, abilityType domain.AbilityType) (*domain.Ability, error) {
	row := r.q(ctx).QueryRowContext(ctx,
		`SELECT `+abilityColumns+` FROM player_abilities
		 WHERE player_id = $1 AND ability_type = $2`, playerID, abilityType)
	ability, err := scanAbility(row)
	if err != nil {
		return nil, mapError(err, "ability")
	}
	return ability, nil
}

func (r *Repository) ListAbilities(ctx context.Context, playerID uuid.UUID) ([]*domain.Ability, error) {
	rows, err := r.q(ctx).QueryContext(ctx,
		`SELECT `+abilityColumns+` FROM player_abilities WHERE player_id = $1`,
		playerID)
	if err != nil {
		return nil, mapError(err, "abilities")
	}
	defer rows.Close()

	var out []*domain.Ability
	for rows.Next() {
		ability, err := scanAbility(rows)
		if err != nil {
			return nil, mapError(err, "ability")
		}
		out = append(out, ability)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteAbilities(ctx context.Context, playerID uuid.UUID) error {
	_, err := r.q(ctx).ExecContext(ctx,
		`DELETE FROM player_abilities WHERE player_id = $1`, playerID)
	if err != nil {
		return mapError(err, "abilities")
	}
	return nil
}
