package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"werewolf-service/domain"
)

func phasesArray(phases []domain.GamePhase) interface{} {
	out := make([]string, len(phases))
	for i, p := range phases {
		out[i] = string(p)
	}
	return pq.Array(out)
}

const roomColumns = `id, code, name, host_user_id, state, phase, day_number,
	phase_started_at, phase_ends_at, night_duration, day_duration, vote_duration,
	min_players, max_players, is_private, COALESCE(password_hash, ''),
	winning_team, COALESCE(end_reason, ''), created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }) (*domain.Room, error) {
	var room domain.Room
	var phaseEndsAt sql.NullTime
	var winningTeam sql.NullString
	err := row.Scan(&room.ID, &room.Code, &room.Name, &room.HostUserID,
		&room.State, &room.Phase, &room.DayNumber,
		&room.PhaseStartedAt, &phaseEndsAt,
		&room.NightDuration, &room.DayDuration, &room.VoteDuration,
		&room.MinPlayers, &room.MaxPlayers, &room.IsPrivate, &room.PasswordHash,
		&winningTeam, &room.EndReason, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if phaseEndsAt.Valid {
		room.PhaseEndsAt = &phaseEndsAt.Time
	}
	if winningTeam.Valid {
		team := domain.Team(winningTeam.String)
		room.WinningTeam = &team
	}
	return &room, nil
}

func (r *Repository) FindRoomByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	row := r.q(ctx).QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	room, err := scanRoom(row)
	if err != nil {
		return nil, mapError(err, "room")
	}
	return room, nil
}

func (r *Repository) FindRoomByCode(ctx context.Context, code string) (*domain.Room, error) {
	row := r.q(ctx).QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms
		 WHERE code = $1 AND state NOT IN ('ENDED', 'CANCELLED')`, code)
	room, err := scanRoom(row)
	if err != nil {
		return nil, mapError(err, "room")
	}
	return room, nil
}

func (r *Repository) CreateRoom(ctx context.Context, room *domain.Room) error {
	_, err := r.q(ctx).ExecContext(ctx, `
		INSERT INTO rooms (id, code, name, host_user_id, state, phase, day_number,
			phase_started_at, phase_ends_at, night_duration, day_duration, vote_duration,
			min_players, max_players, is_private, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NULLIF($16,''),$17,$18)`,
		room.ID, room.Code, room.Name, room.HostUserID, room.State, room.Phase,
		room.DayNumber, room.PhaseStartedAt, room.PhaseEndsAt,
		room.NightDuration, room.DayDuration, room.VoteDuration,
		room.MinPlayers, room.MaxPlayers, room.IsPrivate, room.PasswordHash,
		room.CreatedAt, room.UpdatedAt)
	if err != nil {
		return mapError(err, "room")
	}
	return nil
}

func (r *Repository) UpdateRoom(ctx context.Context, room *domain.Room) error {
	var winningTeam *string
	if room.WinningTeam != nil {
		s := string(*room.WinningTeam)
		winningTeam = &s
	}
	result, err := r.q(ctx).ExecContext(ctx, `
		UPDATE rooms SET host_user_id = $2, state = $3, phase = $4, day_number = $5,
			phase_started_at = $6, phase_ends_at = $7,
			winning_team = $8, end_reason = NULLIF($9, ''), updated_at = $10
		WHERE id = $1`,
		room.ID, room.HostUserID, room.State, room.Phase, room.DayNumber,
		room.PhaseStartedAt, room.PhaseEndsAt, winningTeam, room.EndReason,
		time.Now())
	if err != nil {
		return mapError(err, "room")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mapError(sql.ErrNoRows, "room")
	}
	return nil
}

func (r *Repository) ListRoomsInPhase(ctx context.Context, phases ...domain.GamePhase) ([]*domain.Room, error) {
	if len(phases) == 0 {
		return nil, nil
	}
	rows, err := r.q(ctx).QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE phase = ANY($1)`,
		phasesArray(phases))
	if err != nil {
		return nil, mapError(err, "rooms")
	}
	defer rows.Close()

	var out []*domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, mapError(err, "room")
		}
		out = append(out, room)
	}
	return out, rows.Err()
}
