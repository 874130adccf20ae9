package postgres

import (
	"database/sql"
	"fmt"
)

const (
	createUsersTable = `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(50) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			games_played INT DEFAULT 0,
			games_won INT DEFAULT 0
		);`

	createRoomsTable = `
		CREATE TABLE IF NOT EXISTS rooms (
			id UUID PRIMARY KEY,
			code VARCHAR(6) NOT NULL,
			name VARCHAR(50) NOT NULL,
			host_user_id UUID NOT NULL,
			state VARCHAR(20) NOT NULL DEFAULT 'WAITING',
			phase VARCHAR(20) NOT NULL DEFAULT 'LOBBY',
			day_number INT NOT NULL DEFAULT 0,
			phase_started_at TIMESTAMP WITH TIME ZONE,
			phase_ends_at TIMESTAMP WITH TIME ZONE,
			night_duration INT NOT NULL,
			day_duration INT NOT NULL,
			vote_duration INT NOT NULL,
			min_players INT NOT NULL,
			max_players INT NOT NULL,
			is_private BOOLEAN DEFAULT FALSE,
			password_hash TEXT,
			winning_team VARCHAR(20),
			end_reason VARCHAR(50),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);`

	createRoomPlayersTable = `
		CREATE TABLE IF NOT EXISTS room_players (
			id UUID PRIMARY KEY,
			room_id UUID REFERENCES rooms(id) ON DELETE CASCADE NOT NULL,
			user_id UUID NOT NULL,
			username VARCHAR(50) NOT NULL,
			position INT NOT NULL,
			role VARCHAR(30),
			state VARCHAR(20) NOT NULL DEFAULT 'ALIVE',
			died_at TIMESTAMP WITH TIME ZONE,
			linked_to UUID,
			is_revealed BOOLEAN DEFAULT FALSE,
			joined_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(room_id, user_id),
			UNIQUE(room_id, position)
		);`

	createAbilitiesTable = `
		CREATE TABLE IF NOT EXISTS player_abilities (
			player_id UUID REFERENCES room_players(id) ON DELETE CASCADE NOT NULL,
			ability_type VARCHAR(30) NOT NULL,
			uses_left INT NOT NULL,
			max_uses INT NOT NULL,
			cooldown_days INT NOT NULL DEFAULT 0,
			last_used_day INT,
			metadata JSONB,
			PRIMARY KEY (player_id, ability_type)
		);`

	createActionsTable = `
		CREATE TABLE IF NOT EXISTS game_actions (
			id UUID PRIMARY KEY,
			room_id UUID REFERENCES rooms(id) ON DELETE CASCADE NOT NULL,
			performer_id UUID NOT NULL,
			action_type VARCHAR(30) NOT NULL,
			target_id UUID,
			day_number INT NOT NULL,
			phase VARCHAR(20) NOT NULL,
			metadata JSONB,
			result VARCHAR(30),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(room_id, performer_id, action_type, day_number, phase)
		);`

	createEventsTable = `
		CREATE TABLE IF NOT EXISTS game_events (
			id UUID PRIMARY KEY,
			room_id UUID REFERENCES rooms(id) ON DELETE CASCADE NOT NULL,
			event_type VARCHAR(40) NOT NULL,
			day_number INT NOT NULL,
			data JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);`

	// A code identifies one non-terminal room; terminal rooms free it up.
	createIndexes = `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_active_code ON rooms(code)
			WHERE state NOT IN ('ENDED', 'CANCELLED');
		CREATE INDEX IF NOT EXISTS idx_rooms_phase ON rooms(phase);
		CREATE INDEX IF NOT EXISTS idx_room_players_room_id ON room_players(room_id);
		CREATE INDEX IF NOT EXISTS idx_game_actions_room_day ON game_actions(room_id, day_number);
		CREATE INDEX IF NOT EXISTS idx_game_events_room_id ON game_events(room_id);`
)

func initDB(db *sql.DB) error {
	tables := []struct {
		name  string
		query string
	}{
		{"users", createUsersTable},
		{"rooms", createRoomsTable},
		{"room_players", createRoomPlayersTable},
		{"player_abilities", createAbilitiesTable},
		{"game_actions", createActionsTable},
		{"game_events", createEventsTable},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create '%s' table: %w", table.name, err)
		}
	}

	if _, err := db.Exec(createIndexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
