package game

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"werewolf-service/domain"
)

type testEnv struct {
	store  *InMemoryStore
	bus    *InMemoryBus
	timers *InMemoryTimerQueue
	cfg    Config
}

func newTestEnv() *testEnv {
	return &testEnv{
		store:  NewInMemoryStore(),
		bus:    NewInMemoryBus(),
		timers: NewInMemoryTimerQueue(),
		cfg: Config{
			DefaultNightDuration:  90,
			DefaultDayDuration:    180,
			DefaultVoteDuration:   60,
			LittleGirlCatchChance: 0, // deterministic nights unless a test opts in
			HunterGrace:           30 * time.Second,
			DisconnectGrace:       50 * time.Millisecond,
			AbandonTimeout:        time.Hour,
		},
	}
}

// buildRoom seats one player per role (positions 1..n), persists everything
// and returns a runtime room in the given phase with a fixed seed.
func buildRoom(t *testing.T, env *testEnv, phase domain.GamePhase, day int, roles ...domain.GameRole) *Room {
	t.Helper()
	ctx := context.Background()

	now := time.Now()
	rec := &domain.Room{
		ID:             uuid.New(),
		Code:           "TEST01",
		Name:           "test room",
		State:          domain.StateFor(phase),
		Phase:          phase,
		DayNumber:      day,
		PhaseStartedAt: now,
		NightDuration:  env.cfg.DefaultNightDuration,
		DayDuration:    env.cfg.DefaultDayDuration,
		VoteDuration:   env.cfg.DefaultVoteDuration,
		MinPlayers:     5,
		MaxPlayers:     15,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, env.store.CreateRoom(ctx, rec))

	players := make([]*domain.Player, 0, len(roles))
	for i, role := range roles {
		player := &domain.Player{
			ID:       uuid.New(),
			RoomID:   rec.ID,
			UserID:   uuid.New(),
			Username: "player-" + string(rune('A'+i)),
			Position: i + 1,
			Role:     role,
			State:    domain.PlayerAlive,
			JoinedAt: now,
		}
		require.NoError(t, env.store.CreatePlayer(ctx, player))
		for _, ability := range abilitiesFor(player.ID, role) {
			require.NoError(t, env.store.UpsertAbility(ctx, ability))
		}
		players = append(players, player)
	}
	rec.HostUserID = players[0].UserID

	return newRoom(rec, players, env.store, env.bus, env.timers, env.cfg, rand.New(rand.NewSource(1)))
}

// at returns the player seated at a position.
func at(t *testing.T, room *Room, position int) *domain.Player {
	t.Helper()
	for _, p := range room.playersByPosition() {
		if p.Position == position {
			return p
		}
	}
	t.Fatalf("no player at position %d", position)
	return nil
}

// submit records a night action directly through the public entry point.
func submit(t *testing.T, room *Room, performer *domain.Player, actionType domain.ActionType, target *domain.Player) {
	t.Helper()
	input := NightActionInput{ActionType: actionType}
	if target != nil {
		id := target.ID
		input.TargetID = &id
	}
	require.NoError(t, room.SubmitNightAction(context.Background(), performer.UserID, input))
}

// endPhase drives the transition the timer dispatcher would trigger.
func endPhase(t *testing.T, room *Room) {
	t.Helper()
	require.NoError(t, room.HandleExpiry(context.Background(), room.room.Phase))
}

// publishedTypes decodes the event names fanned out on a topic prefix.
func publishedTypes(t *testing.T, env *testEnv, prefix string) []string {
	t.Helper()
	var out []string
	for _, m := range env.bus.Published(prefix) {
		out = append(out, decodeType(t, m.Payload))
	}
	return out
}

func decodeType(t *testing.T, payload []byte) string {
	t.Helper()
	var msg struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg.Type
}
