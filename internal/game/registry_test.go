package game

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf-service/domain"
)

func newTestRegistry(env *testEnv) *Registry {
	registry := NewRegistry(env.store, env.bus, env.timers, env.cfg)
	registry.newSeed = func() int64 { return 1 }
	return registry
}

func TestCreateRoomSeatsHostAndAllocatesCode(t *testing.T) {
	env := newTestEnv()
	registry := newTestRegistry(env)

	room, err := registry.CreateRoom(context.Background(), CreateRoomParams{
		Name:       "friday night",
		HostUserID: uuid.New(), HostUsername: "host",
		MinPlayers: 5, MaxPlayers: 10,
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), room.Code())
	assert.Equal(t, domain.RoomWaiting, room.State())

	host := at(t, room, 1)
	assert.Equal(t, room.room.HostUserID, host.UserID)

	found, err := registry.GetByCode(room.Code())
	require.NoError(t, err)
	assert.Equal(t, room.ID(), found.ID())
}

func TestCreateRoomValidation(t *testing.T) {
	env := newTestEnv()
	registry := newTestRegistry(env)
	ctx := context.Background()

	cases := []CreateRoomParams{
		{Name: "", MinPlayers: 5, MaxPlayers: 10},
		{Name: "x", MinPlayers: 4, MaxPlayers: 10},
		{Name: "x", MinPlayers: 5, MaxPlayers: 16},
		{Name: "x", MinPlayers: 10, MaxPlayers: 5},
		{Name: "x", MinPlayers: 5, MaxPlayers: 10, NightDuration: 10},
		{Name: "x", MinPlayers: 5, MaxPlayers: 10, VoteDuration: 500},
	}
	for i, params := range cases {
		params.HostUserID = uuid.New()
		params.HostUsername = "host"
		_, err := registry.CreateRoom(ctx, params)
		assert.ErrorIs(t, err, domain.ErrValidation, "case %d", i)
	}
}

func TestRegistryGetUnknownRoom(t *testing.T) {
	env := newTestEnv()
	registry := newTestRegistry(env)

	_, err := registry.Get(uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryRecoverReloadsActiveRooms(t *testing.T) {
	env := newTestEnv()
	first := newTestRegistry(env)

	room, err := first.CreateRoom(context.Background(), CreateRoomParams{
		Name:       "survives restarts",
		HostUserID: uuid.New(), HostUsername: "host",
		MinPlayers: 5, MaxPlayers: 10,
	})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := room.Join(context.Background(), uuid.New(), "guest")
		require.NoError(t, err)
	}
	require.NoError(t, room.StartGame(context.Background(), room.room.HostUserID))

	// A fresh registry over the same store sees the running room.
	second := newTestRegistry(env)
	require.NoError(t, second.Recover(context.Background()))

	recovered, err := second.Get(room.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseRoleAssignment, recovered.room.Phase)
	assert.Len(t, recovered.playersByPosition(), 5)
}

func TestRegistrySweepDropsFinishedRooms(t *testing.T) {
	env := newTestEnv()
	registry := newTestRegistry(env)

	room, err := registry.CreateRoom(context.Background(), CreateRoomParams{
		Name:       "short lived",
		HostUserID: uuid.New(), HostUsername: "host",
		MinPlayers: 5, MaxPlayers: 10,
	})
	require.NoError(t, err)
	require.NoError(t, room.Leave(context.Background(), room.room.HostUserID))
	require.Equal(t, domain.RoomCancelled, room.State())

	registry.Sweep(context.Background(), time.Now())

	_, err = registry.Get(room.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistryRejectsRoomsAfterShutdown(t *testing.T) {
	env := newTestEnv()
	registry := newTestRegistry(env)
	require.NoError(t, registry.Shutdown(context.Background()))

	_, err := registry.CreateRoom(context.Background(), CreateRoomParams{
		Name:       "too late",
		HostUserID: uuid.New(), HostUsername: "host",
		MinPlayers: 5, MaxPlayers: 10,
	})
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}
