package game

import (
	"context"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf-service/domain"
)

func TestGenerateRoomCodeFormat(t *testing.T) {
	store := NewInMemoryStore()
	rng := rand.New(rand.NewSource(3))

	code, err := generateRoomCode(context.Background(), store, rng)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), code)
}

func TestGenerateRoomCodeReusesTerminalRoomCodes(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))

	code, err := generateRoomCode(ctx, store, rng)
	require.NoError(t, err)

	// Park the code on an ended room; it no longer blocks generation.
	ended := &domain.Room{
		ID: uuid.New(), Code: code, Name: "old", State: domain.RoomEnded,
		Phase: domain.PhaseGameEnd, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, store.CreateRoom(ctx, ended))

	again, err := generateRoomCode(ctx, store, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	assert.Equal(t, code, again, "a terminal room frees its code")
}

func TestGenerateRoomCodeGivesUpAfterRetries(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	// Occupy every code the seeded generator will try.
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < codeRetries; i++ {
		buf := make([]byte, codeLength)
		for j := range buf {
			buf[j] = codeAlphabet[rng.Intn(len(codeAlphabet))]
		}
		require.NoError(t, store.CreateRoom(ctx, &domain.Room{
			ID: uuid.New(), Code: string(buf), Name: "taken",
			State: domain.RoomWaiting, Phase: domain.PhaseLobby,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		}))
	}

	_, err := generateRoomCode(ctx, store, rand.New(rand.NewSource(9)))
	assert.ErrorIs(t, err, domain.ErrConflict)
}
