package hub

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"werewolf-service/internal/game"
)

func TestPlayerFromTopic(t *testing.T) {
	roomID, playerID := uuid.New(), uuid.New()

	parsed, ok := playerFromTopic(game.PlayerTopic(roomID, playerID))
	assert.True(t, ok)
	assert.Equal(t, playerID, parsed)

	_, ok = playerFromTopic(game.RoomTopic(roomID))
	assert.False(t, ok)

	_, ok = playerFromTopic("player:not-a-uuid:also-not")
	assert.False(t, ok)
}
