package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"werewolf-service/domain"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
	codeRetries  = 10
)

// generateRoomCode draws random 6-char codes until one is free among
// non-terminal rooms, giving up after 10 collisions.
func generateRoomCode(ctx context.Context, store Store, rng *rand.Rand) (string, error) {
	for i := 0; i < codeRetries; i++ {
		buf := make([]byte, codeLength)
		for j := range buf {
			buf[j] = codeAlphabet[rng.Intn(len(codeAlphabet))]
		}
		code := string(buf)

		_, err := store.FindRoomByCode(ctx, code)
		if errors.Is(err, domain.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: room code lookup: %v", domain.ErrInternal, err)
		}
	}
	return "", fmt.Errorf("%w: could not allocate a unique room code", domain.ErrConflict)
}
