package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"werewolf-service/domain"
	"werewolf-service/internal/game"
)

const timerKey = "phase_timers"

// TimerQueue implements the TimerStore facade on a sorted set scored by the
// unix-milli deadline, so entries survive process restarts.
type TimerQueue struct {
	client *redis.Client
}

func NewTimerQueue(client *redis.Client) *TimerQueue {
	return &TimerQueue{client: client}
}

func member(roomID uuid.UUID, phase domain.GamePhase) string {
	return fmt.Sprintf("%s|%s", roomID, phase)
}

func parseMember(raw string, score float64) (game.TimerEntry, error) {
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 {
		return game.TimerEntry{}, fmt.Errorf("malformed timer member %q", raw)
	}
	roomID, err := uuid.Parse(parts[0])
	if err != nil {
		return game.TimerEntry{}, fmt.Errorf("malformed timer member %q: %w", raw, err)
	}
	return game.TimerEntry{
		RoomID:   roomID,
		Phase:    domain.GamePhase(parts[1]),
		Deadline: time.UnixMilli(int64(score)),
	}, nil
}

func (t *TimerQueue) Schedule(ctx context.Context, entry game.TimerEntry) error {
	return t.client.ZAdd(ctx, timerKey, redis.Z{
		Score:  float64(entry.Deadline.UnixMilli()),
		Member: member(entry.RoomID, entry.Phase),
	}).Err()
}

// Cancel removes every scheduled entry for the room.
func (t *TimerQueue) Cancel(ctx context.Context, roomID uuid.UUID) error {
	var cursor uint64
	pattern := roomID.String() + "|*"
	for {
		members, next, err := t.client.ZScan(ctx, timerKey, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		// ZScan interleaves member and score.
		for i := 0; i < len(members); i += 2 {
			if err := t.client.ZRem(ctx, timerKey, members[i]).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// popExpiredScript atomically takes everything due; dispatchers on several
// processes never see the same entry twice.
var popExpiredScript = redis.NewScript(`
	local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'WITHSCORES', 'LIMIT', 0, ARGV[2])
	for i = 1, #due, 2 do
		redis.call('ZREM', KEYS[1], due[i])
	end
	return due
`)

func (t *TimerQueue) PopExpired(ctx context.Context, now time.Time, limit int) ([]game.TimerEntry, error) {
	raw, err := popExpiredScript.Run(ctx, t.client, []string{timerKey},
		now.UnixMilli(), limit).Slice()
	if err != nil {
		return nil, err
	}

	var out []game.TimerEntry
	for i := 0; i+1 < len(raw); i += 2 {
		memberStr, ok := raw[i].(string)
		if !ok {
			continue
		}
		scoreStr, ok := raw[i+1].(string)
		if !ok {
			continue
		}
		var score float64
		if _, err := fmt.Sscanf(scoreStr, "%f", &score); err != nil {
			continue
		}
		entry, err := parseMember(memberStr, score)
		if err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
