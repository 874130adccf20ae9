package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"werewolf-service/domain"
)

func TestTimerQueueOrdersByDeadline(t *testing.T) {
	queue := NewInMemoryTimerQueue()
	ctx := context.Background()
	now := time.Now()

	late := TimerEntry{RoomID: uuid.New(), Phase: domain.PhaseNight, Deadline: now.Add(time.Hour)}
	due := TimerEntry{RoomID: uuid.New(), Phase: domain.PhaseDayVoting, Deadline: now.Add(-time.Second)}
	require.NoError(t, queue.Schedule(ctx, late))
	require.NoError(t, queue.Schedule(ctx, due))

	expired, err := queue.PopExpired(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, due.RoomID, expired[0].RoomID)

	// The late entry stays queued.
	assert.Len(t, queue.Pending(), 1)
}

func TestTimerQueueCancelRemovesRoomEntries(t *testing.T) {
	queue := NewInMemoryTimerQueue()
	ctx := context.Background()
	roomID := uuid.New()

	require.NoError(t, queue.Schedule(ctx, TimerEntry{RoomID: roomID, Phase: domain.PhaseNight, Deadline: time.Now()}))
	require.NoError(t, queue.Schedule(ctx, TimerEntry{RoomID: uuid.New(), Phase: domain.PhaseNight, Deadline: time.Now()}))

	require.NoError(t, queue.Cancel(ctx, roomID))

	for _, entry := range queue.Pending() {
		assert.NotEqual(t, roomID, entry.RoomID)
	}
	assert.Len(t, queue.Pending(), 1)
}

func TestTimerServiceDispatchesDueEntries(t *testing.T) {
	queue := NewInMemoryTimerQueue()
	ctx := context.Background()

	var mu sync.Mutex
	var handled []TimerEntry
	service := NewTimerService(queue, func(ctx context.Context, entry TimerEntry) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, entry)
		return nil
	})

	entry := TimerEntry{RoomID: uuid.New(), Phase: domain.PhaseNight, Deadline: time.Now().Add(-time.Minute)}
	require.NoError(t, queue.Schedule(ctx, entry))

	service.dispatch(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, handled, 1)
	assert.Equal(t, entry.RoomID, handled[0].RoomID)
	assert.Empty(t, queue.Pending())
}

func TestTimerServiceReschedulesOnHandlerError(t *testing.T) {
	queue := NewInMemoryTimerQueue()
	ctx := context.Background()

	service := NewTimerService(queue, func(ctx context.Context, entry TimerEntry) error {
		return errors.New("transition failed")
	})

	entry := TimerEntry{RoomID: uuid.New(), Phase: domain.PhaseNight, Deadline: time.Now().Add(-time.Minute)}
	require.NoError(t, queue.Schedule(ctx, entry))

	service.dispatch(ctx)

	pending := queue.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, entry.RoomID, pending[0].RoomID)
	assert.True(t, pending[0].Deadline.After(time.Now()), "retried entry moves into the future")
}

func TestTimerServiceStartDrainsBacklog(t *testing.T) {
	queue := NewInMemoryTimerQueue()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	handled := 0
	service := NewTimerService(queue, func(ctx context.Context, entry TimerEntry) error {
		mu.Lock()
		defer mu.Unlock()
		handled++
		return nil
	})

	// Deadlines that passed while the process was down.
	for i := 0; i < 3; i++ {
		require.NoError(t, queue.Schedule(ctx, TimerEntry{
			RoomID: uuid.New(), Phase: domain.PhaseNight,
			Deadline: time.Now().Add(-time.Duration(i+1) * time.Minute),
		}))
	}

	service.Start(ctx)
	defer service.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return handled == 3
	}, 2*time.Second, 10*time.Millisecond)
}
