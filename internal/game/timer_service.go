package game

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TimerService drives phase expiry. It owns no state of its own: deadlines
// live in the durable TimerStore so transitions resume after a restart, and
// the first tick after startup drains everything already past due.
type TimerService struct {
	store   TimerStore
	handler func(ctx context.Context, entry TimerEntry) error
	tick    time.Duration
	retry   time.Duration

	stop chan struct{}
	done chan struct{}
}

func NewTimerService(store TimerStore, handler func(ctx context.Context, entry TimerEntry) error) *TimerService {
	return &TimerService{
		store:   store,
		handler: handler,
		tick:    time.Second,
		retry:   2 * time.Second,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the dispatcher loop.
func (s *TimerService) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *TimerService) run(ctx context.Context) {
	defer close(s.done)

	// Drain anything that expired while the process was down.
	s.dispatch(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.dispatch(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *TimerService) dispatch(ctx context.Context) {
	now := time.Now()
	entries, err := s.store.PopExpired(ctx, now, 64)
	if err != nil {
		zap.L().Error("failed to pop expired timers", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if err := s.handler(ctx, entry); err != nil {
			zap.L().Error("phase expiry handling failed; rescheduling",
				zap.String("room_id", entry.RoomID.String()),
				zap.String("phase", string(entry.Phase)),
				zap.Error(err))
			entry.Deadline = now.Add(s.retry)
			if err := s.store.Schedule(ctx, entry); err != nil {
				zap.L().Error("failed to reschedule timer", zap.Error(err))
			}
		}
	}
}

// Stop halts the dispatcher and waits for the in-flight tick.
func (s *TimerService) Stop() {
	close(s.stop)
	<-s.done
}
