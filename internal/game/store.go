package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"werewolf-service/domain"
)

// ActionFilter narrows FindActions/DeleteActions. Nil fields match anything.
type ActionFilter struct {
	RoomID      uuid.UUID
	PerformerID *uuid.UUID
	ActionType  *domain.ActionType
	DayNumber   *int
	Phase       *domain.GamePhase
}

// Store is the narrow persistence facade the engine consumes. Implementations
// must be safe for concurrent use across rooms.
type Store interface {
	FindRoomByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	FindRoomByCode(ctx context.Context, code string) (*domain.Room, error)
	CreateRoom(ctx context.Context, room *domain.Room) error
	UpdateRoom(ctx context.Context, room *domain.Room) error
	ListRoomsInPhase(ctx context.Context, phases ...domain.GamePhase) ([]*domain.Room, error)

	CreatePlayer(ctx context.Context, player *domain.Player) error
	UpdatePlayer(ctx context.Context, player *domain.Player) error
	DeletePlayer(ctx context.Context, playerID uuid.UUID) error
	ListPlayers(ctx context.Context, roomID uuid.UUID) ([]*domain.Player, error)

	UpsertAction(ctx context.Context, action *domain.GameAction) error
	FindActions(ctx context.Context, filter ActionFilter) ([]*domain.GameAction, error)
	DeleteActions(ctx context.Context, filter ActionFilter) error

	UpsertAbility(ctx context.Context, ability *domain.Ability) error
	FindAbility(ctx context.Context, playerID uuid.UUID, abilityType domain.AbilityType) (*domain.Ability, error)
	ListAbilities(ctx context.Context, playerID uuid.UUID) ([]*domain.Ability, error)
	DeleteAbilities(ctx context.Context, playerID uuid.UUID) error

	CreateEvent(ctx context.Context, event *domain.GameEvent) error
	IncrementUserStats(ctx context.Context, userID uuid.UUID, played, won int) error

	// WithRoomTransaction serializes fn against all other transactions for the
	// same room. The engine commits every phase transition through it.
	WithRoomTransaction(ctx context.Context, roomID uuid.UUID, fn func(ctx context.Context) error) error
}

// EventBus is the pub/sub facade. Publish is fire-and-forget from the
// engine's point of view; subscribers recover through snapshots.
type EventBus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topicPattern string, handler func(topic string, payload []byte)) (func() error, error)
}

// TimerEntry is one scheduled phase expiry.
type TimerEntry struct {
	RoomID   uuid.UUID        `json:"room_id"`
	Phase    domain.GamePhase `json:"phase"`
	Deadline time.Time        `json:"deadline"`
}

// TimerStore is the durable, deadline-sorted queue behind the TimerService.
type TimerStore interface {
	Schedule(ctx context.Context, entry TimerEntry) error
	Cancel(ctx context.Context, roomID uuid.UUID) error
	// PopExpired atomically removes and returns entries with deadline <= now.
	PopExpired(ctx context.Context, now time.Time, limit int) ([]TimerEntry, error)
}

// Config carries the engine's process-wide tunables.
type Config struct {
	DefaultNightDuration  int
	DefaultDayDuration    int
	DefaultVoteDuration   int
	LittleGirlCatchChance float64
	HunterGrace           time.Duration
	DisconnectGrace       time.Duration
	AbandonTimeout        time.Duration
}
