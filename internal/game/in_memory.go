package game

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"werewolf-service/domain"
)

// In-memory implementations of the Store, TimerStore and EventBus facades.
// They back the engine tests and single-process development runs; the
// production adapters live in infra/postgres and infra/redis.

type InMemoryStore struct {
	mu        sync.Mutex
	rooms     map[uuid.UUID]*domain.Room
	players   map[uuid.UUID]*domain.Player
	actions   map[string]*domain.GameAction
	abilities map[string]*domain.Ability
	events    []*domain.GameEvent
	stats     map[uuid.UUID][2]int

	roomLocks map[uuid.UUID]*sync.Mutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rooms:     make(map[uuid.UUID]*domain.Room),
		players:   make(map[uuid.UUID]*domain.Player),
		actions:   make(map[string]*domain.GameAction),
		abilities: make(map[string]*domain.Ability),
		stats:     make(map[uuid.UUID][2]int),
		roomLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func actionKey(a *domain.GameAction) string {
	return fmt.Sprintf("%s|%s|%s|%d|%s", a.RoomID, a.PerformerID, a.ActionType, a.DayNumber, a.Phase)
}

func abilityKey(playerID uuid.UUID, abilityType domain.AbilityType) string {
	return fmt.Sprintf("%s|%s", playerID, abilityType)
}

func (s *InMemoryStore) FindRoomByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: room %s", domain.ErrNotFound, id)
	}
	out := *room
	return &out, nil
}

func (s *InMemoryStore) FindRoomByCode(ctx context.Context, code string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if room.Code == code && !room.State.Terminal() {
			out := *room
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: room code %s", domain.ErrNotFound, code)
}

func (s *InMemoryStore) CreateRoom(ctx context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.ID]; exists {
		return fmt.Errorf("%w: room %s exists", domain.ErrConflict, room.ID)
	}
	out := *room
	s.rooms[room.ID] = &out
	return nil
}

func (s *InMemoryStore) UpdateRoom(ctx context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; !ok {
		return fmt.Errorf("%w: room %s", domain.ErrNotFound, room.ID)
	}
	room.UpdatedAt = time.Now()
	out := *room
	s.rooms[room.ID] = &out
	return nil
}

func (s *InMemoryStore) ListRoomsInPhase(ctx context.Context, phases ...domain.GamePhase) ([]*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Room
	for _, room := range s.rooms {
		for _, phase := range phases {
			if room.Phase == phase {
				copied := *room
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (s *InMemoryStore) CreatePlayer(ctx context.Context, player *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.RoomID == player.RoomID && p.UserID == player.UserID {
			return fmt.Errorf("%w: user already in room", domain.ErrConflict)
		}
	}
	copied := *player
	s.players[player.ID] = &copied
	return nil
}

func (s *InMemoryStore) UpdatePlayer(ctx context.Context, player *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[player.ID]; !ok {
		return fmt.Errorf("%w: player %s", domain.ErrNotFound, player.ID)
	}
	copied := *player
	s.players[player.ID] = &copied
	return nil
}

func (s *InMemoryStore) DeletePlayer(ctx context.Context, playerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, playerID)
	return nil
}

func (s *InMemoryStore) ListPlayers(ctx context.Context, roomID uuid.UUID) ([]*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Player
	for _, p := range s.players {
		if p.RoomID == roomID {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *InMemoryStore) UpsertAction(ctx context.Context, action *domain.GameAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *action
	s.actions[actionKey(action)] = &copied
	return nil
}

func (f ActionFilter) matches(a *domain.GameAction) bool {
	if a.RoomID != f.RoomID {
		return false
	}
	if f.PerformerID != nil && a.PerformerID != *f.PerformerID {
		return false
	}
	if f.ActionType != nil && a.ActionType != *f.ActionType {
		return false
	}
	if f.DayNumber != nil && a.DayNumber != *f.DayNumber {
		return false
	}
	if f.Phase != nil && a.Phase != *f.Phase {
		return false
	}
	return true
}

func (s *InMemoryStore) FindActions(ctx context.Context, filter ActionFilter) ([]*domain.GameAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.GameAction
	for _, a := range s.actions {
		if filter.matches(a) {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) DeleteActions(ctx context.Context, filter ActionFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.actions {
		if filter.matches(a) {
			delete(s.actions, key)
		}
	}
	return nil
}

func (s *InMemoryStore) UpsertAbility(ctx context.Context, ability *domain.Ability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *ability
	if ability.Metadata != nil {
		copied.Metadata = make(map[string]string, len(ability.Metadata))
		for k, v := range ability.Metadata {
			copied.Metadata[k] = v
		}
	}
	if ability.LastUsedDay != nil {
		day := *ability.LastUsedDay
		copied.LastUsedDay = &day
	}
	s.abilities[abilityKey(ability.PlayerID, ability.AbilityType)] = &copied
	return nil
}

func (s *InMemoryStore) FindAbility(ctx context.Context, playerID uuid.UUID, abilityType domain.AbilityType) (*domain.Ability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ability, ok := s.abilities[abilityKey(playerID, abilityType)]
	if !ok {
		return nil, fmt.Errorf("%w: ability %s", domain.ErrNotFound, abilityType)
	}
	copied := *ability
	return &copied, nil
}

func (s *InMemoryStore) ListAbilities(ctx context.Context, playerID uuid.UUID) ([]*domain.Ability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := playerID.String() + "|"
	var out []*domain.Ability
	for key, ability := range s.abilities {
		if strings.HasPrefix(key, prefix) {
			copied := *ability
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteAbilities(ctx context.Context, playerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := playerID.String() + "|"
	for key := range s.abilities {
		if strings.HasPrefix(key, prefix) {
			delete(s.abilities, key)
		}
	}
	return nil
}

func (s *InMemoryStore) CreateEvent(ctx context.Context, event *domain.GameEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *event
	s.events = append(s.events, &copied)
	return nil
}

// Events returns the audit log for a room, oldest first.
func (s *InMemoryStore) Events(roomID uuid.UUID) []*domain.GameEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.GameEvent
	for _, e := range s.events {
		if e.RoomID == roomID {
			out = append(out, e)
		}
	}
	return out
}

func (s *InMemoryStore) IncrementUserStats(ctx context.Context, userID uuid.UUID, played, won int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.stats[userID]
	s.stats[userID] = [2]int{current[0] + played, current[1] + won}
	return nil
}

// Stats returns (played, won) for a user.
func (s *InMemoryStore) Stats(userID uuid.UUID) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.stats[userID]
	return current[0], current[1]
}

func (s *InMemoryStore) WithRoomTransaction(ctx context.Context, roomID uuid.UUID, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	lock, ok := s.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.roomLocks[roomID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

// InMemoryTimerQueue is the in-process deadline queue.
type InMemoryTimerQueue struct {
	mu      sync.Mutex
	entries []TimerEntry
}

func NewInMemoryTimerQueue() *InMemoryTimerQueue {
	return &InMemoryTimerQueue{}
}

func (t *InMemoryTimerQueue) Schedule(ctx context.Context, entry TimerEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	sort.Slice(t.entries, func(i, j int) bool {
		return t.entries[i].Deadline.Before(t.entries[j].Deadline)
	})
	return nil
}

func (t *InMemoryTimerQueue) Cancel(ctx context.Context, roomID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.RoomID != roomID {
			kept = append(kept, e)
		}
	}
	t.entries = kept
	return nil
}

func (t *InMemoryTimerQueue) PopExpired(ctx context.Context, now time.Time, limit int) ([]TimerEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var expired []TimerEntry
	kept := t.entries[:0]
	for _, e := range t.entries {
		if len(expired) < limit && !e.Deadline.After(now) {
			expired = append(expired, e)
		} else {
			kept = append(kept, e)
		}
	}
	t.entries = kept
	return expired, nil
}

// Pending returns a copy of the queue.
func (t *InMemoryTimerQueue) Pending() []TimerEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TimerEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// InMemoryBus is an in-process EventBus; a pattern ending in '*' matches any
// topic with that prefix.
type InMemoryBus struct {
	mu        sync.Mutex
	handlers  map[string][]func(topic string, payload []byte)
	published []BusMessage
}

type BusMessage struct {
	Topic   string
	Payload []byte
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string][]func(topic string, payload []byte))}
}

func (b *InMemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	b.published = append(b.published, BusMessage{Topic: topic, Payload: payload})
	var targets []func(topic string, payload []byte)
	for pattern, hs := range b.handlers {
		if patternMatches(pattern, topic) {
			targets = append(targets, hs...)
		}
	}
	b.mu.Unlock()

	for _, h := range targets {
		h(topic, payload)
	}
	return nil
}

func (b *InMemoryBus) Subscribe(ctx context.Context, topicPattern string, handler func(topic string, payload []byte)) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topicPattern] = append(b.handlers[topicPattern], handler)
	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, topicPattern)
		return nil
	}, nil
}

// Published returns messages whose topic carries the given prefix.
func (b *InMemoryBus) Published(prefix string) []BusMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []BusMessage
	for _, m := range b.published {
		if strings.HasPrefix(m.Topic, prefix) {
			out = append(out, m)
		}
	}
	return out
}

func patternMatches(pattern, topic string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(topic, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == topic
}
