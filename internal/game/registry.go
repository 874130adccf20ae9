package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"werewolf-service/domain"
)

// Registry maps room ids to live room handles. It is the only shared mutable
// structure; everything per-game lives behind the room's own lock.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]*Room
	closed bool

	store  Store
	bus    EventBus
	timers TimerStore
	cfg    Config

	// newSeed is swapped in tests for deterministic rooms.
	newSeed func() int64
}

func NewRegistry(store Store, bus EventBus, timers TimerStore, cfg Config) *Registry {
	return &Registry{
		rooms:   make(map[uuid.UUID]*Room),
		store:   store,
		bus:     bus,
		timers:  timers,
		cfg:     cfg,
		newSeed: func() int64 { return time.Now().UnixNano() },
	}
}

// CreateRoomParams is the per-room configuration chosen at creation.
type CreateRoomParams struct {
	Name          string
	HostUserID    uuid.UUID
	HostUsername  string
	MinPlayers    int
	MaxPlayers    int
	IsPrivate     bool
	PasswordHash  string
	NightDuration int
	DayDuration   int
	VoteDuration  int
}

func (p *CreateRoomParams) applyDefaults(cfg Config) {
	if p.NightDuration == 0 {
		p.NightDuration = cfg.DefaultNightDuration
	}
	if p.DayDuration == 0 {
		p.DayDuration = cfg.DefaultDayDuration
	}
	if p.VoteDuration == 0 {
		p.VoteDuration = cfg.DefaultVoteDuration
	}
}

func (p *CreateRoomParams) validate() error {
	if len(p.Name) < 1 || len(p.Name) > 50 {
		return fmt.Errorf("%w: room name must be 1-50 characters", domain.ErrValidation)
	}
	if p.MinPlayers < 5 || p.MinPlayers > 15 {
		return fmt.Errorf("%w: minPlayers must be within [5,15]", domain.ErrValidation)
	}
	if p.MaxPlayers < 5 || p.MaxPlayers > 15 {
		return fmt.Errorf("%w: maxPlayers must be within [5,15]", domain.ErrValidation)
	}
	if p.MinPlayers > p.MaxPlayers {
		return fmt.Errorf("%w: minPlayers exceeds maxPlayers", domain.ErrValidation)
	}
	if p.NightDuration < 30 || p.NightDuration > 180 {
		return fmt.Errorf("%w: nightDuration must be within [30,180]", domain.ErrValidation)
	}
	if p.DayDuration < 60 || p.DayDuration > 300 {
		return fmt.Errorf("%w: dayDuration must be within [60,300]", domain.ErrValidation)
	}
	if p.VoteDuration < 30 || p.VoteDuration > 120 {
		return fmt.Errorf("%w: voteDuration must be within [30,120]", domain.ErrValidation)
	}
	return nil
}

// CreateRoom allocates a code, persists the room and seats the host.
func (g *Registry) CreateRoom(ctx context.Context, params CreateRoomParams) (*Room, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: shutting down", domain.ErrPrecondition)
	}
	g.mu.Unlock()

	params.applyDefaults(g.cfg)
	if err := params.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(g.newSeed()))
	code, err := generateRoomCode(ctx, g.store, rng)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &domain.Room{
		ID:             uuid.New(),
		Code:           code,
		Name:           params.Name,
		HostUserID:     params.HostUserID,
		State:          domain.RoomWaiting,
		Phase:          domain.PhaseLobby,
		DayNumber:      0,
		PhaseStartedAt: now,
		NightDuration:  params.NightDuration,
		DayDuration:    params.DayDuration,
		VoteDuration:   params.VoteDuration,
		MinPlayers:     params.MinPlayers,
		MaxPlayers:     params.MaxPlayers,
		IsPrivate:      params.IsPrivate,
		PasswordHash:   params.PasswordHash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := g.store.CreateRoom(ctx, rec); err != nil {
		return nil, fmt.Errorf("%w: create room: %v", domain.ErrInternal, err)
	}

	room := newRoom(rec, nil, g.store, g.bus, g.timers, g.cfg, rng)
	if _, err := room.Join(ctx, params.HostUserID, params.HostUsername); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.rooms[rec.ID] = room
	g.mu.Unlock()

	zap.L().Info("room created",
		zap.String("room_id", rec.ID.String()),
		zap.String("code", code),
		zap.String("host", params.HostUserID.String()))
	return room, nil
}

// Get returns the live handle for a room id.
func (g *Registry) Get(roomID uuid.UUID) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("%w: room %s", domain.ErrNotFound, roomID)
	}
	return room, nil
}

// GetByCode resolves a join code against the active (non-terminal) rooms.
func (g *Registry) GetByCode(code string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, room := range g.rooms {
		if room.Code() == code && !room.State().Terminal() {
			return room, nil
		}
	}
	return nil, fmt.Errorf("%w: room code %s", domain.ErrNotFound, code)
}

// ListWaiting returns public waiting rooms for the lobby listing.
func (g *Registry) ListWaiting() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*Room
	for _, room := range g.rooms {
		room.mu.Lock()
		waiting := room.room.State == domain.RoomWaiting && !room.room.IsPrivate
		room.mu.Unlock()
		if waiting {
			out = append(out, room)
		}
	}
	return out
}

// HandleExpiry is the TimerService callback. Entries for unknown or finished
// rooms are stale and silently dropped.
func (g *Registry) HandleExpiry(ctx context.Context, entry TimerEntry) error {
	room, err := g.Get(entry.RoomID)
	if err != nil {
		zap.L().Debug("dropping timer for unknown room",
			zap.String("room_id", entry.RoomID.String()))
		return nil
	}
	return room.HandleExpiry(ctx, entry.Phase)
}

// Recover reloads every non-terminal room from the store after a restart.
// Past-due phase deadlines are handled by the timer dispatcher's first drain.
func (g *Registry) Recover(ctx context.Context) error {
	recs, err := g.store.ListRoomsInPhase(ctx,
		domain.PhaseLobby, domain.PhaseRoleAssignment, domain.PhaseNight,
		domain.PhaseDayDiscussion, domain.PhaseDayVoting)
	if err != nil {
		return fmt.Errorf("%w: list active rooms: %v", domain.ErrInternal, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, rec := range recs {
		players, err := g.store.ListPlayers(ctx, rec.ID)
		if err != nil {
			zap.L().Error("failed to load players during recovery",
				zap.String("room_id", rec.ID.String()), zap.Error(err))
			continue
		}
		rng := rand.New(rand.NewSource(g.newSeed()))
		g.rooms[rec.ID] = newRoom(rec, players, g.store, g.bus, g.timers, g.cfg, rng)
	}
	zap.L().Info("recovered active rooms", zap.Int("count", len(recs)))
	return nil
}

// Sweep drops finished rooms from the map, cancels abandoned lobbies and
// expires stale hunter windows. Run periodically.
func (g *Registry) Sweep(ctx context.Context, now time.Time) {
	g.mu.Lock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.Unlock()

	for _, room := range rooms {
		room.ExpireHunterWindows(now)
		if cancelled, err := room.CancelIfAbandoned(ctx, now); err != nil {
			zap.L().Error("abandon sweep failed", zap.Error(err))
		} else if cancelled {
			zap.L().Info("cancelled abandoned room", zap.String("room_id", room.ID().String()))
		}
		if room.State().Terminal() {
			g.mu.Lock()
			delete(g.rooms, room.ID())
			g.mu.Unlock()
		}
	}
}

// Shutdown stops accepting new rooms. Room state is write-through, so there
// is nothing further to flush here; timers and infra close after this.
func (g *Registry) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	zap.L().Info("registry closed", zap.Int("active_rooms", len(g.rooms)))
	return nil
}
