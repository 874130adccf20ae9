package game

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"werewolf-service/domain"
)

// Room is the runtime handle for one game room. All state behind mu: the
// per-room critical section the concurrency model requires. There is no
// global lock; rooms progress independently.
type Room struct {
	mu     sync.Mutex
	store  Store
	bus    EventBus
	timers TimerStore
	cfg    Config
	rng    *rand.Rand

	room    *domain.Room
	players map[uuid.UUID]*domain.Player

	// pendingHunters maps a dead hunter to the deadline of its revenge shot.
	pendingHunters map[uuid.UUID]time.Time
	// lastNightDeaths is what the resolver committed, announced at day start.
	lastNightDeaths []deathRecord
	// disconnects maps userID to the running grace timer.
	disconnects map[uuid.UUID]*time.Timer
}

type deathRecord struct {
	PlayerID uuid.UUID
	Cause    domain.DeathCause
	Role     domain.GameRole
}

func newRoom(rec *domain.Room, players []*domain.Player, store Store, bus EventBus, timers TimerStore, cfg Config, rng *rand.Rand) *Room {
	r := &Room{
		store:          store,
		bus:            bus,
		timers:         timers,
		cfg:            cfg,
		rng:            rng,
		room:           rec,
		players:        make(map[uuid.UUID]*domain.Player, len(players)),
		pendingHunters: make(map[uuid.UUID]time.Time),
		disconnects:    make(map[uuid.UUID]*time.Timer),
	}
	for _, p := range players {
		r.players[p.ID] = p
	}
	return r
}

func (r *Room) ID() uuid.UUID { return r.room.ID }

func (r *Room) Code() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.room.Code
}

// PlayerIDFor resolves a user to its player id within the room.
func (r *Room) PlayerIDFor(userID uuid.UUID) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.playerByUserID(userID); p != nil {
		return p.ID, true
	}
	return uuid.Nil, false
}

func (r *Room) State() domain.RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.room.State
}

// AccessInfo returns what a join attempt needs to check first.
func (r *Room) AccessInfo() (isPrivate bool, passwordHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.room.IsPrivate, r.room.PasswordHash
}

// --- player lookups (mu held) ---

func (r *Room) playerByUserID(userID uuid.UUID) *domain.Player {
	for _, p := range r.players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (r *Room) playersByPosition() []*domain.Player {
	out := make([]*domain.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (r *Room) alivePlayers() []*domain.Player {
	out := make([]*domain.Player, 0, len(r.players))
	for _, p := range r.playersByPosition() {
		if p.State == domain.PlayerAlive {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) nextFreePosition() int {
	taken := make(map[int]bool, len(r.players))
	for _, p := range r.players {
		taken[p.Position] = true
	}
	for pos := 1; ; pos++ {
		if !taken[pos] {
			return pos
		}
	}
}

// --- lobby ---

// Join adds a user to a waiting room, filling the smallest free position.
func (r *Room) Join(ctx context.Context, userID uuid.UUID, username string) (*domain.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.room.State != domain.RoomWaiting {
		return nil, fmt.Errorf("%w: room is not accepting players", domain.ErrPrecondition)
	}
	if existing := r.playerByUserID(userID); existing != nil {
		return nil, fmt.Errorf("%w: already joined", domain.ErrConflict)
	}
	if len(r.players) >= r.room.MaxPlayers {
		return nil, fmt.Errorf("%w: room is full", domain.ErrConflict)
	}

	player := &domain.Player{
		ID:       uuid.New(),
		RoomID:   r.room.ID,
		UserID:   userID,
		Username: username,
		Position: r.nextFreePosition(),
		State:    domain.PlayerAlive,
		JoinedAt: time.Now(),
	}
	if err := r.store.CreatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("%w: create player: %v", domain.ErrInternal, err)
	}
	r.players[player.ID] = player

	r.publishRoom(ctx, domain.EvtPlayerJoined, map[string]any{
		"player_id": player.ID,
		"user_id":   player.UserID,
		"username":  player.Username,
		"position":  player.Position,
	})
	return player, nil
}

// Leave removes a waiting player, or marks an in-game player disconnected.
// Host succession: lowest remaining position inherits; an empty waiting room
// is cancelled.
func (r *Room) Leave(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.playerByUserID(userID)
	if player == nil {
		return fmt.Errorf("%w: player not in room", domain.ErrNotFound)
	}

	if r.room.State != domain.RoomWaiting {
		if player.State == domain.PlayerAlive {
			player.State = domain.PlayerDisconnected
			if err := r.store.UpdatePlayer(ctx, player); err != nil {
				zap.L().Error("failed to mark player disconnected", zap.Error(err))
			}
			r.publishRoom(ctx, domain.EvtPlayerLeft, map[string]any{"player_id": player.ID})
		}
		return nil
	}

	return r.removeWaitingPlayer(ctx, player)
}

// removeWaitingPlayer deletes a lobby player and runs host succession.
// mu held.
func (r *Room) removeWaitingPlayer(ctx context.Context, player *domain.Player) error {
	if err := r.store.DeletePlayer(ctx, player.ID); err != nil {
		return fmt.Errorf("%w: delete player: %v", domain.ErrInternal, err)
	}
	delete(r.players, player.ID)
	r.publishRoom(ctx, domain.EvtPlayerLeft, map[string]any{"player_id": player.ID})

	if r.room.HostUserID == player.UserID {
		return r.succeedHost(ctx)
	}
	return nil
}

// succeedHost hands the room to the lowest-position remaining player, or
// cancels it when nobody is left. mu held.
func (r *Room) succeedHost(ctx context.Context) error {
	remaining := r.playersByPosition()
	if len(remaining) == 0 {
		return r.cancel(ctx, "host_left")
	}
	r.room.HostUserID = remaining[0].UserID
	if err := r.store.UpdateRoom(ctx, r.room); err != nil {
		return fmt.Errorf("%w: update room: %v", domain.ErrInternal, err)
	}
	r.publishRoom(ctx, domain.EvtHostChanged, map[string]any{
		"host_user_id": r.room.HostUserID,
	})
	return nil
}

// cancel terminates a room without a winner. mu held.
func (r *Room) cancel(ctx context.Context, reason string) error {
	if err := r.timers.Cancel(ctx, r.room.ID); err != nil {
		zap.L().Warn("failed to cancel timers", zap.Error(err))
	}
	r.room.State = domain.RoomCancelled
	r.room.Phase = domain.PhaseGameEnd
	r.room.PhaseEndsAt = nil
	r.room.EndReason = reason
	if err := r.store.UpdateRoom(ctx, r.room); err != nil {
		return fmt.Errorf("%w: update room: %v", domain.ErrInternal, err)
	}
	r.appendEvent(ctx, "room_cancelled", map[string]any{"reason": reason})
	return nil
}

// CancelIfAbandoned cancels a room still waiting once the abandon timeout has
// passed since its creation; joins and leaves do not reset the clock.
func (r *Room) CancelIfAbandoned(ctx context.Context, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.room.State != domain.RoomWaiting {
		return false, nil
	}
	if now.Sub(r.room.CreatedAt) < r.cfg.AbandonTimeout {
		return false, nil
	}
	if err := r.cancel(ctx, "abandoned"); err != nil {
		return false, err
	}
	return true, nil
}

// --- disconnect handling ---

// Disconnected starts the grace timer for a dropped socket. If the client
// does not return, a waiting player is removed and an in-game player keeps
// its slot marked DISCONNECTED.
func (r *Room) Disconnected(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playerByUserID(userID) == nil {
		return
	}
	if t, ok := r.disconnects[userID]; ok {
		t.Stop()
	}
	r.disconnects[userID] = time.AfterFunc(r.cfg.DisconnectGrace, func() {
		r.disconnectExpired(userID)
	})
}

func (r *Room) disconnectExpired(userID uuid.UUID) {
	ctx := context.Background()
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.disconnects, userID)
	player := r.playerByUserID(userID)
	if player == nil {
		return
	}

	if r.room.State == domain.RoomWaiting {
		if err := r.removeWaitingPlayer(ctx, player); err != nil {
			zap.L().Warn("failed to remove disconnected player", zap.Error(err))
		}
		return
	}

	if player.State == domain.PlayerAlive {
		player.State = domain.PlayerDisconnected
		if err := r.store.UpdatePlayer(ctx, player); err != nil {
			zap.L().Error("failed to mark player disconnected", zap.Error(err))
		}
		r.publishRoom(ctx, domain.EvtPlayerLeft, map[string]any{"player_id": player.ID})
	}
}

// Reconnected cancels the grace timer and restores a DISCONNECTED player.
func (r *Room) Reconnected(ctx context.Context, userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.disconnects[userID]; ok {
		t.Stop()
		delete(r.disconnects, userID)
	}
	player := r.playerByUserID(userID)
	if player == nil || player.State != domain.PlayerDisconnected {
		return
	}
	player.State = domain.PlayerAlive
	if err := r.store.UpdatePlayer(ctx, player); err != nil {
		zap.L().Error("failed to restore reconnected player", zap.Error(err))
	}
	r.publishRoom(ctx, domain.EvtPlayerJoined, map[string]any{
		"player_id":   player.ID,
		"reconnected": true,
	})
}

// --- game start ---

// StartGame deals roles and enters ROLE_ASSIGNMENT. The caller must be a
// member, and must be the host unless quorum is reached.
func (r *Room) StartGame(ctx context.Context, callerUserID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.room.State != domain.RoomWaiting {
		return fmt.Errorf("%w: game already started", domain.ErrPrecondition)
	}
	caller := r.playerByUserID(callerUserID)
	if caller == nil {
		return fmt.Errorf("%w: not a member of this room", domain.ErrAuth)
	}
	if callerUserID != r.room.HostUserID && len(r.players) < r.room.MinPlayers {
		return fmt.Errorf("%w: only the host can start", domain.ErrAuth)
	}
	if len(r.players) < r.room.MinPlayers {
		return fmt.Errorf("%w: need at least %d players", domain.ErrPrecondition, r.room.MinPlayers)
	}

	abilities := r.assignRoles(r.rng)
	err := r.store.WithRoomTransaction(ctx, r.room.ID, func(ctx context.Context) error {
		for _, p := range r.playersByPosition() {
			if err := r.store.UpdatePlayer(ctx, p); err != nil {
				return err
			}
			for _, a := range abilities[p.ID] {
				if err := r.store.UpsertAbility(ctx, a); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: persist role assignment: %v", domain.ErrInternal, err)
	}

	r.appendEvent(ctx, "game_started", map[string]any{"players": len(r.players)})
	return r.transitionTo(ctx, domain.PhaseRoleAssignment)
}

// --- phase machine ---

func nextPhase(phase domain.GamePhase) domain.GamePhase {
	switch phase {
	case domain.PhaseRoleAssignment:
		return domain.PhaseNight
	case domain.PhaseNight:
		return domain.PhaseDayDiscussion
	case domain.PhaseDayDiscussion:
		return domain.PhaseDayVoting
	case domain.PhaseDayVoting:
		return domain.PhaseNight
	}
	return domain.PhaseGameEnd
}

// HandleExpiry is invoked by the timer dispatcher. Entries for a phase the
// room has already left are stale and dropped.
func (r *Room) HandleExpiry(ctx context.Context, phase domain.GamePhase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.room.Phase != phase || r.room.State.Terminal() {
		return nil
	}
	return r.transitionTo(ctx, nextPhase(phase))
}

// transitionTo runs the full transition contract. mu held. The store commit
// happens inside the room transaction; on error the caller's timer entry is
// re-scheduled by the dispatcher, and re-running is idempotent.
func (r *Room) transitionTo(ctx context.Context, next domain.GamePhase) error {
	if err := r.timers.Cancel(ctx, r.room.ID); err != nil {
		zap.L().Warn("failed to clear phase timer", zap.Error(err))
	}

	outgoing := r.room.Phase
	var forced *domain.Team
	var gameOver bool

	err := r.store.WithRoomTransaction(ctx, r.room.ID, func(ctx context.Context) error {
		// Phase-end hook.
		switch outgoing {
		case domain.PhaseNight:
			if err := r.resolveNight(ctx); err != nil {
				return err
			}
		case domain.PhaseDayVoting:
			var err error
			forced, err = r.finalizeVotes(ctx)
			if err != nil {
				return err
			}
		}

		// Win check before entering the next phase.
		if forced != nil {
			return r.finishGame(ctx, forced, "win_condition")
		}
		if winner, over := evaluateWin(r.playersByPosition()); over {
			gameOver = true
			return r.finishGame(ctx, winner, "win_condition")
		}

		now := time.Now()
		r.room.Phase = next
		r.room.State = domain.StateFor(next)
		r.room.PhaseStartedAt = now
		if next == domain.PhaseNight {
			r.room.DayNumber++
		}
		if d := r.room.PhaseDuration(next); d > 0 {
			endsAt := now.Add(d)
			r.room.PhaseEndsAt = &endsAt
		} else {
			r.room.PhaseEndsAt = nil
		}
		if err := r.store.UpdateRoom(ctx, r.room); err != nil {
			return err
		}

		// Phase-start hook.
		switch next {
		case domain.PhaseRoleAssignment:
			r.startRoleAssignment(ctx)
		case domain.PhaseNight:
			if err := r.startNight(ctx); err != nil {
				return err
			}
		case domain.PhaseDayDiscussion:
			if err := r.startDayDiscussion(ctx); err != nil {
				return err
			}
		case domain.PhaseDayVoting:
			if err := r.startDayVoting(ctx); err != nil {
				return err
			}
		}

		// A phase-start hook can kill (little girl caught spying).
		if winner, over := evaluateWin(r.playersByPosition()); over {
			gameOver = true
			return r.finishGame(ctx, winner, "win_condition")
		}
		return nil
	})
	if err != nil {
		zap.L().Error("phase transition failed",
			zap.String("room_id", r.room.ID.String()),
			zap.String("from", string(outgoing)),
			zap.String("to", string(next)),
			zap.Error(err))
		return err
	}
	if forced != nil || gameOver {
		return nil
	}

	if r.room.PhaseEndsAt != nil {
		entry := TimerEntry{RoomID: r.room.ID, Phase: next, Deadline: *r.room.PhaseEndsAt}
		if err := r.timers.Schedule(ctx, entry); err != nil {
			zap.L().Error("failed to schedule phase timer", zap.Error(err))
		}
	}

	r.publishRoom(ctx, domain.EvtPhaseChange, map[string]any{
		"phase":         r.room.Phase,
		"state":         r.room.State,
		"day_number":    r.room.DayNumber,
		"phase_ends_at": r.room.PhaseEndsAt,
	})
	return nil
}

// startRoleAssignment privately reveals each player's role. mu held.
func (r *Room) startRoleAssignment(ctx context.Context) {
	for _, p := range r.playersByPosition() {
		r.publishPlayer(ctx, p.ID, domain.EvtRoleAssigned, map[string]any{
			"role": p.Role,
			"team": domain.TeamOf(p.Role),
		})
	}
}

// startNight purges stale submissions for this night, prompts night-capable
// roles, and resolves the Little Girl passive. mu held.
func (r *Room) startNight(ctx context.Context) error {
	day := r.room.DayNumber
	phase := domain.PhaseNight
	if err := r.store.DeleteActions(ctx, ActionFilter{
		RoomID: r.room.ID, DayNumber: &day, Phase: &phase,
	}); err != nil {
		return err
	}

	for _, p := range r.alivePlayers() {
		if domain.NightCapable(p.Role, day) {
			r.publishPlayer(ctx, p.ID, domain.EvtNightAbility, map[string]any{
				"role":       p.Role,
				"day_number": day,
			})
		}
		if day == 1 && (p.Role == domain.RoleCupid || p.Role == domain.RoleHeir) {
			r.publishPlayer(ctx, p.ID, domain.EvtFirstNightAction, map[string]any{
				"role": p.Role,
			})
		}
	}

	for _, p := range r.alivePlayers() {
		if p.Role != domain.RoleLittleGirl {
			continue
		}
		if r.rng.Float64() < r.cfg.LittleGirlCatchChance {
			if err := r.kill(ctx, p.ID, domain.CauseCaughtSpying); err != nil {
				return err
			}
		} else {
			r.publishPlayer(ctx, p.ID, domain.EvtNightAbility, map[string]any{
				"role":              p.Role,
				"wolf_channel_read": true,
				"valid_through_day": day,
			})
		}
	}
	return nil
}

// startDayDiscussion announces the night's deaths and any talkative seer
// result. mu held.
func (r *Room) startDayDiscussion(ctx context.Context) error {
	for _, d := range r.lastNightDeaths {
		r.publishRoom(ctx, domain.EvtNightDeath, map[string]any{
			"player_id": d.PlayerID,
			"cause":     d.Cause,
			"role":      d.Role,
		})
	}
	r.lastNightDeaths = nil

	day := r.room.DayNumber
	phase := domain.PhaseNight
	actionType := domain.ActionSeerInvestigate
	investigations, err := r.store.FindActions(ctx, ActionFilter{
		RoomID: r.room.ID, DayNumber: &day, Phase: &phase, ActionType: &actionType,
	})
	if err != nil {
		return err
	}
	for _, a := range investigations {
		performer := r.players[a.PerformerID]
		if performer == nil || performer.Role != domain.RoleTalkativeSeer || a.Result == "" || a.TargetID == nil {
			continue
		}
		r.publishRoom(ctx, domain.EvtTalkativeSeerResult, map[string]any{
			"target_id": a.TargetID,
			"role":      a.Result,
		})
	}
	return nil
}

// startDayVoting purges stale votes and opens the ballot. mu held.
func (r *Room) startDayVoting(ctx context.Context) error {
	day := r.room.DayNumber
	actionType := domain.ActionDayVote
	if err := r.store.DeleteActions(ctx, ActionFilter{
		RoomID: r.room.ID, DayNumber: &day, ActionType: &actionType,
	}); err != nil {
		return err
	}

	if day == 1 {
		for _, p := range r.alivePlayers() {
			if p.Role == domain.RoleMercenary {
				r.publishPlayer(ctx, p.ID, domain.EvtMercenaryReminder, map[string]any{
					"day_number": day,
				})
			}
		}
	}

	r.publishRoom(ctx, domain.EvtVotingStarted, map[string]any{
		"deadline": r.room.PhaseEndsAt,
	})
	return nil
}

// finishGame closes the room with a winner (nil = draw), reveals every role
// and updates user stats. mu held.
func (r *Room) finishGame(ctx context.Context, winner *domain.Team, reason string) error {
	if err := r.timers.Cancel(ctx, r.room.ID); err != nil {
		zap.L().Warn("failed to cancel timers", zap.Error(err))
	}

	r.room.Phase = domain.PhaseGameEnd
	r.room.State = domain.RoomEnded
	r.room.PhaseEndsAt = nil
	r.room.WinningTeam = winner
	r.room.EndReason = reason
	if err := r.store.UpdateRoom(ctx, r.room); err != nil {
		return err
	}

	reveal := make([]map[string]any, 0, len(r.players))
	for _, p := range r.playersByPosition() {
		p.IsRevealed = true
		if err := r.store.UpdatePlayer(ctx, p); err != nil {
			zap.L().Error("failed to reveal player", zap.Error(err))
		}
		won := winner != nil && domain.TeamOf(p.Role) == *winner
		if err := r.store.IncrementUserStats(ctx, p.UserID, 1, boolToInt(won)); err != nil {
			zap.L().Error("failed to update user stats", zap.Error(err))
		}
		reveal = append(reveal, map[string]any{
			"player_id": p.ID,
			"position":  p.Position,
			"role":      p.Role,
			"state":     p.State,
		})
	}

	content := map[string]any{
		"winning_team": winner,
		"reason":       reason,
		"players":      reveal,
	}
	r.appendEvent(ctx, domain.EvtGameEnded, content)
	r.publishRoom(ctx, domain.EvtGameEnded, content)
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
