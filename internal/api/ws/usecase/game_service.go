package wsUsecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"werewolf-service/domain"
	"werewolf-service/internal/game"
)

// GameService adapts the room registry to the hub's dispatch interface. Each
// call resolves the room handle and forwards under its critical section.
type GameService struct {
	registry *game.Registry
}

func NewGameService(registry *game.Registry) *GameService {
	return &GameService{registry: registry}
}

func (s *GameService) Snapshot(roomID, userID uuid.UUID) (any, error) {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return nil, err
	}
	return room.Snapshot(userID), nil
}

func (s *GameService) Start(ctx context.Context, roomID, userID uuid.UUID) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return room.StartGame(ctx, userID)
}

func (s *GameService) CastVote(ctx context.Context, roomID, userID uuid.UUID, targetID *uuid.UUID) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return room.CastVote(ctx, userID, targetID)
}

// nightActions maps the wire action names to the engine's action types.
var nightActions = map[string]domain.ActionType{
	"guard:protect":      domain.ActionGuardProtect,
	"werewolf:vote":      domain.ActionWerewolfVote,
	"white_wolf:devour":  domain.ActionWhiteWolfDevour,
	"black_wolf:convert": domain.ActionBlackWolfConvert,
	"seer:investigate":   domain.ActionSeerInvestigate,
	"heir:choose":        domain.ActionHeirChoose,
}

func (s *GameService) NightAction(ctx context.Context, roomID, userID uuid.UUID, action string, targetID *uuid.UUID, metadata map[string]string) error {
	actionType, ok := nightActions[action]
	if !ok {
		return fmt.Errorf("%w: unknown night action %q", domain.ErrValidation, action)
	}
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return room.SubmitNightAction(ctx, userID, game.NightActionInput{
		ActionType: actionType,
		TargetID:   targetID,
		Metadata:   metadata,
	})
}

func (s *GameService) HunterShoot(ctx context.Context, roomID, userID, targetID uuid.UUID) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return room.HunterShoot(ctx, userID, targetID)
}

func (s *GameService) DictatorCoup(ctx context.Context, roomID, userID, targetID uuid.UUID) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return room.DictatorCoup(ctx, userID, targetID)
}

func (s *GameService) CupidLink(ctx context.Context, roomID, userID, player1, player2 uuid.UUID) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return room.SubmitNightAction(ctx, userID, game.NightActionInput{
		ActionType: domain.ActionCupidLink,
		Metadata: map[string]string{
			"player1_id": player1.String(),
			"player2_id": player2.String(),
		},
	})
}

func (s *GameService) WitchPotion(ctx context.Context, roomID, userID uuid.UUID, potionType string, targetID *uuid.UUID) error {
	var actionType domain.ActionType
	switch potionType {
	case "heal":
		actionType = domain.ActionWitchHeal
	case "poison":
		actionType = domain.ActionWitchPoison
	default:
		return fmt.Errorf("%w: unknown potion %q", domain.ErrValidation, potionType)
	}
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return room.SubmitNightAction(ctx, userID, game.NightActionInput{
		ActionType: actionType,
		TargetID:   targetID,
	})
}

func (s *GameService) PlayerID(roomID, userID uuid.UUID) (uuid.UUID, bool) {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return uuid.Nil, false
	}
	return room.PlayerIDFor(userID)
}

func (s *GameService) Connected(ctx context.Context, roomID, userID uuid.UUID) {
	if room, err := s.registry.Get(roomID); err == nil {
		room.Reconnected(ctx, userID)
	}
}

func (s *GameService) Disconnected(roomID, userID uuid.UUID) {
	if room, err := s.registry.Get(roomID); err == nil {
		room.Disconnected(userID)
	}
}
