package httpHandler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	httpUsecase "werewolf-service/internal/api/http/usecase"
	"werewolf-service/internal/handler"
)

type JoinRoomRequest struct {
	RoomID   uuid.UUID `params:"room_id" validate:"required"`
	Password string    `json:"password"`
}

type JoinRoomResponse struct {
	PlayerID uuid.UUID `json:"player_id"`
	Position int       `json:"position"`
}

type JoinRoomHandler struct {
	usecase *httpUsecase.JoinRoomUseCase
}

func NewJoinRoomHandler(usecase *httpUsecase.JoinRoomUseCase) *JoinRoomHandler {
	return &JoinRoomHandler{usecase: usecase}
}

func (h *JoinRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *JoinRoomRequest) (*JoinRoomResponse, error) {
	userID, username := handler.CallerID(fbrCtx)

	player, err := h.usecase.Execute(ctx, req.RoomID, userID, username, req.Password)
	if err != nil {
		return nil, err
	}
	return &JoinRoomResponse{PlayerID: player.ID, Position: player.Position}, nil
}

// JoinByCodeRequest joins through the shareable 6-char code.
type JoinByCodeRequest struct {
	Code     string `params:"code" validate:"required,len=6"`
	Password string `json:"password"`
}

type JoinByCodeHandler struct {
	usecase *httpUsecase.JoinRoomUseCase
}

func NewJoinByCodeHandler(usecase *httpUsecase.JoinRoomUseCase) *JoinByCodeHandler {
	return &JoinByCodeHandler{usecase: usecase}
}

func (h *JoinByCodeHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *JoinByCodeRequest) (*JoinRoomResponse, error) {
	userID, username := handler.CallerID(fbrCtx)

	player, err := h.usecase.ExecuteByCode(ctx, req.Code, userID, username, req.Password)
	if err != nil {
		return nil, err
	}
	return &JoinRoomResponse{PlayerID: player.ID, Position: player.Position}, nil
}
