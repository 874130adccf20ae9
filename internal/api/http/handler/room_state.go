package httpHandler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	httpUsecase "werewolf-service/internal/api/http/usecase"
	"werewolf-service/internal/game"
	"werewolf-service/internal/handler"
)

type RoomStateRequest struct {
	RoomID uuid.UUID `params:"room_id" validate:"required"`
}

type RoomStateResponse struct {
	Room *game.Snapshot `json:"room"`
}

type RoomStateHandler struct {
	usecase *httpUsecase.RoomStateUseCase
}

func NewRoomStateHandler(usecase *httpUsecase.RoomStateUseCase) *RoomStateHandler {
	return &RoomStateHandler{usecase: usecase}
}

func (h *RoomStateHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *RoomStateRequest) (*RoomStateResponse, error) {
	userID, _ := handler.CallerID(fbrCtx)

	snapshot, err := h.usecase.Execute(req.RoomID, userID)
	if err != nil {
		return nil, err
	}
	return &RoomStateResponse{Room: snapshot}, nil
}
