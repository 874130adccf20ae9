package httpHandler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	httpUsecase "werewolf-service/internal/api/http/usecase"
	"werewolf-service/internal/handler"
)

type LeaveRoomRequest struct {
	RoomID uuid.UUID `params:"room_id" validate:"required"`
}

type LeaveRoomResponse struct {
	Left bool `json:"left"`
}

type LeaveRoomHandler struct {
	usecase *httpUsecase.LeaveRoomUseCase
}

func NewLeaveRoomHandler(usecase *httpUsecase.LeaveRoomUseCase) *LeaveRoomHandler {
	return &LeaveRoomHandler{usecase: usecase}
}

func (h *LeaveRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *LeaveRoomRequest) (*LeaveRoomResponse, error) {
	userID, _ := handler.CallerID(fbrCtx)

	if err := h.usecase.Execute(ctx, req.RoomID, userID); err != nil {
		return nil, err
	}
	return &LeaveRoomResponse{Left: true}, nil
}
