package httpHandler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	httpUsecase "werewolf-service/internal/api/http/usecase"
)

type GetRoomsRequest struct{}

type GetRoomsResponse struct {
	Rooms []httpUsecase.RoomListing `json:"rooms"`
}

type GetRoomsHandler struct {
	usecase *httpUsecase.GetRoomsUseCase
}

func NewGetRoomsHandler(usecase *httpUsecase.GetRoomsUseCase) *GetRoomsHandler {
	return &GetRoomsHandler{usecase: usecase}
}

func (h *GetRoomsHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *GetRoomsRequest) (*GetRoomsResponse, error) {
	return &GetRoomsResponse{Rooms: h.usecase.Execute()}, nil
}
