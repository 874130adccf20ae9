package httpHandler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	httpUsecase "werewolf-service/internal/api/http/usecase"
	"werewolf-service/internal/handler"
)

type CreateRoomRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=50"`
	MinPlayers    int    `json:"min_players" validate:"required,min=5,max=15"`
	MaxPlayers    int    `json:"max_players" validate:"required,min=5,max=15"`
	IsPrivate     bool   `json:"is_private"`
	Password      string `json:"password" validate:"omitempty,min=4,max=50"`
	NightDuration int    `json:"night_duration" validate:"omitempty,min=30,max=180"`
	DayDuration   int    `json:"day_duration" validate:"omitempty,min=60,max=300"`
	VoteDuration  int    `json:"vote_duration" validate:"omitempty,min=30,max=120"`
}

type CreateRoomResponse struct {
	RoomID uuid.UUID `json:"room_id"`
	Code   string    `json:"code"`
}

type CreateRoomHandler struct {
	usecase *httpUsecase.CreateRoomUseCase
}

func NewCreateRoomHandler(usecase *httpUsecase.CreateRoomUseCase) *CreateRoomHandler {
	return &CreateRoomHandler{usecase: usecase}
}

func (h *CreateRoomHandler) Handle(fbrCtx *fiber.Ctx, ctx context.Context, req *CreateRoomRequest) (*CreateRoomResponse, error) {
	userID, username := handler.CallerID(fbrCtx)

	room, err := h.usecase.Execute(ctx, httpUsecase.CreateRoomInput{
		Name:          req.Name,
		HostUserID:    userID,
		HostUsername:  username,
		MinPlayers:    req.MinPlayers,
		MaxPlayers:    req.MaxPlayers,
		IsPrivate:     req.IsPrivate,
		Password:      req.Password,
		NightDuration: req.NightDuration,
		DayDuration:   req.DayDuration,
		VoteDuration:  req.VoteDuration,
	})
	if err != nil {
		return nil, err
	}
	return &CreateRoomResponse{RoomID: room.ID(), Code: room.Code()}, nil
}
