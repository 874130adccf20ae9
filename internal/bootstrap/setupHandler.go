package bootstrap

import (
	httpHandler "werewolf-service/internal/api/http/handler"
	httpUsecase "werewolf-service/internal/api/http/usecase"
	kafkaHandler "werewolf-service/internal/api/kafka"
	wsHandler "werewolf-service/internal/api/ws/handler"
	"werewolf-service/internal/api/ws/hub"
	wsUsecase "werewolf-service/internal/api/ws/usecase"
	"werewolf-service/internal/game"
	"werewolf-service/internal/messaging"
)

func SetupHTTPHandlers(registry *game.Registry) map[string]interface{} {
	createRoomUseCase := httpUsecase.NewCreateRoomUseCase(registry)
	createRoomHandler := httpHandler.NewCreateRoomHandler(createRoomUseCase)

	joinRoomUseCase := httpUsecase.NewJoinRoomUseCase(registry)
	joinRoomHandler := httpHandler.NewJoinRoomHandler(joinRoomUseCase)
	joinByCodeHandler := httpHandler.NewJoinByCodeHandler(joinRoomUseCase)

	leaveRoomUseCase := httpUsecase.NewLeaveRoomUseCase(registry)
	leaveRoomHandler := httpHandler.NewLeaveRoomHandler(leaveRoomUseCase)

	getRoomsUseCase := httpUsecase.NewGetRoomsUseCase(registry)
	getRoomsHandler := httpHandler.NewGetRoomsHandler(getRoomsUseCase)

	roomStateUseCase := httpUsecase.NewRoomStateUseCase(registry)
	roomStateHandler := httpHandler.NewRoomStateHandler(roomStateUseCase)

	return map[string]interface{}{
		"create-room":  createRoomHandler,
		"join-room":    joinRoomHandler,
		"join-by-code": joinByCodeHandler,
		"leave-room":   leaveRoomHandler,
		"get-rooms":    getRoomsHandler,
		"room-state":   roomStateHandler,
	}
}

func SetupWSHandlers(registry *game.Registry, wsHub *hub.Hub, service hub.GameService) map[string]interface{} {
	roomConnectHandler := wsHandler.NewWebSocketRoomHandler(wsHub, service)
	return map[string]interface{}{
		"room-connect": roomConnectHandler,
	}
}

func SetupGameService(registry *game.Registry) hub.GameService {
	return wsUsecase.NewGameService(registry)
}

func SetupMessageHandlers(users kafkaHandler.UserWriter) map[string]messaging.Handler {
	createdUserHandler := kafkaHandler.NewCreatedUserHandler(users)
	return map[string]messaging.Handler{
		messaging.TypeUserCreated: createdUserHandler,
	}
}
