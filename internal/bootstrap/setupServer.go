package bootstrap

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"werewolf-service/config"
	httpHandler "werewolf-service/internal/api/http/handler"
	wsHandler "werewolf-service/internal/api/ws/handler"
	"werewolf-service/internal/handler"
	"werewolf-service/internal/server"
)

func SetupServer(appConfig config.Config, httpHandlers, wsHandlers map[string]interface{}) *fiber.App {
	serverConfig := server.Config{
		Port:           appConfig.Server.Port,
		FrontendOrigin: appConfig.Server.FrontendOrigin,
		IdleTimeout:    5 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
	}

	app := server.NewFiberApp(serverConfig)
	app.Use(handler.RateLimit(rate.Limit(20), 40))

	auth := handler.AuthGuard(appConfig.JWT.Secret)

	createRoomHandler := httpHandlers["create-room"].(*httpHandler.CreateRoomHandler)
	joinRoomHandler := httpHandlers["join-room"].(*httpHandler.JoinRoomHandler)
	joinByCodeHandler := httpHandlers["join-by-code"].(*httpHandler.JoinByCodeHandler)
	leaveRoomHandler := httpHandlers["leave-room"].(*httpHandler.LeaveRoomHandler)
	getRoomsHandler := httpHandlers["get-rooms"].(*httpHandler.GetRoomsHandler)
	roomStateHandler := httpHandlers["room-state"].(*httpHandler.RoomStateHandler)

	rooms := app.Group("/rooms", auth)
	rooms.Post("/", handler.HandleWithFiber[httpHandler.CreateRoomRequest, httpHandler.CreateRoomResponse](createRoomHandler))
	rooms.Get("/", handler.HandleWithFiber[httpHandler.GetRoomsRequest, httpHandler.GetRoomsResponse](getRoomsHandler))
	rooms.Post("/code/:code/join", handler.HandleWithFiber[httpHandler.JoinByCodeRequest, httpHandler.JoinRoomResponse](joinByCodeHandler))
	rooms.Get("/:room_id", handler.HandleWithFiber[httpHandler.RoomStateRequest, httpHandler.RoomStateResponse](roomStateHandler))
	rooms.Post("/:room_id/join", handler.HandleWithFiber[httpHandler.JoinRoomRequest, httpHandler.JoinRoomResponse](joinRoomHandler))
	rooms.Post("/:room_id/leave", handler.HandleWithFiber[httpHandler.LeaveRoomRequest, httpHandler.LeaveRoomResponse](leaveRoomHandler))

	roomConnectHandler := wsHandlers["room-connect"].(*wsHandler.WebSocketRoomHandler)
	wsRoute := app.Group("/ws", auth)
	wsRoute.Get("/game/:room_id", handler.HandleWithFiberWS[wsHandler.WebSocketRoomRequest](roomConnectHandler))

	return app
}
