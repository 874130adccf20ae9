package wsHandler

import (
	"context"
	"fmt"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"werewolf-service/domain"
	"werewolf-service/internal/api/ws/hub"
)

// WebSocketRoomHandler upgrades an authenticated connection and hands it to
// the hub.
type WebSocketRoomHandler struct {
	hub     *hub.Hub
	service hub.GameService
}

type WebSocketRoomRequest struct{}

func NewWebSocketRoomHandler(h *hub.Hub, service hub.GameService) *WebSocketRoomHandler {
	return &WebSocketRoomHandler{hub: h, service: service}
}

func (h *WebSocketRoomHandler) sendErrorAndClose(conn *websocket.Conn, msg string) {
	errorMessage := domain.WebSocketErrorMessage{Type: domain.EvtError, Message: msg}
	if err := conn.WriteJSON(errorMessage); err != nil {
		fmt.Printf("Failed to send error message to client: %v\n", err)
	}
	conn.Close()
}

func (h *WebSocketRoomHandler) HandleWS(c *websocket.Conn, ctx context.Context, req *WebSocketRoomRequest) {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	if !ok {
		h.sendErrorAndClose(c, "unauthorized")
		return
	}

	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		h.sendErrorAndClose(c, fmt.Sprintf("Failed to parse room ID: %v", err))
		return
	}

	playerID, ok := h.service.PlayerID(roomID, userID)
	if !ok {
		h.sendErrorAndClose(c, "not a member of this room")
		return
	}

	client := &domain.Client{
		UserID:   userID,
		PlayerID: playerID,
		RoomID:   roomID,
		Conn:     c,
		Send:     make(chan []byte, 256),
		Done:     make(chan struct{}),
	}
	h.hub.RegisterClient(client)

	// Block until the hub tears the client down; returning closes the
	// underlying connection.
	<-client.Done
}
