package domain

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// WebSocketErrorMessage is sent before closing a rejected connection.
type WebSocketErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Client is one authenticated socket attached to a room.
type Client struct {
	UserID    uuid.UUID
	PlayerID  uuid.UUID
	RoomID    uuid.UUID
	Send      chan []byte
	Conn      *websocket.Conn
	WriteLock sync.Mutex
	Done      chan struct{}
}
