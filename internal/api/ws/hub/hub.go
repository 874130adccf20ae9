package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"werewolf-service/domain"
)

// Message is the envelope exchanged with clients, matching the bus envelope.
type Message struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type outMessage struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// GameService is the slice of the engine the hub drives. Implemented by the
// ws usecase layer.
type GameService interface {
	Snapshot(roomID, userID uuid.UUID) (any, error)
	Start(ctx context.Context, roomID, userID uuid.UUID) error
	CastVote(ctx context.Context, roomID, userID uuid.UUID, targetID *uuid.UUID) error
	NightAction(ctx context.Context, roomID, userID uuid.UUID, action string, targetID *uuid.UUID, metadata map[string]string) error
	HunterShoot(ctx context.Context, roomID, userID, targetID uuid.UUID) error
	DictatorCoup(ctx context.Context, roomID, userID, targetID uuid.UUID) error
	CupidLink(ctx context.Context, roomID, userID, player1, player2 uuid.UUID) error
	WitchPotion(ctx context.Context, roomID, userID uuid.UUID, potionType string, targetID *uuid.UUID) error
	PlayerID(roomID, userID uuid.UUID) (uuid.UUID, bool)
	Connected(ctx context.Context, roomID, userID uuid.UUID)
	Disconnected(roomID, userID uuid.UUID)
}

// Bus is the subscribe side of the event bus the hub fans out from.
type Bus interface {
	Subscribe(ctx context.Context, topicPattern string, handler func(topic string, payload []byte)) (func() error, error)
}

// Hub owns every socket in the process, keyed by room and user. Delivery is
// at-most-once: a full or closed send channel drops the message and the
// client catches up from a snapshot.
type Hub struct {
	mutex        sync.RWMutex
	roomsClients map[uuid.UUID]map[uuid.UUID]*domain.Client

	bus     Bus
	service GameService
	ctx     context.Context

	register   chan *domain.Client
	unregister chan *domain.Client

	subscribers *roomSubscribers
}

func NewHub(bus Bus, service GameService) *Hub {
	h := &Hub{
		roomsClients: make(map[uuid.UUID]map[uuid.UUID]*domain.Client),
		bus:          bus,
		service:      service,
		ctx:          context.Background(),
		register:     make(chan *domain.Client),
		unregister:   make(chan *domain.Client, 20),
	}
	h.subscribers = newRoomSubscribers(bus, h)
	return h
}

// Run drives registration until the context ends.
func (h *Hub) Run(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-h.register:
				h.registerClient(client)
				go h.readPump(client)
				go h.writePump(client)
			case client := <-h.unregister:
				h.unregisterClient(client)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *Hub) RegisterClient(client *domain.Client) {
	h.register <- client
}

func (h *Hub) registerClient(client *domain.Client) {
	h.mutex.Lock()

	roomClients, ok := h.roomsClients[client.RoomID]
	if !ok {
		roomClients = make(map[uuid.UUID]*domain.Client)
		h.roomsClients[client.RoomID] = roomClients
	}

	if existing, ok := roomClients[client.UserID]; ok {
		zap.L().Info("closing previous connection on reconnect",
			zap.String("user_id", client.UserID.String()),
			zap.String("room_id", client.RoomID.String()))
		h.closeSendChannel(existing)
		closeQuietly(existing.Done)
		delete(roomClients, client.UserID)
	}

	firstInRoom := len(roomClients) == 0
	roomClients[client.UserID] = client
	h.mutex.Unlock()

	if firstInRoom {
		h.subscribers.start(client.RoomID)
	}
	h.service.Connected(h.ctx, client.RoomID, client.UserID)
	h.sendSnapshot(client)
}

func (h *Hub) unregisterClient(client *domain.Client) {
	h.mutex.Lock()

	roomClients, ok := h.roomsClients[client.RoomID]
	if !ok {
		h.mutex.Unlock()
		return
	}
	current, exists := roomClients[client.UserID]
	if !exists || current != client {
		// A reconnect already replaced this client.
		h.mutex.Unlock()
		return
	}

	delete(roomClients, client.UserID)
	empty := len(roomClients) == 0
	if empty {
		delete(h.roomsClients, client.RoomID)
	}
	h.mutex.Unlock()

	h.closeSendChannel(client)
	closeQuietly(client.Done)
	if empty {
		h.subscribers.stop(client.RoomID)
	}
	h.service.Disconnected(client.RoomID, client.UserID)
}

func (h *Hub) closeSendChannel(client *domain.Client) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Debug("send channel already closed", zap.Any("recovered", r))
		}
	}()
	close(client.Send)
}

func closeQuietly(ch chan struct{}) {
	defer func() { recover() }()
	close(ch)
}

// readPump parses inbound client events and dispatches them to the engine.
// Failures travel back to this client only.
func (h *Hub) readPump(client *domain.Client) {
	defer func() {
		h.unregister <- client
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := client.Conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.L().Debug("client read error", zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.sendError(client, "malformed message")
			continue
		}

		if err := h.dispatch(client, &msg); err != nil {
			h.sendError(client, err.Error())
		}
	}
}

func (h *Hub) dispatch(client *domain.Client, msg *Message) error {
	ctx := h.ctx
	roomID, userID := client.RoomID, client.UserID

	switch msg.Type {
	case "game:state":
		h.sendSnapshot(client)
		return nil

	case "game:start":
		return h.service.Start(ctx, roomID, userID)

	case "vote:cast":
		var content struct {
			TargetID *uuid.UUID `json:"targetId"`
		}
		if err := json.Unmarshal(msg.Content, &content); err != nil {
			return fmt.Errorf("%w: malformed vote", domain.ErrValidation)
		}
		return h.service.CastVote(ctx, roomID, userID, content.TargetID)

	case "action:night":
		var content struct {
			Action   string            `json:"action"`
			TargetID *uuid.UUID        `json:"targetId"`
			Metadata map[string]string `json:"metadata"`
		}
		if err := json.Unmarshal(msg.Content, &content); err != nil {
			return fmt.Errorf("%w: malformed night action", domain.ErrValidation)
		}
		return h.service.NightAction(ctx, roomID, userID, content.Action, content.TargetID, content.Metadata)

	case "hunter:revenge":
		var content struct {
			TargetID uuid.UUID `json:"targetId"`
		}
		if err := json.Unmarshal(msg.Content, &content); err != nil {
			return fmt.Errorf("%w: malformed revenge", domain.ErrValidation)
		}
		return h.service.HunterShoot(ctx, roomID, userID, content.TargetID)

	case "dictator:coup":
		var content struct {
			TargetID uuid.UUID `json:"targetId"`
		}
		if err := json.Unmarshal(msg.Content, &content); err != nil {
			return fmt.Errorf("%w: malformed coup", domain.ErrValidation)
		}
		return h.service.DictatorCoup(ctx, roomID, userID, content.TargetID)

	case "cupid:link":
		var content struct {
			Player1ID uuid.UUID `json:"player1Id"`
			Player2ID uuid.UUID `json:"player2Id"`
		}
		if err := json.Unmarshal(msg.Content, &content); err != nil {
			return fmt.Errorf("%w: malformed link", domain.ErrValidation)
		}
		return h.service.CupidLink(ctx, roomID, userID, content.Player1ID, content.Player2ID)

	case "witch:potion":
		var content struct {
			Type     string     `json:"type"`
			TargetID *uuid.UUID `json:"targetId"`
		}
		if err := json.Unmarshal(msg.Content, &content); err != nil {
			return fmt.Errorf("%w: malformed potion", domain.ErrValidation)
		}
		return h.service.WitchPotion(ctx, roomID, userID, content.Type, content.TargetID)
	}

	return fmt.Errorf("%w: unknown message type %q", domain.ErrValidation, msg.Type)
}

func (h *Hub) sendSnapshot(client *domain.Client) {
	snapshot, err := h.service.Snapshot(client.RoomID, client.UserID)
	if err != nil {
		h.sendError(client, err.Error())
		return
	}
	h.sendToClient(client, &outMessage{Type: domain.EvtGameState, Content: snapshot})
}

func (h *Hub) sendError(client *domain.Client, detail string) {
	h.sendToClient(client, &outMessage{Type: domain.EvtError, Content: detail})
}

func (h *Hub) sendToClient(client *domain.Client, msg *outMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		zap.L().Error("failed to marshal outbound message", zap.Error(err))
		return
	}
	h.deliver(client, payload)
}

func (h *Hub) deliver(client *domain.Client, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Debug("send channel closed, dropping message",
				zap.String("user_id", client.UserID.String()))
		}
	}()
	select {
	case client.Send <- payload:
	default:
		zap.L().Warn("send channel full, dropping message",
			zap.String("user_id", client.UserID.String()))
	}
}

// broadcastRaw fans a pre-marshalled bus payload to everyone in the room.
func (h *Hub) broadcastRaw(roomID uuid.UUID, payload []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for _, client := range h.roomsClients[roomID] {
		h.deliver(client, payload)
	}
}

// deliverToPlayer sends a private payload to the one socket owning the
// player, if connected.
func (h *Hub) deliverToPlayer(roomID, playerID uuid.UUID, payload []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for _, client := range h.roomsClients[roomID] {
		if client.PlayerID == playerID {
			h.deliver(client, payload)
			return
		}
	}
}

// writePump flushes the send channel and keeps the connection alive.
func (h *Hub) writePump(client *domain.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			client.WriteLock.Lock()
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := client.Conn.WriteMessage(websocket.TextMessage, msg)
			client.WriteLock.Unlock()
			if err != nil {
				return
			}

		case <-ticker.C:
			client.WriteLock.Lock()
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := client.Conn.WriteMessage(websocket.PingMessage, nil)
			client.WriteLock.Unlock()
			if err != nil {
				return
			}

		case <-client.Done:
			return
		}
	}
}
