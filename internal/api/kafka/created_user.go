package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"werewolf-service/internal/messaging"
)

// UserWriter is the slice of the store this handler needs.
type UserWriter interface {
	UpsertUser(ctx context.Context, userID uuid.UUID, username string) error
}

// CreatedUserHandler mirrors users created by the account service into the
// local table so stats rows have something to attach to.
type CreatedUserHandler struct {
	users UserWriter
}

func NewCreatedUserHandler(users UserWriter) *CreatedUserHandler {
	return &CreatedUserHandler{users: users}
}

type createdUserPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

func (h *CreatedUserHandler) Handle(ctx context.Context, envelope *messaging.Envelope) error {
	var payload createdUserPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode user_created payload: %w", err)
	}
	return h.users.UpsertUser(ctx, payload.UserID, payload.Username)
}
