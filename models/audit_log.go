package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an immutable record of one privileged action.
type AuditLog struct {
	ID          uuid.UUID `json:"id"`
	ActorUserID uuid.UUID `json:"actor_user_id"`
	ActionType  string    `json:"action_type"`
	EntityType  string    `json:"entity_type"`
	EntityID    uuid.UUID `json:"entity_id"`
	Metadata    *string   `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
