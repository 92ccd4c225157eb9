package models

import (
	"time"

	"gorm.io/datatypes"
)

// ExternalIDUnknown is stored when an event carries no usable external id.
const ExternalIDUnknown = "unknown"

// WebhookEvent is the append-only audit trail of every inbound notification,
// written before dispatch so that unparseable events are still visible.
type WebhookEvent struct {
	ID         string         `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ExternalID string         `json:"externalId" gorm:"index"`
	EventType  string         `json:"eventType"`
	Payload    datatypes.JSON `json:"payload"`
	CreatedAt  time.Time      `json:"createdAt"`
}
