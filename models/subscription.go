package models

import (
	"time"

	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionSuspended SubscriptionStatus = "suspended"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// Subscription is the local record reconciled against MercadoPago's view of a
// preapproval. ExternalID is the preapproval id and is immutable once set.
type Subscription struct {
	ID                 string             `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID             string             `json:"userId" gorm:"type:uuid;not null;index"`
	PlanID             string             `json:"planId" gorm:"not null"`
	ExternalID         string             `json:"externalId" gorm:"uniqueIndex;not null"`
	Status             SubscriptionStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	Amount             float64            `json:"amount"`
	Currency           string             `json:"currency" gorm:"type:varchar(3)"`
	CurrentPeriodStart time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time          `json:"currentPeriodEnd"`
	CancelledAt        *time.Time         `json:"cancelledAt"`
	Metadata           datatypes.JSONMap  `json:"metadata" gorm:"type:jsonb"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}
