package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded PaymentStatus = "refunded"
)

// SubscriptionPayment records one charge attempt reported by MercadoPago.
// Rows are written once per ExternalPaymentID and never updated.
type SubscriptionPayment struct {
	ID                string        `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SubscriptionID    string        `json:"subscriptionId" gorm:"type:uuid;not null;index"`
	ExternalPaymentID string        `json:"externalPaymentId" gorm:"uniqueIndex;not null"`
	Amount            float64       `json:"amount"`
	Currency          string        `json:"currency" gorm:"type:varchar(3)"`
	Status            PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	PaymentMethod     string        `json:"paymentMethod"`
	PaymentType       string        `json:"paymentType"`
	CreatedAt         time.Time     `json:"createdAt"`
}
