package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPlan is a row of the plan catalogue. The id doubles as the
// prefix of the external reference sent to MercadoPago, so it must not
// contain the reference delimiter "_".
type SubscriptionPlan struct {
	ID          string         `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency" gorm:"type:varchar(3)"`
	Interval    string         `json:"interval" gorm:"default:'monthly'"`
	Features    datatypes.JSON `json:"features"`
	IsActive    bool           `json:"isActive" gorm:"default:true"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
