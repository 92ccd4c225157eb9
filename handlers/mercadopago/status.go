package mercadopago

import (
	"github.com/ignaciojsoler/saas-boilerplate/models"
)

// MapSubscriptionStatus translates a MercadoPago preapproval status into the
// local enum. Unknown values map to pending, the most conservative state.
func MapSubscriptionStatus(providerStatus string) models.SubscriptionStatus {
	switch providerStatus {
	case "authorized":
		return models.SubscriptionActive
	case "pending":
		return models.SubscriptionPending
	case "cancelled":
		return models.SubscriptionCancelled
	case "suspended":
		return models.SubscriptionSuspended
	case "expired":
		return models.SubscriptionExpired
	default:
		return models.SubscriptionPending
	}
}

// MapPaymentStatus translates a MercadoPago payment status into the local
// enum. Unknown values map to pending.
func MapPaymentStatus(providerStatus string) models.PaymentStatus {
	switch providerStatus {
	case "approved":
		return models.PaymentApproved
	case "pending":
		return models.PaymentPending
	case "rejected":
		return models.PaymentRejected
	case "cancelled":
		return models.PaymentCancelled
	case "refunded":
		return models.PaymentRefunded
	default:
		return models.PaymentPending
	}
}
