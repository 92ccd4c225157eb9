package mercadopago

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignaciojsoler/saas-boilerplate/models"
)

func TestPaymentTransition_Approved(t *testing.T) {
	// An approved payment activates from every state and refreshes the period.
	for _, current := range []models.SubscriptionStatus{
		models.SubscriptionPending,
		models.SubscriptionActive,
		models.SubscriptionCancelled,
		models.SubscriptionSuspended,
		models.SubscriptionExpired,
	} {
		newStatus, reasonKey, changed := paymentTransition(current, models.PaymentApproved)
		assert.True(t, changed, "from %s", current)
		assert.Equal(t, models.SubscriptionActive, newStatus, "from %s", current)
		assert.Equal(t, "", reasonKey, "from %s", current)
	}
}

func TestPaymentTransition_Failed(t *testing.T) {
	cases := []struct {
		current   models.SubscriptionStatus
		expected  models.SubscriptionStatus
		reasonKey string
		changed   bool
	}{
		{models.SubscriptionPending, models.SubscriptionCancelled, "cancelled_reason", true},
		{models.SubscriptionActive, models.SubscriptionExpired, "expired_reason", true},
		{models.SubscriptionCancelled, models.SubscriptionCancelled, "", false},
		{models.SubscriptionSuspended, models.SubscriptionSuspended, "", false},
		{models.SubscriptionExpired, models.SubscriptionExpired, "", false},
	}

	for _, failure := range []models.PaymentStatus{models.PaymentRejected, models.PaymentCancelled} {
		for _, tc := range cases {
			newStatus, reasonKey, changed := paymentTransition(tc.current, failure)
			assert.Equal(t, tc.changed, changed, "%s + %s", tc.current, failure)
			assert.Equal(t, tc.expected, newStatus, "%s + %s", tc.current, failure)
			assert.Equal(t, tc.reasonKey, reasonKey, "%s + %s", tc.current, failure)
		}
	}
}

func TestPaymentTransition_NeutralStatuses(t *testing.T) {
	// Pending and refunded payments never move the subscription.
	for _, payment := range []models.PaymentStatus{models.PaymentPending, models.PaymentRefunded} {
		for _, current := range []models.SubscriptionStatus{
			models.SubscriptionPending,
			models.SubscriptionActive,
			models.SubscriptionCancelled,
			models.SubscriptionSuspended,
			models.SubscriptionExpired,
		} {
			newStatus, reasonKey, changed := paymentTransition(current, payment)
			assert.False(t, changed, "%s + %s", current, payment)
			assert.Equal(t, current, newStatus, "%s + %s", current, payment)
			assert.Equal(t, "", reasonKey)
		}
	}
}

func TestMergeMetadata(t *testing.T) {
	existing := map[string]interface{}{"created_via": "checkout", "reason": "Subscription Pro plan"}
	updates := map[string]interface{}{"reason": "Subscription Pro plan (renewed)", "last_webhook_at": "2026-01-01T00:00:00Z"}

	merged := mergeMetadata(existing, updates)

	assert.Equal(t, "checkout", merged["created_via"])
	assert.Equal(t, "Subscription Pro plan (renewed)", merged["reason"])
	assert.Equal(t, "2026-01-01T00:00:00Z", merged["last_webhook_at"])
	// inputs are not mutated
	assert.Equal(t, "Subscription Pro plan", existing["reason"])
}
