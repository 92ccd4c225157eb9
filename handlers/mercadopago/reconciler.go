package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	mp "github.com/ignaciojsoler/saas-boilerplate/mercadopago"
	"github.com/ignaciojsoler/saas-boilerplate/models"
	"github.com/ignaciojsoler/saas-boilerplate/utils"
)

const defaultPlanID = "basic"

// subscriptionEvent carries the preapproval fields used for reconciliation,
// whether they arrived in the webhook payload or were fetched back from
// MercadoPago.
type subscriptionEvent struct {
	ID                externalID        `json:"id"`
	Status            string            `json:"status"`
	PayerEmail        string            `json:"payer_email"`
	ExternalReference string            `json:"external_reference"`
	Reason            string            `json:"reason"`
	BackURL           string            `json:"back_url"`
	InitPoint         string            `json:"init_point"`
	CollectorID       int64             `json:"collector_id"`
	ApplicationID     int64             `json:"application_id"`
	AutoRecurring     *mp.AutoRecurring `json:"auto_recurring"`
}

// paymentEvent carries the payment fields used for reconciliation. The field
// naming for the related preapproval differs between the two payment event
// aliases, so both are tried.
type paymentEvent struct {
	ID                externalID `json:"id"`
	Status            string     `json:"status"`
	PreapprovalID     string     `json:"preapproval_id"`
	SubscriptionID    string     `json:"subscription_id"`
	TransactionAmount float64    `json:"transaction_amount"`
	CurrencyID        string     `json:"currency_id"`
	PaymentMethodID   string     `json:"payment_method_id"`
	PaymentTypeID     string     `json:"payment_type_id"`
}

func (h *Handler) handleSubscriptionEvent(ctx context.Context, data json.RawMessage) (outcome, error) {
	var event subscriptionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return badRequestOutcome("Invalid subscription payload"), nil
	}
	if event.ID == "" {
		return badRequestOutcome("Missing preapproval id"), nil
	}

	// Minimal notifications omit payer and reference; fetch the
	// authoritative record before reconciling. A failed fetch is left to
	// MercadoPago's redelivery.
	if event.PayerEmail == "" || event.ExternalReference == "" {
		preapproval, err := h.provider.GetPreapproval(ctx, string(event.ID))
		if err != nil {
			utils.LogError(err, "Could not fetch preapproval "+string(event.ID))
			return ignoredOutcome("provider_fetch_failed"), nil
		}
		event.enrich(preapproval)
	}

	return h.applySubscriptionEvent(event)
}

// enrich fills fields missing from the webhook payload with the fetched
// preapproval. Payload values win when both are present.
func (e *subscriptionEvent) enrich(preapproval *mp.Preapproval) {
	if e.PayerEmail == "" {
		e.PayerEmail = preapproval.PayerEmail
	}
	if e.ExternalReference == "" {
		e.ExternalReference = preapproval.ExternalReference
	}
	if e.Status == "" {
		e.Status = preapproval.Status
	}
	if e.Reason == "" {
		e.Reason = preapproval.Reason
	}
	if e.BackURL == "" {
		e.BackURL = preapproval.BackURL
	}
	if e.InitPoint == "" {
		e.InitPoint = preapproval.InitPoint
	}
	if e.CollectorID == 0 {
		e.CollectorID = preapproval.CollectorID
	}
	if e.ApplicationID == 0 {
		e.ApplicationID = preapproval.ApplicationID
	}
	if e.AutoRecurring == nil {
		e.AutoRecurring = preapproval.AutoRecurring
	}
}

// applySubscriptionEvent reconciles the local subscription with a preapproval
// snapshot. It is shared by the webhook path and the checkout return URL and
// must stay idempotent: status and period derive from the snapshot and "now",
// never from a delta.
func (h *Handler) applySubscriptionEvent(event subscriptionEvent) (outcome, error) {
	var user models.User
	err := h.db.First(&user, "email = ?", event.PayerEmail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Terminal ignore: retrying can never resolve a payer this
		// system does not know.
		return ignoredOutcome("user_not_found"), nil
	}
	if err != nil {
		return outcome{}, err
	}

	planID, _ := DecodeReference(event.ExternalReference)
	if planID == "" {
		planID = defaultPlanID
	}

	status := MapSubscriptionStatus(event.Status)
	now := time.Now()

	provenance := datatypes.JSONMap{
		"mercadopago_status": event.Status,
		"payer_email":        event.PayerEmail,
		"external_reference": event.ExternalReference,
		"last_webhook_at":    now.Format(time.RFC3339),
	}
	if event.Reason != "" {
		provenance["reason"] = event.Reason
	}
	if event.BackURL != "" {
		provenance["back_url"] = event.BackURL
	}
	if event.InitPoint != "" {
		provenance["init_point"] = event.InitPoint
	}
	if event.CollectorID != 0 {
		provenance["collector_id"] = strconv.FormatInt(event.CollectorID, 10)
	}
	if event.ApplicationID != 0 {
		provenance["application_id"] = strconv.FormatInt(event.ApplicationID, 10)
	}

	var subscription models.Subscription
	err = h.db.First(&subscription, "external_id = ?", string(event.ID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if status != models.SubscriptionPending && status != models.SubscriptionActive {
			// A cancelled or expired event for an id never seen
			// locally carries nothing worth persisting.
			return ignoredOutcome("stale_status_for_unknown_subscription"), nil
		}

		var amount float64
		currency := "ARS"
		if event.AutoRecurring != nil {
			amount = event.AutoRecurring.TransactionAmount
			if event.AutoRecurring.CurrencyID != "" {
				currency = event.AutoRecurring.CurrencyID
			}
		}

		provenance["created_via"] = "webhook"
		subscription = models.Subscription{
			UserID:             user.ID,
			PlanID:             planID,
			ExternalID:         string(event.ID),
			Status:             status,
			Amount:             amount,
			Currency:           currency,
			CurrentPeriodStart: now,
			CurrentPeriodEnd:   now.Add(billingCycle),
			Metadata:           provenance,
		}

		// Insert-or-ignore: a concurrent duplicate delivery resolves to
		// one row through the unique index on external_id.
		err = h.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).Create(&subscription).Error
		if err != nil {
			return outcome{}, err
		}
		utils.LogSuccess("Created subscription for preapproval " + string(event.ID))
		return successOutcome, nil
	}
	if err != nil {
		return outcome{}, err
	}

	updates := map[string]interface{}{
		"status":               status,
		"current_period_start": now,
		"current_period_end":   now.Add(billingCycle),
		"metadata":             mergeMetadata(subscription.Metadata, provenance),
	}
	if err := h.db.Model(&subscription).Updates(updates).Error; err != nil {
		return outcome{}, err
	}
	utils.LogSuccess("Updated subscription for preapproval " + string(event.ID))
	return successOutcome, nil
}

func (h *Handler) handlePaymentEvent(ctx context.Context, data json.RawMessage) (outcome, error) {
	var event paymentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return badRequestOutcome("Invalid payment payload"), nil
	}
	if event.ID == "" {
		return badRequestOutcome("Missing payment id"), nil
	}

	if event.Status == "" || event.TransactionAmount == 0 {
		payment, err := h.provider.GetPayment(ctx, string(event.ID))
		if err != nil {
			utils.LogError(err, "Could not fetch payment "+string(event.ID))
			return ignoredOutcome("provider_fetch_failed"), nil
		}
		if event.Status == "" {
			event.Status = payment.Status
		}
		if event.TransactionAmount == 0 {
			event.TransactionAmount = payment.TransactionAmount
		}
		if event.CurrencyID == "" {
			event.CurrencyID = payment.CurrencyID
		}
		if event.PaymentMethodID == "" {
			event.PaymentMethodID = payment.PaymentMethodID
		}
		if event.PaymentTypeID == "" {
			event.PaymentTypeID = payment.PaymentTypeID
		}
	}

	reference := event.PreapprovalID
	if reference == "" {
		reference = event.SubscriptionID
	}
	if reference == "" {
		return ignoredOutcome("missing_subscription_reference"), nil
	}

	var subscription models.Subscription
	err := h.db.First(&subscription, "external_id = ?", reference).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Expected for payments whose subscription was never created
		// locally, or one-off payments unrelated to a subscription.
		return ignoredOutcome("subscription_not_found"), nil
	}
	if err != nil {
		return outcome{}, err
	}

	status := MapPaymentStatus(event.Status)
	payment := models.SubscriptionPayment{
		SubscriptionID:    subscription.ID,
		ExternalPaymentID: string(event.ID),
		Amount:            event.TransactionAmount,
		Currency:          event.CurrencyID,
		Status:            status,
		PaymentMethod:     event.PaymentMethodID,
		PaymentType:       event.PaymentTypeID,
	}
	err = h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_payment_id"}},
		DoNothing: true,
	}).Create(&payment).Error
	if err != nil {
		return outcome{}, err
	}

	newStatus, reasonKey, changed := paymentTransition(subscription.Status, status)
	if !changed {
		return successOutcome, nil
	}

	now := time.Now()
	provenance := datatypes.JSONMap{
		"last_payment_id":     string(event.ID),
		"last_payment_status": string(status),
		"last_webhook_at":     now.Format(time.RFC3339),
	}
	if reasonKey != "" {
		provenance[reasonKey] = "payment_failed"
	}

	updates := map[string]interface{}{
		"status":   newStatus,
		"metadata": mergeMetadata(subscription.Metadata, provenance),
	}
	if newStatus == models.SubscriptionActive {
		updates["current_period_start"] = now
		updates["current_period_end"] = now.Add(billingCycle)
	}
	if err := h.db.Model(&subscription).Updates(updates).Error; err != nil {
		return outcome{}, err
	}
	utils.LogSuccess("Applied payment " + string(event.ID) + " to subscription " + subscription.ID)
	return successOutcome, nil
}

// paymentTransition decides the subscription transition driven by a payment
// result. Approved payments always activate and refresh the period. Failed
// payments cancel a pending subscription and expire an active one; a
// subscription already cancelled, suspended or expired stays put.
func paymentTransition(current models.SubscriptionStatus, payment models.PaymentStatus) (models.SubscriptionStatus, string, bool) {
	switch payment {
	case models.PaymentApproved:
		return models.SubscriptionActive, "", true
	case models.PaymentRejected, models.PaymentCancelled:
		switch current {
		case models.SubscriptionPending:
			return models.SubscriptionCancelled, "cancelled_reason", true
		case models.SubscriptionActive:
			return models.SubscriptionExpired, "expired_reason", true
		}
	}
	return current, "", false
}

func mergeMetadata(existing, updates datatypes.JSONMap) datatypes.JSONMap {
	merged := datatypes.JSONMap{}
	for key, value := range existing {
		merged[key] = value
	}
	for key, value := range updates {
		merged[key] = value
	}
	return merged
}
