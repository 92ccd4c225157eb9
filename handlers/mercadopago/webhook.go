package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/ignaciojsoler/saas-boilerplate/models"
	"github.com/ignaciojsoler/saas-boilerplate/utils"
)

// Event types MercadoPago delivers for this integration. The two payment
// types are aliases for the same fact and share one handler.
const (
	EventTypeSubscription      = "subscription_preapproval"
	EventTypePayment           = "payment"
	EventTypeAuthorizedPayment = "subscription_authorized_payment"
)

type webhookEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// outcome is the tri-state result of an event handler. Business conditions
// that can never resolve (unknown payer, unknown subscription) are "ignored"
// so MercadoPago stops redelivering; only store failures surface as errors.
type outcome struct {
	status string
	reason string
}

var successOutcome = outcome{status: "success"}

func ignoredOutcome(reason string) outcome {
	return outcome{status: "ignored", reason: reason}
}

func badRequestOutcome(reason string) outcome {
	return outcome{status: "bad_request", reason: reason}
}

type eventHandler func(ctx context.Context, data json.RawMessage) (outcome, error)

// externalID tolerates both representations MercadoPago uses for ids:
// preapproval ids are strings, payment ids are numbers.
type externalID string

func (e *externalID) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case string:
		*e = externalID(value)
	case float64:
		*e = externalID(strconv.FormatFloat(value, 'f', -1, 64))
	case nil:
		*e = ""
	default:
		return fmt.Errorf("unsupported id type %T", v)
	}
	return nil
}

// HandleWebhook receives MercadoPago notifications. The raw event is logged
// before dispatch, so unknown and malformed payloads still leave an audit
// trail.
// @Summary MercadoPago webhook
// @Description Receive subscription and payment notifications from MercadoPago
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "status: success or ignored"
// @Failure 400 {object} map[string]string "error: malformed payload"
// @Failure 500 {object} map[string]string "error: store failure"
// @Router /mercadopago/webhook [post]
func (h *Handler) HandleWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read the request body"})
		return
	}

	var envelope webhookEnvelope
	parseErr := json.Unmarshal(payload, &envelope)

	entry := models.WebhookEvent{
		ExternalID: extractExternalID(envelope.Data),
		EventType:  envelope.Type,
		Payload:    datatypes.JSON(payload),
	}
	if err := h.db.Create(&entry).Error; err != nil {
		utils.LogError(err, "Could not write the webhook audit log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not record the event"})
		return
	}

	if parseErr != nil {
		utils.LogWebhook(envelope.Type, entry.ExternalID, "Discarding unparseable webhook payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	handler, known := h.eventHandlers[envelope.Type]
	if !known {
		utils.LogWebhook(envelope.Type, entry.ExternalID, "Ignoring unknown event type")
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "unknown_event_type"})
		return
	}

	if len(envelope.Data) == 0 {
		utils.LogWebhook(envelope.Type, entry.ExternalID, "Event arrived without a data payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing data payload"})
		return
	}

	result, err := handler(c.Request.Context(), envelope.Data)
	if err != nil {
		utils.LogError(err, "Webhook handler failed for event "+envelope.Type)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not process the event"})
		return
	}

	switch result.status {
	case "success":
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	case "ignored":
		utils.LogWebhook(envelope.Type, entry.ExternalID, "Event ignored: "+result.reason)
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": result.reason})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": result.reason})
	}
}

func extractExternalID(data json.RawMessage) string {
	if len(data) == 0 {
		return models.ExternalIDUnknown
	}
	var probe struct {
		ID externalID `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.ID == "" {
		return models.ExternalIDUnknown
	}
	return string(probe.ID)
}
