package mercadopago

import (
	"context"
	"time"

	"gorm.io/gorm"

	mp "github.com/ignaciojsoler/saas-boilerplate/mercadopago"
)

// billingCycle is the length of one billing period. Periods are always
// re-derived as [now, now+billingCycle) so replaying an event converges to
// the same state instead of accumulating deltas.
const billingCycle = 30 * 24 * time.Hour

// ProviderAPI is the slice of the MercadoPago API the handlers need. Tests
// substitute a fake; production wires *mercadopago.Client.
type ProviderAPI interface {
	GetPreapproval(ctx context.Context, id string) (*mp.Preapproval, error)
	CreatePreapproval(ctx context.Context, req mp.PreapprovalRequest) (*mp.Preapproval, error)
	CancelPreapproval(ctx context.Context, id string) (*mp.Preapproval, error)
	GetPayment(ctx context.Context, id string) (*mp.Payment, error)
}

type Handler struct {
	db       *gorm.DB
	provider ProviderAPI
	siteURL  string

	eventHandlers map[string]eventHandler
}

func New(database *gorm.DB, provider ProviderAPI, siteURL string) *Handler {
	h := &Handler{
		db:       database,
		provider: provider,
		siteURL:  siteURL,
	}
	h.eventHandlers = map[string]eventHandler{
		EventTypeSubscription:      h.handleSubscriptionEvent,
		EventTypePayment:           h.handlePaymentEvent,
		EventTypeAuthorizedPayment: h.handlePaymentEvent,
	}
	return h
}
