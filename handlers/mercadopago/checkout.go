package mercadopago

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	mp "github.com/ignaciojsoler/saas-boilerplate/mercadopago"
	"github.com/ignaciojsoler/saas-boilerplate/models"
	"github.com/ignaciojsoler/saas-boilerplate/utils"
)

type checkoutInput struct {
	PlanID string `json:"planId" binding:"required"`
}

// CreateCheckout starts a MercadoPago preapproval for the selected plan and
// records an optimistic pending subscription. Returns the checkout URL for
// the frontend.
// @Summary Start a subscription checkout
// @Description Create a MercadoPago preapproval for the selected plan and return the checkout URL
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param checkout body checkoutInput true "Plan selection"
// @Security BearerAuth
// @Success 200 {object} map[string]string "initPoint: MercadoPago checkout URL, externalId: preapproval id"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 404 {object} map[string]string "error: Plan not found"
// @Failure 409 {object} map[string]string "error: Subscription already exists"
// @Failure 500 {object} map[string]string "error: MercadoPago or server error"
// @Router /subscriptions/checkout [post]
func (h *Handler) CreateCheckout(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input checkoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "User not found in CreateCheckout")
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var plan models.SubscriptionPlan
	err := h.db.First(&plan, "id = ? AND is_active = ?", input.PlanID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error fetching plan in CreateCheckout")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching plan"})
		return
	}

	var existing models.Subscription
	err = h.db.Where("user_id = ? AND status IN ?",
		user.ID, []models.SubscriptionStatus{models.SubscriptionPending, models.SubscriptionActive}).
		First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have an active or pending subscription"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.LogErrorWithUser(userID, err, "Error checking existing subscription in CreateCheckout")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking existing subscription"})
		return
	}

	reference := EncodeReference(plan.ID, user.ID)
	preapproval, err := h.provider.CreatePreapproval(c.Request.Context(), mp.PreapprovalRequest{
		Reason:            "Subscription " + plan.Name,
		BackURL:           h.siteURL + "/mercadopago/success",
		PayerEmail:        user.Email,
		ExternalReference: reference,
		Status:            "pending",
		AutoRecurring: &mp.AutoRecurring{
			Frequency:         1,
			FrequencyType:     "months",
			TransactionAmount: plan.Price,
			CurrencyID:        plan.Currency,
		},
	})
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error creating MercadoPago preapproval in CreateCheckout")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating the MercadoPago checkout"})
		return
	}

	now := time.Now()
	subscription := models.Subscription{
		UserID:             user.ID,
		PlanID:             plan.ID,
		ExternalID:         preapproval.ID,
		Status:             models.SubscriptionPending,
		Amount:             plan.Price,
		Currency:           plan.Currency,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.Add(billingCycle),
		Metadata: datatypes.JSONMap{
			"created_via":        "checkout",
			"external_reference": reference,
			"init_point":         preapproval.InitPoint,
		},
	}
	// The webhook can land before this insert; the unique index on
	// external_id makes whichever arrives second a no-op.
	err = h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(&subscription).Error
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error creating local subscription in CreateCheckout")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating the subscription"})
		return
	}

	utils.LogSuccessWithUser(userID, "MercadoPago checkout created for plan "+plan.ID)
	c.JSON(http.StatusOK, gin.H{
		"initPoint":  preapproval.InitPoint,
		"externalId": preapproval.ID,
	})
}

// CheckoutSuccess handles MercadoPago's browser redirect after checkout. The
// preapproval is fetched back and reconciled the same way a webhook would be,
// then the payer is redirected to the billing page.
// @Summary MercadoPago checkout return URL
// @Description Reconcile the preapproval after checkout and redirect to the billing page
// @Tags subscriptions
// @Produce json
// @Param preapproval_id query string true "MercadoPago preapproval id"
// @Success 307 "Redirect to the billing page"
// @Router /mercadopago/success [get]
func (h *Handler) CheckoutSuccess(c *gin.Context) {
	preapprovalID := c.Query("preapproval_id")
	if preapprovalID == "" {
		h.redirectToBilling(c, "error", "Missing preapproval id")
		return
	}

	preapproval, err := h.provider.GetPreapproval(c.Request.Context(), preapprovalID)
	if err != nil {
		utils.LogError(err, "Could not fetch preapproval "+preapprovalID+" after checkout")
		h.redirectToBilling(c, "error", "Could not verify the subscription")
		return
	}

	event := subscriptionEvent{ID: externalID(preapproval.ID)}
	event.enrich(preapproval)

	result, err := h.applySubscriptionEvent(event)
	if err != nil {
		utils.LogError(err, "Could not reconcile preapproval "+preapprovalID+" after checkout")
		h.redirectToBilling(c, "error", "Could not save the subscription")
		return
	}
	if result.status != "success" {
		h.redirectToBilling(c, "error", "Could not save the subscription")
		return
	}

	switch preapproval.Status {
	case "authorized":
		h.redirectToBilling(c, "success", "")
	case "pending":
		h.redirectToBilling(c, "pending", "Subscription pending approval")
	default:
		h.redirectToBilling(c, "error", "Subscription is "+preapproval.Status)
	}
}

func (h *Handler) redirectToBilling(c *gin.Context, status, message string) {
	target := h.siteURL + "/billing?status=" + url.QueryEscape(status)
	if message != "" {
		target += "&message=" + url.QueryEscape(message)
	}
	c.Redirect(http.StatusTemporaryRedirect, target)
}
