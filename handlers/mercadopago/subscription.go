package mercadopago

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ignaciojsoler/saas-boilerplate/models"
	"github.com/ignaciojsoler/saas-boilerplate/utils"
)

// GetUserSubscriptions returns all subscriptions of the connected user,
// newest first.
// @Summary List the user's subscriptions
// @Description Return all the subscriptions (active, cancelled, history) of the connected user
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Subscription
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /subscriptions [get]
func (h *Handler) GetUserSubscriptions(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var subscriptions []models.Subscription
	err := h.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&subscriptions).Error
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error fetching subscriptions in GetUserSubscriptions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching subscriptions"})
		return
	}

	c.JSON(http.StatusOK, subscriptions)
}

// GetCurrentSubscription returns the subscription shown on the dashboard: the
// most recently created one in active or pending state, or null.
// @Summary Current subscription
// @Description Return the most recent active or pending subscription of the connected user
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "subscription: current subscription or null"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /subscriptions/current [get]
func (h *Handler) GetCurrentSubscription(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var subscription models.Subscription
	err := h.db.Where("user_id = ? AND status IN ?",
		userID, []models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionPending}).
		Order("created_at DESC").
		First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{"subscription": nil})
		return
	}
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error fetching subscription in GetCurrentSubscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": subscription})
}

// GetSubscriptionPayments lists the recorded charge attempts of one of the
// user's subscriptions.
// @Summary Payments of a subscription
// @Description Return the payments recorded for a subscription of the connected user
// @Tags subscriptions
// @Produce json
// @Param subscriptionId path string true "ID of the subscription"
// @Security BearerAuth
// @Success 200 {array} models.SubscriptionPayment
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: Not your subscription"
// @Failure 404 {object} map[string]string "error: Subscription not found"
// @Router /subscriptions/{subscriptionId}/payments [get]
func (h *Handler) GetSubscriptionPayments(c *gin.Context) {
	subscriptionID := c.Param("subscriptionId")
	if _, err := uuid.Parse(subscriptionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var subscription models.Subscription
	if err := h.db.First(&subscription, "id = ?", subscriptionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}
	if subscription.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to view this subscription"})
		return
	}

	var payments []models.SubscriptionPayment
	err := h.db.Where("subscription_id = ?", subscriptionID).Order("created_at DESC").Find(&payments).Error
	if err != nil {
		utils.LogErrorWithUser(userID, err, "Error fetching payments in GetSubscriptionPayments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

// CancelSubscription cancels the preapproval at MercadoPago and marks the
// local record cancelled. Cancellation is a status transition, never a
// delete.
// @Summary Cancel a subscription
// @Description Cancel the MercadoPago preapproval and update the local status
// @Tags subscriptions
// @Produce json
// @Param subscriptionId path string true "ID of the subscription to cancel"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message: Subscription cancelled successfully"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 403 {object} map[string]string "error: Not your subscription"
// @Failure 404 {object} map[string]string "error: Subscription not found"
// @Failure 500 {object} map[string]string "error: MercadoPago or server error"
// @Router /subscriptions/{subscriptionId}/cancel [post]
func (h *Handler) CancelSubscription(c *gin.Context) {
	subscriptionID := c.Param("subscriptionId")
	if _, err := uuid.Parse(subscriptionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var subscription models.Subscription
	if err := h.db.First(&subscription, "id = ?", subscriptionID).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Subscription not found in CancelSubscription")
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}

	if subscription.UserID != userID {
		utils.LogErrorWithUser(userID, nil, "Not authorized to cancel this subscription")
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to cancel this subscription"})
		return
	}

	if subscription.Status == models.SubscriptionCancelled {
		c.JSON(http.StatusOK, gin.H{"message": "Subscription already cancelled"})
		return
	}

	if _, err := h.provider.CancelPreapproval(c.Request.Context(), subscription.ExternalID); err != nil {
		utils.LogErrorWithUser(userID, err, "Error cancelling the MercadoPago preapproval")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error cancelling the MercadoPago subscription"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.SubscriptionCancelled,
		"cancelled_at": now,
		"metadata": mergeMetadata(subscription.Metadata, map[string]interface{}{
			"cancelled_reason": "user_request",
		}),
	}
	if err := h.db.Model(&subscription).Updates(updates).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error updating the subscription status in CancelSubscription")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating the subscription status"})
		return
	}

	utils.LogSuccessWithUser(userID, "Subscription cancelled successfully")
	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled successfully"})
}
