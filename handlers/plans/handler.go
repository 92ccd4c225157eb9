package plans

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ignaciojsoler/saas-boilerplate/models"
	"github.com/ignaciojsoler/saas-boilerplate/utils"
)

type Handler struct {
	db *gorm.DB
}

func New(database *gorm.DB) *Handler {
	return &Handler{db: database}
}

// GetPlans lists the active plans of the catalogue, cheapest first
// @Summary List subscription plans
// @Description Return the active subscription plans
// @Tags plans
// @Produce json
// @Success 200 {array} models.SubscriptionPlan
// @Failure 500 {object} map[string]string "error: Error fetching plans"
// @Router /plans [get]
func (h *Handler) GetPlans(c *gin.Context) {
	var plans []models.SubscriptionPlan
	err := h.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error
	if err != nil {
		utils.LogError(err, "Error fetching plans in GetPlans")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching plans"})
		return
	}

	c.JSON(http.StatusOK, plans)
}
