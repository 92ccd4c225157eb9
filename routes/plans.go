package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ignaciojsoler/saas-boilerplate/handlers/plans"
)

func PlansRoutes(r *gin.Engine, database *gorm.DB) {
	handler := plans.New(database)
	r.GET("/plans", handler.GetPlans)
}
