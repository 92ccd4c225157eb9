package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ignaciojsoler/saas-boilerplate/handlers/auth"
)

func AuthRoutes(r *gin.Engine, database *gorm.DB) {
	handler := auth.New(database)
	r.POST("/register", handler.Register)
	r.POST("/login", handler.Login)
}
