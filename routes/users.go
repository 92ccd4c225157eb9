package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ignaciojsoler/saas-boilerplate/handlers/users"
	"github.com/ignaciojsoler/saas-boilerplate/middleware"
)

func UsersRoutes(r *gin.Engine, database *gorm.DB) {
	handler := users.New(database)

	userRoutes := r.Group("/users")
	userRoutes.Use(middleware.JWTAuth())
	{
		userRoutes.GET("/me", handler.GetMe)
		userRoutes.PUT("/me", handler.UpdateMe)
		userRoutes.PUT("/me/password", handler.UpdatePassword)
	}
}
