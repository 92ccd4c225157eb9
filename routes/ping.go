package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ignaciojsoler/saas-boilerplate/handlers/ping"
)

func PingRoutes(r *gin.Engine) {
	handler := ping.New()
	r.GET("/ping", handler.HandlePing)
}
