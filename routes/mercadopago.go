package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	mercadopagoHandlers "github.com/ignaciojsoler/saas-boilerplate/handlers/mercadopago"
	"github.com/ignaciojsoler/saas-boilerplate/middleware"
)

func MercadoPagoRoutes(r *gin.Engine, database *gorm.DB, provider mercadopagoHandlers.ProviderAPI, siteURL string) {
	handler := mercadopagoHandlers.New(database, provider, siteURL)

	subscriptionRoutes := r.Group("/subscriptions")
	subscriptionRoutes.Use(middleware.JWTAuth())
	{
		subscriptionRoutes.POST("/checkout", handler.CreateCheckout)
		subscriptionRoutes.GET("/", handler.GetUserSubscriptions)
		subscriptionRoutes.GET("/current", handler.GetCurrentSubscription)
		subscriptionRoutes.GET("/:subscriptionId/payments", handler.GetSubscriptionPayments)
		subscriptionRoutes.POST("/:subscriptionId/cancel", handler.CancelSubscription)
	}

	r.POST("/mercadopago/webhook", handler.HandleWebhook)
	r.GET("/mercadopago/success", handler.CheckoutSuccess)
}
