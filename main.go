package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/ignaciojsoler/saas-boilerplate/db"
	"github.com/ignaciojsoler/saas-boilerplate/mercadopago"
	"github.com/ignaciojsoler/saas-boilerplate/routes"
	"github.com/ignaciojsoler/saas-boilerplate/utils"
)

// @title SaaS Boilerplate API
// @version 1.0
// @description Subscription billing backend with MercadoPago reconciliation
// @host localhost:8080
// @BasePath /
// @SecurityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the JWT with the Bearer prefix: Bearer <JWT>
func main() {

	gin.SetMode(gin.ReleaseMode)

	database := db.InitDB()

	accessToken := os.Getenv("MERCADOPAGO_ACCESS_TOKEN")
	if accessToken == "" {
		utils.LogError(nil, "Variable MERCADOPAGO_ACCESS_TOKEN is not defined")
		log.Fatal("MercadoPago access token is not configured")
	}
	provider := mercadopago.NewClient(accessToken)

	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:8080"
	}

	r := routes.SetupRouter(database, provider, siteURL)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Error starting the server:", err)
	}
}
