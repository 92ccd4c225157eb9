package db

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ignaciojsoler/saas-boilerplate/models"
	"github.com/ignaciojsoler/saas-boilerplate/utils"
)

func InitDB() *gorm.DB {
	if err := godotenv.Load(); err != nil {
		utils.LogError(err, "Warning: could not load the .env file")
		utils.LogInfo("The environment variable DB_URL must be defined in the system environment")
	}

	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		utils.LogError(nil, "Variable DB_URL is not defined")
		panic("Database URL is not configured")
	}

	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: utils.GetGormLogger(),
	})
	if err != nil {
		utils.LogError(err, "Error connecting to the database")
		panic("Could not connect to the database")
	}

	err = database.AutoMigrate(
		&models.User{},
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.SubscriptionPayment{},
		&models.WebhookEvent{},
	)
	if err != nil {
		utils.LogError(err, "Error migrating database")
		panic("Could not migrate database")
	}

	if err := SeedPlans(database); err != nil {
		utils.LogError(err, "Error seeding subscription plans")
		panic("Could not seed subscription plans")
	}

	utils.LogSuccess("Database connection successful")
	return database
}

// SeedPlans inserts the plan catalogue on first boot. Existing rows are left
// untouched so price changes done by hand survive restarts.
func SeedPlans(database *gorm.DB) error {
	plans := []models.SubscriptionPlan{
		{
			ID:          "basic",
			Name:        "Basic plan",
			Description: "For getting started",
			Price:       1000,
			Currency:    "ARS",
			Interval:    "monthly",
			Features:    datatypes.JSON(`["Basic platform access","Email support","1 active project"]`),
			IsActive:    true,
		},
		{
			ID:          "pro",
			Name:        "Pro plan",
			Description: "For professionals",
			Price:       3000,
			Currency:    "ARS",
			Interval:    "monthly",
			Features:    datatypes.JSON(`["Everything in basic","Priority support","5 active projects","Advanced analytics"]`),
			IsActive:    true,
		},
		{
			ID:          "enterprise",
			Name:        "Enterprise plan",
			Description: "For teams",
			Price:       10000,
			Currency:    "ARS",
			Interval:    "monthly",
			Features:    datatypes.JSON(`["Everything in pro","24/7 support","Unlimited projects","Custom API","Dedicated integration"]`),
			IsActive:    true,
		},
	}

	for _, plan := range plans {
		var existing models.SubscriptionPlan
		err := database.First(&existing, "id = ?", plan.ID).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := database.Create(&plan).Error; err != nil {
			return err
		}
	}
	return nil
}
