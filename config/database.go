package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"review-workflow-api/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB() {
	var err error

	// Get database credentials from environment variables
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbDatabase := os.Getenv("DB_DATABASE")
	dbUsername := os.Getenv("DB_USERNAME")
	dbPassword := os.Getenv("DB_PASSWORD")

	// Create DSN (Data Source Name)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		dbUsername,
		dbPassword,
		dbHost,
		dbPort,
		dbDatabase,
	)

	DB, err = gorm.Open(mysql.Open(dsn), GormConfig())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if strings.ToLower(os.Getenv("DB_AUTO_MIGRATE")) == "true" {
		if err := Migrate(DB); err != nil {
			log.Fatal("Failed to migrate review workflow tables:", err)
		}
	}

	log.Println("Database connected successfully")
}

// GormConfig returns the shared gorm configuration. Duplicate-key errors are
// translated to gorm.ErrDuplicatedKey so the pending-review index can be
// detected independently of the SQL dialect.
func GormConfig() *gorm.Config {
	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	debugSQL := strings.ToLower(os.Getenv("DEBUG_SQL"))

	// In production, suppress SQL logs unless explicitly re-enabled via DEBUG_SQL=true.
	logLevel := logger.Info
	if environment == "production" && debugSQL != "true" {
		logLevel = logger.Warn
	}

	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(
			log.New(LogWriter, "\r\n", log.LstdFlags),
			logger.Config{LogLevel: logLevel},
		),
	}
}

// Migrate creates or updates the review workflow tables. The users table is
// owned by the identity system and is only migrated so that foreign keys resolve.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Review{}, &models.ReviewComment{})
}
