package main

import (
	"log"
	"os"

	"review-workflow-api/config"
	"review-workflow-api/controllers"
	"review-workflow-api/middleware"
	"review-workflow-api/routes"
	"review-workflow-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database
	config.InitDB()

	workflowPath := os.Getenv("WORKFLOW_CONFIG")
	if workflowPath == "" {
		workflowPath = "workflow.yaml"
	}
	workflow, err := config.NewWorkflowHolder(workflowPath)
	if err != nil {
		log.Fatal("Failed to load workflow config:", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	documentStoreURL := os.Getenv("DOCUMENT_STORE_URL")
	if documentStoreURL == "" {
		log.Fatal("DOCUMENT_STORE_URL is required")
	}

	events := services.NewEventBus()
	services.RegisterMetrics(events)

	if workflow.Get().Notifications.Enabled {
		mailer := config.NewSMTPMailer(config.MailerConfigFromEnv())
		if mailer.Configured() {
			services.NewMailNotifier(mailer, workflow.Get().Notifications.BaseURL).Subscribe(events)
		} else {
			log.Println("Warning: notifications enabled but SMTP is not configured")
		}
	}

	reviews := services.NewReviewService(config.DB, workflow, events)
	documents := services.NewHTTPDocumentStore(documentStoreURL, os.Getenv("DOCUMENT_STORE_TOKEN"))
	ctl := &controllers.ReviewWorkflowController{
		Reviews:       reviews,
		FieldComments: services.NewFieldCommentService(config.DB, events),
		Statuses:      services.NewStatusService(config.DB, workflow),
		Gate:          services.NewPublishGate(reviews, documents, workflow),
		Reviewers:     services.NewReviewerDirectory(config.DB, workflow),
		Documents:     documents,
		Workflow:      workflow,
	}

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = config.LogWriter

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})
	router.Use(middleware.CORSMiddleware())

	routes.SetupRoutes(router, ctl, routes.Options{
		DB:        config.DB,
		JWTSecret: []byte(jwtSecret),
		Workflow:  workflow,
	})

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Review workflow API starting on port %s", port)
	if ct := workflow.Get().ContentTypes; len(ct) > 0 {
		log.Printf("Review workflow enabled for content types: %v", ct)
	} else {
		log.Printf("Review workflow enabled for all content types")
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
