package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/campuslink/studentportal-backend/database"
	"github.com/campuslink/studentportal-backend/internal/handlers"
	"github.com/campuslink/studentportal-backend/internal/models"
	"github.com/campuslink/studentportal-backend/internal/routes"
	"github.com/campuslink/studentportal-backend/internal/services"
	"github.com/campuslink/studentportal-backend/internal/storage"
)

type config struct {
	port             string
	jwtSecret        string
	countryCode      string
	twilioAccountSID string
	twilioAuthToken  string
	twilioPhone      string
	useMemoryStore   bool
}

func loadConfig() config {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️  No .env file found - using environment variables")
		}
	}

	cfg := config{
		port:             os.Getenv("PORT"),
		jwtSecret:        os.Getenv("JWT_SECRET"),
		countryCode:      os.Getenv("COUNTRY_CODE"),
		twilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		twilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		twilioPhone:      os.Getenv("TWILIO_PHONE"),
		useMemoryStore:   os.Getenv("USE_MEMORY_STORE") == "true",
	}
	if cfg.port == "" {
		cfg.port = "8080"
	}
	if cfg.countryCode == "" {
		cfg.countryCode = "+91"
	}
	return cfg
}

func main() {
	cfg := loadConfig()

	if cfg.jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize storage
	var store storage.Store
	if cfg.useMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect()
		if err != nil {
			log.Fatal(err)
		}

		log.Println("🔄 Running database migrations...")
		err = db.AutoMigrate(
			&models.Student{},
			&models.OTP{},
			&models.RevokedToken{},
			&models.ErrorLog{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
	}

	// Initialize SMS sender
	sms, err := services.NewTwilioSender(cfg.twilioAccountSID, cfg.twilioAuthToken, cfg.twilioPhone)
	if err != nil {
		log.Fatal("Failed to initialize Twilio sender:", err)
	}
	log.Println("✅ Twilio sender initialized")

	// Initialize services
	auditSink := services.NewAuditSink(store)
	otpService := services.NewOTPService(store, sms, cfg.countryCode)
	tokenService := services.NewTokenService(store, []byte(cfg.jwtSecret))
	authService := services.NewAuthService(store, otpService, tokenService)
	profileService := services.NewProfileService(store, otpService)

	authHandler := handlers.NewAuthHandler(authService, tokenService, auditSink)
	studentHandler := handlers.NewStudentHandler(profileService, auditSink)

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Student Portal Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	routes.SetupRoutes(app, authHandler, studentHandler, tokenService)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("🛑 Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	log.Printf("🚀 Student Portal Backend starting on port %s", cfg.port)
	log.Fatal(app.Listen(":" + cfg.port))
}
