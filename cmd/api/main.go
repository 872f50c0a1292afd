package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/unimentor/configs"
	"github.com/anjiri1684/unimentor/database"
	"github.com/anjiri1684/unimentor/handlers"
	"github.com/anjiri1684/unimentor/jobs"
	"github.com/anjiri1684/unimentor/logger"
	"github.com/anjiri1684/unimentor/notifications"
	"github.com/anjiri1684/unimentor/oauth"
	"github.com/anjiri1684/unimentor/payments"
	"github.com/anjiri1684/unimentor/routes"
	"github.com/anjiri1684/unimentor/services"
	"github.com/anjiri1684/unimentor/uploads"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(&logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	}, logger.DefaultServiceName)
	if err != nil {
		log.Fatalf("🔥 Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("failed to migrate database", zap.Error(err))
	}

	signer, err := uploads.NewSigner(cfg.CloudinaryURL, cfg.UploadFolder)
	if err != nil {
		zlog.Fatal("failed to initialize upload signer", zap.Error(err))
	}

	notifier := notifications.NewLogNotifier(zlog)
	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	google := oauth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL())

	identity := services.NewIdentityService(db, tokens, google, zlog, cfg.BcryptCost)
	mentors := services.NewMentorService(db, identity, zlog)
	bookings := services.NewBookingService(db, notifier, cfg.MeetingBaseURL, zlog)
	transactions := services.NewTransactionService(db, payments.Unintegrated{}, zlog)
	reviews := services.NewReviewService(db, zlog)

	if err := identity.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminFirstName, cfg.AdminLastName); err != nil {
		zlog.Fatal("failed to seed admin user", zap.Error(err))
	}

	c := cron.New()
	if _, err := c.AddJob(cfg.CleanupSchedule, jobs.NewCleanupHandles(db, zlog)); err != nil {
		zlog.Fatal("invalid cleanup schedule", zap.Error(err))
	}
	if _, err := c.AddJob(cfg.ReminderSchedule, jobs.NewSessionReminders(db, notifier, zlog)); err != nil {
		zlog.Fatal("invalid reminder schedule", zap.Error(err))
	}
	c.Start()
	defer c.Stop()
	zlog.Info("cron jobs scheduled")

	app := fiber.New(fiber.Config{
		AppName:       cfg.AppName,
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			zlog.Error("unhandled request error",
				zap.String(logger.FieldPath, c.Path()),
				zap.String(logger.FieldMethod, c.Method()),
				zap.Error(err),
			)
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.FrontendURL,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PATCH, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to " + cfg.AppName + " API",
		})
	})

	h := handlers.New(identity, mentors, bookings, transactions, reviews, signer, handlers.Options{
		FrontendURL:       cfg.FrontendURL,
		GoogleCallbackURL: cfg.GoogleCallbackURL(),
	}, zlog)
	routes.Register(app, h, routes.NewGuards(cfg.JWTSecret, identity))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zlog.Info("shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("server shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("server is running", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("server failed to start", zap.Error(err))
	}
}
