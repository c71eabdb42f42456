package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/afero"

	httpapi "github.com/avritt/raincheck/internal/api/http"
	"github.com/avritt/raincheck/internal/checker"
	"github.com/avritt/raincheck/internal/commute"
	"github.com/avritt/raincheck/internal/config"
	"github.com/avritt/raincheck/internal/notify"
	"github.com/avritt/raincheck/internal/scheduler"
	"github.com/avritt/raincheck/internal/settings"
	"github.com/avritt/raincheck/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound backend calls.
	httpClient := &http.Client{
		Timeout: cfg.BackendTimeout,
	}

	// Triggers fire on cfg.Timezone wall-clock time, so eligibility must be
	// evaluated in the same zone.
	clock := commute.ZoneClock{Loc: cfg.Timezone}

	// Commute settings on disk, last check result in memory.
	settingsStore := settings.NewStore(afero.NewOsFs(), cfg.SettingsPath)
	resultStore := store.NewResultStore()

	// Weather backend client and the dispatcher on top of it.
	client := checker.NewClient(httpClient, cfg.BackendURL)
	dispatcher := checker.NewDispatcher(client, resultStore, clock, cfg.UserName)

	// Notification delivery: Slack when configured, the log otherwise.
	var sink notify.Sink = notify.LogSink{}
	if cfg.SlackToken != "" {
		sink = notify.NewSlackSink(cfg.SlackToken, cfg.SlackChannel)
		log.Printf("notifications delivered to slack channel %s", cfg.SlackChannel)
	}

	channel := notify.NewGocronChannel(sink, cfg.Timezone)
	channel.Start()
	defer channel.Stop()

	// Planner registers the recurring triggers from the stored settings.
	planner := scheduler.NewPlanner(channel, dispatcher, settingsStore, clock)

	commuteCfg, err := settingsStore.Load()
	if err != nil {
		log.Fatalf("failed to load commute settings: %v", err)
	}
	if err := planner.Replan(commuteCfg); err != nil {
		log.Printf("initial replan reported errors: %v", err)
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "raincheck",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "raincheck",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, planner, resultStore, settingsStore)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
