package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// BackendURL is the base URL of the weather-analysis backend.
	BackendURL string

	// BackendTimeout bounds one outbound /check_rain/ call. The backend
	// processes radar frames per request, so this is generous.
	BackendTimeout time.Duration

	// UserName identifies the route owner to the backend.
	UserName string

	// SettingsPath is where the commute settings file lives.
	SettingsPath string

	// Slack delivery; when the token is empty notifications go to the log.
	SlackToken   string
	SlackChannel string

	// Timezone the triggers fire in. Defaults to the system local zone.
	Timezone *time.Location

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.BackendURL = getenvDefault("BACKEND_URL", "http://localhost:8001")

	timeoutStr := getenvDefault("BACKEND_TIMEOUT", "60s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BACKEND_TIMEOUT: %w", err)
	}
	cfg.BackendTimeout = timeout

	cfg.UserName = getenvDefault("USER_NAME", "commuter")
	cfg.SettingsPath = getenvDefault("SETTINGS_PATH", "settings.json")

	cfg.SlackToken = os.Getenv("SLACK_TOKEN")
	cfg.SlackChannel = os.Getenv("SLACK_CHANNEL")
	if cfg.SlackToken != "" && cfg.SlackChannel == "" {
		return nil, fmt.Errorf("SLACK_CHANNEL is required when SLACK_TOKEN is set")
	}

	cfg.Timezone = time.Local
	if tz := os.Getenv("SCHEDULER_TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid SCHEDULER_TZ: %w", err)
		}
		cfg.Timezone = loc
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
