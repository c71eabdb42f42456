package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"

	"github.com/avritt/raincheck/internal/checker"
	"github.com/avritt/raincheck/internal/commute"
	"github.com/avritt/raincheck/internal/notify"
	"github.com/avritt/raincheck/internal/scheduler"
	"github.com/avritt/raincheck/internal/settings"
	"github.com/avritt/raincheck/internal/store"
)

func newTestApp(t *testing.T) (*fiber.App, *store.ResultStore, *settings.Store) {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": true, "message": err.Error()})
		},
	})

	settingsStore := settings.NewStore(afero.NewMemMapFs(), "settings.json")
	resultStore := store.NewResultStore()

	client := checker.NewClient(&http.Client{Timeout: time.Second}, "http://127.0.0.1:0")
	dispatcher := checker.NewDispatcher(client, resultStore, commute.SystemClock{}, "tester")

	channel := notify.NewGocronChannel(notify.LogSink{}, time.UTC)
	planner := scheduler.NewPlanner(channel, dispatcher, settingsStore, commute.SystemClock{})

	RegisterRoutes(app, planner, resultStore, settingsStore)
	return app, resultStore, settingsStore
}

func TestLatestCheckNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checks/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestLatestCheckByLabel(t *testing.T) {
	app, results, _ := newTestApp(t)

	results.Save(commute.CheckResult{
		Label:     commute.LabelEvening,
		WillRain:  true,
		Condition: "Rain expected",
		Timestamp: time.Now().UTC(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checks/latest?label=evening", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var result commute.CheckResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Label != commute.LabelEvening || !result.WillRain {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Unknown label should return 400.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/checks/latest?label=noon", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	// Vehicle outside the enum should be rejected.
	body := `{"home_address":"a","work_address":"b","vehicle":"car",
		"commute_days":{"monday":true},
		"morning_commute":{"enabled":true,"time":"08:00"},
		"evening_commute":{"enabled":false,"time":"17:30"},
		"notifications_enabled":true}`

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// Malformed time of day should also be rejected.
	body = strings.Replace(body, `"car"`, `"bike"`, 1)
	body = strings.Replace(body, `"08:00"`, `"8 in the morning"`, 1)
	req = httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestUpdateSettingsPersistsAndReplans(t *testing.T) {
	app, _, settingsStore := newTestApp(t)

	body := `{"home_address":"Placa Catalunya 1","work_address":"Carrer de Mallorca 10",
		"vehicle":"motorbike",
		"commute_days":{"monday":true},
		"morning_commute":{"enabled":true,"time":"08:00"},
		"evening_commute":{"enabled":false,"time":"17:30"},
		"notifications_enabled":true}`

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	cfg, err := settingsStore.Load()
	if err != nil {
		t.Fatalf("loading saved settings: %v", err)
	}
	if cfg.Vehicle != commute.VehicleMotorbike || cfg.HomeAddress == "" {
		t.Fatalf("settings not persisted: %+v", cfg)
	}

	// One enabled window on one enabled day: exactly one trigger.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/triggers", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var payload struct {
		Triggers []notify.Trigger `json:"triggers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding triggers: %v", err)
	}
	if len(payload.Triggers) != 1 || payload.Triggers[0].ID != "morning-monday" {
		t.Fatalf("unexpected triggers: %+v", payload.Triggers)
	}
}

func TestManualCheckIncompleteConfig(t *testing.T) {
	app, _, _ := newTestApp(t)

	// Default settings have no addresses; the dispatcher should refuse
	// before any network call.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/check?label=morning", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// Bogus label is rejected before dispatching.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/check?label=noon", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}
