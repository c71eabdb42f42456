package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/avritt/raincheck/internal/commute"
	"github.com/avritt/raincheck/internal/scheduler"
	"github.com/avritt/raincheck/internal/settings"
	"github.com/avritt/raincheck/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, planner *scheduler.Planner, results *store.ResultStore, settingsStore *settings.Store) {
	v1 := app.Group("/api/v1")

	v1.Post("/check", func(c *fiber.Ctx) error {
		label, err := commute.ParseLabel(c.Query("label", string(commute.LabelMorning)))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, failure, err := planner.CheckNow(c.Context(), label)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to run commute check")
		}
		if failure != nil {
			return fiber.NewError(failureStatus(failure), failure.Message)
		}
		return c.JSON(result)
	})

	v1.Get("/checks/latest", func(c *fiber.Ctx) error {
		var (
			result commute.CheckResult
			err    error
		)
		if raw := c.Query("label"); raw != "" {
			label, perr := commute.ParseLabel(raw)
			if perr != nil {
				return fiber.NewError(fiber.StatusBadRequest, perr.Error())
			}
			result, err = results.LatestFor(label)
		} else {
			result, err = results.Latest()
		}
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no commute check has run yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read cached result")
		}
		return c.JSON(result)
	})

	v1.Get("/settings", func(c *fiber.Ctx) error {
		cfg, err := settingsStore.Load()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load settings")
		}
		return c.JSON(cfg)
	})

	v1.Put("/settings", func(c *fiber.Ctx) error {
		var req settingsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		cfg := req.toConfig()
		if err := settingsStore.Save(cfg); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
		}
		if err := planner.Replan(cfg); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "settings saved but replanning failed")
		}
		return c.JSON(cfg)
	})

	v1.Get("/triggers", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"triggers": planner.Triggers(),
		})
	})
}

// failureStatus maps the dispatch failure taxonomy onto HTTP statuses for
// the manual-check endpoint.
func failureStatus(f *commute.Failure) int {
	switch f.Reason {
	case commute.ReasonConfigIncomplete:
		return fiber.StatusBadRequest
	case commute.ReasonServiceUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadGateway
	}
}

// settingsRequest is the settings update body. Same JSON shape as the
// stored configuration, validated before it replaces anything.
type settingsRequest struct {
	HomeAddress          string               `json:"home_address"`
	WorkAddress          string               `json:"work_address"`
	Days                 commute.DaySelection `json:"commute_days"`
	Morning              commute.Window       `json:"morning_commute"`
	Evening              commute.Window       `json:"evening_commute"`
	Vehicle              string               `json:"vehicle" validate:"omitempty,oneof=bike motorbike"`
	NotificationsEnabled bool                 `json:"notifications_enabled"`
}

func (r settingsRequest) toConfig() commute.Config {
	vehicle := commute.Vehicle(r.Vehicle)
	if vehicle == "" {
		vehicle = commute.VehicleBike
	}
	return commute.Config{
		HomeAddress:          r.HomeAddress,
		WorkAddress:          r.WorkAddress,
		Days:                 r.Days,
		Morning:              r.Morning,
		Evening:              r.Evening,
		Vehicle:              vehicle,
		NotificationsEnabled: r.NotificationsEnabled,
	}
}
