package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/marinedge/vfd-sentinel/internal/anomaly"
	"github.com/marinedge/vfd-sentinel/internal/repository"
	"github.com/marinedge/vfd-sentinel/internal/service"
)

type operatorAction struct {
	By string `json:"by"`
}

// Register wires the read API and the operator anomaly actions.
func Register(app *fiber.App, eng *service.Engine, ledger *repository.Episodes) {
	api := app.Group("/api")

	api.Get("health-records", func(c *fiber.Ctx) error {
		return c.JSON(eng.HealthRecords())
	})
	api.Get("health-records/:unit", func(c *fiber.Ctx) error {
		rec, ok := eng.HealthRecord(c.Params("unit"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "unknown unit"})
		}
		return c.JSON(rec)
	})
	api.Get("energy/summary", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"summary": eng.EnergySummary(),
			"units":   eng.UnitSavings(),
		})
	})
	api.Get("summary", func(c *fiber.Ctx) error {
		return c.JSON(eng.FleetSummary())
	})
	api.Get("anomalies/active", func(c *fiber.Ctx) error {
		return c.JSON(eng.ActiveAnomalies())
	})
	api.Get("anomalies/history", func(c *fiber.Ctx) error {
		eps, err := ledger.History(c.Context(), c.Query("unit"), c.Query("status"), c.QueryInt("limit", 100))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(eps)
	})

	api.Post("anomalies/:unit/acknowledge", func(c *fiber.Ctx) error {
		return operatorOp(c, eng.Acknowledge)
	})
	api.Post("anomalies/:unit/clear", func(c *fiber.Ctx) error {
		return operatorOp(c, eng.Clear)
	})
}

func operatorOp(c *fiber.Ctx, op func(unit, by string) error) error {
	var body operatorAction
	if err := c.BodyParser(&body); err != nil || body.By == "" {
		body.By = "operator"
	}
	if err := op(c.Params("unit"), body.By); err != nil {
		if errors.Is(err, anomaly.ErrNoOpenEpisode) {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}
