package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/jobcard-service/internal/persistence"
)

const readinessTimeout = 2 * time.Second

type dependencyCheck struct {
	name string
	ping func(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	started     time.Time
	checks      []dependencyCheck
}

// NewHealthHandler wires the dependency probes. The persistence wrappers
// tolerate nil receivers, so unconfigured dependencies report as down rather
// than panicking.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		started:     time.Now(),
		checks: []dependencyCheck{
			{name: "postgres", ping: postgres.Ping},
			{name: "redis", ping: redis.Ping},
		},
	}
}

// Live reports process liveness without touching any dependency.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready pings every dependency and reports per-dependency status. Any failure
// turns the whole probe into a 503 so load balancers stop routing here.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for _, check := range h.checks {
		start := time.Now()
		if err := check.ping(ctx); err != nil {
			depStatus[check.name] = fiber.Map{"status": "down", "error": err.Error()}
			ready = false
			continue
		}
		depStatus[check.name] = fiber.Map{
			"status":  "ok",
			"latency": time.Since(start).Round(time.Millisecond).String(),
		}
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
