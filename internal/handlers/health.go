package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// CacheStatus is implemented by services.CacheService.
type CacheStatus interface {
	Ready(ctx context.Context) error
	FirestoreEnabled() bool
	Purge() int
}

type HealthHandler struct {
	startTime time.Time
	version   string
	cache     CacheStatus
}

func NewHealthHandler(version string, cache CacheStatus) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		version:   version,
		cache:     cache,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "stocksignal-api",
		"version": h.version,
		"uptime":  time.Since(h.startTime).String(),
		"time":    time.Now(),
	})
}

// Ready handles GET /health/ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	firestore := "disabled"
	if h.cache.FirestoreEnabled() {
		firestore = "ok"
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	if err := h.cache.Ready(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"checks": fiber.Map{
				"api":       "ok",
				"firestore": err.Error(),
			},
		})
	}

	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": fiber.Map{
			"api":       "ok",
			"firestore": firestore,
		},
	})
}

// RefreshCache handles POST /api/v1/admin/refresh
func (h *HealthHandler) RefreshCache(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Cache refreshed successfully",
		"purged":  h.cache.Purge(),
		"time":    time.Now(),
	})
}
