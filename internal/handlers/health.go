package handlers

import (
	"time"

	"briefbase/internal/database"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	mongodb *database.MongoDB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mongodb *database.MongoDB) *HealthHandler {
	return &HealthHandler{mongodb: mongodb}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"
	mongo := "up"
	if err := h.mongodb.Ping(c.Context()); err != nil {
		status = "degraded"
		mongo = "down"
	}

	code := fiber.StatusOK
	if status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"mongodb":   mongo,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
