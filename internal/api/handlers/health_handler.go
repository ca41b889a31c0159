package handlers

import (
	"eventflow-relay/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// Health godoc
// @Summary Service status
// @Description Static status used to check that the server is reachable
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router / [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{
		Message: "EventFlow AI API Server",
		Status:  "running",
	})
}
