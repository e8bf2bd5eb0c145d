package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	env     string
	started time.Time
}

func NewHealthHandler(db *gorm.DB, env string) *HealthHandler {
	return &HealthHandler{db: db, env: env, started: time.Now()}
}

// Health GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	database := "connected"
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		database = "disconnected"
	}

	return c.JSON(fiber.Map{
		"status":      "ok",
		"timestamp":   time.Now().UTC(),
		"uptime":      int64(time.Since(h.started).Seconds()),
		"database":    database,
		"environment": h.env,
	})
}
