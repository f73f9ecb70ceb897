package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/grigden22/temnet-parser/internal/models"
	"github.com/grigden22/temnet-parser/internal/security"
)

// PageHandler renders the HTML search page and the health check.
type PageHandler struct {
	service ArchiveService
	logger  *security.Logger
	ping    func(ctx context.Context) bool
}

// NewPageHandler creates a new PageHandler.
//
// Parameters:
//   - service: Supplies the group list for the search form
//   - logger: Records failures that degrade the page
//   - ping: Database health probe, typically database.IsConnected
func NewPageHandler(service ArchiveService, logger *security.Logger, ping func(ctx context.Context) bool) *PageHandler {
	return &PageHandler{
		service: service,
		logger:  logger,
		ping:    ping,
	}
}

// Index displays the search page.
// If groups cannot be loaded the page still renders, limited to
// archive-wide searches, with a notice.
//
// Route: GET /
// Template: index.html within layouts/main.html
func (h *PageHandler) Index(c *fiber.Ctx) error {
	groups, err := h.service.Groups(c.Context())
	if err != nil {
		h.logger.Error("failed to load groups for search page", err)
		groups = []models.Group{}
	}

	return c.Render("index", fiber.Map{
		"Title":      "Архив сообщений",
		"Groups":     groups,
		"Degraded":   err != nil,
		"TotalLabel": models.TotalLabel,
	})
}

// Health reports whether the database answers pings.
//
// Route: GET /healthz
// Returns: 200 {"status":"ok"} or 503 {"status":"unavailable"}
func (h *PageHandler) Health(c *fiber.Ctx) error {
	if !h.ping(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
