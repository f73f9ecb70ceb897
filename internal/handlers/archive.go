// Package handlers implements HTTP request handlers for the archive API.
// Handlers parse path and query parameters, delegate to the archive service
// and return JSON; every error is rendered by ErrorHandler.
package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/grigden22/temnet-parser/internal/models"
	"github.com/grigden22/temnet-parser/internal/security"
)

// ArchiveService is the business layer the handlers depend on.
// *services.ArchiveService satisfies it.
type ArchiveService interface {
	Groups(ctx context.Context) ([]models.Group, error)
	GroupUsernames(ctx context.Context, groupID int64) ([]string, error)
	SearchReports(ctx context.Context, f models.ArchiveFilter, p models.Pageable) (*models.Page[models.Report], error)
	TotalCount(ctx context.Context, f models.ArchiveFilter) (*models.Page[models.Report], error)
	SearchMessages(ctx context.Context, f models.ArchiveFilter, p models.Pageable) (*models.Page[models.Archive], error)
	Summary(ctx context.Context) (*models.ArchiveSummary, error)
}

// ArchiveHandler serves the /api/archive routes.
type ArchiveHandler struct {
	service   ArchiveService
	validator *security.ValidationService
}

// NewArchiveHandler creates a new ArchiveHandler.
//
// Parameters:
//   - service: Archive business logic
//   - validator: Parses ids, timestamps, search text and paging parameters
func NewArchiveHandler(service ArchiveService, validator *security.ValidationService) *ArchiveHandler {
	return &ArchiveHandler{
		service:   service,
		validator: validator,
	}
}

// GroupUsers returns the usernames of a group's members, sorted ascending.
// An unknown group yields an empty array.
//
// URL Param: id (group ID)
// Route: GET /api/archive/users/:id
func (h *ArchiveHandler) GroupUsers(c *fiber.Ctx) error {
	groupID, err := h.validator.ParseID("group id", c.Params("id"))
	if err != nil {
		return err
	}

	names, err := h.service.GroupUsernames(c.Context(), groupID)
	if err != nil {
		return err
	}
	return c.JSON(names)
}

// Search returns a page of per-user message counts within one group.
//
// URL Params: gid, uid (uid <= 0 selects the whole group), from, to, txt
// Query Params: page, size, sort
// Route: GET /api/archive/search/:gid/:uid/:from/:to/:txt
func (h *ArchiveHandler) Search(c *fiber.Ctx) error {
	return h.searchReports(c, true)
}

// SearchAll is Search over the whole archive.
//
// Route: GET /api/archive/search/all/:from/:to/:txt
func (h *ArchiveHandler) SearchAll(c *fiber.Ctx) error {
	return h.searchReports(c, false)
}

// TotalCount returns a one-row page labeled models.TotalLabel whose count is
// the number of messages matching the scoped filter.
//
// Route: GET /api/archive/search/:gid/:uid/:from/:to/:txt/totalCount
func (h *ArchiveHandler) TotalCount(c *fiber.Ctx) error {
	return h.totalCount(c, true)
}

// TotalCountAll is TotalCount over the whole archive.
//
// Route: GET /api/archive/search/all/:from/:to/:txt/totalCount
func (h *ArchiveHandler) TotalCountAll(c *fiber.Ctx) error {
	return h.totalCount(c, false)
}

// Messages returns a page of matching archive rows within one group,
// newest first unless sorted otherwise.
//
// Route: GET /api/archive/messages/:gid/:uid/:from/:to/:txt
func (h *ArchiveHandler) Messages(c *fiber.Ctx) error {
	return h.searchMessages(c, true)
}

// MessagesAll is Messages over the whole archive.
//
// Route: GET /api/archive/messages/all/:from/:to/:txt
func (h *ArchiveHandler) MessagesAll(c *fiber.Ctx) error {
	return h.searchMessages(c, false)
}

// Stats returns whole-archive statistics.
//
// Route: GET /api/archive/stats
func (h *ArchiveHandler) Stats(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// ListGroups returns all groups ordered by name.
//
// Route: GET /api/groups
func (h *ArchiveHandler) ListGroups(c *fiber.Ctx) error {
	groups, err := h.service.Groups(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(groups)
}

func (h *ArchiveHandler) searchReports(c *fiber.Ctx, scoped bool) error {
	f, err := h.filter(c, scoped)
	if err != nil {
		return err
	}
	p, err := h.pageable(c)
	if err != nil {
		return err
	}

	page, err := h.service.SearchReports(c.Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *ArchiveHandler) totalCount(c *fiber.Ctx, scoped bool) error {
	f, err := h.filter(c, scoped)
	if err != nil {
		return err
	}

	page, err := h.service.TotalCount(c.Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *ArchiveHandler) searchMessages(c *fiber.Ctx, scoped bool) error {
	f, err := h.filter(c, scoped)
	if err != nil {
		return err
	}
	p, err := h.pageable(c)
	if err != nil {
		return err
	}

	page, err := h.service.SearchMessages(c.Context(), f, p)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// filter builds an ArchiveFilter from the path. Scoped routes carry gid and
// uid; a non-positive uid means every member of the group.
func (h *ArchiveHandler) filter(c *fiber.Ctx, scoped bool) (models.ArchiveFilter, error) {
	var f models.ArchiveFilter

	if scoped {
		gid, err := h.validator.ParseID("group id", c.Params("gid"))
		if err != nil {
			return f, err
		}
		uid, err := h.validator.ParseID("user id", c.Params("uid"))
		if err != nil {
			return f, err
		}

		f.GroupID = &gid
		if uid > 0 {
			f.UserID = &uid
		}
	}

	from, err := h.validator.ParseTimestamp("from", c.Params("from"))
	if err != nil {
		return f, err
	}
	to, err := h.validator.ParseTimestamp("to", c.Params("to"))
	if err != nil {
		return f, err
	}
	text, err := h.validator.ValidateSearchText(c.Params("txt"))
	if err != nil {
		return f, err
	}

	f.From, f.To, f.Text = from, to, text
	return f, nil
}

func (h *ArchiveHandler) pageable(c *fiber.Ctx) (models.Pageable, error) {
	var sorts []string
	for _, v := range c.Context().QueryArgs().PeekMulti("sort") {
		sorts = append(sorts, string(v))
	}
	return h.validator.ParsePageable(c.Query("page"), c.Query("size"), sorts)
}
