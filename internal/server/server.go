// Package server assembles the Fiber application: middleware, templates,
// static assets and routes.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/grigden22/temnet-parser/internal/handlers"
	"github.com/grigden22/temnet-parser/internal/middleware"
	"github.com/grigden22/temnet-parser/internal/security"
	"github.com/grigden22/temnet-parser/web"
)

// Options are the dependencies of the HTTP application.
type Options struct {
	Service handlers.ArchiveService
	Logger  *security.Logger
	Limits  *security.SecurityConfig

	// Location is the zone for timestamps that carry none.
	Location *time.Location

	// SearchLimiter throttles the search and message endpoints per client IP.
	// The caller owns it and must Stop it on shutdown.
	SearchLimiter *security.RateLimiter

	// Ping probes the database for /healthz.
	Ping func(ctx context.Context) bool

	CORSAllowOrigins string
}

// New builds the application.
//
// Middleware order:
//  1. Request logging (assigns the request id, logs the final status)
//  2. Panic recovery
//  3. Security headers
//  4. CORS
//  5. URL bounds and suspicious input logging
//
// Search routes are additionally rate limited.
func New(opts Options) (*fiber.App, error) {
	if opts.Service == nil || opts.Logger == nil || opts.Ping == nil || opts.SearchLimiter == nil {
		return nil, fmt.Errorf("server: Service, Logger, Ping and SearchLimiter are required")
	}
	if opts.Limits == nil {
		opts.Limits = security.DefaultSecurityConfig()
	}
	if opts.CORSAllowOrigins == "" {
		opts.CORSAllowOrigins = "*"
	}

	templates, err := fs.Sub(web.Files, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}
	static, err := fs.Sub(web.Files, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded static files: %w", err)
	}

	engine := html.NewFileSystem(http.FS(templates), ".html")

	app := fiber.New(fiber.Config{
		AppName:               "temnet-parser",
		Views:                 engine,
		ViewsLayout:           "layouts/main",
		ErrorHandler:          handlers.ErrorHandler(opts.Logger),
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          opts.Limits.QueryTimeout + 15*time.Second,
		DisableStartupMessage: true,
	})

	sm := middleware.NewSecurityMiddleware(opts.Logger, opts.Limits)

	app.Use(sm.RequestLogger())
	app.Use(recover.New(recover.Config{
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			opts.Logger.SecurityEvent(security.EventPanicRecovered, c.IP(), c.Get(fiber.HeaderUserAgent),
				middleware.RequestID(c), map[string]interface{}{"panic": fmt.Sprint(e), "path": c.Path()})
		},
		EnableStackTrace: true,
	}))
	app.Use(sm.SecureHeaders())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  opts.CORSAllowOrigins,
		AllowMethods:  "GET,HEAD,OPTIONS",
		ExposeHeaders: middleware.RequestIDHeader,
	}))
	app.Use(sm.InputValidation())

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(static),
		MaxAge: 3600,
	}))

	validator := security.NewValidationService(opts.Limits, opts.Location)
	archive := handlers.NewArchiveHandler(opts.Service, validator)
	pages := handlers.NewPageHandler(opts.Service, opts.Logger, opts.Ping)

	app.Get("/", pages.Index)
	app.Get("/healthz", pages.Health)

	app.Get("/api/groups", archive.ListGroups)

	api := app.Group("/api/archive")
	api.Get("/users/:id", archive.GroupUsers)
	api.Get("/stats", archive.Stats)

	limited := sm.RateLimit(opts.SearchLimiter, "search")

	// The unscoped routes must be registered first: /search/all/:from/:to/:txt/totalCount
	// has as many segments as /search/:gid/:uid/:from/:to/:txt.
	api.Get("/search/all/:from/:to/:txt/totalCount", limited, archive.TotalCountAll)
	api.Get("/search/all/:from/:to/:txt", limited, archive.SearchAll)
	api.Get("/search/:gid/:uid/:from/:to/:txt/totalCount", limited, archive.TotalCount)
	api.Get("/search/:gid/:uid/:from/:to/:txt", limited, archive.Search)

	api.Get("/messages/all/:from/:to/:txt", limited, archive.MessagesAll)
	api.Get("/messages/:gid/:uid/:from/:to/:txt", limited, archive.Messages)

	return app, nil
}
