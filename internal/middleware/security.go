// Package middleware provides request logging and protection for the archive API.
package middleware

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/grigden22/temnet-parser/internal/security"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"

	requestIDLocal = "request_id"
	maxRequestID   = 64
)

// SecurityMiddleware provides centralized request handling concerns.
type SecurityMiddleware struct {
	logger *security.Logger
	config *security.SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance.
func NewSecurityMiddleware(logger *security.Logger, config *security.SecurityConfig) *SecurityMiddleware {
	if config == nil {
		config = security.DefaultSecurityConfig()
	}
	return &SecurityMiddleware{
		logger: logger,
		config: config,
	}
}

// RequestID returns the id assigned to the request by RequestLogger,
// or an empty string outside of it.
func RequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDLocal).(string); ok {
		return id
	}
	return ""
}

// RequestLogger assigns a request id and logs every request once it completes.
//
// A well-formed incoming X-Request-ID is reused so ids can be followed across
// proxies; otherwise a random UUID is generated. The id is echoed in the
// response header.
//
// Errors returned by later handlers are passed to the application's error
// handler here so that the logged status is the one the client receives.
func (sm *SecurityMiddleware) RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Locals(requestIDLocal, id)
		c.Set(RequestIDHeader, id)

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		sm.logger.HTTPRequest(
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			time.Since(start).Milliseconds(),
			c.IP(),
			c.Get(fiber.HeaderUserAgent),
			id,
		)

		return nil
	}
}

// RateLimit rejects clients that exceed the limiter with 429 and a
// Retry-After hint in seconds.
func (sm *SecurityMiddleware) RateLimit(limiter *security.RateLimiter, endpointName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := c.IP()

		if !limiter.Allow(identifier) {
			sm.logger.SecurityEvent(security.EventRateLimitExceeded, c.IP(), c.Get(fiber.HeaderUserAgent), RequestID(c),
				map[string]interface{}{
					"endpoint": endpointName,
					"limit":    sm.config.SearchRateLimit,
				})

			retry := int(math.Ceil(limiter.RetryAfter().Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retry))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":  "rate limit exceeded, please try again later",
				"status": fiber.StatusTooManyRequests,
			})
		}

		return c.Next()
	}
}

// SecureHeaders adds security headers to responses.
func (sm *SecurityMiddleware) SecureHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The search page loads only its own script and stylesheet.
		c.Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'; connect-src 'self'; frame-ancestors 'none'")

		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		return c.Next()
	}
}

// InputValidation bounds the request URL and records suspicious input.
//
// Oversized URLs are rejected with 414. Search text is free-form message
// content and every query is parameterized, so injection-looking paths are
// only logged as security events, never blocked.
func (sm *SecurityMiddleware) InputValidation() fiber.Handler {
	// Each rune of search text may arrive as up to 12 percent-encoded bytes.
	maxURL := sm.config.MaxQueryLength*12 + 512

	return func(c *fiber.Ctx) error {
		if len(c.OriginalURL()) > maxURL {
			sm.logger.SecurityEvent(security.EventOversizedQuery, c.IP(), c.Get(fiber.HeaderUserAgent), RequestID(c),
				map[string]interface{}{
					"path_length": len(c.OriginalURL()),
					"max":         maxURL,
				})
			return c.Status(fiber.StatusRequestURITooLong).JSON(fiber.Map{
				"error":  "request URL too long",
				"status": fiber.StatusRequestURITooLong,
			})
		}

		path, err := url.PathUnescape(c.Path())
		if err != nil {
			path = c.Path()
		}

		if detectSQLInjection(path) {
			sm.logger.SecurityEvent(security.EventSQLInjectionAttempt, c.IP(), c.Get(fiber.HeaderUserAgent), RequestID(c),
				map[string]interface{}{
					"path": c.Path(),
				})
		}
		if detectXSSAttempt(path) {
			sm.logger.SecurityEvent(security.EventXSSAttempt, c.IP(), c.Get(fiber.HeaderUserAgent), RequestID(c),
				map[string]interface{}{
					"path": c.Path(),
				})
		}

		return c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestID {
		return false
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || r == '.' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

// detectSQLInjection checks for common SQL injection patterns.
func detectSQLInjection(input string) bool {
	input = strings.ToLower(input)
	patterns := []string{
		"' or '1'='1",
		"' or 1=1",
		"'; drop table",
		"'; delete from",
		"union select",
	}

	for _, pattern := range patterns {
		if strings.Contains(input, pattern) {
			return true
		}
	}

	return false
}

// detectXSSAttempt checks for common XSS attack patterns.
func detectXSSAttempt(input string) bool {
	input = strings.ToLower(input)
	patterns := []string{
		"<script",
		"javascript:",
		"onerror=",
		"onload=",
		"<iframe",
	}

	for _, pattern := range patterns {
		if strings.Contains(input, pattern) {
			return true
		}
	}

	return false
}
