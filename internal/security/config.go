// Package security provides centralized request limits and input validation.
package security

import (
	"time"
)

// SecurityConfig holds the limits applied to every API request.
type SecurityConfig struct {
	// Input validation
	MaxQueryLength  int // Maximum runes in a full-text query
	DefaultPageSize int
	MaxPageSize     int

	// Database protection
	QueryTimeout time.Duration // Upper bound for each repository call

	// Rate limiting (search endpoints, per client IP)
	SearchRateLimit  int           // Requests allowed per window
	SearchRateWindow time.Duration // Window the limit applies to
}

// DefaultSecurityConfig returns the limits used when nothing is configured.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		MaxQueryLength:  500,
		DefaultPageSize: 20,
		MaxPageSize:     2000,

		QueryTimeout: 30 * time.Second,

		SearchRateLimit:  60, // per minute
		SearchRateWindow: time.Minute,
	}
}

// RefillInterval is the token refill period that spreads SearchRateLimit
// requests evenly across SearchRateWindow.
func (c *SecurityConfig) RefillInterval() time.Duration {
	if c.SearchRateLimit <= 0 {
		return c.SearchRateWindow
	}
	return c.SearchRateWindow / time.Duration(c.SearchRateLimit)
}
