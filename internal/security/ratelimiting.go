// Package security provides rate limiting functionality for the search endpoints.
package security

import (
	"sync"
	"time"
)

// RateLimiter implements token bucket algorithm for rate limiting.
// Thread-safe implementation using mutex for concurrent access.
type RateLimiter struct {
	// Map of identifier (client IP) to rate limit state
	limiters map[string]*bucketState
	mu       sync.RWMutex

	// Configuration
	maxTokens  int           // Maximum tokens in bucket
	refillRate time.Duration // Time between token refills

	// Cleanup ticker to remove old entries
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

// bucketState tracks the token bucket state for a single identifier.
type bucketState struct {
	tokens     int       // Current number of tokens
	lastRefill time.Time // Last time tokens were refilled
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter with specified configuration.
//
// Parameters:
//   - maxTokens: Maximum number of tokens (requests) allowed in the bucket
//   - refillRate: How often to add a token back to the bucket
//
// Example:
//
//	// Allow 60 searches per minute
//	limiter := NewRateLimiter(60, time.Second)
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if refillRate <= 0 {
		refillRate = time.Second
	}

	rl := &RateLimiter{
		limiters:    make(map[string]*bucketState),
		maxTokens:   maxTokens,
		refillRate:  refillRate,
		stopCleanup: make(chan struct{}),
	}

	rl.cleanupTicker = time.NewTicker(10 * time.Minute)
	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given identifier should be allowed.
// Returns true if request is allowed, false if rate limit exceeded.
func (rl *RateLimiter) Allow(identifier string) bool {
	rl.mu.Lock()
	bucket, exists := rl.limiters[identifier]
	if !exists {
		bucket = &bucketState{
			tokens:     rl.maxTokens - 1, // Consume one token for this request
			lastRefill: time.Now(),
		}
		rl.limiters[identifier] = bucket
		rl.mu.Unlock()
		return rl.maxTokens > 0
	}
	rl.mu.Unlock()

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	elapsed := time.Since(bucket.lastRefill)
	tokensToAdd := int(elapsed / rl.refillRate)

	if tokensToAdd > 0 {
		bucket.tokens += tokensToAdd
		if bucket.tokens > rl.maxTokens {
			bucket.tokens = rl.maxTokens
		}
		bucket.lastRefill = bucket.lastRefill.Add(time.Duration(tokensToAdd) * rl.refillRate)
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}

	return false
}

// RetryAfter is how long a rejected client should wait before the next token.
func (rl *RateLimiter) RetryAfter() time.Duration {
	return rl.refillRate
}

// Reset removes the rate limit state for a given identifier.
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, identifier)
}

// cleanup periodically removes old, inactive entries to prevent memory leaks.
func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.mu.Lock()
			now := time.Now()
			for id, bucket := range rl.limiters {
				bucket.mu.Lock()
				// Remove entries inactive for more than 1 hour
				if now.Sub(bucket.lastRefill) > time.Hour {
					delete(rl.limiters, id)
				}
				bucket.mu.Unlock()
			}
			rl.mu.Unlock()
		case <-rl.stopCleanup:
			return
		}
	}
}

// Stop stops the cleanup goroutine and releases resources. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanupTicker.Stop()
		close(rl.stopCleanup)
	})
}
