package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter throttles expensive back-office operations (CSV imports,
// image uploads) with sliding minute and hour windows kept per client,
// so one heavy importer cannot starve everyone else
type RateLimiter struct {
	requestsPerMinute int
	requestsPerHour   int
	enabled           bool

	// Request tracking, keyed by client
	clients map[string]*clientWindows
	mu      sync.Mutex
}

type clientWindows struct {
	minute []time.Time
	hour   []time.Time
}

// NewRateLimiter creates a new rate limiter with the given per-client limits
func NewRateLimiter(requestsPerMinute, requestsPerHour int, enabled bool) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		enabled:           enabled,
		clients:           make(map[string]*clientWindows),
	}
}

// AllowRequest checks if a request from the given client is allowed.
// Returns true if allowed, false if the client's rate limit is exceeded.
func (rl *RateLimiter) AllowRequest(client string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Clean up old entries
	rl.cleanup(now)

	cw := rl.clients[client]
	if cw == nil {
		cw = &clientWindows{}
		rl.clients[client] = cw
	}

	// Check limits
	if len(cw.minute) >= rl.requestsPerMinute {
		return false
	}
	if rl.requestsPerHour > 0 && len(cw.hour) >= rl.requestsPerHour {
		return false
	}

	// Record the request
	cw.minute = append(cw.minute, now)
	cw.hour = append(cw.hour, now)

	return true
}

// cleanup removes expired entries from every client's windows and drops
// clients with nothing left to track
func (rl *RateLimiter) cleanup(now time.Time) {
	minuteAgo := now.Add(-1 * time.Minute)
	hourAgo := now.Add(-1 * time.Hour)

	for client, cw := range rl.clients {
		cw.minute = filterTimes(cw.minute, minuteAgo)
		cw.hour = filterTimes(cw.hour, hourAgo)
		if len(cw.hour) == 0 {
			delete(rl.clients, client)
		}
	}
}

// filterTimes keeps only times after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	result := make([]time.Time, 0, len(times))
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}

// GetStats returns current rate limiter statistics, aggregated over clients
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.cleanup(now)

	stats := Stats{
		Enabled:        true,
		LimitPerMinute: rl.requestsPerMinute,
		LimitPerHour:   rl.requestsPerHour,
		ActiveClients:  len(rl.clients),
	}
	for _, cw := range rl.clients {
		stats.RequestsLastMinute += len(cw.minute)
		stats.RequestsLastHour += len(cw.hour)
	}

	return stats
}

// Stats contains rate limiter statistics. Request counts are totals across
// all clients; the limits apply to each client individually.
type Stats struct {
	Enabled            bool `json:"enabled"`
	ActiveClients      int  `json:"active_clients"`
	RequestsLastMinute int  `json:"requests_last_minute"`
	RequestsLastHour   int  `json:"requests_last_hour"`
	LimitPerMinute     int  `json:"limit_per_minute"`
	LimitPerHour       int  `json:"limit_per_hour"`
}

// Reset clears all tracked requests (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.clients = make(map[string]*clientWindows)
}

// Middleware rejects requests over the caller's limit with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.AllowRequest(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, try again later",
			})
			return
		}
		c.Next()
	}
}
