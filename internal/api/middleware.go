package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loomdb/loomdb/internal/logging"
	"github.com/loomdb/loomdb/internal/ratelimit"
)

// requestIDKey is the gin context key holding the per-request logger.
const requestIDKey = "request_logger"

// RequestIDMiddleware stamps every request with a fresh request id,
// returns it in the X-Request-Id header, and attaches a request-scoped
// logger to the context.
func RequestIDMiddleware(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Header("X-Request-Id", id)
		c.Set(requestIDKey, log.With("request_id", id))
		c.Next()
	}
}

// requestLogger returns the request-scoped logger, falling back to the
// component logger when middleware did not run (tests).
func requestLogger(c *gin.Context, fallback *logging.Logger) *logging.Logger {
	if v, ok := c.Get(requestIDKey); ok {
		if l, ok := v.(*logging.Logger); ok {
			return l
		}
	}
	return fallback
}

// APIKeyAuthMiddleware returns middleware that checks for a valid API key.
// Health endpoint is exempt. No-op if apiKey is empty.
func APIKeyAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		if c.Request.URL.Path == "/api/v1/health" {
			c.Next()
			return
		}

		// Check Authorization: Bearer <key>
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] == apiKey {
				c.Next()
				return
			}
		}

		// Check X-API-Key header
		if c.GetHeader("X-API-Key") == apiKey {
			c.Next()
			return
		}

		UnauthorizedError(c, "Invalid or missing API key")
		c.Abort()
	}
}

// routeToCategory maps API routes to rate limiter route categories.
func routeToCategory(path, method string) string {
	switch {
	case strings.Contains(path, "/query"):
		return "query"
	case strings.Contains(path, "/persistence"):
		return "persistence"
	case method == "POST" && strings.Contains(path, "/rows"):
		return "insert"
	case method == "POST" && strings.HasSuffix(path, "/tables"):
		return "insert"
	default:
		return ""
	}
}

// RateLimitMiddleware returns middleware that rate-limits requests
// using the provided limiter.
func RateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		category := routeToCategory(c.Request.URL.Path, c.Request.Method)
		if category == "" {
			category = "default"
		}

		result := limiter.Allow(category)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			TooManyRequestsError(c, fmt.Sprintf("Rate limit exceeded for %s. Retry after %d seconds.", result.LimitType, retryAfter))
			c.Abort()
			return
		}

		c.Next()
	}
}

// MaxBodySizeMiddleware returns middleware that limits request body size.
func MaxBodySizeMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && c.Request.ContentLength > maxBytes {
			PayloadTooLargeError(c, fmt.Sprintf("Request body too large. Maximum: %d bytes", maxBytes))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

const (
	MaxQueryLength   = 10 * 1024 // 10KB
	MaxLimit         = 1000
	DefaultLimit     = 100
	DefaultBodyLimit = 1 * 1024 * 1024 // 1MB
)

// clampLimit ensures a row listing limit is within valid range.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
