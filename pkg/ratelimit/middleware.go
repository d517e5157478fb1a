package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// KeyFunc extracts the client key a request is limited by.
type KeyFunc func(c *gin.Context) string

// DefaultKeyFunc prefers a configured client header, then the first
// X-Forwarded-For hop when the proxy is trusted, then the remote address
// host.
func DefaultKeyFunc(header string, trustProxy bool) KeyFunc {
	return func(c *gin.Context) string {
		if header != "" {
			if v := strings.TrimSpace(c.GetHeader(header)); v != "" {
				return v
			}
		}
		if trustProxy {
			if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
				parts := strings.Split(xff, ",")
				if ip := strings.TrimSpace(parts[0]); ip != "" {
					return ip
				}
			}
		}
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			return c.Request.RemoteAddr
		}
		return host
	}
}

// Middleware rejects over-limit clients with 429 and a retry-later
// message. No backoff hint is exposed.
func Middleware(limiter *Limiter, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(keyFn(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
