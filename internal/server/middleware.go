package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/auth"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/metrics"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/ratelimit"
)

const operatorKey = "operator"

// RequestLogger logs every request with zap. Successful requests go to
// debug to keep the info stream quiet.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if op := c.GetString(operatorKey); op != "" {
			fields = append(fields, zap.String("operator", op))
		}

		switch {
		case status >= 500:
			log.Error("Server error", fields...)
		case status >= 400:
			log.Warn("Client error", fields...)
		default:
			log.Debug("Request processed", fields...)
		}
	}
}

// RequestMetrics records route-level counters and latency.
func RequestMetrics(rec *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// RequireAuth rejects requests without a valid bearer token. A nil issuer
// leaves the route open.
func RequireAuth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if issuer == nil {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			c.Header("WWW-Authenticate", `Bearer realm="veritrustx"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="veritrustx", error="invalid_token"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(operatorKey, claims.Subject)
		c.Next()
	}
}

// RateLimit throttles by client IP. Limiter failures let the request
// through and are logged.
func RateLimit(limiter ratelimit.Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		ok, err := limiter.Allow(c.Request.Context(), c.FullPath()+"|"+c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}
