package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"token-presale-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateCounter counts hits per client in a shared store so every instance sees the same window
type RateCounter interface {
	IncrementRateCounter(ctx context.Context, key string, window time.Duration, now time.Time) (int, time.Time, error)
}

const requestIdHeader = "X-Request-Id"

// requestContext tags each request with an id, reusing the caller's X-Request-Id when present
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(requestIdHeader)
		if requestId == "" || len(requestId) > 64 {
			requestId = uuid.New().String()
		}
		c.Header(requestIdHeader, requestId)

		rc := &models.RequestContext{RequestId: requestId, ClientIP: c.ClientIP(), ReceivedAt: time.Now().UTC()}
		c.Request = c.Request.WithContext(models.WithRequestContext(c.Request.Context(), rc))
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if rc := models.GetRequestContext(c.Request.Context()); rc != nil {
			fields = append(fields, zap.String("request_id", rc.RequestId))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			zap.L().Error("Request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			zap.L().Warn("Request", fields...)
		default:
			zap.L().Info("Request", fields...)
		}
	}
}

// rateLimit allows limit requests per client IP per window. Store errors let the request through.
func rateLimit(counter RateCounter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		hits, resetAt, err := counter.IncrementRateCounter(c.Request.Context(), c.ClientIP(), window, time.Now())
		if err != nil {
			zap.L().Warn("Rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		remaining := limit - hits
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if hits > limit {
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "too many requests"})
			return
		}
		c.Next()
	}
}
