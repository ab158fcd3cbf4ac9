package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mgpai22/danmaku/internal/logging"
)

// clientLimiter holds a rate limiter and its last accessed time
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// per-client token buckets keyed by client IP
type rateLimiters struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	limit   rate.Limit
	burst   int
}

func newRateLimiters(rps float64, burst int) *rateLimiters {
	return &rateLimiters{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

func (r *rateLimiters) allow(clientIP string, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cl, ok := r.clients[clientIP]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[clientIP] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// drops limiters idle for longer than maxIdle
func (r *rateLimiters) cleanup(now time.Time, maxIdle time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ip, cl := range r.clients {
		if now.Sub(cl.lastSeen) > maxIdle {
			delete(r.clients, ip)
		}
	}
}

func (r *rateLimiters) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *rateLimiters) runCleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.cleanup(now, 10*time.Minute)
		case <-stop:
			return
		}
	}
}

func PerClientRateLimit(limiters *rateLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please slow down your requests.",
			})
			return
		}
		c.Next()
	}
}

func RequestSizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// logs one line per request at Info, Warn for 4xx and Error for 5xx
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Errorw("Request failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warnw("Request rejected", fields...)
		default:
			logger.Infow("Request handled", fields...)
		}
	}
}
