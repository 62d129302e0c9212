package middleware

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"saas-backoffice/internal/pipeline"
	"saas-backoffice/pkg/apierror"
)

type clientLimiter struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps a token bucket per client IP, with a stricter bucket for
// the authentication endpoints. A non-positive rate disables that bucket.
type RateLimiter struct {
	generalRPM int
	authRPM    int
	authPrefix string
	mu         sync.Mutex
	clients    map[string]*clientLimiter
}

func NewRateLimiter(generalRPM int, authRPM int, authPrefix string) *RateLimiter {
	if authPrefix == "" {
		authPrefix = "/api/auth/"
	}

	return &RateLimiter{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		authPrefix: authPrefix,
		clients:    map[string]*clientLimiter{},
	}
}

func (m *RateLimiter) Name() string { return "rate_limiter" }

func (m *RateLimiter) Handle(c *pipeline.Context) error {
	limiter := m.getLimiter(extractClientIP(c.Request))

	target := limiter.general
	if strings.HasPrefix(c.Request.URL.Path, m.authPrefix) {
		target = limiter.auth
	}

	if target != nil && !target.Allow() {
		c.Writer.Header().Set("Retry-After", "60")
		return apierror.TooManyRequests("too many requests")
	}

	return c.Next()
}

func (m *RateLimiter) getLimiter(clientIP string) *clientLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists := m.clients[clientIP]; exists {
		limiter.lastSeen = time.Now()
		m.gcLocked()
		return limiter
	}

	created := &clientLimiter{
		general:  newLimiter(m.generalRPM),
		auth:     newLimiter(m.authRPM),
		lastSeen: time.Now(),
	}
	m.clients[clientIP] = created
	m.gcLocked()

	return created
}

func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (m *RateLimiter) gcLocked() {
	if len(m.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.clients {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.clients, ip)
		}
	}
}
