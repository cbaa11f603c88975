package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avioline/airreserve/internal/domain"
	"github.com/avioline/airreserve/internal/service/auth"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	ctxEmail = "identity_email"
	ctxRole  = "identity_role"
)

// AuthRequired parses the Bearer token and stores the identity on the
// context. Requests without a valid token are rejected.
func AuthRequired(authSvc auth.AuthUseCase) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := authSvc.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, string(claims.Role))
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != string(domain.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func identityEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

const visitorIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorRegistry keeps one token bucket per client address. Buckets idle
// longer than the TTL are swept so the map stays bounded by the number of
// recently active clients.
type visitorRegistry struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	ttl      time.Duration
	visitors map[string]*visitor
}

func newVisitorRegistry(rps float64, burst int, ttl time.Duration) *visitorRegistry {
	return &visitorRegistry{
		rps:      rate.Limit(rps),
		burst:    burst,
		ttl:      ttl,
		visitors: make(map[string]*visitor),
	}
}

func (r *visitorRegistry) limiterFor(ip string, now time.Time) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (r *visitorRegistry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ip, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.ttl {
			delete(r.visitors, ip)
		}
	}
}

func (r *visitorRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// RateLimit enforces a per-client request rate.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	registry := newVisitorRegistry(rps, burst, visitorIdleTTL)

	go func() {
		ticker := time.NewTicker(visitorIdleTTL)
		defer ticker.Stop()
		for now := range ticker.C {
			registry.sweep(now)
		}
	}()

	return func(c *gin.Context) {
		if !registry.limiterFor(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// respondError maps domain errors to HTTP statuses. Business rejections
// travel verbatim; anything unexpected is a generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAccountLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFlightNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrAirportNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoSeats),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
