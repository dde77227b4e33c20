package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/granthub/granthub-api/utils/cache"
	"github.com/granthub/granthub-api/utils/response"
)

// BruteForceProtection handles login brute force protection using Redis
type BruteForceProtection struct {
	redisCache *cache.RedisCache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{
		redisCache: redisCache,
	}
}

func attemptKey(ip string) string {
	return fmt.Sprintf("granthub:login_attempts:%s", ip)
}

func lockKey(ip string) string {
	return fmt.Sprintf("granthub:login_lock:%s", ip)
}

// CheckAndRecordAttempt middleware rejects requests from locked-out IPs
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()

		// If Redis is down, allow the request rather than block
		// legitimate users
		locked, err := b.redisCache.Exists(c.Context(), lockKey(ip))
		if err != nil {
			return c.Next()
		}

		if locked {
			ttl, _ := b.redisCache.TTL(c.Context(), lockKey(ip))
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = 60
			}

			c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailedAttempt records a failed login and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx, ip string) error {
	ctx := c.Context()

	attempts, err := b.redisCache.Increment(ctx, attemptKey(ip))
	if err != nil {
		return nil
	}

	// 15 minute counting window
	if attempts == 1 {
		b.redisCache.Expire(ctx, attemptKey(ip), 15*time.Minute)
	}

	var lockDuration time.Duration
	switch {
	case attempts >= 25:
		lockDuration = 24 * time.Hour
	case attempts >= 10:
		lockDuration = 1 * time.Hour
	case attempts >= 5:
		lockDuration = 2 * time.Minute
	default:
		return nil
	}

	return b.redisCache.Set(ctx, lockKey(ip), "locked", lockDuration)
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx, ip string) error {
	return b.redisCache.Delete(c.Context(), attemptKey(ip), lockKey(ip))
}
