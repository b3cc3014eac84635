package backend

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/deerking0923/prj-sketch-backend/internal/backend/ratelimit"
	"github.com/labstack/echo/v4"
)

type RateLimiter interface {
	Allow(ctx context.Context, subject string) (ratelimit.Decision, error)
}

// withRateLimit limits requests per client and route. The client is taken
// from subjectHeader and falls back to the remote IP. Limiter failures let
// the request through.
func (s *APIService) withRateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	if s.rateLimiter == nil {
		return next
	}

	return func(c echo.Context) error {
		subject := ""
		if s.subjectHeader != "" {
			subject = strings.TrimSpace(c.Request().Header.Get(s.subjectHeader))
		}
		if subject == "" {
			subject = c.RealIP()
		}
		subject = subject + ":" + c.Path()

		decision, err := s.rateLimiter.Allow(c.Request().Context(), subject)
		if err != nil {
			slog.Warn("rate limiter check failed", "subject", subject, "error", err)
			return next(c)
		}

		c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if decision.Allowed {
			return next(c)
		}

		retryAfter := int(decision.RetryAfter.Round(time.Second).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
		s.metrics.rateLimitRejected.WithLabelValues(c.Path()).Inc()
		return c.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "rate limit exceeded",
		})
	}
}
