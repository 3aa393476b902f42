package httpapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/MrEthical07/taskauth"
	"github.com/MrEthical07/taskauth/internal/accounts"
	"github.com/MrEthical07/taskauth/internal/rate"
	"github.com/MrEthical07/taskauth/middleware"
)

// RateLimiter is satisfied by *rate.Limiter.
type RateLimiter interface {
	Allow(ctx context.Context, rule rate.Rule, key string) (rate.Decision, error)
}

// LoginLockout is satisfied by *rate.Lockout.
type LoginLockout interface {
	Locked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
}

// Route budgets.
var (
	RuleAuth      = rate.Rule{Name: "auth", Limit: 5, Window: time.Minute}
	RuleTaskRead  = rate.Rule{Name: "tasks_read", Limit: 500, Window: time.Hour}
	RuleTaskWrite = rate.Rule{Name: "tasks_write", Limit: 50, Window: time.Hour}
)

// limit enforces rule per authenticated subject, falling back to client IP.
// Limiter errors let the request through.
func (s *Server) limit(rule rate.Rule) Middleware {
	if s.limiter == nil {
		return nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := "ip:" + taskauth.ClientIPFromContext(ctx)
			if id, ok := middleware.SubjectID(r); ok {
				key = "user:" + strconv.FormatInt(id, 10)
			}

			d, err := s.limiter.Allow(ctx, rule, key)
			if err != nil {
				s.log.Warn(ctx, "rate limiter unavailable", "rule", rule.Name, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !d.Allowed {
				s.engine.RecordRateLimit(ctx, rule.Name)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
				writeMessage(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// lockedOut reports whether login for email is refused and writes the 429.
// Lockout store errors let the attempt through.
func (s *Server) lockedOut(w http.ResponseWriter, r *http.Request, email string) bool {
	if s.lockout == nil {
		return false
	}
	locked, err := s.lockout.Locked(r.Context(), email)
	if err != nil {
		s.log.Warn(r.Context(), "login lockout unavailable", "error", err)
		return false
	}
	if !locked {
		return false
	}
	s.engine.RecordRateLimit(r.Context(), "login_lockout")
	writeMessage(w, http.StatusTooManyRequests, msgTooManyRequests)
	return true
}

func (s *Server) loginFailed(r *http.Request, email string, err error) {
	if s.lockout == nil || !errors.Is(err, accounts.ErrInvalidCredentials) {
		return
	}
	if _, lerr := s.lockout.RecordFailure(r.Context(), email); lerr != nil {
		s.log.Warn(r.Context(), "record login failure", "error", lerr)
	}
}

func (s *Server) loginSucceeded(r *http.Request, email string) {
	if s.lockout == nil {
		return
	}
	if err := s.lockout.Reset(r.Context(), email); err != nil {
		s.log.Warn(r.Context(), "reset login failures", "error", err)
	}
}
