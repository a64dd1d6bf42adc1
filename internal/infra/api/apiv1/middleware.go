package apiv1

import (
	"context"
	"net/http"
	"strconv"

	"quiz-exam-platform/internal/domain/model"
	"quiz-exam-platform/internal/infra/logging"
	"quiz-exam-platform/internal/infra/metrics"
	red "quiz-exam-platform/internal/infra/redis"
	"quiz-exam-platform/internal/usecase"
)

type ctxKey int

const actorKey ctxKey = iota

// ActorFrom returns the authenticated caller stored by Authenticate.
func ActorFrom(ctx context.Context) (usecase.Actor, bool) {
	a, ok := ctx.Value(actorKey).(usecase.Actor)
	return a, ok
}

func withActor(ctx context.Context, a usecase.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// Authenticate requires a valid bearer token and stores the caller.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.tokens.ParseFromRequest(r)
		if err != nil {
			writeFail(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid token")
			return
		}
		actor := usecase.Actor{UserID: claims.Subject, Admin: claims.Role == string(model.RoleAdmin)}
		ctx := logging.WithUserID(withActor(r.Context(), actor), actor.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, ok := ActorFrom(r.Context())
		if !ok || !a.Admin {
			writeFail(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedeemRateLimit bounds redemption attempts per user. A limiter outage lets
// the request through.
func (s *Server) RedeemRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, _ := ActorFrom(r.Context())
		if s.limiter == nil || s.limits.RedeemPerWindow <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ok, err := s.limiter.Allow(r.Context(), red.UserActionKey(a.UserID, "redeem"), s.limits.RedeemPerWindow, s.limits.Window)
		if err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			metrics.IncRateLimited("redeem")
			w.Header().Set("Retry-After", strconv.Itoa(int(s.limits.Window.Seconds())))
			writeFail(w, http.StatusTooManyRequests, "rate_limited", "too many redeem attempts, retry later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
