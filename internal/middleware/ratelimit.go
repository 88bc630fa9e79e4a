package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/zhouzirui/mindful-chat/backend/internal/logging"
	"github.com/zhouzirui/mindful-chat/backend/pkg/utils"
)

// RateLimit allows max requests per client IP in each window.
func RateLimit(max int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return httprate.Limit(max, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context(), logger).Warn("rate limit exceeded", "remote_addr", r.RemoteAddr)
			utils.RespondError(w, http.StatusTooManyRequests, "Too many requests", nil)
		}),
	)
}
