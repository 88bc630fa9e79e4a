package handler

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mindful-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/mindful-chat/backend/internal/logging"
	middlewarePkg "github.com/zhouzirui/mindful-chat/backend/internal/middleware"
	chatService "github.com/zhouzirui/mindful-chat/backend/internal/service/chat"
	"github.com/zhouzirui/mindful-chat/backend/pkg/utils"
)

// APIVersion is reported by the API index.
const APIVersion = "1.0.0"

// Options configures the router.
type Options struct {
	Env             string
	StoreDriver     string
	Development     bool
	RateLimitMax    int
	RateLimitWindow time.Duration
	Logger          *slog.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(middlewarePkg.SecureHeaders(opts.Development))
	r.Use(middlewarePkg.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context(), logger).Warn("route not found", "method", r.Method, "path", r.URL.Path)
		utils.RespondNotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed: "+r.Method+" "+r.URL.Path, nil)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		storeStatus := "ok"
		if err := chatSvc.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context(), logger).Error("store ping failed", "error", err)
			status = http.StatusServiceUnavailable
			storeStatus = "unavailable"
		}
		utils.RespondJSON(w, status, map[string]any{
			"status":      http.StatusText(status),
			"environment": opts.Env,
			"store":       map[string]string{"driver": opts.StoreDriver, "status": storeStatus},
			"timestamp":   time.Now().UTC(),
		})
	})

	chatHandler := chat.New(chatSvc, logger, opts.Development)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middlewarePkg.RateLimit(opts.RateLimitMax, opts.RateLimitWindow, logger))

		api.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondSuccess(w, http.StatusOK, "Mental Health Chatbot API", map[string]any{
				"version": APIVersion,
				"endpoints": map[string]string{
					"sendMessage":   "POST /api/v1/chat",
					"createSession": "POST /api/v1/chat/session",
					"getHistory":    "GET /api/v1/chat/{sessionId}",
					"deleteSession": "DELETE /api/v1/chat/{sessionId}",
				},
			})
		})

		api.Route("/chat", chatHandler.RegisterRoutes)
	})

	return r
}

// recoverer turns a handler panic into a 500 envelope.
func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.FromContext(r.Context(), logger).Error("panic recovered",
					"panic", rec, "stack", string(debug.Stack()))
				utils.RespondError(w, http.StatusInternalServerError, "Internal server error", nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
