package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"eduai-backend/internal/domain/ports/adapter"
	"eduai-backend/internal/infra/logging"
	"eduai-backend/internal/infra/metrics"
	infraRedis "eduai-backend/internal/infra/redis"
	"eduai-backend/internal/usecase"
)

type Server struct {
	tutorUC   usecase.TutorUseCase
	historyUC usecase.HistoryUseCase
	quotaUC   usecase.QuotaUseCase
	auth      *AuthManager
	views     *infraRedis.ViewCache
	uploads   adapter.UploadStore

	defaultModel   string
	requestTimeout time.Duration
	log            *zerolog.Logger
}

func NewServer(
	tutorUC usecase.TutorUseCase,
	historyUC usecase.HistoryUseCase,
	quotaUC usecase.QuotaUseCase,
	auth *AuthManager,
	views *infraRedis.ViewCache,
	uploads adapter.UploadStore,
	defaultModel string,
	requestTimeout time.Duration,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		tutorUC:        tutorUC,
		historyUC:      historyUC,
		quotaUC:        quotaUC,
		auth:           auth,
		views:          views,
		uploads:        uploads,
		defaultModel:   defaultModel,
		requestTimeout: requestTimeout,
		log:            logger,
	}
}

// Routes builds the chi router. The chat route streams and therefore stays
// outside the request-timeout group.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.traceMiddleware)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Post("/chat", s.handleChat)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))
			r.Get("/chats", s.handleListChats)
			r.Get("/chats/{id}", s.handleGetChat)
			r.Delete("/chats/{id}", s.handleRemoveChat)
			r.Get("/usage", s.handleUsage)
			r.Post("/uploads", s.handleUpload)
		})
	})
	return r
}

type ctxKey int

const sessionKey ctxKey = iota

func sessionFrom(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.auth.SessionFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		ctx = logging.WithUserID(ctx, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set("X-Trace-Id", traceID)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), traceID)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.ObserveHTTP(route, r.Method, ww.Status(), elapsed.Milliseconds())
		logging.With(r.Context(), s.log).Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Dur("duration", elapsed).
			Msg("request")
	})
}
