package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"nabidh-access-engine/internal/infra/api"
	"nabidh-access-engine/internal/infra/i18n"
	"nabidh-access-engine/internal/infra/logging"
	red "nabidh-access-engine/internal/infra/redis"
	"nabidh-access-engine/internal/usecase"
)

// Server wires the engine's HTTP surface: the public verify/analyze routes
// and the audited admin console API.
type Server struct {
	activationUC usecase.Verifier
	analysisUC   *usecase.AnalysisUseCase
	genUC        *usecase.GeneratorUseCase
	adminUC      *usecase.AdminUseCase
	auth         *AuthManager
	limiter      *red.RateLimiter
	verifyLimit  int
	tr           *i18n.Translator
	log          *zerolog.Logger
}

func NewServer(
	activationUC usecase.Verifier,
	analysisUC *usecase.AnalysisUseCase,
	genUC *usecase.GeneratorUseCase,
	adminUC *usecase.AdminUseCase,
	auth *AuthManager,
	limiter *red.RateLimiter,
	verifyPerMinute int,
	tr *i18n.Translator,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		activationUC: activationUC,
		analysisUC:   analysisUC,
		genUC:        genUC,
		adminUC:      adminUC,
		auth:         auth,
		limiter:      limiter,
		verifyLimit:  verifyPerMinute,
		tr:           tr,
		log:          &l,
	}
}

// Routes builds the router. Admin routes sit behind the JWT middleware; the
// verify and analyze routes are public but rate limited per code.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(api.TraceID())
	r.Use(api.Recover(s.log))
	r.Use(api.RequestLog(s.log))
	r.Use(api.Timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/verify", s.handleVerify)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/admin/login", s.handleAdminLogin)
		r.Post("/admin/logout", s.handleAdminLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/admin/codes", s.handleGenerate)
			r.Get("/admin/codes", s.handleListCodes)
			r.Post("/admin/codes/{code}/ban", s.handleBan)
			r.Post("/admin/codes/{code}/unban", s.handleUnban)
			r.Post("/admin/codes/{code}/renew", s.handleRenew)
			r.Delete("/admin/codes/{code}", s.handleDelete)
			r.Get("/admin/audit", s.handleAuditLog)
		})
	})

	return r
}

type adminCtxKey struct{}

// requireAdmin authenticates the admin JWT and stashes the admin identity
// for handlers and audit entries.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := logging.WithAdminID(r.Context(), claims.Subject)
		ctx = context.WithValue(ctx, adminCtxKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminID pulls the authenticated admin identity set by requireAdmin.
func adminID(r *http.Request) string {
	if v, ok := r.Context().Value(adminCtxKey{}).(string); ok {
		return v
	}
	return "admin"
}
