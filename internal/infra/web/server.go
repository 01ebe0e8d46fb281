package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"jobboard-billing/internal/domain/ports/repository"
	"jobboard-billing/internal/usecase"
)

type Server struct {
	paymentUC usecase.PaymentUseCase
	webhookUC usecase.WebhookUseCase
	txns      repository.TransactionRepository
	auth      *AuthManager
	apiKey    string
	currency  string
	log       *zerolog.Logger

	httpSrv *http.Server
}

func NewServer(
	paymentUC usecase.PaymentUseCase,
	webhookUC usecase.WebhookUseCase,
	txns repository.TransactionRepository,
	auth *AuthManager,
	apiKey string,
	currency string,
	port int,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		paymentUC: paymentUC,
		webhookUC: webhookUC,
		txns:      txns,
		auth:      auth,
		apiKey:    apiKey,
		currency:  currency,
		log:       logger,
	}
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the chi router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/payments/webhook", s.webhookHandler())
		r.Post("/payments/subscription", s.subscriptionInitHandler())
		r.Post("/payments/job", s.jobInitHandler())

		r.Post("/admin/login", s.adminLoginHandler())
		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Get("/admin/transactions/pending", s.pendingTransactionsHandler())
			r.Get("/admin/stats/revenue", s.revenueSummaryHandler())
		})
	})
	return r
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("http server listening")
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// adminMiddleware requires a valid admin session JWT.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
