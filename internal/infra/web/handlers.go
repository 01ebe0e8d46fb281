package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/repository"
	"jobboard-billing/internal/infra/metrics"
	"jobboard-billing/internal/usecase"
)

var validate = validator.New()

const maxWebhookBody = 64 << 10 // 64 KiB

// webhookHandler receives gateway notifications. The contract with the
// provider: 200 means "processed or known duplicate, stop retrying",
// 404 means "transaction not found yet, retry later", 5xx means retry.
// A malformed body also gets a 5xx: it may be a transient truncation and
// the provider's retry is the only recovery path.
func (s *Server) webhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			metrics.IncWebhook("error")
			http.Error(w, "Failed to read body", http.StatusInternalServerError)
			return
		}

		n, err := usecase.ParseNotification(body)
		if err != nil {
			metrics.IncWebhook("invalid")
			s.log.Warn().Err(err).Msg("malformed webhook payload")
			http.Error(w, "Invalid payload", http.StatusInternalServerError)
			return
		}

		res, err := s.webhookUC.Process(ctx, n)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				metrics.IncWebhook("unmatched")
				s.log.Warn().Str("reference", n.ExternalReference).Msg("webhook did not match any transaction")
				http.NotFound(w, r)
				return
			}
			metrics.IncWebhook("error")
			s.log.Error().Err(err).Str("reference", n.ExternalReference).Msg("webhook processing failed")
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		metrics.IncWebhook(string(res.Outcome))
		switch res.Outcome {
		case usecase.OutcomeCompleted:
			metrics.IncPayment("completed")
			metrics.AddPaymentRevenue(res.Transaction.Currency, res.Transaction.Amount)
			if res.Transaction.DiscountAmount > 0 {
				metrics.AddDiscount(res.Transaction.Currency, res.Transaction.DiscountAmount)
			}
		case usecase.OutcomeFailed:
			metrics.IncPayment("failed")
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": string(res.Outcome)})
	}
}

type subscriptionInitRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	PlanSlug  string `json:"plan_slug" validate:"required"`
	PromoCode string `json:"promo_code"`
	Phone     string `json:"phone" validate:"required"`
}

type jobInitRequest struct {
	UserID    string   `json:"user_id" validate:"required"`
	JobID     string   `json:"job_id" validate:"required"`
	PlanSlug  string   `json:"plan_slug" validate:"required"`
	AddOns    []string `json:"add_ons"`
	PromoCode string   `json:"promo_code"`
	Phone     string   `json:"phone" validate:"required"`
}

type initiationResponse struct {
	TransactionID  string `json:"transaction_id"`
	Amount         int64  `json:"amount"`
	OriginalAmount int64  `json:"original_amount"`
	DiscountAmount int64  `json:"discount_amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	CheckoutURL    string `json:"checkout_url,omitempty"`
}

func (s *Server) subscriptionInitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req subscriptionInitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := s.paymentUC.InitiateSubscription(r.Context(), req.UserID, req.PlanSlug, req.PromoCode, req.Phone)
		s.writeInitiation(w, res, err)
	}
}

func (s *Server) jobInitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req jobInitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := s.paymentUC.InitiateJobUpgrade(r.Context(), req.UserID, req.JobID, req.PlanSlug, req.AddOns, req.PromoCode, req.Phone)
		s.writeInitiation(w, res, err)
	}
}

func (s *Server) writeInitiation(w http.ResponseWriter, res *usecase.InitiationResult, err error) {
	if err != nil {
		switch {
		case domain.IsValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Plan or job not found", http.StatusNotFound)
		default:
			metrics.IncPayment("init_error")
			s.log.Error().Err(err).Msg("payment initiation failed")
			http.Error(w, "Failed to initiate payment", http.StatusInternalServerError)
		}
		return
	}

	metrics.IncPayment("initiated")
	if res.CheckoutURL != "" {
		metrics.IncPayment("fallback")
	}

	writeJSON(w, http.StatusCreated, initiationResponse{
		TransactionID:  res.Transaction.ID,
		Amount:         res.Transaction.Amount,
		OriginalAmount: res.Transaction.OriginalAmount,
		DiscountAmount: res.Transaction.DiscountAmount,
		Currency:       res.Transaction.Currency,
		Status:         string(res.Transaction.Status),
		CheckoutURL:    res.CheckoutURL,
	})
}

// adminLoginHandler exchanges the configured API key for a session JWT.
func (s *Server) adminLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			APIKey string `json:"api_key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if s.apiKey == "" || req.APIKey != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		token, err := s.auth.Mint(w)
		if err != nil {
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

// pendingTransactionsHandler lists stale pending transactions for support
// staff. 'older_than_minutes' and 'limit' are optional query parameters.
func (s *Server) pendingTransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		olderMin, _ := strconv.Atoi(r.URL.Query().Get("older_than_minutes"))
		if olderMin <= 0 {
			olderMin = 10
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50
		}

		cutoff := time.Now().Add(-time.Duration(olderMin) * time.Minute)
		txns, err := s.txns.ListPendingOlderThan(r.Context(), repository.NoTX, cutoff, limit)
		if err != nil {
			http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data     []*model.Transaction `json:"data"`
			Currency string               `json:"currency"`
			Limit    int                  `json:"limit"`
		}{Data: txns, Currency: s.currency, Limit: limit}
		writeJSON(w, http.StatusOK, response)
	}
}

// revenueSummaryHandler reports completed revenue per currency over the
// last 'days' days (default 30).
func (s *Server) revenueSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, _ := strconv.Atoi(r.URL.Query().Get("days"))
		if days <= 0 {
			days = 30
		}

		since := time.Now().AddDate(0, 0, -days)
		summary, err := s.txns.SummarizeRevenueSince(r.Context(), repository.NoTX, since)
		if err != nil {
			http.Error(w, "Failed to summarize revenue", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data []*model.RevenueSummary `json:"data"`
			Days int                     `json:"days"`
		}{Data: summary, Days: days}
		writeJSON(w, http.StatusOK, response)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
