package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/ports/adapter"
)

var _ adapter.GatewayClient = (*PayUnitGateway)(nil)

const (
	liveBaseURL = "https://gateway.payunit.net/api/gateway"
	testBaseURL = "https://app.payunit.net/api/gateway"
)

// Provider error codes after which the direct mobile-money push cannot
// proceed but the hosted checkout page still can.
var fallbackCodes = map[string]bool{
	"DIRECT_PAYMENT_DISABLED": true,
	"PUSH_NOT_SUPPORTED":      true,
	"OPERATION_NOT_ALLOWED":   true,
}

// PayUnitGateway implements the GatewayClient port against the PayUnit
// aggregator using direct HTTP calls. Auth is HTTP Basic (API user and
// password) plus an x-api-key header and a mode header (test/live).
type PayUnitGateway struct {
	apiUser     string
	apiPassword string
	apiKey      string
	mode        string
	returnURL   string
	baseURL     string
	client      *http.Client
}

// NewPayUnitGateway creates a gateway client. mode must be "test" or "live".
func NewPayUnitGateway(apiUser, apiPassword, apiKey, mode, returnURL string) (*PayUnitGateway, error) {
	var baseURL string
	switch mode {
	case "live":
		baseURL = liveBaseURL
	case "test":
		baseURL = testBaseURL
	default:
		return nil, fmt.Errorf("payunit: invalid mode %q", mode)
	}
	return &PayUnitGateway{
		apiUser:     apiUser,
		apiPassword: apiPassword,
		apiKey:      apiKey,
		mode:        mode,
		returnURL:   returnURL,
		baseURL:     baseURL,
		client:      &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (g *PayUnitGateway) Name() string { return "payunit" }

// initializeResponse represents the response from the initialize API.
type initializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"error_code"`
	Data    struct {
		TransactionID  string `json:"transaction_id"`
		TransactionURL string `json:"transaction_url"`
		Providers      []struct {
			Shortcode string `json:"shortcode"`
		} `json:"providers"`
	} `json:"data"`
}

// pushResponse represents the response from the makepayment API.
type pushResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    string `json:"error_code"`
	Data    struct {
		TransactionID         string `json:"transaction_id"`
		PaymentStatus         string `json:"payment_status"`
		ExternalTransactionID string `json:"external_transaction_id"`
		Gateway               string `json:"gateway"`
	} `json:"data"`
}

// statusResponse represents the response from the paymentstatus API.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TransactionStatus string `json:"transaction_status"`
		Gateway           string `json:"gateway"`
		Currency          string `json:"currency"`
		Amount            int64  `json:"amount"`
	} `json:"data"`
}

func (g *PayUnitGateway) Initialize(ctx context.Context, amount int64, currency, transactionID, returnURL, notifyURL, country string) (*adapter.InitializeResult, error) {
	body := map[string]any{
		"total_amount":    amount,
		"currency":        currency,
		"transaction_id":  transactionID,
		"return_url":      returnURL,
		"notify_url":      notifyURL,
		"payment_country": country,
	}
	var resp initializeResponse
	if err := g.post(ctx, "/initialize", body, &resp); err != nil {
		return nil, &domain.GatewayError{Op: "initialize", Err: err}
	}
	if resp.Status != "SUCCESS" {
		return nil, &domain.GatewayError{Op: "initialize", Err: fmt.Errorf("payunit: %s (%s)", resp.Message, resp.Code)}
	}
	out := &adapter.InitializeResult{
		TransactionReference: resp.Data.TransactionID,
		TransactionURL:       resp.Data.TransactionURL,
	}
	for _, p := range resp.Data.Providers {
		out.SupportedProviders = append(out.SupportedProviders, p.Shortcode)
	}
	return out, nil
}

func (g *PayUnitGateway) Push(ctx context.Context, amount int64, currency, transactionID, phone, gatewayShortcode string) (*adapter.PushResult, error) {
	body := map[string]any{
		"gateway":        gatewayShortcode,
		"amount":         amount,
		"transaction_id": transactionID,
		"phone_number":   phone,
		"return_url":     g.returnURL,
		"currency":       currency,
		"payment_type":   "button",
	}
	var resp pushResponse
	if err := g.post(ctx, "/makepayment", body, &resp); err != nil {
		return nil, &domain.GatewayError{Op: "push", Err: err}
	}
	if resp.Status != "SUCCESS" {
		return nil, &domain.GatewayError{
			Op:       "push",
			Fallback: fallbackCodes[resp.Code],
			Err:      fmt.Errorf("payunit: %s (%s)", resp.Message, resp.Code),
		}
	}
	return &adapter.PushResult{
		ExternalID: resp.Data.ExternalTransactionID,
		Status:     resp.Data.PaymentStatus,
		Gateway:    resp.Data.Gateway,
	}, nil
}

func (g *PayUnitGateway) Status(ctx context.Context, transactionID string) (*adapter.StatusResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/paymentstatus/"+transactionID, nil)
	if err != nil {
		return nil, &domain.GatewayError{Op: "status", Err: err}
	}
	var resp statusResponse
	if err := g.do(req, &resp); err != nil {
		return nil, &domain.GatewayError{Op: "status", Err: err}
	}
	if resp.Status != "SUCCESS" {
		return nil, &domain.GatewayError{Op: "status", Err: fmt.Errorf("payunit: %s", resp.Message)}
	}
	return &adapter.StatusResult{
		Status:   resp.Data.TransactionStatus,
		Gateway:  resp.Data.Gateway,
		Currency: resp.Data.Currency,
		Amount:   resp.Data.Amount,
	}, nil
}

func (g *PayUnitGateway) post(ctx context.Context, path string, body any, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request data: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return g.do(req, out)
}

func (g *PayUnitGateway) do(req *http.Request, out any) error {
	req.SetBasicAuth(g.apiUser, g.apiPassword)
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("mode", g.mode)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(raw))
	}
	return nil
}
