package adapter

import "context"

// InitializeResult is the provider's answer to creating a transaction:
// an optional hosted checkout page and, when given, the shortcodes of the
// mobile-money providers it will accept for this transaction.
type InitializeResult struct {
	TransactionReference string
	TransactionURL       string
	SupportedProviders   []string
}

// PushResult reports the outcome of triggering a mobile-money prompt on the
// payer's device.
type PushResult struct {
	ExternalID string
	Status     string
	Gateway    string
}

// StatusResult is the provider's current view of a transaction, used by the
// polling reconciliation path.
type StatusResult struct {
	Status   string
	Gateway  string
	Currency string
	Amount   int64
}

// GatewayClient is the hex port for the external mobile-money gateway.
// All calls are blocking network calls with a bounded timeout. Errors are
// tagged via *domain.GatewayError so callers can tell fallback-eligible
// failures (hosted checkout still possible) from fatal ones.
type GatewayClient interface {
	Name() string

	Initialize(ctx context.Context, amount int64, currency, transactionID, returnURL, notifyURL, country string) (*InitializeResult, error)
	Push(ctx context.Context, amount int64, currency, transactionID, phone, gatewayShortcode string) (*PushResult, error)
	Status(ctx context.Context, transactionID string) (*StatusResult, error)
}
