package payment

import (
	"context"
	"fmt"
	"sync"

	"jobboard-billing/internal/domain/ports/adapter"
)

var _ adapter.GatewayClient = (*NoopGateway)(nil)

// NoopGateway is a simple in-memory gateway for dev mode and tests.
type NoopGateway struct {
	mu      sync.Mutex
	seq     int64
	amounts map[string]int64 // transaction id -> amount
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{amounts: make(map[string]int64)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopGateway) Initialize(ctx context.Context, amount int64, currency, transactionID, returnURL, notifyURL, country string) (*adapter.InitializeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.amounts[transactionID] = amount
	ref := g.next()
	return &adapter.InitializeResult{
		TransactionReference: ref,
		TransactionURL:       "https://example.test/pay/" + ref,
	}, nil
}

func (g *NoopGateway) Push(ctx context.Context, amount int64, currency, transactionID, phone, gatewayShortcode string) (*adapter.PushResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if exp, ok := g.amounts[transactionID]; !ok || exp != amount {
		return nil, fmt.Errorf("noop: unknown transaction or amount mismatch")
	}
	return &adapter.PushResult{ExternalID: "ext-" + transactionID, Status: "PENDING", Gateway: gatewayShortcode}, nil
}

func (g *NoopGateway) Status(ctx context.Context, transactionID string) (*adapter.StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	amount, ok := g.amounts[transactionID]
	if !ok {
		return nil, fmt.Errorf("noop: unknown transaction")
	}
	return &adapter.StatusResult{Status: "PENDING", Gateway: "noop", Currency: "XAF", Amount: amount}, nil
}
