// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"jobboard-billing/internal/domain"
	"jobboard-billing/internal/domain/model"
	"jobboard-billing/internal/domain/ports/adapter"
	"jobboard-billing/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ----- plans -----

type MockPlanRepo struct {
	mu    sync.RWMutex
	store map[string]*model.PricingPlan // by slug

	FindBySlugFunc func(ctx context.Context, tx repository.Tx, slug string) (*model.PricingPlan, error)
	FindByIDFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.PricingPlan, error)
}

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: make(map[string]*model.PricingPlan)}
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.PricingPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.Slug] = &cp
	return nil
}

func (m *MockPlanRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.PricingPlan, error) {
	if m.FindBySlugFunc != nil {
		return m.FindBySlugFunc(ctx, tx, slug)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PricingPlan, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.PricingPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.PricingPlan
	for _, p := range m.store {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ----- transactions -----

type MockTransactionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Transaction

	SaveFunc                  func(ctx context.Context, tx repository.Tx, t *model.Transaction) error
	SetProviderReferenceFunc  func(ctx context.Context, tx repository.Tx, id, ref string, meta model.AuditTrail) error
	SaveMetadataFunc          func(ctx context.Context, tx repository.Tx, id string, meta model.AuditTrail) error
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, callbackAt time.Time) (bool, error)
}

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{store: make(map[string]*model.Transaction)}
}

func (m *MockTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, t); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *MockTransactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepo) FindByProviderReference(ctx context.Context, tx repository.Tx, ref string) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.store {
		if t.ProviderReference != nil && *t.ProviderReference == ref {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockTransactionRepo) SetProviderReference(ctx context.Context, tx repository.Tx, id, ref string, meta model.AuditTrail) error {
	if m.SetProviderReferenceFunc != nil {
		return m.SetProviderReferenceFunc(ctx, tx, id, ref, meta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.ProviderReference = &ref
	t.Metadata = t.Metadata.Merge(meta)
	return nil
}

func (m *MockTransactionRepo) SaveMetadata(ctx context.Context, tx repository.Tx, id string, meta model.AuditTrail) error {
	if m.SaveMetadataFunc != nil {
		return m.SaveMetadataFunc(ctx, tx, id, meta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	// Merge like the real repository's jsonb concatenation.
	t.Metadata = t.Metadata.Merge(meta)
	return nil
}

func (m *MockTransactionRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus, callbackAt time.Time) (bool, error) {
	if m.UpdateStatusIfPendingFunc != nil {
		return m.UpdateStatusIfPendingFunc(ctx, tx, id, status, callbackAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok || t.Status != model.TransactionStatusPending {
		return false, nil
	}
	t.Status = status
	cb := callbackAt
	t.CallbackReceivedAt = &cb
	return true, nil
}

func (m *MockTransactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Transaction
	for _, t := range m.store {
		if t.Status == model.TransactionStatusPending && t.CreatedAt.Before(olderThan) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockTransactionRepo) SummarizeRevenueSince(ctx context.Context, tx repository.Tx, since time.Time) ([]*model.RevenueSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byCurrency := make(map[string]*model.RevenueSummary)
	for _, t := range m.store {
		if t.Status != model.TransactionStatusCompleted || t.CreatedAt.Before(since) {
			continue
		}
		s, ok := byCurrency[t.Currency]
		if !ok {
			s = &model.RevenueSummary{Currency: t.Currency}
			byCurrency[t.Currency] = s
		}
		s.CompletedCount++
		s.TotalAmount += t.Amount
		s.TotalDiscount += t.DiscountAmount
	}
	var out []*model.RevenueSummary
	for _, s := range byCurrency {
		out = append(out, s)
	}
	return out, nil
}

// ----- promo codes -----

type MockPromoRepo struct {
	mu          sync.Mutex
	usage       map[string]int
	redemptions map[string]*model.PromoCodeRedemption // promoID+txnID

	ValidateAtomicFunc func(ctx context.Context, tx repository.Tx, code, planSlug, userID string, amount int64) (*model.PromoValidation, error)
	FindByIDFunc       func(ctx context.Context, tx repository.Tx, id string) (*model.PromoCode, error)
}

func NewMockPromoRepo() *MockPromoRepo {
	return &MockPromoRepo{usage: make(map[string]int), redemptions: make(map[string]*model.PromoCodeRedemption)}
}

func (m *MockPromoRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PromoCode, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockPromoRepo) ValidateAtomic(ctx context.Context, tx repository.Tx, code, planSlug, userID string, amount int64) (*model.PromoValidation, error) {
	if m.ValidateAtomicFunc != nil {
		return m.ValidateAtomicFunc(ctx, tx, code, planSlug, userID, amount)
	}
	return &model.PromoValidation{Valid: false, Reason: "unknown code"}, nil
}

func (m *MockPromoRepo) IncrementUsage(ctx context.Context, tx repository.Tx, promoCodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[promoCodeID]++
	return nil
}

func (m *MockPromoRepo) Usage(promoCodeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage[promoCodeID]
}

func (m *MockPromoRepo) SaveRedemption(ctx context.Context, tx repository.Tx, r *model.PromoCodeRedemption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := r.PromoCodeID + "/" + r.TransactionID
	if _, exists := m.redemptions[key]; exists {
		return nil // replay is a no-op
	}
	cp := *r
	m.redemptions[key] = &cp
	return nil
}

func (m *MockPromoRepo) RedemptionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redemptions)
}

// ----- subscriptions -----

type MockSubscriptionRepo struct {
	mu    sync.Mutex
	subs  map[string]*model.Subscription // by subscription ID
	saves int

	FindLatestActiveByUserFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error)
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.ID] = &cp
	m.saves++
	return nil
}

func (m *MockSubscriptionRepo) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MockSubscriptionRepo) All() []*model.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindLatestActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	if m.FindLatestActiveByUserFunc != nil {
		return m.FindLatestActiveByUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.Subscription
	for _, s := range m.subs {
		// Non-expiring audit rows are excluded, matching the repository.
		if s.UserID != userID || s.Status != model.SubscriptionStatusActive || s.EndDate == nil {
			continue
		}
		if best == nil || s.EndDate.After(*best.EndDate) {
			best = s
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *MockSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ----- users -----

type MockUserRepo struct {
	mu       sync.Mutex
	store    map[string]*model.User
	verified map[string]int // SetVerified call count per user
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: make(map[string]*model.User), verified: make(map[string]int)}
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) Put(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
}

func (m *MockUserRepo) SetVerified(ctx context.Context, tx repository.Tx, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verified[userID]++
	if u, ok := m.store[userID]; ok {
		u.IsVerified = true
	}
	return nil
}

func (m *MockUserRepo) VerifiedCalls(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verified[userID]
}

// ----- jobs -----

type jobTierUpdate struct {
	JobID         string
	Tier          string
	Featured      bool
	Promoted      bool
	TransactionID string
}

type MockJobRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Job
	updates []jobTierUpdate

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Job, error)
}

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{store: make(map[string]*model.Job)}
}

func (m *MockJobRepo) Put(j *model.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	m.store[j.ID] = &cp
}

func (m *MockJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *MockJobRepo) UpdateHiringTier(ctx context.Context, tx repository.Tx, jobID, tier string, featured, promoted bool, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, jobTierUpdate{jobID, tier, featured, promoted, transactionID})
	if j, ok := m.store[jobID]; ok {
		j.HiringTier = tier
		j.IsFeatured = featured
		j.IsPromoted = promoted
	}
	return nil
}

func (m *MockJobRepo) Updates() []jobTierUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]jobTierUpdate(nil), m.updates...)
}

// ----- gateway -----

type MockGateway struct {
	InitializeFunc func(ctx context.Context, amount int64, currency, transactionID, returnURL, notifyURL, country string) (*adapter.InitializeResult, error)
	PushFunc       func(ctx context.Context, amount int64, currency, transactionID, phone, gatewayShortcode string) (*adapter.PushResult, error)
	StatusFunc     func(ctx context.Context, transactionID string) (*adapter.StatusResult, error)
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) Initialize(ctx context.Context, amount int64, currency, transactionID, returnURL, notifyURL, country string) (*adapter.InitializeResult, error) {
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, amount, currency, transactionID, returnURL, notifyURL, country)
	}
	return &adapter.InitializeResult{TransactionReference: "ref-" + transactionID, TransactionURL: "https://pay.example/" + transactionID}, nil
}

func (m *MockGateway) Push(ctx context.Context, amount int64, currency, transactionID, phone, gatewayShortcode string) (*adapter.PushResult, error) {
	if m.PushFunc != nil {
		return m.PushFunc(ctx, amount, currency, transactionID, phone, gatewayShortcode)
	}
	return &adapter.PushResult{ExternalID: "ext-" + transactionID, Status: "PENDING", Gateway: gatewayShortcode}, nil
}

func (m *MockGateway) Status(ctx context.Context, transactionID string) (*adapter.StatusResult, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, transactionID)
	}
	return &adapter.StatusResult{Status: "PENDING"}, nil
}

// ----- transaction manager -----

type MockTxManager struct {
	Calls int
}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	return fn(ctx, repository.NoTX)
}

// ----- entitlements -----

type MockEntitlementApplier struct {
	mu      sync.Mutex
	applied []string // transaction IDs

	ApplyFunc func(ctx context.Context, tx repository.Tx, txn *model.Transaction, plan *model.PricingPlan) error
}

func (m *MockEntitlementApplier) Apply(ctx context.Context, tx repository.Tx, txn *model.Transaction, plan *model.PricingPlan) error {
	m.mu.Lock()
	m.applied = append(m.applied, txn.ID)
	m.mu.Unlock()
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, tx, txn, plan)
	}
	return nil
}

func (m *MockEntitlementApplier) Applied() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.applied)
}
