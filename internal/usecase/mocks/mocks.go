package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

// MockTransaction is a no-op transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	mu        sync.Mutex
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
	Started   []*MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Started = append(m.Started, tx)
	return tx, nil
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	Prefix  string
	counter int
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{Prefix: "id"}
}

func (m *MockIDGenerator) Generate() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%s-%d", m.Prefix, m.counter)
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	GetByIDFunc              func(ctx context.Context, id string) (*domain.Account, error)
	GetByOwnerAndKindFunc    func(ctx context.Context, ownerID string, kind domain.AccountKind) (*domain.Account, error)
	GetOrCreateForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ownerID string, kind domain.AccountKind, allowNegative bool, newID string, now time.Time) (*domain.Account, error)
	GetByIDForUpdateFunc     func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc    func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc        func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error
	ListFunc                 func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed stores an account directly.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByOwnerAndKind(ctx context.Context, ownerID string, kind domain.AccountKind) (*domain.Account, error) {
	if m.GetByOwnerAndKindFunc != nil {
		return m.GetByOwnerAndKindFunc(ctx, ownerID, kind)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID && acc.Kind == kind {
			return acc, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetOrCreateForUpdate(ctx context.Context, tx usecase.Transaction, ownerID string, kind domain.AccountKind, allowNegative bool, newID string, now time.Time) (*domain.Account, error) {
	if m.GetOrCreateForUpdateFunc != nil {
		return m.GetOrCreateForUpdateFunc(ctx, tx, ownerID, kind, allowNegative, newID, now)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range m.accounts {
		if acc.OwnerID == ownerID && acc.Kind == kind {
			return acc, nil
		}
	}
	acc := &domain.Account{
		ID:                   newID,
		OwnerID:              ownerID,
		Kind:                 kind,
		Balance:              decimal.Zero,
		AllowNegativeBalance: allowNegative,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	m.accounts[newID] = acc
	return acc, nil
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, version int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, version, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.Version = version
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Entry

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error
	GetByIDFunc             func(ctx context.Context, id string) (*domain.Entry, error)
	GetByExternalRefFunc    func(ctx context.Context, tx usecase.Transaction, accountID string, direction domain.EntryDirection, ref string) (*domain.Entry, error)
	GetByReferenceFunc      func(ctx context.Context, tx usecase.Transaction, ref, category string) (*domain.Entry, error)
	ApplyFunc               func(ctx context.Context, tx usecase.Transaction, id string, balanceBefore, balanceAfter decimal.Decimal, version int64, completedAt time.Time) error
	MarkFailedFunc          func(ctx context.Context, tx usecase.Transaction, id string) error
	SetCompletedAtFunc      func(ctx context.Context, tx usecase.Transaction, id string, completedAt time.Time) error
	ListByAccountFunc       func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error)
	SumSuccessByAccountFunc func(ctx context.Context, accountID string) (decimal.Decimal, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{
		entries: make(map[string]*domain.Entry),
	}
}

func (m *MockEntryRepository) Seed(entry *domain.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
}

// Entries returns every stored entry.
func (m *MockEntryRepository) Entries() []*domain.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) GetByExternalRef(ctx context.Context, tx usecase.Transaction, accountID string, direction domain.EntryDirection, ref string) (*domain.Entry, error) {
	if m.GetByExternalRefFunc != nil {
		return m.GetByExternalRefFunc(ctx, tx, accountID, direction, ref)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.AccountID == accountID && e.Direction == direction && e.ExternalRef != nil && *e.ExternalRef == ref {
			return e, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) GetByReference(ctx context.Context, tx usecase.Transaction, ref, category string) (*domain.Entry, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, tx, ref, category)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.Category == category && e.ExternalRef != nil && *e.ExternalRef == ref {
			return e, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) Apply(ctx context.Context, tx usecase.Transaction, id string, balanceBefore, balanceAfter decimal.Decimal, version int64, completedAt time.Time) error {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, tx, id, balanceBefore, balanceAfter, version, completedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}
	e.Status = domain.EntryStatusSuccess
	e.BalanceBefore = balanceBefore
	e.BalanceAfter = balanceAfter
	e.AccountVersion = version
	e.CompletedAt = &completedAt
	return nil
}

func (m *MockEntryRepository) MarkFailed(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.Status = domain.EntryStatusFailed
	}
	return nil
}

func (m *MockEntryRepository) SetCompletedAt(ctx context.Context, tx usecase.Transaction, id string, completedAt time.Time) error {
	if m.SetCompletedAtFunc != nil {
		return m.SetCompletedAtFunc(ctx, tx, id, completedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.CompletedAt = &completedAt
	}
	return nil
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Entry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEntryRepository) SumSuccessByAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if m.SumSuccessByAccountFunc != nil {
		return m.SumSuccessByAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.AccountID == accountID && e.Status == domain.EntryStatusSuccess {
			sum = sum.Add(e.Signed())
		}
	}
	return sum, nil
}

// MockEscrowRepository is a mock implementation of EscrowRepository.
type MockEscrowRepository struct {
	mu      sync.RWMutex
	escrows map[string]*domain.EscrowRecord

	CreateFunc           func(ctx context.Context, tx usecase.Transaction, escrow *domain.EscrowRecord) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.EscrowRecord, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.EscrowRecord, error)
	GetByTaskIDFunc      func(ctx context.Context, taskID string) (*domain.EscrowRecord, error)
	UpdateStatusFunc     func(ctx context.Context, tx usecase.Transaction, id string, status domain.EscrowStatus, submissionID *string, releasedAt time.Time) error
	ListByAdvertiserFunc func(ctx context.Context, advertiserID string, limit, offset int) ([]*domain.EscrowRecord, error)
}

func NewMockEscrowRepository() *MockEscrowRepository {
	return &MockEscrowRepository{
		escrows: make(map[string]*domain.EscrowRecord),
	}
}

func (m *MockEscrowRepository) Seed(escrow *domain.EscrowRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escrows[escrow.ID] = escrow
}

func (m *MockEscrowRepository) Create(ctx context.Context, tx usecase.Transaction, escrow *domain.EscrowRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, escrow)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.escrows {
		if e.TaskID == escrow.TaskID && e.Status == domain.EscrowStatusLocked {
			return domain.ErrEscrowExists
		}
	}
	m.escrows[escrow.ID] = escrow
	return nil
}

func (m *MockEscrowRepository) GetByID(ctx context.Context, id string) (*domain.EscrowRecord, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.escrows[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEscrowNotFound
}

func (m *MockEscrowRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.EscrowRecord, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockEscrowRepository) GetByTaskID(ctx context.Context, taskID string) (*domain.EscrowRecord, error) {
	if m.GetByTaskIDFunc != nil {
		return m.GetByTaskIDFunc(ctx, taskID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.escrows {
		if e.TaskID == taskID {
			return e, nil
		}
	}
	return nil, domain.ErrEscrowNotFound
}

func (m *MockEscrowRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EscrowStatus, submissionID *string, releasedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, submissionID, releasedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.escrows[id]
	if !ok {
		return domain.ErrEscrowNotFound
	}
	e.Status = status
	e.SubmissionID = submissionID
	e.ReleasedAt = &releasedAt
	return nil
}

func (m *MockEscrowRepository) ListByAdvertiser(ctx context.Context, advertiserID string, limit, offset int) ([]*domain.EscrowRecord, error) {
	if m.ListByAdvertiserFunc != nil {
		return m.ListByAdvertiserFunc(ctx, advertiserID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.EscrowRecord
	for _, e := range m.escrows {
		if e.AdvertiserID == advertiserID {
			out = append(out, e)
		}
	}
	return out, nil
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository.
type MockWithdrawalRepository struct {
	mu       sync.RWMutex
	requests map[string]*domain.WithdrawalRequest

	CreateFunc                   func(ctx context.Context, tx usecase.Transaction, req *domain.WithdrawalRequest) error
	GetByIDFunc                  func(ctx context.Context, id string) (*domain.WithdrawalRequest, error)
	GetByIDForUpdateFunc         func(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error)
	GetByGatewayRefForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ref string) (*domain.WithdrawalRequest, error)
	SumPendingByUserFunc         func(ctx context.Context, tx usecase.Transaction, userID string) (decimal.Decimal, error)
	UpdateDecisionFunc           func(ctx context.Context, tx usecase.Transaction, req *domain.WithdrawalRequest) error
	UpdateSettlementFunc         func(ctx context.Context, tx usecase.Transaction, id string, status domain.WithdrawalStatus, processedAt time.Time) error
	ListByUserFunc               func(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, error)
}

func NewMockWithdrawalRepository() *MockWithdrawalRepository {
	return &MockWithdrawalRepository{
		requests: make(map[string]*domain.WithdrawalRequest),
	}
}

func (m *MockWithdrawalRepository) Seed(req *domain.WithdrawalRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, tx usecase.Transaction, req *domain.WithdrawalRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	return nil
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id string) (*domain.WithdrawalRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.requests[id]; ok {
		return r, nil
	}
	return nil, domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.WithdrawalRequest, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockWithdrawalRepository) GetByGatewayRefForUpdate(ctx context.Context, tx usecase.Transaction, ref string) (*domain.WithdrawalRequest, error) {
	if m.GetByGatewayRefForUpdateFunc != nil {
		return m.GetByGatewayRefForUpdateFunc(ctx, tx, ref)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.requests {
		if r.GatewayReference == ref {
			return r, nil
		}
	}
	return nil, domain.ErrWithdrawalNotFound
}

func (m *MockWithdrawalRepository) SumPendingByUser(ctx context.Context, tx usecase.Transaction, userID string) (decimal.Decimal, error) {
	if m.SumPendingByUserFunc != nil {
		return m.SumPendingByUserFunc(ctx, tx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, r := range m.requests {
		if r.UserID == userID && r.Status == domain.WithdrawalStatusPending {
			sum = sum.Add(r.Amount)
		}
	}
	return sum, nil
}

func (m *MockWithdrawalRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, req *domain.WithdrawalRequest) error {
	if m.UpdateDecisionFunc != nil {
		return m.UpdateDecisionFunc(ctx, tx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
	return nil
}

func (m *MockWithdrawalRepository) UpdateSettlement(ctx context.Context, tx usecase.Transaction, id string, status domain.WithdrawalStatus, processedAt time.Time) error {
	if m.UpdateSettlementFunc != nil {
		return m.UpdateSettlementFunc(ctx, tx, id, status, processedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return domain.ErrWithdrawalNotFound
	}
	r.Status = status
	return nil
}

func (m *MockWithdrawalRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.WithdrawalRequest, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.WithdrawalRequest
	for _, r := range m.requests {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockReferralRepository is a mock implementation of ReferralRepository.
type MockReferralRepository struct {
	mu        sync.RWMutex
	codes     map[string]*domain.ReferralCode
	referrals map[string]*domain.Referral
	tiers     map[string]*domain.CommissionTier
	earnings  map[string]*domain.ReferralEarning

	GetTierFunc          func(ctx context.Context, level int, earningType domain.EarningType) (*domain.CommissionTier, error)
	StatsByReferrerFunc  func(ctx context.Context, referrerID string) (*domain.ReferralStats, error)
	HasSignupEarningFunc func(ctx context.Context, tx usecase.Transaction, referrerID, referredID string) (bool, error)
}

func NewMockReferralRepository() *MockReferralRepository {
	return &MockReferralRepository{
		codes:     make(map[string]*domain.ReferralCode),
		referrals: make(map[string]*domain.Referral),
		tiers:     make(map[string]*domain.CommissionTier),
		earnings:  make(map[string]*domain.ReferralEarning),
	}
}

func (m *MockReferralRepository) SeedCode(code *domain.ReferralCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.ID] = code
}

func (m *MockReferralRepository) SeedReferral(ref *domain.Referral) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.referrals[ref.ID] = ref
}

func (m *MockReferralRepository) SeedTier(tier *domain.CommissionTier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers[tierKey(tier.Level, tier.EarningType)] = tier
}

func (m *MockReferralRepository) SeedEarning(earning *domain.ReferralEarning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.earnings[earning.ID] = earning
}

// Earnings returns every stored earning.
func (m *MockReferralRepository) Earnings() []*domain.ReferralEarning {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.ReferralEarning, 0, len(m.earnings))
	for _, e := range m.earnings {
		out = append(out, e)
	}
	return out
}

func tierKey(level int, earningType domain.EarningType) string {
	return fmt.Sprintf("%d/%s", level, earningType)
}

func (m *MockReferralRepository) CreateCode(ctx context.Context, code *domain.ReferralCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.ID] = code
	return nil
}

func (m *MockReferralRepository) GetCodeByCode(ctx context.Context, code string) (*domain.ReferralCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.codes {
		if c.Code == code && c.Active {
			return c, nil
		}
	}
	return nil, domain.ErrReferralCodeNotFound
}

func (m *MockReferralRepository) GetActiveCodeByUser(ctx context.Context, userID string) (*domain.ReferralCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.codes {
		if c.UserID == userID && c.Active {
			return c, nil
		}
	}
	return nil, domain.ErrReferralCodeNotFound
}

func (m *MockReferralRepository) CreateReferral(ctx context.Context, tx usecase.Transaction, ref *domain.Referral) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.referrals {
		if r.ReferrerID == ref.ReferrerID && r.ReferredID == ref.ReferredID {
			return false, nil
		}
	}
	m.referrals[ref.ID] = ref
	return true, nil
}

func (m *MockReferralRepository) GetDirectReferrer(ctx context.Context, referredID string) (*domain.Referral, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.referrals {
		if r.ReferredID == referredID && r.Level == 1 && r.Active {
			return r, nil
		}
	}
	return nil, domain.ErrReferralNotFound
}

func (m *MockReferralRepository) ListByReferred(ctx context.Context, referredID string) ([]*domain.Referral, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Referral
	for _, r := range m.referrals {
		if r.ReferredID == referredID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReferralRepository) GetTier(ctx context.Context, level int, earningType domain.EarningType) (*domain.CommissionTier, error) {
	if m.GetTierFunc != nil {
		return m.GetTierFunc(ctx, level, earningType)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tiers[tierKey(level, earningType)]; ok {
		return t, nil
	}
	return nil, domain.ErrTierNotConfigured
}

func (m *MockReferralRepository) CreateEarning(ctx context.Context, tx usecase.Transaction, earning *domain.ReferralEarning) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if earning.EarningType == domain.EarningTypeSignup {
		for _, e := range m.earnings {
			if e.ReferrerID == earning.ReferrerID && e.ReferredUserID == earning.ReferredUserID &&
				e.EarningType == domain.EarningTypeSignup {
				return false, nil
			}
		}
	}
	m.earnings[earning.ID] = earning
	return true, nil
}

func (m *MockReferralRepository) GetEarningByID(ctx context.Context, id string) (*domain.ReferralEarning, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.earnings[id]; ok {
		return e, nil
	}
	return nil, domain.ErrEarningNotFound
}

func (m *MockReferralRepository) GetEarningByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ReferralEarning, error) {
	return m.GetEarningByID(ctx, id)
}

func (m *MockReferralRepository) HasSignupEarning(ctx context.Context, tx usecase.Transaction, referrerID, referredID string) (bool, error) {
	if m.HasSignupEarningFunc != nil {
		return m.HasSignupEarningFunc(ctx, tx, referrerID, referredID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.earnings {
		if e.ReferrerID == referrerID && e.ReferredUserID == referredID && e.EarningType == domain.EarningTypeSignup {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockReferralRepository) UpdateEarning(ctx context.Context, tx usecase.Transaction, earning *domain.ReferralEarning) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.earnings[earning.ID] = earning
	return nil
}

func (m *MockReferralRepository) ListEarningsByReferrer(ctx context.Context, referrerID string, limit, offset int) ([]*domain.ReferralEarning, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ReferralEarning
	for _, e := range m.earnings {
		if e.ReferrerID == referrerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockReferralRepository) StatsByReferrer(ctx context.Context, referrerID string) (*domain.ReferralStats, error) {
	if m.StatsByReferrerFunc != nil {
		return m.StatsByReferrerFunc(ctx, referrerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &domain.ReferralStats{
		PendingEarnings: decimal.Zero,
		PaidEarnings:    decimal.Zero,
		TotalEarnings:   decimal.Zero,
	}
	for _, r := range m.referrals {
		if r.ReferrerID != referrerID {
			continue
		}
		stats.TotalReferrals++
		if r.Level == 1 {
			stats.DirectReferrals++
		} else {
			stats.IndirectReferrals++
		}
	}
	for _, e := range m.earnings {
		if e.ReferrerID != referrerID {
			continue
		}
		stats.TotalEarnings = stats.TotalEarnings.Add(e.Amount)
		switch e.Status {
		case domain.EarningStatusPending:
			stats.PendingEarnings = stats.PendingEarnings.Add(e.Amount)
		case domain.EarningStatusPaid, domain.EarningStatusApproved:
			stats.PaidEarnings = stats.PaidEarnings.Add(e.Amount)
		}
	}
	return stats, nil
}

// MockWebhookRepository is a mock implementation of WebhookRepository.
type MockWebhookRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.WebhookEvent

	InsertFunc func(ctx context.Context, tx usecase.Transaction, event *domain.WebhookEvent) (bool, error)
}

func NewMockWebhookRepository() *MockWebhookRepository {
	return &MockWebhookRepository{
		events: make(map[string]*domain.WebhookEvent),
	}
}

func webhookKey(gateway, reference, eventType string) string {
	return gateway + "/" + reference + "/" + eventType
}

func (m *MockWebhookRepository) Insert(ctx context.Context, tx usecase.Transaction, event *domain.WebhookEvent) (bool, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := webhookKey(event.Gateway, event.Reference, event.EventType)
	if _, ok := m.events[key]; ok {
		return false, nil
	}
	m.events[key] = event
	return true, nil
}

func (m *MockWebhookRepository) MarkProcessed(ctx context.Context, tx usecase.Transaction, id string, processedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Processed = true
			e.ProcessedAt = &processedAt
		}
	}
	return nil
}

func (m *MockWebhookRepository) GetByKey(ctx context.Context, gateway, reference, eventType string) (*domain.WebhookEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.events[webhookKey(gateway, reference, eventType)]; ok {
		return e, nil
	}
	return nil, domain.ErrEntryNotFound
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// Events returns every stored outbox event.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AuditLog(nil), m.logs...), nil
}

func (m *MockAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Logs returns every stored audit log.
func (m *MockAuditRepository) Logs() []*domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.AuditLog(nil), m.logs...)
}

// MockPaymentGateway is a mock implementation of PaymentGateway.
type MockPaymentGateway struct {
	InitializePaymentFunc       func(ctx context.Context, userID string, amount decimal.Decimal, callbackURL string) (*usecase.GatewayAuthorization, error)
	VerifyPaymentFunc           func(ctx context.Context, reference string) (*usecase.GatewayPaymentStatus, error)
	CreateTransferRecipientFunc func(ctx context.Context, bankCode, accountNumber, accountName string) (string, error)
	InitiateTransferFunc        func(ctx context.Context, amount decimal.Decimal, recipientCode, reason string) (string, error)
	ResolveAccountNumberFunc    func(ctx context.Context, accountNumber, bankCode string) (string, error)
}

func NewMockPaymentGateway() *MockPaymentGateway {
	return &MockPaymentGateway{}
}

func (m *MockPaymentGateway) InitializePayment(ctx context.Context, userID string, amount decimal.Decimal, callbackURL string) (*usecase.GatewayAuthorization, error) {
	if m.InitializePaymentFunc != nil {
		return m.InitializePaymentFunc(ctx, userID, amount, callbackURL)
	}
	return &usecase.GatewayAuthorization{
		AuthorizationURL: "https://gateway.test/pay",
		Reference:        "REF_" + userID,
	}, nil
}

func (m *MockPaymentGateway) VerifyPayment(ctx context.Context, reference string) (*usecase.GatewayPaymentStatus, error) {
	if m.VerifyPaymentFunc != nil {
		return m.VerifyPaymentFunc(ctx, reference)
	}
	return &usecase.GatewayPaymentStatus{Reference: reference, Status: "success"}, nil
}

func (m *MockPaymentGateway) CreateTransferRecipient(ctx context.Context, bankCode, accountNumber, accountName string) (string, error) {
	if m.CreateTransferRecipientFunc != nil {
		return m.CreateTransferRecipientFunc(ctx, bankCode, accountNumber, accountName)
	}
	return "RCP_test", nil
}

func (m *MockPaymentGateway) InitiateTransfer(ctx context.Context, amount decimal.Decimal, recipientCode, reason string) (string, error) {
	if m.InitiateTransferFunc != nil {
		return m.InitiateTransferFunc(ctx, amount, recipientCode, reason)
	}
	return "TRF_test", nil
}

func (m *MockPaymentGateway) ResolveAccountNumber(ctx context.Context, accountNumber, bankCode string) (string, error) {
	if m.ResolveAccountNumberFunc != nil {
		return m.ResolveAccountNumberFunc(ctx, accountNumber, bankCode)
	}
	return "TEST ACCOUNT", nil
}
