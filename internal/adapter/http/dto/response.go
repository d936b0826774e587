package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

// ErrorResponse is the shape of all error bodies.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// BalanceResponse reports one wallet balance.
type BalanceResponse struct {
	OwnerID string          `json:"owner_id"`
	Kind    string          `json:"kind"`
	Balance decimal.Decimal `json:"balance"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"account_id"`
	Direction      string          `json:"direction"`
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	Status         string          `json:"status"`
	ExternalRef    *string         `json:"external_ref,omitempty"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	AccountVersion int64           `json:"account_version"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:             e.ID,
		AccountID:      e.AccountID,
		Direction:      string(e.Direction),
		Category:       e.Category,
		Amount:         e.Amount,
		BalanceBefore:  e.BalanceBefore,
		BalanceAfter:   e.BalanceAfter,
		Status:         string(e.Status),
		ExternalRef:    e.ExternalRef,
		Description:    e.Description,
		CreatedAt:      e.CreatedAt,
		CompletedAt:    e.CompletedAt,
		AccountVersion: e.AccountVersion,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// ListEntriesResponse wraps an entry page.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// WalletTransferResponse carries both legs of a wallet transfer.
type WalletTransferResponse struct {
	DebitEntry  *EntryResponse `json:"debit_entry"`
	CreditEntry *EntryResponse `json:"credit_entry"`
}

// WalletTransferFromUseCase converts a transfer result to a response.
func WalletTransferFromUseCase(r *usecase.TransferResult) *WalletTransferResponse {
	return &WalletTransferResponse{
		DebitEntry:  EntryFromDomain(r.DebitEntry),
		CreditEntry: EntryFromDomain(r.CreditEntry),
	}
}

// FundingSessionResponse is a started top-up awaiting payment.
type FundingSessionResponse struct {
	AuthorizationURL string         `json:"authorization_url"`
	Reference        string         `json:"reference"`
	Entry            *EntryResponse `json:"entry"`
}

// FundingSessionFromUseCase converts a funding session to a response.
func FundingSessionFromUseCase(s *usecase.FundingSession) *FundingSessionResponse {
	return &FundingSessionResponse{
		AuthorizationURL: s.AuthorizationURL,
		Reference:        s.Reference,
		Entry:            EntryFromDomain(s.Entry),
	}
}

// EscrowResponse represents an escrow in API responses.
type EscrowResponse struct {
	ID           string          `json:"id"`
	TaskID       string          `json:"task_id"`
	AdvertiserID string          `json:"advertiser_id"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	SubmissionID *string         `json:"submission_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	ReleasedAt   *time.Time      `json:"released_at,omitempty"`
}

// EscrowFromDomain converts a domain escrow to a response.
func EscrowFromDomain(e *domain.EscrowRecord) *EscrowResponse {
	return &EscrowResponse{
		ID:           e.ID,
		TaskID:       e.TaskID,
		AdvertiserID: e.AdvertiserID,
		Amount:       e.Amount,
		Status:       string(e.Status),
		SubmissionID: e.SubmissionID,
		CreatedAt:    e.CreatedAt,
		ReleasedAt:   e.ReleasedAt,
	}
}

// EscrowsFromDomain converts domain escrows to responses.
func EscrowsFromDomain(escrows []*domain.EscrowRecord) []*EscrowResponse {
	result := make([]*EscrowResponse, len(escrows))
	for i, e := range escrows {
		result[i] = EscrowFromDomain(e)
	}
	return result
}

// WithdrawalResponse represents a withdrawal request in API responses.
type WithdrawalResponse struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Method           string          `json:"method"`
	AccountNumber    string          `json:"account_number"`
	AccountName      string          `json:"account_name"`
	BankName         string          `json:"bank_name"`
	BankCode         string          `json:"bank_code"`
	Status           string          `json:"status"`
	GatewayReference string          `json:"gateway_reference,omitempty"`
	AdminNotes       string          `json:"admin_notes,omitempty"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// WithdrawalFromDomain converts a domain withdrawal to a response.
func WithdrawalFromDomain(w *domain.WithdrawalRequest) *WithdrawalResponse {
	return &WithdrawalResponse{
		ID:               w.ID,
		UserID:           w.UserID,
		Amount:           w.Amount,
		Method:           string(w.Method),
		AccountNumber:    w.Details.AccountNumber,
		AccountName:      w.Details.AccountName,
		BankName:         w.Details.BankName,
		BankCode:         w.Details.BankCode,
		Status:           string(w.Status),
		GatewayReference: w.GatewayReference,
		AdminNotes:       w.AdminNotes,
		ProcessedAt:      w.ProcessedAt,
		CreatedAt:        w.CreatedAt,
	}
}

// WithdrawalsFromDomain converts domain withdrawals to responses.
func WithdrawalsFromDomain(reqs []*domain.WithdrawalRequest) []*WithdrawalResponse {
	result := make([]*WithdrawalResponse, len(reqs))
	for i, w := range reqs {
		result[i] = WithdrawalFromDomain(w)
	}
	return result
}

// ResolveAccountResponse is the resolved account holder name.
type ResolveAccountResponse struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	AccountName   string `json:"account_name"`
}

// ReferralCodeResponse represents a referral code in API responses.
type ReferralCodeResponse struct {
	Code      string    `json:"code"`
	UserID    string    `json:"user_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ReferralCodeFromDomain converts a domain referral code to a response.
func ReferralCodeFromDomain(c *domain.ReferralCode) *ReferralCodeResponse {
	return &ReferralCodeResponse{
		Code:      c.Code,
		UserID:    c.UserID,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
	}
}

// ReferralResponse represents one referral edge.
type ReferralResponse struct {
	ReferrerID string    `json:"referrer_id"`
	ReferredID string    `json:"referred_id"`
	Level      int       `json:"level"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReferralsFromDomain converts domain referrals to responses.
func ReferralsFromDomain(refs []*domain.Referral) []*ReferralResponse {
	result := make([]*ReferralResponse, len(refs))
	for i, r := range refs {
		result[i] = &ReferralResponse{
			ReferrerID: r.ReferrerID,
			ReferredID: r.ReferredID,
			Level:      r.Level,
			CreatedAt:  r.CreatedAt,
		}
	}
	return result
}

// EarningResponse represents a referral earning in API responses.
type EarningResponse struct {
	ID             string          `json:"id"`
	ReferrerID     string          `json:"referrer_id"`
	ReferredUserID string          `json:"referred_user_id"`
	Level          int             `json:"level"`
	Amount         decimal.Decimal `json:"amount"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	EarningType    string          `json:"earning_type"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`
}

// EarningFromDomain converts a domain earning to a response.
func EarningFromDomain(e *domain.ReferralEarning) *EarningResponse {
	return &EarningResponse{
		ID:             e.ID,
		ReferrerID:     e.ReferrerID,
		ReferredUserID: e.ReferredUserID,
		Level:          e.Level,
		Amount:         e.Amount,
		CommissionRate: e.CommissionRate,
		EarningType:    string(e.EarningType),
		Status:         string(e.Status),
		CreatedAt:      e.CreatedAt,
		ApprovedAt:     e.ApprovedAt,
	}
}

// EarningsFromDomain converts domain earnings to responses.
func EarningsFromDomain(earnings []*domain.ReferralEarning) []*EarningResponse {
	result := make([]*EarningResponse, len(earnings))
	for i, e := range earnings {
		result[i] = EarningFromDomain(e)
	}
	return result
}

// ReferralStatsResponse summarises a referrer's network.
type ReferralStatsResponse struct {
	TotalReferrals    int             `json:"total_referrals"`
	DirectReferrals   int             `json:"direct_referrals"`
	IndirectReferrals int             `json:"indirect_referrals"`
	PendingEarnings   decimal.Decimal `json:"pending_earnings"`
	PaidEarnings      decimal.Decimal `json:"paid_earnings"`
	TotalEarnings     decimal.Decimal `json:"total_earnings"`
}

// ReferralStatsFromDomain converts domain stats to a response.
func ReferralStatsFromDomain(s *domain.ReferralStats) *ReferralStatsResponse {
	return &ReferralStatsResponse{
		TotalReferrals:    s.TotalReferrals,
		DirectReferrals:   s.DirectReferrals,
		IndirectReferrals: s.IndirectReferrals,
		PendingEarnings:   s.PendingEarnings,
		PaidEarnings:      s.PaidEarnings,
		TotalEarnings:     s.TotalEarnings,
	}
}

// WebhookAckResponse acknowledges a gateway callback.
type WebhookAckResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// DriftReportResponse reports one account's replay check.
type DriftReportResponse struct {
	AccountID     string          `json:"account_id"`
	OwnerID       string          `json:"owner_id"`
	Kind          string          `json:"kind"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	ReplayedSum   decimal.Decimal `json:"replayed_sum"`
	Drift         decimal.Decimal `json:"drift"`
	Consistent    bool            `json:"consistent"`
}

// DriftReportFromUseCase converts a drift report to a response.
func DriftReportFromUseCase(r *usecase.DriftReport) *DriftReportResponse {
	return &DriftReportResponse{
		AccountID:     r.AccountID,
		OwnerID:       r.OwnerID,
		Kind:          string(r.Kind),
		StoredBalance: r.StoredBalance,
		ReplayedSum:   r.ReplayedSum,
		Drift:         r.Drift,
		Consistent:    r.Consistent,
	}
}

// DriftReportsFromUseCase converts drift reports to responses.
func DriftReportsFromUseCase(reports []*usecase.DriftReport) []*DriftReportResponse {
	result := make([]*DriftReportResponse, len(reports))
	for i, r := range reports {
		result[i] = DriftReportFromUseCase(r)
	}
	return result
}
