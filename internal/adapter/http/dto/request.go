package dto

import (
	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

// InitiateFundingRequest starts a wallet top-up through the gateway.
type InitiateFundingRequest struct {
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	CallbackURL string          `json:"callback_url,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *InitiateFundingRequest) ToUseCaseInput() usecase.InitiateFundingInput {
	return usecase.InitiateFundingInput{
		UserID:      r.UserID,
		Amount:      r.Amount,
		CallbackURL: r.CallbackURL,
	}
}

// WalletTransferRequest moves funds between two of one owner's wallets.
type WalletTransferRequest struct {
	OwnerID   string          `json:"owner_id"`
	FromKind  string          `json:"from_kind"`
	ToKind    string          `json:"to_kind"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *WalletTransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		OwnerID:     r.OwnerID,
		FromKind:    domain.AccountKind(r.FromKind),
		ToKind:      domain.AccountKind(r.ToKind),
		Amount:      r.Amount,
		ExternalRef: r.Reference,
	}
}

// LockEscrowRequest reserves an advertiser's funds against a task.
type LockEscrowRequest struct {
	TaskID       string          `json:"task_id"`
	AdvertiserID string          `json:"advertiser_id"`
	Amount       decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *LockEscrowRequest) ToUseCaseInput() usecase.LockEscrowInput {
	return usecase.LockEscrowInput{
		TaskID:       r.TaskID,
		AdvertiserID: r.AdvertiserID,
		Amount:       r.Amount,
	}
}

// ReleaseEscrowRequest pays a locked escrow out to a worker.
type ReleaseEscrowRequest struct {
	WorkerID     string `json:"worker_id"`
	SubmissionID string `json:"submission_id"`
	ActorID      string `json:"actor_id"`
}

// RefundEscrowRequest returns a locked escrow to the advertiser.
type RefundEscrowRequest struct {
	ActorID string `json:"actor_id"`
}

// RequestWithdrawalRequest opens a payout request.
type RequestWithdrawalRequest struct {
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	AccountNumber string          `json:"account_number"`
	AccountName   string          `json:"account_name"`
	BankName      string          `json:"bank_name"`
	BankCode      string          `json:"bank_code"`
}

// ToUseCaseInput converts to use case input.
func (r *RequestWithdrawalRequest) ToUseCaseInput() usecase.RequestWithdrawalInput {
	return usecase.RequestWithdrawalInput{
		UserID: r.UserID,
		Amount: r.Amount,
		Details: domain.PayoutDetails{
			AccountNumber: r.AccountNumber,
			AccountName:   r.AccountName,
			BankName:      r.BankName,
			BankCode:      r.BankCode,
		},
	}
}

// DecideWithdrawalRequest carries an admin approval or rejection.
type DecideWithdrawalRequest struct {
	AdminID string `json:"admin_id"`
	Notes   string `json:"notes,omitempty"`
}

// ResolveAccountRequest resolves a bank account to its holder's name.
type ResolveAccountRequest struct {
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
}

// LinkReferralRequest attaches a new signup to a referral code.
type LinkReferralRequest struct {
	Code       string `json:"code"`
	ReferredID string `json:"referred_id"`
}

// ToUseCaseInput converts to use case input.
func (r *LinkReferralRequest) ToUseCaseInput() usecase.LinkReferralInput {
	return usecase.LinkReferralInput{
		Code:       r.Code,
		ReferredID: r.ReferredID,
	}
}

// EarningDecisionRequest approves or cancels a referral earning.
type EarningDecisionRequest struct {
	ActorID string `json:"actor_id"`
}
