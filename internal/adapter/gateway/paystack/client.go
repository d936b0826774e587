package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/infrastructure/logging"
	"github.com/ccmarketers/ledger/internal/usecase"
)

const (
	defaultBaseURL = "https://api.paystack.co"
	defaultTimeout = 15 * time.Second

	maxRetries      = 3
	initialInterval = 200 * time.Millisecond
	maxInterval     = 2 * time.Second
)

// kobo is the minor unit multiplier; the gateway deals in integer kobo.
var kobo = decimal.NewFromInt(100)

// Config holds Paystack client configuration.
type Config struct {
	BaseURL   string
	SecretKey string
	// EmailDomain synthesizes a customer email from the user ID, since
	// the gateway requires one and the ledger does not store emails.
	EmailDomain string
	Timeout     time.Duration
}

// Client implements usecase.PaymentGateway against the Paystack API.
type Client struct {
	baseURL     string
	secretKey   string
	emailDomain string
	httpClient  *http.Client
	logger      *logging.Logger
}

// NewClient creates a Paystack API client.
func NewClient(cfg Config, logger *logging.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.EmailDomain == "" {
		cfg.EmailDomain = "users.ccmarketers.app"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		emailDomain: cfg.EmailDomain,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
	}
}

// envelope is the common Paystack response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializePayment starts a checkout session for wallet funding.
func (c *Client) InitializePayment(ctx context.Context, userID string, amount decimal.Decimal, callbackURL string) (*usecase.GatewayAuthorization, error) {
	reference := fundingReference(userID)

	payload := map[string]any{
		"email":        c.customerEmail(userID),
		"amount":       amount.Mul(kobo).IntPart(),
		"currency":     "NGN",
		"reference":    reference,
		"callback_url": callbackURL,
		"metadata": map[string]any{
			"user_id": userID,
			"purpose": "wallet_funding",
		},
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	}
	if err := c.call(ctx, http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return nil, err
	}
	if data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: missing authorization url", domain.ErrGatewayFailure)
	}
	if data.Reference == "" {
		data.Reference = reference
	}

	return &usecase.GatewayAuthorization{
		AuthorizationURL: data.AuthorizationURL,
		Reference:        data.Reference,
	}, nil
}

// VerifyPayment checks the status of a funding transaction.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (*usecase.GatewayPaymentStatus, error) {
	var data struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
	}
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.call(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}

	return &usecase.GatewayPaymentStatus{
		Reference: data.Reference,
		Status:    data.Status,
		Amount:    decimal.NewFromInt(data.Amount).Div(kobo),
	}, nil
}

// CreateTransferRecipient registers a bank account for payouts and
// returns the recipient code.
func (c *Client) CreateTransferRecipient(ctx context.Context, bankCode, accountNumber, accountName string) (string, error) {
	payload := map[string]any{
		"type":           "nuban",
		"name":           accountName,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}

	var data struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := c.call(ctx, http.MethodPost, "/transferrecipient", payload, &data); err != nil {
		return "", err
	}
	if data.RecipientCode == "" {
		return "", fmt.Errorf("%w: missing recipient code", domain.ErrGatewayFailure)
	}
	return data.RecipientCode, nil
}

// InitiateTransfer starts a payout to a registered recipient and
// returns the gateway transfer reference.
func (c *Client) InitiateTransfer(ctx context.Context, amount decimal.Decimal, recipientCode, reason string) (string, error) {
	payload := map[string]any{
		"source":    "balance",
		"amount":    amount.Mul(kobo).IntPart(),
		"recipient": recipientCode,
		"reason":    reason,
	}

	var data struct {
		Reference    string `json:"reference"`
		TransferCode string `json:"transfer_code"`
	}
	if err := c.call(ctx, http.MethodPost, "/transfer", payload, &data); err != nil {
		return "", err
	}
	if data.Reference == "" {
		data.Reference = data.TransferCode
	}
	if data.Reference == "" {
		return "", fmt.Errorf("%w: missing transfer reference", domain.ErrGatewayFailure)
	}
	return data.Reference, nil
}

// ResolveAccountNumber resolves a NUBAN account number to the account
// holder's name.
func (c *Client) ResolveAccountNumber(ctx context.Context, accountNumber, bankCode string) (string, error) {
	path := "/bank/resolve?account_number=" + url.QueryEscape(accountNumber) +
		"&bank_code=" + url.QueryEscape(bankCode)

	var data struct {
		AccountName string `json:"account_name"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &data); err != nil {
		return "", err
	}
	if data.AccountName == "" {
		return "", fmt.Errorf("%w: account could not be resolved", domain.ErrGatewayFailure)
	}
	return data.AccountName, nil
}

// call performs one API request, retrying on network errors and 5xx
// responses. 4xx responses are not retried.
func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	policy := backoff.WithContext(newBackoff(), ctx)

	var env envelope
	operation := func() error {
		var reqBody io.Reader
		if body != nil {
			reqBody = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s %s returned %d", domain.ErrGatewayFailure, method, path, resp.StatusCode)
		}

		env = envelope{}
		if err := json.Unmarshal(raw, &env); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: malformed response: %v", domain.ErrGatewayFailure, err))
		}

		if resp.StatusCode >= http.StatusBadRequest || !env.Status {
			msg := env.Message
			if msg == "" {
				msg = resp.Status
			}
			return backoff.Permanent(fmt.Errorf("%w: %s", domain.ErrGatewayFailure, msg))
		}
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if c.logger != nil {
			c.logger.ErrorCtx(ctx, "gateway call failed", "method", method, "path", path, "error", err)
		}
		return err
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: malformed response data: %v", domain.ErrGatewayFailure, err)
		}
	}
	return nil
}

func (c *Client) customerEmail(userID string) string {
	return userID + "@" + c.emailDomain
}

func fundingReference(userID string) string {
	id := strings.ReplaceAll(userID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "PS_" + time.Now().UTC().Format("20060102150405") + "_" + id
}

func newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialInterval
	b.MaxInterval = maxInterval
	return backoff.WithMaxRetries(b, maxRetries)
}
