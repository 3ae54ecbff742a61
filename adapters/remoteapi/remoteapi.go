// Package remoteapi implements the stateless ShadowWire-style remote-API
// adapter (C7): canonical-JSON message signing plus a plain net/http POST,
// grounded on the teacher's api.ReqeuestBase (a bare *http.Client, manual
// header setup, JSON body marshal/unmarshal) generalized into a retrying,
// typed client instead of a channel-based one-shot helper.
package remoteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/privacycash/toolkit/adapter"
	"github.com/privacycash/toolkit/chainiface"
	"github.com/privacycash/toolkit/errs"
	"github.com/privacycash/toolkit/internal/logging"
	"github.com/privacycash/toolkit/internal/retryutil"
)

const ProviderID = "remote-api"

// Config is the adapter's static configuration: the provider base URL and
// optional auth headers, both independently settable per §6.
type Config struct {
	BaseURL     string
	APIKey      string
	AccessToken string
	HTTPTimeout time.Duration
}

// Adapter is the ShadowWire-style remote relayer.
type Adapter struct {
	mu     sync.Mutex
	cfg    Config
	client *http.Client
	wallet chainiface.Wallet
	ready  bool
	logger *logging.Logger
}

// New builds an adapter from cfg. HTTPTimeout defaults to 30s per §5.
func New(cfg Config) *Adapter {
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		logger: logging.Default(),
	}
}

func (a *Adapter) Capabilities() adapter.CapabilityMatrix {
	return adapter.CapabilityMatrix{
		ProviderID:  ProviderID,
		DisplayName: "Remote API (ShadowWire-style)",
		SupportedPrivacyLevels: map[adapter.PrivacyLevel]bool{
			adapter.PrivacyLevelAmountHidden: true,
			adapter.PrivacyLevelNone:         true,
		},
		SupportedTokens: map[string]bool{"SOL": true, "USDC": true},
		Fees: map[string]adapter.ProviderFees{
			"SOL":  {FeeFraction: 0.005, MinAmount: 0.01},
			"USDC": {FeeFraction: 0.005, MinAmount: 1},
		},
	}
}

// Initialize probes GET /health; a failed probe is logged as a warning, not
// fatal, since the remote-API adapter needs only the wallet (for signing)
// to attempt an operation, per §4.6.
func (a *Adapter) Initialize(ctx context.Context, chain chainiface.Chain, wallet chainiface.Wallet) error {
	a.mu.Lock()
	a.wallet = wallet
	a.mu.Unlock()

	if err := a.healthCheck(ctx); err != nil {
		a.logger.Warnf("remote-api: health check failed, adapter will still report ready: %v", err)
	}

	a.mu.Lock()
	a.ready = true
	a.mu.Unlock()
	return nil
}

func (a *Adapter) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

func (a *Adapter) healthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("remote-api: health check returned %d", resp.StatusCode)
	}
	return nil
}

// canonicalMessage is the signed payload shape for every operation.
type canonicalMessage struct {
	Action    string  `json:"action"`
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	Token     string  `json:"token"`
	Timestamp int64   `json:"timestamp"`
}

type signedRequest struct {
	canonicalMessage
	Signature string `json:"signature"`
}

type providerResponse struct {
	Success       bool    `json:"success"`
	TransactionID string  `json:"transactionId"`
	Commitment    string  `json:"commitment"`
	Fee           float64 `json:"fee"`
	Error         string  `json:"error"`
}

func (a *Adapter) doOperation(ctx context.Context, action, path string, req adapter.OperationRequest) (adapter.OperationResult, error) {
	if err := adapter.CheckPreconditions(a, req); err != nil {
		return adapter.OperationResult{}, err
	}
	if a.wallet == nil {
		return adapter.OperationResult{}, errs.WalletNotConnected()
	}

	msg := canonicalMessage{
		Action:    action,
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Amount:    req.Amount,
		Token:     req.Token,
		Timestamp: time.Now().UnixMilli(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return adapter.OperationResult{}, errs.InvalidFormat("failed to marshal canonical message: " + err.Error())
	}
	sig, err := a.wallet.SignMessage(ctx, body)
	if err != nil {
		return adapter.OperationResult{}, errs.Wrap(errs.CodeWalletNotConnected, "failed to sign message", err)
	}

	payload := signedRequest{canonicalMessage: msg, Signature: encodeSignature(sig)}

	var parsed providerResponse
	err = retryutil.Do(ctx, isRetryable, func() error {
		var innerErr error
		parsed, innerErr = a.post(ctx, path, payload)
		return innerErr
	})
	if err != nil {
		return adapter.OperationResult{}, mapProviderError(err)
	}
	if !parsed.Success {
		return adapter.OperationResult{}, mapServerError(parsed.Error)
	}

	fee := parsed.Fee
	if fee == 0 {
		if fees, ok := a.Capabilities().Fees[req.Token]; ok {
			fee = req.Amount * fees.FeeFraction
		}
	}
	return adapter.OperationResult{
		TransactionID: parsed.TransactionID,
		Commitment:    parsed.Commitment,
		Fee:           fee,
	}, nil
}

func (a *Adapter) post(ctx context.Context, path string, payload interface{}) (providerResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return providerResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return providerResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", a.cfg.APIKey)
	}
	if a.cfg.AccessToken != "" {
		req.Header.Set("X-Access-Token", a.cfg.AccessToken)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return providerResponse{}, &httpError{transport: true, cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return providerResponse{}, &httpError{transport: true, cause: err}
	}

	if resp.StatusCode >= 500 {
		return providerResponse{}, &httpError{status: resp.StatusCode, cause: fmt.Errorf("server error: %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return providerResponse{}, &httpError{status: resp.StatusCode, cause: fmt.Errorf("client error: %d", resp.StatusCode)}
	}

	var parsed providerResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return providerResponse{}, &httpError{status: resp.StatusCode, cause: err}
		}
	}
	return parsed, nil
}

// httpError distinguishes transport/5xx failures (retryable) from 4xx
// failures (not retryable), per §5's retry policy.
type httpError struct {
	transport bool
	status    int
	cause     error
}

func (e *httpError) Error() string { return e.cause.Error() }
func (e *httpError) Unwrap() error { return e.cause }

func isRetryable(err error) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.transport || httpErr.status >= 500
	}
	return false
}

func mapProviderError(err error) error {
	return errs.Network(err)
}

// mapServerError maps server-reported business errors onto the taxonomy by
// keyword match, per §4.7.
func mapServerError(message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "not found"):
		return errs.RecipientNotFound(message)
	case strings.Contains(lower, "insufficient"):
		return errs.InsufficientBalance("unknown", "unknown")
	default:
		return errs.Transaction(fmt.Errorf("%s", message))
	}
}

func encodeSignature(sig []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(sig)*2)
	for i, b := range sig {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

func (a *Adapter) Balance(ctx context.Context, token string, address string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/balance/%s?token=%s", a.cfg.BaseURL, address, token), nil)
	if err != nil {
		return 0, errs.Network(err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return 0, errs.Network(err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Balance float64 `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, errs.InvalidFormat("failed to parse balance response: " + err.Error())
	}
	return parsed.Balance, nil
}

func (a *Adapter) Deposit(ctx context.Context, req adapter.OperationRequest) (adapter.OperationResult, error) {
	return a.doOperation(ctx, "deposit", "/v1/deposit", req)
}

func (a *Adapter) Transfer(ctx context.Context, req adapter.OperationRequest) (adapter.OperationResult, error) {
	return a.doOperation(ctx, "transfer", "/v1/transfer", req)
}

func (a *Adapter) Withdraw(ctx context.Context, req adapter.OperationRequest) (adapter.OperationResult, error) {
	return a.doOperation(ctx, "withdraw", "/v1/withdraw", req)
}

// Estimate never blocks on remote state per §5; it derives a fee estimate
// from the capability matrix instead of calling the provider.
func (a *Adapter) Estimate(ctx context.Context, req adapter.OperationRequest) (adapter.EstimateResult, error) {
	fees, ok := a.Capabilities().Fees[req.Token]
	if !ok {
		return adapter.EstimateResult{}, errs.UnsupportedToken(req.Token)
	}
	result := adapter.EstimateResult{
		Fee:       req.Amount * fees.FeeFraction,
		LatencyMS: 3000,
	}
	if req.Amount < fees.MinAmount {
		result.Warnings = append(result.Warnings, "amount below minimum")
	}
	return result, nil
}
