// Package adapter defines the normalized operation contract every backend
// binds to: a capability matrix plus balance/deposit/transfer/withdraw/
// estimate/prove, as "a set of operations + a capability matrix, not a
// class hierarchy" per the design notes. The four concrete adapters are
// four variants of this one interface, not subclasses of a base type.
package adapter

import (
	"context"
	"strconv"

	"github.com/privacycash/toolkit/chainiface"
	"github.com/privacycash/toolkit/errs"
	"github.com/privacycash/toolkit/proof"
)

// PrivacyLevel is the declared privacy guarantee a request wants.
type PrivacyLevel string

const (
	PrivacyLevelNone          PrivacyLevel = "none"
	PrivacyLevelAmountHidden  PrivacyLevel = "amount-hidden"
	PrivacyLevelFullyPrivate  PrivacyLevel = "fully-private"
)

// ProviderFees mirrors tokenregistry.ProviderFees without importing that
// package, keeping the capability matrix self-contained.
type ProviderFees struct {
	FeeFraction      float64
	MinAmount        float64
	MaxAmount        *float64
	AnonymitySetSize *int
}

// CapabilityMatrix is an adapter's immutable, advertised feature set.
type CapabilityMatrix struct {
	ProviderID             string
	DisplayName            string
	SupportedPrivacyLevels map[PrivacyLevel]bool
	// SupportedTokens is nil/empty to mean "all tokens" (the ZK adapter's "*").
	SupportedTokens map[string]bool
	Fees            map[string]ProviderFees // keyed by token symbol
}

// SupportsToken reports whether symbol is supported, treating an empty
// SupportedTokens set as "supports everything".
func (c CapabilityMatrix) SupportsToken(symbol string) bool {
	if len(c.SupportedTokens) == 0 {
		return true
	}
	return c.SupportedTokens[symbol]
}

// SupportsPrivacyLevel reports whether level is advertised.
func (c CapabilityMatrix) SupportsPrivacyLevel(level PrivacyLevel) bool {
	return c.SupportedPrivacyLevels[level]
}

// OperationRequest is the common shape of deposit/transfer/withdraw calls.
type OperationRequest struct {
	Token        string
	Amount       float64
	Sender       string
	Recipient    string
	PrivacyLevel PrivacyLevel
	Note         string // opaque encoded note, used by withdraw
	Metadata     map[string]string
}

// OperationResult is the common shape of a successful operation's outcome.
type OperationResult struct {
	TransactionID string
	Commitment    string
	Fee           float64
	Note          string // encoded note, set by deposit
}

// EstimateResult is returned by Estimate and consumed by the router.
type EstimateResult struct {
	Fee             float64
	LatencyMS       int64
	AnonymitySetSize *int
	Warnings        []string
}

// ProveRequest/ProveResult let the ZK-capable adapters expose proving as an
// explicit operation distinct from deposit/transfer/withdraw.
type ProveRequest struct {
	CircuitName string
	Inputs      map[string]string
}

type ProveResult struct {
	Envelope *proof.Envelope
}

// Adapter is the uniform surface every backend binds to.
type Adapter interface {
	Capabilities() CapabilityMatrix

	// Initialize is idempotent and may probe network; per spec a failure
	// here is a warning, not fatal, unless the adapter cannot run any
	// operation without wallet.
	Initialize(ctx context.Context, chain chainiface.Chain, wallet chainiface.Wallet) error
	IsReady() bool

	Balance(ctx context.Context, token string, address string) (float64, error)
	Deposit(ctx context.Context, req OperationRequest) (OperationResult, error)
	Transfer(ctx context.Context, req OperationRequest) (OperationResult, error)
	Withdraw(ctx context.Context, req OperationRequest) (OperationResult, error)
	Estimate(ctx context.Context, req OperationRequest) (EstimateResult, error)
}

// Prover is implemented by adapters that expose proof generation directly
// (currently only the ZK adapter).
type Prover interface {
	Prove(ctx context.Context, req ProveRequest) (ProveResult, error)
}

// CheckPreconditions runs the pre-operation checks shared by every adapter:
// readiness, token support, amount bounds, and privacy-level support.
func CheckPreconditions(a Adapter, req OperationRequest) error {
	if !a.IsReady() {
		return errs.ProviderNotAvailable(a.Capabilities().ProviderID, nil)
	}

	caps := a.Capabilities()
	if !caps.SupportsToken(req.Token) {
		return errs.UnsupportedToken(req.Token)
	}
	if !caps.SupportsPrivacyLevel(req.PrivacyLevel) {
		return errs.UnsupportedPrivacyLevel(string(req.PrivacyLevel))
	}

	if fees, ok := caps.Fees[req.Token]; ok {
		if req.Amount < fees.MinAmount {
			return errs.AmountBelowMinimum(formatAmount(req.Amount), formatAmount(fees.MinAmount))
		}
		if fees.MaxAmount != nil && req.Amount > *fees.MaxAmount {
			return errs.New(errs.CodeAmountBelowMinimum, "amount exceeds the per-token maximum")
		}
	}
	return nil
}

func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}
