package adapter

import (
	"context"
	"testing"

	"github.com/privacycash/toolkit/chainiface"
	"github.com/privacycash/toolkit/errs"
	"github.com/stretchr/testify/assert"
)

type stubAdapter struct {
	ready bool
	caps  CapabilityMatrix
}

func (s *stubAdapter) Capabilities() CapabilityMatrix { return s.caps }
func (s *stubAdapter) Initialize(context.Context, chainiface.Chain, chainiface.Wallet) error {
	return nil
}
func (s *stubAdapter) IsReady() bool { return s.ready }
func (s *stubAdapter) Balance(context.Context, string, string) (float64, error) { return 0, nil }
func (s *stubAdapter) Deposit(context.Context, OperationRequest) (OperationResult, error) {
	return OperationResult{}, nil
}
func (s *stubAdapter) Transfer(context.Context, OperationRequest) (OperationResult, error) {
	return OperationResult{}, nil
}
func (s *stubAdapter) Withdraw(context.Context, OperationRequest) (OperationResult, error) {
	return OperationResult{}, nil
}
func (s *stubAdapter) Estimate(context.Context, OperationRequest) (EstimateResult, error) {
	return EstimateResult{}, nil
}

func baseCaps() CapabilityMatrix {
	return CapabilityMatrix{
		ProviderID:             "stub",
		SupportedPrivacyLevels: map[PrivacyLevel]bool{PrivacyLevelAmountHidden: true},
		SupportedTokens:        map[string]bool{"USDC": true},
		Fees: map[string]ProviderFees{
			"USDC": {FeeFraction: 0.01, MinAmount: 1},
		},
	}
}

func TestCheckPreconditionsRejectsNotReady(t *testing.T) {
	a := &stubAdapter{ready: false, caps: baseCaps()}
	err := CheckPreconditions(a, OperationRequest{Token: "USDC", Amount: 5, PrivacyLevel: PrivacyLevelAmountHidden})
	assert.True(t, errs.Is(err, errs.CodeProviderNotAvailable))
}

func TestCheckPreconditionsRejectsUnsupportedToken(t *testing.T) {
	a := &stubAdapter{ready: true, caps: baseCaps()}
	err := CheckPreconditions(a, OperationRequest{Token: "DOGE", Amount: 5, PrivacyLevel: PrivacyLevelAmountHidden})
	assert.True(t, errs.Is(err, errs.CodeUnsupportedToken))
}

func TestCheckPreconditionsRejectsUnsupportedPrivacyLevel(t *testing.T) {
	a := &stubAdapter{ready: true, caps: baseCaps()}
	err := CheckPreconditions(a, OperationRequest{Token: "USDC", Amount: 5, PrivacyLevel: PrivacyLevelFullyPrivate})
	assert.True(t, errs.Is(err, errs.CodeUnsupportedPrivacyLevel))
}

func TestCheckPreconditionsRejectsBelowMinimum(t *testing.T) {
	a := &stubAdapter{ready: true, caps: baseCaps()}
	err := CheckPreconditions(a, OperationRequest{Token: "USDC", Amount: 0.5, PrivacyLevel: PrivacyLevelAmountHidden})
	assert.True(t, errs.Is(err, errs.CodeAmountBelowMinimum))
}

func TestCheckPreconditionsPassesValidRequest(t *testing.T) {
	a := &stubAdapter{ready: true, caps: baseCaps()}
	err := CheckPreconditions(a, OperationRequest{Token: "USDC", Amount: 5, PrivacyLevel: PrivacyLevelAmountHidden})
	assert.NoError(t, err)
}

func TestCapabilityMatrixWildcardTokenSupport(t *testing.T) {
	caps := CapabilityMatrix{ProviderID: "zk"}
	assert.True(t, caps.SupportsToken("ANYTHING"))
}
