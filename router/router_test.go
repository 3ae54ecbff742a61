package router

import (
	"context"
	"testing"

	"github.com/privacycash/toolkit/adapter"
	"github.com/privacycash/toolkit/chainiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter is a minimal adapter.Adapter for router tests.
type stubAdapter struct {
	id        string
	tokens    map[string]bool
	levels    map[adapter.PrivacyLevel]bool
	fee       float64
	latencyMS int64
	anonymity *int
}

func (s *stubAdapter) Capabilities() adapter.CapabilityMatrix {
	return adapter.CapabilityMatrix{
		ProviderID:             s.id,
		DisplayName:            s.id,
		SupportedPrivacyLevels: s.levels,
		SupportedTokens:        s.tokens,
		Fees:                   map[string]adapter.ProviderFees{"USDC": {FeeFraction: 0.01}, "SOL": {FeeFraction: 0.01}},
	}
}

func (s *stubAdapter) Initialize(context.Context, chainiface.Chain, chainiface.Wallet) error { return nil }
func (s *stubAdapter) IsReady() bool                                                          { return true }
func (s *stubAdapter) Balance(context.Context, string, string) (float64, error)              { return 0, nil }
func (s *stubAdapter) Deposit(context.Context, adapter.OperationRequest) (adapter.OperationResult, error) {
	return adapter.OperationResult{}, nil
}
func (s *stubAdapter) Transfer(context.Context, adapter.OperationRequest) (adapter.OperationResult, error) {
	return adapter.OperationResult{}, nil
}
func (s *stubAdapter) Withdraw(context.Context, adapter.OperationRequest) (adapter.OperationResult, error) {
	return adapter.OperationResult{}, nil
}
func (s *stubAdapter) Estimate(context.Context, adapter.OperationRequest) (adapter.EstimateResult, error) {
	return adapter.EstimateResult{Fee: s.fee, LatencyMS: s.latencyMS, AnonymitySetSize: s.anonymity}, nil
}

func amountHiddenUSDC() map[adapter.PrivacyLevel]bool {
	return map[adapter.PrivacyLevel]bool{adapter.PrivacyLevelAmountHidden: true}
}

// TestRouterChoosesCheaperCandidate mirrors spec.md's worked router-choice
// scenario: RemoteAPI and MPC both support AmountHidden/USDC, MPC is
// cheaper, so MPC is recommended and RemoteAPI is the sole alternative.
func TestRouterChoosesCheaperCandidate(t *testing.T) {
	r := New()
	r.Register(&stubAdapter{id: "remote-api", tokens: map[string]bool{"USDC": true}, levels: amountHiddenUSDC(), fee: 1, latencyMS: 3000})
	r.Register(&stubAdapter{id: "mpc-arcium", tokens: map[string]bool{"USDC": true}, levels: amountHiddenUSDC(), fee: 0.2, latencyMS: 8000})
	r.Register(&stubAdapter{id: "pool-privacycash", tokens: map[string]bool{"USDC": true}, levels: map[adapter.PrivacyLevel]bool{adapter.PrivacyLevelFullyPrivate: true}})

	maxFee := 2.0
	result, err := r.Select(context.Background(), SelectionCriteria{
		PrivacyLevel: adapter.PrivacyLevelAmountHidden,
		Token:        "USDC",
		Amount:       100,
		MaxFee:       &maxFee,
	})
	require.NoError(t, err)
	assert.Equal(t, "mpc-arcium", result.Recommended)
	assert.Equal(t, []string{"remote-api"}, result.Alternatives)
}

func TestRouterReturnsNoSuitableProviderWithReasons(t *testing.T) {
	r := New()
	r.Register(&stubAdapter{id: "pool-privacycash", tokens: map[string]bool{"SOL": true}, levels: map[adapter.PrivacyLevel]bool{adapter.PrivacyLevelFullyPrivate: true}})

	_, err := r.Select(context.Background(), SelectionCriteria{
		PrivacyLevel: adapter.PrivacyLevelAmountHidden,
		Token:        "SOL",
		Amount:       1,
	})
	require.Error(t, err)
	var nsp *NoSuitableProvider
	require.ErrorAs(t, err, &nsp)
	assert.Contains(t, nsp.Reasons["pool-privacycash"], "privacy level")
}

func TestRouterTieBreaksAlphabetically(t *testing.T) {
	r := New()
	r.Register(&stubAdapter{id: "zzz-provider", tokens: map[string]bool{"SOL": true}, levels: amountHiddenUSDC(), fee: 1, latencyMS: 1000})
	r.Register(&stubAdapter{id: "aaa-provider", tokens: map[string]bool{"SOL": true}, levels: amountHiddenUSDC(), fee: 1, latencyMS: 1000})

	result, err := r.Select(context.Background(), SelectionCriteria{
		PrivacyLevel: adapter.PrivacyLevelAmountHidden,
		Token:        "SOL",
		Amount:       1,
	})
	require.NoError(t, err)
	assert.Equal(t, "aaa-provider", result.Recommended)
}

func TestRouterFiltersByMaxFee(t *testing.T) {
	r := New()
	r.Register(&stubAdapter{id: "expensive", tokens: map[string]bool{"SOL": true}, levels: amountHiddenUSDC(), fee: 5, latencyMS: 1000})

	maxFee := 1.0
	_, err := r.Select(context.Background(), SelectionCriteria{
		PrivacyLevel: adapter.PrivacyLevelAmountHidden,
		Token:        "SOL",
		Amount:       1,
		MaxFee:       &maxFee,
	})
	var nsp *NoSuitableProvider
	require.ErrorAs(t, err, &nsp)
	assert.Contains(t, nsp.Reasons["expensive"], "exceeds max_fee")
}
