package zkadapter

import (
	"context"
	"testing"

	"github.com/privacycash/toolkit/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeRegistersKnownCircuits(t *testing.T) {
	a := New()
	require.NoError(t, a.Initialize(context.Background(), nil, nil))
	assert.True(t, a.IsReady())

	_, ok := a.circuits["private-transfer"]
	assert.True(t, ok)
	_, ok = a.circuits["withdrawal"]
	assert.True(t, ok)
}

func TestCapabilitiesSupportAnyToken(t *testing.T) {
	a := New()
	caps := a.Capabilities()
	assert.True(t, caps.SupportsToken("ANYTOKEN"))
	assert.True(t, caps.SupportsPrivacyLevel(adapter.PrivacyLevelFullyPrivate))
}

func TestRegisterCircuitRejectsTooManySlots(t *testing.T) {
	a := New()
	err := a.RegisterCircuit(CircuitDef{
		Name:          "too-big",
		PrivateInputs: make([]string, MaxSlots*2+1),
	})
	assert.Error(t, err)
}

func TestDepositProducesDistinctCommitments(t *testing.T) {
	a := New()
	require.NoError(t, a.Initialize(context.Background(), nil, nil))

	req := adapter.OperationRequest{Token: "SOL", Amount: 1, PrivacyLevel: adapter.PrivacyLevelFullyPrivate}
	r1, err := a.Deposit(context.Background(), req)
	require.NoError(t, err)
	r2, err := a.Deposit(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Commitment, r2.Commitment)
}

func TestProveFailsOnMissingInput(t *testing.T) {
	a := New()
	require.NoError(t, a.Initialize(context.Background(), nil, nil))

	_, err := a.Prove(context.Background(), adapter.ProveRequest{
		CircuitName: "withdrawal",
		Inputs:      map[string]string{"secret": "1"},
	})
	assert.Error(t, err)
}
