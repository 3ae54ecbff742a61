package mpcadapter

import (
	"context"
	"math/big"
	"testing"

	"github.com/privacycash/toolkit/adapter"
	"github.com/privacycash/toolkit/ecdh"
	"github.com/privacycash/toolkit/errs"
	"github.com/privacycash/toolkit/eventbus"
	"github.com/privacycash/toolkit/tokenregistry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) (*Adapter, *ecdh.KeyPair) {
	t.Helper()
	mxeKeys, err := ecdh.GenerateKeyPair()
	require.NoError(t, err)

	reg := tokenregistry.New()
	reg.Register(tokenregistry.TokenInfo{Symbol: "SOL", Decimals: 9})
	reg.Register(tokenregistry.TokenInfo{Symbol: "USDC", Decimals: 6})

	a := New(mxeKeys.Public, reg)
	require.NoError(t, a.Initialize(context.Background(), nil, nil))
	return a, mxeKeys
}

func TestInitializeEstablishesDistinctSessions(t *testing.T) {
	a, _ := newTestAdapter(t)
	s1 := a.SessionID()

	require.NoError(t, a.Initialize(context.Background(), nil, nil))
	s2 := a.SessionID()
	assert.NotEqual(t, s1, s2)
}

func TestTransferRejectsUndecodableAddress(t *testing.T) {
	a, _ := newTestAdapter(t)

	_, err := a.Transfer(context.Background(), adapter.OperationRequest{
		Token:        "SOL",
		Amount:       1,
		PrivacyLevel: adapter.PrivacyLevelAmountHidden,
		Sender:       "not-a-valid-base58-address!!",
		Recipient:    "also-not-valid!!",
	})
	assert.Error(t, err)
}

type recordingNotifier struct {
	events []eventbus.Event
}

func (r *recordingNotifier) Publish(ctx context.Context, event eventbus.Event) error {
	r.events = append(r.events, event)
	return nil
}

func TestDepositPublishesLifecycleEvent(t *testing.T) {
	a, _ := newTestAdapter(t)
	rec := &recordingNotifier{}
	a.SetNotifier(rec)

	_, err := a.Deposit(context.Background(), adapter.OperationRequest{
		Token: "SOL", Amount: 1, PrivacyLevel: adapter.PrivacyLevelAmountHidden,
	})
	require.NoError(t, err)
	require.Len(t, rec.events, 1)
	assert.Equal(t, eventbus.EventDepositCreated, rec.events[0].Kind)
}

func TestDepositBuildsShieldPayload(t *testing.T) {
	a, _ := newTestAdapter(t)

	result, err := a.Deposit(context.Background(), adapter.OperationRequest{
		Token: "SOL", Amount: 1, PrivacyLevel: adapter.PrivacyLevelAmountHidden,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.TransactionID)
}

func TestEstimateRejectsUnsupportedToken(t *testing.T) {
	a, _ := newTestAdapter(t)
	_, err := a.Estimate(context.Background(), adapter.OperationRequest{Token: "DOGE", Amount: 1})
	assert.True(t, errs.Is(err, errs.CodeUnsupportedToken))
}

func TestConfidentialComputeRoundTripsThroughSessionSecret(t *testing.T) {
	a, _ := newTestAdapter(t)

	result, err := a.ConfidentialCompute(context.Background(), []*big.Int{big.NewInt(7), big.NewInt(35)},
		func(ctx context.Context, inputs []*ecdh.EncryptedValue) (*ecdh.EncryptedValue, error) {
			require.Len(t, inputs, 2)
			decrypted0, derr := a.crypt.Decrypt(inputs[0])
			require.NoError(t, derr)
			decrypted1, derr := a.crypt.Decrypt(inputs[1])
			require.NoError(t, derr)
			return a.crypt.Encrypt(new(big.Int).Add(decrypted0, decrypted1))
		})
	require.NoError(t, err)

	sum, err := a.crypt.Decrypt(result)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), sum)
}
