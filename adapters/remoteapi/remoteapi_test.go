package remoteapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/privacycash/toolkit/adapter"
	"github.com/privacycash/toolkit/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWallet struct{}

func (stubWallet) PublicKey() solana.PublicKey { return solana.PublicKey{} }
func (stubWallet) SignMessage(context.Context, []byte) ([]byte, error) {
	return []byte{1, 2, 3, 4}, nil
}
func (stubWallet) SignTransaction(context.Context, *solana.Transaction) (*solana.Transaction, error) {
	return nil, nil
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := New(Config{BaseURL: srv.URL})
	require.NoError(t, a.Initialize(context.Background(), nil, stubWallet{}))
	return a
}

func TestTransferSucceeds(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		_ = json.NewEncoder(w).Encode(providerResponse{
			Success:       true,
			TransactionID: "tx-123",
			Fee:           0.5,
		})
	})

	result, err := a.Transfer(context.Background(), adapter.OperationRequest{
		Token: "USDC", Amount: 100, PrivacyLevel: adapter.PrivacyLevelAmountHidden, Sender: "a", Recipient: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, "tx-123", result.TransactionID)
	assert.Equal(t, 0.5, result.Fee)
}

func TestTransferMapsNotFoundError(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		_ = json.NewEncoder(w).Encode(providerResponse{Success: false, Error: "recipient not found"})
	})

	_, err := a.Transfer(context.Background(), adapter.OperationRequest{
		Token: "USDC", Amount: 100, PrivacyLevel: adapter.PrivacyLevelAmountHidden, Sender: "a", Recipient: "b",
	})
	assert.True(t, errs.Is(err, errs.CodeRecipientNotFound))
}

func TestTransferRejectsWithoutWallet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL})
	require.NoError(t, a.Initialize(context.Background(), nil, nil))

	_, err := a.Transfer(context.Background(), adapter.OperationRequest{
		Token: "USDC", Amount: 100, PrivacyLevel: adapter.PrivacyLevelAmountHidden,
	})
	assert.True(t, errs.Is(err, errs.CodeWalletNotConnected))
}

func TestEstimateNeverCallsNetwork(t *testing.T) {
	called := false
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		called = true
	})

	est, err := a.Estimate(context.Background(), adapter.OperationRequest{Token: "USDC", Amount: 100})
	require.NoError(t, err)
	assert.False(t, called)
	assert.InDelta(t, 0.5, est.Fee, 1e-9)
}
