// Package mpcadapter implements the Arcium-style MPC adapter (C7): an
// opaque 16-byte session handle (grounded on google/uuid, already an
// indirect dependency of the teacher's solana-go toolchain) owning an
// established ECDH shared secret with the MXE, used to encrypt transfer
// amounts via the ecdh package before emitting a chain instruction.
package mpcadapter

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/privacycash/toolkit/adapter"
	"github.com/privacycash/toolkit/chainiface"
	"github.com/privacycash/toolkit/ecdh"
	"github.com/privacycash/toolkit/errs"
	"github.com/privacycash/toolkit/eventbus"
	"github.com/privacycash/toolkit/internal/logging"
	"github.com/privacycash/toolkit/tokenregistry"
)

const ProviderID = "mpc-arcium"

const (
	opTransfer = 0x01
	opShield   = 0x02
	opUnshield = 0x03
)

// SessionID is the opaque 16-byte MPC session handle.
type SessionID [16]byte

func newSessionID() SessionID {
	return SessionID(uuid.New())
}

// ComputationFn is a closure handed opaque encrypted inputs by
// ConfidentialCompute; it performs the actual MPC circuit off-process and
// returns the encrypted result.
type ComputationFn func(ctx context.Context, inputs []*ecdh.EncryptedValue) (*ecdh.EncryptedValue, error)

// Adapter is the MPC/Arcium-style backend.
type Adapter struct {
	mu        sync.Mutex
	ready     bool
	chain     chainiface.Chain
	wallet    chainiface.Wallet
	session   SessionID
	mxePublic [32]byte
	keys      *ecdh.KeyPair
	crypt     *ecdh.ArciumEncryption
	registry  *tokenregistry.Registry
	notifier  eventbus.Notifier
	logger    *logging.Logger
}

// New builds an adapter that will derive a fresh keypair and session on
// Initialize, against the given MXE public key and token registry.
func New(mxePublic [32]byte, registry *tokenregistry.Registry) *Adapter {
	return &Adapter{
		mxePublic: mxePublic,
		registry:  registry,
		notifier:  eventbus.NoopNotifier{},
		logger:    logging.Default(),
	}
}

// SetNotifier binds n as the adapter's lifecycle event sink.
func (a *Adapter) SetNotifier(n eventbus.Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifier = n
}

func (a *Adapter) publish(ctx context.Context, kind eventbus.EventKind, fields map[string]string) {
	a.mu.Lock()
	notifier := a.notifier
	a.mu.Unlock()
	if err := notifier.Publish(ctx, eventbus.Event{Kind: kind, Provider: ProviderID, Fields: fields, Timestamp: time.Now()}); err != nil {
		a.logger.Debugf("mpcadapter: failed to publish %s event: %v", kind, err)
	}
}

func (a *Adapter) Capabilities() adapter.CapabilityMatrix {
	return adapter.CapabilityMatrix{
		ProviderID:  ProviderID,
		DisplayName: "MPC (Arcium-style)",
		SupportedPrivacyLevels: map[adapter.PrivacyLevel]bool{
			adapter.PrivacyLevelAmountHidden: true,
		},
		SupportedTokens: map[string]bool{"SOL": true, "USDC": true},
		Fees: map[string]adapter.ProviderFees{
			"SOL":  {FeeFraction: 0.001, MinAmount: 0.01},
			"USDC": {FeeFraction: 0.001, MinAmount: 1},
		},
	}
}

func (a *Adapter) Initialize(ctx context.Context, chain chainiface.Chain, wallet chainiface.Wallet) error {
	keys, err := ecdh.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("mpcadapter: failed to generate session keypair: %w", err)
	}
	crypt, err := ecdh.NewArciumEncryption(keys.Secret, a.mxePublic)
	if err != nil {
		return fmt.Errorf("mpcadapter: failed to establish MXE shared secret: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.chain = chain
	a.wallet = wallet
	a.keys = keys
	a.crypt = crypt
	a.session = newSessionID()
	a.ready = true
	return nil
}

func (a *Adapter) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// SessionID returns the current MPC session handle.
func (a *Adapter) SessionID() SessionID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *Adapter) Balance(ctx context.Context, token string, address string) (float64, error) {
	return 0, nil
}

// Deposit ("shield", op=0x02) wraps a visible u64-little-endian amount in
// the token's base units.
func (a *Adapter) Deposit(ctx context.Context, req adapter.OperationRequest) (adapter.OperationResult, error) {
	if err := adapter.CheckPreconditions(a, req); err != nil {
		return adapter.OperationResult{}, err
	}
	units, err := a.registry.ToBaseUnits(req.Amount, req.Token)
	if err != nil {
		return adapter.OperationResult{}, err
	}

	payload, err := buildShieldPayload(units)
	if err != nil {
		return adapter.OperationResult{}, errs.InvalidFormat(err.Error())
	}

	txID, err := a.submit(ctx, payload)
	if err != nil {
		return adapter.OperationResult{}, err
	}
	a.publish(ctx, eventbus.EventDepositCreated, map[string]string{"token": req.Token})
	return adapter.OperationResult{TransactionID: txID}, nil
}

// Withdraw ("unshield", op=0x03) unwraps a visible amount to recipient.
func (a *Adapter) Withdraw(ctx context.Context, req adapter.OperationRequest) (adapter.OperationResult, error) {
	if err := adapter.CheckPreconditions(a, req); err != nil {
		return adapter.OperationResult{}, err
	}
	units, err := a.registry.ToBaseUnits(req.Amount, req.Token)
	if err != nil {
		return adapter.OperationResult{}, err
	}

	recipient, err := decodeAddress(req.Recipient)
	if err != nil {
		return adapter.OperationResult{}, errs.RecipientNotFound(req.Recipient)
	}

	payload, err := buildUnshieldPayload(recipient, units)
	if err != nil {
		return adapter.OperationResult{}, errs.InvalidFormat(err.Error())
	}

	txID, err := a.submit(ctx, payload)
	if err != nil {
		return adapter.OperationResult{}, err
	}
	return adapter.OperationResult{TransactionID: txID}, nil
}

// Transfer encrypts the amount with the session's shared secret and emits
// a chain instruction carrying the ciphertext, per §4.7/§6.
func (a *Adapter) Transfer(ctx context.Context, req adapter.OperationRequest) (adapter.OperationResult, error) {
	if err := adapter.CheckPreconditions(a, req); err != nil {
		return adapter.OperationResult{}, err
	}
	units, err := a.registry.ToBaseUnits(req.Amount, req.Token)
	if err != nil {
		return adapter.OperationResult{}, err
	}

	a.mu.Lock()
	crypt := a.crypt
	a.mu.Unlock()
	if crypt == nil {
		return adapter.OperationResult{}, errs.ProviderNotAvailable(ProviderID, nil)
	}

	encrypted, err := crypt.EncryptForCSPL(units)
	if err != nil {
		return adapter.OperationResult{}, errs.ProofGeneration(err)
	}

	sender, err := decodeAddress(req.Sender)
	if err != nil {
		return adapter.OperationResult{}, errs.WalletNotConnected()
	}
	recipient, err := decodeAddress(req.Recipient)
	if err != nil {
		return adapter.OperationResult{}, errs.RecipientNotFound(req.Recipient)
	}

	payload := buildTransferPayload(sender, recipient, encrypted)
	txID, err := a.submit(ctx, payload)
	if err != nil {
		return adapter.OperationResult{}, err
	}
	a.publish(ctx, eventbus.EventTransferCompleted, map[string]string{"token": req.Token})
	return adapter.OperationResult{TransactionID: txID}, nil
}

// ConfidentialCompute is a template operation: it encrypts a set of plain
// inputs under the session's shared secret and hands the ciphertexts to an
// opaque computation closure, returning its encrypted result undecrypted.
func (a *Adapter) ConfidentialCompute(ctx context.Context, inputs []*big.Int, compute ComputationFn) (*ecdh.EncryptedValue, error) {
	a.mu.Lock()
	crypt := a.crypt
	a.mu.Unlock()
	if crypt == nil {
		return nil, errs.ProviderNotAvailable(ProviderID, nil)
	}

	encrypted := make([]*ecdh.EncryptedValue, len(inputs))
	for i, v := range inputs {
		enc, err := crypt.Encrypt(v)
		if err != nil {
			return nil, errs.ProofGeneration(err)
		}
		encrypted[i] = enc
	}
	result, err := compute(ctx, encrypted)
	if err != nil {
		return nil, errs.Wrap(errs.CodeTransaction, "confidential computation failed", err)
	}
	return result, nil
}

func (a *Adapter) Estimate(ctx context.Context, req adapter.OperationRequest) (adapter.EstimateResult, error) {
	fees, ok := a.Capabilities().Fees[req.Token]
	if !ok {
		return adapter.EstimateResult{}, errs.UnsupportedToken(req.Token)
	}
	return adapter.EstimateResult{
		Fee:              req.Amount * fees.FeeFraction,
		LatencyMS:        8000,
		AnonymitySetSize: fees.AnonymitySetSize,
	}, nil
}

// submit is a placeholder for chain submission; out of scope per §1, this
// stands in for the Chain collaborator's SendInstructions.
func (a *Adapter) submit(ctx context.Context, payload []byte) (string, error) {
	a.mu.Lock()
	chain := a.chain
	a.mu.Unlock()
	if chain == nil {
		a.logger.Debugf("mpcadapter: no chain collaborator wired, simulating submission of %d bytes", len(payload))
		return fmt.Sprintf("mpc-sim-%x", a.session[:4]), nil
	}
	return "", errs.ProviderNotAvailable(ProviderID, fmt.Errorf("live chain submission requires a bound adapter-specific account layout"))
}
