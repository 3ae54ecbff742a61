// Package poolpadapter implements the Privacy-Cash-style Pool adapter
// (C7): an append-only, Poseidon-hashed commitment set (C2) and a
// bearer-note scheme (C3), wired onto a Prover collaborator for withdrawal
// proofs and a local unspent-note map kept exclusive to each instance, in
// the spirit of the teacher's zk-wallet-go zkprequest.Service, which pairs
// a remote proving request with local persistence of the resulting state.
package poolpadapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"

	"github.com/privacycash/toolkit/adapter"
	"github.com/privacycash/toolkit/chainiface"
	"github.com/privacycash/toolkit/errs"
	"github.com/privacycash/toolkit/eventbus"
	"github.com/privacycash/toolkit/field"
	"github.com/privacycash/toolkit/internal/logging"
	"github.com/privacycash/toolkit/merkletree"
	"github.com/privacycash/toolkit/note"
	"github.com/privacycash/toolkit/proof"
)

const ProviderID = "pool-privacycash"

const (
	opDeposit  = 0x01
	opWithdraw = 0x02
)

// WithdrawState is a withdrawal's position in its state machine, per §4.7:
// Ready -> ProofFetched -> ProofGenerated -> Submitted -> Confirmed|Failed.
type WithdrawState string

const (
	StateReady         WithdrawState = "Ready"
	StateProofFetched  WithdrawState = "ProofFetched"
	StateProofGenerated WithdrawState = "ProofGenerated"
	StateSubmitted     WithdrawState = "Submitted"
	StateConfirmed     WithdrawState = "Confirmed"
	StateFailed        WithdrawState = "Failed"
)

// Indexer answers Merkle-proof lookups for a commitment already inserted
// into the pool's tree; a real deployment backs this with an off-chain
// service that mirrors on-chain commitment insertions.
type Indexer interface {
	ProofFor(ctx context.Context, commitment field.Element) (*merkletree.Proof, error)
}

// localIndexer falls back to simulating a proof from the adapter's own
// tree, for tests and for environments without a real indexer wired.
type localIndexer struct {
	tree *merkletree.Tree
}

func (l *localIndexer) ProofFor(ctx context.Context, commitment field.Element) (*merkletree.Proof, error) {
	index, ok := l.tree.Find(commitment)
	if !ok {
		return nil, fmt.Errorf("poolpadapter: commitment not found in local tree")
	}
	return l.tree.GenerateProof(index)
}

// Prover is the subset of adapter.Prover the Pool adapter needs for
// withdrawal proofs; satisfied by *zkadapter.Adapter.
type Prover interface {
	Prove(ctx context.Context, req adapter.ProveRequest) (adapter.ProveResult, error)
}

// Adapter is the Pool/Privacy-Cash-style backend.
type Adapter struct {
	mu       sync.Mutex
	ready    bool
	chain    chainiface.Chain
	wallet   chainiface.Wallet
	mint     solana.PublicKey
	tree     *merkletree.Tree
	indexer  Indexer
	prover   Prover
	unspent  map[string]*note.DepositNote // keyed by commitment hex
	notifier eventbus.Notifier
	logger   *logging.Logger
}

// New builds a Pool adapter over a fresh depth-20 tree. If indexer is nil,
// a local simulated indexer backed by the same tree is used, per §4.7.
// Lifecycle events publish to a NoopNotifier by default; call SetNotifier
// to bind a real sink.
func New(mint solana.PublicKey, prover Prover, indexer Indexer) *Adapter {
	tree := merkletree.New(merkletree.DefaultDepth)
	if indexer == nil {
		indexer = &localIndexer{tree: tree}
	}
	return &Adapter{
		mint:     mint,
		tree:     tree,
		indexer:  indexer,
		prover:   prover,
		unspent:  make(map[string]*note.DepositNote),
		notifier: eventbus.NoopNotifier{},
		logger:   logging.Default(),
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
		a.logger.Debugf("poolpadapter: failed to publish %s event: %v", kind, err)
	}
}

func (a *Adapter) Capabilities() adapter.CapabilityMatrix {
	return adapter.CapabilityMatrix{
		ProviderID:  ProviderID,
		DisplayName: "Pool (Privacy-Cash-style)",
		SupportedPrivacyLevels: map[adapter.PrivacyLevel]bool{
			adapter.PrivacyLevelFullyPrivate: true,
		},
		SupportedTokens: map[string]bool{"SOL": true, "USDC": true},
		Fees: map[string]adapter.ProviderFees{
			"SOL":  {FeeFraction: 0.003, MinAmount: 0.001},
			"USDC": {FeeFraction: 0.003, MinAmount: 0.1},
		},
	}
}

func (a *Adapter) Initialize(ctx context.Context, chain chainiface.Chain, wallet chainiface.Wallet) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chain = chain
	a.wallet = wallet
	a.ready = true
	return nil
}

func (a *Adapter) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

func (a *Adapter) Balance(ctx context.Context, token string, address string) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total float64
	for _, n := range a.unspent {
		if n.Token == token {
			total += n.Amount
		}
	}
	return total, nil
}

// poolPDA and nullifierPDA derive the seeds named in §6. The derived
// address is rendered as base58 for logging, matching how a Solana
// explorer or CLI would display it.
func poolPDA(mint solana.PublicKey, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	pda, bump, err := chainiface.PDA([][]byte{[]byte("pool"), mint[:]}, programID)
	if err == nil {
		logging.Default().Debugf("poolpadapter: pool PDA %s (bump %d)", base58.Encode(pda[:]), bump)
	}
	return pda, bump, err
}

func nullifierPDA(nullifierHash field.Element, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	b := nullifierHash.Bytes()
	pda, bump, err := chainiface.PDA([][]byte{[]byte("nullifier"), b[:]}, programID)
	if err == nil {
		logging.Default().Debugf("poolpadapter: nullifier PDA %s (bump %d)", base58.Encode(pda[:]), bump)
	}
	return pda, bump, err
}

// Deposit draws secret/nullifier via C3, computes the commitment, submits
// {op=0x01, commitment(32), amount_u64_le}, and stores the resulting note.
func (a *Adapter) Deposit(ctx context.Context, req adapter.OperationRequest) (adapter.OperationResult, error) {
	if err := adapter.CheckPreconditions(a, req); err != nil {
		return adapter.OperationResult{}, err
	}

	n, err := note.GenerateDepositNote(req.Amount, req.Token)
	if err != nil {
		return adapter.OperationResult{}, errs.ProofGeneration(err)
	}

	leafIndex, err := a.tree.Insert(n.Commitment)
	if err != nil {
		return adapter.OperationResult{}, errs.Wrap(errs.CodeTransaction, "failed to insert commitment into pool tree", err)
	}
	n.LeafIndex = &leafIndex

	encoded, err := note.EncodeNote(n)
	if err != nil {
		return adapter.OperationResult{}, errs.InvalidFormat(err.Error())
	}

	if _, _, err := poolPDA(a.mint, solana.PublicKey{}); err != nil {
		return adapter.OperationResult{}, errs.Wrap(errs.CodeTransaction, "failed to derive pool PDA", err)
	}

	payload := buildDepositPayload(n.Commitment, uint64(n.Amount))
	if err := a.submit(ctx, payload); err != nil {
		return adapter.OperationResult{}, err
	}

	a.mu.Lock()
	a.unspent[n.Commitment.Hex()] = n
	a.mu.Unlock()

	a.logger.Debugf("pool deposit: commitment %s at leaf %d", n.Commitment.Hex(), leafIndex)
	txID := fmt.Sprintf("pool-deposit-%s", n.Commitment.Hex()[:16])
	a.publish(ctx, eventbus.EventDepositCreated, map[string]string{"commitment": n.Commitment.Hex(), "token": req.Token})
	return adapter.OperationResult{TransactionID: txID, Commitment: n.Commitment.Hex(), Note: encoded}, nil
}

// Withdraw decodes req.Note, walks the Ready->ProofFetched->ProofGenerated
// ->Submitted->Confirmed|Failed state machine, and on confirmation removes
// the note from the unspent set.
func (a *Adapter) Withdraw(ctx context.Context, req adapter.OperationRequest) (adapter.OperationResult, error) {
	if err := adapter.CheckPreconditions(a, req); err != nil {
		return adapter.OperationResult{}, err
	}

	n, err := note.DecodeNote(req.Note)
	if err != nil {
		return adapter.OperationResult{}, errs.InvalidFormat(err.Error())
	}
	if !note.VerifyNote(n) {
		return adapter.OperationResult{}, errs.InvalidFormat("note: commitment/nullifier_hash do not match secret/nullifier")
	}

	state := StateReady

	merkleProof, err := a.indexer.ProofFor(ctx, n.Commitment)
	if err != nil {
		state = StateFailed
		a.logger.Debugf("pool withdraw: state=%s, failed to fetch merkle proof: %v", state, err)
		return adapter.OperationResult{}, errs.Wrap(errs.CodeTransaction, "failed to fetch merkle proof", err)
	}
	state = StateProofFetched

	if a.prover == nil {
		state = StateFailed
		return adapter.OperationResult{}, errs.ProviderNotAvailable("zk-noir", fmt.Errorf("withdraw requires a prover collaborator"))
	}
	proveResult, err := a.prover.Prove(ctx, adapter.ProveRequest{
		CircuitName: "withdrawal",
		Inputs: map[string]string{
			"secret":        n.Secret.String(),
			"nullifier":     n.Nullifier.String(),
			"amount":        field.FromUint64(uint64(n.Amount)).String(),
			"nullifierHash": n.NullifierHash.String(),
			"root":          merkleProof.Root.String(),
		},
	})
	if err != nil {
		state = StateFailed
		a.logger.Debugf("pool withdraw: state=%s, prove failed: %v", state, err)
		return adapter.OperationResult{}, err
	}
	state = StateProofGenerated

	proofBytes, err := proof.SerializeProof(proveResult.Envelope)
	if err != nil {
		state = StateFailed
		return adapter.OperationResult{}, errs.ProofGeneration(err)
	}

	if _, _, err := nullifierPDA(n.NullifierHash, solana.PublicKey{}); err != nil {
		state = StateFailed
		return adapter.OperationResult{}, errs.Wrap(errs.CodeTransaction, "failed to derive nullifier PDA", err)
	}

	payload := buildWithdrawPayload(n.NullifierHash, merkleProof.Root, proofBytes)
	state = StateSubmitted

	if err := a.submit(ctx, payload); err != nil {
		state = StateFailed
		a.logger.Debugf("pool withdraw: state=%s, submission failed: %v", state, err)
		return adapter.OperationResult{}, err
	}
	state = StateConfirmed

	a.mu.Lock()
	delete(a.unspent, n.Commitment.Hex())
	a.mu.Unlock()

	a.logger.Debugf("pool withdraw: state=%s for nullifier_hash %s", state, n.NullifierHash.Hex())
	a.publish(ctx, eventbus.EventNoteSpent, map[string]string{"commitment": n.Commitment.Hex(), "nullifier_hash": n.NullifierHash.Hex()})
	a.publish(ctx, eventbus.EventWithdrawalConfirmed, map[string]string{"nullifier_hash": n.NullifierHash.Hex()})
	return adapter.OperationResult{
		TransactionID: fmt.Sprintf("pool-withdraw-%s", n.NullifierHash.Hex()[:16]),
		Commitment:    n.Commitment.Hex(),
	}, nil
}

// Transfer composes deposit then withdraw, per §4.7; the fee is the sum of
// both legs, an intentional doubling versus a single on-chain interaction.
func (a *Adapter) Transfer(ctx context.Context, req adapter.OperationRequest) (adapter.OperationResult, error) {
	depositResult, err := a.Deposit(ctx, req)
	if err != nil {
		return adapter.OperationResult{}, err
	}

	withdrawReq := req
	withdrawReq.Note = depositResult.Note
	withdrawResult, err := a.Withdraw(ctx, withdrawReq)
	if err != nil {
		return adapter.OperationResult{}, err
	}

	depositEst, _ := a.Estimate(ctx, req)
	withdrawResult.Fee = depositEst.Fee * 2
	a.publish(ctx, eventbus.EventTransferCompleted, map[string]string{"commitment": depositResult.Commitment})
	return withdrawResult, nil
}

func (a *Adapter) Estimate(ctx context.Context, req adapter.OperationRequest) (adapter.EstimateResult, error) {
	fees, ok := a.Capabilities().Fees[req.Token]
	if !ok {
		return adapter.EstimateResult{}, errs.UnsupportedToken(req.Token)
	}
	return adapter.EstimateResult{
		Fee:              req.Amount * fees.FeeFraction,
		LatencyMS:        15000,
		AnonymitySetSize: fees.AnonymitySetSize,
	}, nil
}

// ExportNotes serializes every note currently held unspent, per §9 Design
// Notes: the unspent-note map is first-class, exportable/importable state.
func (a *Adapter) ExportNotes() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.unspent))
	for _, n := range a.unspent {
		encoded, err := note.EncodeNote(n)
		if err != nil {
			return nil, errs.InvalidFormat(err.Error())
		}
		out = append(out, encoded)
	}
	return out, nil
}

// ImportNote decodes an externally held note string and adds it to the
// unspent set, without re-inserting its commitment into the local tree
// (the commitment is assumed already present on-chain and in the indexer).
func (a *Adapter) ImportNote(encoded string) error {
	n, err := note.DecodeNote(encoded)
	if err != nil {
		return errs.InvalidFormat(err.Error())
	}
	if !note.VerifyNote(n) {
		return errs.InvalidFormat("note: commitment/nullifier_hash do not match secret/nullifier")
	}
	a.mu.Lock()
	a.unspent[n.Commitment.Hex()] = n
	a.mu.Unlock()
	return nil
}

// depositInstruction is the borsh-encoded wire layout of a pool-deposit
// instruction: {op=0x01, commitment(32), amount_u64_le}.
type depositInstruction struct {
	Op         uint8
	Commitment [32]byte
	Amount     uint64
}

// withdrawInstruction is the borsh-encoded wire layout of a pool-withdraw
// instruction: {op=0x02, nullifier_hash(32), root(32), proof_len_u32_le,
// proof_bytes}.
type withdrawInstruction struct {
	Op            uint8
	NullifierHash [32]byte
	Root          [32]byte
	Proof         []byte
}

func buildDepositPayload(commitment field.Element, amount uint64) []byte {
	out, err := borsh.Serialize(depositInstruction{Op: opDeposit, Commitment: commitment.Bytes(), Amount: amount})
	if err != nil {
		panic(fmt.Sprintf("poolpadapter: borsh serialization of a fixed-shape instruction cannot fail: %v", err))
	}
	return out
}

func buildWithdrawPayload(nullifierHash, root field.Element, proofBytes []byte) []byte {
	out, err := borsh.Serialize(withdrawInstruction{
		Op:            opWithdraw,
		NullifierHash: nullifierHash.Bytes(),
		Root:          root.Bytes(),
		Proof:         proofBytes,
	})
	if err != nil {
		panic(fmt.Sprintf("poolpadapter: borsh serialization of a fixed-shape instruction cannot fail: %v", err))
	}
	return out
}

func (a *Adapter) submit(ctx context.Context, payload []byte) error {
	a.mu.Lock()
	chain := a.chain
	a.mu.Unlock()
	if chain == nil {
		a.logger.Debugf("poolpadapter: no chain collaborator wired, simulating submission of %d bytes", len(payload))
		return nil
	}
	return errs.ProviderNotAvailable(ProviderID, fmt.Errorf("live chain submission requires a bound adapter-specific account layout"))
}
