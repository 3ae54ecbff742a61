// Package merkletree implements the incremental, Poseidon-hashed binary
// Merkle tree used to anchor deposit-note commitments: append-only inserts,
// a precomputed zero-value ladder for empty subtrees, and a rolling window
// of historically valid roots so that a withdrawal proof generated against
// a slightly stale root can still be accepted.
package merkletree

import (
	"errors"
	"sync"

	"github.com/privacycash/toolkit/field"
)

// DefaultDepth and DefaultHistoryCapacity match the values spec.md pins as
// the system defaults.
const (
	DefaultDepth            = 20
	DefaultHistoryCapacity  = 100
)

// ErrTreeFull is returned by Insert once next_index has reached 2^depth.
var ErrTreeFull = errors.New("merkletree: tree is full")

// ErrNotFound is returned by GenerateProof for an index that has not been
// inserted yet (index >= next_index), including any call on an empty tree.
var ErrNotFound = errors.New("merkletree: leaf index not found")

type nodeKey struct {
	level int
	index int
}

// Proof is the result of GenerateProof: the Merkle authentication path for
// a single leaf against the tree's root at the time the proof was taken.
type Proof struct {
	Leaf          field.Element
	PathElements  []field.Element
	PathIndices   []int // 0 = sibling is right child, 1 = sibling is left child; LSB of the index first
	Root          field.Element
}

// Tree is a depth-D incremental Merkle tree over field elements.
//
// Invariants maintained by every exported method:
//   - 0 <= nextIndex <= 2^depth
//   - root is always the Poseidon fold of leaves (empty positions use the
//     zero ladder)
//   - every root ever produced by Insert is present in the history slice
//     until displaced by historyCapacity newer roots
//   - a proof generated for a previously inserted index verifies against
//     the current root
type Tree struct {
	mu sync.Mutex

	depth           int
	historyCapacity int

	zero []field.Element // zero[0]..zero[depth]

	leaves map[int]field.Element     // level-0 values, keyed by leaf index
	nodes  map[nodeKey]field.Element // levels 1..depth

	nextIndex int
	root      field.Element
	// history is most-recent-first; history[0] is always the current root.
	history []field.Element
}

// New creates a tree of the given depth with the default history capacity.
func New(depth int) *Tree {
	return NewWithHistory(depth, DefaultHistoryCapacity)
}

// NewWithHistory creates a tree of the given depth and root-history window.
func NewWithHistory(depth, historyCapacity int) *Tree {
	t := &Tree{
		depth:           depth,
		historyCapacity: historyCapacity,
		leaves:          make(map[int]field.Element),
		nodes:           make(map[nodeKey]field.Element),
	}
	t.zero = zeroLadder(depth)
	t.root = t.zero[depth]
	t.history = append(t.history, t.root)
	return t
}

// zeroLadder computes Z0=0, Z_{L+1}=Poseidon(Z_L,Z_L) up to Z_depth. This is
// process-wide read-only state conceptually; each Tree keeps its own copy
// because tree depth is a per-instance parameter, but the derivation always
// goes through the single process-wide Poseidon parameter set in field.Init.
func zeroLadder(depth int) []field.Element {
	field.Init()
	z := make([]field.Element, depth+1)
	z[0] = field.Zero()
	for l := 1; l <= depth; l++ {
		z[l] = field.PoseidonHash(z[l-1], z[l-1])
	}
	return z
}

func (t *Tree) nodeAt(level, index int) field.Element {
	if level == 0 {
		if v, ok := t.leaves[index]; ok {
			return v
		}
		return t.zero[0]
	}
	if v, ok := t.nodes[nodeKey{level, index}]; ok {
		return v
	}
	return t.zero[level]
}

func (t *Tree) setNode(level, index int, v field.Element) {
	if level == 0 {
		t.leaves[index] = v
		return
	}
	t.nodes[nodeKey{level, index}] = v
}

// Depth returns the tree's fixed depth D.
func (t *Tree) Depth() int { return t.depth }

// NextIndex returns the index the next Insert will use.
func (t *Tree) NextIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextIndex
}

// Root returns the current root.
func (t *Tree) Root() field.Element {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.root
}

// Insert appends leaf at the next available index, recomputes the O(D)
// nodes on the path to the root, pushes the new root into history, and
// returns the index the leaf was stored at. Inserting the zero element is
// legal and distinct from "empty": it simply stores field.Zero() at a real,
// now-occupied index.
func (t *Tree) Insert(leaf field.Element) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nextIndex >= 1<<uint(t.depth) {
		return 0, ErrTreeFull
	}

	index := t.nextIndex
	cur := leaf
	curIdx := index
	t.setNode(0, curIdx, cur)

	for level := 0; level < t.depth; level++ {
		var left, right field.Element
		if curIdx%2 == 0 {
			sibling := t.nodeAt(level, curIdx+1)
			left, right = cur, sibling
		} else {
			sibling := t.nodeAt(level, curIdx-1)
			left, right = sibling, cur
		}
		parent := field.PoseidonHash(left, right)
		parentIdx := curIdx / 2
		t.setNode(level+1, parentIdx, parent)
		cur = parent
		curIdx = parentIdx
	}

	t.root = cur
	t.pushHistory(t.root)
	t.nextIndex++
	return index, nil
}

func (t *Tree) pushHistory(root field.Element) {
	t.history = append([]field.Element{root}, t.history...)
	if len(t.history) > t.historyCapacity {
		t.history = t.history[:t.historyCapacity]
	}
}

// GenerateProof returns the authentication path for the leaf at index,
// against the CURRENT root. It fails with ErrNotFound if index has not been
// inserted yet.
func (t *Tree) GenerateProof(index int) (*Proof, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= t.nextIndex {
		return nil, ErrNotFound
	}

	leaf := t.leaves[index]
	pathElements := make([]field.Element, t.depth)
	pathIndices := make([]int, t.depth)

	curIdx := index
	for level := 0; level < t.depth; level++ {
		if curIdx%2 == 0 {
			pathIndices[level] = 0
			pathElements[level] = t.nodeAt(level, curIdx+1)
		} else {
			pathIndices[level] = 1
			pathElements[level] = t.nodeAt(level, curIdx-1)
		}
		curIdx /= 2
	}

	return &Proof{
		Leaf:         leaf,
		PathElements: pathElements,
		PathIndices:  pathIndices,
		Root:         t.root,
	}, nil
}

// VerifyProof recomputes the root implied by leaf and proof.PathElements /
// PathIndices and reports whether it equals proof.Root.
func VerifyProof(leaf field.Element, proof *Proof) bool {
	cur := leaf
	for level := 0; level < len(proof.PathElements); level++ {
		if proof.PathIndices[level] == 0 {
			cur = field.PoseidonHash(cur, proof.PathElements[level])
		} else {
			cur = field.PoseidonHash(proof.PathElements[level], cur)
		}
	}
	return field.Equal(cur, proof.Root)
}

// Find returns the leaf index leaf was inserted at, scanning the occupied
// leaves. Used by callers that only hold a commitment and need its index
// to request a proof.
func (t *Tree) Find(leaf field.Element) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < t.nextIndex; i++ {
		if v, ok := t.leaves[i]; ok && field.Equal(v, leaf) {
			return i, true
		}
	}
	return 0, false
}

// IsKnownRoot reports whether r has been a root of this tree within the
// last historyCapacity insertions (a linear scan of the history window).
func (t *Tree) IsKnownRoot(r field.Element) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, known := range t.history {
		if field.Equal(known, r) {
			return true
		}
	}
	return false
}
