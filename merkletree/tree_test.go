package merkletree

import (
	"testing"

	"github.com/privacycash/toolkit/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyTreeProofFails(t *testing.T) {
	tree := New(10)
	_, err := tree.GenerateProof(0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertAndVerify(t *testing.T) {
	tree := NewWithHistory(10, 100)

	i0, err := tree.Insert(field.FromUint64(100))
	require.NoError(t, err)
	i1, err := tree.Insert(field.FromUint64(200))
	require.NoError(t, err)
	i2, err := tree.Insert(field.FromUint64(300))
	require.NoError(t, err)

	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	assert.Equal(t, 2, i2)

	proof, err := tree.GenerateProof(1)
	require.NoError(t, err)

	// path_indices is LSB-first: index 1 is odd, so level 0's bit is 1.
	require.Len(t, proof.PathIndices, 10)
	assert.Equal(t, 1, proof.PathIndices[0])
	assert.Equal(t, 0, proof.PathIndices[1])
	assert.True(t, field.Equal(proof.PathElements[0], field.FromUint64(100)))

	assert.True(t, VerifyProof(field.FromUint64(200), proof))
	assert.False(t, VerifyProof(field.FromUint64(201), proof))
}

func TestReinsertSameValueDifferentIndex(t *testing.T) {
	tree := New(10)
	leaf := field.FromUint64(42)

	i0, err := tree.Insert(leaf)
	require.NoError(t, err)
	i1, err := tree.Insert(leaf)
	require.NoError(t, err)
	assert.NotEqual(t, i0, i1)

	p0, err := tree.GenerateProof(i0)
	require.NoError(t, err)
	p1, err := tree.GenerateProof(i1)
	require.NoError(t, err)
	assert.NotEqual(t, p0.PathIndices, p1.PathIndices)
}

func TestInsertingZeroLeafIsDistinctFromEmpty(t *testing.T) {
	tree := New(10)
	idx, err := tree.Insert(field.Zero())
	require.NoError(t, err)

	proof, err := tree.GenerateProof(idx)
	require.NoError(t, err)
	assert.True(t, VerifyProof(field.Zero(), proof))

	// An empty (never-inserted) neighboring index must still fail lookup.
	_, err = tree.GenerateProof(idx + 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTreeFull(t *testing.T) {
	tree := New(2) // capacity 4
	for i := 0; i < 4; i++ {
		_, err := tree.Insert(field.FromUint64(uint64(i)))
		require.NoError(t, err)
	}
	_, err := tree.Insert(field.FromUint64(99))
	assert.ErrorIs(t, err, ErrTreeFull)
}

func TestHistoryMembershipAndEviction(t *testing.T) {
	tree := NewWithHistory(4, 3)

	var roots []field.Element
	for i := 0; i < 5; i++ {
		_, err := tree.Insert(field.FromUint64(uint64(i)))
		require.NoError(t, err)
		roots = append(roots, tree.Root())
	}

	// Only the last 3 roots should remain known.
	assert.True(t, tree.IsKnownRoot(roots[4]))
	assert.True(t, tree.IsKnownRoot(roots[3]))
	assert.True(t, tree.IsKnownRoot(roots[2]))
	assert.False(t, tree.IsKnownRoot(roots[1]))
	assert.False(t, tree.IsKnownRoot(roots[0]))
}

func TestEachInsertRootIsImmediatelyKnown(t *testing.T) {
	tree := New(8)
	for i := 0; i < 10; i++ {
		_, err := tree.Insert(field.FromUint64(uint64(i)))
		require.NoError(t, err)
		assert.True(t, tree.IsKnownRoot(tree.Root()))
	}
}
