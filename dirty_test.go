package mmu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetOneBlock(t *testing.T) {
	donor := New(1024 * DirtyBlockSize)
	fork := donor.Fork()

	require.NoError(t, fork.SetPerms(VirtAddr(DirtyBlockSize+4), 4, PermWrite))
	require.NoError(t, fork.Write(VirtAddr(DirtyBlockSize+4), []byte{1, 2, 3, 4}))

	got := make([]byte, 4)
	require.NoError(t, fork.Peek(VirtAddr(DirtyBlockSize+4), got))
	require.Equal(t, []byte{1, 2, 3, 4}, got)

	require.NoError(t, fork.Reset(donor))

	require.NoError(t, fork.Peek(VirtAddr(DirtyBlockSize+4), got))
	require.Equal(t, []byte{0, 0, 0, 0}, got)
}

func TestResetTwoBlocks(t *testing.T) {
	donor := New(1024 * DirtyBlockSize)
	fork := donor.Fork()

	addr := VirtAddr(DirtyBlockSize - 2)
	require.NoError(t, fork.SetPerms(addr, 4, PermWrite))
	require.NoError(t, fork.Write(addr, []byte{1, 2, 3, 4}))

	got := make([]byte, 4)
	require.NoError(t, fork.Peek(addr, got))
	require.Equal(t, []byte{1, 2, 3, 4}, got)
	require.Len(t, fork.DirtyBlocks(), 2)

	require.NoError(t, fork.Reset(donor))

	require.NoError(t, fork.Peek(addr, got))
	require.Equal(t, []byte{0, 0, 0, 0}, got)
}

func TestResetOnlyDirtiedBlock(t *testing.T) {
	m := New(1024 * DirtyBlockSize)
	require.NoError(t, m.Poke(VirtAddr(DirtyBlockSize-2), []byte{1, 2}))

	fork := m.Fork()
	require.NoError(t, fork.Poke(VirtAddr(DirtyBlockSize), []byte{3, 4}))

	got := make([]byte, 4)
	require.NoError(t, fork.Peek(VirtAddr(DirtyBlockSize-2), got))
	require.Equal(t, []byte{1, 2, 3, 4}, got)

	require.NoError(t, fork.Reset(m))

	require.NoError(t, fork.Peek(VirtAddr(DirtyBlockSize-2), got))
	require.Equal(t, []byte{1, 2, 0, 0}, got)
}

func TestResetAll(t *testing.T) {
	donor := New(1024 * DirtyBlockSize)
	fork := donor.Fork()

	require.NoError(t, fork.SetPerms(0, 1024*DirtyBlockSize, PermWrite|PermRAW))
	require.NoError(t, fork.Write(VirtAddr(DirtyBlockSize+4), []byte{1, 2, 3, 4}))

	got := make([]byte, 4)
	require.NoError(t, fork.Read(VirtAddr(DirtyBlockSize+4), got))
	require.Equal(t, []byte{1, 2, 3, 4}, got)

	require.NoError(t, fork.Reset(donor))

	require.NoError(t, fork.Peek(4, got))
	require.Equal(t, []byte{0, 0, 0, 0}, got)
}

func TestDirtyMonotonicityAndDedup(t *testing.T) {
	m := New(1024 * DirtyBlockSize)

	require.NoError(t, m.Poke(0, []byte{1}))
	require.Len(t, m.DirtyBlocks(), 1)

	require.NoError(t, m.Poke(1, []byte{2}))
	require.Len(t, m.DirtyBlocks(), 1, "same block written twice must not duplicate")

	require.NoError(t, m.Poke(VirtAddr(DirtyBlockSize), []byte{3}))
	require.Len(t, m.DirtyBlocks(), 2)
}

func TestDirtyBlockBoundary(t *testing.T) {
	m := New(2 * DirtyBlockSize)
	require.NoError(t, m.Poke(VirtAddr(DirtyBlockSize-4), []byte{1, 2, 3, 4}))
	require.Len(t, m.DirtyBlocks(), 1, "a range ending exactly on a block boundary must not dirty the next block")
}

func TestZeroLengthRangeDirtiesNothing(t *testing.T) {
	m := New(DirtyBlockSize)
	require.NoError(t, m.Poke(0, nil))
	require.Empty(t, m.DirtyBlocks())
}

func TestJITViewContract(t *testing.T) {
	m := New(2 * DirtyBlockSize)
	view := m.JITView()

	require.Equal(t, int(m.Size()), len(view.Memory()))
	require.Equal(t, int(m.Size()), len(view.Perms()))
	require.Equal(t, 2, view.DirtyCapacity())
	require.Equal(t, 0, view.DirtyLen())

	// A collaborator appends a block index and the matching bitmap bit
	// directly into the backing arrays, up to the reserved capacity, then
	// tells the Mmu the new logical length.
	dirty := m.dirty[:1:cap(m.dirty)]
	dirty[0] = 0
	view.DirtyBitmap()[0] |= 1
	view.SetDirtyLen(1)

	require.Equal(t, 1, view.DirtyLen())
	require.Equal(t, []uint{0}, m.DirtyBlocks())
}
