package mmu

// markDirty records every DirtyBlockSize-aligned block touched by
// [addr, addr+size) as dirty. A byte range dirties blocks
// floor(addr/DirtyBlockSize) .. ceil((addr+size)/DirtyBlockSize), exclusive
// of the end: a range ending exactly on a block boundary never dirties the
// following block, and a zero-length range dirties nothing.
//
// It does not validate the range; callers (SetPerms, WriteWithPerms) have
// already done so via CheckPerms/rangeEnd before any byte is mutated.
func (m *Mmu) markDirty(addr VirtAddr, size uint) {
	if size == 0 {
		return
	}

	blockStart := uint(addr) / DirtyBlockSize
	blockEnd := (uint(addr) + size + DirtyBlockSize - 1) / DirtyBlockSize

	for block := blockStart; block < blockEnd; block++ {
		idx := block / 64
		bit := block % 64
		if m.dirtyBitmap[idx]&(1<<bit) == 0 {
			m.dirtyBitmap[idx] |= 1 << bit
			m.dirty = append(m.dirty, block)
		}
	}
}

// DirtyBlocks returns the block indices modified since the last Reset, in
// first-dirtied order. Each block appears at most once. The returned slice
// aliases internal state and must not be retained past the next mutating
// call.
func (m *Mmu) DirtyBlocks() []uint {
	return m.dirty
}

// JITView exposes the raw buffers a JIT-style collaborator needs: direct
// access to memory, permissions, the dirty list and its bitmap, and a way
// to tell the Mmu about dirty entries the collaborator appended itself.
// DirtyBlockSize being a power of two is a hard ABI requirement of this
// contract.
type JITView struct {
	m *Mmu
}

// JITView returns a raw-buffer view over m for use by an external
// collaborator such as a JIT compiler.
func (m *Mmu) JITView() JITView {
	return JITView{m: m}
}

// Memory returns the backing byte arena directly, length m.Size().
func (v JITView) Memory() []byte {
	return v.m.memory
}

// Perms returns the backing permission arena, parallel to Memory.
func (v JITView) Perms() []Perm {
	return v.m.perms
}

// Dirty returns the dirty list's backing array at its full reserved
// capacity. The first DirtyLen() entries are the live block indices; the
// slots after them are free for a collaborator to fill before calling
// SetDirtyLen.
func (v JITView) Dirty() []uint {
	return v.m.dirty[:cap(v.m.dirty)]
}

// DirtyCapacity returns the capacity reserved for the dirty list at
// construction: ceil(size/DirtyBlockSize), so a collaborator appending
// block indices in place never needs to grow it.
func (v JITView) DirtyCapacity() int {
	return cap(v.m.dirty)
}

// DirtyLen returns the current logical length of the dirty list.
func (v JITView) DirtyLen() int {
	return len(v.m.dirty)
}

// SetDirtyLen sets the logical length of the dirty list to n, for use after
// a collaborator has appended block indices (and updated DirtyBitmap)
// directly into the backing array up to DirtyCapacity. n must be in
// [0, DirtyCapacity()].
func (v JITView) SetDirtyLen(n int) {
	v.m.dirty = v.m.dirty[:n]
}

// DirtyBitmap returns the packed dirty bitmap: bit b of word w corresponds
// to block 64*w + b, LSB-first within a word.
func (v JITView) DirtyBitmap() []uint64 {
	return v.m.dirtyBitmap
}
