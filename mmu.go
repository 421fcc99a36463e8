// Package mmu implements the emulated memory management unit for a
// user-space RISC-V style instruction-set emulator: a flat byte arena with
// byte-granular permission enforcement, block-granular dirty tracking for
// cheap snapshot-and-restore, and a guard-separated bump allocator.
package mmu

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirtyBlockSize is the granularity, in bytes, at which modifications are
// tracked for Reset. It is a power of two and is part of the external
// contract a JIT-style collaborator relies on (see JITView).
const DirtyBlockSize uint = 1024

// Mmu is an isolated linear address space for a single emulator instance.
// It is not safe for concurrent use: callers must not access the same Mmu
// from more than one goroutine at a time.
type Mmu struct {
	id uuid.UUID

	size uint

	memory []byte
	perms  []Perm

	dirty       []uint
	dirtyBitmap []uint64

	brk VirtAddr

	activeAllocs map[VirtAddr]uint

	sanityChecks bool
	log          *zap.Logger
}

// Option configures an Mmu at construction time.
type Option func(*Mmu)

// WithLogger attaches a structured logger. Construction, fork, reset and
// allocator operations emit Debug-level events through it. A nil logger (the
// default) is equivalent to zap.NewNop().
func WithLogger(log *zap.Logger) Option {
	return func(m *Mmu) {
		if log != nil {
			m.log = log
		}
	}
}

// WithSanityChecks enables extra invariant assertions inside Reset, at the
// cost of the O(size) comparisons they require. Mirrors the original
// source's file-scoped DEBUG_SANITY_CHECKS constant, exposed here as a
// per-instance, test-toggleable option.
func WithSanityChecks(enabled bool) Option {
	return func(m *Mmu) {
		m.sanityChecks = enabled
	}
}

func dirtyBitmapWords(blocks uint) uint {
	return (blocks + 63) / 64
}

// New returns an Mmu with the given capacity in bytes. It panics if size is
// smaller than DirtyBlockSize: an arena that cannot hold a single dirty
// block is a construction-time programming mistake, not a runtime error.
func New(size uint, opts ...Option) *Mmu {
	if size < DirtyBlockSize {
		panic("mmu: size must be at least DirtyBlockSize")
	}

	blocks := (size + DirtyBlockSize - 1) / DirtyBlockSize

	m := &Mmu{
		id:           uuid.New(),
		size:         size,
		memory:       make([]byte, size),
		perms:        make([]Perm, size),
		dirty:        make([]uint, 0, blocks),
		dirtyBitmap:  make([]uint64, dirtyBitmapWords(blocks)),
		brk:          0,
		activeAllocs: make(map[VirtAddr]uint),
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.log.Debug("mmu.new", zap.String("id", m.id.String()), zap.Uint("size", size))
	return m
}

// ID returns the instance's identity, minted once at construction (or, for
// a fork, once at fork time) and stable for the Mmu's lifetime. It exists
// purely to make log lines from different forks of the same donor
// distinguishable.
func (m *Mmu) ID() uuid.UUID {
	return m.id
}

// Size returns the capacity of the arena in bytes.
func (m *Mmu) Size() uint {
	return m.size
}

// Brk returns the current program break: the address at which the next
// allocation will be placed.
func (m *Mmu) Brk() VirtAddr {
	return m.brk
}

// SetBrk sets the program break. Callers typically use this to reset the
// allocator to a known address before a sequence of Malloc calls.
func (m *Mmu) SetBrk(addr VirtAddr) {
	m.brk = addr
}

// Fork returns an independent copy of m: byte-equal memory, permissions,
// program break and active allocations, but with empty dirty state — it is
// a pristine snapshot about to be mutated cheaply, then restored via Reset.
func (m *Mmu) Fork() *Mmu {
	blocks := uint(len(m.dirtyBitmap)) * 64
	clone := &Mmu{
		id:           uuid.New(),
		size:         m.size,
		memory:       make([]byte, len(m.memory)),
		perms:        make([]Perm, len(m.perms)),
		dirty:        make([]uint, 0, cap(m.dirty)),
		dirtyBitmap:  make([]uint64, len(m.dirtyBitmap)),
		brk:          m.brk,
		activeAllocs: make(map[VirtAddr]uint, len(m.activeAllocs)),
		sanityChecks: m.sanityChecks,
		log:          m.log,
	}
	copy(clone.memory, m.memory)
	copy(clone.perms, m.perms)
	for addr, size := range m.activeAllocs {
		clone.activeAllocs[addr] = size
	}

	clone.log.Debug("mmu.fork",
		zap.String("parent", m.id.String()),
		zap.String("child", clone.id.String()),
		zap.Uint("blocks", blocks),
	)
	return clone
}

// Reset restores m's dirtied blocks from donor, then clears m's dirty
// state entirely and adopts donor's program break and active allocations.
// After Reset, m is byte-equal to donor.
//
// donor must share m's arena size and dirty-bitmap length; Reset returns
// ErrIncompatibleDonor rather than silently corrupting state if it does
// not.
func (m *Mmu) Reset(donor *Mmu) error {
	if len(m.memory) != len(donor.memory) || len(m.dirtyBitmap) != len(donor.dirtyBitmap) {
		return ErrIncompatibleDonor
	}

	for _, block := range m.dirty {
		start := block * DirtyBlockSize
		end := start + DirtyBlockSize
		if end > uint(len(m.memory)) {
			end = uint(len(m.memory))
		}

		m.dirtyBitmap[block/64] = 0
		copy(m.memory[start:end], donor.memory[start:end])
		copy(m.perms[start:end], donor.perms[start:end])
	}

	m.dirty = m.dirty[:0]
	m.brk = donor.brk

	for addr := range m.activeAllocs {
		delete(m.activeAllocs, addr)
	}
	for addr, size := range donor.activeAllocs {
		m.activeAllocs[addr] = size
	}

	m.log.Debug("mmu.reset",
		zap.String("receiver", m.id.String()),
		zap.String("donor", donor.id.String()),
	)

	if m.sanityChecks {
		if len(m.dirty) != 0 {
			panic("mmu: sanity check failed: dirty list not empty after reset")
		}
		for _, word := range m.dirtyBitmap {
			if word != 0 {
				panic("mmu: sanity check failed: dirty bitmap not clean after reset")
			}
		}
	}

	return nil
}
