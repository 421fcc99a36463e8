package mmu

import "go.uber.org/zap"

// guardPad is added to every requested size before the total is rounded
// down to a 16-byte boundary: (size + guardPad) &^ 0xf leaves 0xff0 to 0xfff
// bytes of zero-permission slack (just under 4 KiB) between the end of the
// requested bytes and the start of the next allocation, and keeps the total
// a multiple of 16.
const guardPad = 0xfff

// Malloc bump-allocates size bytes at the current program break and
// returns the base address. If raw is true, the region is left
// unreadable-until-written (PermRAW) so that reads of never-written bytes
// fault as UninitFault; otherwise it is immediately readable and writable.
//
// The allocator is intentionally non-coalescing and non-reusing: freed
// space is only reclaimed by Reset. This optimizes for a fuzz loop that
// forks a clean donor, runs a short mutation, and resets, rather than for
// general-purpose long-lived allocation reuse.
func (m *Mmu) Malloc(size uint, raw bool) (VirtAddr, error) {
	alignedSize, err := paddedSize(size)
	if err != nil {
		return 0, &Error{Kind: KindAddressIntegerOverflow, Addr: m.brk, Size: size}
	}

	base := m.brk

	if err := m.SetPerms(base, alignedSize, 0); err != nil {
		return 0, err
	}

	perm := Perm(PermWrite | PermRead)
	if raw {
		perm = Perm(PermWrite | PermRAW)
	}
	if err := m.SetPerms(base, size, perm); err != nil {
		return 0, err
	}

	m.activeAllocs[base] = size
	m.brk += VirtAddr(alignedSize)

	m.log.Debug("mmu.malloc",
		zap.String("mmu", m.id.String()),
		zap.Stringer("addr", base),
		zap.Uint("size", size),
		zap.Bool("raw", raw),
	)
	return base, nil
}

// paddedSize applies the (size + 0xfff) &^ 0xf formula: 0xff0 to 0xfff
// bytes of guard slack past the requested bytes, with the total a multiple
// of 16.
// Overflow in the addition is reported as AddressIntegerOverflow.
func paddedSize(size uint) (uint, error) {
	padded := size + guardPad
	if padded < size {
		return 0, &Error{Kind: KindAddressIntegerOverflow, Size: size}
	}
	return padded &^ 0xf, nil
}

// Free removes addr from the set of live allocations and zeroes its
// permissions, turning any subsequent access into a fault — this is the
// use-after-free detector. Free on an address with no live allocation
// fails with InvalidFree, whether the address was never allocated or was
// already freed (double free).
func (m *Mmu) Free(addr VirtAddr) error {
	size, ok := m.activeAllocs[addr]
	if !ok {
		return invalidFree(addr)
	}
	delete(m.activeAllocs, addr)

	if err := m.SetPerms(addr, size, 0); err != nil {
		return err
	}

	m.log.Debug("mmu.free", zap.String("mmu", m.id.String()), zap.Stringer("addr", addr), zap.Uint("size", size))
	return nil
}

// AllocSize returns the size of the live allocation based at addr, and
// whether one exists.
func (m *Mmu) AllocSize(addr VirtAddr) (uint, bool) {
	size, ok := m.activeAllocs[addr]
	return size, ok
}
