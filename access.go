package mmu

// rangeEnd validates that [addr, addr+size) is a well-formed, in-bounds
// range and returns its end offset. It is the single place that detects
// address overflow and out-of-bounds ranges, ahead of any permission or
// byte check.
func (m *Mmu) rangeEnd(addr VirtAddr, size uint) (uint, error) {
	end := uint(addr) + size
	if end < uint(addr) {
		return 0, addressOverflow(addr, size)
	}
	if end > uint(len(m.memory)) {
		return 0, invalidAddress(addr, size)
	}
	return end, nil
}

// CheckPerms inspects the size bytes starting at addr and fails fast with
// the first violation encountered: a RAW byte under a READ requirement is
// always reported as UninitFault, ahead of the generic permission-subset
// check.
func (m *Mmu) CheckPerms(addr VirtAddr, size uint, expected Perm) error {
	end, err := m.rangeEnd(addr, size)
	if err != nil {
		return err
	}

	for _, p := range m.perms[addr:end] {
		if expected&PermRead != 0 && p&PermRAW != 0 {
			return &Error{Kind: KindUninitFault, Addr: addr, Size: size}
		}
		if p&expected != expected {
			switch {
			case expected&PermRead != 0:
				return &Error{Kind: KindReadFault, Addr: addr, Size: size}
			case expected&PermWrite != 0:
				return &Error{Kind: KindWriteFault, Addr: addr, Size: size}
			case expected&PermExec != 0:
				return &Error{Kind: KindExecFault, Addr: addr, Size: size}
			default:
				return &Error{Kind: KindUnkFault, Addr: addr, Size: size, Expected: expected, Observed: p}
			}
		}
	}
	return nil
}

// Perms returns a copy of the permission bytes for [addr, addr+size). It is
// a pure query: it never checks the returned permissions against any
// expectation and never touches dirty state.
func (m *Mmu) Perms(addr VirtAddr, size uint) ([]Perm, error) {
	end, err := m.rangeEnd(addr, size)
	if err != nil {
		return nil, err
	}
	out := make([]Perm, size)
	copy(out, m.perms[addr:end])
	return out, nil
}

// SetPerms assigns perm to every byte in [addr, addr+size) and always
// dirties the range. Apart from the RAW-to-READ promotion done by a checked
// write (see WriteWithPerms), it is the only operation that changes
// permissions.
func (m *Mmu) SetPerms(addr VirtAddr, size uint, perm Perm) error {
	end, err := m.rangeEnd(addr, size)
	if err != nil {
		return err
	}
	for i := addr; uint(i) < end; i++ {
		m.perms[i] = perm
	}
	m.markDirty(addr, size)
	return nil
}

// Write copies src to addr, requiring WRITE permission. Equivalent to
// WriteWithPerms(addr, src, PermWrite).
func (m *Mmu) Write(addr VirtAddr, src []byte) error {
	return m.WriteWithPerms(addr, src, PermWrite)
}

// Read copies len(dst) bytes from addr into dst, requiring READ permission.
// Equivalent to ReadWithPerms(addr, dst, PermRead).
func (m *Mmu) Read(addr VirtAddr, dst []byte) error {
	return m.ReadWithPerms(addr, dst, PermRead)
}

// Poke writes src to addr without any permission check. It still dirties
// the touched range: a byte altered is a byte that must be restorable on
// Reset, regardless of how it was altered.
func (m *Mmu) Poke(addr VirtAddr, src []byte) error {
	return m.WriteWithPerms(addr, src, 0)
}

// Peek reads len(dst) bytes from addr into dst without any permission
// check.
func (m *Mmu) Peek(addr VirtAddr, dst []byte) error {
	return m.ReadWithPerms(addr, dst, 0)
}

// WriteWithPerms checks [addr, addr+len(src)) against expected, copies src
// into memory, then — only if expected includes WRITE — clears RAW and
// sets READ on every byte in the range that still carries RAW. This is the
// sole mechanism by which RAW is cleared; Poke (expected == 0) never clears
// it, by construction.
func (m *Mmu) WriteWithPerms(addr VirtAddr, src []byte, expected Perm) error {
	size := uint(len(src))
	if err := m.CheckPerms(addr, size, expected); err != nil {
		return err
	}

	end := uint(addr) + size
	copy(m.memory[addr:end], src)

	if expected&PermWrite != 0 {
		for i := addr; uint(i) < end; i++ {
			if m.perms[i]&PermRAW != 0 {
				m.perms[i] = (m.perms[i] | PermRead) &^ PermRAW
			}
		}
	}

	m.markDirty(addr, size)
	return nil
}

// ReadWithPerms checks [addr, addr+len(dst)) against expected and copies
// memory into dst. It never mutates Mmu state.
func (m *Mmu) ReadWithPerms(addr VirtAddr, dst []byte, expected Perm) error {
	size := uint(len(dst))
	if err := m.CheckPerms(addr, size, expected); err != nil {
		return err
	}
	end := uint(addr) + size
	copy(dst, m.memory[addr:end])
	return nil
}
