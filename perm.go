package mmu

import "fmt"

// Perm is a permission byte for a single memory location. It is a bitset
// over the four flags below; bits outside this set are preserved, and are
// only tested when a caller includes them in CheckPerms' expected mask
// (a missing one is reported as UnkFault).
type Perm uint8

// Permission bits. Mirrors the encoding an emulator's JIT and instruction
// decoder expect on the wire: EXEC, WRITE, READ and RAW each occupy a fixed
// bit position.
const (
	PermExec  Perm = 1 << 0
	PermWrite Perm = 1 << 1
	PermRead  Perm = 1 << 2
	// PermRAW marks memory as allocated-but-unwritten. A checked write that
	// requires PermWrite clears it and sets PermRead; nothing else clears it.
	PermRAW Perm = 1 << 3
)

// String renders the permission as a three-character RWX string, with '-'
// for an absent flag. RAW is not displayed; it is an internal-only bit.
func (p Perm) String() string {
	buf := [3]byte{'-', '-', '-'}
	if p&PermRead != 0 {
		buf[0] = 'R'
	}
	if p&PermWrite != 0 {
		buf[1] = 'W'
	}
	if p&PermExec != 0 {
		buf[2] = 'X'
	}
	return string(buf[:])
}

// VirtAddr is an index into the linear guest address space. There is no
// paging or translation: a VirtAddr is simply a byte offset into the arena.
type VirtAddr uint

// String renders the address in hexadecimal, as a debugger or fuzzer log
// would expect.
func (a VirtAddr) String() string {
	return fmt.Sprintf("%#x", uint(a))
}
