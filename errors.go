package mmu

import (
	"errors"
	"fmt"
)

// Kind identifies which fault an Error represents. It is a closed taxonomy,
// not a wrapped source error.
type Kind int

const (
	// KindInvalidAddress means the range would exit the arena.
	KindInvalidAddress Kind = iota
	// KindAddressIntegerOverflow means addr+size overflowed the address word.
	KindAddressIntegerOverflow
	// KindReadFault means the range lacked READ when READ was required.
	KindReadFault
	// KindWriteFault means the range lacked WRITE when WRITE was required.
	KindWriteFault
	// KindExecFault means the range lacked EXEC when EXEC was required.
	KindExecFault
	// KindUninitFault means READ was required but a byte still carries RAW.
	KindUninitFault
	// KindUnkFault means required flags were unsatisfied for a reason none
	// of the above covers; it carries the expected and observed bytes.
	KindUnkFault
	// KindInvalidFree means Free was called on an address with no live
	// allocation (covers both "never allocated" and "double free").
	KindInvalidFree
)

func (k Kind) String() string {
	switch k {
	case KindInvalidAddress:
		return "invalid address"
	case KindAddressIntegerOverflow:
		return "address integer overflow"
	case KindReadFault:
		return "read fault"
	case KindWriteFault:
		return "write fault"
	case KindExecFault:
		return "exec fault"
	case KindUninitFault:
		return "uninit fault"
	case KindUnkFault:
		return "unknown fault"
	case KindInvalidFree:
		return "invalid free"
	default:
		return "unknown kind"
	}
}

// Error is the single error type every fallible operation in this package
// returns. It carries enough of the offending range for diagnostics without
// requiring the caller to reconstruct it.
type Error struct {
	Kind Kind
	Addr VirtAddr
	Size uint

	// Expected and Observed are only meaningful for KindUnkFault.
	Expected Perm
	Observed Perm
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnkFault:
		return fmt.Sprintf("%s: addr=%s size=%d expected=%s observed=%s",
			e.Kind, e.Addr, e.Size, e.Expected, e.Observed)
	case KindInvalidFree:
		return fmt.Sprintf("%s: addr=%s", e.Kind, e.Addr)
	default:
		return fmt.Sprintf("%s: addr=%s size=%d", e.Kind, e.Addr, e.Size)
	}
}

// Is allows errors.Is(err, ErrInvalidFree) and friends to match by Kind,
// without requiring field-for-field equality.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrInvalidAddress         = &Error{Kind: KindInvalidAddress}
	ErrAddressIntegerOverflow = &Error{Kind: KindAddressIntegerOverflow}
	ErrReadFault              = &Error{Kind: KindReadFault}
	ErrWriteFault             = &Error{Kind: KindWriteFault}
	ErrExecFault              = &Error{Kind: KindExecFault}
	ErrUninitFault            = &Error{Kind: KindUninitFault}
	ErrUnkFault               = &Error{Kind: KindUnkFault}
	ErrInvalidFree            = &Error{Kind: KindInvalidFree}
)

// ErrIncompatibleDonor is returned by Reset when the receiver and donor do
// not share the same arena size and dirty-bitmap length, rather than
// relying on callers to only ever reset against a true Fork donor.
var ErrIncompatibleDonor = errors.New("mmu: reset donor is not compatible with receiver")

func invalidAddress(addr VirtAddr, size uint) *Error {
	return &Error{Kind: KindInvalidAddress, Addr: addr, Size: size}
}

func addressOverflow(addr VirtAddr, size uint) *Error {
	return &Error{Kind: KindAddressIntegerOverflow, Addr: addr, Size: size}
}

func invalidFree(addr VirtAddr) *Error {
	return &Error{Kind: KindInvalidFree, Addr: addr}
}
