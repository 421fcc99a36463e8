package mmu

import "encoding/binary"

// IntValue is the set of integer widths the generic little-endian integer
// helpers support: 1, 2, 4 and 8 bytes, signed or unsigned. The 16-byte
// width is handled separately by Uint128; there is no signed 128-bit
// counterpart. This mirrors the
// original source's LeBytes trait (one impl per width via a macro); Go
// generics express the same "type T has a fixed-width little-endian
// encoding" capability without per-type boilerplate.
type IntValue interface {
	uint8 | uint16 | uint32 | uint64 |
		int8 | int16 | int32 | int64
}

// encodeLE writes v's little-endian bytes into a 16-byte scratch buffer and
// returns that buffer together with the number of leading bytes in use,
// matching the original source's fixed 16-byte temporary.
func encodeLE[T IntValue](v T) (buf [16]byte, width int) {
	switch any(v).(type) {
	case uint8, int8:
		buf[0] = byte(v)
		return buf, 1
	case uint16, int16:
		binary.LittleEndian.PutUint16(buf[:2], uint16(v))
		return buf, 2
	case uint32, int32:
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
		return buf, 4
	case uint64, int64:
		binary.LittleEndian.PutUint64(buf[:8], uint64(v))
		return buf, 8
	default:
		panic("mmu: unsupported integer width")
	}
}

func decodeLE[T IntValue](buf [16]byte, width int) T {
	switch width {
	case 1:
		return T(buf[0])
	case 2:
		return T(binary.LittleEndian.Uint16(buf[:2]))
	case 4:
		return T(binary.LittleEndian.Uint32(buf[:4]))
	case 8:
		return T(binary.LittleEndian.Uint64(buf[:8]))
	default:
		panic("mmu: unsupported integer width")
	}
}

func widthOf[T IntValue](v T) int {
	_, width := encodeLE(v)
	return width
}

// WriteInt writes value at addr using WRITE permission, encoding it as
// width(T) little-endian bytes.
func WriteInt[T IntValue](m *Mmu, addr VirtAddr, value T) error {
	return WriteIntWithPerms(m, addr, value, PermWrite)
}

// WriteIntWithPerms writes value at addr, requiring expected permissions.
func WriteIntWithPerms[T IntValue](m *Mmu, addr VirtAddr, value T, expected Perm) error {
	buf, width := encodeLE(value)
	return m.WriteWithPerms(addr, buf[:width], expected)
}

// ReadInt reads a T at addr using READ permission.
//
// If T is wider than the value originally written, the extra high-order
// bytes come from whatever the arena already held at those addresses
// (typically zero in fresh memory), which zero-extends the stored value —
// this is an artifact of reading through a wider lens, not a feature of
// this function.
func ReadInt[T IntValue](m *Mmu, addr VirtAddr) (T, error) {
	return ReadIntWithPerms[T](m, addr, PermRead)
}

// ReadIntWithPerms reads a T at addr, requiring expected permissions.
func ReadIntWithPerms[T IntValue](m *Mmu, addr VirtAddr, expected Perm) (T, error) {
	var zero T
	width := widthOf(zero)
	var buf [16]byte
	if err := m.ReadWithPerms(addr, buf[:width], expected); err != nil {
		return zero, err
	}
	return decodeLE[T](buf, width), nil
}

// PokeInt writes value at addr without any permission check.
func PokeInt[T IntValue](m *Mmu, addr VirtAddr, value T) error {
	buf, width := encodeLE(value)
	return m.Poke(addr, buf[:width])
}

// PeekInt reads a T at addr without any permission check.
func PeekInt[T IntValue](m *Mmu, addr VirtAddr) (T, error) {
	var zero T
	width := widthOf(zero)
	var buf [16]byte
	if err := m.Peek(addr, buf[:width]); err != nil {
		return zero, err
	}
	return decodeLE[T](buf, width), nil
}

// Uint128 is a 128-bit unsigned integer, little-endian word order (Lo holds
// bits 0-63, Hi holds bits 64-127). Go has no native 128-bit integer type,
// so the widest width the original LeBytes trait supports (u128/i128) gets
// its own small type rather than a constraint member — IntValue only
// includes widths with a matching Go built-in kind.
type Uint128 struct {
	Lo, Hi uint64
}

func (v Uint128) bytes() [16]byte {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], v.Lo)
	binary.LittleEndian.PutUint64(buf[8:], v.Hi)
	return buf
}

func uint128FromBytes(buf [16]byte) Uint128 {
	return Uint128{
		Lo: binary.LittleEndian.Uint64(buf[:8]),
		Hi: binary.LittleEndian.Uint64(buf[8:]),
	}
}

// WriteUint128 writes a 128-bit value at addr using WRITE permission.
func WriteUint128(m *Mmu, addr VirtAddr, value Uint128) error {
	return WriteUint128WithPerms(m, addr, value, PermWrite)
}

// WriteUint128WithPerms writes a 128-bit value at addr, requiring expected
// permissions.
func WriteUint128WithPerms(m *Mmu, addr VirtAddr, value Uint128, expected Perm) error {
	buf := value.bytes()
	return m.WriteWithPerms(addr, buf[:], expected)
}

// ReadUint128 reads a 128-bit value at addr using READ permission.
func ReadUint128(m *Mmu, addr VirtAddr) (Uint128, error) {
	return ReadUint128WithPerms(m, addr, PermRead)
}

// ReadUint128WithPerms reads a 128-bit value at addr, requiring expected
// permissions.
func ReadUint128WithPerms(m *Mmu, addr VirtAddr, expected Perm) (Uint128, error) {
	var buf [16]byte
	if err := m.ReadWithPerms(addr, buf[:], expected); err != nil {
		return Uint128{}, err
	}
	return uint128FromBytes(buf), nil
}

// PokeUint128 writes a 128-bit value at addr without any permission check.
func PokeUint128(m *Mmu, addr VirtAddr, value Uint128) error {
	buf := value.bytes()
	return m.Poke(addr, buf[:])
}

// PeekUint128 reads a 128-bit value at addr without any permission check.
func PeekUint128(m *Mmu, addr VirtAddr) (Uint128, error) {
	var buf [16]byte
	if err := m.Peek(addr, buf[:]); err != nil {
		return Uint128{}, err
	}
	return uint128FromBytes(buf), nil
}
