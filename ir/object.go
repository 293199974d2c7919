package ir

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Memory is the subset of the memory subsystem's API that Object needs
// for Load/Store. It is satisfied by *memory.Memory; declared here
// (rather than imported) to avoid a dependency cycle, since package
// memory has no need to know about Object.
type Memory interface {
	Load(dst []byte, addr uint64)
	Store(addr uint64, src []byte)
}

// Object is a (Type, byte slice) pair: the value produced by one
// instruction result. Objects are value types from the caller's
// perspective — Clone deep-copies the backing bytes — but the backing
// slice itself is never aliased without an explicit Clone.
type Object struct {
	Type *Type
	Data []byte

	// Layout carries a matrix row/col-major + stride hint, set only on
	// pointer Objects that address a matrix or vector with an explicit
	// layout decoration. Its zero value means "not applicable".
	Layout MatrixLayout
}

// Zero allocates a zeroed Object of the given type.
func Zero(ty *Type) Object {
	return Object{Type: ty, Data: make([]byte, ty.Size)}
}

// FromBytes allocates an Object of the given type, copying its initial
// contents from data. len(data) must equal ty.Size.
func FromBytes(ty *Type, data []byte) Object {
	o := Zero(ty)
	copy(o.Data, data)
	return o
}

// Valid reports whether this Object has been allocated. An Object's
// zero value (e.g. an unresolved descriptor binding) is invalid.
func (o Object) Valid() bool { return o.Data != nil }

// Clone deep-copies the backing bytes.
func (o Object) Clone() Object {
	if !o.Valid() {
		return Object{}
	}
	d := make([]byte, len(o.Data))
	copy(d, o.Data)
	return Object{Type: o.Type, Data: d}
}

// Zeroed sets every byte of this Object to zero in place.
func (o Object) Zeroed() {
	for i := range o.Data {
		o.Data[i] = 0
	}
}

// GetUint64 returns the lane-th scalar component as a zero-extended
// uint64 (GetInt64 sign-extends), valid for any integer, bool, or pointer scalar (or
// vector) type — the interpreter's index/address arithmetic only ever
// needs the bit pattern widened to 64 bits.
func (o Object) GetUint64(lane int) uint64 {
	ty := o.Type.ScalarType()
	sz := int(ty.Size)
	off := lane * sz
	switch sz {
	case 1:
		return uint64(o.Data[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(o.Data[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(o.Data[off:]))
	case 8:
		return binary.LittleEndian.Uint64(o.Data[off:])
	default:
		panic(fmt.Sprintf("ir: GetUint64 on %d-byte scalar", sz))
	}
}

// GetInt64 returns the lane-th component sign-extended from its
// integer width.
func (o Object) GetInt64(lane int) int64 {
	ty := o.Type.ScalarType()
	it, ok := ty.Kind.(*IntType)
	if !ok {
		panic("ir: GetInt64 on non-integer type")
	}
	u := o.GetUint64(lane)
	switch it.Width {
	case 16:
		return int64(int16(u))
	case 32:
		return int64(int32(u))
	case 64:
		return int64(u)
	default:
		panic(fmt.Sprintf("ir: GetInt64 on %d-bit integer", it.Width))
	}
}

// SetUint64 writes v, truncated to the lane's scalar width, into lane.
func (o Object) SetUint64(lane int, v uint64) {
	ty := o.Type.ScalarType()
	sz := int(ty.Size)
	off := lane * sz
	switch sz {
	case 1:
		o.Data[off] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(o.Data[off:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(o.Data[off:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(o.Data[off:], v)
	default:
		panic(fmt.Sprintf("ir: SetUint64 on %d-byte scalar", sz))
	}
}

// GetFloat64 returns the lane-th component as a float64, valid for
// Float32 or Float64 scalar/vector types.
func (o Object) GetFloat64(lane int) float64 {
	ty := o.Type.ScalarType()
	ft, ok := ty.Kind.(*FloatType)
	if !ok {
		panic("ir: GetFloat64 on non-float type")
	}
	off := lane * int(ty.Size)
	switch ft.Width {
	case 32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(o.Data[off:])))
	case 64:
		return math.Float64frombits(binary.LittleEndian.Uint64(o.Data[off:]))
	default:
		panic(fmt.Sprintf("ir: GetFloat64 on %d-bit float", ft.Width))
	}
}

// SetFloat64 writes v, narrowed to the lane's float width, into lane.
func (o Object) SetFloat64(lane int, v float64) {
	ty := o.Type.ScalarType()
	ft, ok := ty.Kind.(*FloatType)
	if !ok {
		panic("ir: SetFloat64 on non-float type")
	}
	off := lane * int(ty.Size)
	switch ft.Width {
	case 32:
		binary.LittleEndian.PutUint32(o.Data[off:], math.Float32bits(float32(v)))
	case 64:
		binary.LittleEndian.PutUint64(o.Data[off:], math.Float64bits(v))
	default:
		panic(fmt.Sprintf("ir: SetFloat64 on %d-bit float", ft.Width))
	}
}

// Extract walks an index path through a composite Object, accumulating
// byte offsets via Type.ElementOffset and narrowing the type via
// Type.ElementType, and returns a fresh copy of the addressed
// sub-object.
func (o Object) Extract(indices []uint32) Object {
	ty := o.Type
	offset := uint64(0)
	for _, idx := range indices {
		offset += ty.ElementOffset(uint64(idx))
		ty = ty.ElementType(uint64(idx))
	}
	return FromBytes(ty, o.Data[offset:offset+uint64(ty.Size)])
}

// Insert overwrites the sub-region addressed by indices with elem's
// bytes, in place. elem.Type must equal the addressed sub-type.
func (o Object) Insert(indices []uint32, elem Object) {
	ty := o.Type
	offset := uint64(0)
	for _, idx := range indices {
		offset += ty.ElementOffset(uint64(idx))
		ty = ty.ElementType(uint64(idx))
	}
	copy(o.Data[offset:offset+uint64(ty.Size)], elem.Data)
}

// Load allocates an Object of type ty and fills it from mem at addr.
func Load(ty *Type, mem Memory, addr uint64) Object {
	o := Zero(ty)
	mem.Load(o.Data, addr)
	return o
}

// Store writes this Object's bytes to mem at addr.
func (o Object) Store(mem Memory, addr uint64) {
	mem.Store(addr, o.Data)
}

// MatrixLayout records the ColMajor/RowMajor + stride decorations
// carried by a pointer Object that addresses a matrix or vector, used
// only to interpret later column/row accesses. A zero value means "not
// applicable" — most pointers never set this.
type MatrixLayout struct {
	ColMajor bool
	Stride   uint32
}

// Present reports whether this layout has actually been set; a zero
// Stride means unset.
func (m MatrixLayout) Present() bool { return m.Stride != 0 }
