package ir

import "fmt"

// TypeHandle identifies a Type within a Module's type table. It is the
// numeric SPIR-V result id of the OpType* instruction that declared it.
type TypeHandle uint32

// ScalarKind distinguishes the scalar kinds that can appear as the
// element type of a vector, matrix, array, or pointer.
type ScalarKind uint8

const (
	ScalarBool ScalarKind = iota
	ScalarInt
	ScalarFloat
)

// TypeKind is the closed set of SPIR-V type shapes this interpreter
// understands. Image, sampler, and atomic shapes are not modeled.
type TypeKind interface {
	typeKind() string
}

// Type is a tagged variant over the SPIR-V type shapes. It is immutable
// once constructed: every size, stride, and offset is computed by the
// matching factory function at construction time, never recomputed.
type Type struct {
	Kind TypeKind

	// Size is the byte size of this type. It is zero for Void, Function,
	// and RuntimeArray.
	Size uint32
}

func (t *Type) String() string {
	return fmt.Sprintf("%v", t.Kind)
}

// IsComposite reports whether t is an Array, Struct, Vector, or Matrix.
func (t *Type) IsComposite() bool {
	switch t.Kind.(type) {
	case *ArrayType, *StructType, *VectorType, *MatrixType:
		return true
	}
	return false
}

// IsScalar reports whether t is Bool, Int, Float, or Pointer — the
// types valid as Object.Get/Set lane values.
func (t *Type) IsScalar() bool {
	switch t.Kind.(type) {
	case *VoidType:
		return false
	case *BoolType, *IntType, *FloatType, *PointerType:
		return true
	}
	return false
}

// ScalarType returns the element type for a vector, or t itself for any
// other scalar type. t must be a vector or scalar type.
func (t *Type) ScalarType() *Type {
	if v, ok := t.Kind.(*VectorType); ok {
		return v.Elem
	}
	return t
}

// ElementCount returns the number of elements in an array, struct,
// vector, or matrix type, and 1 for any scalar type.
func (t *Type) ElementCount() uint32 {
	switch k := t.Kind.(type) {
	case *VectorType:
		return k.Count
	case *MatrixType:
		return k.Columns
	case *ArrayType:
		return k.Count
	case *StructType:
		return uint32(len(k.Members))
	default:
		return 1
	}
}

// ElementOffset returns the byte offset of the element at index i.
// Valid for Array, Pointer, RuntimeArray, Struct, and Vector/Matrix
// types; it panics for any other type.
func (t *Type) ElementOffset(i uint64) uint64 {
	switch k := t.Kind.(type) {
	case *StructType:
		return uint64(k.Members[i].Offset)
	case *VectorType:
		return uint64(k.Elem.Size) * i
	case *MatrixType:
		return uint64(k.Column.Size) * i
	case *ArrayType:
		return uint64(k.Stride) * i
	case *RuntimeArrayType:
		return uint64(k.Stride) * i
	case *PointerType:
		return uint64(k.Stride) * i
	default:
		panic(fmt.Sprintf("ir: ElementOffset on non-aggregate type %T", t.Kind))
	}
}

// ElementType returns the type of the element at index i. For every
// kind but Struct the index is ignored.
func (t *Type) ElementType(i uint64) *Type {
	switch k := t.Kind.(type) {
	case *StructType:
		return k.Members[i].Type
	case *VectorType:
		return k.Elem
	case *MatrixType:
		return k.Column
	case *ArrayType:
		return k.Elem
	case *RuntimeArrayType:
		return k.Elem
	case *PointerType:
		return k.Elem
	default:
		panic(fmt.Sprintf("ir: ElementType on non-aggregate type %T", t.Kind))
	}
}

// VoidType is the SPIR-V OpTypeVoid shape.
type VoidType struct{}

func (*VoidType) typeKind() string { return "void" }

// BoolType is the SPIR-V OpTypeBool shape.
type BoolType struct{}

func (*BoolType) typeKind() string { return "bool" }

// IntType is the SPIR-V OpTypeInt shape. Width is 16, 32, or 64.
type IntType struct {
	Width  uint32
	Signed bool
}

func (*IntType) typeKind() string { return "int" }

// FloatType is the SPIR-V OpTypeFloat shape. Width is 32 or 64.
type FloatType struct {
	Width uint32
}

func (*FloatType) typeKind() string { return "float" }

// VectorType is the SPIR-V OpTypeVector shape. Elem must be scalar.
type VectorType struct {
	Elem  *Type
	Count uint32
}

func (*VectorType) typeKind() string { return "vector" }

// MatrixType is the SPIR-V OpTypeMatrix shape: Columns column vectors
// of type Column.
type MatrixType struct {
	Column  *Type
	Columns uint32
}

func (*MatrixType) typeKind() string { return "matrix" }

// ArrayType is the SPIR-V OpTypeArray shape with a compile-time-known
// element count.
type ArrayType struct {
	Elem   *Type
	Count  uint32
	Stride uint32 // ArrayStride decoration; Stride >= Elem.Size
}

func (*ArrayType) typeKind() string { return "array" }

// RuntimeArrayType is the SPIR-V OpTypeRuntimeArray shape: an array
// whose length is determined at runtime by the bound buffer.
type RuntimeArrayType struct {
	Elem   *Type
	Stride uint32
}

func (*RuntimeArrayType) typeKind() string { return "runtime_array" }

// StructMember is one member of a StructType: its type, its byte
// offset (from the Offset decoration, or computed sequentially if
// absent), and any member-scope decorations (e.g. MatrixStride,
// ColMajor/RowMajor) needed to size a nested matrix correctly.
type StructMember struct {
	Type       *Type
	Offset     uint32
	MatrixDecs StructMatrixLayout
}

// StructMatrixLayout captures the ColMajor/RowMajor + MatrixStride
// decorations that apply to a matrix-typed struct member, used only to
// compute that member's contribution to the enclosing struct's size.
type StructMatrixLayout struct {
	Present  bool
	ColMajor bool
	Stride   uint32
}

// StructType is the SPIR-V OpTypeStruct shape. Member offsets are
// monotone non-decreasing.
type StructType struct {
	Members []StructMember
}

func (*StructType) typeKind() string { return "struct" }

// AddressSpace is the SPIR-V storage class restricted to the subset a
// pointer type can name (full StorageClass enum lives in package
// spirv; this is the type-system-local view of it).
type AddressSpace uint32

// PointerType is the SPIR-V OpTypePointer shape.
type PointerType struct {
	StorageClass AddressSpace
	Elem         *Type
	Stride       uint32 // array-stride of the pointee, for PtrAccessChain
}

func (*PointerType) typeKind() string { return "pointer" }

// FunctionType is the SPIR-V OpTypeFunction shape.
type FunctionType struct {
	Return *Type
	Params []*Type
}

func (*FunctionType) typeKind() string { return "function" }

// NewVoid returns the canonical zero-size Void type.
func NewVoid() *Type { return &Type{Kind: &VoidType{}, Size: 0} }

// NewBool returns the canonical 1-byte Bool type.
func NewBool() *Type { return &Type{Kind: &BoolType{}, Size: 1} }

// NewInt returns an integer type of the given bit width (16, 32, 64).
func NewInt(width uint32, signed bool) *Type {
	return &Type{Kind: &IntType{Width: width, Signed: signed}, Size: width / 8}
}

// NewFloat returns a floating point type of the given bit width (32, 64).
func NewFloat(width uint32) *Type {
	return &Type{Kind: &FloatType{Width: width}, Size: width / 8}
}

// NewVector returns a vector of count elements of type elem. elem must
// be scalar.
func NewVector(elem *Type, count uint32) *Type {
	if !elem.IsScalar() {
		panic("ir: NewVector element type must be scalar")
	}
	return &Type{Kind: &VectorType{Elem: elem, Count: count}, Size: elem.Size * count}
}

// NewMatrix returns a matrix of the given number of columns, each a
// vector of type column.
func NewMatrix(column *Type, columns uint32) *Type {
	return &Type{Kind: &MatrixType{Column: column, Columns: columns}, Size: column.Size * columns}
}

// NewArray returns a fixed-length array. stride must be >= elem.Size.
func NewArray(elem *Type, count, stride uint32) *Type {
	if stride < elem.Size {
		panic("ir: NewArray stride smaller than element size")
	}
	return &Type{Kind: &ArrayType{Elem: elem, Count: count, Stride: stride}, Size: count * stride}
}

// NewRuntimeArray returns an array whose length is unknown until bound
// to a buffer. Its Size is 0.
func NewRuntimeArray(elem *Type, stride uint32) *Type {
	if stride < elem.Size {
		panic("ir: NewRuntimeArray stride smaller than element size")
	}
	return &Type{Kind: &RuntimeArrayType{Elem: elem, Stride: stride}, Size: 0}
}

// NewPointer returns a pointer type. stride must be >= elem.Size and is
// used by PtrAccessChain to scale its first index.
func NewPointer(class AddressSpace, elem *Type, stride uint32) *Type {
	if stride < elem.Size {
		panic("ir: NewPointer stride smaller than pointee size")
	}
	return &Type{Kind: &PointerType{StorageClass: class, Elem: elem, Stride: stride}, Size: 8}
}

// NewFunction returns a function type.
func NewFunction(ret *Type, params []*Type) *Type {
	return &Type{Kind: &FunctionType{Return: ret, Params: params}, Size: 0}
}

// NewStruct builds a struct type from its members. Offsets already
// present (non-zero MatrixDecs aside) are taken as given; any member
// without an explicit Offset decoration is packed sequentially after
// the previous member. A matrix member with an explicit MatrixStride
// decoration sizes itself by stride*rows-or-columns rather than by its
// own nominal Size.
func NewStruct(members []StructMember) *Type {
	cur := uint64(0)
	for i := range members {
		m := &members[i]
		if m.Offset == 0 && i > 0 {
			m.Offset = uint32(cur)
		}
		var memberEnd uint64
		if mt, ok := m.Type.Kind.(*MatrixType); ok && m.MatrixDecs.Present {
			var size uint64
			if m.MatrixDecs.ColMajor {
				size = uint64(mt.Columns) * uint64(m.MatrixDecs.Stride)
			} else {
				size = uint64(mt.Column.ElementCount()) * uint64(m.MatrixDecs.Stride)
			}
			memberEnd = uint64(m.Offset) + size
		} else {
			memberEnd = uint64(m.Offset) + uint64(m.Type.Size)
		}
		cur = memberEnd
	}
	return &Type{Kind: &StructType{Members: members}, Size: uint32(cur)}
}
