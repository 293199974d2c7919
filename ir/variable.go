package ir

// Decoration is a SPIR-V decoration kind (DescriptorSet, Binding,
// BuiltIn, SpecId, ...). Numeric values live in package spirv; this
// package treats them as an opaque key into Variable's decoration map.
type Decoration uint32

// Variable is a module-scope declaration: an id, a pointer type, an
// optional initializer id, and a decoration map.
type Variable struct {
	ID          uint32
	Type        *Type // always a PointerType
	Initializer uint32
	Decorations map[Decoration]uint32
}

// Decoration returns the data word for a decoration present on this
// variable, and whether it was present at all.
func (v *Variable) Decoration(d Decoration) (uint32, bool) {
	val, ok := v.Decorations[d]
	return val, ok
}

// StorageClass returns the variable's pointer storage class.
func (v *Variable) StorageClass() AddressSpace {
	return v.Type.Kind.(*PointerType).StorageClass
}

// IsBufferVariable reports whether this variable's storage class makes
// it a descriptor-bound buffer variable (Uniform, StorageBuffer, or
// UniformConstant).
func (v *Variable) IsBufferVariable() bool {
	switch v.StorageClass() {
	case SpaceUniform, SpaceStorageBuffer, SpaceUniformConstant:
		return true
	default:
		return false
	}
}

// The AddressSpace values a Variable's storage class can take. These
// mirror SPIR-V's SpvStorageClass enum (package spirv carries the full
// numeric table used by the binary loader); only the subset the
// interpreter must route memory accesses for is named here.
const (
	SpaceUniformConstant AddressSpace = 0
	SpaceInput           AddressSpace = 1
	SpaceUniform         AddressSpace = 2
	SpaceOutput          AddressSpace = 3
	SpaceWorkgroup       AddressSpace = 4
	SpacePrivate         AddressSpace = 6
	SpaceFunction        AddressSpace = 7
	SpaceStorageBuffer   AddressSpace = 12
)
