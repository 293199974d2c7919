package ir

// Dim3 is a 3-dimensional size or id, used for group counts, local
// sizes, and global/local/group invocation ids throughout the
// interpreter.
type Dim3 struct {
	X, Y, Z uint32
}

// Mul returns the component-wise product of d and e.
func (d Dim3) Mul(e Dim3) Dim3 {
	return Dim3{d.X * e.X, d.Y * e.Y, d.Z * e.Z}
}

// Add returns the component-wise sum of d and e.
func (d Dim3) Add(e Dim3) Dim3 {
	return Dim3{d.X + e.X, d.Y + e.Y, d.Z + e.Z}
}

// Total returns X*Y*Z.
func (d Dim3) Total() uint64 { return uint64(d.X) * uint64(d.Y) * uint64(d.Z) }

// Module is an immutable, parsed SPIR-V compute module: every type,
// function, variable, and constant result id the binary declared. It
// is shared by every invocation of every dispatch that uses it; no
// method on Module mutates it after the loader finishes building it.
type Module struct {
	IDBound uint32

	// Version, Generator, and Schema are copied verbatim from the
	// binary's 5-word header, kept only for disassembly output.
	Version   uint32
	Generator uint32
	Schema    uint32

	// FunctionOrder lists function ids in the order OpFunction declared
	// them, since Functions is a map and disassembly needs the original
	// layout.
	FunctionOrder []uint32

	// Objects holds the result value of every constant instruction
	// (OpConstant, OpConstantComposite, OpSpecConstant, ...), indexed by
	// result id. Non-constant ids have a zero Object.
	Objects []Object

	Types     map[uint32]*Type
	Functions map[uint32]*Function

	// EntryPoints maps an entry point name to its function id. Only
	// GLCompute entry points are represented, per this emulator's
	// compute-only scope.
	EntryPoints map[string]uint32

	// LocalSizes maps an entry point function id to its LocalSize
	// execution mode, when one was declared.
	LocalSizes map[uint32]Dim3

	// SpecConstants maps a SpecId decoration value to the result id of
	// the OpSpecConstant* instruction it decorates.
	SpecConstants map[uint32]uint32

	// SpecConstantOps is every OpSpecConstantOp instruction in the
	// module, in declaration order.
	SpecConstantOps []*Instruction

	// Variables is every module-scope variable declaration.
	Variables []*Variable

	// WorkgroupSizeID is the result id of the constant decorated
	// BuiltIn WorkgroupSize, or 0 if none was declared.
	WorkgroupSizeID uint32

	// Names holds OpName-sourced friendly names for disassembly, keyed
	// by result id. Entirely optional: absent ids fall back to their
	// numeric form.
	Names map[uint32]string
}

// NewModule allocates an empty Module with a fixed id bound. Objects
// has exactly idBound entries; callers fill in the exported fields
// directly, and ids are not range-checked on the way in.
func NewModule(idBound uint32) *Module {
	return &Module{
		IDBound:       idBound,
		Objects:       make([]Object, idBound),
		Types:         make(map[uint32]*Type),
		Functions:     make(map[uint32]*Function),
		EntryPoints:   make(map[string]uint32),
		LocalSizes:    make(map[uint32]Dim3),
		SpecConstants: make(map[uint32]uint32),
		Names:         make(map[uint32]string),
	}
}

// EntryPoint returns the function for the named entry point, or nil.
func (m *Module) EntryPoint(name string) *Function {
	id, ok := m.EntryPoints[name]
	if !ok {
		return nil
	}
	return m.Functions[id]
}

// EntryPointName returns the entry point name bound to function id, or
// "" if id is not an entry point.
func (m *Module) EntryPointName(id uint32) string {
	for name, fid := range m.EntryPoints {
		if fid == id {
			return name
		}
	}
	return ""
}

// LocalSize returns the LocalSize execution mode declared for the
// given entry point function id, defaulting to (1,1,1) when none was
// declared.
func (m *Module) LocalSize(entry uint32) Dim3 {
	if d, ok := m.LocalSizes[entry]; ok {
		return d
	}
	return Dim3{1, 1, 1}
}

// Object returns the constant-instruction result bound to id.
func (m *Module) Object(id uint32) Object { return m.Objects[id] }

// Type returns the type declared with the given result id, or nil.
func (m *Module) Type(id uint32) *Type { return m.Types[id] }

// Function returns the function with the given result id, or nil.
func (m *Module) Function(id uint32) *Function { return m.Functions[id] }

// OrderedFunctions returns every function in declaration order, for
// disassembly and other whole-module listings.
func (m *Module) OrderedFunctions() []*Function {
	out := make([]*Function, len(m.FunctionOrder))
	for i, id := range m.FunctionOrder {
		out[i] = m.Functions[id]
	}
	return out
}

// BufferVariables returns every module-scope variable whose storage
// class makes it descriptor-bound (Uniform, StorageBuffer,
// UniformConstant).
func (m *Module) BufferVariables() []*Variable {
	return m.variablesByClass(func(v *Variable) bool { return v.IsBufferVariable() })
}

// InputVariables returns every Input-storage-class variable (the
// built-in invocation/workgroup id inputs).
func (m *Module) InputVariables() []*Variable {
	return m.variablesByClass(func(v *Variable) bool { return v.StorageClass() == SpaceInput })
}

// PrivateVariables returns every Private-storage-class variable.
func (m *Module) PrivateVariables() []*Variable {
	return m.variablesByClass(func(v *Variable) bool { return v.StorageClass() == SpacePrivate })
}

// WorkgroupVariables returns every Workgroup-storage-class variable.
func (m *Module) WorkgroupVariables() []*Variable {
	return m.variablesByClass(func(v *Variable) bool { return v.StorageClass() == SpaceWorkgroup })
}

func (m *Module) variablesByClass(pred func(*Variable) bool) []*Variable {
	var out []*Variable
	for _, v := range m.Variables {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}
