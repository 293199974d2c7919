// Package spirv decodes SPIR-V compute shader binaries into an
// *ir.Module. It owns the numeric SPIR-V constant tables the loader and
// disassembler need; package ir re-declares only the few opcode,
// decoration, and storage-class values it inspects itself.
package spirv

import "github.com/gogpu/talvos/ir"

// MagicNumber is the first word of every SPIR-V binary module.
const MagicNumber = 0x07230203

// GeneratorID is the word this loader accepts as the module's
// generator's magic number; the loader does not reject unrecognized
// generators, it only surfaces the value for diagnostics.
const GeneratorID = 0

// Opcode is an alias for ir.Opcode so the constants below can be used
// directly as ir.Instruction.Opcode values, without a conversion at
// every call site in the loader.
type Opcode = ir.Opcode

// Opcodes. Numeric values are fixed by the SPIR-V specification.
const (
	OpNop                    Opcode = 0
	OpSource                 Opcode = 3
	OpSourceExtension        Opcode = 4
	OpName                   Opcode = 5
	OpMemberName             Opcode = 6
	OpString                 Opcode = 7
	OpLine                   Opcode = 8
	OpExtension              Opcode = 10
	OpExtInstImport          Opcode = 11
	OpExtInst                Opcode = 12
	OpMemoryModel            Opcode = 14
	OpEntryPoint             Opcode = 15
	OpExecutionMode          Opcode = 16
	OpCapability             Opcode = 17
	OpTypeVoid               Opcode = 19
	OpTypeBool               Opcode = 20
	OpTypeInt                Opcode = 21
	OpTypeFloat              Opcode = 22
	OpTypeVector             Opcode = 23
	OpTypeMatrix             Opcode = 24
	OpTypeArray              Opcode = 28
	OpTypeRuntimeArray       Opcode = 29
	OpTypeStruct             Opcode = 30
	OpTypePointer            Opcode = 32
	OpTypeFunction           Opcode = 33
	OpConstantTrue           Opcode = 41
	OpConstantFalse          Opcode = 42
	OpConstant               Opcode = 43
	OpConstantComposite      Opcode = 44
	OpConstantNull           Opcode = 46
	OpSpecConstantTrue       Opcode = 48
	OpSpecConstantFalse      Opcode = 49
	OpSpecConstant           Opcode = 50
	OpSpecConstantComposite  Opcode = 51
	OpSpecConstantOp         Opcode = 52
	OpFunction               Opcode = 54
	OpFunctionParameter      Opcode = 55
	OpFunctionEnd            Opcode = 56
	OpFunctionCall           Opcode = 57
	OpVariable               Opcode = 59
	OpLoad                   Opcode = 61
	OpStore                  Opcode = 62
	OpCopyMemory             Opcode = 63
	OpAccessChain            Opcode = 65
	OpInBoundsAccessChain    Opcode = 66
	OpPtrAccessChain         Opcode = 67
	OpDecorate               Opcode = 71
	OpMemberDecorate         Opcode = 72
	OpVectorExtractDynamic   Opcode = 77
	OpVectorInsertDynamic    Opcode = 78
	OpVectorShuffle          Opcode = 79
	OpCompositeConstruct     Opcode = 80
	OpCompositeExtract       Opcode = 81
	OpCompositeInsert        Opcode = 82
	OpCopyObject             Opcode = 83
	OpTranspose              Opcode = 84
	OpConvertFToU            Opcode = 109
	OpConvertFToS            Opcode = 110
	OpConvertSToF            Opcode = 111
	OpConvertUToF            Opcode = 112
	OpUConvert               Opcode = 113
	OpSConvert               Opcode = 114
	OpFConvert               Opcode = 115
	OpBitcast                Opcode = 124
	OpSNegate                Opcode = 126
	OpFNegate                Opcode = 127
	OpIAdd                   Opcode = 128
	OpFAdd                   Opcode = 129
	OpISub                   Opcode = 130
	OpFSub                   Opcode = 131
	OpIMul                   Opcode = 132
	OpFMul                   Opcode = 133
	OpUDiv                   Opcode = 134
	OpSDiv                   Opcode = 135
	OpFDiv                   Opcode = 136
	OpUMod                   Opcode = 137
	OpSRem                   Opcode = 138
	OpSMod                   Opcode = 139
	OpFRem                   Opcode = 140
	OpFMod                   Opcode = 141
	OpVectorTimesScalar      Opcode = 142
	OpMatrixTimesScalar      Opcode = 143
	OpVectorTimesMatrix      Opcode = 144
	OpMatrixTimesVector      Opcode = 145
	OpMatrixTimesMatrix      Opcode = 146
	OpOuterProduct           Opcode = 147
	OpDot                    Opcode = 148
	OpAny                    Opcode = 154
	OpAll                    Opcode = 155
	OpIsNan                  Opcode = 156
	OpIsInf                  Opcode = 157
	OpLogicalEqual           Opcode = 164
	OpLogicalNotEqual        Opcode = 165
	OpLogicalOr              Opcode = 166
	OpLogicalAnd             Opcode = 167
	OpLogicalNot             Opcode = 168
	OpSelect                 Opcode = 169
	OpIEqual                 Opcode = 170
	OpINotEqual              Opcode = 171
	OpUGreaterThan           Opcode = 172
	OpSGreaterThan           Opcode = 173
	OpUGreaterThanEqual      Opcode = 174
	OpSGreaterThanEqual      Opcode = 175
	OpULessThan              Opcode = 176
	OpSLessThan              Opcode = 177
	OpULessThanEqual         Opcode = 178
	OpSLessThanEqual         Opcode = 179
	OpFOrdEqual              Opcode = 180
	OpFUnordEqual            Opcode = 181
	OpFOrdNotEqual           Opcode = 182
	OpFUnordNotEqual         Opcode = 183
	OpFOrdLessThan           Opcode = 184
	OpFUnordLessThan         Opcode = 185
	OpFOrdGreaterThan        Opcode = 186
	OpFUnordGreaterThan      Opcode = 187
	OpFOrdLessThanEqual      Opcode = 188
	OpFUnordLessThanEqual    Opcode = 189
	OpFOrdGreaterThanEqual   Opcode = 190
	OpFUnordGreaterThanEqual Opcode = 191
	OpShiftRightLogical      Opcode = 194
	OpShiftRightArithmetic   Opcode = 195
	OpShiftLeftLogical       Opcode = 196
	OpBitwiseOr              Opcode = 197
	OpBitwiseXor             Opcode = 198
	OpBitwiseAnd             Opcode = 199
	OpNot                    Opcode = 200
	OpBitFieldInsert         Opcode = 201
	OpBitFieldSExtract       Opcode = 202
	OpBitFieldUExtract       Opcode = 203
	OpBitReverse             Opcode = 204
	OpBitCount               Opcode = 205
	OpDPdx                   Opcode = 207
	OpDPdy                   Opcode = 208
	OpFwidth                 Opcode = 209
	OpControlBarrier         Opcode = 224
	OpMemoryBarrier          Opcode = 225
	OpAtomicLoad             Opcode = 227
	OpAtomicStore            Opcode = 228
	OpAtomicExchange         Opcode = 229
	OpAtomicCompareExchange  Opcode = 230
	OpAtomicIIncrement       Opcode = 232
	OpAtomicIDecrement       Opcode = 233
	OpAtomicIAdd             Opcode = 234
	OpAtomicISub             Opcode = 235
	OpAtomicSMin             Opcode = 236
	OpAtomicUMin             Opcode = 237
	OpAtomicSMax             Opcode = 238
	OpAtomicUMax             Opcode = 239
	OpAtomicAnd              Opcode = 240
	OpAtomicOr               Opcode = 241
	OpAtomicXor              Opcode = 242
	OpPhi                    Opcode = 245
	OpLoopMerge              Opcode = 246
	OpSelectionMerge         Opcode = 247
	OpLabel                  Opcode = 248
	OpBranch                 Opcode = 249
	OpBranchConditional      Opcode = 250
	OpSwitch                 Opcode = 251
	OpKill                   Opcode = 252
	OpReturn                 Opcode = 253
	OpReturnValue            Opcode = 254
	OpUnreachable            Opcode = 255
	OpNoLine                 Opcode = 317
	OpUndef                  Opcode = 1
)

// Capability is a SPIR-V capability id, declared once per module by
// OpCapability.
type Capability uint32

const (
	CapabilityMatrix                        Capability = 0
	CapabilityShader                        Capability = 1
	CapabilityAddresses                     Capability = 4
	CapabilityLinkage                       Capability = 5
	CapabilityInt64Atomics                  Capability = 12
	CapabilityFloat16                       Capability = 9
	CapabilityFloat64                       Capability = 10
	CapabilityInt64                         Capability = 11
	CapabilityInt16                         Capability = 22
	CapabilityInt8                          Capability = 39
	CapabilityVariablePointersStorageBuffer Capability = 4441
	CapabilityVariablePointers              Capability = 4442
)

// Decoration is a SPIR-V decoration kind applied by OpDecorate or
// OpMemberDecorate.
type Decoration uint32

const (
	DecorationBlock         Decoration = 2
	DecorationRowMajor      Decoration = 4
	DecorationColMajor      Decoration = 5
	DecorationArrayStride   Decoration = 6
	DecorationMatrixStride  Decoration = 7
	DecorationBuiltIn       Decoration = 11
	DecorationSpecId        Decoration = 1
	DecorationLocation      Decoration = 30
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
	DecorationOffset        Decoration = 35
)

// BuiltIn is a SPIR-V BuiltIn decoration value.
type BuiltIn uint32

const (
	BuiltInNumWorkgroups        BuiltIn = 24
	BuiltInWorkgroupSize        BuiltIn = 25
	BuiltInWorkgroupID          BuiltIn = 26
	BuiltInLocalInvocationID    BuiltIn = 27
	BuiltInGlobalInvocationID   BuiltIn = 28
	BuiltInLocalInvocationIndex BuiltIn = 29
)

// ExecutionModel is a SPIR-V execution model declared by OpEntryPoint.
type ExecutionModel uint32

const (
	ExecutionModelGLCompute ExecutionModel = 5
)

// ExecutionMode is a SPIR-V execution mode declared by OpExecutionMode.
type ExecutionMode uint32

const (
	ExecutionModeLocalSize   ExecutionMode = 17
	ExecutionModeLocalSizeID ExecutionMode = 38
)

// StorageClass is a SPIR-V storage class, the operand of OpTypePointer
// and OpVariable.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassCrossWorkgroup  StorageClass = 5
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassGeneric         StorageClass = 8
	StorageClassPushConstant    StorageClass = 9
	StorageClassAtomicCounter   StorageClass = 10
	StorageClassImage           StorageClass = 11
	StorageClassStorageBuffer   StorageClass = 12
)

// AddressingModel is the OpMemoryModel addressing model operand.
type AddressingModel uint32

const (
	AddressingModelLogical    AddressingModel = 0
	AddressingModelPhysical32 AddressingModel = 1
	AddressingModelPhysical64 AddressingModel = 2
)

// MemoryModel is the OpMemoryModel memory model operand.
type MemoryModel uint32

const (
	MemoryModelSimple  MemoryModel = 0
	MemoryModelGLSL450 MemoryModel = 1
	MemoryModelOpenCL  MemoryModel = 2
	MemoryModelVulkan  MemoryModel = 3
)

// FunctionControl holds the OpFunction function-control bitmask.
type FunctionControl uint32

const (
	FunctionControlNone       FunctionControl = 0x0
	FunctionControlInline     FunctionControl = 0x1
	FunctionControlDontInline FunctionControl = 0x2
	FunctionControlPure       FunctionControl = 0x4
	FunctionControlConst      FunctionControl = 0x8
)

// SelectionControl holds the OpSelectionMerge control bitmask.
type SelectionControl uint32

const (
	SelectionControlNone        SelectionControl = 0x0
	SelectionControlFlatten     SelectionControl = 0x1
	SelectionControlDontFlatten SelectionControl = 0x2
)

// LoopControl holds the OpLoopMerge control bitmask.
type LoopControl uint32

const (
	LoopControlNone       LoopControl = 0x0
	LoopControlUnroll     LoopControl = 0x1
	LoopControlDontUnroll LoopControl = 0x2
)

// Memory scope ids, operands of the barrier and atomic opcodes.
const (
	ScopeDevice     uint32 = 1
	ScopeWorkgroup  uint32 = 2
	ScopeInvocation uint32 = 4
)

// Memory semantics bits, operands of the barrier and atomic opcodes.
const (
	MemorySemanticsNone                   uint32 = 0x0
	MemorySemanticsAcquire                uint32 = 0x2
	MemorySemanticsRelease                uint32 = 0x4
	MemorySemanticsAcquireRelease         uint32 = 0x8
	MemorySemanticsSequentiallyConsistent uint32 = 0x10
	MemorySemanticsUniformMemory          uint32 = 0x40
	MemorySemanticsWorkgroupMemory        uint32 = 0x100
	MemorySemanticsAtomicCounterMemory    uint32 = 0x400
	MemorySemanticsImageMemory            uint32 = 0x800
)

// GLSL.std.450 extended instruction set opcodes, the operand of OpExtInst
// when the imported set is "GLSL.std.450".
const (
	GLSLstd450Round       uint32 = 1
	GLSLstd450Trunc       uint32 = 3
	GLSLstd450FAbs        uint32 = 4
	GLSLstd450SAbs        uint32 = 5
	GLSLstd450FSign       uint32 = 6
	GLSLstd450SSign       uint32 = 7
	GLSLstd450Floor       uint32 = 8
	GLSLstd450Ceil        uint32 = 9
	GLSLstd450Fract       uint32 = 10
	GLSLstd450Sin         uint32 = 13
	GLSLstd450Tan         uint32 = 15
	GLSLstd450Asin        uint32 = 16
	GLSLstd450Acos        uint32 = 17
	GLSLstd450Atan        uint32 = 18
	GLSLstd450Sinh        uint32 = 19
	GLSLstd450Cosh        uint32 = 20
	GLSLstd450Tanh        uint32 = 21
	GLSLstd450Asinh       uint32 = 22
	GLSLstd450Acosh       uint32 = 23
	GLSLstd450Atanh       uint32 = 24
	GLSLstd450Atan2       uint32 = 25
	GLSLstd450Cos         uint32 = 14
	GLSLstd450Pow         uint32 = 26
	GLSLstd450Exp         uint32 = 27
	GLSLstd450Log         uint32 = 28
	GLSLstd450Exp2        uint32 = 29
	GLSLstd450Log2        uint32 = 30
	GLSLstd450Sqrt        uint32 = 31
	GLSLstd450InverseSqrt uint32 = 32
	GLSLstd450FMin        uint32 = 37
	GLSLstd450UMin        uint32 = 38
	GLSLstd450SMin        uint32 = 39
	GLSLstd450FMax        uint32 = 40
	GLSLstd450UMax        uint32 = 41
	GLSLstd450SMax        uint32 = 42
	GLSLstd450FClamp      uint32 = 43
	GLSLstd450UClamp      uint32 = 44
	GLSLstd450SClamp      uint32 = 45
	GLSLstd450FMix        uint32 = 46
	GLSLstd450Fma         uint32 = 50
	GLSLstd450Length      uint32 = 66
	GLSLstd450Distance    uint32 = 67
	GLSLstd450Cross       uint32 = 68
	GLSLstd450Normalize   uint32 = 69
)

// opcodeNames is the mnemonic table handed to package ir for
// disassembly, so the ir.Instruction formatter never needs to import
// this package.
var opcodeNames = map[Opcode]string{
	OpNop: "OpNop", OpSource: "OpSource", OpName: "OpName", OpMemberName: "OpMemberName",
	OpString: "OpString", OpLine: "OpLine", OpNoLine: "OpNoLine",
	OpExtension: "OpExtension", OpExtInstImport: "OpExtInstImport",
	OpExtInst: "OpExtInst", OpMemoryModel: "OpMemoryModel", OpEntryPoint: "OpEntryPoint",
	OpExecutionMode: "OpExecutionMode", OpCapability: "OpCapability",
	OpTypeVoid: "OpTypeVoid", OpTypeBool: "OpTypeBool", OpTypeInt: "OpTypeInt",
	OpTypeFloat: "OpTypeFloat", OpTypeVector: "OpTypeVector", OpTypeMatrix: "OpTypeMatrix",
	OpTypeArray: "OpTypeArray", OpTypeRuntimeArray: "OpTypeRuntimeArray",
	OpTypeStruct: "OpTypeStruct", OpTypePointer: "OpTypePointer", OpTypeFunction: "OpTypeFunction",
	OpConstantTrue: "OpConstantTrue", OpConstantFalse: "OpConstantFalse", OpConstant: "OpConstant",
	OpConstantComposite: "OpConstantComposite", OpConstantNull: "OpConstantNull",
	OpSpecConstantTrue: "OpSpecConstantTrue", OpSpecConstantFalse: "OpSpecConstantFalse",
	OpSpecConstant: "OpSpecConstant", OpSpecConstantComposite: "OpSpecConstantComposite",
	OpSpecConstantOp: "OpSpecConstantOp",
	OpFunction:       "OpFunction", OpFunctionParameter: "OpFunctionParameter",
	OpFunctionEnd: "OpFunctionEnd", OpFunctionCall: "OpFunctionCall",
	OpVariable: "OpVariable", OpLoad: "OpLoad", OpStore: "OpStore",
	OpCopyMemory:  "OpCopyMemory",
	OpAccessChain: "OpAccessChain", OpInBoundsAccessChain: "OpInBoundsAccessChain",
	OpPtrAccessChain: "OpPtrAccessChain", OpDecorate: "OpDecorate", OpMemberDecorate: "OpMemberDecorate",
	OpVectorExtractDynamic: "OpVectorExtractDynamic", OpVectorInsertDynamic: "OpVectorInsertDynamic",
	OpVectorShuffle: "OpVectorShuffle", OpCompositeConstruct: "OpCompositeConstruct",
	OpCompositeExtract: "OpCompositeExtract", OpCompositeInsert: "OpCompositeInsert",
	OpCopyObject: "OpCopyObject", OpTranspose: "OpTranspose",
	OpConvertFToU: "OpConvertFToU", OpConvertFToS: "OpConvertFToS", OpConvertSToF: "OpConvertSToF",
	OpConvertUToF: "OpConvertUToF", OpUConvert: "OpUConvert", OpSConvert: "OpSConvert",
	OpFConvert: "OpFConvert", OpBitcast: "OpBitcast",
	OpSNegate: "OpSNegate", OpFNegate: "OpFNegate", OpIAdd: "OpIAdd", OpFAdd: "OpFAdd",
	OpISub: "OpISub", OpFSub: "OpFSub", OpIMul: "OpIMul", OpFMul: "OpFMul",
	OpUDiv: "OpUDiv", OpSDiv: "OpSDiv", OpFDiv: "OpFDiv", OpUMod: "OpUMod",
	OpSRem: "OpSRem", OpSMod: "OpSMod", OpFRem: "OpFRem", OpFMod: "OpFMod",
	OpVectorTimesScalar: "OpVectorTimesScalar", OpMatrixTimesScalar: "OpMatrixTimesScalar",
	OpVectorTimesMatrix: "OpVectorTimesMatrix", OpMatrixTimesVector: "OpMatrixTimesVector",
	OpMatrixTimesMatrix: "OpMatrixTimesMatrix", OpOuterProduct: "OpOuterProduct", OpDot: "OpDot",
	OpAny: "OpAny", OpAll: "OpAll",
	OpIsNan: "OpIsNan", OpIsInf: "OpIsInf",
	OpLogicalEqual: "OpLogicalEqual", OpLogicalNotEqual: "OpLogicalNotEqual",
	OpLogicalOr: "OpLogicalOr", OpLogicalAnd: "OpLogicalAnd", OpLogicalNot: "OpLogicalNot",
	OpSelect: "OpSelect", OpIEqual: "OpIEqual", OpINotEqual: "OpINotEqual",
	OpUGreaterThan: "OpUGreaterThan", OpSGreaterThan: "OpSGreaterThan",
	OpUGreaterThanEqual: "OpUGreaterThanEqual", OpSGreaterThanEqual: "OpSGreaterThanEqual",
	OpULessThan: "OpULessThan", OpSLessThan: "OpSLessThan",
	OpULessThanEqual: "OpULessThanEqual", OpSLessThanEqual: "OpSLessThanEqual",
	OpFOrdEqual: "OpFOrdEqual", OpFUnordEqual: "OpFUnordEqual",
	OpFOrdNotEqual: "OpFOrdNotEqual", OpFUnordNotEqual: "OpFUnordNotEqual",
	OpFOrdLessThan: "OpFOrdLessThan", OpFUnordLessThan: "OpFUnordLessThan",
	OpFOrdGreaterThan: "OpFOrdGreaterThan", OpFUnordGreaterThan: "OpFUnordGreaterThan",
	OpFOrdLessThanEqual: "OpFOrdLessThanEqual", OpFUnordLessThanEqual: "OpFUnordLessThanEqual",
	OpFOrdGreaterThanEqual: "OpFOrdGreaterThanEqual", OpFUnordGreaterThanEqual: "OpFUnordGreaterThanEqual",
	OpShiftRightLogical: "OpShiftRightLogical", OpShiftRightArithmetic: "OpShiftRightArithmetic",
	OpShiftLeftLogical: "OpShiftLeftLogical", OpBitwiseOr: "OpBitwiseOr",
	OpBitwiseXor: "OpBitwiseXor", OpBitwiseAnd: "OpBitwiseAnd", OpNot: "OpNot",
	OpBitFieldInsert: "OpBitFieldInsert", OpBitFieldSExtract: "OpBitFieldSExtract",
	OpBitFieldUExtract: "OpBitFieldUExtract", OpBitReverse: "OpBitReverse", OpBitCount: "OpBitCount",
	OpDPdx: "OpDPdx", OpDPdy: "OpDPdy", OpFwidth: "OpFwidth",
	OpControlBarrier: "OpControlBarrier", OpMemoryBarrier: "OpMemoryBarrier",
	OpAtomicLoad: "OpAtomicLoad", OpAtomicStore: "OpAtomicStore", OpAtomicExchange: "OpAtomicExchange",
	OpAtomicCompareExchange: "OpAtomicCompareExchange", OpAtomicIIncrement: "OpAtomicIIncrement",
	OpAtomicIDecrement: "OpAtomicIDecrement", OpAtomicIAdd: "OpAtomicIAdd", OpAtomicISub: "OpAtomicISub",
	OpAtomicSMin: "OpAtomicSMin", OpAtomicUMin: "OpAtomicUMin", OpAtomicSMax: "OpAtomicSMax",
	OpAtomicUMax: "OpAtomicUMax", OpAtomicAnd: "OpAtomicAnd", OpAtomicOr: "OpAtomicOr", OpAtomicXor: "OpAtomicXor",
	OpPhi: "OpPhi", OpLoopMerge: "OpLoopMerge", OpSelectionMerge: "OpSelectionMerge",
	OpLabel: "OpLabel", OpBranch: "OpBranch", OpBranchConditional: "OpBranchConditional",
	OpSwitch: "OpSwitch", OpKill: "OpKill", OpReturn: "OpReturn", OpReturnValue: "OpReturnValue",
	OpUnreachable: "OpUnreachable", OpUndef: "OpUndef",
}

func init() {
	ir.RegisterOpcodeNames(opcodeNames)
}
