package spirv

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gogpu/talvos/ir"
)

// ReadWords decodes a SPIR-V binary stream into its 32-bit little-
// endian word sequence, validating the magic number and overall
// length.
func ReadWords(r io.Reader) ([]uint32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("spirv: reading module: %w", err)
	}
	if len(data) < 20 {
		return nil, fmt.Errorf("spirv: module too small (%d bytes)", len(data))
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("spirv: module length %d is not a multiple of 4", len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != MagicNumber {
		return nil, fmt.Errorf("spirv: invalid magic number 0x%08X", magic)
	}
	words := make([]uint32, len(data)/4)
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, words); err != nil {
		return nil, fmt.Errorf("spirv: decoding words: %w", err)
	}
	return words, nil
}

// decoInstance is one OpDecorate or OpMemberDecorate application,
// collected in a first pass so types and variables can be built with
// their decorations already known, regardless of where in the binary
// the annotation appeared relative to its target.
type decoInstance struct {
	dec  Decoration
	data []uint32
}

type loader struct {
	words  []uint32
	module *ir.Module

	decorations       map[uint32][]decoInstance
	memberDecorations map[uint32]map[uint32][]decoInstance

	extInstSets map[uint32]string

	curFunc  *ir.Function
	curBlock *ir.Block
}

// Load decodes a complete word stream (as returned by ReadWords) into
// an *ir.Module. It does not validate the result; call ir.Validate on
// the returned module before dispatching it.
func Load(words []uint32) (*ir.Module, error) {
	if len(words) < 5 {
		return nil, fmt.Errorf("spirv: missing header")
	}
	bound := words[3]
	l := &loader{
		words:             words,
		module:            ir.NewModule(bound),
		decorations:       make(map[uint32][]decoInstance),
		memberDecorations: make(map[uint32]map[uint32][]decoInstance),
		extInstSets:       make(map[uint32]string),
	}
	l.module.Version = words[1]
	l.module.Generator = words[2]
	l.module.Schema = words[4]
	if err := l.collectDecorations(); err != nil {
		return nil, err
	}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.module, nil
}

// collectDecorations does a first pass over the instruction stream
// recording every OpDecorate/OpMemberDecorate, so later passes can
// look up a type or variable's decorations regardless of where in the
// module the annotation instruction appears.
func (l *loader) collectDecorations() error {
	return l.walk(func(opcode Opcode, ops []uint32, _ int) error {
		switch opcode {
		case OpDecorate:
			target, dec := ops[0], Decoration(ops[1])
			l.decorations[target] = append(l.decorations[target], decoInstance{dec: dec, data: ops[2:]})
		case OpMemberDecorate:
			target, member, dec := ops[0], ops[1], Decoration(ops[2])
			if l.memberDecorations[target] == nil {
				l.memberDecorations[target] = make(map[uint32][]decoInstance)
			}
			l.memberDecorations[target][member] = append(l.memberDecorations[target][member], decoInstance{dec: dec, data: ops[3:]})
		}
		return nil
	})
}

// run performs the main decode pass: types, constants, variables,
// functions, entry points, and execution modes.
func (l *loader) run() error {
	return l.walk(func(opcode Opcode, ops []uint32, wordOffset int) error {
		switch {
		case opcode >= OpTypeVoid && opcode <= OpTypeFunction && isTypeOpcode(opcode):
			return l.decodeType(opcode, ops)
		case opcode == OpConstantTrue || opcode == OpConstantFalse || opcode == OpConstant ||
			opcode == OpConstantComposite || opcode == OpConstantNull ||
			opcode == OpSpecConstantTrue || opcode == OpSpecConstantFalse ||
			opcode == OpSpecConstant || opcode == OpSpecConstantComposite:
			return l.decodeConstant(opcode, ops)
		case opcode == OpSpecConstantOp:
			l.module.SpecConstantOps = append(l.module.SpecConstantOps, l.decodeInstruction(opcode, ops))
			return nil
		case opcode == OpVariable:
			if l.curFunc == nil {
				return l.decodeVariable(ops)
			}
			if l.curBlock != nil {
				l.curBlock.Instructions = append(l.curBlock.Instructions, l.decodeInstruction(opcode, ops))
			}
		case opcode == OpName:
			l.module.Names[ops[0]] = readString(ops[1:])
		case opcode == OpExtInstImport:
			l.extInstSets[ops[0]] = readString(ops[1:])
		case opcode == OpEntryPoint:
			return l.decodeEntryPoint(ops)
		case opcode == OpExecutionMode:
			l.decodeExecutionMode(ops)
		case opcode == OpFunction:
			return l.beginFunction(ops)
		case opcode == OpFunctionParameter:
			l.curFunc.Params = append(l.curFunc.Params, ops[1])
		case opcode == OpFunctionEnd:
			l.curFunc, l.curBlock = nil, nil
		case opcode == OpLabel:
			l.beginBlock(ops[0])
		default:
			if l.curBlock != nil {
				l.curBlock.Instructions = append(l.curBlock.Instructions, l.decodeInstruction(opcode, ops))
			}
		}
		return nil
	})
}

// walk decodes the raw instruction stream starting after the 5-word
// header, invoking fn once per instruction with its opcode, full
// operand word list, and the word index of its first word within the
// stream.
func (l *loader) walk(fn func(opcode Opcode, ops []uint32, wordOffset int) error) error {
	i := 5
	for i < len(l.words) {
		header := l.words[i]
		opcode := Opcode(header & 0xFFFF)
		wordCount := int(header >> 16)
		if wordCount == 0 || i+wordCount > len(l.words) {
			return fmt.Errorf("spirv: invalid instruction word count %d at word %d", wordCount, i)
		}
		ops := l.words[i+1 : i+wordCount]
		if err := fn(opcode, ops, i); err != nil {
			return err
		}
		i += wordCount
	}
	return nil
}

// readString decodes a null-terminated UTF-8 literal string packed
// into the given operand words, little-endian, 4 bytes per word.
func readString(ops []uint32) string {
	var b bytes.Buffer
	for _, w := range ops {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return b.String()
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isTypeOpcode(opcode Opcode) bool {
	switch opcode {
	case OpTypeVoid, OpTypeBool, OpTypeInt, OpTypeFloat, OpTypeVector, OpTypeMatrix,
		OpTypeArray, OpTypeRuntimeArray, OpTypeStruct, OpTypePointer, OpTypeFunction:
		return true
	default:
		return false
	}
}

func (l *loader) decoFor(id uint32, dec Decoration) (decoInstance, bool) {
	for _, d := range l.decorations[id] {
		if d.dec == dec {
			return d, true
		}
	}
	return decoInstance{}, false
}

func (l *loader) memberDecoFor(id, member uint32, dec Decoration) (decoInstance, bool) {
	for _, d := range l.memberDecorations[id][member] {
		if d.dec == dec {
			return d, true
		}
	}
	return decoInstance{}, false
}

func (l *loader) decodeType(opcode Opcode, ops []uint32) error {
	result := ops[0]
	switch opcode {
	case OpTypeVoid:
		l.module.Types[result] = ir.NewVoid()
	case OpTypeBool:
		l.module.Types[result] = ir.NewBool()
	case OpTypeInt:
		l.module.Types[result] = ir.NewInt(ops[1], ops[2] == 1)
	case OpTypeFloat:
		l.module.Types[result] = ir.NewFloat(ops[1])
	case OpTypeVector:
		elem, ok := l.module.Types[ops[1]]
		if !ok {
			return fmt.Errorf("spirv: OpTypeVector %%%d references undefined type %%%d", result, ops[1])
		}
		l.module.Types[result] = ir.NewVector(elem, ops[2])
	case OpTypeMatrix:
		column, ok := l.module.Types[ops[1]]
		if !ok {
			return fmt.Errorf("spirv: OpTypeMatrix %%%d references undefined type %%%d", result, ops[1])
		}
		l.module.Types[result] = ir.NewMatrix(column, ops[2])
	case OpTypeArray:
		elem, ok := l.module.Types[ops[1]]
		if !ok {
			return fmt.Errorf("spirv: OpTypeArray %%%d references undefined type %%%d", result, ops[1])
		}
		count := l.constUint(ops[2])
		stride := elem.Size
		if d, ok := l.decoFor(result, DecorationArrayStride); ok {
			stride = d.data[0]
		}
		l.module.Types[result] = ir.NewArray(elem, count, stride)
	case OpTypeRuntimeArray:
		elem, ok := l.module.Types[ops[1]]
		if !ok {
			return fmt.Errorf("spirv: OpTypeRuntimeArray %%%d references undefined type %%%d", result, ops[1])
		}
		stride := elem.Size
		if d, ok := l.decoFor(result, DecorationArrayStride); ok {
			stride = d.data[0]
		}
		l.module.Types[result] = ir.NewRuntimeArray(elem, stride)
	case OpTypeStruct:
		members := make([]ir.StructMember, len(ops)-1)
		for i, memberTypeID := range ops[1:] {
			mt, ok := l.module.Types[memberTypeID]
			if !ok {
				return fmt.Errorf("spirv: OpTypeStruct %%%d member %d references undefined type %%%d", result, i, memberTypeID)
			}
			m := ir.StructMember{Type: mt}
			if d, ok := l.memberDecoFor(result, uint32(i), DecorationOffset); ok {
				m.Offset = d.data[0]
			}
			if d, ok := l.memberDecoFor(result, uint32(i), DecorationMatrixStride); ok {
				_, colMajor := l.memberDecoFor(result, uint32(i), DecorationColMajor)
				m.MatrixDecs = ir.StructMatrixLayout{Present: true, ColMajor: colMajor, Stride: d.data[0]}
			}
			members[i] = m
		}
		l.module.Types[result] = ir.NewStruct(members)
	case OpTypePointer:
		class := ir.AddressSpace(ops[1])
		elem, ok := l.module.Types[ops[2]]
		if !ok {
			return fmt.Errorf("spirv: OpTypePointer %%%d references undefined type %%%d", result, ops[2])
		}
		stride := elem.Size
		switch k := elem.Kind.(type) {
		case *ir.RuntimeArrayType:
			stride = k.Stride
		}
		l.module.Types[result] = ir.NewPointer(class, elem, stride)
	case OpTypeFunction:
		ret, ok := l.module.Types[ops[1]]
		if !ok {
			return fmt.Errorf("spirv: OpTypeFunction %%%d references undefined return type %%%d", result, ops[1])
		}
		params := make([]*ir.Type, len(ops)-2)
		for i, pid := range ops[2:] {
			pt, ok := l.module.Types[pid]
			if !ok {
				return fmt.Errorf("spirv: OpTypeFunction %%%d param %d references undefined type %%%d", result, i, pid)
			}
			params[i] = pt
		}
		l.module.Types[result] = ir.NewFunction(ret, params)
	}
	return nil
}

// constUint resolves a previously decoded scalar constant (or spec
// constant) id to its uint32 value, used for array lengths.
func (l *loader) constUint(id uint32) uint32 {
	o := l.module.Object(id)
	if !o.Valid() {
		return 0
	}
	return uint32(o.GetUint64(0))
}

func (l *loader) decodeConstant(opcode Opcode, ops []uint32) error {
	ty, ok := l.module.Types[ops[0]]
	if !ok {
		return fmt.Errorf("spirv: constant references undefined type %%%d", ops[0])
	}
	result := ops[1]
	obj := ir.Zero(ty)
	switch opcode {
	case OpConstantTrue, OpSpecConstantTrue:
		obj.SetUint64(0, 1)
	case OpConstantFalse, OpSpecConstantFalse, OpConstantNull:
		// already zeroed
	case OpConstant, OpSpecConstant:
		bits := uint64(ops[2])
		if len(ops) > 3 {
			bits |= uint64(ops[3]) << 32
		}
		obj.SetUint64(0, bits)
	case OpConstantComposite, OpSpecConstantComposite:
		for i, compID := range ops[2:] {
			obj.Insert([]uint32{uint32(i)}, l.module.Object(compID))
		}
	}
	l.module.Objects[result] = obj
	if d, ok := l.decoFor(result, DecorationSpecId); ok {
		l.module.SpecConstants[d.data[0]] = result
	}
	if d, ok := l.decoFor(result, DecorationBuiltIn); ok && BuiltIn(d.data[0]) == BuiltInWorkgroupSize {
		l.module.WorkgroupSizeID = result
	}
	return nil
}

func (l *loader) decodeVariable(ops []uint32) error {
	ty, ok := l.module.Types[ops[0]]
	if !ok {
		return fmt.Errorf("spirv: OpVariable references undefined type %%%d", ops[0])
	}
	v := &ir.Variable{ID: ops[1], Type: ty, Decorations: make(map[ir.Decoration]uint32)}
	if len(ops) > 3 {
		v.Initializer = ops[3]
	}
	for _, d := range l.decorations[v.ID] {
		if len(d.data) > 0 {
			v.Decorations[ir.Decoration(d.dec)] = d.data[0]
		} else {
			v.Decorations[ir.Decoration(d.dec)] = 0
		}
	}
	l.module.Variables = append(l.module.Variables, v)
	return nil
}

func (l *loader) decodeEntryPoint(ops []uint32) error {
	if ExecutionModel(ops[0]) != ExecutionModelGLCompute {
		// Non-compute entry points are out of scope; skip them.
		return nil
	}
	fn := ops[1]
	name := readString(ops[2:])
	l.module.EntryPoints[name] = fn
	return nil
}

func (l *loader) decodeExecutionMode(ops []uint32) {
	fn, mode := ops[0], ExecutionMode(ops[1])
	if mode == ExecutionModeLocalSize {
		l.module.LocalSizes[fn] = ir.Dim3{X: ops[2], Y: ops[3], Z: ops[4]}
	}
}

func (l *loader) beginFunction(ops []uint32) error {
	ty, ok := l.module.Types[ops[0]]
	if !ok {
		return fmt.Errorf("spirv: OpFunction references undefined type %%%d", ops[0])
	}
	fn := &ir.Function{ID: ops[1], Type: ty, Blocks: make(map[uint32]*ir.Block)}
	l.module.Functions[fn.ID] = fn
	l.module.FunctionOrder = append(l.module.FunctionOrder, fn.ID)
	l.curFunc = fn
	return nil
}

func (l *loader) beginBlock(id uint32) {
	b := &ir.Block{ID: id}
	l.curFunc.Blocks[id] = b
	l.curFunc.BlockOrder = append(l.curFunc.BlockOrder, id)
	if l.curFunc.FirstBlockID == 0 {
		l.curFunc.FirstBlockID = id
	}
	l.curBlock = b
}

// decodeInstruction builds a generic ir.Instruction for any opcode not
// specially handled above (arithmetic, memory access, conversions,
// control flow, and so on), splitting out the result type and id for
// opcodes known to carry them.
func (l *loader) decodeInstruction(opcode Opcode, ops []uint32) *ir.Instruction {
	inst := &ir.Instruction{Opcode: opcode}
	switch {
	case hasTypeAndResult(opcode) && len(ops) >= 2:
		inst.ResultType = l.module.Types[ops[0]]
		inst.ResultID = ops[1]
		inst.Operands = ops[2:]
	case hasResultOnly(opcode) && len(ops) >= 1:
		inst.ResultID = ops[0]
		inst.Operands = ops[1:]
	default:
		inst.Operands = ops
	}
	return inst
}

// hasTypeAndResult reports whether opcode's first two operand words
// are (Result Type <id>, Result <id>), per the SPIR-V instruction
// grammar.
func hasTypeAndResult(opcode Opcode) bool {
	switch opcode {
	case OpUndef, OpFunctionCall, OpLoad, OpAccessChain, OpInBoundsAccessChain, OpPtrAccessChain,
		OpVectorExtractDynamic, OpVectorInsertDynamic, OpVectorShuffle,
		OpCompositeConstruct, OpCompositeExtract, OpCompositeInsert, OpCopyObject, OpTranspose,
		OpConvertFToU, OpConvertFToS, OpConvertSToF, OpConvertUToF, OpUConvert, OpSConvert, OpFConvert, OpBitcast,
		OpSNegate, OpFNegate, OpIAdd, OpFAdd, OpISub, OpFSub, OpIMul, OpFMul,
		OpUDiv, OpSDiv, OpFDiv, OpUMod, OpSRem, OpSMod, OpFRem, OpFMod,
		OpVectorTimesScalar, OpMatrixTimesScalar, OpVectorTimesMatrix, OpMatrixTimesVector, OpMatrixTimesMatrix,
		OpOuterProduct, OpDot, OpAny, OpAll, OpIsNan, OpIsInf,
		OpLogicalEqual, OpLogicalNotEqual, OpLogicalOr, OpLogicalAnd, OpLogicalNot, OpSelect,
		OpIEqual, OpINotEqual, OpUGreaterThan, OpSGreaterThan, OpUGreaterThanEqual, OpSGreaterThanEqual,
		OpULessThan, OpSLessThan, OpULessThanEqual, OpSLessThanEqual,
		OpFOrdEqual, OpFUnordEqual, OpFOrdNotEqual, OpFUnordNotEqual,
		OpFOrdLessThan, OpFUnordLessThan, OpFOrdGreaterThan, OpFUnordGreaterThan,
		OpFOrdLessThanEqual, OpFUnordLessThanEqual, OpFOrdGreaterThanEqual, OpFUnordGreaterThanEqual,
		OpShiftRightLogical, OpShiftRightArithmetic, OpShiftLeftLogical,
		OpBitwiseOr, OpBitwiseXor, OpBitwiseAnd, OpNot,
		OpBitFieldInsert, OpBitFieldSExtract, OpBitFieldUExtract, OpBitReverse, OpBitCount,
		OpDPdx, OpDPdy, OpFwidth,
		OpAtomicLoad, OpAtomicExchange, OpAtomicCompareExchange, OpAtomicIIncrement, OpAtomicIDecrement,
		OpAtomicIAdd, OpAtomicISub, OpAtomicSMin, OpAtomicUMin, OpAtomicSMax, OpAtomicUMax,
		OpAtomicAnd, OpAtomicOr, OpAtomicXor,
		OpPhi, OpFunctionParameter, OpVariable, OpExtInst, OpSpecConstantOp, OpFunction:
		return true
	default:
		return false
	}
}

// hasResultOnly reports whether opcode defines a result id with no
// associated result type word (type-defining opcodes, labels, and a
// handful of debug/extension instructions).
func hasResultOnly(opcode Opcode) bool {
	switch opcode {
	case OpLabel, OpExtInstImport,
		OpTypeVoid, OpTypeBool, OpTypeInt, OpTypeFloat, OpTypeVector, OpTypeMatrix,
		OpTypeArray, OpTypeRuntimeArray, OpTypeStruct, OpTypePointer, OpTypeFunction:
		return true
	default:
		return false
	}
}
