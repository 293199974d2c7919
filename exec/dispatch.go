package exec

import (
	"fmt"
	"math"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/spirv"
)

// dispatch executes one instruction and reports whether it changed the
// instruction pointer itself (a branch, call, or return) — when it
// returns false, Step applies the generic fall-through advance to the
// next instruction in the current block.
func (inv *Invocation) dispatch(inst *ir.Instruction) bool {
	switch inst.Opcode {
	case spirv.OpNop, spirv.OpLine, spirv.OpNoLine, spirv.OpLoopMerge, spirv.OpSelectionMerge:
		return false
	case spirv.OpUndef:
		inv.objects[inst.ResultID] = ir.Zero(inst.ResultType)
		return false

	case spirv.OpLoad:
		return inv.executeLoad(inst)
	case spirv.OpStore:
		return inv.executeStore(inst)
	case spirv.OpCopyMemory:
		return inv.executeCopyMemory(inst)
	case spirv.OpAccessChain, spirv.OpInBoundsAccessChain:
		return inv.executeAccessChain(inst, false)
	case spirv.OpPtrAccessChain:
		return inv.executeAccessChain(inst, true)
	case spirv.OpVariable:
		return inv.executeVariable(inst)
	case spirv.OpCopyObject:
		inv.objects[inst.ResultID] = inv.objects[inst.Operand(0)].Clone()
		return false

	case spirv.OpCompositeConstruct:
		return inv.executeCompositeConstruct(inst)
	case spirv.OpCompositeExtract:
		return inv.executeCompositeExtract(inst)
	case spirv.OpCompositeInsert:
		return inv.executeCompositeInsert(inst)
	case spirv.OpVectorShuffle:
		return inv.executeVectorShuffle(inst)
	case spirv.OpVectorExtractDynamic:
		return inv.executeVectorExtractDynamic(inst)
	case spirv.OpVectorInsertDynamic:
		return inv.executeVectorInsertDynamic(inst)
	case spirv.OpTranspose:
		return inv.executeTranspose(inst)

	case spirv.OpFunctionCall:
		return inv.executeFunctionCall(inst)
	case spirv.OpReturn:
		return inv.executeReturn()
	case spirv.OpReturnValue:
		return inv.executeReturnValue(inst)
	case spirv.OpBranch:
		inv.moveToBlock(inst.Operand(0))
		return true
	case spirv.OpBranchConditional:
		return inv.executeBranchConditional(inst)
	case spirv.OpSwitch:
		return inv.executeSwitch(inst)
	case spirv.OpPhi:
		return inv.executePhi(inst)
	case spirv.OpKill:
		inv.finished = true
		return true
	case spirv.OpUnreachable:
		inv.dev.Abort(inv.info, inst, &device.StructuralError{Msg: "OpUnreachable executed"})
		inv.finished = true
		return true
	case spirv.OpControlBarrier:
		return inv.executeControlBarrier(inst)
	case spirv.OpMemoryBarrier:
		return false

	case spirv.OpExtInst:
		return inv.executeExtInst(inst)

	case spirv.OpSelect:
		return inv.executeSelect(inst)

	// Arithmetic.
	case spirv.OpSNegate:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, uint64(-a.GetInt64(lane)))
		}
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpFNegate:
		return inv.funop(inst, func(a float64) float64 { return -a })
	case spirv.OpIAdd:
		return inv.ubinop(inst, func(a, b uint64) uint64 { return a + b })
	case spirv.OpFAdd:
		return inv.fbinop(inst, func(a, b float64) float64 { return a + b })
	case spirv.OpISub:
		return inv.ubinop(inst, func(a, b uint64) uint64 { return a - b })
	case spirv.OpFSub:
		return inv.fbinop(inst, func(a, b float64) float64 { return a - b })
	case spirv.OpIMul:
		return inv.ubinop(inst, func(a, b uint64) uint64 { return a * b })
	case spirv.OpFMul:
		return inv.fbinop(inst, func(a, b float64) float64 { return a * b })
	case spirv.OpUDiv:
		return inv.ubinop(inst, func(a, b uint64) uint64 {
			if b == 0 {
				return 0
			}
			return a / b
		})
	case spirv.OpSDiv:
		return inv.sbinop(inst, func(a, b int64) int64 {
			if b == 0 {
				return 0
			}
			return a / b
		})
	case spirv.OpFDiv:
		return inv.fbinop(inst, func(a, b float64) float64 { return a / b })
	case spirv.OpUMod:
		return inv.ubinop(inst, func(a, b uint64) uint64 {
			if b == 0 {
				return 0
			}
			return a % b
		})
	case spirv.OpSRem:
		return inv.sbinop(inst, func(a, b int64) int64 {
			if b == 0 {
				return 0
			}
			return a % b
		})
	case spirv.OpSMod:
		return inv.sbinop(inst, func(a, b int64) int64 {
			if b == 0 {
				return 0
			}
			m := a % b
			if m != 0 && (m < 0) != (b < 0) {
				m += b
			}
			return m
		})
	case spirv.OpFRem:
		return inv.fbinop(inst, math.Mod)
	case spirv.OpFMod:
		return inv.fbinop(inst, func(a, b float64) float64 {
			m := math.Mod(a, b)
			if m != 0 && (m < 0) != (b < 0) {
				m += b
			}
			return m
		})

	case spirv.OpDot:
		return inv.executeDot(inst)
	case spirv.OpVectorTimesScalar:
		return inv.executeVectorTimesScalar(inst)
	case spirv.OpMatrixTimesScalar:
		return inv.executeMatrixTimesScalar(inst)
	case spirv.OpVectorTimesMatrix:
		return inv.executeVectorTimesMatrix(inst)
	case spirv.OpMatrixTimesVector:
		return inv.executeMatrixTimesVector(inst)
	case spirv.OpMatrixTimesMatrix:
		return inv.executeMatrixTimesMatrix(inst)
	case spirv.OpOuterProduct:
		return inv.executeOuterProduct(inst)

	// Comparisons.
	case spirv.OpIEqual:
		return inv.ucmp(inst, func(a, b uint64) bool { return a == b })
	case spirv.OpINotEqual:
		return inv.ucmp(inst, func(a, b uint64) bool { return a != b })
	case spirv.OpUGreaterThan:
		return inv.ucmp(inst, func(a, b uint64) bool { return a > b })
	case spirv.OpUGreaterThanEqual:
		return inv.ucmp(inst, func(a, b uint64) bool { return a >= b })
	case spirv.OpULessThan:
		return inv.ucmp(inst, func(a, b uint64) bool { return a < b })
	case spirv.OpULessThanEqual:
		return inv.ucmp(inst, func(a, b uint64) bool { return a <= b })
	case spirv.OpSGreaterThan:
		return inv.scmp(inst, func(a, b int64) bool { return a > b })
	case spirv.OpSGreaterThanEqual:
		return inv.scmp(inst, func(a, b int64) bool { return a >= b })
	case spirv.OpSLessThan:
		return inv.scmp(inst, func(a, b int64) bool { return a < b })
	case spirv.OpSLessThanEqual:
		return inv.scmp(inst, func(a, b int64) bool { return a <= b })
	case spirv.OpFOrdEqual:
		return inv.fcmp(inst, func(a, b float64) bool { return a == b })
	case spirv.OpFUnordEqual:
		return inv.fcmp(inst, func(a, b float64) bool { return !(a < b || a > b) })
	case spirv.OpFOrdNotEqual:
		return inv.fcmp(inst, func(a, b float64) bool { return a < b || a > b })
	case spirv.OpFUnordNotEqual:
		return inv.fcmp(inst, func(a, b float64) bool { return a != b || math.IsNaN(a) || math.IsNaN(b) })
	case spirv.OpFOrdLessThan:
		return inv.fcmp(inst, func(a, b float64) bool { return a < b })
	case spirv.OpFUnordLessThan:
		return inv.fcmp(inst, func(a, b float64) bool { return !(a >= b) })
	case spirv.OpFOrdGreaterThan:
		return inv.fcmp(inst, func(a, b float64) bool { return a > b })
	case spirv.OpFUnordGreaterThan:
		return inv.fcmp(inst, func(a, b float64) bool { return !(a <= b) })
	case spirv.OpFOrdLessThanEqual:
		return inv.fcmp(inst, func(a, b float64) bool { return a <= b })
	case spirv.OpFUnordLessThanEqual:
		return inv.fcmp(inst, func(a, b float64) bool { return !(a > b) })
	case spirv.OpFOrdGreaterThanEqual:
		return inv.fcmp(inst, func(a, b float64) bool { return a >= b })
	case spirv.OpFUnordGreaterThanEqual:
		return inv.fcmp(inst, func(a, b float64) bool { return !(a < b) })
	case spirv.OpIsNan:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, boolU64(math.IsNaN(a.GetFloat64(lane))))
		}
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpIsInf:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, boolU64(math.IsInf(a.GetFloat64(lane), 0)))
		}
		inv.objects[inst.ResultID] = out
		return false

	// Logical.
	case spirv.OpAny:
		a := inv.objects[inst.Operand(0)]
		result := false
		for lane := 0; lane < laneCount(a.Type); lane++ {
			if a.GetUint64(lane) != 0 {
				result = true
				break
			}
		}
		out := ir.Zero(inst.ResultType)
		out.SetUint64(0, boolU64(result))
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpAll:
		a := inv.objects[inst.Operand(0)]
		result := true
		for lane := 0; lane < laneCount(a.Type); lane++ {
			if a.GetUint64(lane) == 0 {
				result = false
				break
			}
		}
		out := ir.Zero(inst.ResultType)
		out.SetUint64(0, boolU64(result))
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpLogicalAnd:
		return inv.ucmp2(inst, func(a, b bool) bool { return a && b })
	case spirv.OpLogicalOr:
		return inv.ucmp2(inst, func(a, b bool) bool { return a || b })
	case spirv.OpLogicalEqual:
		return inv.ucmp2(inst, func(a, b bool) bool { return a == b })
	case spirv.OpLogicalNotEqual:
		return inv.ucmp2(inst, func(a, b bool) bool { return a != b })
	case spirv.OpLogicalNot:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, boolU64(a.GetUint64(lane) == 0))
		}
		inv.objects[inst.ResultID] = out
		return false

	// Bitwise / shifts.
	case spirv.OpBitwiseAnd:
		return inv.ubinop(inst, func(a, b uint64) uint64 { return a & b })
	case spirv.OpBitwiseOr:
		return inv.ubinop(inst, func(a, b uint64) uint64 { return a | b })
	case spirv.OpBitwiseXor:
		return inv.ubinop(inst, func(a, b uint64) uint64 { return a ^ b })
	case spirv.OpNot:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, ^a.GetUint64(lane))
		}
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpShiftLeftLogical:
		return inv.ubinop(inst, func(a, b uint64) uint64 { return a << (b & 63) })
	case spirv.OpShiftRightLogical:
		return inv.ubinop(inst, func(a, b uint64) uint64 { return a >> (b & 63) })
	case spirv.OpShiftRightArithmetic:
		return inv.sbinop(inst, func(a, b int64) int64 { return a >> (uint64(b) & 63) })
	case spirv.OpBitCount:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, uint64(popcount(a.GetUint64(lane))))
		}
		inv.objects[inst.ResultID] = out
		return false

	// Conversions.
	case spirv.OpConvertFToU:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, uint64(a.GetFloat64(lane)))
		}
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpConvertFToS:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, uint64(int64(a.GetFloat64(lane))))
		}
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpConvertSToF:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetFloat64(lane, float64(a.GetInt64(lane)))
		}
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpConvertUToF:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetFloat64(lane, float64(a.GetUint64(lane)))
		}
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpUConvert:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, a.GetUint64(lane))
		}
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpSConvert:
		a := inv.objects[inst.Operand(0)]
		out := ir.Zero(inst.ResultType)
		for lane := 0; lane < laneCount(inst.ResultType); lane++ {
			out.SetUint64(lane, uint64(a.GetInt64(lane)))
		}
		inv.objects[inst.ResultID] = out
		return false
	case spirv.OpBitcast:
		// A pure reinterpretation: the operand and result types have the
		// same total size, so the backing bytes carry over unchanged even
		// when the two sides have different lane counts or widths.
		inv.objects[inst.ResultID] = ir.FromBytes(inst.ResultType, inv.objects[inst.Operand(0)].Data)
		return false
	case spirv.OpFConvert:
		return inv.funop(inst, func(a float64) float64 { return a })

	default:
		inv.dev.Abort(inv.info, inst, &device.StructuralError{
			Msg: fmt.Sprintf("unhandled opcode %d", inst.Opcode)})
		inv.finished = true
		return true
	}
}

// ucmp2 is the Bool-lane-only variant of ucmp for the logical family,
// which operates on 1-byte Bool scalars rather than integers.
func (inv *Invocation) ucmp2(inst *ir.Instruction, f func(a, b bool) bool) bool {
	a, b := inv.objects[inst.Operand(0)], inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	for lane := 0; lane < laneCount(inst.ResultType); lane++ {
		out.SetUint64(lane, boolU64(f(a.GetUint64(lane) != 0, b.GetUint64(lane) != 0)))
	}
	inv.objects[inst.ResultID] = out
	return false
}

func popcount(v uint64) int {
	n := 0
	for v != 0 {
		n++
		v &= v - 1
	}
	return n
}

func (inv *Invocation) executeSelect(inst *ir.Instruction) bool {
	cond := inv.objects[inst.Operand(0)]
	a := inv.objects[inst.Operand(1)]
	b := inv.objects[inst.Operand(2)]
	out := ir.Zero(inst.ResultType)
	n := laneCount(inst.ResultType)
	condIsVector := laneCount(cond.Type) == n && n > 1
	for lane := 0; lane < n; lane++ {
		c := cond.GetUint64(0) != 0
		if condIsVector {
			c = cond.GetUint64(lane) != 0
		}
		if c {
			out.SetUint64(lane, a.GetUint64(lane))
		} else {
			out.SetUint64(lane, b.GetUint64(lane))
		}
	}
	inv.objects[inst.ResultID] = out
	return false
}
