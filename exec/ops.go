package exec

import (
	"math"

	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/spirv"
)

// The helpers in this file implement the per-lane scalar/vector
// arithmetic, comparison, logical, and conversion opcodes: each
// resolves the operand width from the result type and applies a scalar
// function lane-by-lane, vectorizing for free since
// laneCount(scalar) == 1.

func (inv *Invocation) fbinop(inst *ir.Instruction, f func(a, b float64) float64) bool {
	a, b := inv.objects[inst.Operand(0)], inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	for lane := 0; lane < laneCount(inst.ResultType); lane++ {
		out.SetFloat64(lane, f(a.GetFloat64(lane), b.GetFloat64(lane)))
	}
	inv.objects[inst.ResultID] = out
	return false
}

func (inv *Invocation) funop(inst *ir.Instruction, f func(a float64) float64) bool {
	a := inv.objects[inst.Operand(0)]
	out := ir.Zero(inst.ResultType)
	for lane := 0; lane < laneCount(inst.ResultType); lane++ {
		out.SetFloat64(lane, f(a.GetFloat64(lane)))
	}
	inv.objects[inst.ResultID] = out
	return false
}

func (inv *Invocation) ubinop(inst *ir.Instruction, f func(a, b uint64) uint64) bool {
	a, b := inv.objects[inst.Operand(0)], inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	for lane := 0; lane < laneCount(inst.ResultType); lane++ {
		out.SetUint64(lane, f(a.GetUint64(lane), b.GetUint64(lane)))
	}
	inv.objects[inst.ResultID] = out
	return false
}

func (inv *Invocation) sbinop(inst *ir.Instruction, f func(a, b int64) int64) bool {
	a, b := inv.objects[inst.Operand(0)], inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	for lane := 0; lane < laneCount(inst.ResultType); lane++ {
		out.SetUint64(lane, uint64(f(a.GetInt64(lane), b.GetInt64(lane))))
	}
	inv.objects[inst.ResultID] = out
	return false
}

// fcmp, ucmp, and scmp run f over each lane of the two (possibly
// vector) float, unsigned, or signed operands of inst and write a
// Bool/BoolVector result, for the comparison family.
func (inv *Invocation) fcmp(inst *ir.Instruction, f func(a, b float64) bool) bool {
	a, b := inv.objects[inst.Operand(0)], inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	for lane := 0; lane < laneCount(inst.ResultType); lane++ {
		out.SetUint64(lane, boolU64(f(a.GetFloat64(lane), b.GetFloat64(lane))))
	}
	inv.objects[inst.ResultID] = out
	return false
}

func (inv *Invocation) ucmp(inst *ir.Instruction, f func(a, b uint64) bool) bool {
	a, b := inv.objects[inst.Operand(0)], inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	for lane := 0; lane < laneCount(inst.ResultType); lane++ {
		out.SetUint64(lane, boolU64(f(a.GetUint64(lane), b.GetUint64(lane))))
	}
	inv.objects[inst.ResultID] = out
	return false
}

func (inv *Invocation) scmp(inst *ir.Instruction, f func(a, b int64) bool) bool {
	a, b := inv.objects[inst.Operand(0)], inv.objects[inst.Operand(1)]
	out := ir.Zero(inst.ResultType)
	for lane := 0; lane < laneCount(inst.ResultType); lane++ {
		out.SetUint64(lane, boolU64(f(a.GetInt64(lane), b.GetInt64(lane))))
	}
	inv.objects[inst.ResultID] = out
	return false
}

// executeExtInst dispatches GLSL.std.450 extended instructions, the
// only extended instruction set this interpreter understands.
func (inv *Invocation) executeExtInst(inst *ir.Instruction) bool {
	// Operands: [set id, instruction number, operand ids...]
	extOp := inst.Operand(1)
	args := inst.Operands[2:]
	arg := func(i int) ir.Object { return inv.objects[args[i]] }

	out := ir.Zero(inst.ResultType)
	n := laneCount(inst.ResultType)

	unary := func(f func(float64) float64) {
		for lane := 0; lane < n; lane++ {
			out.SetFloat64(lane, f(arg(0).GetFloat64(lane)))
		}
	}
	binary := func(f func(a, b float64) float64) {
		for lane := 0; lane < n; lane++ {
			out.SetFloat64(lane, f(arg(0).GetFloat64(lane), arg(1).GetFloat64(lane)))
		}
	}

	switch extOp {
	case spirv.GLSLstd450Round:
		unary(math.Round)
	case spirv.GLSLstd450Trunc:
		unary(math.Trunc)
	case spirv.GLSLstd450FAbs:
		unary(math.Abs)
	case spirv.GLSLstd450SAbs:
		for lane := 0; lane < n; lane++ {
			v := arg(0).GetInt64(lane)
			if v < 0 {
				v = -v
			}
			out.SetUint64(lane, uint64(v))
		}
	case spirv.GLSLstd450FSign:
		unary(func(a float64) float64 {
			switch {
			case a > 0:
				return 1
			case a < 0:
				return -1
			default:
				return 0
			}
		})
	case spirv.GLSLstd450SSign:
		for lane := 0; lane < n; lane++ {
			v := arg(0).GetInt64(lane)
			switch {
			case v > 0:
				out.SetUint64(lane, 1)
			case v < 0:
				neg := int64(-1)
				out.SetUint64(lane, uint64(neg))
			default:
				out.SetUint64(lane, 0)
			}
		}
	case spirv.GLSLstd450Floor:
		unary(math.Floor)
	case spirv.GLSLstd450Ceil:
		unary(math.Ceil)
	case spirv.GLSLstd450Fract:
		unary(func(a float64) float64 { return a - math.Floor(a) })
	case spirv.GLSLstd450Sin:
		unary(math.Sin)
	case spirv.GLSLstd450Cos:
		unary(math.Cos)
	case spirv.GLSLstd450Tan:
		unary(math.Tan)
	case spirv.GLSLstd450Asin:
		unary(math.Asin)
	case spirv.GLSLstd450Acos:
		unary(math.Acos)
	case spirv.GLSLstd450Atan:
		unary(math.Atan)
	case spirv.GLSLstd450Sinh:
		unary(math.Sinh)
	case spirv.GLSLstd450Cosh:
		unary(math.Cosh)
	case spirv.GLSLstd450Tanh:
		unary(math.Tanh)
	case spirv.GLSLstd450Asinh:
		unary(math.Asinh)
	case spirv.GLSLstd450Acosh:
		unary(math.Acosh)
	case spirv.GLSLstd450Atanh:
		unary(math.Atanh)
	case spirv.GLSLstd450Atan2:
		binary(math.Atan2)
	case spirv.GLSLstd450Pow:
		binary(math.Pow)
	case spirv.GLSLstd450Exp:
		unary(math.Exp)
	case spirv.GLSLstd450Log:
		unary(math.Log)
	case spirv.GLSLstd450Exp2:
		unary(math.Exp2)
	case spirv.GLSLstd450Log2:
		unary(math.Log2)
	case spirv.GLSLstd450Sqrt:
		unary(math.Sqrt)
	case spirv.GLSLstd450InverseSqrt:
		unary(func(a float64) float64 { return 1 / math.Sqrt(a) })
	case spirv.GLSLstd450FMin:
		binary(math.Min)
	case spirv.GLSLstd450FMax:
		binary(math.Max)
	case spirv.GLSLstd450UMin:
		for lane := 0; lane < n; lane++ {
			out.SetUint64(lane, minU64(arg(0).GetUint64(lane), arg(1).GetUint64(lane)))
		}
	case spirv.GLSLstd450UMax:
		for lane := 0; lane < n; lane++ {
			out.SetUint64(lane, maxU64(arg(0).GetUint64(lane), arg(1).GetUint64(lane)))
		}
	case spirv.GLSLstd450SMin:
		for lane := 0; lane < n; lane++ {
			out.SetUint64(lane, uint64(minI64(arg(0).GetInt64(lane), arg(1).GetInt64(lane))))
		}
	case spirv.GLSLstd450SMax:
		for lane := 0; lane < n; lane++ {
			out.SetUint64(lane, uint64(maxI64(arg(0).GetInt64(lane), arg(1).GetInt64(lane))))
		}
	case spirv.GLSLstd450FClamp:
		for lane := 0; lane < n; lane++ {
			out.SetFloat64(lane, math.Min(math.Max(arg(0).GetFloat64(lane), arg(1).GetFloat64(lane)), arg(2).GetFloat64(lane)))
		}
	case spirv.GLSLstd450UClamp:
		for lane := 0; lane < n; lane++ {
			out.SetUint64(lane, minU64(maxU64(arg(0).GetUint64(lane), arg(1).GetUint64(lane)), arg(2).GetUint64(lane)))
		}
	case spirv.GLSLstd450SClamp:
		for lane := 0; lane < n; lane++ {
			out.SetUint64(lane, uint64(minI64(maxI64(arg(0).GetInt64(lane), arg(1).GetInt64(lane)), arg(2).GetInt64(lane))))
		}
	case spirv.GLSLstd450FMix:
		for lane := 0; lane < n; lane++ {
			x, y, a := arg(0).GetFloat64(lane), arg(1).GetFloat64(lane), arg(2).GetFloat64(lane)
			out.SetFloat64(lane, x*(1-a)+y*a)
		}
	case spirv.GLSLstd450Fma:
		for lane := 0; lane < n; lane++ {
			out.SetFloat64(lane, arg(0).GetFloat64(lane)*arg(1).GetFloat64(lane)+arg(2).GetFloat64(lane))
		}
	case spirv.GLSLstd450Length:
		sum := 0.0
		a0 := arg(0)
		for lane := 0; lane < laneCount(a0.Type); lane++ {
			v := a0.GetFloat64(lane)
			sum += v * v
		}
		out.SetFloat64(0, math.Sqrt(sum))
	case spirv.GLSLstd450Distance:
		sum := 0.0
		a0, a1 := arg(0), arg(1)
		for lane := 0; lane < laneCount(a0.Type); lane++ {
			d := a0.GetFloat64(lane) - a1.GetFloat64(lane)
			sum += d * d
		}
		out.SetFloat64(0, math.Sqrt(sum))
	case spirv.GLSLstd450Cross:
		a0, a1 := arg(0), arg(1)
		out.SetFloat64(0, a0.GetFloat64(1)*a1.GetFloat64(2)-a0.GetFloat64(2)*a1.GetFloat64(1))
		out.SetFloat64(1, a0.GetFloat64(2)*a1.GetFloat64(0)-a0.GetFloat64(0)*a1.GetFloat64(2))
		out.SetFloat64(2, a0.GetFloat64(0)*a1.GetFloat64(1)-a0.GetFloat64(1)*a1.GetFloat64(0))
	case spirv.GLSLstd450Normalize:
		a0 := arg(0)
		sum := 0.0
		for lane := 0; lane < laneCount(a0.Type); lane++ {
			v := a0.GetFloat64(lane)
			sum += v * v
		}
		length := math.Sqrt(sum)
		for lane := 0; lane < laneCount(a0.Type); lane++ {
			if length == 0 {
				out.SetFloat64(lane, 0)
			} else {
				out.SetFloat64(lane, a0.GetFloat64(lane)/length)
			}
		}
	}

	inv.objects[inst.ResultID] = out
	return false
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
