package exec

import (
	"github.com/gogpu/talvos/ir"
)

// executeBranchConditional implements OpBranchConditional: the
// condition selects which of the two labels to jump to, ignoring any
// branch-weight operands.
func (inv *Invocation) executeBranchConditional(inst *ir.Instruction) bool {
	cond := inv.objects[inst.Operand(0)].GetUint64(0) != 0
	if cond {
		inv.moveToBlock(inst.Operand(1))
	} else {
		inv.moveToBlock(inst.Operand(2))
	}
	return true
}

// executeSwitch implements OpSwitch: a 32-bit selector, a default
// label, then (literal, label) pairs; the first matching literal wins.
func (inv *Invocation) executeSwitch(inst *ir.Instruction) bool {
	selector := uint32(inv.objects[inst.Operand(0)].GetUint64(0))
	target := inst.Operand(1)
	for i := 2; i+1 < inst.NumOperands(); i += 2 {
		if inst.Operand(i) == selector {
			target = inst.Operand(i + 1)
			break
		}
	}
	inv.moveToBlock(target)
	return true
}

// executePhi implements OpPhi's "stage then flush" semantics: the
// value chosen for the edge this invocation actually took is staged in
// phiPending, not committed to objects immediately, since a block can
// contain several Phi instructions that must all observe each other's
// pre-Phi values (matching the concurrent-assignment semantics SPIR-V
// requires of a run of OpPhi at the top of a block). Step flushes
// phiPending the moment a non-Phi instruction is about to run.
func (inv *Invocation) executePhi(inst *ir.Instruction) bool {
	for i := 0; i+1 < inst.NumOperands(); i += 2 {
		if inst.Operand(i+1) == inv.prevBlockID {
			inv.phiPending[inst.ResultID] = inv.objects[inst.Operand(i)].Clone()
			return false
		}
	}
	return false
}

// executeFunctionCall implements OpFunctionCall: it binds the callee's
// parameters, pushes a return frame recording where to resume and
// where to store the result, and opens a new Function-scope allocation
// frame so the callee's local OpVariable allocations can be released
// on return.
func (inv *Invocation) executeFunctionCall(inst *ir.Instruction) bool {
	calleeID := inst.Operand(0)
	callee := inv.module.Function(calleeID)

	inv.callStack = append(inv.callStack, frame{
		callerFn:    inv.fn,
		returnBlock: inv.curBlock,
		returnIdx:   inv.curIdx + 1,
		resultID:    inst.ResultID,
	})
	inv.allocStack = append(inv.allocStack, nil)

	for i, paramID := range callee.Params {
		inv.objects[paramID] = inv.objects[inst.Operand(1+i)].Clone()
	}

	inv.fn = callee
	inv.curBlock = callee.FirstBlock()
	inv.curIdx = 0
	return true
}

// executeReturn implements OpReturn (void return).
func (inv *Invocation) executeReturn() bool {
	return inv.doReturn(nil)
}

// executeReturnValue implements OpReturnValue.
func (inv *Invocation) executeReturnValue(inst *ir.Instruction) bool {
	val := inv.objects[inst.Operand(0)].Clone()
	return inv.doReturn(&val)
}

// doReturn pops the current call frame (if any), releases every
// Function-scope allocation the returning call made, resumes the
// caller at its recorded position, and stores the return value if the
// call was used as an operand. Returning from the entry function
// (empty call stack) finishes the invocation instead.
func (inv *Invocation) doReturn(retVal *ir.Object) bool {
	if len(inv.allocStack) > 0 {
		top := inv.allocStack[len(inv.allocStack)-1]
		inv.allocStack = inv.allocStack[:len(inv.allocStack)-1]
		for _, addr := range top {
			inv.private.Release(addr)
		}
	}

	if len(inv.callStack) == 0 {
		inv.finished = true
		return true
	}

	f := inv.callStack[len(inv.callStack)-1]
	inv.callStack = inv.callStack[:len(inv.callStack)-1]

	inv.fn = f.callerFn
	inv.curBlock = f.returnBlock
	inv.curIdx = f.returnIdx
	if f.resultID != 0 && retVal != nil {
		inv.objects[f.resultID] = *retVal
	}
	return true
}

// executeControlBarrier implements OpControlBarrier. It only marks this
// invocation as waiting; the instruction pointer is still advanced past
// it by Step's generic fall-through (moved == false), so the barrier
// instruction is retired the moment an invocation reaches it and every
// waiter resumes at the instruction after it. Re-running the same
// OpControlBarrier after the barrier clears would either deadlock
// (every invocation immediately re-waits) or require threading the
// advance into Workgroup.Run's clear step instead.
func (inv *Invocation) executeControlBarrier(inst *ir.Instruction) bool {
	inv.atBarrier = true
	return false
}

// executeVariable implements OpVariable used as a function-local
// declaration (module-scope OpVariable is handled ahead of time by
// setupBuiltins/setupPrivateVariables). Its storage is always routed to
// this invocation's private Memory and is released when the enclosing
// call returns.
func (inv *Invocation) executeVariable(inst *ir.Instruction) bool {
	pt := inst.ResultType.Kind.(*ir.PointerType)
	addr := inv.private.Allocate(uint64(pt.Elem.Size))

	if inst.NumOperands() > 1 {
		inv.objects[inst.Operand(1)].Store(inv.private, addr)
	}

	if len(inv.allocStack) > 0 {
		top := len(inv.allocStack) - 1
		inv.allocStack[top] = append(inv.allocStack[top], addr)
	}

	ptr := ir.Zero(inst.ResultType)
	ptr.SetUint64(0, addr)
	inv.objects[inst.ResultID] = ptr
	return false
}
