package exec

import (
	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/memory"
)

// executeLoad implements OpLoad, routing through getMemory to find
// which of the three Memory scopes the pointer's storage class lives
// in.
func (inv *Invocation) executeLoad(inst *ir.Instruction) bool {
	ptr := inv.objects[inst.Operand(0)]
	pt := ptr.Type.Kind.(*ir.PointerType)
	mem := inv.getMemory(pt.StorageClass)
	inv.objects[inst.ResultID] = ir.Load(pt.Elem, mem, ptr.GetUint64(0))
	return false
}

// executeStore implements OpStore.
func (inv *Invocation) executeStore(inst *ir.Instruction) bool {
	ptr := inv.objects[inst.Operand(0)]
	val := inv.objects[inst.Operand(1)]
	pt := ptr.Type.Kind.(*ir.PointerType)
	mem := inv.getMemory(pt.StorageClass)
	val.Store(mem, ptr.GetUint64(0))
	return false
}

// executeCopyMemory implements OpCopyMemory: the pointee type's size is
// copied from the source pointer's address to the destination
// pointer's address, each routed to its own storage class's Memory.
func (inv *Invocation) executeCopyMemory(inst *ir.Instruction) bool {
	dst := inv.objects[inst.Operand(0)]
	src := inv.objects[inst.Operand(1)]
	dstPT := dst.Type.Kind.(*ir.PointerType)
	srcPT := src.Type.Kind.(*ir.PointerType)
	dstMem := inv.getMemory(dstPT.StorageClass)
	srcMem := inv.getMemory(srcPT.StorageClass)
	memory.Copy(dstMem, dst.GetUint64(0), srcMem, src.GetUint64(0), uint64(dstPT.Elem.Size))
	return false
}

// executeAccessChain implements OpAccessChain, OpInBoundsAccessChain,
// and (when ptrArith is set) OpPtrAccessChain: it walks a chain of
// indices through the pointee type, accumulating a byte offset from
// the base pointer's address, and produces a new pointer Object of the
// narrowed type.
func (inv *Invocation) executeAccessChain(inst *ir.Instruction, ptrArith bool) bool {
	base := inv.objects[inst.Operand(0)]
	basePT := base.Type.Kind.(*ir.PointerType)

	addr := base.GetUint64(0)
	curType := basePT.Elem
	idx := 1

	if ptrArith {
		n := inv.objects[inst.Operand(1)].GetInt64(0)
		addr += uint64(n) * uint64(basePT.Stride)
		idx = 2
	}

	for ; idx < inst.NumOperands(); idx++ {
		elemIdx := inv.objects[inst.Operand(idx)].GetUint64(0)
		addr += curType.ElementOffset(elemIdx)
		curType = curType.ElementType(elemIdx)
	}

	ptr := ir.Zero(inst.ResultType)
	ptr.SetUint64(0, addr)
	inv.objects[inst.ResultID] = ptr
	return false
}
