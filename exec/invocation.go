package exec

import (
	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/memory"
	"github.com/gogpu/talvos/spirv"
)

// State is an Invocation's scheduling state.
type State int

const (
	StateReady State = iota
	StateBarrier
	StateFinished
)

// frame is one entry of an Invocation's call stack: where to resume
// the caller, and where (if anywhere) to store the callee's return
// value.
type frame struct {
	callerFn    *ir.Function
	returnBlock *ir.Block
	returnIdx   int
	resultID    uint32
}

// Invocation is a single work-item's interpreter state. Each
// Invocation owns its own Private/Function-scope Memory, allocated
// once at construction, and its own Objects overlay seeded from the
// owning PipelineStage's resolved constants.
type Invocation struct {
	dev    *device.Device
	module *ir.Module
	fn     *ir.Function
	group  *Workgroup

	objects []ir.Object
	private *memory.Memory

	info device.InvocationInfo

	curBlock    *ir.Block
	curIdx      int
	prevBlockID uint32
	finished    bool
	atBarrier   bool

	phiPending map[uint32]ir.Object
	callStack  []frame
	allocStack [][]uint64
}

// newInvocation builds one full work-item of a running Workgroup:
// global/local/group ids, builtin Input variables, Private-storage
// module variables, and the entry function's first block as its
// initial instruction pointer.
func newInvocation(dev *device.Device, stage *PipelineStage, group *Workgroup, baseObjects []ir.Object, global, local, groupID ir.Dim3) *Invocation {
	inv := &Invocation{
		dev:        dev,
		module:     stage.Module,
		fn:         stage.Function,
		group:      group,
		objects:    cloneObjects(baseObjects),
		private:    memory.New(memory.ScopeInvocation, dev),
		phiPending: map[uint32]ir.Object{},
		allocStack: [][]uint64{nil},
		info: device.InvocationInfo{
			EntryPoint: stage.EntryPoint,
			Global:     global,
			Local:      local,
			Group:      groupID,
		},
	}
	inv.setupBuiltins(global, local, groupID)
	inv.setupPrivateVariables()
	inv.curBlock = inv.fn.FirstBlock()
	inv.curIdx = 0
	return inv
}

// newScratchInvocation builds the minimal standalone Invocation used
// to evaluate OpSpecConstantOp instructions before any workgroup
// exists: no group, no builtins, just enough state to run a single
// arithmetic/conversion/composite instruction against the module's
// (already spec-constant-overridden) Objects.
func newScratchInvocation(dev *device.Device, module *ir.Module, objects []ir.Object) *Invocation {
	return &Invocation{
		dev:        dev,
		module:     module,
		objects:    cloneObjects(objects),
		private:    memory.New(memory.ScopeInvocation, dev),
		phiPending: map[uint32]ir.Object{},
		allocStack: [][]uint64{nil},
	}
}

// evalSpecConstantOp unwraps one OpSpecConstantOp into the opcode and
// operands it wraps and dispatches it through the normal instruction
// handlers.
func (inv *Invocation) evalSpecConstantOp(inst *ir.Instruction) {
	wrapped := &ir.Instruction{
		Opcode:     ir.Opcode(inst.Operands[0]),
		Operands:   inst.Operands[1:],
		ResultType: inst.ResultType,
		ResultID:   inst.ResultID,
	}
	inv.dispatch(wrapped)
}

// State reports this invocation's current scheduling state.
func (inv *Invocation) State() State {
	switch {
	case inv.finished:
		return StateFinished
	case inv.atBarrier:
		return StateBarrier
	default:
		return StateReady
	}
}

// Global returns this invocation's global id, for Reporter/logging use.
func (inv *Invocation) Global() ir.Dim3 { return inv.info.Global }

// clearBarrier releases this invocation from BARRIER state once its
// whole workgroup has arrived at the same barrier.
func (inv *Invocation) clearBarrier() { inv.atBarrier = false }

// Step executes exactly one instruction. Callers must only call Step
// when State() == StateReady.
func (inv *Invocation) Step() {
	inst := inv.curBlock.Instructions[inv.curIdx]
	if len(inv.phiPending) > 0 && inst.Opcode != spirv.OpPhi && inst.Opcode != spirv.OpLine && inst.Opcode != spirv.OpNoLine {
		inv.flushPhi()
	}

	moved := inv.dispatch(inst)
	if !moved {
		inv.curIdx++
		if inv.curIdx >= len(inv.curBlock.Instructions) {
			inv.finished = true
		}
	}

	inv.dev.InstructionExecuted(inv.info, inst)

	if inv.finished {
		inv.dev.InvocationComplete(inv.info)
	}
}

func (inv *Invocation) flushPhi() {
	for id, obj := range inv.phiPending {
		inv.objects[id] = obj
	}
	inv.phiPending = map[uint32]ir.Object{}
}

func (inv *Invocation) moveToBlock(id uint32) {
	inv.prevBlockID = inv.curBlock.ID
	inv.curBlock = inv.fn.Block(id)
	inv.curIdx = 0
}

// getMemory routes a storage class to the Memory it lives in: buffer
// classes to the device-global Memory, Workgroup to the owning group's
// local Memory, everything else (Input/Private/Function/Output) to
// this invocation's own private Memory.
func (inv *Invocation) getMemory(class ir.AddressSpace) *memory.Memory {
	switch class {
	case ir.SpaceStorageBuffer, ir.SpaceUniform, ir.SpaceUniformConstant:
		return inv.dev.GlobalMemory
	case ir.SpaceWorkgroup:
		return inv.group.Memory
	default:
		return inv.private
	}
}

func (inv *Invocation) setupBuiltins(global, local, groupID ir.Dim3) {
	for _, v := range inv.module.InputVariables() {
		builtin, ok := v.Decoration(ir.Decoration(spirv.DecorationBuiltIn))
		if !ok {
			continue
		}
		pt := v.Type.Kind.(*ir.PointerType)
		addr := inv.private.Allocate(uint64(pt.Elem.Size))

		val := ir.Zero(pt.Elem)
		switch spirv.BuiltIn(builtin) {
		case spirv.BuiltInGlobalInvocationID:
			val.SetUint64(0, uint64(global.X))
			val.SetUint64(1, uint64(global.Y))
			val.SetUint64(2, uint64(global.Z))
		case spirv.BuiltInLocalInvocationID:
			val.SetUint64(0, uint64(local.X))
			val.SetUint64(1, uint64(local.Y))
			val.SetUint64(2, uint64(local.Z))
		case spirv.BuiltInWorkgroupID:
			val.SetUint64(0, uint64(groupID.X))
			val.SetUint64(1, uint64(groupID.Y))
			val.SetUint64(2, uint64(groupID.Z))
		case spirv.BuiltInNumWorkgroups:
			n := inv.group.NumGroups
			val.SetUint64(0, uint64(n.X))
			val.SetUint64(1, uint64(n.Y))
			val.SetUint64(2, uint64(n.Z))
		case spirv.BuiltInLocalInvocationIndex:
			size := inv.group.Stage.GroupSize
			idx := uint64(local.Z)*uint64(size.Y)*uint64(size.X) + uint64(local.Y)*uint64(size.X) + uint64(local.X)
			val.SetUint64(0, idx)
		}
		val.Store(inv.private, addr)

		ptr := ir.Zero(v.Type)
		ptr.SetUint64(0, addr)
		inv.objects[v.ID] = ptr
	}
}

func (inv *Invocation) setupPrivateVariables() {
	for _, v := range inv.module.PrivateVariables() {
		pt := v.Type.Kind.(*ir.PointerType)
		addr := inv.private.Allocate(uint64(pt.Elem.Size))
		if v.Initializer != 0 {
			inv.objects[v.Initializer].Store(inv.private, addr)
		}
		ptr := ir.Zero(v.Type)
		ptr.SetUint64(0, addr)
		inv.objects[v.ID] = ptr
	}
}

func laneCount(ty *ir.Type) int {
	if v, ok := ty.Kind.(*ir.VectorType); ok {
		return int(v.Count)
	}
	return 1
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
