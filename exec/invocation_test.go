package exec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/spirv"
)

// buildNestedCallModule builds an entry point that calls a helper
// function twice; the helper declares a Function-storage local, stores
// seven into it, and returns the loaded value plus seven (14).
func buildNestedCallModule() *ir.Module {
	uintTy := ir.NewInt(32, false)
	tmpPtr := ir.NewPointer(ir.SpaceFunction, uintTy, 4)

	const (
		constSeven = 40

		call1 = 50
		call2 = 51

		tmpVar  = 100
		tmpLoad = 101
		retVal  = 102
	)

	m := ir.NewModule(128)
	m.Objects[constSeven] = ir.FromBytes(uintTy, []byte{7, 0, 0, 0})

	callee := []*ir.Instruction{
		{Opcode: spirv.OpVariable, ResultType: tmpPtr, ResultID: tmpVar, Operands: []uint32{uint32(ir.SpaceFunction)}},
		{Opcode: spirv.OpStore, Operands: []uint32{tmpVar, constSeven}},
		{Opcode: spirv.OpLoad, ResultType: uintTy, ResultID: tmpLoad, Operands: []uint32{tmpVar}},
		{Opcode: spirv.OpIAdd, ResultType: uintTy, ResultID: retVal, Operands: []uint32{tmpLoad, constSeven}},
		{Opcode: spirv.OpReturnValue, Operands: []uint32{retVal}},
	}
	main := []*ir.Instruction{
		{Opcode: spirv.OpFunctionCall, ResultType: uintTy, ResultID: call1, Operands: []uint32{2}},
		{Opcode: spirv.OpFunctionCall, ResultType: uintTy, ResultID: call2, Operands: []uint32{2}},
		{Opcode: spirv.OpReturn},
	}

	m.Functions[1] = &ir.Function{
		ID:           1,
		FirstBlockID: 2,
		Blocks:       map[uint32]*ir.Block{2: {ID: 2, Instructions: main}},
	}
	m.Functions[2] = &ir.Function{
		ID:           2,
		FirstBlockID: 3,
		Blocks:       map[uint32]*ir.Block{3: {ID: 3, Instructions: callee}},
	}
	m.EntryPoints["main"] = 1
	m.LocalSizes[1] = ir.Dim3{X: 1, Y: 1, Z: 1}
	return m
}

// TestReturnReleasesFunctionScopeAllocations drives a single invocation
// by hand and watches its private Memory: the callee's OpVariable must
// allocate while the call is live, and every such allocation must be
// released by the time the matching return has executed, leaving the
// private allocation count back where it started.
func TestReturnReleasesFunctionScopeAllocations(t *testing.T) {
	m := buildNestedCallModule()
	dev := device.New(device.Config{NumWorkers: 1}, nil)

	stage, err := NewPipelineStage(dev, m, "main", nil)
	require.NoError(t, err)

	wg := newWorkgroup(dev, stage, cloneObjects(stage.Objects), ir.Dim3{}, ir.Dim3{X: 1, Y: 1, Z: 1})
	require.Len(t, wg.invocations, 1)
	inv := wg.invocations[0]

	base := inv.private.AllocationCount()
	sawCalleeAllocation := false
	for inv.State() == StateReady {
		inv.Step()
		if inv.private.AllocationCount() > base {
			sawCalleeAllocation = true
		}
	}

	require.Equal(t, StateFinished, inv.State())
	require.True(t, sawCalleeAllocation, "the callee's OpVariable should have allocated private memory")
	require.Equal(t, base, inv.private.AllocationCount(), "function-scope allocations must be released on return")
	require.Equal(t, uint64(14), inv.objects[50].GetUint64(0))
	require.Equal(t, uint64(14), inv.objects[51].GetUint64(0))
}
