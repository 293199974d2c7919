package exec_test

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/exec"
	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/spirv"
)

func f32bytes(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func readF32(data []byte, lane int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[lane*4:]))
}

// buildVectorAddModule builds a one-block compute shader equivalent to
//
//	c[gid.x] = a[gid.x] + b[gid.x]
//
// across a single workgroup of localSize invocations, exercising
// OpAccessChain through a struct/runtime-array, builtin input lookup,
// OpLoad/OpStore, and OpFAdd.
func buildVectorAddModule(localSize uint32) *ir.Module {
	floatTy := ir.NewFloat(32)
	uintTy := ir.NewInt(32, false)
	uvec3 := ir.NewVector(uintTy, 3)
	runtimeArr := ir.NewRuntimeArray(floatTy, 4)
	bufStruct := ir.NewStruct([]ir.StructMember{{Type: runtimeArr, Offset: 0}})
	bufPtr := ir.NewPointer(ir.SpaceStorageBuffer, bufStruct, 4)
	inputVecPtr := ir.NewPointer(ir.SpaceInput, uvec3, 12)
	inputScalarPtr := ir.NewPointer(ir.SpaceInput, uintTy, 4)
	storageScalarPtr := ir.NewPointer(ir.SpaceStorageBuffer, floatTy, 4)

	const (
		varA   = 10
		varB   = 11
		varC   = 12
		varGID = 20

		constZero = 40 // uint32 0, selects the struct's sole member
		constIdx0 = 41 // uint32 0, selects the x component of gl_GlobalInvocationID

		idxChainID = 50
		idxValID   = 51
		aChainID   = 52
		bChainID   = 53
		aValID     = 54
		bValID     = 55
		sumID      = 56
		cChainID   = 57

		fnID    = 1
		blockID = 2
	)

	m := ir.NewModule(64)
	m.Objects[constZero] = ir.FromBytes(uintTy, []byte{0, 0, 0, 0})
	m.Objects[constIdx0] = ir.FromBytes(uintTy, []byte{0, 0, 0, 0})

	m.Variables = []*ir.Variable{
		{ID: varA, Type: bufPtr, Decorations: map[ir.Decoration]uint32{ir.DecorationDescriptorSet: 0, ir.DecorationBinding: 0}},
		{ID: varB, Type: bufPtr, Decorations: map[ir.Decoration]uint32{ir.DecorationDescriptorSet: 0, ir.DecorationBinding: 1}},
		{ID: varC, Type: bufPtr, Decorations: map[ir.Decoration]uint32{ir.DecorationDescriptorSet: 0, ir.DecorationBinding: 2}},
		{ID: varGID, Type: inputVecPtr, Decorations: map[ir.Decoration]uint32{ir.Decoration(spirv.DecorationBuiltIn): uint32(spirv.BuiltInGlobalInvocationID)}},
	}

	instructions := []*ir.Instruction{
		{Opcode: spirv.OpAccessChain, ResultType: inputScalarPtr, ResultID: idxChainID, Operands: []uint32{varGID, constIdx0}},
		{Opcode: spirv.OpLoad, ResultType: uintTy, ResultID: idxValID, Operands: []uint32{idxChainID}},
		{Opcode: spirv.OpAccessChain, ResultType: storageScalarPtr, ResultID: aChainID, Operands: []uint32{varA, constZero, idxValID}},
		{Opcode: spirv.OpAccessChain, ResultType: storageScalarPtr, ResultID: bChainID, Operands: []uint32{varB, constZero, idxValID}},
		{Opcode: spirv.OpLoad, ResultType: floatTy, ResultID: aValID, Operands: []uint32{aChainID}},
		{Opcode: spirv.OpLoad, ResultType: floatTy, ResultID: bValID, Operands: []uint32{bChainID}},
		{Opcode: spirv.OpFAdd, ResultType: floatTy, ResultID: sumID, Operands: []uint32{aValID, bValID}},
		{Opcode: spirv.OpAccessChain, ResultType: storageScalarPtr, ResultID: cChainID, Operands: []uint32{varC, constZero, idxValID}},
		{Opcode: spirv.OpStore, Operands: []uint32{cChainID, sumID}},
		{Opcode: spirv.OpReturn},
	}

	m.Functions[fnID] = &ir.Function{
		ID:           fnID,
		FirstBlockID: blockID,
		Blocks:       map[uint32]*ir.Block{blockID: {ID: blockID, Instructions: instructions}},
	}
	m.EntryPoints["main"] = fnID
	m.LocalSizes[fnID] = ir.Dim3{X: localSize, Y: 1, Z: 1}
	return m
}

func newTestDevice() *device.Device {
	return device.New(device.Config{NumWorkers: 1}, nil)
}

func TestExecutorRunVectorAdd(t *testing.T) {
	const n = 4
	m := buildVectorAddModule(n)
	dev := newTestDevice()

	aVals := []float32{1, 2, 3, 4}
	bVals := []float32{10, 20, 30, 40}

	addrA := dev.GlobalMemory.Allocate(n * 4)
	addrB := dev.GlobalMemory.Allocate(n * 4)
	addrC := dev.GlobalMemory.Allocate(n * 4)
	for i, v := range aVals {
		dev.GlobalMemory.Store(addrA+uint64(i*4), f32bytes(v))
	}
	for i, v := range bVals {
		dev.GlobalMemory.Store(addrB+uint64(i*4), f32bytes(v))
	}

	ex := exec.NewExecutor(dev, m)
	desc := exec.Description{
		EntryPoint: "main",
		NumGroups:  ir.Dim3{X: 1, Y: 1, Z: 1},
		Bindings: []exec.BufferBinding{
			{Set: 0, Binding: 0, Address: addrA},
			{Set: 0, Binding: 1, Address: addrB},
			{Set: 0, Binding: 2, Address: addrC},
		},
	}

	require.NoError(t, ex.Run(context.Background(), desc))

	out := dev.GlobalMemory.Map(addrC, n*4)
	require.NotNil(t, out)
	for i := 0; i < n; i++ {
		assert.InDelta(t, aVals[i]+bVals[i], readF32(out, i), 1e-6)
	}
}

func TestExecutorReportsMissingDescriptor(t *testing.T) {
	const n = 4
	m := buildVectorAddModule(n)
	dev := newTestDevice()
	counting := &device.CountingObserver{}
	dev.AddObserver(counting)

	addrA := dev.GlobalMemory.Allocate(n * 4)
	addrC := dev.GlobalMemory.Allocate(n * 4)

	ex := exec.NewExecutor(dev, m)
	desc := exec.Description{
		EntryPoint: "main",
		NumGroups:  ir.Dim3{X: 1, Y: 1, Z: 1},
		Bindings: []exec.BufferBinding{
			{Set: 0, Binding: 0, Address: addrA},
			// binding 1 deliberately left unresolved
			{Set: 0, Binding: 2, Address: addrC},
		},
	}

	require.NoError(t, ex.Run(context.Background(), desc))
	assert.Greater(t, counting.MemoryErrors, int64(0), "loading through the unresolved binding's null pointer should report an access error")
}

// buildBarrierSwapModule builds a two-invocation workgroup that writes
// its own global id into shared[local.x], barriers, then reads back
// shared[1-local.x] into an output buffer — the classic barrier
// correctness check (S2): without the barrier an invocation could read
// its neighbor's slot before it was written.
func buildBarrierSwapModule() *ir.Module {
	uintTy := ir.NewInt(32, false)
	uvec3 := ir.NewVector(uintTy, 3)
	sharedArr := ir.NewArray(uintTy, 2, 4)
	sharedPtr := ir.NewPointer(ir.SpaceWorkgroup, sharedArr, 8)
	sharedElemPtr := ir.NewPointer(ir.SpaceWorkgroup, uintTy, 4)
	runtimeArr := ir.NewRuntimeArray(uintTy, 4)
	outStruct := ir.NewStruct([]ir.StructMember{{Type: runtimeArr, Offset: 0}})
	outPtr := ir.NewPointer(ir.SpaceStorageBuffer, outStruct, 4)
	outElemPtr := ir.NewPointer(ir.SpaceStorageBuffer, uintTy, 4)
	inputVecPtr := ir.NewPointer(ir.SpaceInput, uvec3, 12)
	inputScalarPtr := ir.NewPointer(ir.SpaceInput, uintTy, 4)

	const (
		varShared = 10
		varOut    = 11
		varLID    = 20
		varGID    = 21

		constZero = 40
		constOne  = 41

		lidChain = 50
		lidVal   = 51
		gidChain = 52
		gidVal   = 53
		dstChain = 54
		oneMinus = 55
		srcChain = 56
		loaded   = 57
		outChain = 58

		scopeDevice = 60
		semNone     = 61

		fnID    = 1
		blockID = 2
	)

	m := ir.NewModule(128)
	m.Objects[constZero] = ir.FromBytes(uintTy, []byte{0, 0, 0, 0})
	m.Objects[constOne] = ir.FromBytes(uintTy, []byte{1, 0, 0, 0})
	m.Objects[scopeDevice] = ir.FromBytes(uintTy, []byte{1, 0, 0, 0}) // Workgroup scope = 2 per SPIR-V, value unused by this interpreter
	m.Objects[semNone] = ir.FromBytes(uintTy, []byte{0, 0, 0, 0})

	m.Variables = []*ir.Variable{
		{ID: varShared, Type: sharedPtr, Decorations: map[ir.Decoration]uint32{}},
		{ID: varOut, Type: outPtr, Decorations: map[ir.Decoration]uint32{ir.DecorationDescriptorSet: 0, ir.DecorationBinding: 0}},
		{ID: varLID, Type: inputVecPtr, Decorations: map[ir.Decoration]uint32{ir.Decoration(spirv.DecorationBuiltIn): uint32(spirv.BuiltInLocalInvocationID)}},
		{ID: varGID, Type: inputVecPtr, Decorations: map[ir.Decoration]uint32{ir.Decoration(spirv.DecorationBuiltIn): uint32(spirv.BuiltInGlobalInvocationID)}},
	}

	instructions := []*ir.Instruction{
		{Opcode: spirv.OpAccessChain, ResultType: inputScalarPtr, ResultID: lidChain, Operands: []uint32{varLID, constZero}},
		{Opcode: spirv.OpLoad, ResultType: uintTy, ResultID: lidVal, Operands: []uint32{lidChain}},
		{Opcode: spirv.OpAccessChain, ResultType: inputScalarPtr, ResultID: gidChain, Operands: []uint32{varGID, constZero}},
		{Opcode: spirv.OpLoad, ResultType: uintTy, ResultID: gidVal, Operands: []uint32{gidChain}},
		{Opcode: spirv.OpAccessChain, ResultType: sharedElemPtr, ResultID: dstChain, Operands: []uint32{varShared, lidVal}},
		{Opcode: spirv.OpStore, Operands: []uint32{dstChain, gidVal}},
		{Opcode: spirv.OpControlBarrier, Operands: []uint32{scopeDevice, scopeDevice, semNone}},
		{Opcode: spirv.OpISub, ResultType: uintTy, ResultID: oneMinus, Operands: []uint32{constOne, lidVal}},
		{Opcode: spirv.OpAccessChain, ResultType: sharedElemPtr, ResultID: srcChain, Operands: []uint32{varShared, oneMinus}},
		{Opcode: spirv.OpLoad, ResultType: uintTy, ResultID: loaded, Operands: []uint32{srcChain}},
		{Opcode: spirv.OpAccessChain, ResultType: outElemPtr, ResultID: outChain, Operands: []uint32{varOut, constZero, lidVal}},
		{Opcode: spirv.OpStore, Operands: []uint32{outChain, loaded}},
		{Opcode: spirv.OpReturn},
	}

	m.Functions[fnID] = &ir.Function{
		ID:           fnID,
		FirstBlockID: blockID,
		Blocks:       map[uint32]*ir.Block{blockID: {ID: blockID, Instructions: instructions}},
	}
	m.EntryPoints["main"] = fnID
	m.LocalSizes[fnID] = ir.Dim3{X: 2, Y: 1, Z: 1}
	return m
}

func TestBarrierSynchronizesWorkgroup(t *testing.T) {
	m := buildBarrierSwapModule()
	dev := newTestDevice()

	addrOut := dev.GlobalMemory.Allocate(2 * 4)

	ex := exec.NewExecutor(dev, m)
	desc := exec.Description{
		EntryPoint: "main",
		NumGroups:  ir.Dim3{X: 1, Y: 1, Z: 1},
		Bindings: []exec.BufferBinding{
			{Set: 0, Binding: 0, Address: addrOut},
		},
	}

	require.NoError(t, ex.Run(context.Background(), desc))

	out := dev.GlobalMemory.Map(addrOut, 2*4)
	require.NotNil(t, out)
	// Invocation 0 (global id 0) should read back invocation 1's global
	// id, and vice versa — only possible if every invocation reached
	// the barrier before any of them read shared memory.
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(out[0:4]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(out[4:8]))
}

// TestPipelineStageAppliesSpecConstantOverride covers S6: a
// specialization constant override must flow through an
// OpSpecConstantOp before the pipeline stage's resolved Objects are
// used by any invocation.
func TestPipelineStageAppliesSpecConstantOverride(t *testing.T) {
	uintTy := ir.NewInt(32, false)

	const (
		specConstID = 10 // default value 2, SpecId 0
		literalID   = 11 // ordinary constant 3
		sumID       = 12 // OpSpecConstantOp IAdd specConstID literalID

		fnID    = 1
		blockID = 2
	)

	m := ir.NewModule(32)
	m.Objects[specConstID] = ir.FromBytes(uintTy, []byte{2, 0, 0, 0})
	m.Objects[literalID] = ir.FromBytes(uintTy, []byte{3, 0, 0, 0})
	m.SpecConstants[0] = specConstID
	m.SpecConstantOps = []*ir.Instruction{
		{Opcode: spirv.OpSpecConstantOp, ResultType: uintTy, ResultID: sumID,
			Operands: []uint32{uint32(spirv.OpIAdd), specConstID, literalID}},
	}
	m.Functions[fnID] = &ir.Function{
		ID:           fnID,
		FirstBlockID: blockID,
		Blocks: map[uint32]*ir.Block{blockID: {ID: blockID, Instructions: []*ir.Instruction{
			{Opcode: spirv.OpReturn},
		}}},
	}
	m.EntryPoints["main"] = fnID
	m.LocalSizes[fnID] = ir.Dim3{X: 1, Y: 1, Z: 1}

	dev := newTestDevice()

	def, err := exec.NewPipelineStage(dev, m, "main", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), def.Objects[sumID].GetUint64(0))

	override := ir.FromBytes(uintTy, []byte{10, 0, 0, 0})
	stage, err := exec.NewPipelineStage(dev, m, "main", map[uint32]ir.Object{0: override})
	require.NoError(t, err)
	assert.Equal(t, uint64(13), stage.Objects[sumID].GetUint64(0))
}

// buildCallModule builds scenario S3: a callee function f(x) that
// declares a Function-storage local `tmp`, computes `tmp = x*x`, and
// returns `tmp+1`; main calls f(local_id) twice and writes the sum to
// Out[global_id]. This exercises OpFunctionCall's parameter binding,
// Function-scope OpVariable allocation/release across a call, and
// OpReturnValue resuming the caller with a result in place.
func buildCallModule() *ir.Module {
	uintTy := ir.NewInt(32, false)
	uvec3 := ir.NewVector(uintTy, 3)
	runtimeArr := ir.NewRuntimeArray(uintTy, 4)
	outStruct := ir.NewStruct([]ir.StructMember{{Type: runtimeArr, Offset: 0}})
	outPtr := ir.NewPointer(ir.SpaceStorageBuffer, outStruct, 4)
	outElemPtr := ir.NewPointer(ir.SpaceStorageBuffer, uintTy, 4)
	inputVecPtr := ir.NewPointer(ir.SpaceInput, uvec3, 12)
	inputScalarPtr := ir.NewPointer(ir.SpaceInput, uintTy, 4)
	tmpPtr := ir.NewPointer(ir.SpaceFunction, uintTy, 4)

	const (
		varOut = 10
		varLID = 11
		varGID = 12

		constZero = 40
		constOne  = 41

		// main (fnID = 1, block = 2)
		lidChain = 50
		lidVal   = 51
		gidChain = 52
		gidVal   = 53
		call1    = 54
		call2    = 55
		sum      = 56
		outChain = 57

		// f (fnID = 2, block = 3), param x = 100
		paramX  = 100
		tmpVar  = 101
		sq      = 102
		tmpLoad = 103
		retVal  = 104
	)

	m := ir.NewModule(256)
	m.Objects[constZero] = ir.FromBytes(uintTy, []byte{0, 0, 0, 0})
	m.Objects[constOne] = ir.FromBytes(uintTy, []byte{1, 0, 0, 0})

	m.Variables = []*ir.Variable{
		{ID: varOut, Type: outPtr, Decorations: map[ir.Decoration]uint32{ir.DecorationDescriptorSet: 0, ir.DecorationBinding: 0}},
		{ID: varLID, Type: inputVecPtr, Decorations: map[ir.Decoration]uint32{ir.Decoration(spirv.DecorationBuiltIn): uint32(spirv.BuiltInLocalInvocationID)}},
		{ID: varGID, Type: inputVecPtr, Decorations: map[ir.Decoration]uint32{ir.Decoration(spirv.DecorationBuiltIn): uint32(spirv.BuiltInGlobalInvocationID)}},
	}

	calleeInstructions := []*ir.Instruction{
		{Opcode: spirv.OpVariable, ResultType: tmpPtr, ResultID: tmpVar, Operands: []uint32{uint32(ir.SpaceFunction)}},
		{Opcode: spirv.OpIMul, ResultType: uintTy, ResultID: sq, Operands: []uint32{paramX, paramX}},
		{Opcode: spirv.OpStore, Operands: []uint32{tmpVar, sq}},
		{Opcode: spirv.OpLoad, ResultType: uintTy, ResultID: tmpLoad, Operands: []uint32{tmpVar}},
		{Opcode: spirv.OpIAdd, ResultType: uintTy, ResultID: retVal, Operands: []uint32{tmpLoad, constOne}},
		{Opcode: spirv.OpReturnValue, Operands: []uint32{retVal}},
	}

	mainInstructions := []*ir.Instruction{
		{Opcode: spirv.OpAccessChain, ResultType: inputScalarPtr, ResultID: lidChain, Operands: []uint32{varLID, constZero}},
		{Opcode: spirv.OpLoad, ResultType: uintTy, ResultID: lidVal, Operands: []uint32{lidChain}},
		{Opcode: spirv.OpAccessChain, ResultType: inputScalarPtr, ResultID: gidChain, Operands: []uint32{varGID, constZero}},
		{Opcode: spirv.OpLoad, ResultType: uintTy, ResultID: gidVal, Operands: []uint32{gidChain}},
		{Opcode: spirv.OpFunctionCall, ResultType: uintTy, ResultID: call1, Operands: []uint32{2, lidVal}},
		{Opcode: spirv.OpFunctionCall, ResultType: uintTy, ResultID: call2, Operands: []uint32{2, lidVal}},
		{Opcode: spirv.OpIAdd, ResultType: uintTy, ResultID: sum, Operands: []uint32{call1, call2}},
		{Opcode: spirv.OpAccessChain, ResultType: outElemPtr, ResultID: outChain, Operands: []uint32{varOut, constZero, gidVal}},
		{Opcode: spirv.OpStore, Operands: []uint32{outChain, sum}},
		{Opcode: spirv.OpReturn},
	}

	m.Functions[1] = &ir.Function{
		ID:           1,
		FirstBlockID: 2,
		Blocks:       map[uint32]*ir.Block{2: {ID: 2, Instructions: mainInstructions}},
	}
	m.Functions[2] = &ir.Function{
		ID:           2,
		Params:       []uint32{paramX},
		FirstBlockID: 3,
		Blocks:       map[uint32]*ir.Block{3: {ID: 3, Instructions: calleeInstructions}},
	}
	m.EntryPoints["main"] = 1
	m.LocalSizes[1] = ir.Dim3{X: 5, Y: 1, Z: 1}
	return m
}

func TestFunctionCallWithPrivateAllocation(t *testing.T) {
	const n = 5
	m := buildCallModule()
	dev := newTestDevice()

	addrOut := dev.GlobalMemory.Allocate(n * 4)

	ex := exec.NewExecutor(dev, m)
	desc := exec.Description{
		EntryPoint: "main",
		NumGroups:  ir.Dim3{X: 1, Y: 1, Z: 1},
		Bindings: []exec.BufferBinding{
			{Set: 0, Binding: 0, Address: addrOut},
		},
	}

	require.NoError(t, ex.Run(context.Background(), desc))

	out := dev.GlobalMemory.Map(addrOut, n*4)
	require.NotNil(t, out)
	for i := 0; i < n; i++ {
		want := uint32(2 * (i*i + 1))
		assert.Equal(t, want, binary.LittleEndian.Uint32(out[i*4:i*4+4]))
	}
}

// buildPhiModule builds scenario S5: a structured if/else that picks
// between two literals through OpPhi, then writes the chosen value to
// Out[global_id] — `r = (global_id.x & 1) ? 7 : 9`.
func buildPhiModule() *ir.Module {
	uintTy := ir.NewInt(32, false)
	uvec3 := ir.NewVector(uintTy, 3)
	runtimeArr := ir.NewRuntimeArray(uintTy, 4)
	outStruct := ir.NewStruct([]ir.StructMember{{Type: runtimeArr, Offset: 0}})
	outPtr := ir.NewPointer(ir.SpaceStorageBuffer, outStruct, 4)
	outElemPtr := ir.NewPointer(ir.SpaceStorageBuffer, uintTy, 4)
	inputVecPtr := ir.NewPointer(ir.SpaceInput, uvec3, 12)
	inputScalarPtr := ir.NewPointer(ir.SpaceInput, uintTy, 4)

	const (
		varOut = 10
		varGID = 11

		constZero = 40
		constOne  = 41
		sevenID   = 42
		nineID    = 43

		gidChain = 50
		gidVal   = 51
		andRes   = 52
		cmpRes   = 53
		phiRes   = 54
		outChain = 55

		headBlock  = 2
		thenBlock  = 3
		elseBlock  = 4
		mergeBlock = 5
	)

	m := ir.NewModule(256)
	m.Objects[constZero] = ir.FromBytes(uintTy, []byte{0, 0, 0, 0})
	m.Objects[constOne] = ir.FromBytes(uintTy, []byte{1, 0, 0, 0})
	m.Objects[sevenID] = ir.FromBytes(uintTy, []byte{7, 0, 0, 0})
	m.Objects[nineID] = ir.FromBytes(uintTy, []byte{9, 0, 0, 0})

	m.Variables = []*ir.Variable{
		{ID: varOut, Type: outPtr, Decorations: map[ir.Decoration]uint32{ir.DecorationDescriptorSet: 0, ir.DecorationBinding: 0}},
		{ID: varGID, Type: inputVecPtr, Decorations: map[ir.Decoration]uint32{ir.Decoration(spirv.DecorationBuiltIn): uint32(spirv.BuiltInGlobalInvocationID)}},
	}

	boolTy := ir.NewBool()

	head := []*ir.Instruction{
		{Opcode: spirv.OpAccessChain, ResultType: inputScalarPtr, ResultID: gidChain, Operands: []uint32{varGID, constZero}},
		{Opcode: spirv.OpLoad, ResultType: uintTy, ResultID: gidVal, Operands: []uint32{gidChain}},
		{Opcode: spirv.OpBitwiseAnd, ResultType: uintTy, ResultID: andRes, Operands: []uint32{gidVal, constOne}},
		{Opcode: spirv.OpINotEqual, ResultType: boolTy, ResultID: cmpRes, Operands: []uint32{andRes, constZero}},
		{Opcode: spirv.OpBranchConditional, Operands: []uint32{cmpRes, thenBlock, elseBlock}},
	}
	thenB := []*ir.Instruction{
		{Opcode: spirv.OpBranch, Operands: []uint32{mergeBlock}},
	}
	elseB := []*ir.Instruction{
		{Opcode: spirv.OpBranch, Operands: []uint32{mergeBlock}},
	}
	merge := []*ir.Instruction{
		{Opcode: spirv.OpPhi, ResultType: uintTy, ResultID: phiRes, Operands: []uint32{sevenID, thenBlock, nineID, elseBlock}},
		{Opcode: spirv.OpAccessChain, ResultType: outElemPtr, ResultID: outChain, Operands: []uint32{varOut, constZero, gidVal}},
		{Opcode: spirv.OpStore, Operands: []uint32{outChain, phiRes}},
		{Opcode: spirv.OpReturn},
	}

	m.Functions[1] = &ir.Function{
		ID:           1,
		FirstBlockID: headBlock,
		Blocks: map[uint32]*ir.Block{
			headBlock:  {ID: headBlock, Instructions: head},
			thenBlock:  {ID: thenBlock, Instructions: thenB},
			elseBlock:  {ID: elseBlock, Instructions: elseB},
			mergeBlock: {ID: mergeBlock, Instructions: merge},
		},
	}
	m.EntryPoints["main"] = 1
	m.LocalSizes[1] = ir.Dim3{X: 8, Y: 1, Z: 1}
	return m
}

func TestPhiSelectsValueFromTakenPredecessor(t *testing.T) {
	const n = 8
	m := buildPhiModule()
	dev := newTestDevice()

	addrOut := dev.GlobalMemory.Allocate(n * 4)

	ex := exec.NewExecutor(dev, m)
	desc := exec.Description{
		EntryPoint: "main",
		NumGroups:  ir.Dim3{X: 1, Y: 1, Z: 1},
		Bindings: []exec.BufferBinding{
			{Set: 0, Binding: 0, Address: addrOut},
		},
	}

	require.NoError(t, ex.Run(context.Background(), desc))

	out := dev.GlobalMemory.Map(addrOut, n*4)
	require.NotNil(t, out)
	want := []uint32{9, 7, 9, 7, 9, 7, 9, 7}
	for i := 0; i < n; i++ {
		assert.Equal(t, want[i], binary.LittleEndian.Uint32(out[i*4:i*4+4]), "lane %d", i)
	}
}

// TestDispatchResultInvariantUnderWorkerCount checks the spec's
// determinism property: a race-free dispatch must produce the same
// device memory contents no matter how many worker goroutines pull
// workgroups off the shared counter.
func TestDispatchResultInvariantUnderWorkerCount(t *testing.T) {
	const (
		localSize = 4
		numGroups = 8
		n         = localSize * numGroups
	)

	for _, workers := range []uint{1, 2, 4, 16} {
		m := buildVectorAddModule(localSize)
		dev := device.New(device.Config{NumWorkers: workers}, nil)

		addrA := dev.GlobalMemory.Allocate(n * 4)
		addrB := dev.GlobalMemory.Allocate(n * 4)
		addrC := dev.GlobalMemory.Allocate(n * 4)
		for i := 0; i < n; i++ {
			dev.GlobalMemory.Store(addrA+uint64(i*4), f32bytes(float32(i)))
			dev.GlobalMemory.Store(addrB+uint64(i*4), f32bytes(float32(42+3*i)))
		}

		ex := exec.NewExecutor(dev, m)
		desc := exec.Description{
			EntryPoint: "main",
			NumGroups:  ir.Dim3{X: numGroups, Y: 1, Z: 1},
			Bindings: []exec.BufferBinding{
				{Set: 0, Binding: 0, Address: addrA},
				{Set: 0, Binding: 1, Address: addrB},
				{Set: 0, Binding: 2, Address: addrC},
			},
		}

		require.NoError(t, ex.Run(context.Background(), desc), "workers=%d", workers)

		out := dev.GlobalMemory.Map(addrC, n*4)
		require.NotNil(t, out)
		for i := 0; i < n; i++ {
			assert.InDelta(t, float32(42+4*i), readF32(out, i), 1e-6, "workers=%d lane=%d", workers, i)
		}
	}
}
