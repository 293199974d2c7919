package talvos_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/dispatch"
	"github.com/gogpu/talvos/exec"
	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/spirv"
)

func encodeString(s string) []uint32 {
	b := append([]byte(s), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}

type inst struct {
	op  spirv.Opcode
	ops []uint32
}

func encodeModule(bound uint32, insts []inst) []uint32 {
	words := []uint32{spirv.MagicNumber, 0x00010300, 0, bound, 0}
	for _, in := range insts {
		wordCount := uint32(1 + len(in.ops))
		words = append(words, (wordCount<<16)|uint32(in.op))
		words = append(words, in.ops...)
	}
	return words
}

const (
	storageClassStorageBuffer = 12
)

// buildStoreConstantModule hand-assembles a GLCompute shader
// equivalent to
//
//	buf.values[0] = 5u;
//
// exercising the full binary-decode-through-dispatch path end to end:
// a single descriptor-bound buffer variable, an OpAccessChain through
// a runtime array nested in a struct, and an OpStore,
// all driven by the real word-stream loader rather than a hand-built
// *ir.Module.
func buildStoreConstantModule() []uint32 {
	name := encodeString("main")
	entryPointOps := append([]uint32{5, 11}, name...)
	return encodeModule(14, []inst{
		{spirv.OpCapability, []uint32{1}},
		{spirv.OpMemoryModel, []uint32{0, 1}},
		{spirv.OpEntryPoint, entryPointOps},
		{spirv.OpExecutionMode, []uint32{11, uint32(spirv.ExecutionModeLocalSize), 1, 1, 1}},
		{spirv.OpDecorate, []uint32{9, uint32(spirv.DecorationDescriptorSet), 0}},
		{spirv.OpDecorate, []uint32{9, uint32(spirv.DecorationBinding), 0}},
		{spirv.OpTypeVoid, []uint32{1}},
		{spirv.OpTypeFunction, []uint32{2, 1}},
		{spirv.OpTypeInt, []uint32{3, 32, 0}},
		{spirv.OpConstant, []uint32{3, 4, 5}}, // %4 = 5u, the value stored
		{spirv.OpConstant, []uint32{3, 5, 0}}, // %5 = 0u, index into member/array
		{spirv.OpTypeRuntimeArray, []uint32{6, 3}},
		{spirv.OpTypeStruct, []uint32{7, 6}},
		{spirv.OpTypePointer, []uint32{8, storageClassStorageBuffer, 7}},
		{spirv.OpVariable, []uint32{8, 9, storageClassStorageBuffer}},
		{spirv.OpTypePointer, []uint32{10, storageClassStorageBuffer, 3}},
		{spirv.OpFunction, []uint32{1, 11, 0, 2}},
		{spirv.OpLabel, []uint32{12}},
		{spirv.OpAccessChain, []uint32{10, 13, 9, 5, 5}},
		{spirv.OpStore, []uint32{13, 4}},
		{spirv.OpReturn, nil},
		{spirv.OpFunctionEnd, nil},
	})
}

func TestDispatchStoresIntoBoundBuffer(t *testing.T) {
	module, err := spirv.Load(buildStoreConstantModule())
	require.NoError(t, err)
	require.Empty(t, ir.Validate(module))

	dev := device.New(device.Config{NumWorkers: 1}, nil)
	desc := &dispatch.Description{
		Entry:  "main",
		Groups: [3]uint32{1, 1, 1},
		Buffers: []dispatch.BufferDecl{
			{Name: "buf", Size: 4},
		},
		Bindings: []dispatch.BindingDecl{
			{Set: 0, Binding: 0, Buffer: "buf"},
		},
	}

	resolved, err := desc.Resolve(dev, module)
	require.NoError(t, err)
	require.NoError(t, exec.NewExecutor(dev, module).Run(context.Background(), resolved))

	out := dev.GlobalMemory.Map(resolved.Bindings[0].Address, 4)
	require.NotNil(t, out)
	require.Equal(t, uint32(5), binary.LittleEndian.Uint32(out))
}
