package exec

import (
	"fmt"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/ir"
)

// PipelineStage is a Module bound to one entry point, with its
// specialization constants resolved and every OpSpecConstantOp
// evaluated ahead of dispatch. It is built once per dispatch and
// shared read-only by every workgroup and invocation that runs it;
// Executor.Run clones its Objects before binding descriptor sets, so
// a PipelineStage itself never observes a particular dispatch's
// buffer bindings.
type PipelineStage struct {
	Module     *ir.Module
	EntryPoint string
	Function   *ir.Function

	// Objects is a per-stage copy of Module.Objects with spec constant
	// overrides applied and every SpecConstantOp evaluated. It holds no
	// buffer-variable bindings; those are resolved per-dispatch by
	// Executor.Run.
	Objects []ir.Object

	// GroupSize is the resolved local workgroup size: the LocalSize
	// execution mode, overridden by the WorkgroupSize-decorated
	// specialization constant's resolved value when present.
	GroupSize ir.Dim3
}

// NewPipelineStage resolves module's entryPoint into a PipelineStage,
// applying overrides (keyed by SpecId) to the module's specialization
// constants before evaluating every OpSpecConstantOp.
func NewPipelineStage(dev *device.Device, module *ir.Module, entryPoint string, overrides map[uint32]ir.Object) (*PipelineStage, error) {
	fn := module.EntryPoint(entryPoint)
	if fn == nil {
		return nil, &device.HostError{Msg: fmt.Sprintf("module declares no GLCompute entry point named %q", entryPoint)}
	}

	objects := cloneObjects(module.Objects)
	for specID, val := range overrides {
		resultID, ok := module.SpecConstants[specID]
		if !ok {
			continue
		}
		objects[resultID] = val.Clone()
	}

	if len(module.SpecConstantOps) > 0 {
		scratch := newScratchInvocation(dev, module, objects)
		for _, inst := range module.SpecConstantOps {
			scratch.evalSpecConstantOp(inst)
			objects[inst.ResultID] = scratch.objects[inst.ResultID]
		}
	}

	size := module.LocalSize(fn.ID)
	if module.WorkgroupSizeID != 0 {
		wg := objects[module.WorkgroupSizeID]
		if wg.Valid() {
			size = ir.Dim3{
				X: uint32(wg.GetUint64(0)),
				Y: uint32(wg.GetUint64(1)),
				Z: uint32(wg.GetUint64(2)),
			}
		}
	}

	return &PipelineStage{
		Module:     module,
		EntryPoint: entryPoint,
		Function:   fn,
		Objects:    objects,
		GroupSize:  size,
	}, nil
}

func cloneObjects(src []ir.Object) []ir.Object {
	out := make([]ir.Object, len(src))
	for i, o := range src {
		out[i] = o.Clone()
	}
	return out
}
