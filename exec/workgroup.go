package exec

import (
	"fmt"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/memory"
)

// Workgroup is one group's local Memory plus its invocations. A
// workgroup is created, driven to completion, and destroyed by a
// single worker goroutine; its invocations are cooperatively scheduled
// by Run and synchronize only at barriers.
type Workgroup struct {
	Stage     *PipelineStage
	GroupID   ir.Dim3
	NumGroups ir.Dim3
	Memory    *memory.Memory

	dev         *device.Device
	invocations []*Invocation
}

func newWorkgroup(dev *device.Device, stage *PipelineStage, baseObjects []ir.Object, groupID, numGroups ir.Dim3) *Workgroup {
	wg := &Workgroup{
		Stage:     stage,
		GroupID:   groupID,
		NumGroups: numGroups,
		Memory:    memory.New(memory.ScopeWorkgroup, dev),
		dev:       dev,
	}

	groupObjects := cloneObjects(baseObjects)
	for _, v := range stage.Module.WorkgroupVariables() {
		pt := v.Type.Kind.(*ir.PointerType)
		addr := wg.Memory.Allocate(uint64(pt.Elem.Size))
		ptr := ir.Zero(v.Type)
		ptr.SetUint64(0, addr)
		groupObjects[v.ID] = ptr
	}

	size := stage.GroupSize
	wg.invocations = make([]*Invocation, 0, size.Total())
	for z := uint32(0); z < size.Z; z++ {
		for y := uint32(0); y < size.Y; y++ {
			for x := uint32(0); x < size.X; x++ {
				local := ir.Dim3{X: x, Y: y, Z: z}
				global := ir.Dim3{
					X: groupID.X*size.X + x,
					Y: groupID.Y*size.Y + y,
					Z: groupID.Z*size.Z + z,
				}
				inv := newInvocation(dev, stage, wg, groupObjects, global, local, groupID)
				dev.InvocationBegin(inv.info)
				wg.invocations = append(wg.invocations, inv)
			}
		}
	}
	return wg
}

// Run drives this workgroup's invocations to completion: repeatedly
// find the first READY invocation and step it, rescanning from the
// start of the list after every step; once none are READY, every
// invocation has either finished or is waiting at a barrier. If every
// invocation is waiting, the barrier is released and the group
// continues; if only some are, that is barrier divergence, a fatal
// StructuralError.
func (wg *Workgroup) Run() error {
	wg.dev.WorkgroupBegin(wg.GroupID)

	for {
		for {
			stepped := false
			for _, inv := range wg.invocations {
				if inv.State() == StateReady {
					inv.Step()
					stepped = true
					break
				}
			}
			if !stepped {
				break
			}
		}

		atBarrier := 0
		for _, inv := range wg.invocations {
			if inv.State() == StateBarrier {
				atBarrier++
			}
		}
		if atBarrier == 0 {
			break
		}
		if atBarrier == len(wg.invocations) {
			wg.dev.WorkgroupBarrier(wg.GroupID)
			for _, inv := range wg.invocations {
				inv.clearBarrier()
			}
			continue
		}

		err := &device.StructuralError{Msg: fmt.Sprintf(
			"barrier not reached by every invocation in workgroup (%d,%d,%d): %d of %d waiting",
			wg.GroupID.X, wg.GroupID.Y, wg.GroupID.Z, atBarrier, len(wg.invocations))}
		wg.dev.Abort(device.InvocationInfo{EntryPoint: wg.Stage.EntryPoint, Group: wg.GroupID}, nil, err)
		return err
	}

	wg.dev.WorkgroupComplete(wg.GroupID)
	return nil
}
