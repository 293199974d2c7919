// Package exec implements the shader execution engine: the pipeline
// stage, the per-invocation interpreter, the workgroup scheduler, and
// the dispatch executor that drives them all.
package exec

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/ir"
)

// BufferBinding binds one descriptor set/binding pair to an address
// already allocated in the Device's global Memory. Package dispatch is
// responsible for turning an on-disk description into a resolved
// Description value with addresses like these; Executor never
// allocates buffers itself.
type BufferBinding struct {
	Set     uint32
	Binding uint32
	Address uint64
}

// Description is the single in-process dispatch record: one
// EntryPoint, one NumGroups extent, the resolved buffer bindings, and
// any specialization constant overrides (keyed by SpecId). It lives in
// package exec, not package dispatch, so dispatch (which decodes
// on-disk YAML into this shape) can import exec without exec needing
// to import dispatch back.
type Description struct {
	EntryPoint string
	NumGroups  ir.Dim3
	Bindings   []BufferBinding
	Specialize map[uint32]ir.Object
}

func (d Description) lookup(set, binding uint32) (uint64, bool) {
	for _, b := range d.Bindings {
		if b.Set == set && b.Binding == binding {
			return b.Address, true
		}
	}
	return 0, false
}

// Executor resolves a Description against a Module and runs every
// workgroup it implies across a pool of worker goroutines.
type Executor struct {
	Device *device.Device
	Module *ir.Module
}

// NewExecutor returns an Executor bound to dev and module.
func NewExecutor(dev *device.Device, module *ir.Module) *Executor {
	return &Executor{Device: dev, Module: module}
}

// Run resolves desc (spec constants, then descriptor bindings) into a
// PipelineStage and dispatches every workgroup it implies, using
// Device.NumWorkers() worker goroutines pulling group indices from a
// shared atomic counter. Groups are enumerated with X varying fastest.
func (e *Executor) Run(ctx context.Context, desc Description) error {
	stage, err := NewPipelineStage(e.Device, e.Module, desc.EntryPoint, desc.Specialize)
	if err != nil {
		return err
	}

	baseObjects := cloneObjects(stage.Objects)
	for _, v := range e.Module.BufferVariables() {
		set, _ := v.Decoration(ir.DecorationDescriptorSet)
		binding, _ := v.Decoration(ir.DecorationBinding)
		ptr := ir.Zero(v.Type)
		if addr, ok := desc.lookup(set, binding); ok {
			ptr.SetUint64(0, addr)
		} else {
			e.Device.ReportError(device.InvocationInfo{EntryPoint: desc.EntryPoint}, nil,
				&DescriptorError{Set: set, Binding: binding})
		}
		baseObjects[v.ID] = ptr
	}

	e.Device.DispatchBegin()
	defer e.Device.DispatchComplete()

	total := desc.NumGroups.Total()
	if total == 0 {
		return nil
	}

	numWorkers := e.Device.NumWorkers()
	if uint64(numWorkers) > total {
		numWorkers = uint(total)
	}

	var next uint64
	g, gctx := errgroup.WithContext(ctx)
	for w := uint(0); w < numWorkers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				idx := atomic.AddUint64(&next, 1) - 1
				if idx >= total {
					return nil
				}
				groupID := groupIDFromIndex(idx, desc.NumGroups)
				wg := newWorkgroup(e.Device, stage, baseObjects, groupID, desc.NumGroups)
				if err := wg.Run(); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

// groupIDFromIndex maps a flat dispatch index to a 3D group id with X
// enumerated fastest, Y next, Z slowest.
func groupIDFromIndex(idx uint64, numGroups ir.Dim3) ir.Dim3 {
	x := idx % uint64(numGroups.X)
	rest := idx / uint64(numGroups.X)
	y := rest % uint64(numGroups.Y)
	z := rest / uint64(numGroups.Y)
	return ir.Dim3{X: uint32(x), Y: uint32(y), Z: uint32(z)}
}
