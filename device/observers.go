package device

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/memory"
)

// CountingObserver tallies dispatches, workgroups, invocations, and
// instructions, for test harnesses to assert dispatch shape against.
// Safe for concurrent use.
type CountingObserver struct {
	NopObserver

	Dispatches   int64
	Workgroups   int64
	Invocations  int64
	Instructions int64
	MemoryErrors int64
}

func (c *CountingObserver) DispatchBegin()         { atomic.AddInt64(&c.Dispatches, 1) }
func (c *CountingObserver) WorkgroupBegin(ir.Dim3) { atomic.AddInt64(&c.Workgroups, 1) }
func (c *CountingObserver) InvocationBegin(InvocationInfo) {
	atomic.AddInt64(&c.Invocations, 1)
}

func (c *CountingObserver) InstructionExecuted(InvocationInfo, *ir.Instruction) {
	atomic.AddInt64(&c.Instructions, 1)
}

func (c *CountingObserver) MemoryAccess(_ memory.Scope, _ memory.AccessKind, _, _ uint64, err error) {
	if err != nil {
		atomic.AddInt64(&c.MemoryErrors, 1)
	}
}

func (c *CountingObserver) ThreadSafe() bool { return true }

// TraceObserver logs every hook through slog. This module implements
// no debugger REPL; TALVOS_INTERACTIVE=1 attaches a TraceObserver so
// the forced single-threaded run still surfaces a step-by-step account
// of what executed. Declared non-thread-safe (log lines from
// concurrent goroutines would interleave), which is harmless since
// Interactive already forces NumWorkers to 1.
type TraceObserver struct {
	Log *slog.Logger
}

func (t *TraceObserver) log() *slog.Logger {
	if t.Log != nil {
		return t.Log
	}
	return slog.Default()
}

func (t *TraceObserver) DispatchBegin()    { t.log().Info("dispatch begin") }
func (t *TraceObserver) DispatchComplete() { t.log().Info("dispatch complete") }

func (t *TraceObserver) WorkgroupBegin(group ir.Dim3) {
	t.log().Info("workgroup begin", "group", group)
}
func (t *TraceObserver) WorkgroupBarrier(group ir.Dim3) {
	t.log().Info("workgroup barrier", "group", group)
}
func (t *TraceObserver) WorkgroupComplete(group ir.Dim3) {
	t.log().Info("workgroup complete", "group", group)
}

func (t *TraceObserver) InvocationBegin(inv InvocationInfo) {
	t.log().Info("invocation begin", "global", inv.Global)
}

func (t *TraceObserver) InvocationComplete(inv InvocationInfo) {
	t.log().Info("invocation complete", "global", inv.Global)
}

func (t *TraceObserver) InstructionExecuted(inv InvocationInfo, inst *ir.Instruction) {
	t.log().Info("instruction executed", "global", inv.Global, "inst", inst.String())
}

func (t *TraceObserver) MemoryAccess(scope memory.Scope, kind memory.AccessKind, addr, size uint64, err error) {
	if err != nil {
		t.log().Warn("memory access failed", "scope", scope, "kind", kind, "addr", addr, "size", size, "err", err)
		return
	}
	t.log().Debug("memory access", "scope", scope, "kind", kind, "addr", addr, "size", size)
}

func (t *TraceObserver) ThreadSafe() bool { return false }
