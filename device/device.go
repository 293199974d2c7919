// Package device implements the dispatch host. A Device owns the
// single global Memory every buffer variable is bound in, fans out the
// observer hooks every other component reports through, and is the one
// place the error taxonomy turns into either a logged diagnostic
// (value-level errors) or an aborting exit (StructuralError).
package device

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/memory"
)

// Config holds the three environment-variable knobs: whether to force
// single-threaded, trace-observed execution, how many worker
// goroutines a dispatch may use, and which static plugins to attach.
type Config struct {
	Interactive bool
	NumWorkers  uint
	Plugins     []string
}

// FromEnv reads TALVOS_INTERACTIVE, TALVOS_NUM_WORKERS, and
// TALVOS_PLUGINS, defaulting NumWorkers to the host's logical CPU
// count.
func FromEnv() Config {
	cfg := Config{NumWorkers: uint(runtime.NumCPU())}
	if v := os.Getenv("TALVOS_INTERACTIVE"); v != "" && v != "0" {
		cfg.Interactive = true
	}
	if v := os.Getenv("TALVOS_NUM_WORKERS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil && n > 0 {
			cfg.NumWorkers = uint(n)
		}
	}
	if v := os.Getenv("TALVOS_PLUGINS"); v != "" {
		for _, name := range strings.Split(v, ";") {
			if name != "" {
				cfg.Plugins = append(cfg.Plugins, name)
			}
		}
	}
	return cfg
}

// InvocationInfo identifies one invocation for the Begin/Complete and
// InstructionExecuted hooks, and for error-context formatting: the
// entry point it runs, its position within the dispatch's global,
// local, and group index spaces.
type InvocationInfo struct {
	EntryPoint string
	Global     ir.Dim3
	Local      ir.Dim3
	Group      ir.Dim3
}

// Observer is the fan-out target for every event the dispatch executor
// and interpreter report. Observers attach through ordinary Go
// interface satisfaction; see package plugin for the static registry
// that resolves TALVOS_PLUGINS names to Observer factories.
type Observer interface {
	DispatchBegin()
	DispatchComplete()
	WorkgroupBegin(group ir.Dim3)
	WorkgroupBarrier(group ir.Dim3)
	WorkgroupComplete(group ir.Dim3)
	InvocationBegin(inv InvocationInfo)
	InvocationComplete(inv InvocationInfo)
	InstructionExecuted(inv InvocationInfo, inst *ir.Instruction)
	MemoryAccess(scope memory.Scope, kind memory.AccessKind, addr, size uint64, err error)
	// ThreadSafe reports whether this observer tolerates being called
	// from multiple worker goroutines concurrently. A Device with any
	// non-thread-safe observer attached forces NumWorkers down to 1.
	ThreadSafe() bool
}

// NopObserver implements Observer with no-op bodies and ThreadSafe
// true. Embed it to implement only the hooks an observer cares about.
type NopObserver struct{}

func (NopObserver) DispatchBegin()                                                      {}
func (NopObserver) DispatchComplete()                                                   {}
func (NopObserver) WorkgroupBegin(ir.Dim3)                                              {}
func (NopObserver) WorkgroupBarrier(ir.Dim3)                                            {}
func (NopObserver) WorkgroupComplete(ir.Dim3)                                           {}
func (NopObserver) InvocationBegin(InvocationInfo)                                      {}
func (NopObserver) InvocationComplete(InvocationInfo)                                   {}
func (NopObserver) InstructionExecuted(InvocationInfo, *ir.Instruction)                 {}
func (NopObserver) MemoryAccess(memory.Scope, memory.AccessKind, uint64, uint64, error) {}
func (NopObserver) ThreadSafe() bool                                                    { return true }

// HostError is a host-side failure: a malformed binary, a plugin that
// failed to resolve, or some other condition that prevents a dispatch
// from even starting. It is always returned to the caller, never
// aborts by itself.
type HostError struct {
	Msg string
}

func (e *HostError) Error() string { return e.Msg }

// StructuralError is the fatal error kind: a condition the interpreter
// cannot safely continue past (unknown opcode, barrier divergence,
// OpUnreachable executed). A Device that sees one always aborts.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string { return e.Msg }

// Device is the dispatch host: the global Memory every buffer
// variable lives in, the registered observers, and the chokepoint for
// every reported event and error.
type Device struct {
	GlobalMemory *memory.Memory
	Config       Config
	Log          *slog.Logger

	// ErrOut receives the human-readable error blocks (a blank line,
	// the message, then indented entry-point, invocation, and
	// instruction context). Defaults to os.Stderr; tests substitute a
	// buffer.
	ErrOut io.Writer

	mu        sync.Mutex
	observers []Observer
}

// New returns a Device configured with cfg. A nil logger defaults to a
// text handler on stderr.
func New(cfg Config, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	d := &Device{Config: cfg, Log: logger, ErrOut: os.Stderr}
	d.GlobalMemory = memory.New(memory.ScopeDevice, d)
	return d
}

// AddObserver registers o to receive every subsequent hook call.
func (d *Device) AddObserver(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

// ThreadSafe reports whether every registered observer tolerates
// concurrent calls; NumWorkers consults this together with
// Config.Interactive (either one forces a single worker) to decide the
// dispatch executor's worker count.
func (d *Device) ThreadSafe() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, o := range d.observers {
		if !o.ThreadSafe() {
			return false
		}
	}
	return true
}

// NumWorkers resolves the effective worker count for a dispatch:
// always 1 under TALVOS_INTERACTIVE or a non-thread-safe observer,
// otherwise Config.NumWorkers.
func (d *Device) NumWorkers() uint {
	if d.Config.Interactive || !d.ThreadSafe() {
		return 1
	}
	if d.Config.NumWorkers == 0 {
		return 1
	}
	return d.Config.NumWorkers
}

func (d *Device) each(f func(Observer)) {
	d.mu.Lock()
	obs := append([]Observer(nil), d.observers...)
	d.mu.Unlock()
	for _, o := range obs {
		f(o)
	}
}

func (d *Device) DispatchBegin()    { d.each(func(o Observer) { o.DispatchBegin() }) }
func (d *Device) DispatchComplete() { d.each(func(o Observer) { o.DispatchComplete() }) }

func (d *Device) WorkgroupBegin(group ir.Dim3) { d.each(func(o Observer) { o.WorkgroupBegin(group) }) }
func (d *Device) WorkgroupBarrier(group ir.Dim3) {
	d.each(func(o Observer) { o.WorkgroupBarrier(group) })
}
func (d *Device) WorkgroupComplete(group ir.Dim3) {
	d.each(func(o Observer) { o.WorkgroupComplete(group) })
}

func (d *Device) InvocationBegin(inv InvocationInfo) {
	d.each(func(o Observer) { o.InvocationBegin(inv) })
}

func (d *Device) InvocationComplete(inv InvocationInfo) {
	d.each(func(o Observer) { o.InvocationComplete(inv) })
}

func (d *Device) InstructionExecuted(inv InvocationInfo, inst *ir.Instruction) {
	d.each(func(o Observer) { o.InstructionExecuted(inv, inst) })
}

// MemoryAccess implements memory.Reporter, fanning out to every
// observer and logging value-level access errors at debug level (they
// are expected and already recovered from by the Memory method that
// produced them).
func (d *Device) MemoryAccess(scope memory.Scope, kind memory.AccessKind, addr, size uint64, err error) {
	d.each(func(o Observer) { o.MemoryAccess(scope, kind, addr, size, err) })
	if err != nil {
		d.Log.Debug("memory access error", "scope", scope, "kind", kind, "addr", fmt.Sprintf("0x%016X", addr), "size", size, "err", err)
	}
}

// ReportError reports a value-level error (an invalid access or a
// missing descriptor binding) without aborting: it writes an error
// block to ErrOut and logs a structured record, annotated with inv and
// (when the interpreter supplies one) the current instruction.
func (d *Device) ReportError(inv InvocationInfo, inst *ir.Instruction, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ErrOut != nil {
		fmt.Fprintf(d.ErrOut, "\n%s\n", err.Error())
		if inv.EntryPoint != "" {
			fmt.Fprintf(d.ErrOut, "    Entry point: %s\n", inv.EntryPoint)
			fmt.Fprintf(d.ErrOut, "    Invocation: Global(%d,%d,%d) Local(%d,%d,%d) Group(%d,%d,%d)\n",
				inv.Global.X, inv.Global.Y, inv.Global.Z,
				inv.Local.X, inv.Local.Y, inv.Local.Z,
				inv.Group.X, inv.Group.Y, inv.Group.Z)
		}
		if inst != nil {
			fmt.Fprintf(d.ErrOut, "    %s\n", inst.String())
		}
	}

	attrs := []any{}
	if inv.EntryPoint != "" {
		attrs = append(attrs, "entry", inv.EntryPoint, "global", inv.Global, "local", inv.Local, "group", inv.Group)
	}
	if inst != nil {
		attrs = append(attrs, "inst", inst.String())
	}
	d.Log.Error(err.Error(), attrs...)
}

// Abort reports err and terminates the process. It is only ever
// called with a *StructuralError; continuing past one would produce
// undefined results.
func (d *Device) Abort(inv InvocationInfo, inst *ir.Instruction, err error) {
	d.ReportError(inv, inst, err)
	os.Exit(1)
}
