// Package talvos provides a simple, high-level API for loading and
// dispatching SPIR-V compute shaders without driving the spirv,
// dispatch, exec, and device packages by hand.
//
// Example usage:
//
//	module, err := talvos.Load("shader.spv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := talvos.Dispatch(module, "dispatch.yaml", talvos.DefaultOptions()); err != nil {
//	    log.Fatal(err)
//	}
//
// For more control over the Device (custom observers, a shared
// global memory across several dispatches), construct a
// device.Device directly and call exec.NewExecutor yourself; this
// package is the one-shot convenience path, not a replacement for the
// lower-level packages.
package talvos

import (
	"context"
	"fmt"
	"os"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/dispatch"
	"github.com/gogpu/talvos/exec"
	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/spirv"
)

// Options configures Dispatch. The zero value is valid: it runs
// without interactive tracing, using device.FromEnv()'s worker count.
type Options struct {
	// Config overrides the TALVOS_* environment defaults. A zero value
	// falls back to device.FromEnv().
	Config device.Config
	// UseEnv, when true, ignores Config and calls device.FromEnv()
	// instead — the default for the CLI entry point, opt-in here so
	// library callers get deterministic behavior by default.
	UseEnv bool
	// Observers are attached to the Device before the dispatch runs.
	Observers []device.Observer
}

// DefaultOptions returns the zero-value Options: no environment
// overrides, no observers.
func DefaultOptions() Options { return Options{} }

// Load reads a SPIR-V binary from path and decodes it into a Module,
// validating it before returning.
func Load(path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("talvos: %w", err)
	}
	defer f.Close()

	words, err := spirv.ReadWords(f)
	if err != nil {
		return nil, fmt.Errorf("talvos: %w", err)
	}
	module, err := spirv.Load(words)
	if err != nil {
		return nil, fmt.Errorf("talvos: %w", err)
	}
	if errs := ir.Validate(module); len(errs) > 0 {
		return nil, fmt.Errorf("talvos: module failed validation: %v", errs[0])
	}
	return module, nil
}

// Dispatch loads the YAML dispatch description at descPath, resolves
// it against module, and runs it to completion on a fresh Device built
// per opts.
func Dispatch(module *ir.Module, descPath string, opts Options) error {
	desc, err := dispatch.Load(descPath)
	if err != nil {
		return fmt.Errorf("talvos: %w", err)
	}

	cfg := opts.Config
	if opts.UseEnv {
		cfg = device.FromEnv()
	}
	dev := device.New(cfg, nil)
	for _, o := range opts.Observers {
		dev.AddObserver(o)
	}

	resolved, err := desc.Resolve(dev, module)
	if err != nil {
		return fmt.Errorf("talvos: %w", err)
	}

	return exec.NewExecutor(dev, module).Run(context.Background(), resolved)
}
