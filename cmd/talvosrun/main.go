// Command talvosrun is the multi-subcommand CLI entry point for
// dispatching SPIR-V compute shaders against a YAML dispatch
// description, and for printing a loaded module.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/talvos/device"
	"github.com/gogpu/talvos/dispatch"
	"github.com/gogpu/talvos/exec"
	"github.com/gogpu/talvos/ir"
	"github.com/gogpu/talvos/plugin"
	"github.com/gogpu/talvos/spirv"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "talvosrun",
		Short:         "Dispatch and inspect SPIR-V compute shaders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newDisasmCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <shader.spv> <dispatch.yaml>",
		Short: "Dispatch a shader binary against a YAML description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(cmd.Context(), args[0], args[1])
		},
	}
}

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <shader.spv>",
		Short: "Print a loaded module's disassembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := loadSPIRV(args[0])
			if err != nil {
				return err
			}
			fmt.Print(module.Disassemble())
			return nil
		},
	}
}

// loadSPIRV reads and decodes a SPIR-V binary at path into an
// *ir.Module, shared by both subcommands.
func loadSPIRV(path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("talvosrun: %w", err)
	}
	defer f.Close()

	words, err := spirv.ReadWords(f)
	if err != nil {
		return nil, fmt.Errorf("talvosrun: %w", err)
	}
	module, err := spirv.Load(words)
	if err != nil {
		return nil, fmt.Errorf("talvosrun: %w", err)
	}
	if errs := ir.Validate(module); len(errs) > 0 {
		return nil, fmt.Errorf("talvosrun: module failed validation: %v", errs)
	}
	return module, nil
}

// runDispatch loads a shader and its YAML dispatch description, builds
// a Device from the TALVOS_* environment knobs (attaching a
// TraceObserver under TALVOS_INTERACTIVE and any TALVOS_PLUGINS by
// name), and runs the dispatch to completion.
func runDispatch(ctx context.Context, shaderPath, dispatchPath string) error {
	module, err := loadSPIRV(shaderPath)
	if err != nil {
		return err
	}

	desc, err := dispatch.Load(dispatchPath)
	if err != nil {
		return err
	}

	cfg := device.FromEnv()
	dev := device.New(cfg, nil)

	if cfg.Interactive {
		dev.AddObserver(&device.TraceObserver{Log: dev.Log})
	}
	for _, name := range cfg.Plugins {
		factory, ok := plugin.Lookup(name)
		if !ok {
			return fmt.Errorf("talvosrun: unknown plugin %q (available: %v)", name, plugin.Names())
		}
		dev.AddObserver(factory())
	}

	resolved, err := desc.Resolve(dev, module)
	if err != nil {
		return err
	}

	return exec.NewExecutor(dev, module).Run(ctx, resolved)
}
