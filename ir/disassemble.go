package ir

import (
	"fmt"
	"strings"
)

// Disassemble renders the whole module as a "; SPIR-V" header plus one
// line per instruction: the same %result = OpName %op form
// Instruction.Disassemble already produces for a single instruction,
// walked in declaration order over every function and block. It is a
// second consumer of the decoded Module/Instruction data the loader
// already built, not a parallel decode of the raw word stream.
func (m *Module) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; SPIR-V\n")
	fmt.Fprintf(&b, "; Version: %d.%d\n", (m.Version>>16)&0xFF, (m.Version>>8)&0xFF)
	fmt.Fprintf(&b, "; Generator: 0x%08X\n", m.Generator)
	fmt.Fprintf(&b, "; Bound: %d\n", m.IDBound)
	fmt.Fprintf(&b, "; Schema: %d\n\n", m.Schema)

	for name, fnID := range m.EntryPoints {
		local := m.LocalSize(fnID)
		fmt.Fprintf(&b, "; EntryPoint %q -> %s, LocalSize (%d, %d, %d)\n",
			name, m.id(fnID), local.X, local.Y, local.Z)
	}
	if len(m.EntryPoints) > 0 {
		b.WriteByte('\n')
	}

	for _, fn := range m.OrderedFunctions() {
		fmt.Fprintf(&b, "%s = OpFunction ; %s\n", m.id(fn.ID), fn.Type)
		for _, p := range fn.Params {
			fmt.Fprintf(&b, "%s = OpFunctionParameter\n", m.id(p))
		}
		for _, blk := range fn.OrderedBlocks() {
			fmt.Fprintf(&b, "%s = OpLabel\n", m.id(blk.ID))
			for _, inst := range blk.Instructions {
				fmt.Fprintf(&b, "\t%s\n", inst.Disassemble(m.Names))
			}
		}
		b.WriteString("OpFunctionEnd\n\n")
	}
	return b.String()
}

func (m *Module) id(n uint32) string {
	if s, ok := m.Names[n]; ok && s != "" {
		return "%" + s
	}
	return fmt.Sprintf("%%%d", n)
}
