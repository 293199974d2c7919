// Package spirv decodes SPIR-V compute shader binaries into the
// intermediate representation defined by package ir.
//
// # Loading a module
//
//	words, err := spirv.ReadWords(r)
//	if err != nil {
//		log.Fatal(err)
//	}
//	module, err := spirv.Load(words)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Binary layout
//
// A SPIR-V module is a stream of 32-bit words:
//
//   - a 5-word header: magic number, version, generator id, id bound,
//     schema (reserved, always 0)
//   - a stream of instructions, each starting with a word whose high
//     16 bits hold the instruction's word count (including the header
//     word itself) and whose low 16 bits hold the opcode
//
// Only GLCompute entry points are recorded; entry points with any other
// execution model are skipped while loading. The addressing model
// declared by OpMemoryModel is not checked.
//
// # References
//
// SPIR-V Specification: https://registry.khronos.org/SPIR-V/specs/unified1/SPIRV.html
package spirv
