// Package ir defines the in-memory representation of a parsed SPIR-V
// compute module.
//
// Unlike a source-level IR built by lowering an AST, this package models
// the module exactly as SPIR-V expresses it: a flat id space, explicit
// types with layout-derived sizes, blocks of instructions terminated by a
// branch, and module-scope variables tagged by storage class. A Module
// is immutable once built and is shared by every invocation of a
// dispatch.
//
// # Structure
//
// A Module owns:
//   - Types: every type result id, already layout-resolved (size, stride,
//     struct member offsets)
//   - Objects: the vector of constant-instruction results, indexed by id
//   - Functions: every function, each owning its Blocks
//   - Variables: module-scope declarations, classified by storage class
//   - EntryPoints / LocalSizes / SpecConstants: the bookkeeping a
//     PipelineStage needs to specialize one entry point
//
// # References
//
// The type-layout and id-bound conventions mirror the SPIR-V
// specification (https://www.khronos.org/registry/SPIR-V/) as consumed
// by the binary loader in package spirv.
package ir
