// Package pipeline is the external collaborator boundary: it takes an
// already-built *ir.Module — assembled by a Builder from a
// type-checked, constant-folded AST the way wazero's frontend
// assembles SSA from WASM bytecode — and drives it through the whole
// optimization/codegen pipeline to a set of *machine.MFunction, the
// backend output boundary. This package implements none of the
// AST-to-IR construction itself (lexing/parsing/semantic-check are
// explicit non-goals); Builder is the minimal interface shape that
// side of the system must satisfy.
package pipeline

import "github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"

// Builder is the frontend contract: anything that can populate an
// *ir.Module from whatever source representation it holds (an AST, a
// test fixture, a hand-written IR construction script).
// Pipeline.BuildAndRun accepts a Builder and Pipeline.Run a ready-made
// *ir.Module — most callers in this module's own tests build the
// Module by hand and skip the Builder indirection entirely.
type Builder interface {
	Build() (*ir.Module, error)
}

// BuilderFunc adapts a plain function to Builder, the same
// convention http.HandlerFunc uses for single-method interfaces.
type BuilderFunc func() (*ir.Module, error)

func (f BuilderFunc) Build() (*ir.Module, error) { return f() }
