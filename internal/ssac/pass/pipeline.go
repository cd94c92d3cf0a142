package pass

import (
	"github.com/pkg/errors"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
)

// PipelineConfig gates the optimization pipeline's size-sensitive
// stages. The zero value is not useful; start from
// DefaultPipelineConfig.
type PipelineConfig struct {
	Inline InlineConfig
	// MaxIterations bounds how many times the fixpoint loop below may
	// repeat the whole per-function sequence before giving up; a
	// well-formed input converges in a handful of rounds, but a
	// pathological one (or a bug in a pass reporting spurious
	// progress) must not spin forever.
	MaxIterations int
}

// DefaultPipelineConfig gates inlining on callee size alone, through
// DefaultInlineConfig's 30-instruction threshold; no other inlining
// criterion is configurable.
var DefaultPipelineConfig = PipelineConfig{
	Inline:        DefaultInlineConfig,
	MaxIterations: 16,
}

// Run drives the full optimization pipeline over every function in m:
// UnifyReturn, Mem2Reg, SCCP, CSE, LICM, ADCE within each function to a
// per-function fixpoint, then a module-wide Inline pass (which can
// expose new local optimization opportunities in the functions it
// splices into), then TCO over every function.
// The whole sequence repeats until nothing changes or cfg.MaxIterations
// rounds have run.
func Run(m *ir.Module, cfg PipelineConfig) error {
	if cfg.MaxIterations <= 0 {
		return errors.New("pass: PipelineConfig.MaxIterations must be positive")
	}

	for round := 0; round < cfg.MaxIterations; round++ {
		changed := false

		for _, f := range m.Functions() {
			if optimizeFunction(f) {
				changed = true
			}
		}

		if Inline(m, cfg.Inline) {
			changed = true
		}

		for _, f := range m.Functions() {
			if TCO(f) {
				changed = true
			}
		}

		if !changed {
			return nil
		}
	}
	return errors.Errorf("pass: pipeline did not converge within %d iterations", cfg.MaxIterations)
}

// optimizeFunction runs the per-function passes to a local fixpoint:
// each pass reports whether it changed anything, and the round repeats
// until none do. UnifyReturn reruns at the top of every round alongside
// the rest, though none of the other passes currently reopen a unified
// return.
func optimizeFunction(f *ir.Function) bool {
	anyChange := false
	for {
		changed := UnifyReturn(f)
		changed = Mem2Reg(f) || changed
		changed = SCCP(f) || changed
		changed = CSE(f) || changed
		changed = LICM(f) || changed
		changed = ADCE(f) || changed
		if !changed {
			return anyChange
		}
		anyChange = true
	}
}
