package pipeline

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ir"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/isel"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/machine"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/pass"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/regalloc"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/riscv64"
	"github.com/LoveGump/NKU-25fall-Compiler-SysY-sub000/internal/ssac/ssacapi"
)

// Config gates the pipeline's optimization stages, wrapping
// pass.PipelineConfig the way wazero's Compiler wraps its own
// stage-specific sub-configs behind one top-level RuntimeConfig.
type Config struct {
	Pass pass.PipelineConfig
}

// DefaultConfig matches DefaultPipelineConfig's thresholds.
var DefaultConfig = Config{Pass: pass.DefaultPipelineConfig}

// Pipeline is the top-level orchestrator: given a Module, it runs the
// optimization pipeline, instruction selection, register allocation,
// and RISC-V64 lowering, in that order, mirroring how wazero's
// Compiler holds a Machine and delegates codegen to it once its own
// SSA-level passes have run.
type Pipeline struct {
	Config Config
}

// New returns a Pipeline with the given config.
func New(cfg Config) *Pipeline { return &Pipeline{Config: cfg} }

// Run drives m all the way to machine code: the optimization pipeline
// (pass.Run), instruction selection (isel.SelectModule), then for each
// resulting function, linear-scan register allocation and RISC-V64
// lowering (phi elimination, frame lowering, stack lowering). Errors
// from the optimization stage are wrapped with errors.Wrap so a
// caller's stack trace points at the failing pass; instruction
// selection, register allocation, and lowering are all panic-on-bug
// (programmer-error) rather than error-returning — see DESIGN.md's
// discussion of that split.
func (p *Pipeline) Run(m *ir.Module) ([]*machine.MFunction, error) {
	if err := pass.Run(m, p.Config.Pass); err != nil {
		return nil, errors.Wrap(err, "pipeline: optimization pipeline failed to converge")
	}

	funcs := isel.SelectModule(m)

	for _, mf := range funcs {
		regalloc.Allocate(mf)
		riscv64.Lower(mf)
		if ssacapi.EnableRegAllocLogging {
			fmt.Fprintln(os.Stderr, ssacapi.DescribeFrame(mf.Name, mf.StackSize, mf.Frame.SpillCount()))
		}
	}

	return funcs, nil
}

// BuildAndRun runs b.Build and, on success, Run over the result —
// the full Builder-to-machine-code path a real frontend integration
// would call.
func (p *Pipeline) BuildAndRun(b Builder) ([]*machine.MFunction, error) {
	m, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: builder failed")
	}
	return p.Run(m)
}
