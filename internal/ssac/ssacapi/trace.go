package ssacapi

// These are compile-time constants, not runtime flags, in the style of
// wazero's `wazevoapi` debug switches. Only EnableRegAllocLogging is
// read by any stage; the other three are declared but never checked,
// so flipping them changes nothing.
const (
	// EnableSSALogging is not read by any stage.
	EnableSSALogging = false
	// EnablePassDebugLogging is not read by any stage.
	EnablePassDebugLogging = false
	// EnableRegAllocLogging makes pipeline.Run print each function's
	// final frame size and spill-slot count (DescribeFrame) to stderr
	// after lowering. It does not trace live intervals or individual
	// spill decisions.
	EnableRegAllocLogging = false
	// SSAValidationEnabled is not read by any stage; no pass runs
	// ir.Validate after transforming a function.
	SSAValidationEnabled = false
)
