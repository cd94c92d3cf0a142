package ssacapi

import "github.com/dustin/go-humanize"

// DescribeFrame renders a human-facing summary of a function's final
// stack frame size and spill-slot count, used by EnableRegAllocLogging
// tracing and by cmd/ssacdump's dump output.
func DescribeFrame(name string, stackSizeBytes, spillSlots int) string {
	return name + ": frame " + humanize.Bytes(uint64(stackSizeBytes)) + ", " +
		humanize.Comma(int64(spillSlots)) + " spill slot(s)"
}
