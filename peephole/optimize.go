package peephole

import (
	"strconv"

	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

// DefaultSuffixOverhead is the overhead value callers should pass to
// Optimize's suffix-sharing phase at the normal call site (§4.6).
const DefaultSuffixOverhead = 0

// Optimize runs the four peephole phases over code in order: identical-
// predecessor merging, redundant move/constant-reload removal, common-
// prefix hoisting, then common-suffix extraction. code must satisfy
// code.IsConsistentGraph() on entry; a failure there, or one produced by the
// pass itself, is returned as *InconsistentGraphError and the caller is
// expected to abort the whole compilation rather than attempt repair.
func Optimize(code *ir.IRCode, alloc regalloc.Allocator) (err error) {
	methodID := entryMethodID(code)

	if consistErr := code.IsConsistentGraph(); consistErr != nil {
		debugWarn("peephole: rejecting inconsistent graph on entry", "method", methodID, "cause", consistErr)
		return &InconsistentGraphError{MethodID: methodID, When: "entry", Cause: consistErr}
	}

	defer func() {
		if r := recover(); r != nil {
			if ae, ok := r.(*AssertionError); ok {
				err = &InconsistentGraphError{MethodID: methodID, When: "phase", Cause: ae}
				return
			}
			panic(r)
		}
	}()

	IdenticalPredecessorMerge(code, alloc)
	RedundancyRemoval(code, alloc)
	PrefixSharing(code, alloc)
	SuffixSharing(code, alloc, DefaultSuffixOverhead)

	if consistErr := code.IsConsistentGraph(); consistErr != nil {
		debugWarn("peephole: phases produced an inconsistent graph", "method", methodID, "cause", consistErr)
		return &InconsistentGraphError{MethodID: methodID, When: "exit", Cause: consistErr}
	}

	debugInfo("peephole: optimize complete", "method", methodID, "blocks", len(code.Blocks()))
	return nil
}

func entryMethodID(code *ir.IRCode) string {
	if code.Entry == nil {
		return "<unknown>"
	}
	return "block#" + strconv.Itoa(code.Entry.Number)
}
