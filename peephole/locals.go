package peephole

import "github.com/JLLeitschuh/r8-go/ir"

// localsAtExit is localsAtEntry(block) with every debug-locals-change in
// the block's body applied in order (§4.7). The phases do not call it: P4
// compares the locals reaching a candidate suffix with localsAtBoundary, and
// P3 applies a hoisted debug-locals-change to both siblings' entry maps
// directly.
func localsAtExit(b *ir.BasicBlock) map[int]ir.LocalDescriptor {
	locals := b.LocalsAtEntry
	for _, in := range b.Instructions() {
		if in.IsDebugLocalsChange() {
			locals = in.Locals.Apply(locals)
		}
	}
	return locals
}

func localsEqual(a, b map[int]ir.LocalDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	for reg, ld := range a {
		other, ok := b[reg]
		if !ok || other != ld {
			return false
		}
	}
	return true
}
