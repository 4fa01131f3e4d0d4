package peephole

import (
	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

// PrefixSharing is phase P3 (§4.5): when a block B has exactly two normal
// successors S and T, each with B as their only predecessor, hoist the
// longest common prefix of S and T into B ahead of B's terminator. If the
// common prefix consumes S and T down to their (equal) terminators, replace
// B's terminator with theirs and let S and T wither into dead blocks,
// deleted once the whole pass has converged.
func PrefixSharing(code *ir.IRCode, alloc regalloc.Allocator) {
	var deadBlocks []*ir.BasicBlock
	for {
		changed := false
		for _, b := range code.Blocks() {
			if hoistPrefix(b, alloc, &deadBlocks) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for _, d := range deadBlocks {
		code.RemoveBlock(d)
	}
}

func hoistPrefix(b *ir.BasicBlock, alloc regalloc.Allocator, deadBlocks *[]*ir.BasicBlock) bool {
	succs := b.NormalSuccessors()
	if len(succs) != 2 {
		return false
	}
	s, t := succs[0], succs[1]
	if len(s.Predecessors()) != 1 || len(t.Predecessors()) != 1 {
		return false
	}

	merged := false
	for {
		if !localsEqual(s.LocalsAtEntry, t.LocalsAtEntry) {
			break
		}
		if s.NumInstructions() == 0 || t.NumInstructions() == 0 {
			break
		}
		si, ti := s.Instructions()[0], t.Instructions()[0]

		if s.NumInstructions() == 1 && t.NumInstructions() == 1 {
			if !terminatorHoistEligible(b, s, t, si, ti, alloc) {
				break
			}
			hoistTerminator(b, s, t, si)
			*deadBlocks = append(*deadBlocks, s, t)
			merged = true
			break
		}

		if !prefixInstructionEligible(b, s, t, si, ti, alloc) {
			break
		}
		hoistOneInstruction(b, s, t, si)
		merged = true
	}
	return merged
}

func prefixInstructionEligible(b, s, t *ir.BasicBlock, si, ti *ir.Instruction, alloc regalloc.Allocator) bool {
	// Precondition 2.
	if !(InstructionEquivalence{Instr: si, Alloc: alloc}).Equal(InstructionEquivalence{Instr: ti, Alloc: alloc}) {
		return false
	}
	// Precondition 3.
	if si.InstructionTypeCanThrow() && b.HasCatchHandlers() {
		return false
	}
	// Precondition 4.
	if si.InstructionInstanceCanThrow() && (s.HasCatchHandlers() || t.HasCatchHandlers()) {
		return false
	}
	// Precondition 5: si's write must commute with the terminator's reads.
	if si.Out != nil {
		term := b.Exit()
		if rOut, ok := alloc.RegisterForValue(si.Out, si.Number); ok {
			wOut := int(si.Out.Width())
			for _, in := range term.In {
				rIn, ok2 := alloc.RegisterForValue(in, term.Number)
				if ok2 && registerRangesOverlap(int(rOut), wOut, int(rIn), int(in.Width())) {
					return false
				}
			}
		}
	}
	// Precondition 6: position compatibility.
	term := b.Exit()
	if !si.Pos.Equal(term.Pos) && (term.Pos.IsSet() || len(term.DebugValues) != 0) {
		return false
	}
	return true
}

func terminatorHoistEligible(b, s, t *ir.BasicBlock, si, ti *ir.Instruction, alloc regalloc.Allocator) bool {
	if !prefixInstructionEligible(b, s, t, si, ti, alloc) {
		return false
	}
	if len(si.Targets) != len(ti.Targets) {
		return false
	}
	for i := range si.Targets {
		if si.Targets[i] != ti.Targets[i] {
			return false
		}
	}
	return true
}

func registerRangesOverlap(a, aWidth, b, bWidth int) bool {
	return a < b+bWidth && b < a+aWidth
}

func hoistOneInstruction(b, s, t *ir.BasicBlock, si *ir.Instruction) {
	s.RemoveFront(1)
	t.RemoveFront(1)

	b.InsertBefore(b.NumInstructions()-1, si)

	if si.IsDebugLocalsChange() {
		s.LocalsAtEntry = si.Locals.Apply(s.LocalsAtEntry)
		t.LocalsAtEntry = si.Locals.Apply(t.LocalsAtEntry)
	}
	hoistedInstructionsCounter.Inc(1)
	debugInfo("p3: hoisted prefix instruction", "into", b.Number, "from", s.Number, t.Number)
}

func hoistTerminator(b, s, t *ir.BasicBlock, si *ir.Instruction) {
	s.RemoveAt(0)
	t.RemoveAt(0)

	targets := append([]*ir.BasicBlock(nil), s.NormalSuccessors()...)
	s.DetachNormalSuccessors()
	t.DetachNormalSuccessors()
	s.SetCatchHandlers(nil)
	t.SetCatchHandlers(nil)

	b.RemoveAt(b.NumInstructions() - 1)
	b.DetachNormalSuccessors()
	b.AppendInstruction(si)
	for _, target := range targets {
		b.Link(target)
	}

	hoistedInstructionsCounter.Inc(1)
	debugInfo("p3: hoisted shared terminator", "into", b.Number, "from", s.Number, t.Number)
}
