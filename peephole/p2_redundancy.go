package peephole

import (
	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

// RedundancyRemoval is phase P2 (§4.4): drop self-moves and redundant
// constant reloads. It runs independently per block; a register's known
// resident constant never flows across a block boundary, since two
// predecessors of a join can leave different constants behind.
func RedundancyRemoval(code *ir.IRCode, alloc regalloc.Allocator) {
	for _, b := range code.Blocks() {
		removeRedundantInstructionsInBlock(b, alloc)
	}
}

func removeRedundantInstructionsInBlock(b *ir.BasicBlock, alloc regalloc.Allocator) {
	moveElim := NewMoveEliminator(alloc)
	resident := map[regalloc.Register]*ir.Instruction{}

	kept := make([]*ir.Instruction, 0, b.NumInstructions())
	for _, instr := range b.Instructions() {
		if instr.IsMove() && moveElim.ShouldBeEliminated(instr) {
			removedInstructionsCounter.Inc(1)
			continue
		}

		if instr.Out != nil && instr.Out.NeedsRegister {
			if instr.IsConstNumber() {
				if instr.Out.SpilledAndRematerializableAt(instr.Number) {
					removedInstructionsCounter.Inc(1)
					continue
				}
				reg, ok := alloc.RegisterForValue(instr.Out, instr.Number)
				if ok {
					if existing, known := resident[reg]; known && constEquivalent(existing, instr) {
						removedInstructionsCounter.Inc(1)
						continue
					}
					invalidateRegisterWidth(resident, reg, instr.Out.Width())
					resident[reg] = instr
				}
			} else {
				if reg, ok := alloc.RegisterForValue(instr.Out, instr.Number); ok {
					invalidateRegisterWidth(resident, reg, instr.Out.Width())
				}
			}
		}

		moveElim.Observe(instr)
		kept = append(kept, instr)
	}
	b.SetInstructions(kept)
}

// invalidateRegisterWidth clears the constant map entries an instruction's
// output write clobbers: the register(s) it defines, plus a wide value one
// register below whose upper half now aliases this write.
func invalidateRegisterWidth(resident map[regalloc.Register]*ir.Instruction, r regalloc.Register, w ir.Width) {
	delete(resident, r)
	if w == ir.Wide {
		delete(resident, r+1)
	}
	if lower, ok := resident[r-1]; ok && lower.Out != nil && lower.Out.Wide {
		delete(resident, r-1)
	}
}

func constEquivalent(a, b *ir.Instruction) bool {
	if a.ConstValue == nil || b.ConstValue == nil {
		return false
	}
	if a.Out == nil || b.Out == nil || a.Out.Wide != b.Out.Wide {
		return false
	}
	return a.ConstValue.Eq(b.ConstValue)
}
