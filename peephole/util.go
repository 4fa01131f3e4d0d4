package peephole

import "github.com/JLLeitschuh/r8-go/ir"

// nextInstructionNumber picks a Number for a synthesized instruction being
// appended to b that keeps Invariant 6 (strictly increasing numbers within
// a block) satisfied. The synthesized instruction never defines or uses a
// Value, so its Number only has to out-rank whatever precedes it in this
// block; global uniqueness across the CFG is not required.
func nextInstructionNumber(b *ir.BasicBlock) int {
	if exit := b.Exit(); exit != nil {
		return exit.Number + 1
	}
	return 0
}
