package peephole

import (
	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

// IdenticalPredecessorMerge is phase P1 (§4.3): for each join block B, if
// two of B's predecessors have identical non-trivial bodies, collapse the
// duplicate into a single-instruction goto-block pointing at the survivor.
// It iterates to a fixed point because a merge can expose new duplicates
// among a block's predecessors (e.g. a chain of three identical bodies).
func IdenticalPredecessorMerge(code *ir.IRCode, alloc regalloc.Allocator) {
	for {
		changed := false
		for _, b := range code.Blocks() {
			if mergeIdenticalPredecessorsOf(b, alloc) {
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func mergeIdenticalPredecessorsOf(b *ir.BasicBlock, alloc regalloc.Allocator) bool {
	preds := b.Predecessors()
	if len(preds) < 2 {
		return false
	}

	buckets := map[uint64][]*ir.BasicBlock{}
	merged := false

	// Snapshot: mergeOnePredecessor mutates b's predecessor list as it runs.
	snapshot := append([]*ir.BasicBlock(nil), preds...)
	for _, p := range snapshot {
		if isTrivialGoto(p) {
			continue
		}
		key := BasicBlockEquivalence{Block: p, Alloc: alloc}.Hash()
		var keeper *ir.BasicBlock
		for _, cand := range buckets[key] {
			if (BasicBlockEquivalence{Block: cand, Alloc: alloc}).Equal(BasicBlockEquivalence{Block: p, Alloc: alloc}) {
				keeper = cand
				break
			}
		}
		if keeper == nil {
			buckets[key] = append(buckets[key], p)
			continue
		}

		if alloc.Options().Debug && !positionsMatch(keeper, p) {
			assertf(false, "p1: predecessors %d and %d of block %d have identical bodies but differing positions under debug mode", keeper.Number, p.Number, b.Number)
		}

		mergeOnePredecessor(keeper, p, alloc)
		merged = true
	}
	return merged
}

func isTrivialGoto(b *ir.BasicBlock) bool {
	instrs := b.Instructions()
	return len(instrs) == 1 && instrs[0].Op == ir.OpGoto
}

func positionsMatch(a, b *ir.BasicBlock) bool {
	ai, bi := a.Instructions(), b.Instructions()
	if len(ai) != len(bi) {
		return false
	}
	for i := range ai {
		if !ai[i].Pos.Equal(bi[i].Pos) {
			return false
		}
	}
	return true
}

// mergeOnePredecessor rewrites discard into a single `goto keeper` block and
// rewires the graph so discard is now a predecessor of keeper rather than
// of their shared successor.
func mergeOnePredecessor(keeper, discard *ir.BasicBlock, alloc regalloc.Allocator) {
	alloc.MergeBlocks(keeper, discard)

	discard.SetCatchHandlers(nil)
	discard.DetachAllSuccessors()
	discard.SetInstructions(nil)

	var pos ir.Position
	if exit := keeper.Exit(); exit != nil {
		pos = exit.Pos
	}

	discard.Link(keeper)
	discard.AppendInstruction(ir.NewGoto(keeper, pos))

	mergedPredecessorsCounter.Inc(1)
	debugInfo("p1: merged identical predecessor", "keeper", keeper.Number, "discarded", discard.Number)
}
