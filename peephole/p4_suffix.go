package peephole

import (
	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

// SuffixSharing is phase P4 (§4.6): for each join block, bucket predecessors
// by equivalent terminator, compute the largest common tail shared by a
// bucket, and extract it into a fresh block when doing so is worth the
// bookkeeping (overhead vs. the bytes saved by deduplication). Return
// blocks share no real successor, so they are bucketed against a synthetic
// join that never enters the CFG. New tail blocks become join candidates of
// their own, so the whole thing loops to a fixed point.
func SuffixSharing(code *ir.IRCode, alloc regalloc.Allocator, overhead int) {
	for {
		var newBlocks []*ir.BasicBlock

		for _, j := range code.Blocks() {
			preds := gotoPredecessorsOf(j)
			if len(preds) < 2 {
				continue
			}
			for _, bucket := range partitionByTerminatorEquivalence(preds, alloc) {
				k := commonSuffixLength(bucket, alloc)
				if n := extractSuffix(alloc, overhead, bucket, j, k); n != nil {
					newBlocks = append(newBlocks, n)
				}
			}
		}

		var returnBlocks []*ir.BasicBlock
		for _, b := range code.Blocks() {
			if exit := b.Exit(); exit != nil && exit.Op == ir.OpReturn {
				returnBlocks = append(returnBlocks, b)
			}
		}
		if len(returnBlocks) >= 2 {
			for _, bucket := range partitionByTerminatorEquivalence(returnBlocks, alloc) {
				k := commonSuffixLength(bucket, alloc)
				if n := extractSuffix(alloc, overhead, bucket, nil, k); n != nil {
					newBlocks = append(newBlocks, n)
				}
			}
		}

		if len(newBlocks) == 0 {
			return
		}
		for _, n := range newBlocks {
			n.Number = code.NewBlockNumber()
			code.AppendBlock(n)
		}
	}
}

// gotoPredecessorsOf returns j's predecessors that reach it via a plain,
// unconditional goto. Predecessors that reach j as one arm of a multi-way
// terminator are excluded: sharing a suffix would require picking which
// branch's tail to move, which this pass does not attempt.
func gotoPredecessorsOf(j *ir.BasicBlock) []*ir.BasicBlock {
	var out []*ir.BasicBlock
	for _, p := range j.Predecessors() {
		if exit := p.Exit(); exit != nil && exit.Op == ir.OpGoto && len(p.NormalSuccessors()) == 1 {
			out = append(out, p)
		}
	}
	return out
}

// partitionByTerminatorEquivalence groups blocks whose terminators are
// equivalent modulo register allocation, discarding singleton groups.
func partitionByTerminatorEquivalence(blocks []*ir.BasicBlock, alloc regalloc.Allocator) [][]*ir.BasicBlock {
	type group struct {
		rep     *ir.Instruction
		members []*ir.BasicBlock
	}
	buckets := map[uint64][]*group{}
	for _, b := range blocks {
		term := b.Exit()
		key := InstructionEquivalence{Instr: term, Alloc: alloc}.Hash()
		placed := false
		for _, g := range buckets[key] {
			if (InstructionEquivalence{Instr: g.rep, Alloc: alloc}).Equal(InstructionEquivalence{Instr: term, Alloc: alloc}) {
				g.members = append(g.members, b)
				placed = true
				break
			}
		}
		if !placed {
			buckets[key] = append(buckets[key], &group{rep: term, members: []*ir.BasicBlock{b}})
		}
	}
	var result [][]*ir.BasicBlock
	for _, gs := range buckets {
		for _, g := range gs {
			if len(g.members) >= 2 {
				result = append(result, g.members)
			}
		}
	}
	return result
}

// commonSuffixLength walks backward from the end of every block in bucket,
// growing k while every block agrees at position len-k both on the
// instruction (modulo register allocation) and on the locals state that
// would flow into a suffix block starting there.
func commonSuffixLength(bucket []*ir.BasicBlock, alloc regalloc.Allocator) int {
	k := 0
	for {
		next := k + 1
		for _, p := range bucket {
			if p.NumInstructions() < next {
				return k
			}
		}

		ref := bucket[0]
		refIdx := ref.NumInstructions() - next
		refInstr := ref.Instructions()[refIdx]
		refBoundary := localsAtBoundary(ref, refIdx)

		for _, p := range bucket[1:] {
			idx := p.NumInstructions() - next
			instr := p.Instructions()[idx]
			if !alloc.IdenticalAfterRegisterAllocation(refInstr, instr) {
				return k
			}
			if !localsEqual(refBoundary, localsAtBoundary(p, idx)) {
				return k
			}
		}
		k = next
	}
}

// localsAtBoundary is the locals state after replaying b's debug-locals
// changes over its first idx instructions, i.e. the locals a suffix
// starting at idx would see on entry.
func localsAtBoundary(b *ir.BasicBlock, idx int) map[int]ir.LocalDescriptor {
	locals := b.LocalsAtEntry
	for _, in := range b.Instructions()[:idx] {
		if in.IsDebugLocalsChange() {
			locals = in.Locals.Apply(locals)
		}
	}
	return locals
}

// lastPosition returns the last Position observed while iterating p's
// remaining instructions (§4.6 step 5), falling back to fallback when none
// of them carry a set Position — mirrors original_source's
// `lastPosition = pred.getPosition(); ... if (instruction.getPosition().isSome()) lastPosition = ...`.
func lastPosition(p *ir.BasicBlock, fallback ir.Position) ir.Position {
	last := fallback
	for _, in := range p.Instructions() {
		if in.Pos.IsSet() {
			last = in.Pos
		}
	}
	return last
}

// extractSuffix carries out §4.6 steps 1-6 once k and the overhead check
// pass, returning the new block (its Number left unassigned; the caller
// numbers and splices it into the CFG once the whole round is done) or nil
// if extraction does not fire. j is nil for the synthetic return join: in
// that case predecessors gain N as a brand new successor rather than having
// an existing edge rewritten.
func extractSuffix(alloc regalloc.Allocator, overhead int, bucket []*ir.BasicBlock, j *ir.BasicBlock, k int) *ir.BasicBlock {
	if k <= 1 {
		return nil
	}
	if overhead-(len(bucket)-1)*k >= 0 {
		return nil
	}

	first := bucket[0]
	suffixStart := first.NumInstructions() - k
	suffixTemplate := append([]*ir.Instruction(nil), first.Instructions()[suffixStart:]...)

	n := ir.NewBasicBlock(0)
	n.LocalsAtEntry = localsAtBoundary(first, suffixStart)

	suffixThrows := false
	for _, in := range suffixTemplate {
		if in.InstructionInstanceCanThrow() {
			suffixThrows = true
			break
		}
	}
	if suffixThrows {
		n.TransferCatchHandlers(first)
	}

	alloc.AddNewBlockToShareIdenticalSuffix(n, k, bucket)

	var firstRemoved []*ir.Instruction
	for _, p := range bucket {
		fallback := ir.Position{}
		if exit := p.Exit(); exit != nil {
			fallback = exit.Pos
		}
		removed := p.RemoveBack(k)
		if p == first {
			firstRemoved = removed
		}
		pos := lastPosition(p, fallback)

		predThrows := false
		for _, in := range removed {
			if in.InstructionInstanceCanThrow() {
				predThrows = true
				break
			}
		}
		if predThrows {
			p.SetCatchHandlers(nil)
		}

		if j != nil {
			p.ReplaceSuccessor(j, n)
		} else {
			p.Link(n)
		}
		gotoN := ir.NewGoto(n, pos)
		gotoN.Number = nextInstructionNumber(p)
		p.AppendInstruction(gotoN)
	}
	// firstRemoved's instruction pointers are the same objects copied into
	// suffixTemplate; RemoveBack cleared their block pointer, so parent them
	// to n only now that no further removal will touch them.
	n.SetInstructions(firstRemoved)

	if j != nil {
		n.Link(j)
	}

	suffixBlocksCreatedCounter.Inc(1)
	debugInfo("p4: extracted shared suffix", "len", k, "preds", len(bucket))
	return n
}
