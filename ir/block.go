package ir

// BasicBlock is an ordered list of instructions ending with exactly one
// terminator. Predecessors are kept as an ordered multiset (repeated
// pointers are allowed and meaningful — a block can be its own
// predecessor twice via two different edges). Successors are split into
// normal successors and catch handlers so that Successors() can return
// them in the order §3 requires: normal successors before catch handlers.
type BasicBlock struct {
	Number int

	instrs []*Instruction

	preds         []*BasicBlock
	normalSuccs   []*BasicBlock
	catchHandlers []*BasicBlock

	// LocalsAtEntry maps register number to the debug-local descriptor live
	// in it on entry to this block.
	LocalsAtEntry map[int]LocalDescriptor
}

// NewBasicBlock creates an empty block with the given number.
func NewBasicBlock(number int) *BasicBlock {
	return &BasicBlock{Number: number}
}

func (b *BasicBlock) Instructions() []*Instruction { return b.instrs }

// SetInstructions replaces the block's instruction list wholesale and
// reparents every instruction to this block.
func (b *BasicBlock) SetInstructions(instrs []*Instruction) {
	b.instrs = instrs
	for _, in := range instrs {
		in.block = b
	}
}

// Exit returns the block's terminator, the last instruction, or nil if the
// block is (transiently) empty.
func (b *BasicBlock) Exit() *Instruction {
	if len(b.instrs) == 0 {
		return nil
	}
	return b.instrs[len(b.instrs)-1]
}

func (b *BasicBlock) NumInstructions() int { return len(b.instrs) }

// AppendInstruction appends in to the end of the block's instruction list.
func (b *BasicBlock) AppendInstruction(in *Instruction) {
	in.block = b
	b.instrs = append(b.instrs, in)
}

// InsertBefore inserts in at index idx, shifting later instructions down.
func (b *BasicBlock) InsertBefore(idx int, in *Instruction) {
	in.block = b
	b.instrs = append(b.instrs, nil)
	copy(b.instrs[idx+1:], b.instrs[idx:])
	b.instrs[idx] = in
}

// RemoveFront removes and returns the first n instructions.
func (b *BasicBlock) RemoveFront(n int) []*Instruction {
	removed := append([]*Instruction(nil), b.instrs[:n]...)
	for _, in := range removed {
		in.block = nil
	}
	b.instrs = b.instrs[n:]
	return removed
}

// RemoveBack removes and returns the last n instructions.
func (b *BasicBlock) RemoveBack(n int) []*Instruction {
	split := len(b.instrs) - n
	removed := append([]*Instruction(nil), b.instrs[split:]...)
	for _, in := range removed {
		in.block = nil
	}
	b.instrs = b.instrs[:split]
	return removed
}

// RemoveAt removes and returns the instruction at index idx.
func (b *BasicBlock) RemoveAt(idx int) *Instruction {
	removed := b.instrs[idx]
	removed.block = nil
	b.instrs = append(b.instrs[:idx], b.instrs[idx+1:]...)
	return removed
}

func (b *BasicBlock) Predecessors() []*BasicBlock { return b.preds }

// AddPredecessor appends p to this block's predecessor multiset.
func (b *BasicBlock) AddPredecessor(p *BasicBlock) {
	b.preds = append(b.preds, p)
}

// RemovePredecessorOnce removes a single occurrence of p from the
// predecessor multiset.
func (b *BasicBlock) RemovePredecessorOnce(p *BasicBlock) {
	for i, pred := range b.preds {
		if pred == p {
			b.preds = append(b.preds[:i], b.preds[i+1:]...)
			return
		}
	}
}

func (b *BasicBlock) NormalSuccessors() []*BasicBlock { return b.normalSuccs }
func (b *BasicBlock) CatchHandlers() []*BasicBlock    { return b.catchHandlers }

// SetCatchHandlers replaces the block's catch-handler successor set,
// updating predecessor bookkeeping on both the old and new handlers.
func (b *BasicBlock) SetCatchHandlers(handlers []*BasicBlock) {
	for _, h := range b.catchHandlers {
		h.RemovePredecessorOnce(b)
	}
	b.catchHandlers = handlers
	for _, h := range handlers {
		h.AddPredecessor(b)
	}
}

// Successors returns normal successors followed by catch handlers, per the
// ordering invariant in §3.
func (b *BasicBlock) Successors() []*BasicBlock {
	out := make([]*BasicBlock, 0, len(b.normalSuccs)+len(b.catchHandlers))
	out = append(out, b.normalSuccs...)
	out = append(out, b.catchHandlers...)
	return out
}

// Link adds target as a new normal successor of b.
func (b *BasicBlock) Link(target *BasicBlock) {
	b.normalSuccs = append(b.normalSuccs, target)
	target.AddPredecessor(b)
}

// DetachAllSuccessors removes b from every successor's predecessor list and
// clears b's own successor lists.
func (b *BasicBlock) DetachAllSuccessors() {
	for _, s := range b.normalSuccs {
		s.RemovePredecessorOnce(b)
	}
	for _, s := range b.catchHandlers {
		s.RemovePredecessorOnce(b)
	}
	b.normalSuccs = nil
	b.catchHandlers = nil
}

// DetachNormalSuccessors removes b from each normal successor's predecessor
// list and clears b's normal-successor list, leaving catch handlers intact.
func (b *BasicBlock) DetachNormalSuccessors() {
	for _, s := range b.normalSuccs {
		s.RemovePredecessorOnce(b)
	}
	b.normalSuccs = nil
}

// ReplaceSuccessor rewrites a single edge b->old into b->new: the first
// occurrence of old among b's normal successors, or failing that among its
// catch handlers.
func (b *BasicBlock) ReplaceSuccessor(old, new *BasicBlock) {
	for i, s := range b.normalSuccs {
		if s == old {
			b.normalSuccs[i] = new
			old.RemovePredecessorOnce(b)
			new.AddPredecessor(b)
			return
		}
	}
	for i, s := range b.catchHandlers {
		if s == old {
			b.catchHandlers[i] = new
			old.RemovePredecessorOnce(b)
			new.AddPredecessor(b)
			return
		}
	}
}

// TransferCatchHandlers moves from's catch handlers onto b, fixing up
// predecessor bookkeeping on the handler blocks. from is left with no catch
// handlers.
func (b *BasicBlock) TransferCatchHandlers(from *BasicBlock) {
	for _, h := range from.catchHandlers {
		h.RemovePredecessorOnce(from)
		h.AddPredecessor(b)
	}
	b.catchHandlers = from.catchHandlers
	from.catchHandlers = nil
}

// HasCatchHandlers reports whether this block has any exception successors.
func (b *BasicBlock) HasCatchHandlers() bool { return len(b.catchHandlers) > 0 }
