package ir

import "fmt"

// IRCode is the control-flow graph: an ordered container of blocks plus the
// entry block and a monotonically increasing block-number generator.
type IRCode struct {
	blocks          []*BasicBlock
	Entry           *BasicBlock
	nextBlockNumber int
}

// NewIRCode creates an empty CFG.
func NewIRCode() *IRCode { return &IRCode{} }

func (c *IRCode) Blocks() []*BasicBlock { return c.blocks }

// SetBlocks replaces the block list wholesale and advances the block-number
// generator past the highest number present.
func (c *IRCode) SetBlocks(blocks []*BasicBlock) {
	c.blocks = blocks
	for _, b := range blocks {
		if b.Number >= c.nextBlockNumber {
			c.nextBlockNumber = b.Number + 1
		}
	}
}

// AppendBlock adds a new block to the CFG.
func (c *IRCode) AppendBlock(b *BasicBlock) {
	c.blocks = append(c.blocks, b)
	if b.Number >= c.nextBlockNumber {
		c.nextBlockNumber = b.Number + 1
	}
}

// RemoveBlock splices b out of the block list. It does not touch b's edges;
// callers must have already detached b from the graph.
func (c *IRCode) RemoveBlock(b *BasicBlock) {
	for i, blk := range c.blocks {
		if blk == b {
			c.blocks = append(c.blocks[:i], c.blocks[i+1:]...)
			return
		}
	}
}

// NewBlockNumber allocates and returns the next block number, per §5's
// "block numbers assigned to new blocks are monotonic from the current
// highest".
func (c *IRCode) NewBlockNumber() int {
	n := c.nextBlockNumber
	c.nextBlockNumber++
	return n
}

// GetHighestBlockNumber returns the largest block number currently in the
// graph, or -1 if the graph is empty.
func (c *IRCode) GetHighestBlockNumber() int {
	highest := -1
	for _, b := range c.blocks {
		if b.Number > highest {
			highest = b.Number
		}
	}
	return highest
}

// ComputeNormalExitBlocks returns every block whose terminator is a return.
func (c *IRCode) ComputeNormalExitBlocks() []*BasicBlock {
	var out []*BasicBlock
	for _, b := range c.blocks {
		if exit := b.Exit(); exit != nil && exit.Op == OpReturn {
			out = append(out, b)
		}
	}
	return out
}

// IsConsistentGraph checks Invariants 1-3 of §3. Invariant 6 (monotonic
// instruction numbers) is not checked here: numbers are allocation-order
// keys assigned once when a block is built, and P3/P4 legitimately splice
// an instruction from one block's allocation order into another's without
// renumbering, the same way original_source's isConsistentGraph does not
// check it either. Invariants 4-5 (dominance of every use, full
// locals-replay agreement across arbitrary predecessor counts) require
// whole-program dataflow analysis that is out of scope per §1 Non-goals;
// the phases that could violate them (P3, P4) spot-check the specific
// conditions they touch instead.
func (c *IRCode) IsConsistentGraph() error {
	for _, b := range c.blocks {
		if err := checkSingleTerminator(b); err != nil {
			return err
		}
		if err := checkAtMostOneThrow(b); err != nil {
			return err
		}
	}
	if err := checkPredSuccSymmetry(c.blocks); err != nil {
		return err
	}
	return nil
}

func checkSingleTerminator(b *BasicBlock) error {
	if len(b.instrs) == 0 {
		return fmt.Errorf("invariant 2: block %d has no instructions", b.Number)
	}
	exit := b.instrs[len(b.instrs)-1]
	if !exit.IsTerminator() {
		return fmt.Errorf("invariant 2: block %d does not end in a terminator", b.Number)
	}
	for _, in := range b.instrs[:len(b.instrs)-1] {
		if in.IsTerminator() {
			return fmt.Errorf("invariant 2: block %d has a non-final terminator at instruction %d", b.Number, in.Number)
		}
	}
	return nil
}

func checkAtMostOneThrow(b *BasicBlock) error {
	if !b.HasCatchHandlers() {
		return nil
	}
	count := 0
	for _, in := range b.instrs {
		if in.InstructionInstanceCanThrow() {
			count++
		}
	}
	if count > 1 {
		return fmt.Errorf("invariant 3: block %d has %d throwing instructions under a catch handler", b.Number, count)
	}
	return nil
}

func checkPredSuccSymmetry(blocks []*BasicBlock) error {
	// Count, for every ordered pair (from, to), how many successor edges
	// from->to exist versus how many predecessor entries to records for
	// from. These must agree exactly since both are ordered multisets over
	// the same edge set.
	succCount := map[[2]int]int{}
	predCount := map[[2]int]int{}
	for _, b := range blocks {
		for _, s := range b.Successors() {
			succCount[[2]int{b.Number, s.Number}]++
		}
		for _, p := range b.preds {
			predCount[[2]int{p.Number, b.Number}]++
		}
	}
	for k, v := range succCount {
		if predCount[k] != v {
			return fmt.Errorf("invariant 1: block %d -> %d has %d successor edges but %d matching predecessor entries", k[0], k[1], v, predCount[k])
		}
	}
	for k, v := range predCount {
		if succCount[k] != v {
			return fmt.Errorf("invariant 1: block %d -> %d has %d predecessor entries but %d matching successor edges", k[0], k[1], v, succCount[k])
		}
	}
	return nil
}
