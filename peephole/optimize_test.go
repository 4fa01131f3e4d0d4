package peephole

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JLLeitschuh/r8-go/ir"
)

func TestOptimizeRunsCleanlyOnTrivialCFG(t *testing.T) {
	alloc := newFakeAllocator(false)
	code := ir.NewIRCode()
	entry := ir.NewBasicBlock(code.NewBlockNumber())
	entry.AppendInstruction(&ir.Instruction{Number: 0, Op: ir.OpReturn})
	code.SetBlocks([]*ir.BasicBlock{entry})
	code.Entry = entry

	require.NoError(t, Optimize(code, alloc))
}

func TestOptimizeRejectsInconsistentGraphOnEntry(t *testing.T) {
	alloc := newFakeAllocator(false)
	code := ir.NewIRCode()
	entry := ir.NewBasicBlock(code.NewBlockNumber())
	// No terminator: violates Invariant 2 (exactly one terminator per block).
	entry.AppendInstruction(&ir.Instruction{Number: 0, Op: ir.OpNop})
	code.SetBlocks([]*ir.BasicBlock{entry})
	code.Entry = entry

	err := Optimize(code, alloc)
	require.Error(t, err)
	var graphErr *InconsistentGraphError
	require.True(t, errors.As(err, &graphErr))
	require.Equal(t, "entry", graphErr.When)
}

func TestOptimizeIsIdempotent(t *testing.T) {
	alloc := newFakeAllocator(false)
	code, _, _, _ := buildIdenticalPredecessorsCFG(alloc)

	require.NoError(t, Optimize(code, alloc))
	blockCount := len(code.Blocks())
	instrCounts := map[int]int{}
	for _, b := range code.Blocks() {
		instrCounts[b.Number] = b.NumInstructions()
	}

	require.NoError(t, Optimize(code, alloc))
	require.Equal(t, blockCount, len(code.Blocks()))
	for _, b := range code.Blocks() {
		require.Equal(t, instrCounts[b.Number], b.NumInstructions())
	}
}
