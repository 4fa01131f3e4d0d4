package ir_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JLLeitschuh/r8-go/ir"
)

func twoBlockGoto() *ir.IRCode {
	code := ir.NewIRCode()
	entry := ir.NewBasicBlock(0)
	exit := ir.NewBasicBlock(1)
	entry.AppendInstruction(ir.NewGoto(exit, ir.Position{}))
	entry.Link(exit)
	ret := &ir.Instruction{Op: ir.OpReturn}
	exit.AppendInstruction(ret)
	code.Entry = entry
	code.SetBlocks([]*ir.BasicBlock{entry, exit})
	return code
}

func TestIRCodeConsistentGraph(t *testing.T) {
	code := twoBlockGoto()
	require.NoError(t, code.IsConsistentGraph())
}

func TestIRCodeDetectsMissingTerminator(t *testing.T) {
	code := ir.NewIRCode()
	b := ir.NewBasicBlock(0)
	b.AppendInstruction(&ir.Instruction{Op: ir.OpMove})
	code.SetBlocks([]*ir.BasicBlock{b})
	require.Error(t, code.IsConsistentGraph())
}

func TestIRCodeDetectsPredSuccAsymmetry(t *testing.T) {
	a := ir.NewBasicBlock(0)
	b := ir.NewBasicBlock(1)
	a.AppendInstruction(ir.NewGoto(b, ir.Position{}))
	a.Link(b)
	b.AppendInstruction(&ir.Instruction{Op: ir.OpReturn})
	// Break symmetry by manually clearing b's predecessor list.
	b.RemovePredecessorOnce(a)
	code := ir.NewIRCode()
	code.SetBlocks([]*ir.BasicBlock{a, b})
	require.Error(t, code.IsConsistentGraph())
}

func TestBasicBlockReplaceSuccessor(t *testing.T) {
	a := ir.NewBasicBlock(0)
	b := ir.NewBasicBlock(1)
	c := ir.NewBasicBlock(2)
	a.Link(b)
	require.Equal(t, []*ir.BasicBlock{a}, b.Predecessors())
	a.ReplaceSuccessor(b, c)
	require.Empty(t, b.Predecessors())
	require.Equal(t, []*ir.BasicBlock{a}, c.Predecessors())
	require.Equal(t, []*ir.BasicBlock{c}, a.NormalSuccessors())
}

func TestBasicBlockTransferCatchHandlers(t *testing.T) {
	a := ir.NewBasicBlock(0)
	b := ir.NewBasicBlock(1)
	h := ir.NewBasicBlock(2)
	a.SetCatchHandlers([]*ir.BasicBlock{h})
	require.Equal(t, []*ir.BasicBlock{a}, h.Predecessors())
	b.TransferCatchHandlers(a)
	require.Empty(t, a.CatchHandlers())
	require.Equal(t, []*ir.BasicBlock{h}, b.CatchHandlers())
	require.Equal(t, []*ir.BasicBlock{b}, h.Predecessors())
}

func TestComputeNormalExitBlocks(t *testing.T) {
	code := twoBlockGoto()
	exits := code.ComputeNormalExitBlocks()
	require.Len(t, exits, 1)
	require.Equal(t, 1, exits[0].Number)
}

func TestValueSpilledAndRematerializable(t *testing.T) {
	v := ir.NewValue(1, true, false, false)
	v.AddInterval(ir.LiveInterval{Start: 0, End: 5, State: ir.Rematerializable})
	require.True(t, v.SpilledAndRematerializableAt(3))
	require.False(t, v.SpilledAndRematerializableAt(6))
}

func TestLocalsDeltaApply(t *testing.T) {
	entry := map[int]ir.LocalDescriptor{0: {Register: 0, Name: "x"}}
	delta := &ir.LocalsDelta{Sets: map[int]ir.LocalDescriptor{1: {Register: 1, Name: "y"}}, Clears: []int{0}}
	out := delta.Apply(entry)
	require.NotContains(t, out, 0)
	require.Contains(t, out, 1)
	// Original map must not be mutated.
	require.Contains(t, entry, 0)
}
