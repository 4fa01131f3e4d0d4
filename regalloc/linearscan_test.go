package regalloc_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

func TestLinearScanAssignsDistinctRegistersToOverlappingValues(t *testing.T) {
	code := ir.NewIRCode()
	b := ir.NewBasicBlock(0)

	v1 := ir.NewValue(1, true, false, false)
	v2 := ir.NewValue(2, true, false, false)

	defA := &ir.Instruction{Number: 0, Op: ir.OpMove, Out: v1}
	defB := &ir.Instruction{Number: 1, Op: ir.OpMove, Out: v2}
	use := &ir.Instruction{Number: 2, Op: ir.OpMove, In: []*ir.Value{v1, v2}}
	ret := &ir.Instruction{Number: 3, Op: ir.OpReturn}

	b.SetInstructions([]*ir.Instruction{defA, defB, use, ret})
	code.SetBlocks([]*ir.BasicBlock{b})
	code.Entry = b

	alloc := regalloc.NewLinearScan(8, false)
	alloc.Allocate(code)

	r1, ok1 := alloc.RegisterForValue(v1, 2)
	r2, ok2 := alloc.RegisterForValue(v2, 2)
	require.True(t, ok1)
	require.True(t, ok2)
	require.NotEqual(t, r1, r2)
}

func TestLinearScanTreatsConstantsAsRematerializable(t *testing.T) {
	code := ir.NewIRCode()
	b := ir.NewBasicBlock(0)

	v := ir.NewValue(1, true, false, false)
	c := &ir.Instruction{Number: 0, Op: ir.OpConstNumber, Out: v, ConstValue: uint256.NewInt(7)}
	use := &ir.Instruction{Number: 1, Op: ir.OpMove, In: []*ir.Value{v}}
	ret := &ir.Instruction{Number: 2, Op: ir.OpReturn}
	b.SetInstructions([]*ir.Instruction{c, use, ret})
	code.SetBlocks([]*ir.BasicBlock{b})
	code.Entry = b

	alloc := regalloc.NewLinearScan(8, false)
	alloc.Allocate(code)

	require.True(t, v.SpilledAndRematerializableAt(0))
	_, ok := alloc.RegisterForValue(v, 0)
	require.False(t, ok)
}

func TestLinearScanIdenticalAfterRegisterAllocation(t *testing.T) {
	code := ir.NewIRCode()
	b := ir.NewBasicBlock(0)

	v1 := ir.NewValue(1, true, false, false)
	v2 := ir.NewValue(2, true, false, false)
	defA := &ir.Instruction{Number: 0, Op: ir.OpMove, Out: v1}
	moveA := &ir.Instruction{Number: 1, Op: ir.OpMove, In: []*ir.Value{v1}}
	defB := &ir.Instruction{Number: 2, Op: ir.OpMove, Out: v2}
	moveB := &ir.Instruction{Number: 3, Op: ir.OpMove, In: []*ir.Value{v2}}
	ret := &ir.Instruction{Number: 4, Op: ir.OpReturn}
	b.SetInstructions([]*ir.Instruction{defA, moveA, defB, moveB, ret})
	code.SetBlocks([]*ir.BasicBlock{b})
	code.Entry = b

	alloc := regalloc.NewLinearScan(1, false)
	alloc.Allocate(code)

	// v1 dies before v2 is defined, so a single physical register suffices
	// for both, making moveA and moveB indistinguishable.
	require.True(t, alloc.IdenticalAfterRegisterAllocation(moveA, moveB))
}
