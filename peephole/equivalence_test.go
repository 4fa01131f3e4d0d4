package peephole

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/JLLeitschuh/r8-go/ir"
)

func TestInstructionEquivalenceIgnoresPosition(t *testing.T) {
	alloc := newFakeAllocator(false)
	v1 := ir.NewValue(1, true, false, false)
	v2 := ir.NewValue(2, true, false, false)
	alloc.assign(v1, 0)
	alloc.assign(v2, 0)

	a := &ir.Instruction{Number: 0, Op: ir.OpConstNumber, Out: v1, ConstValue: uint256.NewInt(7), Pos: ir.NewPosition("A.java", 1)}
	b := &ir.Instruction{Number: 5, Op: ir.OpConstNumber, Out: v2, ConstValue: uint256.NewInt(7), Pos: ir.NewPosition("A.java", 99)}

	require.True(t, (InstructionEquivalence{Instr: a, Alloc: alloc}).Equal(InstructionEquivalence{Instr: b, Alloc: alloc}))
}

func TestInstructionEquivalenceDiffersOnRegister(t *testing.T) {
	alloc := newFakeAllocator(false)
	v1 := ir.NewValue(1, true, false, false)
	v2 := ir.NewValue(2, true, false, false)
	alloc.assign(v1, 0)
	alloc.assign(v2, 1)

	a := &ir.Instruction{Number: 0, Op: ir.OpConstNumber, Out: v1, ConstValue: uint256.NewInt(7)}
	b := &ir.Instruction{Number: 1, Op: ir.OpConstNumber, Out: v2, ConstValue: uint256.NewInt(7)}

	require.False(t, (InstructionEquivalence{Instr: a, Alloc: alloc}).Equal(InstructionEquivalence{Instr: b, Alloc: alloc}))
}

func TestBasicBlockEquivalenceRequiresSameLength(t *testing.T) {
	alloc := newFakeAllocator(false)
	b1 := ir.NewBasicBlock(0)
	b2 := ir.NewBasicBlock(1)
	target := ir.NewBasicBlock(2)
	b1.AppendInstruction(ir.NewGoto(target, ir.Position{}))
	b2.AppendInstruction(&ir.Instruction{Op: ir.OpNop})
	b2.AppendInstruction(ir.NewGoto(target, ir.Position{}))

	require.False(t, (BasicBlockEquivalence{Block: b1, Alloc: alloc}).Equal(BasicBlockEquivalence{Block: b2, Alloc: alloc}))
}
