package peephole

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/JLLeitschuh/r8-go/ir"
)

// TestRedundancyRemovalSelfMove is §8 scenario 1: const r1,5; move r1<-r1;
// return r1 collapses to const r1,5; return r1.
func TestRedundancyRemovalSelfMove(t *testing.T) {
	alloc := newFakeAllocator(false)
	code := ir.NewIRCode()
	b := ir.NewBasicBlock(code.NewBlockNumber())

	v1 := ir.NewValue(1, true, false, false)
	v2 := ir.NewValue(2, true, false, false)
	alloc.assign(v1, 1)
	alloc.assign(v2, 1)
	v1.AddInterval(ir.LiveInterval{Start: 0, End: 2, State: ir.Resident})

	n0 := &ir.Instruction{Number: 0, Op: ir.OpConstNumber, Out: v1, ConstValue: uint256.NewInt(5)}
	n1 := &ir.Instruction{Number: 1, Op: ir.OpMove, Out: v2, In: []*ir.Value{v1}}
	n2 := &ir.Instruction{Number: 2, Op: ir.OpReturn, In: []*ir.Value{v2}}
	b.SetInstructions([]*ir.Instruction{n0, n1, n2})

	code.SetBlocks([]*ir.BasicBlock{b})
	code.Entry = b

	RedundancyRemoval(code, alloc)

	require.Equal(t, []*ir.Instruction{n0, n2}, b.Instructions())
}

// TestRedundancyRemovalRedundantConstantReload is §8 scenario 2.
func TestRedundancyRemovalRedundantConstantReload(t *testing.T) {
	alloc := newFakeAllocator(false)
	code := ir.NewIRCode()
	b := ir.NewBasicBlock(code.NewBlockNumber())

	v1 := ir.NewValue(1, true, false, false)
	use1 := ir.NewValue(2, false, false, false)
	v2 := ir.NewValue(3, true, false, false)
	use2 := ir.NewValue(4, false, false, false)
	alloc.assign(v1, 3)
	alloc.assign(v2, 3)
	v1.AddInterval(ir.LiveInterval{Start: 0, End: 3, State: ir.Resident})
	v2.AddInterval(ir.LiveInterval{Start: 2, End: 3, State: ir.Resident})

	defV1 := &ir.Instruction{Number: 0, Op: ir.OpConstNumber, Out: v1, ConstValue: uint256.NewInt(7)}
	useV1 := &ir.Instruction{Number: 1, Op: ir.OpInvoke, Out: use1, In: []*ir.Value{v1}}
	defV2 := &ir.Instruction{Number: 2, Op: ir.OpConstNumber, Out: v2, ConstValue: uint256.NewInt(7)}
	useV2 := &ir.Instruction{Number: 3, Op: ir.OpInvoke, Out: use2, In: []*ir.Value{v2}}
	b.SetInstructions([]*ir.Instruction{defV1, useV1, defV2, useV2})

	code.SetBlocks([]*ir.BasicBlock{b})
	code.Entry = b

	RedundancyRemoval(code, alloc)

	require.Equal(t, []*ir.Instruction{defV1, useV1, useV2}, b.Instructions())
}

func TestRedundancyRemovalRematerializableConstantIsRemoved(t *testing.T) {
	alloc := newFakeAllocator(false)
	code := ir.NewIRCode()
	b := ir.NewBasicBlock(code.NewBlockNumber())

	v1 := ir.NewValue(1, true, false, false)
	v1.AddInterval(ir.LiveInterval{Start: 0, End: 5, State: ir.Rematerializable})

	def := &ir.Instruction{Number: 0, Op: ir.OpConstNumber, Out: v1, ConstValue: uint256.NewInt(42)}
	ret := &ir.Instruction{Number: 1, Op: ir.OpReturn, In: []*ir.Value{v1}}
	b.SetInstructions([]*ir.Instruction{def, ret})
	code.SetBlocks([]*ir.BasicBlock{b})
	code.Entry = b

	RedundancyRemoval(code, alloc)

	require.Equal(t, []*ir.Instruction{ret}, b.Instructions())
}

func TestRedundancyRemovalNonConstantDefinitionInvalidatesRegister(t *testing.T) {
	alloc := newFakeAllocator(false)
	code := ir.NewIRCode()
	b := ir.NewBasicBlock(code.NewBlockNumber())

	v1 := ir.NewValue(1, true, false, false)
	v2 := ir.NewValue(2, true, false, false)
	v3 := ir.NewValue(3, true, false, false)
	alloc.assign(v1, 3)
	alloc.assign(v2, 3)
	alloc.assign(v3, 3)
	v1.AddInterval(ir.LiveInterval{Start: 0, End: 3, State: ir.Resident})
	v3.AddInterval(ir.LiveInterval{Start: 2, End: 3, State: ir.Resident})

	defV1 := &ir.Instruction{Number: 0, Op: ir.OpConstNumber, Out: v1, ConstValue: uint256.NewInt(9)}
	clobber := &ir.Instruction{Number: 1, Op: ir.OpArrayGet, Out: v2, In: []*ir.Value{v1}}
	// Same literal value as defV1, but r3 was clobbered by a non-constant
	// definition in between, so this reload must NOT be removed.
	defV3 := &ir.Instruction{Number: 2, Op: ir.OpConstNumber, Out: v3, ConstValue: uint256.NewInt(9)}
	b.SetInstructions([]*ir.Instruction{defV1, clobber, defV3})
	code.SetBlocks([]*ir.BasicBlock{b})
	code.Entry = b

	RedundancyRemoval(code, alloc)

	require.Equal(t, []*ir.Instruction{defV1, clobber, defV3}, b.Instructions())
}
