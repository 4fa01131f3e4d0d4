package peephole

import (
	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

// fakeAllocator is a hand-fed regalloc.Allocator double: tests assign
// registers to specific Values directly instead of running LinearScan, so
// expected outcomes stay independent of allocation-order edge cases.
type fakeAllocator struct {
	opts regalloc.Options
	reg  map[*ir.Value]regalloc.Register

	mergeCalls  []mergeRecord
	suffixCalls []suffixRecord
}

type mergeRecord struct {
	Surviving, Discarded *ir.BasicBlock
}

type suffixRecord struct {
	Block *ir.BasicBlock
	Size  int
	Preds []*ir.BasicBlock
}

func newFakeAllocator(debug bool) *fakeAllocator {
	return &fakeAllocator{opts: regalloc.Options{Debug: debug}, reg: map[*ir.Value]regalloc.Register{}}
}

func (a *fakeAllocator) assign(v *ir.Value, r regalloc.Register) { a.reg[v] = r }

func (a *fakeAllocator) RegisterForValue(v *ir.Value, _ int) (regalloc.Register, bool) {
	if v == nil {
		return regalloc.NoRegister, false
	}
	r, ok := a.reg[v]
	return r, ok
}

func (a *fakeAllocator) IdenticalAfterRegisterAllocation(i0, i1 *ir.Instruction) bool {
	if !i0.IdenticalNonValueNonPositionParts(i1) {
		return false
	}
	for k := range i0.In {
		r0, ok0 := a.RegisterForValue(i0.In[k], i0.Number)
		r1, ok1 := a.RegisterForValue(i1.In[k], i1.Number)
		if ok0 != ok1 || r0 != r1 {
			return false
		}
	}
	if i0.Out != nil {
		r0, ok0 := a.RegisterForValue(i0.Out, i0.Number)
		r1, ok1 := a.RegisterForValue(i1.Out, i1.Number)
		if ok0 != ok1 || r0 != r1 {
			return false
		}
	}
	return true
}

func (a *fakeAllocator) AddNewBlockToShareIdenticalSuffix(n *ir.BasicBlock, size int, preds []*ir.BasicBlock) {
	a.suffixCalls = append(a.suffixCalls, suffixRecord{Block: n, Size: size, Preds: preds})
}

func (a *fakeAllocator) MergeBlocks(surviving, discarded *ir.BasicBlock) {
	a.mergeCalls = append(a.mergeCalls, mergeRecord{Surviving: surviving, Discarded: discarded})
}

func (a *fakeAllocator) Options() regalloc.Options { return a.opts }

var _ regalloc.Allocator = (*fakeAllocator)(nil)
