package regalloc

import (
	"sort"

	"github.com/JLLeitschuh/r8-go/ir"
)

// LinearScan is a minimal, self-contained linear-scan allocator: sort
// value live ranges by start, walk them in order, hand out the
// longest-free physical register, spill on exhaustion. Grounded on the
// active-interval-list shape of fkuehnel-golang-cfg/go-code/regalloc.go,
// simplified because loop-aware interval splitting and desired-register
// heuristics are out of scope for a reference allocator whose only job
// here is to give the peephole passes a real collaborator to run against.
//
// Simplifications: every OpConstNumber definition (unless pinned via
// FixedRegisterDef) is treated as rematerializable and never occupies a
// register; every other value gets exactly one physical register for its
// entire live range (no splitting, no reload-on-spill — a non-constant value
// that finds no free register at its definition is spilled and gets no
// register anywhere in its range).
type LinearScan struct {
	numRegisters int
	opts         Options

	assignment map[*ir.Value]Register
	interval   map[*ir.Value]ir.LiveInterval

	mergeCalls []mergeCall
	suffixCall []suffixCall
}

type mergeCall struct{ Surviving, Discarded *ir.BasicBlock }
type suffixCall struct {
	Block *ir.BasicBlock
	Size  int
	Preds []*ir.BasicBlock
}

// NewLinearScan creates an allocator with the given physical register file
// size.
func NewLinearScan(numRegisters int, debug bool) *LinearScan {
	return &LinearScan{
		numRegisters: numRegisters,
		opts:         Options{Debug: debug},
		assignment:   map[*ir.Value]Register{},
		interval:     map[*ir.Value]ir.LiveInterval{},
	}
}

type liveRange struct {
	value *ir.Value
	start int
	end   int
	def   *ir.Instruction
}

// Allocate computes a register assignment for every register-needing value
// defined in code and records the resulting live intervals on each Value,
// as the real allocator would before handing the CFG to the peephole
// optimizer.
func (a *LinearScan) Allocate(code *ir.IRCode) {
	ranges := a.collectLiveRanges(code)
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].start < ranges[j].start })

	freeUntil := make([]int, a.numRegisters)
	for i := range freeUntil {
		freeUntil[i] = -1
	}

	for _, lr := range ranges {
		if lr.def.Op == ir.OpConstNumber && !lr.value.FixedRegisterDef {
			lr.value.AddInterval(ir.LiveInterval{Start: lr.start, End: lr.end, State: ir.Rematerializable})
			continue
		}

		reg, ok := a.pickRegister(freeUntil, lr.start)
		if !ok {
			lr.value.AddInterval(ir.LiveInterval{Start: lr.start, End: lr.end, State: ir.Spilled})
			continue
		}
		freeUntil[reg] = lr.end
		a.assignment[lr.value] = Register(reg)
		lr.value.AddInterval(ir.LiveInterval{Start: lr.start, End: lr.end, State: ir.Resident})
	}
}

func (a *LinearScan) pickRegister(freeUntil []int, at int) (int, bool) {
	best := -1
	for i, until := range freeUntil {
		if until < at {
			if best == -1 || freeUntil[best] > until {
				best = i
			}
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func (a *LinearScan) collectLiveRanges(code *ir.IRCode) []liveRange {
	var ranges []liveRange
	seen := map[*ir.Value]bool{}
	for _, b := range code.Blocks() {
		for _, in := range b.Instructions() {
			if in.Out != nil && in.Out.NeedsRegister && !seen[in.Out] {
				seen[in.Out] = true
				ranges = append(ranges, liveRange{value: in.Out, start: in.Number, end: lastUse(code, in.Out, in.Number), def: in})
			}
		}
	}
	return ranges
}

func lastUse(code *ir.IRCode, v *ir.Value, defNumber int) int {
	last := defNumber
	for _, b := range code.Blocks() {
		for _, in := range b.Instructions() {
			for _, use := range in.In {
				if use == v && in.Number > last {
					last = in.Number
				}
			}
		}
	}
	return last
}

// RegisterForValue implements Allocator.
func (a *LinearScan) RegisterForValue(v *ir.Value, instructionNumber int) (Register, bool) {
	iv, ok := v.IntervalAt(instructionNumber)
	if !ok || iv.State != ir.Resident {
		return NoRegister, false
	}
	reg, ok := a.assignment[v]
	return reg, ok
}

// IdenticalAfterRegisterAllocation implements Allocator.
func (a *LinearScan) IdenticalAfterRegisterAllocation(i0, i1 *ir.Instruction) bool {
	if !i0.IdenticalNonValueNonPositionParts(i1) {
		return false
	}
	if len(i0.In) != len(i1.In) {
		return false
	}
	for k := range i0.In {
		r0, ok0 := a.RegisterForValue(i0.In[k], i0.Number)
		r1, ok1 := a.RegisterForValue(i1.In[k], i1.Number)
		if ok0 != ok1 || r0 != r1 {
			return false
		}
	}
	if (i0.Out == nil) != (i1.Out == nil) {
		return false
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

// AddNewBlockToShareIdenticalSuffix implements Allocator. The reference
// allocator assigns one fixed register per value for its whole live range,
// so a spliced-in suffix block referencing values already live across the
// old edges needs no interval surgery; we just record the call so tests can
// assert P4 actually notified the allocator.
func (a *LinearScan) AddNewBlockToShareIdenticalSuffix(newBlock *ir.BasicBlock, suffixSize int, preds []*ir.BasicBlock) {
	a.suffixCall = append(a.suffixCall, suffixCall{Block: newBlock, Size: suffixSize, Preds: preds})
}

// MergeBlocks implements Allocator. Values are shared by pointer between
// the surviving and discarded predecessor bodies (they were structurally
// equivalent), so there is no interval data to reconcile; recorded for
// test assertions only.
func (a *LinearScan) MergeBlocks(surviving, discarded *ir.BasicBlock) {
	a.mergeCalls = append(a.mergeCalls, mergeCall{Surviving: surviving, Discarded: discarded})
}

// Options implements Allocator.
func (a *LinearScan) Options() Options { return a.opts }

// MergeCalls returns the recorded MergeBlocks calls, for tests.
func (a *LinearScan) MergeCalls() []mergeCall { return a.mergeCalls }

// SuffixCalls returns the recorded AddNewBlockToShareIdenticalSuffix calls,
// for tests.
func (a *LinearScan) SuffixCalls() []suffixCall { return a.suffixCall }
