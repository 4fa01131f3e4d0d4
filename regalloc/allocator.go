// Package regalloc defines the collaborator surface the peephole optimizer
// consumes from a register allocator (spec §3, §6), plus a small reference
// implementation used by tests and the CLI. The allocator's own algorithm
// (interval computation, spilling, coalescing) is an external collaborator
// per §1's Non-goals — the peephole package only ever talks to the
// Allocator interface.
package regalloc

import "github.com/JLLeitschuh/r8-go/ir"

// Register is a physical register index. A negative value means "no
// register assigned" (e.g. a value that was spilled or that is only ever
// rematerialized).
type Register int

// NoRegister is returned by RegisterForValue when a value has no physical
// register at the queried instruction number.
const NoRegister Register = -1

// Options mirrors the allocator's options() surface the core reads: only
// the Debug flag matters to the four phases (§3).
type Options struct {
	Debug bool
}

// Allocator is the collaborator surface named in spec §3/§6.
type Allocator interface {
	// RegisterForValue returns the physical register holding v at the given
	// instruction number, and whether one is defined there at all.
	RegisterForValue(v *ir.Value, instructionNumber int) (Register, bool)

	// IdenticalAfterRegisterAllocation reports whether two instructions
	// become indistinguishable once registers are substituted for values —
	// the contract instructions implement using the allocator (§3).
	IdenticalAfterRegisterAllocation(i0, i1 *ir.Instruction) bool

	// AddNewBlockToShareIdenticalSuffix notifies the allocator that a new
	// block has been spliced in during suffix sharing (P4) so it can extend
	// live intervals across it.
	AddNewBlockToShareIdenticalSuffix(newBlock *ir.BasicBlock, suffixSize int, preds []*ir.BasicBlock)

	// MergeBlocks merges liveness information when two identical
	// predecessors are collapsed (P1). surviving keeps its intervals;
	// discarded's intervals are folded in.
	MergeBlocks(surviving, discarded *ir.BasicBlock)

	// Options reports allocator-wide options, notably whether debug info
	// must be preserved bit-exact.
	Options() Options
}
