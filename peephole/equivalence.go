package peephole

import (
	"hash/fnv"

	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

// InstructionEquivalence wraps an instruction with a hash and an equality
// that respect register coloring (§4.1): two instructions are equivalent
// iff they agree on opcode, literal operands, operand widths/count, and the
// physical registers the allocator reports for every input and output at
// each instruction's own number. Position and debug values are ignored
// here; callers needing position-exactness (e.g. P1's debug-mode contract)
// filter separately.
type InstructionEquivalence struct {
	Instr *ir.Instruction
	Alloc regalloc.Allocator
}

// Equal reports whether the two wrapped instructions are equivalent modulo
// register allocation.
func (e InstructionEquivalence) Equal(o InstructionEquivalence) bool {
	return e.Alloc.IdenticalAfterRegisterAllocation(e.Instr, o.Instr)
}

// Hash returns a hash consistent with Equal: equal instructions always
// hash equal, though the reverse is not guaranteed (colliding hashes still
// require confirming with Equal).
func (e InstructionEquivalence) Hash() uint64 {
	h := fnv.New64a()
	writeUint64(h, uint64(e.Instr.Op))
	if e.Instr.ConstValue != nil {
		b := e.Instr.ConstValue.Bytes32()
		h.Write(b[:])
	}
	for _, in := range e.Instr.In {
		reg, ok := e.Alloc.RegisterForValue(in, e.Instr.Number)
		writeUint64(h, uint64(reg))
		writeUint64(h, boolToUint64(ok))
	}
	if e.Instr.Out != nil {
		reg, ok := e.Alloc.RegisterForValue(e.Instr.Out, e.Instr.Number)
		writeUint64(h, uint64(reg))
		writeUint64(h, boolToUint64(ok))
	}
	return h.Sum64()
}

// BasicBlockEquivalence wraps a block with an equality built on
// InstructionEquivalence: two blocks are equivalent iff they have the same
// number of instructions and every instruction pair (including the
// terminator) is equivalent under InstructionEquivalence.
type BasicBlockEquivalence struct {
	Block *ir.BasicBlock
	Alloc regalloc.Allocator
}

// Equal reports whether the two wrapped blocks have structurally
// equivalent bodies.
func (e BasicBlockEquivalence) Equal(o BasicBlockEquivalence) bool {
	a, b := e.Block.Instructions(), o.Block.Instructions()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		wa := InstructionEquivalence{Instr: a[i], Alloc: e.Alloc}
		wb := InstructionEquivalence{Instr: b[i], Alloc: o.Alloc}
		if !wa.Equal(wb) {
			return false
		}
	}
	return true
}

// Hash combines the instruction hashes in order.
func (e BasicBlockEquivalence) Hash() uint64 {
	h := fnv.New64a()
	for _, in := range e.Block.Instructions() {
		writeUint64(h, InstructionEquivalence{Instr: in, Alloc: e.Alloc}.Hash())
	}
	return h.Sum64()
}

func writeUint64(h interface{ Write([]byte) (int, error) }, v uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	h.Write(buf[:])
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
