package peephole

import (
	"github.com/JLLeitschuh/r8-go/ir"
	"github.com/JLLeitschuh/r8-go/regalloc"
)

// MoveEliminator tracks, per physical register, the Value currently
// resident there, invalidating an entry whenever an instruction writes
// that register (§4.2). It is block-local state: callers create a fresh
// one per block.
type MoveEliminator struct {
	alloc    regalloc.Allocator
	resident map[regalloc.Register]*ir.Value
}

// NewMoveEliminator creates a MoveEliminator with empty state.
func NewMoveEliminator(alloc regalloc.Allocator) *MoveEliminator {
	return &MoveEliminator{alloc: alloc, resident: map[regalloc.Register]*ir.Value{}}
}

// ShouldBeEliminated reports whether mv, a move instruction, is a self-move:
// the allocator assigns its source and destination to the same physical
// register, or the eliminator's own state already knows the destination
// register aliases the source's live value. Wide moves must match on both
// halves; the reference allocator (regalloc.LinearScan) always assigns a
// wide value's base register to represent the whole pair, so matching the
// base register is sufficient here.
func (m *MoveEliminator) ShouldBeEliminated(mv *ir.Instruction) bool {
	if !mv.IsMove() || len(mv.In) != 1 || mv.Out == nil {
		return false
	}
	src := mv.In[0]
	dst := mv.Out
	if src.Wide != dst.Wide {
		return false
	}

	srcReg, srcOK := m.alloc.RegisterForValue(src, mv.Number)
	dstReg, dstOK := m.alloc.RegisterForValue(dst, mv.Number)
	if srcOK && dstOK && srcReg == dstReg {
		return true
	}
	if dstOK {
		if resident, known := m.resident[dstReg]; known && resident == src {
			return true
		}
	}
	return false
}

// Observe updates the eliminator's state for an instruction that has
// already been kept (not removed): it invalidates whichever register(s)
// the instruction's output occupies, then, if the instruction is a move
// that was not eliminated, records the destination register as now holding
// the source value.
func (m *MoveEliminator) Observe(instr *ir.Instruction) {
	if instr.Out == nil {
		return
	}
	reg, ok := m.alloc.RegisterForValue(instr.Out, instr.Number)
	if !ok {
		return
	}
	delete(m.resident, reg)
	if instr.Out.Wide {
		delete(m.resident, reg+1)
	}
	if instr.IsMove() && len(instr.In) == 1 {
		m.resident[reg] = instr.In[0]
		if instr.Out.Wide {
			m.resident[reg+1] = instr.In[0]
		}
	}
}
