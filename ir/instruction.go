package ir

import "github.com/holiman/uint256"

// LocalDescriptor is the debugger-facing description of what source-level
// variable currently lives in a register.
type LocalDescriptor struct {
	Register int
	Name     string
	Type     string
}

// LocalsDelta is the payload of a debug-locals-change instruction: a set of
// registers that gain or change a local, and a set that lose one.
type LocalsDelta struct {
	Sets   map[int]LocalDescriptor
	Clears []int
}

// Apply returns a new map with this delta replayed on top of m. m is never
// mutated: locals maps are logically owned by the block they annotate, and
// replay must not leak mutations across blocks (§9).
func (d *LocalsDelta) Apply(m map[int]LocalDescriptor) map[int]LocalDescriptor {
	out := make(map[int]LocalDescriptor, len(m))
	for k, v := range m {
		out[k] = v
	}
	if d == nil {
		return out
	}
	for _, r := range d.Clears {
		delete(out, r)
	}
	for r, ld := range d.Sets {
		out[r] = ld
	}
	return out
}

func localsDeltaEqual(a, b *LocalsDelta) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Sets) != len(b.Sets) || len(a.Clears) != len(b.Clears) {
		return false
	}
	for r, ld := range a.Sets {
		other, ok := b.Sets[r]
		if !ok || other != ld {
			return false
		}
	}
	clearSet := make(map[int]bool, len(a.Clears))
	for _, r := range a.Clears {
		clearSet[r] = true
	}
	for _, r := range b.Clears {
		if !clearSet[r] {
			return false
		}
	}
	return true
}

// Instruction is a node in a block's ordered sequence.
type Instruction struct {
	Number int
	Op     Opcode

	Out *Value
	In  []*Value

	Pos         Position
	DebugValues []*Value

	// ConstValue is the literal payload of an OpConstNumber instruction.
	ConstValue *uint256.Int
	// Locals is the payload of an OpDebugLocalsChange instruction.
	Locals *LocalsDelta
	// Targets holds branch targets: len 1 for goto, len 2 (true, false) for
	// if, nil for everything else.
	Targets []*BasicBlock

	instanceCanThrow bool

	block *BasicBlock
}

// Block returns the block this instruction currently belongs to, or nil if
// it has been detached.
func (i *Instruction) Block() *BasicBlock { return i.block }

func (i *Instruction) IsTerminator() bool         { return i.Op.IsTerminator() }
func (i *Instruction) IsMove() bool               { return i.Op == OpMove }
func (i *Instruction) IsConstNumber() bool        { return i.Op == OpConstNumber }
func (i *Instruction) IsDebugLocalsChange() bool  { return i.Op == OpDebugLocalsChange }
func (i *Instruction) InstructionTypeCanThrow() bool { return i.Op.CanThrowByType() }

// InstructionInstanceCanThrow answers whether this particular instance can
// throw, e.g. a div by a known-nonzero constant divisor cannot, even though
// OpDiv can throw at the opcode level.
func (i *Instruction) InstructionInstanceCanThrow() bool {
	if !i.Op.CanThrowByType() {
		return false
	}
	return i.instanceCanThrow
}

// SetInstanceCanThrow lets the front end (or a test) record whether this
// specific instruction instance can throw.
func (i *Instruction) SetInstanceCanThrow(b bool) { i.instanceCanThrow = b }

// IdenticalNonValueNonPositionParts reports value-equality modulo Position
// and SSA identity: same opcode, same literal operands, same operand
// widths/count. It does not consult the allocator — that is
// InstructionEquivalence's job (peephole package).
func (i *Instruction) IdenticalNonValueNonPositionParts(o *Instruction) bool {
	if i.Op != o.Op {
		return false
	}
	if len(i.In) != len(o.In) {
		return false
	}
	for k := range i.In {
		if i.In[k].Wide != o.In[k].Wide {
			return false
		}
	}
	if (i.Out == nil) != (o.Out == nil) {
		return false
	}
	if i.Out != nil && i.Out.Wide != o.Out.Wide {
		return false
	}
	switch i.Op {
	case OpConstNumber:
		if (i.ConstValue == nil) != (o.ConstValue == nil) {
			return false
		}
		if i.ConstValue != nil && i.ConstValue.Cmp(o.ConstValue) != 0 {
			return false
		}
	case OpDebugLocalsChange:
		if !localsDeltaEqual(i.Locals, o.Locals) {
			return false
		}
	}
	return true
}

// NewGoto builds a fresh unconditional-branch terminator targeting target.
func NewGoto(target *BasicBlock, pos Position) *Instruction {
	return &Instruction{Op: OpGoto, Targets: []*BasicBlock{target}, Pos: pos}
}

// Clone returns a shallow copy of the instruction with independent slices;
// the caller is responsible for assigning a fresh Number and reparenting
// operand use-lists if needed.
func (i *Instruction) Clone() *Instruction {
	c := *i
	c.In = append([]*Value(nil), i.In...)
	c.DebugValues = append([]*Value(nil), i.DebugValues...)
	c.Targets = append([]*BasicBlock(nil), i.Targets...)
	c.block = nil
	return &c
}
