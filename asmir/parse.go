// Package asmir is a tiny textual assembler for the register-colored SSA IR
// package "ir" consumes. It stands in for the bytecode reader and SSA
// builder the peephole optimizer treats as external collaborators (spec §1):
// nothing here claims to read Java class files or DEX; it exists so tests
// and the CLI can describe a CFG as text instead of hand-wiring pointers.
//
// Grammar, one instruction or block header per line, blank lines and lines
// starting with "#" ignored:
//
//	program  := block+
//	block    := "block" NUMBER ":" NEWLINE instr*
//	instr    := [dest "="] OPCODE operand* ["->" target ("," target)*] [pos] [throws]
//	dest     := "v" NUMBER [":w"] ["!"]
//	operand  := "v" NUMBER | "#" NUMBER
//	target   := NUMBER
//	pos      := "@" FILE ":" LINE
//	throws   := "throws"
//
// A "#" NUMBER immediate is accepted only as the single operand of const;
// every other opcode takes "v" NUMBER operands.
//
// A debug-locals-change instruction spells its payload inline:
//
//	debug set N=NAME:TYPE [, set N=NAME:TYPE ...] [, clear N [, clear N ...]] [pos]
//
// Two passes mirror the teacher's opcodeParser.go: preScanBlocks walks the
// text once to discover every "block N:" header and create a stub
// ir.BasicBlock for it (so forward branches resolve), then a second pass
// fills in each block's instructions and links successors.
package asmir

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/JLLeitschuh/r8-go/ir"
)

// Parse turns textual IR source into an ir.IRCode. The first block
// encountered becomes the entry block.
func Parse(src string) (*ir.IRCode, error) {
	lines := splitLines(src)

	code := ir.NewIRCode()
	blocks := map[int]*ir.BasicBlock{}
	order := []int{}

	if err := preScanBlocks(lines, blocks, &order); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("asmir: no blocks defined")
	}

	values := map[int]*ir.Value{}
	valueOf := func(n int, wide bool) *ir.Value {
		if v, ok := values[n]; ok {
			return v
		}
		v := ir.NewValue(n, true, wide, false)
		values[n] = v
		return v
	}

	var cur *ir.BasicBlock
	instrNum := 0
	for lineNo, raw := range lines {
		line := stripComment(raw)
		if line == "" {
			continue
		}
		if num, ok := blockHeader(line); ok {
			cur = blocks[num]
			instrNum = 0
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("asmir: line %d: instruction before any block header", lineNo+1)
		}
		in, err := parseInstruction(line, blocks, valueOf, instrNum)
		if err != nil {
			return nil, fmt.Errorf("asmir: line %d: %w", lineNo+1, err)
		}
		cur.AppendInstruction(in)
		instrNum++
		for _, t := range in.Targets {
			cur.Link(t)
		}
	}

	blockList := make([]*ir.BasicBlock, 0, len(order))
	for _, n := range order {
		blockList = append(blockList, blocks[n])
	}
	code.SetBlocks(blockList)
	code.Entry = blocks[order[0]]
	return code, nil
}

// preScanBlocks is the asmir analogue of opcodeParser.go's preScanBlocks: a
// linear pass over the source that discovers every block boundary and
// pre-creates a stub ir.BasicBlock for it, so a branch to a block defined
// later in the file still resolves on the second pass.
func preScanBlocks(lines []string, blocks map[int]*ir.BasicBlock, order *[]int) error {
	for lineNo, raw := range lines {
		line := stripComment(raw)
		if line == "" {
			continue
		}
		num, ok := blockHeader(line)
		if !ok {
			continue
		}
		if _, exists := blocks[num]; exists {
			return fmt.Errorf("asmir: line %d: block %d redefined", lineNo+1, num)
		}
		b := ir.NewBasicBlock(num)
		blocks[num] = b
		*order = append(*order, num)
	}
	return nil
}

func blockHeader(line string) (int, bool) {
	if !strings.HasPrefix(line, "block") {
		return 0, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, "block"))
	rest = strings.TrimSuffix(rest, ":")
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}

// stripComment trims line and blanks it out when it is a "#" comment line. A
// "#" later in a line is kept: it introduces an immediate operand.
func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	return line
}

func splitLines(src string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(src))
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

func parseInstruction(line string, blocks map[int]*ir.BasicBlock, valueOf func(int, bool) *ir.Value, num int) (*ir.Instruction, error) {
	throws := false
	if strings.HasSuffix(line, "throws") {
		throws = true
		line = strings.TrimSpace(strings.TrimSuffix(line, "throws"))
	}
	pos, line := extractPosition(line)

	if strings.HasPrefix(line, "debug") {
		return parseDebugLocalsChange(line, num, pos)
	}

	dest, rest := splitAssignment(line)
	targets, rest := extractTargets(rest, blocks)

	fields := strings.Fields(strings.ReplaceAll(rest, ",", " "))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty instruction")
	}
	opName, argFields := fields[0], fields[1:]
	op, ok := opcodeByName[opName]
	if !ok {
		return nil, fmt.Errorf("unknown opcode %q", opName)
	}

	in := &ir.Instruction{Number: num, Op: op, Pos: pos, Targets: targets}
	in.SetInstanceCanThrow(throws)

	if op == ir.OpConstNumber {
		if len(argFields) != 1 {
			return nil, fmt.Errorf("const takes exactly one immediate operand")
		}
		lit, err := parseImmediate(argFields[0])
		if err != nil {
			return nil, err
		}
		in.ConstValue = lit
	} else {
		for _, f := range argFields {
			wide := dest != nil && dest.wide
			v, err := parseOperand(f, valueOf, wide)
			if err != nil {
				return nil, err
			}
			in.In = append(in.In, v)
		}
	}

	if dest != nil {
		out := valueOf(dest.number, dest.wide)
		out.FixedRegisterDef = dest.fixed
		in.Out = out
	}
	return in, nil
}

type destSpec struct {
	number int
	wide   bool
	fixed  bool
}

// splitAssignment peels a leading "vN[:w][!] = " destination off the line,
// returning nil if the line defines no value.
func splitAssignment(line string) (*destSpec, string) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return nil, line
	}
	lhs := strings.TrimSpace(line[:idx])
	rhs := strings.TrimSpace(line[idx+1:])
	if !strings.HasPrefix(lhs, "v") {
		return nil, line
	}
	fixed := strings.HasSuffix(lhs, "!")
	lhs = strings.TrimSuffix(lhs, "!")
	wide := strings.HasSuffix(lhs, ":w")
	lhs = strings.TrimSuffix(lhs, ":w")
	n, err := strconv.Atoi(strings.TrimPrefix(lhs, "v"))
	if err != nil {
		return nil, line
	}
	return &destSpec{number: n, wide: wide, fixed: fixed}, rhs
}

// extractTargets pulls a trailing "-> t1, t2" branch-target list off rest,
// resolving each target number against the pre-scanned block stubs.
func extractTargets(rest string, blocks map[int]*ir.BasicBlock) ([]*ir.BasicBlock, string) {
	idx := strings.Index(rest, "->")
	if idx < 0 {
		return nil, rest
	}
	head := strings.TrimSpace(rest[:idx])
	tail := strings.TrimSpace(rest[idx+2:])
	var targets []*ir.BasicBlock
	for _, part := range strings.Split(tail, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		if b, ok := blocks[n]; ok {
			targets = append(targets, b)
		}
	}
	return targets, head
}

func extractPosition(line string) (ir.Position, string) {
	idx := strings.LastIndex(line, "@")
	if idx < 0 {
		return ir.Position{}, line
	}
	posStr := strings.TrimSpace(line[idx+1:])
	rest := strings.TrimSpace(line[:idx])
	colon := strings.LastIndex(posStr, ":")
	if colon < 0 {
		return ir.Position{}, line
	}
	lineNum, err := strconv.Atoi(posStr[colon+1:])
	if err != nil {
		return ir.Position{}, line
	}
	return ir.NewPosition(posStr[:colon], lineNum), rest
}

func parseOperand(f string, valueOf func(int, bool) *ir.Value, wide bool) (*ir.Value, error) {
	if !strings.HasPrefix(f, "v") {
		return nil, fmt.Errorf("expected value operand %q", f)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(f, "v"))
	if err != nil {
		return nil, fmt.Errorf("bad value operand %q: %w", f, err)
	}
	return valueOf(n, wide), nil
}

func parseImmediate(f string) (*uint256.Int, error) {
	f = strings.TrimPrefix(f, "#")
	n, err := strconv.ParseInt(f, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad immediate %q: %w", f, err)
	}
	if n < 0 {
		return new(uint256.Int).Neg(uint256.NewInt(uint64(-n))), nil
	}
	return uint256.NewInt(uint64(n)), nil
}

// parseDebugLocalsChange handles the "debug set N=NAME:TYPE, clear N" form.
func parseDebugLocalsChange(line string, num int, pos ir.Position) (*ir.Instruction, error) {
	body := strings.TrimSpace(strings.TrimPrefix(line, "debug"))
	delta := &ir.LocalsDelta{Sets: map[int]ir.LocalDescriptor{}}
	for _, clause := range strings.Split(body, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		switch {
		case strings.HasPrefix(clause, "set "):
			assign := strings.TrimSpace(strings.TrimPrefix(clause, "set "))
			eq := strings.Index(assign, "=")
			if eq < 0 {
				return nil, fmt.Errorf("bad debug set clause %q", clause)
			}
			reg, err := strconv.Atoi(strings.TrimSpace(assign[:eq]))
			if err != nil {
				return nil, fmt.Errorf("bad debug register %q: %w", assign[:eq], err)
			}
			nameType := strings.SplitN(strings.TrimSpace(assign[eq+1:]), ":", 2)
			ld := ir.LocalDescriptor{Register: reg, Name: nameType[0]}
			if len(nameType) == 2 {
				ld.Type = nameType[1]
			}
			delta.Sets[reg] = ld
		case strings.HasPrefix(clause, "clear "):
			reg, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(clause, "clear ")))
			if err != nil {
				return nil, fmt.Errorf("bad debug clear register: %w", err)
			}
			delta.Clears = append(delta.Clears, reg)
		default:
			return nil, fmt.Errorf("bad debug clause %q", clause)
		}
	}
	return &ir.Instruction{Number: num, Op: ir.OpDebugLocalsChange, Locals: delta, Pos: pos}, nil
}

var opcodeByName = map[string]ir.Opcode{
	"move":          ir.OpMove,
	"const":         ir.OpConstNumber,
	"goto":          ir.OpGoto,
	"return":        ir.OpReturn,
	"if":            ir.OpIf,
	"invoke":        ir.OpInvoke,
	"array-get":     ir.OpArrayGet,
	"array-put":     ir.OpArrayPut,
	"div":           ir.OpDiv,
	"rem":           ir.OpRem,
	"check-cast":    ir.OpCheckCast,
	"monitor-enter": ir.OpMonitorEnter,
	"monitor-exit":  ir.OpMonitorExit,
	"nop":           ir.OpNop,
}
