package ir

import (
	"fmt"
	"strings"
)

// Instr is implemented by all IR instructions. The set of variants is closed;
// each one decides its own simplify and clone behavior.
type Instr interface {
	fmt.Stringer
	Operation() Operation
	// Operands returns the inputs in declaration order. The result is not an input.
	Operands() []Operand
	HasSideEffects() bool
	// IsDead reports the tombstone flag. A dead instruction stays in its block
	// until the block is swept.
	IsDead() bool
	MarkDead()
	// SimplifyOperands computes a value equal to the instruction's result using
	// values, or nil. It never mutates the instruction.
	SimplifyOperands(scope Scope, values ValueMap) Operand
	// SimplifyInstr rewrites the instruction into a structurally simpler one
	// independent of any value map, or returns the receiver.
	SimplifyInstr(m *Manager) Instr
	// Substitute returns a copy whose inputs are replaced by their known values,
	// or the receiver when no input has a known value.
	Substitute(values ValueMap) Instr
	Clone(info CloneInfo) Instr

	fields(c FieldCodec)
}

// ResultInstr is an instruction that may write a variable.
type ResultInstr interface {
	Instr
	Result() Variable
}

// JumpingInstr is an instruction that transfers control to a label.
type JumpingInstr interface {
	Instr
	JumpTarget() *Label
	WithTarget(l *Label) Instr
}

// ResultOf returns the variable written by in, or nil.
func ResultOf(in Instr) Variable {
	if ri, ok := in.(ResultInstr); ok {
		return ri.Result()
	}
	return nil
}

// ReadsVariable reports whether any input of in reads v.
func ReadsVariable(in Instr, v Variable) bool {
	k := v.Key()
	for _, op := range in.Operands() {
		for _, u := range op.UsedVariables() {
			if u.Key() == k {
				return true
			}
		}
	}
	return false
}

type instrBase struct {
	op   Operation
	dead bool
}

func (b *instrBase) Operation() Operation { return b.op }
func (b *instrBase) HasSideEffects() bool { return b.op.HasSideEffects() }
func (b *instrBase) IsDead() bool         { return b.dead }
func (b *instrBase) MarkDead()            { b.dead = true }

func (b *instrBase) SimplifyOperands(Scope, ValueMap) Operand { return nil }

type resultBase struct {
	result Variable
}

func (r *resultBase) Result() Variable { return r.result }

func cloneVariable(v Variable, info CloneInfo) Variable {
	if v == nil {
		return nil
	}
	return v.Clone(info).(Variable)
}

func cloneOperand(op Operand, info CloneInfo) Operand {
	if op == nil {
		return nil
	}
	return op.Clone(info)
}

func simplifyOperand(op Operand, values ValueMap) Operand {
	if op == nil {
		return nil
	}
	return op.Simplify(values)
}

func formatInstr(result Variable, op Operation, args ...interface{}) string {
	var b strings.Builder
	if result != nil {
		fmt.Fprintf(&b, "%s = ", result)
	}
	b.WriteString(op.String())
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprint(&b, a)
	}
	b.WriteByte(')')
	return b.String()
}

// NopInstr is the designated no-op. It is always dead, so the block that holds
// one drops it on the next sweep.
type NopInstr struct{ instrBase }

// NewNopInstr returns a no-op. It is always dead.
func NewNopInstr() *NopInstr { return &NopInstr{instrBase{op: OpNop, dead: true}} }

func (n *NopInstr) IsDead() bool                 { return true }
func (n *NopInstr) Operands() []Operand          { return nil }
func (n *NopInstr) SimplifyInstr(*Manager) Instr { return n }
func (n *NopInstr) Substitute(ValueMap) Instr    { return n }
func (n *NopInstr) Clone(CloneInfo) Instr        { return NewNopInstr() }
func (n *NopInstr) String() string               { return "nop" }
func (n *NopInstr) fields(FieldCodec)            {}
