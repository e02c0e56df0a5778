package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is the identity of an operand. Two operands are equal iff their keys are equal.
type Key string

// OperandKind is the persisted tag of an operand variant.
type OperandKind uint8

const (
	KindInvalid OperandKind = iota
	KindFixnum
	KindBoolean
	KindString
	KindNil
	KindUndefined
	KindLabel
	KindArray
	KindTemporary
	KindLocal
	KindClosureLocal

	numOperandKinds
)

func (k OperandKind) String() string {
	switch k {
	case KindFixnum:
		return "fixnum"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindNil:
		return "nil"
	case KindUndefined:
		return "undefined"
	case KindLabel:
		return "label"
	case KindArray:
		return "array"
	case KindTemporary:
		return "temp"
	case KindLocal:
		return "local"
	case KindClosureLocal:
		return "closure_local"
	default:
		return "kind?"
	}
}

// Operand is a value an instruction reads. Operands are immutable once built.
type Operand interface {
	fmt.Stringer
	Kind() OperandKind
	Key() Key
	// UsedVariables returns every variable the operand reads, including nested ones.
	UsedVariables() []Variable
	// Simplify returns the operand with variables replaced by their known values.
	// It returns the receiver when nothing changes.
	Simplify(values ValueMap) Operand
	Clone(info CloneInfo) Operand

	fields(c FieldCodec)
}

// Equal reports whether a and b denote the same value or storage location.
func Equal(a, b Operand) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Key() == b.Key()
}

// Fixnum is an integer constant.
type Fixnum struct{ Value int64 }

// NewFixnum returns the fixnum constant v.
func NewFixnum(v int64) *Fixnum { return &Fixnum{Value: v} }

func (f *Fixnum) Kind() OperandKind         { return KindFixnum }
func (f *Fixnum) Key() Key                  { return Key("fix:" + strconv.FormatInt(f.Value, 10)) }
func (f *Fixnum) UsedVariables() []Variable { return nil }
func (f *Fixnum) Simplify(ValueMap) Operand { return f }
func (f *Fixnum) Clone(CloneInfo) Operand   { return f }
func (f *Fixnum) String() string            { return strconv.FormatInt(f.Value, 10) }
func (f *Fixnum) fields(c FieldCodec)       { c.Int64(&f.Value) }

// Boolean is a true/false constant.
type Boolean struct{ Value bool }

// NewBoolean returns the boolean constant v.
func NewBoolean(v bool) *Boolean { return &Boolean{Value: v} }

func (b *Boolean) Kind() OperandKind         { return KindBoolean }
func (b *Boolean) Key() Key                  { return Key("bool:" + strconv.FormatBool(b.Value)) }
func (b *Boolean) UsedVariables() []Variable { return nil }
func (b *Boolean) Simplify(ValueMap) Operand { return b }
func (b *Boolean) Clone(CloneInfo) Operand   { return b }
func (b *Boolean) String() string            { return strconv.FormatBool(b.Value) }
func (b *Boolean) fields(c FieldCodec)       { c.Bool(&b.Value) }

// StringLiteral is a frozen string constant.
type StringLiteral struct{ Value string }

// NewStringLiteral returns a frozen string constant.
func NewStringLiteral(s string) *StringLiteral { return &StringLiteral{Value: s} }

func (s *StringLiteral) Kind() OperandKind         { return KindString }
func (s *StringLiteral) Key() Key                  { return Key("str:" + s.Value) }
func (s *StringLiteral) UsedVariables() []Variable { return nil }
func (s *StringLiteral) Simplify(ValueMap) Operand { return s }
func (s *StringLiteral) Clone(CloneInfo) Operand   { return s }
func (s *StringLiteral) String() string            { return strconv.Quote(s.Value) }
func (s *StringLiteral) fields(c FieldCodec)       { c.String(&s.Value) }

// Nil is the language nil value. The manager hands out the shared sentinel.
type Nil struct{}

func (n *Nil) Kind() OperandKind         { return KindNil }
func (n *Nil) Key() Key                  { return "nil" }
func (n *Nil) UsedVariables() []Variable { return nil }
func (n *Nil) Simplify(ValueMap) Operand { return n }
func (n *Nil) Clone(CloneInfo) Operand   { return n }
func (n *Nil) String() string            { return "nil" }
func (n *Nil) fields(FieldCodec)         {}

// UndefinedValue marks an argument slot that was not supplied.
type UndefinedValue struct{}

func (u *UndefinedValue) Kind() OperandKind         { return KindUndefined }
func (u *UndefinedValue) Key() Key                  { return "undef" }
func (u *UndefinedValue) UsedVariables() []Variable { return nil }
func (u *UndefinedValue) Simplify(ValueMap) Operand { return u }
func (u *UndefinedValue) Clone(CloneInfo) Operand   { return u }
func (u *UndefinedValue) String() string            { return "%undefined" }
func (u *UndefinedValue) fields(FieldCodec)         {}

// Label names a basic block. Branch instructions carry one as their target.
type Label struct{ Name string }

// NewLabel returns a label operand naming a basic block.
func NewLabel(name string) *Label { return &Label{Name: name} }

func (l *Label) Kind() OperandKind         { return KindLabel }
func (l *Label) Key() Key                  { return Key("label:" + l.Name) }
func (l *Label) UsedVariables() []Variable { return nil }
func (l *Label) Simplify(ValueMap) Operand { return l }
func (l *Label) Clone(info CloneInfo) Operand {
	return info.RenamedLabel(l)
}
func (l *Label) String() string      { return l.Name }
func (l *Label) fields(c FieldCodec) { c.String(&l.Name) }

// Array is an ordered list of operands, e.g. the argument list of a call site.
type Array struct{ Elts []Operand }

// NewArray returns an array literal of elts.
func NewArray(elts ...Operand) *Array { return &Array{Elts: elts} }

func (a *Array) Kind() OperandKind { return KindArray }

func (a *Array) Key() Key {
	var b strings.Builder
	b.WriteString("array[")
	for i, e := range a.Elts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(e.Key()))
	}
	b.WriteByte(']')
	return Key(b.String())
}

func (a *Array) UsedVariables() []Variable {
	var vars []Variable
	for _, e := range a.Elts {
		vars = append(vars, e.UsedVariables()...)
	}
	return vars
}

func (a *Array) Simplify(values ValueMap) Operand {
	elts, changed := simplifyAll(a.Elts, values)
	if !changed {
		return a
	}
	return &Array{Elts: elts}
}

func (a *Array) Clone(info CloneInfo) Operand {
	return &Array{Elts: cloneAll(a.Elts, info)}
}

func (a *Array) String() string {
	parts := make([]string, len(a.Elts))
	for i, e := range a.Elts {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *Array) fields(c FieldCodec) { c.Operands(&a.Elts) }

func simplifyAll(ops []Operand, values ValueMap) ([]Operand, bool) {
	var out []Operand
	for i, op := range ops {
		s := op.Simplify(values)
		if s != op && out == nil {
			out = make([]Operand, len(ops))
			copy(out, ops[:i])
		}
		if out != nil {
			out[i] = s
		}
	}
	if out == nil {
		return ops, false
	}
	return out, true
}

func cloneAll(ops []Operand, info CloneInfo) []Operand {
	if ops == nil {
		return nil
	}
	out := make([]Operand, len(ops))
	for i, op := range ops {
		out[i] = op.Clone(info)
	}
	return out
}

// IsTruthy reports the static truth value of a constant operand.
// ok is false when the operand is not a compile-time constant.
func IsTruthy(op Operand) (truthy, ok bool) {
	switch v := op.(type) {
	case *Boolean:
		return v.Value, true
	case *Nil:
		return false, true
	case *Fixnum, *StringLiteral:
		return true, true
	}
	return false, false
}
