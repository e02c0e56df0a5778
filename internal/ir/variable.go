package ir

import (
	"fmt"
	"hash/fnv"
	"strconv"
)

// Variable is an operand naming a storage location an instruction can write.
type Variable interface {
	Operand
	Name() string
	isVariable()
}

// TemporaryVariable is compiler scratch storage (%t<n>). Temporaries are not
// visible to bindings, so the optimizer may delete their definitions.
type TemporaryVariable struct{ Index int }

// NewTemporaryVariable returns the scope temporary with the given index.
func NewTemporaryVariable(index int) *TemporaryVariable { return &TemporaryVariable{Index: index} }

func (t *TemporaryVariable) Kind() OperandKind { return KindTemporary }
func (t *TemporaryVariable) Key() Key          { return Key("%t" + strconv.Itoa(t.Index)) }
func (t *TemporaryVariable) Name() string      { return "%t" + strconv.Itoa(t.Index) }
func (t *TemporaryVariable) String() string    { return t.Name() }
func (t *TemporaryVariable) isVariable()       {}

func (t *TemporaryVariable) UsedVariables() []Variable { return []Variable{t} }

func (t *TemporaryVariable) Simplify(values ValueMap) Operand {
	if v, ok := values.Get(t); ok {
		return v
	}
	return t
}

func (t *TemporaryVariable) Clone(info CloneInfo) Operand { return info.RenamedVariable(t) }

func (t *TemporaryVariable) fields(c FieldCodec) { c.Int(&t.Index) }

// LocalVariable is a named slot in a lexical scope: ScopeDepth is the distance
// to the defining scope and Offset the slot within it.
type LocalVariable struct {
	Ident      string
	ScopeDepth int
	Offset     int
}

// NewLocalVariable returns the local at offset in the scope depth levels out.
func NewLocalVariable(name string, depth, offset int) *LocalVariable {
	return &LocalVariable{Ident: name, ScopeDepth: depth, Offset: offset}
}

func (l *LocalVariable) Kind() OperandKind { return KindLocal }

func (l *LocalVariable) Key() Key {
	return Key(fmt.Sprintf("lv:%s:%d:%d", l.Ident, l.ScopeDepth, l.Offset))
}

func (l *LocalVariable) Name() string              { return l.Ident }
func (l *LocalVariable) String() string            { return fmt.Sprintf("%s(%d:%d)", l.Ident, l.ScopeDepth, l.Offset) }
func (l *LocalVariable) UsedVariables() []Variable { return []Variable{l} }
func (l *LocalVariable) isVariable()               {}

func (l *LocalVariable) Simplify(values ValueMap) Operand {
	if v, ok := values.Get(l); ok {
		return v
	}
	return l
}

// Clone keeps the slot when a scope is duplicated in place and renames it into
// the host's variable space when the scope is inlined.
func (l *LocalVariable) Clone(info CloneInfo) Operand {
	switch ii := info.(type) {
	case *SimpleCloneInfo:
		if r, ok := ii.lookup(l); ok {
			return r
		}
		return NewLocalVariable(l.Ident, l.ScopeDepth, l.Offset)
	case *InlineCloneInfo:
		return ii.RenamedVariable(l)
	}
	panic(unsupportedClone(l, info))
}

func (l *LocalVariable) fields(c FieldCodec) {
	c.String(&l.Ident)
	c.Int(&l.ScopeDepth)
	c.Int(&l.Offset)
}

// ClosureLocalVariable is a local variable used in a closure and defined in
// this closure or an enclosing one. Identity is the precomputed hash of its
// name and offset, so moving it to another depth keeps it the same variable.
type ClosureLocalVariable struct {
	LocalVariable
	OuterScopeVar bool

	hcode uint64
}

// NewClosureLocalVariable returns a closure local. outer marks a variable owned by an enclosing scope.
func NewClosureLocalVariable(name string, depth, offset int, outer bool) *ClosureLocalVariable {
	v := &ClosureLocalVariable{LocalVariable: LocalVariable{Ident: name, ScopeDepth: depth, Offset: offset}, OuterScopeVar: outer}
	v.postDecode()
	return v
}

func (v *ClosureLocalVariable) postDecode() {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d", v.Ident, v.Offset)
	v.hcode = h.Sum64()
}

// HashCode is the identity hash used for equality.
func (v *ClosureLocalVariable) HashCode() uint64 { return v.hcode }

func (v *ClosureLocalVariable) Kind() OperandKind { return KindClosureLocal }
func (v *ClosureLocalVariable) Key() Key          { return Key(fmt.Sprintf("clv#%016x", v.hcode)) }
// IsOuterScopeVar reports whether an enclosing scope owns the variable.
func (v *ClosureLocalVariable) IsOuterScopeVar() bool {
	return v.OuterScopeVar
}

func (v *ClosureLocalVariable) UsedVariables() []Variable { return []Variable{v} }

func (v *ClosureLocalVariable) Simplify(values ValueMap) Operand {
	if r, ok := values.Get(v); ok {
		return r
	}
	return v
}

func (v *ClosureLocalVariable) Clone(info CloneInfo) Operand {
	switch ii := info.(type) {
	case *SimpleCloneInfo:
		if r, ok := ii.lookup(v); ok {
			return r
		}
		return NewClosureLocalVariable(v.Ident, v.ScopeDepth, v.Offset, v.OuterScopeVar)
	case *InlineCloneInfo:
		return ii.RenamedVariable(v)
	}
	panic(unsupportedClone(v, info))
}

// CloneForDepth moves the variable to nesting depth n. A deeper target loses
// the outer-scope flag; otherwise the flag is kept.
func (v *ClosureLocalVariable) CloneForDepth(n int) *ClosureLocalVariable {
	if n > v.ScopeDepth {
		return NewClosureLocalVariable(v.Ident, n, v.Offset, false)
	}
	return NewClosureLocalVariable(v.Ident, n, v.Offset, v.OuterScopeVar)
}

func (v *ClosureLocalVariable) String() string {
	return fmt.Sprintf("%s(%d:%d:local=%t)", v.Ident, v.ScopeDepth, v.Offset, !v.OuterScopeVar)
}

func (v *ClosureLocalVariable) fields(c FieldCodec) {
	v.LocalVariable.fields(c)
	c.Bool(&v.OuterScopeVar)
}
