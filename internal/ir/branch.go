package ir

// JumpInstr transfers control unconditionally to Target.
type JumpInstr struct {
	instrBase
	Target *Label
}

// NewJumpInstr returns an unconditional jump to target.
func NewJumpInstr(target *Label) *JumpInstr {
	return &JumpInstr{instrBase{op: OpJump}, target}
}

func (j *JumpInstr) Operands() []Operand          { return []Operand{j.Target} }
func (j *JumpInstr) JumpTarget() *Label           { return j.Target }
func (j *JumpInstr) WithTarget(l *Label) Instr    { return NewJumpInstr(l) }
func (j *JumpInstr) SimplifyInstr(*Manager) Instr { return j }
func (j *JumpInstr) Substitute(ValueMap) Instr    { return j }
func (j *JumpInstr) Clone(info CloneInfo) Instr   { return NewJumpInstr(info.RenamedLabel(j.Target)) }
func (j *JumpInstr) String() string               { return formatInstr(nil, j.op, j.Target) }
func (j *JumpInstr) fields(fc FieldCodec)         { fc.Label(&j.Target) }

// BranchInstr jumps to Target when Cond is true (b_true) or false (b_false)
// and falls through otherwise.
type BranchInstr struct {
	instrBase
	Cond   Operand
	Target *Label
}

// NewBTrueInstr branches to target when cond is truthy.
func NewBTrueInstr(cond Operand, target *Label) *BranchInstr {
	return &BranchInstr{instrBase{op: OpBTrue}, cond, target}
}

// NewBFalseInstr branches to target when cond is falsy.
func NewBFalseInstr(cond Operand, target *Label) *BranchInstr {
	return &BranchInstr{instrBase{op: OpBFalse}, cond, target}
}

func (b *BranchInstr) Operands() []Operand { return []Operand{b.Cond, b.Target} }
func (b *BranchInstr) JumpTarget() *Label  { return b.Target }

func (b *BranchInstr) WithTarget(l *Label) Instr {
	return &BranchInstr{instrBase{op: b.op}, b.Cond, l}
}

// SimplifyInstr resolves a branch on a constant: a taken branch becomes a jump
// and a branch that is never taken becomes a dead nop.
func (b *BranchInstr) SimplifyInstr(*Manager) Instr {
	truthy, ok := IsTruthy(b.Cond)
	if !ok {
		return b
	}
	if truthy == (b.op == OpBTrue) {
		return NewJumpInstr(b.Target)
	}
	return NewNopInstr()
}

func (b *BranchInstr) Substitute(values ValueMap) Instr {
	cond := b.Cond.Simplify(values)
	if cond == b.Cond {
		return b
	}
	return &BranchInstr{instrBase{op: b.op}, cond, b.Target}
}

func (b *BranchInstr) Clone(info CloneInfo) Instr {
	return &BranchInstr{instrBase{op: b.op}, b.Cond.Clone(info), info.RenamedLabel(b.Target)}
}

func (b *BranchInstr) String() string { return formatInstr(nil, b.op, b.Cond, b.Target) }

func (b *BranchInstr) fields(fc FieldCodec) {
	fc.Operand(&b.Cond)
	fc.Label(&b.Target)
}

// ReturnInstr returns Value from the scope.
type ReturnInstr struct {
	instrBase
	Value Operand
}

// NewReturnInstr returns value from the scope.
func NewReturnInstr(value Operand) *ReturnInstr {
	return &ReturnInstr{instrBase{op: OpReturn}, value}
}

func (r *ReturnInstr) Operands() []Operand          { return []Operand{r.Value} }
func (r *ReturnInstr) SimplifyInstr(*Manager) Instr { return r }

func (r *ReturnInstr) Substitute(values ValueMap) Instr {
	v := r.Value.Simplify(values)
	if v == r.Value {
		return r
	}
	return NewReturnInstr(v)
}

// Clone turns a return into an assignment of the call result when the scope is
// inlined; the inliner wires the jump to the continuation.
func (r *ReturnInstr) Clone(info CloneInfo) Instr {
	switch ii := info.(type) {
	case *SimpleCloneInfo:
		return NewReturnInstr(r.Value.Clone(ii))
	case *InlineCloneInfo:
		if ii.CallResult == nil {
			return NewNopInstr()
		}
		return NewCopyInstr(ii.CallResult, r.Value.Clone(ii))
	}
	panic(unsupportedClone(r, info))
}

func (r *ReturnInstr) String() string       { return formatInstr(nil, r.op, r.Value) }
func (r *ReturnInstr) fields(fc FieldCodec) { fc.Operand(&r.Value) }

// ReturnOrRethrowSavedExcInstr returns Value, unless Value holds an exception
// saved by an ensure region, in which case that exception is rethrown. The
// decision is made at runtime, so it is never flattened into a copy.
type ReturnOrRethrowSavedExcInstr struct {
	instrBase
	Value Operand
}

// NewReturnOrRethrowSavedExcInstr returns value unless an exception was saved, which it rethrows.
func NewReturnOrRethrowSavedExcInstr(value Operand) *ReturnOrRethrowSavedExcInstr {
	return &ReturnOrRethrowSavedExcInstr{instrBase{op: OpReturnOrRethrowSavedExc}, value}
}

func (r *ReturnOrRethrowSavedExcInstr) Operands() []Operand          { return []Operand{r.Value} }
func (r *ReturnOrRethrowSavedExcInstr) SimplifyInstr(*Manager) Instr { return r }

func (r *ReturnOrRethrowSavedExcInstr) Substitute(values ValueMap) Instr {
	v := r.Value.Simplify(values)
	if v == r.Value {
		return r
	}
	return NewReturnOrRethrowSavedExcInstr(v)
}

func (r *ReturnOrRethrowSavedExcInstr) Clone(info CloneInfo) Instr {
	return NewReturnOrRethrowSavedExcInstr(r.Value.Clone(info))
}

func (r *ReturnOrRethrowSavedExcInstr) String() string {
	return formatInstr(nil, r.op, r.Value)
}

func (r *ReturnOrRethrowSavedExcInstr) fields(fc FieldCodec) { fc.Operand(&r.Value) }
