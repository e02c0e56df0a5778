package ir

// Binding frame markers. Inlining flattens the callee's frame into the host,
// so under an inline clone every marker collapses to a nop.

// PushMethodBindingInstr pushes the binding frame of a method body.
type PushMethodBindingInstr struct{ instrBase }

// NewPushMethodBindingInstr returns the method binding marker.
func NewPushMethodBindingInstr() *PushMethodBindingInstr {
	return &PushMethodBindingInstr{instrBase{op: OpPushMethodBinding}}
}

func (p *PushMethodBindingInstr) Operands() []Operand          { return nil }
func (p *PushMethodBindingInstr) SimplifyInstr(*Manager) Instr { return p }
func (p *PushMethodBindingInstr) Substitute(ValueMap) Instr    { return p }
func (p *PushMethodBindingInstr) String() string               { return formatInstr(nil, p.op) }
func (p *PushMethodBindingInstr) fields(FieldCodec)            {}

func (p *PushMethodBindingInstr) Clone(info CloneInfo) Instr {
	switch info.(type) {
	case *SimpleCloneInfo:
		return NewPushMethodBindingInstr()
	case *InlineCloneInfo:
		return NewNopInstr()
	}
	panic(unsupportedClone(p, info))
}

// PushBlockBindingInstr pushes the binding frame of a block body.
type PushBlockBindingInstr struct{ instrBase }

// NewPushBlockBindingInstr returns the block binding marker.
func NewPushBlockBindingInstr() *PushBlockBindingInstr {
	return &PushBlockBindingInstr{instrBase{op: OpPushBlockBinding}}
}

func (p *PushBlockBindingInstr) Operands() []Operand          { return nil }
func (p *PushBlockBindingInstr) SimplifyInstr(*Manager) Instr { return p }
func (p *PushBlockBindingInstr) Substitute(ValueMap) Instr    { return p }
func (p *PushBlockBindingInstr) String() string               { return formatInstr(nil, p.op) }
func (p *PushBlockBindingInstr) fields(FieldCodec)            {}

func (p *PushBlockBindingInstr) Clone(info CloneInfo) Instr {
	switch info.(type) {
	case *SimpleCloneInfo:
		return NewPushBlockBindingInstr()
	case *InlineCloneInfo:
		return NewNopInstr()
	}
	panic(unsupportedClone(p, info))
}

// PopBindingInstr pops the current binding frame.
type PopBindingInstr struct{ instrBase }

// NewPopBindingInstr returns the marker that pops the current binding.
func NewPopBindingInstr() *PopBindingInstr {
	return &PopBindingInstr{instrBase{op: OpPopBinding}}
}

func (p *PopBindingInstr) Operands() []Operand          { return nil }
func (p *PopBindingInstr) SimplifyInstr(*Manager) Instr { return p }
func (p *PopBindingInstr) Substitute(ValueMap) Instr    { return p }
func (p *PopBindingInstr) String() string               { return formatInstr(nil, p.op) }
func (p *PopBindingInstr) fields(FieldCodec)            {}

func (p *PopBindingInstr) Clone(info CloneInfo) Instr {
	switch info.(type) {
	case *SimpleCloneInfo:
		return NewPopBindingInstr()
	case *InlineCloneInfo:
		return NewNopInstr()
	}
	panic(unsupportedClone(p, info))
}

// SaveBindingVisibilityInstr stores the binding's current method visibility
// into its result.
type SaveBindingVisibilityInstr struct {
	instrBase
	resultBase
}

// NewSaveBindingVisibilityInstr saves the binding visibility into result.
func NewSaveBindingVisibilityInstr(result Variable) *SaveBindingVisibilityInstr {
	return &SaveBindingVisibilityInstr{instrBase{op: OpSaveBindingViz}, resultBase{result}}
}

func (s *SaveBindingVisibilityInstr) Operands() []Operand          { return nil }
func (s *SaveBindingVisibilityInstr) SimplifyInstr(*Manager) Instr { return s }
func (s *SaveBindingVisibilityInstr) Substitute(ValueMap) Instr    { return s }
func (s *SaveBindingVisibilityInstr) String() string               { return formatInstr(s.result, s.op) }
func (s *SaveBindingVisibilityInstr) fields(fc FieldCodec)         { fc.Variable(&s.result) }

func (s *SaveBindingVisibilityInstr) Clone(info CloneInfo) Instr {
	switch ii := info.(type) {
	case *SimpleCloneInfo:
		return NewSaveBindingVisibilityInstr(cloneVariable(s.result, ii))
	case *InlineCloneInfo:
		return NewNopInstr()
	}
	panic(unsupportedClone(s, info))
}
