package ir

// CallInstr invokes Method on Receiver (nil for an implicit self) with Args.
// Result is nil when the call's value is unused. Calls are opaque: their
// effects are not modeled, so value propagation never crosses a live call.
type CallInstr struct {
	instrBase
	resultBase
	Method   string
	Receiver Operand
	Args     []Operand
}

// NewCallInstr returns a call of method. result and receiver may be nil.
func NewCallInstr(result Variable, method string, receiver Operand, args ...Operand) *CallInstr {
	return &CallInstr{instrBase{op: OpCall}, resultBase{result}, method, receiver, args}
}

func (c *CallInstr) Operands() []Operand {
	ops := make([]Operand, 0, len(c.Args)+1)
	if c.Receiver != nil {
		ops = append(ops, c.Receiver)
	}
	return append(ops, c.Args...)
}

func (c *CallInstr) SimplifyInstr(*Manager) Instr { return c }

func (c *CallInstr) Substitute(values ValueMap) Instr {
	recv := simplifyOperand(c.Receiver, values)
	args, changed := simplifyAll(c.Args, values)
	if !changed && recv == c.Receiver {
		return c
	}
	return NewCallInstr(c.result, c.Method, recv, args...)
}

func (c *CallInstr) Clone(info CloneInfo) Instr {
	return NewCallInstr(cloneVariable(c.result, info), c.Method, cloneOperand(c.Receiver, info), cloneAll(c.Args, info)...)
}

func (c *CallInstr) String() string {
	args := make([]interface{}, 0, len(c.Args)+2)
	args = append(args, c.Method)
	if c.Receiver != nil {
		args = append(args, c.Receiver)
	}
	for _, a := range c.Args {
		args = append(args, a)
	}
	return formatInstr(c.result, c.op, args...)
}

func (c *CallInstr) fields(fc FieldCodec) {
	fc.OptionalVariable(&c.result)
	fc.String(&c.Method)
	fc.OptionalOperand(&c.Receiver)
	fc.Operands(&c.Args)
}
