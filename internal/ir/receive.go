package ir

import "fmt"

// PostReqdArgIndex picks the position of a required argument within an
// argument list of length n. pre == -1 means plain positional indexing.
// Otherwise the argument is the index-th of the required parameters that
// follow the optional and rest parameters. It returns -1 when the argument was
// not supplied.
func PostReqdArgIndex(n, pre, index, post int) int {
	if pre == -1 {
		if index < n {
			return index
		}
		return -1
	}
	remaining := n - pre
	if remaining <= index {
		return -1
	}
	if remaining > post {
		return n - post + index
	}
	return pre + index
}

type receiveIndexedBase struct {
	instrBase
	resultBase
	Keywords Operand
	ArgIndex int
}

func (r *receiveIndexedBase) Operands() []Operand { return []Operand{r.Keywords} }

func noKeywords(keywords Operand) Operand {
	if keywords == nil {
		return &UndefinedValue{}
	}
	return keywords
}

func (r *receiveIndexedBase) baseFields(fc FieldCodec) {
	fc.Variable(&r.result)
	fc.Operand(&r.Keywords)
	fc.Int(&r.ArgIndex)
}

// ReceivePreReqdArgInstr receives the ArgIndex-th required argument that
// precedes any optional or rest parameter.
type ReceivePreReqdArgInstr struct {
	receiveIndexedBase
}

// NewReceivePreReqdArgInstr receives the argIndex-th leading required argument. A nil keywords means none.
func NewReceivePreReqdArgInstr(result Variable, keywords Operand, argIndex int) *ReceivePreReqdArgInstr {
	return &ReceivePreReqdArgInstr{receiveIndexedBase{instrBase{op: OpRecvPreReqdArg}, resultBase{result}, noKeywords(keywords), argIndex}}
}

func (r *ReceivePreReqdArgInstr) SimplifyInstr(*Manager) Instr { return r }

func (r *ReceivePreReqdArgInstr) Substitute(values ValueMap) Instr {
	kw := r.Keywords.Simplify(values)
	if kw == r.Keywords {
		return r
	}
	return NewReceivePreReqdArgInstr(r.result, kw, r.ArgIndex)
}

func (r *ReceivePreReqdArgInstr) Clone(info CloneInfo) Instr {
	switch ii := info.(type) {
	case *SimpleCloneInfo:
		return NewReceivePreReqdArgInstr(cloneVariable(r.result, ii), r.Keywords.Clone(ii), r.ArgIndex)
	case *InlineCloneInfo:
		result := cloneVariable(r.result, ii)
		if !ii.CanMapArgsStatically() {
			return NewReqdArgMultipleAsgnInstr(result, ii.ArgsOperand(), r.ArgIndex, -1, -1)
		}
		if i := PostReqdArgIndex(ii.ArgsCount(), -1, r.ArgIndex, -1); i >= 0 {
			return NewCopyInstr(result, ii.Arg(i))
		}
		return NewCopyInstr(result, ii.Host.Manager().Nil())
	}
	panic(unsupportedClone(r, info))
}

func (r *ReceivePreReqdArgInstr) String() string {
	return formatInstr(r.result, r.op, fmt.Sprintf("index: %d", r.ArgIndex))
}

func (r *ReceivePreReqdArgInstr) fields(fc FieldCodec) { r.baseFields(fc) }

// ReceivePostReqdArgInstr receives a required argument that appears after the
// optional and rest parameters. Which incoming argument it selects depends on
// how many arguments the earlier parameters have already consumed.
type ReceivePostReqdArgInstr struct {
	receiveIndexedBase
	PreReqdArgsCount  int
	OptArgsCount      int
	RestArg           bool
	PostReqdArgsCount int
}

// NewReceivePostReqdArgInstr receives the argIndex-th trailing required argument of a signature with the given parameter counts.
func NewReceivePostReqdArgInstr(result Variable, keywords Operand, argIndex, preReqdArgsCount, optArgsCount int, restArg bool, postReqdArgsCount int) *ReceivePostReqdArgInstr {
	return &ReceivePostReqdArgInstr{
		receiveIndexedBase: receiveIndexedBase{instrBase{op: OpRecvPostReqdArg}, resultBase{result}, noKeywords(keywords), argIndex},
		PreReqdArgsCount:   preReqdArgsCount,
		OptArgsCount:       optArgsCount,
		RestArg:            restArg,
		PostReqdArgsCount:  postReqdArgsCount,
	}
}

func (r *ReceivePostReqdArgInstr) SimplifyInstr(*Manager) Instr { return r }

func (r *ReceivePostReqdArgInstr) Substitute(values ValueMap) Instr {
	kw := r.Keywords.Simplify(values)
	if kw == r.Keywords {
		return r
	}
	return NewReceivePostReqdArgInstr(r.result, kw, r.ArgIndex, r.PreReqdArgsCount, r.OptArgsCount, r.RestArg, r.PostReqdArgsCount)
}

// Clone maps the argument statically when the call site's argument count is
// known and otherwise defers the same selection to runtime.
func (r *ReceivePostReqdArgInstr) Clone(info CloneInfo) Instr {
	switch ii := info.(type) {
	case *SimpleCloneInfo:
		return NewReceivePostReqdArgInstr(cloneVariable(r.result, ii), r.Keywords.Clone(ii), r.ArgIndex,
			r.PreReqdArgsCount, r.OptArgsCount, r.RestArg, r.PostReqdArgsCount)
	case *InlineCloneInfo:
		result := cloneVariable(r.result, ii)
		if !ii.CanMapArgsStatically() {
			return NewReqdArgMultipleAsgnInstr(result, ii.ArgsOperand(), r.ArgIndex, r.PreReqdArgsCount, r.PostReqdArgsCount)
		}
		i := PostReqdArgIndex(ii.ArgsCount(), r.PreReqdArgsCount, r.ArgIndex, r.PostReqdArgsCount)
		if i < 0 {
			return NewCopyInstr(result, ii.Host.Manager().Nil())
		}
		return NewCopyInstr(result, ii.Arg(i))
	}
	panic(unsupportedClone(r, info))
}

func (r *ReceivePostReqdArgInstr) String() string {
	return formatInstr(r.result, r.op,
		fmt.Sprintf("index: %d", r.ArgIndex),
		fmt.Sprintf("pre: %d", r.PreReqdArgsCount),
		fmt.Sprintf("post: %d", r.PostReqdArgsCount))
}

func (r *ReceivePostReqdArgInstr) fields(fc FieldCodec) {
	r.baseFields(fc)
	fc.Int(&r.PreReqdArgsCount)
	fc.Int(&r.OptArgsCount)
	fc.Bool(&r.RestArg)
	fc.Int(&r.PostReqdArgsCount)
}

// ReqdArgMultipleAsgnInstr selects a required argument out of an argument
// array whose length is only known at runtime. It is what argument receives
// become when a callee is inlined at a call site with a dynamic shape.
type ReqdArgMultipleAsgnInstr struct {
	instrBase
	resultBase
	Array         Operand
	Index         int
	PreArgsCount  int
	PostArgsCount int
}

// NewReqdArgMultipleAsgnInstr selects an element of array at runtime. Negative counts mean a leading argument.
func NewReqdArgMultipleAsgnInstr(result Variable, array Operand, index, preArgsCount, postArgsCount int) *ReqdArgMultipleAsgnInstr {
	return &ReqdArgMultipleAsgnInstr{instrBase{op: OpReqdArgMultipleAsgn}, resultBase{result}, array, index, preArgsCount, postArgsCount}
}

func (r *ReqdArgMultipleAsgnInstr) Operands() []Operand { return []Operand{r.Array} }

// SimplifyOperands selects the element at compile time once the array has
// become a literal.
func (r *ReqdArgMultipleAsgnInstr) SimplifyOperands(scope Scope, values ValueMap) Operand {
	arr, ok := r.Array.Simplify(values).(*Array)
	if !ok {
		return nil
	}
	return r.Select(arr.Elts, scope.Manager().Nil())
}

// Select applies the index arithmetic to args, returning missing when the
// argument was not supplied.
func (r *ReqdArgMultipleAsgnInstr) Select(args []Operand, missing Operand) Operand {
	i := PostReqdArgIndex(len(args), r.PreArgsCount, r.Index, r.PostArgsCount)
	if i < 0 {
		return missing
	}
	return args[i]
}

func (r *ReqdArgMultipleAsgnInstr) SimplifyInstr(*Manager) Instr { return r }

func (r *ReqdArgMultipleAsgnInstr) Substitute(values ValueMap) Instr {
	arr := r.Array.Simplify(values)
	if arr == r.Array {
		return r
	}
	return NewReqdArgMultipleAsgnInstr(r.result, arr, r.Index, r.PreArgsCount, r.PostArgsCount)
}

func (r *ReqdArgMultipleAsgnInstr) Clone(info CloneInfo) Instr {
	return NewReqdArgMultipleAsgnInstr(cloneVariable(r.result, info), r.Array.Clone(info), r.Index, r.PreArgsCount, r.PostArgsCount)
}

func (r *ReqdArgMultipleAsgnInstr) String() string {
	return formatInstr(r.result, r.op, r.Array,
		fmt.Sprintf("index: %d", r.Index),
		fmt.Sprintf("pre: %d", r.PreArgsCount),
		fmt.Sprintf("post: %d", r.PostArgsCount))
}

func (r *ReqdArgMultipleAsgnInstr) fields(fc FieldCodec) {
	fc.Variable(&r.result)
	fc.Operand(&r.Array)
	fc.Int(&r.Index)
	fc.Int(&r.PreArgsCount)
	fc.Int(&r.PostArgsCount)
}
