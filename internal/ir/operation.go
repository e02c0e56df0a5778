// Package ir defines the instruction and operand model of the Orizon bytecode IR.
// The IR is not in single-assignment form: a variable may be written by several
// instructions of the same block, so every consumer that tracks values must
// invalidate them on redefinition.
package ir

import "fmt"

// Operation is the immutable tag carried by every instruction.
type Operation uint8

const (
	OpNop Operation = iota
	OpCopy
	OpFixnumMath
	OpCall
	OpJump
	OpBTrue
	OpBFalse
	OpReturn
	OpReturnOrRethrowSavedExc
	OpRecvPreReqdArg
	OpRecvPostReqdArg
	OpReqdArgMultipleAsgn
	OpPushMethodBinding
	OpPushBlockBinding
	OpPopBinding
	OpSaveBindingViz

	numOperations
)

// OpFlags are static properties of an operation.
type OpFlags uint8

const (
	FlagStartsBasicBlock OpFlags = 1 << iota
	FlagEndsBasicBlock
	FlagIsCall
	FlagSideEffects
	FlagBranch
)

// VariableArity marks operations whose operand count depends on the instance.
const VariableArity = -1

type opInfo struct {
	name  string
	flags OpFlags
	arity int
}

var operations = [numOperations]opInfo{
	OpNop:                     {name: "nop", arity: 0},
	OpCopy:                    {name: "copy", arity: 1},
	OpFixnumMath:              {name: "fixnum_math", arity: 2},
	OpCall:                    {name: "call", flags: FlagIsCall | FlagSideEffects, arity: VariableArity},
	OpJump:                    {name: "jump", flags: FlagEndsBasicBlock | FlagBranch, arity: 1},
	OpBTrue:                   {name: "b_true", flags: FlagEndsBasicBlock | FlagBranch, arity: 2},
	OpBFalse:                  {name: "b_false", flags: FlagEndsBasicBlock | FlagBranch, arity: 2},
	OpReturn:                  {name: "return", flags: FlagEndsBasicBlock | FlagSideEffects, arity: 1},
	OpReturnOrRethrowSavedExc: {name: "return_or_rethrow_saved_exc", flags: FlagEndsBasicBlock | FlagSideEffects, arity: 1},
	OpRecvPreReqdArg:          {name: "recv_pre_reqd_arg", arity: 1},
	OpRecvPostReqdArg:         {name: "recv_post_reqd_arg", arity: 1},
	OpReqdArgMultipleAsgn:     {name: "reqd_arg_multiple_asgn", arity: 1},
	OpPushMethodBinding:       {name: "push_method_binding", flags: FlagSideEffects, arity: 0},
	OpPushBlockBinding:        {name: "push_block_binding", flags: FlagSideEffects, arity: 0},
	OpPopBinding:              {name: "pop_binding", flags: FlagSideEffects, arity: 0},
	OpSaveBindingViz:          {name: "save_binding_viz", flags: FlagSideEffects, arity: 0},
}

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool { return op < numOperations }

func (op Operation) info() opInfo {
	if !op.Valid() {
		panic(fmt.Sprintf("ir: unknown operation %d", op))
	}
	return operations[op]
}

// Flags returns the static flags of the operation.
func (op Operation) Flags() OpFlags { return op.info().flags }

// Arity is the declared operand count, or VariableArity.
func (op Operation) Arity() int { return op.info().arity }

func (op Operation) StartsBasicBlock() bool { return op.Flags()&FlagStartsBasicBlock != 0 }
func (op Operation) EndsBasicBlock() bool   { return op.Flags()&FlagEndsBasicBlock != 0 }
func (op Operation) IsCall() bool           { return op.Flags()&FlagIsCall != 0 }
func (op Operation) HasSideEffects() bool   { return op.Flags()&FlagSideEffects != 0 }
func (op Operation) IsBranch() bool         { return op.Flags()&FlagBranch != 0 }

func (op Operation) String() string {
	if !op.Valid() {
		return "op?"
	}
	return operations[op].name
}
