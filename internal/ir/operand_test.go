package ir

import (
	"math"
	"testing"
)

func TestClosureLocalVariableEquality(t *testing.T) {
	a := NewClosureLocalVariable("v", 1, 2, true)
	b := NewClosureLocalVariable("v", 1, 2, false)
	if !Equal(a, b) {
		t.Error("equality must depend on name and offset only")
	}
	if Equal(a, NewClosureLocalVariable("v", 1, 3, true)) {
		t.Error("different offsets compare equal")
	}
	if Equal(a, NewClosureLocalVariable("w", 1, 2, true)) {
		t.Error("different names compare equal")
	}
	if Equal(a, NewLocalVariable("v", 1, 2)) {
		t.Error("closure variable equals a plain local")
	}
}

func TestCloneForDepth(t *testing.T) {
	outer := NewClosureLocalVariable("v", 1, 0, true)

	deeper := outer.CloneForDepth(3)
	if deeper.ScopeDepth != 3 || deeper.IsOuterScopeVar() {
		t.Errorf("moving deeper should clear the outer flag, got %s", deeper)
	}
	same := outer.CloneForDepth(1)
	if same.ScopeDepth != 1 || !same.IsOuterScopeVar() {
		t.Errorf("same depth should keep the outer flag, got %s", same)
	}
	shallower := outer.CloneForDepth(0)
	if !shallower.IsOuterScopeVar() {
		t.Errorf("shallower depth should keep the outer flag, got %s", shallower)
	}
	for _, moved := range []*ClosureLocalVariable{deeper, same, shallower} {
		if !Equal(moved, outer) || moved.HashCode() != outer.HashCode() {
			t.Errorf("%s at a new depth must keep the identity of %s", moved, outer)
		}
	}
	if Equal(NewClosureLocalVariable("v", 1, 3, true), outer) {
		t.Error("a different offset is a different variable")
	}
}

func TestUsedVariables(t *testing.T) {
	t0, t1 := NewTemporaryVariable(0), NewTemporaryVariable(1)
	arr := NewArray(t0, NewFixnum(1), NewArray(t1))
	used := arr.UsedVariables()
	if len(used) != 2 || !Equal(used[0], t0) || !Equal(used[1], t1) {
		t.Errorf("unexpected used variables %v", used)
	}
	if len(NewFixnum(1).UsedVariables()) != 0 {
		t.Error("constants read no variables")
	}
}

func TestSimplifyReturnsReceiverWhenUnchanged(t *testing.T) {
	t0 := NewTemporaryVariable(0)
	arr := NewArray(t0, NewFixnum(1))
	values := NewValueMap()
	if got := arr.Simplify(values); got != Operand(arr) {
		t.Error("array without known values should be returned as is")
	}
	values.Put(t0, NewFixnum(5))
	got, ok := arr.Simplify(values).(*Array)
	if !ok || !Equal(got.Elts[0], NewFixnum(5)) {
		t.Errorf("expected [5, 1], got %v", got)
	}
	if !Equal(arr.Elts[0], t0) {
		t.Error("Simplify mutated the original array")
	}
}

func TestIsTruthy(t *testing.T) {
	tests := []struct {
		op           Operand
		truthy, isOK bool
	}{
		{NewBoolean(true), true, true},
		{NewBoolean(false), false, true},
		{&Nil{}, false, true},
		{NewFixnum(0), true, true},
		{NewStringLiteral(""), true, true},
		{NewTemporaryVariable(0), false, false},
		{NewArray(), false, false},
	}
	for _, tt := range tests {
		truthy, ok := IsTruthy(tt.op)
		if truthy != tt.truthy || ok != tt.isOK {
			t.Errorf("IsTruthy(%s) = %t, %t; want %t, %t", tt.op, truthy, ok, tt.truthy, tt.isOK)
		}
	}
}

func TestFixnumFold(t *testing.T) {
	tests := []struct {
		m    MathOp
		x, y int64
		want int64
		ok   bool
	}{
		{MathAdd, 2, 3, 5, true},
		{MathAdd, math.MaxInt64, 1, 0, false},
		{MathAdd, math.MinInt64, -1, 0, false},
		{MathSub, 2, 3, -1, true},
		{MathSub, math.MinInt64, 1, 0, false},
		{MathSub, 0, math.MinInt64, 0, false},
		{MathMul, -4, 5, -20, true},
		{MathMul, 0, math.MinInt64, 0, true},
		{MathMul, math.MaxInt64, 2, 0, false},
		{MathMul, 1 << 32, 1 << 31, 0, false},
		{MathMul, -(1 << 31), 1 << 31, -(1 << 62), true},
		{MathMul, math.MinInt64, 1, math.MinInt64, true},
		{MathMul, 1, math.MinInt64, math.MinInt64, true},
		{MathMul, -(1 << 32), 1 << 31, math.MinInt64, true},
		{MathMul, math.MinInt64, -1, 0, false},
		{MathMul, math.MinInt64, 2, 0, false},
	}
	for _, tt := range tests {
		got, ok := foldFixnum(tt.m, tt.x, tt.y)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("%d %s %d = %d, %t; want %d, %t", tt.x, tt.m, tt.y, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFixnumMathIdentities(t *testing.T) {
	x := NewLocalVariable("x", 0, 0)
	scope := testScope{NewManager()}
	values := NewValueMap()

	tests := []struct {
		in   *FixnumMathInstr
		want Operand
	}{
		{NewFixnumMathInstr(nil, MathAdd, x, NewFixnum(0)), x},
		{NewFixnumMathInstr(nil, MathAdd, NewFixnum(0), x), x},
		{NewFixnumMathInstr(nil, MathSub, x, NewFixnum(0)), x},
		{NewFixnumMathInstr(nil, MathMul, NewFixnum(1), x), x},
		{NewFixnumMathInstr(nil, MathSub, NewFixnum(0), x), nil},
		{NewFixnumMathInstr(nil, MathMul, x, NewFixnum(2)), nil},
	}
	for _, tt := range tests {
		if got := tt.in.SimplifyOperands(scope, values); !Equal(got, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBranchSimplifyInstr(t *testing.T) {
	m := NewManager()
	l := NewLabel("L")

	if got := NewBTrueInstr(NewBoolean(true), l).SimplifyInstr(m); got.Operation() != OpJump {
		t.Errorf("b_true(true) should become a jump, got %s", got)
	}
	if got := NewBFalseInstr(&Nil{}, l).SimplifyInstr(m); got.Operation() != OpJump {
		t.Errorf("b_false(nil) should become a jump, got %s", got)
	}
	if got := NewBTrueInstr(NewBoolean(false), l).SimplifyInstr(m); !got.IsDead() {
		t.Errorf("b_true(false) should become a dead nop, got %s", got)
	}
	b := NewBTrueInstr(NewTemporaryVariable(0), l)
	if got := b.SimplifyInstr(m); got != Instr(b) {
		t.Errorf("unknown condition must leave the branch alone, got %s", got)
	}
}

func TestSubstituteKeepsOperation(t *testing.T) {
	t0 := NewTemporaryVariable(0)
	values := NewValueMap()
	values.Put(t0, NewFixnum(9))

	call := NewCallInstr(nil, "print", nil, t0)
	got := call.Substitute(values)
	if got == Instr(call) || got.Operation() != OpCall {
		t.Fatalf("expected a new call, got %s", got)
	}
	if !Equal(got.(*CallInstr).Args[0], NewFixnum(9)) {
		t.Errorf("argument not substituted: %s", got)
	}
	if !Equal(call.Args[0], t0) {
		t.Error("Substitute mutated the original instruction")
	}
	if again := got.Substitute(values); again != got {
		t.Error("substituting a constant-only instruction should return the receiver")
	}
}

func TestOperationTable(t *testing.T) {
	for op := Operation(0); op < numOperations; op++ {
		if op.String() == "" {
			t.Errorf("operation %d has no name", op)
		}
		if op.IsBranch() && !op.EndsBasicBlock() {
			t.Errorf("%s branches but does not end its block", op)
		}
		if op.IsCall() && !op.HasSideEffects() {
			t.Errorf("%s is a call without side effects", op)
		}
	}
	if OpCopy.HasSideEffects() {
		t.Error("copy must be pure")
	}
	if !OpReturnOrRethrowSavedExc.EndsBasicBlock() {
		t.Error("return_or_rethrow_saved_exc ends its block")
	}
}
