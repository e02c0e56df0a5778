package ir

import (
	"strings"
	"testing"

	irerrors "github.com/orizon-lang/orizon-ir/internal/errors"
)

// sampleInstrs returns one or more instances of every operation, covering
// boundary field values
func sampleInstrs() []Instr {
	t0 := NewTemporaryVariable(0)
	t1 := NewTemporaryVariable(1)
	lv := NewLocalVariable("x", 1, 3)
	clv := NewClosureLocalVariable("y", 2, 0, true)
	label := NewLabel("L_1")

	return []Instr{
		NewNopInstr(),
		NewCopyInstr(t0, NewFixnum(-1)),
		NewCopyInstr(lv, NewStringLiteral("")),
		NewCopyInstr(clv, NewArray()),
		NewCopyInstr(t1, NewArray(&Nil{}, &UndefinedValue{}, NewBoolean(false), NewArray(t0))),
		NewFixnumMathInstr(t0, MathMul, lv, NewFixnum(1<<40)),
		NewCallInstr(nil, "noargs", nil),
		NewCallInstr(t1, "m", lv, t0, NewStringLiteral("s"), clv),
		NewJumpInstr(label),
		NewBTrueInstr(t0, label),
		NewBFalseInstr(NewBoolean(true), label),
		NewReturnInstr(&Nil{}),
		NewReturnOrRethrowSavedExcInstr(t1),
		NewReceivePreReqdArgInstr(t0, nil, 0),
		NewReceivePreReqdArgInstr(lv, t1, 4),
		NewReceivePostReqdArgInstr(t0, nil, 0, 0, 0, false, 1),
		NewReceivePostReqdArgInstr(clv, t1, 1, 1, 2, true, 2),
		NewReqdArgMultipleAsgnInstr(t0, NewArray(), 0, -1, -1),
		NewReqdArgMultipleAsgnInstr(t1, lv, 1, 1, 2),
		NewPushMethodBindingInstr(),
		NewPushBlockBindingInstr(),
		NewPopBindingInstr(),
		NewSaveBindingVisibilityInstr(t0),
	}
}

func TestInstrRoundTrip(t *testing.T) {
	for _, in := range sampleInstrs() {
		data := EncodeInstr(in)
		out, err := DecodeInstr(data)
		if err != nil {
			t.Fatalf("%s: decode failed: %v", in, err)
		}
		if out.Operation() != in.Operation() {
			t.Errorf("%s: operation %s became %s", in, in.Operation(), out.Operation())
		}
		if out.String() != in.String() {
			t.Errorf("round trip changed %q into %q", in, out)
		}
		if !Equal(ResultOf(in), ResultOf(out)) {
			t.Errorf("%s: result %v became %v", in, ResultOf(in), ResultOf(out))
		}
		ops, outOps := in.Operands(), out.Operands()
		if len(ops) != len(outOps) {
			t.Fatalf("%s: %d operands became %d", in, len(ops), len(outOps))
		}
		for i := range ops {
			if !Equal(ops[i], outOps[i]) {
				t.Errorf("%s: operand %d %s became %s", in, i, ops[i], outOps[i])
			}
		}
		if again := EncodeInstr(out); string(again) != string(data) {
			t.Errorf("%s: re-encoding differs", in)
		}
	}
}

func TestReceivePostReqdArgRoundTripFields(t *testing.T) {
	for _, rest := range []bool{false, true} {
		in := NewReceivePostReqdArgInstr(NewTemporaryVariable(9), nil, 0, 3, 1, rest, 2)
		out, err := DecodeInstr(EncodeInstr(in))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		r := out.(*ReceivePostReqdArgInstr)
		if r.ArgIndex != 0 || r.PreReqdArgsCount != 3 || r.OptArgsCount != 1 || r.RestArg != rest || r.PostReqdArgsCount != 2 {
			t.Errorf("fields not preserved: %+v", r)
		}
	}
}

func TestClosureLocalVariableRoundTripKeepsIdentity(t *testing.T) {
	v := NewClosureLocalVariable("blk", 1, 2, true)
	in := NewCopyInstr(v, NewFixnum(1))
	out, err := DecodeInstr(EncodeInstr(in))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	got := ResultOf(out).(*ClosureLocalVariable)
	if got.HashCode() != v.HashCode() || !Equal(got, v) || !got.IsOuterScopeVar() {
		t.Errorf("closure variable changed across round trip: %s vs %s", got, v)
	}
}

func TestEveryOperationHasFactory(t *testing.T) {
	for op := Operation(0); op < numOperations; op++ {
		f := instrFactories[op]
		if f == nil {
			t.Errorf("operation %s has no decode factory", op)
			continue
		}
		if got := f().Operation(); got != op {
			t.Errorf("factory for %s builds %s", op, got)
		}
	}
}

func TestDecodeRejectsCorruptData(t *testing.T) {
	data := EncodeInstr(NewCallInstr(NewTemporaryVariable(0), "m", nil, NewFixnum(1), NewStringLiteral("abc")))

	cases := map[string][]byte{
		"empty":          nil,
		"unknown op":     {byte(numOperations)},
		"truncated":      data[:len(data)-2],
		"trailing bytes": append(append([]byte(nil), data...), 0),
		"bad kind":       {byte(OpReturn), 1, 0xEE},
		"bad bool":       {byte(OpCopy), 1, byte(KindBoolean), 7},

		"jump without target":   {byte(OpJump), 1, byte(KindInvalid)},
		"branch without cond":   {byte(OpBTrue), 2, byte(KindInvalid), byte(KindLabel), 1, 'L'},
		"copy without source":   {byte(OpCopy), 1, byte(KindTemporary), 0, byte(KindInvalid)},
		"copy without result":   {byte(OpCopy), 1, byte(KindInvalid), byte(KindFixnum), 2},
		"math without operand":  {byte(OpFixnumMath), 2, byte(KindTemporary), 0, 0, byte(KindFixnum), 2, byte(KindInvalid)},
		"return without value":  {byte(OpReturn), 1, byte(KindInvalid)},
		"call with missing arg": {byte(OpCall), 1, byte(KindInvalid), 1, 'm', byte(KindInvalid), 1, byte(KindInvalid)},
	}
	for name, c := range cases {
		if in, err := DecodeInstr(c); err == nil {
			t.Errorf("%s: expected an error, decoded %v", name, in)
		}
	}

	// Call result and receiver are the only operands that may be absent.
	ok := []byte{byte(OpCall), 1, byte(KindInvalid), 1, 'm', byte(KindInvalid), 1, byte(KindFixnum), 2}
	in, err := DecodeInstr(ok)
	if err != nil {
		t.Fatalf("call without result or receiver: %v", err)
	}
	if c := in.(*CallInstr); c.Result() != nil || c.Receiver != nil || len(c.Args) != 1 {
		t.Errorf("unexpected call %s", c)
	}
}

func TestDecodeArityMismatchPanics(t *testing.T) {
	// A well-formed stream whose declared operand count disagrees with the
	// decoded fields.
	e := NewEncoder()
	e.buf = append(e.buf, byte(OpReturn))
	e.buf = append(e.buf, 2)
	NewReturnInstr(NewFixnum(1)).fields(e)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		se, ok := r.(*irerrors.StandardError)
		if !ok || se.Category != irerrors.CategoryArity {
			t.Errorf("expected an arity error, got %v", r)
		}
	}()
	_, _ = DecodeInstr(e.Bytes())
}

func TestDecodeVariableTypeCheck(t *testing.T) {
	// A copy whose result slot holds a fixnum instead of a variable.
	e := NewEncoder()
	e.buf = append(e.buf, byte(OpCopy), 1)
	var notVar Operand = NewFixnum(3)
	e.Operand(&notVar)
	var src Operand = NewFixnum(4)
	e.Operand(&src)

	_, err := DecodeInstr(e.Bytes())
	if err == nil || !strings.Contains(err.Error(), "expected variable") {
		t.Errorf("expected a variable type error, got %v", err)
	}
}
