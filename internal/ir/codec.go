package ir

import (
	"encoding/binary"
	"fmt"

	irerrors "github.com/orizon-lang/orizon-ir/internal/errors"
)

// FieldCodec visits the persisted fields of an operand or instruction. Each
// variant declares its fields once; the Encoder writes them and the Decoder
// fills them, so write order and read order are the same code.
//
// Operand, Variable, Label and the elements of Operands are required: the
// Decoder rejects a stream that leaves them out. Fields that may be nil use
// the Optional methods.
type FieldCodec interface {
	Int(p *int)
	Int64(p *int64)
	Bool(p *bool)
	String(p *string)
	Operand(p *Operand)
	OptionalOperand(p *Operand)
	Variable(p *Variable)
	OptionalVariable(p *Variable)
	Label(p **Label)
	Operands(p *[]Operand)
}

// Encoder serializes operands and instructions into a byte slice.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns everything written so far.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Int(p *int)     { e.buf = binary.AppendVarint(e.buf, int64(*p)) }
func (e *Encoder) Int64(p *int64) { e.buf = binary.AppendVarint(e.buf, *p) }

func (e *Encoder) Bool(p *bool) {
	if *p {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

func (e *Encoder) String(p *string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(*p)))
	e.buf = append(e.buf, *p...)
}

func (e *Encoder) Operand(p *Operand) {
	if *p == nil {
		e.buf = append(e.buf, byte(KindInvalid))
		return
	}
	e.buf = append(e.buf, byte((*p).Kind()))
	(*p).fields(e)
}

func (e *Encoder) OptionalOperand(p *Operand) { e.Operand(p) }

func (e *Encoder) Variable(p *Variable) {
	var op Operand
	if *p != nil {
		op = *p
	}
	e.Operand(&op)
}

func (e *Encoder) OptionalVariable(p *Variable) { e.Variable(p) }

func (e *Encoder) Label(p **Label) {
	var op Operand
	if *p != nil {
		op = *p
	}
	e.Operand(&op)
}

func (e *Encoder) Operands(p *[]Operand) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(*p)))
	for i := range *p {
		e.Operand(&(*p)[i])
	}
}

// Instr writes the operation tag, the operand count and the variant's fields.
func (e *Encoder) Instr(in Instr) {
	e.buf = append(e.buf, byte(in.Operation()))
	e.buf = binary.AppendUvarint(e.buf, uint64(len(in.Operands())))
	in.fields(e)
}

// Decoder reads what an Encoder wrote. The first failure sticks; later reads
// are no-ops and Err reports it.
type Decoder struct {
	data []byte
	pos  int
	err  error
}

// NewDecoder reads data from the start.
func NewDecoder(data []byte) *Decoder { return &Decoder{data: data} }

func (d *Decoder) Err() error { return d.err }

// Remaining is the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.pos }

func (d *Decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("ir decode at offset %d: %s", d.pos, fmt.Sprintf(format, args...))
	}
}

func (d *Decoder) readByte() byte {
	if d.err != nil {
		return 0
	}
	if d.pos >= len(d.data) {
		d.fail("unexpected end of data")
		return 0
	}
	b := d.data[d.pos]
	d.pos++
	return b
}

func (d *Decoder) varint() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.data[d.pos:])
	if n <= 0 {
		d.fail("bad varint")
		return 0
	}
	d.pos += n
	return v
}

func (d *Decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.data[d.pos:])
	if n <= 0 {
		d.fail("bad uvarint")
		return 0
	}
	d.pos += n
	return v
}

// count reads a length prefix that must fit in the remaining data, given that
// every element takes at least one byte.
func (d *Decoder) count() int {
	n := d.uvarint()
	if n > uint64(d.Remaining()) {
		d.fail("length %d exceeds remaining %d bytes", n, d.Remaining())
		return 0
	}
	return int(n)
}

func (d *Decoder) Int(p *int)     { *p = int(d.varint()) }
func (d *Decoder) Int64(p *int64) { *p = d.varint() }

func (d *Decoder) Bool(p *bool) {
	switch b := d.readByte(); b {
	case 0:
		*p = false
	case 1:
		*p = true
	default:
		d.fail("bad bool byte %#x", b)
	}
}

func (d *Decoder) String(p *string) {
	n := d.count()
	if d.err != nil {
		return
	}
	*p = string(d.data[d.pos : d.pos+n])
	d.pos += n
}

func (d *Decoder) Operand(p *Operand)         { *p = d.operand(true) }
func (d *Decoder) OptionalOperand(p *Operand) { *p = d.operand(false) }

func (d *Decoder) operand(required bool) Operand {
	k := OperandKind(d.readByte())
	if d.err != nil {
		return nil
	}
	if k == KindInvalid {
		if required {
			d.fail("missing required operand")
		}
		return nil
	}
	op := newOperand(k)
	if op == nil {
		d.fail("unknown operand kind %d", k)
		return nil
	}
	op.fields(d)
	if d.err != nil {
		return nil
	}
	if pd, ok := op.(interface{ postDecode() }); ok {
		pd.postDecode()
	}
	return op
}

func (d *Decoder) Variable(p *Variable)         { *p = d.variable(true) }
func (d *Decoder) OptionalVariable(p *Variable) { *p = d.variable(false) }

func (d *Decoder) variable(required bool) Variable {
	op := d.operand(required)
	if op == nil {
		return nil
	}
	v, ok := op.(Variable)
	if !ok {
		d.fail("expected variable, got %s", op.Kind())
		return nil
	}
	return v
}

func (d *Decoder) Label(p **Label) {
	*p = nil
	op := d.operand(true)
	if op == nil {
		return
	}
	l, ok := op.(*Label)
	if !ok {
		d.fail("expected label, got %s", op.Kind())
		return
	}
	*p = l
}

func (d *Decoder) Operands(p *[]Operand) {
	n := d.count()
	if d.err != nil {
		return
	}
	ops := make([]Operand, n)
	for i := range ops {
		d.Operand(&ops[i])
	}
	*p = ops
}

// Instr decodes one instruction. A stream error is returned; an instruction
// whose operand count disagrees with its declared arity panics, since the
// encoder and decoder share one field list and can only disagree by a bug.
func (d *Decoder) Instr() (Instr, error) {
	op := Operation(d.readByte())
	if d.err != nil {
		return nil, d.err
	}
	if !op.Valid() {
		d.fail("unknown operation %d", op)
		return nil, d.err
	}
	count := d.uvarint()
	in := instrFactories[op]()
	in.fields(d)
	if d.err != nil {
		return nil, d.err
	}
	got := len(in.Operands())
	if want := op.Arity(); want != VariableArity && got != want {
		panic(irerrors.ArityMismatch(op.String(), want, got))
	}
	if uint64(got) != count {
		panic(irerrors.ArityMismatch(op.String(), int(count), got))
	}
	return in, nil
}

// DecodeInstr decodes a single encoded instruction.
func DecodeInstr(data []byte) (Instr, error) {
	d := NewDecoder(data)
	in, err := d.Instr()
	if err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("ir decode: %d trailing bytes", d.Remaining())
	}
	return in, nil
}

// EncodeInstr encodes a single instruction.
func EncodeInstr(in Instr) []byte {
	e := NewEncoder()
	e.Instr(in)
	return e.Bytes()
}

func newOperand(k OperandKind) Operand {
	switch k {
	case KindFixnum:
		return &Fixnum{}
	case KindBoolean:
		return &Boolean{}
	case KindString:
		return &StringLiteral{}
	case KindNil:
		return &Nil{}
	case KindUndefined:
		return &UndefinedValue{}
	case KindLabel:
		return &Label{}
	case KindArray:
		return &Array{}
	case KindTemporary:
		return &TemporaryVariable{}
	case KindLocal:
		return &LocalVariable{}
	case KindClosureLocal:
		return &ClosureLocalVariable{}
	}
	return nil
}

var instrFactories = [numOperations]func() Instr{
	OpNop:                     func() Instr { return NewNopInstr() },
	OpCopy:                    func() Instr { return &CopyInstr{instrBase: instrBase{op: OpCopy}} },
	OpFixnumMath:              func() Instr { return &FixnumMathInstr{instrBase: instrBase{op: OpFixnumMath}} },
	OpCall:                    func() Instr { return &CallInstr{instrBase: instrBase{op: OpCall}} },
	OpJump:                    func() Instr { return &JumpInstr{instrBase: instrBase{op: OpJump}} },
	OpBTrue:                   func() Instr { return &BranchInstr{instrBase: instrBase{op: OpBTrue}} },
	OpBFalse:                  func() Instr { return &BranchInstr{instrBase: instrBase{op: OpBFalse}} },
	OpReturn:                  func() Instr { return &ReturnInstr{instrBase: instrBase{op: OpReturn}} },
	OpReturnOrRethrowSavedExc: func() Instr { return &ReturnOrRethrowSavedExcInstr{instrBase: instrBase{op: OpReturnOrRethrowSavedExc}} },
	OpRecvPreReqdArg: func() Instr {
		return &ReceivePreReqdArgInstr{receiveIndexedBase{instrBase: instrBase{op: OpRecvPreReqdArg}}}
	},
	OpRecvPostReqdArg: func() Instr {
		return &ReceivePostReqdArgInstr{receiveIndexedBase: receiveIndexedBase{instrBase: instrBase{op: OpRecvPostReqdArg}}}
	},
	OpReqdArgMultipleAsgn: func() Instr {
		return &ReqdArgMultipleAsgnInstr{instrBase: instrBase{op: OpReqdArgMultipleAsgn}}
	},
	OpPushMethodBinding: func() Instr { return NewPushMethodBindingInstr() },
	OpPushBlockBinding:  func() Instr { return NewPushBlockBindingInstr() },
	OpPopBinding:        func() Instr { return NewPopBindingInstr() },
	OpSaveBindingViz:    func() Instr { return &SaveBindingVisibilityInstr{instrBase: instrBase{op: OpSaveBindingViz}} },
}
