package ir

import (
	"math"
	"math/bits"
)

// CopyInstr is the assignment result = source. It has no side effects.
type CopyInstr struct {
	instrBase
	resultBase
	Source Operand
}

// NewCopyInstr returns result = source.
func NewCopyInstr(result Variable, source Operand) *CopyInstr {
	return &CopyInstr{instrBase{op: OpCopy}, resultBase{result}, source}
}

func (c *CopyInstr) Operands() []Operand { return []Operand{c.Source} }

func (c *CopyInstr) SimplifyOperands(_ Scope, values ValueMap) Operand {
	return c.Source.Simplify(values)
}

func (c *CopyInstr) SimplifyInstr(*Manager) Instr { return c }

func (c *CopyInstr) Substitute(values ValueMap) Instr {
	src := c.Source.Simplify(values)
	if src == c.Source {
		return c
	}
	return NewCopyInstr(c.result, src)
}

func (c *CopyInstr) Clone(info CloneInfo) Instr {
	return NewCopyInstr(cloneVariable(c.result, info), c.Source.Clone(info))
}

func (c *CopyInstr) String() string { return formatInstr(c.result, c.op, c.Source) }

func (c *CopyInstr) fields(fc FieldCodec) {
	fc.Variable(&c.result)
	fc.Operand(&c.Source)
}

// MathOp selects the arithmetic performed by a FixnumMathInstr.
type MathOp int

const (
	MathAdd MathOp = iota
	MathSub
	MathMul
)

func (m MathOp) String() string {
	switch m {
	case MathAdd:
		return "+"
	case MathSub:
		return "-"
	case MathMul:
		return "*"
	default:
		return "?"
	}
}

// FixnumMathInstr is integer arithmetic on two operands known to be fixnums
// at runtime. Constant operands fold at compile time unless the result would
// leave the fixnum range.
type FixnumMathInstr struct {
	instrBase
	resultBase
	Math MathOp
	A1   Operand
	A2   Operand
}

// NewFixnumMathInstr returns result = a1 m a2 over fixnums.
func NewFixnumMathInstr(result Variable, m MathOp, a1, a2 Operand) *FixnumMathInstr {
	return &FixnumMathInstr{instrBase{op: OpFixnumMath}, resultBase{result}, m, a1, a2}
}

func (f *FixnumMathInstr) Operands() []Operand { return []Operand{f.A1, f.A2} }

func (f *FixnumMathInstr) SimplifyOperands(_ Scope, values ValueMap) Operand {
	a1 := f.A1.Simplify(values)
	a2 := f.A2.Simplify(values)
	x, xok := a1.(*Fixnum)
	y, yok := a2.(*Fixnum)
	if xok && yok {
		if v, ok := foldFixnum(f.Math, x.Value, y.Value); ok {
			return NewFixnum(v)
		}
		return nil
	}
	switch f.Math {
	case MathAdd:
		if xok && x.Value == 0 {
			return a2
		}
		if yok && y.Value == 0 {
			return a1
		}
	case MathSub:
		if yok && y.Value == 0 {
			return a1
		}
	case MathMul:
		if xok && x.Value == 1 {
			return a2
		}
		if yok && y.Value == 1 {
			return a1
		}
	}
	return nil
}

func foldFixnum(m MathOp, x, y int64) (int64, bool) {
	switch m {
	case MathAdd:
		s := x + y
		if (s > x) != (y > 0) {
			return 0, false
		}
		return s, true
	case MathSub:
		d := x - y
		if (d < x) != (y > 0) {
			return 0, false
		}
		return d, true
	case MathMul:
		if x == 0 || y == 0 {
			return 0, true
		}
		hi, lo := bits.Mul64(magnitude(x), magnitude(y))
		if hi != 0 {
			return 0, false
		}
		// A negative product may reach MinInt64, whose magnitude is one past
		// MaxInt64.
		if (x < 0) != (y < 0) {
			if lo > 1<<63 {
				return 0, false
			}
			return int64(-lo), true
		}
		if lo > math.MaxInt64 {
			return 0, false
		}
		return int64(lo), true
	}
	return 0, false
}

// magnitude returns |v| as an unsigned value, exact for MinInt64.
func magnitude(v int64) uint64 {
	if v < 0 {
		return -uint64(v)
	}
	return uint64(v)
}

func (f *FixnumMathInstr) SimplifyInstr(*Manager) Instr { return f }

func (f *FixnumMathInstr) Substitute(values ValueMap) Instr {
	a1, a2 := f.A1.Simplify(values), f.A2.Simplify(values)
	if a1 == f.A1 && a2 == f.A2 {
		return f
	}
	return NewFixnumMathInstr(f.result, f.Math, a1, a2)
}

func (f *FixnumMathInstr) Clone(info CloneInfo) Instr {
	return NewFixnumMathInstr(cloneVariable(f.result, info), f.Math, f.A1.Clone(info), f.A2.Clone(info))
}

func (f *FixnumMathInstr) String() string {
	return formatInstr(f.result, f.op, f.A1, f.Math, f.A2)
}

func (f *FixnumMathInstr) fields(fc FieldCodec) {
	fc.Variable(&f.result)
	m := int(f.Math)
	fc.Int(&m)
	f.Math = MathOp(m)
	fc.Operand(&f.A1)
	fc.Operand(&f.A2)
}
