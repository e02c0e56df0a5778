package ir

// ValueMap records that an operand currently holds a value equal to another
// operand. Lookups go through operand keys, so structurally equal operands
// share an entry.
type ValueMap map[Key]Operand

// NewValueMap returns an empty map.
func NewValueMap() ValueMap { return make(ValueMap) }

// Get returns the known value of op.
func (m ValueMap) Get(op Operand) (Operand, bool) {
	v, ok := m[op.Key()]
	return v, ok
}

func (m ValueMap) Put(op, val Operand) { m[op.Key()] = val }

func (m ValueMap) Delete(op Operand) { delete(m, op.Key()) }
