package ir

// Manager owns the process-wide IR sentinels.
type Manager struct {
	nilValue *Nil
	undef    *UndefinedValue
	trueVal  *Boolean
	falseVal *Boolean
}

// NewManager returns a manager with fresh sentinels.
func NewManager() *Manager {
	return &Manager{
		nilValue: &Nil{},
		undef:    &UndefinedValue{},
		trueVal:  NewBoolean(true),
		falseVal: NewBoolean(false),
	}
}

func (m *Manager) Nil() Operand       { return m.nilValue }
func (m *Manager) Undefined() Operand { return m.undef }
func (m *Manager) True() Operand      { return m.trueVal }
func (m *Manager) False() Operand     { return m.falseVal }

// Scope is what instructions need to know about the scope being compiled.
type Scope interface {
	Name() string
	Manager() *Manager
}
