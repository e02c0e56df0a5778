// Package scope holds the compilation state of one method, block or script
// body: its CFG plus the allocators for temporaries and labels.
package scope

import (
	"fmt"
	"strconv"

	"github.com/orizon-lang/orizon-ir/internal/cfg"
	"github.com/orizon-lang/orizon-ir/internal/ir"
)

// Scope is owned by a single compilation and is not safe for concurrent use.
type Scope struct {
	name    string
	manager *ir.Manager
	cfg     *cfg.CFG

	nextTemp  int
	nextLabel int
}

// New returns an empty scope with its own CFG.
func New(name string, m *ir.Manager) *Scope {
	return &Scope{name: name, manager: m, cfg: cfg.New()}
}

func (s *Scope) Name() string         { return s.name }
func (s *Scope) Manager() *ir.Manager { return s.manager }
func (s *Scope) CFG() *cfg.CFG        { return s.cfg }
func (s *Scope) TemporaryCount() int  { return s.nextTemp }
func (s *Scope) String() string       { return fmt.Sprintf("scope %s\n%s", s.name, s.cfg) }

// NewTemporaryVariable allocates a fresh temporary.
func (s *Scope) NewTemporaryVariable() *ir.TemporaryVariable {
	t := ir.NewTemporaryVariable(s.nextTemp)
	s.nextTemp++
	return t
}

// ReserveTemporaries makes sure future temporaries do not collide with
// indices below n, e.g. after decoding a persisted scope.
func (s *Scope) ReserveTemporaries(n int) {
	if n > s.nextTemp {
		s.nextTemp = n
	}
}

// NewLabel allocates a label unique within the scope.
func (s *Scope) NewLabel(prefix string) *ir.Label {
	for {
		name := prefix + "_" + strconv.Itoa(s.nextLabel)
		s.nextLabel++
		if _, taken := s.cfg.BlockByLabel(name); !taken {
			return ir.NewLabel(name)
		}
	}
}

// NewBlock appends a block with a fresh label.
func (s *Scope) NewBlock() *cfg.BasicBlock { return s.cfg.NewBlock(s.NewLabel("BB")) }

// Instrs returns every instruction of the scope in layout order.
func (s *Scope) Instrs() []ir.Instr {
	var out []ir.Instr
	for _, b := range s.cfg.Blocks() {
		out = append(out, b.Instrs()...)
	}
	return out
}
