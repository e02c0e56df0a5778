package persistence

import (
	"github.com/orizon-lang/orizon-ir/internal/ir"
	"github.com/orizon-lang/orizon-ir/internal/scope"
)

// EncodeScope serializes the live instructions of s block by block:
//
//	name | temporary count | block count | per block: label, instr count, instrs
func EncodeScope(s *scope.Scope) []byte {
	e := ir.NewEncoder()
	name := s.Name()
	temps := s.TemporaryCount()
	e.String(&name)
	e.Int(&temps)

	blocks := s.CFG().Blocks()
	n := len(blocks)
	e.Int(&n)
	for _, b := range blocks {
		label := b.Label().Name
		e.String(&label)
		var live []ir.Instr
		for _, in := range b.Instrs() {
			if !in.IsDead() {
				live = append(live, in)
			}
		}
		count := len(live)
		e.Int(&count)
		for _, in := range live {
			e.Instr(in)
		}
	}
	return e.Bytes()
}

// DecodeScope rebuilds a scope written by EncodeScope and recomputes its
// edges. Stream errors wrap ErrInvalidArtifact.
func DecodeScope(data []byte, m *ir.Manager) (*scope.Scope, error) {
	d := ir.NewDecoder(data)
	var name string
	var temps int
	d.String(&name)
	d.Int(&temps)
	if err := d.Err(); err != nil {
		return nil, invalid("scope header: %v", err)
	}
	if temps < 0 {
		return nil, invalid("negative temporary count %d", temps)
	}

	s := scope.New(name, m)
	s.ReserveTemporaries(temps)
	g := s.CFG()

	nblocks, err := readCount(d, "block")
	if err != nil {
		return nil, err
	}
	for i := 0; i < nblocks; i++ {
		var label string
		d.String(&label)
		if err := d.Err(); err != nil {
			return nil, invalid("block %d label: %v", i, err)
		}
		if _, dup := g.BlockByLabel(label); dup {
			return nil, invalid("duplicate block label %s", label)
		}
		b := g.NewBlock(ir.NewLabel(label))

		ninstrs, err := readCount(d, "instruction")
		if err != nil {
			return nil, err
		}
		for k := 0; k < ninstrs; k++ {
			in, err := d.Instr()
			if err != nil {
				return nil, invalid("block %s instruction %d: %v", label, k, err)
			}
			b.Append(in)
		}
	}
	if d.Remaining() != 0 {
		return nil, invalid("%d trailing bytes after scope", d.Remaining())
	}
	g.BuildEdges()
	return s, nil
}

// readCount reads a count that must fit the remaining data, given that every
// element takes at least one byte.
func readCount(d *ir.Decoder, what string) (int, error) {
	var n int
	d.Int(&n)
	if err := d.Err(); err != nil {
		return 0, invalid("%s count: %v", what, err)
	}
	if n < 0 || n > d.Remaining() {
		return 0, invalid("%s count %d out of range", what, n)
	}
	return n, nil
}
