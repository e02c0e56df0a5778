// Package cfg holds the control-flow graph of a compiled scope.
// Blocks live in an arena addressed by stable BlockID; edges are stored as ID
// pairs, so removing a block never leaves a dangling reference.
package cfg

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/orizon-ir/internal/ir"
)

// BlockID is the stable arena index of a basic block.
type BlockID int

// BasicBlock is a straight-line instruction sequence with one entry and one exit.
type BasicBlock struct {
	id     BlockID
	label  *ir.Label
	instrs []ir.Instr
}

func (b *BasicBlock) ID() BlockID        { return b.id }
func (b *BasicBlock) Label() *ir.Label   { return b.label }
func (b *BasicBlock) Instrs() []ir.Instr { return b.instrs }

// SetInstrs replaces the instruction sequence.
func (b *BasicBlock) SetInstrs(instrs []ir.Instr) { b.instrs = instrs }

func (b *BasicBlock) Append(instrs ...ir.Instr) { b.instrs = append(b.instrs, instrs...) }

// IsEmpty reports whether the block has no live instruction.
func (b *BasicBlock) IsEmpty() bool { return b.Terminal() == nil }

// Terminal returns the last live instruction, or nil.
func (b *BasicBlock) Terminal() ir.Instr {
	for i := len(b.instrs) - 1; i >= 0; i-- {
		if !b.instrs[i].IsDead() {
			return b.instrs[i]
		}
	}
	return nil
}

// Sweep drops dead instructions and returns how many were removed.
func (b *BasicBlock) Sweep() int {
	live := b.instrs[:0]
	for _, in := range b.instrs {
		if !in.IsDead() {
			live = append(live, in)
		}
	}
	removed := len(b.instrs) - len(live)
	for i := len(live); i < len(b.instrs); i++ {
		b.instrs[i] = nil
	}
	b.instrs = live
	return removed
}

func (b *BasicBlock) String() string {
	if b == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", b.label)
	for _, in := range b.instrs {
		sb.WriteString("  ")
		sb.WriteString(in.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Edge is a possible transfer of control between two blocks.
type Edge struct {
	From BlockID
	To   BlockID
}

// CFG owns the basic blocks of one scope and the edges between them.
type CFG struct {
	blocks  []*BasicBlock
	order   []BlockID
	edges   []Edge
	byLabel map[string]BlockID
}

// New returns an empty graph.
func New() *CFG {
	return &CFG{byLabel: make(map[string]BlockID)}
}

// NewBlock appends a block to the layout. Labels must be unique.
func (g *CFG) NewBlock(label *ir.Label) *BasicBlock {
	if _, dup := g.byLabel[label.Name]; dup {
		panic(fmt.Sprintf("cfg: duplicate block label %s", label.Name))
	}
	b := &BasicBlock{id: BlockID(len(g.blocks)), label: label}
	g.blocks = append(g.blocks, b)
	g.order = append(g.order, b.id)
	g.byLabel[label.Name] = b.id
	return b
}

// Blocks returns the live blocks in layout order.
func (g *CFG) Blocks() []*BasicBlock {
	out := make([]*BasicBlock, len(g.order))
	for i, id := range g.order {
		out[i] = g.blocks[id]
	}
	return out
}

// Block returns the block with the given ID, or nil if it was removed.
func (g *CFG) Block(id BlockID) *BasicBlock {
	if id < 0 || int(id) >= len(g.blocks) {
		return nil
	}
	return g.blocks[id]
}

// BlockByLabel looks up a live block by label name.
func (g *CFG) BlockByLabel(name string) (*BasicBlock, bool) {
	id, ok := g.byLabel[name]
	if !ok {
		return nil, false
	}
	return g.blocks[id], true
}

// Entry is the first block in layout order.
func (g *CFG) Entry() *BasicBlock {
	if len(g.order) == 0 {
		return nil
	}
	return g.blocks[g.order[0]]
}

// Edges returns a copy of the edge list.
func (g *CFG) Edges() []Edge { return append([]Edge(nil), g.edges...) }

// Successors returns the targets of the edges leaving id.
func (g *CFG) Successors(id BlockID) []BlockID {
	var out []BlockID
	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Predecessors returns the sources of the edges entering id.
func (g *CFG) Predecessors(id BlockID) []BlockID {
	var out []BlockID
	for _, e := range g.edges {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}

func (g *CFG) position(id BlockID) int {
	for i, o := range g.order {
		if o == id {
			return i
		}
	}
	return -1
}

// layoutNext returns the block laid out after id, or -1.
func (g *CFG) layoutNext(id BlockID) BlockID {
	p := g.position(id)
	if p < 0 || p+1 >= len(g.order) {
		return -1
	}
	return g.order[p+1]
}

// outgoing derives a block's successors from its terminal instruction.
func (g *CFG) outgoing(b *BasicBlock) []BlockID {
	var succ []BlockID
	add := func(id BlockID) {
		if id < 0 {
			return
		}
		for _, s := range succ {
			if s == id {
				return
			}
		}
		succ = append(succ, id)
	}
	last := b.Terminal()
	if last == nil {
		add(g.layoutNext(b.id))
		return succ
	}
	if j, ok := last.(ir.JumpingInstr); ok {
		if t, ok := g.byLabel[j.JumpTarget().Name]; ok {
			add(t)
		}
		if last.Operation() != ir.OpJump {
			add(g.layoutNext(b.id))
		}
		return succ
	}
	if last.Operation().EndsBasicBlock() {
		return succ
	}
	add(g.layoutNext(b.id))
	return succ
}

// BuildEdges recomputes every edge of the graph.
func (g *CFG) BuildEdges() {
	g.edges = g.edges[:0]
	for _, id := range g.order {
		for _, s := range g.outgoing(g.blocks[id]) {
			g.edges = append(g.edges, Edge{From: id, To: s})
		}
	}
}

// FixupEdges recomputes the outgoing edges of b after its terminal changed.
// Calling it when nothing changed leaves the graph as it was.
func (g *CFG) FixupEdges(b *BasicBlock) {
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From != b.id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	for _, s := range g.outgoing(b) {
		g.edges = append(g.edges, Edge{From: b.id, To: s})
	}
}

// Optimize removes blocks that are no longer reachable from the entry and
// empty blocks that only fall through. It reports whether the graph changed.
func (g *CFG) Optimize() bool {
	changed := g.removeUnreachable()
	if g.removeEmpty() {
		changed = true
	}
	return changed
}

func (g *CFG) removeUnreachable() bool {
	entry := g.Entry()
	if entry == nil {
		return false
	}
	seen := map[BlockID]bool{entry.id: true}
	work := []BlockID{entry.id}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		for _, s := range g.Successors(id) {
			if !seen[s] {
				seen[s] = true
				work = append(work, s)
			}
		}
	}
	var dead []BlockID
	for _, id := range g.order {
		if !seen[id] {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		g.remove(id)
	}
	if len(dead) > 0 {
		// Fallthrough edges depend on layout order.
		g.BuildEdges()
	}
	return len(dead) > 0
}

func (g *CFG) removeEmpty() bool {
	changed := false
	for _, b := range g.Blocks() {
		if b == g.Entry() || !b.IsEmpty() {
			continue
		}
		next := g.layoutNext(b.id)
		if next < 0 {
			continue
		}
		target := g.blocks[next].label
		for _, id := range g.order {
			pb := g.blocks[id]
			for i, in := range pb.instrs {
				if j, ok := in.(ir.JumpingInstr); ok && j.JumpTarget().Name == b.label.Name {
					pb.instrs[i] = j.WithTarget(target)
				}
			}
		}
		g.remove(b.id)
		g.BuildEdges()
		changed = true
	}
	return changed
}

func (g *CFG) remove(id BlockID) {
	b := g.blocks[id]
	if b == nil {
		return
	}
	if p := g.position(id); p >= 0 {
		g.order = append(g.order[:p], g.order[p+1:]...)
	}
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From != id && e.To != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	delete(g.byLabel, b.label.Name)
	g.blocks[id] = nil
}

func (g *CFG) String() string {
	if g == nil {
		return "<nil-cfg>"
	}
	var sb strings.Builder
	for _, b := range g.Blocks() {
		sb.WriteString(b.String())
		if succ := g.Successors(b.id); len(succ) > 0 {
			names := make([]string, len(succ))
			for i, s := range succ {
				names[i] = g.blocks[s].label.Name
			}
			fmt.Fprintf(&sb, "  -> %s\n", strings.Join(names, ", "))
		}
	}
	return sb.String()
}
