// Package inliner duplicates scopes and splices callee scopes into call sites.
// Both operations are driven by the clone contract of the instructions
// themselves; this package only builds the clone context and lays out blocks.
package inliner

import (
	"github.com/orizon-lang/orizon-ir/internal/cfg"
	irerrors "github.com/orizon-lang/orizon-ir/internal/errors"
	"github.com/orizon-lang/orizon-ir/internal/ir"
	"github.com/orizon-lang/orizon-ir/internal/scope"
)

// CloneScope returns a copy of src named name. Temporaries are renamed past
// the source's range so the copy never aliases the original; local variables
// keep their slots.
func CloneScope(src *scope.Scope, name string) (*scope.Scope, error) {
	dst := scope.New(name, src.Manager())
	dst.ReserveTemporaries(src.TemporaryCount())

	info := ir.NewSimpleCloneInfo("c")
	for _, v := range Variables(src) {
		if t, ok := v.(*ir.TemporaryVariable); ok {
			if err := info.AddRename(t, dst.NewTemporaryVariable()); err != nil {
				return nil, err
			}
		}
	}

	blocks := src.CFG().Blocks()
	for _, b := range blocks {
		info.AddLabelRename(b.Label(), dst.NewLabel("BB"))
	}
	for _, b := range blocks {
		nb := dst.CFG().NewBlock(info.RenamedLabel(b.Label()))
		cloneInto(nb, b.Instrs(), info, nil)
	}
	dst.CFG().BuildEdges()
	return dst, nil
}

// InlineCall replaces call in host with the body of callee. Callee variables
// become fresh host temporaries, argument receives read the call's arguments,
// and every return assigns the call's result and jumps to the code that
// followed the call. staticArgs states that the argument count at the call
// site is known, so receives can be resolved now instead of at runtime.
func InlineCall(host, callee *scope.Scope, call *ir.CallInstr, staticArgs bool) error {
	g := host.CFG()
	blocks := g.Blocks()
	site, idx := findCall(blocks, call)
	if site < 0 {
		return irerrors.CallSiteNotFound(call.String(), host.Name())
	}
	b := blocks[site]
	var next *cfg.BasicBlock
	if site+1 < len(blocks) {
		next = blocks[site+1]
	}

	info := ir.NewInlineCloneInfo(host, call.Args, call.Result(), staticArgs)
	for _, v := range Variables(callee) {
		if err := info.AddRename(v, host.NewTemporaryVariable()); err != nil {
			return err
		}
	}

	instrs := b.Instrs()
	before := append([]ir.Instr(nil), instrs[:idx]...)
	after := append([]ir.Instr(nil), instrs[idx+1:]...)

	calleeBlocks := callee.CFG().Blocks()
	if len(calleeBlocks) == 0 {
		if res := call.Result(); res != nil {
			before = append(before, ir.NewCopyInstr(res, host.Manager().Nil()))
		}
		b.SetInstrs(append(before, after...))
		g.FixupEdges(b)
		return nil
	}

	for _, cb := range calleeBlocks {
		info.AddLabelRename(cb.Label(), host.NewLabel("INL"))
	}
	cont := host.NewLabel("CONT")

	b.SetInstrs(append(before, ir.NewJumpInstr(info.RenamedLabel(calleeBlocks[0].Label()))))

	for i, cb := range calleeBlocks {
		nb := g.NewBlock(info.RenamedLabel(cb.Label()))
		cloneInto(nb, cb.Instrs(), info, cont)
		// Inner blocks fall through to the next inlined block; the last one
		// must leave explicitly.
		if i == len(calleeBlocks)-1 && !endsBlock(nb) {
			nb.Append(ir.NewJumpInstr(cont))
		}
	}

	// The continuation is laid out last, so every path that used to fall
	// through to next needs an explicit jump. A conditional branch keeps its
	// terminal slot and gets a trampoline block for the not-taken side.
	cb := g.NewBlock(cont)
	cb.Append(after...)
	if next != nil {
		switch {
		case !endsBlock(cb):
			cb.Append(ir.NewJumpInstr(next.Label()))
		case !leavesUnconditionally(cb):
			g.NewBlock(host.NewLabel("BB")).Append(ir.NewJumpInstr(next.Label()))
		}
	}

	g.BuildEdges()
	return nil
}

// cloneInto appends the clones of instrs to dst, dropping dead ones. When
// exit is set, every plain return is followed by a jump to it.
func cloneInto(dst *cfg.BasicBlock, instrs []ir.Instr, info ir.CloneInfo, exit *ir.Label) {
	for _, in := range instrs {
		if in.IsDead() {
			continue
		}
		if c := in.Clone(info); !c.IsDead() {
			dst.Append(c)
		}
		if _, ok := in.(*ir.ReturnInstr); ok && exit != nil {
			dst.Append(ir.NewJumpInstr(exit))
		}
	}
}

func findCall(blocks []*cfg.BasicBlock, call *ir.CallInstr) (block, index int) {
	for bi, b := range blocks {
		for i, in := range b.Instrs() {
			if c, ok := in.(*ir.CallInstr); ok && c == call {
				return bi, i
			}
		}
	}
	return -1, -1
}

func endsBlock(b *cfg.BasicBlock) bool {
	t := b.Terminal()
	return t != nil && t.Operation().EndsBasicBlock()
}

// leavesUnconditionally reports whether control never falls out of the
// bottom of b.
func leavesUnconditionally(b *cfg.BasicBlock) bool {
	t := b.Terminal()
	if t == nil {
		return false
	}
	switch t.Operation() {
	case ir.OpJump, ir.OpReturn, ir.OpReturnOrRethrowSavedExc:
		return true
	}
	return false
}

// Variables returns every variable written or read by the live instructions
// of s, in order of first appearance.
func Variables(s *scope.Scope) []ir.Variable {
	var out []ir.Variable
	seen := make(map[ir.Key]bool)
	add := func(v ir.Variable) {
		if v == nil || seen[v.Key()] {
			return
		}
		seen[v.Key()] = true
		out = append(out, v)
	}
	for _, in := range s.Instrs() {
		if in.IsDead() {
			continue
		}
		add(ir.ResultOf(in))
		for _, op := range in.Operands() {
			if op == nil {
				continue
			}
			for _, v := range op.UsedVariables() {
				add(v)
			}
		}
	}
	return out
}
