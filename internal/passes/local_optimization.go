package passes

import (
	"time"

	"github.com/orizon-lang/orizon-ir/internal/cfg"
	"github.com/orizon-lang/orizon-ir/internal/cli"
	"github.com/orizon-lang/orizon-ir/internal/ir"
	"github.com/orizon-lang/orizon-ir/internal/scope"
)

// DefaultMaxIterations bounds the scans of a single block.
const DefaultMaxIterations = 100

// LocalOptimizationPass propagates values and removes dead copies inside each
// basic block. Nothing is carried across blocks, and every live call resets
// what is known.
//
// The IR is not in single-assignment form, so every recorded equality is
// indexed by the variables it reads and dropped as soon as one of them is
// redefined.
type LocalOptimizationPass struct {
	Logger        *cli.Logger
	MaxIterations int
}

// NewLocalOptimizationPass creates the pass; a nil logger disables tracing.
func NewLocalOptimizationPass(logger *cli.Logger) *LocalOptimizationPass {
	return &LocalOptimizationPass{Logger: logger, MaxIterations: DefaultMaxIterations}
}

func (p *LocalOptimizationPass) Label() string      { return "Local Optimizations" }
func (p *LocalOptimizationPass) ShortLabel() string { return "Local Opts" }

// Execute runs every block to a fixpoint. Blocks whose terminal changed get
// their edges recomputed, and if any did the CFG is cleaned up once at the end.
func (p *LocalOptimizationPass) Execute(s *scope.Scope) *Stats {
	start := time.Now()
	stats := &Stats{Pass: p.ShortLabel()}
	g := s.CFG()

	limit := p.MaxIterations
	if limit <= 0 {
		limit = DefaultMaxIterations
	}

	reexamineCFG := false
	for _, b := range g.Blocks() {
		stats.BlocksVisited++
		for iter := 0; ; iter++ {
			if iter == limit {
				p.Logger.Warn("%s: block %s did not settle after %d scans", s.Name(), b.Label(), limit)
				break
			}
			r := p.runOnBlock(s, b, stats)
			stats.Iterations++
			if r.reexamineCFG {
				reexamineCFG = true
				g.FixupEdges(b)
				stats.EdgeFixups++
			}
			if !r.changed && !r.reexamineCFG {
				break
			}
		}
	}

	// Edge changes may leave whole blocks unreachable or empty.
	if reexamineCFG {
		stats.CFGChanged = g.Optimize()
	}

	stats.Elapsed = time.Since(start)
	return stats
}

// RunOnBlock performs one scan of b. reexamineCFG is set when the block's
// terminal was replaced or removed; changed is set for any other rewrite.
func (p *LocalOptimizationPass) RunOnBlock(s *scope.Scope, b *cfg.BasicBlock) (reexamineCFG, changed bool) {
	r := p.runOnBlock(s, b, &Stats{})
	return r.reexamineCFG, r.changed
}

type blockResult struct {
	reexamineCFG bool
	changed      bool
}

func (p *LocalOptimizationPass) runOnBlock(s *scope.Scope, b *cfg.BasicBlock, stats *Stats) blockResult {
	var r blockResult
	st := newPropagation()
	instrs := b.Instrs()

	for i, in := range instrs {
		if in.IsDead() {
			// Tombstones left by an earlier rewrite, or nops.
			r.changed = true
			stats.InstrsRemoved++
			continue
		}
		needed := func(v ir.Variable) bool {
			read, liveOut := scanForward(instrs, i, v)
			if read || !liveOut {
				return read
			}
			return readsAny(instrs[:i], v) || readInOtherBlock(s.CFG(), b, v)
		}
		out := p.optInstr(s, in, st, needed)

		if out.IsDead() {
			if out != in && in.Operation().EndsBasicBlock() {
				r.reexamineCFG = true
			} else {
				r.changed = true
			}
			p.Logger.Debug("%s: removed %s", b.Label(), in)
			in.MarkDead()
			stats.InstrsRemoved++
		} else if out != in {
			if in.Operation().EndsBasicBlock() {
				r.reexamineCFG = true
			} else {
				r.changed = true
			}
			p.Logger.Debug("%s: %s => %s", b.Label(), in, out)
			instrs[i] = out
			stats.InstrsReplaced++
		}

		// Calls are opaque: nothing known before one survives it.
		if in.Operation().IsCall() && !in.IsDead() {
			st.reset()
		}
	}

	b.Sweep()
	return r
}

// RunOnInstrs runs a single scan over a flat instruction list, rewriting it in
// place. Removed instructions keep their slot and are marked dead. Block
// boundaries inside the list reset the propagation state. It returns the
// number of slots that changed.
func (p *LocalOptimizationPass) RunOnInstrs(s *scope.Scope, instrs []ir.Instr) int {
	n := 0
	st := newPropagation()
	for i, in := range instrs {
		if in.IsDead() {
			continue
		}
		needed := func(v ir.Variable) bool {
			read, liveOut := scanForward(instrs, i, v)
			if read || !liveOut {
				return read
			}
			return readsAny(instrs[:i], v) || readsAny(instrs[i+1:], v)
		}
		out := p.optInstr(s, in, st, needed)
		if out.IsDead() {
			in.MarkDead()
			n++
		} else if out != in {
			instrs[i] = out
			n++
		}

		op := in.Operation()
		if op.StartsBasicBlock() || op.EndsBasicBlock() || (op.IsCall() && !in.IsDead()) {
			st.reset()
		}
	}
	return n
}

// optInstr simplifies one instruction against the current propagation state
// and returns its replacement. A returned instruction that is dead must be
// removed by the caller.
func (p *LocalOptimizationPass) optInstr(s ir.Scope, in ir.Instr, st *propagation, needed func(ir.Variable) bool) ir.Instr {
	// Inputs are rewritten for every instruction, side effects or not; the
	// operation itself is only changed below for pure instructions.
	in = in.Substitute(st.values)

	val := in.SimplifyOperands(s, st.values)

	// A simpler operand may let the instruction become a simpler one, e.g.
	// b_true(true, L) becomes jump(L).
	in = in.SimplifyInstr(s.Manager())

	res := ir.ResultOf(in)
	if res == nil {
		return in
	}

	out := in
	if val == nil {
		st.values.Delete(res)
	} else {
		if !ir.Equal(res, val) {
			st.record(res, val)
		}
		if !in.HasSideEffects() {
			if c, ok := in.(*ir.CopyInstr); ok {
				if ir.Equal(res, val) || (ir.Equal(c.Source, val) && isTemporary(res) && !needed(res)) {
					out.MarkDead()
				}
			} else {
				out = ir.NewCopyInstr(res, val)
			}
		}
	}

	// res now holds a new value; equalities built on its old value are stale.
	if !ir.Equal(res, val) {
		st.invalidate(res)
	}
	return out
}

func isTemporary(v ir.Variable) bool {
	_, ok := v.(*ir.TemporaryVariable)
	return ok
}

// scanForward looks at what follows instrs[i] up to the end of its block.
// read reports a use of v before any redefinition; liveOut reports that the
// value written by instrs[i] reaches the end of the block.
func scanForward(instrs []ir.Instr, i int, v ir.Variable) (read, liveOut bool) {
	for _, in := range instrs[i+1:] {
		if in.IsDead() {
			continue
		}
		if ir.ReadsVariable(in, v) {
			return true, true
		}
		if r := ir.ResultOf(in); r != nil && ir.Equal(r, v) {
			return false, false
		}
		if in.Operation().EndsBasicBlock() {
			break
		}
	}
	return false, true
}

func readsAny(instrs []ir.Instr, v ir.Variable) bool {
	for _, in := range instrs {
		if !in.IsDead() && ir.ReadsVariable(in, v) {
			return true
		}
	}
	return false
}

func readInOtherBlock(g *cfg.CFG, self *cfg.BasicBlock, v ir.Variable) bool {
	for _, b := range g.Blocks() {
		if b != self && readsAny(b.Instrs(), v) {
			return true
		}
	}
	return false
}

// propagation is the state of one scan: the known values and, for every
// variable, the results whose known value reads it.
type propagation struct {
	values ir.ValueMap
	deps   map[ir.Key][]ir.Variable
}

func newPropagation() *propagation {
	return &propagation{values: ir.NewValueMap(), deps: make(map[ir.Key][]ir.Variable)}
}

func (p *propagation) record(res ir.Variable, val ir.Operand) {
	p.values.Put(res, val)
	for _, v := range val.UsedVariables() {
		p.deps[v.Key()] = append(p.deps[v.Key()], res)
	}
}

func (p *propagation) invalidate(res ir.Variable) {
	for _, v := range p.deps[res.Key()] {
		p.values.Delete(v)
	}
	delete(p.deps, res.Key())
}

func (p *propagation) reset() {
	p.values = ir.NewValueMap()
	p.deps = make(map[ir.Key][]ir.Variable)
}
