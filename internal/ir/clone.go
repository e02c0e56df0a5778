package ir

import (
	"fmt"
	"strconv"

	irerrors "github.com/orizon-lang/orizon-ir/internal/errors"
)

// CloneInfo is the context passed to every clone operation. The concrete
// variants are *SimpleCloneInfo and *InlineCloneInfo; instructions and
// operands switch on the concrete type and decide their own behavior.
type CloneInfo interface {
	RenamedVariable(v Variable) Variable
	RenamedLabel(l *Label) *Label
	cloneInfo() *renamer
}

// renamer is the rename state shared by both variants.
type renamer struct {
	vars    map[Key]Variable
	targets map[Key]Key
	labels  map[Key]*Label
	prefix  string
	nlabels int
}

func newRenamer(prefix string) renamer {
	return renamer{
		vars:    make(map[Key]Variable),
		targets: make(map[Key]Key),
		labels:  make(map[Key]*Label),
		prefix:  prefix,
	}
}

func (r *renamer) cloneInfo() *renamer { return r }

// AddRename maps src to dst. The map stays injective: a destination may be
// claimed by one source only.
func (r *renamer) AddRename(src, dst Variable) error {
	if prev, ok := r.vars[src.Key()]; ok {
		if prev.Key() == dst.Key() {
			return nil
		}
		return irerrors.InvalidRename(fmt.Sprintf("%s already renamed to %s", src, prev))
	}
	if owner, ok := r.targets[dst.Key()]; ok {
		return irerrors.InvalidRename(fmt.Sprintf("%s is already the rename of %s", dst, owner))
	}
	r.vars[src.Key()] = dst
	r.targets[dst.Key()] = src.Key()
	return nil
}

func (r *renamer) lookup(v Variable) (Variable, bool) {
	dst, ok := r.vars[v.Key()]
	return dst, ok
}

// RenamedVariable returns the destination of v. A missing entry is a
// programming error in whoever built the clone context.
func (r *renamer) RenamedVariable(v Variable) Variable {
	if v == nil {
		return nil
	}
	dst, ok := r.vars[v.Key()]
	if !ok {
		panic(irerrors.MissingRename(v.String()))
	}
	return dst
}

// RenamedLabel returns the label standing for l in the cloned region,
// allocating a fresh one on first use.
func (r *renamer) RenamedLabel(l *Label) *Label {
	if dst, ok := r.labels[l.Key()]; ok {
		return dst
	}
	r.nlabels++
	dst := NewLabel(l.Name + "_" + r.prefix + strconv.Itoa(r.nlabels))
	r.labels[l.Key()] = dst
	return dst
}

// AddLabelRename fixes the label that stands for src in the cloned region.
func (r *renamer) AddLabelRename(src, dst *Label) { r.labels[src.Key()] = dst }

// SimpleCloneInfo is used to duplicate a region of a scope in place, e.g. a
// loop body. Control structure is kept; variables go through the rename map.
type SimpleCloneInfo struct {
	renamer
}

// NewSimpleCloneInfo returns a clone context whose fresh labels use labelPrefix.
func NewSimpleCloneInfo(labelPrefix string) *SimpleCloneInfo {
	return &SimpleCloneInfo{renamer: newRenamer(labelPrefix)}
}

// InlineCloneInfo is used to inline a callee scope into a host at a call site.
type InlineCloneInfo struct {
	renamer

	Host       Scope
	Args       []Operand
	Splat      Operand
	CallResult Variable

	staticArgs bool
}

// NewInlineCloneInfo builds an inline context. staticArgs states that the
// call site's argument count is known relative to the callee's parameters.
func NewInlineCloneInfo(host Scope, args []Operand, callResult Variable, staticArgs bool) *InlineCloneInfo {
	return &InlineCloneInfo{
		renamer:    newRenamer("i"),
		Host:       host,
		Args:       args,
		CallResult: callResult,
		staticArgs: staticArgs,
	}
}

// CanMapArgsStatically reports whether the call site argument count is known.
func (ii *InlineCloneInfo) CanMapArgsStatically() bool { return ii.staticArgs }

// ArgsCount is the number of arguments at the call site.
func (ii *InlineCloneInfo) ArgsCount() int { return len(ii.Args) }

func (ii *InlineCloneInfo) Arg(i int) Operand { return ii.Args[i] }

// ArgsOperand is the argument list as a single operand for runtime dispatch.
func (ii *InlineCloneInfo) ArgsOperand() Operand {
	if ii.Splat != nil {
		return ii.Splat
	}
	return NewArray(ii.Args...)
}

func unsupportedClone(subject fmt.Stringer, info CloneInfo) *irerrors.StandardError {
	return irerrors.UnsupportedClone(subject.String(), info)
}
