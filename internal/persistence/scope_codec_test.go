package persistence

import (
	"errors"
	"testing"

	"github.com/orizon-lang/orizon-ir/internal/ir"
	"github.com/orizon-lang/orizon-ir/internal/scope"
)

// sampleScope builds a two-block method with a dead instruction that must not
// be persisted.
func sampleScope() *scope.Scope {
	s := scope.New("sample", ir.NewManager())
	x := ir.NewLocalVariable("x", 0, 0)
	t0 := s.NewTemporaryVariable()
	t1 := s.NewTemporaryVariable()

	head := s.NewBlock()
	tail := s.NewBlock()
	dead := ir.NewCopyInstr(t1, ir.NewFixnum(0))
	dead.MarkDead()
	head.Append(
		ir.NewReceivePreReqdArgInstr(x, nil, 0),
		ir.NewFixnumMathInstr(t0, ir.MathAdd, x, ir.NewFixnum(1)),
		dead,
		ir.NewBFalseInstr(t0, tail.Label()),
	)
	tail.Append(
		ir.NewCallInstr(t1, "print", nil, t0, ir.NewStringLiteral("done")),
		ir.NewReturnInstr(t1),
	)
	s.CFG().BuildEdges()
	return s
}

func TestScopeRoundTrip(t *testing.T) {
	src := sampleScope()
	m := ir.NewManager()
	got, err := DecodeScope(EncodeScope(src), m)
	if err != nil {
		t.Fatalf("DecodeScope failed: %v", err)
	}
	if got.Name() != src.Name() || got.Manager() != m {
		t.Errorf("header changed: %s", got.Name())
	}
	if got.TemporaryCount() != src.TemporaryCount() {
		t.Errorf("temporary count %d, want %d", got.TemporaryCount(), src.TemporaryCount())
	}

	srcBlocks, gotBlocks := src.CFG().Blocks(), got.CFG().Blocks()
	if len(gotBlocks) != len(srcBlocks) {
		t.Fatalf("expected %d blocks, got %d", len(srcBlocks), len(gotBlocks))
	}
	for i, b := range gotBlocks {
		if b.Label().Name != srcBlocks[i].Label().Name {
			t.Errorf("block %d label %s, want %s", i, b.Label(), srcBlocks[i].Label())
		}
		var want []string
		for _, in := range srcBlocks[i].Instrs() {
			if !in.IsDead() {
				want = append(want, in.String())
			}
		}
		if len(b.Instrs()) != len(want) {
			t.Fatalf("block %s: expected %d instructions, got %d", b.Label(), len(want), len(b.Instrs()))
		}
		for k, in := range b.Instrs() {
			if in.String() != want[k] {
				t.Errorf("block %s instruction %d: %q, want %q", b.Label(), k, in, want[k])
			}
		}
	}
	if len(got.CFG().Edges()) != len(src.CFG().Edges()) {
		t.Errorf("edges were not rebuilt: %v", got.CFG().Edges())
	}
	if v := got.NewTemporaryVariable(); v.Index != src.TemporaryCount() {
		t.Errorf("fresh temporary %s collides with decoded ones", v)
	}
}

func TestDecodeScopeRejectsCorruptData(t *testing.T) {
	data := EncodeScope(sampleScope())
	cases := map[string][]byte{
		"empty":          nil,
		"truncated":      data[:len(data)-3],
		"trailing bytes": append(append([]byte(nil), data...), 0),
	}
	for name, c := range cases {
		if _, err := DecodeScope(c, ir.NewManager()); !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("%s: expected ErrInvalidArtifact, got %v", name, err)
		}
	}
}

func TestDecodeScopeRejectsDuplicateLabels(t *testing.T) {
	e := ir.NewEncoder()
	name, label := "dup", "BB_0"
	temps, blocks, instrs := 0, 2, 0
	e.String(&name)
	e.Int(&temps)
	e.Int(&blocks)
	for i := 0; i < blocks; i++ {
		e.String(&label)
		e.Int(&instrs)
	}
	if _, err := DecodeScope(e.Bytes(), ir.NewManager()); !errors.Is(err, ErrInvalidArtifact) {
		t.Errorf("expected ErrInvalidArtifact, got %v", err)
	}
}
