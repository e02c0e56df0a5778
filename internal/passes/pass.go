// Package passes implements compiler passes over a scope's IR.
// Each pass is a self-contained transformation that can be composed into a
// pipeline and reports statistics about what it did.
package passes

import (
	"fmt"
	"time"

	"github.com/orizon-lang/orizon-ir/internal/cli"
	"github.com/orizon-lang/orizon-ir/internal/scope"
)

// Pass is a single transformation applied to one scope.
type Pass interface {
	// Label returns a human-readable name for the pass
	Label() string

	// ShortLabel returns the abbreviated name used in logs and flags
	ShortLabel() string

	// Execute transforms the scope in place and returns its statistics
	Execute(s *scope.Scope) *Stats
}

// Stats tracks what a pass did to a scope
type Stats struct {
	Pass           string        // Short label of the pass
	BlocksVisited  int           // Number of basic blocks scanned
	Iterations     int           // Number of block scans, across all blocks
	InstrsReplaced int           // Instructions rewritten in place
	InstrsRemoved  int           // Instructions tombstoned and swept
	EdgeFixups     int           // Blocks whose outgoing edges were recomputed
	CFGChanged     bool          // Whether the global CFG cleanup removed blocks
	Elapsed        time.Duration // Wall time spent in the pass
}

func (s *Stats) String() string {
	return fmt.Sprintf("Pass: %s, Blocks: %d, Iterations: %d, Replaced: %d, Removed: %d, Fixups: %d, CFG changed: %t, Time: %s",
		s.Pass, s.BlocksVisited, s.Iterations, s.InstrsReplaced, s.InstrsRemoved, s.EdgeFixups, s.CFGChanged, s.Elapsed)
}

// Pipeline runs an ordered list of passes over a scope.
type Pipeline struct {
	passes []Pass
	logger *cli.Logger
}

// NewPipeline creates a pipeline; a nil logger disables tracing.
func NewPipeline(logger *cli.Logger, passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes, logger: logger}
}

// AddPass appends a pass to the pipeline
func (p *Pipeline) AddPass(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Passes returns the registered passes in execution order
func (p *Pipeline) Passes() []Pass { return p.passes }

// Run executes every pass in order and returns their statistics.
func (p *Pipeline) Run(s *scope.Scope) []*Stats {
	all := make([]*Stats, 0, len(p.passes))
	for _, pass := range p.passes {
		p.logger.Debug("running %s on %s", pass.Label(), s.Name())
		st := pass.Execute(s)
		p.logger.Info("%s", st)
		all = append(all, st)
	}
	return all
}
