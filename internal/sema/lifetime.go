package sema

import (
	"github.com/dekarrin/yunic/internal/ast"
	"github.com/dekarrin/yunic/internal/diag"
	"github.com/dekarrin/yunic/internal/util"
)

const staticLifetime = "'static"

// checkLifetimes registers every lifetime name mentioned in a `lives`
// clause (plus the implicit 'static), builds the partial order the
// clause implies, and rejects a set that contradicts itself.
func (a *Analyzer) checkLifetimes(constraints []ast.LifetimeConstraint) {
	if len(constraints) == 0 {
		return
	}

	names := util.NewStringSet()
	names.Add(staticLifetime)
	outlives := map[string]util.StringSet{} // target -> set of names it outlives, directly or transitively

	for _, c := range constraints {
		names.Add(c.Target)
		for _, s := range c.Sources {
			names.Add(s)
		}
		if outlives[c.Target] == nil {
			outlives[c.Target] = util.NewStringSet()
		}
		for _, s := range c.Sources {
			if s == c.Target {
				continue // a direct self-reference is an equality, not a contradiction
			}
			outlives[c.Target].Add(s)
		}
	}

	// Transitive closure (Floyd-Warshall-style fixpoint over a small graph).
	changed := true
	for changed {
		changed = false
		for target, sources := range outlives {
			for _, s := range sources.Elements() {
				for _, transitive := range outlives[s].Elements() {
					if !outlives[target].Has(transitive) {
						outlives[target].Add(transitive)
						changed = true
					}
				}
			}
		}
	}

	// A contradiction is a name that (transitively) outlives itself
	// through a non-trivial cycle, i.e. a genuine ordering conflict
	// rather than a direct self-reference declared as an equality.
	for name, sources := range outlives {
		if sources.Has(name) {
			a.bag.Addf(diag.StageAnalysis, diag.KindInconsistentLifetime, constraints[0].Span,
				"lifetime %q cannot outlive itself", name)
		}
	}
}
