// Package lower rewrites a parsed program into a tree the C printer can
// emit directly: for_field loops are expanded, declarations are moved to
// where C accepts them, and matrix and field types get concrete
// implementations.
package lower

import (
	"github.com/you-not-fish/fieldc/internal/syntax"
)

// Pipeline returns the lowering passes in the order they must run.
func Pipeline() []Pass {
	return []Pass{
		{Name: "parallel", Fn: expandParallel},
		{Name: "lift", Fn: liftDecls},
		{Name: "hoist", Fn: hoistDecls},
		{Name: "concretize", Fn: concretize},
		{Name: "desugar", Fn: desugar},
	}
}

// Lower runs the lowering pipeline over a copy of root and returns the
// lowered copy. root is left unchanged.
func Lower(root *syntax.Scope, cfg Config) (*syntax.Scope, error) {
	u := NewUnit(syntax.Copy(root).(*syntax.Scope))
	if err := Run(u, Pipeline(), cfg); err != nil {
		return nil, err
	}
	return u.Root, nil
}
