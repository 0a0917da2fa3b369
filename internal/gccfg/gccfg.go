// Package gccfg implements the mark-and-sweep dead-instance elimination
// pass from spec.md §4.3: starting at a root typed symbol, mark every
// typed symbol reachable via CallFunc/BinaryOp/FunctionRef edges, then
// remove everything else from the package.
//
// Grounded on internal/analyzer/analyzer.go's walker-style reachability
// visitor; the removed-symbol report reuses that package's
// accumulate-then-return idiom (addError/addErrors/getErrors), here
// repurposed for "what got swept" rather than "what went wrong".
package gccfg

import (
	"github.com/sigvec/sigvec/internal/cfg"
	"github.com/sigvec/sigvec/internal/diagnostics"
	"github.com/sigvec/sigvec/internal/types"
)

// Collect marks every typed symbol reachable from root and removes every
// other entry from pkg, returning the symbols it removed. It fails with
// diagnostics.UndefinedRoot if root is absent from pkg.
func Collect(pkg *cfg.Package, root types.TypedSymbol) ([]types.TypedSymbol, error) {
	rootVal, ok := pkg.Get(root)
	if !ok {
		return nil, diagnostics.UndefinedRoot(root.Key())
	}

	marked := map[string]bool{root.Key(): true}

	var visit func(v cfg.Value)
	visit = func(v cfg.Value) {
		switch n := v.(type) {
		case *cfg.CallFunc:
			visit(n.Function)
			for _, p := range n.Params {
				visit(p)
			}
		case *cfg.BinaryOp:
			visit(n.Lhs)
			visit(n.Rhs)
		case *cfg.FunctionRef:
			sym := n.Symbol()
			if marked[sym.Key()] {
				return
			}
			marked[sym.Key()] = true
			if referent, ok := pkg.Get(sym); ok && referent != nil {
				visit(referent)
			}
		case *cfg.ParamRef, *cfg.FPValue:
			// leaves: nothing further to mark.
		}
	}
	if rootVal != nil {
		visit(rootVal)
	}

	var removed []types.TypedSymbol
	for _, sym := range pkg.Symbols() {
		if !marked[sym.Key()] {
			removed = append(removed, sym)
			pkg.Delete(sym)
		}
	}
	return removed, nil
}
