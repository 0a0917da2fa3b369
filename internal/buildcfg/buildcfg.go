// Package buildcfg implements BuildCFG: type-directed monomorphisation of
// an AST module into a typed cfg.Package, per spec.md §4.1.
//
// Grounded on internal/vm/compiler.go's functionRegistry+subst bookkeeping
// for monomorphization, and internal/analyzer/inference_calls.go's
// call-site type-driven dispatch (arguments are resolved first, at the
// loosest type, and their resulting types drive callee selection).
package buildcfg

import (
	"github.com/sigvec/sigvec/internal/ast"
	"github.com/sigvec/sigvec/internal/cfg"
	"github.com/sigvec/sigvec/internal/diagnostics"
	"github.com/sigvec/sigvec/internal/types"
)

// Global owns the module's name→AST map and the output package. It is
// the only thing that knows how to turn an AST declaration into a fresh
// monomorphic CFG root.
type Global struct {
	module *ast.Module
	pkg    *cfg.Package
}

// NewGlobal returns a Global ready to build monomorphisations out of
// module into pkg. pkg may already contain intrinsic entries seeded by
// package intrinsics — Resolve treats those exactly like already-built
// entries and never looks them up in module.
func NewGlobal(module *ast.Module, pkg *cfg.Package) *Global {
	return &Global{module: module, pkg: pkg}
}

// Package returns the package Global is building into.
func (g *Global) Package() *cfg.Package { return g.pkg }

// Resolve ensures pkg has a built (or in-progress) entry for
// (name, want), building it on demand, and returns the typed symbol that
// now identifies it. Per spec.md §4.1:
//   - an existing entry (built or in-progress) is returned as-is, which
//     is what lets recursive functions close their own cycle;
//   - a declaration with parameters opens a scope binding each parameter
//     to a ParamRef and builds the body against want.Result;
//   - any other declaration is treated as nullary: the body builds
//     directly against want.Result, with no parameter bindings.
//
// When want.Result is Any, the finished entry is keyed by the type the
// body actually produced instead, and that refined symbol is returned.
func (g *Global) Resolve(name string, want types.FunctionType) (types.TypedSymbol, error) {
	sym := types.TypedSymbol{Name: name, Type: want}
	if g.pkg.Has(sym) {
		return sym, nil
	}

	decl, ok := g.module.Lookup(name)
	if !ok {
		return sym, diagnostics.UndeclaredIdentifier(name)
	}

	g.pkg.Reserve(sym)

	scope := &Scope{global: g, fnType: want}
	if decl.IsFunction() {
		for i, p := range decl.ParamNames {
			scope.bind(p, &cfg.ParamRef{Index: i, Typ: want.Params[i]})
		}
	}

	root, err := scope.build(decl.Value, want.Result)
	if err != nil {
		g.pkg.Abort(sym)
		return sym, err
	}
	if _, loose := want.Result.(types.AnyType); loose {
		g.pkg.Abort(sym)
		sym = types.TypedSymbol{Name: name, Type: types.FunctionType{Result: root.Type(), Params: want.Params}}
	}
	g.pkg.Set(sym, root)
	return sym, nil
}

// Scope owns its parent Global, the enclosing function's type, and the
// local name→CFG-value bindings introduced by that function's
// parameters.
type Scope struct {
	global *Global
	fnType types.FunctionType
	locals map[string]cfg.Value
}

func (s *Scope) bind(name string, v cfg.Value) {
	if s.locals == nil {
		s.locals = make(map[string]cfg.Value)
	}
	s.locals[name] = v
}

// resolveIdentifier implements spec.md §4.1's Scope.resolve: a local hit
// returns the bound value directly; otherwise every global identifier
// refers to a function. If want is itself a function type, the global
// monomorphisation at that signature is obtained and wrapped in a
// FunctionRef. If want is a non-function, the *nullary* monomorphisation
// at Function(want, []) is obtained instead, wrapped in a FunctionRef and
// then a CallFunc with no parameters (the implicit-call rule).
func (s *Scope) resolveIdentifier(name string, want types.Type) (cfg.Value, error) {
	if v, ok := s.locals[name]; ok {
		return v, nil
	}

	if ft, isFunc := want.(types.FunctionType); isFunc {
		sym, err := s.global.Resolve(name, ft)
		if err != nil {
			return nil, err
		}
		return &cfg.FunctionRef{Name: name, Typ: sym.Type}, nil
	}

	sym, err := s.global.Resolve(name, types.FunctionVersion(want))
	if err != nil {
		return nil, err
	}
	ref := &cfg.FunctionRef{Name: name, Typ: sym.Type}
	return &cfg.CallFunc{Function: ref, Params: nil, Typ: sym.Type.Result}, nil
}

// build dispatches on the AST variant and checks, after producing a
// value, the two CFG invariants from spec.md §3: the value's type is not
// Any, and it is a subtype of the requested type at this use site.
func (s *Scope) build(expr ast.Expr, want types.Type) (cfg.Value, error) {
	v, err := s.buildRaw(expr, want)
	if err != nil {
		return nil, err
	}
	if _, isAny := v.Type().(types.AnyType); isAny {
		return nil, diagnostics.TypeMismatch("value of type Any is not a valid CFG result")
	}
	if !types.SubtypeOf(v.Type(), want) {
		return nil, diagnostics.TypeMismatch("value of type %s is not assignable to requested type %s", v.Type(), want)
	}
	return v, nil
}

func (s *Scope) buildRaw(expr ast.Expr, want types.Type) (cfg.Value, error) {
	switch e := expr.(type) {
	case *ast.Scalar:
		return &cfg.FPValue{V: e.Value}, nil

	case *ast.Identifier:
		return s.resolveIdentifier(e.Name, want)

	case *ast.Apply:
		argVals := make([]cfg.Value, len(e.Params))
		argTypes := make([]types.Type, len(e.Params))
		for i, a := range e.Params {
			// Arguments are resolved first, at the loosest possible
			// type; their resulting CFG types are what drives which
			// callee monomorphisation gets selected below (spec.md
			// §4.1: this is how +_VV vs +_SV gets chosen with no
			// explicit user annotation).
			av, err := s.build(a, types.Any)
			if err != nil {
				return nil, err
			}
			argVals[i] = av
			argTypes[i] = av.Type()
		}
		constraint := types.FunctionType{Result: want, Params: argTypes}
		fnVal, err := s.build(e.Function, constraint)
		if err != nil {
			return nil, err
		}
		typ := want
		if ft, ok := fnVal.Type().(types.FunctionType); ok {
			typ = ft.Result
		}
		return &cfg.CallFunc{Function: fnVal, Params: argVals, Typ: typ}, nil

	case *ast.OperatorSequence:
		return nil, diagnostics.Unsupported("an OperatorSequence reached BuildCFG without being lowered to Apply")

	case *ast.FunctionLit:
		return nil, diagnostics.Unsupported("a function literal (closure)")

	case *ast.LexicalScope:
		return nil, diagnostics.Unsupported("a lexical-scope form")
	}
	return nil, diagnostics.Unsupported("unrecognized expression")
}
