package buildcfg

import (
	"testing"

	"github.com/sigvec/sigvec/internal/ast"
	"github.com/sigvec/sigvec/internal/cfg"
	"github.com/sigvec/sigvec/internal/intrinsics"
	"github.com/sigvec/sigvec/internal/types"
)

func ident(name string) *ast.Identifier { return &ast.Identifier{Name: name} }

func apply(fn ast.Expr, params ...ast.Expr) *ast.Apply {
	return &ast.Apply{Function: fn, Params: params}
}

func newPackage() *cfg.Package {
	pkg := cfg.NewPackage()
	intrinsics.Seed(pkg)
	return pkg
}

// scenario 1: main x = 1.0 ;
func TestConstantFunction(t *testing.T) {
	module := &ast.Module{Declarations: []ast.Declaration{
		{Name: "main", ParamNames: []string{"x"}, Value: &ast.Scalar{Value: 1.0}},
	}}
	pkg := newPackage()
	g := NewGlobal(module, pkg)

	rootType := types.FunctionType{Result: types.F32, Params: []types.Type{types.Vector(types.F32)}}
	sym, err := g.Resolve("main", rootType)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	root, _ := pkg.Get(sym)
	fp, ok := root.(*cfg.FPValue)
	if !ok {
		t.Fatalf("root is %T, want *cfg.FPValue", root)
	}
	if fp.V != 1.0 {
		t.Errorf("fp.V = %v, want 1.0", fp.V)
	}
}

// scenario 2: main x = x + x ;  (lowered by hand to Apply("+", x, x))
func TestVectorVectorAdd(t *testing.T) {
	module := &ast.Module{Declarations: []ast.Declaration{
		{Name: "main", ParamNames: []string{"x"}, Value: apply(ident("+"), ident("x"), ident("x"))},
	}}
	pkg := newPackage()
	g := NewGlobal(module, pkg)

	rootType := types.FunctionType{Result: types.Vector(types.F32), Params: []types.Type{types.Vector(types.F32)}}
	sym, err := g.Resolve("main", rootType)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	root, _ := pkg.Get(sym)
	call, ok := root.(*cfg.CallFunc)
	if !ok {
		t.Fatalf("root is %T, want *cfg.CallFunc", root)
	}
	fref, ok := call.Function.(*cfg.FunctionRef)
	if !ok || fref.Name != "+" {
		t.Fatalf("callee is %#v, want FunctionRef(+)", call.Function)
	}
	want := types.FunctionType{Result: types.Vector(types.F32), Params: []types.Type{types.Vector(types.F32), types.Vector(types.F32)}}
	if !types.Equal(fref.Typ, want) {
		t.Errorf("dispatched to %s, want %s (ADD_VV)", fref.Typ, want)
	}
}

// scenario 3: main x = 2.0 + x ;
func TestScalarOverVectorBroadcast(t *testing.T) {
	module := &ast.Module{Declarations: []ast.Declaration{
		{Name: "main", ParamNames: []string{"x"}, Value: apply(ident("+"), &ast.Scalar{Value: 2.0}, ident("x"))},
	}}
	pkg := newPackage()
	g := NewGlobal(module, pkg)

	rootType := types.FunctionType{Result: types.Vector(types.F32), Params: []types.Type{types.Vector(types.F32)}}
	sym, err := g.Resolve("main", rootType)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	root, _ := pkg.Get(sym)
	call := root.(*cfg.CallFunc)
	fref := call.Function.(*cfg.FunctionRef)
	want := types.FunctionType{Result: types.Vector(types.F32), Params: []types.Type{types.F32, types.Vector(types.F32)}}
	if !types.Equal(fref.Typ, want) {
		t.Errorf("dispatched to %s, want %s (ADD_SV)", fref.Typ, want)
	}
}

// scenario 4: id x = x ; main x = id x ;
func TestRecursiveMonomorphisationOfIndirection(t *testing.T) {
	module := &ast.Module{Declarations: []ast.Declaration{
		{Name: "id", ParamNames: []string{"x"}, Value: ident("x")},
		{Name: "main", ParamNames: []string{"x"}, Value: apply(ident("id"), ident("x"))},
	}}
	pkg := newPackage()
	g := NewGlobal(module, pkg)

	rootType := types.FunctionType{Result: types.Vector(types.F32), Params: []types.Type{types.Vector(types.F32)}}
	if _, err := g.Resolve("main", rootType); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	idType := types.FunctionType{Result: types.Vector(types.F32), Params: []types.Type{types.Vector(types.F32)}}
	idSym := types.TypedSymbol{Name: "id", Type: idType}
	if !pkg.Has(idSym) {
		t.Errorf("expected id monomorphised at %s", idType)
	}
}

// scenario 5: dead-instance pruning precondition — building `unused` adds
// an F32-only monomorphisation of id that main never needs.
func TestOrphanDeclarationAddsExtraMonomorphisation(t *testing.T) {
	module := &ast.Module{Declarations: []ast.Declaration{
		{Name: "id", ParamNames: []string{"x"}, Value: ident("x")},
		{Name: "main", ParamNames: []string{"x"}, Value: apply(ident("id"), ident("x"))},
		{Name: "unused", Value: apply(ident("id"), &ast.Scalar{Value: 1.0})},
	}}
	pkg := newPackage()
	g := NewGlobal(module, pkg)

	rootType := types.FunctionType{Result: types.Vector(types.F32), Params: []types.Type{types.Vector(types.F32)}}
	if _, err := g.Resolve("main", rootType); err != nil {
		t.Fatalf("Resolve(main): %v", err)
	}
	if _, err := g.Resolve("unused", types.FunctionVersion(types.F32)); err != nil {
		t.Fatalf("Resolve(unused): %v", err)
	}

	idF32 := types.TypedSymbol{Name: "id", Type: types.FunctionType{Result: types.F32, Params: []types.Type{types.F32}}}
	if !pkg.Has(idF32) {
		t.Error("expected an F32-only monomorphisation of id from building unused")
	}
}

// scenario 6: k = 4.0 ; main x = k + x ;
func TestImplicitNullaryCall(t *testing.T) {
	module := &ast.Module{Declarations: []ast.Declaration{
		{Name: "k", Value: &ast.Scalar{Value: 4.0}},
		{Name: "main", ParamNames: []string{"x"}, Value: apply(ident("+"), ident("k"), ident("x"))},
	}}
	pkg := newPackage()
	g := NewGlobal(module, pkg)

	rootType := types.FunctionType{Result: types.Vector(types.F32), Params: []types.Type{types.Vector(types.F32)}}
	sym, err := g.Resolve("main", rootType)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	root, _ := pkg.Get(sym)
	call := root.(*cfg.CallFunc)

	kArg, ok := call.Params[0].(*cfg.CallFunc)
	if !ok {
		t.Fatalf("argument for k is %T, want *cfg.CallFunc (implicit nullary call)", call.Params[0])
	}
	kRef, ok := kArg.Function.(*cfg.FunctionRef)
	if !ok || kRef.Name != "k" || len(kRef.Typ.Params) != 0 {
		t.Fatalf("implicit call callee = %#v, want nullary FunctionRef(k)", kArg.Function)
	}

	kSym := types.TypedSymbol{Name: "k", Type: types.FunctionVersion(types.F32)}
	if !pkg.Has(kSym) {
		t.Error("expected nullary monomorphisation of k")
	}
}

func TestUndeclaredIdentifierFails(t *testing.T) {
	module := &ast.Module{Declarations: []ast.Declaration{
		{Name: "main", ParamNames: []string{"x"}, Value: ident("missing")},
	}}
	pkg := newPackage()
	g := NewGlobal(module, pkg)
	rootType := types.FunctionType{Result: types.F32, Params: []types.Type{types.F32}}
	if _, err := g.Resolve("main", rootType); err == nil {
		t.Fatal("expected UndeclaredIdentifier error")
	}
}

func TestLambdaLiteralRejected(t *testing.T) {
	module := &ast.Module{Declarations: []ast.Declaration{
		{Name: "main", ParamNames: []string{"x"}, Value: &ast.FunctionLit{ParamNames: []string{"y"}, Body: ident("y")}},
	}}
	pkg := newPackage()
	g := NewGlobal(module, pkg)
	rootType := types.FunctionType{Result: types.F32, Params: []types.Type{types.F32}}
	if _, err := g.Resolve("main", rootType); err == nil {
		t.Fatal("expected Unsupported error for a function literal")
	}
}
