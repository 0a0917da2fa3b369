// Package cfg implements the typed, per-function control-flow value graph
// BuildCFG produces, and the cross-function Package that indexes every
// monomorphic root by its typed symbol.
package cfg

import "github.com/sigvec/sigvec/internal/types"

// Value is the interface implemented by every CFG node shape from
// spec.md §3: FPValue, ParamRef, FunctionRef, BinaryOp, CallFunc.
//
// Each node caches its own resolved Type at construction time — since a
// CFG value is never shared across functions (every reference to another
// function crosses through a nominal FunctionRef, not a shared pointer),
// there is no need to recompute "type_in_function" from context.
type Value interface {
	Type() types.Type
	isValue()
}

// FPValue is a floating-point literal. Its type is always F32 — the
// literal is narrowed to 32 bits at codegen time (spec.md §3).
type FPValue struct {
	V float64
}

func (f *FPValue) Type() types.Type { return types.F32 }
func (*FPValue) isValue()           {}

// ParamRef refers to the i-th parameter of the enclosing monomorphic
// function by ordinal. Its type is that parameter's type in the
// enclosing function's signature.
type ParamRef struct {
	Index int
	Typ   types.Type
}

func (p *ParamRef) Type() types.Type { return p.Typ }
func (*ParamRef) isValue()           {}

// FunctionRef is a nominal reference to another monomorphic function,
// identified by (Name, Typ) — never by a pointer to its CFG root, which
// is what lets function references form cycles (spec.md §3: "Cyclic
// references across functions ... are represented via FunctionRef
// (nominal, not structural) and are therefore permitted").
type FunctionRef struct {
	Name string
	Typ  types.FunctionType
}

func (f *FunctionRef) Type() types.Type { return f.Typ }
func (*FunctionRef) isValue()           {}

// Symbol returns the typed symbol this reference names.
func (f *FunctionRef) Symbol() types.TypedSymbol {
	return types.TypedSymbol{Name: f.Name, Type: f.Typ}
}

// Op identifies a binary operator.
type Op int

const (
	Add Op = iota
	Mul
)

func (o Op) String() string {
	if o == Mul {
		return "*"
	}
	return "+"
}

// BinaryOp applies Op to Lhs and Rhs. Its type is the intersection of the
// two operand types and must be non-null (spec.md §3).
type BinaryOp struct {
	Op       Op
	Lhs, Rhs Value
	Typ      types.Type
}

func (b *BinaryOp) Type() types.Type { return b.Typ }
func (*BinaryOp) isValue()           {}

// CallFunc calls Function with Params, in source order. Its type is the
// result type of Function's function type.
type CallFunc struct {
	Function Value
	Params   []Value
	Typ      types.Type
}

func (c *CallFunc) Type() types.Type { return c.Typ }
func (*CallFunc) isValue()           {}

// entry pairs a typed symbol with its built (or in-progress) root, so a
// Package can report symbols by identity even though TypedSymbol itself
// is not map-key-safe (FunctionType.Params is a slice).
type entry struct {
	Symbol types.TypedSymbol
	Root   Value // nil while the symbol's body is still being built
}

// Package maps typed symbols to their monomorphic CFG roots. Cyclic
// references across functions are fine: they go through FunctionRef.
type Package struct {
	entries map[string]*entry
}

// NewPackage returns an empty package.
func NewPackage() *Package {
	return &Package{entries: make(map[string]*entry)}
}

// Has reports whether sym has an entry (built or in-progress).
func (p *Package) Has(sym types.TypedSymbol) bool {
	_, ok := p.entries[sym.Key()]
	return ok
}

// Reserve inserts an in-progress placeholder for sym, so that recursive
// resolution during its own construction finds the key already present
// (spec.md §4.1: "the map entry is inserted before the body is built").
// It is a no-op if sym already has an entry.
func (p *Package) Reserve(sym types.TypedSymbol) {
	if p.Has(sym) {
		return
	}
	p.entries[sym.Key()] = &entry{Symbol: sym}
}

// Set stores the finished root for sym (which must already have been
// reserved or is being inserted fresh, e.g. by the intrinsics seed pass).
func (p *Package) Set(sym types.TypedSymbol, root Value) {
	p.entries[sym.Key()] = &entry{Symbol: sym, Root: root}
}

// Get returns sym's root and whether it has one. A reserved-but-not-yet-
// built symbol reports ok=true, root=nil.
func (p *Package) Get(sym types.TypedSymbol) (Value, bool) {
	e, ok := p.entries[sym.Key()]
	if !ok {
		return nil, false
	}
	return e.Root, true
}

// Delete removes sym's entry, e.g. during GC sweep.
func (p *Package) Delete(sym types.TypedSymbol) {
	delete(p.entries, sym.Key())
}

// Abort removes sym's entry, used to roll back a failed build so a later
// resolve attempt (e.g. after the caller fixes its program) starts clean.
func (p *Package) Abort(sym types.TypedSymbol) {
	p.Delete(sym)
}

// Symbols returns every typed symbol currently in the package, in no
// particular order.
func (p *Package) Symbols() []types.TypedSymbol {
	out := make([]types.TypedSymbol, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.Symbol)
	}
	return out
}

// Len reports the number of entries in the package.
func (p *Package) Len() int { return len(p.entries) }
