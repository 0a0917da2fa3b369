// Package types implements the sigvec value-type lattice: the four-shape
// polymorphic type (Any / Atomic / Vector / Function), structural
// subtyping, intersection, and the typed-symbol identity used to key
// monomorphic functions across the whole pipeline.
package types

import "strings"

// Type is the interface implemented by every member of the lattice.
type Type interface {
	// String renders the type using the symbol-mangling grammar from
	// spec.md §4.5 (also used as the structural-equality key).
	String() string
	isType()
}

// Any is the top of the lattice. It is a placeholder used only while a
// CFG value is still under construction; no concrete CFG value may carry
// it as its final type.
type AnyType struct{}

func (AnyType) String() string { return "Any" }
func (AnyType) isType()        {}

// Any is the single shared instance of AnyType.
var Any Type = AnyType{}

// AtomicType is a nominal scalar, identified by its interned tag.
type AtomicType struct {
	Tag string
}

func (a AtomicType) String() string { return a.Tag }
func (AtomicType) isType()          {}

// F32 is the only shipped atomic type.
var F32 Type = AtomicType{Tag: "F32"}

// VectorType is the cache-aligned parallel form of a scalar type.
// Vector(Vector(t)) normalises to Vector(t) at construction time.
type VectorType struct {
	Inner Type
}

func (VectorType) isType() {}
func (v VectorType) String() string {
	return "v" + v.Inner.String()
}

// Vector constructs the vector form of t, normalising nested vectors by
// taking the inner scalar version (spec.md §3: "construction normalises
// by taking inner.scalar_version()").
func Vector(t Type) Type {
	return VectorType{Inner: ScalarVersion(t)}
}

// ScalarVersion strips any vector wrapping, returning the innermost
// scalar/atomic/any type.
func ScalarVersion(t Type) Type {
	for {
		v, ok := t.(VectorType)
		if !ok {
			return t
		}
		t = v.Inner
	}
}

// IsVector reports whether t is (or normalises to) a VectorType.
func IsVector(t Type) bool {
	_, ok := t.(VectorType)
	return ok
}

// FunctionType carries arity, ordered parameter types and a result type.
type FunctionType struct {
	Result Type
	Params []Type
}

func (FunctionType) isType() {}
func (f FunctionType) String() string {
	parts := make([]string, 0, len(f.Params)+1)
	for _, p := range f.Params {
		parts = append(parts, p.String())
	}
	parts = append(parts, f.Result.String())
	return "[" + strings.Join(parts, ":") + "]"
}

// FunctionVersion builds the nullary function type whose result is t —
// the implicit-call construction spec.md §4.1 uses when a non-function
// context resolves a global identifier.
func FunctionVersion(t Type) FunctionType {
	return FunctionType{Result: t, Params: nil}
}

// Equal reports structural equality. Because String() is already a
// faithful structural mangling, two types are equal iff their manglings
// are equal.
func Equal(a, b Type) bool {
	return a.String() == b.String()
}

// SubtypeOf implements the subtype lattice from spec.md §3:
//   - everything is a subtype of Any;
//   - a nullary Function(r, []) is a subtype of r (and, transitively, of
//     anything r is a subtype of);
//   - Function is covariant in result and contravariant in parameters;
//   - Vector(a) is a subtype of Vector(b) iff a is a subtype of b, and is
//     also a subtype of b itself (the implicit-broadcast rule).
func SubtypeOf(s, t Type) bool {
	if _, ok := t.(AnyType); ok {
		return true
	}

	if sf, ok := s.(FunctionType); ok && len(sf.Params) == 0 {
		if SubtypeOf(sf.Result, t) {
			return true
		}
	}

	switch st := s.(type) {
	case AtomicType:
		tt, ok := t.(AtomicType)
		return ok && st.Tag == tt.Tag

	case FunctionType:
		tt, ok := t.(FunctionType)
		if !ok || len(st.Params) != len(tt.Params) {
			return false
		}
		if !SubtypeOf(st.Result, tt.Result) {
			return false
		}
		for i := range st.Params {
			// contravariant: the target's parameter must accept anything
			// the source's parameter accepts.
			if !SubtypeOf(tt.Params[i], st.Params[i]) {
				return false
			}
		}
		return true

	case VectorType:
		if tt, ok := t.(VectorType); ok {
			return SubtypeOf(st.Inner, tt.Inner)
		}
		// broadcast pass-through: a vector may be used wherever its
		// scalar inner type is accepted.
		return SubtypeOf(st.Inner, t)
	}

	return false
}

// Intersection returns the narrower of a and b under SubtypeOf — the one
// that is a subtype of the other — or (nil, false) if neither subtypes
// the other. Intersection(a, b) == Intersection(b, a).
func Intersection(a, b Type) (Type, bool) {
	if SubtypeOf(a, b) {
		return a, true
	}
	if SubtypeOf(b, a) {
		return b, true
	}
	return nil, false
}

// TypedSymbol is the pair (name, function type) that identifies a
// monomorphic function across the whole pipeline. Equal iff names equal
// and function types structurally equal.
type TypedSymbol struct {
	Name string
	Type FunctionType
}

// Key returns a value suitable as a Go map key and as the mangled
// bytecode label for sym (spec.md §4.5).
func (sym TypedSymbol) Key() string {
	return sym.Name + "_" + sym.Type.String()
}
