// Package intrinsics seeds a cfg.Package with the four monomorphic
// variants of each binary operator before BuildCFG runs, per spec.md
// §4.2. Dispatch to the right variant is purely type-driven — callers
// never name "+_VV" directly, BuildCFG selects it via the argument types
// it already resolved.
//
// Grounded on internal/vm/vm_ops.go's four-way VV/VS/SV/SS dispatch table
// for the teacher's own arithmetic opcodes.
package intrinsics

import (
	"github.com/sigvec/sigvec/internal/cfg"
	"github.com/sigvec/sigvec/internal/types"
)

// Names are the two operators the core ships; others could be added the
// same way but spec.md §4.2 only specifies + and *.
const (
	Add = "+"
	Mul = "*"
)

var ops = []struct {
	name string
	op   cfg.Op
}{
	{Add, cfg.Add},
	{Mul, cfg.Mul},
}

// variants enumerates the four operand-shape combinations every binary
// operator gets: scalar-scalar, vector-vector, scalar-vector, vector-
// scalar.
var variants = []struct {
	lhs, rhs types.Type
}{
	{types.F32, types.F32},
	{types.Vector(types.F32), types.Vector(types.F32)},
	{types.F32, types.Vector(types.F32)},
	{types.Vector(types.F32), types.F32},
}

// Seed populates pkg with the eight intrinsic monomorphisations (two
// operators times four operand shapes). It must run before any
// BuildCFG.Resolve call that might need "+" or "*", since BuildCFG only
// falls back to looking up an AST declaration when the package doesn't
// already have the requested key.
func Seed(pkg *cfg.Package) {
	for _, o := range ops {
		for _, v := range variants {
			result, ok := types.Intersection(v.lhs, v.rhs)
			if !ok {
				// Every variant here is drawn from {F32, Vector(F32)},
				// whose pairwise intersection always exists; this would
				// only trip if the variant table above were edited to
				// add an incompatible shape.
				panic("intrinsics: operand shapes must intersect")
			}
			ft := types.FunctionType{Result: result, Params: []types.Type{v.lhs, v.rhs}}
			sym := types.TypedSymbol{Name: o.name, Type: ft}
			pkg.Set(sym, &cfg.BinaryOp{
				Op:  o.op,
				Lhs: &cfg.ParamRef{Index: 0, Typ: v.lhs},
				Rhs: &cfg.ParamRef{Index: 1, Typ: v.rhs},
				Typ: result,
			})
		}
	}
}
