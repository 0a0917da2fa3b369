package types

import "testing"

func TestSubtypeReflexiveAndTop(t *testing.T) {
	cases := []Type{
		F32,
		Vector(F32),
		FunctionType{Result: F32, Params: []Type{F32, Vector(F32)}},
		Any,
	}
	for _, c := range cases {
		if !SubtypeOf(c, c) {
			t.Errorf("SubtypeOf(%s, %s) = false, want true (reflexive)", c, c)
		}
		if !SubtypeOf(c, Any) {
			t.Errorf("SubtypeOf(%s, Any) = false, want true", c)
		}
	}
	if SubtypeOf(Any, F32) {
		t.Error("SubtypeOf(Any, F32) = true, want false: Any is top, not bottom")
	}
}

func TestVectorNormalisation(t *testing.T) {
	got := Vector(Vector(F32))
	want := Vector(F32)
	if !Equal(got, want) {
		t.Errorf("Vector(Vector(F32)) = %s, want %s", got, want)
	}
}

func TestVectorBroadcastSubtyping(t *testing.T) {
	if !SubtypeOf(Vector(F32), F32) {
		t.Error("Vector(F32) should be a subtype of F32 (implicit broadcast)")
	}
	if SubtypeOf(F32, Vector(F32)) {
		t.Error("F32 should NOT be a subtype of Vector(F32): broadcast is one-directional")
	}
}

func TestNullaryFunctionSubtypesResult(t *testing.T) {
	nullary := FunctionType{Result: F32, Params: nil}
	if !SubtypeOf(nullary, F32) {
		t.Error("nullary Function(F32, []) should be a subtype of F32")
	}
}

func TestFunctionVariance(t *testing.T) {
	// Function is covariant in result, contravariant in params.
	narrow := FunctionType{Result: Vector(F32), Params: []Type{F32}}
	wide := FunctionType{Result: F32, Params: []Type{Vector(F32)}}
	if !SubtypeOf(narrow, wide) {
		t.Error("narrow function should be a subtype of wide: covariant result, contravariant param")
	}
	if SubtypeOf(wide, narrow) {
		t.Error("wide function should not be a subtype of narrow")
	}
}

func TestIntersectionCommutesAndNarrows(t *testing.T) {
	a, b := F32, Vector(F32)
	r1, ok1 := Intersection(a, b)
	r2, ok2 := Intersection(b, a)
	if !ok1 || !ok2 {
		t.Fatalf("Intersection should succeed for F32/Vector(F32): ok1=%v ok2=%v", ok1, ok2)
	}
	if !Equal(r1, r2) {
		t.Errorf("Intersection not commutative: %s vs %s", r1, r2)
	}
	if !Equal(r1, Vector(F32)) {
		t.Errorf("Intersection(F32, Vector(F32)) = %s, want the narrower Vector(F32)", r1)
	}
}

func TestIntersectionFailsForUnrelatedTypes(t *testing.T) {
	fn := FunctionType{Result: F32, Params: []Type{F32}}
	if _, ok := Intersection(F32, fn); ok {
		t.Error("Intersection(F32, Function) should fail: neither subtypes the other")
	}
}

func TestTypedSymbolKey(t *testing.T) {
	a := TypedSymbol{Name: "main", Type: FunctionType{Result: F32, Params: []Type{Vector(F32)}}}
	b := TypedSymbol{Name: "main", Type: FunctionType{Result: F32, Params: []Type{Vector(F32)}}}
	if a.Key() != b.Key() {
		t.Errorf("structurally equal typed symbols produced different keys: %q vs %q", a.Key(), b.Key())
	}
	c := TypedSymbol{Name: "main", Type: FunctionType{Result: F32, Params: []Type{F32}}}
	if a.Key() == c.Key() {
		t.Error("typed symbols with different signatures must not collide")
	}
}

func TestMangling(t *testing.T) {
	ft := FunctionType{Result: F32, Params: []Type{F32, Vector(F32)}}
	if got, want := ft.String(), "[F32:vF32:F32]"; got != want {
		t.Errorf("mangling = %q, want %q", got, want)
	}
}
