// Package codegen implements Codegen: lowering a typed cfg.Package to a
// linear bytecode.Package, per spec.md §4.5.
//
// Grounded on internal/vm/compiler.go's Compiler struct (per-function
// stack-slot bookkeeping, tail-position tracking as the analogue of
// "is-return-node") and its function-registry-driven emission loop.
package codegen

import (
	"github.com/sigvec/sigvec/internal/bytecode"
	"github.com/sigvec/sigvec/internal/cfg"
	"github.com/sigvec/sigvec/internal/diagnostics"
	"github.com/sigvec/sigvec/internal/types"
)

// Generate lowers every function currently in pkg into a single
// bytecode.Package. Functions are self-contained (call targets are
// resolved by label, not by fallthrough), so emission order across
// functions does not matter; spec.md's per-function layout contract is
// about each function's own contiguous instruction range, not about a
// global order.
func Generate(pkg *cfg.Package) (*bytecode.Package, error) {
	out := bytecode.NewPackage()
	for _, sym := range pkg.Symbols() {
		root, ok := pkg.Get(sym)
		if !ok || root == nil {
			return nil, diagnostics.TypeMismatch("cannot generate code for unbuilt symbol %s", sym.Key())
		}
		g := &funcGen{out: out}
		g.emitFunction(sym, root)
	}
	return out, nil
}

// funcGen lowers one function. stackSize tracks the number of scalar
// slots pushed by CFG values still awaiting consumption by their parent
// node — the running counter spec.md §4.5 uses to compute ParamRef
// offsets and decrements as operand instructions are emitted LIFO.
type funcGen struct {
	out          *bytecode.Package
	stackSize    int
	paramTypes   []types.Type
	unusedParams map[int]bool
}

func (g *funcGen) emitFunction(sym types.TypedSymbol, root cfg.Value) {
	g.out.Label(sym.Key())

	arity := len(sym.Type.Params)
	g.paramTypes = sym.Type.Params
	g.unusedParams = make(map[int]bool, arity)
	for i := 0; i < arity; i++ {
		g.unusedParams[i] = true
	}
	g.stackSize = 0

	g.emit(root, true)
}

// needsDropV reports whether the explicit-pop drop closing out this
// function must be DROP_V rather than DROP_S. DROP_S is only safe when
// no vector content is anywhere involved in the relocation: not the
// returned value itself (topVector), and not one of the still-unused
// parameter slots the drop is about to discard. Discarding a slot that
// holds a StrongVecRef orphans its vector buffer, which only DROP_V's
// runtime handling knows to free — spec.md §8 scenario 1 emits `drop_v 1`
// for a scalar-valued return specifically because the one unused
// parameter it drops is a `Vector(F32)`.
func (g *funcGen) needsDropV(topVector bool) bool {
	if topVector {
		return true
	}
	for i := range g.unusedParams {
		if types.IsVector(g.paramTypes[i]) {
			return true
		}
	}
	return false
}

// emit lowers v. When isReturn is true, v occupies the function's return
// position and gets the stack-cleanup wrapping spec.md §4.5 describes;
// every other call site passes false.
func (g *funcGen) emit(v cfg.Value, isReturn bool) {
	switch n := v.(type) {
	case *cfg.FPValue:
		g.push(bytecode.Instruction{Op: bytecode.PUSH, Kind: bytecode.OperandF32, F32: float32(n.V)})
		g.stackSize++
		if isReturn {
			g.finishExplicitPop(false)
		}

	case *cfg.ParamRef:
		delete(g.unusedParams, n.Index)
		offset := uint32(g.stackSize + n.Index + 1)
		vector := types.IsVector(n.Typ)
		if vector {
			g.push(bytecode.Instruction{Op: bytecode.REF_VEC, Kind: bytecode.OperandU32, U32: offset})
		} else {
			g.push(bytecode.Instruction{Op: bytecode.COPY, Kind: bytecode.OperandU32, U32: offset})
		}
		g.stackSize++
		if isReturn {
			g.finishExplicitPop(vector)
		}

	case *cfg.FunctionRef:
		sym := n.Symbol()
		g.push(bytecode.Instruction{Op: bytecode.PUSH_SYM, Kind: bytecode.OperandSym, Sym: sym.Key()})
		g.stackSize++
		if isReturn {
			g.finishExplicitPop(false)
		}

	case *cfg.BinaryOp:
		g.emit(n.Rhs, false)
		g.emit(n.Lhs, false)
		g.stackSize -= 2
		popN := 0
		if isReturn {
			popN = len(g.unusedParams)
			g.push(bytecode.Instruction{Op: bytecode.RET})
		}
		g.push(bytecode.Instruction{
			Op:   binaryOpcode(n.Op, n.Lhs.Type(), n.Rhs.Type()),
			Kind: bytecode.OperandU32,
			U32:  uint32(popN),
		})
		g.stackSize++
		if isReturn {
			g.finishNaturalPop()
		}

	case *cfg.CallFunc:
		for i := len(n.Params) - 1; i >= 0; i-- {
			g.emit(n.Params[i], false)
		}
		g.emit(n.Function, false)
		g.stackSize -= len(n.Params) + 1
		popN := 0
		if isReturn {
			popN = len(g.unusedParams)
			g.push(bytecode.Instruction{Op: bytecode.RET})
		}
		g.push(bytecode.Instruction{Op: bytecode.CALL, Kind: bytecode.OperandU32, U32: uint32(popN)})
		g.stackSize++
		if isReturn {
			g.finishNaturalPop()
		}
	}
}

func (g *funcGen) push(inst bytecode.Instruction) {
	g.out.Emit(inst)
}

// finishExplicitPop closes out a return-position value from the
// "explicit-pop" class (FPValue, ParamRef, FunctionRef): emit RET, then
// a DROP_S/DROP_V of the unused-parameter count, then EXIT. topVector
// reports whether the value instruction just emitted produced a vector.
func (g *funcGen) finishExplicitPop(topVector bool) {
	g.push(bytecode.Instruction{Op: bytecode.RET})
	dropOp := bytecode.DROP_S
	if g.needsDropV(topVector) {
		dropOp = bytecode.DROP_V
	}
	g.push(bytecode.Instruction{Op: dropOp, Kind: bytecode.OperandU32, U32: uint32(len(g.unusedParams))})
	g.unusedParams = nil
	g.push(bytecode.Instruction{Op: bytecode.EXIT})
}

// finishNaturalPop closes out a return-position value from the "natural
// overwrite" class (BinaryOp, CallFunc). The caller has already emitted
// RET ahead of the value-producing instruction itself, so the VM's
// resultOffset is armed by the time that instruction's own pop-count
// operand runs; only EXIT remains here.
func (g *funcGen) finishNaturalPop() {
	g.unusedParams = nil
	g.push(bytecode.Instruction{Op: bytecode.EXIT})
}

func binaryOpcode(op cfg.Op, lhs, rhs types.Type) bytecode.Opcode {
	lv, rv := types.IsVector(lhs), types.IsVector(rhs)
	if op == cfg.Add {
		switch {
		case lv && rv:
			return bytecode.ADD_VV
		case !lv && rv:
			return bytecode.ADD_SV
		case lv && !rv:
			return bytecode.ADD_VS
		default:
			return bytecode.ADD_SS
		}
	}
	switch {
	case lv && rv:
		return bytecode.MUL_VV
	case !lv && rv:
		return bytecode.MUL_SV
	case lv && !rv:
		return bytecode.MUL_VS
	default:
		return bytecode.MUL_SS
	}
}
