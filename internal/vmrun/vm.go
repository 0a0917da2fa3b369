// Package vmrun implements VMEval: the dual-stack bytecode interpreter
// from spec.md §3 and §4.6, plus the public per-call entry point.
//
// Grounded on internal/vm/vm.go's State-owns-both-stacks shape and
// internal/vm/vm_exec.go's executeOneOp dispatch loop (a plain switch
// over the opcode, one case per instruction, no bytecode verifier pass)
// — generalised here from one operand stack to the scalar/vector pair
// spec.md's runtime invariants require.
package vmrun

import (
	"math"

	"github.com/sigvec/sigvec/internal/bytecode"
	"github.com/sigvec/sigvec/internal/diagnostics"
)

// Data is a flat buffer of audio-rate samples, the public unit VM calls
// consume and produce (spec.md §6: "{ v0 v1 v2 … }").
type Data []float32

type slotTag byte

const (
	tagScalarFP slotTag = iota
	tagStrongVecRef
	tagWeakVecRef
)

// scalarSlot is one scalar-stack word: a tag plus the payload spec.md §3
// describes, held as raw 4-byte bits (f32 or u32) or — for a vector ref —
// a separate index of its buffer on the vector stack.
type scalarSlot struct {
	tag    slotTag
	bits   uint32
	vecIdx int
}

func f32Slot(v float32) scalarSlot { return scalarSlot{tag: tagScalarFP, bits: math.Float32bits(v)} }
func u32Slot(v uint32) scalarSlot  { return scalarSlot{tag: tagScalarFP, bits: v} }

func (s scalarSlot) asF32() float32 { return math.Float32frombits(s.bits) }
func (s scalarSlot) asU32() uint32  { return s.bits }

// vecBuf is one vector-stack entry: frameSamples contiguous f32 samples.
// Represented as a plain Go slice rather than spec.md's literal
// 64-byte-slotted arena — see DESIGN.md's open-question entry on vector
// stack cache-alignment.
type vecBuf struct {
	data []float32
}

// TraceEvent reports one opcode's execution: its instruction pointer, the
// opcode itself, and both stack depths immediately afterward.
type TraceEvent struct {
	InstPtr     int
	Op          bytecode.Opcode
	ScalarDepth int
	VectorDepth int
}

// TraceFunc is invoked once per executed opcode when a State is built with
// WithTrace — used by cmd/sigvec's step trace and by tests asserting the
// scalar/vector stack growth invariants mechanically rather than by
// hand-counting.
type TraceFunc func(TraceEvent)

// State owns the scalar stack, the vector stack, and the frame's sample
// count for the VM call currently in progress. One State is created per
// top-level Call and discarded once it returns; nothing outside this
// package retains pointers into either stack across a call (spec.md §5).
type State struct {
	scalar       []scalarSlot
	vectors      []*vecBuf
	frameSamples int
	trace        TraceFunc
}

func newState(frameSamples int) *State {
	return &State{frameSamples: frameSamples}
}

func (s *State) pushScalar(slot scalarSlot) { s.scalar = append(s.scalar, slot) }

func (s *State) popScalar() scalarSlot {
	n := len(s.scalar) - 1
	v := s.scalar[n]
	s.scalar = s.scalar[:n]
	return v
}

// peekScalar returns the n-th-from-top scalar slot, 1-indexed: n=1 is
// the slot currently on top, n=2 the one beneath it, and so on (spec.md
// §4.5's offset formula `stackSize + i + 1` yields 1 for the first
// parameter of a function with no intermediates pushed yet, which must
// resolve to the slot that is, at that point, the actual top of stack).
func (s *State) peekScalar(n int) scalarSlot {
	return s.scalar[len(s.scalar)-n]
}

// alloc extends the vector stack by one frame-sized buffer and pushes a
// StrongVecRef to it (spec.md §4.6: "alloc() extends the vector stack by
// frame_slots and pushes a StrongVecRef pointing at the new slot's base
// index").
func (s *State) alloc() *vecBuf {
	buf := &vecBuf{data: make([]float32, s.frameSamples)}
	s.vectors = append(s.vectors, buf)
	s.pushScalar(scalarSlot{tag: tagStrongVecRef, vecIdx: len(s.vectors) - 1})
	return buf
}

// reference pushes a WeakVecRef aliasing the same buffer as r.
func (s *State) reference(r scalarSlot) {
	s.pushScalar(scalarSlot{tag: tagWeakVecRef, vecIdx: r.vecIdx})
}

// dereference returns the buffer r refers to. It asserts r is the
// topmost vector buffer — the invariant Codegen relies on (spec.md
// §4.6: "the VM may only dereference the currently-live strong vector").
func (s *State) dereference(r scalarSlot) *vecBuf {
	if r.vecIdx != len(s.vectors)-1 {
		panic("vmrun: dereference of a non-topmost vector buffer")
	}
	return s.vectors[r.vecIdx]
}

// popVector discards the topmost vector buffer, freeing the storage a
// StrongVecRef just relinquished.
func (s *State) popVector() {
	s.vectors = s.vectors[:len(s.vectors)-1]
}

// relocateResult pops n scalar slots below the current top, freeing any
// vector buffer orphaned by a discarded StrongVecRef, then relocates the
// top value itself if it is a StrongVecRef that is not already the
// topmost vector buffer (DROP_V's "sits above/below the drop
// destination" special case — see DESIGN.md's open-question entry). It
// is the shared relocation primitive behind DROP_V and every
// natural-overwrite opcode's popN.
func (s *State) relocateResult(n int) {
	top := s.popScalar()
	for i := 0; i < n; i++ {
		victim := s.popScalar()
		if victim.tag == tagStrongVecRef {
			s.popVector()
		}
	}
	if top.tag == tagStrongVecRef && top.vecIdx != len(s.vectors)-1 {
		orig := s.vectors[top.vecIdx]
		fresh := &vecBuf{data: append([]float32(nil), orig.data...)}
		s.popVector()
		s.vectors = append(s.vectors, fresh)
		top.vecIdx = len(s.vectors) - 1
	}
	s.pushScalar(top)
}

// dropS relocates the top scalar down n slots, assuming (as Codegen
// guarantees whenever it emits DROP_S) that neither the top value nor
// any discarded slot is a vector — a plain truncate, no vector-stack
// bookkeeping needed.
func (s *State) dropS(n int) {
	top := s.popScalar()
	s.scalar = s.scalar[:len(s.scalar)-n]
	s.pushScalar(top)
}

// Eval re-entrantly interprets pkg starting at instPtr. resultOffset
// starts at 0 and is set to the caller-supplied popCount only once RET
// executes (spec.md §4.6) — every value-producing op before the return
// node runs with resultOffset 0, exactly like a non-return op would. It
// mutates pkg in place for PUSH_SYM's self-rewriting inline cache.
// Returns when it executes EXIT for this invocation's own frame.
func Eval(state *State, pkg *bytecode.Package, instPtr int, popCount int) error {
	resultOffset := 0
	for {
		idx := instPtr
		inst := pkg.Instructions[idx]
		instPtr++

		switch inst.Op {
		case bytecode.PUSH:
			switch inst.Kind {
			case bytecode.OperandF32:
				state.pushScalar(f32Slot(inst.F32))
			default:
				state.pushScalar(u32Slot(inst.U32))
			}

		case bytecode.PUSH_SYM:
			off, ok := pkg.Labels[inst.Sym]
			if !ok {
				return diagnostics.UndefinedSymbol(inst.Sym)
			}
			pkg.Instructions[idx] = bytecode.Instruction{Op: bytecode.PUSH, Kind: bytecode.OperandU32, U32: uint32(off)}
			state.pushScalar(u32Slot(uint32(off)))

		case bytecode.COPY:
			state.pushScalar(state.peekScalar(int(inst.U32)))

		case bytecode.REF_VEC:
			state.reference(state.peekScalar(int(inst.U32)))

		case bytecode.FILL:
			v := state.popScalar().asF32()
			buf := state.alloc()
			for i := range buf.data {
				buf.data[i] = v
			}

		case bytecode.DROP_S:
			state.dropS(int(inst.U32) + resultOffset)

		case bytecode.DROP_V:
			state.relocateResult(int(inst.U32) + resultOffset)

		case bytecode.ADD_VV, bytecode.ADD_SV, bytecode.ADD_VS, bytecode.ADD_SS,
			bytecode.MUL_VV, bytecode.MUL_SV, bytecode.MUL_VS, bytecode.MUL_SS:
			state.binaryOp(inst.Op)
			state.relocateResult(int(inst.U32) + resultOffset)

		case bytecode.CALL:
			callee := state.popScalar().asU32()
			if err := Eval(state, pkg, int(callee), int(inst.U32)+resultOffset); err != nil {
				return err
			}

		case bytecode.RET:
			resultOffset = popCount

		case bytecode.EXIT:
			if state.trace != nil {
				state.trace(TraceEvent{InstPtr: idx, Op: inst.Op, ScalarDepth: len(state.scalar), VectorDepth: len(state.vectors)})
			}
			return nil
		}

		if state.trace != nil {
			state.trace(TraceEvent{
				InstPtr:     idx,
				Op:          inst.Op,
				ScalarDepth: len(state.scalar),
				VectorDepth: len(state.vectors),
			})
		}
	}
}

// binaryOp pops the two operands for op (lhs on top, rhs beneath it —
// Codegen emits rhs then lhs) and pushes the result, dispatching to the
// VV/VS/SV/SS elementwise handler spec.md §4.6 describes.
func (s *State) binaryOp(op bytecode.Opcode) {
	lhs := s.popScalar()
	rhs := s.popScalar()
	add := op == bytecode.ADD_VV || op == bytecode.ADD_SV || op == bytecode.ADD_VS || op == bytecode.ADD_SS
	apply := func(a, b float32) float32 {
		if add {
			return a + b
		}
		return a * b
	}

	switch op {
	case bytecode.ADD_VV, bytecode.MUL_VV:
		lv, rv := s.dereference(lhs), s.dereference(rhs)
		out := s.alloc()
		for i := range out.data {
			out.data[i] = apply(lv.data[i], rv.data[i])
		}

	case bytecode.ADD_SV, bytecode.MUL_SV:
		scalar := lhs.asF32()
		rv := s.dereference(rhs)
		out := s.alloc()
		for i := range out.data {
			out.data[i] = apply(scalar, rv.data[i])
		}

	case bytecode.ADD_VS, bytecode.MUL_VS:
		lv := s.dereference(lhs)
		scalar := rhs.asF32()
		out := s.alloc()
		for i := range out.data {
			out.data[i] = apply(lv.data[i], scalar)
		}

	default: // ADD_SS, MUL_SS
		s.pushScalar(f32Slot(apply(lhs.asF32(), rhs.asF32())))
	}
}

// frameSlots computes ceil(sampleCount/16), the vector-stack slot count
// one frame of sampleCount samples occupies (spec.md §3). Buffers here
// are sized directly in samples rather than in 64-byte slots (see
// DESIGN.md), so Call computes it but discards the result: every buffer,
// including the input/output one, is sized by the input's sample count.
func frameSlots(sampleCount int) int {
	return (sampleCount + 15) / 16
}

// CallOption configures a single Call invocation.
type CallOption func(*State)

// WithTrace attaches fn as the step-trace callback for a Call, invoked
// once per executed opcode.
func WithTrace(fn TraceFunc) CallOption {
	return func(s *State) { s.trace = fn }
}

// Call is VMEval's public entry point (spec.md §4.6): resolve entryLabel
// in pkg, allocate and fill a vector buffer from input, evaluate at
// popCount 0, and copy the resulting top vector out.
func Call(pkg *bytecode.Package, entryLabel string, input Data, opts ...CallOption) (Data, error) {
	start, ok := pkg.Labels[entryLabel]
	if !ok {
		return nil, diagnostics.UndefinedSymbol(entryLabel)
	}

	_ = frameSlots(len(input)) // vector-stack sizing is per-buffer here; see note above.
	state := newState(len(input))
	for _, opt := range opts {
		opt(state)
	}
	buf := state.alloc()
	copy(buf.data, input)

	if err := Eval(state, pkg, start, 0); err != nil {
		return nil, err
	}

	top := state.popScalar()
	switch top.tag {
	case tagStrongVecRef, tagWeakVecRef:
		out := make(Data, len(state.vectors[top.vecIdx].data))
		copy(out, state.vectors[top.vecIdx].data)
		return out, nil
	default:
		// A scalar-typed entry point still reports over the full frame —
		// the host always gets back one sample per input sample, so a
		// scalar result is broadcast across it (spec.md §8 scenario 1).
		out := make(Data, state.frameSamples)
		v := top.asF32()
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
}
