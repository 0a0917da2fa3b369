// Package config holds process-wide constants and the loadable runtime
// configuration for a sigvec host.
//
// Grounded on internal/config/constants.go's bare const-block idiom
// (source file extensions, built-in names as package-level constants)
// and internal/ext/config.go's yaml.v3-tagged struct for the loadable
// part.
package config

// SourceFileExt is the recognized extension for sigvec source modules.
const SourceFileExt = ".sv"

// Built-in operator names, shared between internal/intrinsics (which
// seeds their typed variants) and the surface grammar (which never
// resolves operator precedence — spec.md §9's open question).
const (
	AddOpName = "+"
	MulOpName = "*"
)

// EntryFuncName is the default entry declaration, filled in by Load and
// by cmd/sigvec when no entry is configured.
const EntryFuncName = "main"

// AtomicF32Tag is the interned tag of the language's one shipped scalar
// type.
const AtomicF32Tag = "F32"

// SamplesPerVectorSlot is the sample count spec.md §3 packs into one
// 64-byte cache-aligned vector-stack slot (16 f32 lanes). Buffers here
// are sized directly in samples rather than in slots (see DESIGN.md's
// vector-stack open question), so this constant is not used to size
// allocations and nothing in the module currently references it.
const SamplesPerVectorSlot = 16
