// Package ast defines the surface-syntax tree that BuildCFG consumes.
//
// The recursive-descent parser that produces these nodes from source text
// is an external collaborator out of scope for this module (spec.md §1);
// this package only carries the node shapes BuildCFG needs, following the
// same Node/Expression split and Accept(Visitor) double-dispatch idiom the
// teacher uses for its own (much larger) grammar.
package ast

// Node is the base interface for every AST node.
type Node interface {
	Accept(v Visitor)
}

// Expr is a Node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Visitor lets callers double-dispatch over the small expression grammar
// without a big switch statement at every call site — the teacher's own
// AST package uses this shape throughout.
type Visitor interface {
	VisitScalar(*Scalar)
	VisitIdentifier(*Identifier)
	VisitApply(*Apply)
	VisitFunctionLit(*FunctionLit)
	VisitLexicalScope(*LexicalScope)
	VisitOperatorSequence(*OperatorSequence)
}

// Scalar is a floating-point literal.
type Scalar struct {
	Value float64
}

func (s *Scalar) Accept(v Visitor) { v.VisitScalar(s) }
func (*Scalar) exprNode()          {}

// Identifier references a name — a local parameter or a global
// declaration, disambiguated by BuildCFG, not by the parser.
type Identifier struct {
	Name string
}

func (i *Identifier) Accept(v Visitor) { v.VisitIdentifier(i) }
func (*Identifier) exprNode()          {}

// Apply applies Function to Params, in source order.
type Apply struct {
	Function Expr
	Params   []Expr
}

func (a *Apply) Accept(v Visitor) { v.VisitApply(a) }
func (*Apply) exprNode()          {}

// FunctionLit is a lambda literal. Accepted by the surface grammar but
// always rejected by BuildCFG (spec.md §4.1, §9 Non-goals: no closures).
type FunctionLit struct {
	ParamNames []string
	Body       Expr
}

func (f *FunctionLit) Accept(v Visitor) { v.VisitFunctionLit(f) }
func (*FunctionLit) exprNode()          {}

// LexicalScope is a let-style local-binding form. Accepted by the surface
// grammar but always rejected by BuildCFG, same as FunctionLit.
type LexicalScope struct {
	Bindings []Binding
	Body     Expr
}

// Binding is a single name/value pair inside a LexicalScope.
type Binding struct {
	Name  string
	Value Expr
}

func (l *LexicalScope) Accept(v Visitor) { v.VisitLexicalScope(l) }
func (*LexicalScope) exprNode()          {}

// OperatorTerm is one (operator, right-hand-side) pair in a flat operator
// sequence.
type OperatorTerm struct {
	Op  string
	RHS Expr
}

// OperatorSequence is the flat, precedence-free form the surface grammar
// produces for a chain of infix operators. spec.md §3/§9: must be lowered
// to left-associative Apply nodes before reaching BuildCFG; encountering
// one inside BuildCFG is a programmer error (diagnostics.Unsupported).
type OperatorSequence struct {
	LHS   Expr
	Terms []OperatorTerm
}

func (o *OperatorSequence) Accept(v Visitor) { v.VisitOperatorSequence(o) }
func (*OperatorSequence) exprNode()          {}

// Declaration is one top-level `name param* = expression ;` binding. The
// parameter list lives on the declaration itself, not on a nested
// FunctionLit — a top-level `main x = ...` is a named function by
// construction, distinct from the lambda-literal expression form
// (FunctionLit) that BuildCFG always rejects wherever it appears nested
// inside an expression (spec.md §4.1, §9 Non-goals: no closures).
type Declaration struct {
	Name       string
	ParamNames []string // nil/empty for a nullary declaration
	Value      Expr
}

// IsFunction reports whether d declares one or more parameters.
func (d Declaration) IsFunction() bool { return len(d.ParamNames) > 0 }

// Module is an ordered list of declarations with unique names.
type Module struct {
	Declarations []Declaration
}

// Lookup returns the declaration named name, if any.
func (m *Module) Lookup(name string) (Declaration, bool) {
	for _, d := range m.Declarations {
		if d.Name == name {
			return d, true
		}
	}
	return Declaration{}, false
}
