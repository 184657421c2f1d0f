package ast

import "requitec/report"

// Expression is the interface for all nodes in the expression tree.  It is
// implemented only by *Identifier, *Literal, and *Operation.
type Expression interface {
	// The text span of the expression.
	Span() *report.TextSpan

	exprNode()
}

// A utility base struct for all expression nodes.
type ExprBase struct {
	// The span over which the node occurs.
	span *report.TextSpan
}

// NewExprBase creates a new expression base with the given span.
func NewExprBase(span *report.TextSpan) ExprBase {
	return ExprBase{span: span}
}

func (eb ExprBase) Span() *report.TextSpan {
	return eb.span
}

func (ExprBase) exprNode() {}

// -----------------------------------------------------------------------------

// Identifier is a bare name.
type Identifier struct {
	ExprBase

	// The name of the identifier.
	Name string
}

// NewIdentifier creates a new identifier.
func NewIdentifier(name string, span *report.TextSpan) *Identifier {
	return &Identifier{ExprBase: NewExprBase(span), Name: name}
}

// LiteralKind is the kind of a literal token.
type LiteralKind int

// Enumeration of literal kinds.
const (
	Number LiteralKind = iota
	NumberWithDecimal
	String
	Codeunit
)

func (lk LiteralKind) String() string {
	switch lk {
	case Number:
		return "number"
	case NumberWithDecimal:
		return "number with decimal"
	case String:
		return "string"
	default:
		return "codeunit"
	}
}

// Literal is a literal token.  String and codeunit literals keep their
// delimiting quotes and escape sequences verbatim.
type Literal struct {
	ExprBase

	// The text of the literal.
	Text string

	// The kind of the literal.
	Kind LiteralKind
}

// NewLiteral creates a new literal.
func NewLiteral(text string, kind LiteralKind, span *report.TextSpan) *Literal {
	return &Literal{ExprBase: NewExprBase(span), Text: text, Kind: kind}
}

// Operation is an opcode applied to an ordered list of branches.  The meaning
// of each branch is opcode specific and positional.
type Operation struct {
	ExprBase

	// The opcode of the operation.
	Opcode Opcode

	// The branches of the operation.
	Branches []Expression
}

// NewOperation creates a new operation.
func NewOperation(opcode Opcode, span *report.TextSpan, branches ...Expression) *Operation {
	return &Operation{ExprBase: NewExprBase(span), Opcode: opcode, Branches: branches}
}

// -----------------------------------------------------------------------------

// NameOf returns the name of an identifier expression.
func NameOf(expr Expression) (string, bool) {
	if ident, ok := expr.(*Identifier); ok {
		return ident.Name, true
	}

	return "", false
}

// OpcodeOf returns the opcode of an operation expression.
func OpcodeOf(expr Expression) (Opcode, bool) {
	if op, ok := expr.(*Operation); ok {
		return op.Opcode, true
	}

	return Unknown, false
}

// IsOperation returns whether expr is an operation with the given opcode.
func IsOperation(expr Expression, opcode Opcode) bool {
	op, ok := expr.(*Operation)
	return ok && op.Opcode == opcode
}
