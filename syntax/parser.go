package syntax

import (
	"bufio"
	"io"
	"os"

	"requitec/ast"
	"requitec/report"
)

// Parser turns the tokens of one source file into its list of top-level
// operations.  The source syntax is prefix based: `[opcode branches...]`, with
// a handful of infix and postfix forms layered on top.
//
//	expr  := inner {`.` inner | `:` inner | `,` inner | `(` expr* `)` | `{` expr* `}`}
//	inner := `[` opcode expr* `]` | unary expr | word | number | string | codeunit
//	unary := `+` | `-` | `!` | `!!` | `*` | `#`
//
// Parsers are created once per file.
type Parser struct {
	// lexer is the Lexer this parser is using to lex the source file.
	lexer *Lexer

	// tok is the current token the parser is positioned on.
	tok *Token
}

// NewParser creates a new parser reading from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{lexer: NewLexer(bufio.NewReader(r))}
}

// ParseFile opens and parses the source file at path.  Any compile error
// returned carries the path.
func ParseFile(path string) ([]*ast.Operation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ops, err := NewParser(f).Parse()
	if err != nil {
		return nil, report.InModule(err, path)
	}

	return ops, nil
}

// Parse parses the whole input.  Every top-level expression must be an
// operation.
func (p *Parser) Parse() ([]*ast.Operation, error) {
	if err := p.next(); err != nil {
		return nil, err
	}

	var ops []*ast.Operation
	for p.tok.Kind != TOK_EOF {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		switch v := expr.(type) {
		case *ast.Operation:
			ops = append(ops, v)
		case *ast.Identifier:
			return nil, report.Raise(report.Syntax, v.Span(), "word must be in expression")
		default:
			return nil, report.Raise(report.Syntax, v.Span(), "literal must be in expression")
		}
	}

	return ops, nil
}

// -----------------------------------------------------------------------------

// next moves the parser forward one token.
func (p *Parser) next() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}

	p.tok = tok
	return nil
}

// reject produces an error for the current token.
func (p *Parser) reject() error {
	if p.tok.Kind == TOK_EOF {
		return report.Raise(report.Syntax, p.tok.Span, "unexpected end of file")
	}

	return report.Raise(report.Syntax, p.tok.Span, "unexpected %s", p.tok.describe())
}

// -----------------------------------------------------------------------------

// parseExpr parses an expression along with any trailing infix or postfix
// forms.
func (p *Parser) parseExpr() (ast.Expression, error) {
	expr, err := p.parseInnerExpr()
	if err != nil {
		return nil, err
	}

	for {
		switch p.tok.Kind {
		case TOK_DOT:
			expr, err = p.parseInfix(expr, ast.AccessMember)
		case TOK_COLON:
			expr, err = p.parseInfix(expr, ast.AccessTable)
		case TOK_COMMA:
			expr, err = p.parseInfix(expr, ast.Attributes)
		case TOK_LPAREN:
			expr, err = p.parsePostfix(expr, TOK_RPAREN, ast.Call)
		case TOK_LBRACE:
			expr, err = p.parsePostfix(expr, TOK_RBRACE, ast.Construct)
		default:
			return expr, nil
		}

		if err != nil {
			return nil, err
		}
	}
}

// parseInfix parses the right operand of an infix form.  Chains of the same
// infix opcode are flattened into one operation.
func (p *Parser) parseInfix(lhs ast.Expression, opcode ast.Opcode) (ast.Expression, error) {
	if err := p.next(); err != nil {
		return nil, err
	}

	rhs, err := p.parseInnerExpr()
	if err != nil {
		return nil, err
	}

	span := report.NewSpanOver(lhs.Span(), rhs.Span())
	if op, ok := lhs.(*ast.Operation); ok && op.Opcode == opcode {
		return ast.NewOperation(opcode, span, append(op.Branches, rhs)...), nil
	}

	return ast.NewOperation(opcode, span, lhs, rhs), nil
}

// parsePostfix parses a call or construct suffix: `f(a b)` or `T{a b}`.
func (p *Parser) parsePostfix(lhs ast.Expression, terminator int, opcode ast.Opcode) (ast.Expression, error) {
	if err := p.next(); err != nil {
		return nil, err
	}

	op := ast.NewOperation(opcode, nil, lhs)
	end, err := p.parseBranches(op, terminator)
	if err != nil {
		return nil, err
	}

	return ast.NewOperation(opcode, report.NewSpanOver(lhs.Span(), end), op.Branches...), nil
}

// parseInnerExpr parses an expression without any trailing forms.
func (p *Parser) parseInnerExpr() (ast.Expression, error) {
	tok := p.tok

	switch tok.Kind {
	case TOK_LBRACKET:
		return p.parseSExpr()
	case TOK_OPERATOR:
		if opcode, ok := unaryOpcodes[tok.Value]; ok {
			if err := p.next(); err != nil {
				return nil, err
			}

			operand, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			return ast.NewOperation(opcode, report.NewSpanOver(tok.Span, operand.Span()), operand), nil
		}
	case TOK_WORD:
		return ast.NewIdentifier(tok.Value, tok.Span), p.next()
	case TOK_NUMBER:
		return ast.NewLiteral(tok.Value, ast.Number, tok.Span), p.next()
	case TOK_DECIMAL:
		return ast.NewLiteral(tok.Value, ast.NumberWithDecimal, tok.Span), p.next()
	case TOK_STRING:
		return ast.NewLiteral(tok.Value, ast.String, tok.Span), p.next()
	case TOK_CODEUNIT:
		return ast.NewLiteral(tok.Value, ast.Codeunit, tok.Span), p.next()
	}

	return nil, p.reject()
}

// unaryOpcodes maps the unary prefix operators to their opcodes.
var unaryOpcodes = map[string]ast.Opcode{
	"+":  ast.Plus,
	"-":  ast.Minus,
	"!":  ast.Bang,
	"!!": ast.BangBang,
	"*":  ast.Star,
	"#":  ast.Hash,
}

// parseSExpr parses a bracketed operation.  An `if` is wrapped in a
// `condition` operation so that following `else_if` and `else` branches can be
// attached to it.
func (p *Parser) parseSExpr() (ast.Expression, error) {
	start := p.tok.Span
	if err := p.next(); err != nil {
		return nil, err
	}

	opcode, err := p.parseOpcode()
	if err != nil {
		return nil, err
	}

	op := ast.NewOperation(opcode, nil)
	end, err := p.parseBranches(op, TOK_RBRACKET)
	if err != nil {
		return nil, err
	}

	span := report.NewSpanOver(start, end)
	op = ast.NewOperation(opcode, span, op.Branches...)
	if opcode == ast.If {
		return ast.NewOperation(ast.Condition, span, op), nil
	}

	return op, nil
}

// parseOpcode parses the opcode at the head of a bracketed operation.
func (p *Parser) parseOpcode() (ast.Opcode, error) {
	switch p.tok.Kind {
	case TOK_WORD, TOK_OPERATOR, TOK_DOT, TOK_COLON:
		opcode := ast.LookupOpcode(p.tok.Value)
		if opcode == ast.Unknown {
			return ast.Unknown, report.Raise(report.Syntax, p.tok.Span, "unknown opcode: `%s`", p.tok.Value)
		}

		return opcode, p.next()
	case TOK_NUMBER, TOK_DECIMAL:
		return ast.Unknown, report.Raise(report.Syntax, p.tok.Span, "opcode must not be a literal")
	}

	return ast.Unknown, p.reject()
}

// parseBranches parses expressions into the branches of op until the
// terminator is reached.  It returns the span of the terminator.
func (p *Parser) parseBranches(op *ast.Operation, terminator int) (*report.TextSpan, error) {
	for p.tok.Kind != terminator {
		if p.tok.Kind == TOK_EOF {
			return nil, report.Raise(
				report.Syntax,
				p.tok.Span,
				"expression must terminate in closing %s",
				tokenNames[terminator],
			)
		}

		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		// else_if and else attach to the preceding condition
		if len(op.Branches) > 0 && (ast.IsOperation(expr, ast.ElseIf) || ast.IsOperation(expr, ast.Else)) {
			if cond, ok := op.Branches[len(op.Branches)-1].(*ast.Operation); ok && cond.Opcode == ast.Condition {
				op.Branches[len(op.Branches)-1] = ast.NewOperation(
					ast.Condition,
					report.NewSpanOver(cond.Span(), expr.Span()),
					append(cond.Branches, expr)...,
				)
				continue
			}
		}

		op.Branches = append(op.Branches, expr)
	}

	end := p.tok.Span
	return end, p.next()
}
